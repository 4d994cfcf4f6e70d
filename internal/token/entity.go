package token

import "time"

// TokenRecord is the decrypted view of a user's Google credentials.
type TokenRecord struct {
	UserID       string
	AccessToken  string
	RefreshToken *string
	ExpiresAt    *time.Time
}

// TokenUpdate carries the fields written after a refresh. A nil
// RefreshToken leaves the stored one alone.
type TokenUpdate struct {
	AccessToken  string
	RefreshToken *string
	ExpiresAt    *time.Time
}

// googleToken is the persisted, encrypted row.
type googleToken struct {
	UserID                string     `gorm:"type:text;primaryKey"`
	EncryptedAccessToken  string     `gorm:"type:text;not null"`
	EncryptedRefreshToken *string    `gorm:"type:text"`
	ExpiresAt             *time.Time
	UpdatedAt             time.Time `gorm:"autoUpdateTime"`
}

func (googleToken) TableName() string {
	return "google_tokens"
}
