package token

import (
	"context"
	"errors"
	"fmt"

	"github.com/saulo-duarte/chronos-calendar-sync/internal/config"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type TokenRepository interface {
	Get(ctx context.Context, userID string) (*TokenRecord, error)
	Update(ctx context.Context, userID string, update TokenUpdate) error
	Save(ctx context.Context, record *TokenRecord) error
}

type tokenRepository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) TokenRepository {
	return &tokenRepository{db: db}
}

// Get returns nil, nil when the user never connected a Google account.
func (r *tokenRepository) Get(ctx context.Context, userID string) (*TokenRecord, error) {
	var row googleToken
	if err := r.db.WithContext(ctx).First(&row, "user_id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	access, err := config.Decrypt(row.EncryptedAccessToken)
	if err != nil {
		return nil, fmt.Errorf("decrypt access token: %w", err)
	}

	rec := &TokenRecord{
		UserID:      row.UserID,
		AccessToken: access,
		ExpiresAt:   row.ExpiresAt,
	}
	if row.EncryptedRefreshToken != nil && *row.EncryptedRefreshToken != "" {
		refresh, err := config.Decrypt(*row.EncryptedRefreshToken)
		if err != nil {
			return nil, fmt.Errorf("decrypt refresh token: %w", err)
		}
		rec.RefreshToken = &refresh
	}
	return rec, nil
}

func (r *tokenRepository) Update(ctx context.Context, userID string, update TokenUpdate) error {
	access, err := config.Encrypt(update.AccessToken)
	if err != nil {
		return fmt.Errorf("encrypt access token: %w", err)
	}

	fields := map[string]interface{}{
		"encrypted_access_token": access,
		"expires_at":             update.ExpiresAt,
	}
	if update.RefreshToken != nil {
		refresh, err := config.Encrypt(*update.RefreshToken)
		if err != nil {
			return fmt.Errorf("encrypt refresh token: %w", err)
		}
		fields["encrypted_refresh_token"] = refresh
	}

	return r.db.WithContext(ctx).
		Model(&googleToken{}).
		Where("user_id = ?", userID).
		Updates(fields).Error
}

// Save stores the tokens obtained on OAuth consent, replacing any previous row.
func (r *tokenRepository) Save(ctx context.Context, record *TokenRecord) error {
	access, err := config.Encrypt(record.AccessToken)
	if err != nil {
		return fmt.Errorf("encrypt access token: %w", err)
	}

	row := googleToken{
		UserID:               record.UserID,
		EncryptedAccessToken: access,
		ExpiresAt:            record.ExpiresAt,
	}
	if record.RefreshToken != nil {
		refresh, err := config.Encrypt(*record.RefreshToken)
		if err != nil {
			return fmt.Errorf("encrypt refresh token: %w", err)
		}
		row.EncryptedRefreshToken = &refresh
	}

	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			UpdateAll: true,
		}).
		Create(&row).Error
}
