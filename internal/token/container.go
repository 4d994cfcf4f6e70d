package token

import (
	"time"

	"golang.org/x/oauth2"
	"gorm.io/gorm"
)

type TokenContainer struct {
	Repo    TokenRepository
	Manager TokenManager
}

func NewTokenContainer(db *gorm.DB, oauthConfig *oauth2.Config, refreshMargin time.Duration) *TokenContainer {
	repo := NewRepository(db)

	return &TokenContainer{
		Repo:    repo,
		Manager: NewTokenManager(repo, oauthConfig, refreshMargin),
	}
}
