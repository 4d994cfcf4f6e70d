package token

import (
	"context"
	"time"

	"github.com/saulo-duarte/chronos-calendar-sync/internal/config"
	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
	"golang.org/x/sync/singleflight"
)

// refreshedLifetime is assumed when the provider omits expires_in.
const refreshedLifetime = time.Hour

type TokenManager interface {
	EnsureValidToken(ctx context.Context, userID string) (*TokenRecord, error)
}

type tokenManager struct {
	repo        TokenRepository
	oauthConfig *oauth2.Config
	margin      time.Duration
	now         func() time.Time

	refreshes singleflight.Group
}

func NewTokenManager(repo TokenRepository, oauthConfig *oauth2.Config, margin time.Duration) TokenManager {
	return &tokenManager{
		repo:        repo,
		oauthConfig: oauthConfig,
		margin:      margin,
		now:         time.Now,
	}
}

// EnsureValidToken returns a token that stays valid for at least the
// refresh margin, refreshing it through the OAuth2 refresh-token grant when
// needed. Refreshes for the same user are collapsed into one grant.
func (m *tokenManager) EnsureValidToken(ctx context.Context, userID string) (*TokenRecord, error) {
	log := config.WithContext(ctx).WithField("user_id", userID)

	rec, err := m.repo.Get(ctx, userID)
	if err != nil {
		log.WithError(err).Error("Failed to load Google token")
		return nil, err
	}
	if rec == nil {
		return nil, ErrNotConnected
	}

	if rec.ExpiresAt == nil || rec.ExpiresAt.After(m.now().Add(m.margin)) {
		return rec, nil
	}

	if rec.RefreshToken == nil || *rec.RefreshToken == "" {
		log.Warn("Google token expired and no refresh token is stored")
		return nil, ErrReauthorizationRequired
	}

	v, err, shared := m.refreshes.Do(userID, func() (interface{}, error) {
		return m.refresh(ctx, log, rec)
	})
	if err != nil {
		return nil, err
	}
	if shared {
		log.Debug("Joined in-flight token refresh")
	}
	return v.(*TokenRecord), nil
}

func (m *tokenManager) refresh(ctx context.Context, log logrus.FieldLogger, rec *TokenRecord) (*TokenRecord, error) {
	src := m.oauthConfig.TokenSource(ctx, &oauth2.Token{RefreshToken: *rec.RefreshToken})
	tok, err := src.Token()
	if err != nil {
		rf := newRefreshFailed(err)
		log.WithError(err).Warnf("Google token refresh rejected: %s", rf.Detail)
		return nil, rf
	}

	exp := tok.Expiry.UTC()
	if tok.Expiry.IsZero() {
		exp = m.now().Add(refreshedLifetime).UTC()
	}
	update := TokenUpdate{AccessToken: tok.AccessToken, ExpiresAt: &exp}
	refreshed := &TokenRecord{
		UserID:       rec.UserID,
		AccessToken:  tok.AccessToken,
		RefreshToken: rec.RefreshToken,
		ExpiresAt:    update.ExpiresAt,
	}
	if tok.RefreshToken != "" && tok.RefreshToken != *rec.RefreshToken {
		rotated := tok.RefreshToken
		update.RefreshToken = &rotated
		refreshed.RefreshToken = &rotated
	}

	if err := m.repo.Update(ctx, rec.UserID, update); err != nil {
		log.WithError(err).Error("Failed to persist refreshed Google token")
		return nil, err
	}

	log.Info("Google token refreshed")
	return refreshed, nil
}
