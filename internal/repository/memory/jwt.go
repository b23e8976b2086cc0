package memory

import (
	"context"
	"time"

	"github.com/cmlabs-hris/kintai-backend-go/internal/domain/auth"
	"github.com/cmlabs-hris/kintai-backend-go/internal/pkg/jwt"
)

type refreshTokenRepository struct {
	store *Store
}

// CreateRefreshToken implements auth.RefreshTokenRepository.
func (r *refreshTokenRepository) CreateRefreshToken(ctx context.Context, userID string, token string, expiresAt int64, session auth.SessionTrackingRequest) error {
	defer r.store.lockWrite(ctx)()

	r.store.refreshTokens[jwt.HashToken(token)] = refreshToken{
		userID:    userID,
		expiresAt: expiresAt,
		session:   session,
	}
	return nil
}

// IsRefreshTokenRevoked implements auth.RefreshTokenRepository.
func (r *refreshTokenRepository) IsRefreshTokenRevoked(ctx context.Context, token string, now time.Time) (string, bool, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	stored, ok := r.store.refreshTokens[jwt.HashToken(token)]
	if !ok {
		return "", false, auth.ErrInvalidToken
	}
	expired := !time.Unix(stored.expiresAt, 0).After(now)
	return stored.userID, stored.revoked || expired, nil
}

// RevokeRefreshToken implements auth.RefreshTokenRepository.
func (r *refreshTokenRepository) RevokeRefreshToken(ctx context.Context, token string, now time.Time) error {
	defer r.store.lockWrite(ctx)()

	hash := jwt.HashToken(token)
	if stored, ok := r.store.refreshTokens[hash]; ok {
		stored.revoked = true
		r.store.refreshTokens[hash] = stored
	}
	return nil
}
