package auth

import (
	"context"
	"time"
)

// RefreshTokenRepository persists issued refresh tokens. Only a hash of each
// token is stored.
type RefreshTokenRepository interface {
	CreateRefreshToken(ctx context.Context, userID string, token string, expiresAt int64, session SessionTrackingRequest) error
	// IsRefreshTokenRevoked reports the owning user and whether the token is
	// revoked or expired at now. An unknown token yields ErrInvalidToken.
	IsRefreshTokenRevoked(ctx context.Context, token string, now time.Time) (userID string, revoked bool, err error)
	RevokeRefreshToken(ctx context.Context, token string, now time.Time) error
}
