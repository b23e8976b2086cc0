package auth

import (
	"context"

	"github.com/cmlabs-hris/kintai-backend-go/internal/domain/user"
)

type AuthService interface {
	Signup(ctx context.Context, req SignupRequest, session SessionTrackingRequest) (SignupResponse, error)
	Login(ctx context.Context, req LoginRequest, session SessionTrackingRequest) (TokenResponse, error)
	LoginAdmin(ctx context.Context, req LoginRequest, session SessionTrackingRequest) (TokenResponse, error)
	LoginWithGoogle(ctx context.Context, email string, googleID string, session SessionTrackingRequest) (TokenResponse, error)
	Logout(ctx context.Context, refreshToken string) error
	RefreshToken(ctx context.Context, req RefreshTokenRequest) (AccessTokenResponse, error)
}

// SignupResponse is returned after a successful signup; the new user is
// signed in straight away.
type SignupResponse struct {
	User  user.UserResponse `json:"user"`
	Token TokenResponse     `json:"token"`
}
