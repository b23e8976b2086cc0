package auth

import "errors"

var (
	ErrInvalidCredentials      = errors.New("メールアドレスまたはパスワードが間違っています.")
	ErrInvalidAdminCredentials = errors.New("⚠️管理者のメールアドレスまたはパスワードが間違っています．")
	ErrInvalidToken            = errors.New("invalid or expired token")
	ErrRefreshTokenRevoked     = errors.New("refresh token has been revoked")
	ErrForbidden               = errors.New("forbidden")
	ErrGoogleSignInDisabled    = errors.New("google sign-in is not configured")
	ErrInvalidOAuthState       = errors.New("invalid oauth state")
)
