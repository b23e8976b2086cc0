package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/cmlabs-hris/kintai-backend-go/internal/domain/auth"
	"github.com/cmlabs-hris/kintai-backend-go/internal/domain/user"
	"github.com/cmlabs-hris/kintai-backend-go/internal/pkg/clock"
	"github.com/cmlabs-hris/kintai-backend-go/internal/pkg/database"
	"github.com/cmlabs-hris/kintai-backend-go/internal/pkg/jwt"
	"github.com/cmlabs-hris/kintai-backend-go/internal/pkg/metrics"
	"github.com/go-chi/jwtauth/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const (
	loginKindUser   = "user"
	loginKindAdmin  = "admin"
	loginKindGoogle = "google"
)

// hashCost is lowered in tests.
var hashCost = bcrypt.DefaultCost

type AuthServiceImpl struct {
	txManager database.TxManager
	user.UserRepository
	auth.RefreshTokenRepository
	jwt.Service
	clock   clock.Clock
	metrics *metrics.Metrics
}

func NewAuthService(
	txManager database.TxManager,
	userRepository user.UserRepository,
	refreshTokenRepository auth.RefreshTokenRepository,
	jwtService jwt.Service,
	clk clock.Clock,
	m *metrics.Metrics,
) auth.AuthService {
	return &AuthServiceImpl{
		txManager:              txManager,
		UserRepository:         userRepository,
		RefreshTokenRepository: refreshTokenRepository,
		Service:                jwtService,
		clock:                  clk,
		metrics:                m,
	}
}

// HashPassword hashes a plain password with bcrypt.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), hashCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// Signup implements auth.AuthService.
func (a *AuthServiceImpl) Signup(ctx context.Context, signupReq auth.SignupRequest, sessionTrackReq auth.SessionTrackingRequest) (auth.SignupResponse, error) {
	now := a.clock.Now()
	signupReq.Email = strings.TrimSpace(signupReq.Email)
	signupReq.Username = strings.TrimSpace(signupReq.Username)

	if err := signupReq.Validate(clock.Today(now)); err != nil {
		return auth.SignupResponse{}, err
	}

	exists, err := a.UserRepository.ExistsByEmail(ctx, signupReq.Email)
	if err != nil {
		return auth.SignupResponse{}, fmt.Errorf("failed to check email: %w", err)
	}
	if exists {
		return auth.SignupResponse{}, user.ErrUserEmailExists
	}

	hashedPassword, err := HashPassword(signupReq.Password)
	if err != nil {
		return auth.SignupResponse{}, fmt.Errorf("failed to hash password: %w", err)
	}
	id, err := uuid.NewV7()
	if err != nil {
		return auth.SignupResponse{}, fmt.Errorf("failed to generate user id: %w", err)
	}
	birthday, _ := signupReq.BirthdayDate()

	newUser := user.User{
		ID:           id.String(),
		Username:     signupReq.Username,
		Birthday:     birthday,
		Gender:       signupReq.Gender,
		Email:        signupReq.Email,
		PasswordHash: hashedPassword,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if signupReq.PhoneNumber != "" {
		newUser.PhoneNumber = &signupReq.PhoneNumber
	}

	var tokenResponse auth.TokenResponse
	err = a.txManager.WithinTransaction(ctx, func(txCtx context.Context) error {
		created, err := a.UserRepository.Create(txCtx, newUser)
		if err != nil {
			return err
		}
		newUser = created

		tokenResponse, err = a.issueTokens(txCtx, created, sessionTrackReq)
		return err
	})
	if err != nil {
		if errors.Is(err, user.ErrUserEmailExists) {
			return auth.SignupResponse{}, err
		}
		return auth.SignupResponse{}, fmt.Errorf("failed to create user: %w", err)
	}

	slog.Info("User signed up", "user_id", newUser.ID)
	return auth.SignupResponse{
		User:  user.NewUserResponse(newUser, now),
		Token: tokenResponse,
	}, nil
}

// Login implements auth.AuthService.
func (a *AuthServiceImpl) Login(ctx context.Context, loginReq auth.LoginRequest, sessionTrackReq auth.SessionTrackingRequest) (auth.TokenResponse, error) {
	userData, err := a.authenticate(ctx, loginReq, auth.ErrInvalidCredentials)
	if err != nil {
		a.metrics.ObserveLogin(loginKindUser, false)
		return auth.TokenResponse{}, err
	}

	tokenResponse, err := a.issueTokensInTx(ctx, userData, sessionTrackReq)
	if err != nil {
		return auth.TokenResponse{}, err
	}
	a.metrics.ObserveLogin(loginKindUser, true)
	return tokenResponse, nil
}

// LoginAdmin implements auth.AuthService.
func (a *AuthServiceImpl) LoginAdmin(ctx context.Context, loginReq auth.LoginRequest, sessionTrackReq auth.SessionTrackingRequest) (auth.TokenResponse, error) {
	userData, err := a.authenticate(ctx, loginReq, auth.ErrInvalidAdminCredentials)
	if err == nil && !userData.IsAdmin {
		err = auth.ErrInvalidAdminCredentials
	}
	if err != nil {
		a.metrics.ObserveLogin(loginKindAdmin, false)
		return auth.TokenResponse{}, err
	}

	tokenResponse, err := a.issueTokensInTx(ctx, userData, sessionTrackReq)
	if err != nil {
		return auth.TokenResponse{}, err
	}
	a.metrics.ObserveLogin(loginKindAdmin, true)
	return tokenResponse, nil
}

// LoginWithGoogle implements auth.AuthService. Accounts are never created
// here since signup needs profile fields Google does not provide.
func (a *AuthServiceImpl) LoginWithGoogle(ctx context.Context, googleEmail string, googleID string, sessionTrackReq auth.SessionTrackingRequest) (auth.TokenResponse, error) {
	userData, err := a.UserRepository.GetByEmail(ctx, googleEmail)
	if err != nil {
		a.metrics.ObserveLogin(loginKindGoogle, false)
		if errors.Is(err, user.ErrUserNotFound) {
			return auth.TokenResponse{}, auth.ErrInvalidCredentials
		}
		return auth.TokenResponse{}, fmt.Errorf("failed to get user data by email: %w", err)
	}

	switch {
	case userData.OAuthProviderID == nil:
		userData, err = a.UserRepository.LinkGoogleAccount(ctx, googleID, userData.Email)
		if err != nil {
			a.metrics.ObserveLogin(loginKindGoogle, false)
			if errors.Is(err, user.ErrOAuthProviderIDExists) {
				return auth.TokenResponse{}, auth.ErrInvalidCredentials
			}
			return auth.TokenResponse{}, fmt.Errorf("failed to link google account: %w", err)
		}
		slog.Info("Google account linked", "user_id", userData.ID)
	case *userData.OAuthProviderID != googleID:
		a.metrics.ObserveLogin(loginKindGoogle, false)
		return auth.TokenResponse{}, auth.ErrInvalidCredentials
	}

	tokenResponse, err := a.issueTokensInTx(ctx, userData, sessionTrackReq)
	if err != nil {
		return auth.TokenResponse{}, err
	}
	a.metrics.ObserveLogin(loginKindGoogle, true)
	return tokenResponse, nil
}

// Logout implements auth.AuthService.
func (a *AuthServiceImpl) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	now := a.clock.Now()

	return a.txManager.WithinTransaction(ctx, func(txCtx context.Context) error {
		_, isRevoked, err := a.RefreshTokenRepository.IsRefreshTokenRevoked(txCtx, token, now)
		if err != nil {
			if errors.Is(err, auth.ErrInvalidToken) {
				return nil
			}
			return fmt.Errorf("failed to check if refresh token is revoked: %w", err)
		}
		if !isRevoked {
			if err := a.RefreshTokenRepository.RevokeRefreshToken(txCtx, token, now); err != nil {
				return fmt.Errorf("failed to revoke refresh token: %w", err)
			}
		}
		return nil
	})
}

// RefreshToken implements auth.AuthService.
func (a *AuthServiceImpl) RefreshToken(ctx context.Context, req auth.RefreshTokenRequest) (auth.AccessTokenResponse, error) {
	var accessTokenResponse auth.AccessTokenResponse

	if err := req.Validate(); err != nil {
		return auth.AccessTokenResponse{}, err
	}

	// 1. Verify JWT signature and expiry
	token, err := jwtauth.VerifyToken(a.JWTAuth(), req.RefreshToken)
	if err != nil {
		return auth.AccessTokenResponse{}, auth.ErrInvalidToken
	}

	// 2. Check token type is "refresh"
	claims, err := token.AsMap(ctx)
	if err != nil {
		return auth.AccessTokenResponse{}, auth.ErrInvalidToken
	}
	tokenType, ok := claims["type"].(string)
	if !ok || tokenType != jwt.TokenTypeRefresh {
		return auth.AccessTokenResponse{}, auth.ErrInvalidToken
	}

	// 3. Check DB for revocation/expiry
	userID, isRevoked, err := a.RefreshTokenRepository.IsRefreshTokenRevoked(ctx, req.RefreshToken, a.clock.Now())
	if err != nil {
		if errors.Is(err, auth.ErrInvalidToken) {
			return auth.AccessTokenResponse{}, err
		}
		return auth.AccessTokenResponse{}, fmt.Errorf("failed to check refresh token: %w", err)
	}
	if isRevoked {
		return auth.AccessTokenResponse{}, auth.ErrRefreshTokenRevoked
	}

	// 4. Get user; a deleted account cannot refresh
	userData, err := a.UserRepository.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			return auth.AccessTokenResponse{}, auth.ErrInvalidToken
		}
		return auth.AccessTokenResponse{}, fmt.Errorf("failed to get user: %w", err)
	}

	// 5. Generate new access token
	accessTokenResponse.AccessToken, accessTokenResponse.AccessTokenExpiresIn, err =
		a.Service.GenerateAccessToken(userData.ID, userData.Email, userData.IsAdmin)
	if err != nil {
		return auth.AccessTokenResponse{}, fmt.Errorf("failed to generate access token: %w", err)
	}

	return accessTokenResponse, nil
}

// authenticate checks email and password, answering every mismatch with
// invalid so that callers cannot tell which part was wrong.
func (a *AuthServiceImpl) authenticate(ctx context.Context, loginReq auth.LoginRequest, invalid error) (user.User, error) {
	if err := loginReq.Validate(); err != nil {
		return user.User{}, invalid
	}

	userData, err := a.UserRepository.GetByEmail(ctx, strings.TrimSpace(loginReq.Email))
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			return user.User{}, invalid
		}
		return user.User{}, fmt.Errorf("failed to get user by email: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(userData.PasswordHash), []byte(loginReq.Password)); err != nil {
		return user.User{}, invalid
	}
	return userData, nil
}

func (a *AuthServiceImpl) issueTokensInTx(ctx context.Context, userData user.User, sessionTrackReq auth.SessionTrackingRequest) (auth.TokenResponse, error) {
	var tokenResponse auth.TokenResponse
	err := a.txManager.WithinTransaction(ctx, func(txCtx context.Context) error {
		var err error
		tokenResponse, err = a.issueTokens(txCtx, userData, sessionTrackReq)
		return err
	})
	if err != nil {
		return auth.TokenResponse{}, err
	}
	return tokenResponse, nil
}

func (a *AuthServiceImpl) issueTokens(ctx context.Context, userData user.User, sessionTrackReq auth.SessionTrackingRequest) (auth.TokenResponse, error) {
	var tokenResponse auth.TokenResponse
	var err error

	tokenResponse.AccessToken, tokenResponse.AccessTokenExpiresIn, err = a.Service.GenerateAccessToken(userData.ID, userData.Email, userData.IsAdmin)
	if err != nil {
		return auth.TokenResponse{}, fmt.Errorf("failed to create access token: %w", err)
	}
	tokenResponse.RefreshToken, tokenResponse.RefreshTokenExpiresIn, err = a.Service.GenerateRefreshToken(userData.ID)
	if err != nil {
		return auth.TokenResponse{}, fmt.Errorf("failed to create refresh token: %w", err)
	}

	err = a.RefreshTokenRepository.CreateRefreshToken(ctx, userData.ID, tokenResponse.RefreshToken, tokenResponse.RefreshTokenExpiresIn, sessionTrackReq)
	if err != nil {
		return auth.TokenResponse{}, fmt.Errorf("failed to save refresh token to database: %w", err)
	}
	return tokenResponse, nil
}
