package auth

import (
	"context"
	"testing"

	"github.com/cmlabs-hris/kintai-backend-go/internal/domain/auth"
	"github.com/cmlabs-hris/kintai-backend-go/internal/domain/user"
	"github.com/cmlabs-hris/kintai-backend-go/internal/pkg/clock"
	"github.com/cmlabs-hris/kintai-backend-go/internal/pkg/jwt"
	"github.com/cmlabs-hris/kintai-backend-go/internal/pkg/metrics"
	"github.com/cmlabs-hris/kintai-backend-go/internal/pkg/validator"
	"github.com/cmlabs-hris/kintai-backend-go/internal/repository/memory"
	"github.com/go-chi/jwtauth/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const (
	testAccessExp  = "1h"
	testRefreshExp = "24h"
	testSecret     = "test-secret-key-for-jwt"
	testPassword   = "password123"
)

func init() {
	hashCost = bcrypt.MinCost
}

type authFixture struct {
	svc     auth.AuthService
	store   *memory.Store
	jwt     jwt.Service
	metrics *metrics.Metrics
}

func newAuthFixture(t *testing.T) authFixture {
	t.Helper()
	store := memory.NewStore()
	jwtService, err := jwt.NewJWTService(testSecret, testAccessExp, testRefreshExp, false)
	require.NoError(t, err)
	m := metrics.New()

	svc := NewAuthService(store.TxManager(), store.Users(), store.RefreshTokens(), jwtService, clock.New(clock.DefaultZone), m)
	return authFixture{svc: svc, store: store, jwt: jwtService, metrics: m}
}

func validSignup(email string) auth.SignupRequest {
	return auth.SignupRequest{
		Username:    "山田太郎",
		Birthday:    "2000-06-15",
		Gender:      user.GenderMale,
		PhoneNumber: "090-1234-5678",
		Email:       email,
		Password:    testPassword,
	}
}

func (f authFixture) signup(t *testing.T, email string) auth.SignupResponse {
	t.Helper()
	resp, err := f.svc.Signup(context.Background(), validSignup(email), auth.SessionTrackingRequest{UserAgent: "go-test", IPAddress: "127.0.0.1"})
	require.NoError(t, err)
	return resp
}

func (f authFixture) promote(t *testing.T, email string) {
	t.Helper()
	require.NoError(t, f.store.Users().UpdateAdmin(context.Background(), email, true))
}

func TestSignup_CreatesUserAndSignsIn(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	resp := f.signup(t, "taro@example.com")

	assert.NotEmpty(t, resp.User.ID)
	assert.Equal(t, "taro@example.com", resp.User.Email)
	assert.Equal(t, "男性", resp.User.GenderLabel)
	assert.False(t, resp.User.IsAdmin)
	assert.NotEmpty(t, resp.Token.AccessToken)
	assert.NotEmpty(t, resp.Token.RefreshToken)

	stored, err := f.store.Users().GetByEmail(ctx, "taro@example.com")
	require.NoError(t, err)
	assert.NotEqual(t, testPassword, stored.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte(testPassword)))
	require.NotNil(t, stored.PhoneNumber)
	assert.Equal(t, "090-1234-5678", *stored.PhoneNumber)

	userID, revoked, err := f.store.RefreshTokens().IsRefreshTokenRevoked(ctx, resp.Token.RefreshToken, clock.New(clock.DefaultZone).Now())
	require.NoError(t, err)
	assert.False(t, revoked)
	assert.Equal(t, resp.User.ID, userID)
}

func TestSignup_DuplicateEmail(t *testing.T) {
	f := newAuthFixture(t)
	f.signup(t, "taro@example.com")

	_, err := f.svc.Signup(context.Background(), validSignup("taro@example.com"), auth.SessionTrackingRequest{})
	assert.ErrorIs(t, err, user.ErrUserEmailExists)
}

func TestSignup_ValidationErrors(t *testing.T) {
	f := newAuthFixture(t)

	req := validSignup("not-an-email")
	req.Username = ""
	req.Birthday = "2000/06/15"
	req.Password = "short"

	_, err := f.svc.Signup(context.Background(), req, auth.SessionTrackingRequest{})
	require.Error(t, err)

	var verrs validator.ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.True(t, verrs.Has("username"))
	assert.True(t, verrs.Has("birthday"))
	assert.True(t, verrs.Has("email"))
	assert.True(t, verrs.Has("password"))
	assert.False(t, verrs.Has("gender"))
}

func TestSignup_EmptyPhoneIsStoredAsNull(t *testing.T) {
	f := newAuthFixture(t)
	req := validSignup("hanako@example.com")
	req.PhoneNumber = ""

	resp, err := f.svc.Signup(context.Background(), req, auth.SessionTrackingRequest{})
	require.NoError(t, err)
	assert.Nil(t, resp.User.PhoneNumber)
}

func TestLogin(t *testing.T) {
	f := newAuthFixture(t)
	f.signup(t, "taro@example.com")

	tests := []struct {
		name     string
		email    string
		password string
		wantErr  error
	}{
		{name: "valid credentials", email: "taro@example.com", password: testPassword},
		{name: "wrong password", email: "taro@example.com", password: "wrongpassword", wantErr: auth.ErrInvalidCredentials},
		{name: "unknown email", email: "nobody@example.com", password: testPassword, wantErr: auth.ErrInvalidCredentials},
		{name: "empty password", email: "taro@example.com", password: "", wantErr: auth.ErrInvalidCredentials},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := f.svc.Login(context.Background(), auth.LoginRequest{Email: tt.email, Password: tt.password}, auth.SessionTrackingRequest{})
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.NotEmpty(t, resp.AccessToken)
			assert.NotEmpty(t, resp.RefreshToken)
		})
	}
}

func TestLoginAdmin(t *testing.T) {
	f := newAuthFixture(t)
	f.signup(t, "member@example.com")
	f.signup(t, "admin@example.com")
	f.promote(t, "admin@example.com")

	t.Run("non-admin is refused with the admin message", func(t *testing.T) {
		_, err := f.svc.LoginAdmin(context.Background(), auth.LoginRequest{Email: "member@example.com", Password: testPassword}, auth.SessionTrackingRequest{})
		assert.ErrorIs(t, err, auth.ErrInvalidAdminCredentials)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := f.svc.LoginAdmin(context.Background(), auth.LoginRequest{Email: "admin@example.com", Password: "wrongpassword"}, auth.SessionTrackingRequest{})
		assert.ErrorIs(t, err, auth.ErrInvalidAdminCredentials)
	})

	t.Run("admin gets an admin access token", func(t *testing.T) {
		resp, err := f.svc.LoginAdmin(context.Background(), auth.LoginRequest{Email: "admin@example.com", Password: testPassword}, auth.SessionTrackingRequest{})
		require.NoError(t, err)

		token, err := jwtauth.VerifyToken(f.jwt.JWTAuth(), resp.AccessToken)
		require.NoError(t, err)
		isAdmin, ok := token.Get("is_admin")
		require.True(t, ok)
		assert.Equal(t, true, isAdmin)
	})
}

func TestLoginWithGoogle(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	f.signup(t, "taro@example.com")

	t.Run("unknown email is not signed up", func(t *testing.T) {
		_, err := f.svc.LoginWithGoogle(ctx, "nobody@example.com", "google-1", auth.SessionTrackingRequest{})
		assert.ErrorIs(t, err, auth.ErrInvalidCredentials)

		exists, err := f.store.Users().ExistsByEmail(ctx, "nobody@example.com")
		require.NoError(t, err)
		assert.False(t, exists)
	})

	t.Run("first login links the account", func(t *testing.T) {
		resp, err := f.svc.LoginWithGoogle(ctx, "taro@example.com", "google-1", auth.SessionTrackingRequest{})
		require.NoError(t, err)
		assert.NotEmpty(t, resp.AccessToken)

		stored, err := f.store.Users().GetByEmail(ctx, "taro@example.com")
		require.NoError(t, err)
		require.NotNil(t, stored.OAuthProviderID)
		assert.Equal(t, "google-1", *stored.OAuthProviderID)
	})

	t.Run("a different google account is refused", func(t *testing.T) {
		_, err := f.svc.LoginWithGoogle(ctx, "taro@example.com", "google-2", auth.SessionTrackingRequest{})
		assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
	})
}

func TestRefreshToken(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	signed := f.signup(t, "taro@example.com")

	t.Run("valid refresh token", func(t *testing.T) {
		resp, err := f.svc.RefreshToken(ctx, auth.RefreshTokenRequest{RefreshToken: signed.Token.RefreshToken})
		require.NoError(t, err)
		assert.NotEmpty(t, resp.AccessToken)
		assert.NotZero(t, resp.AccessTokenExpiresIn)
	})

	t.Run("access token cannot be used to refresh", func(t *testing.T) {
		_, err := f.svc.RefreshToken(ctx, auth.RefreshTokenRequest{RefreshToken: signed.Token.AccessToken})
		assert.ErrorIs(t, err, auth.ErrInvalidToken)
	})

	t.Run("garbage token", func(t *testing.T) {
		_, err := f.svc.RefreshToken(ctx, auth.RefreshTokenRequest{RefreshToken: "not.a.jwt"})
		assert.ErrorIs(t, err, auth.ErrInvalidToken)
	})

	t.Run("empty token is a validation error", func(t *testing.T) {
		_, err := f.svc.RefreshToken(ctx, auth.RefreshTokenRequest{})
		var verrs validator.ValidationErrors
		assert.ErrorAs(t, err, &verrs)
	})

	t.Run("token unknown to the store", func(t *testing.T) {
		orphan, _, err := f.jwt.GenerateRefreshToken(signed.User.ID)
		require.NoError(t, err)
		_, err = f.svc.RefreshToken(ctx, auth.RefreshTokenRequest{RefreshToken: orphan})
		assert.ErrorIs(t, err, auth.ErrInvalidToken)
	})
}

func TestLogout_RevokesRefreshToken(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	signed := f.signup(t, "taro@example.com")

	require.NoError(t, f.svc.Logout(ctx, signed.Token.RefreshToken))

	_, err := f.svc.RefreshToken(ctx, auth.RefreshTokenRequest{RefreshToken: signed.Token.RefreshToken})
	assert.ErrorIs(t, err, auth.ErrRefreshTokenRevoked)

	// logging out twice, or with nothing, is harmless
	assert.NoError(t, f.svc.Logout(ctx, signed.Token.RefreshToken))
	assert.NoError(t, f.svc.Logout(ctx, ""))
	assert.NoError(t, f.svc.Logout(ctx, "unknown-token"))
}

func TestRefreshToken_DeletedUser(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	signed := f.signup(t, "taro@example.com")

	require.NoError(t, f.store.Users().Delete(ctx, signed.User.ID))

	_, err := f.svc.RefreshToken(ctx, auth.RefreshTokenRequest{RefreshToken: signed.Token.RefreshToken})
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}
