package oauth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

func newTestGoogleService(userInfoURL string) *GoogleServiceImpl {
	svc := NewGoogleService("client", "secret", "http://localhost/callback", []string{"email"}).(*GoogleServiceImpl)
	svc.userInfoURL = userInfoURL
	return svc
}

func TestGenerateState_Random(t *testing.T) {
	svc := newTestGoogleService("")

	first, err := svc.GenerateState()
	require.NoError(t, err)
	second, err := svc.GenerateState()
	require.NoError(t, err)

	assert.NotEmpty(t, first)
	assert.NotEqual(t, first, second)
}

func TestRedirectURL_CarriesState(t *testing.T) {
	svc := newTestGoogleService("")

	url := svc.RedirectURL("abc123")

	assert.True(t, strings.HasPrefix(url, "https://accounts.google.com/"))
	assert.Contains(t, url, "state=abc123")
	assert.Contains(t, url, "client_id=client")
}

func TestVerifyUser(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr bool
		wantID  string
	}{
		{"verified", http.StatusOK, `{"id":"g-1","email":"a@example.com","verified_email":true}`, false, "g-1"},
		{"unverified", http.StatusOK, `{"id":"g-1","email":"a@example.com","verified_email":false}`, true, ""},
		{"upstream error", http.StatusUnauthorized, `{}`, true, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "Bearer token-1", r.Header.Get("Authorization"))
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			svc := newTestGoogleService(server.URL)
			info, err := svc.VerifyUser(context.Background(), &oauth2.Token{AccessToken: "token-1", TokenType: "Bearer"})

			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantID, info.GoogleID)
			assert.Equal(t, "a@example.com", info.Email)
		})
	}
}
