package auth

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xela07ax/longevity-dashboard/internal/domain"
	"go.uber.org/zap/zaptest"
)

func sign(t *testing.T, key *rsa.PrivateKey, issuer string, scopes ...string) string {
	t.Helper()
	claims := &domain.CustomClaims{
		UserID: "ops",
		Scopes: scopes,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	s, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(key)
	require.NoError(t, err)
	return s
}

func TestParseKeys(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	pubDER, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	require.NoError(t, err)
	pub, err := ParseRSAPublicKey(pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: pubDER}))
	require.NoError(t, err)
	assert.True(t, key.PublicKey.Equal(pub))

	priv, err := ParseRSAPrivateKey(pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(key)}))
	require.NoError(t, err)
	assert.True(t, key.Equal(priv))

	_, err = ParseRSAPublicKey(nil)
	assert.Error(t, err)
	_, err = ParseRSAPrivateKey([]byte("garbage"))
	assert.Error(t, err)
}

func TestMiddleware(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	v := NewRS256Validator(&key.PublicKey)

	var seen *domain.CustomClaims
	h := NewMiddleware(v, domain.ScopeBatchRun, zaptest.NewLogger(t))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = ClaimsFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"no header", "", http.StatusUnauthorized},
		{"garbage", "Bearer nope", http.StatusUnauthorized},
		{"foreign issuer", "Bearer " + sign(t, key, "someone-else", domain.ScopeBatchRun), http.StatusUnauthorized},
		{"missing scope", "Bearer " + sign(t, key, Issuer, "settings:read"), http.StatusForbidden},
		{"ok", "Bearer " + sign(t, key, Issuer, domain.ScopeBatchRun), http.StatusOK},
		{"admin wildcard", sign(t, key, Issuer, "admin"), http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seen = nil
			req := httptest.NewRequest(http.MethodPost, "/api/run/parallel", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Equal(t, tt.want, rec.Code)
			if tt.want == http.StatusOK {
				require.NotNil(t, seen)
				assert.Equal(t, "ops", seen.UserID)
			} else {
				assert.Contains(t, rec.Body.String(), `"error"`)
			}
		})
	}
}
