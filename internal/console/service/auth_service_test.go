package service

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xela07ax/longevity-dashboard/internal/domain"
	"github.com/xela07ax/longevity-dashboard/internal/infra"
	"github.com/xela07ax/longevity-dashboard/internal/infra/auth"
	"golang.org/x/crypto/bcrypt"
)

func newAuthFixture(t *testing.T) (*AuthService, *auth.RS256Validator) {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	require.NoError(t, err)

	svc := NewAuthService([]infra.OperatorUser{
		{Username: "ops", PasswordHash: string(hash), Scopes: []string{domain.ScopeBatchRun}},
	}, key, time.Hour)
	return svc, auth.NewRS256Validator(&key.PublicKey)
}

func TestAuthService_TokenRoundTrip(t *testing.T) {
	svc, validator := newAuthFixture(t)

	resp, err := svc.GenerateToken(context.Background(), "ops", "s3cret")
	require.NoError(t, err)
	assert.Equal(t, "Bearer", resp.TokenType)
	assert.Equal(t, int64(3600), resp.ExpiresIn)

	claims, err := validator.VerifyToken("Bearer " + resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "ops", claims.UserID)
	assert.True(t, claims.HasScope(domain.ScopeBatchRun))
	assert.False(t, claims.HasScope("settings:admin"))
}

func TestAuthService_RejectsBadCredentials(t *testing.T) {
	svc, _ := newAuthFixture(t)

	for _, tc := range []struct{ user, pass string }{
		{"ops", "wrong"},
		{"ghost", "s3cret"},
		{"", ""},
	} {
		_, err := svc.GenerateToken(context.Background(), tc.user, tc.pass)
		assert.ErrorIs(t, err, domain.ErrUnauthorized, tc.user)
	}
}

func TestValidator_RejectsExpiredAndForeignTokens(t *testing.T) {
	svc, validator := newAuthFixture(t)
	svc.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }

	resp, err := svc.GenerateToken(context.Background(), "ops", "s3cret")
	require.NoError(t, err)
	_, err = validator.VerifyToken(resp.AccessToken)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	other, _ := newAuthFixture(t)
	resp, err = other.GenerateToken(context.Background(), "ops", "s3cret")
	require.NoError(t, err)
	_, err = validator.VerifyToken(resp.AccessToken)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}
