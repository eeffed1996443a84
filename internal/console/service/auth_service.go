package service

import (
	"context"
	"crypto/rsa"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/xela07ax/longevity-dashboard/internal/domain"
	"github.com/xela07ax/longevity-dashboard/internal/infra"
	"github.com/xela07ax/longevity-dashboard/internal/infra/auth"
	"golang.org/x/crypto/bcrypt"
)

var errInvalidCredentials = fmt.Errorf("%w: invalid credentials", domain.ErrUnauthorized)

// dummyHash сравнивается для неизвестного логина, чтобы время ответа не выдавало учетки
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("longevity-dashboard"), bcrypt.MinCost)

type AuthService struct {
	operators  map[string]domain.Operator
	privateKey *rsa.PrivateKey
	ttl        time.Duration
	now        func() time.Time
}

func NewAuthService(users []infra.OperatorUser, privateKey *rsa.PrivateKey, ttl time.Duration) *AuthService {
	ops := make(map[string]domain.Operator, len(users))
	for _, u := range users {
		ops[u.Username] = domain.Operator{Username: u.Username, PasswordHash: u.PasswordHash, Scopes: u.Scopes}
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &AuthService{operators: ops, privateKey: privateKey, ttl: ttl, now: time.Now}
}

func (s *AuthService) GenerateToken(_ context.Context, username, password string) (*domain.TokenResponse, error) {
	if s.privateKey == nil {
		return nil, errors.New("token signing is not configured")
	}

	op, ok := s.operators[username]
	hash := dummyHash
	if ok {
		hash = []byte(op.PasswordHash)
	}
	if err := bcrypt.CompareHashAndPassword(hash, []byte(password)); err != nil || !ok {
		return nil, errInvalidCredentials
	}

	now := s.now()
	expiresAt := now.Add(s.ttl)
	claims := &domain.CustomClaims{
		UserID: op.Username,
		Scopes: op.Scopes,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    auth.Issuer,
			Subject:   op.Username,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	// Подпись закрытым ключом (RS256), проверка открытым в auth.RS256Validator
	signed, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(s.privateKey)
	if err != nil {
		return nil, fmt.Errorf("failed to sign token: %w", err)
	}

	return &domain.TokenResponse{
		AccessToken: signed,
		TokenType:   "Bearer",
		ExpiresIn:   int64(s.ttl.Seconds()),
	}, nil
}
