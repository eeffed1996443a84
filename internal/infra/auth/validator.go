package auth

import (
	"crypto/rsa"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/xela07ax/longevity-dashboard/internal/domain"
)

// Issuer - кто подписывает токены операторов
const Issuer = "longevity-dashboard"

// RS256Validator проверяет токены, подписанные закрытым ключом дашборда
type RS256Validator struct {
	publicKey *rsa.PublicKey
	parser    *jwt.Parser
}

func NewRS256Validator(pubKey *rsa.PublicKey) *RS256Validator {
	return &RS256Validator{
		publicKey: pubKey,
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
			jwt.WithIssuer(Issuer),
			jwt.WithExpirationRequired(),
		),
	}
}

// VerifyToken принимает как "Bearer <jwt>", так и голый токен
func (v *RS256Validator) VerifyToken(tokenStr string) (*domain.CustomClaims, error) {
	tokenStr = strings.TrimSpace(strings.TrimPrefix(tokenStr, "Bearer "))
	if tokenStr == "" {
		return nil, fmt.Errorf("%w: empty token", domain.ErrUnauthorized)
	}

	claims := &domain.CustomClaims{}
	token, err := v.parser.ParseWithClaims(tokenStr, claims, func(*jwt.Token) (interface{}, error) {
		return v.publicKey, nil
	})
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("%w: invalid token: %w", domain.ErrUnauthorized, err)
	}
	return claims, nil
}

// ParseRSAPublicKey превращает PEM в ключ для проверки подписи
func ParseRSAPublicKey(data []byte) (*rsa.PublicKey, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("public key data is empty")
	}
	key, err := jwt.ParseRSAPublicKeyFromPEM(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse public key: %w", err)
	}
	return key, nil
}

// ParseRSAPrivateKey превращает PEM в ключ для подписи токенов /auth/token
func ParseRSAPrivateKey(data []byte) (*rsa.PrivateKey, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("private key data is empty")
	}
	key, err := jwt.ParseRSAPrivateKeyFromPEM(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse private key: %w", err)
	}
	return key, nil
}
