package domain

import "github.com/golang-jwt/jwt/v5"

// CustomClaims - claims токена оператора
type CustomClaims struct {
	UserID string   `json:"user_id"`
	Scopes []string `json:"scopes"`
	jwt.RegisteredClaims
}

// HasScope проверяет наличие права в токене
func (c *CustomClaims) HasScope(scope string) bool {
	for _, s := range c.Scopes {
		if s == scope || s == "admin" {
			return true
		}
	}
	return false
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

// Operator - учетка из конфигурации
type Operator struct {
	Username     string
	PasswordHash string
	Scopes       []string
}

const ScopeBatchRun = "batch:run"
