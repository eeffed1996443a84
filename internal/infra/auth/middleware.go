package auth

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/xela07ax/longevity-dashboard/internal/domain"
	"go.uber.org/zap"
)

// TokenValidator - проверка Bearer токена оператора
type TokenValidator interface {
	VerifyToken(tokenStr string) (*domain.CustomClaims, error)
}

type ctxKey struct{}

// ClaimsFromContext достает claims, положенные middleware
func ClaimsFromContext(ctx context.Context) (*domain.CustomClaims, bool) {
	c, ok := ctx.Value(ctxKey{}).(*domain.CustomClaims)
	return c, ok
}

// NewMiddleware пускает запрос только с валидным токеном, в котором есть scope.
// Пустой scope - достаточно валидного токена.
func NewMiddleware(v TokenValidator, scope string, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				deny(w, http.StatusUnauthorized, "Unauthorized")
				return
			}

			claims, err := v.VerifyToken(authHeader)
			if err != nil {
				logger.Warn("auth failure", zap.String("path", r.URL.Path), zap.Error(err))
				deny(w, http.StatusUnauthorized, "Unauthorized")
				return
			}
			if scope != "" && !claims.HasScope(scope) {
				logger.Warn("scope denied", zap.String("user_id", claims.UserID), zap.String("scope", scope))
				deny(w, http.StatusForbidden, "Forbidden")
				return
			}

			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, claims)))
		})
	}
}

func deny(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
