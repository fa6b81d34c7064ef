package auth

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"voicebridge/internal/apperr"
)

const bearerPrefix = "Bearer "

// Guard проверяет заголовок Authorization по общему секрету
type Guard struct {
	token  string
	logger *zap.Logger
}

// NewGuard создает новый Guard
func NewGuard(token string, logger *zap.Logger) *Guard {
	return &Guard{
		token:  token,
		logger: logger,
	}
}

// Check возвращает nil для корректного заголовка, Unauthorized для
// отсутствующего или не Bearer заголовка и Forbidden для чужого токена.
func (g *Guard) Check(header string) error {
	if header == "" || !strings.HasPrefix(header, bearerPrefix) {
		return apperr.Unauthorized("Missing or invalid token")
	}

	token := header[strings.LastIndex(header, bearerPrefix)+len(bearerPrefix):]
	if subtle.ConstantTimeCompare([]byte(token), []byte(g.token)) != 1 {
		return apperr.Forbidden("Invalid token")
	}

	return nil
}

// Middleware отклоняет запрос до вызова следующего обработчика
func (g *Guard) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := g.Check(r.Header.Get("Authorization")); err != nil {
			g.logger.Warn("запрос отклонен",
				zap.String("path", r.URL.Path),
				zap.String("remote", r.RemoteAddr),
				zap.String("reason", apperr.KindOf(err).String()))

			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(apperr.HTTPStatus(err))
			_ = json.NewEncoder(w).Encode(map[string]string{"detail": err.Error()})
			return
		}

		next.ServeHTTP(w, r)
	})
}
