package middlewarectx

import (
	"crypto/subtle"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/mtuszynski/magazine-subscription/internal/http/response"
)

// WebhookSecretHeader — заголовок, в котором платформа передает общий секрет.
const WebhookSecretHeader = "X-Webhook-Secret"

// WebhookSecretMiddleware проверяет общий секрет в заголовке запроса.
// Маршруты событий платформы доступны только с корректным секретом.
func WebhookSecretMiddleware(secret string, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const op = "middlewarectx.WebhookSecretMiddleware"

			got := r.Header.Get(WebhookSecretHeader)
			if subtle.ConstantTimeCompare([]byte(got), []byte(secret)) != 1 {
				log := log.With(
					slog.String("op", op),
					slog.String("request_id", middleware.GetReqID(r.Context())),
				)
				log.Error("invalid webhook secret")
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, response.Error("invalid webhook secret"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
