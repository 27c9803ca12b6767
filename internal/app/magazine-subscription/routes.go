// Package magazinesubscription предоставляет маршруты модуля журнальной подписки.
package magazinesubscription

import (
	"log/slog"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/mtuszynski/magazine-subscription/internal/config"
	adminlogin "github.com/mtuszynski/magazine-subscription/internal/http/handlers/admin/login"
	"github.com/mtuszynski/magazine-subscription/internal/http/handlers/checkout/startfield"
	"github.com/mtuszynski/magazine-subscription/internal/http/handlers/checkout/validatestart"
	"github.com/mtuszynski/magazine-subscription/internal/http/handlers/events/ordercompleted"
	"github.com/mtuszynski/magazine-subscription/internal/http/handlers/events/orderprocessed"
	"github.com/mtuszynski/magazine-subscription/internal/http/handlers/events/ordersaved"
	"github.com/mtuszynski/magazine-subscription/internal/http/handlers/events/productpublished"
	"github.com/mtuszynski/magazine-subscription/internal/http/handlers/health"
	subscriberexport "github.com/mtuszynski/magazine-subscription/internal/http/handlers/subscribers/export"
	subscriberlist "github.com/mtuszynski/magazine-subscription/internal/http/handlers/subscribers/list"
	settingsread "github.com/mtuszynski/magazine-subscription/internal/http/handlers/settings/read"
	settingssave "github.com/mtuszynski/magazine-subscription/internal/http/handlers/settings/save"
	settingsuninstall "github.com/mtuszynski/magazine-subscription/internal/http/handlers/settings/uninstall"
	"github.com/mtuszynski/magazine-subscription/internal/http/middlewarectx"
	"github.com/mtuszynski/magazine-subscription/internal/lib/jwt"
	"github.com/mtuszynski/magazine-subscription/internal/services/allocation"
	"github.com/mtuszynski/magazine-subscription/internal/services/auth"
	"github.com/mtuszynski/magazine-subscription/internal/services/dispatcher"
	exportservice "github.com/mtuszynski/magazine-subscription/internal/services/export"
	"github.com/mtuszynski/magazine-subscription/internal/services/fulfillment"
	"github.com/mtuszynski/magazine-subscription/internal/services/lookup"
	settingsservice "github.com/mtuszynski/magazine-subscription/internal/services/settings"
	"github.com/mtuszynski/magazine-subscription/internal/storage"
)

// Services перечисляет сервисы, нужные маршрутам приложения.
type Services struct {
	Lookup      *lookup.Service
	Allocation  *allocation.Service
	Fulfillment *fulfillment.Service
	Dispatcher  *dispatcher.Service
	Settings    *settingsservice.Service
	Export      *exportservice.Service
	Auth        *auth.Service
	Storage     *storage.Storage
}

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(r chi.Router, logger *slog.Logger, cfg *config.Config, jwtMaker jwt.Maker, s *Services) {
	// Глобальные middleware
	r.Use(
		middleware.RequestID,
		middleware.Logger,
		middleware.Recoverer,
		middleware.URLFormat,
	)

	r.Route("/api/v1", func(r chi.Router) {
		// Открытые конечные точки
		r.Get("/health", health.New(logger, s.Storage).ServeHTTP)
		r.Post("/admin/login", adminlogin.New(logger, s.Auth).ServeHTTP)

		// Конечные точки витрины и событий платформы, защищённые общим секретом
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.WebhookSecretMiddleware(cfg.WebhookSecret, logger))
			r.Post("/checkout/start-field", startfield.New(logger, s.Allocation).ServeHTTP)
			r.Post("/checkout/validate-start", validatestart.New(logger, s.Allocation).ServeHTTP)
			r.Post("/events/order-processed", orderprocessed.New(logger, s.Allocation).ServeHTTP)
			r.Post("/events/order-completed", ordercompleted.New(logger, s.Allocation, s.Fulfillment, s.Lookup).ServeHTTP)
			r.Post("/events/order-saved", ordersaved.New(logger, s.Allocation).ServeHTTP)
			r.Post("/events/product-published", productpublished.New(logger, s.Dispatcher).ServeHTTP)
		})

		// Административная группа с JWT аутентификацией
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.JWTMiddleware(jwtMaker, logger))
			r.Use(middlewarectx.RateLimitMiddleware(logger))
			r.Get("/admin/settings", settingsread.New(logger, s.Settings).ServeHTTP)
			r.Post("/admin/settings", settingssave.New(logger, s.Settings).ServeHTTP)
			r.Post("/admin/uninstall", settingsuninstall.New(logger, s.Settings).ServeHTTP)
			r.Get("/admin/subscribers", subscriberlist.New(logger, s.Storage).ServeHTTP)
			r.Get("/admin/subscribers/export", subscriberexport.New(logger, s.Export).ServeHTTP)
		})
	})

	r.Handle("/metrics", promhttp.Handler())
	// Swagger docs endpoint
	r.Get("/docs/*", httpSwagger.WrapHandler)
}
