// Package magazinesubscription собирает приложение модуля журнальной подписки:
// хранилище, кеш, клиент коммерческой платформы, очередь недоставленных
// номеров, сервисы и HTTP-сервер.
package magazinesubscription

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/streadway/amqp"

	"github.com/mtuszynski/magazine-subscription/internal/cache"
	"github.com/mtuszynski/magazine-subscription/internal/config"
	"github.com/mtuszynski/magazine-subscription/internal/lib/jwt"
	"github.com/mtuszynski/magazine-subscription/internal/lib/rabbitmq"
	"github.com/mtuszynski/magazine-subscription/internal/migrations"
	"github.com/mtuszynski/magazine-subscription/internal/services/allocation"
	"github.com/mtuszynski/magazine-subscription/internal/services/auth"
	"github.com/mtuszynski/magazine-subscription/internal/services/dispatcher"
	exportservice "github.com/mtuszynski/magazine-subscription/internal/services/export"
	"github.com/mtuszynski/magazine-subscription/internal/services/fulfillment"
	"github.com/mtuszynski/magazine-subscription/internal/services/lookup"
	settingsservice "github.com/mtuszynski/magazine-subscription/internal/services/settings"
	"github.com/mtuszynski/magazine-subscription/internal/storage"
	"github.com/mtuszynski/magazine-subscription/internal/woocommerce"
)

// App агрегирует ресурсы приложения и HTTP-сервер.
type App struct {
	server   *http.Server
	logger   *slog.Logger
	db       *storage.Storage
	rabbitCh *amqp.Channel
	rabbit   *amqp.Connection
}

// New инициализирует все зависимости приложения и возвращает готовый App.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	db, err := storage.New(cfg.StorageConnectionString)
	if err != nil {
		return nil, err
	}
	if err = migrations.Run(db.DB, "./migrations"); err != nil {
		return nil, err
	}

	cacheRedis, err := cache.InitServer(ctx, cfg.RedisConnection)
	if err != nil {
		return nil, err
	}

	rabbitConn, err := amqp.Dial(cfg.Rabbit.URL)
	if err != nil {
		return nil, err
	}
	rabbitCh, err := rabbitConn.Channel()
	if err != nil {
		return nil, err
	}
	if err := rabbitCh.ExchangeDeclare(cfg.Rabbit.Exchange, "direct", true, false, false, false, nil); err != nil {
		return nil, err
	}
	deadLetter := rabbitmq.NewPublisher(rabbitCh, cfg.Rabbit.Exchange, cfg.Rabbit.DeadLetterKey)

	commerceClient := woocommerce.NewClient(
		cfg.WooCommerce.BaseURL,
		cfg.WooCommerce.ConsumerKey,
		cfg.WooCommerce.ConsumerSecret,
		cfg.WooCommerce.TimeoutAPI,
	)

	jwtMaker := jwt.NewJWTMaker(cfg.JWTToken.JWTSecretKey, cfg.JWTToken.TokenTTL)

	lookupService := lookup.New(db, commerceClient, cacheRedis, logger)
	allocationService := allocation.New(db, lookupService, commerceClient, logger)
	fulfillmentService := fulfillment.New(commerceClient, logger)
	dispatcherService := dispatcher.New(db, fulfillmentService, lookupService, commerceClient, deadLetter, logger)
	settingsService := settingsservice.New(db, logger)
	exportService := exportservice.New(db, logger)
	authService := auth.New(cfg.Admin.Username, cfg.Admin.PasswordHash, jwtMaker, logger)

	router := chi.NewRouter()
	RegisterRoutes(router, logger, cfg, jwtMaker, &Services{
		Lookup:      lookupService,
		Allocation:  allocationService,
		Fulfillment: fulfillmentService,
		Dispatcher:  dispatcherService,
		Settings:    settingsService,
		Export:      exportService,
		Auth:        authService,
		Storage:     db,
	})

	srv := &http.Server{
		Addr:         cfg.AddressHTTP,
		Handler:      router,
		ReadTimeout:  cfg.TimeoutHTTP,
		WriteTimeout: cfg.TimeoutHTTP,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return &App{
		server:   srv,
		logger:   logger,
		db:       db,
		rabbitCh: rabbitCh,
		rabbit:   rabbitConn,
	}, nil
}

// Run запускает HTTP-сервер и останавливает его при отмене контекста.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server starting on", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		a.logger.Info("shutting down HTTP server gracefully")
		err := a.server.Shutdown(timeoutCtx)
		_ = a.rabbitCh.Close()
		_ = a.rabbit.Close()
		_ = a.db.DB.Close()
		return err
	}
}
