// Package list реализует HTTP-обработчик списка подписчиков для админки.
//
// Handler возвращает записи подписчиков. Параметр active управляет выборкой:
// true — только с оставшимися номерами, false — только завершённые.
package list

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/mtuszynski/magazine-subscription/internal/http/response"
	"github.com/mtuszynski/magazine-subscription/internal/lib/sl"
	"github.com/mtuszynski/magazine-subscription/internal/models"
)

// Handler обрабатывает запросы списка подписчиков.
type Handler struct {
	log     *slog.Logger // Логгер для записи информации и ошибок
	service Service      // Сервис выборки подписчиков
}

// Service описывает интерфейс выборки записей подписчиков.
type Service interface {
	ListSubscribers(ctx context.Context, onlyActive bool) ([]*models.Subscriber, error)
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Список подписчиков
// @Description Возвращает записи подписчиков. Параметр active=true отбирает только активных.
// @Tags Subscribers
// @Produce  json
// @Security ApiKeyAuth
// @Param active query bool false "Только активные подписки (по умолчанию true)"
// @Success 200 {object} map[string]any "Список подписчиков"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /admin/subscribers [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.subscribers.list"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	onlyActive := true
	if raw := r.URL.Query().Get("active"); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			log.Error("failed to parse active query param", sl.Err(err))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error("invalid active query param"))
			return
		}
		onlyActive = parsed
	}

	subscribers, err := h.service.ListSubscribers(r.Context(), onlyActive)
	if err != nil {
		log.Error("failed to list subscribers", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not list subscribers"))
		return
	}

	log.Info("subscribers listed", slog.Int("count", len(subscribers)))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"subscribers": subscribers,
		"count":       len(subscribers),
	}))
}
