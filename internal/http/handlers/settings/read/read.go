// Package read реализует HTTP-обработчик чтения настроек модуля.
package read

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/mtuszynski/magazine-subscription/internal/http/response"
	"github.com/mtuszynski/magazine-subscription/internal/lib/sl"
	"github.com/mtuszynski/magazine-subscription/internal/models"
)

// Handler обрабатывает запросы на чтение настроек.
type Handler struct {
	log     *slog.Logger // Логгер для записи информации и ошибок
	service Service      // Сервис бизнес-логики настроек
}

// Service описывает интерфейс чтения настроек модуля.
type Service interface {
	Get(ctx context.Context) (*models.Settings, error)
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Прочитать настройки модуля
// @Description Возвращает текущие настройки: категорию подписки и флаг удаления данных.
// @Tags Settings
// @Produce  json
// @Security ApiKeyAuth
// @Success 200 {object} map[string]any "Настройки модуля"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /admin/settings [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.settings.read"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	settings, err := h.service.Get(r.Context())
	if err != nil {
		log.Error("failed to read settings", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not read settings"))
		return
	}
	if settings == nil {
		render.JSON(w, r, response.StatusOKWithData(map[string]any{
			"configured": false,
		}))
		return
	}

	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"configured": true,
		"settings":   settings,
	}))
}
