// Package uninstall реализует HTTP-обработчик деинсталляции модуля.
//
// Handler запускает очистку данных модуля. Данные удаляются только при
// взведённом в настройках флаге удаления, иначе остаются нетронутыми.
package uninstall

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/mtuszynski/magazine-subscription/internal/http/response"
	"github.com/mtuszynski/magazine-subscription/internal/lib/sl"
)

// Handler обрабатывает запросы деинсталляции.
type Handler struct {
	log     *slog.Logger // Логгер для записи информации и ошибок
	service Service      // Сервис бизнес-логики настроек
}

// Service описывает интерфейс очистки данных при деинсталляции.
type Service interface {
	Uninstall(ctx context.Context) (bool, error)
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Деинсталлировать модуль
// @Description Удаляет данные модуля, если в настройках включено удаление при деинсталляции.
// @Tags Settings
// @Produce  json
// @Security ApiKeyAuth
// @Success 200 {object} map[string]any "Результат очистки"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /admin/uninstall [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.settings.uninstall"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	deleted, err := h.service.Uninstall(r.Context())
	if err != nil {
		log.Error("failed to uninstall module", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not uninstall module"))
		return
	}

	log.Info("module uninstalled", slog.Bool("data_deleted", deleted))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"data_deleted": deleted,
	}))
}
