// Package save реализует HTTP-обработчик сохранения настроек модуля.
package save

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/mtuszynski/magazine-subscription/internal/http/response"
	"github.com/mtuszynski/magazine-subscription/internal/lib/sl"
	"github.com/mtuszynski/magazine-subscription/internal/models"
)

// Handler обрабатывает запросы на сохранение настроек.
type Handler struct {
	log      *slog.Logger        // Логгер для записи информации и ошибок
	service  Service             // Сервис бизнес-логики настроек
	validate *validator.Validate // Валидатор структуры входящих данных
}

// Service описывает интерфейс сохранения настроек модуля.
type Service interface {
	Save(ctx context.Context, req models.DummySettings) (*models.Settings, error)
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Сохранить настройки модуля
// @Description Сохраняет категорию подписки и флаг удаления данных при деинсталляции.
// @Tags Settings
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param request body models.DummySettings true "Новые настройки модуля"
// @Success 200 {object} map[string]any "Сохраненные настройки"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /admin/settings [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.settings.save"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req models.DummySettings
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}
	log.Info("request body decoded", slog.Any("request", req))

	if err := h.validate.Struct(req); err != nil {
		log.Error("validation failed", sl.Err(err))
		w.WriteHeader(http.StatusUnprocessableEntity)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}

	settings, err := h.service.Save(r.Context(), req)
	if err != nil {
		log.Error("failed to save settings", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not save settings"))
		return
	}

	log.Info("settings saved", slog.Int("category_id", settings.CategoryID))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"settings": settings,
	}))
}
