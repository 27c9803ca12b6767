// Package productpublished реализует HTTP-обработчик события публикации
// товара-номера.
//
// Handler запускает рассылку номера всем подписчикам, чьё окно его покрывает.
// Товары без номера выпуска или без взведённого флага рассылки игнорируются.
package productpublished

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

// Handler обрабатывает событие публикации товара.
type Handler struct {
	log      *slog.Logger        // Логгер для записи информации и ошибок
	service  Service             // Сервис рассылки номеров
	validate *validator.Validate // Валидатор структуры входящих данных
}

// Service описывает интерфейс рассылки опубликованного номера.
type Service interface {
	HandleProductPublished(ctx context.Context, productID int) error
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
// @Summary Событие публикации товара-номера
// @Description Рассылает опубликованный номер всем подписчикам с покрывающим окном.
// @Tags Events
// @Accept  json
// @Produce  json
// @Param request body models.DummyProductPublished true "ID опубликованного товара"
// @Success 200 {object} response.Response "Рассылка выполнена"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /events/product-published [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.events.productpublished"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req models.DummyProductPublished
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}

	if err := h.validate.Struct(req); err != nil {
		log.Error("validation failed", sl.Err(err))
		w.WriteHeader(http.StatusUnprocessableEntity)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}

	if err := h.service.HandleProductPublished(r.Context(), req.ProductID); err != nil {
		log.Error("failed to dispatch published product", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not dispatch published product"))
		return
	}

	log.Info("product publication handled", slog.Int("product_id", req.ProductID))
	render.JSON(w, r, response.OK())
}
