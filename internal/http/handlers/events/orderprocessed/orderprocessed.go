// Package orderprocessed реализует HTTP-обработчик события оплаты заказа.
//
// Handler принимает ID заказа, пересчитывает окно подписки на стороне сервера
// и записывает метаданные подписки в заказ. Значения, присланные покупателем,
// повторно проверяются и не принимаются на веру.
package orderprocessed

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/mtuszynski/magazine-subscription/internal/http/response"
	"github.com/mtuszynski/magazine-subscription/internal/lib/issues"
	"github.com/mtuszynski/magazine-subscription/internal/lib/sl"
	"github.com/mtuszynski/magazine-subscription/internal/models"
)

// Handler обрабатывает событие оплаты заказа.
type Handler struct {
	log      *slog.Logger        // Логгер для записи информации и ошибок
	service  Service             // Сервис бизнес-логики распределения окон
	validate *validator.Validate // Валидатор структуры входящих данных
}

// Service описывает интерфейс бизнес-логики фиксации окна подписки в заказе.
type Service interface {
	FinalizeOrder(ctx context.Context, orderID int) error
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
// @Summary Событие оплаты заказа
// @Description Пересчитывает окно подписки и записывает метаданные подписки в оплаченный заказ.
// @Tags Events
// @Accept  json
// @Produce  json
// @Param request body models.DummyOrderEvent true "ID оплаченного заказа"
// @Success 200 {object} response.Response "Метаданные записаны"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 422 {object} response.ErrorResponse "Недопустимый стартовый номер"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /events/order-processed [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.events.orderprocessed"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req models.DummyOrderEvent
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

	err := h.service.FinalizeOrder(r.Context(), req.OrderID)
	switch {
	case errors.Is(err, issues.ErrStartOutOfRange):
		log.Error("order carries start number out of range",
			slog.Int("order_id", req.OrderID), sl.Err(err))
		w.WriteHeader(http.StatusUnprocessableEntity)
		render.JSON(w, r, response.Error(err.Error()))
		return
	case err != nil:
		log.Error("failed to finalize order", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not finalize order"))
		return
	}

	log.Info("order finalized", slog.Int("order_id", req.OrderID))
	render.JSON(w, r, response.OK())
}
