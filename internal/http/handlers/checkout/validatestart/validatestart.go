// Package validatestart реализует HTTP-обработчик проверки выбранного
// стартового номера при оформлении заказа.
//
// Handler принимает состав корзины и выбранный покупателем стартовый номер,
// делегирует проверку бизнес-логике и возвращает результат. Номер вне
// допустимого окна или несовпадающий с продлением отклоняется.
package validatestart

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

// Handler обрабатывает запросы проверки стартового номера.
type Handler struct {
	log      *slog.Logger        // Логгер для записи информации и ошибок
	service  Service             // Сервис бизнес-логики распределения окон
	validate *validator.Validate // Валидатор структуры входящих данных
}

// Service описывает интерфейс бизнес-логики проверки стартового номера.
type Service interface {
	ValidateStart(ctx context.Context, customerID, requestedStart int, items []models.CartItem) error
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
// @Summary Проверить выбранный стартовый номер
// @Description Проверяет стартовый номер против допустимого окна или обязательного номера продления.
// @Tags Checkout
// @Accept  json
// @Produce  json
// @Param request body models.DummyValidateStart true "Корзина и выбранный стартовый номер"
// @Success 200 {object} response.Response "Номер допустим"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 422 {object} response.ErrorResponse "Номер вне допустимого окна"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /checkout/validate-start [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.checkout.validatestart"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req models.DummyValidateStart
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

	err := h.service.ValidateStart(r.Context(), req.CustomerID, req.SubscriptionStart, req.Items)
	switch {
	case errors.Is(err, issues.ErrStartOutOfRange), errors.Is(err, issues.ErrRenewalStartMismatch):
		log.Info("start number rejected", slog.Int("start", req.SubscriptionStart), sl.Err(err))
		w.WriteHeader(http.StatusUnprocessableEntity)
		render.JSON(w, r, response.Error(err.Error()))
		return
	case err != nil:
		log.Error("failed to validate start number", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not validate start number"))
		return
	}

	log.Info("start number accepted", slog.Int("start", req.SubscriptionStart))
	render.JSON(w, r, response.OK())
}
