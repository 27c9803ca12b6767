// Package ordersaved реализует HTTP-обработчик события редактирования заказа
// администратором.
//
// Handler синхронизирует запись подписчика с метаданными заказа: правки
// администратора принимаются как есть, пересчитывается только счетчик
// оставшихся номеров.
package ordersaved

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

// Handler обрабатывает событие сохранения заказа администратором.
type Handler struct {
	log      *slog.Logger        // Логгер для записи информации и ошибок
	service  Service             // Сервис бизнес-логики распределения окон
	validate *validator.Validate // Валидатор структуры входящих данных
}

// Service описывает интерфейс синхронизации записи подписчика с заказом.
type Service interface {
	SyncOrder(ctx context.Context, orderID int) (*models.Subscriber, error)
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
// @Summary Событие сохранения заказа администратором
// @Description Синхронизирует запись подписчика с отредактированными метаданными заказа.
// @Tags Events
// @Accept  json
// @Produce  json
// @Param request body models.DummyOrderEvent true "ID сохраненного заказа"
// @Success 200 {object} map[string]any "Запись синхронизирована"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /events/order-saved [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.events.ordersaved"

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

	sub, err := h.service.SyncOrder(r.Context(), req.OrderID)
	if err != nil {
		log.Error("failed to sync order", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not sync order"))
		return
	}
	if sub == nil {
		render.JSON(w, r, response.StatusOKWithData(map[string]any{
			"subscription": false,
		}))
		return
	}

	log.Info("order synced", slog.Int("order_id", req.OrderID), slog.Int("subscriber_id", sub.ID))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"subscription":  true,
		"subscriber_id": sub.ID,
		"issues_left":   sub.IssuesLeft,
	}))
}
