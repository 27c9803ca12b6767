// Package ordercompleted реализует HTTP-обработчик события завершения заказа.
//
// Handler создает или обновляет запись подписчика по данным заказа и
// дозаполняет заказ уже опубликованными номерами окна подписки. Событие
// идемпотентно: повторная доставка не создает дубликатов.
package ordercompleted

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

// Handler обрабатывает событие завершения заказа.
type Handler struct {
	log        *slog.Logger        // Логгер для записи информации и ошибок
	allocation AllocationService   // Сервис распределения окон подписки
	fulfiller  FulfillmentService  // Сервис доставки номеров в заказ
	lookup     Lookup              // Справочные операции каталога
	validate   *validator.Validate // Валидатор структуры входящих данных
}

// AllocationService описывает интерфейс создания записи подписчика из заказа.
type AllocationService interface {
	CompleteOrder(ctx context.Context, orderID int) (*models.Subscriber, error)
}

// FulfillmentService описывает интерфейс дозаполнения заказа вышедшими номерами.
type FulfillmentService interface {
	BackfillDueIssues(ctx context.Context, orderID, categoryID, start, end, latest int, attribute string) error
}

// Lookup описывает справочные операции каталога.
type Lookup interface {
	LatestIssueNumber(ctx context.Context, categoryID int) (int, error)
}

// New создает новый Handler с переданными логгером и сервисами.
func New(log *slog.Logger, allocation AllocationService, fulfiller FulfillmentService, lookup Lookup) *Handler {
	return &Handler{
		log:        log,
		allocation: allocation,
		fulfiller:  fulfiller,
		lookup:     lookup,
		validate:   validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Событие завершения заказа
// @Description Создает запись подписчика и дозаполняет заказ уже опубликованными номерами окна.
// @Tags Events
// @Accept  json
// @Produce  json
// @Param request body models.DummyOrderEvent true "ID завершенного заказа"
// @Success 200 {object} map[string]any "Запись подписчика создана"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /events/order-completed [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.events.ordercompleted"

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

	sub, err := h.allocation.CompleteOrder(r.Context(), req.OrderID)
	if err != nil {
		log.Error("failed to complete order", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not complete order"))
		return
	}
	if sub == nil {
		// Заказ без товара-подписки или гостевой, записи нет.
		render.JSON(w, r, response.StatusOKWithData(map[string]any{
			"subscription": false,
		}))
		return
	}

	latest, err := h.lookup.LatestIssueNumber(r.Context(), sub.CategorySubscriptionID)
	if err != nil {
		log.Error("failed to resolve latest issue", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not resolve latest issue"))
		return
	}
	if err := h.fulfiller.BackfillDueIssues(r.Context(), sub.OrderID, sub.CategorySubscriptionID,
		sub.SubscriptionStart, sub.SubscriptionEnd, latest, sub.AttributeSelector); err != nil {
		log.Error("failed to backfill published issues", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not backfill published issues"))
		return
	}

	log.Info("order completed",
		slog.Int("order_id", req.OrderID),
		slog.Int("subscriber_id", sub.ID))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"subscription":  true,
		"subscriber_id": sub.ID,
		"issues_left":   sub.IssuesLeft,
	}))
}
