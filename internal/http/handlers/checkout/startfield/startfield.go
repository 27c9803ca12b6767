// Package startfield реализует HTTP-обработчик подготовки поля «стартовый номер»
// для оформления заказа.
//
// Handler принимает состав корзины, определяет товар-подписку и возвращает
// значение по умолчанию и допустимые границы стартового номера. Для продления
// возвращается единственное фиксированное значение.
package startfield

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

// Handler обрабатывает запросы подготовки поля стартового номера.
type Handler struct {
	log      *slog.Logger        // Логгер для записи информации и ошибок
	service  Service             // Сервис бизнес-логики распределения окон
	validate *validator.Validate // Валидатор структуры входящих данных
}

// Service описывает интерфейс бизнес-логики подготовки стартового номера.
type Service interface {
	Preview(ctx context.Context, customerID int, items []models.CartItem) (*models.StartFieldInfo, error)
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
// @Summary Подготовить поле стартового номера
// @Description Определяет товар-подписку в корзине и возвращает значение по умолчанию и границы стартового номера.
// @Tags Checkout
// @Accept  json
// @Produce  json
// @Param request body models.DummyCheckoutPreview true "Состав корзины покупателя"
// @Success 200 {object} map[string]any "Данные поля стартового номера"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /checkout/start-field [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.checkout.startfield"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req models.DummyCheckoutPreview
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

	info, err := h.service.Preview(r.Context(), req.CustomerID, req.Items)
	if err != nil {
		log.Error("failed to prepare start field", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not prepare start field"))
		return
	}
	if info == nil {
		// В корзине нет товара-подписки, поле не показывается.
		render.JSON(w, r, response.StatusOKWithData(map[string]any{
			"subscription": false,
		}))
		return
	}

	log.Info("start field prepared", slog.Int("default_start", info.DefaultStart))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"subscription": true,
		"start_field":  info,
	}))
}
