// Package export реализует HTTP-обработчик выгрузки активных подписчиков в CSV.
package export

import (
	"context"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/mtuszynski/magazine-subscription/internal/http/response"
	"github.com/mtuszynski/magazine-subscription/internal/lib/sl"
)

// Handler обрабатывает запросы CSV-выгрузки.
type Handler struct {
	log     *slog.Logger // Логгер для записи информации и ошибок
	service Service      // Сервис формирования CSV
}

// Service описывает интерфейс выгрузки активных подписчиков.
type Service interface {
	WriteActiveCSV(ctx context.Context, w io.Writer) error
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Выгрузить активных подписчиков в CSV
// @Description Возвращает CSV-файл с активными подписчиками: UTF-8 с BOM, разделитель — точка с запятой.
// @Tags Subscribers
// @Produce  text/csv
// @Security ApiKeyAuth
// @Success 200 {string} string "CSV-файл"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /admin/subscribers/export [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.subscribers.export"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="subscribers.csv"`)

	if err := h.service.WriteActiveCSV(r.Context(), w); err != nil {
		// Заголовки уже могли уйти клиенту вместе с частью файла.
		log.Error("failed to write csv export", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not export subscribers"))
		return
	}

	log.Info("subscribers exported")
}
