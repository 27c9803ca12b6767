// Package export реализует выгрузку активных подписчиков в CSV для админки.
package export

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"encoding/csv"
	"log/slog"

	"github.com/mtuszynski/magazine-subscription/internal/models"
)

// SubscriberRepository определяет метод выборки подписчиков.
type SubscriberRepository interface {
	ListSubscribers(ctx context.Context, onlyActive bool) ([]*models.Subscriber, error)
}

// Service реализует выгрузку подписчиков.
type Service struct {
	repo SubscriberRepository
	log  *slog.Logger
}

// New создает новый экземпляр Service.
func New(repo SubscriberRepository, log *slog.Logger) *Service {
	return &Service{
		repo: repo,
		log:  log,
	}
}

// utf8BOM пишется первым, чтобы табличные редакторы распознали кодировку.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// csvHeader — фиксированный порядок колонок выгрузки.
var csvHeader = []string{
	"Username", "Email", "Order Id", "Product Name",
	"Subscription Start", "Subscription End", "Attribute Selector", "Subscription Left",
}

// WriteActiveCSV пишет в w CSV с активными подписчиками (issues_left > 0):
// UTF-8 с BOM, разделитель — точка с запятой.
func (s *Service) WriteActiveCSV(ctx context.Context, w io.Writer) error {
	const op = "export.WriteActiveCSV"

	subscribers, err := s.repo.ListSubscribers(ctx, true)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if _, err := w.Write(utf8BOM); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	writer := csv.NewWriter(w)
	writer.Comma = ';'

	if err := writer.Write(csvHeader); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	for _, sub := range subscribers {
		record := []string{
			sub.UserLogin,
			sub.UserEmail,
			strconv.Itoa(sub.OrderID),
			sub.ProductName,
			strconv.Itoa(sub.SubscriptionStart),
			strconv.Itoa(sub.SubscriptionEnd),
			sub.AttributeSelector,
			strconv.Itoa(sub.IssuesLeft),
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("exported active subscribers", slog.Int("count", len(subscribers)))
	return nil
}
