// Package dispatcher реализует рассылку нового номера: при публикации
// товара-номера все подписчики, чьё окно его покрывает, получают номер в
// свой исходный заказ, а их счётчик оставшихся номеров пересчитывается.
package dispatcher

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/mtuszynski/magazine-subscription/internal/lib/issues"
	"github.com/mtuszynski/magazine-subscription/internal/lib/sl"
	"github.com/mtuszynski/magazine-subscription/internal/models"
	"github.com/mtuszynski/magazine-subscription/internal/woocommerce"
)

// SubscriberRepository определяет методы хранилища записей подписчиков.
type SubscriberRepository interface {
	ListSubscribersCoveringIssue(ctx context.Context, categoryIDs []int, issueNumber int) ([]*models.Subscriber, error)
	UpdateIssuesLeft(ctx context.Context, id, issuesLeft int) error
}

// Fulfiller описывает доставку номера в заказ подписчика.
type Fulfiller interface {
	AttachIssueToOrder(ctx context.Context, orderID, productID int, attributeName, attributeValue string) error
}

// Lookup описывает справочные операции каталога.
type Lookup interface {
	LatestIssueNumber(ctx context.Context, categoryID int) (int, error)
	InvalidateLatestIssue(categoryID int) error
}

// CatalogClient возвращает опубликованный товар по ID.
type CatalogClient interface {
	GetProduct(ctx context.Context, productID int) (*woocommerce.Product, error)
}

// DeadLetterPublisher публикует сообщения о неудачных доставках
// в очередь для ручной повторной обработки.
type DeadLetterPublisher interface {
	Publish(message any) error
}

// Service реализует рассылку опубликованного номера подписчикам.
type Service struct {
	repo       SubscriberRepository
	fulfiller  Fulfiller
	lookup     Lookup
	catalog    CatalogClient
	deadLetter DeadLetterPublisher
	log        *slog.Logger
}

// New создает новый экземпляр Service.
func New(repo SubscriberRepository, fulfiller Fulfiller, lookup Lookup, catalog CatalogClient, deadLetter DeadLetterPublisher, log *slog.Logger) *Service {
	return &Service{
		repo:       repo,
		fulfiller:  fulfiller,
		lookup:     lookup,
		catalog:    catalog,
		deadLetter: deadLetter,
		log:        log,
	}
}

// HandleProductPublished обрабатывает публикацию товара. Товар без номера
// выпуска или без взведённого флага рассылки игнорируется. Каждая категория
// товара обрабатывается независимо; неудачная доставка одному подписчику не
// блокирует остальных — она уходит в очередь недоставленных.
func (s *Service) HandleProductPublished(ctx context.Context, productID int) error {
	const op = "dispatcher.HandleProductPublished"

	product, err := s.catalog.GetProduct(ctx, productID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if product == nil || product.Status != "publish" {
		return nil
	}

	issueNumber := product.MetaInt(woocommerce.MetaIssueNumber)
	if issueNumber == 0 {
		return nil
	}
	if !sendFlagSet(product.MetaString(woocommerce.MetaSendSubscriptions)) {
		s.log.Info("send flag not set, skipping dispatch", slog.Int("product_id", productID))
		return nil
	}

	for _, categoryID := range product.CategoryIDs() {
		if err := s.dispatchCategory(ctx, product, categoryID, issueNumber); err != nil {
			s.log.Error("failed to dispatch issue for category",
				slog.Int("category_id", categoryID), sl.Err(err))
		}
	}
	return nil
}

func (s *Service) dispatchCategory(ctx context.Context, product *woocommerce.Product, categoryID, issueNumber int) error {
	const op = "dispatcher.dispatchCategory"

	// Новый номер делает кешированное значение свежего выпуска устаревшим.
	if err := s.lookup.InvalidateLatestIssue(categoryID); err != nil {
		s.log.Warn("failed to invalidate latest issue cache", sl.Err(err))
	}
	latest, err := s.lookup.LatestIssueNumber(ctx, categoryID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	subscribers, err := s.repo.ListSubscribersCoveringIssue(ctx, []int{categoryID}, issueNumber)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if len(subscribers) == 0 {
		s.log.Info("no subscribers cover the issue",
			slog.Int("category_id", categoryID),
			slog.Int("issue_number", issueNumber))
		return nil
	}
	s.log.Info("dispatching issue to subscribers",
		slog.Int("issue_number", issueNumber),
		slog.Int("count", len(subscribers)))

	for _, sub := range subscribers {
		if err := s.fulfiller.AttachIssueToOrder(ctx, sub.OrderID, product.ID, "", sub.AttributeSelector); err != nil {
			s.log.Error("failed to fulfill subscriber", slog.Int("subscriber_id", sub.ID), sl.Err(err))
			s.publishDeadLetter(sub, product.ID, issueNumber, err)
			continue
		}
		left := issues.Left(sub.SubscriptionEnd, latest)
		if err := s.repo.UpdateIssuesLeft(ctx, sub.ID, left); err != nil {
			s.log.Error("failed to update issues left", slog.Int("subscriber_id", sub.ID), sl.Err(err))
			s.publishDeadLetter(sub, product.ID, issueNumber, err)
		}
	}
	return nil
}

func (s *Service) publishDeadLetter(sub *models.Subscriber, productID, issueNumber int, cause error) {
	msg := models.FailedFulfillment{
		EventID:      uuid.New().String(),
		SubscriberID: sub.ID,
		OrderID:      sub.OrderID,
		ProductID:    productID,
		IssueNumber:  issueNumber,
		Reason:       cause.Error(),
	}
	if err := s.deadLetter.Publish(msg); err != nil {
		s.log.Error("failed to publish dead letter", sl.Err(err))
	}
}

// sendFlagSet распознаёт значения флага рассылки, которыми платформа
// отмечает чекбокс.
func sendFlagSet(value string) bool {
	switch value {
	case "1", "yes", "true":
		return true
	}
	return false
}
