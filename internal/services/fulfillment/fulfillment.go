// Package fulfillment реализует доставку номеров в заказ: прикрепление
// конкретной единицы (вариации или товара) по нулевой цене и дозаполнение
// заказа уже опубликованными номерами окна подписки.
package fulfillment

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mtuszynski/magazine-subscription/internal/lib/sl"
	"github.com/mtuszynski/magazine-subscription/internal/woocommerce"
)

// CommerceClient описывает операции платформы, нужные для доставки номеров.
type CommerceClient interface {
	GetProduct(ctx context.Context, productID int) (*woocommerce.Product, error)
	ListProductsByCategory(ctx context.Context, categoryID int) ([]woocommerce.Product, error)
	ListVariations(ctx context.Context, productID int) ([]woocommerce.Variation, error)
	GetOrder(ctx context.Context, orderID int) (*woocommerce.Order, error)
	AddOrderLineItems(ctx context.Context, orderID int, items []woocommerce.LineItem) (*woocommerce.Order, error)
	UpdateOrderStatus(ctx context.Context, orderID int, status string) error
}

// Service реализует доставку номеров в заказы подписчиков.
type Service struct {
	commerce CommerceClient
	log      *slog.Logger
}

// New создает новый экземпляр Service.
func New(commerce CommerceClient, log *slog.Logger) *Service {
	return &Service{
		commerce: commerce,
		log:      log,
	}
}

// AttachIssueToOrder прикрепляет номер к заказу подписчика. Единица
// доставки — вариация, совпадающая по атрибуту, либо сам товар, когда
// вариаций нет. Операция идемпотентна: уже присутствующая в заказе
// единица повторно не добавляется. Позиция добавляется по нулевой цене,
// затем заказ переводится в completed — платформа пересчитывает итоги
// и выдаёт цифровые загрузки.
func (s *Service) AttachIssueToOrder(ctx context.Context, orderID, productID int, attributeName, attributeValue string) error {
	const op = "fulfillment.AttachIssueToOrder"

	order, err := s.commerce.GetOrder(ctx, orderID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if order == nil {
		s.log.Info("order not found, nothing to attach", slog.Int("order_id", orderID))
		return nil
	}

	product, err := s.commerce.GetProduct(ctx, productID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if product == nil {
		s.log.Info("product not found, nothing to attach", slog.Int("product_id", productID))
		return nil
	}

	variationID := 0
	if len(product.Variations) > 0 {
		variations, err := s.commerce.ListVariations(ctx, productID)
		if err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		variationID = matchVariation(variations, attributeName, attributeValue)
		if variationID == 0 {
			// Подходящей вариации нет: номер в этом формате не издавался.
			s.log.Info("no matching variation, skipping",
				slog.Int("product_id", productID),
				slog.String("attribute", attributeValue))
			return nil
		}
	}

	if order.ContainsItem(productID, variationID) {
		s.log.Info("issue already attached to order",
			slog.Int("order_id", orderID),
			slog.Int("product_id", productID))
		return nil
	}

	item := woocommerce.LineItem{
		ProductID:   productID,
		VariationID: variationID,
		Quantity:    1,
		Subtotal:    "0.00",
		Total:       "0.00",
	}
	if _, err := s.commerce.AddOrderLineItems(ctx, orderID, []woocommerce.LineItem{item}); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := s.commerce.UpdateOrderStatus(ctx, orderID, "completed"); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("issue attached to order",
		slog.Int("order_id", orderID),
		slog.Int("product_id", productID),
		slog.Int("variation_id", variationID))
	return nil
}

// BackfillDueIssues прикрепляет к заказу все уже опубликованные номера окна
// [start, end]. Окно, начинающееся в будущем (start > latest), не трогается:
// неопубликованные номера доставит диспетчер по мере публикации.
func (s *Service) BackfillDueIssues(ctx context.Context, orderID, categoryID, start, end, latest int, attribute string) error {
	const op = "fulfillment.BackfillDueIssues"

	if start > latest {
		return nil
	}

	products, err := s.commerce.ListProductsByCategory(ctx, categoryID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	for i := range products {
		number := products[i].MetaInt(woocommerce.MetaIssueNumber)
		if number < start || number > end {
			continue
		}
		if err := s.AttachIssueToOrder(ctx, orderID, products[i].ID, "", attribute); err != nil {
			// Неудача одного номера не мешает остальным.
			s.log.Error("failed to attach back issue",
				slog.Int("order_id", orderID),
				slog.Int("product_id", products[i].ID),
				sl.Err(err))
		}
	}
	return nil
}

// matchVariation находит вариацию по атрибуту. Пустое имя атрибута
// означает совпадение по значению любого атрибута вариации.
func matchVariation(variations []woocommerce.Variation, attributeName, attributeValue string) int {
	for _, v := range variations {
		for _, attr := range v.Attributes {
			if attributeName != "" && !strings.EqualFold(attr.Name, attributeName) {
				continue
			}
			if strings.EqualFold(attr.Option, attributeValue) {
				return v.ID
			}
		}
	}
	return 0
}
