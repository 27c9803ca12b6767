// Package allocation реализует бизнес-логику распределения окна подписки:
// подсказку поля стартового номера на оформлении заказа, проверку выбранного
// старта, авторитетный пересчёт окна при финализации заказа и создание
// записи подписчика при его завершении.
package allocation

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/mtuszynski/magazine-subscription/internal/lib/issues"
	"github.com/mtuszynski/magazine-subscription/internal/models"
	"github.com/mtuszynski/magazine-subscription/internal/woocommerce"
)

// SubscriberRepository определяет методы хранилища записей подписчиков.
type SubscriberRepository interface {
	// MaxCoveringEnd возвращает конец самой поздней покрывающей подписки.
	MaxCoveringEnd(ctx context.Context, userID, categoryID int, attribute string, latest int) (int, bool, error)
	// AllocateSubscriber атомарно проверяет окно и сохраняет запись.
	AllocateSubscriber(ctx context.Context, sub models.Subscriber, latest int) (*models.Subscriber, error)
	// UpsertSubscriber сохраняет запись без проверки окна.
	UpsertSubscriber(ctx context.Context, sub models.Subscriber) (int, error)
}

// Lookup описывает справочные операции каталога.
type Lookup interface {
	LatestIssueNumber(ctx context.Context, categoryID int) (int, error)
	FindSubscriptionProductInCart(ctx context.Context, items []models.CartItem) (*models.SubscriptionProduct, error)
	FindSubscriptionProductInOrder(ctx context.Context, orderID int) (*models.SubscriptionProduct, error)
}

// CommerceClient описывает операции платформы над заказами и покупателями.
type CommerceClient interface {
	GetOrder(ctx context.Context, orderID int) (*woocommerce.Order, error)
	GetCustomer(ctx context.Context, customerID int) (*woocommerce.Customer, error)
	UpdateOrderMeta(ctx context.Context, orderID int, meta []woocommerce.MetaData) error
}

// Service реализует жизненный цикл распределения окна подписки.
type Service struct {
	repo     SubscriberRepository
	lookup   Lookup
	commerce CommerceClient
	log      *slog.Logger
}

// New создает новый экземпляр Service.
func New(repo SubscriberRepository, lookup Lookup, commerce CommerceClient, log *slog.Logger) *Service {
	return &Service{
		repo:     repo,
		lookup:   lookup,
		commerce: commerce,
		log:      log,
	}
}

// Preview возвращает параметры поля выбора стартового номера для корзины.
// Возвращает nil, когда в корзине нет подписного товара или модуль не
// настроен — витрина в этом случае поле не показывает.
func (s *Service) Preview(ctx context.Context, customerID int, items []models.CartItem) (*models.StartFieldInfo, error) {
	const op = "allocation.Preview"

	product, err := s.lookup.FindSubscriptionProductInCart(ctx, items)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if product == nil {
		return nil, nil
	}

	latest, err := s.lookup.LatestIssueNumber(ctx, product.CategoryProduct)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	info := &models.StartFieldInfo{
		RecentNumber: latest,
		DefaultStart: latest + 1,
		MinStart:     latest - issues.StartWindow,
		MaxStart:     latest + issues.StartWindow,
	}

	if customerID != 0 {
		priorEnd, covered, err := s.repo.MaxCoveringEnd(ctx, customerID, product.CategoryProduct, product.SelectedAttribute, latest)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if covered {
			// Действующая подписка: старт зафиксирован следующим номером,
			// выбор покупателю не предлагается.
			info.Renewal = true
			info.PriorEnd = priorEnd
			info.DefaultStart = priorEnd + 1
			info.MinStart = priorEnd + 1
			info.MaxStart = priorEnd + 1
		}
	}
	return info, nil
}

// ValidateStart проверяет выбранный покупателем стартовый номер.
// Возвращает nil, когда в корзине нет подписного товара; типизированные
// ошибки issues.ErrRenewalStartMismatch и issues.ErrStartOutOfRange —
// при неверном выборе.
func (s *Service) ValidateStart(ctx context.Context, customerID, requestedStart int, items []models.CartItem) error {
	const op = "allocation.ValidateStart"

	product, err := s.lookup.FindSubscriptionProductInCart(ctx, items)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if product == nil {
		return nil
	}

	latest, err := s.lookup.LatestIssueNumber(ctx, product.CategoryProduct)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	prior, err := s.coveringEnd(ctx, customerID, product.CategoryProduct, product.SelectedAttribute, latest)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return issues.ValidateStart(prior, requestedStart, latest)
}

// FinalizeOrder пересчитывает окно подписки при финализации заказа и
// записывает его в метаданные заказа. Выбранный на витрине старт не
// принимается на веру: при действующей подписке старт принудительно
// продолжает её, иначе проверяется допустимое окно.
func (s *Service) FinalizeOrder(ctx context.Context, orderID int) error {
	const op = "allocation.FinalizeOrder"

	product, err := s.lookup.FindSubscriptionProductInOrder(ctx, orderID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if product == nil || product.SubscriptionLength <= 0 {
		return nil
	}

	order, err := s.commerce.GetOrder(ctx, orderID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if order == nil {
		return nil
	}

	latest, err := s.lookup.LatestIssueNumber(ctx, product.CategoryProduct)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	prior, err := s.coveringEnd(ctx, order.CustomerID, product.CategoryProduct, product.SelectedAttribute, latest)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	requested := order.MetaInt(woocommerce.MetaSubscriptionStart)
	if prior != nil {
		// Продление всегда бесшовно, что бы ни пришло с витрины.
		requested = *prior + 1
	}
	window, err := issues.Compute(prior, requested, latest, product.SubscriptionLength)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	meta := []woocommerce.MetaData{
		{Key: woocommerce.MetaSubscriptionStart, Value: strconv.Itoa(window.Start)},
		{Key: woocommerce.MetaSubscriptionLength, Value: strconv.Itoa(window.Length)},
		{Key: woocommerce.MetaSubscriptionEnd, Value: strconv.Itoa(window.End)},
		{Key: woocommerce.MetaSelectedAttribute, Value: product.SelectedAttribute},
		{Key: woocommerce.MetaCategoryProduct, Value: strconv.Itoa(product.CategoryProduct)},
	}
	if err := s.commerce.UpdateOrderMeta(ctx, orderID, meta); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("subscription window finalized",
		slog.Int("order_id", orderID),
		slog.Int("start", window.Start),
		slog.Int("end", window.End))
	return nil
}

// CompleteOrder создаёт или обновляет запись подписчика при завершении
// заказа. Окно перечитывается и проверяется атомарно в хранилище.
// Возвращает nil, когда заказ не подписной или у него нет покупателя.
func (s *Service) CompleteOrder(ctx context.Context, orderID int) (*models.Subscriber, error) {
	const op = "allocation.CompleteOrder"

	order, err := s.commerce.GetOrder(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if order == nil || order.CustomerID == 0 {
		return nil, nil
	}

	product, err := s.lookup.FindSubscriptionProductInOrder(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if product == nil {
		return nil, nil
	}

	sub, latest, err := s.subscriberFromOrder(ctx, order, product)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	saved, err := s.repo.AllocateSubscriber(ctx, *sub, latest)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("subscriber record allocated",
		slog.Int("order_id", orderID),
		slog.Int("start", saved.SubscriptionStart),
		slog.Int("end", saved.SubscriptionEnd),
		slog.Int("issues_left", saved.IssuesLeft))
	return saved, nil
}

// SyncOrder синхронизирует запись подписчика после правки заказа в
// админке: значения метаданных заказа принимаются как есть, пересчитывается
// только счётчик оставшихся номеров.
func (s *Service) SyncOrder(ctx context.Context, orderID int) (*models.Subscriber, error) {
	const op = "allocation.SyncOrder"

	order, err := s.commerce.GetOrder(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if order == nil || order.CustomerID == 0 {
		return nil, nil
	}

	product, err := s.lookup.FindSubscriptionProductInOrder(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if product == nil {
		return nil, nil
	}

	sub, latest, err := s.subscriberFromOrder(ctx, order, product)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if end := order.MetaInt(woocommerce.MetaSubscriptionEnd); end != 0 {
		sub.SubscriptionEnd = end
	}
	sub.IssuesLeft = issues.Left(sub.SubscriptionEnd, latest)

	id, err := s.repo.UpsertSubscriber(ctx, *sub)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	sub.ID = id

	s.log.Info("subscriber record synced", slog.Int("order_id", orderID), slog.Int("id", id))
	return sub, nil
}

// subscriberFromOrder собирает запись подписчика из метаданных заказа
// и конфигурации подписного товара.
func (s *Service) subscriberFromOrder(ctx context.Context, order *woocommerce.Order, product *models.SubscriptionProduct) (*models.Subscriber, int, error) {
	categoryID := order.MetaInt(woocommerce.MetaCategoryProduct)
	if categoryID == 0 {
		categoryID = product.CategoryProduct
	}
	length := order.MetaInt(woocommerce.MetaSubscriptionLength)
	if length == 0 {
		length = product.SubscriptionLength
	}
	attribute := order.MetaString(woocommerce.MetaSelectedAttribute)
	if attribute == "" {
		attribute = product.SelectedAttribute
	}

	latest, err := s.lookup.LatestIssueNumber(ctx, categoryID)
	if err != nil {
		return nil, 0, err
	}

	login := ""
	email := order.Billing.Email
	customer, err := s.commerce.GetCustomer(ctx, order.CustomerID)
	if err != nil {
		return nil, 0, err
	}
	if customer != nil {
		login = customer.Username
		if customer.Email != "" {
			email = customer.Email
		}
	}

	sub := &models.Subscriber{
		UserID:                 order.CustomerID,
		UserLogin:              login,
		UserEmail:              email,
		OrderID:                order.ID,
		ProductName:            product.ProductName,
		CategorySubscriptionID: categoryID,
		SubscriptionLength:     length,
		SubscriptionStart:      order.MetaInt(woocommerce.MetaSubscriptionStart),
		SubscriptionEnd:        order.MetaInt(woocommerce.MetaSubscriptionEnd),
	}
	sub.AttributeSelector = attribute
	return sub, latest, nil
}

func (s *Service) coveringEnd(ctx context.Context, customerID, categoryID int, attribute string, latest int) (*int, error) {
	if customerID == 0 {
		return nil, nil
	}
	end, covered, err := s.repo.MaxCoveringEnd(ctx, customerID, categoryID, attribute, latest)
	if err != nil {
		return nil, err
	}
	if !covered {
		return nil, nil
	}
	return &end, nil
}
