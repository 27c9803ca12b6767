// Package lookup содержит бизнес-логику определения подписной категории,
// самого свежего опубликованного номера и поиска подписного товара в
// заказе или корзине.
package lookup

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/mtuszynski/magazine-subscription/internal/lib/sl"
	"github.com/mtuszynski/magazine-subscription/internal/models"
	"github.com/mtuszynski/magazine-subscription/internal/woocommerce"
)

// SettingsRepository определяет метод чтения настроек модуля из хранилища.
type SettingsRepository interface {
	GetSettings(ctx context.Context) (*models.Settings, error)
}

// CatalogClient описывает операции каталога платформы, нужные для поиска.
type CatalogClient interface {
	GetProduct(ctx context.Context, productID int) (*woocommerce.Product, error)
	ListProductsByCategory(ctx context.Context, categoryID int) ([]woocommerce.Product, error)
	GetOrder(ctx context.Context, orderID int) (*woocommerce.Order, error)
}

// Cache описывает методы для кэширования данных.
type Cache interface {
	Get(key string, result any) (bool, error)
	Set(key string, value any, expiration time.Duration) error
	Invalidate(key string) error
}

// Service реализует справочные операции каталога с кешированием.
type Service struct {
	repo    SettingsRepository
	catalog CatalogClient
	cache   Cache
	log     *slog.Logger
}

// New создает новый экземпляр Service.
func New(repo SettingsRepository, catalog CatalogClient, cache Cache, log *slog.Logger) *Service {
	return &Service{
		repo:    repo,
		catalog: catalog,
		cache:   cache,
		log:     log,
	}
}

// SubscribedCategoryID возвращает настроенную подписную категорию,
// 0 — когда модуль ещё не настроен.
func (s *Service) SubscribedCategoryID(ctx context.Context) (int, error) {
	settings, err := s.repo.GetSettings(ctx)
	if err != nil {
		return 0, err
	}
	if settings == nil {
		return 0, nil
	}
	return settings.CategoryID, nil
}

// IsSubscriptionCategory сообщает, принадлежит ли товар категории.
func (s *Service) IsSubscriptionCategory(ctx context.Context, productID, categoryID int) (bool, error) {
	product, err := s.catalog.GetProduct(ctx, productID)
	if err != nil {
		return false, err
	}
	if product == nil {
		return false, nil
	}
	return product.InCategory(categoryID), nil
}

// LatestIssueNumber возвращает максимальный номер выпуска среди товаров
// категории; 0 — когда номеров ещё нет. Вариации несут номер выпуска
// родительского товара. Значение кешируется до публикации нового номера.
func (s *Service) LatestIssueNumber(ctx context.Context, categoryID int) (int, error) {
	const op = "lookup.LatestIssueNumber"

	cacheKey := fmt.Sprintf("latest_issue:%d", categoryID)
	var cached int
	found, err := s.cache.Get(cacheKey, &cached)
	if err != nil {
		s.log.Warn("failed to read latest issue from cache", slog.String("key", cacheKey), sl.Err(err))
	}
	if found {
		return cached, nil
	}

	products, err := s.catalog.ListProductsByCategory(ctx, categoryID)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	latest := 0
	for i := range products {
		if number := products[i].MetaInt(woocommerce.MetaIssueNumber); number > latest {
			latest = number
		}
	}

	if err := s.cache.Set(cacheKey, latest, time.Hour); err != nil {
		s.log.Warn("failed to cache latest issue", slog.String("key", cacheKey), sl.Err(err))
	}
	return latest, nil
}

// InvalidateLatestIssue сбрасывает кеш свежего номера категории.
// Вызывается при публикации нового товара-номера.
func (s *Service) InvalidateLatestIssue(categoryID int) error {
	return s.cache.Invalidate(fmt.Sprintf("latest_issue:%d", categoryID))
}

// FindSubscriptionProductInOrder ищет в заказе первый товар подписной
// категории и возвращает его конфигурацию подписки. Порядок позиций
// берётся как есть от платформы; выигрывает первое совпадение. Возвращает
// nil, когда заказа нет, категория не настроена или подписного товара нет.
func (s *Service) FindSubscriptionProductInOrder(ctx context.Context, orderID int) (*models.SubscriptionProduct, error) {
	const op = "lookup.FindSubscriptionProductInOrder"

	categoryID, err := s.SubscribedCategoryID(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if categoryID == 0 {
		return nil, nil
	}

	order, err := s.catalog.GetOrder(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if order == nil {
		return nil, nil
	}

	items := make([]models.CartItem, 0, len(order.LineItems))
	for _, item := range order.LineItems {
		items = append(items, models.CartItem{ProductID: item.ProductID, VariationID: item.VariationID})
	}
	return s.findSubscriptionProduct(ctx, items, categoryID)
}

// FindSubscriptionProductInCart ищет подписной товар среди позиций корзины.
func (s *Service) FindSubscriptionProductInCart(ctx context.Context, items []models.CartItem) (*models.SubscriptionProduct, error) {
	const op = "lookup.FindSubscriptionProductInCart"

	categoryID, err := s.SubscribedCategoryID(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if categoryID == 0 {
		return nil, nil
	}
	return s.findSubscriptionProduct(ctx, items, categoryID)
}

func (s *Service) findSubscriptionProduct(ctx context.Context, items []models.CartItem, categoryID int) (*models.SubscriptionProduct, error) {
	for _, item := range items {
		product, err := s.catalog.GetProduct(ctx, item.ProductID)
		if err != nil {
			return nil, err
		}
		if product == nil || !product.InCategory(categoryID) {
			continue
		}
		return &models.SubscriptionProduct{
			ProductID:          product.ID,
			ProductName:        product.Name,
			CategoryProduct:    product.MetaInt(woocommerce.MetaCategoryProduct),
			SubscriptionLength: product.MetaInt(woocommerce.MetaSubscriptionLength),
			SelectedAttribute:  product.MetaString(woocommerce.MetaSelectedAttribute),
		}, nil
	}
	return nil, nil
}
