// Package storage реализует хранилище данных на основе PostgreSQL
// для настроек модуля и записей подписчиков журнала. Предоставляет
// методы чтения и сохранения настроек, выборки покрывающих подписок,
// атомарного размещения записи подписчика и обновления счётчика
// оставшихся номеров.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	// Регистрация драйвера pgx для использования с database/sql.
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/mtuszynski/magazine-subscription/internal/lib/issues"
	"github.com/mtuszynski/magazine-subscription/internal/models"
)

// Storage инкапсулирует соединение с базой данных PostgreSQL
// и реализует методы работы с настройками и подписчиками.
type Storage struct {
	DB *sql.DB
}

// New создаёт подключение к PostgreSQL.
func New(storageConnectionString string) (*Storage, error) {
	const op = "storage.New"

	db, err := sql.Open("pgx", storageConnectionString)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err = db.PingContext(context.Background()); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &Storage{
		DB: db,
	}, nil
}

// CheckDatabaseReady проверяет готовность базы данных.
func (s *Storage) CheckDatabaseReady(ctx context.Context) error {
	var exists bool
	err := s.DB.QueryRowContext(ctx, `SELECT EXISTS (
        SELECT FROM information_schema.tables
        WHERE table_name = 'magazine_subscribe_users'
    )`).Scan(&exists)
	if err != nil || !exists {
		return fmt.Errorf("required table magazine_subscribe_users missing or query error: %w", err)
	}
	return nil
}

// ===== SETTINGS METHODS =====

// GetSettings возвращает строку настроек модуля.
// Возвращает nil без ошибки, пока настройки ни разу не сохранялись.
func (s *Storage) GetSettings(ctx context.Context) (*models.Settings, error) {
	const op = "storage.GetSettings"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, category_id, delete_data_on_uninstall
			  FROM magazine_subscribe_settings WHERE id = $1`
	row := s.DB.QueryRowContext(ctx, query, models.SettingsID)

	var result models.Settings
	if err := row.Scan(&result.ID, &result.CategoryID, &result.DeleteDataOnUninstall); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &result, nil
}

// SaveSettings сохраняет строку настроек, создавая её при первом сохранении.
func (s *Storage) SaveSettings(ctx context.Context, settings models.Settings) error {
	const op = "storage.SaveSettings"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO magazine_subscribe_settings (id, category_id, delete_data_on_uninstall)
			  VALUES ($1, $2, $3)
			  ON CONFLICT (id) DO UPDATE
			  SET category_id = EXCLUDED.category_id,
			      delete_data_on_uninstall = EXCLUDED.delete_data_on_uninstall`
	_, err := s.DB.ExecContext(ctx, query, models.SettingsID, settings.CategoryID, settings.DeleteDataOnUninstall)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// ===== SUBSCRIBER METHODS =====

const subscriberColumns = `id, user_id, user_login, user_email, order_id, product_name,
			category_subscription_id, subscription_length, subscription_start,
			subscription_end, attribute_selector, issues_left`

func scanSubscriber(row interface{ Scan(dest ...any) error }) (*models.Subscriber, error) {
	var sub models.Subscriber
	err := row.Scan(&sub.ID, &sub.UserID, &sub.UserLogin, &sub.UserEmail, &sub.OrderID,
		&sub.ProductName, &sub.CategorySubscriptionID, &sub.SubscriptionLength,
		&sub.SubscriptionStart, &sub.SubscriptionEnd, &sub.AttributeSelector, &sub.IssuesLeft)
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

// GetSubscriberByOrderID возвращает запись подписчика по ID заказа.
// Возвращает nil без ошибки, если записи нет.
func (s *Storage) GetSubscriberByOrderID(ctx context.Context, orderID int) (*models.Subscriber, error) {
	const op = "storage.GetSubscriberByOrderID"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + subscriberColumns + `
			  FROM magazine_subscribe_users WHERE order_id = $1`
	sub, err := scanSubscriber(s.DB.QueryRowContext(ctx, query, orderID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return sub, nil
}

// MaxCoveringEnd возвращает конец самой поздней покрывающей подписки
// покупателя по категории и атрибуту. Покрывающей считается подписка,
// ещё не исчерпанная публикацией: subscription_end >= latest.
func (s *Storage) MaxCoveringEnd(ctx context.Context, userID, categoryID int, attribute string, latest int) (int, bool, error) {
	const op = "storage.MaxCoveringEnd"
	select {
	case <-ctx.Done():
		return 0, false, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT MAX(subscription_end)
			  FROM magazine_subscribe_users
			  WHERE user_id = $1
			    AND category_subscription_id = $2
			    AND attribute_selector = $3
			    AND subscription_end >= $4`
	var end sql.NullInt64
	err := s.DB.QueryRowContext(ctx, query, userID, categoryID, attribute, latest).Scan(&end)
	if err != nil {
		return 0, false, fmt.Errorf("%s: %w", op, err)
	}
	if !end.Valid {
		return 0, false, nil
	}
	return int(end.Int64), true, nil
}

// AllocateSubscriber атомарно размещает запись подписчика: под транзакционной
// блокировкой перечитывает покрывающую подписку покупателя, пересчитывает окно
// и сохраняет запись. При действующей подписке старт принудительно продолжает
// её, поэтому две одновременные покупки одного покупателя размещаются встык,
// а не в один слот. Возвращает сохранённую запись.
func (s *Storage) AllocateSubscriber(ctx context.Context, sub models.Subscriber, latest int) (*models.Subscriber, error) {
	const op = "storage.AllocateSubscriber"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() { _ = tx.Rollback() }()

	lockKey := fmt.Sprintf("%d:%d:%s", sub.UserID, sub.CategorySubscriptionID, sub.AttributeSelector)
	if _, err = tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtextextended($1, 0))`, lockKey); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	// Покрывающая подписка перечитывается уже под блокировкой; собственный
	// заказ исключается, чтобы повторная доставка события не конфликтовала
	// сама с собой.
	query := `SELECT MAX(subscription_end)
			  FROM magazine_subscribe_users
			  WHERE user_id = $1
			    AND category_subscription_id = $2
			    AND attribute_selector = $3
			    AND subscription_end >= $4
			    AND order_id <> $5`
	var priorEnd sql.NullInt64
	err = tx.QueryRowContext(ctx, query, sub.UserID, sub.CategorySubscriptionID,
		sub.AttributeSelector, latest, sub.OrderID).Scan(&priorEnd)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var prior *int
	if priorEnd.Valid {
		v := int(priorEnd.Int64)
		prior = &v
	}
	requested := sub.SubscriptionStart
	if prior != nil {
		// Продление всегда бесшовно, что бы ни лежало в метаданных заказа.
		requested = *prior + 1
	}
	window, err := issues.Compute(prior, requested, latest, sub.SubscriptionLength)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	sub.SubscriptionStart = window.Start
	sub.SubscriptionEnd = window.End
	sub.IssuesLeft = window.IssuesLeft

	upsert := `INSERT INTO magazine_subscribe_users (user_id, user_login, user_email, order_id,
			      product_name, category_subscription_id, subscription_length,
			      subscription_start, subscription_end, attribute_selector, issues_left)
			   VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
			   ON CONFLICT (order_id) DO UPDATE
			   SET user_id = EXCLUDED.user_id,
			       user_login = EXCLUDED.user_login,
			       user_email = EXCLUDED.user_email,
			       product_name = EXCLUDED.product_name,
			       category_subscription_id = EXCLUDED.category_subscription_id,
			       subscription_length = EXCLUDED.subscription_length,
			       subscription_start = EXCLUDED.subscription_start,
			       subscription_end = EXCLUDED.subscription_end,
			       attribute_selector = EXCLUDED.attribute_selector,
			       issues_left = EXCLUDED.issues_left
			   RETURNING id`
	err = tx.QueryRowContext(ctx, upsert, sub.UserID, sub.UserLogin, sub.UserEmail, sub.OrderID,
		sub.ProductName, sub.CategorySubscriptionID, sub.SubscriptionLength,
		sub.SubscriptionStart, sub.SubscriptionEnd, sub.AttributeSelector, sub.IssuesLeft).Scan(&sub.ID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &sub, nil
}

// UpsertSubscriber сохраняет запись подписчика как есть, без проверки окна.
// Используется при синхронизации после правки заказа администратором.
func (s *Storage) UpsertSubscriber(ctx context.Context, sub models.Subscriber) (int, error) {
	const op = "storage.UpsertSubscriber"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO magazine_subscribe_users (user_id, user_login, user_email, order_id,
			      product_name, category_subscription_id, subscription_length,
			      subscription_start, subscription_end, attribute_selector, issues_left)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
			  ON CONFLICT (order_id) DO UPDATE
			  SET user_id = EXCLUDED.user_id,
			      user_login = EXCLUDED.user_login,
			      user_email = EXCLUDED.user_email,
			      product_name = EXCLUDED.product_name,
			      category_subscription_id = EXCLUDED.category_subscription_id,
			      subscription_length = EXCLUDED.subscription_length,
			      subscription_start = EXCLUDED.subscription_start,
			      subscription_end = EXCLUDED.subscription_end,
			      attribute_selector = EXCLUDED.attribute_selector,
			      issues_left = EXCLUDED.issues_left
			  RETURNING id`
	var id int
	err := s.DB.QueryRowContext(ctx, query, sub.UserID, sub.UserLogin, sub.UserEmail, sub.OrderID,
		sub.ProductName, sub.CategorySubscriptionID, sub.SubscriptionLength,
		sub.SubscriptionStart, sub.SubscriptionEnd, sub.AttributeSelector, sub.IssuesLeft).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return id, nil
}

// ListSubscribersCoveringIssue возвращает подписчиков, чьё окно покрывает
// номер issueNumber в любой из переданных категорий.
func (s *Storage) ListSubscribersCoveringIssue(ctx context.Context, categoryIDs []int, issueNumber int) ([]*models.Subscriber, error) {
	const op = "storage.ListSubscribersCoveringIssue"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	if len(categoryIDs) == 0 {
		return nil, nil
	}

	placeholders := make([]string, 0, len(categoryIDs))
	args := make([]any, 0, len(categoryIDs)+1)
	for i, id := range categoryIDs {
		placeholders = append(placeholders, "$"+strconv.Itoa(i+1))
		args = append(args, id)
	}
	args = append(args, issueNumber)
	issueArg := "$" + strconv.Itoa(len(args))

	query := `SELECT ` + subscriberColumns + `
			  FROM magazine_subscribe_users
			  WHERE category_subscription_id IN (` + strings.Join(placeholders, ", ") + `)
			    AND subscription_start <= ` + issueArg + `
			    AND subscription_end >= ` + issueArg + `
			  ORDER BY id`
	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var results []*models.Subscriber
	for rows.Next() {
		sub, err := scanSubscriber(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		results = append(results, sub)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return results, nil
}

// UpdateIssuesLeft обновляет счётчик оставшихся номеров записи подписчика.
func (s *Storage) UpdateIssuesLeft(ctx context.Context, id, issuesLeft int) error {
	const op = "storage.UpdateIssuesLeft"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE magazine_subscribe_users SET issues_left = $1 WHERE id = $2`
	_, err := s.DB.ExecContext(ctx, query, issuesLeft, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// ListSubscribers возвращает записи подписчиков. При onlyActive = true
// отдаются только записи с неопубликованными номерами (issues_left > 0),
// иначе — полностью исчерпанные.
func (s *Storage) ListSubscribers(ctx context.Context, onlyActive bool) ([]*models.Subscriber, error) {
	const op = "storage.ListSubscribers"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	condition := "issues_left = 0"
	if onlyActive {
		condition = "issues_left > 0"
	}
	query := `SELECT ` + subscriberColumns + `
			  FROM magazine_subscribe_users WHERE ` + condition + ` ORDER BY id`
	rows, err := s.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var results []*models.Subscriber
	for rows.Next() {
		sub, err := scanSubscriber(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		results = append(results, sub)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return results, nil
}

// DeleteAllData очищает все данные модуля. Вызывается только при
// деинсталляции с включённым флагом удаления данных.
func (s *Storage) DeleteAllData(ctx context.Context) error {
	const op = "storage.DeleteAllData"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	if _, err := s.DB.ExecContext(ctx, `TRUNCATE magazine_subscribe_users`); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if _, err := s.DB.ExecContext(ctx, `DELETE FROM magazine_subscribe_settings`); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
