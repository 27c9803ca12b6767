// Package woocommerce реализует клиент REST API коммерческой платформы.
// Модуль потребляет её как внешнего коллаборатора: каталог товаров,
// позиции заказов, метаданные заказов и товаров.
package woocommerce

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// Client — HTTP клиент платформы с аутентификацией consumer key/secret.
type Client struct {
	baseURL        string
	consumerKey    string
	consumerSecret string
	httpClient     *http.Client
}

// NewClient создаёт новый клиент платформы.
func NewClient(baseURL, consumerKey, consumerSecret string, timeout time.Duration) *Client {
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL:        baseURL,
		consumerKey:    consumerKey,
		consumerSecret: consumerSecret,
		httpClient:     &http.Client{Timeout: timeout},
	}
}

func (c *Client) newRequest(ctx context.Context, method, path string, query url.Values, body any) (*http.Request, error) {
	u := c.baseURL + "/wp-json/wc/v3" + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return nil, err
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, u, &buf)
	if err != nil {
		return nil, err
	}
	auth := base64.StdEncoding.EncodeToString([]byte(c.consumerKey + ":" + c.consumerSecret))
	req.Header.Set("Authorization", "Basic "+auth)
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

// do выполняет запрос и декодирует ответ в out. При 404 возвращает
// errNotFound — вызывающие методы превращают его в nil-результат.
func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return errNotFound
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("unexpected status: %s", resp.Status)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

var errNotFound = fmt.Errorf("not found")

// GetProduct возвращает товар по ID, nil — если товара нет.
func (c *Client) GetProduct(ctx context.Context, productID int) (*Product, error) {
	const op = "woocommerce.GetProduct"
	req, err := c.newRequest(ctx, http.MethodGet, "/products/"+strconv.Itoa(productID), nil, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	var product Product
	if err := c.do(req, &product); err != nil {
		if err == errNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &product, nil
}

// ListProductsByCategory возвращает все товары категории, включая товары-номера.
func (c *Client) ListProductsByCategory(ctx context.Context, categoryID int) ([]Product, error) {
	const op = "woocommerce.ListProductsByCategory"

	var all []Product
	for page := 1; ; page++ {
		query := url.Values{
			"category": {strconv.Itoa(categoryID)},
			"per_page": {"100"},
			"page":     {strconv.Itoa(page)},
			"status":   {"publish"},
		}
		req, err := c.newRequest(ctx, http.MethodGet, "/products", query, nil)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		var batch []Product
		if err := c.do(req, &batch); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		all = append(all, batch...)
		if len(batch) < 100 {
			return all, nil
		}
	}
}

// ListVariations возвращает вариации товара.
func (c *Client) ListVariations(ctx context.Context, productID int) ([]Variation, error) {
	const op = "woocommerce.ListVariations"
	query := url.Values{"per_page": {"100"}}
	req, err := c.newRequest(ctx, http.MethodGet, "/products/"+strconv.Itoa(productID)+"/variations", query, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	var variations []Variation
	if err := c.do(req, &variations); err != nil {
		if err == errNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return variations, nil
}

// GetOrder возвращает заказ по ID, nil — если заказа нет.
func (c *Client) GetOrder(ctx context.Context, orderID int) (*Order, error) {
	const op = "woocommerce.GetOrder"
	req, err := c.newRequest(ctx, http.MethodGet, "/orders/"+strconv.Itoa(orderID), nil, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	var order Order
	if err := c.do(req, &order); err != nil {
		if err == errNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &order, nil
}

// GetCustomer возвращает покупателя по ID, nil — если покупателя нет.
func (c *Client) GetCustomer(ctx context.Context, customerID int) (*Customer, error) {
	const op = "woocommerce.GetCustomer"
	req, err := c.newRequest(ctx, http.MethodGet, "/customers/"+strconv.Itoa(customerID), nil, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	var customer Customer
	if err := c.do(req, &customer); err != nil {
		if err == errNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &customer, nil
}

// AddOrderLineItems добавляет позиции в заказ и возвращает обновлённый заказ.
// Платформа сама пересчитывает итоги заказа.
func (c *Client) AddOrderLineItems(ctx context.Context, orderID int, items []LineItem) (*Order, error) {
	const op = "woocommerce.AddOrderLineItems"
	body := map[string]any{"line_items": items}
	req, err := c.newRequest(ctx, http.MethodPut, "/orders/"+strconv.Itoa(orderID), nil, body)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	var order Order
	if err := c.do(req, &order); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &order, nil
}

// UpdateOrderMeta записывает метаданные подписки в заказ.
func (c *Client) UpdateOrderMeta(ctx context.Context, orderID int, meta []MetaData) error {
	const op = "woocommerce.UpdateOrderMeta"
	body := map[string]any{"meta_data": meta}
	req, err := c.newRequest(ctx, http.MethodPut, "/orders/"+strconv.Itoa(orderID), nil, body)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := c.do(req, nil); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// UpdateOrderStatus переводит заказ в новый статус. Перевод в completed
// выдаёт покупателю цифровые загрузки, связанные с позициями заказа.
func (c *Client) UpdateOrderStatus(ctx context.Context, orderID int, status string) error {
	const op = "woocommerce.UpdateOrderStatus"
	body := map[string]any{"status": status}
	req, err := c.newRequest(ctx, http.MethodPut, "/orders/"+strconv.Itoa(orderID), nil, body)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := c.do(req, nil); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
