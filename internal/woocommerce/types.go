package woocommerce

import "strconv"

// Ключи метаданных, которыми модуль обменивается с платформой.
const (
	MetaSubscriptionStart  = "subscription_start"
	MetaSubscriptionLength = "subscription_length"
	MetaSubscriptionEnd    = "subscription_end"
	MetaSelectedAttribute  = "selected_attribute"
	MetaCategoryProduct    = "category_product"
	MetaIssueNumber        = "subscription_product_id"
	MetaSendSubscriptions  = "send_subscriptions"
)

// MetaData — пара ключ/значение из хранилища метаданных платформы.
// Значения приходят как строки или числа, поэтому Value имеет тип any.
type MetaData struct {
	Key   string `json:"key"`
	Value any    `json:"value"`
}

// Category — ссылка на категорию товара.
type Category struct {
	ID   int    `json:"id"`
	Name string `json:"name,omitempty"`
}

// ProductAttribute — атрибут товара с вариантами значений.
type ProductAttribute struct {
	ID      int      `json:"id"`
	Name    string   `json:"name"`
	Options []string `json:"options,omitempty"`
}

// Product — товар платформы. Подписной товар несёт конфигурацию подписки
// в метаданных, обычный товар-номер — номер выпуска (MetaIssueNumber).
type Product struct {
	ID         int                `json:"id"`
	Name       string             `json:"name"`
	Status     string             `json:"status"`
	Categories []Category         `json:"categories"`
	Attributes []ProductAttribute `json:"attributes,omitempty"`
	Variations []int              `json:"variations,omitempty"`
	MetaData   []MetaData         `json:"meta_data,omitempty"`
}

// CategoryIDs возвращает набор категорий товара.
func (p *Product) CategoryIDs() []int {
	ids := make([]int, 0, len(p.Categories))
	for _, c := range p.Categories {
		ids = append(ids, c.ID)
	}
	return ids
}

// InCategory сообщает, принадлежит ли товар категории.
func (p *Product) InCategory(categoryID int) bool {
	for _, c := range p.Categories {
		if c.ID == categoryID {
			return true
		}
	}
	return false
}

// MetaInt возвращает целочисленное значение метаданных товара, 0 если ключа нет.
func (p *Product) MetaInt(key string) int {
	return metaInt(p.MetaData, key)
}

// MetaString возвращает строковое значение метаданных товара, "" если ключа нет.
func (p *Product) MetaString(key string) string {
	return metaString(p.MetaData, key)
}

// VariationAttribute — значение атрибута вариации.
type VariationAttribute struct {
	ID     int    `json:"id"`
	Name   string `json:"name"`
	Option string `json:"option"`
}

// Variation — вариация товара, конкретная доставляемая единица.
type Variation struct {
	ID           int                  `json:"id"`
	Attributes   []VariationAttribute `json:"attributes"`
	Downloadable bool                 `json:"downloadable"`
}

// LineItem — позиция заказа.
type LineItem struct {
	ID          int    `json:"id,omitempty"`
	ProductID   int    `json:"product_id"`
	VariationID int    `json:"variation_id,omitempty"`
	Name        string `json:"name,omitempty"`
	Quantity    int    `json:"quantity"`
	Subtotal    string `json:"subtotal,omitempty"`
	Total       string `json:"total,omitempty"`
}

// Billing — платёжные данные заказа, используется только email.
type Billing struct {
	Email string `json:"email"`
}

// Order — заказ платформы вместе с прикреплёнными модулем метаданными.
type Order struct {
	ID         int        `json:"id"`
	CustomerID int        `json:"customer_id"`
	Status     string     `json:"status"`
	Billing    Billing    `json:"billing"`
	LineItems  []LineItem `json:"line_items"`
	MetaData   []MetaData `json:"meta_data,omitempty"`
}

// MetaInt возвращает целочисленное значение метаданных заказа, 0 если ключа нет.
func (o *Order) MetaInt(key string) int {
	return metaInt(o.MetaData, key)
}

// MetaString возвращает строковое значение метаданных заказа, "" если ключа нет.
func (o *Order) MetaString(key string) string {
	return metaString(o.MetaData, key)
}

// ContainsItem сообщает, есть ли в заказе позиция с данным товаром или вариацией.
func (o *Order) ContainsItem(productID, variationID int) bool {
	for _, item := range o.LineItems {
		if variationID != 0 && item.VariationID == variationID {
			return true
		}
		if variationID == 0 && item.ProductID == productID && item.VariationID == 0 {
			return true
		}
	}
	return false
}

// Customer — покупатель платформы.
type Customer struct {
	ID       int    `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// Платформа хранит метаданные как строки или числа, в зависимости от того,
// кто их записал. Обе формы приводятся к int.
func metaInt(meta []MetaData, key string) int {
	for _, m := range meta {
		if m.Key != key {
			continue
		}
		switch v := m.Value.(type) {
		case float64:
			return int(v)
		case int:
			return v
		case string:
			n, err := strconv.Atoi(v)
			if err != nil {
				return 0
			}
			return n
		}
	}
	return 0
}

func metaString(meta []MetaData, key string) string {
	for _, m := range meta {
		if m.Key != key {
			continue
		}
		switch v := m.Value.(type) {
		case string:
			return v
		case float64:
			return strconv.Itoa(int(v))
		}
	}
	return ""
}
