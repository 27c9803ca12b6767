// Package models содержит доменные структуры журнальной подписки:
// запись подписчика, настройки, окно подписки, а также вспомогательные
// типы для приёма данных из внешних источников (JSON-запросы платформы).
package models

// Subscriber представляет собой запись подписчика — одну строку таблицы
// magazine_subscribe_users. Запись создаётся при завершении заказа с
// подписным товаром и обновляется при каждой публикации нового номера.
type Subscriber struct {
	ID                     int    // ID записи
	UserID                 int    // ID покупателя на платформе
	UserLogin              string // Логин покупателя
	UserEmail              string // Email покупателя
	OrderID                int    // ID заказа (уникален на запись)
	ProductName            string // Название подписного товара
	CategorySubscriptionID int    // Категория номеров, на которую оформлена подписка
	SubscriptionLength     int    // Длина подписки в номерах
	SubscriptionStart      int    // Первый номер окна подписки
	SubscriptionEnd        int    // Последний номер окна подписки (включительно)
	AttributeSelector      string // Выбранный атрибут (формат издания)
	IssuesLeft             int    // Сколько номеров ещё не опубликовано, не бывает отрицательным
}

// SubscriptionProduct описывает найденный в заказе или корзине подписной
// товар вместе с его конфигурацией подписки из метаданных товара.
type SubscriptionProduct struct {
	ProductID          int    // ID товара
	ProductName        string // Название товара
	CategoryProduct    int    // Целевая категория номеров
	SubscriptionLength int    // Длина подписки в номерах
	SelectedAttribute  string // Атрибут доставляемых номеров
}

// StartFieldInfo описывает параметры поля выбора стартового номера,
// которые витрина показывает покупателю на странице оформления заказа.
type StartFieldInfo struct {
	RecentNumber int  `json:"recent_number"` // Самый свежий опубликованный номер
	DefaultStart int  `json:"default_start"` // Предлагаемый стартовый номер
	MinStart     int  `json:"min_start"`     // Нижняя граница выбора
	MaxStart     int  `json:"max_start"`     // Верхняя граница выбора
	Renewal      bool `json:"renewal"`       // Есть действующая подписка, старт фиксирован
	PriorEnd     int  `json:"prior_end,omitempty"`
}

// FailedFulfillment — сообщение о неудачной доставке номера подписчику.
// Публикуется в очередь недоставленных для ручной повторной обработки.
type FailedFulfillment struct {
	EventID      string `json:"event_id"`
	SubscriberID int    `json:"subscriber_id"`
	OrderID      int    `json:"order_id"`
	ProductID    int    `json:"product_id"`
	IssueNumber  int    `json:"issue_number"`
	Reason       string `json:"reason"`
}
