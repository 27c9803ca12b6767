package models

// CartItem — позиция корзины, переданная витриной.
type CartItem struct {
	ProductID   int `json:"product_id" validate:"required"`
	VariationID int `json:"variation_id,omitempty"`
}

// DummyOrderEvent используется для приёма событий жизненного цикла заказа
// (checkout-order-processed, order-completed, order-admin-saved).
type DummyOrderEvent struct {
	OrderID int `json:"order_id" validate:"required,min=1"`
}

// DummyProductPublished используется для приёма события публикации товара.
type DummyProductPublished struct {
	ProductID int `json:"product_id" validate:"required,min=1"`
}

// DummyCheckoutPreview — запрос параметров поля стартового номера.
type DummyCheckoutPreview struct {
	CustomerID int        `json:"customer_id,omitempty"`
	Items      []CartItem `json:"items" validate:"required,dive"`
}

// DummyValidateStart — запрос проверки выбранного стартового номера.
type DummyValidateStart struct {
	CustomerID        int        `json:"customer_id,omitempty"`
	SubscriptionStart int        `json:"subscription_start" validate:"required,min=1"`
	Items             []CartItem `json:"items" validate:"required,dive"`
}

// DummySettings — запрос сохранения настроек модуля.
type DummySettings struct {
	CategoryID            int  `json:"category_id" validate:"required,min=1"`
	DeleteDataOnUninstall bool `json:"delete_data_on_uninstall"`
}

// DummyLogin — запрос на вход администратора.
type DummyLogin struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}
