package models

import (
	"encoding/json"
	"strings"
)

// Статусы жизненного цикла заказа (колонки доски KDS)
const (
	StatusPlaced    = "placed"
	StatusCooking   = "cooking"
	StatusServed    = "served"
	StatusPaid      = "paid"
	StatusCancelled = "cancelled"
)

// MenuLineItem представляет одну позицию меню внутри заказа
// Идентичности за пределами позиции в заказе нет, подсветка "новых" позиций
// делается по множеству имен (см. BoardService)
type MenuLineItem struct {
	MenuName   string `json:"menu_name"`              // Название блюда
	HalfOrFull string `json:"half_or_full,omitempty"` // Половина/целая порция
	Quantity   int    `json:"quantity"`               // Количество (> 0)
	FoodType   string `json:"food_type"`              // "veg" | "nonveg" | "vegan" (только для стилизации)
	Comment    string `json:"comment,omitempty"`      // Комментарий гостя (опционально)
}

// Order представляет тикет заказа на доске KDS
// order_id — стабильная непрозрачная идентичность, order_number — лейбл для экрана
type Order struct {
	OrderID          json.Number    `json:"order_id"`               // ID заказа (бекенд шлет и числа, и строки)
	OrderNumber      string         `json:"order_number"`           // Номер для отображения
	OrderStatus      string         `json:"order_status"`           // Текущий статус (см. константы выше)
	OrderType        string         `json:"order_type,omitempty"`   // Тип заказа (dine-in, parcel, ...)
	TableNumber      []string       `json:"table_number,omitempty"` // Номера столов
	SectionName      string         `json:"section_name,omitempty"` // Название секции (если есть — показывается вместо столов)
	DateTime         string         `json:"date_time"`              // Серверное время "DD Mon YYYY HH:MM:SS AM|PM"
	MenuDetails      []MenuLineItem `json:"menu_details"`           // Позиции заказа (порядок важен)
	KDSButtonEnabled int            `json:"kds_button_enabled"`     // 1 = ручные действия разрешены (boolean-as-int от бекенда)
}

// ID возвращает идентификатор заказа строкой
func (o *Order) ID() string {
	return o.OrderID.String()
}

// MenuNameSet возвращает множество имен позиций заказа
// Используется для сравнения с прошлым снапшотом (подсветка новых позиций)
func (o *Order) MenuNameSet() map[string]bool {
	set := make(map[string]bool, len(o.MenuDetails))
	for _, m := range o.MenuDetails {
		set[m.MenuName] = true
	}
	return set
}

// ActionsAllowed проверяет, разрешены ли ручные действия над заказом
func (o *Order) ActionsAllowed() bool {
	return o.KDSButtonEnabled == 1
}

// TableLabel собирает подпись заказа: секция, либо тип + столы
func (o *Order) TableLabel() string {
	if o.SectionName != "" {
		return o.SectionName
	}
	if len(o.TableNumber) > 0 {
		return o.OrderType + " - " + strings.Join(o.TableNumber, ", ")
	}
	return o.OrderType
}

// OrderListResponse ответ эндпоинта cds_kds_order_listview
// Отсутствующие массивы нормализуются в пустые — см. Normalize
type OrderListResponse struct {
	PlacedOrders        []Order              `json:"placed_orders"`
	CookingOrders       []Order              `json:"cooking_orders"`
	PaidOrders          []Order              `json:"paid_orders"`
	ServedOrders        []Order              `json:"served_orders"`
	SubscriptionDetails *SubscriptionDetails `json:"subscription_details,omitempty"`
}

// Normalize заменяет nil-массивы на пустые, чтобы ни один потребитель
// не работал с null вместо списка
func (r *OrderListResponse) Normalize() {
	if r.PlacedOrders == nil {
		r.PlacedOrders = []Order{}
	}
	if r.CookingOrders == nil {
		r.CookingOrders = []Order{}
	}
	if r.PaidOrders == nil {
		r.PaidOrders = []Order{}
	}
	if r.ServedOrders == nil {
		r.ServedOrders = []Order{}
	}
}

// StatusUpdateRequest тело PATCH update_order_status
type StatusUpdateRequest struct {
	OrderID     string `json:"order_id"`
	OrderStatus string `json:"order_status"` // Целевой статус: "cooking" | "served" | "cancelled"
	OutletID    string `json:"outlet_id"`
	UserID      string `json:"user_id"`
	DeviceToken string `json:"device_token"`
	AppSource   string `json:"app_source"` // Всегда "kds_app"
}
