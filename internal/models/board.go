package models

// OrderView заказ в снапшоте доски, обогащенный производным состоянием
// (таймер, подсветка новых позиций) для экранов кухни
type OrderView struct {
	Order
	// NewMenuItems имена позиций, которых не было в прошлом снапшоте этого заказа
	// Пустой список для заказа, увиденного впервые
	NewMenuItems []string `json:"new_menu_items,omitempty"`
	// Countdown состояние 90-секундного таймера (только для placed в ручном режиме)
	Countdown *CountdownView `json:"countdown,omitempty"`
	// ActionAllowed можно ли оператору совершать ручные действия над заказом
	ActionAllowed bool `json:"action_allowed"`
}

// CountdownView производное состояние таймера авто-эскалации
// Истечение таймера только убирает элемент с экрана, заказ оно не отменяет
type CountdownView struct {
	SecondsLeft int  `json:"seconds_left"`
	Expired     bool `json:"expired"`
}

// BoardSnapshot полный снапшот доски заказов, рассылается экранам после
// каждого примененного опроса
type BoardSnapshot struct {
	OutletID      string      `json:"outlet_id"`
	OutletName    string      `json:"outlet_name"`
	DateFilter    string      `json:"date_filter"` // "today" | "all"
	ManualMode    bool        `json:"manual_mode"`
	Placed        []OrderView `json:"placed_orders"`
	Cooking       []OrderView `json:"cooking_orders"`
	Served        []OrderView `json:"served_orders"`
	Paid          []OrderView `json:"paid_orders"`
	LastRefreshAt string      `json:"last_refresh_at,omitempty"` // Время последнего успешного опроса
	Error         string      `json:"error,omitempty"`           // Транзиентная ошибка (баннер), не чистит доску
	Sequence      uint64      `json:"sequence"`                  // Номер примененного снапшота
}

// Counts количество заказов по колонкам (для заголовков колонок)
func (s *BoardSnapshot) Counts() map[string]int {
	return map[string]int{
		StatusPlaced:  len(s.Placed),
		StatusCooking: len(s.Cooking),
		StatusServed:  len(s.Served),
		StatusPaid:    len(s.Paid),
	}
}
