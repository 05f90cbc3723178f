package models

// SubscriptionDetails детали подписки точки, приходят вместе со списком заказов
// Используются только для баннера "осталось дней" — на доску не влияют
type SubscriptionDetails struct {
	SubscriptionID int     `json:"subscription_id"`
	Name           string  `json:"name"`
	Price          float64 `json:"price"`
	Tenure         string  `json:"tenure"`
	StartDate      string  `json:"start_date"` // ISO8601 без таймзоны: "2025-09-25T13:49:35"
	EndDate        string  `json:"end_date"`
	Status         bool    `json:"status"`
}

// SubscriptionStatus посчитанная метрика оставшихся дней подписки
type SubscriptionStatus struct {
	Name          string  `json:"name"`
	Tenure        string  `json:"tenure"`
	Price         float64 `json:"price"`
	DaysRemaining int     `json:"days_remaining"` // ceil до конца подписки, не меньше 0
	DaysTotal     int     `json:"days_total"`     // Полная длительность в днях, не меньше 1
	Active        bool    `json:"active"`
}
