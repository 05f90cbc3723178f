package services

import (
	"fmt"
	"time"

	"kdsboard/server/internal/models"
)

// CountdownWindow окно авто-эскалации: 90 секунд с момента размещения заказа
// Истечение окна только прячет таймер с экрана — заказ оно НЕ отменяет и
// не переводит, он так и висит в placed до действия оператора или бекенда
const CountdownWindow = 90 * time.Second

// orderTimeLayout формат date_time заказа: "04 Dec 2025 06:45:03 PM"
const orderTimeLayout = "02 Jan 2006 03:04:05 PM"

// ParseOrderTime разбирает серверно-локальную строку времени заказа
// Зоны в строке нет, поэтому парсим в часовом поясе ресторана
func ParseOrderTime(dateTime string, loc *time.Location) (time.Time, error) {
	if dateTime == "" {
		return time.Time{}, fmt.Errorf("empty order date_time")
	}
	t, err := time.ParseInLocation(orderTimeLayout, dateTime, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse order date_time %q: %w", dateTime, err)
	}
	return t, nil
}

// CountdownFor считает состояние таймера заказа на момент now
// Таймер каждый раз выводится заново из date_time (оно неизменно для заказа),
// между опросами ничего не переносится
// Возвращает nil, если date_time не парсится — тогда таймер считается истекшим
// и на экран не попадает (так же вел себя исходный компонент)
func CountdownFor(order *models.Order, now time.Time, loc *time.Location) *models.CountdownView {
	placedAt, err := ParseOrderTime(order.DateTime, loc)
	if err != nil {
		return &models.CountdownView{SecondsLeft: 0, Expired: true}
	}

	expiry := placedAt.Add(CountdownWindow)
	left := expiry.Sub(now)
	if left <= 0 {
		return &models.CountdownView{SecondsLeft: 0, Expired: true}
	}
	return &models.CountdownView{SecondsLeft: int(left.Seconds()), Expired: false}
}
