package services

import (
	"fmt"
	"log"
	"math"
	"time"

	"kdsboard/server/internal/models"
)

// subscriptionTimeLayout даты подписки приходят ISO8601 без зоны
const subscriptionTimeLayout = "2006-01-02T15:04:05"

// SubscriptionService баннер подписки: независимая read-only метрика
// оставшихся дней для выбранной точки. С состоянием доски не пересекается
type SubscriptionService struct {
	auth    *AuthService
	client  *UpstreamClient
	session *Session
}

// NewSubscriptionService создает сервис баннера подписки
func NewSubscriptionService(auth *AuthService, client *UpstreamClient, session *Session) *SubscriptionService {
	return &SubscriptionService{auth: auth, client: client, session: session}
}

// Status считает метрику подписки для выбранной точки
// Детали подписки бекенд отдает вместе со списком заказов — баннер делает
// свой собственный запрос и на колонки доски не влияет
func (ss *SubscriptionService) Status() (*models.SubscriptionStatus, error) {
	outletID := ss.session.OutletID()
	if outletID == "" {
		return nil, fmt.Errorf("no outlet selected")
	}

	var resp *models.OrderListResponse
	err := ss.auth.DoAuthed(func(token string) error {
		var callErr error
		resp, callErr = ss.client.ListOrders(token, outletID, DateFilterToday)
		return callErr
	})
	if err != nil {
		return nil, err
	}
	if resp.SubscriptionDetails == nil {
		return nil, fmt.Errorf("no subscription details for outlet %s", outletID)
	}

	status, err := ComputeSubscriptionStatus(resp.SubscriptionDetails, time.Now())
	if err != nil {
		return nil, err
	}
	log.Printf("📅 Подписка %q: осталось %d из %d дней", status.Name, status.DaysRemaining, status.DaysTotal)
	return status, nil
}

// ComputeSubscriptionStatus переводит даты подписки в оставшиеся дни
// Остаток — ceil до конца, не меньше 0; полная длительность — не меньше 1
func ComputeSubscriptionStatus(details *models.SubscriptionDetails, now time.Time) (*models.SubscriptionStatus, error) {
	start, err := time.Parse(subscriptionTimeLayout, details.StartDate)
	if err != nil {
		return nil, fmt.Errorf("failed to parse subscription start_date %q: %w", details.StartDate, err)
	}
	end, err := time.Parse(subscriptionTimeLayout, details.EndDate)
	if err != nil {
		return nil, fmt.Errorf("failed to parse subscription end_date %q: %w", details.EndDate, err)
	}

	daysRemaining := int(math.Ceil(end.Sub(now).Hours() / 24))
	if daysRemaining < 0 {
		daysRemaining = 0
	}
	daysTotal := int(math.Ceil(end.Sub(start).Hours() / 24))
	if daysTotal < 1 {
		daysTotal = 1
	}

	return &models.SubscriptionStatus{
		Name:          details.Name,
		Tenure:        details.Tenure,
		Price:         details.Price,
		DaysRemaining: daysRemaining,
		DaysTotal:     daysTotal,
		Active:        details.Status && daysRemaining > 0,
	}, nil
}
