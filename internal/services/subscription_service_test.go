package services

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"kdsboard/server/internal/models"
)

func TestComputeSubscriptionStatus(t *testing.T) {
	now := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)

	cases := []struct {
		name          string
		start, end    string
		status        bool
		wantRemaining int
		wantTotal     int
		wantActive    bool
	}{
		{
			// Половина дня до конца округляется вверх до полного дня
			name:  "half day left",
			start: "2026-08-01T12:00:00", end: "2026-09-01T00:00:00",
			status: true, wantRemaining: 1, wantTotal: 31, wantActive: true,
		},
		{
			name:  "month ahead",
			start: "2026-08-25T13:49:35", end: "2026-09-25T13:49:35",
			status: true, wantRemaining: 26, wantTotal: 31, wantActive: true,
		},
		{
			// Истекшая подписка: остаток зажат нулем, active=false
			name:  "already expired",
			start: "2026-07-01T00:00:00", end: "2026-08-01T00:00:00",
			status: true, wantRemaining: 0, wantTotal: 31, wantActive: false,
		},
		{
			// Флаг status=false гасит баннер даже при оставшихся днях
			name:  "disabled upstream",
			start: "2026-08-25T00:00:00", end: "2026-09-25T00:00:00",
			status: false, wantRemaining: 25, wantTotal: 31, wantActive: false,
		},
		{
			// Вырожденная длительность зажимается единицей
			name:  "degenerate duration",
			start: "2026-09-01T00:00:00", end: "2026-09-01T00:00:00",
			status: true, wantRemaining: 1, wantTotal: 1, wantActive: true,
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			status, err := ComputeSubscriptionStatus(&models.SubscriptionDetails{
				Name:      "Pro",
				Tenure:    "monthly",
				Price:     999,
				StartDate: c.start,
				EndDate:   c.end,
				Status:    c.status,
			}, now)
			if err != nil {
				t.Fatalf("compute failed: %v", err)
			}
			if status.DaysRemaining != c.wantRemaining {
				t.Errorf("days remaining = %d, want %d", status.DaysRemaining, c.wantRemaining)
			}
			if status.DaysTotal != c.wantTotal {
				t.Errorf("days total = %d, want %d", status.DaysTotal, c.wantTotal)
			}
			if status.Active != c.wantActive {
				t.Errorf("active = %v, want %v", status.Active, c.wantActive)
			}
		})
	}
}

func TestComputeSubscriptionStatusBadDates(t *testing.T) {
	now := time.Now()
	_, err := ComputeSubscriptionStatus(&models.SubscriptionDetails{
		StartDate: "garbage", EndDate: "2026-09-25T13:49:35",
	}, now)
	if err == nil {
		t.Error("bad start_date accepted")
	}
	_, err = ComputeSubscriptionStatus(&models.SubscriptionDetails{
		StartDate: "2026-08-25T13:49:35", EndDate: "",
	}, now)
	if err == nil {
		t.Error("bad end_date accepted")
	}
}

func TestSubscriptionStatusFetch(t *testing.T) {
	end := time.Now().UTC().Add(10 * 24 * time.Hour).Format(subscriptionTimeLayout)
	start := time.Now().UTC().Add(-20 * 24 * time.Hour).Format(subscriptionTimeLayout)
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v2/common/cds_kds_order_listview" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		fmt.Fprintf(w, `{"placed_orders":[],"subscription_details":{"subscription_id":1,"name":"Pro","price":999,"tenure":"monthly","start_date":%q,"end_date":%q,"status":true}}`,
			start, end)
	})

	_, auth, session, _ := newTestStack(t, handler)
	seedSession(session)
	subs := NewSubscriptionService(auth, auth.client, session)

	status, err := subs.Status()
	if err != nil {
		t.Fatalf("status failed: %v", err)
	}
	if status.Name != "Pro" || !status.Active {
		t.Errorf("unexpected status: %+v", status)
	}
	if status.DaysRemaining < 9 || status.DaysRemaining > 10 {
		t.Errorf("days remaining out of range: %d", status.DaysRemaining)
	}

	// Без выбранной точки баннера нет
	session.SetOutlet("", "")
	if _, err := subs.Status(); err == nil {
		t.Error("status without outlet accepted")
	}
}
