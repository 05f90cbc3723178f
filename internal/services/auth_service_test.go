package services

import (
	"errors"
	"fmt"
	"net/http"
	"sync"
	"testing"
)

// authUpstream фейковый бекенд авторизации
type authUpstream struct {
	mu            sync.Mutex
	validToken    string // Единственный токен, который листинг принимает
	refreshCalls  int
	refreshFail   bool
	refreshResult string
	listCalls     []string // Токены, с которыми приходил листинг
	verifyBody    string
	otpFailDetail string
}

func (a *authUpstream) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.mu.Lock()
	defer a.mu.Unlock()

	switch r.URL.Path {
	case "/v2/common/cds_kds_order_listview":
		token := r.Header.Get("Authorization")
		a.listCalls = append(a.listCalls, token)
		if token != "Bearer "+a.validToken {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		fmt.Fprint(w, `{"placed_orders":[],"cooking_orders":[],"served_orders":[],"paid_orders":[]}`)
	case "/common_api/token/refresh":
		a.refreshCalls++
		if a.refreshFail {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		fmt.Fprintf(w, `{"access":%q}`, a.refreshResult)
	case "/v2/common/verify_otp":
		if a.otpFailDetail != "" {
			w.WriteHeader(http.StatusBadRequest)
			fmt.Fprintf(w, `{"detail":%q}`, a.otpFailDetail)
			return
		}
		fmt.Fprint(w, a.verifyBody)
	case "/v2/common/login":
		if a.otpFailDetail != "" {
			w.WriteHeader(http.StatusBadRequest)
			fmt.Fprintf(w, `{"detail":%q}`, a.otpFailDetail)
			return
		}
		fmt.Fprint(w, `{"detail":"OTP sent successfully","role":"chef"}`)
	case "/common_api/logout":
		w.WriteHeader(http.StatusInternalServerError)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func TestValidateMobile(t *testing.T) {
	cases := []struct {
		mobile string
		ok     bool
	}{
		{"9876543210", true},
		{"6000000000", true},
		{"5876543210", false}, // Первая цифра вне 6-9
		{"987654321", false},  // Короткий
		{"98765432100", false},
		{"98765abcde", false},
		{"", false},
	}
	for _, c := range cases {
		err := ValidateMobile(c.mobile)
		if c.ok && err != nil {
			t.Errorf("mobile %q: unexpected error %v", c.mobile, err)
		}
		if !c.ok && err == nil {
			t.Errorf("mobile %q: expected validation error", c.mobile)
		}
	}
}

func TestVerifyOTPPopulatesSession(t *testing.T) {
	fake := &authUpstream{
		verifyBody: `{"access_token":"acc-1","refresh_token":"ref-1","user_id":27,"outlet_id":42,"outlet_name":"Test Kitchen","role":"chef","name":"Chef"}`,
	}
	_, auth, session, _ := newTestStack(t, fake)

	resp, err := auth.VerifyOTP("9876543210", "1234")
	if err != nil {
		t.Fatalf("verify failed: %v", err)
	}
	if resp.UserID != 27 {
		t.Errorf("wrong user_id: %d", resp.UserID)
	}
	if session.AccessToken() != "acc-1" || session.RefreshToken() != "ref-1" {
		t.Error("tokens not stored in session")
	}
	if session.UserID() != "27" || session.UserRole() != "chef" {
		t.Error("user identity not stored")
	}
	if session.OutletID() != "42" || session.OutletName() != "Test Kitchen" {
		t.Error("login outlet not stored")
	}
	if session.DeviceID() == "" {
		t.Error("device_id not generated")
	}
	if !session.Valid() {
		t.Error("session not valid after login")
	}
}

func TestVerifyOTPRejectsBadInput(t *testing.T) {
	fake := &authUpstream{}
	_, auth, _, _ := newTestStack(t, fake)

	if _, err := auth.VerifyOTP("1234567890", "1234"); err == nil {
		t.Error("bad mobile accepted")
	}
	for _, otp := range []string{"123", "12345", "12ab", ""} {
		if _, err := auth.VerifyOTP("9876543210", otp); err == nil {
			t.Errorf("bad otp %q accepted", otp)
		}
	}
}

// Сообщение бекенда из поля detail доходит до оператора как есть
func TestVerifyOTPPassesDetailThrough(t *testing.T) {
	fake := &authUpstream{otpFailDetail: "Invalid OTP"}
	_, auth, _, _ := newTestStack(t, fake)

	_, err := auth.VerifyOTP("9876543210", "1234")
	if err == nil || err.Error() != "Invalid OTP" {
		t.Fatalf("expected backend detail, got %v", err)
	}
}

// Протокол 401: один refresh, один повтор — и вызов завершается успехом
func TestDoAuthedRefreshRetry(t *testing.T) {
	fake := &authUpstream{validToken: "token-2", refreshResult: "token-2"}
	_, auth, session, _ := newTestStack(t, fake)
	seedSession(session) // access = token-1, бекенд его не примет

	calls := 0
	err := auth.DoAuthed(func(token string) error {
		calls++
		_, callErr := auth.client.ListOrders(token, "42", DateFilterToday)
		return callErr
	})
	if err != nil {
		t.Fatalf("DoAuthed failed: %v", err)
	}
	if calls != 2 {
		t.Errorf("expected original call + one retry, got %d calls", calls)
	}
	if fake.refreshCount() != 1 {
		t.Errorf("expected exactly one refresh, got %d", fake.refreshCount())
	}
	if session.AccessToken() != "token-2" {
		t.Errorf("refreshed token not stored: %q", session.AccessToken())
	}
}

// Неудачный refresh — граница логина: сессия чистится, ErrSessionExpired
func TestDoAuthedRefreshFailureClearsSession(t *testing.T) {
	fake := &authUpstream{validToken: "other", refreshFail: true}
	_, auth, session, _ := newTestStack(t, fake)
	seedSession(session)

	err := auth.DoAuthed(func(token string) error {
		_, callErr := auth.client.ListOrders(token, "42", DateFilterToday)
		return callErr
	})
	if !errors.Is(err, ErrSessionExpired) {
		t.Fatalf("expected ErrSessionExpired, got %v", err)
	}
	if session.AccessToken() != "" {
		t.Error("session not cleared after failed refresh")
	}
}

// 401 и после refresh — выходим, бесконечного цикла нет
func TestDoAuthedSecond401ForcesLogout(t *testing.T) {
	// refresh выдает токен, который бекенд все равно не принимает
	fake := &authUpstream{validToken: "never", refreshResult: "token-2"}
	_, auth, session, _ := newTestStack(t, fake)
	seedSession(session)

	calls := 0
	err := auth.DoAuthed(func(token string) error {
		calls++
		_, callErr := auth.client.ListOrders(token, "42", DateFilterToday)
		return callErr
	})
	if !errors.Is(err, ErrSessionExpired) {
		t.Fatalf("expected ErrSessionExpired, got %v", err)
	}
	if calls != 2 {
		t.Errorf("expected exactly 2 calls (no retry loop), got %d", calls)
	}
	if session.AccessToken() != "" {
		t.Error("session not cleared after second 401")
	}
}

// Пока один вызов обновлял токен, второй получил 401 со старым токеном:
// он не должен дергать refresh повторно, а забирает уже готовый токен
func TestRefreshOnceCollapsesConcurrentAttempts(t *testing.T) {
	fake := &authUpstream{refreshResult: "token-3"}
	_, auth, session, _ := newTestStack(t, fake)
	seedSession(session)

	// Кто-то уже обновил токен до token-2
	session.SetAccessToken("token-2")

	token, err := auth.refreshOnce("token-1")
	if err != nil {
		t.Fatalf("refreshOnce failed: %v", err)
	}
	if token != "token-2" {
		t.Errorf("expected already-refreshed token, got %q", token)
	}
	if fake.refreshCount() != 0 {
		t.Errorf("redundant refresh issued: %d", fake.refreshCount())
	}
}

// Пустая сессия — сразу граница логина, без сетевых вызовов
func TestDoAuthedWithoutSession(t *testing.T) {
	fake := &authUpstream{}
	_, auth, _, _ := newTestStack(t, fake)

	err := auth.DoAuthed(func(token string) error { return nil })
	if !errors.Is(err, ErrSessionExpired) {
		t.Fatalf("expected ErrSessionExpired, got %v", err)
	}
}

// Logout чистит сессию даже когда бекенд отвечает ошибкой
func TestLogoutClearsSessionDespiteBackendError(t *testing.T) {
	fake := &authUpstream{}
	_, auth, session, _ := newTestStack(t, fake)
	seedSession(session)

	auth.Logout()
	if session.AccessToken() != "" || session.UserID() != "" || session.OutletID() != "" {
		t.Error("session survived logout")
	}
}

func (a *authUpstream) refreshCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.refreshCalls
}
