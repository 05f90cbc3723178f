package services

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

// newTestStack поднимает полный стек сервисов поверх фейкового бекенда
func newTestStack(t *testing.T, handler http.Handler) (*BoardService, *AuthService, *Session, *httptest.Server) {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	session := NewSession(NewMemorySessionStore())
	client := NewUpstreamClient(server.URL)
	auth := NewAuthService(client, session, "test_fcm", "test_device")
	board := NewBoardService(auth, client, session, time.UTC)

	return board, auth, session, server
}

// seedSession наполняет сессию как после успешного verify_otp
func seedSession(session *Session) {
	session.SetAccessToken("token-1")
	session.SetRefreshToken("refresh-1")
	session.SetUserID("27")
	session.SetDeviceID("device-1")
	session.SetUserRole("chef")
	session.SetOutlet("42", "Test Kitchen")
	session.Touch()
}

// orderTime форматирует время в строку date_time заказа (формат бекенда)
func orderTime(t time.Time) string {
	return t.UTC().Format("02 Jan 2006 03:04:05 PM")
}

// waitFor крутится до выполнения условия или до таймаута
func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("condition not met within %v", timeout)
}
