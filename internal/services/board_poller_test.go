package services

import (
	"testing"
	"time"
)

func TestPollerImmediateAndKickedPolls(t *testing.T) {
	fake := &fakeUpstream{}
	fake.setListBody(listBody("", "", "", ""))

	board, _, session, _ := newTestStack(t, fake)
	seedSession(session)

	// Интервал заведомо больше теста: все опросы кроме первого — от kick
	poller := NewBoardPoller(board, time.Hour)
	poller.Start()
	defer poller.Stop()

	waitFor(t, 2*time.Second, func() bool {
		fake.mu.Lock()
		defer fake.mu.Unlock()
		return fake.listCalls == 1
	})

	// ForceRefresh доски уходит в планировщик через BindRefresh
	board.ForceRefresh()
	waitFor(t, 2*time.Second, func() bool {
		fake.mu.Lock()
		defer fake.mu.Unlock()
		return fake.listCalls == 2
	})
}

func TestPollerStartIsIdempotent(t *testing.T) {
	fake := &fakeUpstream{}
	fake.setListBody(listBody("", "", "", ""))

	board, _, session, _ := newTestStack(t, fake)
	seedSession(session)

	poller := NewBoardPoller(board, time.Hour)
	poller.Start()
	poller.Start() // Второй Start не плодит второй цикл
	defer poller.Stop()

	time.Sleep(100 * time.Millisecond)
	fake.mu.Lock()
	calls := fake.listCalls
	fake.mu.Unlock()
	if calls != 1 {
		t.Fatalf("expected a single immediate poll, got %d", calls)
	}
}

func TestPollerStopIsSafeTwice(t *testing.T) {
	fake := &fakeUpstream{}
	fake.setListBody(listBody("", "", "", ""))

	board, _, session, _ := newTestStack(t, fake)
	seedSession(session)

	poller := NewBoardPoller(board, time.Hour)
	poller.Start()
	poller.Stop()
	poller.Stop() // Повторный Stop не паникует
}
