package services

import (
	"strconv"
	"testing"
	"time"
)

func TestMemorySessionStore(t *testing.T) {
	store := NewMemorySessionStore()

	if _, ok := store.Get("missing"); ok {
		t.Error("missing key reported present")
	}

	store.Set("a", "1")
	store.Set("b", "2")
	if v, ok := store.Get("a"); !ok || v != "1" {
		t.Errorf("get a = %q, %v", v, ok)
	}

	store.Delete("a")
	if _, ok := store.Get("a"); ok {
		t.Error("deleted key still present")
	}

	store.Clear()
	if _, ok := store.Get("b"); ok {
		t.Error("clear left keys behind")
	}
}

// Ручной режим по умолчанию включен — пока оператор его явно не выключил
func TestManualModeDefaultsOn(t *testing.T) {
	session := NewSession(NewMemorySessionStore())

	if !session.ManualMode() {
		t.Fatal("manual mode must default to on")
	}

	session.SetManualMode(false)
	if session.ManualMode() {
		t.Error("manual mode not switched off")
	}

	session.SetManualMode(true)
	if !session.ManualMode() {
		t.Error("manual mode not switched back on")
	}

	// Мусор в хранилище трактуется как значение по умолчанию
	session2 := NewSession(NewMemorySessionStore())
	session2.store.Set(SessionKeyManualMode, "whatever")
	if !session2.ManualMode() {
		t.Error("garbage value must fall back to default")
	}
}

func TestSessionValidLifetime(t *testing.T) {
	session := NewSession(NewMemorySessionStore())

	// Без токена сессии нет
	if session.Valid() {
		t.Fatal("empty session reported valid")
	}

	session.SetAccessToken("token-1")
	session.Touch()
	if !session.Valid() {
		t.Fatal("fresh session reported invalid")
	}

	// Активность старше 24 часов — сессия протухла и вычищена
	stale := time.Now().Add(-25 * time.Hour).UnixMilli()
	session.store.Set(SessionKeyLastActivity, strconv.FormatInt(stale, 10))
	if session.Valid() {
		t.Fatal("stale session reported valid")
	}
	if session.AccessToken() != "" {
		t.Error("stale session not cleared")
	}
}

// Valid продлевает сессию: каждый успешный вызов двигает last_activity
func TestSessionValidTouches(t *testing.T) {
	session := NewSession(NewMemorySessionStore())
	session.SetAccessToken("token-1")

	old := time.Now().Add(-23 * time.Hour).UnixMilli()
	session.store.Set(SessionKeyLastActivity, strconv.FormatInt(old, 10))

	if !session.Valid() {
		t.Fatal("session within lifetime reported invalid")
	}

	raw, _ := session.store.Get(SessionKeyLastActivity)
	updated, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		t.Fatalf("bad last_activity: %v", err)
	}
	if updated <= old {
		t.Error("last_activity not advanced by Valid")
	}
}

func TestSessionRoles(t *testing.T) {
	session := NewSession(NewMemorySessionStore())

	session.SetUserRole("chef")
	if session.IsSuperOwner() {
		t.Error("chef treated as super_owner")
	}
	session.SetUserRole("super_owner")
	if !session.IsSuperOwner() {
		t.Error("super_owner not recognized")
	}
}

func TestSessionOutlet(t *testing.T) {
	session := NewSession(NewMemorySessionStore())

	if session.OutletID() != "" {
		t.Error("outlet set on empty session")
	}
	session.SetOutlet("42", "Test Kitchen")
	if session.OutletID() != "42" || session.OutletName() != "Test Kitchen" {
		t.Errorf("outlet not stored: %q %q", session.OutletID(), session.OutletName())
	}
}
