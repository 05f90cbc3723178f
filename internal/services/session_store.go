package services

import (
	"log"
	"strconv"
	"sync"
	"time"

	"kdsboard/server/internal/utils"
)

// Ключи сессии — один в один поля, которые исходное приложение держало
// в localStorage. Плоский key-value, без версионирования схемы
const (
	SessionKeyAccessToken  = "access_token"
	SessionKeyRefreshToken = "refresh_token"
	SessionKeyUserID       = "user_id"
	SessionKeyOutletID     = "outlet_id"
	SessionKeyOutletName   = "outlet_name"
	SessionKeyDeviceID     = "device_id"
	SessionKeyUserRole     = "user_role"
	SessionKeyManualMode   = "kds_manual_mode"
	SessionKeyLastActivity = "last_activity"
)

// sessionKeys полный набор ключей — logout удаляет их все явно
var sessionKeys = []string{
	SessionKeyAccessToken,
	SessionKeyRefreshToken,
	SessionKeyUserID,
	SessionKeyOutletID,
	SessionKeyOutletName,
	SessionKeyDeviceID,
	SessionKeyUserRole,
	SessionKeyManualMode,
	SessionKeyLastActivity,
}

// sessionTimeout сессия живет 24 часа с момента последней активности
const sessionTimeout = 24 * time.Hour

// SessionStore key-value хранилище сессии оператора
// Интерфейс, а не глобальное состояние: в проде Redis, в тестах память
type SessionStore interface {
	Get(key string) (string, bool)
	Set(key, value string)
	Delete(key string)
	Clear()
}

// --- Redis реализация ---

// RedisSessionStore хранит сессию в Redis под префиксом kds:session:
type RedisSessionStore struct {
	redis  *utils.RedisClient
	prefix string
}

// NewRedisSessionStore создает Redis-хранилище сессии
func NewRedisSessionStore(redis *utils.RedisClient) *RedisSessionStore {
	return &RedisSessionStore{redis: redis, prefix: "kds:session:"}
}

func (s *RedisSessionStore) Get(key string) (string, bool) {
	value, err := s.redis.Get(s.prefix + key)
	if err != nil {
		if !utils.IsNil(err) {
			log.Printf("⚠️ Сессия: ошибка чтения ключа %s: %v", key, err)
		}
		return "", false
	}
	return value, true
}

func (s *RedisSessionStore) Set(key, value string) {
	// TTL не ставим: срок жизни сессии считается по last_activity,
	// а протухшие ключи вычищает Clear при logout/инвалидации
	if err := s.redis.Set(s.prefix+key, value, 0); err != nil {
		log.Printf("⚠️ Сессия: ошибка записи ключа %s: %v", key, err)
	}
}

func (s *RedisSessionStore) Delete(key string) {
	if err := s.redis.Delete(s.prefix + key); err != nil {
		log.Printf("⚠️ Сессия: ошибка удаления ключа %s: %v", key, err)
	}
}

func (s *RedisSessionStore) Clear() {
	for _, key := range sessionKeys {
		s.Delete(key)
	}
}

// --- In-memory реализация (тесты и запуск без Redis) ---

// MemorySessionStore хранит сессию в памяти процесса
type MemorySessionStore struct {
	mu   sync.RWMutex
	data map[string]string
}

func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{data: make(map[string]string)}
}

func (s *MemorySessionStore) Get(key string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	value, ok := s.data[key]
	return value, ok
}

func (s *MemorySessionStore) Set(key, value string) {
	s.mu.Lock()
	s.data[key] = value
	s.mu.Unlock()
}

func (s *MemorySessionStore) Delete(key string) {
	s.mu.Lock()
	delete(s.data, key)
	s.mu.Unlock()
}

func (s *MemorySessionStore) Clear() {
	s.mu.Lock()
	s.data = make(map[string]string)
	s.mu.Unlock()
}

// --- Типизированный доступ ---

// Session типизированная обертка над SessionStore
// Передается явно всем сервисам, которые ходят в сеть
type Session struct {
	store SessionStore
}

func NewSession(store SessionStore) *Session {
	return &Session{store: store}
}

func (s *Session) get(key string) string {
	value, _ := s.store.Get(key)
	return value
}

func (s *Session) AccessToken() string  { return s.get(SessionKeyAccessToken) }
func (s *Session) RefreshToken() string { return s.get(SessionKeyRefreshToken) }
func (s *Session) UserID() string       { return s.get(SessionKeyUserID) }
func (s *Session) OutletID() string     { return s.get(SessionKeyOutletID) }
func (s *Session) OutletName() string   { return s.get(SessionKeyOutletName) }
func (s *Session) DeviceID() string     { return s.get(SessionKeyDeviceID) }
func (s *Session) UserRole() string     { return s.get(SessionKeyUserRole) }

func (s *Session) SetAccessToken(token string)  { s.store.Set(SessionKeyAccessToken, token) }
func (s *Session) SetRefreshToken(token string) { s.store.Set(SessionKeyRefreshToken, token) }
func (s *Session) SetUserID(id string)          { s.store.Set(SessionKeyUserID, id) }
func (s *Session) SetDeviceID(id string)        { s.store.Set(SessionKeyDeviceID, id) }
func (s *Session) SetUserRole(role string)      { s.store.Set(SessionKeyUserRole, role) }

// SetOutlet сохраняет выбранную точку (id + имя одной операцией)
func (s *Session) SetOutlet(outletID, outletName string) {
	s.store.Set(SessionKeyOutletID, outletID)
	s.store.Set(SessionKeyOutletName, outletName)
}

// ManualMode режим ручного подтверждения заказов. По умолчанию включен —
// так же ведет себя исходный экран (saved ?? true)
func (s *Session) ManualMode() bool {
	value, ok := s.store.Get(SessionKeyManualMode)
	if !ok {
		return true
	}
	manual, err := strconv.ParseBool(value)
	if err != nil {
		return true
	}
	return manual
}

func (s *Session) SetManualMode(manual bool) {
	s.store.Set(SessionKeyManualMode, strconv.FormatBool(manual))
}

// IsSuperOwner роль super_owner смотрит доску read-only и не видит кнопок
func (s *Session) IsSuperOwner() bool {
	return s.UserRole() == "super_owner"
}

// Touch обновляет время последней активности
func (s *Session) Touch() {
	s.store.Set(SessionKeyLastActivity, strconv.FormatInt(time.Now().UnixMilli(), 10))
}

// Valid проверяет, что сессия залогинена и не протухла (24ч неактивности)
// Протухшую сессию сразу чистит
func (s *Session) Valid() bool {
	if s.AccessToken() == "" {
		return false
	}
	raw, ok := s.store.Get(SessionKeyLastActivity)
	if ok {
		lastActivity, err := strconv.ParseInt(raw, 10, 64)
		if err == nil && time.Since(time.UnixMilli(lastActivity)) > sessionTimeout {
			log.Printf("⚠️ Сессия протухла (нет активности > %v), чистим", sessionTimeout)
			s.Clear()
			return false
		}
	}
	s.Touch()
	return true
}

// Clear уничтожает сессию (явное удаление всех ключей)
func (s *Session) Clear() {
	s.store.Clear()
}
