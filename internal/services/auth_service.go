package services

import (
	"errors"
	"fmt"
	"log"
	"regexp"
	"strconv"
	"sync"

	"github.com/google/uuid"

	"kdsboard/server/internal/models"
)

// ErrSessionExpired refresh не удался — сессия очищена, оператору нужен
// повторный вход (граница логина)
var ErrSessionExpired = errors.New("auth: session expired")

// mobilePattern строгий вариант валидации: 10 цифр, первая 6-9
var mobilePattern = regexp.MustCompile(`^[6-9]\d{9}$`)

// otpPattern одноразовый код — ровно 4 цифры
var otpPattern = regexp.MustCompile(`^\d{4}$`)

// AuthService шлюз авторизации: OTP вход, refresh-протокол, logout
// Единственный владелец записи токенов в сессию
type AuthService struct {
	client      *UpstreamClient
	session     *Session
	fcmToken    string
	deviceModel string
	// refreshMu делает конкурентные refresh однопроходными: пока один
	// запрос обновляет токен, остальные ждут и забирают готовый
	refreshMu sync.Mutex
}

// NewAuthService создает шлюз авторизации
func NewAuthService(client *UpstreamClient, session *Session, fcmToken, deviceModel string) *AuthService {
	return &AuthService{
		client:      client,
		session:     session,
		fcmToken:    fcmToken,
		deviceModel: deviceModel,
	}
}

// ValidateMobile проверяет мобильный номер до любого сетевого вызова
func ValidateMobile(mobile string) error {
	if len(mobile) != 10 {
		return fmt.Errorf("please enter a valid 10-digit mobile number")
	}
	if !mobilePattern.MatchString(mobile) {
		return fmt.Errorf("mobile number must start with 6-9")
	}
	return nil
}

// SendOTP запрашивает одноразовый код. Одиночный вызов без ретраев —
// ошибку бекенда показываем оператору как есть
func (as *AuthService) SendOTP(mobile string) (*models.OTPSendResponse, error) {
	if err := ValidateMobile(mobile); err != nil {
		return nil, err
	}

	resp, err := as.client.SendOTP(&models.OTPSendRequest{
		Mobile:  mobile,
		Role:    []string{"admin", "chef"},
		AppType: "pos",
	})
	if err != nil {
		if detail := UpstreamDetail(err); detail != "" {
			return nil, errors.New(detail)
		}
		return nil, fmt.Errorf("failed to send OTP: %w", err)
	}

	log.Printf("📨 OTP отправлен на номер ******%s", mobile[6:])
	return resp, nil
}

// VerifyOTP обменивает 4-значный код на токены и наполняет сессию
func (as *AuthService) VerifyOTP(mobile, otp string) (*models.OTPVerifyResponse, error) {
	if err := ValidateMobile(mobile); err != nil {
		return nil, err
	}
	if !otpPattern.MatchString(otp) {
		return nil, fmt.Errorf("please enter a valid 4-digit OTP")
	}

	// device_id генерируется на каждый вход, как в исходном приложении
	deviceID := uuid.New().String()

	resp, err := as.client.VerifyOTP(&models.OTPVerifyRequest{
		Mobile:      mobile,
		OTP:         otp,
		FCMToken:    as.fcmToken,
		DeviceID:    deviceID,
		DeviceModel: as.deviceModel,
		AppType:     "pos",
	})
	if err != nil {
		if detail := UpstreamDetail(err); detail != "" {
			return nil, errors.New(detail)
		}
		return nil, fmt.Errorf("failed to verify OTP: %w", err)
	}
	if resp.AccessToken == "" {
		return nil, fmt.Errorf("invalid response from server")
	}

	// Сессия создается здесь и только здесь
	as.session.SetAccessToken(resp.AccessToken)
	as.session.SetRefreshToken(resp.RefreshToken)
	as.session.SetUserID(strconv.Itoa(resp.UserID))
	as.session.SetDeviceID(deviceID)
	as.session.SetUserRole(resp.Role)
	if resp.OutletID != 0 {
		as.session.SetOutlet(strconv.Itoa(resp.OutletID), resp.OutletName)
	}
	as.session.Touch()

	log.Printf("✅ Вход выполнен: user_id=%d, role=%s, outlet_id=%d", resp.UserID, resp.Role, resp.OutletID)
	return resp, nil
}

// DoAuthed выполняет вызов с access-токеном и ровно одним refresh-ретраем
// Протокол: 401 → один refresh → один повтор вызова. Если refresh не удался,
// сессия чистится и возвращается ErrSessionExpired. Бесконечных циклов нет
func (as *AuthService) DoAuthed(call func(token string) error) error {
	token := as.session.AccessToken()
	if token == "" {
		return ErrSessionExpired
	}

	err := call(token)
	if !errors.Is(err, ErrUnauthorized) {
		return err
	}

	newToken, refreshErr := as.refreshOnce(token)
	if refreshErr != nil {
		log.Printf("❌ Refresh токена не удался: %v — принудительный выход", refreshErr)
		as.session.Clear()
		return ErrSessionExpired
	}

	// Повторяем исходный вызов ровно один раз с новым токеном
	if err := call(newToken); err != nil {
		if errors.Is(err, ErrUnauthorized) {
			// Новый токен тоже не приняли — дальше не крутимся
			log.Printf("❌ 401 после refresh — принудительный выход")
			as.session.Clear()
			return ErrSessionExpired
		}
		return err
	}
	return nil
}

// refreshOnce обновляет access-токен, схлопывая конкурентные попытки
// staleToken — токен, с которым вызывающий получил 401: если кто-то уже
// обновил токен, пока мы ждали мьютекс, повторный refresh не нужен
func (as *AuthService) refreshOnce(staleToken string) (string, error) {
	as.refreshMu.Lock()
	defer as.refreshMu.Unlock()

	if current := as.session.AccessToken(); current != "" && current != staleToken {
		return current, nil
	}

	refreshToken := as.session.RefreshToken()
	if refreshToken == "" {
		return "", fmt.Errorf("no refresh token in session")
	}

	newToken, err := as.client.RefreshToken(refreshToken)
	if err != nil {
		return "", err
	}

	as.session.SetAccessToken(newToken)
	log.Printf("🔄 Access-токен обновлен")
	return newToken, nil
}

// Logout best-effort выход на бекенде + безусловная очистка сессии
// Исходное приложение чистит localStorage независимо от ответа — делаем так же
func (as *AuthService) Logout() {
	if userID := as.session.UserID(); userID != "" {
		err := as.client.Logout(&models.LogoutRequest{
			UserID:      userID,
			Role:        "chef",
			App:         "chef",
			DeviceToken: as.session.DeviceID(),
		})
		if err != nil {
			log.Printf("⚠️ Logout на бекенде не удался: %v (сессию все равно чистим)", err)
		}
	}
	as.session.Clear()
	log.Printf("👋 Сессия очищена")
}
