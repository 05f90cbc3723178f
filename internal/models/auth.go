package models

// OTPSendRequest тело POST /v2/common/login — отправка одноразового кода
type OTPSendRequest struct {
	Mobile  string   `json:"mobile"`
	Role    []string `json:"role"`     // ["admin", "chef"]
	AppType string   `json:"app_type"` // "pos"
}

// OTPSendResponse ответ на отправку OTP
type OTPSendResponse struct {
	Detail string `json:"detail"` // Сообщение бекенда (показывается оператору)
	Role   string `json:"role,omitempty"`
}

// OTPVerifyRequest тело POST /v2/common/verify_otp — обмен кода на токены
type OTPVerifyRequest struct {
	Mobile      string `json:"mobile"`
	OTP         string `json:"otp"`
	FCMToken    string `json:"fcm_token"`
	DeviceID    string `json:"device_id"`
	DeviceModel string `json:"device_model"`
	AppType     string `json:"app_type"` // "pos"
}

// OTPVerifyResponse связка токенов + идентификаторы пользователя и точки
type OTPVerifyResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	Name         string `json:"name"`
	UserID       int    `json:"user_id"`
	OutletID     int    `json:"outlet_id"`
	OutletName   string `json:"outlet_name,omitempty"`
	Role         string `json:"role"`
	ExpiresAt    string `json:"expires_at,omitempty"`
	Image        string `json:"image,omitempty"`
}

// TokenRefreshRequest тело POST token/refresh
type TokenRefreshRequest struct {
	Refresh string `json:"refresh"`
}

// TokenRefreshResponse новый access-токен
type TokenRefreshResponse struct {
	Access string `json:"access"`
}

// LogoutRequest тело POST logout (best-effort, ошибка не мешает очистке сессии)
type LogoutRequest struct {
	UserID      string `json:"user_id"`
	Role        string `json:"role"` // "chef"
	App         string `json:"app"`  // "chef"
	DeviceToken string `json:"device_token"`
}
