package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"kdsboard/server/internal/services"
)

// AuthController управляет API endpoints для OTP-авторизации
type AuthController struct {
	auth    *services.AuthService
	outlets *services.OutletService
	session *services.Session
}

// NewAuthController создает новый контроллер авторизации
func NewAuthController(auth *services.AuthService, outlets *services.OutletService, session *services.Session) *AuthController {
	return &AuthController{auth: auth, outlets: outlets, session: session}
}

// OTPSendBody запрос на отправку одноразового кода
type OTPSendBody struct {
	Mobile string `json:"mobile" binding:"required"`
}

// OTPVerifyBody запрос на проверку кода
type OTPVerifyBody struct {
	Mobile string `json:"mobile" binding:"required"`
	OTP    string `json:"otp" binding:"required"`
}

// SendOTP отправляет одноразовый код на мобильный оператора
// POST /api/v1/auth/otp
func (ac *AuthController) SendOTP(c *gin.Context) {
	var body OTPSendBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "mobile is required"})
		return
	}

	resp, err := ac.auth.SendOTP(body.Mobile)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"detail": resp.Detail,
		"role":   resp.Role,
	})
}

// VerifyOTP обменивает код на сессию
// POST /api/v1/auth/verify
func (ac *AuthController) VerifyOTP(c *gin.Context) {
	var body OTPVerifyBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "mobile and otp are required"})
		return
	}

	resp, err := ac.auth.VerifyOTP(body.Mobile, body.OTP)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}

	// Кеш точек принадлежит прошлому пользователю
	ac.outlets.Invalidate()

	// Если у владельца одна точка — выбираем ее сразу, пикер не нужен
	autoSelected, err := ac.outlets.AutoSelect()
	if err != nil {
		// Не фатально: оператор выберет точку руками
		autoSelected = false
	}

	c.JSON(http.StatusOK, gin.H{
		"name":            resp.Name,
		"user_id":         resp.UserID,
		"role":            resp.Role,
		"outlet_id":       ac.session.OutletID(),
		"outlet_name":     ac.session.OutletName(),
		"outlet_selected": autoSelected || ac.session.OutletID() != "",
	})
}

// Logout выходит из сессии (best-effort запрос на бекенд + очистка)
// POST /api/v1/auth/logout
func (ac *AuthController) Logout(c *gin.Context) {
	ac.auth.Logout()
	ac.outlets.Invalidate()
	c.JSON(http.StatusOK, gin.H{"detail": "logged out"})
}
