package services

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"time"

	"kdsboard/server/internal/models"
)

// ErrUnauthorized бекенд ответил 401 — токен протух, нужен refresh
var ErrUnauthorized = errors.New("upstream: unauthorized")

// appSource значение app_source, с которым мост представляется бекенду заказов
const appSource = "kds_app"

// UpstreamClient клиент для работы с API заказов (men4u)
// Все шесть эндпоинтов из исходного приложения + logout
type UpstreamClient struct {
	baseURL string
	client  *http.Client
}

// NewUpstreamClient создает клиент API заказов
func NewUpstreamClient(baseURL string) *UpstreamClient {
	log.Printf("✅ Upstream: базовый URL %s", baseURL)
	return &UpstreamClient{
		baseURL: baseURL,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// upstreamError ошибка не-2xx ответа с сообщением бекенда, если оно есть
type upstreamError struct {
	Status int
	Detail string
}

func (e *upstreamError) Error() string {
	if e.Detail != "" {
		return e.Detail
	}
	return fmt.Sprintf("upstream error (status %d)", e.Status)
}

// UpstreamDetail достает человекочитаемое сообщение бекенда из ошибки
// Пустая строка, если сообщения нет (вызывающий подставляет generic fallback)
func UpstreamDetail(err error) string {
	var ue *upstreamError
	if errors.As(err, &ue) {
		return ue.Detail
	}
	return ""
}

// do выполняет JSON запрос и декодирует ответ в dest (если dest != nil)
// 401 превращается в ErrUnauthorized, остальные не-2xx — в upstreamError
func (uc *UpstreamClient) do(method, path, token string, payload, dest interface{}) error {
	requestBody, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequest(method, uc.baseURL+path, bytes.NewBuffer(requestBody))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := uc.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call %s: %w", path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode == http.StatusUnauthorized {
		return ErrUnauthorized
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		// Бекенд кладет сообщение в поле detail — прокидываем его как есть
		var detail struct {
			Detail string `json:"detail"`
		}
		_ = json.Unmarshal(body, &detail)
		return &upstreamError{Status: resp.StatusCode, Detail: detail.Detail}
	}

	if dest != nil {
		if err := json.Unmarshal(body, dest); err != nil {
			return fmt.Errorf("failed to unmarshal response from %s: %w", path, err)
		}
	}
	return nil
}

// ListOrders получает снапшот заказов точки
// POST /v2/common/cds_kds_order_listview, dateFilter: "today" | "all"
func (uc *UpstreamClient) ListOrders(token, outletID, dateFilter string) (*models.OrderListResponse, error) {
	// Бекенд ждет outlet_id числом
	outletNum, err := strconv.Atoi(outletID)
	if err != nil {
		return nil, fmt.Errorf("invalid outlet id %q: %w", outletID, err)
	}

	payload := map[string]interface{}{
		"outlet_id":   outletNum,
		"date_filter": dateFilter,
	}

	var result models.OrderListResponse
	if err := uc.do(http.MethodPost, "/v2/common/cds_kds_order_listview", token, payload, &result); err != nil {
		return nil, err
	}
	// Отсутствующие массивы → пустые списки, null на доску не пропускаем
	result.Normalize()
	return &result, nil
}

// UpdateOrderStatus переводит заказ в целевой статус
// PATCH /v2/common/update_order_status, статусы: "cooking" | "served" | "cancelled"
func (uc *UpstreamClient) UpdateOrderStatus(token string, req *models.StatusUpdateRequest) error {
	req.AppSource = appSource
	return uc.do(http.MethodPatch, "/v2/common/update_order_status", token, req, nil)
}

// RefreshToken обменивает refresh-токен на новый access-токен
// POST /common_api/token/refresh
func (uc *UpstreamClient) RefreshToken(refreshToken string) (string, error) {
	var result models.TokenRefreshResponse
	err := uc.do(http.MethodPost, "/common_api/token/refresh", "",
		&models.TokenRefreshRequest{Refresh: refreshToken}, &result)
	if err != nil {
		return "", err
	}
	if result.Access == "" {
		return "", fmt.Errorf("refresh response without access token")
	}
	return result.Access, nil
}

// SendOTP запрашивает отправку одноразового кода на мобильный
// POST /v2/common/login
func (uc *UpstreamClient) SendOTP(req *models.OTPSendRequest) (*models.OTPSendResponse, error) {
	var result models.OTPSendResponse
	if err := uc.do(http.MethodPost, "/v2/common/login", "", req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// VerifyOTP обменивает код на связку токенов
// POST /v2/common/verify_otp
func (uc *UpstreamClient) VerifyOTP(req *models.OTPVerifyRequest) (*models.OTPVerifyResponse, error) {
	var result models.OTPVerifyResponse
	if err := uc.do(http.MethodPost, "/v2/common/verify_otp", "", req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// GetOutletList получает список точек владельца
// POST /v2/common/get_outlet_list
func (uc *UpstreamClient) GetOutletList(token, ownerID string) ([]models.Outlet, error) {
	payload := &models.OutletListRequest{
		OwnerID:   ownerID,
		AppSource: "admin",
		OutletID:  0,
	}
	var result models.OutletListResponse
	if err := uc.do(http.MethodPost, "/v2/common/get_outlet_list", token, payload, &result); err != nil {
		return nil, err
	}
	if result.Outlets == nil {
		result.Outlets = []models.Outlet{}
	}
	return result.Outlets, nil
}

// Logout сообщает бекенду о выходе (best-effort: ошибка не мешает очистке сессии)
// POST /common_api/logout
func (uc *UpstreamClient) Logout(req *models.LogoutRequest) error {
	return uc.do(http.MethodPost, "/common_api/logout", "", req, nil)
}
