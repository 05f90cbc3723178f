package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"kdsboard/server/internal/services"
)

// SubscriptionController баннер "осталось дней подписки"
type SubscriptionController struct {
	subscriptions *services.SubscriptionService
	session       *services.Session
}

// NewSubscriptionController создает контроллер подписки
func NewSubscriptionController(subscriptions *services.SubscriptionService, session *services.Session) *SubscriptionController {
	return &SubscriptionController{subscriptions: subscriptions, session: session}
}

// GetStatus метрика оставшихся дней подписки выбранной точки
// GET /api/v1/subscription
func (sc *SubscriptionController) GetStatus(c *gin.Context) {
	if !sc.session.Valid() {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not logged in"})
		return
	}

	status, err := sc.subscriptions.Status()
	if err != nil {
		if errors.Is(err, services.ErrSessionExpired) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "session expired"})
			return
		}
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, status)
}
