package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"kdsboard/server/internal/services"
)

// OutletController выбор точки продаж
type OutletController struct {
	outlets *services.OutletService
	session *services.Session
}

// NewOutletController создает контроллер точек
func NewOutletController(outlets *services.OutletService, session *services.Session) *OutletController {
	return &OutletController{outlets: outlets, session: session}
}

// ListOutlets список точек владельца с поиском по имени
// GET /api/v1/outlets?search=
func (oc *OutletController) ListOutlets(c *gin.Context) {
	if !oc.session.Valid() {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not logged in"})
		return
	}

	outlets, err := oc.outlets.List(c.Query("search"))
	if err != nil {
		if errors.Is(err, services.ErrSessionExpired) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "session expired"})
			return
		}
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"outlets":  outlets,
		"selected": oc.session.OutletID(),
	})
}

// SelectBody тело выбора точки
type SelectBody struct {
	OutletID int `json:"outlet_id" binding:"required"`
}

// SelectOutlet выбирает точку и сразу перезапускает опрос доски
// POST /api/v1/outlets/select
func (oc *OutletController) SelectOutlet(c *gin.Context) {
	if !oc.session.Valid() {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not logged in"})
		return
	}

	var body SelectBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "outlet_id is required"})
		return
	}

	outlet, err := oc.outlets.Select(body.OutletID)
	if err != nil {
		if errors.Is(err, services.ErrSessionExpired) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "session expired"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, outlet)
}
