package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"kdsboard/server/internal/services"
)

// BoardController управляет доской заказов и ее шапкой (фильтр, режим,
// ручное обновление, действия над заказами)
type BoardController struct {
	board   *services.BoardService
	session *services.Session
}

// NewBoardController создает контроллер доски
func NewBoardController(board *services.BoardService, session *services.Session) *BoardController {
	return &BoardController{board: board, session: session}
}

// GetBoard отдает текущий снапшот доски
// GET /api/v1/board
func (bc *BoardController) GetBoard(c *gin.Context) {
	if !bc.session.Valid() {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not logged in"})
		return
	}
	c.JSON(http.StatusOK, bc.board.Snapshot())
}

// Refresh внеочередной опрос (кнопка обновления в шапке)
// POST /api/v1/board/refresh
func (bc *BoardController) Refresh(c *gin.Context) {
	if !bc.session.Valid() {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not logged in"})
		return
	}
	bc.board.ForceRefresh()
	c.JSON(http.StatusAccepted, gin.H{"detail": "refresh scheduled"})
}

// FilterBody тело переключения фильтра по дате
type FilterBody struct {
	DateFilter string `json:"date_filter" binding:"required"`
}

// SetFilter переключает фильтр today/all
// PATCH /api/v1/board/filter
func (bc *BoardController) SetFilter(c *gin.Context) {
	var body FilterBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "date_filter is required"})
		return
	}
	if err := bc.board.SetDateFilter(body.DateFilter); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"date_filter": body.DateFilter})
}

// ModeBody тело переключения ручного режима
type ModeBody struct {
	ManualMode *bool `json:"manual_mode" binding:"required"`
}

// SetMode переключает ручной/автоматический режим
// PATCH /api/v1/board/mode
func (bc *BoardController) SetMode(c *gin.Context) {
	var body ModeBody
	if err := c.ShouldBindJSON(&body); err != nil || body.ManualMode == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "manual_mode is required"})
		return
	}
	bc.board.SetManualMode(*body.ManualMode)
	c.JSON(http.StatusOK, gin.H{"manual_mode": *body.ManualMode})
}

// CompleteOrder ручное завершение заказа (cooking → served)
// POST /api/v1/orders/:id/complete
func (bc *BoardController) CompleteOrder(c *gin.Context) {
	bc.transition(c, bc.board.CompleteOrder)
}

// RejectOrder отклонение заказа (→ cancelled)
// POST /api/v1/orders/:id/reject
func (bc *BoardController) RejectOrder(c *gin.Context) {
	bc.transition(c, bc.board.RejectOrder)
}

func (bc *BoardController) transition(c *gin.Context, action func(string) error) {
	if !bc.session.Valid() {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not logged in"})
		return
	}
	orderID := c.Param("id")
	if orderID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "order id is required"})
		return
	}

	if err := action(orderID); err != nil {
		if errors.Is(err, services.ErrSessionExpired) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "session expired"})
			return
		}
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"order_id": orderID})
}
