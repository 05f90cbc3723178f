package services

import (
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"sync"
	"time"

	"kdsboard/server/internal/models"
)

// outletCacheTTL окно свежести кеша списка точек
const outletCacheTTL = 60 * time.Second

// OutletService селектор точки: список точек владельца с коротким кешем,
// выбор с персистом в сессию и немедленным опросом доски
type OutletService struct {
	auth    *AuthService
	client  *UpstreamClient
	session *Session
	board   *BoardService

	mu        sync.Mutex
	cached    []models.Outlet
	fetchedAt time.Time
}

// NewOutletService создает селектор точки
func NewOutletService(auth *AuthService, client *UpstreamClient, session *Session, board *BoardService) *OutletService {
	return &OutletService{
		auth:    auth,
		client:  client,
		session: session,
		board:   board,
	}
}

// List возвращает точки владельца, из кеша если он свежее минуты
// search фильтрует по подстроке имени (без регистра)
func (o *OutletService) List(search string) ([]models.Outlet, error) {
	outlets, err := o.fetch()
	if err != nil {
		return nil, err
	}

	if search == "" {
		return outlets, nil
	}
	needle := strings.ToLower(search)
	filtered := make([]models.Outlet, 0, len(outlets))
	for _, outlet := range outlets {
		if strings.Contains(strings.ToLower(outlet.Name), needle) {
			filtered = append(filtered, outlet)
		}
	}
	return filtered, nil
}

func (o *OutletService) fetch() ([]models.Outlet, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.cached != nil && time.Since(o.fetchedAt) < outletCacheTTL {
		return o.cached, nil
	}

	var outlets []models.Outlet
	err := o.auth.DoAuthed(func(token string) error {
		var callErr error
		outlets, callErr = o.client.GetOutletList(token, o.session.UserID())
		return callErr
	})
	if err != nil {
		if errors.Is(err, ErrSessionExpired) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to fetch outlets: %w", err)
	}

	o.cached = outlets
	o.fetchedAt = time.Now()
	log.Printf("🏪 Точки владельца: получено %d", len(outlets))
	return outlets, nil
}

// Select выбирает точку: персистит outlet_id/outlet_name и дергает доску
// на немедленный опрос (не дожидаясь планового тика)
func (o *OutletService) Select(outletID int) (*models.Outlet, error) {
	outlets, err := o.fetch()
	if err != nil {
		return nil, err
	}

	for _, outlet := range outlets {
		if outlet.OutletID == outletID {
			o.session.SetOutlet(strconv.Itoa(outlet.OutletID), outlet.Name)
			log.Printf("🏪 Выбрана точка: %s (id=%d)", outlet.Name, outlet.OutletID)
			o.board.OnOutletChanged()
			return &outlet, nil
		}
	}
	return nil, fmt.Errorf("outlet %d not found", outletID)
}

// AutoSelect если у владельца ровно одна точка — выбираем ее сами,
// пикер в этом случае не нужен. Возвращает true, если выбор произошел
func (o *OutletService) AutoSelect() (bool, error) {
	outlets, err := o.fetch()
	if err != nil {
		return false, err
	}
	if len(outlets) != 1 {
		return false, nil
	}

	single := outlets[0]
	// Не дергаем доску, если эта точка уже выбрана
	if o.session.OutletID() == strconv.Itoa(single.OutletID) {
		return true, nil
	}
	if _, err := o.Select(single.OutletID); err != nil {
		return false, err
	}
	return true, nil
}

// Invalidate сбрасывает кеш (после логина новым пользователем)
func (o *OutletService) Invalidate() {
	o.mu.Lock()
	o.cached = nil
	o.mu.Unlock()
}
