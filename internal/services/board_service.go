package services

import (
	"errors"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"kdsboard/server/internal/models"
)

// Фильтры по дате для опроса доски
const (
	DateFilterToday = "today"
	DateFilterAll   = "all"
)

// BoardService ядро доски заказов: хранит четыре колонки, применяет
// снапшоты опросов, ведет ручные и автоматические переходы статусов
//
// Каждый опрос авторитетен и тотален: новый снапшот целиком заменяет
// содержимое колонок. Единственное, что переносится между опросами —
// множества имен позиций на заказ (подсветка "новых" позиций)
type BoardService struct {
	auth    *AuthService
	client  *UpstreamClient
	session *Session
	loc     *time.Location

	mu      sync.RWMutex
	placed  []models.Order
	cooking []models.Order
	served  []models.Order
	paid    []models.Order
	// prevMenuItems множества имен позиций по order_id из прошлого опроса
	// Обновляется каждый опрос по всем колонкам, независимо от статуса
	prevMenuItems map[string]map[string]bool
	// newItems позиции текущего снапшота, которых не было в прошлом
	// Заказ, увиденный впервые, сюда не попадает (пустое прошлое множество)
	newItems      map[string][]string
	dateFilter    string
	lastRefreshAt time.Time
	lastError     string // Транзиентная ошибка для баннера, доску не чистит
	appliedSeq    uint64 // Номер последнего примененного снапшота

	// seqCounter нумерация опросов: ответ со старым номером отбрасывается,
	// чтобы отставший опрос не перетер более свежее состояние
	seqCounter atomic.Uint64

	// inFlight заказы, по которым прямо сейчас летит авто-принятие
	// Единственный явный механизм взаимоисключения: один заказ никогда
	// не отправляется в cooking дважды одновременно
	inFlightMu sync.Mutex
	inFlight   map[string]bool

	// onSnapshot вызывается после каждого примененного снапшота и каждого
	// оптимистичного патча (рассылка на экраны)
	onSnapshot func(*models.BoardSnapshot)
	// requestRefresh просьба к планировщику опросить вне очереди
	requestRefresh func()
}

// NewBoardService создает ядро доски
func NewBoardService(auth *AuthService, client *UpstreamClient, session *Session, loc *time.Location) *BoardService {
	return &BoardService{
		auth:          auth,
		client:        client,
		session:       session,
		loc:           loc,
		prevMenuItems: make(map[string]map[string]bool),
		newItems:      make(map[string][]string),
		dateFilter:    DateFilterToday,
		inFlight:      make(map[string]bool),
	}
}

// OnSnapshot подписывает колбек рассылки снапшотов (хаб экранов)
func (bs *BoardService) OnSnapshot(fn func(*models.BoardSnapshot)) {
	bs.onSnapshot = fn
}

// BindRefresh привязывает внеочередной опрос планировщика
func (bs *BoardService) BindRefresh(fn func()) {
	bs.requestRefresh = fn
}

// ForceRefresh просит планировщик опросить немедленно, не дожидаясь тика
func (bs *BoardService) ForceRefresh() {
	if bs.requestRefresh != nil {
		bs.requestRefresh()
	}
}

// Poll выполняет один опрос бекенда и применяет снапшот
// Ошибка опроса оставляет доску как есть (лучше протухшие данные, чем
// пустой экран) и не останавливает цикл опроса
func (bs *BoardService) Poll() {
	outletID := bs.session.OutletID()
	if outletID == "" {
		bs.setError("please select an outlet to view orders")
		return
	}

	// Номер выдается при старте опроса: при перекрытии запросов побеждает
	// не последний пришедший, а последний отправленный
	seq := bs.seqCounter.Add(1)
	filter := bs.DateFilter()

	var resp *models.OrderListResponse
	err := bs.auth.DoAuthed(func(token string) error {
		var callErr error
		resp, callErr = bs.client.ListOrders(token, outletID, filter)
		return callErr
	})
	if err != nil {
		if errors.Is(err, ErrSessionExpired) {
			// Граница логина: сессия уже очищена, доску не трогаем
			bs.setError("session expired, please log in again")
			return
		}
		log.Printf("⚠️ Доска: ошибка опроса: %v", err)
		bs.setError("error fetching orders")
		return
	}

	if !bs.applySnapshot(seq, resp) {
		return
	}

	// Автоматический режим: каждый placed из примененного снапшота
	// немедленно уходит в cooking
	if !bs.session.ManualMode() && len(resp.PlacedOrders) > 0 {
		bs.autoAcceptPlaced(resp.PlacedOrders)
	}

	bs.publish()
}

// applySnapshot заменяет колонки содержимым снапшота
// Возвращает false, если снапшот отставший (уже применен более новый)
func (bs *BoardService) applySnapshot(seq uint64, resp *models.OrderListResponse) bool {
	bs.mu.Lock()
	defer bs.mu.Unlock()

	if seq <= bs.appliedSeq {
		log.Printf("⏭️ Доска: отбросили отставший снапшот #%d (применен #%d)", seq, bs.appliedSeq)
		return false
	}
	bs.appliedSeq = seq

	bs.placed = resp.PlacedOrders
	bs.cooking = resp.CookingOrders
	bs.served = resp.ServedOrders
	bs.paid = resp.PaidOrders

	// Подсветка новых позиций: сравниваем с множествами прошлого опроса
	// и тут же перестраиваем их для следующего
	nextMenuItems := make(map[string]map[string]bool)
	bs.newItems = make(map[string][]string)
	for _, bucket := range [][]models.Order{bs.placed, bs.cooking, bs.served, bs.paid} {
		for i := range bucket {
			order := &bucket[i]
			id := order.ID()
			nameSet := order.MenuNameSet()
			nextMenuItems[id] = nameSet

			prev := bs.prevMenuItems[id]
			if len(prev) == 0 {
				continue // Впервые увиденный заказ не подсвечиваем
			}
			for _, m := range order.MenuDetails {
				if !prev[m.MenuName] {
					bs.newItems[id] = append(bs.newItems[id], m.MenuName)
				}
			}
		}
	}
	bs.prevMenuItems = nextMenuItems

	bs.lastRefreshAt = time.Now()
	bs.lastError = ""
	return true
}

// setError выставляет транзиентную ошибку для баннера, данные не трогает
func (bs *BoardService) setError(msg string) {
	bs.mu.Lock()
	bs.lastError = msg
	bs.mu.Unlock()
	bs.publish()
}

// DateFilter текущий фильтр по дате
func (bs *BoardService) DateFilter() string {
	bs.mu.RLock()
	defer bs.mu.RUnlock()
	return bs.dateFilter
}

// SetDateFilter переключает фильтр today/all и сразу опрашивает заново
func (bs *BoardService) SetDateFilter(filter string) error {
	if filter != DateFilterToday && filter != DateFilterAll {
		return fmt.Errorf("invalid date filter %q", filter)
	}
	bs.mu.Lock()
	changed := bs.dateFilter != filter
	bs.dateFilter = filter
	bs.mu.Unlock()

	if changed {
		log.Printf("🔀 Доска: фильтр переключен на %q", filter)
		bs.ForceRefresh()
	}
	return nil
}

// OnOutletChanged вызывается селектором точки после смены outlet_id
// Старые колонки чистим (это заказы другой точки) и опрашиваем немедленно
func (bs *BoardService) OnOutletChanged() {
	bs.mu.Lock()
	bs.placed, bs.cooking, bs.served, bs.paid = nil, nil, nil, nil
	bs.prevMenuItems = make(map[string]map[string]bool)
	bs.newItems = make(map[string][]string)
	bs.lastError = ""
	bs.mu.Unlock()

	log.Printf("🏪 Доска: точка сменилась, опрашиваем немедленно")
	bs.ForceRefresh()
}

// SetManualMode переключает ручной/автоматический режим
// Выключение ручного режима сразу провоцирует опрос: placed подхватятся
// авто-принятием, не дожидаясь следующего тика
func (bs *BoardService) SetManualMode(manual bool) {
	bs.session.SetManualMode(manual)
	log.Printf("🎛️ Доска: ручной режим = %v", manual)
	if !manual {
		bs.ForceRefresh()
	} else {
		bs.publish()
	}
}

// --- Переходы статусов ---

// statusUpdate отправляет переход статуса через refresh-протокол
func (bs *BoardService) statusUpdate(orderID, status string) error {
	return bs.auth.DoAuthed(func(token string) error {
		return bs.client.UpdateOrderStatus(token, &models.StatusUpdateRequest{
			OrderID:     orderID,
			OrderStatus: status,
			OutletID:    bs.session.OutletID(),
			UserID:      bs.session.UserID(),
			DeviceToken: bs.session.DeviceID(),
		})
	})
}

// CompleteOrder ручное завершение: cooking → served
// Успех оптимистично патчит локальное состояние (подсказка по задержке,
// не требование корректности — следующий опрос все равно авторитетен)
// Неудача ничего не патчит и провоцирует ресинхронизирующий опрос
func (bs *BoardService) CompleteOrder(orderID string) error {
	if bs.session.IsSuperOwner() {
		return fmt.Errorf("super_owner is read-only")
	}
	order := bs.findOrder(orderID)
	if order == nil {
		return fmt.Errorf("order %s not found on the board", orderID)
	}
	if !order.ActionsAllowed() {
		return fmt.Errorf("actions are disabled for order %s", orderID)
	}

	if err := bs.statusUpdate(orderID, models.StatusServed); err != nil {
		log.Printf("⚠️ Доска: не удалось завершить заказ %s: %v", orderID, err)
		bs.ForceRefresh()
		return err
	}

	bs.patchLocal(orderID, models.StatusServed)
	log.Printf("✅ Заказ %s завершен (served)", orderID)
	bs.publish()
	return nil
}

// RejectOrder отклонение placed-заказа: → cancelled
// Доступно пока идет 90-секундный отсчет; истечение отсчета само по себе
// заказ НЕ отменяет — только явное действие оператора
func (bs *BoardService) RejectOrder(orderID string) error {
	if bs.session.IsSuperOwner() {
		return fmt.Errorf("super_owner is read-only")
	}
	order := bs.findOrder(orderID)
	if order == nil {
		return fmt.Errorf("order %s not found on the board", orderID)
	}
	if !order.ActionsAllowed() {
		return fmt.Errorf("actions are disabled for order %s", orderID)
	}

	if err := bs.statusUpdate(orderID, models.StatusCancelled); err != nil {
		log.Printf("⚠️ Доска: не удалось отклонить заказ %s: %v", orderID, err)
		bs.ForceRefresh()
		return err
	}

	bs.patchLocal(orderID, models.StatusCancelled)
	log.Printf("🚫 Заказ %s отклонен (cancelled)", orderID)
	bs.publish()
	return nil
}

// autoAcceptPlaced продвигает placed-заказы в cooking (автоматический режим)
// Дедупликация по in-flight множеству: пока запрос по заказу не завершился,
// повторный опрос его не отправит; маркер снимается когда запрос оседает
// (успех или ошибка), чтобы следующий опрос мог повторить
func (bs *BoardService) autoAcceptPlaced(orders []models.Order) {
	for i := range orders {
		orderID := orders[i].ID()

		bs.inFlightMu.Lock()
		if bs.inFlight[orderID] {
			bs.inFlightMu.Unlock()
			continue
		}
		bs.inFlight[orderID] = true
		bs.inFlightMu.Unlock()

		go func(id string) {
			defer func() {
				bs.inFlightMu.Lock()
				delete(bs.inFlight, id)
				bs.inFlightMu.Unlock()
			}()

			if err := bs.statusUpdate(id, models.StatusCooking); err != nil {
				log.Printf("⚠️ Авто-принятие заказа %s не удалось: %v", id, err)
				return
			}
			log.Printf("🍳 Заказ %s автоматически принят в готовку", id)
			bs.patchLocal(id, models.StatusCooking)
			bs.publish()
		}(orderID)
	}
}

// findOrder ищет заказ по всем колонкам
func (bs *BoardService) findOrder(orderID string) *models.Order {
	bs.mu.RLock()
	defer bs.mu.RUnlock()
	for _, bucket := range [][]models.Order{bs.placed, bs.cooking, bs.served, bs.paid} {
		for i := range bucket {
			if bucket[i].ID() == orderID {
				order := bucket[i]
				return &order
			}
		}
	}
	return nil
}

// patchLocal оптимистично двигает заказ между колонками до следующего опроса
// Следующий полный снапшот — источник истины и перетрет этот патч
func (bs *BoardService) patchLocal(orderID, nextStatus string) {
	bs.mu.Lock()
	defer bs.mu.Unlock()

	remove := func(bucket []models.Order) ([]models.Order, *models.Order) {
		for i := range bucket {
			if bucket[i].ID() == orderID {
				order := bucket[i]
				return append(bucket[:i:i], bucket[i+1:]...), &order
			}
		}
		return bucket, nil
	}

	switch nextStatus {
	case models.StatusServed:
		var order *models.Order
		if bs.cooking, order = remove(bs.cooking); order == nil {
			bs.placed, order = remove(bs.placed)
		}
		if order != nil {
			order.OrderStatus = models.StatusServed
			bs.served = append(bs.served, *order)
		}
	case models.StatusCooking:
		var order *models.Order
		if bs.placed, order = remove(bs.placed); order != nil {
			order.OrderStatus = models.StatusCooking
			bs.cooking = append(bs.cooking, *order)
		}
	case models.StatusCancelled:
		bs.placed, _ = remove(bs.placed)
		bs.cooking, _ = remove(bs.cooking)
		bs.served, _ = remove(bs.served)
		bs.paid, _ = remove(bs.paid)
	}
}

// --- Снапшот для экранов ---

// Snapshot собирает текущий вид доски: колонки, таймеры, подсветку новых
// позиций, баннер ошибки и время последнего успешного опроса
func (bs *BoardService) Snapshot() *models.BoardSnapshot {
	bs.mu.RLock()
	defer bs.mu.RUnlock()

	now := time.Now()
	manual := bs.session.ManualMode()
	superOwner := bs.session.IsSuperOwner()

	view := func(bucket []models.Order, withCountdown bool) []models.OrderView {
		views := make([]models.OrderView, 0, len(bucket))
		for i := range bucket {
			order := bucket[i]
			v := models.OrderView{
				Order:         order,
				NewMenuItems:  bs.newItems[order.ID()],
				ActionAllowed: order.ActionsAllowed() && !superOwner,
			}
			// Таймер только у placed в ручном режиме; истекший таймер
			// исчезает с экрана, заказ остается
			if withCountdown && manual && !superOwner {
				if cd := CountdownFor(&order, now, bs.loc); !cd.Expired {
					v.Countdown = cd
				}
			}
			views = append(views, v)
		}
		return views
	}

	snapshot := &models.BoardSnapshot{
		OutletID:   bs.session.OutletID(),
		OutletName: bs.session.OutletName(),
		DateFilter: bs.dateFilter,
		ManualMode: manual,
		Placed:     view(bs.placed, true),
		Cooking:    view(bs.cooking, false),
		Served:     view(bs.served, false),
		Paid:       view(bs.paid, false),
		Error:      bs.lastError,
		Sequence:   bs.appliedSeq,
	}
	if !bs.lastRefreshAt.IsZero() {
		snapshot.LastRefreshAt = bs.lastRefreshAt.Format("15:04:05")
	}
	return snapshot
}

// publish рассылает свежий снапшот подписчику (хаб экранов)
func (bs *BoardService) publish() {
	if bs.onSnapshot != nil {
		bs.onSnapshot(bs.Snapshot())
	}
}
