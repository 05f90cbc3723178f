package services

import (
	"log"
	"sync"
	"sync/atomic"
	"time"
)

// BoardPoller планировщик опроса доски: один повторяющийся таймер с
// фиксированным интервалом, явные Start/Stop/ForceRefresh
// Владеет циклом сам — никакого жизненного цикла вью-слоя
type BoardPoller struct {
	board    *BoardService
	interval time.Duration

	stopChan chan struct{}
	kick     chan struct{} // Внеочередной опрос (смена точки/фильтра, кнопка)
	stopOnce sync.Once
	started  atomic.Bool

	// polling не пускает перекрывающиеся опросы: если предыдущий запрос
	// еще не ответил, очередной тик просто пропускается
	polling atomic.Bool
}

// NewBoardPoller создает планировщик с заданным интервалом
func NewBoardPoller(board *BoardService, interval time.Duration) *BoardPoller {
	p := &BoardPoller{
		board:    board,
		interval: interval,
		stopChan: make(chan struct{}),
		kick:     make(chan struct{}, 1),
	}
	// Доска просит внеочередной опрос через планировщик
	board.BindRefresh(p.ForceRefresh)
	return p
}

// Start запускает цикл опроса (повторный вызов — no-op)
func (p *BoardPoller) Start() {
	if !p.started.CompareAndSwap(false, true) {
		return
	}
	log.Printf("⏱️ Планировщик доски запущен (интервал %v)", p.interval)
	go p.loop()
}

// Stop останавливает цикл; таймер гасится, колбеки не протекают
func (p *BoardPoller) Stop() {
	p.stopOnce.Do(func() {
		close(p.stopChan)
	})
}

// ForceRefresh просит опросить немедленно, не дожидаясь тика
// Неблокирующая: если просьба уже висит, вторая не нужна
func (p *BoardPoller) ForceRefresh() {
	select {
	case p.kick <- struct{}{}:
	default:
	}
}

func (p *BoardPoller) loop() {
	// Первый опрос сразу, не ждем первого тика
	p.pollOnce()

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-p.stopChan:
			log.Printf("⏹️ Планировщик доски остановлен")
			return
		case <-p.kick:
			// Внеочередной опрос сбрасывает таймер, чтобы следующий
			// плановый тик не прилетел сразу вслед
			ticker.Reset(p.interval)
			p.pollOnce()
		case <-ticker.C:
			p.pollOnce()
		}
	}
}

// pollOnce выполняет опрос, если предыдущий уже завершился
func (p *BoardPoller) pollOnce() {
	if !p.polling.CompareAndSwap(false, true) {
		log.Printf("⏭️ Планировщик: предыдущий опрос еще в полете, тик пропущен")
		return
	}
	go func() {
		defer p.polling.Store(false)
		p.board.Poll()
	}()
}
