package wall

import (
	"context"
	"sync"
	"time"

	"github.com/annel0/blockpush/internal/eventbus"
	"github.com/annel0/blockpush/internal/logging"
	"github.com/annel0/blockpush/internal/vec"
)

// Notifier получает сигнал о том, что из стены вытолкнули блок.
// Вызов не ждёт ответа; восстановление стены выполняется вне ядра.
type Notifier interface {
	NotifyBlockVacated(cell vec.Vec2)
}

// NotifierFunc адаптер функции к Notifier
type NotifierFunc func(cell vec.Vec2)

// NotifyBlockVacated реализует Notifier
func (f NotifierFunc) NotifyBlockVacated(cell vec.Vec2) { f(cell) }

// VacatedCell полезная нагрузка события BlockVacated в координатах стены
type VacatedCell struct {
	X int `json:"x"`
	Z int `json:"z"`
}

// Recorder считает отправленные уведомления
type Recorder interface {
	WallNotified()
}

// queueSize очередь уведомлений между кадром и публикацией
const queueSize = 64

// BusNotifier публикует уведомления в шину событий из отдельной горутины,
// чтобы медленный брокер не задерживал кадр
type BusNotifier struct {
	bus       eventbus.EventBus
	sessionID string
	timeout   time.Duration
	recorder  Recorder
	log       *logging.Logger

	mu     sync.RWMutex // NotifyBlockVacated не пересекается с закрытием очереди
	closed bool
	queue  chan vec.Vec2
	done   chan struct{}
}

// NewBusNotifier создаёт notifier и запускает горутину публикации;
// sessionID попадает в CorrelationID события. Остановка через Close.
func NewBusNotifier(bus eventbus.EventBus, sessionID string, recorder Recorder) *BusNotifier {
	n := &BusNotifier{
		bus:       bus,
		sessionID: sessionID,
		timeout:   time.Second,
		recorder:  recorder,
		log:       logging.GetComponentLogger("wall"),
		queue:     make(chan vec.Vec2, queueSize),
		done:      make(chan struct{}),
	}
	go n.publishLoop()
	return n
}

// NotifyBlockVacated реализует Notifier: ставит ячейку в очередь и сразу возвращается.
// При переполненной очереди или после Close уведомление отбрасывается с ошибкой в логе.
func (n *BusNotifier) NotifyBlockVacated(cell vec.Vec2) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	if n.closed {
		n.log.Error("Ячейка стены (%d,%d): notifier закрыт", cell.X, cell.Y)
		return
	}

	select {
	case n.queue <- cell:
	default:
		n.log.Error("Ячейка стены (%d,%d): очередь уведомлений заполнена, уведомление потеряно", cell.X, cell.Y)
	}
}

// Close дожидается публикации всех поставленных в очередь уведомлений. Повторный вызов безопасен.
func (n *BusNotifier) Close() {
	n.mu.Lock()
	if !n.closed {
		n.closed = true
		close(n.queue)
	}
	n.mu.Unlock()
	<-n.done
}

func (n *BusNotifier) publishLoop() {
	defer close(n.done)
	for cell := range n.queue {
		n.publish(cell)
	}
}

// publish отправляет одно событие; ошибки только логируются
func (n *BusNotifier) publish(cell vec.Vec2) {
	ev, err := eventbus.NewEnvelope("wall", eventbus.EventBlockVacated, VacatedCell{X: cell.X, Z: cell.Y})
	if err != nil {
		n.log.Error("Уведомление о ячейке (%d,%d): %v", cell.X, cell.Y, err)
		return
	}
	ev.CorrelationID = n.sessionID
	// Потеря уведомления оставит дыру в стене
	ev.Priority = 7

	ctx, cancel := context.WithTimeout(context.Background(), n.timeout)
	defer cancel()
	if err := n.bus.Publish(ctx, ev); err != nil {
		n.log.Error("Публикация %s для ячейки (%d,%d): %v", ev.EventType, cell.X, cell.Y, err)
		return
	}

	if n.recorder != nil {
		n.recorder.WallNotified()
	}
	n.log.Debug("Ячейка стены (%d,%d) освобождена", cell.X, cell.Y)
}

// ListenVacated подписывает fn на события BlockVacated
func ListenVacated(ctx context.Context, bus eventbus.EventBus, fn func(sessionID string, cell VacatedCell)) (eventbus.Subscription, error) {
	log := logging.GetComponentLogger("wall")
	return bus.Subscribe(ctx, eventbus.Filter{Types: []string{eventbus.EventBlockVacated}}, func(ctx context.Context, ev *eventbus.Envelope) {
		var cell VacatedCell
		if err := ev.Decode(&cell); err != nil {
			log.Warn("Пропуск события: %v", err)
			return
		}
		fn(ev.CorrelationID, cell)
	})
}
