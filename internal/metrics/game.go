package metrics

import "github.com/prometheus/client_golang/prometheus"

// Исходы обработки намерения игрока
const (
	OutcomeAccepted = "accepted"
	OutcomeDropped  = "dropped"
)

// GameMetrics счётчики игрового ядра. Методы безопасны для nil-получателя,
// поэтому компоненты можно создавать без метрик.
type GameMetrics struct {
	intents       *prometheus.CounterVec
	columnLocks   prometheus.Counter
	blockLocks    prometheus.Counter
	fallsStarted  prometheus.Counter
	blocksSettled prometheus.Counter
	wallNotified  prometheus.Counter
	eliminations  *prometheus.CounterVec
	frameDuration prometheus.Histogram
}

// NewGameMetrics создаёт метрики и регистрирует их в reg
func NewGameMetrics(reg prometheus.Registerer) *GameMetrics {
	m := &GameMetrics{
		intents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "blockpush",
			Name:      "intents_total",
			Help:      "Намерения игроков по типу и исходу.",
		}, []string{"kind", "outcome"}),
		columnLocks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "blockpush",
			Name:      "column_locks_total",
			Help:      "Блокировки колонн при сдвиге блока.",
		}),
		blockLocks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "blockpush",
			Name:      "block_locks_total",
			Help:      "Временные блокировки отдельных блоков.",
		}),
		fallsStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "blockpush",
			Name:      "block_falls_total",
			Help:      "Запрошенные падения блоков.",
		}),
		blocksSettled: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "blockpush",
			Name:      "block_settled_total",
			Help:      "Блоки, осевшие после падения.",
		}),
		wallNotified: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "blockpush",
			Name:      "wall_vacated_total",
			Help:      "Уведомления об освобождённых ячейках стены.",
		}),
		eliminations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "blockpush",
			Name:      "player_eliminations_total",
			Help:      "Выбывшие игроки по причине.",
		}, []string{"reason"}),
		frameDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "blockpush",
			Name:      "frame_duration_seconds",
			Help:      "Реальное время обработки одного кадра сессии.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 2, 12),
		}),
	}

	reg.MustRegister(
		m.intents,
		m.columnLocks,
		m.blockLocks,
		m.fallsStarted,
		m.blocksSettled,
		m.wallNotified,
		m.eliminations,
		m.frameDuration,
	)
	return m
}

// IntentHandled учитывает намерение игрока
func (m *GameMetrics) IntentHandled(kind string, accepted bool) {
	if m == nil {
		return
	}
	outcome := OutcomeDropped
	if accepted {
		outcome = OutcomeAccepted
	}
	m.intents.WithLabelValues(kind, outcome).Inc()
}

// ColumnLocked учитывает блокировку колонны
func (m *GameMetrics) ColumnLocked() {
	if m == nil {
		return
	}
	m.columnLocks.Inc()
}

// BlockLocked реализует block.Recorder
func (m *GameMetrics) BlockLocked() {
	if m == nil {
		return
	}
	m.blockLocks.Inc()
}

// BlockFallStarted реализует block.Recorder
func (m *GameMetrics) BlockFallStarted() {
	if m == nil {
		return
	}
	m.fallsStarted.Inc()
}

// BlockSettled реализует block.Recorder
func (m *GameMetrics) BlockSettled() {
	if m == nil {
		return
	}
	m.blocksSettled.Inc()
}

// WallNotified реализует wall.Recorder
func (m *GameMetrics) WallNotified() {
	if m == nil {
		return
	}
	m.wallNotified.Inc()
}

// PlayerEliminated учитывает выбывание игрока
func (m *GameMetrics) PlayerEliminated(reason string) {
	if m == nil {
		return
	}
	m.eliminations.WithLabelValues(reason).Inc()
}

// ObserveFrame учитывает время обработки кадра
func (m *GameMetrics) ObserveFrame(seconds float64) {
	if m == nil {
		return
	}
	m.frameDuration.Observe(seconds)
}
