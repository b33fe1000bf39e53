package block

import (
	"github.com/annel0/blockpush/internal/logging"
	"github.com/annel0/blockpush/internal/motion"
	"github.com/annel0/blockpush/internal/physics"
	"github.com/annel0/blockpush/internal/vec"
)

// VisualSink получает текущий цвет блока (рендеринг вне ядра)
type VisualSink interface {
	SetVisualState(b *Block, c Color)
}

// Recorder получает события жизненного цикла блока (метрики)
type Recorder interface {
	BlockLocked()
	BlockFallStarted()
	BlockSettled()
}

// Timing длительности, которые использует блок
type Timing struct {
	ColorFadeDuration  float64
	FallImmediateDelay float64
	SlideBlockDuration float64
}

// DefaultTiming значения оригинальной игры
func DefaultTiming() Timing {
	return Timing{
		ColorFadeDuration:  0.2,
		FallImmediateDelay: 1.0,
		SlideBlockDuration: 0.25,
	}
}

// Option настраивает блок при создании
type Option func(*Block)

// WithBaseColor задаёт базовый цвет блока
func WithBaseColor(c Color) Option {
	return func(b *Block) {
		b.baseColor = c
		b.color = c
	}
}

// WithWall помечает блок как часть стены с началом координат origin
func WithWall(origin vec.Vec3Float) Option {
	return func(b *Block) {
		b.inWall = true
		b.wallOrigin = origin
	}
}

// WithVisualSink подключает получателя цвета
func WithVisualSink(s VisualSink) Option {
	return func(b *Block) { b.sink = s }
}

// WithRecorder подключает метрики
func WithRecorder(r Recorder) Option {
	return func(b *Block) { b.recorder = r }
}

// Block подвижный блок: конечный автомат падения, блокировки и цвета
type Block struct {
	body    *physics.Body
	physics physics.Service
	timing  Timing

	state     State
	remaining float64 // Остаток задержки падения или временной блокировки

	baseColor Color
	color     Color
	fade      *motion.Fade[Color] // Не более одного перехода цвета одновременно

	inWall     bool
	wallOrigin vec.Vec3Float

	sink     VisualSink
	recorder Recorder
	log      *logging.Logger
}

// New создаёт блок в состоянии AtRest. Тело переводится в кинематический режим.
func New(body *physics.Body, svc physics.Service, timing Timing, opts ...Option) *Block {
	b := &Block{
		body:      body,
		physics:   svc,
		timing:    timing,
		state:     StateAtRest,
		baseColor: NeutralColor,
		color:     NeutralColor,
		log:       logging.GetComponentLogger("block"),
	}
	for _, opt := range opts {
		opt(b)
	}
	svc.SetKinematic(body, true)
	return b
}

// Body возвращает физическое тело блока
func (b *Block) Body() *physics.Body { return b.body }

// ID идентификатор тела блока
func (b *Block) ID() uint64 { return b.body.ID }

// Position позиция центра блока
func (b *Block) Position() vec.Vec3Float { return b.body.Position() }

// SetPosition перемещает блок (используется интерполяцией сдвига)
func (b *Block) SetPosition(p vec.Vec3Float) { b.body.SetPosition(p) }

// State текущее состояние
func (b *Block) State() State { return b.state }

// IsLocked true, пока блок падает или заблокирован колонной
func (b *Block) IsLocked() bool { return b.state.Locked() }

// Color текущий отображаемый цвет
func (b *Block) Color() Color { return b.color }

// BaseColor цвет блока в покое
func (b *Block) BaseColor() Color { return b.baseColor }

// FadeActive true, если идёт смена цвета
func (b *Block) FadeActive() bool { return b.fade != nil && !b.fade.Done() }

// InWall true, если блок принадлежит стене
func (b *Block) InWall() bool { return b.inWall }

// LocalPosition позиция относительно начала стены
func (b *Block) LocalPosition() vec.Vec3Float {
	return b.body.Position().Sub(b.wallOrigin)
}

// MakeFallImmediately запускает падение с задержкой оригинальной игры
func (b *Block) MakeFallImmediately() {
	b.MakeFallAfterDelay(b.timing.FallImmediateDelay)
}

// MakeFallAfterSlideDelay запускает падение после завершения сдвига соседнего блока
func (b *Block) MakeFallAfterSlideDelay() {
	b.MakeFallAfterDelay(b.timing.SlideBlockDuration)
}

// MakeFallAfterDelay из любого состояния блокирует блок, перекрашивает в цвет блокировки
// и через delay отдаёт его гравитации. Разблокировка происходит только при оседании.
func (b *Block) MakeFallAfterDelay(delay float64) {
	b.log.Debug("Блок %d: падение через %.2fс (было %s)", b.ID(), delay, b.state)

	b.state = StateLockedPendingFall
	b.remaining = delay
	b.changeColor(LockedColor)

	if b.recorder != nil {
		b.recorder.BlockFallStarted()
	}
}

// SetLockedForDuration блокирует покоящийся блок на duration секунд.
// Повторный вызов продлевает блокировку до большего из сроков.
// Пока блок падает, вызов игнорируется: разблокировку выполнит оседание.
// Возвращает false, если блокировка не применена.
func (b *Block) SetLockedForDuration(duration float64) bool {
	switch b.state {
	case StateAtRest:
		b.state = StateLockedTimed
		b.remaining = duration
	case StateLockedTimed:
		if duration > b.remaining {
			b.remaining = duration
		}
	default:
		b.log.Trace("Блок %d: блокировка колонны пропущена, блок в состоянии %s", b.ID(), b.state)
		return false
	}

	if b.recorder != nil {
		b.recorder.BlockLocked()
	}
	return true
}

// Update кадровый шаг: смена цвета и таймеры
func (b *Block) Update(dt float64) {
	if b.fade != nil {
		c, done := b.fade.Tick(dt)
		b.color = c
		if b.sink != nil {
			b.sink.SetVisualState(b, c)
		}
		if done {
			b.fade = nil
		}
	}

	switch b.state {
	case StateLockedPendingFall:
		b.remaining -= dt
		if b.remaining <= 0 {
			b.physics.SetKinematic(b.body, false)
			b.state = StateFallingPhysical
		}
	case StateLockedTimed:
		b.remaining -= dt
		if b.remaining <= 0 {
			b.remaining = 0
			b.state = StateAtRest
		}
	}
}

// AfterPhysicsStep вызывается после каждого шага физики.
// Падающий блок оседает, как только его вертикальная скорость перестаёт быть отрицательной.
func (b *Block) AfterPhysicsStep() {
	if b.state != StateFallingPhysical {
		return
	}
	if b.body.Velocity().Y < 0 {
		return
	}

	b.physics.SetKinematic(b.body, true)
	b.body.SetPosition(b.body.Position().RoundToInt())
	b.changeColor(b.baseColor)
	b.state = StateAtRest

	b.log.Debug("Блок %d осел в (%.0f,%.0f,%.0f)", b.ID(), b.Position().X, b.Position().Y, b.Position().Z)
	if b.recorder != nil {
		b.recorder.BlockSettled()
	}
}

// changeColor отменяет текущую смену цвета и начинает новую от отображаемого цвета
func (b *Block) changeColor(target Color) {
	b.fade = motion.NewFade(b.color, target, b.timing.ColorFadeDuration, LerpColor)
}
