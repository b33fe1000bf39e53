package player

import (
	"errors"
	"fmt"
	"math"

	"github.com/annel0/blockpush/internal/block"
	"github.com/annel0/blockpush/internal/column"
	"github.com/annel0/blockpush/internal/grid"
	"github.com/annel0/blockpush/internal/logging"
	"github.com/annel0/blockpush/internal/motion"
	"github.com/annel0/blockpush/internal/physics"
	"github.com/annel0/blockpush/internal/vec"
	"github.com/annel0/blockpush/internal/wall"
)

// Типы намерений для метрик
const (
	IntentMove = "move"
	IntentPush = "push"
	IntentPull = "pull"
)

// Recorder получает статистику контроллера
type Recorder interface {
	IntentHandled(kind string, accepted bool)
	ColumnLocked()
	PlayerEliminated(reason string)
}

// Settings параметры движения игрока
type Settings struct {
	MoveDuration      float64 // Длительность сдвига на одну ячейку
	GravityMultiplier float64 // Дополнительная сила вниз на единицу массы (extended)
}

// DefaultSettings значения оригинальной игры
func DefaultSettings() Settings {
	return Settings{
		MoveDuration:      0.25,
		GravityMultiplier: 80,
	}
}

// Option настраивает контроллер
type Option func(*Controller)

// WithVariant выбирает набор правил
func WithVariant(v Variant) Option {
	return func(c *Controller) { c.variant = v }
}

// WithSettings задаёт параметры движения
func WithSettings(s Settings) Option {
	return func(c *Controller) { c.settings = s }
}

// WithFacing задаёт начальное направление взгляда
func WithFacing(dir vec.Vec3Float) Option {
	return func(c *Controller) {
		if flat := dir.ProjectOnPlaneY(); !flat.IsZero() {
			c.facing = flat.Normalized()
		}
	}
}

// WithWallNotifier подключает восстановление стены
func WithWallNotifier(n wall.Notifier) Option {
	return func(c *Controller) { c.wall = n }
}

// WithRecorder подключает метрики
func WithRecorder(r Recorder) Option {
	return func(c *Controller) { c.recorder = r }
}

// WithEliminationHandler вызывается один раз при выбывании игрока
func WithEliminationHandler(fn func(c *Controller, reason string)) Option {
	return func(c *Controller) { c.onEliminated = fn }
}

// activeSlide сдвиг, которым владеет игрок. Для толкаемого блока хранится его исходная ячейка.
type activeSlide struct {
	slide  *motion.Slide
	block  *block.Block
	origin vec.Vec3Float
}

// Controller конечный автомат игрока: движение по сетке, толкание и вытягивание блоков
type Controller struct {
	name    string
	body    *physics.Body
	physics physics.Service
	grid    *grid.Occupancy
	column  *column.Coordinator

	variant  Variant
	settings Settings

	state       State
	facing      vec.Vec3Float
	fallPending bool // Падение обнаружено при старте хода, начнётся по его завершении
	slides      []*activeSlide

	wall         wall.Notifier
	recorder     Recorder
	onEliminated func(c *Controller, reason string)
	log          *logging.Logger
}

// New создаёт контроллер в состоянии Idle, взгляд по +Z.
// name используется как владелец резервирований ячеек и должен быть уникален в сессии.
func New(name string, body *physics.Body, svc physics.Service, occ *grid.Occupancy, col *column.Coordinator, opts ...Option) *Controller {
	c := &Controller{
		name:     name,
		body:     body,
		physics:  svc,
		grid:     occ,
		column:   col,
		variant:  VariantExtended,
		settings: DefaultSettings(),
		state:    StateIdle,
		facing:   vec.Forward,
		log:      logging.GetComponentLogger("player"),
	}
	for _, opt := range opts {
		opt(c)
	}
	svc.SetKinematic(body, false)
	return c
}

// Name имя игрока
func (c *Controller) Name() string { return c.name }

// Body физическое тело игрока
func (c *Controller) Body() *physics.Body { return c.body }

// Position позиция центра игрока
func (c *Controller) Position() vec.Vec3Float { return c.body.Position() }

// State текущее состояние
func (c *Controller) State() State { return c.state }

// Facing направление взгляда в горизонтальной плоскости
func (c *Controller) Facing() vec.Vec3Float { return c.facing }

// Variant набор правил контроллера
func (c *Controller) Variant() Variant { return c.variant }

// FallPending true, если после текущего хода начнётся падение
func (c *Controller) FallPending() bool { return c.fallPending }

// IsMoving true, пока активен хотя бы один сдвиг игрока
func (c *Controller) IsMoving() bool { return c.state == StateMoving }

// Move идёт на одну ячейку в direction или запрыгивает на препятствие.
// Возвращает false, если команда отброшена.
func (c *Controller) Move(direction vec.Vec3Float) bool {
	accepted := c.move(direction)
	c.record(IntentMove, accepted)
	return accepted
}

func (c *Controller) move(direction vec.Vec3Float) bool {
	if !c.ready() {
		return false
	}

	flat := direction.ProjectOnPlaneY()
	if flat.IsZero() {
		return false
	}
	c.facing = flat.Normalized()

	pos := c.body.Position()
	dest := pos.Add(c.facing)

	// Ячейку уже занимает ход другого игрока: не запрыгиваем через него
	if owner, ok := c.grid.Reservations().Owner(dest.Cell()); ok && owner != c.name {
		return false
	}
	// Игрок не опора: нельзя встать в его ячейку, запрыгнуть на него или шагнуть ему на голову
	if c.grid.HasPlayer(dest) || c.grid.HasPlayer(dest.Add(vec.Down)) {
		return false
	}

	if c.grid.IsOpen(dest) {
		if !c.reserve(dest) {
			return false
		}
		if c.variant == VariantExtended && c.grid.IsOpen(dest.Add(vec.Down)) {
			c.fallPending = true
		}
		c.startSlide(c.facing)
		c.log.LogEntityMovement(c.body.ID, pos, dest)
		return true
	}

	over := dest.Add(vec.Up)
	if c.grid.IsOpen(over) {
		if !c.reserve(over) {
			return false
		}
		c.startSlide(c.facing.Add(vec.Up))
		c.log.LogEntityMovement(c.body.ID, pos, over)
		return true
	}

	return false
}

// TryPushBlock толкает блок перед игроком на одну ячейку вперёд
func (c *Controller) TryPushBlock() bool {
	accepted := c.tryPush()
	c.record(IntentPush, accepted)
	return accepted
}

func (c *Controller) tryPush() bool {
	if !c.ready() {
		return false
	}

	pos := c.body.Position()
	front := pos.Add(c.facing)
	beyond := front.Add(c.facing)
	if c.grid.IsOpen(front) || !c.grid.IsOpen(beyond) {
		return false
	}

	b, ok := c.targetBlock(pos)
	if !ok {
		return false
	}
	if !c.reserve(front, beyond) {
		return false
	}

	c.displace(b, c.facing)
	c.state = StateMoving
	return true
}

// TryPullBlock тянет блок перед игроком на себя, игрок при этом поднимается на ячейку вверх
func (c *Controller) TryPullBlock() bool {
	accepted := c.tryPull()
	c.record(IntentPull, accepted)
	return accepted
}

func (c *Controller) tryPull() bool {
	if !c.ready() {
		return false
	}

	pos := c.body.Position()
	front := pos.Add(c.facing)
	above := pos.Add(vec.Up)
	if c.grid.IsOpen(front) || !c.grid.IsOpen(above) {
		return false
	}

	b, ok := c.targetBlock(pos)
	if !ok {
		return false
	}
	if !c.reserve(front, pos, above) {
		return false
	}

	c.displace(b, c.facing.Neg())
	c.startSlide(vec.Up)
	return true
}

// targetBlock возвращает незаблокированный блок перед игроком
func (c *Controller) targetBlock(pos vec.Vec3Float) (*block.Block, bool) {
	b, err := c.grid.BlockInFront(pos, c.facing)
	if err != nil {
		if errors.Is(err, grid.ErrAmbiguousTarget) {
			c.log.Warn("Игрок %s: %v", c.name, err)
		} else {
			c.log.Trace("Игрок %s: %v", c.name, err)
		}
		return nil, false
	}
	if b.IsLocked() {
		c.log.Trace("Игрок %s: блок %d заблокирован (%s)", c.name, b.ID(), b.State())
		return nil, false
	}
	return b, true
}

// displace блокирует колонну блока, уведомляет стену и начинает сдвиг блока
func (c *Controller) displace(b *block.Block, delta vec.Vec3Float) {
	origin := b.Position()

	if n, err := c.column.LockFrom(origin); err != nil {
		c.log.Warn("Игрок %s: блокировка колонны (%.0f,%.0f): %v", c.name, origin.X, origin.Z, err)
	} else if n > 0 && c.recorder != nil {
		c.recorder.ColumnLocked()
	}

	if c.wall != nil && b.InWall() && math.Abs(origin.Z) < vec.Epsilon {
		local := b.LocalPosition()
		c.wall.NotifyBlockVacated(vec.Vec2{X: int(math.Round(local.X)), Y: int(math.Round(local.Z))})
	}

	c.slides = append(c.slides, &activeSlide{
		slide:  motion.NewSlide(c.settings.MoveDuration, delta, b),
		block:  b,
		origin: origin,
	})
	c.log.LogEntityMovement(b.ID(), origin, origin.Add(delta))
}

// startSlide сдвигает самого игрока; на время сдвига тело кинематическое
func (c *Controller) startSlide(delta vec.Vec3Float) {
	c.physics.SetKinematic(c.body, true)
	c.slides = append(c.slides, &activeSlide{
		slide: motion.NewSlide(c.settings.MoveDuration, delta, c.body),
	})
	c.state = StateMoving
}

// Update кадровый шаг: продвигает сдвиги и выравнивает игрока по сетке
func (c *Controller) Update(dt float64) {
	if c.state == StateEliminated {
		return
	}

	if len(c.slides) > 0 {
		active := c.slides[:0]
		for _, s := range c.slides {
			if !s.slide.Tick(dt) {
				active = append(active, s)
				continue
			}
			if s.block != nil {
				c.column.DropAbove(s.origin)
				c.column.DropIfUnsupported(s.block)
			}
		}
		c.slides = active

		if len(c.slides) == 0 {
			c.finishMove()
		}
	}

	if c.state != StateMoving {
		p := c.body.Position()
		c.body.SetPosition(vec.Vec3Float{X: math.Round(p.X), Y: p.Y, Z: math.Round(p.Z)})
	}
}

func (c *Controller) finishMove() {
	c.grid.Reservations().Release(c.name)
	c.physics.SetKinematic(c.body, false)

	if c.fallPending {
		c.fallPending = false
		c.state = StateFalling
		return
	}
	c.state = StateIdle
}

// FixedUpdate шаг физики: extended-вариант ускоряет падение, пока игрок не движется
func (c *Controller) FixedUpdate() {
	if c.variant != VariantExtended || c.state == StateMoving || c.state == StateEliminated {
		return
	}
	c.physics.AddForce(c.body, vec.Down.Scale(c.settings.GravityMultiplier*c.body.Mass))
}

// OnCollisionEnter реализует physics.ContactListener: опора снизу завершает падение
func (c *Controller) OnCollisionEnter(col physics.Collision) {
	if col.Other == nil || col.Other.Position().Y >= c.body.Position().Y {
		return
	}
	c.fallPending = false
	if c.state == StateFalling {
		c.state = StateIdle
	}
}

// OnTriggerEnter реализует physics.ContactListener: блок, вошедший сверху, раздавливает игрока
func (c *Controller) OnTriggerEnter(other *physics.Body) {
	if c.state == StateEliminated || other.Tag != physics.TagBlock {
		return
	}
	p := c.body.Position()
	o := other.Position()
	if math.Abs(p.X-o.X) < 0.5 && math.Abs(p.Z-o.Z) < 0.5 && p.Y < o.Y {
		c.Eliminate(ReasonCrushed)
	}
}

// Eliminate выводит игрока из игры и удаляет его тело из физики. Повторный вызов ничего не делает.
func (c *Controller) Eliminate(reason string) {
	if c.state == StateEliminated {
		return
	}

	c.state = StateEliminated
	c.fallPending = false
	c.slides = nil
	c.grid.Reservations().Release(c.name)
	c.physics.Remove(c.body)

	c.log.Info("Игрок %s выбыл: %s в (%.1f,%.1f,%.1f)", c.name, reason, c.body.Position().X, c.body.Position().Y, c.body.Position().Z)
	if c.recorder != nil {
		c.recorder.PlayerEliminated(reason)
	}
	if c.onEliminated != nil {
		c.onEliminated(c, reason)
	}
}

// ready true, если игрок может принять новую команду
func (c *Controller) ready() bool {
	return c.state == StateIdle && !c.fallPending
}

// reserve резервирует ячейки на время хода
func (c *Controller) reserve(cells ...vec.Vec3Float) bool {
	keys := make([]vec.Vec3, len(cells))
	for i, cell := range cells {
		keys[i] = cell.Cell()
	}
	if !c.grid.Reservations().Reserve(c.name, keys...) {
		c.log.Debug("Игрок %s: ячейки %v заняты другим игроком", c.name, keys)
		return false
	}
	return true
}

func (c *Controller) record(kind string, accepted bool) {
	if c.recorder != nil {
		c.recorder.IntentHandled(kind, accepted)
	}
}

// String для логов
func (c *Controller) String() string {
	p := c.body.Position()
	return fmt.Sprintf("%s[%s %s (%.1f,%.1f,%.1f)]", c.name, c.variant, c.state, p.X, p.Y, p.Z)
}
