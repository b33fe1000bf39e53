package game

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/annel0/blockpush/internal/block"
	"github.com/annel0/blockpush/internal/column"
	"github.com/annel0/blockpush/internal/config"
	"github.com/annel0/blockpush/internal/eventbus"
	"github.com/annel0/blockpush/internal/grid"
	"github.com/annel0/blockpush/internal/level"
	"github.com/annel0/blockpush/internal/logging"
	"github.com/annel0/blockpush/internal/metrics"
	"github.com/annel0/blockpush/internal/observability"
	"github.com/annel0/blockpush/internal/physics"
	"github.com/annel0/blockpush/internal/player"
	"github.com/annel0/blockpush/internal/scene"
	"github.com/annel0/blockpush/internal/vec"
	"github.com/annel0/blockpush/internal/wall"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Option настраивает сессию
type Option func(*Session)

// WithEventBus публикует события сессии и уведомления стены в шину
func WithEventBus(bus eventbus.EventBus) Option {
	return func(s *Session) { s.bus = bus }
}

// WithMetrics подключает метрики Prometheus
func WithMetrics(m *metrics.GameMetrics) Option {
	return func(s *Session) { s.metrics = m }
}

// WithVisualSink передаёт цвета блоков рендерингу
func WithVisualSink(sink block.VisualSink) Option {
	return func(s *Session) { s.sink = sink }
}

// WithWallNotifier заменяет уведомление стены через шину
func WithWallNotifier(n wall.Notifier) Option {
	return func(s *Session) { s.notifier = n }
}

// WithTracer задаёт трассировщик намерений
func WithTracer(t trace.Tracer) Option {
	return func(s *Session) { s.tracer = t }
}

// Session игровая сессия: мир, блоки, игроки и очередь намерений.
// Вся симуляция выполняется в горутине, вызывающей Tick; Submit можно вызывать из любой.
type Session struct {
	id  string
	cfg *config.Config

	world    *physics.GridWorld
	registry *scene.Registry[*block.Block]
	occ      *grid.Occupancy
	column   *column.Coordinator

	blocks  []*block.Block
	players []*player.Controller
	byName  map[string]*player.Controller

	mu    sync.Mutex
	queue []Intent

	accumulator float64
	elapsed     float64
	groundY     float64

	bus      eventbus.EventBus
	metrics  *metrics.GameMetrics
	sink     block.VisualSink
	notifier wall.Notifier
	owned    *wall.BusNotifier // создан сессией, закрывается в Close
	tracer   trace.Tracer
	log      *logging.Logger
}

// NewSession строит сцену уровня: пол, дыры, стену, блоки и игроков
func NewSession(cfg *config.Config, lvl *level.File, opts ...Option) (*Session, error) {
	if err := lvl.Validate(); err != nil {
		return nil, fmt.Errorf("уровень %q: %w", lvl.Name, err)
	}

	s := &Session{
		id:       uuid.NewString(),
		cfg:      cfg,
		world:    physics.NewGridWorld(cfg.Physics.Gravity),
		registry: scene.NewRegistry[*block.Block](1),
		byName:   make(map[string]*player.Controller),
		groundY:  lvl.GroundY,
		log:      logging.GetComponentLogger("game"),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.tracer == nil {
		s.tracer = observability.Tracer()
	}
	if s.notifier == nil && s.bus != nil {
		s.owned = wall.NewBusNotifier(s.bus, s.id, s.metrics)
		s.notifier = s.owned
	}

	s.world.IgnoreLayerCollision(physics.LayerPlayer, physics.LayerHole)
	s.addStatic(cfg.Physics.GroundTag, physics.LayerDefault, vec.Vec3Float{Y: lvl.GroundY})

	for _, r := range lvl.Floor {
		for _, c := range r.Cells() {
			s.addStatic(physics.TagFloor, physics.LayerSolid, c.Float())
		}
	}
	for _, c := range lvl.Holes {
		s.addStatic(physics.TagHole, physics.LayerHole, c.Float())
	}

	s.occ = grid.NewOccupancy(s.world, s.registry, cfg.Physics.CastRadius)
	s.column = column.NewCoordinator(s.world, s.registry, s.registry, column.Settings{
		GroundTag:    cfg.Physics.GroundTag,
		LockDistance: cfg.Physics.ColumnLockDistance,
		LockDuration: cfg.Timing.ColumnLockDuration(),
		CastRadius:   cfg.Physics.CastRadius,
	})

	if lvl.Wall != nil {
		origin := lvl.Wall.Origin.Float()
		for _, spec := range lvl.Wall.Blocks {
			if err := s.addBlock(spec, block.WithWall(origin)); err != nil {
				s.Close()
				return nil, err
			}
		}
	}
	for _, spec := range lvl.Blocks {
		if err := s.addBlock(spec); err != nil {
			s.Close()
			return nil, err
		}
	}
	for _, spec := range lvl.Players {
		if err := s.addPlayer(spec); err != nil {
			s.Close()
			return nil, err
		}
	}

	s.log.Info("Сессия %s: уровень %q, блоков %d, игроков %d", s.id, lvl.Name, len(s.blocks), len(s.players))
	return s, nil
}

func (s *Session) addStatic(tag string, layer physics.Layer, pos vec.Vec3Float) {
	body := physics.NewBody(s.registry.NextID(), tag, layer, pos)
	s.world.Add(body)
	s.registry.Register(body)
}

func (s *Session) addBlock(spec level.BlockSpec, opts ...block.Option) error {
	color, err := block.ParseColor(spec.Color)
	if err != nil {
		return err
	}

	body := physics.NewBody(s.registry.NextID(), physics.TagBlock, physics.LayerSolid, spec.Float())
	s.world.Add(body)

	opts = append(opts, block.WithBaseColor(color), block.WithRecorder(s.metrics))
	if s.sink != nil {
		opts = append(opts, block.WithVisualSink(s.sink))
	}
	b := block.New(body, s.world, block.Timing{
		ColorFadeDuration:  s.cfg.Timing.ColorFadeDuration,
		FallImmediateDelay: s.cfg.Timing.FallImmediateDelay,
		SlideBlockDuration: s.cfg.Timing.SlideBlockDuration,
	}, opts...)

	s.registry.RegisterOwned(body, b)
	s.blocks = append(s.blocks, b)
	return nil
}

func (s *Session) addPlayer(spec level.PlayerSpec) error {
	facing, ok := level.ParseFacing(spec.Facing)
	if !ok {
		return fmt.Errorf("игрок %q: направление %q", spec.Name, spec.Facing)
	}
	variant, ok := player.ParseVariant(spec.Variant)
	if !ok {
		return fmt.Errorf("игрок %q: вариант %q", spec.Name, spec.Variant)
	}

	body := physics.NewBody(s.registry.NextID(), physics.TagPlayer, physics.LayerPlayer, spec.Float())
	body.Name = spec.Name
	sensor := physics.NewBoxCollider(0.8, 0.9, 0.8)
	body.Sensor = &sensor
	s.world.Add(body)
	s.registry.Register(body)

	opts := []player.Option{
		player.WithVariant(variant),
		player.WithFacing(facing),
		player.WithSettings(player.Settings{
			MoveDuration:      s.cfg.Timing.MoveDuration,
			GravityMultiplier: s.cfg.Physics.GravityMultiplier,
		}),
		player.WithRecorder(s.metrics),
		player.WithEliminationHandler(s.onEliminated),
	}
	if s.notifier != nil {
		opts = append(opts, player.WithWallNotifier(s.notifier))
	}

	c := player.New(spec.Name, body, s.world, s.occ, s.column, opts...)
	s.world.AddListener(body.ID, c)
	s.players = append(s.players, c)
	s.byName[spec.Name] = c
	return nil
}

// Close дожидается доставки уведомлений стены, поставленных в очередь сессией.
// Вызывать до закрытия шины событий.
func (s *Session) Close() {
	if s.owned != nil {
		s.owned.Close()
	}
}

// ID идентификатор сессии
func (s *Session) ID() string { return s.id }

// Elapsed игровое время с начала сессии
func (s *Session) Elapsed() float64 { return s.elapsed }

// Player возвращает контроллер игрока по имени
func (s *Session) Player(name string) (*player.Controller, bool) {
	c, ok := s.byName[name]
	return c, ok
}

// Submit ставит намерение в очередь; оно будет применено в начале следующего кадра
func (s *Session) Submit(intent Intent) error {
	if _, ok := s.byName[intent.Player]; !ok {
		return fmt.Errorf("%w: %q", ErrUnknownPlayer, intent.Player)
	}
	s.mu.Lock()
	s.queue = append(s.queue, intent)
	s.mu.Unlock()
	return nil
}

// Tick продвигает сессию на один кадр длительностью dt.
// Порядок: намерения в порядке поступления, кадровые обновления, фиксированные шаги физики.
func (s *Session) Tick(ctx context.Context, dt float64) {
	started := time.Now()

	s.mu.Lock()
	intents := s.queue
	s.queue = nil
	s.mu.Unlock()

	for _, intent := range intents {
		s.applyIntent(ctx, intent)
	}

	for _, p := range s.players {
		p.Update(dt)
	}
	for _, b := range s.blocks {
		b.Update(dt)
	}

	fixed := s.cfg.Timing.FixedDelta()
	s.accumulator += dt
	for s.accumulator+vec.Epsilon >= fixed {
		s.accumulator -= fixed
		s.fixedStep(fixed)
	}

	for _, p := range s.players {
		if p.State() != player.StateEliminated && p.Position().Y < s.groundY {
			p.Eliminate(player.ReasonFell)
		}
	}

	s.elapsed += dt
	s.metrics.ObserveFrame(time.Since(started).Seconds())
}

func (s *Session) fixedStep(dt float64) {
	for _, p := range s.players {
		p.FixedUpdate()
	}
	s.world.Step(dt)
	for _, b := range s.blocks {
		b.AfterPhysicsStep()
	}
}

func (s *Session) applyIntent(ctx context.Context, intent Intent) {
	_, span := s.tracer.Start(ctx, "intent."+string(intent.Kind), trace.WithAttributes(
		attribute.String("session.id", s.id),
		attribute.String("player", intent.Player),
	))
	defer span.End()

	c := s.byName[intent.Player]
	accepted, err := intent.apply(c)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.log.Warn("Сессия %s: %v", s.id, err)
		return
	}

	span.SetAttributes(
		attribute.Bool("accepted", accepted),
		attribute.String("player.state", c.State().String()),
	)
	s.log.Trace("Намерение %s игрока %s: принято=%v", intent.Kind, intent.Player, accepted)
}

// Run выполняет Tick с частотой кадров из конфигурации до отмены ctx
func (s *Session) Run(ctx context.Context) error {
	dt := s.cfg.Timing.FrameDelta()
	ticker := time.NewTicker(time.Duration(dt * float64(time.Second)))
	defer ticker.Stop()

	s.publish(eventbus.EventSessionStarted, sessionEvent{Players: len(s.players), Blocks: len(s.blocks)})
	defer func() {
		s.publish(eventbus.EventSessionFinished, sessionEvent{Players: s.alive(), Blocks: len(s.blocks), Elapsed: s.elapsed})
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			s.Tick(ctx, dt)
		}
	}
}

func (s *Session) alive() int {
	n := 0
	for _, p := range s.players {
		if p.State() != player.StateEliminated {
			n++
		}
	}
	return n
}

type sessionEvent struct {
	Players int     `json:"players"`
	Blocks  int     `json:"blocks"`
	Elapsed float64 `json:"elapsed,omitempty"`
}

// EliminatedEvent полезная нагрузка события PlayerEliminated
type EliminatedEvent struct {
	Player string  `json:"player"`
	Reason string  `json:"reason"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Z      float64 `json:"z"`
}

func (s *Session) onEliminated(c *player.Controller, reason string) {
	s.registry.Unregister(c.Body())
	p := c.Position()
	s.publish(eventbus.EventPlayerEliminated, EliminatedEvent{Player: c.Name(), Reason: reason, X: p.X, Y: p.Y, Z: p.Z})
}

func (s *Session) publish(eventType string, payload any) {
	if s.bus == nil {
		return
	}
	ev, err := eventbus.NewEnvelope("game", eventType, payload)
	if err != nil {
		s.log.Error("Сессия %s: %v", s.id, err)
		return
	}
	ev.CorrelationID = s.id

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.bus.Publish(ctx, ev); err != nil {
		s.log.Error("Сессия %s: публикация %s: %v", s.id, eventType, err)
	}
}

// PlayerSnapshot состояние игрока
type PlayerSnapshot struct {
	Name     string
	Position vec.Vec3Float
	Facing   vec.Vec3Float
	State    string
}

// BlockSnapshot состояние блока
type BlockSnapshot struct {
	ID       uint64
	Position vec.Vec3Float
	State    string
	Locked   bool
	Color    string
	InWall   bool
}

// Snapshot снимок сессии
type Snapshot struct {
	SessionID string
	Elapsed   float64
	Players   []PlayerSnapshot
	Blocks    []BlockSnapshot
}

// Snapshot возвращает состояние сессии. Вызывать из горутины, выполняющей Tick.
func (s *Session) Snapshot() Snapshot {
	snap := Snapshot{SessionID: s.id, Elapsed: s.elapsed}
	for _, p := range s.players {
		snap.Players = append(snap.Players, PlayerSnapshot{
			Name:     p.Name(),
			Position: p.Position(),
			Facing:   p.Facing(),
			State:    p.State().String(),
		})
	}
	for _, b := range s.blocks {
		snap.Blocks = append(snap.Blocks, BlockSnapshot{
			ID:       b.ID(),
			Position: b.Position(),
			State:    b.State().String(),
			Locked:   b.IsLocked(),
			Color:    block.ColorName(b.Color()),
			InWall:   b.InWall(),
		})
	}
	sort.Slice(snap.Players, func(i, j int) bool { return snap.Players[i].Name < snap.Players[j].Name })
	sort.Slice(snap.Blocks, func(i, j int) bool { return snap.Blocks[i].ID < snap.Blocks[j].ID })
	return snap
}

// BlockAt возвращает снимок блока в ячейке
func (s Snapshot) BlockAt(cell vec.Vec3Float) (BlockSnapshot, bool) {
	for _, b := range s.Blocks {
		if b.Position.ApproxEquals(cell) {
			return b, true
		}
	}
	return BlockSnapshot{}, false
}
