package player

import (
	"testing"

	"github.com/annel0/blockpush/internal/block"
	"github.com/annel0/blockpush/internal/column"
	"github.com/annel0/blockpush/internal/grid"
	"github.com/annel0/blockpush/internal/physics"
	"github.com/annel0/blockpush/internal/scene"
	"github.com/annel0/blockpush/internal/vec"
	"github.com/annel0/blockpush/internal/wall"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	frame     = 0.02
	groundTag = "GarbageCollider"
)

type recorder struct {
	accepted   map[string]int
	dropped    map[string]int
	columns    int
	eliminated []string
}

func newRecorder() *recorder {
	return &recorder{accepted: map[string]int{}, dropped: map[string]int{}}
}

func (r *recorder) IntentHandled(kind string, accepted bool) {
	if accepted {
		r.accepted[kind]++
	} else {
		r.dropped[kind]++
	}
}
func (r *recorder) ColumnLocked()                  { r.columns++ }
func (r *recorder) PlayerEliminated(reason string) { r.eliminated = append(r.eliminated, reason) }

// stage тестовая сцена: пол, опорный уровень, блоки и игроки
type stage struct {
	t        *testing.T
	world    *physics.GridWorld
	registry *scene.Registry[*block.Block]
	occ      *grid.Occupancy
	col      *column.Coordinator
	blocks   []*block.Block
	players  []*Controller
	notified []vec.Vec2
}

func newStage(t *testing.T, withGround bool) *stage {
	s := &stage{
		t:        t,
		world:    physics.NewGridWorld(physics.DefaultGravity),
		registry: scene.NewRegistry[*block.Block](1),
	}
	s.world.IgnoreLayerCollision(physics.LayerPlayer, physics.LayerHole)
	if withGround {
		ground := physics.NewBody(s.registry.NextID(), groundTag, physics.LayerDefault, vec.Vec3Float{Y: -5})
		s.world.Add(ground)
		s.registry.Register(ground)
	}
	s.occ = grid.NewOccupancy(s.world, s.registry, 0.1)
	s.col = column.NewCoordinator(s.world, s.registry, s.registry, column.Settings{
		GroundTag:    groundTag,
		LockDistance: 20,
		LockDuration: 0.75,
		CastRadius:   0.1,
	})
	return s
}

// floor кладёт плиты пола верхом на уровень y-0.5 для x из [fromX, toX]
func (s *stage) floor(y, z float64, fromX, toX int) {
	for x := fromX; x <= toX; x++ {
		body := physics.NewBody(s.registry.NextID(), physics.TagFloor, physics.LayerSolid, vec.Vec3Float{X: float64(x), Y: y - 1, Z: z})
		s.world.Add(body)
		s.registry.Register(body)
	}
}

func (s *stage) block(pos vec.Vec3Float, opts ...block.Option) *block.Block {
	body := physics.NewBody(s.registry.NextID(), physics.TagBlock, physics.LayerSolid, pos)
	s.world.Add(body)
	b := block.New(body, s.world, block.DefaultTiming(), opts...)
	s.registry.RegisterOwned(body, b)
	s.blocks = append(s.blocks, b)
	return b
}

func (s *stage) player(name string, pos vec.Vec3Float, opts ...Option) *Controller {
	body := physics.NewBody(s.registry.NextID(), physics.TagPlayer, physics.LayerPlayer, pos)
	body.Collider = physics.NewBoxCollider(1, 1, 1)
	sensor := physics.NewBoxCollider(0.8, 0.9, 0.8)
	body.Sensor = &sensor
	s.world.Add(body)
	s.registry.Register(body)

	opts = append([]Option{
		WithFacing(vec.Right),
		WithWallNotifier(wall.NotifierFunc(func(c vec.Vec2) { s.notified = append(s.notified, c) })),
	}, opts...)
	c := New(name, body, s.world, s.occ, s.col, opts...)
	s.world.AddListener(body.ID, c)
	s.players = append(s.players, c)
	return c
}

// run прогоняет seconds игрового времени кадрами frame
func (s *stage) run(seconds float64, observe func()) {
	for i := 0; i < int(seconds/frame+0.5); i++ {
		for _, p := range s.players {
			p.Update(frame)
		}
		for _, b := range s.blocks {
			b.Update(frame)
		}
		for _, p := range s.players {
			p.FixedUpdate()
		}
		s.world.Step(frame)
		for _, b := range s.blocks {
			b.AfterPhysicsStep()
		}
		if observe != nil {
			observe()
		}
	}
}

func TestMove_IntoOpenCell(t *testing.T) {
	s := newStage(t, true)
	s.floor(0, 0, 0, 2)
	p := s.player("p1", vec.Vec3Float{})

	require.True(t, p.Move(vec.Right))
	assert.Equal(t, StateMoving, p.State())
	assert.True(t, p.Body().IsKinematic(), "во время сдвига тело кинематическое")

	maxY := 0.0
	s.run(0.5, func() {
		if y := p.Position().Y; y > maxY {
			maxY = y
		}
	})

	assert.Equal(t, vec.Vec3Float{X: 1}, p.Position())
	assert.Equal(t, StateIdle, p.State())
	assert.False(t, p.FallPending())
	assert.Zero(t, maxY, "прыжка не было")
	assert.False(t, p.Body().IsKinematic())
}

func TestMove_JumpsOntoObstacle(t *testing.T) {
	s := newStage(t, true)
	s.floor(0, 0, 0, 2)
	s.block(vec.Vec3Float{X: 1})
	p := s.player("p1", vec.Vec3Float{})

	require.True(t, p.Move(vec.Right))
	s.run(0.5, nil)

	assert.Equal(t, vec.Vec3Float{X: 1, Y: 1}, p.Position())
	assert.Equal(t, StateIdle, p.State())
}

func TestMove_BlockedTwiceIsDropped(t *testing.T) {
	s := newStage(t, true)
	s.floor(0, 0, 0, 2)
	s.block(vec.Vec3Float{X: -1})
	s.block(vec.Vec3Float{X: -1, Y: 1})
	p := s.player("p1", vec.Vec3Float{})

	assert.False(t, p.Move(vec.Left))
	assert.Equal(t, vec.Left, p.Facing(), "взгляд поворачивается даже при отказе")
	assert.Equal(t, StateIdle, p.State())
	assert.Equal(t, vec.Vec3Float{}, p.Position())
}

func TestMove_FirstIntentWins(t *testing.T) {
	s := newStage(t, true)
	s.floor(0, 0, -2, 2)
	rec := newRecorder()
	p := s.player("p1", vec.Vec3Float{}, WithRecorder(rec))

	require.True(t, p.Move(vec.Right))
	assert.False(t, p.Move(vec.Left), "во время движения команды отбрасываются")
	assert.False(t, p.TryPushBlock())
	s.run(0.1, nil)
	assert.False(t, p.Move(vec.Left))

	s.run(0.4, nil)
	assert.Equal(t, vec.Vec3Float{X: 1}, p.Position())
	assert.Equal(t, 1, rec.accepted[IntentMove])
	assert.Equal(t, 2, rec.dropped[IntentMove])
	assert.Equal(t, 1, rec.dropped[IntentPush])
}

func TestMove_VerticalDirectionKeepsFacing(t *testing.T) {
	s := newStage(t, true)
	s.floor(0, 0, 0, 1)
	p := s.player("p1", vec.Vec3Float{})

	assert.False(t, p.Move(vec.Up))
	assert.Equal(t, vec.Right, p.Facing())
}

func TestPush_LocksColumnAndNotifiesWall(t *testing.T) {
	s := newStage(t, true)
	s.floor(0, 0, 0, 2)
	pushed := s.block(vec.Vec3Float{X: 1}, block.WithWall(vec.Vec3Float{}))
	lower := s.block(vec.Vec3Float{X: 1, Y: 1}, block.WithWall(vec.Vec3Float{}))
	upper := s.block(vec.Vec3Float{X: 1, Y: 2}, block.WithWall(vec.Vec3Float{}))
	rec := newRecorder()
	p := s.player("p1", vec.Vec3Float{}, WithRecorder(rec))

	require.True(t, p.TryPushBlock())

	assert.True(t, lower.IsLocked(), "колонна блокируется до начала сдвига")
	assert.True(t, upper.IsLocked())
	assert.False(t, pushed.IsLocked(), "сдвигаемый блок не блокируется")
	assert.Equal(t, []vec.Vec2{{X: 1, Y: 0}}, s.notified)
	assert.Equal(t, 1, rec.columns)
	assert.Equal(t, StateMoving, p.State())

	s.run(0.3, nil)
	assert.Equal(t, vec.Vec3Float{X: 2}, pushed.Position())
	assert.Equal(t, vec.Vec3Float{}, p.Position(), "игрок при толкании стоит на месте")
	assert.Equal(t, StateIdle, p.State())

	s.run(3, nil)
	assert.Equal(t, vec.Vec3Float{X: 1}, lower.Position(), "стопка опускается в освобождённую ячейку")
	assert.Equal(t, vec.Vec3Float{X: 1, Y: 1}, upper.Position())
	for _, b := range []*block.Block{pushed, lower, upper} {
		assert.Equal(t, block.StateAtRest, b.State())
		assert.True(t, b.Position().IsGridAligned())
	}
	assert.Len(t, s.notified, 1, "уведомление отправляется ровно один раз")
}

func TestPush_LockedBlockHasNoEffects(t *testing.T) {
	s := newStage(t, true)
	s.floor(0, 0, 0, 2)
	target := s.block(vec.Vec3Float{X: 1}, block.WithWall(vec.Vec3Float{}))
	above := s.block(vec.Vec3Float{X: 1, Y: 1}, block.WithWall(vec.Vec3Float{}))
	rec := newRecorder()
	p := s.player("p1", vec.Vec3Float{}, WithRecorder(rec))

	target.SetLockedForDuration(1.0)
	assert.False(t, p.TryPushBlock())

	assert.Equal(t, vec.Vec3Float{X: 1}, target.Position())
	assert.Empty(t, s.notified)
	assert.False(t, above.IsLocked(), "колонна не блокируется")
	assert.Zero(t, rec.columns)
	assert.Zero(t, s.occ.Reservations().Len())
	assert.Equal(t, StateIdle, p.State())

	s.run(0.5, nil)
	assert.Equal(t, vec.Vec3Float{X: 1}, target.Position())
}

func TestPush_RequiresOpenCellBeyond(t *testing.T) {
	s := newStage(t, true)
	s.floor(0, 0, 0, 2)
	target := s.block(vec.Vec3Float{X: 1})
	s.block(vec.Vec3Float{X: 2})
	p := s.player("p1", vec.Vec3Float{})

	assert.False(t, p.TryPushBlock())
	assert.False(t, p.TryPushBlock(), "отказ повторяем")
	assert.Equal(t, vec.Vec3Float{X: 1}, target.Position())
	assert.False(t, p.TryPushBlock())
}

func TestPush_NothingInFront(t *testing.T) {
	s := newStage(t, true)
	s.floor(0, 0, 0, 2)
	p := s.player("p1", vec.Vec3Float{})

	assert.False(t, p.TryPushBlock())
	assert.False(t, p.TryPullBlock())
}

func TestPush_OffsetWallRowIsNotReported(t *testing.T) {
	s := newStage(t, true)
	s.floor(0, 1, 0, 2)
	target := s.block(vec.Vec3Float{X: 1, Z: 1}, block.WithWall(vec.Vec3Float{}))
	p := s.player("p1", vec.Vec3Float{Z: 1})

	require.True(t, p.TryPushBlock())
	s.run(0.3, nil)

	assert.Equal(t, vec.Vec3Float{X: 2, Z: 1}, target.Position())
	assert.Empty(t, s.notified, "уведомляются только блоки исходного ряда z=0")
}

func TestPush_WithoutGroundReferenceStillMoves(t *testing.T) {
	s := newStage(t, false)
	s.floor(0, 0, 0, 2)
	target := s.block(vec.Vec3Float{X: 1})
	above := s.block(vec.Vec3Float{X: 1, Y: 1})
	rec := newRecorder()
	p := s.player("p1", vec.Vec3Float{}, WithRecorder(rec))

	require.True(t, p.TryPushBlock())
	assert.False(t, above.IsLocked())
	assert.Zero(t, rec.columns)

	s.run(0.3, nil)
	assert.Equal(t, vec.Vec3Float{X: 2}, target.Position())
}

func TestPull_BlockFollowsPlayerUp(t *testing.T) {
	s := newStage(t, true)
	s.floor(0, 0, 0, 1)
	target := s.block(vec.Vec3Float{X: 1})
	p := s.player("p1", vec.Vec3Float{})

	require.True(t, p.TryPullBlock())
	assert.Equal(t, StateMoving, p.State())

	s.run(0.5, nil)
	assert.Equal(t, vec.Vec3Float{}, target.Position())
	assert.Equal(t, vec.Vec3Float{Y: 1}, p.Position(), "игрок стоит на вытянутом блоке")
	assert.Equal(t, StateIdle, p.State())
	assert.Equal(t, block.StateAtRest, target.State())
	assert.Zero(t, s.occ.Reservations().Len(), "резервы сняты по завершении")
}

func TestPull_RequiresHeadroom(t *testing.T) {
	s := newStage(t, true)
	s.floor(0, 0, 0, 1)
	target := s.block(vec.Vec3Float{X: 1})
	s.block(vec.Vec3Float{Y: 1})
	p := s.player("p1", vec.Vec3Float{})

	assert.False(t, p.TryPullBlock())
	assert.Equal(t, vec.Vec3Float{X: 1}, target.Position())
}

func TestPull_LockedBlockRefused(t *testing.T) {
	s := newStage(t, true)
	s.floor(0, 0, 0, 1)
	target := s.block(vec.Vec3Float{X: 1})
	p := s.player("p1", vec.Vec3Float{})

	target.MakeFallAfterDelay(10)
	assert.False(t, p.TryPullBlock())
	assert.Equal(t, vec.Vec3Float{}, p.Position())
}

func TestExtended_FallsIntoEmptyCell(t *testing.T) {
	s := newStage(t, true)
	s.floor(0, 0, 0, 0)
	s.floor(-1, 0, 1, 1) // ступенька вниз
	p := s.player("p1", vec.Vec3Float{})

	require.True(t, p.Move(vec.Right))
	assert.True(t, p.FallPending(), "падение обнаруживается при старте хода")

	s.run(0.26, nil)
	require.Equal(t, StateFalling, p.State())
	assert.False(t, p.Move(vec.Left), "во время падения команды отбрасываются")
	assert.False(t, p.TryPushBlock())
	assert.False(t, p.TryPullBlock())

	s.run(1, nil)
	assert.Equal(t, StateIdle, p.State(), "контакт с опорой снизу завершает падение")
	assert.Equal(t, vec.Vec3Float{X: 1, Y: -1}, p.Position())
}

func TestBasic_HasNoFallingState(t *testing.T) {
	s := newStage(t, true)
	s.floor(0, 0, 0, 0)
	s.floor(-1, 0, 1, 1)
	p := s.player("p1", vec.Vec3Float{}, WithVariant(VariantBasic))

	require.True(t, p.Move(vec.Right))
	assert.False(t, p.FallPending())

	states := map[State]bool{}
	s.run(2, func() { states[p.State()] = true })
	assert.False(t, states[StateFalling])
	assert.Equal(t, StateIdle, p.State())
	assert.Equal(t, vec.Vec3Float{X: 1, Y: -1}, p.Position(), "падение выполняет физика")
}

func TestFixedUpdate_ExtendedAddsGravity(t *testing.T) {
	s := newStage(t, true)
	extended := s.player("ext", vec.Vec3Float{Y: 10})
	basic := s.player("basic", vec.Vec3Float{X: 5, Y: 10}, WithVariant(VariantBasic))

	s.run(frame, nil)
	assert.Less(t, extended.Body().Velocity().Y, basic.Body().Velocity().Y)
	assert.InDelta(t, -9.81*frame, basic.Body().Velocity().Y, 1e-9)
}

func TestTrigger_FallingBlockCrushesPlayer(t *testing.T) {
	s := newStage(t, true)
	s.floor(0, 0, 0, 1)
	falling := s.block(vec.Vec3Float{Y: 2})
	rec := newRecorder()

	var reasons []string
	p := s.player("p1", vec.Vec3Float{}, WithRecorder(rec), WithEliminationHandler(func(c *Controller, reason string) {
		reasons = append(reasons, reason)
	}))

	falling.MakeFallImmediately()
	s.run(3, nil)

	assert.Equal(t, StateEliminated, p.State())
	assert.True(t, p.Body().Removed(), "тело удалено из физики")
	assert.Equal(t, []string{ReasonCrushed}, reasons)
	assert.Equal(t, []string{ReasonCrushed}, rec.eliminated)
	assert.False(t, p.Move(vec.Right))
	assert.Equal(t, vec.Vec3Float{}, falling.Position(), "блок занимает ячейку игрока")
}

func TestTrigger_SideBlockDoesNotCrush(t *testing.T) {
	s := newStage(t, true)
	s.floor(0, 0, 0, 1)
	p := s.player("p1", vec.Vec3Float{})

	p.OnTriggerEnter(physics.NewBody(999, physics.TagBlock, physics.LayerSolid, vec.Vec3Float{X: 0.6, Y: 1}))
	p.OnTriggerEnter(physics.NewBody(998, physics.TagFloor, physics.LayerSolid, vec.Vec3Float{Y: 1}))
	p.OnTriggerEnter(physics.NewBody(997, physics.TagBlock, physics.LayerSolid, vec.Vec3Float{Y: -1}))
	assert.Equal(t, StateIdle, p.State())
}

func TestReservations_TwoPlayersSameCell(t *testing.T) {
	s := newStage(t, true)
	s.floor(0, 0, 0, 2)
	a := s.player("a", vec.Vec3Float{})
	b := s.player("b", vec.Vec3Float{X: 2})

	require.True(t, a.Move(vec.Right))
	assert.False(t, b.Move(vec.Left), "ячейка уже обещана первому игроку")

	s.run(0.5, nil)
	assert.Equal(t, vec.Vec3Float{X: 1}, a.Position())
	assert.Equal(t, vec.Vec3Float{X: 2}, b.Position())
	assert.Zero(t, s.occ.Reservations().Len())
}

func TestReservations_SameBlockPushedOnce(t *testing.T) {
	s := newStage(t, true)
	s.floor(0, 0, 0, 2)
	s.floor(0, 1, 1, 1)
	s.floor(0, -1, 1, 1)
	target := s.block(vec.Vec3Float{X: 1})
	a := s.player("a", vec.Vec3Float{})
	b := s.player("b", vec.Vec3Float{X: 1, Z: -1}, WithFacing(vec.Forward))

	require.True(t, a.TryPushBlock())
	assert.False(t, b.TryPushBlock(), "блок уже сдвигает другой игрок")

	s.run(0.5, nil)
	assert.Equal(t, vec.Vec3Float{X: 2}, target.Position())
}

func TestOccupancy_IdlePlayerBlocksMove(t *testing.T) {
	s := newStage(t, true)
	s.floor(0, 0, 0, 2)
	a := s.player("a", vec.Vec3Float{X: 1})
	b := s.player("b", vec.Vec3Float{})

	assert.False(t, b.Move(vec.Right), "ячейка занята стоящим игроком, запрыгнуть на него нельзя")
	s.run(0.5, nil)

	assert.Equal(t, vec.Vec3Float{X: 1}, a.Position())
	assert.Equal(t, vec.Vec3Float{}, b.Position())
	assert.Equal(t, StateIdle, b.State())
}

func TestOccupancy_StepOntoPlayerIsDropped(t *testing.T) {
	s := newStage(t, true)
	s.floor(0, 0, 0, 1)
	s.block(vec.Vec3Float{})
	a := s.player("a", vec.Vec3Float{X: 1})
	b := s.player("b", vec.Vec3Float{Y: 1})

	assert.False(t, b.Move(vec.Right), "игрок не опора")
	s.run(0.5, nil)

	assert.Equal(t, vec.Vec3Float{X: 1}, a.Position())
	assert.Equal(t, vec.Vec3Float{Y: 1}, b.Position())
}

func TestOccupancy_PushOntoIdlePlayerIsDropped(t *testing.T) {
	s := newStage(t, true)
	s.floor(0, 0, 0, 2)
	target := s.block(vec.Vec3Float{X: 1})
	a := s.player("a", vec.Vec3Float{X: 2})
	b := s.player("b", vec.Vec3Float{})

	assert.False(t, b.TryPushBlock())
	s.run(0.5, nil)

	assert.Equal(t, vec.Vec3Float{X: 1}, target.Position())
	assert.False(t, target.IsLocked(), "отброшенный толчок не блокирует колонну")
	assert.Equal(t, vec.Vec3Float{X: 2}, a.Position())
	assert.Equal(t, StateIdle, a.State())
	assert.Empty(t, s.notified)
}
