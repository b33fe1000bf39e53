package grid

import (
	"errors"
	"testing"

	"github.com/annel0/blockpush/internal/block"
	"github.com/annel0/blockpush/internal/physics"
	"github.com/annel0/blockpush/internal/scene"
	"github.com/annel0/blockpush/internal/vec"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	world    *physics.GridWorld
	registry *scene.Registry[*block.Block]
	occ      *Occupancy
}

func newFixture() *fixture {
	w := physics.NewGridWorld(physics.DefaultGravity)
	r := scene.NewRegistry[*block.Block](1)
	return &fixture{world: w, registry: r, occ: NewOccupancy(w, r, 0.1)}
}

func (f *fixture) addBlock(pos vec.Vec3Float) *block.Block {
	body := physics.NewBody(f.registry.NextID(), physics.TagBlock, physics.LayerSolid, pos)
	f.world.Add(body)
	b := block.New(body, f.world, block.DefaultTiming())
	f.registry.RegisterOwned(body, b)
	return b
}

func TestOccupancy_IsOpen(t *testing.T) {
	f := newFixture()
	f.addBlock(vec.Vec3Float{X: 1})
	f.world.Add(physics.NewBody(f.registry.NextID(), "GarbageCollider", physics.LayerDefault, vec.Vec3Float{X: 2}))

	assert.False(t, f.occ.IsOpen(vec.Vec3Float{X: 1}), "ячейка с блоком закрыта")
	assert.True(t, f.occ.IsOpen(vec.Vec3Float{X: 2}), "маркеры вне слоя Solid не мешают")
	assert.True(t, f.occ.IsOpen(vec.Vec3Float{X: 1, Y: 1}))
}

func TestOccupancy_BlockInFront(t *testing.T) {
	f := newFixture()
	b := f.addBlock(vec.Vec3Float{X: 1})

	got, err := f.occ.BlockInFront(vec.Vec3Float{}, vec.Right)
	require.NoError(t, err)
	assert.Same(t, b, got)

	_, err = f.occ.BlockInFront(vec.Vec3Float{}, vec.Left)
	assert.True(t, errors.Is(err, ErrNoTarget), "пустая ячейка: явная ошибка, а не паника")
}

func TestOccupancy_BlockInFront_NonBlockSolid(t *testing.T) {
	f := newFixture()
	floor := physics.NewBody(f.registry.NextID(), physics.TagFloor, physics.LayerSolid, vec.Vec3Float{Z: 1})
	f.world.Add(floor)
	f.registry.Register(floor)

	_, err := f.occ.BlockInFront(vec.Vec3Float{}, vec.Forward)
	assert.ErrorIs(t, err, ErrNoTarget)
}

func TestOccupancy_BlockInFront_Ambiguous(t *testing.T) {
	f := newFixture()
	f.addBlock(vec.Vec3Float{X: 1})
	f.addBlock(vec.Vec3Float{X: 1})

	_, err := f.occ.BlockInFront(vec.Vec3Float{}, vec.Right)
	assert.ErrorIs(t, err, ErrAmbiguousTarget)
}

func TestReservations_FirstWins(t *testing.T) {
	f := newFixture()
	res := f.occ.Reservations()
	cell := vec.Vec3{X: 1}

	require.True(t, res.Reserve("alice", cell))
	assert.False(t, f.occ.IsOpen(cell.ToFloat()), "зарезервированная ячейка закрыта для всех")
	assert.False(t, res.Reserve("bob", cell, vec.Vec3{X: 2}), "второй актёр получает отказ")

	_, taken := res.Owner(vec.Vec3{X: 2})
	assert.False(t, taken, "неудачный резерв ничего не занимает")
	assert.True(t, res.Reserve("alice", cell), "свой резерв не конфликтует")
	assert.Equal(t, 1, res.Len())

	res.Release("alice")
	assert.True(t, f.occ.IsOpen(cell.ToFloat()))
	assert.True(t, res.Reserve("bob", cell))
}

func TestOccupancy_PlayerOccupiesCell(t *testing.T) {
	f := newFixture()
	f.world.Add(physics.NewBody(f.registry.NextID(), physics.TagPlayer, physics.LayerPlayer, vec.Vec3Float{X: 2}))

	assert.False(t, f.occ.IsOpen(vec.Vec3Float{X: 2}), "стоящий игрок занимает ячейку")
	assert.True(t, f.occ.HasPlayer(vec.Vec3Float{X: 2}))
	assert.False(t, f.occ.HasPlayer(vec.Vec3Float{X: 1}))
	assert.True(t, f.occ.IsOpen(vec.Vec3Float{X: 2, Y: 1}))

	_, err := f.occ.BlockInFront(vec.Vec3Float{X: 1}, vec.Right)
	assert.ErrorIs(t, err, ErrNoTarget, "игрок не цель толчка")
}
