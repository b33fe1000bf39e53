package motion

import (
	"testing"

	"github.com/annel0/blockpush/internal/vec"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type point struct {
	p vec.Vec3Float
}

func (pt *point) Position() vec.Vec3Float     { return pt.p }
func (pt *point) SetPosition(p vec.Vec3Float) { pt.p = p }

func TestEase_FrontLoaded(t *testing.T) {
	assert.Equal(t, 0.0, Ease(0))
	assert.Equal(t, 1.0, Ease(1))
	assert.InDelta(t, 0.7071, Ease(0.25), 1e-4, "к четверти времени пройдено ~71% пути")
	assert.Equal(t, 1.0, Ease(2), "прогресс ограничен единицей")
}

func TestSlide_LockStepAndSnap(t *testing.T) {
	a := &point{p: vec.Vec3Float{X: 0, Y: 0, Z: 0}}
	b := &point{p: vec.Vec3Float{X: 5, Y: 1, Z: 2}}
	delta := vec.Vec3Float{X: 1}

	s := NewSlide(0.25, delta, a, b)

	done := s.Tick(1.0 / 60)
	require.False(t, done)
	assert.Greater(t, a.p.X, 0.4, "первый кадр уже проходит большую часть пути")
	assert.InDelta(t, a.p.X, b.p.X-5, 1e-12, "цели движутся синхронно")

	steps := 1
	for !s.Tick(1.0 / 60) {
		steps++
		require.Less(t, steps, 100)
	}

	assert.Equal(t, vec.Vec3Float{X: 1}, a.p, "на завершении позиция ровно start+delta")
	assert.Equal(t, vec.Vec3Float{X: 6, Y: 1, Z: 2}, b.p)
	assert.True(t, s.Done())
	assert.True(t, s.Tick(1), "завершённый сдвиг больше не двигает цели")
	assert.Equal(t, vec.Vec3Float{X: 1}, a.p)
}

func TestSlide_NeverOvershoots(t *testing.T) {
	a := &point{}
	s := NewSlide(0.25, vec.Up, a)

	for !s.Tick(0.1) {
		assert.LessOrEqual(t, a.p.Y, 1.0)
	}
	assert.Equal(t, 1.0, a.p.Y)
}

func TestSlide_Destination(t *testing.T) {
	a := &point{p: vec.Vec3Float{Z: 3}}
	other := &point{}
	s := NewSlide(0.25, vec.Forward, a)

	dst, ok := s.Destination(a)
	assert.True(t, ok)
	assert.Equal(t, vec.Vec3Float{Z: 4}, dst)
	assert.True(t, s.Moves(a))

	_, ok = s.Destination(other)
	assert.False(t, ok)
}

func TestFade_LinearAndFinal(t *testing.T) {
	lerp := func(from, to float64, t float64) float64 { return from + (to-from)*t }
	f := NewFade(0.0, 10.0, 0.2, lerp)

	v, done := f.Tick(0.1)
	assert.False(t, done)
	assert.InDelta(t, 5.0, v, 1e-9)

	v, done = f.Tick(0.1)
	assert.False(t, done, "при t == duration переход ещё не завершён")
	assert.InDelta(t, 10.0, v, 1e-9)

	v, done = f.Tick(0.01)
	assert.True(t, done)
	assert.Equal(t, 10.0, v)
}
