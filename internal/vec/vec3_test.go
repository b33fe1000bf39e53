package vec

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVec3Float_Lerp(t *testing.T) {
	a := Vec3Float{X: 0, Y: 0, Z: 0}
	b := Vec3Float{X: 2, Y: -4, Z: 1}

	assert.Equal(t, a, a.Lerp(b, 0), "t=0 должен вернуть начало")
	assert.Equal(t, b, a.Lerp(b, 1), "t=1 должен вернуть конец")
	assert.Equal(t, Vec3Float{X: 1, Y: -2, Z: 0.5}, a.Lerp(b, 0.5))

	// Выход за границы ограничивается
	assert.Equal(t, b, a.Lerp(b, 3), "t>1 не должен давать перелёт")
	assert.Equal(t, a, a.Lerp(b, -1), "t<0 не должен давать откат")
}

func TestVec3Float_RoundAndAlign(t *testing.T) {
	v := Vec3Float{X: 0.9999999, Y: -1.4, Z: 2.5}

	assert.Equal(t, Vec3Float{X: 1, Y: -1, Z: 3}, v.RoundToInt())
	assert.Equal(t, Vec3{X: 1, Y: -1, Z: 3}, v.Cell())
	assert.False(t, v.IsGridAligned())
	assert.True(t, Vec3Float{X: 3, Y: 0, Z: -2}.IsGridAligned())
}

func TestVec3Float_ProjectOnPlaneY(t *testing.T) {
	d := Vec3Float{X: 1, Y: 1, Z: 0}
	assert.Equal(t, Right, d.ProjectOnPlaneY())
	assert.True(t, Up.ProjectOnPlaneY().IsZero(), "вертикальный вектор проецируется в ноль")
}

func TestVec3_Conversions(t *testing.T) {
	c := Vec3{X: 3, Y: 2, Z: -1}

	assert.Equal(t, Vec3Float{X: 3, Y: 2, Z: -1}, c.ToFloat())
	assert.Equal(t, Vec2{X: 3, Y: -1}, c.XZ())
	assert.True(t, c.Add(Vec3{Y: 1}).Equals(Vec3{X: 3, Y: 3, Z: -1}))
}
