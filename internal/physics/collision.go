package physics

import (
	"math"

	"github.com/annel0/blockpush/internal/vec"
)

// overlapEpsilon касание граней не считается пересечением
const overlapEpsilon = 1e-4

// BoxCollider представляет простой прямоугольный коллайдер, центрированный на позиции тела
type BoxCollider struct {
	Size vec.Vec3Float // Размер в блоках
}

// NewBoxCollider создаёт новый коллайдер с указанными размерами
func NewBoxCollider(width, height, depth float64) BoxCollider {
	return BoxCollider{Size: vec.Vec3Float{X: width, Y: height, Z: depth}}
}

// UnitCollider коллайдер одной ячейки сетки
func UnitCollider() BoxCollider {
	return NewBoxCollider(1, 1, 1)
}

// Bounds возвращает AABB коллайдера с центром в указанной точке
func (bc BoxCollider) Bounds(center vec.Vec3Float) AABB {
	half := bc.Size.Scale(0.5)
	return AABB{Min: center.Sub(half), Max: center.Add(half)}
}

// AABB ограничивающий параллелепипед, выровненный по осям
type AABB struct {
	Min vec.Vec3Float
	Max vec.Vec3Float
}

// IsPointInside проверяет, находится ли точка внутри коробки
func (b AABB) IsPointInside(p vec.Vec3Float) bool {
	return p.X >= b.Min.X && p.X <= b.Max.X &&
		p.Y >= b.Min.Y && p.Y <= b.Max.Y &&
		p.Z >= b.Min.Z && p.Z <= b.Max.Z
}

// Intersects проверяет пересечение двух коробок (касание гранями не считается)
func (b AABB) Intersects(o AABB) bool {
	return b.Min.X < o.Max.X-overlapEpsilon && b.Max.X > o.Min.X+overlapEpsilon &&
		b.Min.Y < o.Max.Y-overlapEpsilon && b.Max.Y > o.Min.Y+overlapEpsilon &&
		b.Min.Z < o.Max.Z-overlapEpsilon && b.Max.Z > o.Min.Z+overlapEpsilon
}

// OverlapsFootprint проверяет пересечение проекций на плоскость XZ
func (b AABB) OverlapsFootprint(o AABB) bool {
	return b.Min.X < o.Max.X-overlapEpsilon && b.Max.X > o.Min.X+overlapEpsilon &&
		b.Min.Z < o.Max.Z-overlapEpsilon && b.Max.Z > o.Min.Z+overlapEpsilon
}

// IntersectsSphere проверяет пересечение коробки со сферой
func (b AABB) IntersectsSphere(center vec.Vec3Float, radius float64) bool {
	closest := vec.Vec3Float{
		X: clamp(center.X, b.Min.X, b.Max.X),
		Y: clamp(center.Y, b.Min.Y, b.Max.Y),
		Z: clamp(center.Z, b.Min.Z, b.Max.Z),
	}
	d := closest.Sub(center)
	return d.X*d.X+d.Y*d.Y+d.Z*d.Z <= radius*radius
}

// RayEntry возвращает расстояние до точки входа луча в коробку (метод плит).
// dir должен быть нормализован. Луч, начинающийся внутри коробки, её не пересекает.
func (b AABB) RayEntry(origin, dir vec.Vec3Float, maxDistance float64) (float64, bool) {
	tMin := math.Inf(-1)
	tMax := math.Inf(1)

	axes := [3][4]float64{
		{origin.X, dir.X, b.Min.X, b.Max.X},
		{origin.Y, dir.Y, b.Min.Y, b.Max.Y},
		{origin.Z, dir.Z, b.Min.Z, b.Max.Z},
	}

	for _, a := range axes {
		o, d, lo, hi := a[0], a[1], a[2], a[3]
		if math.Abs(d) < 1e-12 {
			// Луч параллелен плитам: должен лежать строго между ними
			if o <= lo || o >= hi {
				return 0, false
			}
			continue
		}
		t1 := (lo - o) / d
		t2 := (hi - o) / d
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		tMin = math.Max(tMin, t1)
		tMax = math.Min(tMax, t2)
	}

	if tMax < tMin || tMin < 0 || tMin > maxDistance {
		return 0, false
	}
	return tMin, true
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
