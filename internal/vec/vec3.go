package vec

import "math"

// Epsilon допуск для сравнения координат с плавающей точкой
const Epsilon = 1e-6

// Vec3 представляет трехмерный вектор с целочисленными координатами (ячейка сетки)
type Vec3 struct {
	X int
	Y int
	Z int
}

// Vec3Float представляет трехмерный вектор с плавающими координатами
type Vec3Float struct {
	X float64
	Y float64
	Z float64
}

// Стандартные направления
var (
	Zero    = Vec3Float{}
	Up      = Vec3Float{Y: 1}
	Down    = Vec3Float{Y: -1}
	Forward = Vec3Float{Z: 1}
	Back    = Vec3Float{Z: -1}
	Right   = Vec3Float{X: 1}
	Left    = Vec3Float{X: -1}
)

// Equals проверяет равенство векторов
func (v Vec3) Equals(other Vec3) bool {
	return v.X == other.X && v.Y == other.Y && v.Z == other.Z
}

// Add складывает два вектора
func (v Vec3) Add(other Vec3) Vec3 {
	return Vec3{
		X: v.X + other.X,
		Y: v.Y + other.Y,
		Z: v.Z + other.Z,
	}
}

// ToFloat переводит ячейку в мировые координаты её центра
func (v Vec3) ToFloat() Vec3Float {
	return Vec3Float{X: float64(v.X), Y: float64(v.Y), Z: float64(v.Z)}
}

// XZ возвращает проекцию ячейки на плоскость колонн
func (v Vec3) XZ() Vec2 {
	return Vec2{X: v.X, Y: v.Z}
}

// Add складывает два вектора
func (v Vec3Float) Add(other Vec3Float) Vec3Float {
	return Vec3Float{X: v.X + other.X, Y: v.Y + other.Y, Z: v.Z + other.Z}
}

// Sub вычитает вектор
func (v Vec3Float) Sub(other Vec3Float) Vec3Float {
	return Vec3Float{X: v.X - other.X, Y: v.Y - other.Y, Z: v.Z - other.Z}
}

// Scale умножает вектор на скаляр
func (v Vec3Float) Scale(s float64) Vec3Float {
	return Vec3Float{X: v.X * s, Y: v.Y * s, Z: v.Z * s}
}

// Neg возвращает противоположный вектор
func (v Vec3Float) Neg() Vec3Float {
	return v.Scale(-1)
}

// Length возвращает длину вектора
func (v Vec3Float) Length() float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z)
}

// Normalized возвращает нормализованный вектор
func (v Vec3Float) Normalized() Vec3Float {
	length := v.Length()
	if length == 0 {
		return Vec3Float{}
	}
	return v.Scale(1 / length)
}

// ProjectOnPlaneY убирает вертикальную составляющую (проекция на горизонтальную плоскость)
func (v Vec3Float) ProjectOnPlaneY() Vec3Float {
	return Vec3Float{X: v.X, Z: v.Z}
}

// IsZero проверяет, что вектор нулевой с учётом допуска
func (v Vec3Float) IsZero() bool {
	return v.ApproxEquals(Vec3Float{})
}

// Lerp линейно интерполирует между v и target; t ограничивается отрезком [0, 1]
func (v Vec3Float) Lerp(target Vec3Float, t float64) Vec3Float {
	if t < 0 {
		t = 0
	} else if t > 1 {
		t = 1
	}
	return Vec3Float{
		X: v.X + (target.X-v.X)*t,
		Y: v.Y + (target.Y-v.Y)*t,
		Z: v.Z + (target.Z-v.Z)*t,
	}
}

// RoundToInt округляет каждую координату до ближайшего целого
func (v Vec3Float) RoundToInt() Vec3Float {
	return Vec3Float{X: math.Round(v.X), Y: math.Round(v.Y), Z: math.Round(v.Z)}
}

// Cell возвращает ячейку сетки, в которой находится точка
func (v Vec3Float) Cell() Vec3 {
	r := v.RoundToInt()
	return Vec3{X: int(r.X), Y: int(r.Y), Z: int(r.Z)}
}

// IsGridAligned проверяет, что все координаты целые
func (v Vec3Float) IsGridAligned() bool {
	return v.ApproxEquals(v.RoundToInt())
}

// ApproxEquals сравнивает векторы с допуском Epsilon
func (v Vec3Float) ApproxEquals(other Vec3Float) bool {
	return math.Abs(v.X-other.X) < Epsilon &&
		math.Abs(v.Y-other.Y) < Epsilon &&
		math.Abs(v.Z-other.Z) < Epsilon
}
