package physics

import "github.com/annel0/blockpush/internal/vec"

// Теги сцены
const (
	TagBlock  = "Block"
	TagPlayer = "Player"
	TagFloor  = "Floor"
	TagWall   = "Wall"
	TagHole   = "Hole"
)

// Body твёрдое тело сцены: позиция центра, скорость и коллайдер
type Body struct {
	ID       uint64
	Name     string
	Tag      string
	Layer    Layer
	Collider BoxCollider
	Mass     float64

	// Sensor необязательный объём-триггер вокруг центра тела; в коллизиях не участвует
	Sensor *BoxCollider

	position  vec.Vec3Float
	velocity  vec.Vec3Float
	kinematic bool
	removed   bool
}

// NewBody создаёт кинематическое тело единичного размера
func NewBody(id uint64, tag string, layer Layer, position vec.Vec3Float) *Body {
	return &Body{
		ID:        id,
		Tag:       tag,
		Layer:     layer,
		Collider:  UnitCollider(),
		Mass:      1,
		position:  position,
		kinematic: true,
	}
}

// Position возвращает позицию центра тела
func (b *Body) Position() vec.Vec3Float { return b.position }

// SetPosition перемещает тело напрямую (используется интерполяцией движения)
func (b *Body) SetPosition(p vec.Vec3Float) { b.position = p }

// Velocity возвращает текущую скорость тела
func (b *Body) Velocity() vec.Vec3Float { return b.velocity }

// IsKinematic true, если тело не подчиняется гравитации
func (b *Body) IsKinematic() bool { return b.kinematic }

// Removed true, если тело удалено из мира
func (b *Body) Removed() bool { return b.removed }

// Bounds возвращает AABB коллайдера в текущей позиции
func (b *Body) Bounds() AABB {
	return b.Collider.Bounds(b.position)
}

// SensorBounds возвращает AABB триггера; ok=false если триггера нет
func (b *Body) SensorBounds() (AABB, bool) {
	if b.Sensor == nil {
		return AABB{}, false
	}
	return b.Sensor.Bounds(b.position), true
}
