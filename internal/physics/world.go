package physics

import (
	"sort"
	"sync"

	"github.com/annel0/blockpush/internal/vec"
)

// DefaultGravity ускорение свободного падения по умолчанию
const DefaultGravity = -9.81

// layerPair неупорядоченная пара слоёв
type layerPair struct {
	a, b Layer
}

func makePair(a, b Layer) layerPair {
	if a > b {
		a, b = b, a
	}
	return layerPair{a: a, b: b}
}

// GridWorld минимальная физика для блоков единичного размера: только вертикальное
// падение на опору, запросы пересечений и лучей, уведомления о контактах.
type GridWorld struct {
	mu sync.RWMutex

	gravity   float64
	bodies    map[uint64]*Body
	listeners map[uint64]ContactListener
	ignored   map[layerPair]struct{}

	forces   map[uint64]vec.Vec3Float
	supports map[uint64]uint64              // Текущая опора тела
	overlaps map[uint64]map[uint64]struct{} // Тела внутри триггера
}

// NewGridWorld создаёт пустой мир с указанной гравитацией
func NewGridWorld(gravity float64) *GridWorld {
	return &GridWorld{
		gravity:   gravity,
		bodies:    make(map[uint64]*Body),
		listeners: make(map[uint64]ContactListener),
		ignored:   make(map[layerPair]struct{}),
		forces:    make(map[uint64]vec.Vec3Float),
		supports:  make(map[uint64]uint64),
		overlaps:  make(map[uint64]map[uint64]struct{}),
	}
}

// Add добавляет тело в мир
func (w *GridWorld) Add(b *Body) {
	w.mu.Lock()
	defer w.mu.Unlock()
	b.removed = false
	w.bodies[b.ID] = b
}

// Remove реализует Service: тело удаляется вместе со всеми его контактами
func (w *GridWorld) Remove(b *Body) {
	w.mu.Lock()
	defer w.mu.Unlock()

	b.removed = true
	delete(w.bodies, b.ID)
	delete(w.listeners, b.ID)
	delete(w.forces, b.ID)
	delete(w.supports, b.ID)
	delete(w.overlaps, b.ID)
	for id, support := range w.supports {
		if support == b.ID {
			delete(w.supports, id)
		}
	}
	for _, set := range w.overlaps {
		delete(set, b.ID)
	}
}

// Body возвращает тело по ID
func (w *GridWorld) Body(id uint64) (*Body, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	b, ok := w.bodies[id]
	return b, ok
}

// AddListener подписывает слушателя на контакты тела
func (w *GridWorld) AddListener(id uint64, l ContactListener) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.listeners[id] = l
}

// IgnoreLayerCollision отключает коллизии между двумя слоями
func (w *GridWorld) IgnoreLayerCollision(a, b Layer) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.ignored[makePair(a, b)] = struct{}{}
}

// collides проверяет, сталкиваются ли тела указанных слоёв.
// Блоки не опираются на игроков: падающий блок проходит в ячейку игрока и срабатывает триггер.
func (w *GridWorld) collides(moving, other Layer) bool {
	if _, ok := w.ignored[makePair(moving, other)]; ok {
		return false
	}
	switch other {
	case LayerSolid:
		return true
	case LayerHole:
		return moving != LayerPlayer
	default:
		return false
	}
}

// OverlapSphere реализует Service
func (w *GridWorld) OverlapSphere(center vec.Vec3Float, radius float64, mask LayerMask) []*Body {
	w.mu.RLock()
	defer w.mu.RUnlock()

	var result []*Body
	for _, b := range w.sortedBodies() {
		if !mask.Contains(b.Layer) {
			continue
		}
		if b.Bounds().IntersectsSphere(center, radius) {
			result = append(result, b)
		}
	}
	return result
}

// RaycastAll реализует Service
func (w *GridWorld) RaycastAll(origin, direction vec.Vec3Float, maxDistance float64, mask LayerMask) []Hit {
	dir := direction.Normalized()
	if dir.IsZero() {
		return nil
	}

	w.mu.RLock()
	defer w.mu.RUnlock()

	var hits []Hit
	for _, b := range w.sortedBodies() {
		if !mask.Contains(b.Layer) {
			continue
		}
		if dist, ok := b.Bounds().RayEntry(origin, dir, maxDistance); ok {
			hits = append(hits, Hit{Body: b, Distance: dist, Point: origin.Add(dir.Scale(dist))})
		}
	}

	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Distance < hits[j].Distance })
	return hits
}

// SetKinematic реализует Service
func (w *GridWorld) SetKinematic(b *Body, kinematic bool) {
	w.mu.Lock()
	defer w.mu.Unlock()

	b.kinematic = kinematic
	if kinematic {
		b.velocity = vec.Vec3Float{}
		delete(w.supports, b.ID)
		delete(w.forces, b.ID)
	}
}

// AddForce реализует Service
func (w *GridWorld) AddForce(b *Body, force vec.Vec3Float) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.forces[b.ID] = w.forces[b.ID].Add(force)
}

// IsSupported true, если динамическое тело стоит на опоре
func (w *GridWorld) IsSupported(b *Body) bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	_, ok := w.supports[b.ID]
	return ok
}

type pendingContact struct {
	listener ContactListener
	c        Collision
}

type pendingTrigger struct {
	listener ContactListener
	other    *Body
}

// Step продвигает симуляцию на dt секунд.
// Уведомления слушателям рассылаются после снятия блокировки мира.
func (w *GridWorld) Step(dt float64) {
	w.mu.Lock()

	var contacts []pendingContact
	var triggers []pendingTrigger

	// Снизу вверх: верхнее тело видит уже обновлённое состояние нижнего
	dynamic := make([]*Body, 0)
	for _, b := range w.sortedBodies() {
		if !b.kinematic {
			dynamic = append(dynamic, b)
		}
	}
	sort.SliceStable(dynamic, func(i, j int) bool {
		return dynamic[i].position.Y < dynamic[j].position.Y
	})

	for _, b := range dynamic {
		mass := b.Mass
		if mass <= 0 {
			mass = 1
		}
		force := w.forces[b.ID]
		accel := w.gravity + force.Y/mass

		b.velocity = vec.Vec3Float{Y: b.velocity.Y + accel*dt}
		newY := b.position.Y + b.velocity.Y*dt

		prevSupport, hadSupport := w.supports[b.ID]
		delete(w.supports, b.ID)

		if b.velocity.Y < 0 {
			if support, top, ok := w.findSupport(b, newY); ok {
				newY = top + b.Collider.Size.Y/2
				b.velocity = vec.Vec3Float{}
				w.supports[b.ID] = support.ID

				if !hadSupport || prevSupport != support.ID {
					if l, ok := w.listeners[b.ID]; ok {
						contacts = append(contacts, pendingContact{l, Collision{Body: b, Other: support}})
					}
					if l, ok := w.listeners[support.ID]; ok {
						contacts = append(contacts, pendingContact{l, Collision{Body: support, Other: b}})
					}
				}
			}
		}

		b.position.Y = newY
	}

	for id := range w.forces {
		delete(w.forces, id)
	}

	triggers = w.updateSensors()
	w.mu.Unlock()

	for _, p := range contacts {
		p.listener.OnCollisionEnter(p.c)
	}
	for _, p := range triggers {
		p.listener.OnTriggerEnter(p.other)
	}
}

// findSupport ищет самую высокую опору, верх которой лежит между новым и текущим низом тела.
// Падающее динамическое тело опорой не считается.
func (w *GridWorld) findSupport(b *Body, newY float64) (*Body, float64, bool) {
	half := b.Collider.Size.Y / 2
	curBottom := b.position.Y - half
	newBottom := newY - half
	bounds := b.Bounds()

	var best *Body
	bestTop := 0.0
	for _, other := range w.sortedBodies() {
		if other.ID == b.ID || !w.collides(b.Layer, other.Layer) {
			continue
		}
		if !other.kinematic {
			if _, resting := w.supports[other.ID]; !resting {
				continue
			}
		}
		ob := other.Bounds()
		if !bounds.OverlapsFootprint(ob) {
			continue
		}
		top := ob.Max.Y
		if top <= curBottom+overlapEpsilon && top >= newBottom-overlapEpsilon {
			if best == nil || top > bestTop {
				best = other
				bestTop = top
			}
		}
	}
	return best, bestTop, best != nil
}

// updateSensors пересчитывает пересечения триггеров и возвращает новые входы
func (w *GridWorld) updateSensors() []pendingTrigger {
	var entered []pendingTrigger
	bodies := w.sortedBodies()

	for _, b := range bodies {
		sensor, ok := b.SensorBounds()
		if !ok {
			continue
		}
		prev := w.overlaps[b.ID]
		current := make(map[uint64]struct{})

		for _, other := range bodies {
			if other.ID == b.ID || other.Layer != LayerSolid {
				continue
			}
			if !sensor.Intersects(other.Bounds()) {
				continue
			}
			current[other.ID] = struct{}{}
			if _, was := prev[other.ID]; !was {
				if l, ok := w.listeners[b.ID]; ok {
					entered = append(entered, pendingTrigger{listener: l, other: other})
				}
			}
		}
		w.overlaps[b.ID] = current
	}
	return entered
}

// sortedBodies возвращает тела в порядке ID для детерминированных результатов
func (w *GridWorld) sortedBodies() []*Body {
	list := make([]*Body, 0, len(w.bodies))
	for _, b := range w.bodies {
		list = append(list, b)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	return list
}
