package physics

import "github.com/annel0/blockpush/internal/vec"

// Service внешний физический движок в объёме, нужном ядру игры
type Service interface {
	// OverlapSphere возвращает тела из маски, пересекающие сферу (триггеры игнорируются)
	OverlapSphere(center vec.Vec3Float, radius float64, mask LayerMask) []*Body
	// RaycastAll возвращает все попадания луча, упорядоченные по расстоянию
	RaycastAll(origin, direction vec.Vec3Float, maxDistance float64, mask LayerMask) []Hit
	// SetKinematic включает или выключает реакцию тела на гравитацию
	SetKinematic(b *Body, kinematic bool)
	// AddForce добавляет силу, действующую в ближайшем шаге симуляции
	AddForce(b *Body, force vec.Vec3Float)
	// Remove исключает тело из симуляции и запросов
	Remove(b *Body)
}

// Hit попадание луча
type Hit struct {
	Body     *Body
	Distance float64
	Point    vec.Vec3Float
}

// Collision описывает начало контакта двух тел
type Collision struct {
	Body  *Body // Тело, получившее уведомление
	Other *Body // Тело, с которым произошёл контакт
}

// ContactListener получает уведомления о контактах тела
type ContactListener interface {
	OnCollisionEnter(c Collision)
	OnTriggerEnter(other *Body)
}
