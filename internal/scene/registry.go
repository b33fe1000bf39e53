package scene

import (
	"sort"
	"sync"

	"github.com/annel0/blockpush/internal/physics"
)

// Directory поиск объектов сцены по тегу
type Directory interface {
	FindByTag(tag string) []*physics.Body
}

// Registry реестр тел сцены и их владельцев (блоков, игроков).
// Заполняется при загрузке уровня; запросы не обращаются к физике.
type Registry[T any] struct {
	mu     sync.RWMutex
	byTag  map[string][]*physics.Body
	owners map[uint64]T
	nextID uint64
}

// NewRegistry создаёт пустой реестр. ID тел выдаются начиная с firstID.
func NewRegistry[T any](firstID uint64) *Registry[T] {
	return &Registry[T]{
		byTag:  make(map[string][]*physics.Body),
		owners: make(map[uint64]T),
		nextID: firstID,
	}
}

// NextID выдаёт следующий свободный ID тела
func (r *Registry[T]) NextID() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	id := r.nextID
	r.nextID++
	return id
}

// Register добавляет тело под его тегом
func (r *Registry[T]) Register(b *physics.Body) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byTag[b.Tag] = append(r.byTag[b.Tag], b)
}

// RegisterOwned добавляет тело и связывает его с владельцем
func (r *Registry[T]) RegisterOwned(b *physics.Body, owner T) {
	r.Register(b)
	r.mu.Lock()
	r.owners[b.ID] = owner
	r.mu.Unlock()
}

// Unregister удаляет тело из реестра
func (r *Registry[T]) Unregister(b *physics.Body) {
	r.mu.Lock()
	defer r.mu.Unlock()

	list := r.byTag[b.Tag]
	for i, other := range list {
		if other.ID == b.ID {
			r.byTag[b.Tag] = append(list[:i:i], list[i+1:]...)
			break
		}
	}
	delete(r.owners, b.ID)
}

// FindByTag реализует Directory; результат упорядочен по ID
func (r *Registry[T]) FindByTag(tag string) []*physics.Body {
	r.mu.RLock()
	defer r.mu.RUnlock()

	list := make([]*physics.Body, len(r.byTag[tag]))
	copy(list, r.byTag[tag])
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	return list
}

// Owner возвращает владельца тела
func (r *Registry[T]) Owner(id uint64) (T, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	owner, ok := r.owners[id]
	return owner, ok
}
