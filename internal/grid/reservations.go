package grid

import (
	"sync"

	"github.com/annel0/blockpush/internal/vec"
)

// Reservations резервирование ячеек между проверкой хода и его завершением.
// Два актёра не могут одновременно получить ход в одну ячейку: выигрывает первый.
type Reservations struct {
	mu      sync.Mutex
	cells   map[vec.Vec3]string
	byOwner map[string][]vec.Vec3
}

// NewReservations создаёт пустую таблицу
func NewReservations() *Reservations {
	return &Reservations{
		cells:   make(map[vec.Vec3]string),
		byOwner: make(map[string][]vec.Vec3),
	}
}

// Reserve резервирует все ячейки или ни одной.
// Ячейки, уже принадлежащие owner, повторно не считаются конфликтом.
func (r *Reservations) Reserve(owner string, cells ...vec.Vec3) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, c := range cells {
		if other, ok := r.cells[c]; ok && other != owner {
			return false
		}
	}
	for _, c := range cells {
		if _, ok := r.cells[c]; ok {
			continue
		}
		r.cells[c] = owner
		r.byOwner[owner] = append(r.byOwner[owner], c)
	}
	return true
}

// Release освобождает все ячейки владельца
func (r *Reservations) Release(owner string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, c := range r.byOwner[owner] {
		delete(r.cells, c)
	}
	delete(r.byOwner, owner)
}

// Owner возвращает владельца резерва ячейки
func (r *Reservations) Owner(cell vec.Vec3) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	owner, ok := r.cells[cell]
	return owner, ok
}

// Len количество зарезервированных ячеек
func (r *Reservations) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.cells)
}
