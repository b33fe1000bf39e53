package grid

import (
	"errors"
	"fmt"

	"github.com/annel0/blockpush/internal/block"
	"github.com/annel0/blockpush/internal/physics"
	"github.com/annel0/blockpush/internal/vec"
)

var (
	// ErrNoTarget в ячейке нет подвижного блока
	ErrNoTarget = errors.New("в ячейке нет блока")
	// ErrAmbiguousTarget в ячейке больше одного твёрдого тела
	ErrAmbiguousTarget = errors.New("в ячейке несколько твёрдых тел")
)

// BlockLookup находит блок по ID его тела
type BlockLookup interface {
	Owner(id uint64) (*block.Block, bool)
}

// Occupancy отвечает на вопросы о занятости ячеек сетки
type Occupancy struct {
	physics      physics.Service
	blocks       BlockLookup
	radius       float64
	reservations *Reservations
}

// NewOccupancy создаёт запрос занятости; radius: радиус пробной сферы (0.1 ячейки)
func NewOccupancy(svc physics.Service, blocks BlockLookup, radius float64) *Occupancy {
	return &Occupancy{
		physics:      svc,
		blocks:       blocks,
		radius:       radius,
		reservations: NewReservations(),
	}
}

// Reservations таблица резервирования ячеек
func (o *Occupancy) Reservations() *Reservations { return o.reservations }

// occupantMask тела, занимающие ячейку: блоки, пол и игроки
var occupantMask = physics.MaskOf(physics.LayerSolid, physics.LayerPlayer)

// IsOpen true, если в ячейке нет твёрдого тела или игрока и её никто не зарезервировал
func (o *Occupancy) IsOpen(position vec.Vec3Float) bool {
	if _, reserved := o.reservations.Owner(position.Cell()); reserved {
		return false
	}
	return len(o.physics.OverlapSphere(position, o.radius, occupantMask)) == 0
}

// HasPlayer true, если в ячейке стоит игрок
func (o *Occupancy) HasPlayer(position vec.Vec3Float) bool {
	return len(o.physics.OverlapSphere(position, o.radius, physics.LayerPlayer.Mask())) > 0
}

// BlockInFront возвращает единственный блок в ячейке position+facing.
// Вызывающий код должен сначала убедиться, что ячейка занята.
func (o *Occupancy) BlockInFront(position, facing vec.Vec3Float) (*block.Block, error) {
	cell := position.Add(facing)
	bodies := o.physics.OverlapSphere(cell, o.radius, physics.SolidMask)

	switch len(bodies) {
	case 0:
		return nil, fmt.Errorf("ячейка (%.0f,%.0f,%.0f): %w", cell.X, cell.Y, cell.Z, ErrNoTarget)
	case 1:
	default:
		return nil, fmt.Errorf("ячейка (%.0f,%.0f,%.0f), тел: %d: %w", cell.X, cell.Y, cell.Z, len(bodies), ErrAmbiguousTarget)
	}

	b, ok := o.blocks.Owner(bodies[0].ID)
	if !ok {
		// Пол, стена уровня и прочие неподвижные тела
		return nil, fmt.Errorf("тело %d (%s) не является блоком: %w", bodies[0].ID, bodies[0].Tag, ErrNoTarget)
	}
	return b, nil
}
