package column

import (
	"errors"
	"math"

	"github.com/annel0/blockpush/internal/block"
	"github.com/annel0/blockpush/internal/logging"
	"github.com/annel0/blockpush/internal/physics"
	"github.com/annel0/blockpush/internal/scene"
	"github.com/annel0/blockpush/internal/vec"
)

// ErrNoGroundReference на сцене нет объекта с тегом опорного уровня
var ErrNoGroundReference = errors.New("опорный уровень колонны не найден")

// BlockLookup находит блок по ID его тела
type BlockLookup interface {
	Owner(id uint64) (*block.Block, bool)
}

// Settings параметры координатора
type Settings struct {
	GroundTag    string  // Тег объекта, задающего низ колонны
	LockDistance float64 // Длина луча вверх от опорного уровня
	LockDuration float64 // Время блокировки колонны
	CastRadius   float64 // Радиус пробной сферы для проверки опоры
}

// Coordinator блокирует и роняет стопки блоков в колонне (x, z)
type Coordinator struct {
	physics  physics.Service
	blocks   BlockLookup
	settings Settings

	groundY   float64
	hasGround bool

	log *logging.Logger
}

// NewCoordinator создаёт координатор. Опорный уровень ищется один раз, здесь.
func NewCoordinator(svc physics.Service, dir scene.Directory, blocks BlockLookup, settings Settings) *Coordinator {
	c := &Coordinator{
		physics:  svc,
		blocks:   blocks,
		settings: settings,
		log:      logging.GetComponentLogger("column"),
	}

	if ground := dir.FindByTag(settings.GroundTag); len(ground) > 0 {
		c.groundY = ground[0].Position().Y
		c.hasGround = true
	} else {
		c.log.Warn("Объект с тегом %q не найден, блокировка колонн отключена", settings.GroundTag)
	}
	return c
}

// GroundY высота опорного уровня; ok=false если он не найден
func (c *Coordinator) GroundY() (float64, bool) {
	return c.groundY, c.hasGround
}

// LockFrom блокирует все блоки колонны origin, кроме блока в самой ячейке origin.
// Возвращает число заблокированных блоков; падающие блоки не блокируются и не считаются.
func (c *Coordinator) LockFrom(origin vec.Vec3Float) (int, error) {
	if !c.hasGround {
		return 0, ErrNoGroundReference
	}

	start := vec.Vec3Float{X: origin.X, Y: c.groundY, Z: origin.Z}
	hits := c.physics.RaycastAll(start, vec.Up, c.settings.LockDistance, physics.SolidMask)

	locked := 0
	for _, hit := range hits {
		b, ok := c.blocks.Owner(hit.Body.ID)
		if !ok {
			continue
		}
		if b.Position().ApproxEquals(origin) {
			continue
		}
		if b.SetLockedForDuration(c.settings.LockDuration) {
			locked++
		}
	}

	c.log.Trace("Колонна (%.0f,%.0f): заблокировано блоков %d", origin.X, origin.Z, locked)
	return locked, nil
}

// DropAbove роняет непрерывную стопку блоков, стоявшую на освобождённой ячейке origin.
// Падение начинается после задержки сдвига и перекрывает блокировку колонны.
func (c *Coordinator) DropAbove(origin vec.Vec3Float) int {
	if !c.isOpen(origin) {
		return 0
	}

	hits := c.physics.RaycastAll(origin, vec.Up, c.settings.LockDistance, physics.SolidMask)

	expectedY := origin.Y + 1
	dropped := 0
	for _, hit := range hits {
		pos := hit.Body.Position()
		if math.Abs(pos.Y-expectedY) > vec.Epsilon {
			break
		}
		b, ok := c.blocks.Owner(hit.Body.ID)
		if !ok {
			break
		}
		b.MakeFallAfterSlideDelay()
		dropped++
		expectedY++
	}

	if dropped > 0 {
		c.log.Debug("Колонна (%.0f,%.0f): падают блоков %d", origin.X, origin.Z, dropped)
	}
	return dropped
}

// DropIfUnsupported роняет блок, если под ним пустая ячейка
func (c *Coordinator) DropIfUnsupported(b *block.Block) bool {
	if b.State().Falling() {
		return false
	}
	if !c.isOpen(b.Position().Add(vec.Down)) {
		return false
	}
	b.MakeFallAfterSlideDelay()
	return true
}

func (c *Coordinator) isOpen(cell vec.Vec3Float) bool {
	return len(c.physics.OverlapSphere(cell, c.settings.CastRadius, physics.SolidMask)) == 0
}
