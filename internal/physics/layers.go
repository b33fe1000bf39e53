package physics

// Layer слой коллизий тела
type Layer uint8

const (
	LayerDefault Layer = iota // Маркеры, декорации
	LayerSolid                // Блоки и пол: участвуют в проверках проходимости
	LayerPlayer               // Игроки
	LayerHole                 // Заглушки дыр: держат блоки, игрок проваливается
)

// String возвращает имя слоя
func (l Layer) String() string {
	switch l {
	case LayerDefault:
		return "Default"
	case LayerSolid:
		return "Solid"
	case LayerPlayer:
		return "Player"
	case LayerHole:
		return "Hole"
	default:
		return "Unknown"
	}
}

// LayerMask битовая маска слоёв
type LayerMask uint32

// Mask возвращает маску из одного слоя
func (l Layer) Mask() LayerMask {
	return 1 << LayerMask(l)
}

// MaskOf собирает маску из нескольких слоёв
func MaskOf(layers ...Layer) LayerMask {
	var m LayerMask
	for _, l := range layers {
		m |= l.Mask()
	}
	return m
}

// Contains проверяет, входит ли слой в маску
func (m LayerMask) Contains(l Layer) bool {
	return m&l.Mask() != 0
}

// SolidMask маска проверок проходимости: триггеры и декорации не мешают движению
var SolidMask = LayerSolid.Mask()
