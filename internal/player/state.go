package player

// State состояние игрока
type State uint8

const (
	StateIdle       State = iota // Принимает команды
	StateMoving                  // Идёт хотя бы один сдвиг игрока или толкаемого блока
	StateFalling                 // Падает после шага в пустую ячейку, ждёт опоры
	StateEliminated              // Раздавлен или упал за пределы уровня, тело удалено
)

// String возвращает имя состояния
func (s State) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateMoving:
		return "Moving"
	case StateFalling:
		return "Falling"
	case StateEliminated:
		return "Eliminated"
	default:
		return "Unknown"
	}
}

// Variant набор правил контроллера
type Variant uint8

const (
	// VariantBasic только Idle и Moving; падение целиком на физике
	VariantBasic Variant = iota
	// VariantExtended отслеживает падение и добавляет силу тяжести
	VariantExtended
)

// String возвращает имя варианта
func (v Variant) String() string {
	if v == VariantExtended {
		return "extended"
	}
	return "basic"
}

// ParseVariant разбирает имя варианта из конфигурации уровня
func ParseVariant(name string) (Variant, bool) {
	switch name {
	case "", "extended":
		return VariantExtended, true
	case "basic":
		return VariantBasic, true
	default:
		return VariantBasic, false
	}
}

// Причины выбывания
const (
	ReasonCrushed = "crushed"
	ReasonFell    = "fell"
)
