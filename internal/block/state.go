package block

// State состояние блока
type State uint8

const (
	StateAtRest            State = iota // Свободен, базовый цвет
	StateLockedPendingFall              // Заблокирован, цвет блокировки, ждёт начала падения
	StateFallingPhysical                // Заблокирован, падает под действием физики
	StateLockedTimed                    // Заблокирован на время, базовый цвет
)

// String возвращает имя состояния
func (s State) String() string {
	switch s {
	case StateAtRest:
		return "AtRest"
	case StateLockedPendingFall:
		return "LockedPendingFall"
	case StateFallingPhysical:
		return "FallingPhysical"
	case StateLockedTimed:
		return "LockedTimed"
	default:
		return "Unknown"
	}
}

// Locked true для всех состояний, кроме AtRest
func (s State) Locked() bool {
	return s != StateAtRest
}

// Falling true, если блок ждёт падения или уже падает
func (s State) Falling() bool {
	return s == StateLockedPendingFall || s == StateFallingPhysical
}
