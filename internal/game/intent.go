package game

import (
	"errors"
	"fmt"
	"strings"

	"github.com/annel0/blockpush/internal/level"
	"github.com/annel0/blockpush/internal/player"
	"github.com/annel0/blockpush/internal/vec"
)

// ErrUnknownPlayer в сессии нет игрока с таким именем
var ErrUnknownPlayer = errors.New("неизвестный игрок")

// IntentKind тип намерения
type IntentKind string

const (
	IntentMove IntentKind = player.IntentMove
	IntentPush IntentKind = player.IntentPush
	IntentPull IntentKind = player.IntentPull
)

// Intent команда игрока. Direction используется только для IntentMove.
type Intent struct {
	Player    string
	Kind      IntentKind
	Direction vec.Vec3Float
}

// Move команда шага
func Move(name string, dir vec.Vec3Float) Intent {
	return Intent{Player: name, Kind: IntentMove, Direction: dir}
}

// Push команда толкнуть блок
func Push(name string) Intent {
	return Intent{Player: name, Kind: IntentPush}
}

// Pull команда вытянуть блок
func Pull(name string) Intent {
	return Intent{Player: name, Kind: IntentPull}
}

// apply выполняет намерение на контроллере
func (i Intent) apply(c *player.Controller) (bool, error) {
	switch i.Kind {
	case IntentMove:
		return c.Move(i.Direction), nil
	case IntentPush:
		return c.TryPushBlock(), nil
	case IntentPull:
		return c.TryPullBlock(), nil
	default:
		return false, fmt.Errorf("неизвестный тип намерения %q", i.Kind)
	}
}

// ParseIntent разбирает текстовую команду вида "<игрок> move +x", "<игрок> push", "<игрок> pull"
func ParseIntent(line string) (Intent, error) {
	fields := strings.Fields(line)
	if len(fields) < 2 {
		return Intent{}, fmt.Errorf("команда %q: ожидается <игрок> <действие>", line)
	}

	name, kind := fields[0], IntentKind(strings.ToLower(fields[1]))
	switch kind {
	case IntentPush, IntentPull:
		if len(fields) != 2 {
			return Intent{}, fmt.Errorf("команда %q: %s без аргументов", line, kind)
		}
		return Intent{Player: name, Kind: kind}, nil
	case IntentMove:
		if len(fields) != 3 {
			return Intent{}, fmt.Errorf("команда %q: move требует направление", line)
		}
		dir, ok := level.ParseFacing(fields[2])
		if !ok {
			return Intent{}, fmt.Errorf("команда %q: неизвестное направление %q", line, fields[2])
		}
		return Move(name, dir), nil
	default:
		return Intent{}, fmt.Errorf("команда %q: неизвестное действие %q", line, fields[1])
	}
}
