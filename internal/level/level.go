package level

import (
	"fmt"
	"os"

	"github.com/annel0/blockpush/internal/block"
	"github.com/annel0/blockpush/internal/player"
	"github.com/annel0/blockpush/internal/vec"
	"github.com/pixil98/go-errors"
	"gopkg.in/yaml.v3"
)

// Cell целочисленная ячейка сетки
type Cell struct {
	X int `yaml:"x"`
	Y int `yaml:"y"`
	Z int `yaml:"z"`
}

// Float центр ячейки
func (c Cell) Float() vec.Vec3Float {
	return vec.Vec3Float{X: float64(c.X), Y: float64(c.Y), Z: float64(c.Z)}
}

func (c Cell) key() vec.Vec3 {
	return vec.Vec3{X: c.X, Y: c.Y, Z: c.Z}
}

// Rect прямоугольник плит пола на высоте Y (центры плит)
type Rect struct {
	Y     int `yaml:"y"`
	FromX int `yaml:"from_x"`
	ToX   int `yaml:"to_x"`
	FromZ int `yaml:"from_z"`
	ToZ   int `yaml:"to_z"`
}

// Cells перечисляет ячейки прямоугольника
func (r Rect) Cells() []Cell {
	var cells []Cell
	for x := r.FromX; x <= r.ToX; x++ {
		for z := r.FromZ; z <= r.ToZ; z++ {
			cells = append(cells, Cell{X: x, Y: r.Y, Z: z})
		}
	}
	return cells
}

// BlockSpec подвижный блок
type BlockSpec struct {
	Cell  `yaml:",inline"`
	Color string `yaml:"color"` // neutral, blue, purple
}

// WallSpec стена: блоки в мировых координатах и начало локальных координат
type WallSpec struct {
	Origin Cell        `yaml:"origin"`
	Blocks []BlockSpec `yaml:"blocks"`
}

// PlayerSpec стартовая позиция игрока
type PlayerSpec struct {
	Name    string `yaml:"name"`
	Cell    `yaml:",inline"`
	Facing  string `yaml:"facing"`  // +x, -x, +z, -z
	Variant string `yaml:"variant"` // basic, extended
}

// File описание уровня
type File struct {
	Name    string       `yaml:"name"`
	GroundY float64      `yaml:"ground_y"` // Высота опорного уровня колонн, ниже неё игрок выбывает
	Floor   []Rect       `yaml:"floor"`
	Holes   []Cell       `yaml:"holes"` // Заглушки: держат блоки, игрок проваливается
	Wall    *WallSpec    `yaml:"wall"`
	Blocks  []BlockSpec  `yaml:"blocks"`
	Players []PlayerSpec `yaml:"players"`
}

// Load читает и проверяет файл уровня
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("чтение уровня %s: %w", path, err)
	}
	f, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("уровень %s: %w", path, err)
	}
	return f, nil
}

// Parse разбирает YAML уровня и проверяет его
func Parse(data []byte) (*File, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("разбор уровня: %w", err)
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

// Marshal сериализует уровень в YAML
func (f *File) Marshal() ([]byte, error) {
	return yaml.Marshal(f)
}

// Validate возвращает все ошибки уровня разом
func (f *File) Validate() error {
	el := errors.NewErrorList()

	if len(f.Players) == 0 {
		el.Add(fmt.Errorf("на уровне нет игроков"))
	}

	solids := make(map[vec.Vec3]string)
	occupy := func(c Cell, what string) {
		if prev, ok := solids[c.key()]; ok {
			el.Add(fmt.Errorf("ячейка (%d,%d,%d) занята дважды: %s и %s", c.X, c.Y, c.Z, prev, what))
			return
		}
		solids[c.key()] = what
	}

	lowest := 0.0
	hasFloor := false
	for _, r := range f.Floor {
		if r.FromX > r.ToX || r.FromZ > r.ToZ {
			el.Add(fmt.Errorf("пустой прямоугольник пола %+v", r))
			continue
		}
		for _, c := range r.Cells() {
			occupy(c, "пол")
		}
		if !hasFloor || float64(r.Y) < lowest {
			lowest = float64(r.Y)
			hasFloor = true
		}
	}
	for _, c := range f.Holes {
		occupy(c, "дыра")
	}

	checkBlock := func(b BlockSpec, what string) {
		occupy(b.Cell, what)
		if _, err := block.ParseColor(b.Color); err != nil {
			el.Add(fmt.Errorf("%s (%d,%d,%d): %w", what, b.X, b.Y, b.Z, err))
		}
	}
	for _, b := range f.Blocks {
		checkBlock(b, "блок")
	}
	if f.Wall != nil {
		for _, b := range f.Wall.Blocks {
			checkBlock(b, "блок стены")
		}
	}

	if hasFloor && f.GroundY >= lowest {
		el.Add(fmt.Errorf("ground_y=%v должен быть ниже пола (%v)", f.GroundY, lowest))
	}

	names := make(map[string]bool)
	for i, p := range f.Players {
		if p.Name == "" {
			el.Add(fmt.Errorf("игрок #%d без имени", i))
		} else if names[p.Name] {
			el.Add(fmt.Errorf("имя игрока %q повторяется", p.Name))
		}
		names[p.Name] = true

		if what, ok := solids[p.Cell.key()]; ok {
			el.Add(fmt.Errorf("игрок %q стоит внутри: %s", p.Name, what))
		}
		if _, ok := ParseFacing(p.Facing); !ok {
			el.Add(fmt.Errorf("игрок %q: неизвестное направление %q", p.Name, p.Facing))
		}
		if _, ok := player.ParseVariant(p.Variant); !ok {
			el.Add(fmt.Errorf("игрок %q: неизвестный вариант %q", p.Name, p.Variant))
		}
	}

	return el.Err()
}

// ParseFacing разбирает направление взгляда; пустая строка означает +z
func ParseFacing(s string) (vec.Vec3Float, bool) {
	switch s {
	case "", "+z":
		return vec.Forward, true
	case "-z":
		return vec.Back, true
	case "+x":
		return vec.Right, true
	case "-x":
		return vec.Left, true
	default:
		return vec.Vec3Float{}, false
	}
}
