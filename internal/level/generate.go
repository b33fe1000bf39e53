package level

import (
	"math"

	"github.com/aquilax/go-perlin"
)

// GenerateOptions параметры процедурного уровня
type GenerateOptions struct {
	Seed      int64
	Width     int // Ширина по X
	Depth     int // Число рядов за стеной по Z
	MaxHeight int // Максимальная высота стены
}

// Параметры шума
const (
	noiseAlpha     = 2.0  // Сглаживание шума
	noiseBeta      = 2.0  // Частота шума
	noiseOctaves   = 3    // Количество октав
	noiseFrequency = 0.37 // Шаг выборки; в целых точках шум Перлина равен нулю
	holeThreshold  = 0.3  // Ниже этого значения вместо плиты пола дыра
)

// noiseField шум Перлина в диапазоне от 0 до 1
type noiseField struct {
	p *perlin.Perlin
}

func newNoiseField(seed int64) noiseField {
	return noiseField{p: perlin.NewPerlin(noiseAlpha, noiseBeta, noiseOctaves, seed)}
}

func (n noiseField) at(x, z int) float64 {
	v := (n.p.Noise2D(float64(x)*noiseFrequency, float64(z)*noiseFrequency) + 1.0) / 2.0
	return math.Max(0, math.Min(1, v))
}

// Generate строит уровень по сиду. Один и тот же сид даёт один и тот же уровень.
//
// Раскладка: ряд z=-1 пол со стартовыми позициями игроков, ряд z=0 стена высотой
// от 1 до MaxHeight, ряды z>=1 пол с редкими дырами и низкими стопками блоков.
func Generate(opts GenerateOptions) *File {
	if opts.Width < 3 {
		opts.Width = 3
	}
	if opts.Depth < 1 {
		opts.Depth = 1
	}
	if opts.MaxHeight < 1 {
		opts.MaxHeight = 1
	}

	noise := newNoiseField(opts.Seed)
	f := &File{
		Name:    "generated",
		GroundY: -3,
		Wall:    &WallSpec{},
	}

	// Передний ряд и стена всегда на сплошном полу
	f.Floor = append(f.Floor, Rect{Y: -1, FromX: 0, ToX: opts.Width - 1, FromZ: -1, ToZ: 0})

	for x := 0; x < opts.Width; x++ {
		height := 1 + int(noise.at(x, 0)*float64(opts.MaxHeight))
		if height > opts.MaxHeight {
			height = opts.MaxHeight
		}
		for y := 0; y < height; y++ {
			f.Wall.Blocks = append(f.Wall.Blocks, BlockSpec{
				Cell:  Cell{X: x, Y: y, Z: 0},
				Color: wallColor(x, y),
			})
		}
	}

	for z := 1; z <= opts.Depth; z++ {
		for x := 0; x < opts.Width; x++ {
			v := noise.at(x, z)
			if v < holeThreshold {
				f.Holes = append(f.Holes, Cell{X: x, Y: -1, Z: z})
				continue
			}
			f.Floor = append(f.Floor, Rect{Y: -1, FromX: x, ToX: x, FromZ: z, ToZ: z})

			stack := int((v - holeThreshold) / (1 - holeThreshold) * float64(opts.MaxHeight) / 2)
			for y := 0; y < stack; y++ {
				f.Blocks = append(f.Blocks, BlockSpec{Cell: Cell{X: x, Y: y, Z: z}})
			}
		}
	}

	f.Players = []PlayerSpec{{
		Name:   "player1",
		Cell:   Cell{X: opts.Width / 2, Y: 0, Z: -1},
		Facing: "+z",
	}}
	return f
}

// wallColor чередует синие и фиолетовые блоки в шахматном порядке
func wallColor(x, y int) string {
	if (x+y)%2 == 0 {
		return "blue"
	}
	return "purple"
}
