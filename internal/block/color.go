package block

import (
	"fmt"
	"strings"
)

// Color HDR-цвет материала блока (компоненты могут быть больше 1)
type Color struct {
	R, G, B float64
}

// Палитра блоков
var (
	NeutralColor = Color{R: 3, G: 3, B: 3}
	BlueColor    = Color{R: 0.132, G: 6.0, B: 5.272}
	PurpleColor  = Color{R: 6.0, G: 0.132, B: 5.272}
	LockedColor  = Color{R: 6, G: 0.6, B: 0}
)

// LerpColor линейно смешивает цвета; t ограничивается отрезком [0, 1]
func LerpColor(from, to Color, t float64) Color {
	if t < 0 {
		t = 0
	} else if t > 1 {
		t = 1
	}
	return Color{
		R: from.R + (to.R-from.R)*t,
		G: from.G + (to.G-from.G)*t,
		B: from.B + (to.B-from.B)*t,
	}
}

// ParseColor разбирает имя базового цвета из файла уровня
func ParseColor(name string) (Color, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "neutral":
		return NeutralColor, nil
	case "blue":
		return BlueColor, nil
	case "purple":
		return PurpleColor, nil
	default:
		return Color{}, fmt.Errorf("неизвестный цвет блока %q", name)
	}
}

// ColorName имя цвета палитры, или его компоненты для произвольного цвета
func ColorName(c Color) string {
	switch c {
	case NeutralColor:
		return "neutral"
	case BlueColor:
		return "blue"
	case PurpleColor:
		return "purple"
	case LockedColor:
		return "locked"
	default:
		return fmt.Sprintf("rgb(%.2f,%.2f,%.2f)", c.R, c.G, c.B)
	}
}
