package motion

import "math"

// EaseFunc отображает линейный прогресс [0, 1] в сглаженный
type EaseFunc func(p float64) float64

// slideExponent показатель кривой сдвига: почти весь путь проходится сразу, дальше долгое дотягивание
const slideExponent = 0.25

// Ease кривая прогресса сдвига: p^0.25
func Ease(p float64) float64 {
	return math.Pow(clamp01(p), slideExponent)
}

// Linear линейный прогресс
func Linear(p float64) float64 {
	return clamp01(p)
}

func clamp01(p float64) float64 {
	if p < 0 {
		return 0
	}
	if p > 1 {
		return 1
	}
	return p
}
