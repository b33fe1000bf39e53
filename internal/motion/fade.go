package motion

// LerpFunc интерполирует значение типа T
type LerpFunc[T any] func(from, to T, t float64) T

// Fade плавная смена значения (цвета) за фиксированное время
type Fade[T any] struct {
	from     T
	to       T
	duration float64
	elapsed  float64
	lerp     LerpFunc[T]
	ease     EaseFunc
	done     bool
}

// NewFade создаёт переход from → to с линейным прогрессом
func NewFade[T any](from, to T, duration float64, lerp LerpFunc[T]) *Fade[T] {
	return &Fade[T]{
		from:     from,
		to:       to,
		duration: duration,
		lerp:     lerp,
		ease:     Linear,
	}
}

// Tick продвигает переход и возвращает текущее значение и признак завершения
func (f *Fade[T]) Tick(dt float64) (T, bool) {
	if f.done {
		return f.to, true
	}

	f.elapsed += dt
	if f.duration <= 0 || f.elapsed > f.duration {
		f.done = true
		return f.to, true
	}
	return f.lerp(f.from, f.to, f.ease(f.elapsed/f.duration)), false
}

// Done true, если переход завершён
func (f *Fade[T]) Done() bool { return f.done }

// Target конечное значение перехода
func (f *Fade[T]) Target() T { return f.to }
