package motion

import "github.com/annel0/blockpush/internal/vec"

// Target объект, который может двигать интерполятор
type Target interface {
	Position() vec.Vec3Float
	SetPosition(p vec.Vec3Float)
}

// Slide одновременный сдвиг набора объектов на одно смещение за фиксированное время.
// Отмены нет: повторный запуск для тех же объектов предотвращает вызывающий код.
type Slide struct {
	targets  []Target
	starts   []vec.Vec3Float
	delta    vec.Vec3Float
	duration float64
	elapsed  float64
	ease     EaseFunc
	done     bool
}

// NewSlide запоминает стартовые позиции целей и возвращает сдвиг на delta
func NewSlide(duration float64, delta vec.Vec3Float, targets ...Target) *Slide {
	starts := make([]vec.Vec3Float, len(targets))
	for i, t := range targets {
		starts[i] = t.Position()
	}
	return &Slide{
		targets:  targets,
		starts:   starts,
		delta:    delta,
		duration: duration,
		ease:     Ease,
	}
}

// Tick продвигает сдвиг на dt и возвращает true, когда он завершён.
// На завершении цели ставятся ровно в start+delta.
func (s *Slide) Tick(dt float64) bool {
	if s.done {
		return true
	}

	s.elapsed += dt
	if s.duration <= 0 || s.elapsed >= s.duration {
		for i, t := range s.targets {
			t.SetPosition(s.starts[i].Add(s.delta))
		}
		s.done = true
		return true
	}

	p := s.ease(s.elapsed / s.duration)
	for i, t := range s.targets {
		t.SetPosition(s.starts[i].Lerp(s.starts[i].Add(s.delta), p))
	}
	return false
}

// Done true, если сдвиг завершён
func (s *Slide) Done() bool { return s.done }

// Elapsed прошедшее время
func (s *Slide) Elapsed() float64 { return s.elapsed }

// Delta смещение сдвига
func (s *Slide) Delta() vec.Vec3Float { return s.delta }

// Moves проверяет, двигает ли сдвиг указанную цель
func (s *Slide) Moves(t Target) bool {
	for _, other := range s.targets {
		if other == t {
			return true
		}
	}
	return false
}

// Destination конечная позиция цели; ok=false если цель не участвует в сдвиге
func (s *Slide) Destination(t Target) (vec.Vec3Float, bool) {
	for i, other := range s.targets {
		if other == t {
			return s.starts[i].Add(s.delta), true
		}
	}
	return vec.Vec3Float{}, false
}
