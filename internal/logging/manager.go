package logging

import (
	"fmt"
	"sync"
)

// components логгеры подсистем по имени; создаются лениво при первом запросе
var components = struct {
	mu      sync.Mutex
	loggers map[string]*Logger
}{loggers: make(map[string]*Logger)}

// GetComponentLogger возвращает логгер компонента.
// Пока глобальный логгер не инициализирован, возвращает nil: вызовы на nil-логгере ничего не делают.
func GetComponentLogger(component string) *Logger {
	if current() == nil {
		return nil
	}

	components.mu.Lock()
	defer components.mu.Unlock()
	if l, ok := components.loggers[component]; ok {
		return l
	}

	l, err := NewLogger(component)
	if err != nil {
		// Файл недоступен: компонент пишет только в консоль
		l, _ = newLogger(component, Options{ConsoleLevel: INFO, FileLevel: OFF})
	}
	components.loggers[component] = l
	return l
}

// closeComponents закрывает файлы логгеров компонентов
func closeComponents() error {
	components.mu.Lock()
	defer components.mu.Unlock()

	var lastErr error
	for name, l := range components.loggers {
		if err := l.Close(); err != nil {
			lastErr = fmt.Errorf("закрытие логгера %s: %w", name, err)
		}
	}
	components.loggers = make(map[string]*Logger)
	return lastErr
}
