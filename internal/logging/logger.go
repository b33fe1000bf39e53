package logging

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/annel0/blockpush/internal/vec"
)

// LogLevel определяет уровни логирования
type LogLevel int

const (
	TRACE LogLevel = iota
	DEBUG
	INFO
	WARN
	ERROR
	OFF
)

// String возвращает строковое представление уровня логирования
func (l LogLevel) String() string {
	switch l {
	case TRACE:
		return "TRACE"
	case DEBUG:
		return "DEBUG"
	case INFO:
		return "INFO"
	case WARN:
		return "WARN"
	case ERROR:
		return "ERROR"
	case OFF:
		return "OFF"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel разбирает уровень из конфигурации ("debug", "INFO" ...)
func ParseLevel(s string) (LogLevel, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "TRACE":
		return TRACE, nil
	case "DEBUG":
		return DEBUG, nil
	case "", "INFO":
		return INFO, nil
	case "WARN", "WARNING":
		return WARN, nil
	case "ERROR":
		return ERROR, nil
	case "OFF", "NONE":
		return OFF, nil
	default:
		return INFO, fmt.Errorf("неизвестный уровень логирования %q", s)
	}
}

// Options задаёт куда и что пишет логгер
type Options struct {
	Dir             string   // Каталог для файлов логов; пусто: без файла
	ConsoleLevel    LogLevel // Минимальный уровень для консоли
	FileLevel       LogLevel // Минимальный уровень для файла
	ConsoleOverride io.Writer
}

// DefaultOptions возвращает настройки по умолчанию: INFO в консоль, всё в файл logs/
func DefaultOptions() Options {
	return Options{
		Dir:          "logs",
		ConsoleLevel: INFO,
		FileLevel:    TRACE,
	}
}

// Logger представляет систему логирования одного компонента
type Logger struct {
	component       string
	consoleLogger   *log.Logger
	fileLogger      *log.Logger
	file            *os.File
	minConsoleLevel LogLevel
	minFileLevel    LogLevel
	mu              sync.Mutex
}

var (
	// Глобальный экземпляр логгера; nil: логирование выключено
	defaultLogger *Logger
	defaultOpts   = DefaultOptions()
	defaultMu     sync.RWMutex
)

// Configure задаёт опции для логгеров, создаваемых после вызова
func Configure(opts Options) {
	defaultMu.Lock()
	defaultOpts = opts
	defaultMu.Unlock()
}

// NewLogger создаёт логгер компонента по текущим опциям
func NewLogger(component string) (*Logger, error) {
	defaultMu.RLock()
	opts := defaultOpts
	defaultMu.RUnlock()
	return newLogger(component, opts)
}

func newLogger(component string, opts Options) (*Logger, error) {
	var console io.Writer = os.Stdout
	if opts.ConsoleOverride != nil {
		console = opts.ConsoleOverride
	}

	l := &Logger{
		component:       component,
		consoleLogger:   log.New(console, "", log.LstdFlags),
		minConsoleLevel: opts.ConsoleLevel,
		minFileLevel:    opts.FileLevel,
	}

	if opts.Dir == "" {
		return l, nil
	}

	// Создаем директорию для логов
	if err := os.MkdirAll(opts.Dir, 0755); err != nil {
		return nil, fmt.Errorf("ошибка создания директории %s: %w", opts.Dir, err)
	}

	// Создаем файл для логов с временной меткой
	timestamp := time.Now().Format("2006-01-02_15-04-05")
	filename := filepath.Join(opts.Dir, fmt.Sprintf("%s_%s.log", component, timestamp))

	file, err := os.OpenFile(filename, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания файла логов: %w", err)
	}

	l.file = file
	l.fileLogger = log.New(file, "", log.LstdFlags)
	return l, nil
}

// InitDefaultLogger инициализирует глобальный логгер
func InitDefaultLogger(component string) error {
	l, err := NewLogger(component)
	if err != nil {
		return err
	}

	defaultMu.Lock()
	defaultLogger = l
	defaultMu.Unlock()
	return nil
}

// CloseDefaultLogger закрывает глобальный логгер и логгеры компонентов
func CloseDefaultLogger() {
	defaultMu.Lock()
	if defaultLogger != nil {
		defaultLogger.Close()
		defaultLogger = nil
	}
	defaultMu.Unlock()

	_ = closeComponents()
}

// Close закрывает файл логов
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	l.fileLogger = nil
	return err
}

// Trace логирует сообщение уровня TRACE
func (l *Logger) Trace(format string, args ...interface{}) { l.log(TRACE, format, args...) }

// Debug логирует сообщение уровня DEBUG
func (l *Logger) Debug(format string, args ...interface{}) { l.log(DEBUG, format, args...) }

// Info логирует сообщение уровня INFO
func (l *Logger) Info(format string, args ...interface{}) { l.log(INFO, format, args...) }

// Warn логирует сообщение уровня WARN
func (l *Logger) Warn(format string, args ...interface{}) { l.log(WARN, format, args...) }

// Error логирует сообщение уровня ERROR
func (l *Logger) Error(format string, args ...interface{}) { l.log(ERROR, format, args...) }

// log внутренняя функция для логирования
func (l *Logger) log(level LogLevel, format string, args ...interface{}) {
	if l == nil {
		return
	}

	message := fmt.Sprintf("[%s] [%s] %s", level.String(), l.component, fmt.Sprintf(format, args...))

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.fileLogger != nil && level >= l.minFileLevel {
		l.fileLogger.Println(message)
	}
	if l.consoleLogger != nil && level >= l.minConsoleLevel {
		l.consoleLogger.Println(message)
	}
}

func current() *Logger {
	defaultMu.RLock()
	defer defaultMu.RUnlock()
	return defaultLogger
}

// Trace логирует в глобальный логгер
func Trace(format string, args ...interface{}) { current().log(TRACE, format, args...) }

// Debug логирует в глобальный логгер
func Debug(format string, args ...interface{}) { current().log(DEBUG, format, args...) }

// Info логирует в глобальный логгер
func Info(format string, args ...interface{}) { current().log(INFO, format, args...) }

// Warn логирует в глобальный логгер
func Warn(format string, args ...interface{}) { current().log(WARN, format, args...) }

// Error логирует в глобальный логгер
func Error(format string, args ...interface{}) { current().log(ERROR, format, args...) }

// LogEntityMovement логирует перемещение сущности
func (l *Logger) LogEntityMovement(entityID uint64, from, to vec.Vec3Float) {
	l.Trace("Entity %d movement: (%.2f,%.2f,%.2f) -> (%.2f,%.2f,%.2f)",
		entityID, from.X, from.Y, from.Z, to.X, to.Y, to.Z)
}
