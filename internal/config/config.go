package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/pixil98/go-errors"
	"gopkg.in/yaml.v3"
)

// Config корневая структура конфигурации приложения.
// Все длительности заданы в игровых секундах.
type Config struct {
	Timing    TimingConfig    `yaml:"timing"`
	Physics   PhysicsConfig   `yaml:"physics"`
	EventBus  EventBusConfig  `yaml:"eventbus"`
	Server    ServerConfig    `yaml:"server"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Logging   LoggingConfig   `yaml:"logging"`
	Level     LevelConfig     `yaml:"level"`
}

// TimingConfig задаёт длительности анимаций и блокировок
type TimingConfig struct {
	MoveDuration       float64 `yaml:"move_duration"`        // Длительность одного сдвига
	ColumnLockBuffer   float64 `yaml:"column_lock_buffer"`   // Запас поверх MoveDuration для блокировки колонны
	ColorFadeDuration  float64 `yaml:"color_fade_duration"`  // Длительность смены цвета блока
	FallImmediateDelay float64 `yaml:"fall_immediate_delay"` // Задержка MakeFallImmediately
	SlideBlockDuration float64 `yaml:"slide_block_duration"` // Задержка падения после сдвига блока
	FrameRate          int     `yaml:"frame_rate"`           // Кадров в секунду игрового цикла
	FixedRate          int     `yaml:"fixed_rate"`           // Шагов физики в секунду
}

// ColumnLockDuration время, на которое колонна блокируется после сдвига блока
func (t TimingConfig) ColumnLockDuration() float64 {
	return t.MoveDuration + t.ColumnLockBuffer
}

// FrameDelta длительность кадра в секундах
func (t TimingConfig) FrameDelta() float64 {
	return 1.0 / float64(t.FrameRate)
}

// FixedDelta длительность шага физики в секундах
func (t TimingConfig) FixedDelta() float64 {
	return 1.0 / float64(t.FixedRate)
}

// PhysicsConfig задаёт параметры пространственных запросов и гравитации
type PhysicsConfig struct {
	CastRadius         float64 `yaml:"cast_radius"`
	ColumnLockDistance float64 `yaml:"column_lock_distance"`
	Gravity            float64 `yaml:"gravity"`
	GravityMultiplier  float64 `yaml:"gravity_multiplier"`
	GroundTag          string  `yaml:"ground_tag"`
}

type EventBusConfig struct {
	URL       string `yaml:"url"`      // nats://...; пусто: in-memory шина
	Embedded  bool   `yaml:"embedded"` // Запустить встроенный NATS сервер
	Stream    string `yaml:"stream"`
	Retention int    `yaml:"retention_hours"`
	Buffer    int    `yaml:"buffer"`
}

type ServerConfig struct {
	MetricsPort int `yaml:"metrics_port"`
}

// GetMetricsPort возвращает Prometheus метрики порт с поддержкой fallback значений
func (s *ServerConfig) GetMetricsPort() int {
	return getPortWithEnvFallback(s.MetricsPort, "GAME_METRICS_PORT", 2112)
}

type TelemetryConfig struct {
	Enabled     bool   `yaml:"enabled"`
	ServiceName string `yaml:"service_name"`
	Endpoint    string `yaml:"endpoint"` // host:port OTLP HTTP; пусто: localhost:4318
}

type LoggingConfig struct {
	Dir          string `yaml:"dir"`
	ConsoleLevel string `yaml:"console_level"`
	FileLevel    string `yaml:"file_level"`
}

// LevelConfig указывает файл уровня или параметры генерации
type LevelConfig struct {
	Path      string `yaml:"path"`
	Seed      int64  `yaml:"seed"`
	Width     int    `yaml:"width"`
	Depth     int    `yaml:"depth"`
	MaxHeight int    `yaml:"max_height"`
}

// Default возвращает конфигурацию со значениями оригинальной игры
func Default() *Config {
	return &Config{
		Timing: TimingConfig{
			MoveDuration:       0.25,
			ColumnLockBuffer:   0.5,
			ColorFadeDuration:  0.2,
			FallImmediateDelay: 1.0,
			SlideBlockDuration: 0.25,
			FrameRate:          60,
			FixedRate:          50,
		},
		Physics: PhysicsConfig{
			CastRadius:         0.1,
			ColumnLockDistance: 20,
			Gravity:            -9.81,
			GravityMultiplier:  80,
			GroundTag:          "GarbageCollider",
		},
		EventBus: EventBusConfig{
			Stream:    "EVENTS",
			Retention: 24,
			Buffer:    256,
		},
		Telemetry: TelemetryConfig{
			ServiceName: "blockpush",
		},
		Logging: LoggingConfig{
			Dir:          "logs",
			ConsoleLevel: "info",
			FileLevel:    "trace",
		},
		Level: LevelConfig{
			Seed:      42,
			Width:     7,
			Depth:     3,
			MaxHeight: 4,
		},
	}
}

// getPortWithEnvFallback возвращает порт с приоритетом: config -> env -> default
func getPortWithEnvFallback(configPort int, envVar string, defaultPort int) int {
	// Если порт задан в конфиге и больше 0, используем его
	if configPort > 0 {
		return configPort
	}

	// Пробуем прочитать из environment variable
	if envVal := os.Getenv(envVar); envVal != "" {
		if port, err := strconv.Atoi(envVal); err == nil && port > 0 {
			return port
		}
	}

	// Используем дефолтное значение
	return defaultPort
}

// Load читает YAML файл конфигурации поверх значений по умолчанию.
// Если path == "", пытается прочитать из ENV GAME_CONFIG, иначе возвращает Default().
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv("GAME_CONFIG")
		if path == "" {
			return Default(), nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("чтение конфигурации %s: %w", path, err)
	}

	return Parse(data)
}

// Parse разбирает YAML поверх значений по умолчанию и проверяет результат
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("разбор конфигурации: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate проверяет конфигурацию и возвращает все найденные ошибки разом
func (c *Config) Validate() error {
	el := errors.NewErrorList()

	if c.Timing.MoveDuration <= 0 {
		el.Add(fmt.Errorf("timing.move_duration должен быть > 0, получено %v", c.Timing.MoveDuration))
	}
	if c.Timing.ColumnLockBuffer < 0 {
		el.Add(fmt.Errorf("timing.column_lock_buffer не может быть отрицательным"))
	}
	if c.Timing.ColorFadeDuration < 0 {
		el.Add(fmt.Errorf("timing.color_fade_duration не может быть отрицательным"))
	}
	if c.Timing.FallImmediateDelay < 0 || c.Timing.SlideBlockDuration < 0 {
		el.Add(fmt.Errorf("задержки падения не могут быть отрицательными"))
	}
	if c.Timing.FrameRate <= 0 || c.Timing.FixedRate <= 0 {
		el.Add(fmt.Errorf("timing.frame_rate и timing.fixed_rate должны быть > 0"))
	}
	if c.Physics.CastRadius <= 0 || c.Physics.CastRadius >= 0.5 {
		el.Add(fmt.Errorf("physics.cast_radius должен быть в (0, 0.5), получено %v", c.Physics.CastRadius))
	}
	if c.Physics.ColumnLockDistance <= 0 {
		el.Add(fmt.Errorf("physics.column_lock_distance должен быть > 0"))
	}
	if c.Physics.GroundTag == "" {
		el.Add(fmt.Errorf("physics.ground_tag не задан"))
	}
	if c.EventBus.Buffer <= 0 {
		el.Add(fmt.Errorf("eventbus.buffer должен быть > 0"))
	}

	return el.Err()
}
