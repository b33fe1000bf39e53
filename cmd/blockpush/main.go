package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/annel0/blockpush/internal/config"
	"github.com/annel0/blockpush/internal/eventbus"
	"github.com/annel0/blockpush/internal/game"
	"github.com/annel0/blockpush/internal/level"
	"github.com/annel0/blockpush/internal/logging"
	"github.com/annel0/blockpush/internal/messaging"
	"github.com/annel0/blockpush/internal/metrics"
	"github.com/annel0/blockpush/internal/observability"
	"github.com/annel0/blockpush/internal/wall"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	var (
		configPath = flag.String("config", "", "Путь к YAML конфигурации (или GAME_CONFIG)")
		levelPath  = flag.String("level", "", "Файл уровня; перекрывает level.path из конфигурации")
		seed       = flag.Int64("seed", 0, "Сид генератора уровня, если файл не задан")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("❌ Ошибка загрузки конфигурации: %v", err)
	}
	if *levelPath != "" {
		cfg.Level.Path = *levelPath
	}
	if *seed != 0 {
		cfg.Level.Seed = *seed
	}

	if err := setupLogging(cfg.Logging); err != nil {
		log.Fatalf("❌ Ошибка инициализации логирования: %v", err)
	}
	defer logging.CloseDefaultLogger()

	if err := run(cfg); err != nil {
		logging.Error("❌ %v", err)
		logging.CloseDefaultLogger()
		os.Exit(1)
	}
}

func setupLogging(cfg config.LoggingConfig) error {
	opts := logging.DefaultOptions()
	opts.Dir = cfg.Dir

	var err error
	if opts.ConsoleLevel, err = logging.ParseLevel(cfg.ConsoleLevel); err != nil {
		return err
	}
	if opts.FileLevel, err = logging.ParseLevel(cfg.FileLevel); err != nil {
		return err
	}
	logging.Configure(opts)
	return logging.InitDefaultLogger("blockpush")
}

func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logging.Info("🎮 Запуск blockpush")

	shutdownTelemetry, err := observability.InitTelemetry(ctx, cfg.Telemetry)
	if err != nil {
		return fmt.Errorf("телеметрия: %w", err)
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTelemetry(sctx); err != nil {
			logging.Warn("Остановка телеметрии: %v", err)
		}
	}()

	bus, closeBus, err := openEventBus(cfg.EventBus)
	if err != nil {
		return err
	}
	defer closeBus()

	exporter := eventbus.NewMetricsExporter(bus, prometheus.DefaultRegisterer)
	exporter.Start(5 * time.Second)
	defer exporter.Stop()

	if _, err := eventbus.StartLoggingListener(ctx, bus); err != nil {
		return fmt.Errorf("подписка логгера событий: %w", err)
	}
	if _, err := wall.ListenVacated(ctx, bus, func(sessionID string, cell wall.VacatedCell) {
		logging.Info("🧱 Сессия %s: освобождена ячейка стены (%d,%d)", sessionID, cell.X, cell.Z)
	}); err != nil {
		return fmt.Errorf("подписка на стену: %w", err)
	}

	if host, err := metrics.NewHostCollector(); err != nil {
		logging.Warn("Метрики хоста недоступны: %v", err)
	} else if err := prometheus.Register(host); err != nil {
		logging.Warn("Регистрация метрик хоста: %v", err)
	}

	metricsSrv := startMetricsServer(cfg.Server.GetMetricsPort())
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = metricsSrv.Shutdown(sctx)
	}()

	lvl, err := loadLevel(cfg.Level)
	if err != nil {
		return err
	}

	session, err := game.NewSession(cfg, lvl,
		game.WithEventBus(bus),
		game.WithMetrics(metrics.NewGameMetrics(prometheus.DefaultRegisterer)),
	)
	if err != nil {
		return fmt.Errorf("создание сессии: %w", err)
	}
	defer session.Close()
	logging.Info("✅ Сессия %s: уровень %q, игроков %d", session.ID(), lvl.Name, len(lvl.Players))
	logging.Info("💡 Команды: <игрок> move +x|-x|+z|-z, <игрок> push, <игрок> pull")

	go readCommands(ctx, os.Stdin, session)

	if err := session.Run(ctx); err != nil {
		return fmt.Errorf("сессия: %w", err)
	}
	logging.Info("👋 Сессия %s завершена за %.1fс", session.ID(), session.Elapsed())
	return nil
}

// openEventBus выбирает шину: встроенный NATS, внешний NATS или память
func openEventBus(cfg config.EventBusConfig) (eventbus.EventBus, func(), error) {
	if !cfg.Embedded && cfg.URL == "" {
		bus := eventbus.NewMemoryBus(cfg.Buffer)
		logging.Info("📨 Шина событий: in-memory, буфер %d", cfg.Buffer)
		return bus, func() { _ = bus.Close() }, nil
	}

	url := cfg.URL
	var srv *messaging.EmbeddedServer
	if cfg.Embedded {
		var err error
		srv, err = messaging.NewEmbeddedServer()
		if err != nil {
			return nil, nil, fmt.Errorf("встроенный NATS: %w", err)
		}
		if err := srv.Start(); err != nil {
			return nil, nil, fmt.Errorf("встроенный NATS: %w", err)
		}
		url = srv.ClientURL()
	}

	bus, err := eventbus.NewJetStreamBus(url, eventbus.JetStreamOptions{
		Stream:    cfg.Stream,
		Retention: time.Duration(cfg.Retention) * time.Hour,
	})
	if err != nil {
		if srv != nil {
			srv.Shutdown()
		}
		return nil, nil, err
	}
	logging.Info("📨 Шина событий: JetStream %s, стрим %s", url, cfg.Stream)

	return bus, func() {
		if err := bus.Close(); err != nil {
			logging.Warn("Закрытие шины: %v", err)
		}
		if srv != nil {
			srv.Shutdown()
		}
	}, nil
}

func startMetricsServer(port int) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux}

	go func() {
		logging.Info("📈 Prometheus метрики на :%d/metrics", port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Error("Ошибка HTTP сервера метрик: %v", err)
		}
	}()
	return srv
}

func loadLevel(cfg config.LevelConfig) (*level.File, error) {
	if cfg.Path != "" {
		lvl, err := level.Load(cfg.Path)
		if err != nil {
			return nil, fmt.Errorf("уровень: %w", err)
		}
		return lvl, nil
	}

	logging.Info("🎲 Генерация уровня: сид %d, %dx%d", cfg.Seed, cfg.Width, cfg.Depth)
	return level.Generate(level.GenerateOptions{
		Seed:      cfg.Seed,
		Width:     cfg.Width,
		Depth:     cfg.Depth,
		MaxHeight: cfg.MaxHeight,
	}), nil
}

// readCommands читает намерения построчно и передаёт их в сессию
func readCommands(ctx context.Context, in *os.File, session *game.Session) {
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		intent, err := game.ParseIntent(line)
		if err != nil {
			logging.Warn("%v", err)
			continue
		}
		if err := session.Submit(intent); err != nil {
			logging.Warn("Команда %q: %v", line, err)
		}
	}
}
