package messaging

import (
	"errors"
	"fmt"
	"time"

	"github.com/annel0/blockpush/internal/logging"
	"github.com/nats-io/nats-server/v2/server"
)

// ErrNotReady сервер не принял соединения за отведённое время
var ErrNotReady = errors.New("nats сервер не готов к соединениям")

// EmbeddedServer NATS сервер с JetStream внутри процесса игры.
// Используется, когда внешний брокер не задан.
type EmbeddedServer struct {
	ns *server.Server

	startupTimeout time.Duration
	host           string
	port           int
	storeDir       string
}

// NewEmbeddedServer создаёт сервер, не запуская его
func NewEmbeddedServer(opts ...Option) (*EmbeddedServer, error) {
	s := &EmbeddedServer{
		startupTimeout: 10 * time.Second,
		host:           "127.0.0.1",
		port:           server.RANDOM_PORT,
	}

	for _, opt := range opts {
		opt(s)
	}

	ns, err := server.NewServer(&server.Options{
		Host:      s.host,
		Port:      s.port,
		JetStream: true,
		StoreDir:  s.storeDir,
		NoSigs:    true, // Сигналы обрабатывает приложение
		NoLog:     true,
	})
	if err != nil {
		return nil, fmt.Errorf("nats server: %w", err)
	}
	s.ns = ns

	return s, nil
}

// Start запускает сервер и ждёт готовности к соединениям
func (s *EmbeddedServer) Start() error {
	s.ns.Start()

	if !s.ns.ReadyForConnections(s.startupTimeout) {
		s.ns.Shutdown()
		return ErrNotReady
	}

	logging.Info("📨 Встроенный NATS слушает %s", s.ns.Addr())
	return nil
}

// ClientURL адрес для nats.Connect
func (s *EmbeddedServer) ClientURL() string {
	return s.ns.ClientURL()
}

// Shutdown останавливает сервер и дожидается завершения
func (s *EmbeddedServer) Shutdown() {
	s.ns.Shutdown()
	s.ns.WaitForShutdown()
}
