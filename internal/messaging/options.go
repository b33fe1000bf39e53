package messaging

import "time"

// Option настраивает встроенный сервер
type Option func(*EmbeddedServer)

// WithStartTimeout время ожидания готовности сервера
func WithStartTimeout(d time.Duration) Option {
	return func(s *EmbeddedServer) {
		s.startupTimeout = d
	}
}

// WithHost адрес, на котором слушает сервер
func WithHost(host string) Option {
	return func(s *EmbeddedServer) {
		s.host = host
	}
}

// WithPort порт сервера; по умолчанию случайный свободный
func WithPort(port int) Option {
	return func(s *EmbeddedServer) {
		s.port = port
	}
}

// WithStoreDir каталог хранилища JetStream
func WithStoreDir(dir string) Option {
	return func(s *EmbeddedServer) {
		s.storeDir = dir
	}
}
