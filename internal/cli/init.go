// Package cli holds the start-up steps shared by cmd/finboard and
// cmd/finboard-worker.
package cli

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"

	"finboard/internal/amqp"
	"finboard/internal/config"
	"finboard/internal/log"
	"finboard/internal/remote"
	"finboard/internal/snapshot"
)

// SetupLogger builds the process logger at level and installs it as the slog default.
func SetupLogger(level string) *log.Logger {
	cfg := log.DefaultConfig()
	cfg.Level = log.ParseLevel(level)
	logger := log.New(cfg)
	log.SetDefault(logger)
	return logger
}

// LoadEnvFile loads .env for local development. A missing file is fine.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig loads configuration and exits the process when it is invalid.
func LoadAndValidateConfig() *config.Config {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		fields := log.NewFields().
			WithOperation(log.OpStartup).
			WithError(err).
			WithErrorType(log.ErrorTypeConfiguration)
		SetupLogger("info").Error("Configuration validation failed", fields.ToSlice()...)
		os.Exit(1)
	}
	return cfg
}

// BackendConfig maps the process configuration onto the backend factory's.
func BackendConfig(cfg *config.Config) remote.Config {
	return remote.Config{
		Type:          remote.BackendType(strings.ToLower(cfg.Backend)),
		BaseURL:       cfg.BackendURL,
		Timeout:       cfg.BackendTimeout,
		DataDirectory: cfg.DataDir,
	}
}

// InitBackend builds the configured backend or exits.
func InitBackend(ctx context.Context, logger *log.Logger, cfg *config.Config) remote.Backend {
	backend, err := remote.NewFactory(logger).CreateBackend(ctx, BackendConfig(cfg))
	if err != nil {
		logger.Error("Failed to initialize backend", log.FieldError, err.Error(), "backend", cfg.Backend)
		os.Exit(1)
	}
	return backend
}

// OpenSnapshot opens the snapshot database, or returns nil when none is configured.
func OpenSnapshot(logger *log.Logger, dbPath string) *snapshot.SQLiteStore {
	if dbPath == "" {
		return nil
	}
	store, err := snapshot.Open(dbPath, logger)
	if err != nil {
		logger.Error("Failed to open snapshot database", log.FieldError, err.Error(), "path", dbPath)
		os.Exit(1)
	}
	return store
}

// NewPublisher connects to the broker when one is configured. Without a
// broker, or when it cannot be reached at start-up, change events are only logged.
func NewPublisher(logger *log.Logger, cfg *config.Config) amqp.Publisher {
	if cfg.AMQPURL == "" {
		logger.Info("AMQP disabled, change events are logged only")
		return amqp.NewLogPublisher(logger)
	}
	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
	if err != nil {
		logger.Warn("AMQP unavailable, change events are logged only", log.FieldError, err.Error())
		return amqp.NewLogPublisher(logger)
	}
	return client
}

// ShutdownContext returns a context cancelled on SIGINT or SIGTERM.
func ShutdownContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}
