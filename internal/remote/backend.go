package remote

import (
	"context"
	"fmt"
	"time"

	"finboard/internal/log"
)

// BackendType selects the Backend implementation.
type BackendType string

const (
	KindHTTP   BackendType = "http"
	KindMemory BackendType = "memory"
)

func (bt BackendType) String() string { return string(bt) }

func (bt BackendType) IsValid() bool {
	switch bt {
	case KindHTTP, KindMemory:
		return true
	default:
		return false
	}
}

// BackendTypes returns every valid backend name.
func BackendTypes() []string {
	return []string{KindHTTP.String(), KindMemory.String()}
}

// Config holds what the factory needs to build a backend.
type Config struct {
	Type BackendType

	// http
	BaseURL string
	Timeout time.Duration

	// memory
	DataDirectory string
}

func (c Config) Validate() error {
	switch c.Type {
	case KindHTTP:
		if c.BaseURL == "" {
			return fmt.Errorf("backend url is required for http backend")
		}
		if c.Timeout < 0 {
			return fmt.Errorf("backend timeout must not be negative")
		}
	case KindMemory:
	default:
		return fmt.Errorf("invalid backend type: %q", c.Type)
	}
	return nil
}

// Factory builds a Backend from configuration.
type Factory struct {
	log *log.Logger
}

func NewFactory(logger *log.Logger) *Factory {
	if logger == nil {
		logger = log.Discard()
	}
	return &Factory{log: logger.WithComponent(log.ComponentRemote)}
}

func (f *Factory) CreateBackend(_ context.Context, cfg Config) (Backend, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	switch cfg.Type {
	case KindHTTP:
		c, err := NewHTTPClient(cfg.BaseURL, WithTimeout(cfg.Timeout), WithClientLogger(f.log))
		if err != nil {
			return nil, fmt.Errorf("failed to initialize http backend: %w", err)
		}
		f.log.Info("Initialized http backend", "base_url", cfg.BaseURL, "timeout", cfg.Timeout.String())
		return c, nil
	default:
		dir := cfg.DataDirectory
		if dir == "" {
			dir = "data"
		}
		f.log.Info("Initialized memory backend", "data_directory", dir)
		return NewMemoryBackendFromDir(dir), nil
	}
}
