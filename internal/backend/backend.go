// Package backend selects and constructs the persistence backend from
// configuration.
package backend

import (
	"fmt"

	"insights/internal/config"
	"insights/internal/log"
	"insights/internal/storage"
	"insights/internal/store"
	"insights/internal/store/memory"
)

// Type represents the type of backend
type Type string

const (
	MemoryBackend Type = "memory"
	SQLiteBackend Type = "sqlite"
)

// String implements fmt.Stringer
func (t Type) String() string {
	return string(t)
}

// IsValid returns true if the backend type is valid
func (t Type) IsValid() bool {
	switch t {
	case MemoryBackend, SQLiteBackend:
		return true
	default:
		return false
	}
}

// CleanupFunc releases resources held by a backend.
type CleanupFunc func() error

// Factory creates stores based on configuration
type Factory struct {
	logger *log.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *log.Logger) *Factory {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &Factory{logger: logger.WithComponent(log.ComponentBackend)}
}

// Create builds the store named by the application config.
func (f *Factory) Create(cfg *config.Config) (store.Store, CleanupFunc, error) {
	backendType := Type(cfg.DataBackend)
	if !backendType.IsValid() {
		return nil, nil, fmt.Errorf("invalid backend type: %s", cfg.DataBackend)
	}

	switch backendType {
	case SQLiteBackend:
		repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
		if err != nil {
			return nil, nil, fmt.Errorf("initialize sqlite backend: %w", err)
		}
		f.logger.Info("backend initialized",
			log.FieldBackend, SQLiteBackend.String(),
			"db_path", cfg.SQLiteDBPath)
		return repo, repo.Close, nil

	case MemoryBackend:
		s := memory.New()
		f.logger.Info("backend initialized", log.FieldBackend, MemoryBackend.String())
		return s, s.Close, nil

	default:
		return nil, nil, fmt.Errorf("unsupported backend type: %s", backendType)
	}
}
