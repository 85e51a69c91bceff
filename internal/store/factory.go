package store

import (
	"context"
	"fmt"

	"github.com/mfachrulrazy/smartgotrack-app/internal/amqp"
	"github.com/mfachrulrazy/smartgotrack-app/internal/log"
	"github.com/mfachrulrazy/smartgotrack-app/internal/store/memory"
	"github.com/mfachrulrazy/smartgotrack-app/internal/storage"
)

// Backend selects the persistence implementation.
type Backend string

const (
	MemoryBackend Backend = "memory"
	SQLiteBackend Backend = "sqlite"
)

func (b Backend) IsValid() bool {
	switch b {
	case MemoryBackend, SQLiteBackend:
		return true
	default:
		return false
	}
}

// Config holds what the factory needs to build a backend.
type Config struct {
	Type Backend

	SQLiteDBPath string
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	DataDir string
}

// CleanupFunc releases backend resources on shutdown.
type CleanupFunc func() error

// Result is a wired backend. Publisher is nil when AMQP is not
// configured or unreachable.
type Result struct {
	Store     Store
	Publisher *amqp.Client
	Cleanup   CleanupFunc
}

// Open builds the backend described by cfg.
func Open(ctx context.Context, cfg Config, logger *log.Logger) (*Result, error) {
	if !cfg.Type.IsValid() {
		return nil, fmt.Errorf("invalid backend type: %s", cfg.Type)
	}
	logger = logger.WithComponent(log.ComponentStorage)

	switch cfg.Type {
	case SQLiteBackend:
		return openSQLite(cfg, logger)
	case MemoryBackend:
		return openMemory(cfg, logger)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", cfg.Type)
	}
}

func openSQLite(cfg Config, logger *log.Logger) (*Result, error) {
	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
	}

	// AMQP is optional. The repository's sync_status column still
	// records what is waiting for export, so the worker's sweep picks
	// up anything that never got a notification.
	var publisher *amqp.Client
	if cfg.AMQPURL != "" {
		publisher, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("failed to initialize AMQP client, continuing without sync notifications",
				log.FieldError, err)
			publisher = nil
		} else {
			logger.Info("initialized AMQP client",
				"exchange", cfg.AMQPExchange,
				"queue", cfg.AMQPQueue)
		}
	}

	logger.Info("initialized SQLite backend",
		"db_path", cfg.SQLiteDBPath,
		"amqp_enabled", publisher != nil)

	cleanup := func() error {
		if publisher != nil {
			publisher.Close()
		}
		return repo.Close()
	}
	return &Result{Store: repo, Publisher: publisher, Cleanup: cleanup}, nil
}

func openMemory(cfg Config, logger *log.Logger) (*Result, error) {
	dataDir := cfg.DataDir
	if dataDir == "" {
		dataDir = "data"
	}
	st := memory.NewFromFiles(dataDir)

	logger.Info("initialized memory backend", "data_directory", dataDir)

	// Nothing to release, but callers defer Cleanup unconditionally.
	cleanup := func() error { return nil }
	return &Result{Store: st, Cleanup: cleanup}, nil
}
