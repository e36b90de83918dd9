// Command seed populates a store with the demo dataset and exits. Useful for
// preparing a SQLite file before first boot or for resetting a dev database.
package main

import (
	"context"
	"os"

	"github.com/joho/godotenv"

	"insights/internal/backend"
	"insights/internal/config"
	"insights/internal/log"
	"insights/internal/seed"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()

	logger := log.New(log.Config{
		Level:     log.ParseLevel(cfg.LogLevel),
		Component: log.ComponentSeed,
	})
	log.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		logger.Error("configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}
	if cfg.DataBackend == backend.MemoryBackend.String() {
		logger.Error("seeding a memory backend is pointless, set DATA_BACKEND=sqlite")
		os.Exit(1)
	}

	st, cleanup, err := backend.NewFactory(logger).Create(cfg)
	if err != nil {
		logger.Error("failed to initialize backend",
			log.FieldError, err, log.FieldBackend, cfg.DataBackend)
		os.Exit(1)
	}
	defer func() {
		if err := cleanup(); err != nil {
			logger.Error("backend cleanup failed", log.FieldError, err)
		}
	}()

	if err := seed.New(st, logger).Run(context.Background(), cfg.DemoUserEmail); err != nil {
		logger.Error("seeding failed", log.FieldError, err)
		os.Exit(1)
	}
	logger.Info("seeding complete", "email", cfg.DemoUserEmail)
}
