package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"insights/internal/backend"
	"insights/internal/config"
	"insights/internal/event"
	apphttp "insights/internal/http"
	"insights/internal/log"
	"insights/internal/seed"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	cfg := config.Load()

	logger := log.New(log.Config{
		Level:     log.ParseLevel(cfg.LogLevel),
		Component: log.ComponentApp,
	})
	log.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		logger.Error("configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}

	factory := backend.NewFactory(logger)
	st, cleanup, err := factory.Create(cfg)
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

	// AMQP is optional; without a URL uploads simply skip publishing.
	var events *event.Client
	if cfg.AMQPURL != "" {
		events, err = event.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
		if err != nil {
			logger.Error("failed to initialize AMQP client", log.FieldError, err)
			os.Exit(1)
		}
		defer events.Close()
	} else {
		logger.Info("AMQP disabled, no AMQP_URL provided")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := seed.New(st, logger).Run(ctx, cfg.DemoUserEmail); err != nil {
		logger.Error("demo seeding failed", log.FieldError, err)
		os.Exit(1)
	}

	srv := apphttp.NewServer(":"+cfg.Port, st, events, cfg.SessionTTL, cfg.DemoUserEmail, logger)
	srv.ReadTimeout = 15 * time.Second
	srv.WriteTimeout = 30 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("starting server",
			"port", cfg.Port, log.FieldBackend, cfg.DataBackend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("server error", log.FieldError, err)
		os.Exit(1)
	}
	logger.Info("server stopped gracefully")
}
