// Package cli provides the process bootstrap shared by every command:
// environment, configuration, logging, the record store and shutdown.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"cashorganizer/internal/backend"
	"cashorganizer/internal/config"
	"cashorganizer/internal/log"
	"cashorganizer/internal/records"
	"cashorganizer/internal/seed"
	"cashorganizer/internal/services"
)

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig loads configuration from the environment and
// validates it.
func LoadAndValidateConfig() (*config.Config, error) {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// SetupLogger builds the application logger from cfg and installs it as
// the slog default.
func SetupLogger(cfg *config.Config) *log.Logger {
	level, err := log.ParseLevel(cfg.LogLevel)
	logger := log.New(log.Config{
		Level:     level,
		Format:    cfg.LogFormat,
		Component: log.ComponentApp,
		Output:    os.Stderr,
	})
	if err != nil {
		logger.Warn("Unknown log level, using info", log.FieldError, err)
	}
	log.SetDefault(logger)
	return logger
}

// App is what a command needs to run.
type App struct {
	Config  *config.Config
	Logger  *log.Logger
	Store   *records.Store
	Seed    seed.Data
	Options services.Options
}

// InitStore opens the configured backend, loads it into a record store and
// seeds it when empty.
func InitStore(ctx context.Context, cfg *config.Config, logger *log.Logger) (*App, error) {
	data, err := seed.Load(cfg.SeedFile)
	if err != nil {
		return nil, err
	}

	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, err
	}
	b, err := backend.NewFactory(logger).CreateBackend(ctx, bcfg)
	if err != nil {
		return nil, err
	}

	store, err := records.Open(ctx, b, records.WithLogger(logger))
	if err != nil {
		if b.Close != nil {
			b.Close()
		}
		return nil, err
	}
	if err := store.Seed(ctx, data, cfg.SeedExamples); err != nil {
		store.Close()
		return nil, fmt.Errorf("seed store: %w", err)
	}

	return &App{
		Config: cfg,
		Logger: logger,
		Store:  store,
		Seed:   data,
		Options: services.Options{
			Logger:       logger,
			Location:     cfg.Location(),
			Seed:         data,
			SeedExamples: cfg.SeedExamples,
		},
	}, nil
}

// Close releases the store.
func (a *App) Close() error {
	return a.Store.Close()
}

// GracefulShutdown sets up signal handling for graceful shutdown.
// Returns a context that will be cancelled on shutdown signals,
// and a channel that signals when shutdown is complete.
func GracefulShutdown(logger *log.Logger, timeout time.Duration, cleanup func()) (context.Context, <-chan struct{}) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		defer signal.Stop(sigChan)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String(), log.FieldOperation, log.OpShutdown)

		finished := make(chan struct{})
		go func() {
			if cleanup != nil {
				cleanup()
			}
			close(finished)
		}()

		cancel()

		select {
		case <-finished:
			logger.Info("Shutdown complete")
		case <-time.After(timeout):
			logger.Warn("Shutdown timeout reached")
		}
		close(done)
	}()

	return ctx, done
}

// WaitForShutdown blocks until the context is cancelled and cleanup has
// finished or timed out.
func WaitForShutdown(ctx context.Context, done <-chan struct{}) {
	<-ctx.Done()
	<-done
}
