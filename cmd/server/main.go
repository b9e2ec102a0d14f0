package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/mcoot/playgate/internal/api"
	"github.com/mcoot/playgate/internal/factory"
)

func main() {
	envCfg, err := factory.LoadEnvConfig()
	if err != nil {
		slog.Error("failed to read configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Set up logging with JSON output
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: envCfg.SlogLevel(),
	}))
	slog.SetDefault(logger)

	cfg, err := envCfg.FactoryConfig(logger)
	if err != nil {
		logger.Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	app, err := factory.New(cfg)
	if err != nil {
		logger.Error("failed to create application", slog.String("error", err.Error()))
		os.Exit(1)
	}

	server := api.NewServer(app.Router(), envCfg.ServerConfig(), logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, server, app, envCfg.ViewerSweep, logger); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logger.Info("server stopped")
}

func run(ctx context.Context, server *api.Server, app *factory.App, sweep time.Duration, logger *slog.Logger) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(server.Start)

	// Shutdown on signal or when another member fails
	g.Go(func() error {
		<-ctx.Done()
		logger.Info("shutdown signal received")
		// Closing viewers first ends their event streams, which would
		// otherwise hold Shutdown open until its timeout
		app.Viewers.CloseAll()
		err := server.Shutdown(context.Background())
		if closeErr := app.Close(); closeErr != nil {
			logger.Warn("application close failed", slog.String("error", closeErr.Error()))
		}
		return err
	})

	// Idle viewer expiry
	g.Go(func() error {
		ticker := time.NewTicker(sweep)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
				app.Viewers.CleanupIdle()
			}
		}
	})

	logger.Info("server started", slog.String("addr", server.Addr()))
	return g.Wait()
}
