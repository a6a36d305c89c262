package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/JonMunkholm/detarget/internal/config"
	"github.com/JonMunkholm/detarget/internal/core"
	"github.com/JonMunkholm/detarget/internal/core/tables" // Register all tables
	"github.com/JonMunkholm/detarget/internal/logging"
	"github.com/JonMunkholm/detarget/internal/source"
	"github.com/JonMunkholm/detarget/internal/web"
	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"
)

func main() {
	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	slog.Info("configuration loaded",
		"port", cfg.Server.Port,
		"source", config.MaskLocator(cfg.Source.Locator),
		"export_max_concurrent", cfg.Export.MaxConcurrent,
		"rate_limit_enabled", cfg.Rate.Enabled,
	)

	if err := applyViewFile(cfg.View.File); err != nil {
		slog.Error("failed to apply view file", "path", cfg.View.File, "error", err)
		os.Exit(1)
	}
	slog.Info("tables registered", "count", core.TableCount())

	fetcher, err := source.Open(cfg.Source.Locator, source.Options{
		Timeout:     cfg.Source.Timeout,
		S3Region:    cfg.Source.S3Region,
		S3Endpoint:  cfg.Source.S3Endpoint,
		S3PathStyle: cfg.Source.S3PathStyle,
	})
	if err != nil {
		// Serve the empty table and report the code on /api/status.
		fetcher = brokenSource{locator: config.MaskLocator(cfg.Source.Locator), err: err}
	}

	service := core.NewService(config.MaskLocator(cfg.Source.Locator))
	server := web.NewServer(service, cfg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	// The single startup load. Pages render an empty table until it lands.
	g.Go(func() error {
		_, err := service.Load(gctx, &core.Loader{
			Fetcher:  fetcher,
			Timeout:  cfg.Source.Timeout,
			MaxBytes: cfg.Source.MaxBytes,
			Logger:   slog.Default(),
		})
		return err
	})

	g.Go(func() error {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server: %w", err)
		}
		return nil
	})

	// Graceful shutdown on signal or when the server fails.
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := server.WaitForExports(shutdownCtx); err != nil {
			slog.Warn("exports did not complete in time", "error", err)
		}
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}

// applyViewFile overrides the detargeting table's default view from the
// optional YAML file.
func applyViewFile(path string) error {
	vf, err := config.LoadViewFile(path)
	if err != nil || vf == nil {
		return err
	}
	def, ok := core.Get(tables.DetargetingKey)
	if !ok {
		return fmt.Errorf("%w: %s", core.ErrTableNotFound, tables.DetargetingKey)
	}
	return core.SetDefaultView(tables.DetargetingKey, vf.Title, vf.ApplyTo(def.Default))
}

// brokenSource stands in for a locator that could not be opened, so the
// failure flows through the loader like any fetch error.
type brokenSource struct {
	locator string
	err     error
}

func (b brokenSource) Fetch(context.Context) (io.ReadCloser, error) { return nil, b.err }

func (b brokenSource) Locator() string { return b.locator }
