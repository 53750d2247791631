package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/wastestats/wastestats/server/internal/api"
	"github.com/wastestats/wastestats/server/internal/config"
	"github.com/wastestats/wastestats/server/internal/dataset"
	"github.com/wastestats/wastestats/server/internal/metrics"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	dataPath := flag.String("data", "", "dataset file; overrides dataset.path from the config")
	flag.Parse()

	cfg, err := loadConfig(*configPath, *dataPath)
	if err != nil {
		slog.Error("failed to load config", "err", err)
		os.Exit(1)
	}

	slog.SetDefault(newLogger(cfg.Log))
	slog.Info("wastestats-server starting", "config", *configPath)

	slog.Info("config loaded",
		"http_port", cfg.Server.HTTPPort,
		"dataset", cfg.Dataset.Path,
		"format", cfg.Dataset.EffectiveFormat(),
		"watch", cfg.Dataset.Watch,
	)

	// The table is loaded once; every request reads it without reloading.
	st, err := dataset.Open(cfg.Dataset)
	if err != nil {
		slog.Error("failed to load dataset", "path", cfg.Dataset.Path, "err", err)
		os.Exit(1)
	}
	tbl := st.Current()
	metrics.ObserveDataset(tbl.Len(), tbl.Skipped)
	slog.Info("dataset loaded",
		"records", tbl.Len(),
		"entities", tbl.EntityCount(),
		"skipped", tbl.Skipped,
	)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if cfg.Dataset.Watch {
		go func() {
			err := dataset.Watch(ctx, cfg.Dataset.Path, dataset.DefaultDebounce, func() { reload(st) })
			if err != nil {
				slog.Error("dataset watcher stopped", "err", err)
			}
		}()
	}

	httpMux := http.NewServeMux()
	httpMux.Handle("/metrics", metrics.Handler())
	httpMux.Handle("/", metrics.Middleware(api.New(st), api.Routes...))

	httpSrv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.HTTPPort),
		Handler: httpMux,
	}
	go func() {
		slog.Info("HTTP server listening", "port", cfg.Server.HTTPPort)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("HTTP server stopped", "err", err)
			cancel()
		}
	}()

	<-ctx.Done()
	slog.Info("wastestats-server shutting down")

	shutdownCtx, stop := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer stop()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP shutdown", "err", err)
	}
}

// loadConfig reads path, falling back to defaults when the file does not exist.
// A non-empty dataPath replaces dataset.path and the result is validated again.
func loadConfig(path, dataPath string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		slog.Warn("config file not found, using defaults", "path", path)
		cfg, err = config.Defaults(), nil
	}
	if err != nil {
		return nil, err
	}
	if dataPath == "" {
		return cfg, nil
	}
	cfg.Dataset.Path = dataPath
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: -data: %w", err)
	}
	return cfg, nil
}

func reload(st *dataset.Store) {
	t, err := st.Reload()
	if err != nil {
		metrics.DatasetReloads.WithLabelValues("failure").Inc()
		slog.Error("dataset: reload failed, keeping previous table", "err", err)
		return
	}
	metrics.DatasetReloads.WithLabelValues("success").Inc()
	metrics.ObserveDataset(t.Len(), t.Skipped)
	slog.Info("dataset: reloaded", "records", t.Len(), "skipped", t.Skipped)
}

func newLogger(cfg config.LogConfig) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(cfg.Format, "text") {
		return slog.New(slog.NewTextHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, opts))
}
