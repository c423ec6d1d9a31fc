package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/okian/atdiff/internal/adapters/http/api"
	"github.com/okian/atdiff/internal/adapters/http/site"
	"github.com/okian/atdiff/internal/adapters/http/swagger"
	"github.com/okian/atdiff/internal/adapters/repository"
	"github.com/okian/atdiff/internal/config"
	"github.com/okian/atdiff/internal/domain/table"
	"github.com/okian/atdiff/pkg/logger"
	"github.com/okian/atdiff/pkg/metrics"
)

// HTTP server timeout constants.
const (
	readTimeout       = 10 * time.Second
	writeTimeout      = 10 * time.Second
	idleTimeout       = 60 * time.Second
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 30 * time.Second
)

func main() {
	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	log := logger.Named("viewer")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	metrics.Init(
		metrics.WithMetricsEnabled(cfg.MetricsEnabled),
		metrics.WithNamespace(cfg.MetricsNamespace),
		metrics.WithSubsystem("board"),
		metrics.WithHistogramBuckets(cfg.MetricsBucketsMS),
		metrics.WithCustomLabels(map[string]string{"process": "viewer"}),
	)
	metrics.RegisterRuntimeCollectors()

	mux, err := newMux(ctx, cfg, log)
	if err != nil {
		log.Fatal(ctx, "failed to load table", logger.String("path", cfg.DataPath), logger.Error(err))
	}

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error(ctx, "HTTP server failed", logger.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	log.Info(ctx, "shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Error(err))
	}
	log.Info(ctx, "server stopped")
}

// newMux loads the exported table once, classifies it and registers every route.
func newMux(ctx context.Context, cfg *config.Config, log logger.Logger) (*http.ServeMux, error) {
	t, err := repository.NewCSVStore(cfg.DataPath).Load(ctx)
	if err != nil {
		return nil, err
	}
	schema, err := table.Classify(t, api.DefaultImageColumn)
	if err != nil {
		return nil, fmt.Errorf("classify %s: %w", cfg.DataPath, err)
	}

	kinds := schema.CountByKind()
	metrics.UpdateTableShape(t.Len(), kinds)
	log.Info(ctx, "table loaded",
		logger.String("path", cfg.DataPath),
		logger.Int("rows", t.Len()),
		logger.Any("columns_by_kind", kinds),
	)
	for _, c := range schema.Columns() {
		log.Debug(ctx, "column classified",
			logger.String("column", c.Name),
			logger.String("kind", c.Kind.String()),
			logger.Bool("excluded", c.Excluded),
			logger.Bool("coerced", c.Coerced),
		)
	}

	mux := http.NewServeMux()
	swagger.Register(ctx, mux)
	site.Register(ctx, mux)
	api.NewServer(schema, api.WithLogger(log)).Register(ctx, mux)
	return mux, nil
}
