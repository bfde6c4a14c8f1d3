package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/okian/hackathon/internal/adapters/http/api"
	"github.com/okian/hackathon/internal/adapters/http/swagger"
	"github.com/okian/hackathon/internal/adapters/repository"
	"github.com/okian/hackathon/internal/adapters/repository/gormstore"
	app "github.com/okian/hackathon/internal/app"
	"github.com/okian/hackathon/internal/config"
	"github.com/okian/hackathon/pkg/logger"
	"github.com/okian/hackathon/pkg/metrics"
	"github.com/okian/hackathon/pkg/tracing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// HTTP server timeout constants.
const (
	readTimeout               = 10 * time.Second
	writeTimeout              = 10 * time.Second
	idleTimeout               = 60 * time.Second
	readHeaderTimeout         = 5 * time.Second
	shutdownTimeout           = 30 * time.Second
	systemMetricsInterval     = 10 * time.Second
	nanosecondsPerMillisecond = 1e6
	serviceName               = "hackathon"
)

func main() {
	// Our own system metrics replace the default Go collectors.
	prometheus.Unregister(collectors.NewGoCollector())
	prometheus.Unregister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync()
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		logger.Get().Error(ctx, "hackathon server failed", logger.Error(err))
		stop()
		os.Exit(1)
	}
}

// run wires config, storage, the service and the HTTP surface, then blocks
// until ctx is cancelled.
func run(ctx context.Context) error {
	// defaults -> .env -> optional YAML file -> HACKATHON_* env
	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}

	log := logger.Get()
	applyLogging(ctx, log, cfg)

	shutdownTracing, err := tracing.Setup(ctx, serviceName, cfg.OTELEndpoint)
	if err != nil {
		log.Warn(ctx, "tracing disabled", logger.String("endpoint", cfg.OTELEndpoint), logger.Error(err))
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := shutdownTracing(flushCtx); err != nil {
			log.Warn(ctx, "tracing shutdown failed", logger.Error(err))
		}
	}()

	if cfg.RegistrationGapHours < config.MinRegistrationGapHours {
		log.Warn(ctx, "registration gap below two days", logger.Int("hours", cfg.RegistrationGapHours))
	}

	store, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}

	svc := app.New(
		app.WithLogger(log.Named("service")),
		app.WithStore(store),
		app.WithRegistrationGap(cfg.RegistrationGap()),
		app.WithScoreRange(cfg.MinScore, cfg.MaxScore),
		app.WithReinviteDeclined(cfg.AllowReinviteDeclined),
		app.WithPasswordCost(cfg.PasswordCost),
	)
	if err := svc.Start(ctx); err != nil {
		return err
	}
	defer svc.Stop()

	tokens, err := api.NewTokens(cfg.JWTSecret, cfg.TokenTTL())
	if err != nil {
		return err
	}

	go startSystemMetricsUpdater(ctx)

	mux := http.NewServeMux()
	swagger.Register(ctx, mux)
	api.NewServer(svc, tokens, api.WithLogger(log.Named("http"))).Register(ctx, mux)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr), logger.String("store", cfg.StoreDriver))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return err
		}
	case <-ctx.Done():
	}
	log.Info(ctx, "shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Error(err))
	}

	log.Info(ctx, "server stopped")
	return nil
}

// applyLogging switches format and level, falling back to text/info on
// values the logger rejects.
func applyLogging(ctx context.Context, log logger.Logger, cfg *config.Config) {
	if err := logger.SetFormat(cfg.LogFormat); err != nil {
		log.Warn(ctx, "invalid log_format; falling back to text", logger.String("log_format", cfg.LogFormat), logger.Error(err))
		_ = logger.SetFormat("text")
	}
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}
}

// openStore picks the repository backend named by cfg.StoreDriver.
func openStore(ctx context.Context, cfg *config.Config, log logger.Logger) (repository.Store, error) {
	switch cfg.StoreDriver {
	case config.DriverSQLite, config.DriverPostgres:
		store, err := gormstore.Open(ctx, cfg.StoreDriver, cfg.StoreDSN, gormstore.WithLogger(log.Named("gorm")))
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return repository.NewMemoryStore(ctx), nil
	}
}

// startSystemMetricsUpdater refreshes runtime gauges until ctx is done.
func startSystemMetricsUpdater(ctx context.Context) {
	ticker := time.NewTicker(systemMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateSystemMetrics()
		}
	}
}

func updateSystemMetrics() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	metrics.UpdateSystemMemoryUsage(m.Alloc)
	metrics.UpdateSystemGoroutineCount(runtime.NumGoroutine())

	if m.NumGC > 0 {
		avgPauseMs := float64(m.PauseTotalNs) / float64(m.NumGC) / nanosecondsPerMillisecond
		metrics.RecordSystemGCPauseTime(avgPauseMs)
	}
}
