package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/okian/signconnect/internal/adapters/giphy"
	"github.com/okian/signconnect/internal/adapters/http/api"
	"github.com/okian/signconnect/internal/adapters/http/site"
	"github.com/okian/signconnect/internal/adapters/http/swagger"
	"github.com/okian/signconnect/internal/adapters/livekit"
	"github.com/okian/signconnect/internal/adapters/predictor"
	app "github.com/okian/signconnect/internal/app"
	"github.com/okian/signconnect/internal/config"
	"github.com/okian/signconnect/internal/domain/sign"
	"github.com/okian/signconnect/pkg/logger"
	"github.com/okian/signconnect/pkg/metrics"

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
	serviceMetricsInterval    = 5 * time.Second
	nanosecondsPerMillisecond = 1e6
)

func main() {
	// Disable default Go metrics collection to avoid duplicate metrics
	// We collect our own custom system metrics instead
	prometheus.Unregister(collectors.NewGoCollector())
	prometheus.Unregister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> .env -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		// Use stderr for initialization errors since logger isn't available yet
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}

	if err := logger.Init(logger.WithFormat(cfg.LogFormat)); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync()
	}()

	loggerInstance := logger.Get()

	// Apply configured log level (fallback to info on invalid input)
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		loggerInstance.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	svc, err := newService(ctx, cfg, loggerInstance)
	if err != nil {
		loggerInstance.Error(ctx, "failed to build service", logger.Error(err))
		os.Exit(1)
	}
	if err := svc.Start(ctx); err != nil {
		loggerInstance.Error(ctx, "failed to start service", logger.Error(err))
		os.Exit(1)
	}
	defer svc.Stop()

	go startSystemMetricsUpdater(ctx)
	go startServiceMetricsUpdater(ctx, svc)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           newMux(ctx, svc),
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	go func() {
		loggerInstance.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			loggerInstance.Error(ctx, "HTTP server failed", logger.Error(err))
			stop()
		}
	}()

	// Wait for shutdown signal
	<-ctx.Done()
	loggerInstance.Info(ctx, "shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		loggerInstance.Error(ctx, "server shutdown failed", logger.Error(err))
	}

	loggerInstance.Info(ctx, "server stopped")
}

// newService wires the playback service and its optional integrations from cfg.
func newService(ctx context.Context, cfg *config.Config, log logger.Logger) (*app.Service, error) {
	dict := sign.Builtin()
	if cfg.DictionaryPath != "" {
		loaded, err := sign.Load(ctx, cfg.DictionaryPath)
		if err != nil {
			return nil, err
		}
		dict = loaded
		log.Info(ctx, "loaded sign dictionary", logger.String("path", cfg.DictionaryPath), logger.Int("signs", dict.Len()))
	}

	opts := []app.Option{
		app.WithLogger(log.Named("service")),
		app.WithDictionary(dict),
		app.WithStepBounds(cfg.MinStepDuration(), cfg.MaxStepDuration()),
		app.WithStepDuration(cfg.StepDuration()),
		app.WithMaxSessions(cfg.MaxSessions),
		app.WithIdleTimeout(cfg.SessionIdleTimeout()),
		app.WithStreamBufferSize(cfg.StreamBufferSize),
	}

	// Unconfigured integrations stay unset; their routes answer 503.
	if issuer := livekit.NewIssuer(cfg.LiveKitAPIKey, cfg.LiveKitAPISecret,
		livekit.WithURL(cfg.LiveKitURL),
		livekit.WithTTL(cfg.TokenTTL()),
	); issuer.Configured() {
		opts = append(opts, app.WithTokenIssuer(issuer))
	}
	if classifier := predictor.New(cfg.PredictorURL,
		predictor.WithTimeout(cfg.PredictorTimeout()),
	); classifier.Configured() {
		opts = append(opts, app.WithPredictor(classifier))
	}
	if gifs := giphy.New(cfg.GiphyAPIKey,
		giphy.WithURL(cfg.GiphyURL),
		giphy.WithTimeout(cfg.GiphyTimeout()),
	); gifs.Configured() {
		opts = append(opts, app.WithGifSearcher(gifs))
	}

	return app.New(opts...), nil
}

// newMux registers the docs, the API and the demo page.
func newMux(ctx context.Context, svc *app.Service) *http.ServeMux {
	mux := http.NewServeMux()
	swagger.Register(ctx, mux)
	api.NewServer(svc, svc).Register(ctx, mux)
	site.Register(ctx, mux)
	return mux
}

// startSystemMetricsUpdater starts a background goroutine that updates system metrics.
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

// startServiceMetricsUpdater starts a background goroutine that updates service metrics.
func startServiceMetricsUpdater(ctx context.Context, svc *app.Service) {
	ticker := time.NewTicker(serviceMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateServiceMetrics(svc)
		}
	}
}

// updateSystemMetrics updates system-level metrics.
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

// updateServiceMetrics resyncs the session gauge with the store.
func updateServiceMetrics(svc *app.Service) {
	stats := svc.GetStats()
	if sessions, ok := stats["sessions"].(int); ok {
		metrics.UpdateActiveSessions(sessions)
	}
}
