package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"connectrpc.com/connect"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/mmynk/stayledger/internal/auth"
	"github.com/mmynk/stayledger/internal/config"
	"github.com/mmynk/stayledger/internal/ledger"
	"github.com/mmynk/stayledger/internal/metrics"
	"github.com/mmynk/stayledger/internal/middleware"
	"github.com/mmynk/stayledger/internal/service"
	"github.com/mmynk/stayledger/internal/storage/sqlite"
	"github.com/mmynk/stayledger/pkg/logging"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	logging.Setup(cfg.LogLevel, cfg.LogFormat)

	if err := run(cfg); err != nil {
		slog.Error("Server failed", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize SQLite storage
	store, err := sqlite.New(cfg.DBPath, sqlite.WithLocation(cfg.Location))
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer store.Close()
	slog.Info("Storage initialized", "database", cfg.DBPath, "timezone", cfg.Location.String())

	manager := ledger.NewManager(store,
		ledger.WithLocation(cfg.Location),
		ledger.WithPolicy(cfg.Policy),
		ledger.WithClientCardConfigCode(cfg.ClientCardConfigCode),
	)

	worker := manager.Worker()
	worker.Interval = cfg.RefreshInterval
	worker.MaxAttempts = cfg.RefreshMaxAttempts
	worker.Backoff = cfg.RefreshBackoff
	go worker.Run(ctx)
	go sweepStatuses(ctx, manager, cfg.SweepInterval)

	chain, err := interceptors(cfg)
	if err != nil {
		return err
	}

	mux := http.NewServeMux()

	// Register Connect services
	path, handler := service.NewBookingServiceHandler(
		service.NewBookingService(manager, cfg.Location),
		connect.WithInterceptors(chain...),
	)
	mux.Handle(path, handler)
	mux.Handle("/metrics", metrics.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	// Add logging and CORS middleware, then h2c for HTTP/2 without TLS
	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           h2c.NewHandler(loggingMiddleware(corsMiddleware(mux)), &http2.Server{}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Connect server starting",
			"address", server.Addr,
			"url", fmt.Sprintf("http://localhost%s", server.Addr),
			"auth_mode", cfg.AuthMode,
			"policy", cfg.Policy,
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down: %w", err)
	}
	return nil
}

// interceptors builds the Connect interceptor chain for the configured auth
// mode. Auth runs first so the logging interceptor sees the operator.
func interceptors(cfg *config.Config) ([]connect.Interceptor, error) {
	var chain []connect.Interceptor
	switch cfg.AuthMode {
	case config.AuthRequired:
		jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.TokenDuration)
		chain = append(chain, middleware.RequireAuth(jwtManager,
			service.SetCleaningRateProcedure,
			service.SweepStatusesProcedure,
			service.SaveUnitProcedure,
			service.SaveFinancialConfigProcedure,
		))
	case config.AuthOptional:
		chain = append(chain, middleware.OptionalAuth(auth.NewJWTManager(cfg.JWTSecret, cfg.TokenDuration)))
	case config.AuthOff:
		slog.Warn("Authentication disabled")
	default:
		return nil, fmt.Errorf("unknown auth mode %q", cfg.AuthMode)
	}
	return append(chain, middleware.LoggingInterceptor()), nil
}

// sweepStatuses re-derives booking statuses on every tick until ctx is done.
func sweepStatuses(ctx context.Context, manager *ledger.Manager, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := manager.SweepStatuses(ctx); err != nil {
				slog.Error("Status sweep failed", "error", err)
			}
		}
	}
}

// loggingMiddleware logs all incoming requests
func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		slog.Debug("Request received",
			"method", r.Method,
			"path", r.URL.Path,
			"remote_addr", r.RemoteAddr,
			"user_agent", r.UserAgent(),
		)

		next.ServeHTTP(w, r)

		slog.Info("Request completed",
			"method", r.Method,
			"path", r.URL.Path,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}

// corsMiddleware adds CORS headers for browser access
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Request-Id, Connect-Protocol-Version, Connect-Timeout-Ms")
		w.Header().Set("Access-Control-Expose-Headers", "X-Request-Id, Connect-Protocol-Version, Connect-Timeout-Ms")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
