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
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/mmynk/familyalbum/internal/auth"
	"github.com/mmynk/familyalbum/internal/config"
	"github.com/mmynk/familyalbum/internal/docstore"
	"github.com/mmynk/familyalbum/internal/feed"
	"github.com/mmynk/familyalbum/internal/metrics"
	"github.com/mmynk/familyalbum/internal/middleware"
	"github.com/mmynk/familyalbum/internal/pubsub"
	"github.com/mmynk/familyalbum/internal/rpc"
	"github.com/mmynk/familyalbum/internal/service"
	"github.com/mmynk/familyalbum/internal/storage/sqlite"
	"github.com/mmynk/familyalbum/pkg/logging"
)

const shutdownTimeout = 5 * time.Second

func main() {
	cfg, err := config.LoadServer()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	logging.Setup(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		slog.Error("Server failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Server) error {
	backend, err := sqlite.New(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer backend.Close()
	slog.Info("Storage initialized", "database", cfg.DBPath)

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	opts := []docstore.Option{docstore.WithMetrics(m)}
	if cfg.RedisAddr != "" {
		rdb, err := pubsub.Connect(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			return err
		}
		defer rdb.Close()
		notifier := pubsub.NewRedisNotifier(rdb)
		opts = append(opts, docstore.WithNotifier(notifier))
		slog.Info("Change notifications enabled", "redis", cfg.RedisAddr, "instance_id", notifier.InstanceID())
	}
	store := docstore.NewLocal(backend, opts...)

	go func() {
		if err := store.Follow(ctx); err != nil && ctx.Err() == nil {
			slog.Error("Change notifications stopped", "error", err)
		}
	}()

	jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.TokenDuration)

	mux := http.NewServeMux()

	docPath, docHandler := rpc.NewDocumentServiceHandler(
		service.NewDocumentService(store),
		connect.WithInterceptors(middleware.RequireAuth(jwtManager), middleware.Logging(m)),
	)
	mux.Handle(docPath, docHandler)
	mux.Handle("/feed", feed.NewHandler(store, jwtManager, m))
	mux.Handle("/metrics", metrics.Handler(reg))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	// Wrap with h2c for HTTP/2 without TLS (required for Connect streams)
	handler := h2c.NewHandler(loggingMiddleware(corsMiddleware(mux)), &http2.Server{})

	addr := fmt.Sprintf(":%d", cfg.Port)
	server := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		slog.Info("Store server starting", "address", addr, "url", fmt.Sprintf("http://localhost%s", addr))
		errc <- server.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	slog.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		// Subscribe streams and feed sockets do not end on their own.
		server.Close()
	}
	slog.Info("Server stopped")
	return nil
}

// loggingMiddleware logs all plain HTTP requests. Connect calls are logged by
// the interceptor.
func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		next.ServeHTTP(w, r)

		slog.Debug("Request completed",
			"method", r.Method,
			"path", r.URL.Path,
			"remote_addr", r.RemoteAddr,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}

// corsMiddleware adds CORS headers for browser access
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type, Connect-Protocol-Version, Connect-Timeout-Ms")
		w.Header().Set("Access-Control-Expose-Headers", "Connect-Protocol-Version, Connect-Timeout-Ms")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
