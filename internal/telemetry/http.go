package telemetry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RegisterHealth добавляет /healthz и /metrics в mux.
func RegisterHealth(mux *http.ServeMux, started time.Time) {
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, "ok %s", time.Since(started).Truncate(time.Second))
	})
	mux.Handle("GET /metrics", promhttp.Handler())
}

// ServeHealth поднимает служебный HTTP сервер с /healthz и /metrics
// и останавливает его при отмене ctx.
func ServeHealth(ctx context.Context, addr string, logger *slog.Logger) error {
	mux := http.NewServeMux()
	RegisterHealth(mux, time.Now())

	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("health server listening", "addr", addr)
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

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
