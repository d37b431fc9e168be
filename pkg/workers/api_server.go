package workers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

type apiServer struct {
	server          *http.Server
	shutdownTimeout time.Duration
}

func NewAPIServer(addr string, handler http.Handler, shutdownTimeout time.Duration) (*apiServer, error) {
	return &apiServer{
		server: &http.Server{
			Addr:    addr,
			Handler: handler,
			// No write timeout: event-stream responses stay open for as long
			// as the upstream model keeps generating.
			ReadHeaderTimeout: 10 * time.Second,
			IdleTimeout:       120 * time.Second,
		},
		shutdownTimeout: shutdownTimeout,
	}, nil
}

func (a *apiServer) Name() string { return "api_server" }

func (a *apiServer) Start(ctx context.Context) error {
	slog.Info("Starting worker", "name", a.Name(), "addr", a.server.Addr)
	defer slog.Info("Worker stopped", "name", a.Name())

	errCh := make(chan error, 1)
	go func() {
		if err := a.server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("listening on %s: %w", a.server.Addr, err)
	case <-ctx.Done():
	}

	shutdownCtx, cancelFn := context.WithTimeout(context.Background(), a.shutdownTimeout)
	defer cancelFn()

	if err := a.server.Shutdown(shutdownCtx); err != nil {
		if closeErr := a.server.Close(); closeErr != nil {
			return fmt.Errorf("closing server after failed shutdown: %w", closeErr)
		}
		return fmt.Errorf("shutting down server: %w", err)
	}
	return nil
}
