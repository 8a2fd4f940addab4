package cli

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/aretw0/lifecycle"
	"github.com/aretw0/slotflow"
	httpAdapter "github.com/aretw0/slotflow/pkg/adapters/http"
	"github.com/aretw0/slotflow/pkg/adapters/mcp"
)

// Serve runs the HTTP adapter on addr until ctx is cancelled.
func Serve(ctx context.Context, app *App, addr string) error {
	if err := app.Watch(ctx); err != nil {
		return err
	}
	opts := []httpAdapter.Option{
		httpAdapter.WithLogger(app.Logger),
		httpAdapter.WithVersion(slotflow.Version),
		httpAdapter.WithRequestValidation(app.Config.HTTP.Validate),
	}
	if app.Metrics != nil {
		opts = append(opts, httpAdapter.WithMetrics(app.Metrics.Handler()))
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           httpAdapter.NewHandler(app.Manager, opts...),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	lifecycle.Go(ctx, func(ctx context.Context) error {
		app.Logger.Info("starting slotflow server", "addr", addr, "flow", app.Config.Flow, "store", app.Config.Store.Kind)
		serverErrors <- srv.ListenAndServe()
		return nil
	})

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			app.Logger.Warn("graceful shutdown did not complete", "err", err)
			return srv.Close()
		}
		app.Logger.Info("slotflow server stopped gracefully")
		return nil
	}
}

// ServeMCP runs the MCP adapter over stdio, or SSE on port.
func ServeMCP(ctx context.Context, app *App, transport string, port int) error {
	srv := mcp.NewServer(app.Manager, slotflow.Version, mcp.WithLogger(app.Logger))
	switch transport {
	case "stdio":
		return srv.ServeStdio()
	case "sse":
		err := srv.ServeSSE(ctx, port)
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
	return errors.New("unknown transport " + transport + ", supported: stdio, sse")
}
