package folio

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
)

// Run starts the HTTP server and blocks until shutdown.
// It handles SIGINT and SIGTERM for graceful shutdown.
//
// Returns nil on clean shutdown, or an error if the server
// fails to start or shutdown hooks fail.
func (a *App) Run() error {
	ctx, cancel := signal.NotifyContext(a.baseCtx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Listen first to get actual address
	ln, err := net.Listen("tcp", a.server.Addr)
	if err != nil {
		return errors.Join(err, a.shutdown())
	}
	a.mu.Lock()
	a.addr = ln.Addr().String()
	a.mu.Unlock()

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("server starting",
			slog.String("address", ln.Addr().String()),
			slog.Int("actions", len(a.service.Actions())),
		)
		if err := a.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	// Wait for shutdown signal, Stop() call, or error
	var serveErr error
	select {
	case serveErr = <-errCh:
	case <-ctx.Done():
	case <-a.done:
	}

	return errors.Join(serveErr, a.shutdown())
}

// Stop triggers graceful shutdown programmatically.
// Useful for testing or when shutdown needs to be initiated from code.
func (a *App) Stop() {
	a.stopOnce.Do(func() { close(a.done) })
}

// shutdown stops the HTTP server, then releases collaborators in reverse
// order of opening: pending notifications, sessions, store, redis.
func (a *App) shutdown() error {
	a.logger.Info("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), a.shutdownTimeout)
	defer cancel()

	var errs []error
	if err := a.server.Shutdown(ctx); err != nil {
		errs = append(errs, err)
	}
	if err := a.runHooks(ctx); err != nil {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		a.logger.Error("shutdown completed with errors")
		return errors.Join(errs...)
	}

	a.logger.Info("shutdown completed")
	return nil
}
