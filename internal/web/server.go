package web

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"
)

// Serve starts an HTTP server that hosts the trace viewer until ctx is done.
func Serve(ctx context.Context, cfg Config) error {
	if ctx == nil {
		return errors.New("web: context is nil")
	}
	if cfg.Addr == "" {
		return errors.New("web: addr is required")
	}
	listener, err := net.Listen("tcp", cfg.Addr)
	if err != nil {
		return err
	}
	return ServeListener(ctx, listener, cfg)
}

// ServeListener serves the viewer on an existing listener until ctx is done.
func ServeListener(ctx context.Context, listener net.Listener, cfg Config) error {
	handler, err := NewHandler(cfg)
	if err != nil {
		_ = listener.Close()
		return err
	}
	if cfg.Logger != nil {
		cfg.Logger.Info("serving trace viewer", "addr", listener.Addr().String())
	}

	server := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Serve(listener)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
		err := <-errCh
		if errors.Is(err, http.ErrServerClosed) || err == nil {
			return nil
		}
		return err
	}
}
