package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/desertthunder/learnx/internal/gate"
	"github.com/desertthunder/learnx/internal/server"
	"github.com/urfave/cli/v3"
)

// Serve runs the local JSON API until the context is cancelled.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	progress, err := r.Progress()
	if err != nil {
		return err
	}
	sessions, err := r.Sessions(ctx)
	if err != nil {
		return err
	}
	r.startAutoRefresh(ctx)

	g := gate.New(sessions)
	defer g.Close()
	stop := g.OnChange(func(t gate.Transition) {
		r.logger.Info("auth gate", "from", t.From, "to", t.To)
	})
	defer stop()

	router := server.NewBasicRouter()
	router.Use(server.Recover(r.logger), server.Logging(r.logger))
	server.NewAPI(server.APIOpts{
		Catalog:   r.Catalog(),
		Progress:  progress,
		Sessions:  sessions,
		Gate:      g,
		Validator: r.validator,
		Logger:    r.logger,
	}).Register(router)

	addr := cmd.String("addr")
	if addr == "" {
		addr = r.config.Server.Addr()
	}
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		r.logger.Info("serving API", "addr", addr, "state", g.State())
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrors <- err
		}
		close(serverErrors)
	}()

	select {
	case err := <-serverErrors:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		r.logger.Warn("error shutting down server", "error", err)
	}
	return nil
}
