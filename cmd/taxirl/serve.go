package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"time"

	"taxi-rl-go/internal/config"
	"taxi-rl-go/internal/engine"
	"taxi-rl-go/internal/taxi"
	"taxi-rl-go/internal/transport/ws"
)

func runServe(args []string) error {
	fs := newFlagSet("serve")
	var c common
	c.register(fs)
	addr := fs.String("addr", "", "listen address (empty keeps the config value)")

	if err := fs.Parse(args); err != nil {
		return err
	}
	cfg, logger, err := c.load()
	if err != nil {
		return err
	}
	if *addr != "" {
		cfg.Serve.Addr = *addr
	}
	model, err := buildModel(cfg, logger)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              cfg.Serve.Addr,
		Handler:           newStreamServer(model, cfg, logger).Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info("serving", "addr", cfg.Serve.Addr, "env", taxi.EnvID)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	logger.Info("server stopped")
	return nil
}

// serveBase is the training config a bare START runs with. Sessions are
// watched live, so every step is streamed and paced by the serve delay.
func serveBase(cfg config.Config) engine.Config {
	base := cfg.Train
	base.StepDelayMs = cfg.Serve.StepDelayMs
	base.SkipStepSnapshots = false
	return base
}

func newStreamServer(model *taxi.Model, cfg config.Config, logger *slog.Logger) *ws.Server {
	frame := func(state, action int) string {
		var last *taxi.Action
		if action >= 0 {
			a := taxi.Action(action)
			last = &a
		}
		out, err := model.RenderString(state, last)
		if err != nil {
			return ""
		}
		return out
	}
	return ws.NewServer(model, serveBase(cfg), frame, logger)
}
