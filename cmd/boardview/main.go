package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/park285/Cheese-Board3D/internal/boardbuilder"
	appcfg "github.com/park285/Cheese-Board3D/internal/config"
	"github.com/park285/Cheese-Board3D/internal/obslog"
	"go.uber.org/zap"
)

func main() {
	cfg, err := appcfg.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	if err := obslog.InitFromEnv(); err != nil {
		log.Fatalf("logger init error: %v", err)
	}
	logger := obslog.L()
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	deps, err := boardbuilder.New(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("board_init_failed", zap.Error(err))
	}
	defer deps.Close()

	errCh := make(chan error, 3)
	go func() { errCh <- deps.HTTP.ListenAndServe(cfg.HTTPAddr) }()
	go func() { errCh <- deps.WS.ListenAndServe(cfg.WSAddr) }()

	loopDone := make(chan error, 1)
	go func() { loopDone <- deps.Loop.Run(ctx) }()

	logger.Info("boardview_started",
		zap.String("http_addr", cfg.HTTPAddr),
		zap.String("ws_addr", cfg.WSAddr),
		zap.String("session_id", deps.Loop.SessionID()),
	)

	select {
	case <-ctx.Done():
		logger.Info("shutdown_signal")
	case err := <-errCh:
		if err != nil {
			logger.Error("listener_failed", zap.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := deps.WS.Shutdown(shutdownCtx); err != nil {
		logger.Warn("ws_shutdown_failed", zap.Error(err))
	}
	if err := deps.HTTP.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http_shutdown_failed", zap.Error(err))
	}
	deps.Loop.Stop()
	if err := <-loopDone; err != nil && !errors.Is(err, context.Canceled) {
		logger.Warn("host_loop_error", zap.Error(err))
	}
}
