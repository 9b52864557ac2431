// Package main runs the roomcast server: a room-scoped presence and
// broadcast hub behind a WebSocket endpoint.
package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"

	"go.uber.org/zap"

	"github.com/mkarlsen/roomcast/internal/config"
	"github.com/mkarlsen/roomcast/internal/hub"
	"github.com/mkarlsen/roomcast/internal/observability"
	"github.com/mkarlsen/roomcast/internal/server"
	"github.com/mkarlsen/roomcast/internal/session"
	"github.com/mkarlsen/roomcast/internal/transport/ws"
)

func main() {
	configPath := flag.String("config", "", "path to configuration file; empty = defaults plus environment")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer logger.Sync()

	store := session.NewStore()
	h := hub.NewHub(store, logger)
	gateway := ws.NewGateway(h, logger, cfg.Hub.OutboxBuffer)

	srv := server.NewHTTPServer(cfg.Server, server.Routes(gateway))

	lifecycle := server.NewLifecycle(logger)

	// The gateway is added first so shutdown stops the HTTP listener
	// before draining client connections.
	lifecycle.Add("gateway", &server.FuncService{
		StartFn: func() error { return nil },
		StopFn: func() {
			if err := gateway.Shutdown(cfg.Server.ShutdownTimeout); err != nil {
				logger.Warn("gateway shutdown", zap.Error(err))
			}
		},
	})

	lifecycle.Add("http", &server.FuncService{
		StartFn: func() error {
			logger.Info("http server listening",
				zap.String("addr", cfg.Server.Addr()),
			)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		},
		StopFn: func() {
			ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(ctx); err != nil {
				logger.Warn("http server shutdown", zap.Error(err))
			}
		},
	})

	if err := lifecycle.Run(context.Background()); err != nil {
		logger.Fatal("server error", zap.Error(err))
	}
}
