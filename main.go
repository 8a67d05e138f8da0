package main

import (
	"context"
	"log"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/FACorreiaa/go-tekuteku/internal/pkg/config"
	"github.com/FACorreiaa/go-tekuteku/internal/server"
	"github.com/FACorreiaa/go-tekuteku/pkg/logger"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: Error loading .env file, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	lg, err := logger.New(cfg.LogLevel, cfg.LogEncoding, zap.String("service", server.ServiceName))
	if err != nil {
		return err
	}
	defer func() { _ = lg.Sync() }()

	if cfg.UsesDefaultJWTSecret() {
		lg.Warn("JWT_SECRET_KEY not set, using default (INSECURE - set environment variable in production)")
	}

	otelShutdown, err := server.InitObservability(cfg, lg)
	if err != nil {
		return err
	}

	ctx := context.Background()
	srv, err := server.New(ctx, cfg, lg)
	if err != nil {
		_ = otelShutdown(ctx)
		return err
	}

	// Start pprof server (on separate port, not exposed publicly)
	pprofServer := server.StartPprofServer(cfg.PprofAddr, lg)

	closers := srv.Closers()
	if pprofServer != nil {
		closers = append([]server.Closer{pprofServer.Shutdown}, closers...)
	}
	closers = append(closers, server.Closer(otelShutdown))

	done := make(chan struct{})
	go server.GracefulShutdown(lg, done, closers...)

	if err := srv.ListenAndServe(); err != nil {
		lg.Error("Server error", zap.Error(err))
		return err
	}

	<-done
	lg.Info("Graceful shutdown complete")
	return nil
}
