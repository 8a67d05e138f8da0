package server

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
)

// ShutdownTimeout bounds how long in-flight requests and queued work get.
const ShutdownTimeout = 10 * time.Second

// Closer releases a resource within the shutdown deadline.
type Closer func(ctx context.Context) error

// GracefulShutdown waits for SIGINT or SIGTERM and runs the closers in order
// under one deadline.
func GracefulShutdown(logger *zap.Logger, done chan<- struct{}, closers ...Closer) {
	// Create context that listens for the interrupt signal from the OS
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()
	logger.Info("Shutting down gracefully, press Ctrl+C again to force")

	stop() // Allow Ctrl+C to force shutdown

	shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()

	RunClosers(shutdownCtx, logger, closers...)
	logger.Info("Server exiting")
	close(done)
}

// RunClosers calls every closer in order, even after one fails, and returns
// the number of failures.
func RunClosers(ctx context.Context, logger *zap.Logger, closers ...Closer) int {
	failed := 0
	for i, closeFn := range closers {
		if err := closeFn(ctx); err != nil {
			failed++
			logger.Error("Error while releasing resources", zap.Int("step", i), zap.Error(err))
		}
	}
	return failed
}
