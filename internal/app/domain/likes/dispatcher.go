package likes

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/FACorreiaa/go-tekuteku/internal/app/observability/metrics"
)

// Dispatcher runs fire-and-forget persistence jobs with bounded
// concurrency. Each job gets its own timeout, detached from the request.
type Dispatcher struct {
	group   errgroup.Group
	timeout time.Duration
	logger  *zap.Logger

	mu      sync.Mutex
	closed  bool
	pending sync.WaitGroup
}

func NewDispatcher(workers int, timeout time.Duration, logger *zap.Logger) *Dispatcher {
	if workers <= 0 {
		workers = 1
	}
	d := &Dispatcher{timeout: timeout, logger: logger}
	d.group.SetLimit(workers)
	return d
}

// Dispatch queues job and returns immediately. Failures are logged and
// counted; nothing is retried or rolled back.
func (d *Dispatcher) Dispatch(name string, job func(ctx context.Context) error) {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		d.logger.Warn("Dispatcher closed, job dropped", zap.String("job", name))
		return
	}
	d.pending.Add(1)
	d.mu.Unlock()

	go func() {
		defer d.pending.Done()
		// Go blocks while all workers are busy.
		d.group.Go(func() error {
			ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
			defer cancel()

			if err := job(ctx); err != nil {
				metrics.Get().LikeDispatchFailures.Add(ctx, 1)
				d.logger.Error("Background job failed", zap.String("job", name), zap.Error(err))
			}
			return nil
		})
	}()
}

// Close stops accepting jobs and waits for queued ones until ctx is done.
func (d *Dispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.pending.Wait()
		_ = d.group.Wait()
		close(done)
	}()

	select {
	case <-done:
		d.logger.Info("Dispatcher drained")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
