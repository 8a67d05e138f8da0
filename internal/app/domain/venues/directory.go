package venues

import (
	"context"
	"strconv"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/FACorreiaa/go-tekuteku/internal/app/models"
	"github.com/FACorreiaa/go-tekuteku/internal/app/observability/metrics"
)

// refreshTimeout bounds a shared fetch, which outlives any single caller.
const refreshTimeout = 10 * time.Second

type snapshot struct {
	venues   []models.Venue
	loadedAt time.Time
}

// Directory is the in-memory query engine over the full venue collection.
// The collection is held as an immutable snapshot and replaced wholesale.
type Directory struct {
	store  Lister
	ttl    time.Duration
	logger *zap.Logger

	current atomic.Pointer[snapshot]
	// generation moves on every Invalidate. A fetch that started under an
	// older generation never becomes the current snapshot.
	generation atomic.Uint64
	group      singleflight.Group
	now        func() time.Time
}

func NewDirectory(store Lister, ttl time.Duration, logger *zap.Logger) *Directory {
	return &Directory{
		store:  store,
		ttl:    ttl,
		logger: logger,
		now:    time.Now,
	}
}

// Refresh reloads the collection from the store. Concurrent callers of the
// same generation share one fetch; each caller still honours its own ctx.
func (d *Directory) Refresh(ctx context.Context) ([]models.Venue, error) {
	gen := d.generation.Load()
	ch := d.group.DoChan("refresh:"+strconv.FormatUint(gen, 10), func() (any, error) {
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), refreshTimeout)
		defer cancel()

		start := time.Now()
		list, err := d.store.ListAll(fetchCtx)
		metrics.Get().DirectoryRefreshDuration.Record(fetchCtx, time.Since(start).Seconds())
		if err != nil {
			return nil, err
		}
		if d.generation.Load() == gen {
			d.current.Store(&snapshot{venues: list, loadedAt: d.now()})
		}
		return list, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			d.logger.Error("Directory refresh failed", zap.Error(res.Err))
			return nil, res.Err
		}
		d.logger.Debug("Directory refreshed", zap.Bool("shared", res.Shared), zap.Uint64("generation", gen))
		return res.Val.([]models.Venue), nil
	}
}

// Invalidate drops the snapshot so the next read refreshes. Fetches already
// in flight are not stored.
func (d *Directory) Invalidate() {
	d.generation.Add(1)
	d.current.Store(nil)
}

// All returns the full collection, refreshing it when stale. The slice is
// shared between readers and must not be modified.
func (d *Directory) All(ctx context.Context) ([]models.Venue, error) {
	if s := d.current.Load(); s != nil && d.now().Sub(s.loadedAt) < d.ttl {
		return s.venues, nil
	}
	return d.Refresh(ctx)
}

// Search returns the venues matching f in ranking order.
func (d *Directory) Search(ctx context.Context, f Filter) ([]models.Venue, error) {
	list, err := d.All(ctx)
	if err != nil {
		return nil, err
	}
	return Apply(list, f), nil
}
