package venues

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/FACorreiaa/go-tekuteku/internal/app/models"
)

// gatedLister blocks the first ListAll until release is closed.
type gatedLister struct {
	*memoryRepo
	entered chan struct{}
	release chan struct{}
	once    sync.Once
}

func newGatedLister(repo *memoryRepo) *gatedLister {
	return &gatedLister{memoryRepo: repo, entered: make(chan struct{}), release: make(chan struct{})}
}

func (g *gatedLister) ListAll(ctx context.Context) ([]models.Venue, error) {
	first := false
	g.once.Do(func() { first = true })
	if first {
		// Read before blocking so the result predates any concurrent write.
		list, err := g.memoryRepo.ListAll(ctx)
		close(g.entered)
		select {
		case <-g.release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		return list, err
	}
	return g.memoryRepo.ListAll(ctx)
}

func TestDirectoryRefreshRaces(t *testing.T) {
	t.Run("write during a refresh is visible to the next read", func(t *testing.T) {
		ctx := context.Background()
		repo := newMemoryRepo(models.Venue{Name: "Old"})
		gate := newGatedLister(repo)
		d := NewDirectory(gate, time.Hour, zap.NewNop())

		stale := make(chan []models.Venue, 1)
		go func() {
			list, err := d.All(ctx)
			assert.NoError(t, err)
			stale <- list
		}()
		<-gate.entered

		require.NoError(t, repo.Insert(ctx, &models.Venue{Name: "Cafe A"}))
		d.Invalidate()

		fresh := make(chan []models.Venue, 1)
		go func() {
			list, err := d.Search(ctx, Filter{})
			assert.NoError(t, err)
			fresh <- list
		}()

		select {
		case list := <-fresh:
			assert.ElementsMatch(t, []string{"Old", "Cafe A"}, names(list))
		case <-time.After(2 * time.Second):
			t.Fatal("read after invalidate waited on the earlier refresh")
		}

		close(gate.release)
		assert.Equal(t, []string{"Old"}, names(<-stale))

		// The earlier fetch finished last but must not replace the newer snapshot.
		list, err := d.All(ctx)
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"Old", "Cafe A"}, names(list))
	})

	t.Run("a cancelled caller does not fail the others", func(t *testing.T) {
		repo := newMemoryRepo(models.Venue{Name: "A"})
		gate := newGatedLister(repo)
		d := NewDirectory(gate, time.Hour, zap.NewNop())

		firstCtx, cancel := context.WithCancel(context.Background())
		firstErr := make(chan error, 1)
		go func() {
			_, err := d.All(firstCtx)
			firstErr <- err
		}()
		<-gate.entered

		second := make(chan error, 1)
		go func() {
			list, err := d.All(context.Background())
			if err == nil {
				assert.Equal(t, []string{"A"}, names(list))
			}
			second <- err
		}()

		cancel()
		assert.ErrorIs(t, <-firstErr, context.Canceled)

		close(gate.release)
		assert.NoError(t, <-second)
	})
}

func TestDirectory(t *testing.T) {
	ctx := context.Background()

	t.Run("serves the snapshot until it goes stale", func(t *testing.T) {
		repo := newMemoryRepo(models.Venue{Name: "A"})
		d := NewDirectory(repo, time.Minute, zap.NewNop())
		now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
		d.now = func() time.Time { return now }

		_, err := d.All(ctx)
		require.NoError(t, err)
		_, err = d.All(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, repo.listCalls())

		now = now.Add(2 * time.Minute)
		_, err = d.All(ctx)
		require.NoError(t, err)
		assert.Equal(t, 2, repo.listCalls())
	})

	t.Run("invalidate forces a refresh", func(t *testing.T) {
		repo := newMemoryRepo(models.Venue{Name: "A"})
		d := NewDirectory(repo, time.Hour, zap.NewNop())

		list, err := d.All(ctx)
		require.NoError(t, err)
		assert.Len(t, list, 1)

		require.NoError(t, repo.Insert(ctx, &models.Venue{Name: "B"}))
		d.Invalidate()

		list, err = d.All(ctx)
		require.NoError(t, err)
		assert.Len(t, list, 2)
	})

	t.Run("search applies the filter", func(t *testing.T) {
		repo := newMemoryRepo(models.Venue{Name: "Soba", HasTatamiRoom: true}, models.Venue{Name: "Cafe"})
		d := NewDirectory(repo, time.Hour, zap.NewNop())

		got, err := d.Search(ctx, Filter{Toggles: Toggles{HasTatamiRoom: true}})
		require.NoError(t, err)
		assert.Equal(t, []string{"Soba"}, names(got))
	})

	t.Run("store error is returned", func(t *testing.T) {
		repo := newMemoryRepo()
		repo.listErr = errStoreDown
		d := NewDirectory(repo, time.Hour, zap.NewNop())

		_, err := d.Search(ctx, Filter{})
		assert.ErrorIs(t, err, errStoreDown)
	})

	t.Run("concurrent readers are safe", func(t *testing.T) {
		repo := newMemoryRepo(models.Venue{Name: "A"}, models.Venue{Name: "B"})
		d := NewDirectory(repo, time.Hour, zap.NewNop())

		var wg sync.WaitGroup
		for i := 0; i < 16; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				list, err := d.Search(ctx, Filter{})
				assert.NoError(t, err)
				assert.Len(t, list, 2)
			}()
		}
		wg.Wait()
	})
}
