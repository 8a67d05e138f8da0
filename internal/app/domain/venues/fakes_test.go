package venues

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/FACorreiaa/go-tekuteku/internal/app/models"
)

// memoryRepo is an in-memory Repository that orders like the SQL store.
type memoryRepo struct {
	mu      sync.Mutex
	venues  map[uuid.UUID]models.Venue
	listErr error
	lists   int
	clock   time.Time
}

func newMemoryRepo(seed ...models.Venue) *memoryRepo {
	r := &memoryRepo{venues: map[uuid.UUID]models.Venue{}, clock: time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)}
	for _, v := range seed {
		if v.ID == uuid.Nil {
			v.ID = uuid.New()
		}
		r.venues[v.ID] = v
	}
	return r
}

func (r *memoryRepo) ListAll(_ context.Context) ([]models.Venue, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lists++
	if r.listErr != nil {
		return nil, r.listErr
	}
	out := make([]models.Venue, 0, len(r.venues))
	for _, v := range r.venues {
		out = append(out, v)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].LikesCount != out[j].LikesCount {
			return out[i].LikesCount > out[j].LikesCount
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (r *memoryRepo) GetByID(_ context.Context, id uuid.UUID) (*models.Venue, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.venues[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return &v, nil
}

func (r *memoryRepo) Insert(_ context.Context, v *models.Venue) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clock = r.clock.Add(time.Minute)
	v.ID = uuid.New()
	v.CreatedAt = r.clock
	v.UpdatedAt = r.clock
	r.venues[v.ID] = *v
	return nil
}

func (r *memoryRepo) Update(_ context.Context, actor models.Actor, v models.Venue) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.venues[v.ID]
	if !ok {
		return models.ErrNotFound
	}
	if !cur.EditableBy(actor) {
		return models.ErrForbidden
	}
	r.venues[v.ID] = v
	return nil
}

func (r *memoryRepo) Delete(_ context.Context, actor models.Actor, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !actor.IsAdmin {
		return models.ErrForbidden
	}
	if _, ok := r.venues[id]; !ok {
		return models.ErrNotFound
	}
	delete(r.venues, id)
	return nil
}

func (r *memoryRepo) listCalls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lists
}

// MockGeocoder is a mock implementation of the Geocoder interface
type MockGeocoder struct {
	mock.Mock
}

func (m *MockGeocoder) Geocode(ctx context.Context, address string) (models.Coordinates, error) {
	args := m.Called(ctx, address)
	return args.Get(0).(models.Coordinates), args.Error(1)
}

// sliceLister serves a fixed list, or an error.
type sliceLister struct {
	list []models.Venue
	err  error
}

func (s sliceLister) ListAll(context.Context) ([]models.Venue, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.list, nil
}

var errStoreDown = errors.New("connection refused")
