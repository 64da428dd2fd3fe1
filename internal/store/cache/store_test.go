package cache

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MacJediWizard/subdash/internal/models"
	"github.com/MacJediWizard/subdash/internal/store"
	"github.com/MacJediWizard/subdash/internal/store/sqlite"
)

type memoryCache struct {
	mu      sync.Mutex
	entries map[string][]byte
	gets    int
	hits    int
	failAll bool
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: map[string][]byte{}}
}

func (m *memoryCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gets++
	if m.failAll {
		return nil, false, errors.New("connection refused")
	}
	v, ok := m.entries[key]
	if ok {
		m.hits++
	}
	return v, ok, nil
}

func (m *memoryCache) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failAll {
		return errors.New("connection refused")
	}
	m.entries[key] = value
	return nil
}

func (m *memoryCache) Delete(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.entries, k)
	}
	return nil
}

func newTestStore(t *testing.T, c Cache) *Store {
	t.Helper()
	backend, err := sqlite.New(filepath.Join(t.TempDir(), "cache.db"), zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { backend.Close() })
	return New(backend, c, time.Minute, zerolog.New(zerolog.NewTestWriter(t)))
}

func TestListPackagesIsCached(t *testing.T) {
	ctx := context.Background()
	mc := newMemoryCache()
	s := newTestStore(t, mc)

	require.NoError(t, s.CreatePackage(ctx, models.NewPackage("Gold", 1, models.DurationMonth, "", time.Now())))

	first, err := s.ListPackages(ctx)
	require.NoError(t, err)
	require.Len(t, first, 1)

	second, err := s.ListPackages(ctx)
	require.NoError(t, err)
	require.Len(t, second, 1)
	assert.Equal(t, 1, mc.hits)
	assert.Equal(t, first[0].ID, second[0].ID)
}

func TestWritesInvalidate(t *testing.T) {
	ctx := context.Background()
	mc := newMemoryCache()
	s := newTestStore(t, mc)

	pkg := models.NewPackage("Gold", 1, models.DurationMonth, "", time.Now())
	require.NoError(t, s.CreatePackage(ctx, pkg))

	_, err := s.GetPackage(ctx, pkg.ID)
	require.NoError(t, err)
	_, err = s.ListPackages(ctx)
	require.NoError(t, err)

	pkg.Name = "Platinum"
	require.NoError(t, s.UpdatePackage(ctx, pkg))

	got, err := s.GetPackage(ctx, pkg.ID)
	require.NoError(t, err)
	assert.Equal(t, "Platinum", got.Name)

	list, err := s.ListPackages(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Platinum", list[0].Name)

	require.NoError(t, s.DeletePackage(ctx, pkg.ID))
	_, err = s.GetPackage(ctx, pkg.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestCacheFailureFallsThrough(t *testing.T) {
	ctx := context.Background()
	mc := newMemoryCache()
	s := newTestStore(t, mc)

	pkg := models.NewPackage("Gold", 1, models.DurationMonth, "", time.Now())
	require.NoError(t, s.CreatePackage(ctx, pkg))

	mc.failAll = true
	got, err := s.GetPackage(ctx, pkg.ID)
	require.NoError(t, err)
	assert.Equal(t, "Gold", got.Name)
}

func TestNewRedisCacheInvalidURL(t *testing.T) {
	_, err := NewRedisCache(context.Background(), "not a url")
	assert.Error(t, err)
}
