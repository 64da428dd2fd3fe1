package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog"

	"github.com/MacJediWizard/subdash/internal/models"
	"github.com/MacJediWizard/subdash/internal/store"
)

const (
	packageListKey   = "subdash:packages"
	packageKeyPrefix = "subdash:package:"

	// DefaultTTL bounds staleness when another instance writes packages.
	DefaultTTL = 15 * time.Minute
)

// Store caches package reads from the wrapped store. Customer operations
// pass straight through. Cache failures are logged and never fail a call.
type Store struct {
	store.Store
	cache  Cache
	ttl    time.Duration
	logger zerolog.Logger
}

// New wraps next with cache.
func New(next store.Store, cache Cache, ttl time.Duration, logger zerolog.Logger) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Store{
		Store:  next,
		cache:  cache,
		ttl:    ttl,
		logger: logger.With().Str("component", "package_cache").Logger(),
	}
}

// ListPackages serves the package list from cache when present.
func (s *Store) ListPackages(ctx context.Context) ([]*models.Package, error) {
	var pkgs []*models.Package
	if s.lookup(ctx, packageListKey, &pkgs) {
		return pkgs, nil
	}

	pkgs, err := s.Store.ListPackages(ctx)
	if err != nil {
		return nil, err
	}
	s.fill(ctx, packageListKey, pkgs)
	return pkgs, nil
}

// GetPackage serves a single package from cache when present.
func (s *Store) GetPackage(ctx context.Context, id string) (*models.Package, error) {
	key := packageKeyPrefix + id
	var pkg models.Package
	if s.lookup(ctx, key, &pkg) {
		return &pkg, nil
	}

	p, err := s.Store.GetPackage(ctx, id)
	if err != nil {
		return nil, err
	}
	s.fill(ctx, key, p)
	return p, nil
}

// CreatePackage writes through and invalidates the list.
func (s *Store) CreatePackage(ctx context.Context, p *models.Package) error {
	if err := s.Store.CreatePackage(ctx, p); err != nil {
		return err
	}
	s.invalidate(ctx, packageListKey)
	return nil
}

// UpdatePackage writes through and invalidates the package and the list.
func (s *Store) UpdatePackage(ctx context.Context, p *models.Package) error {
	if err := s.Store.UpdatePackage(ctx, p); err != nil {
		return err
	}
	s.invalidate(ctx, packageListKey, packageKeyPrefix+p.ID)
	return nil
}

// DeletePackage writes through and invalidates the package and the list.
func (s *Store) DeletePackage(ctx context.Context, id string) error {
	if err := s.Store.DeletePackage(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx, packageListKey, packageKeyPrefix+id)
	return nil
}

func (s *Store) lookup(ctx context.Context, key string, dest any) bool {
	data, ok, err := s.cache.Get(ctx, key)
	if err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("cache read failed")
		return false
	}
	if !ok {
		return false
	}
	if err := json.Unmarshal(data, dest); err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("discarding undecodable cache entry")
		return false
	}
	return true
}

func (s *Store) fill(ctx context.Context, key string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("cache encode failed")
		return
	}
	if err := s.cache.Set(ctx, key, data, s.ttl); err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("cache write failed")
	}
}

func (s *Store) invalidate(ctx context.Context, keys ...string) {
	if err := s.cache.Delete(ctx, keys...); err != nil {
		s.logger.Warn().Err(err).Strs("keys", keys).Msg("cache invalidation failed")
	}
}
