package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/MacJediWizard/subdash/internal/activity"
	"github.com/MacJediWizard/subdash/internal/metrics"
	"github.com/MacJediWizard/subdash/internal/models"
	"github.com/MacJediWizard/subdash/internal/store"
)

// PackageService manages subscription packages.
type PackageService struct {
	store   store.PackageStore
	feed    Publisher
	metrics *metrics.Metrics
	logger  zerolog.Logger
	now     func() time.Time
}

// NewPackageService creates a PackageService. feed and m may be nil.
func NewPackageService(s store.PackageStore, feed Publisher, m *metrics.Metrics, logger zerolog.Logger, opts ...Option) *PackageService {
	if feed == nil {
		feed = nopPublisher{}
	}
	o := buildOptions(opts)
	return &PackageService{
		store:   s,
		feed:    feed,
		metrics: m,
		logger:  logger.With().Str("component", "package_service").Logger(),
		now:     o.now,
	}
}

// List returns all packages ordered by name.
func (s *PackageService) List(ctx context.Context) ([]*models.Package, error) {
	return s.store.ListPackages(ctx)
}

// Get returns a package or store.ErrNotFound.
func (s *PackageService) Get(ctx context.Context, id string) (*models.Package, error) {
	return s.store.GetPackage(ctx, id)
}

// Create validates form and stores a new non-default package.
func (s *PackageService) Create(ctx context.Context, form models.PackageForm) (*models.Package, error) {
	form.Name = strings.TrimSpace(form.Name)
	if err := validatePackage(form.Name, form.Duration, form.DurationType); err != nil {
		return nil, err
	}

	pkg := models.NewPackage(form.Name, form.Duration, form.DurationType, form.ImageURL, s.now())
	if err := s.store.CreatePackage(ctx, pkg); err != nil {
		return nil, fmt.Errorf("create package: %w", err)
	}

	s.changed(ctx, activity.ActionCreated, pkg.ID)
	s.logger.Info().Str("package_id", pkg.ID).Str("name", pkg.Name).Msg("package created")
	return pkg, nil
}

// Update merges the set fields of upd into the stored package.
func (s *PackageService) Update(ctx context.Context, id string, upd models.PackageUpdate) (*models.Package, error) {
	pkg, err := s.store.GetPackage(ctx, id)
	if err != nil {
		return nil, err
	}

	upd.Apply(pkg)
	pkg.Name = strings.TrimSpace(pkg.Name)
	if err := validatePackage(pkg.Name, pkg.Duration, pkg.DurationType); err != nil {
		return nil, err
	}
	pkg.UpdatedAt = models.NewTimestamp(s.now())

	if err := s.store.UpdatePackage(ctx, pkg); err != nil {
		return nil, fmt.Errorf("update package: %w", err)
	}

	s.changed(ctx, activity.ActionUpdated, pkg.ID)
	s.logger.Info().Str("package_id", pkg.ID).Msg("package updated")
	return pkg, nil
}

// Delete removes a package. Customers enrolled in it keep their reference.
func (s *PackageService) Delete(ctx context.Context, id string) error {
	if err := s.store.DeletePackage(ctx, id); err != nil {
		return err
	}

	s.changed(ctx, activity.ActionDeleted, id)
	s.logger.Info().Str("package_id", id).Msg("package deleted")
	return nil
}

// SeedDefaults inserts the default catalog when no packages exist and
// returns how many were created.
func (s *PackageService) SeedDefaults(ctx context.Context) (int, error) {
	existing, err := s.store.ListPackages(ctx)
	if err != nil {
		return 0, fmt.Errorf("list packages: %w", err)
	}
	if len(existing) > 0 {
		return 0, nil
	}

	created := 0
	for _, pkg := range models.DefaultPackages(s.now()) {
		if err := s.store.CreatePackage(ctx, pkg); err != nil {
			return created, fmt.Errorf("seed package %q: %w", pkg.Name, err)
		}
		created++
		s.metrics.RecordPackageWrite(string(activity.ActionCreated))
	}

	s.feed.Publish(ctx, activity.Change{Collection: activity.CollectionPackages, Action: activity.ActionCreated})
	s.logger.Info().Int("count", created).Msg("seeded default packages")
	return created, nil
}

func (s *PackageService) changed(ctx context.Context, action activity.Action, id string) {
	s.metrics.RecordPackageWrite(string(action))
	s.feed.Publish(ctx, activity.Change{
		Collection: activity.CollectionPackages,
		Action:     action,
		ID:         id,
		At:         s.now(),
	})
}

func validatePackage(name string, duration int, durationType models.DurationType) error {
	if name == "" {
		return invalid("name", "is required")
	}
	if duration <= 0 {
		return invalid("duration", "must be a positive integer")
	}
	if !durationType.Valid() {
		return invalid("durationType", "must be one of day, week, month, year")
	}
	return nil
}
