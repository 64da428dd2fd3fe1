package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/MacJediWizard/subdash/internal/activity"
	"github.com/MacJediWizard/subdash/internal/metrics"
	"github.com/MacJediWizard/subdash/internal/models"
	"github.com/MacJediWizard/subdash/internal/query"
	"github.com/MacJediWizard/subdash/internal/store"
	"github.com/MacJediWizard/subdash/internal/subscription"
)

// CustomerService manages customers and their derived subscription fields.
type CustomerService struct {
	customers store.CustomerStore
	packages  store.PackageStore
	feed      Publisher
	metrics   *metrics.Metrics
	logger    zerolog.Logger
	now       func() time.Time
}

// NewCustomerService creates a CustomerService. feed and m may be nil.
func NewCustomerService(s store.Store, feed Publisher, m *metrics.Metrics, logger zerolog.Logger, opts ...Option) *CustomerService {
	if feed == nil {
		feed = nopPublisher{}
	}
	o := buildOptions(opts)
	return &CustomerService{
		customers: s,
		packages:  s,
		feed:      feed,
		metrics:   m,
		logger:    logger.With().Str("component", "customer_service").Logger(),
		now:       o.now,
	}
}

// List returns customers matching f, newest first unless f sets a sort.
func (s *CustomerService) List(ctx context.Context, f models.CustomerFilter) ([]*models.Customer, error) {
	customers, err := s.customers.ListCustomers(ctx)
	if err != nil {
		return nil, err
	}
	return query.Apply(customers, f), nil
}

// Get returns a customer or store.ErrNotFound.
func (s *CustomerService) Get(ctx context.Context, id string) (*models.Customer, error) {
	return s.customers.GetCustomer(ctx, id)
}

// Create looks up the form's package and enrolls a new customer in it.
func (s *CustomerService) Create(ctx context.Context, form models.CustomerForm) (*models.Customer, error) {
	pkg, err := s.lookupPackage(ctx, form.PackageID)
	if err != nil {
		return nil, err
	}
	return s.CreateWithPackage(ctx, form, pkg)
}

// CreateWithPackage stores a new customer with end date and status derived
// from pkg.
func (s *CustomerService) CreateWithPackage(ctx context.Context, form models.CustomerForm, pkg *models.Package) (*models.Customer, error) {
	if err := validateCustomer(&form); err != nil {
		return nil, err
	}
	start, err := parseStart(form.StartDate)
	if err != nil {
		return nil, err
	}

	now := s.now()
	c := models.NewCustomer(form, now)
	c.PackageID = pkg.ID
	subscription.Schedule(c, pkg, start, now)

	if err := s.customers.CreateCustomer(ctx, c); err != nil {
		return nil, fmt.Errorf("create customer: %w", err)
	}

	s.changed(ctx, activity.ActionCreated, c.ID)
	s.logger.Info().
		Str("customer_id", c.ID).
		Str("package_id", c.PackageID).
		Str("status", string(c.Status)).
		Msg("customer created")
	return c, nil
}

// Edit applies form to a stored customer. The schedule is recomputed only
// when the start date or package changed.
func (s *CustomerService) Edit(ctx context.Context, id string, form models.CustomerForm) (*models.Customer, error) {
	existing, err := s.customers.GetCustomer(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := validateCustomer(&form); err != nil {
		return nil, err
	}

	var pkg *models.Package
	start, err := parseStart(form.StartDate)
	if err != nil {
		return nil, err
	}
	if form.PackageID != existing.PackageID || !start.Equal(existing.StartDate.Time()) {
		if pkg, err = s.lookupPackage(ctx, form.PackageID); err != nil {
			return nil, err
		}
	}
	return s.Update(ctx, id, form, pkg)
}

// Update stores form onto customer id. With a package the start date, end
// date and status are recomputed. Without one only the descriptive fields
// change.
func (s *CustomerService) Update(ctx context.Context, id string, form models.CustomerForm, pkg *models.Package) (*models.Customer, error) {
	c, err := s.customers.GetCustomer(ctx, id)
	if err != nil {
		return nil, err
	}

	now := s.now()
	form.ApplyDetails(c)
	if pkg != nil {
		start, err := parseStart(form.StartDate)
		if err != nil {
			return nil, err
		}
		c.PackageID = pkg.ID
		subscription.Schedule(c, pkg, start, now)
	}
	c.UpdatedAt = models.NewTimestamp(now)

	if err := s.customers.UpdateCustomer(ctx, c); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("update customer: %w", err)
	}

	s.changed(ctx, activity.ActionUpdated, c.ID)
	s.logger.Info().
		Str("customer_id", c.ID).
		Bool("rescheduled", pkg != nil).
		Msg("customer updated")
	return c, nil
}

// Delete removes a customer.
func (s *CustomerService) Delete(ctx context.Context, id string) error {
	if err := s.customers.DeleteCustomer(ctx, id); err != nil {
		return err
	}
	s.changed(ctx, activity.ActionDeleted, id)
	s.logger.Info().Str("customer_id", id).Msg("customer deleted")
	return nil
}

// RefreshAllStatuses recomputes every customer's status from its stored end
// date and persists the ones that changed. It returns the number updated.
// A failed write does not stop the sweep; failures are joined in the error.
func (s *CustomerService) RefreshAllStatuses(ctx context.Context) (int, error) {
	customers, err := s.customers.ListCustomers(ctx)
	if err != nil {
		return 0, fmt.Errorf("list customers: %w", err)
	}

	now := s.now()
	var (
		updated int
		errs    []error
	)
	for _, c := range customers {
		status := subscription.Status(c.EndDate.Time(), now)
		if status == c.Status {
			continue
		}

		prev := c.Status
		c.Status = status
		c.UpdatedAt = models.NewTimestamp(now)
		if err := s.customers.UpdateCustomer(ctx, c); err != nil {
			errs = append(errs, fmt.Errorf("update customer %s: %w", c.ID, err))
			continue
		}

		updated++
		s.metrics.RecordStatusTransition(status)
		s.logger.Debug().
			Str("customer_id", c.ID).
			Str("from", string(prev)).
			Str("to", string(status)).
			Msg("customer status changed")
	}

	if updated > 0 {
		s.feed.Publish(ctx, activity.Change{
			Collection: activity.CollectionCustomers,
			Action:     activity.ActionRefreshed,
			At:         now,
		})
	}

	s.logger.Info().Int("checked", len(customers)).Int("updated", updated).Msg("customer statuses refreshed")
	return updated, errors.Join(errs...)
}

// Stats counts customers by stored status.
func (s *CustomerService) Stats(ctx context.Context) (models.DashboardStats, error) {
	customers, err := s.customers.ListCustomers(ctx)
	if err != nil {
		return models.DashboardStats{}, fmt.Errorf("list customers: %w", err)
	}

	stats := models.DashboardStats{TotalCustomers: len(customers)}
	for _, c := range customers {
		switch c.Status {
		case models.CustomerStatusActive:
			stats.ActiveCustomers++
		case models.CustomerStatusExpired:
			stats.ExpiredCustomers++
		case models.CustomerStatusExpiringSoon:
			stats.ExpiringSoon++
		}
	}

	s.metrics.SetCustomerStats(stats)
	return stats, nil
}

func (s *CustomerService) lookupPackage(ctx context.Context, id string) (*models.Package, error) {
	if strings.TrimSpace(id) == "" {
		return nil, invalid("packageId", "is required")
	}
	pkg, err := s.packages.GetPackage(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, &NotFoundError{Entity: "package", ID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("get package: %w", err)
	}
	return pkg, nil
}

func (s *CustomerService) changed(ctx context.Context, action activity.Action, id string) {
	s.metrics.RecordCustomerWrite(string(action))
	s.feed.Publish(ctx, activity.Change{
		Collection: activity.CollectionCustomers,
		Action:     action,
		ID:         id,
		At:         s.now(),
	})
}

func validateCustomer(form *models.CustomerForm) error {
	form.Name = strings.TrimSpace(form.Name)
	if form.Name == "" {
		return invalid("name", "is required")
	}
	if strings.TrimSpace(form.PackageID) == "" {
		return invalid("packageId", "is required")
	}
	if strings.TrimSpace(form.StartDate) == "" {
		return invalid("startDate", "is required")
	}
	return nil
}

func parseStart(s string) (time.Time, error) {
	ts, err := models.ParseTimestamp(s)
	if err != nil {
		return time.Time{}, invalid("startDate", err.Error())
	}
	return ts.Time(), nil
}
