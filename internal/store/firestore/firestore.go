// Package firestore implements the store on Google Cloud Firestore.
package firestore

import (
	"context"
	"fmt"
	"sort"

	"cloud.google.com/go/firestore"
	firebase "firebase.google.com/go/v4"
	"github.com/rs/zerolog"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/MacJediWizard/subdash/internal/models"
	"github.com/MacJediWizard/subdash/internal/store"
)

const (
	packagesCollection  = "packages"
	customersCollection = "customers"
)

// Config selects the Firebase project and credentials.
type Config struct {
	ProjectID       string
	CredentialsFile string
}

// Store implements store.Store on Firestore documents.
type Store struct {
	client *firestore.Client
	logger zerolog.Logger
}

// New initializes a Firebase app and opens its Firestore client.
func New(ctx context.Context, cfg Config, logger zerolog.Logger) (*Store, error) {
	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}

	var fbCfg *firebase.Config
	if cfg.ProjectID != "" {
		fbCfg = &firebase.Config{ProjectID: cfg.ProjectID}
	}

	app, err := firebase.NewApp(ctx, fbCfg, opts...)
	if err != nil {
		return nil, fmt.Errorf("initialize firebase app: %w", err)
	}

	client, err := app.Firestore(ctx)
	if err != nil {
		return nil, fmt.Errorf("open firestore client: %w", err)
	}

	s := NewWithClient(client, logger)
	s.logger.Info().Str("project_id", cfg.ProjectID).Msg("firestore store initialized")
	return s, nil
}

// NewWithClient wraps an existing client, such as one pointed at the emulator.
func NewWithClient(client *firestore.Client, logger zerolog.Logger) *Store {
	return &Store{
		client: client,
		logger: logger.With().Str("component", "firestore_store").Logger(),
	}
}

// Ping reads a single package document to verify connectivity.
func (s *Store) Ping(ctx context.Context) error {
	iter := s.client.Collection(packagesCollection).Limit(1).Documents(ctx)
	defer iter.Stop()
	if _, err := iter.GetAll(); err != nil {
		return fmt.Errorf("ping firestore: %w", err)
	}
	return nil
}

// Close closes the client.
func (s *Store) Close() error {
	return s.client.Close()
}

// ListPackages returns all packages ordered by name.
func (s *Store) ListPackages(ctx context.Context) ([]*models.Package, error) {
	snaps, err := s.client.Collection(packagesCollection).Documents(ctx).GetAll()
	if err != nil {
		return nil, fmt.Errorf("list packages: %w", err)
	}

	pkgs := make([]*models.Package, 0, len(snaps))
	for _, snap := range snaps {
		pkgs = append(pkgs, packageFromData(snap.Ref.ID, snap.Data()))
	}
	sort.SliceStable(pkgs, func(i, j int) bool { return pkgs[i].Name < pkgs[j].Name })
	return pkgs, nil
}

// GetPackage returns a package by ID.
func (s *Store) GetPackage(ctx context.Context, id string) (*models.Package, error) {
	snap, err := s.client.Collection(packagesCollection).Doc(id).Get(ctx)
	if err != nil {
		return nil, wrapErr("get package", err)
	}
	return packageFromData(snap.Ref.ID, snap.Data()), nil
}

// CreatePackage writes a new package document.
func (s *Store) CreatePackage(ctx context.Context, p *models.Package) error {
	if _, err := s.client.Collection(packagesCollection).Doc(p.ID).Create(ctx, packageData(p)); err != nil {
		return fmt.Errorf("create package: %w", err)
	}
	return nil
}

// UpdatePackage overwrites an existing package document.
func (s *Store) UpdatePackage(ctx context.Context, p *models.Package) error {
	_, err := s.client.Collection(packagesCollection).Doc(p.ID).Update(ctx, updates(packageData(p)))
	return wrapErr("update package", err)
}

// DeletePackage removes a package. Customers referencing it are left as is.
func (s *Store) DeletePackage(ctx context.Context, id string) error {
	_, err := s.client.Collection(packagesCollection).Doc(id).Delete(ctx, firestore.Exists)
	return wrapErr("delete package", err)
}

// ListCustomers returns all customers, newest first.
func (s *Store) ListCustomers(ctx context.Context) ([]*models.Customer, error) {
	snaps, err := s.client.Collection(customersCollection).Documents(ctx).GetAll()
	if err != nil {
		return nil, fmt.Errorf("list customers: %w", err)
	}

	customers := make([]*models.Customer, 0, len(snaps))
	for _, snap := range snaps {
		customers = append(customers, customerFromData(snap.Ref.ID, snap.Data()))
	}
	sort.SliceStable(customers, func(i, j int) bool {
		return customers[i].CreatedAt.Time().After(customers[j].CreatedAt.Time())
	})
	return customers, nil
}

// GetCustomer returns a customer by ID.
func (s *Store) GetCustomer(ctx context.Context, id string) (*models.Customer, error) {
	snap, err := s.client.Collection(customersCollection).Doc(id).Get(ctx)
	if err != nil {
		return nil, wrapErr("get customer", err)
	}
	return customerFromData(snap.Ref.ID, snap.Data()), nil
}

// CreateCustomer writes a new customer document.
func (s *Store) CreateCustomer(ctx context.Context, c *models.Customer) error {
	if _, err := s.client.Collection(customersCollection).Doc(c.ID).Create(ctx, customerData(c)); err != nil {
		return fmt.Errorf("create customer: %w", err)
	}
	return nil
}

// UpdateCustomer overwrites an existing customer document.
func (s *Store) UpdateCustomer(ctx context.Context, c *models.Customer) error {
	_, err := s.client.Collection(customersCollection).Doc(c.ID).Update(ctx, updates(customerData(c)))
	return wrapErr("update customer", err)
}

// DeleteCustomer removes a customer.
func (s *Store) DeleteCustomer(ctx context.Context, id string) error {
	_, err := s.client.Collection(customersCollection).Doc(id).Delete(ctx, firestore.Exists)
	return wrapErr("delete customer", err)
}

func wrapErr(op string, err error) error {
	if err == nil {
		return nil
	}
	if status.Code(err) == codes.NotFound {
		return store.ErrNotFound
	}
	return fmt.Errorf("%s: %w", op, err)
}

// updates converts a document map into field updates. Update fails with
// NotFound when the document is missing.
func updates(data map[string]any) []firestore.Update {
	keys := make([]string, 0, len(data))
	for k := range data {
		if k == "createdAt" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	ups := make([]firestore.Update, 0, len(keys))
	for _, k := range keys {
		ups = append(ups, firestore.Update{Path: k, Value: data[k]})
	}
	return ups
}

func packageData(p *models.Package) map[string]any {
	return map[string]any{
		"name":         p.Name,
		"duration":     int64(p.Duration),
		"durationType": string(p.DurationType),
		"isDefault":    p.IsDefault,
		"imageUrl":     p.ImageURL,
		"createdAt":    timeValue(p.CreatedAt),
		"updatedAt":    timeValue(p.UpdatedAt),
	}
}

func customerData(c *models.Customer) map[string]any {
	return map[string]any{
		"name":        c.Name,
		"email":       c.Email,
		"phone":       c.Phone,
		"serviceType": c.ServiceType,
		"packageId":   c.PackageID,
		"startDate":   timeValue(c.StartDate),
		"endDate":     timeValue(c.EndDate),
		"status":      string(c.Status),
		"autoRenew":   c.AutoRenew,
		"notes":       c.Notes,
		"createdAt":   timeValue(c.CreatedAt),
		"updatedAt":   timeValue(c.UpdatedAt),
	}
}

func timeValue(ts models.Timestamp) any {
	if ts.IsZero() {
		return nil
	}
	return ts.Time()
}

// Documents written by older clients may hold dates as strings, epoch
// numbers or timestamp objects, so decoding goes through loose maps.

func packageFromData(id string, data map[string]any) *models.Package {
	return &models.Package{
		ID:           id,
		Name:         stringField(data, "name"),
		Duration:     int(intField(data, "duration")),
		DurationType: models.DurationType(stringField(data, "durationType")),
		IsDefault:    boolField(data, "isDefault"),
		ImageURL:     stringField(data, "imageUrl"),
		CreatedAt:    models.TimestampFromValue(data["createdAt"]),
		UpdatedAt:    models.TimestampFromValue(data["updatedAt"]),
	}
}

func customerFromData(id string, data map[string]any) *models.Customer {
	return &models.Customer{
		ID:          id,
		Name:        stringField(data, "name"),
		Email:       stringField(data, "email"),
		Phone:       stringField(data, "phone"),
		ServiceType: stringField(data, "serviceType"),
		PackageID:   stringField(data, "packageId"),
		StartDate:   models.TimestampFromValue(data["startDate"]),
		EndDate:     models.TimestampFromValue(data["endDate"]),
		Status:      models.CustomerStatus(stringField(data, "status")),
		AutoRenew:   boolField(data, "autoRenew"),
		Notes:       stringField(data, "notes"),
		CreatedAt:   models.TimestampFromValue(data["createdAt"]),
		UpdatedAt:   models.TimestampFromValue(data["updatedAt"]),
	}
}

func stringField(data map[string]any, key string) string {
	s, _ := data[key].(string)
	return s
}

func boolField(data map[string]any, key string) bool {
	b, _ := data[key].(bool)
	return b
}

func intField(data map[string]any, key string) int64 {
	switch n := data[key].(type) {
	case int64:
		return n
	case int:
		return int64(n)
	case float64:
		return int64(n)
	}
	return 0
}

var _ store.Store = (*Store)(nil)
