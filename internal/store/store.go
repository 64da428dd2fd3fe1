// Package store defines the persistence contract for packages and customers.
package store

import (
	"context"
	"errors"

	"github.com/MacJediWizard/subdash/internal/models"
)

// ErrNotFound is returned when a package or customer does not exist.
var ErrNotFound = errors.New("not found")

// PackageStore persists subscription packages.
type PackageStore interface {
	// ListPackages returns all packages ordered by name, compared byte-wise.
	ListPackages(ctx context.Context) ([]*models.Package, error)
	// GetPackage returns ErrNotFound when id is unknown.
	GetPackage(ctx context.Context, id string) (*models.Package, error)
	CreatePackage(ctx context.Context, pkg *models.Package) error
	// UpdatePackage replaces the stored package and returns ErrNotFound when
	// it does not exist.
	UpdatePackage(ctx context.Context, pkg *models.Package) error
	DeletePackage(ctx context.Context, id string) error
}

// CustomerStore persists customers.
type CustomerStore interface {
	// ListCustomers returns all customers, newest first.
	ListCustomers(ctx context.Context) ([]*models.Customer, error)
	GetCustomer(ctx context.Context, id string) (*models.Customer, error)
	CreateCustomer(ctx context.Context, c *models.Customer) error
	UpdateCustomer(ctx context.Context, c *models.Customer) error
	DeleteCustomer(ctx context.Context, id string) error
}

// Store is a complete backend.
type Store interface {
	PackageStore
	CustomerStore
	Ping(ctx context.Context) error
	Close() error
}
