package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/MacJediWizard/subdash/internal/models"
	"github.com/MacJediWizard/subdash/internal/store"
)

// scanner is satisfied by pgx.Row and pgx.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// Package methods

const packageColumns = `id, name, duration, duration_type, is_default, image_url, created_at, updated_at`

// ListPackages returns all packages ordered by name. The "C" collation keeps
// the order byte-wise regardless of the database locale.
func (db *DB) ListPackages(ctx context.Context) ([]*models.Package, error) {
	rows, err := db.Pool.Query(ctx, `SELECT `+packageColumns+` FROM packages ORDER BY name COLLATE "C"`)
	if err != nil {
		return nil, fmt.Errorf("list packages: %w", err)
	}
	defer rows.Close()

	pkgs := []*models.Package{}
	for rows.Next() {
		p, err := scanPackage(rows)
		if err != nil {
			return nil, err
		}
		pkgs = append(pkgs, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate packages: %w", err)
	}
	return pkgs, nil
}

// GetPackage returns a package by ID.
func (db *DB) GetPackage(ctx context.Context, id string) (*models.Package, error) {
	p, err := scanPackage(db.Pool.QueryRow(ctx, `SELECT `+packageColumns+` FROM packages WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get package by ID: %w", err)
	}
	return p, nil
}

// CreatePackage inserts a package.
func (db *DB) CreatePackage(ctx context.Context, p *models.Package) error {
	_, err := db.Pool.Exec(ctx, `
		INSERT INTO packages (`+packageColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, p.ID, p.Name, p.Duration, string(p.DurationType), p.IsDefault, nullText(p.ImageURL),
		nullTime(p.CreatedAt), nullTime(p.UpdatedAt))
	if err != nil {
		return fmt.Errorf("create package: %w", err)
	}
	return nil
}

// UpdatePackage replaces a package.
func (db *DB) UpdatePackage(ctx context.Context, p *models.Package) error {
	tag, err := db.Pool.Exec(ctx, `
		UPDATE packages
		SET name = $2, duration = $3, duration_type = $4, is_default = $5, image_url = $6, updated_at = $7
		WHERE id = $1
	`, p.ID, p.Name, p.Duration, string(p.DurationType), p.IsDefault, nullText(p.ImageURL), nullTime(p.UpdatedAt))
	if err != nil {
		return fmt.Errorf("update package: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

// DeletePackage removes a package. Customers referencing it are left as is.
func (db *DB) DeletePackage(ctx context.Context, id string) error {
	tag, err := db.Pool.Exec(ctx, `DELETE FROM packages WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete package: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

// Customer methods

const customerColumns = `id, name, email, phone, service_type, package_id, start_date, end_date, status, auto_renew, notes, created_at, updated_at`

// ListCustomers returns all customers, newest first.
func (db *DB) ListCustomers(ctx context.Context) ([]*models.Customer, error) {
	rows, err := db.Pool.Query(ctx, `SELECT `+customerColumns+` FROM customers ORDER BY created_at DESC NULLS LAST`)
	if err != nil {
		return nil, fmt.Errorf("list customers: %w", err)
	}
	defer rows.Close()

	customers := []*models.Customer{}
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, err
		}
		customers = append(customers, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate customers: %w", err)
	}
	return customers, nil
}

// GetCustomer returns a customer by ID.
func (db *DB) GetCustomer(ctx context.Context, id string) (*models.Customer, error) {
	c, err := scanCustomer(db.Pool.QueryRow(ctx, `SELECT `+customerColumns+` FROM customers WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get customer by ID: %w", err)
	}
	return c, nil
}

// CreateCustomer inserts a customer.
func (db *DB) CreateCustomer(ctx context.Context, c *models.Customer) error {
	_, err := db.Pool.Exec(ctx, `
		INSERT INTO customers (`+customerColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`, c.ID, c.Name, c.Email, c.Phone, c.ServiceType, c.PackageID, nullTime(c.StartDate), nullTime(c.EndDate),
		string(c.Status), c.AutoRenew, nullText(c.Notes), nullTime(c.CreatedAt), nullTime(c.UpdatedAt))
	if err != nil {
		return fmt.Errorf("create customer: %w", err)
	}
	return nil
}

// UpdateCustomer replaces a customer.
func (db *DB) UpdateCustomer(ctx context.Context, c *models.Customer) error {
	tag, err := db.Pool.Exec(ctx, `
		UPDATE customers
		SET name = $2, email = $3, phone = $4, service_type = $5, package_id = $6, start_date = $7,
			end_date = $8, status = $9, auto_renew = $10, notes = $11, updated_at = $12
		WHERE id = $1
	`, c.ID, c.Name, c.Email, c.Phone, c.ServiceType, c.PackageID, nullTime(c.StartDate), nullTime(c.EndDate),
		string(c.Status), c.AutoRenew, nullText(c.Notes), nullTime(c.UpdatedAt))
	if err != nil {
		return fmt.Errorf("update customer: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

// DeleteCustomer removes a customer.
func (db *DB) DeleteCustomer(ctx context.Context, id string) error {
	tag, err := db.Pool.Exec(ctx, `DELETE FROM customers WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete customer: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

func scanPackage(row scanner) (*models.Package, error) {
	var (
		p                  models.Package
		durationType       string
		imageURL           *string
		createdAt, updated *time.Time
	)
	if err := row.Scan(&p.ID, &p.Name, &p.Duration, &durationType, &p.IsDefault, &imageURL, &createdAt, &updated); err != nil {
		return nil, err
	}
	p.DurationType = models.DurationType(durationType)
	if imageURL != nil {
		p.ImageURL = *imageURL
	}
	p.CreatedAt = models.TimestampFromValue(createdAt)
	p.UpdatedAt = models.TimestampFromValue(updated)
	return &p, nil
}

func scanCustomer(row scanner) (*models.Customer, error) {
	var (
		c                            models.Customer
		status                       string
		notes                        *string
		start, end, created, updated *time.Time
	)
	if err := row.Scan(&c.ID, &c.Name, &c.Email, &c.Phone, &c.ServiceType, &c.PackageID, &start, &end,
		&status, &c.AutoRenew, &notes, &created, &updated); err != nil {
		return nil, err
	}
	c.Status = models.CustomerStatus(status)
	if notes != nil {
		c.Notes = *notes
	}
	c.StartDate = models.TimestampFromValue(start)
	c.EndDate = models.TimestampFromValue(end)
	c.CreatedAt = models.TimestampFromValue(created)
	c.UpdatedAt = models.TimestampFromValue(updated)
	return &c, nil
}

func nullTime(ts models.Timestamp) *time.Time {
	if ts.IsZero() {
		return nil
	}
	t := ts.Time()
	return &t
}

func nullText(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
