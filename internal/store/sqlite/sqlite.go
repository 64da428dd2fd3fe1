// Package sqlite implements the store on an embedded SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"

	"github.com/MacJediWizard/subdash/internal/models"
	"github.com/MacJediWizard/subdash/internal/store"
)

// Store implements store.Store using SQLite.
type Store struct {
	db     *sql.DB
	logger zerolog.Logger
}

// New opens or creates the database at path and applies the schema.
func New(path string, logger zerolog.Logger) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// A single writer avoids SQLITE_BUSY between pooled connections.
	db.SetMaxOpenConns(1)

	s := &Store{
		db:     db,
		logger: logger.With().Str("component", "sqlite_store").Logger(),
	}

	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate database: %w", err)
	}

	s.logger.Info().Str("path", path).Msg("sqlite store initialized")

	return s, nil
}

func (s *Store) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS packages (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			duration INTEGER NOT NULL,
			duration_type TEXT NOT NULL,
			is_default INTEGER NOT NULL DEFAULT 0,
			image_url TEXT,
			created_at TEXT,
			updated_at TEXT
		);

		CREATE TABLE IF NOT EXISTS customers (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			email TEXT NOT NULL DEFAULT '',
			phone TEXT NOT NULL DEFAULT '',
			service_type TEXT NOT NULL DEFAULT '',
			package_id TEXT NOT NULL,
			start_date TEXT,
			end_date TEXT,
			status TEXT NOT NULL,
			auto_renew INTEGER NOT NULL DEFAULT 0,
			notes TEXT,
			created_at TEXT,
			updated_at TEXT
		);

		CREATE INDEX IF NOT EXISTS idx_customers_package_id ON customers(package_id);
		CREATE INDEX IF NOT EXISTS idx_customers_created_at ON customers(created_at);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Ping checks the database connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

const packageColumns = `id, name, duration, duration_type, is_default, image_url, created_at, updated_at`

// ListPackages returns all packages ordered by name.
func (s *Store) ListPackages(ctx context.Context) ([]*models.Package, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+packageColumns+` FROM packages ORDER BY name ASC`)
	if err != nil {
		return nil, fmt.Errorf("query packages: %w", err)
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
func (s *Store) GetPackage(ctx context.Context, id string) (*models.Package, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+packageColumns+` FROM packages WHERE id = ?`, id)
	p, err := scanPackage(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	return p, err
}

// CreatePackage inserts a package.
func (s *Store) CreatePackage(ctx context.Context, p *models.Package) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO packages (`+packageColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, p.ID, p.Name, p.Duration, string(p.DurationType), p.IsDefault, nullString(p.ImageURL), p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert package: %w", err)
	}
	return nil
}

// UpdatePackage replaces a package.
func (s *Store) UpdatePackage(ctx context.Context, p *models.Package) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE packages
		SET name = ?, duration = ?, duration_type = ?, is_default = ?, image_url = ?, updated_at = ?
		WHERE id = ?
	`, p.Name, p.Duration, string(p.DurationType), p.IsDefault, nullString(p.ImageURL), p.UpdatedAt, p.ID)
	if err != nil {
		return fmt.Errorf("update package: %w", err)
	}
	return requireAffected(result)
}

// DeletePackage removes a package. Customers referencing it are left as is.
func (s *Store) DeletePackage(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM packages WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete package: %w", err)
	}
	return requireAffected(result)
}

const customerColumns = `id, name, email, phone, service_type, package_id, start_date, end_date, status, auto_renew, notes, created_at, updated_at`

// ListCustomers returns all customers, newest first.
func (s *Store) ListCustomers(ctx context.Context) ([]*models.Customer, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+customerColumns+` FROM customers ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("query customers: %w", err)
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
func (s *Store) GetCustomer(ctx context.Context, id string) (*models.Customer, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+customerColumns+` FROM customers WHERE id = ?`, id)
	c, err := scanCustomer(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	return c, err
}

// CreateCustomer inserts a customer.
func (s *Store) CreateCustomer(ctx context.Context, c *models.Customer) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO customers (`+customerColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, c.ID, c.Name, c.Email, c.Phone, c.ServiceType, c.PackageID, c.StartDate, c.EndDate,
		string(c.Status), c.AutoRenew, nullString(c.Notes), c.CreatedAt, c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert customer: %w", err)
	}
	return nil
}

// UpdateCustomer replaces a customer.
func (s *Store) UpdateCustomer(ctx context.Context, c *models.Customer) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE customers
		SET name = ?, email = ?, phone = ?, service_type = ?, package_id = ?, start_date = ?,
			end_date = ?, status = ?, auto_renew = ?, notes = ?, updated_at = ?
		WHERE id = ?
	`, c.Name, c.Email, c.Phone, c.ServiceType, c.PackageID, c.StartDate, c.EndDate,
		string(c.Status), c.AutoRenew, nullString(c.Notes), c.UpdatedAt, c.ID)
	if err != nil {
		return fmt.Errorf("update customer: %w", err)
	}
	return requireAffected(result)
}

// DeleteCustomer removes a customer.
func (s *Store) DeleteCustomer(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM customers WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete customer: %w", err)
	}
	return requireAffected(result)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanPackage(row scanner) (*models.Package, error) {
	var (
		p            models.Package
		durationType string
		imageURL     sql.NullString
	)
	err := row.Scan(&p.ID, &p.Name, &p.Duration, &durationType, &p.IsDefault, &imageURL, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan package: %w", err)
	}
	p.DurationType = models.DurationType(durationType)
	p.ImageURL = imageURL.String
	return &p, nil
}

func scanCustomer(row scanner) (*models.Customer, error) {
	var (
		c      models.Customer
		status string
		notes  sql.NullString
	)
	err := row.Scan(&c.ID, &c.Name, &c.Email, &c.Phone, &c.ServiceType, &c.PackageID, &c.StartDate, &c.EndDate,
		&status, &c.AutoRenew, &notes, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan customer: %w", err)
	}
	c.Status = models.CustomerStatus(status)
	c.Notes = notes.String
	return &c, nil
}

func requireAffected(result sql.Result) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
