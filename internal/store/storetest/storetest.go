// Package storetest holds behavioural tests shared by every store backend.
package storetest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MacJediWizard/subdash/internal/models"
	"github.com/MacJediWizard/subdash/internal/store"
)

// Run exercises s against the store contract. s must start empty.
func Run(t *testing.T, s store.Store) {
	t.Helper()
	ctx := context.Background()
	base := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)

	t.Run("Ping", func(t *testing.T) {
		require.NoError(t, s.Ping(ctx))
	})

	t.Run("Packages", func(t *testing.T) {
		gold := models.NewPackage("Gold", 1, models.DurationMonth, "/uploads/gold.png", base)
		basic := models.NewPackage("Basic", 7, models.DurationDay, "", base)
		require.NoError(t, s.CreatePackage(ctx, gold))
		require.NoError(t, s.CreatePackage(ctx, basic))

		got, err := s.GetPackage(ctx, gold.ID)
		require.NoError(t, err)
		assert.Equal(t, "Gold", got.Name)
		assert.Equal(t, models.DurationMonth, got.DurationType)
		assert.Equal(t, "/uploads/gold.png", got.ImageURL)
		assert.True(t, got.CreatedAt.Equal(gold.CreatedAt))

		list, err := s.ListPackages(ctx)
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, "Basic", list[0].Name, "packages ordered by name")

		gold.Duration = 3
		gold.UpdatedAt = models.NewTimestamp(base.Add(time.Hour))
		require.NoError(t, s.UpdatePackage(ctx, gold))
		got, err = s.GetPackage(ctx, gold.ID)
		require.NoError(t, err)
		assert.Equal(t, 3, got.Duration)

		require.NoError(t, s.DeletePackage(ctx, basic.ID))
		_, err = s.GetPackage(ctx, basic.ID)
		assert.ErrorIs(t, err, store.ErrNotFound)

		missing := models.NewPackage("Ghost", 1, models.DurationDay, "", base)
		assert.ErrorIs(t, s.UpdatePackage(ctx, missing), store.ErrNotFound)
		assert.ErrorIs(t, s.DeletePackage(ctx, missing.ID), store.ErrNotFound)
	})

	t.Run("PackageNameOrder", func(t *testing.T) {
		zeta := models.NewPackage("Zeta", 1, models.DurationDay, "", base)
		alpha := models.NewPackage("alpha", 1, models.DurationDay, "", base)
		require.NoError(t, s.CreatePackage(ctx, zeta))
		require.NoError(t, s.CreatePackage(ctx, alpha))
		t.Cleanup(func() {
			_ = s.DeletePackage(ctx, zeta.ID)
			_ = s.DeletePackage(ctx, alpha.ID)
		})

		list, err := s.ListPackages(ctx)
		require.NoError(t, err)
		names := make([]string, 0, len(list))
		for _, p := range list {
			names = append(names, p.Name)
		}
		// Upper case sorts before lower case in byte order.
		assert.Equal(t, []string{"Gold", "Zeta", "alpha"}, names)
	})

	t.Run("Customers", func(t *testing.T) {
		older := newCustomer("Older", base)
		newer := newCustomer("Newer", base.Add(time.Minute))
		require.NoError(t, s.CreateCustomer(ctx, older))
		require.NoError(t, s.CreateCustomer(ctx, newer))

		list, err := s.ListCustomers(ctx)
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, "Newer", list[0].Name, "customers ordered newest first")

		got, err := s.GetCustomer(ctx, older.ID)
		require.NoError(t, err)
		assert.Equal(t, older.Email, got.Email)
		assert.Equal(t, models.CustomerStatusActive, got.Status)
		assert.True(t, got.EndDate.Equal(older.EndDate))
		assert.True(t, got.AutoRenew)

		older.Status = models.CustomerStatusExpired
		older.Notes = "lapsed"
		require.NoError(t, s.UpdateCustomer(ctx, older))
		got, err = s.GetCustomer(ctx, older.ID)
		require.NoError(t, err)
		assert.Equal(t, models.CustomerStatusExpired, got.Status)
		assert.Equal(t, "lapsed", got.Notes)

		require.NoError(t, s.DeleteCustomer(ctx, newer.ID))
		_, err = s.GetCustomer(ctx, newer.ID)
		assert.ErrorIs(t, err, store.ErrNotFound)
		assert.ErrorIs(t, s.UpdateCustomer(ctx, newer), store.ErrNotFound)
		assert.ErrorIs(t, s.DeleteCustomer(ctx, newer.ID), store.ErrNotFound)
	})
}

func newCustomer(name string, created time.Time) *models.Customer {
	c := models.NewCustomer(models.CustomerForm{
		Name:      name,
		Email:     name + "@example.com",
		Phone:     "555-0100",
		PackageID: "pkg-1",
		AutoRenew: true,
	}, created)
	c.StartDate = models.NewTimestamp(created)
	c.EndDate = models.NewTimestamp(created.AddDate(0, 0, 30))
	c.Status = models.CustomerStatusActive
	return c
}
