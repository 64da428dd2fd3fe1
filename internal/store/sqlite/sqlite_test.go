package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MacJediWizard/subdash/internal/store/storetest"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "subdash.db"), zerolog.New(zerolog.NewTestWriter(t)))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStoreContract(t *testing.T) {
	storetest.Run(t, newTestStore(t))
}

func TestReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "subdash.db")
	logger := zerolog.Nop()

	s, err := New(path, logger)
	require.NoError(t, err)
	_, err = s.db.Exec(`INSERT INTO packages (id, name, duration, duration_type) VALUES ('pkg-1', 'Legacy', 1, 'month')`)
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = New(path, logger)
	require.NoError(t, err)
	defer s.Close()

	pkg, err := s.GetPackage(context.Background(), "pkg-1")
	require.NoError(t, err)
	assert.Equal(t, "Legacy", pkg.Name)
	assert.True(t, pkg.CreatedAt.IsZero(), "missing timestamps decode as zero")
}

func TestMalformedStoredDates(t *testing.T) {
	s := newTestStore(t)
	_, err := s.db.Exec(`
		INSERT INTO customers (id, name, package_id, start_date, end_date, status)
		VALUES ('c1', 'Broken', 'pkg-1', 'not-a-date', '2024-01-31', 'active')
	`)
	require.NoError(t, err)

	c, err := s.GetCustomer(context.Background(), "c1")
	require.NoError(t, err)
	assert.True(t, c.StartDate.IsZero())
	assert.Equal(t, 31, c.EndDate.Time().Day())
}
