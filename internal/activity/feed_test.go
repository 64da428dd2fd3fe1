package activity

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MacJediWizard/subdash/internal/models"
)

type fakeSource struct {
	mu        sync.Mutex
	packages  []*models.Package
	customers []*models.Customer
}

func (s *fakeSource) ListPackages(context.Context) ([]*models.Package, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*models.Package(nil), s.packages...), nil
}

func (s *fakeSource) ListCustomers(context.Context) ([]*models.Customer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*models.Customer(nil), s.customers...), nil
}

func (s *fakeSource) addCustomer(c *models.Customer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.customers = append(s.customers, c)
}

type recordingSink struct {
	mu      sync.Mutex
	changes []Change
}

func (r *recordingSink) Deliver(_ context.Context, c Change) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.changes = append(r.changes, c)
	return nil
}

func (r *recordingSink) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.changes)
}

func newTestFeed(t *testing.T, src Source) *Feed {
	t.Helper()
	f := NewFeed(src, DefaultConfig(), zerolog.New(zerolog.NewTestWriter(t)))
	f.Start()
	t.Cleanup(f.Stop)
	return f
}

func receive[T any](t *testing.T, ch <-chan T) T {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for delivery")
	}
	var zero T
	return zero
}

func TestSubscribeDeliversInitialSnapshot(t *testing.T) {
	src := &fakeSource{packages: []*models.Package{{ID: "pkg-1", Name: "Gold"}}}
	f := newTestFeed(t, src)

	got := make(chan []*models.Package, 4)
	unsub := f.SubscribePackages(func(p []*models.Package) { got <- p })
	defer unsub()

	pkgs := receive(t, got)
	require.Len(t, pkgs, 1)
	assert.Equal(t, "Gold", pkgs[0].Name)
}

func TestPublishDeliversFreshSnapshot(t *testing.T) {
	src := &fakeSource{}
	f := newTestFeed(t, src)

	got := make(chan []*models.Customer, 4)
	unsub := f.SubscribeCustomers(func(c []*models.Customer) { got <- c })
	defer unsub()

	assert.Empty(t, receive(t, got))

	src.addCustomer(&models.Customer{ID: "c1", Name: "Ada"})
	f.Publish(context.Background(), Change{Collection: CollectionCustomers, Action: ActionCreated, ID: "c1"})

	customers := receive(t, got)
	require.Len(t, customers, 1)
	assert.Equal(t, "c1", customers[0].ID)
}

func TestPublishOnlyNotifiesMatchingCollection(t *testing.T) {
	src := &fakeSource{}
	f := newTestFeed(t, src)

	pkgCh := make(chan []*models.Package, 4)
	unsub := f.SubscribePackages(func(p []*models.Package) { pkgCh <- p })
	defer unsub()
	receive(t, pkgCh)

	f.Publish(context.Background(), Change{Collection: CollectionCustomers, Action: ActionUpdated, ID: "c1"})
	f.Publish(context.Background(), Change{Collection: CollectionPackages, Action: ActionUpdated, ID: "p1"})

	receive(t, pkgCh)
	select {
	case <-pkgCh:
		t.Fatal("package subscriber notified of a customer change")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	src := &fakeSource{}
	f := newTestFeed(t, src)

	got := make(chan []*models.Customer, 4)
	unsub := f.SubscribeCustomers(func(c []*models.Customer) { got <- c })
	receive(t, got)
	assert.Equal(t, 1, f.SubscriberCount())

	unsub()
	unsub()
	assert.Equal(t, 0, f.SubscriberCount())

	f.Publish(context.Background(), Change{Collection: CollectionCustomers, Action: ActionDeleted, ID: "c1"})
	select {
	case <-got:
		t.Fatal("received snapshot after unsubscribe")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestSinksReceiveChanges(t *testing.T) {
	sink := &recordingSink{}
	f := NewFeed(&fakeSource{}, DefaultConfig(), zerolog.Nop())
	f.AddSink(sink)
	f.Start()
	defer f.Stop()

	f.Publish(context.Background(), Change{Collection: CollectionPackages, Action: ActionCreated, ID: "p1"})
	f.Publish(context.Background(), Change{Collection: CollectionCustomers, Action: ActionRefreshed})

	require.Eventually(t, func() bool { return sink.count() == 2 }, 2*time.Second, 10*time.Millisecond)
	sink.mu.Lock()
	defer sink.mu.Unlock()
	assert.Equal(t, ActionCreated, sink.changes[0].Action)
	assert.False(t, sink.changes[0].At.IsZero(), "publish stamps the change time")
}

func TestStopIsIdempotent(t *testing.T) {
	f := NewFeed(&fakeSource{}, DefaultConfig(), zerolog.Nop())
	f.Start()
	f.Stop()
	f.Stop()
}

func TestSubscribeBeforeStartDoesNotBlock(t *testing.T) {
	src := &fakeSource{customers: []*models.Customer{{ID: "c-1", Name: "Ada"}}}
	f := NewFeed(src, DefaultConfig(), zerolog.New(zerolog.NewTestWriter(t)))

	const subscribers = 100
	got := make(chan []*models.Customer, subscribers)

	subscribed := make(chan struct{})
	go func() {
		defer close(subscribed)
		for range subscribers {
			f.SubscribeCustomers(func(c []*models.Customer) { got <- c })
		}
	}()
	receive(t, subscribed)
	assert.Equal(t, subscribers, f.SubscriberCount())

	f.Start()
	t.Cleanup(f.Stop)

	for range subscribers {
		customers := receive(t, got)
		require.Len(t, customers, 1)
		assert.Equal(t, "Ada", customers[0].Name)
	}
}
