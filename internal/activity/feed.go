// Package activity fans out collection changes to live subscribers.
package activity

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/MacJediWizard/subdash/internal/models"
)

// Collection names a watched collection.
type Collection string

const (
	CollectionPackages  Collection = "packages"
	CollectionCustomers Collection = "customers"
)

// Action describes what happened to a document.
type Action string

const (
	ActionCreated   Action = "created"
	ActionUpdated   Action = "updated"
	ActionDeleted   Action = "deleted"
	ActionRefreshed Action = "refreshed"
)

// Change is a single committed write.
type Change struct {
	Collection Collection `json:"collection"`
	Action     Action     `json:"action"`
	ID         string     `json:"id,omitempty"`
	At         time.Time  `json:"at"`
}

// Source loads the current collection contents.
type Source interface {
	ListPackages(ctx context.Context) ([]*models.Package, error)
	ListCustomers(ctx context.Context) ([]*models.Customer, error)
}

// Sink receives every change, for example to forward it to a broker.
type Sink interface {
	Deliver(ctx context.Context, change Change) error
}

// Config holds configuration for the Feed.
type Config struct {
	// PingInterval is how often to send ping messages to websocket clients.
	PingInterval time.Duration
	// WriteTimeout is the timeout for writing to a client.
	WriteTimeout time.Duration
	// ReadTimeout is the timeout for reading from a client.
	ReadTimeout time.Duration
	// MaxMessageSize is the maximum size of a message from a client.
	MaxMessageSize int64
	// SendBufferSize is the size of the send buffer per client.
	SendBufferSize int
	// LoadTimeout bounds each snapshot query and sink delivery.
	LoadTimeout time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		PingInterval:   30 * time.Second,
		WriteTimeout:   10 * time.Second,
		ReadTimeout:    60 * time.Second,
		MaxMessageSize: 512,
		SendBufferSize: 16,
		LoadTimeout:    10 * time.Second,
	}
}

type subscriber struct {
	id         uint64
	collection Collection
	packages   func([]*models.Package)
	customers  func([]*models.Customer)
}

// Feed delivers a fresh snapshot of a collection to its subscribers after
// every change, and forwards raw changes to sinks. All callbacks run on the
// feed goroutine and must not block.
type Feed struct {
	config   Config
	source   Source
	logger   zerolog.Logger
	upgrader websocket.Upgrader

	subsMu  sync.RWMutex
	subs    map[uint64]*subscriber
	pending []*subscriber
	nextID  uint64
	sinks   []Sink

	changes chan Change
	wake    chan struct{}

	done     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewFeed creates a Feed reading snapshots from source.
func NewFeed(source Source, cfg Config, logger zerolog.Logger) *Feed {
	return &Feed{
		config: cfg,
		source: source,
		logger: logger.With().Str("component", "activity_feed").Logger(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		subs:    make(map[uint64]*subscriber),
		changes: make(chan Change, 256),
		wake:    make(chan struct{}, 1),
		done:    make(chan struct{}),
	}
}

// AddSink registers a sink. It must be called before Start.
func (f *Feed) AddSink(s Sink) {
	f.sinks = append(f.sinks, s)
}

// Start begins processing changes.
func (f *Feed) Start() {
	f.wg.Add(1)
	go f.run()
	f.logger.Info().Int("sinks", len(f.sinks)).Msg("activity feed started")
}

// Stop stops the feed. Connected websocket clients are closed.
func (f *Feed) Stop() {
	f.stopOnce.Do(func() {
		close(f.done)
		f.wg.Wait()
		f.logger.Info().Msg("activity feed stopped")
	})
}

// Publish queues a change for delivery. It never blocks; when the queue
// is full the change is dropped, and the next one still carries a full
// snapshot.
func (f *Feed) Publish(_ context.Context, change Change) {
	if change.At.IsZero() {
		change.At = time.Now()
	}
	select {
	case f.changes <- change:
	default:
		f.logger.Warn().
			Str("collection", string(change.Collection)).
			Str("id", change.ID).
			Msg("change buffer full, dropping change")
	}
}

// SubscribePackages registers fn to receive the package list now and after
// every package change. The returned func unsubscribes.
func (f *Feed) SubscribePackages(fn func([]*models.Package)) func() {
	return f.subscribe(&subscriber{collection: CollectionPackages, packages: fn})
}

// SubscribeCustomers registers fn to receive the customer list now and
// after every customer change. The returned func unsubscribes.
func (f *Feed) SubscribeCustomers(fn func([]*models.Customer)) func() {
	return f.subscribe(&subscriber{collection: CollectionCustomers, customers: fn})
}

func (f *Feed) subscribe(sub *subscriber) func() {
	f.subsMu.Lock()
	f.nextID++
	sub.id = f.nextID
	f.subs[sub.id] = sub
	f.pending = append(f.pending, sub)
	f.subsMu.Unlock()

	// Subscribers added before Start get their snapshot once it runs.
	select {
	case f.wake <- struct{}{}:
	default:
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			f.subsMu.Lock()
			delete(f.subs, sub.id)
			f.subsMu.Unlock()
		})
	}
}

// SubscriberCount returns the number of active subscriptions.
func (f *Feed) SubscriberCount() int {
	f.subsMu.RLock()
	defer f.subsMu.RUnlock()
	return len(f.subs)
}

func (f *Feed) run() {
	defer f.wg.Done()

	for {
		select {
		case <-f.done:
			return

		case <-f.wake:
			for _, sub := range f.takePending() {
				if f.active(sub.id) {
					f.deliver(sub.collection, []*subscriber{sub})
				}
			}

		case change := <-f.changes:
			f.forward(change)
			f.deliver(change.Collection, f.subscribersFor(change.Collection))
		}
	}
}

func (f *Feed) takePending() []*subscriber {
	f.subsMu.Lock()
	defer f.subsMu.Unlock()
	p := f.pending
	f.pending = nil
	return p
}

func (f *Feed) active(id uint64) bool {
	f.subsMu.RLock()
	defer f.subsMu.RUnlock()
	_, ok := f.subs[id]
	return ok
}

func (f *Feed) subscribersFor(c Collection) []*subscriber {
	f.subsMu.RLock()
	defer f.subsMu.RUnlock()

	var subs []*subscriber
	for _, s := range f.subs {
		if s.collection == c {
			subs = append(subs, s)
		}
	}
	return subs
}

func (f *Feed) forward(change Change) {
	for _, sink := range f.sinks {
		ctx, cancel := context.WithTimeout(context.Background(), f.config.LoadTimeout)
		if err := sink.Deliver(ctx, change); err != nil {
			f.logger.Error().Err(err).
				Str("collection", string(change.Collection)).
				Str("id", change.ID).
				Msg("failed to forward change")
		}
		cancel()
	}
}

// deliver loads the collection once and hands it to each subscriber.
func (f *Feed) deliver(c Collection, subs []*subscriber) {
	if len(subs) == 0 {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), f.config.LoadTimeout)
	defer cancel()

	switch c {
	case CollectionPackages:
		pkgs, err := f.source.ListPackages(ctx)
		if err != nil {
			f.logger.Error().Err(err).Msg("failed to load packages snapshot")
			return
		}
		for _, s := range subs {
			s.packages(pkgs)
		}
	case CollectionCustomers:
		customers, err := f.source.ListCustomers(ctx)
		if err != nil {
			f.logger.Error().Err(err).Msg("failed to load customers snapshot")
			return
		}
		for _, s := range subs {
			s.customers(customers)
		}
	}
}
