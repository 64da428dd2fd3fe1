package maintenance

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/rs/zerolog"
)

// mockRefresher implements StatusRefresher for testing.
type mockRefresher struct {
	mu       sync.Mutex
	calls    int
	updated  int
	inFlight atomic.Int32
	overlap  atomic.Bool
	err      error
}

func (m *mockRefresher) RefreshAllStatuses(_ context.Context) (int, error) {
	if m.inFlight.Add(1) > 1 {
		m.overlap.Store(true)
	}
	defer m.inFlight.Add(-1)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return 0, m.err
	}
	return m.updated, nil
}

func (m *mockRefresher) getCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func TestNewStatusRefreshScheduler(t *testing.T) {
	s := NewStatusRefreshScheduler(&mockRefresher{}, "", nil, zerolog.Nop())

	if s == nil {
		t.Fatal("expected non-nil scheduler")
	}
	if s.schedule != DefaultStatusRefreshSchedule {
		t.Errorf("expected default schedule, got %q", s.schedule)
	}
	if s.running {
		t.Error("expected scheduler to not be running initially")
	}
}

func TestStatusRefreshScheduler_StartStop(t *testing.T) {
	s := NewStatusRefreshScheduler(&mockRefresher{}, "@every 1h", nil, zerolog.Nop())

	if err := s.Start(); err != nil {
		t.Fatalf("unexpected error starting scheduler: %v", err)
	}
	if !s.running {
		t.Error("expected scheduler to be running after Start()")
	}

	// Starting again should return an error
	if err := s.Start(); err == nil {
		t.Error("expected error when starting already-running scheduler")
	}

	<-s.Stop().Done()

	if s.running {
		t.Error("expected scheduler to not be running after Stop()")
	}
}

func TestStatusRefreshScheduler_InvalidSchedule(t *testing.T) {
	s := NewStatusRefreshScheduler(&mockRefresher{}, "every tuesday", nil, zerolog.Nop())

	if err := s.Start(); err == nil {
		t.Error("expected error for invalid cron expression")
	}
	if s.running {
		t.Error("expected scheduler to not be running")
	}
}

func TestStatusRefreshScheduler_StopWhenNotRunning(t *testing.T) {
	s := NewStatusRefreshScheduler(&mockRefresher{}, "", nil, zerolog.Nop())

	ctx := s.Stop()
	if ctx == nil {
		t.Fatal("expected non-nil context from Stop()")
	}
	select {
	case <-ctx.Done():
	default:
		t.Error("expected context to be done")
	}
}

func TestStatusRefreshScheduler_RunNow(t *testing.T) {
	tests := []struct {
		name    string
		updated int
		err     error
	}{
		{"changes", 3, nil},
		{"nothing to change", 0, nil},
		{"refresh error", 0, errors.New("db connection lost")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &mockRefresher{updated: tt.updated, err: tt.err}
			s := NewStatusRefreshScheduler(r, "", nil, zerolog.Nop())

			n, err := s.RunNow()

			if !errors.Is(err, tt.err) {
				t.Errorf("expected error %v, got %v", tt.err, err)
			}
			if n != tt.updated {
				t.Errorf("expected %d updated, got %d", tt.updated, n)
			}
			if r.getCalls() != 1 {
				t.Errorf("expected 1 call, got %d", r.getCalls())
			}
		})
	}
}

func TestStatusRefreshScheduler_ConcurrentRunNowDoesNotOverlap(t *testing.T) {
	r := &mockRefresher{updated: 1}
	s := NewStatusRefreshScheduler(r, "", nil, zerolog.Nop())

	var wg sync.WaitGroup
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.RunNow()
		}()
	}
	wg.Wait()

	if r.getCalls() != 10 {
		t.Errorf("expected 10 calls, got %d", r.getCalls())
	}
	if r.overlap.Load() {
		t.Error("expected sweeps to be serialized")
	}
}
