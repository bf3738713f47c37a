package browser

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"malt-scraper/internal/logging"
	"malt-scraper/pkg/models"
)

// ErrRegistryClosed is returned by Acquire once CloseAll has run
var ErrRegistryClosed = errors.New("browser registry is shut down")

// Registry bounds the number of live sessions and remembers them so a shutdown
// can force-close whatever is still open.
type Registry struct {
	capacity int
	slots    chan struct{}
	logger   logging.Logger

	mu       sync.Mutex
	live     map[uint64]*Lease
	nextID   uint64
	shutdown bool

	opened atomic.Int64
	failed atomic.Int64
	closed atomic.Int64
}

// Lease is an acquired session. Release (or Close) closes the session exactly once and frees its slot.
type Lease struct {
	Session

	id        uint64
	profileID string
	openedAt  time.Time
	registry  *Registry
	once      sync.Once
}

// NewRegistry creates a registry allowing at most capacity concurrent sessions
func NewRegistry(capacity int, logger logging.Logger) *Registry {
	if capacity <= 0 {
		capacity = 1
	}
	return &Registry{
		capacity: capacity,
		slots:    make(chan struct{}, capacity),
		logger:   logging.OrGlobal(logger),
		live:     make(map[uint64]*Lease),
	}
}

// Acquire waits for a free slot then opens a session for profileID
func (r *Registry) Acquire(ctx context.Context, profileID string, open Opener) (*Lease, error) {
	if r.isShutdown() {
		return nil, ErrRegistryClosed
	}

	select {
	case r.slots <- struct{}{}:
	case <-ctx.Done():
		return nil, fmt.Errorf("waiting for a browser slot: %w", ctx.Err())
	}

	session, err := open(ctx, profileID)
	if err != nil {
		<-r.slots
		r.failed.Add(1)
		return nil, err
	}

	r.mu.Lock()
	if r.shutdown {
		r.mu.Unlock()
		_ = session.Close()
		<-r.slots
		r.closed.Add(1)
		return nil, ErrRegistryClosed
	}
	r.nextID++
	lease := &Lease{
		Session:   session,
		id:        r.nextID,
		profileID: profileID,
		openedAt:  time.Now(),
		registry:  r,
	}
	r.live[lease.id] = lease
	r.mu.Unlock()

	r.opened.Add(1)
	r.logger.Debug("Browser session acquired", map[string]interface{}{
		"profile_id": profileID,
		"live":       r.Live(),
	})
	return lease, nil
}

// Release closes the session and frees the slot. Later calls are no-ops.
func (l *Lease) Release() {
	l.once.Do(func() {
		_ = l.Session.Close()

		r := l.registry
		r.mu.Lock()
		delete(r.live, l.id)
		r.mu.Unlock()
		<-r.slots
		r.closed.Add(1)

		r.logger.Debug("Browser session released", map[string]interface{}{
			"profile_id": l.profileID,
			"held":       time.Since(l.openedAt).String(),
		})
	})
}

// Close is Release, so a lease can stand in for the session it wraps
func (l *Lease) Close() error {
	l.Release()
	return nil
}

// CloseAll refuses new acquisitions and force-closes every live session. It returns how many were closed.
func (r *Registry) CloseAll() int {
	r.mu.Lock()
	r.shutdown = true
	leases := make([]*Lease, 0, len(r.live))
	for _, l := range r.live {
		leases = append(leases, l)
	}
	r.mu.Unlock()

	for _, l := range leases {
		l.Release()
	}

	if len(leases) > 0 {
		r.logger.Warn("Force-closed live browser sessions", map[string]interface{}{"count": len(leases)})
	}
	return len(leases)
}

// Live returns the number of sessions currently open
func (r *Registry) Live() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.live)
}

// Stats reports registry counters for the status endpoint
func (r *Registry) Stats() models.SessionStats {
	return models.SessionStats{
		Live:     r.Live(),
		Capacity: r.capacity,
		Opened:   r.opened.Load(),
		Failed:   r.failed.Load(),
		Closed:   r.closed.Load(),
	}
}

func (r *Registry) isShutdown() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.shutdown
}
