package wizard

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/parisxmas/OxiEnroll/internal/field"
)

// Session owns one Flow. Requests for the same session are serialised by its
// mutex; upload tracking has its own lock so it can change while the flow is
// not held.
type Session struct {
	ID string

	mu      sync.Mutex
	flow    *Flow
	uploads *field.Uploads

	seen time.Time // guarded by Sessions.mu
}

// Do runs fn with exclusive access to the session's flow.
func (s *Session) Do(fn func(f *Flow) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.flow)
}

func (s *Session) Uploads() *field.Uploads { return s.uploads }

// Sessions is the registry of live enrollment sessions. Idle sessions are
// dropped by a janitor goroutine after the configured TTL, and at most max
// sessions are open at once.
type Sessions struct {
	mu       sync.Mutex
	sessions map[string]*Session
	ttl      time.Duration
	max      int
	now      func() time.Time

	stop chan struct{}
	done chan struct{}
	once sync.Once
}

// NewSessions starts a registry that sweeps for idle sessions every interval.
// A max below one leaves the registry unbounded.
func NewSessions(ttl, interval time.Duration, max int) *Sessions {
	r := &Sessions{
		sessions: map[string]*Session{},
		ttl:      ttl,
		max:      max,
		now:      time.Now,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	go r.janitor(interval)
	return r
}

// Create registers a new session positioned on INTRO. When the registry is
// full, idle sessions are swept first and ErrTooManySessions is returned if
// that frees nothing.
func (r *Sessions) Create() (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.max > 0 && len(r.sessions) >= r.max && r.sweepLocked() == 0 {
		return nil, ErrTooManySessions
	}
	s := &Session{
		ID:      uuid.New().String(),
		flow:    NewFlow(),
		uploads: field.NewUploads(),
		seen:    r.now(),
	}
	r.sessions[s.ID] = s
	return s, nil
}

// Get returns the session and refreshes its idle timer.
func (r *Sessions) Get(id string) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	s.seen = r.now()
	return s, nil
}

func (r *Sessions) Remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, id)
}

func (r *Sessions) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Sweep drops sessions idle for longer than the TTL and returns how many
// were removed.
func (r *Sessions) Sweep() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sweepLocked()
}

func (r *Sessions) sweepLocked() int {
	cutoff := r.now().Add(-r.ttl)
	n := 0
	for id, s := range r.sessions {
		if s.seen.Before(cutoff) {
			delete(r.sessions, id)
			n++
		}
	}
	return n
}

// Close stops the janitor. It is safe to call more than once.
func (r *Sessions) Close() {
	r.once.Do(func() {
		close(r.stop)
		<-r.done
	})
}

func (r *Sessions) janitor(interval time.Duration) {
	defer close(r.done)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-r.stop:
			return
		case <-ticker.C:
			r.Sweep()
		}
	}
}
