// Package session keeps the short-lived state that connects one page view to
// the next: one-time navigation tokens carrying an ExtractionResult to the
// Results view, flash toasts, and the per-visitor in-flight submission guard.
//
// Nothing here is persisted. A restart drops every pending state, the same
// as a browser reload.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/scrynk/scrynk/models"
)

// resultEntry holds a pending navigation state with its creation timestamp.
type resultEntry struct {
	result    *models.ExtractionResult
	createdAt time.Time
}

// visitor is the per-browser state keyed by the visitor cookie.
type visitor struct {
	toasts   []models.Toast
	inFlight bool
	lastSeen time.Time
}

// Store is safe for concurrent use.
type Store struct {
	mu         sync.Mutex
	results    map[string]*resultEntry
	visitors   map[string]*visitor
	maxEntries int
	ttl        time.Duration
	now        func() time.Time

	stopOnce sync.Once
	stop     chan struct{}
}

// New creates a Store. Pending results and idle visitors older than ttl are
// evicted by a background goroutine that runs every ttl/3 (at least every
// minute). Call Close to stop it.
func New(ttl time.Duration, maxEntries int) *Store {
	s := newStore(ttl, maxEntries)

	interval := ttl / 3
	if interval <= 0 || interval > time.Minute {
		interval = time.Minute
	}
	go s.cleanupLoop(interval)
	return s
}

func newStore(ttl time.Duration, maxEntries int) *Store {
	if maxEntries <= 0 {
		maxEntries = 1000
	}
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &Store{
		results:    make(map[string]*resultEntry),
		visitors:   make(map[string]*visitor),
		maxEntries: maxEntries,
		ttl:        ttl,
		now:        time.Now,
		stop:       make(chan struct{}),
	}
}

// Close stops the cleanup goroutine.
func (s *Store) Close() {
	s.stopOnce.Do(func() { close(s.stop) })
}

// Put stores a result under a fresh one-time token. If the store is at
// capacity the oldest pending result is dropped.
func (s *Store) Put(result *models.ExtractionResult) string {
	token := uuid.NewString()

	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.results) >= s.maxEntries {
		s.evictOldestLocked()
	}
	s.results[token] = &resultEntry{result: result, createdAt: s.now()}
	return token
}

// Take returns the result stored under token and forgets it. A second Take
// with the same token, an unknown token, or an expired one reports false.
func (s *Store) Take(token string) (*models.ExtractionResult, bool) {
	if token == "" {
		return nil, false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.results[token]
	if !ok {
		return nil, false
	}
	delete(s.results, token)

	if s.now().Sub(e.createdAt) > s.ttl {
		return nil, false
	}
	return e.result, true
}

// Begin marks a submission in flight for the visitor. It reports false if
// one is already in flight, in which case the caller must not proceed.
func (s *Store) Begin(visitorID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	v := s.visitorLocked(visitorID)
	if v.inFlight {
		return false
	}
	v.inFlight = true
	return true
}

// End clears the in-flight mark set by Begin.
func (s *Store) End(visitorID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if v, ok := s.visitors[visitorID]; ok {
		v.inFlight = false
		v.lastSeen = s.now()
	}
}

// InFlight reports whether the visitor has a submission pending.
func (s *Store) InFlight(visitorID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, ok := s.visitors[visitorID]
	return ok && v.inFlight
}

// PushToast queues a toast for the visitor's next rendered view.
func (s *Store) PushToast(visitorID string, t models.Toast) {
	s.mu.Lock()
	defer s.mu.Unlock()

	v := s.visitorLocked(visitorID)
	v.toasts = append(v.toasts, t)
}

// PopToasts returns and clears the visitor's queued toasts.
func (s *Store) PopToasts(visitorID string) []models.Toast {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, ok := s.visitors[visitorID]
	if !ok {
		return nil
	}
	toasts := v.toasts
	v.toasts = nil
	v.lastSeen = s.now()
	return toasts
}

// Stats reports the current size of the store.
func (s *Store) Stats() models.StoreStats {
	s.mu.Lock()
	defer s.mu.Unlock()

	stats := models.StoreStats{
		PendingResults: len(s.results),
		Visitors:       len(s.visitors),
	}
	for _, v := range s.visitors {
		if v.inFlight {
			stats.InFlight++
		}
	}
	return stats
}

func (s *Store) visitorLocked(id string) *visitor {
	v, ok := s.visitors[id]
	if !ok {
		v = &visitor{}
		s.visitors[id] = v
	}
	v.lastSeen = s.now()
	return v
}

func (s *Store) evictOldestLocked() {
	var (
		oldestKey string
		oldestAt  time.Time
	)
	for k, e := range s.results {
		if oldestKey == "" || e.createdAt.Before(oldestAt) {
			oldestKey, oldestAt = k, e.createdAt
		}
	}
	delete(s.results, oldestKey)
}

// sweep evicts expired results and idle visitors. Visitors with a
// submission in flight are kept regardless of age.
func (s *Store) sweep() {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := s.now().Add(-s.ttl)
	for k, e := range s.results {
		if e.createdAt.Before(cutoff) {
			delete(s.results, k)
		}
	}
	for id, v := range s.visitors {
		if !v.inFlight && v.lastSeen.Before(cutoff) {
			delete(s.visitors, id)
		}
	}
}

func (s *Store) cleanupLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			s.sweep()
		}
	}
}

type visitorKey struct{}

// WithVisitor returns a context carrying the visitor id.
func WithVisitor(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, visitorKey{}, id)
}

// VisitorFrom returns the visitor id stored by WithVisitor, or "".
func VisitorFrom(ctx context.Context) string {
	id, _ := ctx.Value(visitorKey{}).(string)
	return id
}

// NewVisitorID returns a fresh random visitor id.
func NewVisitorID() string {
	return uuid.NewString()
}

// ValidVisitorID reports whether id looks like one issued by NewVisitorID.
func ValidVisitorID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
