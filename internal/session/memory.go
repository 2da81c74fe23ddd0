package session

import (
	"context"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/iliyamo/bookfair-stall-reservation/internal/floorplan"
	"github.com/iliyamo/bookfair-stall-reservation/internal/metrics"
)

type memEntry struct {
	rec    record
	layout floorplan.Layout
}

// MemoryStore keeps sessions in process.  Expired entries are dropped when
// they are next touched and by the sweep that Run performs.
type MemoryStore struct {
	mu  sync.Mutex
	m   map[string]memEntry
	ttl time.Duration
	now func() time.Time
}

// NewMemoryStore returns an empty store whose sessions live for ttl after
// their last update.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{m: make(map[string]memEntry), ttl: ttl, now: time.Now}
}

// Create implements Store.
func (s *MemoryStore) Create(_ context.Context, sess *Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess.ExpiresAt = s.now().Add(s.ttl)
	s.m[sess.ID] = memEntry{rec: toRecord(sess), layout: sess.Layout}
	return nil
}

// Get implements Store.
func (s *MemoryStore) Get(_ context.Context, id string) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, err := s.lookup(id)
	if err != nil {
		return nil, err
	}
	return e.rec.session(&e.layout)
}

// Update implements Store.
func (s *MemoryStore) Update(_ context.Context, id string, fn func(*Session) error) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, err := s.lookup(id)
	if err != nil {
		return nil, err
	}
	sess, err := e.rec.session(&e.layout)
	if err != nil {
		return nil, err
	}
	if err := fn(sess); err != nil {
		return nil, err
	}
	sess.ExpiresAt = s.now().Add(s.ttl)
	s.m[id] = memEntry{rec: toRecord(sess), layout: e.layout}
	return sess, nil
}

// Delete implements Store.
func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.m, id)
	return nil
}

// Len reports the number of stored sessions, expired ones included until
// the next sweep.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.m)
}

// Sweep drops every expired session and returns how many were removed.
func (s *MemoryStore) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	n := 0
	for id, e := range s.m {
		if now.After(e.rec.ExpiresAt) {
			delete(s.m, id)
			n++
		}
	}
	return n
}

// Run sweeps expired sessions every interval until ctx is cancelled and
// keeps the live session gauge current.
func (s *MemoryStore) Run(ctx context.Context, interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if n := s.Sweep(); n > 0 {
				log.WithField("expired", n).Debug("session sweep")
			}
			metrics.SessionsLive.Set(float64(s.Len()))
		}
	}
}

func (s *MemoryStore) lookup(id string) (memEntry, error) {
	e, ok := s.m[id]
	if !ok {
		return memEntry{}, ErrSessionNotFound
	}
	if s.now().After(e.rec.ExpiresAt) {
		delete(s.m, id)
		return memEntry{}, ErrSessionNotFound
	}
	return e, nil
}
