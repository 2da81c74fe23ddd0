// Package session owns the browsing sessions in which a publisher picks
// stalls on a generated floor plan.  A session pairs the layout of one book
// fair with a selection state machine and expires after a period of
// inactivity.
package session

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/iliyamo/bookfair-stall-reservation/internal/floorplan"
	"github.com/iliyamo/bookfair-stall-reservation/internal/selection"
)

// ErrSessionNotFound is returned for unknown or expired sessions.
var ErrSessionNotFound = errors.New("session not found")

// Session is one publisher's view of a book fair.
type Session struct {
	ID           string
	BookFairID   string
	UserID       uint64
	Counts       floorplan.Counts
	Layout       floorplan.Layout
	Selection    *selection.Selection
	Reservations []Checkout
	// Processed lists stalls an organiser moved to processing without a
	// checkout.
	Processed    []string
	ExpiresAt    time.Time
}

// Checkout is a reservation created from this session and the stalls it
// covers.
type Checkout struct {
	ReservationID uint64   `json:"reservation_id"`
	Stalls        []string `json:"stalls"`
}

// Owns reports whether the session put stall into processing itself, by
// checkout or by an organiser.  Stalls shown as processing or booked
// because of other sessions' reservations are not owned.
func (s *Session) Owns(stall string) bool {
	if slices.Contains(s.Processed, stall) {
		return true
	}
	for _, c := range s.Reservations {
		if slices.Contains(c.Stalls, stall) {
			return true
		}
	}
	return false
}

func cloneCheckouts(in []Checkout) []Checkout {
	if in == nil {
		return nil
	}
	out := make([]Checkout, len(in))
	for i, c := range in {
		out[i] = Checkout{ReservationID: c.ReservationID, Stalls: slices.Clone(c.Stalls)}
	}
	return out
}

// Store persists sessions.  Update applies fn to a private copy and saves it
// only when fn returns nil.
type Store interface {
	Create(ctx context.Context, s *Session) error
	Get(ctx context.Context, id string) (*Session, error)
	Update(ctx context.Context, id string, fn func(*Session) error) (*Session, error)
	Delete(ctx context.Context, id string) error
}

// record is the stored form of a session.  The layout is regenerated from
// the counts on load.
type record struct {
	ID           string             `json:"id"`
	BookFairID   string             `json:"book_fair_id"`
	UserID       uint64             `json:"user_id"`
	Counts       floorplan.Counts   `json:"counts"`
	Selection    selection.Snapshot `json:"selection"`
	Reservations []Checkout         `json:"reservations,omitempty"`
	Processed    []string           `json:"processed,omitempty"`
	ExpiresAt    time.Time          `json:"expires_at"`
}

func toRecord(s *Session) record {
	return record{
		ID:           s.ID,
		BookFairID:   s.BookFairID,
		UserID:       s.UserID,
		Counts:       s.Counts,
		Selection:    s.Selection.Snapshot(),
		Reservations: cloneCheckouts(s.Reservations),
		Processed:    slices.Clone(s.Processed),
		ExpiresAt:    s.ExpiresAt,
	}
}

// session rebuilds a Session.  layout may be passed in when already known.
func (r record) session(layout *floorplan.Layout) (*Session, error) {
	var l floorplan.Layout
	if layout != nil {
		l = *layout
	} else {
		var err error
		if l, err = floorplan.Generate(r.Counts); err != nil {
			return nil, fmt.Errorf("session %s: %w", r.ID, err)
		}
	}
	sel, err := selection.Restore(r.Selection)
	if err != nil {
		return nil, fmt.Errorf("session %s: %w", r.ID, err)
	}
	return &Session{
		ID:           r.ID,
		BookFairID:   r.BookFairID,
		UserID:       r.UserID,
		Counts:       r.Counts,
		Layout:       l,
		Selection:    sel,
		Reservations: cloneCheckouts(r.Reservations),
		Processed:    slices.Clone(r.Processed),
		ExpiresAt:    r.ExpiresAt,
	}, nil
}
