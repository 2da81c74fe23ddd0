// Package selection tracks the status of every stall in one browsing
// session and enforces which transitions a user or an organiser may make.
//
// A Selection is a flat map from stall ID to Status; stalls never affect each
// other except through the cap on how many may be held at once.  It is not
// safe for concurrent use.
package selection

import (
	"errors"
	"fmt"
)

// Status is the client-side lifecycle state of a stall.
type Status string

const (
	Available  Status = "available"
	Held       Status = "held"
	Processing Status = "processing"
	Booked     Status = "booked"
)

// DefaultMaxHeld is the number of stalls a session may hold at once.
const DefaultMaxHeld = 3

var (
	// ErrUnknownStall is returned for an ID that is not part of the layout.
	ErrUnknownStall = errors.New("unknown stall")
	// ErrNothingPending is returned by Confirm when no stall is staged.
	ErrNothingPending = errors.New("no stall pending confirmation")
	// ErrNotAvailable is returned when staging a stall that is being
	// processed or already booked.
	ErrNotAvailable = errors.New("stall is not available")
)

// LimitError reports a rejected hold because the session already holds the
// maximum number of stalls.
type LimitError struct {
	Max int
}

func (e *LimitError) Error() string {
	return fmt.Sprintf("you can select at most %d stalls", e.Max)
}

// Is makes errors.Is(err, ErrSelectionLimit) match any LimitError.
func (e *LimitError) Is(target error) bool { return target == ErrSelectionLimit }

// ErrSelectionLimit matches every LimitError.
var ErrSelectionLimit = errors.New("selection limit reached")

// Selection owns the status of every stall of a layout.
type Selection struct {
	max      int
	statuses map[string]Status
	held     []string
	pending  string
}

// New starts every listed stall as Available.  A non-positive max falls back
// to DefaultMaxHeld.
func New(ids []string, max int) *Selection {
	if max <= 0 {
		max = DefaultMaxHeld
	}
	s := &Selection{max: max, statuses: make(map[string]Status, len(ids))}
	for _, id := range ids {
		s.statuses[id] = Available
	}
	return s
}

// Max is the hold cap of the selection.
func (s *Selection) Max() int { return s.max }

// Status returns the status of a stall.
func (s *Selection) Status(id string) (Status, error) {
	st, ok := s.statuses[id]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownStall, id)
	}
	return st, nil
}

// Toggle flips a stall between Available and Held.  Holding a stall fails
// with a *LimitError once Max stalls are held; the selection is left
// untouched.  Processing and Booked stalls ignore the toggle and report their
// current status.
func (s *Selection) Toggle(id string) (Status, error) {
	st, err := s.Status(id)
	if err != nil {
		return "", err
	}
	switch st {
	case Available:
		if len(s.held) >= s.max {
			return st, &LimitError{Max: s.max}
		}
		s.hold(id)
		return Held, nil
	case Held:
		s.release(id)
		return Available, nil
	default:
		return st, nil
	}
}

// Stage marks an available stall as pending confirmation without holding
// it.  Staging a held stall releases it straight away, and staging replaces
// any previously pending stall.
func (s *Selection) Stage(id string) (Status, error) {
	st, err := s.Status(id)
	if err != nil {
		return "", err
	}
	switch st {
	case Held:
		s.release(id)
		return Available, nil
	case Available:
		if len(s.held) >= s.max {
			return st, &LimitError{Max: s.max}
		}
		s.pending = id
		return st, nil
	default:
		return st, fmt.Errorf("%w: %s is %s", ErrNotAvailable, id, st)
	}
}

// Pending returns the staged stall, if any.
func (s *Selection) Pending() (string, bool) {
	return s.pending, s.pending != ""
}

// Confirm commits the pending stall to Held.  The limit and availability are
// checked again since bulk transitions may have run in between.
func (s *Selection) Confirm() (string, error) {
	id := s.pending
	if id == "" {
		return "", ErrNothingPending
	}
	s.pending = ""
	if s.statuses[id] != Available {
		return id, fmt.Errorf("%w: %s is %s", ErrNotAvailable, id, s.statuses[id])
	}
	if len(s.held) >= s.max {
		return id, &LimitError{Max: s.max}
	}
	s.hold(id)
	return id, nil
}

// Cancel discards the pending stall and returns it.
func (s *Selection) Cancel() (string, bool) {
	id := s.pending
	s.pending = ""
	return id, id != ""
}

// Held returns the held stalls in the order they were selected.
func (s *Selection) Held() []string {
	out := make([]string, len(s.held))
	copy(out, s.held)
	return out
}

// Statuses returns a copy of the status map.
func (s *Selection) Statuses() map[string]Status {
	out := make(map[string]Status, len(s.statuses))
	for id, st := range s.statuses {
		out[id] = st
	}
	return out
}

// Counts tallies stalls per status.
func (s *Selection) Counts() map[Status]int {
	out := map[Status]int{Available: 0, Held: 0, Processing: 0, Booked: 0}
	for _, st := range s.statuses {
		out[st]++
	}
	return out
}

// MarkProcessing moves every held stall to Processing.
func (s *Selection) MarkProcessing() []string {
	moved := s.Held()
	for _, id := range moved {
		s.statuses[id] = Processing
	}
	s.held = s.held[:0]
	return moved
}

// MarkBooked moves every processing stall to Booked, in the given layout
// order.
func (s *Selection) MarkBooked(order []string) []string {
	var moved []string
	for _, id := range order {
		if s.statuses[id] == Processing {
			s.statuses[id] = Booked
			moved = append(moved, id)
		}
	}
	return moved
}

// ClearHeld releases every held stall back to Available.
func (s *Selection) ClearHeld() []string {
	moved := s.Held()
	for _, id := range moved {
		s.statuses[id] = Available
	}
	s.held = s.held[:0]
	return moved
}

func (s *Selection) hold(id string) {
	s.statuses[id] = Held
	s.held = append(s.held, id)
	if s.pending == id {
		s.pending = ""
	}
}

func (s *Selection) release(id string) {
	s.statuses[id] = Available
	for i, h := range s.held {
		if h == id {
			s.held = append(s.held[:i], s.held[i+1:]...)
			break
		}
	}
}

// Snapshot is the serialisable form of a Selection.
type Snapshot struct {
	Max      int               `json:"max"`
	Statuses map[string]Status `json:"statuses"`
	Held     []string          `json:"held"`
	Pending  string            `json:"pending,omitempty"`
}

// Snapshot captures the selection state.
func (s *Selection) Snapshot() Snapshot {
	return Snapshot{Max: s.max, Statuses: s.Statuses(), Held: s.Held(), Pending: s.pending}
}

// Restore rebuilds a selection from a snapshot.  Held entries must agree with
// the status map.
func Restore(snap Snapshot) (*Selection, error) {
	s := New(nil, snap.Max)
	for id, st := range snap.Statuses {
		switch st {
		case Available, Held, Processing, Booked:
			s.statuses[id] = st
		default:
			return nil, fmt.Errorf("stall %s has unknown status %q", id, st)
		}
	}
	for _, id := range snap.Held {
		if s.statuses[id] != Held {
			return nil, fmt.Errorf("stall %s listed as held but is %q", id, s.statuses[id])
		}
		s.held = append(s.held, id)
	}
	if len(s.held) > s.max {
		return nil, &LimitError{Max: s.max}
	}
	if snap.Pending != "" {
		if _, ok := s.statuses[snap.Pending]; !ok {
			return nil, fmt.Errorf("%w: pending %s", ErrUnknownStall, snap.Pending)
		}
		s.pending = snap.Pending
	}
	return s, nil
}
