package session

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/iliyamo/bookfair-stall-reservation/internal/floorplan"
	"github.com/iliyamo/bookfair-stall-reservation/internal/layoutsource"
	"github.com/iliyamo/bookfair-stall-reservation/internal/metrics"
	"github.com/iliyamo/bookfair-stall-reservation/internal/model"
	"github.com/iliyamo/bookfair-stall-reservation/internal/pricing"
	"github.com/iliyamo/bookfair-stall-reservation/internal/queue"
	"github.com/iliyamo/bookfair-stall-reservation/internal/repository"
	"github.com/iliyamo/bookfair-stall-reservation/internal/selection"
)

// Reservations is the persistence the engine needs for checkout.
type Reservations interface {
	Allocations(ctx context.Context, bookFairID string) (map[string]string, error)
	Create(ctx context.Context, res *model.Reservation) error
	SetStatus(ctx context.Context, id uint64, status string) error
	Cancel(ctx context.Context, id uint64, userID *uint64) error
}

// Publisher emits checkout events.
type Publisher interface {
	PublishReservationConfirmed(ctx context.Context, ev queue.StallReservationConfirmed) error
}

// Service runs the selection workflow on stored sessions.
type Service struct {
	Store        Store
	Source       layoutsource.Source
	Reservations Reservations
	Events       Publisher // optional
	Pricing      pricing.Table
	MaxHeld      int
	// Invalidate is told about every change to the allocations of a book
	// fair, e.g. to drop cached floor plans.  Optional.
	Invalidate func(ctx context.Context, bookFairID string)

	now func() time.Time
}

// NewService wires an engine.  events may be nil.
func NewService(store Store, source layoutsource.Source, res Reservations, events Publisher, table pricing.Table, maxHeld int) *Service {
	return &Service{Store: store, Source: source, Reservations: res, Events: events, Pricing: table, MaxHeld: maxHeld, now: time.Now}
}

// Start opens a session on the layout of bookFairID.  Stalls already held by
// reservations show as processing or booked.
func (s *Service) Start(ctx context.Context, bookFairID string, userID uint64) (*Session, error) {
	sess, err := s.start(ctx, bookFairID, userID)
	result := "ok"
	switch {
	case err == nil:
	case errors.Is(err, floorplan.ErrInvalidLayout):
		result = "invalid_layout"
	case errors.Is(err, layoutsource.ErrBookFairNotFound):
		result = "not_found"
	default:
		result = "error"
	}
	metrics.SessionsStarted.WithLabelValues(result).Inc()
	if err != nil {
		log.WithError(err).WithFields(log.Fields{"book_fair_id": bookFairID, "user_id": userID}).Warn("session start failed")
		return nil, err
	}
	log.WithFields(log.Fields{
		"session_id":   sess.ID,
		"book_fair_id": bookFairID,
		"user_id":      userID,
		"stalls":       len(sess.Layout.Shapes),
	}).Info("session started")
	return sess, nil
}

func (s *Service) start(ctx context.Context, bookFairID string, userID uint64) (*Session, error) {
	counts, err := s.Source.Counts(ctx, bookFairID)
	if err != nil {
		return nil, err
	}
	layout, err := floorplan.Generate(counts)
	if err != nil {
		return nil, err
	}

	sel := selection.New(layout.IDs(), s.MaxHeld)
	if s.Reservations != nil {
		alloc, err := s.Reservations.Allocations(ctx, bookFairID)
		if err != nil {
			return nil, fmt.Errorf("load allocations: %w", err)
		}
		if sel, err = applyAllocations(sel, alloc); err != nil {
			return nil, err
		}
	}

	sess := &Session{
		ID:         uuid.NewString(),
		BookFairID: bookFairID,
		UserID:     userID,
		Counts:     counts,
		Layout:     layout,
		Selection:  sel,
	}
	if err := s.Store.Create(ctx, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

// Get returns a session.
func (s *Service) Get(ctx context.Context, id string) (*Session, error) {
	return s.Store.Get(ctx, id)
}

// End discards a session.  Reservations created from it are kept.
func (s *Service) End(ctx context.Context, id string) error {
	if _, err := s.Store.Get(ctx, id); err != nil {
		return err
	}
	return s.Store.Delete(ctx, id)
}

// Toggle flips a stall between available and held.
func (s *Service) Toggle(ctx context.Context, id, stall string) (*Session, selection.Status, error) {
	var st selection.Status
	sess, err := s.Store.Update(ctx, id, func(sess *Session) error {
		var err error
		st, err = sess.Selection.Toggle(stall)
		return err
	})
	observe("toggle", st, err)
	return sess, st, err
}

// Stage puts a stall in the pending confirmation slot.
func (s *Service) Stage(ctx context.Context, id, stall string) (*Session, error) {
	var st selection.Status
	sess, err := s.Store.Update(ctx, id, func(sess *Session) error {
		var err error
		st, err = sess.Selection.Stage(stall)
		return err
	})
	observe("stage", st, err)
	return sess, err
}

// Confirm holds the pending stall.
func (s *Service) Confirm(ctx context.Context, id string) (*Session, string, error) {
	var stall string
	sess, err := s.Store.Update(ctx, id, func(sess *Session) error {
		var err error
		stall, err = sess.Selection.Confirm()
		return err
	})
	st := selection.Status("")
	if err == nil {
		st = selection.Held
	}
	observe("confirm", st, err)
	return sess, stall, err
}

// Cancel drops the pending stall, if any.
func (s *Service) Cancel(ctx context.Context, id string) (*Session, string, error) {
	var stall string
	sess, err := s.Store.Update(ctx, id, func(sess *Session) error {
		stall, _ = sess.Selection.Cancel()
		return nil
	})
	return sess, stall, err
}

// Summary prices the held stalls of a session.
func (s *Service) Summary(ctx context.Context, id string) (pricing.Summary, error) {
	sess, err := s.Store.Get(ctx, id)
	if err != nil {
		return pricing.Summary{}, err
	}
	return s.Pricing.Summarize(sess.Layout, sess.Selection.Held())
}

// Checkout persists the held stalls as a PROCESSING reservation and moves
// them to processing.  When another session allocated one of the stalls
// first, the session is refreshed and repository.ErrConflict is returned.
func (s *Service) Checkout(ctx context.Context, id string) (model.Reservation, pricing.Summary, error) {
	if s.Reservations == nil {
		return model.Reservation{}, pricing.Summary{}, errors.New("checkout is not configured")
	}

	var (
		created *model.Reservation
		sum     pricing.Summary
	)
	sess, err := s.Store.Update(ctx, id, func(sess *Session) error {
		held := sess.Selection.Held()
		if created != nil {
			// transaction retry; the reservation already exists
			if !slices.Equal(stallIDs(created), held) {
				return fmt.Errorf("session %s changed during checkout", sess.ID)
			}
		} else {
			var err error
			if sum, err = s.Pricing.Summarize(sess.Layout, held); err != nil {
				return err
			}
			res := newReservation(sess, sum)
			if err := s.Reservations.Create(ctx, res); err != nil {
				return err
			}
			created = res
		}
		sess.Selection.MarkProcessing()
		sess.Reservations = append(sess.Reservations, Checkout{ReservationID: created.ID, Stalls: stallIDs(created)})
		return nil
	})

	if err != nil {
		if created != nil {
			if cerr := s.Reservations.Cancel(ctx, created.ID, nil); cerr != nil {
				log.WithError(cerr).WithField("reservation_id", created.ID).Error("rollback of orphaned reservation failed")
			}
		}
		if errors.Is(err, repository.ErrConflict) {
			s.refresh(ctx, id)
		}
		metrics.ReservationsTotal.WithLabelValues(checkoutResult(err)).Inc()
		return model.Reservation{}, pricing.Summary{}, err
	}

	metrics.ReservationsTotal.WithLabelValues("ok").Inc()
	metrics.ReservationAmount.Observe(float64(sum.Total))
	log.WithFields(log.Fields{
		"session_id":     sess.ID,
		"reservation_id": created.ID,
		"user_id":        sess.UserID,
		"stalls":         stallIDs(created),
		"total":          sum.Total,
	}).Info("reservation created")

	s.invalidate(ctx, sess.BookFairID)
	s.publish(ctx, sess, created, sum)
	return *created, sum, nil
}

// MarkProcessing moves every held stall of a session to processing.
func (s *Service) MarkProcessing(ctx context.Context, id string) ([]string, error) {
	var moved []string
	_, err := s.Store.Update(ctx, id, func(sess *Session) error {
		moved = sess.Selection.MarkProcessing()
		sess.Processed = append(sess.Processed, moved...)
		return nil
	})
	return moved, err
}

// MarkBooked moves the session's own processing stalls to booked.  An empty
// list means all of them; stalls allocated through other sessions are never
// touched.  Each reservation of the session whose stalls are all booked is
// marked BOOKED as well.
func (s *Service) MarkBooked(ctx context.Context, id string, stalls []string) ([]string, error) {
	var (
		moved []string
		done  []uint64
		fair  string
	)
	_, err := s.Store.Update(ctx, id, func(sess *Session) error {
		candidates := stalls
		if len(candidates) == 0 {
			candidates = sess.Layout.IDs()
		}
		order := make([]string, 0, len(candidates))
		for _, stall := range candidates {
			if sess.Owns(stall) {
				order = append(order, stall)
			}
		}
		moved = sess.Selection.MarkBooked(order)

		statuses := sess.Selection.Statuses()
		done = done[:0]
		for _, c := range sess.Reservations {
			if allBooked(statuses, c.Stalls) {
				done = append(done, c.ReservationID)
			}
		}
		fair = sess.BookFairID
		return nil
	})
	if err != nil {
		return nil, err
	}
	if s.Reservations != nil {
		for _, rid := range done {
			if err := s.Reservations.SetStatus(ctx, rid, model.ReservationBooked); err != nil && !errors.Is(err, repository.ErrReservationNotFound) {
				return moved, err
			}
		}
	}
	if len(moved) > 0 {
		s.invalidate(ctx, fair)
	}
	return moved, nil
}

// ClearHeld releases every held stall of a session.
func (s *Service) ClearHeld(ctx context.Context, id string) ([]string, error) {
	var moved []string
	_, err := s.Store.Update(ctx, id, func(sess *Session) error {
		moved = sess.Selection.ClearHeld()
		return nil
	})
	return moved, err
}

// Release reflects a cancelled reservation in the session it came from:
// its stalls become available again unless another reservation holds them
// by now.  A session that has already expired is ignored.
func (s *Service) Release(ctx context.Context, res model.Reservation) error {
	defer s.invalidate(ctx, res.BookFairID)
	if res.SessionID == "" || s.Reservations == nil {
		return nil
	}
	_, err := s.Store.Update(ctx, res.SessionID, func(sess *Session) error {
		var freed []string
		sess.Reservations = slices.DeleteFunc(sess.Reservations, func(c Checkout) bool {
			if c.ReservationID != res.ID {
				return false
			}
			freed = append(freed, c.Stalls...)
			return true
		})
		alloc, err := s.Reservations.Allocations(ctx, sess.BookFairID)
		if err != nil {
			return err
		}
		sess.Selection, err = applyAllocations(sess.Selection, alloc, freed...)
		return err
	})
	if errors.Is(err, ErrSessionNotFound) {
		return nil
	}
	return err
}

// refresh pulls current allocations into a session after a lost race.
func (s *Service) refresh(ctx context.Context, id string) {
	_, err := s.Store.Update(ctx, id, func(sess *Session) error {
		alloc, err := s.Reservations.Allocations(ctx, sess.BookFairID)
		if err != nil {
			return err
		}
		sess.Selection, err = applyAllocations(sess.Selection, alloc)
		return err
	})
	if err != nil {
		log.WithError(err).WithField("session_id", id).Warn("refresh allocations failed")
	}
}

func (s *Service) invalidate(ctx context.Context, bookFairID string) {
	if s.Invalidate != nil && bookFairID != "" {
		s.Invalidate(ctx, bookFairID)
	}
}

func (s *Service) publish(ctx context.Context, sess *Session, res *model.Reservation, sum pricing.Summary) {
	if s.Events == nil {
		return
	}
	ev := queue.StallReservationConfirmed{
		ReservationID: res.ID,
		UserID:        res.UserID,
		BookFairID:    res.BookFairID,
		SessionID:     sess.ID,
		Stalls:        sum.StallIDs(),
		Subtotal:      sum.Subtotal,
		VAT:           sum.VAT,
		ServiceFee:    sum.ServiceFee,
		Total:         sum.Total,
		ConfirmedAt:   s.now().UTC().Format(time.RFC3339),
	}
	for _, l := range sum.Lines {
		ev.Halls = append(ev.Halls, l.Hall)
	}
	pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := s.Events.PublishReservationConfirmed(pctx, ev); err != nil {
		log.WithError(err).WithField("reservation_id", res.ID).Warn("publish reservation event failed")
	}
}

func newReservation(sess *Session, sum pricing.Summary) *model.Reservation {
	res := &model.Reservation{
		UserID:     sess.UserID,
		BookFairID: sess.BookFairID,
		SessionID:  sess.ID,
		Status:     model.ReservationProcessing,
		Subtotal:   sum.Subtotal,
		VAT:        sum.VAT,
		ServiceFee: sum.ServiceFee,
		Total:      sum.Total,
	}
	for _, l := range sum.Lines {
		res.Stalls = append(res.Stalls, model.ReservationStall{StallID: l.StallID, Size: l.Size, Hall: l.Hall, UnitPrice: l.UnitPrice})
	}
	return res
}

func stallIDs(res *model.Reservation) []string {
	out := make([]string, len(res.Stalls))
	for i, st := range res.Stalls {
		out[i] = st.StallID
	}
	return out
}

// applyAllocations marks stalls held by reservations as processing or
// booked.  A stall the session itself held or staged is dropped from it.
// Released stalls that no reservation holds any more become available.
func applyAllocations(sel *selection.Selection, alloc map[string]string, released ...string) (*selection.Selection, error) {
	if len(alloc) == 0 && len(released) == 0 {
		return sel, nil
	}
	snap := sel.Snapshot()
	for _, stall := range released {
		if _, taken := alloc[stall]; taken {
			continue
		}
		if cur, ok := snap.Statuses[stall]; ok && (cur == selection.Processing || cur == selection.Booked) {
			snap.Statuses[stall] = selection.Available
		}
	}
	for stall, status := range alloc {
		cur, ok := snap.Statuses[stall]
		if !ok || cur == selection.Booked || cur == selection.Processing {
			continue
		}
		if status == model.ReservationBooked {
			snap.Statuses[stall] = selection.Booked
		} else {
			snap.Statuses[stall] = selection.Processing
		}
		snap.Held = slices.DeleteFunc(snap.Held, func(id string) bool { return id == stall })
		if snap.Pending == stall {
			snap.Pending = ""
		}
	}
	return selection.Restore(snap)
}

func allBooked(statuses map[string]selection.Status, stalls []string) bool {
	for _, id := range stalls {
		if statuses[id] != selection.Booked {
			return false
		}
	}
	return len(stalls) > 0
}

func observe(action string, st selection.Status, err error) {
	result := string(st)
	switch {
	case err == nil:
	case errors.Is(err, selection.ErrSelectionLimit):
		result = "limit"
	case errors.Is(err, selection.ErrUnknownStall):
		result = "unknown"
	case errors.Is(err, selection.ErrNotAvailable), errors.Is(err, selection.ErrNothingPending):
		result = "rejected"
	default:
		result = "error"
	}
	metrics.StallToggles.WithLabelValues(action, result).Inc()
}

func checkoutResult(err error) string {
	switch {
	case errors.Is(err, repository.ErrConflict):
		return "conflict"
	case errors.Is(err, pricing.ErrEmptySelection):
		return "empty"
	case errors.Is(err, ErrSessionNotFound):
		return "not_found"
	default:
		return "error"
	}
}
