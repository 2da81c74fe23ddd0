package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/iliyamo/bookfair-stall-reservation/internal/floorplan"
	"github.com/iliyamo/bookfair-stall-reservation/internal/model"
)

// ErrReservationNotFound is returned when a reservation lookup fails.
var ErrReservationNotFound = errors.New("reservation not found")

// ReservationRepo persists checked-out stall selections.  Stall rows carry a
// unique (book_fair_id, stall_id) key, so a stall can only be allocated to
// one live reservation; cancelling a reservation frees its stalls.
type ReservationRepo struct {
	db *sql.DB
}

// NewReservationRepo returns a new ReservationRepo bound to the given database.
func NewReservationRepo(db *sql.DB) *ReservationRepo { return &ReservationRepo{db: db} }

// Create inserts the reservation and its stalls in one transaction and sets
// the generated ID and timestamps on res.  If any stall is already
// allocated the whole reservation is rejected with ErrConflict.
func (r *ReservationRepo) Create(ctx context.Context, res *model.Reservation) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	result, err := tx.ExecContext(ctx,
		`INSERT INTO reservations (user_id, book_fair_id, session_id, status, subtotal, vat, service_fee, total)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		res.UserID, res.BookFairID, res.SessionID, res.Status, res.Subtotal, res.VAT, res.ServiceFee, res.Total)
	if err != nil {
		return err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	res.ID = uint64(id)

	if len(res.Stalls) > 0 {
		query := `INSERT INTO reservation_stalls (reservation_id, book_fair_id, stall_id, size, hall, unit_price) VALUES `
		args := make([]any, 0, len(res.Stalls)*6)
		for i, s := range res.Stalls {
			if i > 0 {
				query += ","
			}
			query += "(?, ?, ?, ?, ?, ?)"
			args = append(args, res.ID, res.BookFairID, s.StallID, string(s.Size), s.Hall, s.UnitPrice)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			if isDuplicate(err) {
				return ErrConflict
			}
			return err
		}
	}

	if err := tx.QueryRowContext(ctx,
		`SELECT created_at, updated_at FROM reservations WHERE id = ?`, res.ID).
		Scan(&res.CreatedAt, &res.UpdatedAt); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

const reservationColumns = `id, user_id, book_fair_id, session_id, status, subtotal, vat, service_fee, total, created_at, updated_at`

// GetByID returns a reservation with its stalls.
func (r *ReservationRepo) GetByID(ctx context.Context, id uint64) (model.Reservation, error) {
	list, err := r.list(ctx, `WHERE id = ?`, id)
	if err != nil {
		return model.Reservation{}, err
	}
	if len(list) == 0 {
		return model.Reservation{}, ErrReservationNotFound
	}
	return list[0], nil
}

// ListByUser returns a publisher's reservations, newest first.
func (r *ReservationRepo) ListByUser(ctx context.Context, userID uint64) ([]model.Reservation, error) {
	return r.list(ctx, `WHERE user_id = ? ORDER BY id DESC`, userID)
}

// ListByBookFair returns every reservation of a book fair, newest first.
func (r *ReservationRepo) ListByBookFair(ctx context.Context, bookFairID string) ([]model.Reservation, error) {
	return r.list(ctx, `WHERE book_fair_id = ? ORDER BY id DESC`, bookFairID)
}

// Allocations maps each allocated stall of a book fair to the status of the
// reservation that holds it.
func (r *ReservationRepo) Allocations(ctx context.Context, bookFairID string) (map[string]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT rs.stall_id, res.status
		 FROM reservation_stalls rs
		 JOIN reservations res ON res.id = rs.reservation_id
		 WHERE rs.book_fair_id = ?`, bookFairID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := map[string]string{}
	for rows.Next() {
		var stall, status string
		if err := rows.Scan(&stall, &status); err != nil {
			return nil, err
		}
		out[stall] = status
	}
	return out, rows.Err()
}

// SetStatus moves a live reservation to PROCESSING or BOOKED.
func (r *ReservationRepo) SetStatus(ctx context.Context, id uint64, status string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE reservations SET status = ? WHERE id = ? AND status <> ?`, status, id, model.ReservationCancelled)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrReservationNotFound
	}
	return nil
}

// Cancel marks a reservation CANCELLED and frees its stalls.  When userID
// is non-nil the reservation must belong to that user, otherwise
// ErrForbidden is returned.
func (r *ReservationRepo) Cancel(ctx context.Context, id uint64, userID *uint64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var owner uint64
	var status string
	err = tx.QueryRowContext(ctx, `SELECT user_id, status FROM reservations WHERE id = ? FOR UPDATE`, id).Scan(&owner, &status)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrReservationNotFound
	}
	if err != nil {
		return err
	}
	if userID != nil && *userID != owner {
		return ErrForbidden
	}
	if status == model.ReservationCancelled {
		return ErrConflict
	}
	if _, err := tx.ExecContext(ctx, `UPDATE reservations SET status = ? WHERE id = ?`, model.ReservationCancelled, id); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM reservation_stalls WHERE reservation_id = ?`, id); err != nil {
		return err
	}
	return tx.Commit()
}

func (r *ReservationRepo) list(ctx context.Context, where string, args ...any) ([]model.Reservation, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+reservationColumns+` FROM reservations `+where, args...)
	if err != nil {
		return nil, err
	}
	var out []model.Reservation
	index := map[uint64]int{}
	for rows.Next() {
		var res model.Reservation
		if err := rows.Scan(&res.ID, &res.UserID, &res.BookFairID, &res.SessionID, &res.Status,
			&res.Subtotal, &res.VAT, &res.ServiceFee, &res.Total, &res.CreatedAt, &res.UpdatedAt); err != nil {
			rows.Close()
			return nil, err
		}
		res.Stalls = []model.ReservationStall{}
		index[res.ID] = len(out)
		out = append(out, res)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return out, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(out)), ",")
	ids := make([]any, len(out))
	for i, res := range out {
		ids[i] = res.ID
	}
	srows, err := r.db.QueryContext(ctx,
		`SELECT reservation_id, stall_id, size, hall, unit_price FROM reservation_stalls
		 WHERE reservation_id IN (`+placeholders+`) ORDER BY id`, ids...)
	if err != nil {
		return nil, err
	}
	defer srows.Close()
	for srows.Next() {
		var (
			resID uint64
			s     model.ReservationStall
			size  string
		)
		if err := srows.Scan(&resID, &s.StallID, &size, &s.Hall, &s.UnitPrice); err != nil {
			return nil, err
		}
		s.Size = floorplan.Size(size)
		i := index[resID]
		out[i].Stalls = append(out[i].Stalls, s)
	}
	return out, srows.Err()
}
