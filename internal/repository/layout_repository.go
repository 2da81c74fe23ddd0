package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/bookfair-stall-reservation/internal/floorplan"
	"github.com/iliyamo/bookfair-stall-reservation/internal/model"
)

// ErrLayoutNotFound is returned when no layout is stored for a book fair.
var ErrLayoutNotFound = errors.New("layout not found")

// LayoutRepo stores organiser-managed layout counts per book fair.
type LayoutRepo struct {
	db *sql.DB
}

// NewLayoutRepo constructs a LayoutRepo with the given DB handle.
func NewLayoutRepo(db *sql.DB) *LayoutRepo { return &LayoutRepo{db: db} }

// Get returns the stored layout of a book fair.
func (r *LayoutRepo) Get(ctx context.Context, bookFairID string) (model.BookFairLayout, error) {
	const q = `SELECT book_fair_id, top_rows, top_cols, left_rows, left_cols, right_rows, right_cols,
	                  bottom_rows, bottom_cols, inner_ring, outer_ring, updated_by, updated_at
	           FROM bookfair_layouts WHERE book_fair_id = ?`
	var (
		l         model.BookFairLayout
		c         = &l.Counts
		updatedBy sql.NullInt64
	)
	err := r.db.QueryRowContext(ctx, q, bookFairID).Scan(&l.BookFairID,
		&c.TopRows, &c.TopCols, &c.LeftRows, &c.LeftCols, &c.RightRows, &c.RightCols,
		&c.BottomRows, &c.BottomCols, &c.InnerRing, &c.OuterRing, &updatedBy, &l.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.BookFairLayout{}, ErrLayoutNotFound
	}
	if err != nil {
		return model.BookFairLayout{}, err
	}
	if updatedBy.Valid {
		id := uint64(updatedBy.Int64)
		l.UpdatedBy = &id
	}
	return l, nil
}

// Counts satisfies the layout source contract for the database backend.
func (r *LayoutRepo) Counts(ctx context.Context, bookFairID string) (floorplan.Counts, error) {
	l, err := r.Get(ctx, bookFairID)
	if err != nil {
		return floorplan.Counts{}, err
	}
	return l.Counts, nil
}

// Upsert creates or replaces the layout of a book fair.  Counts are stored
// as given; validation belongs to the caller.
func (r *LayoutRepo) Upsert(ctx context.Context, bookFairID string, c floorplan.Counts, updatedBy uint64) error {
	const q = `INSERT INTO bookfair_layouts
	             (book_fair_id, top_rows, top_cols, left_rows, left_cols, right_rows, right_cols,
	              bottom_rows, bottom_cols, inner_ring, outer_ring, updated_by)
	           VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	           ON DUPLICATE KEY UPDATE
	             top_rows = VALUES(top_rows), top_cols = VALUES(top_cols),
	             left_rows = VALUES(left_rows), left_cols = VALUES(left_cols),
	             right_rows = VALUES(right_rows), right_cols = VALUES(right_cols),
	             bottom_rows = VALUES(bottom_rows), bottom_cols = VALUES(bottom_cols),
	             inner_ring = VALUES(inner_ring), outer_ring = VALUES(outer_ring),
	             updated_by = VALUES(updated_by)`
	_, err := r.db.ExecContext(ctx, q, bookFairID,
		c.TopRows, c.TopCols, c.LeftRows, c.LeftCols, c.RightRows, c.RightCols,
		c.BottomRows, c.BottomCols, c.InnerRing, c.OuterRing, updatedBy)
	return err
}
