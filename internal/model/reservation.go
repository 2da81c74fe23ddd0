package model

import (
	"time"

	"github.com/iliyamo/bookfair-stall-reservation/internal/floorplan"
)

// Reservation statuses.  A checkout creates a PROCESSING reservation; an
// organiser marks it BOOKED once the allocation is final.
const (
	ReservationProcessing = "PROCESSING"
	ReservationBooked     = "BOOKED"
	ReservationCancelled  = "CANCELLED"
)

// Reservation records the stalls a publisher checked out in one browsing
// session, together with the priced summary at checkout time.
//
// Fields:
//  ID         – primary key identifier.
//  UserID     – publisher who checked out.
//  BookFairID – book fair the stalls belong to.
//  SessionID  – browsing session the selection came from.
//  Status     – PROCESSING, BOOKED or CANCELLED.
//  Subtotal, VAT, ServiceFee, Total – whole currency units.
type Reservation struct {
	ID         uint64             `json:"id"`
	UserID     uint64             `json:"user_id"`
	BookFairID string             `json:"book_fair_id"`
	SessionID  string             `json:"session_id"`
	Status     string             `json:"status"`
	Subtotal   int64              `json:"subtotal"`
	VAT        int64              `json:"vat"`
	ServiceFee int64              `json:"service_fee"`
	Total      int64              `json:"total"`
	Stalls     []ReservationStall `json:"stalls"`
	CreatedAt  time.Time          `json:"created_at"`
	UpdatedAt  time.Time          `json:"updated_at"`
}

// ReservationStall is one allocated stall of a reservation.  A stall can be
// allocated at most once per book fair.
type ReservationStall struct {
	StallID   string         `json:"stall_id"`
	Size      floorplan.Size `json:"size"`
	Hall      string         `json:"hall"`
	UnitPrice int64          `json:"unit_price"`
}

// BookFairLayout is the organiser-managed layout configuration of a book
// fair, stored in `bookfair_layouts`.
type BookFairLayout struct {
	BookFairID string           `json:"book_fair_id"`
	Counts     floorplan.Counts `json:"counts"`
	UpdatedBy  *uint64          `json:"updated_by,omitempty"`
	UpdatedAt  time.Time        `json:"updated_at"`
}
