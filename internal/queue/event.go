// Package queue carries reservation events over RabbitMQ: the payloads, the
// publisher used at checkout and the background consumer that writes the
// reservation log.
package queue

// ReservationQueue is the durable queue checkout events are published to.
const ReservationQueue = "stall.reservation.confirmed"

// StallReservationConfirmed is published after a checkout persisted a
// reservation.  It carries enough for downstream consumers to log or notify
// without querying the database.
type StallReservationConfirmed struct {
	ReservationID uint64   `json:"reservation_id"`
	UserID        uint64   `json:"user_id"`
	BookFairID    string   `json:"book_fair_id"`
	SessionID     string   `json:"session_id"`
	Stalls        []string `json:"stalls"`
	Halls         []string `json:"halls"`
	Subtotal      int64    `json:"subtotal"`
	VAT           int64    `json:"vat"`
	ServiceFee    int64    `json:"service_fee"`
	Total         int64    `json:"total"`
	ConfirmedAt   string   `json:"confirmed_at"`
}
