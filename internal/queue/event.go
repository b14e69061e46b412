// Package queue defines the message payloads exchanged over RabbitMQ
// and the background consumer for booking confirmations.
package queue

// BookingConfirmedEvent is published after a reservation commit
// succeeds.  It carries enough context for downstream consumers
// (notifications, analytics) to act without querying the database.
type BookingConfirmedEvent struct {
	BookingID     uint64   `json:"booking_id"`
	UserID        uint64   `json:"user_id"`
	ShowID        uint64   `json:"show_id"`
	MovieTitle    string   `json:"movie_title"`
	TheatreName   string   `json:"theatre_name"`
	ScreenName    string   `json:"screen_name"`
	StartsAt      string   `json:"starts_at"`
	SeatLabels    []string `json:"seats"`
	TotalCents    uint32   `json:"total_cents"`
	TransactionID string   `json:"transaction_id"`
	ConfirmedAt   string   `json:"confirmed_at"`
}
