package model

import (
	"strconv"
	"time"
)

// Booking payment statuses as stored in the bookings.payment_status
// enum column.
const (
	PaymentPending   = "PENDING"
	PaymentConfirmed = "CONFIRMED"
	PaymentCancelled = "CANCELLED"
)

// Booking is the durable record of a completed seat purchase.  It is
// created exactly once, as the terminal output of a successful
// reservation commit, and is immutable afterwards.  MovieID is
// denormalized from the show so that booking listings do not need an
// extra join.  Seats preserves the user's selection order.
//
// Fields:
//  ID            – primary key identifier.
//  UserID        – user who made the purchase.
//  ShowID        – show the seats belong to.
//  MovieID       – movie reference copied from the show at record time.
//  Seats         – the purchased seats with their prices.
//  TotalCents    – total price in cents for all seats.
//  PaymentStatus – PENDING, CONFIRMED or CANCELLED.
//  PaymentMethod – free-form method label supplied by the client.
//  TransactionID – external payment reference; generated when absent.
//  CreatedAt     – creation timestamp (UTC).
type Booking struct {
	ID            uint64        `json:"id"`
	UserID        uint64        `json:"user_id"`
	ShowID        uint64        `json:"show_id"`
	MovieID       uint64        `json:"movie_id"`
	Seats         []BookingSeat `json:"seats"`
	TotalCents    uint32        `json:"total_cents"`
	PaymentStatus string        `json:"payment_status"`
	PaymentMethod string        `json:"payment_method,omitempty"`
	TransactionID string        `json:"transaction_id"`
	CreatedAt     time.Time     `json:"created_at"`
}

// BookingSeat is one purchased seat inside a Booking.  RowLabel and
// SeatNumber together form the seat label (e.g. "A12").
type BookingSeat struct {
	RowLabel   string `json:"row_label"`
	SeatNumber uint32 `json:"seat_number"`
	PriceCents uint32 `json:"price_cents"`
}

// Label returns the composite seat label for this booking seat.
func (s BookingSeat) Label() string {
	return s.RowLabel + strconv.FormatUint(uint64(s.SeatNumber), 10)
}
