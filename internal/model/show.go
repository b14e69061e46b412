package model

import "time"

// Show is one scheduled screening of a movie on a screen.  Its seat
// map is materialized into show_seats rows at creation time so every
// show carries independent seat state.
//
// MovieTitle, TheatreName and ScreenName are joined display fields
// populated by list queries; they are not columns of the shows table.
type Show struct {
	ID          uint64    `json:"id"`
	MovieID     uint64    `json:"movie_id"`
	ScreenID    uint64    `json:"screen_id"`
	StartsAt    time.Time `json:"starts_at"`
	EndsAt      time.Time `json:"ends_at"`
	PriceCents  uint32    `json:"price_cents"`
	MovieTitle  string    `json:"movie_title,omitempty"`
	TheatreName string    `json:"theatre_name,omitempty"`
	ScreenName  string    `json:"screen_name,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
