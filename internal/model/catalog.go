package model

import "time"

// Movie is a catalog entry shows are scheduled against.
type Movie struct {
	ID          uint64    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	DurationMin uint32    `json:"duration_min"`
	Rating      string    `json:"rating,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Theatre is a physical venue owning one or more screens.
type Theatre struct {
	ID        uint64    `json:"id"`
	Name      string    `json:"name"`
	City      string    `json:"city"`
	Address   string    `json:"address,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Screen is an auditorium inside a theatre.  Rows and Cols define the
// rectangular layout every show on this screen inherits; BasePriceCents
// is the default seat price applied when a show does not override it.
type Screen struct {
	ID             uint64    `json:"id"`
	TheatreID      uint64    `json:"theatre_id"`
	Name           string    `json:"name"`
	Rows           uint32    `json:"rows"`
	Cols           uint32    `json:"cols"`
	BasePriceCents uint32    `json:"base_price_cents"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}
