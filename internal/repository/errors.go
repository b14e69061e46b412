// Package repository contains the MySQL data access layer.  This file
// defines sentinel errors shared by multiple repositories so handlers
// can map failure scenarios to HTTP responses: ErrForbidden becomes a
// 403, ErrConflict a 409, the not-found sentinels a 404.  Seat-state
// errors are not defined here; the reservation package owns that
// taxonomy and the seat store returns it directly.
package repository

import "errors"

// ErrForbidden is returned when the caller attempts an operation on a
// resource they do not own.
var ErrForbidden = errors.New("forbidden")

// ErrConflict is returned when an operation cannot proceed because of
// conflicting state, such as scheduling a show that overlaps another
// show on the same screen.
var ErrConflict = errors.New("conflict")

// ErrMovieNotFound indicates that a movie was not located in the DB.
var ErrMovieNotFound = errors.New("movie not found")

// ErrTheatreNotFound indicates that a theatre was not located in the DB.
var ErrTheatreNotFound = errors.New("theatre not found")

// ErrScreenNotFound indicates that a screen was not located in the DB.
var ErrScreenNotFound = errors.New("screen not found")

// ErrShowNotFound indicates that a show was not located in the DB.
var ErrShowNotFound = errors.New("show not found")

// ErrBookingNotFound indicates that a booking was not located in the DB.
var ErrBookingNotFound = errors.New("booking not found")
