// Package config loads application configuration from environment
// variables.  Required variables halt startup when missing; optional
// tuning knobs fall back to sensible defaults.
package config

import (
	"log"
	"os"
	"strconv"
)

// Config holds all runtime configuration.  Each field maps to one
// environment variable; see Load for the names.
type Config struct {
	Env       string // application environment (dev/test/prod)
	Port      string // HTTP port to listen on
	DBUser    string // database username
	DBPass    string // database password (optional)
	DBHost    string // database host address
	DBPort    string // database port number
	DBName    string // database name
	JWTSecret string // secret used to sign JWTs

	AccessTTLMin   int // access token lifetime in minutes
	RefreshTTLDays int // refresh token lifetime in days
	BcryptCost     int // bcrypt cost for password hashing

	HoldTTLSeconds       int // seat hold lifetime before reclaim
	MaxSeatsPerBooking   int // upper bound on seats per reservation
	SweepIntervalSeconds int // period of the expiry/reconcile sweeper
}

// Load reads configuration from the environment.  Auth and database
// settings are required; the reservation knobs default to a five
// minute hold, five seats per booking and a 30 second sweep.
func Load() Config {
	return Config{
		Env:       must("APP_ENV"),
		Port:      must("APP_PORT"),
		DBUser:    must("DB_USER"),
		DBPass:    os.Getenv("DB_PASS"),
		DBHost:    must("DB_HOST"),
		DBPort:    must("DB_PORT"),
		DBName:    must("DB_NAME"),
		JWTSecret: must("JWT_SECRET"),

		AccessTTLMin:   mustInt("ACCESS_TOKEN_TTL_MIN"),
		RefreshTTLDays: mustInt("REFRESH_TOKEN_TTL_DAYS"),
		BcryptCost:     mustInt("BCRYPT_COST"),

		HoldTTLSeconds:       envInt("HOLD_TTL_SECONDS", 300),
		MaxSeatsPerBooking:   envInt("MAX_SEATS_PER_BOOKING", 5),
		SweepIntervalSeconds: envInt("SWEEP_INTERVAL_SECONDS", 30),
	}
}

// must retrieves a required environment variable or exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}

// mustInt is must() plus integer conversion.
func mustInt(key string) int {
	s := must(key)
	n, err := strconv.Atoi(s)
	if err != nil {
		log.Fatalf("invalid int for %s: %q", key, s)
	}
	return n
}
