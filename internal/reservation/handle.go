package reservation

import (
	"crypto/rand"
	"encoding/hex"
	"time"
)

// Handle identifies one in-flight reservation attempt: the show, the
// holding user, the seats claimed and the opaque token returned to the
// client for correlation.  A Handle is never persisted on its own; it
// is rebuilt from the live holds when the client comes back to commit
// or release (see Engine.Resume).
type Handle struct {
	ShowID     uint64    `json:"show_id"`
	UserID     uint64    `json:"user_id"`
	Token      string    `json:"hold_token"`
	Labels     []string  `json:"seat_labels"`
	TotalCents uint32    `json:"total_cents"`
	ExpiresAt  time.Time `json:"expires_at"`
}

// newHoldToken returns a 64 character hex token from 32 bytes of
// cryptographically secure random data.
func newHoldToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
