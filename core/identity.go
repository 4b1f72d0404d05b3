package core

import (
	"strings"
	"time"
)

// Identity is a registered account keyed by its wallet address.
type Identity struct {
	ID            string    // Opaque primary key
	WalletAddress string    // Stored lower-cased; unique among non-empty values
	Email         string    // Unique among non-empty values; "" means unset
	Phone         string    // Unique among non-empty values; "" means unset
	IsActive      bool      // Inactive identities cannot authenticate
	Permissions   []string  // Opaque to this service; echoed into issued tokens
	CreatedAt     time.Time // When the identity was registered
}

// Candidate carries the identifying fields of a registration attempt.
type Candidate struct {
	WalletAddress string
	Email         string
	Phone         string
	Permissions   []string
}

// Normalize lower-cases the wallet address and trims surrounding
// whitespace from all identifying fields. Stored identities and
// uniqueness checks must both operate on normalized values.
func (c Candidate) Normalize() Candidate {
	c.WalletAddress = strings.ToLower(strings.TrimSpace(c.WalletAddress))
	c.Email = strings.TrimSpace(c.Email)
	c.Phone = strings.TrimSpace(c.Phone)
	return c
}
