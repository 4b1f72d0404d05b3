package core

import (
	"errors"
	"fmt"
)

var (
	// ErrSessionNotFound is returned when the referenced real-time
	// session no longer exists at handshake start.
	ErrSessionNotFound = errors.New("session does not exist")

	// ErrMalformedSignature is returned when a signature is not a
	// structurally valid secp256k1 signature.
	ErrMalformedSignature = errors.New("malformed signature")

	// ErrInvalidToken is returned when an access token fails parsing
	// or validation.
	ErrInvalidToken = errors.New("invalid token")

	// ErrTokenExpired is returned when an access token has expired.
	ErrTokenExpired = errors.New("token has expired")

	// ErrTokenRevoked is returned when an access token has been
	// revoked via logout.
	ErrTokenRevoked = errors.New("token has been revoked")

	// ErrIdentityNotFound is returned by store operations that require
	// an existing identity.
	ErrIdentityNotFound = errors.New("identity does not exist")
)

// Duplicate field names reported by the uniqueness guard, in check
// order. The order is part of the contract: phone collisions are
// reported before wallet collisions, wallet before email.
const (
	FieldPhone         = "phone"
	FieldWalletAddress = "wallet_address"
	FieldEmail         = "email"
)

// DuplicateFieldError reports exactly one colliding registration
// field, even when several collide at once.
type DuplicateFieldError struct {
	Field string
	Value string
}

func (e *DuplicateFieldError) Error() string {
	return fmt.Sprintf("%s %q already exists", e.Field, e.Value)
}

// IsDuplicateField reports whether err is a DuplicateFieldError and
// returns it if so.
func IsDuplicateField(err error) (*DuplicateFieldError, bool) {
	var dup *DuplicateFieldError
	if errors.As(err, &dup) {
		return dup, true
	}
	return nil, false
}
