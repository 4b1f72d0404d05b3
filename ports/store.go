package ports

import (
	"context"
	"time"

	"github.com/walletgate/walletgate/core"
)

// IdentityStore is the durable identity collaborator. Lookups return
// (nil, nil) when no identity matches; an error means the store itself
// failed.
type IdentityStore interface {
	// FindByWalletAddress matches case-insensitively.
	FindByWalletAddress(ctx context.Context, address string) (*core.Identity, error)

	// FindByAnyOf returns the first identity matching any of the given
	// non-empty fields. Empty fields are not matched against.
	FindByAnyOf(ctx context.Context, walletAddress, email, phone string) (*core.Identity, error)

	// Create persists a new identity. The store enforces the
	// uniqueness invariant at the point of write and returns a
	// *core.DuplicateFieldError when it is violated.
	Create(ctx context.Context, candidate core.Candidate) (*core.Identity, error)

	// GetByID returns the identity for id, or (nil, nil) if missing.
	GetByID(ctx context.Context, id string) (*core.Identity, error)

	// UpdateWalletAddress re-binds an identity to a new wallet
	// address, subject to the same normalization and uniqueness rules
	// as Create.
	UpdateWalletAddress(ctx context.Context, id, address string) (*core.Identity, error)
}

// RevocationStore tracks revoked access-token IDs until their natural
// expiry.
type RevocationStore interface {
	RevokeToken(ctx context.Context, tokenID string, expiry time.Duration) error
	IsTokenRevoked(ctx context.Context, tokenID string) (bool, error)
}
