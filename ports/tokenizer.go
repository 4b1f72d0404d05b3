package ports

import (
	"context"
	"time"

	"github.com/walletgate/walletgate/core"
)

// IssuedToken is the result of a successful token issuance. The access
// token is opaque to callers; permissions are the identity's effective
// set at issuance time.
type IssuedToken struct {
	AccessToken string
	Permissions []string
	ExpiresAt   time.Time
}

// TokenClaims is what a parsed access token reveals about its holder.
type TokenClaims struct {
	TokenID     string
	IdentityID  string
	Address     string
	Permissions []string
	ExpiresAt   time.Time
}

// TokenIssuer mints and parses bearer access tokens bound to an
// identity.
type TokenIssuer interface {
	// Issue produces an access token for a verified identity.
	Issue(ctx context.Context, identity *core.Identity) (*IssuedToken, error)

	// Parse validates tokenStr and returns its claims. Fails with
	// core.ErrInvalidToken or core.ErrTokenExpired.
	Parse(ctx context.Context, tokenStr string) (*TokenClaims, error)
}
