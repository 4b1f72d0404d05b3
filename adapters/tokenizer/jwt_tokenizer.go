package tokenizer

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/walletgate/walletgate/core"
	"github.com/walletgate/walletgate/ports"
)

// AudienceAccess marks tokens minted for session access.
const AudienceAccess = "session:access"

// DefaultAccessExpiry is the access token lifetime when none is
// configured.
const DefaultAccessExpiry = 5 * time.Minute

// JWTTokenizer implements the TokenIssuer interface using ES256 JWTs.
// The token is opaque to the rest of the service; only this adapter
// knows its structure.
type JWTTokenizer struct {
	signKey   *ecdsa.PrivateKey
	accessTTL time.Duration
}

var _ ports.TokenIssuer = (*JWTTokenizer)(nil)

// NewJWTTokenizer creates a new JWT tokenizer. A non-positive
// accessTTL falls back to DefaultAccessExpiry.
func NewJWTTokenizer(signKey *ecdsa.PrivateKey, accessTTL time.Duration) *JWTTokenizer {
	if accessTTL <= 0 {
		accessTTL = DefaultAccessExpiry
	}
	return &JWTTokenizer{signKey: signKey, accessTTL: accessTTL}
}

// Issue mints an access token bound to the identity.
func (j *JWTTokenizer) Issue(ctx context.Context, identity *core.Identity) (*ports.IssuedToken, error) {
	now := time.Now()
	expiresAt := now.Add(j.accessTTL)

	claims := AccessClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identity.ID,
			ID:        uuid.New().String(),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			Audience:  jwt.ClaimStrings{AudienceAccess},
		},
		Address:     identity.WalletAddress,
		Permissions: identity.Permissions,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodES256, claims)

	signedToken, err := token.SignedString(j.signKey)
	if err != nil {
		return nil, fmt.Errorf("failed to sign access token: %w", err)
	}

	return &ports.IssuedToken{
		AccessToken: signedToken,
		Permissions: claims.Permissions,
		ExpiresAt:   expiresAt,
	}, nil
}

// Parse validates an access token string and returns its claims.
func (j *JWTTokenizer) Parse(ctx context.Context, tokenStr string) (*ports.TokenClaims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &AccessClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodECDSA); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return &j.signKey.PublicKey, nil
	}, jwt.WithAudience(AudienceAccess))

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, core.ErrTokenExpired
		}
		return nil, core.ErrInvalidToken
	}

	if !token.Valid {
		return nil, core.ErrInvalidToken
	}

	claims, ok := token.Claims.(*AccessClaims)
	if !ok {
		return nil, core.ErrInvalidToken
	}

	return &ports.TokenClaims{
		TokenID:     claims.ID,
		IdentityID:  claims.Subject,
		Address:     claims.Address,
		Permissions: claims.Permissions,
		ExpiresAt:   claims.ExpiresAt.Time,
	}, nil
}
