package tokenizer

import "github.com/golang-jwt/jwt/v5"

// AccessClaims combines standard claims with identity-specific ones.
// Subject is the identity id; Address is the identity's wallet address
// at issuance time.
type AccessClaims struct {
	jwt.RegisteredClaims
	Address     string   `json:"address"`
	Permissions []string `json:"permissions,omitempty"`
}
