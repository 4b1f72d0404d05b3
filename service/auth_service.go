package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/walletgate/walletgate/core"
	"github.com/walletgate/walletgate/internal/eth"
	"github.com/walletgate/walletgate/ports"
)

// LoginOutcome is the terminal state of a wallet handshake. Outcomes
// are decisions, not errors: every outcome is delivered to the session
// exactly once regardless of polarity.
type LoginOutcome int

const (
	AccessGranted LoginOutcome = iota
	Unauthorized
	AccountLocked
)

// LoginRequest is the inbound handshake request.
type LoginRequest struct {
	SessionID       string
	Signature       string
	EncryptedWallet string
}

// LoginResult is what the handshake caller receives. AccessToken is
// set only on AccessGranted; Address is the recovered signer address
// in checksum casing.
type LoginResult struct {
	Outcome     LoginOutcome
	Address     string
	AccessToken string
	Message     string
}

// AuthService orchestrates the wallet handshake: it pulls the
// session's challenge, recovers the signer, applies the status policy,
// issues a token on success, and notifies the session of the outcome.
type AuthService struct {
	registry   ports.SessionRegistry
	identities ports.IdentityStore
	issuer     ports.TokenIssuer
	revocation ports.RevocationStore
	events     ports.EventPublisher
	logger     *slog.Logger

	handshakes keyedMutex
}

// NewAuthService creates a new authentication service.
func NewAuthService(
	registry ports.SessionRegistry,
	identities ports.IdentityStore,
	issuer ports.TokenIssuer,
	revocation ports.RevocationStore,
	events ports.EventPublisher,
	logger *slog.Logger,
) *AuthService {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthService{
		registry:   registry,
		identities: identities,
		issuer:     issuer,
		revocation: revocation,
		events:     events,
		logger:     logger,
	}
}

// NewChallenge generates an unpredictable challenge for a new session.
func NewChallenge() (string, error) {
	nonce := make([]byte, 32)
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("failed to generate challenge: %w", err)
	}
	return hex.EncodeToString(nonce), nil
}

// NewSessionID assigns an id for a new live connection.
func NewSessionID() string {
	return uuid.New().String()
}

// LoginWallet runs the handshake for one (sessionId, signature) pair.
//
// It fails with core.ErrSessionNotFound when the session is gone (no
// push is possible) and core.ErrMalformedSignature when the signature
// is structurally invalid (protocol fault, no push). Every other path
// is a decision: exactly one message is pushed to the session and a
// LoginResult is returned. A second signature for the same session
// waits until the in-flight handshake terminates.
func (s *AuthService) LoginWallet(ctx context.Context, req LoginRequest) (*LoginResult, error) {
	unlock := s.handshakes.lock(req.SessionID)
	defer unlock()

	session, ok := s.registry.Get(req.SessionID)
	if !ok {
		return nil, core.ErrSessionNotFound
	}

	address, err := eth.RecoverPersonal(session.Challenge, req.Signature)
	if err != nil {
		return nil, err
	}

	identity, err := s.identities.FindByWalletAddress(ctx, strings.ToLower(address.Hex()))
	if err != nil {
		return nil, fmt.Errorf("identity lookup failed: %w", err)
	}

	// Locked takes priority over unknown: an existing inactive account
	// must never be reported as unregistered.
	if identity != nil && !identity.IsActive {
		s.registry.Push(req.SessionID, core.ServerMessage{Action: core.ActionAccountLocked})
		return &LoginResult{
			Outcome: AccountLocked,
			Address: address.Hex(),
			Message: "Your account is locked, please contact an administrator.",
		}, nil
	}

	if identity == nil {
		s.registry.Push(req.SessionID, core.ServerMessage{
			Action:  core.ActionUnauthorized,
			Address: address.Hex(),
		})
		return &LoginResult{
			Outcome: Unauthorized,
			Address: address.Hex(),
			Message: "You are not authorized to use this service.",
		}, nil
	}

	issued, err := s.issuer.Issue(ctx, identity)
	if err != nil {
		return nil, fmt.Errorf("failed to issue access token: %w", err)
	}

	msg := core.ServerMessage{
		Action:      core.ActionAccessGranted,
		AccessToken: issued.AccessToken,
	}
	if req.EncryptedWallet != "" {
		// Client-opaque blob echoed back verbatim, never inspected.
		msg.EncryptedWallet = req.EncryptedWallet
	}
	s.registry.Push(req.SessionID, msg)

	if err := s.events.PublishLogin(ctx, identity.ID, identity.WalletAddress); err != nil {
		s.logger.Warn("failed to publish login event",
			"identity_id", identity.ID, "error", err)
	}

	return &LoginResult{
		Outcome:     AccessGranted,
		Address:     address.Hex(),
		AccessToken: issued.AccessToken,
		Message:     "You have successfully logged in.",
	}, nil
}

// ValidateAccessToken parses an access token, checks revocation, and
// returns the active identity it is bound to.
func (s *AuthService) ValidateAccessToken(ctx context.Context, tokenStr string) (*core.Identity, *ports.TokenClaims, error) {
	claims, err := s.issuer.Parse(ctx, tokenStr)
	if err != nil {
		return nil, nil, err
	}

	revoked, err := s.revocation.IsTokenRevoked(ctx, claims.TokenID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to check token revocation: %w", err)
	}
	if revoked {
		return nil, nil, core.ErrTokenRevoked
	}

	identity, err := s.identities.GetByID(ctx, claims.IdentityID)
	if err != nil {
		return nil, nil, fmt.Errorf("identity lookup failed: %w", err)
	}
	if identity == nil || !identity.IsActive {
		return nil, nil, core.ErrInvalidToken
	}

	return identity, claims, nil
}

// Logout revokes an access token for its remaining lifetime. Expired
// tokens are revoked for a minimum hour to absorb clock skew.
func (s *AuthService) Logout(ctx context.Context, tokenStr string) error {
	claims, err := s.issuer.Parse(ctx, tokenStr)
	if err != nil {
		return err
	}

	remaining := time.Until(claims.ExpiresAt)
	if remaining < time.Hour {
		remaining = time.Hour
	}

	if err := s.revocation.RevokeToken(ctx, claims.TokenID, remaining); err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}

	if err := s.events.PublishLogout(ctx, claims.IdentityID, claims.TokenID); err != nil {
		s.logger.Warn("failed to publish logout event",
			"identity_id", claims.IdentityID, "error", err)
	}

	return nil
}
