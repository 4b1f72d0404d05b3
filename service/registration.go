package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/walletgate/walletgate/core"
	"github.com/walletgate/walletgate/ports"
)

// RegistrationService enforces the one-identity-per-(wallet, phone,
// email) invariant during registration.
type RegistrationService struct {
	identities ports.IdentityStore
	events     ports.EventPublisher
	logger     *slog.Logger
}

// NewRegistrationService creates a new registration service.
func NewRegistrationService(identities ports.IdentityStore, events ports.EventPublisher, logger *slog.Logger) *RegistrationService {
	if logger == nil {
		logger = slog.Default()
	}
	return &RegistrationService{
		identities: identities,
		events:     events,
		logger:     logger,
	}
}

// CheckUnique verifies that no existing identity shares any of the
// candidate's non-empty identifying fields. On collision it fails with
// a *core.DuplicateFieldError naming exactly one field, checked in
// phone, wallet_address, email order so the reported field is
// deterministic. Empty fields never collide.
//
// This is an advisory pre-check for a friendly error: the store
// re-validates uniqueness at the point of write, which is what holds
// the invariant under concurrent registrations.
func (s *RegistrationService) CheckUnique(ctx context.Context, candidate core.Candidate) error {
	candidate = candidate.Normalize()

	existing, err := s.identities.FindByAnyOf(ctx, candidate.WalletAddress, candidate.Email, candidate.Phone)
	if err != nil {
		return fmt.Errorf("uniqueness lookup failed: %w", err)
	}
	if existing == nil {
		return nil
	}

	return duplicateField(existing, candidate)
}

// Register runs the uniqueness pre-check and creates the identity with
// the same normalized values. The store's own uniqueness enforcement
// backs up the pre-check, so a race between two colliding registrations
// still leaves at most one winner.
func (s *RegistrationService) Register(ctx context.Context, candidate core.Candidate) (*core.Identity, error) {
	candidate = candidate.Normalize()

	if err := s.CheckUnique(ctx, candidate); err != nil {
		return nil, err
	}

	identity, err := s.identities.Create(ctx, candidate)
	if err != nil {
		return nil, err
	}

	if err := s.events.PublishIdentityCreated(ctx, identity.ID, identity.WalletAddress); err != nil {
		s.logger.Warn("failed to publish identity created event",
			"identity_id", identity.ID, "error", err)
	}

	return identity, nil
}

// SetWalletAddress re-binds an identity to a new wallet address. The
// address is normalized the same way as at registration; the store
// enforces uniqueness at the write.
func (s *RegistrationService) SetWalletAddress(ctx context.Context, identityID, address string) (*core.Identity, error) {
	return s.identities.UpdateWalletAddress(ctx, identityID, address)
}

// duplicateField reports the first colliding non-empty field between
// an existing identity and a normalized candidate.
func duplicateField(existing *core.Identity, candidate core.Candidate) error {
	if candidate.Phone != "" && existing.Phone == candidate.Phone {
		return &core.DuplicateFieldError{Field: core.FieldPhone, Value: candidate.Phone}
	}
	if candidate.WalletAddress != "" && strings.EqualFold(existing.WalletAddress, candidate.WalletAddress) {
		return &core.DuplicateFieldError{Field: core.FieldWalletAddress, Value: candidate.WalletAddress}
	}
	if candidate.Email != "" && existing.Email == candidate.Email {
		return &core.DuplicateFieldError{Field: core.FieldEmail, Value: candidate.Email}
	}
	// FindByAnyOf matched on a field the candidate left empty, which
	// it must not do; treat it as a store fault rather than a decision.
	return fmt.Errorf("identity %s matched candidate on no comparable field", existing.ID)
}
