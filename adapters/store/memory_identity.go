package store

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/walletgate/walletgate/core"
	"github.com/walletgate/walletgate/ports"
)

// MemoryIdentityStore is an in-memory implementation of the identity
// store. The uniqueness invariant is enforced under the write lock, so
// concurrent colliding registrations leave at most one winner.
type MemoryIdentityStore struct {
	mu         sync.RWMutex
	identities map[string]*core.Identity
}

var _ ports.IdentityStore = (*MemoryIdentityStore)(nil)

// NewMemoryIdentityStore creates a new in-memory identity store.
func NewMemoryIdentityStore() *MemoryIdentityStore {
	return &MemoryIdentityStore{
		identities: make(map[string]*core.Identity),
	}
}

// FindByWalletAddress matches case-insensitively against the stored
// (lower-cased) address.
func (s *MemoryIdentityStore) FindByWalletAddress(ctx context.Context, address string) (*core.Identity, error) {
	normalized := core.Candidate{WalletAddress: address}.Normalize().WalletAddress
	if normalized == "" {
		return nil, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, identity := range s.identities {
		if identity.WalletAddress == normalized {
			c := *identity
			return &c, nil
		}
	}
	return nil, nil
}

// FindByAnyOf returns the first identity matching any non-empty field.
func (s *MemoryIdentityStore) FindByAnyOf(ctx context.Context, walletAddress, email, phone string) (*core.Identity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if identity := s.findAnyLocked(walletAddress, email, phone); identity != nil {
		c := *identity
		return &c, nil
	}
	return nil, nil
}

// Create persists a new identity, re-checking uniqueness under the
// write lock.
func (s *MemoryIdentityStore) Create(ctx context.Context, candidate core.Candidate) (*core.Identity, error) {
	candidate = candidate.Normalize()

	s.mu.Lock()
	defer s.mu.Unlock()

	if existing := s.findAnyLocked(candidate.WalletAddress, candidate.Email, candidate.Phone); existing != nil {
		return nil, collisionLocked(existing, candidate)
	}

	identity := &core.Identity{
		ID:            uuid.New().String(),
		WalletAddress: candidate.WalletAddress,
		Email:         candidate.Email,
		Phone:         candidate.Phone,
		IsActive:      true,
		Permissions:   append([]string(nil), candidate.Permissions...),
		CreatedAt:     time.Now(),
	}
	s.identities[identity.ID] = identity

	c := *identity
	return &c, nil
}

// GetByID returns the identity for id, or (nil, nil) if missing.
func (s *MemoryIdentityStore) GetByID(ctx context.Context, id string) (*core.Identity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	identity, ok := s.identities[id]
	if !ok {
		return nil, nil
	}
	c := *identity
	return &c, nil
}

// UpdateWalletAddress re-binds an identity to a new wallet address
// under the same uniqueness rules.
func (s *MemoryIdentityStore) UpdateWalletAddress(ctx context.Context, id, address string) (*core.Identity, error) {
	normalized := core.Candidate{WalletAddress: address}.Normalize().WalletAddress

	s.mu.Lock()
	defer s.mu.Unlock()

	identity, ok := s.identities[id]
	if !ok {
		return nil, core.ErrIdentityNotFound
	}

	if normalized != "" {
		for otherID, other := range s.identities {
			if otherID != id && other.WalletAddress == normalized {
				return nil, &core.DuplicateFieldError{Field: core.FieldWalletAddress, Value: normalized}
			}
		}
	}

	identity.WalletAddress = normalized
	c := *identity
	return &c, nil
}

// SetActive flips the active flag; used to lock and unlock accounts.
func (s *MemoryIdentityStore) SetActive(id string, active bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if identity, ok := s.identities[id]; ok {
		identity.IsActive = active
	}
}

// findAnyLocked matches any non-empty field; caller holds a lock.
func (s *MemoryIdentityStore) findAnyLocked(walletAddress, email, phone string) *core.Identity {
	for _, identity := range s.identities {
		if walletAddress != "" && identity.WalletAddress == walletAddress {
			return identity
		}
		if email != "" && identity.Email == email {
			return identity
		}
		if phone != "" && identity.Phone == phone {
			return identity
		}
	}
	return nil
}

// collisionLocked reports the colliding field in phone, wallet, email
// order, matching the guard's precedence.
func collisionLocked(existing *core.Identity, candidate core.Candidate) error {
	if candidate.Phone != "" && existing.Phone == candidate.Phone {
		return &core.DuplicateFieldError{Field: core.FieldPhone, Value: candidate.Phone}
	}
	if candidate.WalletAddress != "" && existing.WalletAddress == candidate.WalletAddress {
		return &core.DuplicateFieldError{Field: core.FieldWalletAddress, Value: candidate.WalletAddress}
	}
	return &core.DuplicateFieldError{Field: core.FieldEmail, Value: candidate.Email}
}
