package store

import (
	"context"
	"sync"
	"time"

	"github.com/walletgate/walletgate/ports"
)

// MemoryRevocationStore is an in-memory implementation of the
// revocation store.
type MemoryRevocationStore struct {
	revokedTokens map[string]time.Time
	mu            sync.RWMutex
}

var _ ports.RevocationStore = (*MemoryRevocationStore)(nil)

// NewMemoryRevocationStore creates a new in-memory revocation store.
func NewMemoryRevocationStore() *MemoryRevocationStore {
	return &MemoryRevocationStore{
		revokedTokens: make(map[string]time.Time),
	}
}

// RevokeToken marks a token id as revoked until expiry elapses.
func (s *MemoryRevocationStore) RevokeToken(ctx context.Context, tokenID string, expiry time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	expiryTime := time.Now().Add(expiry)
	s.revokedTokens[tokenID] = expiryTime

	// Drop the entry once it can no longer matter.
	go func() {
		time.Sleep(expiry)

		s.mu.Lock()
		defer s.mu.Unlock()

		// Only delete if the expiry time hasn't changed
		if storedExpiry, exists := s.revokedTokens[tokenID]; exists && !storedExpiry.After(expiryTime) {
			delete(s.revokedTokens, tokenID)
		}
	}()

	return nil
}

// IsTokenRevoked checks whether a token id is currently revoked.
func (s *MemoryRevocationStore) IsTokenRevoked(ctx context.Context, tokenID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	expiryTime, exists := s.revokedTokens[tokenID]
	if !exists {
		return false, nil
	}

	if time.Now().After(expiryTime) {
		return false, nil
	}

	return true, nil
}
