package repository

import (
	"context"
	"sync"
	"time"
)

// RevocationRegistry is the set of revoked token identifiers.  Membership is
// permanent: a revoked jti invalidates every token bearing it regardless of
// signature or expiry.  Revoke is idempotent.  expiresAt is the token's own
// expiry; backends may use it for bookkeeping but never to drop an entry early.
type RevocationRegistry interface {
	Revoke(ctx context.Context, jti string, expiresAt time.Time) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// MemoryRevocations keeps the revoked set in process memory.  Entries live
// until the process exits.  A completed Revoke is visible to every
// IsRevoked call that starts after it.
type MemoryRevocations struct {
	mu  sync.RWMutex
	set map[string]struct{}
}

func NewMemoryRevocations() *MemoryRevocations {
	return &MemoryRevocations{set: make(map[string]struct{})}
}

func (m *MemoryRevocations) Revoke(_ context.Context, jti string, _ time.Time) error {
	m.mu.Lock()
	m.set[jti] = struct{}{}
	m.mu.Unlock()
	return nil
}

func (m *MemoryRevocations) IsRevoked(_ context.Context, jti string) (bool, error) {
	m.mu.RLock()
	_, ok := m.set[jti]
	m.mu.RUnlock()
	return ok, nil
}

// Len reports how many distinct jtis are revoked.
func (m *MemoryRevocations) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.set)
}
