package revocation

import (
	"context"
	"sync"
	"time"

	id "zkkyc/pkg/domain"
)

// Registry is the revocation source of truth. Revoke appends; IsRevoked is
// checked on every validity decision so revocation applies retroactively to
// proofs not yet verified.
type Registry interface {
	Revoke(ctx context.Context, credentialID id.CredentialID, reason string, at time.Time) (*Entry, error)
	IsRevoked(ctx context.Context, credentialID id.CredentialID) (bool, error)
	Find(ctx context.Context, credentialID id.CredentialID) (*Entry, error)
	List(ctx context.Context) ([]*Entry, error)
}

// InMemoryRegistry keeps revocation entries in memory, in append order.
type InMemoryRegistry struct {
	mu      sync.RWMutex
	seq     uint64
	entries []*Entry
	byID    map[id.CredentialID]*Entry
}

func NewInMemoryRegistry() *InMemoryRegistry {
	return &InMemoryRegistry{byID: make(map[id.CredentialID]*Entry)}
}

// Revoke appends an entry for the credential. Revoking an already revoked
// credential returns the existing entry unchanged, keeping the operation
// idempotent without burning sequence numbers.
func (r *InMemoryRegistry) Revoke(_ context.Context, credentialID id.CredentialID, reason string, at time.Time) (*Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.byID[credentialID]; ok {
		copyEntry := *existing
		return &copyEntry, nil
	}

	r.seq++
	entry := &Entry{
		Sequence:     r.seq,
		CredentialID: credentialID,
		Reason:       reason,
		RevokedAt:    at,
	}
	r.entries = append(r.entries, entry)
	r.byID[credentialID] = entry
	copyEntry := *entry
	return &copyEntry, nil
}

func (r *InMemoryRegistry) IsRevoked(_ context.Context, credentialID id.CredentialID) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.byID[credentialID]
	return ok, nil
}

// Find returns the revocation entry for a credential, or nil when the
// credential has not been revoked.
func (r *InMemoryRegistry) Find(_ context.Context, credentialID id.CredentialID) (*Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.byID[credentialID]
	if !ok {
		return nil, nil
	}
	copyEntry := *entry
	return &copyEntry, nil
}

// List returns all entries in append order.
func (r *InMemoryRegistry) List(_ context.Context) ([]*Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Entry, 0, len(r.entries))
	for _, entry := range r.entries {
		copyEntry := *entry
		out = append(out, &copyEntry)
	}
	return out, nil
}
