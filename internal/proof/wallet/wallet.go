// Package wallet holds subject proving secrets for the delegated prover.
//
// The credential store deliberately never persists raw attributes or
// blinding factors. A subject who delegates proof generation to this
// service deposits them here instead; the wallet is the only place they
// exist server-side and nothing in it is ever exposed over the API.
package wallet

import (
	"context"
	"sync"

	"zkkyc/internal/sentinel"
	"zkkyc/internal/zk"
	id "zkkyc/pkg/domain"
)

// Secrets is the subject's proving material for one credential.
type Secrets struct {
	Attributes zk.AttributeSet
	Blinding   zk.Blinding
	Commitment zk.Commitment
}

// Store persists proving secrets keyed by subject.
// Error Contract:
// - Get returns sentinel.ErrNotFound when the subject has no secrets
type Store interface {
	Put(ctx context.Context, subjectID id.SubjectID, secrets Secrets) error
	Get(ctx context.Context, subjectID id.SubjectID) (*Secrets, error)
	Delete(ctx context.Context, subjectID id.SubjectID) error
}

// InMemoryStore keeps secrets in process memory only.
type InMemoryStore struct {
	mu      sync.RWMutex
	secrets map[id.SubjectID]Secrets
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{secrets: make(map[id.SubjectID]Secrets)}
}

// Put replaces the subject's secrets. Reissuance overwrites: the old
// blinding factor is useless once its credential is superseded.
func (s *InMemoryStore) Put(_ context.Context, subjectID id.SubjectID, secrets Secrets) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.secrets[subjectID] = secrets
	return nil
}

func (s *InMemoryStore) Get(_ context.Context, subjectID id.SubjectID) (*Secrets, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	secrets, ok := s.secrets[subjectID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &secrets, nil
}

func (s *InMemoryStore) Delete(_ context.Context, subjectID id.SubjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.secrets, subjectID)
	return nil
}
