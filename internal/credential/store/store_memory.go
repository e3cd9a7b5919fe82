package store

import (
	"context"
	"sync"

	"zkkyc/internal/credential/models"
	"zkkyc/internal/sentinel"
	"zkkyc/internal/zk"
	id "zkkyc/pkg/domain"
)

// Error Contract:
// - Find* return sentinel.ErrNotFound when no matching credential exists
// - Save rejects duplicate credential IDs and duplicate commitments
// - Update returns sentinel.ErrNotFound for unknown credential IDs

// InMemoryStore keeps credential records in memory, indexed by ID, subject
// and commitment.
type InMemoryStore struct {
	mu           sync.RWMutex
	byID         map[id.CredentialID]*models.Credential
	bySubject    map[id.SubjectID][]id.CredentialID
	byCommitment map[zk.Commitment]id.CredentialID
}

// New constructs an empty in-memory credential store.
func New() *InMemoryStore {
	return &InMemoryStore{
		byID:         make(map[id.CredentialID]*models.Credential),
		bySubject:    make(map[id.SubjectID][]id.CredentialID),
		byCommitment: make(map[zk.Commitment]id.CredentialID),
	}
}

func (s *InMemoryStore) Save(_ context.Context, credential *models.Credential) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[credential.ID]; ok {
		return sentinel.ErrAlreadyExists
	}
	if _, ok := s.byCommitment[credential.Commitment]; ok {
		return sentinel.ErrAlreadyExists
	}
	copyCred := *credential
	s.byID[credential.ID] = &copyCred
	s.bySubject[credential.SubjectID] = append(s.bySubject[credential.SubjectID], credential.ID)
	s.byCommitment[credential.Commitment] = credential.ID
	return nil
}

func (s *InMemoryStore) Update(_ context.Context, credential *models.Credential) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[credential.ID]; !ok {
		return sentinel.ErrNotFound
	}
	copyCred := *credential
	s.byID[credential.ID] = &copyCred
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, credentialID id.CredentialID) (*models.Credential, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	credential, ok := s.byID[credentialID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	copyCred := *credential
	return &copyCred, nil
}

// FindActiveBySubject returns the subject's current credential. At most one
// credential per subject is active; issuance deactivates the predecessor.
func (s *InMemoryStore) FindActiveBySubject(_ context.Context, subjectID id.SubjectID) (*models.Credential, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, credID := range s.bySubject[subjectID] {
		credential := s.byID[credID]
		if credential != nil && credential.Active {
			copyCred := *credential
			return &copyCred, nil
		}
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemoryStore) FindByCommitment(_ context.Context, commitment zk.Commitment) (*models.Credential, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	credID, ok := s.byCommitment[commitment]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	copyCred := *s.byID[credID]
	return &copyCred, nil
}

func (s *InMemoryStore) ListBySubject(_ context.Context, subjectID id.SubjectID) ([]*models.Credential, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	credIDs := s.bySubject[subjectID]
	out := make([]*models.Credential, 0, len(credIDs))
	for _, credID := range credIDs {
		copyCred := *s.byID[credID]
		out = append(out, &copyCred)
	}
	return out, nil
}
