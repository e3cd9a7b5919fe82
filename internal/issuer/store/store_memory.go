package store

import (
	"context"
	"sort"
	"sync"

	"zkkyc/internal/issuer/models"
	"zkkyc/internal/sentinel"
	id "zkkyc/pkg/domain"
)

// Error Contract:
// - Find returns sentinel.ErrNotFound when the issuer is not registered
// - Save overwrites any existing entry for the same issuer ID

// InMemoryStore keeps issuer records in memory.
type InMemoryStore struct {
	mu      sync.RWMutex
	issuers map[id.IssuerID]*models.Issuer
}

// New constructs an empty in-memory issuer store.
func New() *InMemoryStore {
	return &InMemoryStore{issuers: make(map[id.IssuerID]*models.Issuer)}
}

func (s *InMemoryStore) Save(_ context.Context, issuer *models.Issuer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copyIssuer := *issuer
	s.issuers[issuer.ID] = &copyIssuer
	return nil
}

func (s *InMemoryStore) Find(_ context.Context, issuerID id.IssuerID) (*models.Issuer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	issuer, ok := s.issuers[issuerID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	copyIssuer := *issuer
	return &copyIssuer, nil
}

func (s *InMemoryStore) List(_ context.Context) ([]*models.Issuer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Issuer, 0, len(s.issuers))
	for _, issuer := range s.issuers {
		copyIssuer := *issuer
		out = append(out, &copyIssuer)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
