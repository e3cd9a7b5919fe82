// Package nullifier tracks consumed proof nullifiers.
package nullifier

import (
	"context"
	"sync"
	"time"

	"zkkyc/internal/zk"
	id "zkkyc/pkg/domain"
)

// Entry marks a nullifier as consumed. Entries are write-once: the first
// verifier to commit a nullifier owns it forever.
type Entry struct {
	Nullifier  zk.Nullifier  `json:"nullifier"`
	ConsumedAt time.Time     `json:"consumed_at"`
	VerifierID id.VerifierID `json:"verifier_id"`
}

// Ledger is the single source of truth for replay state. PutIfAbsent is the
// only write path and must be atomic: under concurrent submission of the same
// nullifier exactly one caller gets inserted=true.
type Ledger interface {
	PutIfAbsent(ctx context.Context, entry Entry) (inserted bool, existing *Entry, err error)
	Has(ctx context.Context, n zk.Nullifier) (bool, error)
	Get(ctx context.Context, n zk.Nullifier) (*Entry, error)
}

// InMemoryLedger implements Ledger with a mutex-guarded map.
type InMemoryLedger struct {
	mu      sync.RWMutex
	entries map[zk.Nullifier]*Entry
}

func NewInMemoryLedger() *InMemoryLedger {
	return &InMemoryLedger{entries: make(map[zk.Nullifier]*Entry)}
}

func (l *InMemoryLedger) PutIfAbsent(_ context.Context, entry Entry) (bool, *Entry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if existing, ok := l.entries[entry.Nullifier]; ok {
		copyEntry := *existing
		return false, &copyEntry, nil
	}
	copyEntry := entry
	l.entries[entry.Nullifier] = &copyEntry
	return true, nil, nil
}

func (l *InMemoryLedger) Has(_ context.Context, n zk.Nullifier) (bool, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	_, ok := l.entries[n]
	return ok, nil
}

// Get returns the consumption entry, or nil when the nullifier is unseen.
func (l *InMemoryLedger) Get(_ context.Context, n zk.Nullifier) (*Entry, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	entry, ok := l.entries[n]
	if !ok {
		return nil, nil
	}
	copyEntry := *entry
	return &copyEntry, nil
}
