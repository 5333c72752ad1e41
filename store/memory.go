package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/context-protocol/sdk"
	"github.com/context-protocol/sdk/identity"
)

// MemoryStore is an in-process Store for tests and single-process use.
// Snapshots are deep-copied through JSON on the way in and out, so a
// caller mutating a snapshot after SaveNode cannot corrupt the stored
// copy.
type MemoryStore struct {
	mu    sync.RWMutex
	nodes map[identity.Identity][]byte
	order []identity.Identity
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{nodes: make(map[identity.Identity][]byte)}
}

// SaveNode stores the snapshot under its address.
func (s *MemoryStore) SaveNode(_ context.Context, snap *NodeSnapshot) error {
	if snap == nil || snap.Addr == "" {
		return sdk.NewValidationError("store.SaveNode", fmt.Errorf("snapshot with address is required"))
	}
	raw, err := json.Marshal(snap)
	if err != nil {
		return sdk.NewInternalError("store.SaveNode", err)
	}

	addr := identity.Identity(snap.Addr)
	s.mu.Lock()
	if _, exists := s.nodes[addr]; !exists {
		s.order = append(s.order, addr)
	}
	s.nodes[addr] = raw
	s.mu.Unlock()
	return nil
}

// LoadNode returns the snapshot stored under addr.
func (s *MemoryStore) LoadNode(_ context.Context, addr identity.Identity) (*NodeSnapshot, error) {
	s.mu.RLock()
	raw, ok := s.nodes[addr]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("node %s: %w", addr, sdk.ErrNotFound)
	}
	var snap NodeSnapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return nil, sdk.NewInternalError("store.LoadNode", err)
	}
	return &snap, nil
}

// ListNodes returns the stored addresses in first-save order.
func (s *MemoryStore) ListNodes(_ context.Context) ([]identity.Identity, error) {
	s.mu.RLock()
	out := make([]identity.Identity, len(s.order))
	copy(out, s.order)
	s.mu.RUnlock()
	return out, nil
}

// Close releases the store's contents.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	s.nodes = make(map[identity.Identity][]byte)
	s.order = nil
	s.mu.Unlock()
	return nil
}
