package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"assetledger/internal/ledger/models"
	"assetledger/pkg/domain"
	"assetledger/pkg/platform/sentinel"
)

// InMemoryStore keeps ledger entries per asset plus a global append order.
// Writers only contend on the append position; prior entries are immutable.
type InMemoryStore struct {
	mu      sync.RWMutex
	byAsset map[domain.AssetID][]*models.TransitionRecord
	byID    map[uuid.UUID]*models.TransitionRecord
	order   []*models.TransitionRecord
}

// NewInMemory constructs an empty in-memory ledger store.
func NewInMemory() *InMemoryStore {
	return &InMemoryStore{
		byAsset: make(map[domain.AssetID][]*models.TransitionRecord),
		byID:    make(map[uuid.UUID]*models.TransitionRecord),
	}
}

func (s *InMemoryStore) Append(_ context.Context, rec *models.TransitionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := rec.Clone()
	s.byAsset[cp.AssetID] = append(s.byAsset[cp.AssetID], cp)
	s.byID[cp.ID] = cp
	s.order = append(s.order, cp)
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, id uuid.UUID) (*models.TransitionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if rec, ok := s.byID[id]; ok {
		return rec.Clone(), nil
	}
	return nil, fmt.Errorf("transition record %s: %w", id, sentinel.ErrNotFound)
}

func (s *InMemoryStore) ListByAsset(_ context.Context, assetID domain.AssetID) ([]*models.TransitionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	recs := s.byAsset[assetID]
	out := make([]*models.TransitionRecord, 0, len(recs))
	for _, rec := range recs {
		out = append(out, rec.Clone())
	}
	return out, nil
}

func (s *InMemoryStore) ListAll(_ context.Context) ([]*models.TransitionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.TransitionRecord, 0, len(s.order))
	for _, rec := range s.order {
		out = append(out, rec.Clone())
	}
	return out, nil
}
