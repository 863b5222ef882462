package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"assetledger/internal/asset/models"
	"assetledger/pkg/domain"
	"assetledger/pkg/platform/sentinel"
)

// InMemoryStore keeps asset snapshots in a map. It favors clarity over
// performance and hands out clones so callers never alias store state.
type InMemoryStore struct {
	mu     sync.RWMutex
	assets map[domain.AssetID]*models.Asset
}

// NewInMemory constructs an empty in-memory asset store.
func NewInMemory() *InMemoryStore {
	return &InMemoryStore{assets: make(map[domain.AssetID]*models.Asset)}
}

func (s *InMemoryStore) Create(_ context.Context, a *models.Asset) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.assets[a.ID]; ok {
		return fmt.Errorf("asset %s already exists: %w", a.ID, sentinel.ErrConflict)
	}
	s.assets[a.ID] = a.Clone()
	return nil
}

func (s *InMemoryStore) Get(_ context.Context, id domain.AssetID) (*models.Asset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if a, ok := s.assets[id]; ok {
		return a.Clone(), nil
	}
	return nil, fmt.Errorf("asset %s: %w", id, sentinel.ErrNotFound)
}

func (s *InMemoryStore) Put(_ context.Context, a *models.Asset) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.assets[a.ID]; !ok {
		return fmt.Errorf("asset %s: %w", a.ID, sentinel.ErrNotFound)
	}
	s.assets[a.ID] = a.Clone()
	return nil
}

func (s *InMemoryStore) Query(_ context.Context, f Filter) ([]*models.Asset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*models.Asset
	if len(f.IDs) > 0 {
		for _, id := range f.IDs {
			if a, ok := s.assets[id]; ok && matches(a, f) {
				out = append(out, a.Clone())
			}
		}
	} else {
		for _, a := range s.assets {
			if matches(a, f) {
				out = append(out, a.Clone())
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// LockForUpdate is a no-op: in-memory commits run under the lifecycle
// service's transaction mutex, which already serializes writers.
func (s *InMemoryStore) LockForUpdate(_ context.Context, _ []domain.AssetID) error {
	return nil
}

func matches(a *models.Asset, f Filter) bool {
	if f.CategoryCode != "" && a.CategoryCode != f.CategoryCode {
		return false
	}
	if f.Condition != "" && a.Condition != f.Condition {
		return false
	}
	if f.Stage != "" && a.Stage != f.Stage {
		return false
	}
	if !f.IntakeFrom.IsZero() && a.IntakeAt.Before(f.IntakeFrom) {
		return false
	}
	if !f.IntakeTo.IsZero() && a.IntakeAt.After(f.IntakeTo) {
		return false
	}
	return true
}
