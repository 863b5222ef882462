package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"assetledger/internal/certificate/models"
	"assetledger/pkg/domain"
	"assetledger/pkg/platform/sentinel"
)

// InMemoryStore keeps artifacts in a map, cloned on the way in and out.
type InMemoryStore struct {
	mu        sync.RWMutex
	artifacts map[uuid.UUID]*models.Artifact
}

// NewInMemory constructs an empty in-memory artifact store.
func NewInMemory() *InMemoryStore {
	return &InMemoryStore{artifacts: make(map[uuid.UUID]*models.Artifact)}
}

func (s *InMemoryStore) Create(_ context.Context, a *models.Artifact) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.artifacts[a.ID]; ok {
		return fmt.Errorf("artifact %s already exists: %w", a.ID, sentinel.ErrConflict)
	}
	s.artifacts[a.ID] = a.Clone()
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, id uuid.UUID) (*models.Artifact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if a, ok := s.artifacts[id]; ok {
		return a.Clone(), nil
	}
	return nil, fmt.Errorf("artifact %s: %w", id, sentinel.ErrNotFound)
}

func (s *InMemoryStore) FindActiveIndividual(_ context.Context, assetID domain.AssetID) (*models.Artifact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, a := range s.artifacts {
		if a.Kind == domain.ArtifactIndividualCertificate && !a.Revoked() && a.Covers(assetID) {
			return a.Clone(), nil
		}
	}
	return nil, fmt.Errorf("active certificate for %s: %w", assetID, sentinel.ErrNotFound)
}

func (s *InMemoryStore) List(_ context.Context, kind domain.ArtifactKind) ([]*models.Artifact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Artifact
	for _, a := range s.artifacts {
		if kind != "" && a.Kind != kind {
			continue
		}
		out = append(out, a.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].IssuedAt.Equal(out[j].IssuedAt) {
			return out[i].IssuedAt.Before(out[j].IssuedAt)
		}
		return out[i].Number < out[j].Number
	})
	return out, nil
}

func (s *InMemoryStore) Revoke(_ context.Context, id uuid.UUID, by, reason string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.artifacts[id]
	if !ok {
		return fmt.Errorf("artifact %s: %w", id, sentinel.ErrNotFound)
	}
	if a.Revoked() {
		return fmt.Errorf("artifact %s: %w", id, sentinel.ErrAlreadyUsed)
	}
	a.RevokedAt = &at
	a.RevokedBy = by
	a.RevokeReason = reason
	return nil
}
