// Package store persists asset snapshots. Two implementations share one
// contract: an in-memory map for tests and single-host deployments, and a
// Postgres store for the shared registry.
package store

import (
	"context"
	"time"

	"assetledger/internal/asset/models"
	"assetledger/pkg/domain"
)

// Filter selects assets for queries and batch operations. Zero-value fields
// are ignored; non-zero fields are ANDed together.
type Filter struct {
	CategoryCode string
	Condition    domain.Condition
	Stage        domain.Stage
	IntakeFrom   time.Time
	IntakeTo     time.Time
	IDs          []domain.AssetID
}

// Error Contract:
// All store methods follow this pattern:
//   - Return sentinel.ErrNotFound (wrapped) when the asset does not exist
//   - Return sentinel.ErrConflict (wrapped) when Create hits an existing ID
//   - Return wrapped infrastructure errors otherwise
type Store interface {
	Create(ctx context.Context, a *models.Asset) error
	Get(ctx context.Context, id domain.AssetID) (*models.Asset, error)
	Put(ctx context.Context, a *models.Asset) error
	Query(ctx context.Context, f Filter) ([]*models.Asset, error)

	// LockForUpdate pins the given assets for the remainder of the enclosing
	// transaction. IDs must arrive sorted; acquiring row locks in one global
	// order is what keeps concurrent batches deadlock-free. The in-memory
	// store is a no-op because its transaction boundary is a single mutex.
	LockForUpdate(ctx context.Context, ids []domain.AssetID) error
}
