// Package store persists the transition ledger. The ledger is append-only by
// contract: no implementation exposes update or delete, and corrections are
// modeled as new records superseding old ones.
package store

import (
	"context"

	"github.com/google/uuid"

	"assetledger/internal/ledger/models"
	"assetledger/pkg/domain"
)

// Store is the append-only ledger contract.
//
// Error Contract:
//   - FindByID returns sentinel.ErrNotFound (wrapped) for unknown IDs
//   - Append returns wrapped infrastructure errors only; validation happens
//     before a record is constructed
type Store interface {
	Append(ctx context.Context, rec *models.TransitionRecord) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.TransitionRecord, error)
	ListByAsset(ctx context.Context, assetID domain.AssetID) ([]*models.TransitionRecord, error)
	ListAll(ctx context.Context) ([]*models.TransitionRecord, error)
}
