// Package store persists compliance artifacts. Artifacts are append-only
// apart from revocation, which fills the revocation fields and never deletes.
package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"assetledger/internal/certificate/models"
	"assetledger/pkg/domain"
)

// Error Contract:
//   - FindByID returns sentinel.ErrNotFound (wrapped) for unknown IDs
//   - Revoke returns sentinel.ErrNotFound for unknown IDs and
//     sentinel.ErrAlreadyUsed when the artifact is already revoked
type Store interface {
	Create(ctx context.Context, a *models.Artifact) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Artifact, error)

	// FindActiveIndividual returns the non-revoked individual certificate
	// covering the asset, or sentinel.ErrNotFound when none exists.
	FindActiveIndividual(ctx context.Context, assetID domain.AssetID) (*models.Artifact, error)

	List(ctx context.Context, kind domain.ArtifactKind) ([]*models.Artifact, error)
	Revoke(ctx context.Context, id uuid.UUID, by, reason string, at time.Time) error
}
