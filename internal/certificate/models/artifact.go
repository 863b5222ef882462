package models

import (
	"time"

	"github.com/google/uuid"

	"assetledger/pkg/domain"
)

// Artifact is one issued compliance document: an individual certificate, a
// batch certificate, or a final report. Artifacts are never deleted;
// revocation marks them superseded and leaves the record in place.
//
// Invariants:
//   - for individual certificates, at most one non-revoked artifact exists
//     per asset at any time
//   - SourceTransitionIDs reference the ledger entries that made the covered
//     assets eligible, so every document traces back to the audit trail
type Artifact struct {
	ID                  uuid.UUID           `json:"id"`
	Kind                domain.ArtifactKind `json:"kind"`
	Number              string              `json:"number"`
	AssetIDs            []domain.AssetID    `json:"asset_ids"`
	IssuedAt            time.Time           `json:"issued_at"`
	IssuedBy            string              `json:"issued_by"`
	SourceTransitionIDs []uuid.UUID         `json:"source_transition_ids"`
	DocumentPath        string              `json:"document_path,omitempty"`

	RevokedAt    *time.Time `json:"revoked_at,omitempty"`
	RevokedBy    string     `json:"revoked_by,omitempty"`
	RevokeReason string     `json:"revoke_reason,omitempty"`
}

// Revoked reports whether the artifact has been superseded.
func (a *Artifact) Revoked() bool {
	return a.RevokedAt != nil
}

// Covers reports whether the artifact references the asset.
func (a *Artifact) Covers(id domain.AssetID) bool {
	for _, aid := range a.AssetIDs {
		if aid == id {
			return true
		}
	}
	return false
}

// Clone returns a deep copy for in-memory stores.
func (a *Artifact) Clone() *Artifact {
	cp := *a
	cp.AssetIDs = append([]domain.AssetID(nil), a.AssetIDs...)
	cp.SourceTransitionIDs = append([]uuid.UUID(nil), a.SourceTransitionIDs...)
	if a.RevokedAt != nil {
		at := *a.RevokedAt
		cp.RevokedAt = &at
	}
	return &cp
}
