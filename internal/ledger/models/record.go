package models

import (
	"time"

	"github.com/google/uuid"

	"assetledger/pkg/domain"
	dErrors "assetledger/pkg/domain-errors"
)

// TransitionRecord is one append-only ledger entry: a single stage change on
// a single asset, attributable to an actor.
//
// Invariants:
//   - RecordedAt is assigned by the ledger at write time, never by callers
//   - Records are never updated or deleted; a correction is a new record
//     whose Supersedes field references the entry it replaces
type TransitionRecord struct {
	ID         uuid.UUID      `json:"id"`
	AssetID    domain.AssetID `json:"asset_id"`
	FromStage  domain.Stage   `json:"from_stage"`
	ToStage    domain.Stage   `json:"to_stage"`
	RecordedAt time.Time      `json:"recorded_at"`
	Actor      string         `json:"actor"`
	Method     domain.Method  `json:"method,omitempty"`
	Notes      string         `json:"notes,omitempty"`
	Supersedes *uuid.UUID     `json:"supersedes,omitempty"`
}

// NewTransitionRecord builds a ledger entry for a committed transition.
// recordedAt comes from the transaction boundary so every member of a batch
// carries the same commit time.
func NewTransitionRecord(assetID domain.AssetID, from, to domain.Stage, actor string, method domain.Method, notes string, recordedAt time.Time) (*TransitionRecord, error) {
	if actor == "" {
		return nil, dErrors.New(dErrors.CodeMissingPrecondition, "actor is required for every ledger entry")
	}
	return &TransitionRecord{
		ID:         uuid.New(),
		AssetID:    assetID,
		FromStage:  from,
		ToStage:    to,
		RecordedAt: recordedAt,
		Actor:      actor,
		Method:     method,
		Notes:      notes,
	}, nil
}

// Clone returns a deep copy for in-memory stores.
func (r *TransitionRecord) Clone() *TransitionRecord {
	cp := *r
	if r.Supersedes != nil {
		sup := *r.Supersedes
		cp.Supersedes = &sup
	}
	return &cp
}
