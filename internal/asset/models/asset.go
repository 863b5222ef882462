package models

import (
	"time"

	"assetledger/pkg/domain"
	dErrors "assetledger/pkg/domain-errors"
)

// Asset is the current-state snapshot of one physical item. History is never
// kept here: every stage change is appended to the transition ledger, and the
// asset record only mirrors the latest committed state.
//
// Invariants:
//   - ID is immutable once assigned and is the sole external reference used
//     by certificates and reports
//   - Stage only changes through the lifecycle service, which commits the
//     snapshot update and the ledger append together
type Asset struct {
	ID           domain.AssetID   `json:"id"`
	CategoryCode string           `json:"category"`
	SerialNumber string           `json:"serial_number,omitempty"`
	Condition    domain.Condition `json:"condition"`
	Stage        domain.Stage     `json:"stage"`
	LabelRemoved bool             `json:"label_removed"`
	IntakeAt     time.Time        `json:"intake_at"`
	UpdatedAt    time.Time        `json:"updated_at"`
	Notes        string           `json:"notes,omitempty"`
}

// NewAsset builds an intake-stage asset record.
func NewAsset(id domain.AssetID, categoryCode, serialNumber string, condition domain.Condition, notes string, now time.Time) (*Asset, error) {
	if !id.IsValid() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "malformed asset id")
	}
	if categoryCode == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "category code is required")
	}
	if !condition.IsValid() {
		condition = domain.ConditionUnknown
	}
	return &Asset{
		ID:           id,
		CategoryCode: categoryCode,
		SerialNumber: serialNumber,
		Condition:    condition,
		Stage:        domain.StageIntake,
		IntakeAt:     now,
		UpdatedAt:    now,
	}, nil
}

// ApplyStage moves the snapshot to a new stage. Legality has already been
// checked by the lifecycle machine; this only records the outcome.
func (a *Asset) ApplyStage(target domain.Stage, now time.Time) {
	a.Stage = target
	a.UpdatedAt = now
}

// MarkLabelRemoved records completion of label/branding removal.
func (a *Asset) MarkLabelRemoved(now time.Time) {
	a.LabelRemoved = true
	a.UpdatedAt = now
}

// Clone returns a deep copy so in-memory stores never hand out aliased state.
func (a *Asset) Clone() *Asset {
	cp := *a
	return &cp
}
