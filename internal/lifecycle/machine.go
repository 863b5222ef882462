// Package lifecycle enforces the fixed asset state machine and commits
// transitions: registry snapshot update and ledger append land together or
// not at all.
package lifecycle

import (
	"assetledger/internal/asset/models"
	"assetledger/internal/catalog"
	"assetledger/pkg/domain"
	dErrors "assetledger/pkg/domain-errors"
)

// Machine validates stage transitions per asset category. The edge set is
// fixed; what varies by category is whether the sanitisation branch is
// mandatory (data-bearing) or unreachable (everything else).
type Machine struct {
	catalog *catalog.Catalog
}

// NewMachine builds a validator over the category catalog.
func NewMachine(cat *catalog.Catalog) *Machine {
	return &Machine{catalog: cat}
}

// successors returns the legal next stages for an asset.
func (m *Machine) successors(cat catalog.Category, current domain.Stage) []domain.Stage {
	switch current {
	case domain.StageIntake:
		if cat.DataBearing {
			// Data-bearing assets must be sanitised before any destruction
			// path; only non-destruction dispositions skip the wipe.
			return []domain.Stage{domain.StageWipePending, domain.StageRefurbished, domain.StageDonated, domain.StageRecycled}
		}
		return []domain.Stage{domain.StageDestructionPending, domain.StageRefurbished, domain.StageDonated, domain.StageRecycled}
	case domain.StageWipePending:
		return []domain.Stage{domain.StageWiped}
	case domain.StageWiped:
		return []domain.Stage{domain.StageDestructionPending, domain.StageRefurbished}
	case domain.StageDestructionPending:
		return []domain.Stage{domain.StageDestroyed}
	case domain.StageDestroyed:
		return []domain.Stage{domain.StageCertified}
	case domain.StageRefurbished:
		return []domain.Stage{domain.StageCertified, domain.StageDonated, domain.StageRecycled}
	default:
		return nil
	}
}

// Validate checks that the asset may move to target with the supplied
// method. It inspects state only; committing is the service's job.
//
// Errors:
//   - CodeIllegalTransition when target is not a direct successor of the
//     asset's current stage for its category
//   - CodeMissingPrecondition when a required field or prior step is absent
func (m *Machine) Validate(a *models.Asset, target domain.Stage, method domain.Method) error {
	if !target.IsValid() {
		return dErrors.Newf(dErrors.CodeInvalidInput, "unknown stage %q", target)
	}
	cat, err := m.catalog.Get(a.CategoryCode)
	if err != nil {
		return err
	}

	legal := false
	for _, next := range m.successors(cat, a.Stage) {
		if next == target {
			legal = true
			break
		}
	}
	if !legal {
		return dErrors.Newf(dErrors.CodeIllegalTransition,
			"asset %s cannot move %s -> %s", a.ID, a.Stage, target)
	}

	switch target {
	case domain.StageWiped:
		if method == "" {
			return dErrors.Newf(dErrors.CodeMissingPrecondition,
				"asset %s: wipe method is required when entering %s", a.ID, target)
		}
		if !method.IsWipeMethod() {
			return dErrors.Newf(dErrors.CodeMissingPrecondition,
				"asset %s: %q is not an approved wipe method", a.ID, method)
		}
	case domain.StageDestroyed:
		if method == "" {
			return dErrors.Newf(dErrors.CodeMissingPrecondition,
				"asset %s: destruction method is required when entering %s", a.ID, target)
		}
		if !method.IsDestructionMethod() {
			return dErrors.Newf(dErrors.CodeMissingPrecondition,
				"asset %s: %q is not an approved destruction method", a.ID, method)
		}
		if cat.RequiresLabelRemoval && !a.LabelRemoved {
			return dErrors.Newf(dErrors.CodeMissingPrecondition,
				"asset %s: label removal must be completed before destruction", a.ID)
		}
	}
	return nil
}
