package domain

import dErrors "assetledger/pkg/domain-errors"

// Stage is an asset's position in the fixed lifecycle state machine.
// Transition legality between stages is owned by internal/lifecycle; this
// type only guards the value set.
type Stage string

const (
	StageIntake             Stage = "intake"
	StageWipePending        Stage = "wipe_pending"
	StageWiped              Stage = "wiped"
	StageDestructionPending Stage = "destruction_pending"
	StageDestroyed          Stage = "destroyed"
	StageCertified          Stage = "certified"
	StageRefurbished        Stage = "refurbished"
	StageDonated            Stage = "donated"
	StageRecycled           Stage = "recycled"
)

// validStages is the single source of truth for stage values.
var validStages = map[Stage]bool{
	StageIntake:             true,
	StageWipePending:        true,
	StageWiped:              true,
	StageDestructionPending: true,
	StageDestroyed:          true,
	StageCertified:          true,
	StageRefurbished:        true,
	StageDonated:            true,
	StageRecycled:           true,
}

// terminalStages are stages with no outgoing lifecycle edges. CERTIFIED can
// still be the target of a corrective (superseding) ledger entry, which is
// recorded outside the forward state machine.
var terminalStages = map[Stage]bool{
	StageCertified:   true,
	StageRefurbished: false, // refurbished assets may still be certified or dispositioned
	StageDonated:     true,
	StageRecycled:    true,
}

// ParseStage constructs a Stage from external input.
//
// Errors: returns CodeInvalidInput when the value is empty or unsupported.
func ParseStage(s string) (Stage, error) {
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "stage cannot be empty")
	}
	st := Stage(s)
	if !st.IsValid() {
		return "", dErrors.New(dErrors.CodeInvalidInput, "invalid stage: "+s)
	}
	return st, nil
}

// IsValid checks if the stage is one of the supported enum values.
func (s Stage) IsValid() bool {
	return validStages[s]
}

// IsTerminal reports whether the stage ends the lifecycle.
func (s Stage) IsTerminal() bool {
	return terminalStages[s]
}

// String returns the string representation of the stage.
func (s Stage) String() string {
	return string(s)
}
