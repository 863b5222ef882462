package domain

import dErrors "assetledger/pkg/domain-errors"

// Condition records the physical state of an asset at intake. It never
// changes the lifecycle path; it only feeds reporting and batch filters.
type Condition string

const (
	ConditionNewSealed     Condition = "new_sealed"
	ConditionUsedGood      Condition = "used_good"
	ConditionUsedFair      Condition = "used_fair"
	ConditionUsedPoor      Condition = "used_poor"
	ConditionNonFunctional Condition = "non_functional"
	ConditionUnknown       Condition = "unknown"
)

var validConditions = map[Condition]bool{
	ConditionNewSealed:     true,
	ConditionUsedGood:      true,
	ConditionUsedFair:      true,
	ConditionUsedPoor:      true,
	ConditionNonFunctional: true,
	ConditionUnknown:       true,
}

// ParseCondition constructs a Condition from external input. An empty value
// defaults to unknown, matching intake forms where condition is optional.
func ParseCondition(s string) (Condition, error) {
	if s == "" {
		return ConditionUnknown, nil
	}
	c := Condition(s)
	if !validConditions[c] {
		return "", dErrors.New(dErrors.CodeInvalidInput, "invalid condition: "+s)
	}
	return c, nil
}

// IsValid checks if the condition is one of the supported enum values.
func (c Condition) IsValid() bool {
	return validConditions[c]
}

func (c Condition) String() string {
	return string(c)
}
