package domain

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	dErrors "assetledger/pkg/domain-errors"
)

// AssetID is the external identifier of a tracked asset.
// Format: <PREFIX>-<YYYYMMDD>-<NNNN>, e.g. CAB-20250107-0001.
//
// Invariants: immutable once assigned; the sequence part is unique within
// (prefix, date) and never reused, even after corrective transitions.
//
// Usage: construct via ParseAssetID at trust boundaries or ComposeAssetID in
// the identifier allocator; direct casting bypasses validation.
type AssetID string

var assetIDPattern = regexp.MustCompile(`^[A-Z][A-Z0-9]{1,5}-\d{8}-\d{4}$`)

// ParseAssetID constructs an AssetID from external input.
//
// Errors: returns CodeInvalidInput when the value is empty or malformed.
func ParseAssetID(s string) (AssetID, error) {
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "asset id cannot be empty")
	}
	if !assetIDPattern.MatchString(s) {
		return "", dErrors.New(dErrors.CodeInvalidInput, "asset id must match PREFIX-YYYYMMDD-NNNN")
	}
	return AssetID(s), nil
}

// ComposeAssetID builds an AssetID from its parts. The allocator is the only
// caller; seq must already have been range-checked against MaxSequence.
func ComposeAssetID(prefix, dateStamp string, seq int) AssetID {
	return AssetID(fmt.Sprintf("%s-%s-%04d", prefix, dateStamp, seq))
}

// MaxSequence is the largest per-(prefix, day) sequence number the four digit
// suffix can carry. Allocation past this fails rather than wrapping.
const MaxSequence = 9999

// Prefix returns the category prefix part of the identifier.
func (a AssetID) Prefix() string {
	return string(a)[:strings.IndexByte(string(a), '-')]
}

// DateStamp returns the YYYYMMDD part of the identifier.
func (a AssetID) DateStamp() string {
	parts := strings.Split(string(a), "-")
	if len(parts) != 3 {
		return ""
	}
	return parts[1]
}

// Sequence returns the numeric suffix of the identifier.
func (a AssetID) Sequence() int {
	parts := strings.Split(string(a), "-")
	if len(parts) != 3 {
		return 0
	}
	n, _ := strconv.Atoi(parts[2])
	return n
}

// IsValid checks the identifier against the canonical format.
func (a AssetID) IsValid() bool {
	return assetIDPattern.MatchString(string(a))
}

// String returns the string representation of the identifier.
func (a AssetID) String() string {
	return string(a)
}
