package domain

import dErrors "assetledger/pkg/domain-errors"

// ArtifactKind classifies compliance artifacts. Individual certificates are
// subject to the at-most-once-per-asset invariant; final reports may cover
// assets regardless of prior issuance.
type ArtifactKind string

const (
	ArtifactIndividualCertificate ArtifactKind = "individual_certificate"
	ArtifactBatchCertificate      ArtifactKind = "batch_certificate"
	ArtifactFinalReport           ArtifactKind = "final_report"
)

var validArtifactKinds = map[ArtifactKind]bool{
	ArtifactIndividualCertificate: true,
	ArtifactBatchCertificate:      true,
	ArtifactFinalReport:           true,
}

// ParseArtifactKind constructs an ArtifactKind from external input.
func ParseArtifactKind(s string) (ArtifactKind, error) {
	k := ArtifactKind(s)
	if !validArtifactKinds[k] {
		return "", dErrors.New(dErrors.CodeInvalidInput, "invalid artifact kind: "+s)
	}
	return k, nil
}

// IsValid checks if the kind is one of the supported enum values.
func (k ArtifactKind) IsValid() bool {
	return validArtifactKinds[k]
}

func (k ArtifactKind) String() string {
	return string(k)
}
