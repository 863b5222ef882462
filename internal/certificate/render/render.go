// Package render produces compliance documents from fully-populated data.
// The gate supplies everything the document needs; rendering never reads
// stores.
package render

import (
	"time"

	"assetledger/pkg/domain"
)

// Item is one asset line on a certificate or report.
type Item struct {
	AssetID      domain.AssetID
	Category     string
	SerialNumber string
	Condition    domain.Condition
	Stage        domain.Stage
	Method       domain.Method
	CompletedAt  time.Time
	EvidenceRefs []string
}

// Data is the full input for one document. Every field is populated by the
// compliance gate before rendering starts.
type Data struct {
	Kind     domain.ArtifactKind
	Number   string
	IssuedAt time.Time
	IssuedBy string

	Organisation Organisation
	Items        []Item
}

// Organisation identifies the issuing body on rendered documents.
type Organisation struct {
	Name      string
	Address   string
	Email     string
	Client    string
	Standards []string
}

// DefaultOrganisation returns the issuing body used when configuration
// supplies none.
func DefaultOrganisation() Organisation {
	return Organisation{
		Name:    "Recycle-IT! CIC",
		Address: "Bolton, UK",
		Email:   "recycle.it.cic@gmail.com",
		Client:  "Learning by Questions (LBQ)",
		Standards: []string{
			"ISO 9001:2015 Quality Management",
			"WEEE Regulations 2013",
			"UK GDPR 2018",
		},
	}
}
