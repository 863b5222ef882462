// Package summary provides read-only aggregation over the registry, ledger,
// and artifact store. It never mutates; every report is computed from one
// consistent snapshot taken under the shared transaction boundary.
package summary

import (
	"context"
	"time"

	assetstore "assetledger/internal/asset/store"
	"assetledger/internal/catalog"
	artifactstore "assetledger/internal/certificate/store"
	"assetledger/pkg/domain"
	dErrors "assetledger/pkg/domain-errors"
	"assetledger/pkg/platform/tx"
	"assetledger/pkg/requestcontext"
)

// CategorySummary is the per-category roll-up, including progress against
// the expected intake quantity agreed with the client.
type CategorySummary struct {
	Code       string  `json:"code"`
	Name       string  `json:"name"`
	Expected   int     `json:"expected"`
	Registered int     `json:"registered"`
	Processed  int     `json:"processed"`
	WeightKG   float64 `json:"weight_kg"`
}

// Summary is one consistent view of the whole job.
type Summary struct {
	GeneratedAt time.Time `json:"generated_at"`
	TotalAssets int       `json:"total_assets"`

	ByStage     map[domain.Stage]int     `json:"by_stage"`
	ByCondition map[domain.Condition]int `json:"by_condition"`
	ByCategory  []CategorySummary        `json:"by_category"`

	PendingWipe          []domain.AssetID `json:"pending_wipe"`
	PendingDestruction   []domain.AssetID `json:"pending_destruction"`
	DestroyedUncertified []domain.AssetID `json:"destroyed_uncertified"`

	TotalWeightKG     float64 `json:"total_weight_kg"`
	ProcessedWeightKG float64 `json:"processed_weight_kg"`

	CertificatesIssued  int `json:"certificates_issued"`
	CertificatesRevoked int `json:"certificates_revoked"`
	ReportsIssued       int `json:"reports_issued"`
}

// processedStages are the stages counted as completed work for roll-ups.
var processedStages = map[domain.Stage]bool{
	domain.StageDestroyed:   true,
	domain.StageCertified:   true,
	domain.StageRefurbished: true,
	domain.StageDonated:     true,
	domain.StageRecycled:    true,
}

// Service computes summaries.
type Service struct {
	assets    assetstore.Store
	artifacts artifactstore.Store
	catalog   *catalog.Catalog
	boundary  tx.Boundary
}

// NewService wires the aggregator.
func NewService(assets assetstore.Store, artifacts artifactstore.Store, cat *catalog.Catalog, boundary tx.Boundary) *Service {
	return &Service{assets: assets, artifacts: artifacts, catalog: cat, boundary: boundary}
}

// Snapshot computes the full summary. Running inside the shared boundary
// means a concurrent batch commit is either fully visible or not at all;
// counts never mix pre- and post-commit state for one asset.
func (s *Service) Snapshot(ctx context.Context) (*Summary, error) {
	var out *Summary
	err := s.boundary.RunInTx(ctx, func(ctx context.Context) error {
		assets, err := s.assets.Query(ctx, assetstore.Filter{})
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeStorage, "load registry")
		}
		artifacts, err := s.artifacts.List(ctx, "")
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeStorage, "load artifacts")
		}

		sum := &Summary{
			GeneratedAt: requestcontext.Now(ctx),
			TotalAssets: len(assets),
			ByStage:     make(map[domain.Stage]int),
			ByCondition: make(map[domain.Condition]int),
		}

		certified := make(map[domain.AssetID]bool)
		for _, art := range artifacts {
			switch art.Kind {
			case domain.ArtifactFinalReport:
				sum.ReportsIssued++
				continue
			case domain.ArtifactIndividualCertificate, domain.ArtifactBatchCertificate:
				if art.Revoked() {
					sum.CertificatesRevoked++
					continue
				}
				sum.CertificatesIssued++
				for _, id := range art.AssetIDs {
					certified[id] = true
				}
			}
		}

		perCategory := make(map[string]*CategorySummary)
		for _, code := range s.catalog.Codes() {
			cat, err := s.catalog.Get(code)
			if err != nil {
				return err
			}
			perCategory[code] = &CategorySummary{
				Code:     code,
				Name:     cat.Name,
				Expected: cat.ExpectedQuantity,
			}
		}

		for _, a := range assets {
			sum.ByStage[a.Stage]++
			sum.ByCondition[a.Condition]++

			switch a.Stage {
			case domain.StageWipePending:
				sum.PendingWipe = append(sum.PendingWipe, a.ID)
			case domain.StageDestructionPending:
				sum.PendingDestruction = append(sum.PendingDestruction, a.ID)
			case domain.StageDestroyed:
				if !certified[a.ID] {
					sum.DestroyedUncertified = append(sum.DestroyedUncertified, a.ID)
				}
			}

			cs, ok := perCategory[a.CategoryCode]
			if !ok {
				cs = &CategorySummary{Code: a.CategoryCode, Name: a.CategoryCode}
				perCategory[a.CategoryCode] = cs
			}
			cs.Registered++
			cat, err := s.catalog.Get(a.CategoryCode)
			weight := 0.0
			if err == nil {
				weight = cat.UnitWeightKG
			}
			cs.WeightKG += weight
			sum.TotalWeightKG += weight
			if processedStages[a.Stage] {
				cs.Processed++
				sum.ProcessedWeightKG += weight
			}
		}

		for _, code := range s.catalog.Codes() {
			sum.ByCategory = append(sum.ByCategory, *perCategory[code])
			delete(perCategory, code)
		}
		for _, cs := range perCategory {
			sum.ByCategory = append(sum.ByCategory, *cs)
		}

		out = sum
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
