// Package certificate is the compliance gate: it decides whether a
// certificate or report may be issued, enforces at-most-once issuance per
// asset, and commits the certification transition together with the artifact
// record.
package certificate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	assetmodels "assetledger/internal/asset/models"
	assetstore "assetledger/internal/asset/store"
	"assetledger/internal/catalog"
	"assetledger/internal/certificate/models"
	"assetledger/internal/certificate/render"
	artifactstore "assetledger/internal/certificate/store"
	"assetledger/internal/evidence"
	ledgermodels "assetledger/internal/ledger/models"
	ledgerstore "assetledger/internal/ledger/store"
	"assetledger/internal/lifecycle"
	"assetledger/pkg/domain"
	dErrors "assetledger/pkg/domain-errors"
	"assetledger/pkg/platform/sentinel"
	"assetledger/pkg/platform/tx"
	"assetledger/pkg/requestcontext"
)

// Renderer produces document bytes from fully-populated data. Implemented by
// render.TemplateRenderer; tests substitute failing renderers to exercise
// rollback.
type Renderer interface {
	Render(ctx context.Context, data render.Data) ([]byte, error)
}

// Archive stores rendered documents and returns their location.
type Archive interface {
	Store(ctx context.Context, filename string, doc []byte) (string, error)
}

// Service is the compliance gate.
type Service struct {
	assets    assetstore.Store
	ledger    ledgerstore.Store
	artifacts artifactstore.Store
	catalog   *catalog.Catalog
	evidence  evidence.Index
	renderer  Renderer
	archive   Archive
	org       render.Organisation
	boundary  tx.Boundary
	logger    *slog.Logger
}

// NewService wires the gate.
func NewService(
	assets assetstore.Store,
	ledger ledgerstore.Store,
	artifacts artifactstore.Store,
	cat *catalog.Catalog,
	ev evidence.Index,
	renderer Renderer,
	archive Archive,
	org render.Organisation,
	boundary tx.Boundary,
	logger *slog.Logger,
) *Service {
	return &Service{
		assets:    assets,
		ledger:    ledger,
		artifacts: artifacts,
		catalog:   cat,
		evidence:  ev,
		renderer:  renderer,
		archive:   archive,
		org:       org,
		boundary:  boundary,
		logger:    logger,
	}
}

// issuable reports whether a certificate can attest to the stage. CERTIFIED
// is included so an asset whose certificate was revoked can be re-issued
// without a corrective transition.
func issuable(stage domain.Stage) bool {
	switch stage {
	case domain.StageDestroyed, domain.StageRefurbished, domain.StageDonated,
		domain.StageRecycled, domain.StageCertified:
		return true
	}
	return false
}

// needsCertifyTransition reports whether issuance moves the asset to
// CERTIFIED. Terminal dispositions and already-certified assets keep their
// stage.
func needsCertifyTransition(stage domain.Stage) bool {
	return stage == domain.StageDestroyed || stage == domain.StageRefurbished
}

// IssueIndividual issues the certificate for one asset and transitions it to
// CERTIFIED where applicable.
//
// Errors:
//   - CodeNotFound for unknown assets
//   - CodeAlreadyIssued when a non-revoked individual certificate exists
//   - CodeNotEligible when the asset is not in an attestable stage
//   - CodeRenderFailure when the renderer or archive fails; nothing commits
func (s *Service) IssueIndividual(ctx context.Context, assetID domain.AssetID) (*models.Artifact, error) {
	actor := requestcontext.Actor(ctx)
	if actor == "" {
		return nil, dErrors.New(dErrors.CodeMissingPrecondition, "an authenticated actor is required")
	}

	var artifact *models.Artifact
	err := s.boundary.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.assets.LockForUpdate(ctx, []domain.AssetID{assetID}); err != nil {
			return dErrors.Wrap(err, dErrors.CodeStorage, "lock asset")
		}
		a, err := s.assets.Get(ctx, assetID)
		if err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return dErrors.Newf(dErrors.CodeNotFound, "asset %s not found", assetID)
			}
			return dErrors.Wrap(err, dErrors.CodeStorage, "load asset")
		}

		if err := s.checkNotIssued(ctx, a.ID); err != nil {
			return err
		}
		if !issuable(a.Stage) {
			return dErrors.Newf(dErrors.CodeNotEligible,
				"asset %s in stage %s is not eligible for a certificate", a.ID, a.Stage)
		}

		now := requestcontext.Now(ctx)
		latest, err := s.latestRecord(ctx, a.ID)
		if err != nil {
			return err
		}

		// Render before mutating anything: a renderer failure must leave no
		// certification transition behind.
		number := "CERT-" + string(a.ID)
		data := render.Data{
			Kind:         domain.ArtifactIndividualCertificate,
			Number:       number,
			IssuedAt:     now,
			IssuedBy:     actor,
			Organisation: s.org,
			Items:        []render.Item{s.renderItem(ctx, a, latest)},
		}
		path, err := s.renderAndStore(ctx, data)
		if err != nil {
			return err
		}

		sources, err := s.commitCertification(ctx, a, latest, actor, now)
		if err != nil {
			return err
		}

		artifact = &models.Artifact{
			ID:                  uuid.New(),
			Kind:                domain.ArtifactIndividualCertificate,
			Number:              number,
			AssetIDs:            []domain.AssetID{a.ID},
			IssuedAt:            now,
			IssuedBy:            actor,
			SourceTransitionIDs: sources,
			DocumentPath:        path,
		}
		if err := s.artifacts.Create(ctx, artifact); err != nil {
			return dErrors.Wrap(err, dErrors.CodeStorage, "record artifact")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "certificate issued",
		slog.String("number", artifact.Number),
		slog.String("asset_id", string(assetID)),
		slog.String("actor", actor),
	)
	return artifact, nil
}

// IssueBatch issues one certificate covering every selected asset. The batch
// is all-or-nothing: a single ineligible or already-certified member rejects
// the whole issuance.
func (s *Service) IssueBatch(ctx context.Context, sel lifecycle.Selector, batchName string) (*models.Artifact, error) {
	actor := requestcontext.Actor(ctx)
	if actor == "" {
		return nil, dErrors.New(dErrors.CodeMissingPrecondition, "an authenticated actor is required")
	}

	var artifact *models.Artifact
	err := s.boundary.RunInTx(ctx, func(ctx context.Context) error {
		matched, err := s.assets.Query(ctx, sel.Filter())
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeStorage, "resolve batch selector")
		}
		if missing := missingSelectorIDs(sel.IDs, matched); len(missing) > 0 {
			return dErrors.Newf(dErrors.CodeNotFound,
				"not found by the selector: %s", joinIDs(missing))
		}
		if len(matched) == 0 {
			return dErrors.New(dErrors.CodeNotFound, "selector matched no assets")
		}
		ids := make([]domain.AssetID, len(matched))
		for i, a := range matched {
			ids[i] = a.ID
		}
		sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
		if err := s.assets.LockForUpdate(ctx, ids); err != nil {
			return dErrors.Wrap(err, dErrors.CodeStorage, "lock batch members")
		}

		var (
			ineligible []string
			issued     []string
			members    []*assetmodels.Asset
		)
		for _, id := range ids {
			a, err := s.assets.Get(ctx, id)
			if err != nil {
				return dErrors.Wrap(err, dErrors.CodeStorage, "load asset")
			}
			if err := s.checkNotIssued(ctx, a.ID); err != nil {
				if dErrors.HasCode(err, dErrors.CodeAlreadyIssued) {
					issued = append(issued, string(a.ID))
					continue
				}
				return err
			}
			if !issuable(a.Stage) {
				ineligible = append(ineligible, fmt.Sprintf("%s (%s)", a.ID, a.Stage))
				continue
			}
			members = append(members, a)
		}
		if len(issued) > 0 {
			return dErrors.Newf(dErrors.CodeAlreadyIssued,
				"already certified: %s", strings.Join(issued, ", "))
		}
		if len(ineligible) > 0 {
			return dErrors.Newf(dErrors.CodeNotEligible,
				"not eligible: %s", strings.Join(ineligible, ", "))
		}

		now := requestcontext.Now(ctx)
		latestByAsset := make(map[domain.AssetID]*ledgermodels.TransitionRecord, len(members))
		items := make([]render.Item, 0, len(members))
		for _, a := range members {
			latest, err := s.latestRecord(ctx, a.ID)
			if err != nil {
				return err
			}
			latestByAsset[a.ID] = latest
			items = append(items, s.renderItem(ctx, a, latest))
		}

		number := "CERT-BATCH-" + now.Format("20060102_150405")
		if batchName != "" {
			number = number + "-" + sanitizeName(batchName)
		}
		data := render.Data{
			Kind:         domain.ArtifactBatchCertificate,
			Number:       number,
			IssuedAt:     now,
			IssuedBy:     actor,
			Organisation: s.org,
			Items:        items,
		}
		path, err := s.renderAndStore(ctx, data)
		if err != nil {
			return err
		}

		var sources []uuid.UUID
		for _, a := range members {
			src, err := s.commitCertification(ctx, a, latestByAsset[a.ID], actor, now)
			if err != nil {
				return err
			}
			sources = append(sources, src...)
		}

		artifact = &models.Artifact{
			ID:                  uuid.New(),
			Kind:                domain.ArtifactBatchCertificate,
			Number:              number,
			AssetIDs:            ids,
			IssuedAt:            now,
			IssuedBy:            actor,
			SourceTransitionIDs: sources,
			DocumentPath:        path,
		}
		if err := s.artifacts.Create(ctx, artifact); err != nil {
			return dErrors.Wrap(err, dErrors.CodeStorage, "record artifact")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "batch certificate issued",
		slog.String("number", artifact.Number),
		slog.Int("assets", len(artifact.AssetIDs)),
		slog.String("actor", actor),
	)
	return artifact, nil
}

// IssueFinalReport renders the end-of-job report covering every registered
// asset at its current stage. Reports do not transition assets and are not
// subject to the at-most-once rule.
func (s *Service) IssueFinalReport(ctx context.Context) (*models.Artifact, error) {
	actor := requestcontext.Actor(ctx)
	if actor == "" {
		return nil, dErrors.New(dErrors.CodeMissingPrecondition, "an authenticated actor is required")
	}

	var artifact *models.Artifact
	err := s.boundary.RunInTx(ctx, func(ctx context.Context) error {
		all, err := s.assets.Query(ctx, assetstore.Filter{})
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeStorage, "load registry")
		}
		if len(all) == 0 {
			return dErrors.New(dErrors.CodeNotFound, "no assets registered")
		}

		now := requestcontext.Now(ctx)
		var (
			ids     []domain.AssetID
			sources []uuid.UUID
			items   []render.Item
		)
		for _, a := range all {
			ids = append(ids, a.ID)
			latest, err := s.latestRecord(ctx, a.ID)
			if err != nil {
				return err
			}
			item := s.renderItem(ctx, a, latest)
			items = append(items, item)
			if latest != nil {
				sources = append(sources, latest.ID)
			}
		}

		number := "REPORT-" + now.Format("20060102_150405")
		data := render.Data{
			Kind:         domain.ArtifactFinalReport,
			Number:       number,
			IssuedAt:     now,
			IssuedBy:     actor,
			Organisation: s.org,
			Items:        items,
		}
		path, err := s.renderAndStore(ctx, data)
		if err != nil {
			return err
		}

		artifact = &models.Artifact{
			ID:                  uuid.New(),
			Kind:                domain.ArtifactFinalReport,
			Number:              number,
			AssetIDs:            ids,
			IssuedAt:            now,
			IssuedBy:            actor,
			SourceTransitionIDs: sources,
			DocumentPath:        path,
		}
		if err := s.artifacts.Create(ctx, artifact); err != nil {
			return dErrors.Wrap(err, dErrors.CodeStorage, "record artifact")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "final report issued",
		slog.String("number", artifact.Number),
		slog.Int("assets", len(artifact.AssetIDs)),
	)
	return artifact, nil
}

// Revoke marks an artifact superseded. The covered assets keep their stage;
// reverting one requires an explicit corrective transition.
func (s *Service) Revoke(ctx context.Context, artifactID uuid.UUID, reason string) error {
	actor := requestcontext.Actor(ctx)
	if actor == "" {
		return dErrors.New(dErrors.CodeMissingPrecondition, "an authenticated actor is required")
	}
	if reason == "" {
		return dErrors.New(dErrors.CodeMissingPrecondition, "a revocation reason is required")
	}

	err := s.boundary.RunInTx(ctx, func(ctx context.Context) error {
		err := s.artifacts.Revoke(ctx, artifactID, actor, reason, requestcontext.Now(ctx))
		if err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return dErrors.Newf(dErrors.CodeNotFound, "artifact %s not found", artifactID)
			}
			if errors.Is(err, sentinel.ErrAlreadyUsed) {
				return dErrors.Newf(dErrors.CodeConflict, "artifact %s is already revoked", artifactID)
			}
			return dErrors.Wrap(err, dErrors.CodeStorage, "revoke artifact")
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.WarnContext(ctx, "artifact revoked",
		slog.String("artifact_id", artifactID.String()),
		slog.String("actor", actor),
		slog.String("reason", reason),
	)
	return nil
}

// Get returns one artifact.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*models.Artifact, error) {
	a, err := s.artifacts.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.Newf(dErrors.CodeNotFound, "artifact %s not found", id)
		}
		return nil, dErrors.Wrap(err, dErrors.CodeStorage, "load artifact")
	}
	return a, nil
}

// List returns artifacts, optionally filtered by kind, oldest first.
func (s *Service) List(ctx context.Context, kind domain.ArtifactKind) ([]*models.Artifact, error) {
	out, err := s.artifacts.List(ctx, kind)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeStorage, "list artifacts")
	}
	return out, nil
}

// checkNotIssued enforces at-most-once: any non-revoked individual
// certificate covering the asset blocks issuance.
func (s *Service) checkNotIssued(ctx context.Context, id domain.AssetID) error {
	existing, err := s.artifacts.FindActiveIndividual(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil
		}
		return dErrors.Wrap(err, dErrors.CodeStorage, "check existing certificates")
	}
	return dErrors.Newf(dErrors.CodeAlreadyIssued,
		"certificate %s already covers asset %s", existing.Number, id)
}

// commitCertification transitions the asset to CERTIFIED when its stage
// calls for it and returns the ledger entries the artifact will reference:
// the entry that made the asset eligible plus the certification entry.
func (s *Service) commitCertification(ctx context.Context, a *assetmodels.Asset, latest *ledgermodels.TransitionRecord, actor string, now time.Time) ([]uuid.UUID, error) {
	var sources []uuid.UUID
	if latest != nil {
		sources = append(sources, latest.ID)
	}
	if needsCertifyTransition(a.Stage) {
		rec, err := ledgermodels.NewTransitionRecord(a.ID, a.Stage, domain.StageCertified, actor, "", "", now)
		if err != nil {
			return nil, err
		}
		a.ApplyStage(domain.StageCertified, now)
		if err := s.assets.Put(ctx, a); err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeStorage, "update asset snapshot")
		}
		if err := s.ledger.Append(ctx, rec); err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeStorage, "append certification record")
		}
		sources = append(sources, rec.ID)
	}
	return sources, nil
}

// latestRecord returns the asset's most recent ledger entry, or nil when the
// asset has none.
func (s *Service) latestRecord(ctx context.Context, id domain.AssetID) (*ledgermodels.TransitionRecord, error) {
	recs, err := s.ledger.ListByAsset(ctx, id)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeStorage, "load transition history")
	}
	if len(recs) == 0 {
		return nil, nil
	}
	return recs[len(recs)-1], nil
}

func (s *Service) renderItem(ctx context.Context, a *assetmodels.Asset, latest *ledgermodels.TransitionRecord) render.Item {
	item := render.Item{
		AssetID:      a.ID,
		Category:     a.CategoryCode,
		SerialNumber: a.SerialNumber,
		Condition:    a.Condition,
		Stage:        a.Stage,
		CompletedAt:  a.UpdatedAt,
	}
	if cat, err := s.catalog.Get(a.CategoryCode); err == nil {
		item.Category = cat.Name
	}
	if latest != nil {
		item.Method = latest.Method
	}
	if refs, err := s.evidence.Refs(ctx, a.ID, a.Stage); err == nil {
		item.EvidenceRefs = refs
	}
	return item
}

// renderAndStore runs the renderer and archives the output inside the
// enclosing transaction. A failure on either side aborts the whole issuance,
// so the ledger never claims a document that was not produced.
func (s *Service) renderAndStore(ctx context.Context, data render.Data) (string, error) {
	doc, err := s.renderer.Render(ctx, data)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeRenderFailure, "render "+data.Number)
	}
	path, err := s.archive.Store(ctx, data.Number+".txt", doc)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeRenderFailure, "archive "+data.Number)
	}
	return path, nil
}

// missingSelectorIDs reports explicitly selected IDs absent from the resolved
// set, in selector order. Batch issuance is all-or-nothing, so one missing
// member rejects the whole request.
func missingSelectorIDs(wanted []domain.AssetID, matched []*assetmodels.Asset) []domain.AssetID {
	if len(wanted) == 0 {
		return nil
	}
	found := make(map[domain.AssetID]struct{}, len(matched))
	for _, a := range matched {
		found[a.ID] = struct{}{}
	}
	var missing []domain.AssetID
	for _, id := range wanted {
		if _, ok := found[id]; !ok {
			missing = append(missing, id)
		}
	}
	return missing
}

func joinIDs(ids []domain.AssetID) string {
	strs := make([]string, len(ids))
	for i, id := range ids {
		strs[i] = string(id)
	}
	return strings.Join(strs, ", ")
}

func sanitizeName(name string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		case r == ' ':
			return '_'
		default:
			return -1
		}
	}, name)
}
