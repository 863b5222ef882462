package lifecycle

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	assetmodels "assetledger/internal/asset/models"
	assetstore "assetledger/internal/asset/store"
	ledgermodels "assetledger/internal/ledger/models"
	ledgerstore "assetledger/internal/ledger/store"
	"assetledger/pkg/domain"
	dErrors "assetledger/pkg/domain-errors"
	"assetledger/pkg/platform/sentinel"
	"assetledger/pkg/platform/tx"
	"assetledger/pkg/requestcontext"
)

// Service applies stage transitions. Every committed transition updates the
// asset snapshot and appends a ledger record inside one boundary, so the two
// views never diverge.
type Service struct {
	assets   assetstore.Store
	ledger   ledgerstore.Store
	machine  *Machine
	boundary tx.Boundary
	logger   *slog.Logger
}

// NewService wires the lifecycle service.
func NewService(assets assetstore.Store, ledger ledgerstore.Store, machine *Machine, boundary tx.Boundary, logger *slog.Logger) *Service {
	return &Service{
		assets:   assets,
		ledger:   ledger,
		machine:  machine,
		boundary: boundary,
		logger:   logger,
	}
}

// TransitionInput describes one requested stage change.
type TransitionInput struct {
	AssetID domain.AssetID
	Target  domain.Stage
	Method  domain.Method
	Notes   string
}

// Apply validates and commits a single transition. The actor comes from the
// request context and is mandatory; anonymous transitions are rejected before
// anything is read.
//
// Errors:
//   - CodeNotFound when the asset does not exist
//   - CodeIllegalTransition / CodeMissingPrecondition from the machine
//   - CodeMissingPrecondition when no actor is attached to the context
func (s *Service) Apply(ctx context.Context, in TransitionInput) (*ledgermodels.TransitionRecord, error) {
	actor := requestcontext.Actor(ctx)
	if actor == "" {
		return nil, dErrors.New(dErrors.CodeMissingPrecondition, "an authenticated actor is required")
	}

	var rec *ledgermodels.TransitionRecord
	err := s.boundary.RunInTx(ctx, func(ctx context.Context) error {
		a, err := s.assets.Get(ctx, in.AssetID)
		if err != nil {
			return assetStoreErr(err, in.AssetID)
		}
		if err := s.machine.Validate(a, in.Target, in.Method); err != nil {
			return err
		}

		now := requestcontext.Now(ctx)
		r, err := ledgermodels.NewTransitionRecord(a.ID, a.Stage, in.Target, actor, in.Method, in.Notes, now)
		if err != nil {
			return err
		}
		a.ApplyStage(in.Target, now)
		if err := s.assets.Put(ctx, a); err != nil {
			return dErrors.Wrap(err, dErrors.CodeStorage, "update asset snapshot")
		}
		if err := s.ledger.Append(ctx, r); err != nil {
			return dErrors.Wrap(err, dErrors.CodeStorage, "append transition record")
		}
		rec = r
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "transition applied",
		slog.String("asset_id", string(in.AssetID)),
		slog.String("from", string(rec.FromStage)),
		slog.String("to", string(rec.ToStage)),
		slog.String("actor", actor),
	)
	return rec, nil
}

// CorrectionInput describes a corrective transition. Corrections bypass edge
// validation on purpose: a supervisor fixing a mis-scan needs to move the
// asset to where it actually is, not where the graph says it could go.
type CorrectionInput struct {
	AssetID    domain.AssetID
	Target     domain.Stage
	Supersedes uuid.UUID
	Reason     string
}

// Correct appends a corrective ledger record that supersedes an earlier one
// and forces the asset snapshot to the target stage. The superseded record
// stays in the ledger untouched.
func (s *Service) Correct(ctx context.Context, in CorrectionInput) (*ledgermodels.TransitionRecord, error) {
	actor := requestcontext.Actor(ctx)
	if actor == "" {
		return nil, dErrors.New(dErrors.CodeMissingPrecondition, "an authenticated actor is required")
	}
	if in.Reason == "" {
		return nil, dErrors.New(dErrors.CodeMissingPrecondition, "a correction reason is required")
	}
	if !in.Target.IsValid() {
		return nil, dErrors.Newf(dErrors.CodeInvalidInput, "unknown stage %q", in.Target)
	}

	var rec *ledgermodels.TransitionRecord
	err := s.boundary.RunInTx(ctx, func(ctx context.Context) error {
		a, err := s.assets.Get(ctx, in.AssetID)
		if err != nil {
			return assetStoreErr(err, in.AssetID)
		}
		superseded, err := s.ledger.FindByID(ctx, in.Supersedes)
		if err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return dErrors.Newf(dErrors.CodeNotFound, "ledger record %s not found", in.Supersedes)
			}
			return dErrors.Wrap(err, dErrors.CodeStorage, "load superseded record")
		}
		if superseded.AssetID != in.AssetID {
			return dErrors.Newf(dErrors.CodeInvalidInput,
				"record %s belongs to %s, not %s", in.Supersedes, superseded.AssetID, in.AssetID)
		}

		now := requestcontext.Now(ctx)
		r, err := ledgermodels.NewTransitionRecord(a.ID, a.Stage, in.Target, actor, "", in.Reason, now)
		if err != nil {
			return err
		}
		sup := in.Supersedes
		r.Supersedes = &sup

		a.ApplyStage(in.Target, now)
		if err := s.assets.Put(ctx, a); err != nil {
			return dErrors.Wrap(err, dErrors.CodeStorage, "update asset snapshot")
		}
		if err := s.ledger.Append(ctx, r); err != nil {
			return dErrors.Wrap(err, dErrors.CodeStorage, "append corrective record")
		}
		rec = r
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.WarnContext(ctx, "corrective transition applied",
		slog.String("asset_id", string(in.AssetID)),
		slog.String("supersedes", in.Supersedes.String()),
		slog.String("to", string(in.Target)),
		slog.String("actor", actor),
	)
	return rec, nil
}

// MarkLabelRemoved records completion of label and branding removal on the
// asset snapshot. Not a stage change, so no ledger entry is written.
func (s *Service) MarkLabelRemoved(ctx context.Context, id domain.AssetID) (*assetmodels.Asset, error) {
	var out *assetmodels.Asset
	err := s.boundary.RunInTx(ctx, func(ctx context.Context) error {
		a, err := s.assets.Get(ctx, id)
		if err != nil {
			return assetStoreErr(err, id)
		}
		if a.Stage == domain.StageDestroyed || a.Stage.IsTerminal() {
			return dErrors.Newf(dErrors.CodeIllegalTransition,
				"asset %s: label removal must be recorded before destruction", id)
		}
		if !a.LabelRemoved {
			a.MarkLabelRemoved(requestcontext.Now(ctx))
			if err := s.assets.Put(ctx, a); err != nil {
				return dErrors.Wrap(err, dErrors.CodeStorage, "update asset snapshot")
			}
		}
		out = a
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func assetStoreErr(err error, id domain.AssetID) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.Newf(dErrors.CodeNotFound, "asset %s not found", id)
	}
	return dErrors.Wrap(err, dErrors.CodeStorage, "load asset "+string(id))
}
