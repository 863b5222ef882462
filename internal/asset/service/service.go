// Package service registers assets into the ledger. Registration allocates
// identifiers and creates intake-stage records in one boundary. With a
// transactional sequence backend a failed run consumes no sequence numbers;
// the redis backend increments outside the boundary, so a failed run leaves a
// gap in the day's sequence. Gaps are harmless: identifiers only need to be
// unique, never dense.
package service

import (
	"context"
	"errors"
	"log/slog"

	"assetledger/internal/asset/models"
	"assetledger/internal/asset/store"
	"assetledger/internal/identifier"
	ledgermodels "assetledger/internal/ledger/models"
	ledgerstore "assetledger/internal/ledger/store"
	"assetledger/pkg/domain"
	dErrors "assetledger/pkg/domain-errors"
	"assetledger/pkg/platform/sentinel"
	"assetledger/pkg/platform/tx"
	"assetledger/pkg/requestcontext"
)

// Service handles asset registration and read access to the registry.
type Service struct {
	assets    store.Store
	ledger    ledgerstore.Store
	allocator *identifier.Allocator
	boundary  tx.Boundary
	logger    *slog.Logger
}

// NewService wires the asset service.
func NewService(assets store.Store, ledger ledgerstore.Store, allocator *identifier.Allocator, boundary tx.Boundary, logger *slog.Logger) *Service {
	return &Service{
		assets:    assets,
		ledger:    ledger,
		allocator: allocator,
		boundary:  boundary,
		logger:    logger,
	}
}

// RegisterInput describes one intake run: count identical items of one
// category arriving together. SerialNumbers is optional; when present it must
// carry exactly one entry per item.
type RegisterInput struct {
	CategoryCode  string
	Count         int
	Condition     domain.Condition
	SerialNumbers []string
	Notes         string
}

// RegisterBatch allocates a run of identifiers and creates the corresponding
// intake-stage assets. The allocation joins the same boundary as the creates,
// so a failure anywhere rolls the whole run back, sequence numbers included.
func (s *Service) RegisterBatch(ctx context.Context, in RegisterInput) ([]*models.Asset, error) {
	if actor := requestcontext.Actor(ctx); actor == "" {
		return nil, dErrors.New(dErrors.CodeMissingPrecondition, "an authenticated actor is required")
	}
	if in.Count < 1 {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "count must be at least 1")
	}
	if len(in.SerialNumbers) != 0 && len(in.SerialNumbers) != in.Count {
		return nil, dErrors.Newf(dErrors.CodeInvalidInput,
			"got %d serial numbers for %d items", len(in.SerialNumbers), in.Count)
	}

	var created []*models.Asset
	err := s.boundary.RunInTx(ctx, func(ctx context.Context) error {
		ids, err := s.allocator.Allocate(ctx, in.CategoryCode, in.Count)
		if err != nil {
			return err
		}
		now := requestcontext.Now(ctx)
		out := make([]*models.Asset, 0, in.Count)
		for i, id := range ids {
			serial := ""
			if len(in.SerialNumbers) > 0 {
				serial = in.SerialNumbers[i]
			}
			a, err := models.NewAsset(id, in.CategoryCode, serial, in.Condition, in.Notes, now)
			if err != nil {
				return err
			}
			if err := s.assets.Create(ctx, a); err != nil {
				if errors.Is(err, sentinel.ErrConflict) {
					return dErrors.Wrap(err, dErrors.CodeConflict, "identifier already registered")
				}
				return dErrors.Wrap(err, dErrors.CodeStorage, "create asset")
			}
			out = append(out, a)
		}
		created = out
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "intake batch registered",
		slog.String("category", in.CategoryCode),
		slog.Int("count", len(created)),
		slog.String("first_id", string(created[0].ID)),
	)
	return created, nil
}

// Get returns one asset snapshot.
func (s *Service) Get(ctx context.Context, id domain.AssetID) (*models.Asset, error) {
	a, err := s.assets.Get(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.Newf(dErrors.CodeNotFound, "asset %s not found", id)
		}
		return nil, dErrors.Wrap(err, dErrors.CodeStorage, "load asset")
	}
	return a, nil
}

// List queries the registry. Results come back in ID order.
func (s *Service) List(ctx context.Context, f store.Filter) ([]*models.Asset, error) {
	out, err := s.assets.Query(ctx, f)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeStorage, "query assets")
	}
	return out, nil
}

// History returns the asset's full transition ledger, oldest first.
func (s *Service) History(ctx context.Context, id domain.AssetID) ([]*ledgermodels.TransitionRecord, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	recs, err := s.ledger.ListByAsset(ctx, id)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeStorage, "load transition history")
	}
	return recs, nil
}
