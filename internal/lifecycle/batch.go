package lifecycle

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	assetmodels "assetledger/internal/asset/models"
	assetstore "assetledger/internal/asset/store"
	ledgermodels "assetledger/internal/ledger/models"
	"assetledger/pkg/domain"
	dErrors "assetledger/pkg/domain-errors"
	"assetledger/pkg/requestcontext"
)

// Selector picks the members of a batch. Explicit IDs and attribute filters
// may be combined; all set fields are ANDed.
type Selector struct {
	IDs          []domain.AssetID
	CategoryCode string
	Condition    domain.Condition
	Stage        domain.Stage
	IntakeFrom   time.Time
	IntakeTo     time.Time
}

// Filter converts the selector to a registry query.
func (sel Selector) Filter() assetstore.Filter {
	return assetstore.Filter{
		IDs:          sel.IDs,
		CategoryCode: sel.CategoryCode,
		Condition:    sel.Condition,
		Stage:        sel.Stage,
		IntakeFrom:   sel.IntakeFrom,
		IntakeTo:     sel.IntakeTo,
	}
}

// MemberFailure names one batch member that could not transition and why.
type MemberFailure struct {
	AssetID domain.AssetID `json:"asset_id"`
	Reason  string         `json:"reason"`
}

// BatchResult reports the outcome of a batch transition. Succeeded lists the
// committed members in ID order; Failed enumerates every ineligible member so
// operators never have to retry blind.
type BatchResult struct {
	Target    domain.Stage                    `json:"target"`
	AppliedAt time.Time                       `json:"applied_at"`
	Succeeded []domain.AssetID                `json:"succeeded"`
	Failed    []MemberFailure                 `json:"failed,omitempty"`
	Records   []*ledgermodels.TransitionRecord `json:"-"`
}

// BatchError is returned when an all-or-nothing batch is rejected. It carries
// every failing member, not just the first.
type BatchError struct {
	Failures []MemberFailure
}

func (e *BatchError) Error() string {
	return fmt.Sprintf("%d batch member(s) ineligible", len(e.Failures))
}

// BatchInput describes one batch transition request.
type BatchInput struct {
	Selector Selector
	Target   domain.Stage
	Method   domain.Method
	Notes    string

	// PartialAllowed commits the eligible subset and reports the rest as
	// failed. When false, one ineligible member rejects the whole batch and
	// nothing is committed.
	PartialAllowed bool
}

// ApplyBatch transitions every selected asset to the target stage under one
// transaction boundary. Members are locked in ascending ID order and every
// committed record carries the same timestamp.
//
// Errors:
//   - CodeNotFound when the selector matches no assets
//   - CodeBatchPartialFailure (wrapping *BatchError) when PartialAllowed is
//     false and any member fails validation; nothing is committed
func (s *Service) ApplyBatch(ctx context.Context, in BatchInput) (*BatchResult, error) {
	actor := requestcontext.Actor(ctx)
	if actor == "" {
		return nil, dErrors.New(dErrors.CodeMissingPrecondition, "an authenticated actor is required")
	}
	if !in.Target.IsValid() {
		return nil, dErrors.Newf(dErrors.CodeInvalidInput, "unknown stage %q", in.Target)
	}

	var result *BatchResult
	err := s.boundary.RunInTx(ctx, func(ctx context.Context) error {
		matched, err := s.assets.Query(ctx, in.Selector.Filter())
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeStorage, "resolve batch selector")
		}

		now := requestcontext.Now(ctx)
		res := &BatchResult{Target: in.Target, AppliedAt: now}

		// Explicitly named members that the registry does not hold are
		// failures, not silent narrowing of the batch.
		res.Failed = append(res.Failed, missingMembers(in.Selector.IDs, matched)...)
		if len(matched) == 0 && len(res.Failed) == 0 {
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

		// Validate everything before mutating anything: the eligible set is
		// final before the first write, so a rejection leaves no trace.
		type staged struct {
			asset *assetmodels.Asset
			rec   *ledgermodels.TransitionRecord
		}
		var eligible []staged
		for _, id := range ids {
			a, err := s.assets.Get(ctx, id)
			if err != nil {
				res.Failed = append(res.Failed, MemberFailure{AssetID: id, Reason: assetStoreErr(err, id).Error()})
				continue
			}
			if err := s.machine.Validate(a, in.Target, in.Method); err != nil {
				res.Failed = append(res.Failed, MemberFailure{AssetID: id, Reason: err.Error()})
				continue
			}
			rec, err := ledgermodels.NewTransitionRecord(a.ID, a.Stage, in.Target, actor, in.Method, in.Notes, now)
			if err != nil {
				return err
			}
			eligible = append(eligible, staged{asset: a, rec: rec})
		}

		if len(res.Failed) > 0 && !in.PartialAllowed {
			return dErrors.Wrap(&BatchError{Failures: res.Failed},
				dErrors.CodeBatchPartialFailure, "batch rejected")
		}

		for _, m := range eligible {
			m.asset.ApplyStage(in.Target, now)
			if err := s.assets.Put(ctx, m.asset); err != nil {
				return dErrors.Wrap(err, dErrors.CodeStorage, "update asset snapshot")
			}
			if err := s.ledger.Append(ctx, m.rec); err != nil {
				return dErrors.Wrap(err, dErrors.CodeStorage, "append transition record")
			}
			res.Succeeded = append(res.Succeeded, m.asset.ID)
			res.Records = append(res.Records, m.rec)
		}
		result = res
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "batch transition applied",
		slog.String("target", string(in.Target)),
		slog.Int("succeeded", len(result.Succeeded)),
		slog.Int("failed", len(result.Failed)),
		slog.String("actor", actor),
	)
	return result, nil
}

// missingMembers reports every explicitly selected ID absent from the
// resolved set, in selector order.
func missingMembers(wanted []domain.AssetID, matched []*assetmodels.Asset) []MemberFailure {
	if len(wanted) == 0 {
		return nil
	}
	found := make(map[domain.AssetID]struct{}, len(matched))
	for _, a := range matched {
		found[a.ID] = struct{}{}
	}
	var failures []MemberFailure
	for _, id := range wanted {
		if _, ok := found[id]; !ok {
			failures = append(failures, MemberFailure{
				AssetID: id,
				Reason:  fmt.Sprintf("asset %s not found by the selector", id),
			})
		}
	}
	return failures
}
