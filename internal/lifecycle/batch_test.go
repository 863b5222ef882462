package lifecycle

import (
	"errors"
	"fmt"

	"assetledger/pkg/domain"
	dErrors "assetledger/pkg/domain-errors"
)

// seedTablets creates n mixed-use tablets at the given stage.
func (s *LifecycleSuite) seedTablets(n int, stage domain.Stage) []domain.AssetID {
	ids := make([]domain.AssetID, n)
	for i := 0; i < n; i++ {
		id := domain.AssetID(fmt.Sprintf("TMU-20250107-%04d", i+1))
		s.seed(id, "tablet_mixed_used", stage)
		ids[i] = id
	}
	return ids
}

func (s *LifecycleSuite) TestBatchAllOrNothingRejectsOnOneIneligibleMember() {
	ids := s.seedTablets(4, domain.StageWipePending)
	s.seed("TMU-20250107-0005", "tablet_mixed_used", domain.StageIntake)
	ids = append(ids, "TMU-20250107-0005")

	_, err := s.service.ApplyBatch(s.ctx, BatchInput{
		Selector: Selector{IDs: ids},
		Target:   domain.StageWiped,
		Method:   domain.MethodWipeDoD3Pass,
	})
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeBatchPartialFailure))

	var batchErr *BatchError
	s.Require().True(errors.As(err, &batchErr))
	s.Require().Len(batchErr.Failures, 1)
	s.Equal(domain.AssetID("TMU-20250107-0005"), batchErr.Failures[0].AssetID)

	// Nothing committed: every member keeps its prior stage and the ledger
	// stays empty.
	for _, id := range ids[:4] {
		s.Equal(domain.StageWipePending, s.stageOf(id))
	}
	s.Equal(domain.StageIntake, s.stageOf("TMU-20250107-0005"))
	all, err := s.ledger.ListAll(s.ctx)
	s.Require().NoError(err)
	s.Empty(all)
}

func (s *LifecycleSuite) TestBatchPartialAllowedCommitsEligibleSubset() {
	ids := s.seedTablets(4, domain.StageWipePending)
	s.seed("TMU-20250107-0005", "tablet_mixed_used", domain.StageIntake)
	ids = append(ids, "TMU-20250107-0005")

	res, err := s.service.ApplyBatch(s.ctx, BatchInput{
		Selector:       Selector{IDs: ids},
		Target:         domain.StageWiped,
		Method:         domain.MethodWipeBlancco,
		PartialAllowed: true,
	})
	s.Require().NoError(err)
	s.Len(res.Succeeded, 4)
	s.Require().Len(res.Failed, 1)
	s.Equal(domain.AssetID("TMU-20250107-0005"), res.Failed[0].AssetID)
	s.NotEmpty(res.Failed[0].Reason)

	for _, id := range res.Succeeded {
		s.Equal(domain.StageWiped, s.stageOf(id))
	}
	s.Equal(domain.StageIntake, s.stageOf("TMU-20250107-0005"))

	// Every committed member shares one commit timestamp.
	for _, rec := range res.Records {
		s.Equal(testTime, rec.RecordedAt)
	}
}

func (s *LifecycleSuite) TestBatchUnknownMemberIsReportedNotDropped() {
	s.seed("TMU-20250107-0001", "tablet_mixed_used", domain.StageWipePending)

	_, err := s.service.ApplyBatch(s.ctx, BatchInput{
		Selector: Selector{IDs: []domain.AssetID{"TMU-20250107-0001", "TMU-20250107-9999"}},
		Target:   domain.StageWiped,
		Method:   domain.MethodWipeDoD3Pass,
	})
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeBatchPartialFailure))

	var batchErr *BatchError
	s.Require().True(errors.As(err, &batchErr))
	s.Require().Len(batchErr.Failures, 1)
	s.Equal(domain.AssetID("TMU-20250107-9999"), batchErr.Failures[0].AssetID)

	// The known member is untouched and no record was committed.
	s.Equal(domain.StageWipePending, s.stageOf("TMU-20250107-0001"))
	all, err := s.ledger.ListAll(s.ctx)
	s.Require().NoError(err)
	s.Empty(all)
}

func (s *LifecycleSuite) TestBatchPartialAllowedReportsUnknownMember() {
	s.seed("TMU-20250107-0001", "tablet_mixed_used", domain.StageWipePending)

	res, err := s.service.ApplyBatch(s.ctx, BatchInput{
		Selector:       Selector{IDs: []domain.AssetID{"TMU-20250107-0001", "TMU-20250107-9999"}},
		Target:         domain.StageWiped,
		Method:         domain.MethodWipeDoD3Pass,
		PartialAllowed: true,
	})
	s.Require().NoError(err)
	s.Equal([]domain.AssetID{"TMU-20250107-0001"}, res.Succeeded)
	s.Require().Len(res.Failed, 1)
	s.Equal(domain.AssetID("TMU-20250107-9999"), res.Failed[0].AssetID)
	s.NotEmpty(res.Failed[0].Reason)
}

func (s *LifecycleSuite) TestBatchSelectorByCategoryAndStage() {
	s.seedTablets(3, domain.StageWipePending)
	s.seed("CAB-20250107-0001", "cabinet", domain.StageIntake)

	res, err := s.service.ApplyBatch(s.ctx, BatchInput{
		Selector: Selector{CategoryCode: "tablet_mixed_used", Stage: domain.StageWipePending},
		Target:   domain.StageWiped,
		Method:   domain.MethodWipeDoD3Pass,
	})
	s.Require().NoError(err)
	s.Len(res.Succeeded, 3)
	s.Empty(res.Failed)

	// The cabinet was outside the selector and is untouched.
	s.Equal(domain.StageIntake, s.stageOf("CAB-20250107-0001"))
}

func (s *LifecycleSuite) TestBatchSucceededIsSortedByID() {
	s.seed("TMU-20250107-0003", "tablet_mixed_used", domain.StageWipePending)
	s.seed("TMU-20250107-0001", "tablet_mixed_used", domain.StageWipePending)
	s.seed("TMU-20250107-0002", "tablet_mixed_used", domain.StageWipePending)

	res, err := s.service.ApplyBatch(s.ctx, BatchInput{
		Selector: Selector{CategoryCode: "tablet_mixed_used"},
		Target:   domain.StageWiped,
		Method:   domain.MethodWipeDoD3Pass,
	})
	s.Require().NoError(err)
	s.Equal([]domain.AssetID{
		"TMU-20250107-0001",
		"TMU-20250107-0002",
		"TMU-20250107-0003",
	}, res.Succeeded)
}

func (s *LifecycleSuite) TestBatchEmptySelector() {
	_, err := s.service.ApplyBatch(s.ctx, BatchInput{
		Selector: Selector{CategoryCode: "cabinet"},
		Target:   domain.StageDestructionPending,
	})
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}
