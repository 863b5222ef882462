package lifecycle

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	assetmodels "assetledger/internal/asset/models"
	assetstore "assetledger/internal/asset/store"
	"assetledger/internal/catalog"
	ledgerstore "assetledger/internal/ledger/store"
	"assetledger/pkg/domain"
	dErrors "assetledger/pkg/domain-errors"
	"assetledger/pkg/platform/tx"
	"assetledger/pkg/requestcontext"
)

var testTime = time.Date(2025, 1, 7, 14, 0, 0, 0, time.UTC)

type LifecycleSuite struct {
	suite.Suite
	assets  *assetstore.InMemoryStore
	ledger  *ledgerstore.InMemoryStore
	service *Service
	ctx     context.Context
}

func TestLifecycleSuite(t *testing.T) {
	suite.Run(t, new(LifecycleSuite))
}

func (s *LifecycleSuite) SetupTest() {
	cat, err := catalog.New(catalog.Defaults())
	s.Require().NoError(err)
	s.assets = assetstore.NewInMemory()
	s.ledger = ledgerstore.NewInMemory()
	s.service = NewService(s.assets, s.ledger, NewMachine(cat), tx.NewMemoryRunner(),
		slog.New(slog.NewTextHandler(io.Discard, nil)))

	ctx := requestcontext.WithActor(context.Background(), "j.smith")
	s.ctx = requestcontext.WithTime(ctx, testTime)
}

// seed creates an asset directly in the registry at the given stage.
func (s *LifecycleSuite) seed(id domain.AssetID, categoryCode string, stage domain.Stage) {
	a, err := assetmodels.NewAsset(id, categoryCode, "", domain.ConditionUsedGood, "", testTime)
	s.Require().NoError(err)
	a.Stage = stage
	s.Require().NoError(s.assets.Create(s.ctx, a))
}

func (s *LifecycleSuite) stageOf(id domain.AssetID) domain.Stage {
	a, err := s.assets.Get(s.ctx, id)
	s.Require().NoError(err)
	return a.Stage
}

func (s *LifecycleSuite) TestApplyCommitsSnapshotAndLedgerTogether() {
	s.seed("CAB-20250107-0001", "cabinet", domain.StageIntake)

	rec, err := s.service.Apply(s.ctx, TransitionInput{
		AssetID: "CAB-20250107-0001",
		Target:  domain.StageDestructionPending,
		Notes:   "staged for shredder",
	})
	s.Require().NoError(err)
	s.Equal(domain.StageIntake, rec.FromStage)
	s.Equal(domain.StageDestructionPending, rec.ToStage)
	s.Equal("j.smith", rec.Actor)
	s.Equal(testTime, rec.RecordedAt)

	s.Equal(domain.StageDestructionPending, s.stageOf("CAB-20250107-0001"))

	history, err := s.ledger.ListByAsset(s.ctx, "CAB-20250107-0001")
	s.Require().NoError(err)
	s.Require().Len(history, 1)
	s.Equal(rec.ID, history[0].ID)
}

func (s *LifecycleSuite) TestApplySkippingStagesIsRejected() {
	s.seed("CAB-20250107-0001", "cabinet", domain.StageIntake)

	_, err := s.service.Apply(s.ctx, TransitionInput{
		AssetID: "CAB-20250107-0001",
		Target:  domain.StageDestroyed,
		Method:  domain.MethodShredding,
	})
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeIllegalTransition))

	// A rejected transition leaves both views untouched.
	s.Equal(domain.StageIntake, s.stageOf("CAB-20250107-0001"))
	history, err := s.ledger.ListByAsset(s.ctx, "CAB-20250107-0001")
	s.Require().NoError(err)
	s.Empty(history)
}

func (s *LifecycleSuite) TestDataBearingAssetsCannotSkipSanitisation() {
	s.seed("TMU-20250107-0001", "tablet_mixed_used", domain.StageIntake)

	_, err := s.service.Apply(s.ctx, TransitionInput{
		AssetID: "TMU-20250107-0001",
		Target:  domain.StageDestructionPending,
	})
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeIllegalTransition))

	// New boxed tablets hold no data and may go straight to destruction.
	s.seed("T10N-20250107-0001", "tablet_10_new", domain.StageIntake)
	_, err = s.service.Apply(s.ctx, TransitionInput{
		AssetID: "T10N-20250107-0001",
		Target:  domain.StageDestructionPending,
	})
	s.Require().NoError(err)
}

func (s *LifecycleSuite) TestWipeRequiresApprovedMethod() {
	s.seed("T10N-20250107-0001", "tablet_10_new", domain.StageWipePending)

	_, err := s.service.Apply(s.ctx, TransitionInput{
		AssetID: "T10N-20250107-0001",
		Target:  domain.StageWiped,
	})
	s.True(dErrors.HasCode(err, dErrors.CodeMissingPrecondition))

	_, err = s.service.Apply(s.ctx, TransitionInput{
		AssetID: "T10N-20250107-0001",
		Target:  domain.StageWiped,
		Method:  domain.MethodShredding,
	})
	s.True(dErrors.HasCode(err, dErrors.CodeMissingPrecondition))

	rec, err := s.service.Apply(s.ctx, TransitionInput{
		AssetID: "T10N-20250107-0001",
		Target:  domain.StageWiped,
		Method:  domain.MethodWipeNIST80088,
	})
	s.Require().NoError(err)
	s.Equal(domain.MethodWipeNIST80088, rec.Method)
}

func (s *LifecycleSuite) TestCabinetDestructionRequiresLabelRemoval() {
	s.seed("CAB-20250107-0001", "cabinet", domain.StageDestructionPending)

	_, err := s.service.Apply(s.ctx, TransitionInput{
		AssetID: "CAB-20250107-0001",
		Target:  domain.StageDestroyed,
		Method:  domain.MethodShredding,
	})
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeMissingPrecondition))

	a, err := s.service.MarkLabelRemoved(s.ctx, "CAB-20250107-0001")
	s.Require().NoError(err)
	s.True(a.LabelRemoved)

	_, err = s.service.Apply(s.ctx, TransitionInput{
		AssetID: "CAB-20250107-0001",
		Target:  domain.StageDestroyed,
		Method:  domain.MethodShredding,
	})
	s.Require().NoError(err)
	s.Equal(domain.StageDestroyed, s.stageOf("CAB-20250107-0001"))
}

func (s *LifecycleSuite) TestApplyRequiresActor() {
	s.seed("CAB-20250107-0001", "cabinet", domain.StageIntake)

	ctx := requestcontext.WithTime(context.Background(), testTime)
	_, err := s.service.Apply(ctx, TransitionInput{
		AssetID: "CAB-20250107-0001",
		Target:  domain.StageDestructionPending,
	})
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeMissingPrecondition))
}

func (s *LifecycleSuite) TestApplyUnknownAsset() {
	_, err := s.service.Apply(s.ctx, TransitionInput{
		AssetID: "CAB-20250107-0042",
		Target:  domain.StageDestructionPending,
	})
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *LifecycleSuite) TestCorrectSupersedesWithoutRewritingHistory() {
	s.seed("REM-20250107-0001", "remote_kit", domain.StageIntake)

	// Technician scans the wrong disposition.
	wrong, err := s.service.Apply(s.ctx, TransitionInput{
		AssetID: "REM-20250107-0001",
		Target:  domain.StageRecycled,
	})
	s.Require().NoError(err)

	fixed, err := s.service.Correct(s.ctx, CorrectionInput{
		AssetID:    "REM-20250107-0001",
		Target:     domain.StageDonated,
		Supersedes: wrong.ID,
		Reason:     "scanned recycle instead of donate",
	})
	s.Require().NoError(err)
	s.Require().NotNil(fixed.Supersedes)
	s.Equal(wrong.ID, *fixed.Supersedes)
	s.Equal(domain.StageDonated, s.stageOf("REM-20250107-0001"))

	// The superseded entry is still in the ledger, unmodified.
	history, err := s.ledger.ListByAsset(s.ctx, "REM-20250107-0001")
	s.Require().NoError(err)
	s.Require().Len(history, 2)
	s.Equal(wrong.ID, history[0].ID)
	s.Nil(history[0].Supersedes)
}

func (s *LifecycleSuite) TestCorrectRequiresReasonAndMatchingAsset() {
	s.seed("REM-20250107-0001", "remote_kit", domain.StageIntake)
	s.seed("REM-20250107-0002", "remote_kit", domain.StageIntake)

	rec, err := s.service.Apply(s.ctx, TransitionInput{
		AssetID: "REM-20250107-0001",
		Target:  domain.StageRecycled,
	})
	s.Require().NoError(err)

	_, err = s.service.Correct(s.ctx, CorrectionInput{
		AssetID:    "REM-20250107-0001",
		Target:     domain.StageDonated,
		Supersedes: rec.ID,
	})
	s.True(dErrors.HasCode(err, dErrors.CodeMissingPrecondition))

	_, err = s.service.Correct(s.ctx, CorrectionInput{
		AssetID:    "REM-20250107-0002",
		Target:     domain.StageDonated,
		Supersedes: rec.ID,
		Reason:     "wrong asset",
	})
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
}
