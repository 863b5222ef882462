package store

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"assetledger/internal/ledger/models"
	"assetledger/pkg/domain"
	"assetledger/pkg/platform/sentinel"
)

type LedgerMemorySuite struct {
	suite.Suite
	store *InMemoryStore
}

func TestLedgerMemorySuite(t *testing.T) {
	suite.Run(t, new(LedgerMemorySuite))
}

func (s *LedgerMemorySuite) SetupTest() {
	s.store = NewInMemory()
}

func (s *LedgerMemorySuite) record(assetID string, from, to domain.Stage, at time.Time) *models.TransitionRecord {
	rec, err := models.NewTransitionRecord(domain.AssetID(assetID), from, to, "j.smith", "", "", at)
	s.Require().NoError(err)
	return rec
}

func (s *LedgerMemorySuite) TestAppendPreservesPerAssetOrder() {
	ctx := context.Background()
	t0 := time.Date(2025, 1, 7, 9, 0, 0, 0, time.UTC)

	r1 := s.record("TMU-20250107-0001", domain.StageIntake, domain.StageWipePending, t0)
	r2 := s.record("TMU-20250107-0001", domain.StageWipePending, domain.StageWiped, t0.Add(time.Hour))
	r3 := s.record("CAB-20250107-0001", domain.StageIntake, domain.StageDestructionPending, t0.Add(time.Minute))
	for _, r := range []*models.TransitionRecord{r1, r3, r2} {
		s.Require().NoError(s.store.Append(ctx, r))
	}

	recs, err := s.store.ListByAsset(ctx, "TMU-20250107-0001")
	s.Require().NoError(err)
	s.Require().Len(recs, 2)
	s.Equal(domain.StageWipePending, recs[0].ToStage)
	s.Equal(domain.StageWiped, recs[1].ToStage)

	all, err := s.store.ListAll(ctx)
	s.Require().NoError(err)
	s.Len(all, 3)
}

func (s *LedgerMemorySuite) TestFindByID() {
	ctx := context.Background()
	rec := s.record("REM-20250107-0001", domain.StageIntake, domain.StageDestructionPending, time.Now().UTC())
	s.Require().NoError(s.store.Append(ctx, rec))

	got, err := s.store.FindByID(ctx, rec.ID)
	s.Require().NoError(err)
	s.Equal(rec.AssetID, got.AssetID)

	_, err = s.store.FindByID(ctx, uuid.New())
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}

func (s *LedgerMemorySuite) TestReturnedRecordsAreCopies() {
	ctx := context.Background()
	rec := s.record("REM-20250107-0001", domain.StageIntake, domain.StageDestructionPending, time.Now().UTC())
	s.Require().NoError(s.store.Append(ctx, rec))

	recs, err := s.store.ListByAsset(ctx, rec.AssetID)
	s.Require().NoError(err)
	recs[0].Actor = "tampered"

	again, err := s.store.FindByID(ctx, rec.ID)
	s.Require().NoError(err)
	s.Equal("j.smith", again.Actor)
}

func (s *LedgerMemorySuite) TestActorIsMandatory() {
	_, err := models.NewTransitionRecord("REM-20250107-0001", domain.StageIntake, domain.StageDestructionPending, "", "", "", time.Now().UTC())
	s.Require().Error(err)
}
