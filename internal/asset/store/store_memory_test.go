package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"assetledger/internal/asset/models"
	"assetledger/pkg/domain"
	"assetledger/pkg/platform/sentinel"
)

type MemoryStoreSuite struct {
	suite.Suite
	store *InMemoryStore
	now   time.Time
}

func TestMemoryStoreSuite(t *testing.T) {
	suite.Run(t, new(MemoryStoreSuite))
}

func (s *MemoryStoreSuite) SetupTest() {
	s.store = NewInMemory()
	s.now = time.Date(2025, 1, 7, 10, 0, 0, 0, time.UTC)
}

func (s *MemoryStoreSuite) newAsset(id string, category string) *models.Asset {
	a, err := models.NewAsset(domain.AssetID(id), category, "", domain.ConditionUsedGood, "", s.now)
	s.Require().NoError(err)
	return a
}

func (s *MemoryStoreSuite) TestCreateAndGet() {
	ctx := context.Background()
	a := s.newAsset("CAB-20250107-0001", "cabinet")
	s.Require().NoError(s.store.Create(ctx, a))

	got, err := s.store.Get(ctx, a.ID)
	s.Require().NoError(err)
	s.Equal(a.ID, got.ID)
	s.Equal(domain.StageIntake, got.Stage)

	// Mutating the returned copy must not leak into the store.
	got.Stage = domain.StageDestroyed
	again, err := s.store.Get(ctx, a.ID)
	s.Require().NoError(err)
	s.Equal(domain.StageIntake, again.Stage)
}

func (s *MemoryStoreSuite) TestCreateConflict() {
	ctx := context.Background()
	a := s.newAsset("CAB-20250107-0001", "cabinet")
	s.Require().NoError(s.store.Create(ctx, a))
	err := s.store.Create(ctx, a)
	s.Require().ErrorIs(err, sentinel.ErrConflict)
}

func (s *MemoryStoreSuite) TestGetNotFound() {
	_, err := s.store.Get(context.Background(), "CAB-20250107-0099")
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}

func (s *MemoryStoreSuite) TestPutRequiresExisting() {
	ctx := context.Background()
	a := s.newAsset("REM-20250107-0001", "remote_kit")
	s.Require().ErrorIs(s.store.Put(ctx, a), sentinel.ErrNotFound)

	s.Require().NoError(s.store.Create(ctx, a))
	a.ApplyStage(domain.StageDestructionPending, s.now.Add(time.Hour))
	s.Require().NoError(s.store.Put(ctx, a))

	got, err := s.store.Get(ctx, a.ID)
	s.Require().NoError(err)
	s.Equal(domain.StageDestructionPending, got.Stage)
}

func (s *MemoryStoreSuite) TestQueryFilters() {
	ctx := context.Background()
	cab := s.newAsset("CAB-20250107-0001", "cabinet")
	tmu1 := s.newAsset("TMU-20250107-0001", "tablet_mixed_used")
	tmu2 := s.newAsset("TMU-20250107-0002", "tablet_mixed_used")
	tmu2.Condition = domain.ConditionUsedPoor
	for _, a := range []*models.Asset{tmu2, cab, tmu1} {
		s.Require().NoError(s.store.Create(ctx, a))
	}

	all, err := s.store.Query(ctx, Filter{})
	s.Require().NoError(err)
	s.Len(all, 3)
	// Sorted by ID for deterministic batch ordering.
	s.Equal(domain.AssetID("CAB-20250107-0001"), all[0].ID)

	tablets, err := s.store.Query(ctx, Filter{CategoryCode: "tablet_mixed_used"})
	s.Require().NoError(err)
	s.Len(tablets, 2)

	poor, err := s.store.Query(ctx, Filter{Condition: domain.ConditionUsedPoor})
	s.Require().NoError(err)
	s.Len(poor, 1)

	byIDs, err := s.store.Query(ctx, Filter{IDs: []domain.AssetID{cab.ID, tmu2.ID}})
	s.Require().NoError(err)
	s.Len(byIDs, 2)

	none, err := s.store.Query(ctx, Filter{IntakeFrom: s.now.Add(time.Hour)})
	s.Require().NoError(err)
	s.Empty(none)
}
