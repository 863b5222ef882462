package service

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"assetledger/internal/asset/store"
	"assetledger/internal/catalog"
	"assetledger/internal/identifier"
	ledgerstore "assetledger/internal/ledger/store"
	"assetledger/pkg/domain"
	dErrors "assetledger/pkg/domain-errors"
	"assetledger/pkg/platform/tx"
	"assetledger/pkg/requestcontext"
)

var testTime = time.Date(2025, 1, 7, 9, 0, 0, 0, time.UTC)

type AssetServiceSuite struct {
	suite.Suite
	assets  *store.InMemoryStore
	service *Service
	ctx     context.Context
}

func TestAssetServiceSuite(t *testing.T) {
	suite.Run(t, new(AssetServiceSuite))
}

func (s *AssetServiceSuite) SetupTest() {
	cat, err := catalog.New(catalog.Defaults())
	s.Require().NoError(err)
	s.assets = store.NewInMemory()
	allocator := identifier.NewAllocator(cat, identifier.NewInMemorySequenceStore())
	s.service = NewService(s.assets, ledgerstore.NewInMemory(), allocator, tx.NewMemoryRunner(),
		slog.New(slog.NewTextHandler(io.Discard, nil)))

	ctx := requestcontext.WithActor(context.Background(), "j.smith")
	s.ctx = requestcontext.WithTime(ctx, testTime)
}

func (s *AssetServiceSuite) TestRegisterBatchAssignsOrderedIDs() {
	created, err := s.service.RegisterBatch(s.ctx, RegisterInput{
		CategoryCode: "cabinet",
		Count:        3,
		Condition:    domain.ConditionUsedGood,
	})
	s.Require().NoError(err)
	s.Require().Len(created, 3)
	s.Equal(domain.AssetID("CAB-20250107-0001"), created[0].ID)
	s.Equal(domain.AssetID("CAB-20250107-0003"), created[2].ID)

	for _, a := range created {
		s.Equal(domain.StageIntake, a.Stage)
		s.Equal(testTime, a.IntakeAt)

		stored, err := s.assets.Get(s.ctx, a.ID)
		s.Require().NoError(err)
		s.Equal(a.ID, stored.ID)
	}
}

func (s *AssetServiceSuite) TestRegisterBatchCarriesSerialNumbers() {
	created, err := s.service.RegisterBatch(s.ctx, RegisterInput{
		CategoryCode:  "tablet_10_new",
		Count:         2,
		Condition:     domain.ConditionNewSealed,
		SerialNumbers: []string{"SN-001", "SN-002"},
	})
	s.Require().NoError(err)
	s.Equal("SN-001", created[0].SerialNumber)
	s.Equal("SN-002", created[1].SerialNumber)
}

func (s *AssetServiceSuite) TestRegisterBatchSerialCountMismatch() {
	_, err := s.service.RegisterBatch(s.ctx, RegisterInput{
		CategoryCode:  "tablet_10_new",
		Count:         3,
		SerialNumbers: []string{"SN-001"},
	})
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
}

func (s *AssetServiceSuite) TestRegisterBatchUnknownCategory() {
	_, err := s.service.RegisterBatch(s.ctx, RegisterInput{CategoryCode: "furniture", Count: 1})
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
}

func (s *AssetServiceSuite) TestRegisterBatchRequiresActor() {
	ctx := requestcontext.WithTime(context.Background(), testTime)
	_, err := s.service.RegisterBatch(ctx, RegisterInput{CategoryCode: "cabinet", Count: 1})
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeMissingPrecondition))
}

func (s *AssetServiceSuite) TestGetUnknownAsset() {
	_, err := s.service.Get(s.ctx, "CAB-20250107-0099")
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *AssetServiceSuite) TestListFiltersByCategory() {
	_, err := s.service.RegisterBatch(s.ctx, RegisterInput{CategoryCode: "cabinet", Count: 2})
	s.Require().NoError(err)
	_, err = s.service.RegisterBatch(s.ctx, RegisterInput{CategoryCode: "remote_kit", Count: 1})
	s.Require().NoError(err)

	cabinets, err := s.service.List(s.ctx, store.Filter{CategoryCode: "cabinet"})
	s.Require().NoError(err)
	s.Len(cabinets, 2)

	all, err := s.service.List(s.ctx, store.Filter{})
	s.Require().NoError(err)
	s.Len(all, 3)
}
