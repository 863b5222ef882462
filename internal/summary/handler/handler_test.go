package handler

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"

	assetmodels "assetledger/internal/asset/models"
	assetstore "assetledger/internal/asset/store"
	"assetledger/internal/catalog"
	artifactstore "assetledger/internal/certificate/store"
	"assetledger/internal/export"
	ledgerstore "assetledger/internal/ledger/store"
	"assetledger/internal/summary"
	"assetledger/pkg/domain"
	"assetledger/pkg/platform/tx"
	"assetledger/pkg/requestcontext"
)

var testTime = time.Date(2025, 1, 7, 17, 0, 0, 0, time.UTC)

type SummaryHandlerSuite struct {
	suite.Suite

	assets *assetstore.InMemoryStore
	router http.Handler
}

func TestSummaryHandlerSuite(t *testing.T) {
	suite.Run(t, new(SummaryHandlerSuite))
}

func (s *SummaryHandlerSuite) SetupTest() {
	cat, err := catalog.New(catalog.Defaults())
	s.Require().NoError(err)

	s.assets = assetstore.NewInMemory()
	ledger := ledgerstore.NewInMemory()
	artifacts := artifactstore.NewInMemory()
	boundary := tx.NewMemoryRunner()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	svc := summary.NewService(s.assets, artifacts, cat, boundary)
	exporter := export.NewExporter(s.assets, ledger, artifacts, cat, boundary)

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			ctx := requestcontext.WithActor(req.Context(), "j.smith")
			ctx = requestcontext.WithTime(ctx, testTime)
			next.ServeHTTP(w, req.WithContext(ctx))
		})
	})
	New(svc, exporter, logger).Register(r)
	s.router = r
}

func (s *SummaryHandlerSuite) seed(id, category string, stage domain.Stage) {
	a, err := assetmodels.NewAsset(domain.AssetID(id), category, "", domain.ConditionUsedGood, "", testTime.Add(-time.Hour))
	s.Require().NoError(err)
	a.Stage = stage
	s.Require().NoError(s.assets.Create(context.Background(), a))
}

func (s *SummaryHandlerSuite) TestSummary() {
	s.seed("CAB-20250107-0001", "cabinet", domain.StageIntake)
	s.seed("TMU-20250107-0001", "tablet_mixed_used", domain.StageDestroyed)

	req := httptest.NewRequest(http.MethodGet, "/summary", nil)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	s.Require().Equal(http.StatusOK, w.Code)

	var sum summary.Summary
	s.Require().NoError(json.NewDecoder(w.Body).Decode(&sum))
	s.Equal(2, sum.TotalAssets)
	s.Equal(1, sum.ByStage[domain.StageDestroyed])
	s.Len(sum.DestroyedUncertified, 1)
}

func (s *SummaryHandlerSuite) TestIntakeLogExport() {
	s.seed("CAB-20250107-0001", "cabinet", domain.StageIntake)

	req := httptest.NewRequest(http.MethodGet, "/exports/intake-log", nil)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	s.Require().Equal(http.StatusOK, w.Code)
	s.Equal("text/csv", w.Header().Get("Content-Type"))

	lines := strings.Split(strings.TrimSpace(w.Body.String()), "\n")
	s.Require().Len(lines, 2)
	s.Contains(lines[0], "Asset ID")
	s.Contains(lines[1], "CAB-20250107-0001")
}

func (s *SummaryHandlerSuite) TestIntakeLogRejectsBadFilter() {
	req := httptest.NewRequest(http.MethodGet, "/exports/intake-log?stage=vanished", nil)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	s.Equal(http.StatusBadRequest, w.Code)
}
