package handler

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"

	assetservice "assetledger/internal/asset/service"
	assetstore "assetledger/internal/asset/store"
	"assetledger/internal/catalog"
	"assetledger/internal/identifier"
	ledgerstore "assetledger/internal/ledger/store"
	"assetledger/internal/platform/metrics"
	"assetledger/pkg/platform/tx"
	"assetledger/pkg/requestcontext"
)

// Registered once per test binary; promauto panics on duplicates.
var testMetrics = metrics.New()

var testTime = time.Date(2025, 1, 7, 14, 0, 0, 0, time.UTC)

type AssetHandlerSuite struct {
	suite.Suite

	router http.Handler
}

func TestAssetHandlerSuite(t *testing.T) {
	suite.Run(t, new(AssetHandlerSuite))
}

func (s *AssetHandlerSuite) SetupTest() {
	cat, err := catalog.New(catalog.Defaults())
	s.Require().NoError(err)

	assets := assetstore.NewInMemory()
	ledger := ledgerstore.NewInMemory()
	allocator := identifier.NewAllocator(cat, identifier.NewInMemorySequenceStore())
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := assetservice.NewService(assets, ledger, allocator, tx.NewMemoryRunner(), logger)

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			ctx := requestcontext.WithActor(req.Context(), "j.smith")
			ctx = requestcontext.WithTime(ctx, testTime)
			next.ServeHTTP(w, req.WithContext(ctx))
		})
	})
	New(svc, logger, testMetrics).Register(r)
	s.router = r
}

func (s *AssetHandlerSuite) do(method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		s.Require().NoError(json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *AssetHandlerSuite) TestRegisterCreatesOrderedRun() {
	w := s.do(http.MethodPost, "/assets", map[string]any{
		"category": "cabinet",
		"count":    2,
	})
	s.Require().Equal(http.StatusCreated, w.Code)

	var resp RegisterResponse
	s.Require().NoError(json.NewDecoder(w.Body).Decode(&resp))
	s.Require().Len(resp.Assets, 2)
	s.Equal("CAB-20250107-0001", string(resp.Assets[0].ID))
	s.Equal("CAB-20250107-0002", string(resp.Assets[1].ID))
	s.Equal("intake", string(resp.Assets[0].Stage))
}

func (s *AssetHandlerSuite) TestRegisterRejectsZeroCount() {
	w := s.do(http.MethodPost, "/assets", map[string]any{
		"category": "cabinet",
		"count":    0,
	})
	s.Equal(http.StatusBadRequest, w.Code)
	s.Contains(w.Body.String(), "invalid_input")
}

func (s *AssetHandlerSuite) TestRegisterRejectsMalformedBody() {
	req := httptest.NewRequest(http.MethodPost, "/assets", bytes.NewBufferString("{nope"))
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	s.Equal(http.StatusBadRequest, w.Code)
	s.Contains(w.Body.String(), "bad_request")
}

func (s *AssetHandlerSuite) TestGetUnknownAsset() {
	w := s.do(http.MethodGet, "/assets/CAB-20250107-0042", nil)
	s.Equal(http.StatusNotFound, w.Code)
}

func (s *AssetHandlerSuite) TestGetMalformedID() {
	w := s.do(http.MethodGet, "/assets/not-an-id", nil)
	s.Equal(http.StatusBadRequest, w.Code)
}

func (s *AssetHandlerSuite) TestListFiltersByCategory() {
	s.Require().Equal(http.StatusCreated, s.do(http.MethodPost, "/assets", map[string]any{
		"category": "cabinet", "count": 2,
	}).Code)
	s.Require().Equal(http.StatusCreated, s.do(http.MethodPost, "/assets", map[string]any{
		"category": "remote_kit", "count": 1,
	}).Code)

	w := s.do(http.MethodGet, "/assets?category=cabinet", nil)
	s.Require().Equal(http.StatusOK, w.Code)

	var resp ListResponse
	s.Require().NoError(json.NewDecoder(w.Body).Decode(&resp))
	s.Equal(2, resp.Count)
	for _, a := range resp.Assets {
		s.Equal("cabinet", a.CategoryCode)
	}
}

func (s *AssetHandlerSuite) TestListRejectsUnknownStage() {
	w := s.do(http.MethodGet, "/assets?stage=vanished", nil)
	s.Equal(http.StatusBadRequest, w.Code)
}

func (s *AssetHandlerSuite) TestHistoryOfFreshAssetIsEmpty() {
	s.Require().Equal(http.StatusCreated, s.do(http.MethodPost, "/assets", map[string]any{
		"category": "cabinet", "count": 1,
	}).Code)

	w := s.do(http.MethodGet, "/assets/CAB-20250107-0001/history", nil)
	s.Require().Equal(http.StatusOK, w.Code)

	var resp HistoryResponse
	s.Require().NoError(json.NewDecoder(w.Body).Decode(&resp))
	s.Equal("CAB-20250107-0001", string(resp.AssetID))
	s.Empty(resp.Records)
}
