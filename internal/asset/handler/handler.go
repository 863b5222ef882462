// Package handler exposes the asset registry over HTTP.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"assetledger/internal/asset/models"
	assetservice "assetledger/internal/asset/service"
	"assetledger/internal/asset/store"
	ledgermodels "assetledger/internal/ledger/models"
	"assetledger/internal/platform/metrics"
	"assetledger/pkg/domain"
	dErrors "assetledger/pkg/domain-errors"
	"assetledger/pkg/platform/httputil"
	"assetledger/pkg/requestcontext"
)

// Service defines the interface for asset registration and reads.
type Service interface {
	RegisterBatch(ctx context.Context, in assetservice.RegisterInput) ([]*models.Asset, error)
	Get(ctx context.Context, id domain.AssetID) (*models.Asset, error)
	List(ctx context.Context, f store.Filter) ([]*models.Asset, error)
	History(ctx context.Context, id domain.AssetID) ([]*ledgermodels.TransitionRecord, error)
}

// Handler wires asset endpoints to the asset service.
type Handler struct {
	service Service
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// New constructs an asset handler with its dependencies.
func New(service Service, logger *slog.Logger, metrics *metrics.Metrics) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
		metrics: metrics,
	}
}

// Register mounts asset endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/assets", h.HandleRegister)
	r.Get("/assets", h.HandleList)
	r.Get("/assets/{assetID}", h.HandleGet)
	r.Get("/assets/{assetID}/history", h.HandleHistory)
}

// HandleRegister handles POST /assets requests.
func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[RegisterRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	created, err := h.service.RegisterBatch(ctx, req.Input())
	if err != nil {
		h.logger.ErrorContext(ctx, "asset registration failed",
			"request_id", requestID,
			"category", req.Category,
			"count", req.Count,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	h.metrics.AssetsRegistered.Add(float64(len(created)))

	httputil.WriteJSON(w, http.StatusCreated, RegisterResponse{Assets: created})
}

// HandleList handles GET /assets requests.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	f, err := filterFromQuery(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	assets, err := h.service.List(ctx, f)
	if err != nil {
		h.logger.ErrorContext(ctx, "asset list failed",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, ListResponse{Assets: assets, Count: len(assets)})
}

// HandleGet handles GET /assets/{assetID} requests.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := domain.ParseAssetID(chi.URLParam(r, "assetID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	a, err := h.service.Get(ctx, id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, a)
}

// HandleHistory handles GET /assets/{assetID}/history requests.
func (h *Handler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := domain.ParseAssetID(chi.URLParam(r, "assetID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	recs, err := h.service.History(ctx, id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, HistoryResponse{AssetID: id, Records: recs})
}

// filterFromQuery builds a registry filter from list query parameters.
func filterFromQuery(r *http.Request) (store.Filter, error) {
	var f store.Filter
	q := r.URL.Query()

	f.CategoryCode = q.Get("category")
	if v := q.Get("stage"); v != "" {
		stage, err := domain.ParseStage(v)
		if err != nil {
			return store.Filter{}, err
		}
		f.Stage = stage
	}
	if v := q.Get("condition"); v != "" {
		cond, err := domain.ParseCondition(v)
		if err != nil {
			return store.Filter{}, err
		}
		f.Condition = cond
	}
	if v := q.Get("intake_from"); v != "" {
		t, err := parseQueryTime(v)
		if err != nil {
			return store.Filter{}, dErrors.New(dErrors.CodeInvalidInput, "intake_from must be RFC 3339")
		}
		f.IntakeFrom = t
	}
	if v := q.Get("intake_to"); v != "" {
		t, err := parseQueryTime(v)
		if err != nil {
			return store.Filter{}, dErrors.New(dErrors.CodeInvalidInput, "intake_to must be RFC 3339")
		}
		f.IntakeTo = t
	}
	return f, nil
}
