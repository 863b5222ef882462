// Package handler exposes lifecycle transitions over HTTP.
package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	assetmodels "assetledger/internal/asset/models"
	ledgermodels "assetledger/internal/ledger/models"
	"assetledger/internal/lifecycle"
	"assetledger/internal/platform/metrics"
	"assetledger/pkg/domain"
	dErrors "assetledger/pkg/domain-errors"
	"assetledger/pkg/platform/httputil"
	"assetledger/pkg/requestcontext"
)

// Service defines the interface for lifecycle operations.
type Service interface {
	Apply(ctx context.Context, in lifecycle.TransitionInput) (*ledgermodels.TransitionRecord, error)
	Correct(ctx context.Context, in lifecycle.CorrectionInput) (*ledgermodels.TransitionRecord, error)
	MarkLabelRemoved(ctx context.Context, id domain.AssetID) (*assetmodels.Asset, error)
	ApplyBatch(ctx context.Context, in lifecycle.BatchInput) (*lifecycle.BatchResult, error)
}

// Handler wires lifecycle endpoints to the lifecycle service.
type Handler struct {
	service Service
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// New constructs a lifecycle handler with its dependencies.
func New(service Service, logger *slog.Logger, metrics *metrics.Metrics) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
		metrics: metrics,
	}
}

// Register mounts lifecycle endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/assets/{assetID}/transition", h.HandleTransition)
	r.Post("/assets/{assetID}/label-removed", h.HandleLabelRemoved)
	r.Post("/assets/{assetID}/corrections", h.HandleCorrection)
	r.Post("/batches/transition", h.HandleBatchTransition)
}

// HandleTransition handles POST /assets/{assetID}/transition requests.
func (h *Handler) HandleTransition(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	id, err := domain.ParseAssetID(chi.URLParam(r, "assetID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.DecodeAndPrepare[TransitionRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	rec, err := h.service.Apply(ctx, req.Input(id))
	if err != nil {
		h.logger.WarnContext(ctx, "transition rejected",
			"request_id", requestID,
			"asset_id", id,
			"target", req.Target,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	h.metrics.TransitionsApplied.WithLabelValues(string(rec.ToStage)).Inc()

	httputil.WriteJSON(w, http.StatusOK, rec)
}

// HandleLabelRemoved handles POST /assets/{assetID}/label-removed requests.
func (h *Handler) HandleLabelRemoved(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := domain.ParseAssetID(chi.URLParam(r, "assetID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	a, err := h.service.MarkLabelRemoved(ctx, id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, a)
}

// HandleCorrection handles POST /assets/{assetID}/corrections requests.
func (h *Handler) HandleCorrection(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	id, err := domain.ParseAssetID(chi.URLParam(r, "assetID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.DecodeAndPrepare[CorrectionRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	rec, err := h.service.Correct(ctx, req.Input(id))
	if err != nil {
		h.logger.WarnContext(ctx, "correction rejected",
			"request_id", requestID,
			"asset_id", id,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	h.metrics.TransitionsApplied.WithLabelValues(string(rec.ToStage)).Inc()

	httputil.WriteJSON(w, http.StatusOK, rec)
}

// HandleBatchTransition handles POST /batches/transition requests.
func (h *Handler) HandleBatchTransition(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[BatchTransitionRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	result, err := h.service.ApplyBatch(ctx, req.Input())
	if err != nil {
		// An all-or-nothing rejection carries every failing member; surface
		// the full list so operators never retry blind.
		var batchErr *lifecycle.BatchError
		if errors.As(err, &batchErr) {
			httputil.WriteJSON(w, dErrors.ToHTTPStatus(dErrors.CodeBatchPartialFailure), BatchRejectedResponse{
				Error:    string(dErrors.CodeBatchPartialFailure),
				Failures: batchErr.Failures,
			})
			return
		}
		h.logger.WarnContext(ctx, "batch transition rejected",
			"request_id", requestID,
			"target", req.Target,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	h.metrics.BatchesApplied.Inc()
	h.metrics.BatchMembersFailed.Add(float64(len(result.Failed)))
	h.metrics.TransitionsApplied.WithLabelValues(string(result.Target)).Add(float64(len(result.Succeeded)))

	httputil.WriteJSON(w, http.StatusOK, result)
}
