// Package handler exposes certificate and report issuance over HTTP.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"assetledger/internal/certificate/models"
	"assetledger/internal/lifecycle"
	"assetledger/internal/platform/metrics"
	"assetledger/pkg/domain"
	dErrors "assetledger/pkg/domain-errors"
	"assetledger/pkg/platform/httputil"
	"assetledger/pkg/requestcontext"
)

// Service defines the interface for the compliance gate.
type Service interface {
	IssueIndividual(ctx context.Context, assetID domain.AssetID) (*models.Artifact, error)
	IssueBatch(ctx context.Context, sel lifecycle.Selector, batchName string) (*models.Artifact, error)
	IssueFinalReport(ctx context.Context) (*models.Artifact, error)
	Revoke(ctx context.Context, artifactID uuid.UUID, reason string) error
	Get(ctx context.Context, id uuid.UUID) (*models.Artifact, error)
	List(ctx context.Context, kind domain.ArtifactKind) ([]*models.Artifact, error)
}

// Handler wires certificate endpoints to the compliance gate.
type Handler struct {
	service Service
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// New constructs a certificate handler with its dependencies.
func New(service Service, logger *slog.Logger, metrics *metrics.Metrics) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
		metrics: metrics,
	}
}

// Register mounts certificate endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/assets/{assetID}/certificate", h.HandleIssueIndividual)
	r.Post("/certificates/batch", h.HandleIssueBatch)
	r.Post("/certificates/final-report", h.HandleIssueFinalReport)
	r.Get("/certificates", h.HandleList)
	r.Get("/certificates/{artifactID}", h.HandleGet)
	r.Post("/certificates/{artifactID}/revoke", h.HandleRevoke)
}

// HandleIssueIndividual handles POST /assets/{assetID}/certificate requests.
func (h *Handler) HandleIssueIndividual(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	id, err := domain.ParseAssetID(chi.URLParam(r, "assetID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	artifact, err := h.service.IssueIndividual(ctx, id)
	if err != nil {
		h.logger.WarnContext(ctx, "certificate issuance rejected",
			"request_id", requestID,
			"asset_id", id,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	h.metrics.ArtifactsIssued.WithLabelValues(string(artifact.Kind)).Inc()

	httputil.WriteJSON(w, http.StatusCreated, artifact)
}

// HandleIssueBatch handles POST /certificates/batch requests.
func (h *Handler) HandleIssueBatch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[IssueBatchRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	artifact, err := h.service.IssueBatch(ctx, req.ParsedSelector(), req.Name)
	if err != nil {
		h.logger.WarnContext(ctx, "batch certificate rejected",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	h.metrics.ArtifactsIssued.WithLabelValues(string(artifact.Kind)).Inc()

	httputil.WriteJSON(w, http.StatusCreated, artifact)
}

// HandleIssueFinalReport handles POST /certificates/final-report requests.
func (h *Handler) HandleIssueFinalReport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	artifact, err := h.service.IssueFinalReport(ctx)
	if err != nil {
		h.logger.WarnContext(ctx, "final report rejected",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	h.metrics.ArtifactsIssued.WithLabelValues(string(artifact.Kind)).Inc()

	httputil.WriteJSON(w, http.StatusCreated, artifact)
}

// HandleList handles GET /certificates requests.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var kind domain.ArtifactKind
	if v := r.URL.Query().Get("kind"); v != "" {
		parsed, err := domain.ParseArtifactKind(v)
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		kind = parsed
	}

	artifacts, err := h.service.List(ctx, kind)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, ListResponse{Artifacts: artifacts, Count: len(artifacts)})
}

// HandleGet handles GET /certificates/{artifactID} requests.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := uuid.Parse(chi.URLParam(r, "artifactID"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "malformed artifact id"))
		return
	}
	artifact, err := h.service.Get(ctx, id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, artifact)
}

// HandleRevoke handles POST /certificates/{artifactID}/revoke requests.
func (h *Handler) HandleRevoke(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	id, err := uuid.Parse(chi.URLParam(r, "artifactID"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "malformed artifact id"))
		return
	}
	req, ok := httputil.DecodeAndPrepare[RevokeRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	if err := h.service.Revoke(ctx, id, req.Reason); err != nil {
		h.logger.WarnContext(ctx, "revocation rejected",
			"request_id", requestID,
			"artifact_id", id,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	h.metrics.ArtifactsRevoked.Inc()

	artifact, err := h.service.Get(ctx, id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, artifact)
}
