// Package handler exposes the read-only aggregator and the intake log export.
package handler

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"assetledger/internal/asset/store"
	"assetledger/internal/summary"
	"assetledger/pkg/domain"
	dErrors "assetledger/pkg/domain-errors"
	"assetledger/pkg/platform/httputil"
	"assetledger/pkg/requestcontext"
)

// Service defines the interface for summary reads.
type Service interface {
	Snapshot(ctx context.Context) (*summary.Summary, error)
}

// Exporter defines the interface for the intake log export.
type Exporter interface {
	WriteIntakeLog(ctx context.Context, w io.Writer, f store.Filter) (int, error)
}

// Handler wires reporting endpoints to the aggregator and exporter.
type Handler struct {
	service  Service
	exporter Exporter
	logger   *slog.Logger
}

// New constructs a summary handler with its dependencies.
func New(service Service, exporter Exporter, logger *slog.Logger) *Handler {
	return &Handler{
		service:  service,
		exporter: exporter,
		logger:   logger,
	}
}

// Register mounts reporting endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/summary", h.HandleSummary)
	r.Get("/exports/intake-log", h.HandleIntakeLog)
}

// HandleSummary handles GET /summary requests.
func (h *Handler) HandleSummary(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	sum, err := h.service.Snapshot(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "summary failed",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, sum)
}

// HandleIntakeLog handles GET /exports/intake-log requests. The response body
// is CSV, not JSON, so errors must be decided before the first byte is
// written.
func (h *Handler) HandleIntakeLog(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	f, err := filterFromQuery(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="intake-log.csv"`)

	rows, err := h.exporter.WriteIntakeLog(ctx, w, f)
	if err != nil {
		h.logger.ErrorContext(ctx, "intake log export failed",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		// Rows are buffered until the snapshot succeeds, so nothing has been
		// written yet and a JSON error response is still possible.
		w.Header().Set("Content-Type", "application/json")
		w.Header().Del("Content-Disposition")
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "intake log exported",
		"request_id", requestcontext.RequestID(ctx),
		"rows", rows,
	)
}

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

func parseQueryTime(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", s)
}
