package handler

import (
	"strings"
	"time"

	"assetledger/internal/certificate/models"
	"assetledger/internal/lifecycle"
	"assetledger/pkg/domain"
	dErrors "assetledger/pkg/domain-errors"
)

// IssueBatchRequest is the HTTP request body for POST /certificates/batch.
type IssueBatchRequest struct {
	Selector SelectorRequest `json:"selector"`
	Name     string          `json:"name"`

	parsedSelector lifecycle.Selector
}

// SelectorRequest is the wire form of a batch member selector.
type SelectorRequest struct {
	IDs        []string `json:"ids"`
	Category   string   `json:"category"`
	Condition  string   `json:"condition"`
	Stage      string   `json:"stage"`
	IntakeFrom string   `json:"intake_from"`
	IntakeTo   string   `json:"intake_to"`
}

// Validate validates and parses the request.
func (r *IssueBatchRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	s := r.Selector
	if len(s.IDs) == 0 && s.Category == "" && s.Condition == "" &&
		s.Stage == "" && s.IntakeFrom == "" && s.IntakeTo == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "selector must set at least one field")
	}

	var sel lifecycle.Selector
	for _, raw := range s.IDs {
		id, err := domain.ParseAssetID(raw)
		if err != nil {
			return err
		}
		sel.IDs = append(sel.IDs, id)
	}
	sel.CategoryCode = strings.TrimSpace(s.Category)
	if s.Condition != "" {
		cond, err := domain.ParseCondition(s.Condition)
		if err != nil {
			return err
		}
		sel.Condition = cond
	}
	if s.Stage != "" {
		stage, err := domain.ParseStage(s.Stage)
		if err != nil {
			return err
		}
		sel.Stage = stage
	}
	if s.IntakeFrom != "" {
		t, err := parseBodyTime(s.IntakeFrom)
		if err != nil {
			return dErrors.New(dErrors.CodeInvalidInput, "intake_from must be RFC 3339")
		}
		sel.IntakeFrom = t
	}
	if s.IntakeTo != "" {
		t, err := parseBodyTime(s.IntakeTo)
		if err != nil {
			return dErrors.New(dErrors.CodeInvalidInput, "intake_to must be RFC 3339")
		}
		sel.IntakeTo = t
	}
	r.parsedSelector = sel
	return nil
}

// ParsedSelector returns the validated selector.
func (r *IssueBatchRequest) ParsedSelector() lifecycle.Selector {
	return r.parsedSelector
}

// RevokeRequest is the HTTP request body for POST /certificates/{artifactID}/revoke.
type RevokeRequest struct {
	Reason string `json:"reason"`
}

// Validate validates the request.
func (r *RevokeRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	if strings.TrimSpace(r.Reason) == "" {
		return dErrors.New(dErrors.CodeMissingPrecondition, "a revocation reason is required")
	}
	return nil
}

// ListResponse is the body for GET /certificates.
type ListResponse struct {
	Artifacts []*models.Artifact `json:"artifacts"`
	Count     int                `json:"count"`
}

func parseBodyTime(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", s)
}
