package handler

import (
	"strings"
	"time"

	assetservice "assetledger/internal/asset/service"
	"assetledger/pkg/domain"
	dErrors "assetledger/pkg/domain-errors"
)

// RegisterRequest is the HTTP request body for POST /assets. One request
// registers a run of identical items arriving together.
type RegisterRequest struct {
	Category      string   `json:"category"`
	Count         int      `json:"count"`
	Condition     string   `json:"condition"`
	SerialNumbers []string `json:"serial_numbers"`
	Notes         string   `json:"notes"`

	parsedCondition domain.Condition
}

// Validate validates and parses the request.
// Implements the Validatable interface for httputil.DecodeAndPrepare.
func (r *RegisterRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}

	r.Category = strings.TrimSpace(r.Category)
	if r.Category == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "category is required")
	}
	if r.Count < 1 {
		return dErrors.New(dErrors.CodeInvalidInput, "count must be at least 1")
	}
	if len(r.SerialNumbers) != 0 && len(r.SerialNumbers) != r.Count {
		return dErrors.Newf(dErrors.CodeInvalidInput,
			"got %d serial numbers for %d items", len(r.SerialNumbers), r.Count)
	}

	cond, err := domain.ParseCondition(r.Condition)
	if err != nil {
		return err
	}
	r.parsedCondition = cond
	return nil
}

// Input converts the validated request to a service input.
func (r *RegisterRequest) Input() assetservice.RegisterInput {
	return assetservice.RegisterInput{
		CategoryCode:  r.Category,
		Count:         r.Count,
		Condition:     r.parsedCondition,
		SerialNumbers: r.SerialNumbers,
		Notes:         r.Notes,
	}
}

// parseQueryTime accepts RFC 3339 timestamps and plain dates.
func parseQueryTime(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", s)
}
