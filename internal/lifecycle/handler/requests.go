package handler

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"assetledger/internal/lifecycle"
	"assetledger/pkg/domain"
	dErrors "assetledger/pkg/domain-errors"
)

// TransitionRequest is the HTTP request body for POST /assets/{assetID}/transition.
type TransitionRequest struct {
	Target string `json:"target"`
	Method string `json:"method"`
	Notes  string `json:"notes"`

	parsedTarget domain.Stage
}

// Validate validates and parses the request. Method legality is stage
// dependent and stays with the lifecycle machine; here only the stage value
// set is checked.
func (r *TransitionRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	target, err := domain.ParseStage(strings.TrimSpace(r.Target))
	if err != nil {
		return err
	}
	r.parsedTarget = target
	return nil
}

// Input converts the validated request to a service input.
func (r *TransitionRequest) Input(id domain.AssetID) lifecycle.TransitionInput {
	return lifecycle.TransitionInput{
		AssetID: id,
		Target:  r.parsedTarget,
		Method:  domain.Method(r.Method),
		Notes:   r.Notes,
	}
}

// CorrectionRequest is the HTTP request body for POST /assets/{assetID}/corrections.
type CorrectionRequest struct {
	Target     string `json:"target"`
	Supersedes string `json:"supersedes"`
	Reason     string `json:"reason"`

	parsedTarget     domain.Stage
	parsedSupersedes uuid.UUID
}

// Validate validates and parses the request.
func (r *CorrectionRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	target, err := domain.ParseStage(strings.TrimSpace(r.Target))
	if err != nil {
		return err
	}
	r.parsedTarget = target

	sup, err := uuid.Parse(strings.TrimSpace(r.Supersedes))
	if err != nil {
		return dErrors.New(dErrors.CodeInvalidInput, "supersedes must be a record id")
	}
	r.parsedSupersedes = sup

	if strings.TrimSpace(r.Reason) == "" {
		return dErrors.New(dErrors.CodeMissingPrecondition, "a correction reason is required")
	}
	return nil
}

// Input converts the validated request to a service input.
func (r *CorrectionRequest) Input(id domain.AssetID) lifecycle.CorrectionInput {
	return lifecycle.CorrectionInput{
		AssetID:    id,
		Target:     r.parsedTarget,
		Supersedes: r.parsedSupersedes,
		Reason:     r.Reason,
	}
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

func (r *SelectorRequest) parse() (lifecycle.Selector, error) {
	var sel lifecycle.Selector
	for _, raw := range r.IDs {
		id, err := domain.ParseAssetID(raw)
		if err != nil {
			return lifecycle.Selector{}, err
		}
		sel.IDs = append(sel.IDs, id)
	}
	sel.CategoryCode = strings.TrimSpace(r.Category)
	if r.Condition != "" {
		cond, err := domain.ParseCondition(r.Condition)
		if err != nil {
			return lifecycle.Selector{}, err
		}
		sel.Condition = cond
	}
	if r.Stage != "" {
		stage, err := domain.ParseStage(r.Stage)
		if err != nil {
			return lifecycle.Selector{}, err
		}
		sel.Stage = stage
	}
	if r.IntakeFrom != "" {
		t, err := parseBodyTime(r.IntakeFrom)
		if err != nil {
			return lifecycle.Selector{}, dErrors.New(dErrors.CodeInvalidInput, "intake_from must be RFC 3339")
		}
		sel.IntakeFrom = t
	}
	if r.IntakeTo != "" {
		t, err := parseBodyTime(r.IntakeTo)
		if err != nil {
			return lifecycle.Selector{}, dErrors.New(dErrors.CodeInvalidInput, "intake_to must be RFC 3339")
		}
		sel.IntakeTo = t
	}
	return sel, nil
}

func (r *SelectorRequest) empty() bool {
	return len(r.IDs) == 0 && r.Category == "" && r.Condition == "" &&
		r.Stage == "" && r.IntakeFrom == "" && r.IntakeTo == ""
}

// BatchTransitionRequest is the HTTP request body for POST /batches/transition.
type BatchTransitionRequest struct {
	Selector       SelectorRequest `json:"selector"`
	Target         string          `json:"target"`
	Method         string          `json:"method"`
	Notes          string          `json:"notes"`
	PartialAllowed bool            `json:"partial_allowed"`

	parsedTarget   domain.Stage
	parsedSelector lifecycle.Selector
}

// Validate validates and parses the request.
func (r *BatchTransitionRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	if r.Selector.empty() {
		return dErrors.New(dErrors.CodeInvalidInput, "selector must set at least one field")
	}
	sel, err := r.Selector.parse()
	if err != nil {
		return err
	}
	r.parsedSelector = sel

	target, err := domain.ParseStage(strings.TrimSpace(r.Target))
	if err != nil {
		return err
	}
	r.parsedTarget = target
	return nil
}

// Input converts the validated request to a service input.
func (r *BatchTransitionRequest) Input() lifecycle.BatchInput {
	return lifecycle.BatchInput{
		Selector:       r.parsedSelector,
		Target:         r.parsedTarget,
		Method:         domain.Method(r.Method),
		Notes:          r.Notes,
		PartialAllowed: r.PartialAllowed,
	}
}

func parseBodyTime(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", s)
}

// BatchRejectedResponse is the body for an all-or-nothing batch rejection.
type BatchRejectedResponse struct {
	Error    string                    `json:"error"`
	Failures []lifecycle.MemberFailure `json:"failures"`
}
