package domain

import (
	"fmt"

	apperrors "exthub/internal/platform/errors"
)

// ActionRequest is a client's request to run a named action inside a session.
type ActionRequest struct {
	SessionID  string         `json:"sessionId"`
	Action     string         `json:"action"`
	Parameters map[string]any `json:"parameters"`
}

// Validate checks the request shape, failing on the first violation.
func (r *ActionRequest) Validate() error {
	if r.SessionID == "" {
		return fmt.Errorf("%w: sessionId is required", apperrors.ErrValidation)
	}
	if r.Action == "" {
		return fmt.Errorf("%w: action is required", apperrors.ErrValidation)
	}
	if r.Parameters == nil {
		return fmt.Errorf("%w: parameters must be an object", apperrors.ErrValidation)
	}
	return nil
}
