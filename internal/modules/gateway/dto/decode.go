package dto

import (
	"fmt"

	"exthub/internal/modules/gateway/domain"
	apperrors "exthub/internal/platform/errors"
)

// DecodeClientContext parses a duck-typed payload into a validated
// ClientContext. Field type mismatches fail before domain validation runs.
func DecodeClientContext(raw map[string]any) (domain.ClientContext, error) {
	if raw == nil {
		return domain.ClientContext{}, fmt.Errorf("%w: context must be an object", apperrors.ErrValidation)
	}
	mode, err := stringField(raw, "mode")
	if err != nil {
		return domain.ClientContext{}, err
	}
	view, err := stringField(raw, "activeView")
	if err != nil {
		return domain.ClientContext{}, err
	}
	ctx := domain.ClientContext{
		Mode:       domain.Mode(mode),
		ActiveView: domain.ViewState(view),
	}
	if v, ok := raw["selectedElements"]; ok {
		list, ok := v.([]any)
		if !ok {
			return domain.ClientContext{}, fmt.Errorf("%w: selectedElements must be an array", apperrors.ErrValidation)
		}
		ctx.SelectedElements = make([]domain.SelectedElement, 0, len(list))
		for i, item := range list {
			obj, ok := item.(map[string]any)
			if !ok {
				return domain.ClientContext{}, fmt.Errorf("%w: selectedElements[%d] must be an object", apperrors.ErrValidation, i)
			}
			el := domain.SelectedElement{}
			if id, ok := obj["id"].(string); ok {
				el.ID = id
			}
			if kind, ok := obj["kind"].(string); ok {
				el.Kind = kind
			}
			ctx.SelectedElements = append(ctx.SelectedElements, el)
		}
	}
	if err := ctx.Validate(); err != nil {
		return domain.ClientContext{}, err
	}
	return ctx, nil
}

// DecodeActionRequest parses a duck-typed payload into a validated
// ActionRequest. parameters must be a plain object, never an array or null.
func DecodeActionRequest(raw map[string]any) (domain.ActionRequest, error) {
	if raw == nil {
		return domain.ActionRequest{}, fmt.Errorf("%w: request must be an object", apperrors.ErrValidation)
	}
	if _, ok := raw["sessionId"]; !ok {
		return domain.ActionRequest{}, fmt.Errorf("%w: sessionId is required", apperrors.ErrValidation)
	}
	sessionID, err := stringField(raw, "sessionId")
	if err != nil {
		return domain.ActionRequest{}, err
	}
	action, err := stringField(raw, "action")
	if err != nil {
		return domain.ActionRequest{}, err
	}
	params, ok := raw["parameters"]
	if !ok || params == nil {
		return domain.ActionRequest{}, fmt.Errorf("%w: parameters must be an object", apperrors.ErrValidation)
	}
	obj, ok := params.(map[string]any)
	if !ok {
		return domain.ActionRequest{}, fmt.Errorf("%w: parameters must be an object, not an array or scalar", apperrors.ErrValidation)
	}
	req := domain.ActionRequest{SessionID: sessionID, Action: action, Parameters: obj}
	if err := req.Validate(); err != nil {
		return domain.ActionRequest{}, err
	}
	return req, nil
}

func stringField(raw map[string]any, name string) (string, error) {
	v, ok := raw[name]
	if !ok {
		return "", fmt.Errorf("%w: %s is required", apperrors.ErrValidation, name)
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("%w: %s must be a string", apperrors.ErrValidation, name)
	}
	return s, nil
}
