package domain

import (
	"errors"
	"strings"
	"testing"

	apperrors "exthub/internal/platform/errors"
)

func TestClientContextValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		ctx     ClientContext
		wantErr string
	}{
		{
			name: "valid cad 3d",
			ctx:  ClientContext{Mode: ModeCAD, ActiveView: View3D},
		},
		{
			name: "valid with selection",
			ctx: ClientContext{
				Mode:             ModeSketch,
				ActiveView:       View2D,
				SelectedElements: []SelectedElement{{ID: "e1", Kind: "edge"}},
			},
		},
		{
			name:    "unknown mode",
			ctx:     ClientContext{Mode: "unknown", ActiveView: View3D},
			wantErr: "unknown mode",
		},
		{
			name:    "unknown view",
			ctx:     ClientContext{Mode: ModeCAD, ActiveView: "iso"},
			wantErr: "unknown activeView",
		},
		{
			name: "selection entry missing id",
			ctx: ClientContext{
				Mode:             ModeCAD,
				ActiveView:       View3D,
				SelectedElements: []SelectedElement{{Kind: "face"}},
			},
			wantErr: "selectedElements[0]",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := tt.ctx.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate() = %v, want nil", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("Validate() = nil, want error containing %q", tt.wantErr)
			}
			if !errors.Is(err, apperrors.ErrValidation) {
				t.Errorf("error %v is not a validation error", err)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not contain %q", err.Error(), tt.wantErr)
			}
		})
	}
}

func TestClientContextValidateNormalizesSelection(t *testing.T) {
	t.Parallel()

	ctx := ClientContext{Mode: ModeCAD, ActiveView: View3D}
	if err := ctx.Validate(); err != nil {
		t.Fatalf("Validate() = %v, want nil", err)
	}
	if ctx.SelectedElements == nil {
		t.Fatal("SelectedElements is nil after Validate, want empty slice")
	}
	if len(ctx.SelectedElements) != 0 {
		t.Fatalf("SelectedElements has %d entries, want 0", len(ctx.SelectedElements))
	}
}

func TestActionRequestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		req     ActionRequest
		wantErr string
	}{
		{
			name: "valid",
			req:  ActionRequest{SessionID: "s1", Action: "export", Parameters: map[string]any{}},
		},
		{
			name:    "missing session id",
			req:     ActionRequest{Action: "export", Parameters: map[string]any{}},
			wantErr: "sessionId is required",
		},
		{
			name:    "missing action",
			req:     ActionRequest{SessionID: "s1", Parameters: map[string]any{}},
			wantErr: "action is required",
		},
		{
			name:    "nil parameters",
			req:     ActionRequest{SessionID: "s1", Action: "export"},
			wantErr: "parameters must be an object",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := tt.req.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate() = %v, want nil", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("Validate() = %v, want error containing %q", err, tt.wantErr)
			}
		})
	}
}
