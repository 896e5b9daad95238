package domain

import (
	"fmt"

	apperrors "exthub/internal/platform/errors"
)

// Mode identifies the editor surface a client request originates from.
type Mode string

const (
	ModeCAD      Mode = "cad"
	ModeSketch   Mode = "sketch"
	ModeAssembly Mode = "assembly"
	ModeDrawing  Mode = "drawing"
)

// ViewState identifies the viewport the client has focused.
type ViewState string

const (
	View3D    ViewState = "3d"
	View2D    ViewState = "2d"
	ViewSplit ViewState = "split"
)

var knownModes = map[Mode]struct{}{
	ModeCAD:      {},
	ModeSketch:   {},
	ModeAssembly: {},
	ModeDrawing:  {},
}

var knownViews = map[ViewState]struct{}{
	View3D:    {},
	View2D:    {},
	ViewSplit: {},
}

// SelectedElement is one entry of the client's current selection.
type SelectedElement struct {
	ID   string `json:"id"`
	Kind string `json:"kind,omitempty"`
}

// ClientContext describes the client state accompanying a request.
type ClientContext struct {
	Mode             Mode              `json:"mode"`
	ActiveView       ViewState         `json:"activeView"`
	SelectedElements []SelectedElement `json:"selectedElements,omitempty"`
}

// Validate checks the context against the closed mode and view enumerations
// and the selected-element shape, failing on the first violation. Its one
// mutation is normalizing an absent SelectedElements to an empty slice.
func (c *ClientContext) Validate() error {
	if _, ok := knownModes[c.Mode]; !ok {
		return fmt.Errorf("%w: unknown mode %q", apperrors.ErrValidation, c.Mode)
	}
	if _, ok := knownViews[c.ActiveView]; !ok {
		return fmt.Errorf("%w: unknown activeView %q", apperrors.ErrValidation, c.ActiveView)
	}
	if c.SelectedElements == nil {
		c.SelectedElements = []SelectedElement{}
	}
	for i, el := range c.SelectedElements {
		if el.ID == "" {
			return fmt.Errorf("%w: selectedElements[%d] is missing an id", apperrors.ErrValidation, i)
		}
	}
	return nil
}
