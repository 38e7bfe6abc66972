// Package contentstream models the operator sequences inside page and form
// content streams: building them, serializing them and reading them back.
package contentstream

import (
	"errors"

	"github.com/wudi/pdfcore/coords"
)

// ErrStateUnderflow is returned when Q has no matching q.
var ErrStateUnderflow = errors.New("graphics state stack empty")

// GraphicsState is the subset of the PDF graphics state that affects
// geometry.
type GraphicsState struct {
	CTM       coords.Matrix
	LineWidth float64
	stack     []GraphicsState
}

func NewGraphicsState() *GraphicsState {
	return &GraphicsState{CTM: coords.Identity(), LineWidth: 1}
}

func (gs *GraphicsState) Save() {
	gs.stack = append(gs.stack, GraphicsState{CTM: gs.CTM, LineWidth: gs.LineWidth})
}

func (gs *GraphicsState) Restore() error {
	n := len(gs.stack)
	if n == 0 {
		return ErrStateUnderflow
	}
	top := gs.stack[n-1]
	gs.CTM, gs.LineWidth = top.CTM, top.LineWidth
	gs.stack = gs.stack[:n-1]
	return nil
}

// Depth is the number of saved states.
func (gs *GraphicsState) Depth() int { return len(gs.stack) }
