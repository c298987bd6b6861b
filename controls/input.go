package controls

import "model-viewer/core"

// InputRouter forwards window pointer events to the orbit controls unless
// another consumer (the panel GUI) currently owns the pointer.
type InputRouter struct {
	Controls *OrbitControls
	// Captured reports whether the pointer belongs to someone else. May be nil.
	Captured func() bool
}

func NewInputRouter(controls *OrbitControls, captured func() bool) *InputRouter {
	return &InputRouter{Controls: controls, Captured: captured}
}

// PointerSource is a window that reports pointer events.
type PointerSource interface {
	OnMouseButton(cb func(button int, pressed bool, x, y float64))
	OnCursorMove(cb func(x, y float64))
	OnScroll(cb func(xoff, yoff float64))
}

// Attach registers the router's handlers on a window.
func (r *InputRouter) Attach(w PointerSource) {
	w.OnMouseButton(r.MouseButton)
	w.OnCursorMove(r.CursorMove)
	w.OnScroll(r.Scroll)
}

func (r *InputRouter) captured() bool {
	return r.Captured != nil && r.Captured()
}

func (r *InputRouter) MouseButton(button int, pressed bool, x, y float64) {
	if !pressed {
		// Releases always reach the controls so a drag never sticks.
		r.Controls.PointerUp()
		return
	}
	if r.captured() {
		return
	}
	switch button {
	case core.MouseButtonLeft:
		r.Controls.PointerDown(ButtonLeft, x, y)
	case core.MouseButtonRight:
		r.Controls.PointerDown(ButtonRight, x, y)
	case core.MouseButtonMiddle:
		r.Controls.PointerDown(ButtonMiddle, x, y)
	}
}

// CursorMove continues an active drag even when the cursor passes over the GUI.
func (r *InputRouter) CursorMove(x, y float64) {
	if r.Controls.State() != StateDragging && r.captured() {
		return
	}
	r.Controls.PointerMove(x, y)
}

func (r *InputRouter) Scroll(_, yoff float64) {
	if r.captured() {
		return
	}
	r.Controls.Wheel(yoff)
}
