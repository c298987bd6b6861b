package controls

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"model-viewer/core"
)

type fakeWindow struct {
	button func(int, bool, float64, float64)
	cursor func(float64, float64)
	scroll func(float64, float64)
}

func (w *fakeWindow) OnMouseButton(cb func(int, bool, float64, float64)) { w.button = cb }
func (w *fakeWindow) OnCursorMove(cb func(float64, float64))             { w.cursor = cb }
func (w *fakeWindow) OnScroll(cb func(float64, float64))                 { w.scroll = cb }

func TestInputRouterForwardsWhenFree(t *testing.T) {
	c, _ := newTestControls()
	win := &fakeWindow{}
	NewInputRouter(c, nil).Attach(win)

	win.button(core.MouseButtonLeft, true, 10, 10)
	assert.Equal(t, StateDragging, c.State())
	win.cursor(160, 10)
	win.button(core.MouseButtonLeft, false, 160, 10)
	assert.Equal(t, StateIdle, c.State())
	c.Update()
	assert.InDelta(t, -1.5708, c.AzimuthalAngle(), 1e-3)
}

func TestInputRouterRespectsCapture(t *testing.T) {
	c, _ := newTestControls()
	captured := true
	r := NewInputRouter(c, func() bool { return captured })

	r.MouseButton(core.MouseButtonLeft, true, 0, 0)
	assert.Equal(t, StateIdle, c.State())
	start := c.Distance()
	r.Scroll(0, 5)
	c.Update()
	assert.InDelta(t, start, c.Distance(), 1e-6)

	// A drag that started outside the GUI keeps going over it.
	captured = false
	r.MouseButton(core.MouseButtonLeft, true, 0, 0)
	captured = true
	r.CursorMove(150, 0)
	r.MouseButton(core.MouseButtonLeft, false, 150, 0)
	assert.Equal(t, StateIdle, c.State())
	c.Update()
	assert.InDelta(t, -1.5708, c.AzimuthalAngle(), 1e-3)
}
