// Package gui draws a panel.Panel as a Dear ImGui window over the rendered frame.
package gui

import (
	"fmt"
	"math"

	"github.com/inkyblackness/imgui-go/v4"

	"model-viewer/core"
	"model-viewer/panel"
)

// Platform is the window state the GUI reads each frame.
type Platform interface {
	WindowSize() (int, int)
	FramebufferSize() (int, int)
	CursorPos() (float64, float64)
	IsMouseButtonPressed(button int) bool
	OnScroll(cb func(xoff, yoff float64))
	Time() float64
}

type GUI struct {
	context  *imgui.Context
	io       imgui.IO
	renderer *drawRenderer
	platform Platform
	panel    *panel.Panel
	logger   core.Logger

	lastTime       float64
	wheelX, wheelY float32
}

// New creates the ImGui context and its GL resources. The GL context must be current.
func New(p Platform, pnl *panel.Panel, logger core.Logger) (*GUI, error) {
	context := imgui.CreateContext(nil)
	io := imgui.CurrentIO()
	io.SetIniFilename("")

	r, err := newDrawRenderer(io)
	if err != nil {
		context.Destroy()
		return nil, fmt.Errorf("gui renderer: %w", err)
	}

	g := &GUI{
		context:  context,
		io:       io,
		renderer: r,
		platform: p,
		panel:    pnl,
		logger:   core.OrNop(logger),
	}
	p.OnScroll(func(xoff, yoff float64) {
		g.wheelX += float32(xoff)
		g.wheelY += float32(yoff)
	})
	g.logger.Debugf("gui ready: panel %q with %d folders", pnl.Title, len(pnl.Folders()))
	return g, nil
}

// WantCaptureMouse reports whether the last frame's GUI is using the pointer.
func (g *GUI) WantCaptureMouse() bool {
	return g.io.WantCaptureMouse()
}

// Draw builds and renders one GUI frame onto the default framebuffer.
func (g *GUI) Draw() {
	g.newFrame()
	imgui.NewFrame()
	g.drawPanel()
	imgui.Render()

	ww, wh := g.platform.WindowSize()
	fw, fh := g.platform.FramebufferSize()
	g.renderer.render(
		[2]float32{float32(ww), float32(wh)},
		[2]float32{float32(fw), float32(fh)},
		imgui.RenderedDrawData(),
	)
}

func (g *GUI) newFrame() {
	ww, wh := g.platform.WindowSize()
	g.io.SetDisplaySize(imgui.Vec2{X: float32(ww), Y: float32(wh)})

	now := g.platform.Time()
	dt := float32(now - g.lastTime)
	if g.lastTime == 0 || dt <= 0 {
		dt = 1.0 / 60.0
	}
	g.io.SetDeltaTime(dt)
	g.lastTime = now

	x, y := g.platform.CursorPos()
	g.io.SetMousePosition(imgui.Vec2{X: float32(x), Y: float32(y)})
	for i, button := range []int{core.MouseButtonLeft, core.MouseButtonRight, core.MouseButtonMiddle} {
		g.io.SetMouseButtonDown(i, g.platform.IsMouseButtonPressed(button))
	}

	g.io.AddMouseWheelDelta(g.wheelX, g.wheelY)
	g.wheelX, g.wheelY = 0, 0
}

func (g *GUI) drawPanel() {
	imgui.SetNextWindowPosV(imgui.Vec2{X: 10, Y: 10}, imgui.ConditionFirstUseEver, imgui.Vec2{})
	if imgui.BeginV(g.panel.Title, nil, imgui.WindowFlagsAlwaysAutoResize) {
		for _, folder := range g.panel.Folders() {
			var flags imgui.TreeNodeFlags
			if folder.IsOpen() {
				flags = imgui.TreeNodeFlagsDefaultOpen
			}
			open := imgui.CollapsingHeaderV(folder.Title, flags)
			syncFolder(folder, open)
			if !open {
				continue
			}
			for _, b := range folder.Bindings() {
				drawBinding(b)
			}
		}
	}
	imgui.End()
}

func drawBinding(b *panel.Binding) {
	imgui.PushID(b.Label())
	defer imgui.PopID()

	v := b.Value()
	imgui.PushItemWidth(180)
	if imgui.SliderFloatV("##value", &v, b.Min, b.Max, sliderFormat(b.Step), 0) {
		b.SetValue(v)
	}
	imgui.PopItemWidth()
	imgui.SameLine()
	if imgui.SmallButton("-") {
		b.Nudge(-1)
	}
	imgui.SameLine()
	if imgui.SmallButton("+") {
		b.Nudge(1)
	}
	imgui.SameLine()
	imgui.Text(b.Label())
}

// syncFolder mirrors the header's open state into the folder.
func syncFolder(f *panel.Folder, open bool) {
	switch {
	case open && !f.IsOpen():
		f.Open()
	case !open && f.IsOpen():
		f.Close()
	}
}

// sliderFormat shows as many decimals as the step needs, up to six.
func sliderFormat(step float32) string {
	decimals := 0
	s := float64(step)
	for decimals < 6 {
		scaled := s * math.Pow10(decimals)
		if math.Abs(scaled-math.Round(scaled)) < 1e-4 {
			break
		}
		decimals++
	}
	return fmt.Sprintf("%%.%df", decimals)
}

// Destroy releases GL resources and the ImGui context.
func (g *GUI) Destroy() {
	g.renderer.destroy()
	g.context.Destroy()
}
