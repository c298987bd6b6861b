// Package viewer wires the scene, loaders, orbit controls, parameter panel and
// renderer into the per-frame loop.
package viewer

import (
	"context"
	"fmt"

	"model-viewer/config"
	"model-viewer/controls"
	"model-viewer/core"
	"model-viewer/panel"
	"model-viewer/scene"
)

// Renderer draws a scene from a camera.
type Renderer interface {
	SetSize(width, height int)
	Render(s *scene.Scene, cam *scene.Camera) error
}

// Surface is the window the loop polls and presents to.
type Surface interface {
	ShouldClose() bool
	PollEvents()
	SwapBuffers()
}

// Overlay draws on top of the rendered frame.
type Overlay interface {
	Draw()
}

// Dispatcher runs completed load callbacks on the calling goroutine.
type Dispatcher interface {
	Dispatch() int
}

// PointerArea reports the window size in the coordinate space of pointer
// events, which differs from the framebuffer size on HiDPI displays.
type PointerArea interface {
	WindowSize() (int, int)
}

type EnvironmentSource interface {
	Load(ctx context.Context, location string, onLoad func(*scene.EnvironmentMap), onError func(error)) string
}

type ModelSource interface {
	Load(ctx context.Context, location string, onLoad func(*scene.Model), onError func(error)) string
}

// Deps are the collaborators a Viewer drives.
type Deps struct {
	Renderer     Renderer
	Environments EnvironmentSource
	Models       ModelSource
	Queue        Dispatcher
	// Pointer is optional; without it pointer deltas are scaled by the framebuffer size.
	Pointer PointerArea
	Logger  core.Logger
}

type Viewer struct {
	Scene    *scene.Scene
	Camera   *scene.Camera
	Controls *controls.OrbitControls
	Panel    *panel.Panel
	Material *scene.MaterialOverride

	// Overlay is drawn after the scene each frame when set.
	Overlay Overlay

	cfg    config.Config
	deps   Deps
	logger core.Logger

	model  *scene.Model
	width  int
	height int
	frames uint64
}

// New builds the scene, camera, controls and panel from cfg. Nothing is
// loaded until Start.
func New(cfg config.Config, deps Deps) (*Viewer, error) {
	if deps.Renderer == nil {
		return nil, fmt.Errorf("viewer: renderer is required")
	}
	if deps.Queue == nil {
		return nil, fmt.Errorf("viewer: dispatch queue is required")
	}
	logger := core.OrNop(deps.Logger)

	width, height := cfg.Window.Width, cfg.Window.Height
	aspect := float32(1)
	if width > 0 && height > 0 {
		aspect = float32(width) / float32(height)
	}

	cam := scene.NewCamera(cfg.Camera.FOV, aspect, cfg.Camera.Near, cfg.Camera.Far)
	p := cfg.Camera.Position
	cam.SetPosition(p[0], p[1], p[2])

	s := scene.NewScene()
	s.SetCamera(cam)

	orbit := controls.NewOrbitControls(cam)
	orbit.EnableDamping = cfg.Controls.EnableDamping
	orbit.DampingFactor = cfg.Controls.DampingFactor
	orbit.AutoRotate = cfg.Controls.AutoRotate
	orbit.AutoRotateSpeed = cfg.Controls.AutoRotateSpeed

	v := &Viewer{
		Scene:    s,
		Camera:   cam,
		Controls: orbit,
		Material: scene.NewMaterialOverride(cfg.Material.Metalness, cfg.Material.Roughness),
		cfg:      cfg,
		deps:     deps,
		logger:   logger,
	}
	v.Panel = buildPanel(v.Camera, v.Material, logger)
	v.Resize(width, height)
	return v, nil
}

// Start issues the environment and model loads. Their callbacks run from
// Frame, in whichever order the loads complete.
func (v *Viewer) Start(ctx context.Context) {
	if v.deps.Environments != nil && v.cfg.Assets.Environment != "" {
		v.deps.Environments.Load(ctx, v.cfg.Assets.Environment, v.setEnvironment, func(err error) {
			v.logger.Warnf("continuing without environment: %v", err)
		})
	}
	if v.deps.Models != nil && v.cfg.Assets.Model != "" {
		v.deps.Models.Load(ctx, v.cfg.Assets.Model, v.addModel, func(err error) {
			v.logger.Warnf("continuing without model: %v", err)
		})
	}
}

func (v *Viewer) setEnvironment(env *scene.EnvironmentMap) {
	v.Scene.SetEnvironment(env)
	if env.Texture != nil {
		v.logger.Infof("environment %q set (%dx%d, %s)", env.Texture.Name, env.Texture.Width, env.Texture.Height, env.Mapping)
	}
}

// addModel makes m the scene's model, replacing any earlier one.
func (v *Viewer) addModel(m *scene.Model) {
	if v.model != nil {
		v.Scene.RemoveModel(v.model)
		v.Material.Detach(v.model)
	}
	v.model = m
	v.Scene.AddModel(m)
	v.Material.Attach(m)
	v.logger.Infof("model %q added: %d meshes, %d vertices", m.Name, len(m.Meshes()), m.VertexCount())
}

// Model returns the loaded model, or nil before the model load completes.
func (v *Viewer) Model() *scene.Model {
	return v.model
}

// Frame runs one iteration: completed loads, controls, then render.
func (v *Viewer) Frame() error {
	v.deps.Queue.Dispatch()
	v.Controls.Update()
	if err := v.deps.Renderer.Render(v.Scene, v.Camera); err != nil {
		return fmt.Errorf("render frame %d: %w", v.frames, err)
	}
	if v.Overlay != nil {
		v.Overlay.Draw()
	}
	v.frames++
	return nil
}

// Frames returns the number of frames rendered.
func (v *Viewer) Frames() uint64 {
	return v.frames
}

// Run loops PollEvents, Frame, SwapBuffers until ctx is cancelled or the
// surface closes. Pacing comes from the surface's swap interval.
func (v *Viewer) Run(ctx context.Context, surface Surface) error {
	v.logger.Debugf("animation loop started")
	defer v.logger.Debugf("animation loop stopped after %d frames", v.frames)

	for {
		if ctx.Err() != nil || surface.ShouldClose() {
			return nil
		}
		surface.PollEvents()
		if ctx.Err() != nil {
			return nil
		}
		if err := v.Frame(); err != nil {
			return err
		}
		surface.SwapBuffers()
	}
}

// Resize propagates a new framebuffer size to the renderer, camera and
// controls. Non-positive sizes are ignored.
func (v *Viewer) Resize(width, height int) {
	if width <= 0 || height <= 0 {
		v.logger.Debugf("ignoring resize to %dx%d", width, height)
		return
	}
	v.width, v.height = width, height
	v.deps.Renderer.SetSize(width, height)
	v.Camera.Aspect = float32(width) / float32(height)
	v.Camera.UpdateProjectionMatrix()

	if v.deps.Pointer != nil {
		if pw, ph := v.deps.Pointer.WindowSize(); pw > 0 && ph > 0 {
			v.Controls.SetViewportSize(pw, ph)
			return
		}
	}
	v.Controls.SetViewportSize(width, height)
}

// Size returns the last accepted size.
func (v *Viewer) Size() (width, height int) {
	return v.width, v.height
}
