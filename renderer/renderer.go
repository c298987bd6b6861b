package renderer

import (
	"errors"
	"fmt"

	"model-viewer/core"
	"model-viewer/internal/opengl"
	"model-viewer/scene"
)

// ErrNotSized is returned by Render before the first SetSize.
var ErrNotSized = errors.New("renderer: SetSize has not been called")

// RenderEngine is the high-level renderer that drives the OpenGL backend.
type RenderEngine struct {
	gl       *opengl.Renderer
	settings Settings
	logger   core.Logger

	// FrustumCulling skips meshes whose world bounds are outside the view.
	FrustumCulling bool

	width, height int
	sized         bool

	staleLogged bool

	env            *scene.HDRTexture
	failedTextures map[any]struct{}

	stats Stats
}

// NewRenderEngine initialises OpenGL. The GL context must be current.
func NewRenderEngine(settings Settings, logger core.Logger) (*RenderEngine, error) {
	logger = core.OrNop(logger)

	glRenderer, err := opengl.NewRenderer(logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create OpenGL renderer: %w", err)
	}
	if err := glRenderer.EnableBackground(); err != nil {
		glRenderer.Destroy()
		return nil, fmt.Errorf("background: %w", err)
	}

	logger.Infof("render engine initialized (tone mapping %s, exposure %.2f, msaa %d)",
		settings.ToneMapping, settings.Exposure, settings.samples())
	return &RenderEngine{
		gl:             glRenderer,
		settings:       settings,
		logger:         logger,
		FrustumCulling: true,
		failedTextures: make(map[any]struct{}),
	}, nil
}

func (re *RenderEngine) Settings() Settings {
	return re.settings
}

// SetSize resizes the viewport and HDR target. Non-positive sizes are ignored.
func (re *RenderEngine) SetSize(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	if re.sized && width == re.width && height == re.height {
		return
	}
	re.width, re.height = width, height
	re.sized = true
	re.gl.SetViewport(width, height)

	if !re.gl.HasPostProcess() {
		if err := re.gl.EnablePostProcess(width, height, re.settings.samples()); err != nil {
			re.logger.Errorf("post-process disabled: %v", err)
			return
		}
		re.gl.SetToneMapping(toneMapOperator(re.settings.ToneMapping), re.settings.Exposure, re.settings.OutputSRGB)
		return
	}
	re.gl.ResizePostProcess(width, height)
}

// Size returns the last size passed to SetSize.
func (re *RenderEngine) Size() (width, height int) {
	return re.width, re.height
}

// Render draws one frame of s as seen from cam.
func (re *RenderEngine) Render(s *scene.Scene, cam *scene.Camera) error {
	if s == nil || cam == nil {
		return fmt.Errorf("renderer: no scene or camera")
	}
	if !re.sized {
		return ErrNotSized
	}

	if cam.ProjectionStale() {
		if !re.staleLogged {
			re.logger.Debugf("camera projection is stale; call UpdateProjectionMatrix after changing fov, aspect, near, far or zoom")
			re.staleLogged = true
		}
	} else {
		re.staleLogged = false
	}

	envTex := re.syncEnvironment(s.Environment)
	re.uploadModelTextures(s.Models())

	re.gl.BeginFrame(opengl.FrameParams{
		Clear:        s.Background,
		CameraPos:    cam.Position,
		Light:        s.KeyLight,
		Environment:  envTex,
		EnvIntensity: re.settings.EnvironmentIntensity,
	})

	view := cam.ViewMatrix()
	proj := cam.ProjectionMatrix()

	// Background first; xyww puts it at the far plane.
	re.gl.DrawBackground(envTex, re.settings.EnvironmentIntensity, view, proj)

	frustum := scene.FrustumFromVP(proj.Mul4(view))

	var stats Stats
	for _, node := range s.VisibleNodes() {
		if node.Mesh == nil {
			continue
		}
		model := node.WorldMatrix()

		if re.FrustumCulling {
			if aabb := node.WorldAABB(); !aabb.IntersectsFrustum(&frustum) {
				stats.Culled++
				continue
			}
		}

		re.gl.DrawMesh(node.Mesh, proj.Mul4(view).Mul4(model), model)

		stats.Objects++
		stats.Vertices += len(node.Mesh.Vertices)
		stats.Triangles += node.Mesh.TriangleCount()
	}
	re.stats = stats

	re.gl.EndFrame()
	return nil
}

// syncEnvironment uploads a newly assigned environment and frees the one it replaced.
func (re *RenderEngine) syncEnvironment(env *scene.EnvironmentMap) *scene.HDRTexture {
	var tex *scene.HDRTexture
	if env != nil {
		tex = env.Texture
	}
	if tex != re.env {
		opengl.DeleteHDRTexture(re.env)
		re.env = tex
	}
	if tex == nil || tex.GLID != 0 {
		return tex
	}
	if _, failed := re.failedTextures[tex]; failed {
		return nil
	}
	if err := opengl.UploadHDRTexture(tex); err != nil {
		re.logger.Errorf("environment upload: %v", err)
		re.failedTextures[tex] = struct{}{}
		return nil
	}
	re.logger.Debugf("uploaded environment %q (%dx%d)", tex.Name, tex.Width, tex.Height)
	return tex
}

func (re *RenderEngine) uploadModelTextures(models []*scene.Model) {
	for _, m := range models {
		for _, tex := range m.Textures {
			if tex == nil || tex.GLID != 0 {
				continue
			}
			if _, failed := re.failedTextures[tex]; failed {
				continue
			}
			if err := opengl.UploadTexture(tex); err != nil {
				re.logger.Warnf("texture upload: %v", err)
				re.failedTextures[tex] = struct{}{}
			}
		}
	}
}

// DrawStats returns stats from the most recent Render call.
func (re *RenderEngine) DrawStats() Stats {
	return re.stats
}

func (re *RenderEngine) Destroy() {
	opengl.DeleteHDRTexture(re.env)
	re.gl.Destroy()
}

func toneMapOperator(t ToneMapping) opengl.ToneMapOperator {
	switch t {
	case ToneMappingLinear:
		return opengl.ToneMapLinear
	case ToneMappingReinhard:
		return opengl.ToneMapReinhard
	case ToneMappingACESFilmic:
		return opengl.ToneMapACES
	}
	return opengl.ToneMapNone
}
