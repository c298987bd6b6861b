package opengl

import (
	"fmt"

	gl "github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/mathgl/mgl32"
)

// Background draws an equirectangular environment behind the scene using an
// inverted unit cube. The vertex shader uses the xyww trick so every fragment
// lands at NDC depth 1.0.
type Background struct {
	vao  uint32
	vbo  uint32
	prog uint32

	vpLoc        int32
	envMapLoc    int32
	intensityLoc int32
}

const bgVertSrc = `
#version 410 core
layout(location = 0) in vec3 inPosition;

uniform mat4 skyVP;

out vec3 fragDir;

void main() {
    fragDir = inPosition;
    vec4 pos = skyVP * vec4(inPosition, 1.0);
    gl_Position = pos.xyww;
}
` + "\x00"

const bgFragSrc = `
#version 410 core
in vec3 fragDir;
out vec4 outColor;

uniform sampler2D envMap;
uniform float     intensity;

const float PI = 3.14159265359;

void main() {
    vec3 d = normalize(fragDir);
    vec2 uv = vec2(atan(d.z, d.x) / (2.0 * PI) + 0.5,
                   0.5 - asin(clamp(d.y, -1.0, 1.0)) / PI);
    outColor = vec4(textureLod(envMap, uv, 0.0).rgb * intensity, 1.0);
}
` + "\x00"

// 36 positions for a unit cube; culling is disabled while drawing.
var cubeVerts = []float32{
	-1, -1, -1, 1, 1, -1, 1, -1, -1,
	1, 1, -1, -1, -1, -1, -1, 1, -1,
	-1, -1, 1, 1, -1, 1, 1, 1, 1,
	1, 1, 1, -1, 1, 1, -1, -1, 1,
	-1, 1, 1, -1, 1, -1, -1, -1, -1,
	-1, -1, -1, -1, -1, 1, -1, 1, 1,
	1, 1, 1, 1, -1, -1, 1, 1, -1,
	1, -1, -1, 1, 1, 1, 1, -1, 1,
	-1, -1, -1, 1, -1, -1, 1, -1, 1,
	1, -1, 1, -1, -1, 1, -1, -1, -1,
	-1, 1, -1, 1, 1, 1, 1, 1, -1,
	1, 1, 1, -1, 1, -1, -1, 1, 1,
}

func NewBackground() (*Background, error) {
	prog, err := NewProgram(bgVertSrc, bgFragSrc)
	if err != nil {
		return nil, fmt.Errorf("background shader: %w", err)
	}

	bg := &Background{
		prog:         prog,
		vpLoc:        uniformLoc(prog, "skyVP"),
		envMapLoc:    uniformLoc(prog, "envMap"),
		intensityLoc: uniformLoc(prog, "intensity"),
	}

	gl.GenVertexArrays(1, &bg.vao)
	gl.GenBuffers(1, &bg.vbo)
	gl.BindVertexArray(bg.vao)
	gl.BindBuffer(gl.ARRAY_BUFFER, bg.vbo)
	gl.BufferData(gl.ARRAY_BUFFER, len(cubeVerts)*4, gl.Ptr(cubeVerts), gl.STATIC_DRAW)
	gl.EnableVertexAttribArray(0)
	gl.VertexAttribPointer(0, 3, gl.FLOAT, false, 12, gl.PtrOffset(0))
	gl.BindVertexArray(0)

	return bg, nil
}

// SkyViewProjection strips the translation from view so the background
// stays centred on the camera.
func SkyViewProjection(view, proj mgl32.Mat4) mgl32.Mat4 {
	rot := view.Mat3().Mat4()
	return proj.Mul4(rot)
}

// Draw renders the environment texture tex (a GL texture name).
func (bg *Background) Draw(tex uint32, intensity float32, view, proj mgl32.Mat4) {
	vp := SkyViewProjection(view, proj)

	// LEQUAL lets depth=1.0 pass against the cleared buffer; no depth writes.
	gl.DepthFunc(gl.LEQUAL)
	gl.DepthMask(false)
	gl.Disable(gl.CULL_FACE)

	gl.UseProgram(bg.prog)
	gl.UniformMatrix4fv(bg.vpLoc, 1, false, &vp[0])
	gl.Uniform1f(bg.intensityLoc, intensity)
	gl.ActiveTexture(gl.TEXTURE5)
	gl.BindTexture(gl.TEXTURE_2D, tex)
	gl.Uniform1i(bg.envMapLoc, 5)

	gl.BindVertexArray(bg.vao)
	gl.DrawArrays(gl.TRIANGLES, 0, 36)
	gl.BindVertexArray(0)

	gl.DepthMask(true)
	gl.DepthFunc(gl.LESS)
}

func (bg *Background) Destroy() {
	gl.DeleteVertexArrays(1, &bg.vao)
	gl.DeleteBuffers(1, &bg.vbo)
	gl.DeleteProgram(bg.prog)
}
