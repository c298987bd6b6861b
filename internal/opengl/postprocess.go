package opengl

import (
	"fmt"

	gl "github.com/go-gl/gl/v4.1-core/gl"
)

// ToneMapOperator selects the curve applied when the HDR target is presented.
type ToneMapOperator int32

const (
	ToneMapNone ToneMapOperator = iota
	ToneMapLinear
	ToneMapReinhard
	ToneMapACES
)

// PostProcessFBO is an HDR off-screen render target. With samples > 0 the
// scene renders into a multisampled FBO that is resolved before tone mapping.
type PostProcessFBO struct {
	// Resolve target, sampled by the tone-map pass.
	FBO      uint32
	ColorTex uint32 // RGBA16F
	DepthTex uint32 // DEPTH_COMPONENT32F
	Width    int32
	Height   int32

	// Multisampled scene target (zero when samples == 0).
	msFBO   uint32
	msColor uint32
	msDepth uint32
	samples int32

	prog        uint32
	hdrLoc      int32
	expLoc      int32
	operatorLoc int32
	srgbLoc     int32

	quadVAO uint32 // empty VAO for the fullscreen triangle

	Operator   ToneMapOperator
	Exposure   float32
	OutputSRGB bool
}

// ppVertSrc draws a fullscreen triangle via gl_VertexID.
const ppVertSrc = `
#version 410 core
out vec2 fragUV;
void main() {
    const vec2 pos[3] = vec2[3](
        vec2(-1.0, -1.0),
        vec2( 3.0, -1.0),
        vec2(-1.0,  3.0)
    );
    gl_Position = vec4(pos[gl_VertexID], 0.0, 1.0);
    fragUV      = pos[gl_VertexID] * 0.5 + 0.5;
}
` + "\x00"

const ppFragSrc = `
#version 410 core
in  vec2 fragUV;
out vec4 outColor;

uniform sampler2D hdrBuffer;
uniform float     exposure;
uniform int       toneOperator;   // 0 none, 1 linear, 2 reinhard, 3 aces
uniform bool      outputSRGB;

// ACES filmic fit (Narkowicz).
vec3 aces(vec3 x) {
    const float a = 2.51;
    const float b = 0.03;
    const float c = 2.43;
    const float d = 0.59;
    const float e = 0.14;
    return clamp((x * (a * x + b)) / (x * (c * x + d) + e), 0.0, 1.0);
}

vec3 linearToSRGB(vec3 c) {
    vec3 lo = c * 12.92;
    vec3 hi = 1.055 * pow(c, vec3(1.0 / 2.4)) - 0.055;
    return mix(lo, hi, step(vec3(0.0031308), c));
}

void main() {
    vec3 hdr = texture(hdrBuffer, fragUV).rgb;

    vec3 mapped;
    if (toneOperator == 1) {
        mapped = hdr * exposure;
    } else if (toneOperator == 2) {
        vec3 x = hdr * exposure;
        mapped = x / (vec3(1.0) + x);
    } else if (toneOperator == 3) {
        mapped = aces(hdr * exposure * 0.6);
    } else {
        mapped = hdr;
    }
    mapped = clamp(mapped, 0.0, 1.0);

    if (outputSRGB) {
        mapped = linearToSRGB(mapped);
    }
    outColor = vec4(mapped, 1.0);
}
` + "\x00"

func NewPostProcessFBO(width, height, samples int) (*PostProcessFBO, error) {
	pp := &PostProcessFBO{
		Operator:   ToneMapACES,
		Exposure:   1.0,
		OutputSRGB: true,
		samples:    int32(max(samples, 0)),
	}

	prog, err := NewProgram(ppVertSrc, ppFragSrc)
	if err != nil {
		return nil, fmt.Errorf("post-process shader: %w", err)
	}
	pp.prog = prog
	pp.hdrLoc = uniformLoc(prog, "hdrBuffer")
	pp.expLoc = uniformLoc(prog, "exposure")
	pp.operatorLoc = uniformLoc(prog, "toneOperator")
	pp.srgbLoc = uniformLoc(prog, "outputSRGB")

	gl.UseProgram(prog)
	gl.Uniform1i(pp.hdrLoc, 0)

	gl.GenVertexArrays(1, &pp.quadVAO)

	if err := pp.allocFBO(width, height); err != nil {
		pp.Destroy()
		return nil, err
	}
	return pp, nil
}

func (pp *PostProcessFBO) allocFBO(width, height int) error {
	pp.Width = int32(max(width, 1))
	pp.Height = int32(max(height, 1))

	gl.GenTextures(1, &pp.ColorTex)
	gl.BindTexture(gl.TEXTURE_2D, pp.ColorTex)
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA16F,
		pp.Width, pp.Height, 0, gl.RGBA, gl.HALF_FLOAT, nil)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)
	gl.BindTexture(gl.TEXTURE_2D, 0)

	gl.GenTextures(1, &pp.DepthTex)
	gl.BindTexture(gl.TEXTURE_2D, pp.DepthTex)
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.DEPTH_COMPONENT32F,
		pp.Width, pp.Height, 0, gl.DEPTH_COMPONENT, gl.FLOAT, nil)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.NEAREST)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.NEAREST)
	gl.BindTexture(gl.TEXTURE_2D, 0)

	gl.GenFramebuffers(1, &pp.FBO)
	gl.BindFramebuffer(gl.FRAMEBUFFER, pp.FBO)
	gl.FramebufferTexture2D(gl.FRAMEBUFFER, gl.COLOR_ATTACHMENT0, gl.TEXTURE_2D, pp.ColorTex, 0)
	gl.FramebufferTexture2D(gl.FRAMEBUFFER, gl.DEPTH_ATTACHMENT, gl.TEXTURE_2D, pp.DepthTex, 0)
	if s := gl.CheckFramebufferStatus(gl.FRAMEBUFFER); s != gl.FRAMEBUFFER_COMPLETE {
		gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
		return fmt.Errorf("HDR FBO incomplete (0x%X)", s)
	}

	if pp.samples > 0 {
		gl.GenRenderbuffers(1, &pp.msColor)
		gl.BindRenderbuffer(gl.RENDERBUFFER, pp.msColor)
		gl.RenderbufferStorageMultisample(gl.RENDERBUFFER, pp.samples, gl.RGBA16F, pp.Width, pp.Height)

		gl.GenRenderbuffers(1, &pp.msDepth)
		gl.BindRenderbuffer(gl.RENDERBUFFER, pp.msDepth)
		gl.RenderbufferStorageMultisample(gl.RENDERBUFFER, pp.samples, gl.DEPTH_COMPONENT32F, pp.Width, pp.Height)
		gl.BindRenderbuffer(gl.RENDERBUFFER, 0)

		gl.GenFramebuffers(1, &pp.msFBO)
		gl.BindFramebuffer(gl.FRAMEBUFFER, pp.msFBO)
		gl.FramebufferRenderbuffer(gl.FRAMEBUFFER, gl.COLOR_ATTACHMENT0, gl.RENDERBUFFER, pp.msColor)
		gl.FramebufferRenderbuffer(gl.FRAMEBUFFER, gl.DEPTH_ATTACHMENT, gl.RENDERBUFFER, pp.msDepth)
		if s := gl.CheckFramebufferStatus(gl.FRAMEBUFFER); s != gl.FRAMEBUFFER_COMPLETE {
			gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
			return fmt.Errorf("multisample FBO incomplete (0x%X)", s)
		}
	}

	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
	return nil
}

func (pp *PostProcessFBO) freeFBO() {
	if pp.msFBO != 0 {
		gl.DeleteFramebuffers(1, &pp.msFBO)
		pp.msFBO = 0
	}
	if pp.msColor != 0 {
		gl.DeleteRenderbuffers(1, &pp.msColor)
		pp.msColor = 0
	}
	if pp.msDepth != 0 {
		gl.DeleteRenderbuffers(1, &pp.msDepth)
		pp.msDepth = 0
	}
	if pp.FBO != 0 {
		gl.DeleteFramebuffers(1, &pp.FBO)
		pp.FBO = 0
	}
	if pp.ColorTex != 0 {
		gl.DeleteTextures(1, &pp.ColorTex)
		pp.ColorTex = 0
	}
	if pp.DepthTex != 0 {
		gl.DeleteTextures(1, &pp.DepthTex)
		pp.DepthTex = 0
	}
}

// Resize recreates the targets at the new pixel dimensions.
func (pp *PostProcessFBO) Resize(width, height int) {
	if int32(width) == pp.Width && int32(height) == pp.Height {
		return
	}
	pp.freeFBO()
	if err := pp.allocFBO(width, height); err != nil {
		// Fall back to single-sampled rendering.
		pp.freeFBO()
		pp.samples = 0
		_ = pp.allocFBO(width, height)
	}
}

// Bind makes the scene target current and sets the viewport to cover it.
func (pp *PostProcessFBO) Bind() {
	if pp.msFBO != 0 {
		gl.BindFramebuffer(gl.FRAMEBUFFER, pp.msFBO)
	} else {
		gl.BindFramebuffer(gl.FRAMEBUFFER, pp.FBO)
	}
	gl.Viewport(0, 0, pp.Width, pp.Height)
}

// Present resolves multisampling and tone maps onto the default framebuffer.
func (pp *PostProcessFBO) Present(viewportW, viewportH int32) {
	if pp.msFBO != 0 {
		gl.BindFramebuffer(gl.READ_FRAMEBUFFER, pp.msFBO)
		gl.BindFramebuffer(gl.DRAW_FRAMEBUFFER, pp.FBO)
		gl.BlitFramebuffer(0, 0, pp.Width, pp.Height, 0, 0, pp.Width, pp.Height,
			gl.COLOR_BUFFER_BIT, gl.NEAREST)
	}

	if viewportW <= 0 || viewportH <= 0 {
		viewportW, viewportH = pp.Width, pp.Height
	}

	gl.Disable(gl.DEPTH_TEST)
	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
	gl.Viewport(0, 0, viewportW, viewportH)
	gl.UseProgram(pp.prog)
	gl.Uniform1f(pp.expLoc, pp.Exposure)
	gl.Uniform1i(pp.operatorLoc, int32(pp.Operator))
	gl.Uniform1i(pp.srgbLoc, boolToInt32(pp.OutputSRGB))
	gl.ActiveTexture(gl.TEXTURE0)
	gl.BindTexture(gl.TEXTURE_2D, pp.ColorTex)
	gl.BindVertexArray(pp.quadVAO)
	gl.DrawArrays(gl.TRIANGLES, 0, 3)
	gl.BindVertexArray(0)
	gl.Enable(gl.DEPTH_TEST)
}

// Destroy frees all GPU resources owned by this object.
func (pp *PostProcessFBO) Destroy() {
	pp.freeFBO()
	if pp.prog != 0 {
		gl.DeleteProgram(pp.prog)
		pp.prog = 0
	}
	if pp.quadVAO != 0 {
		gl.DeleteVertexArrays(1, &pp.quadVAO)
		pp.quadVAO = 0
	}
}
