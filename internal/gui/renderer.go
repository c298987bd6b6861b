package gui

import (
	"fmt"
	"unsafe"

	gl "github.com/go-gl/gl/v4.1-core/gl"
	"github.com/inkyblackness/imgui-go/v4"

	"model-viewer/internal/opengl"
)

// drawRenderer submits ImGui draw data with OpenGL 4.1 core.
type drawRenderer struct {
	prog        uint32
	texLoc      int32
	projLoc     int32
	posLoc      uint32
	uvLoc       uint32
	colorLoc    uint32
	vao         uint32
	vbo         uint32
	ebo         uint32
	fontTexture uint32
}

const guiVertSrc = `
#version 410 core
uniform mat4 projMtx;
in vec2 position;
in vec2 uv;
in vec4 color;
out vec2 fragUV;
out vec4 fragColor;
void main() {
    fragUV = uv;
    fragColor = color;
    gl_Position = projMtx * vec4(position.xy, 0, 1);
}
` + "\x00"

const guiFragSrc = `
#version 410 core
uniform sampler2D tex;
in vec2 fragUV;
in vec4 fragColor;
out vec4 outColor;
void main() {
    outColor = fragColor * texture(tex, fragUV.st);
}
` + "\x00"

func newDrawRenderer(io imgui.IO) (*drawRenderer, error) {
	prog, err := opengl.NewProgram(guiVertSrc, guiFragSrc)
	if err != nil {
		return nil, fmt.Errorf("gui shader: %w", err)
	}
	r := &drawRenderer{
		prog:     prog,
		texLoc:   gl.GetUniformLocation(prog, gl.Str("tex\x00")),
		projLoc:  gl.GetUniformLocation(prog, gl.Str("projMtx\x00")),
		posLoc:   uint32(gl.GetAttribLocation(prog, gl.Str("position\x00"))),
		uvLoc:    uint32(gl.GetAttribLocation(prog, gl.Str("uv\x00"))),
		colorLoc: uint32(gl.GetAttribLocation(prog, gl.Str("color\x00"))),
	}
	gl.GenVertexArrays(1, &r.vao)
	gl.GenBuffers(1, &r.vbo)
	gl.GenBuffers(1, &r.ebo)

	vertexSize, vertexOffsetPos, vertexOffsetUv, vertexOffsetCol := imgui.VertexBufferLayout()
	gl.BindVertexArray(r.vao)
	gl.BindBuffer(gl.ARRAY_BUFFER, r.vbo)
	gl.EnableVertexAttribArray(r.posLoc)
	gl.EnableVertexAttribArray(r.uvLoc)
	gl.EnableVertexAttribArray(r.colorLoc)
	gl.VertexAttribPointer(r.posLoc, 2, gl.FLOAT, false, int32(vertexSize), gl.PtrOffset(vertexOffsetPos))
	gl.VertexAttribPointer(r.uvLoc, 2, gl.FLOAT, false, int32(vertexSize), gl.PtrOffset(vertexOffsetUv))
	gl.VertexAttribPointer(r.colorLoc, 4, gl.UNSIGNED_BYTE, true, int32(vertexSize), gl.PtrOffset(vertexOffsetCol))
	gl.BindVertexArray(0)

	image := io.Fonts().TextureDataRGBA32()
	gl.GenTextures(1, &r.fontTexture)
	gl.BindTexture(gl.TEXTURE_2D, r.fontTexture)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.LINEAR)
	gl.PixelStorei(gl.UNPACK_ROW_LENGTH, 0)
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA, int32(image.Width), int32(image.Height),
		0, gl.RGBA, gl.UNSIGNED_BYTE, image.Pixels)
	gl.BindTexture(gl.TEXTURE_2D, 0)
	io.Fonts().SetTextureID(imgui.TextureID(r.fontTexture))

	return r, nil
}

// render draws the frame's draw data over whatever is in the default framebuffer.
func (r *drawRenderer) render(displaySize, framebufferSize [2]float32, drawData imgui.DrawData) {
	displayWidth, displayHeight := displaySize[0], displaySize[1]
	fbWidth, fbHeight := framebufferSize[0], framebufferSize[1]
	if fbWidth <= 0 || fbHeight <= 0 {
		return
	}
	drawData.ScaleClipRects(imgui.Vec2{
		X: fbWidth / displayWidth,
		Y: fbHeight / displayHeight,
	})

	gl.Enable(gl.BLEND)
	gl.BlendEquation(gl.FUNC_ADD)
	gl.BlendFunc(gl.SRC_ALPHA, gl.ONE_MINUS_SRC_ALPHA)
	gl.Disable(gl.CULL_FACE)
	gl.Disable(gl.DEPTH_TEST)
	gl.Enable(gl.SCISSOR_TEST)
	gl.PolygonMode(gl.FRONT_AND_BACK, gl.FILL)

	gl.Viewport(0, 0, int32(fbWidth), int32(fbHeight))
	orthoProjection := [4][4]float32{
		{2.0 / displayWidth, 0.0, 0.0, 0.0},
		{0.0, 2.0 / -displayHeight, 0.0, 0.0},
		{0.0, 0.0, -1.0, 0.0},
		{-1.0, 1.0, 0.0, 1.0},
	}
	gl.UseProgram(r.prog)
	gl.Uniform1i(r.texLoc, 0)
	gl.UniformMatrix4fv(r.projLoc, 1, false, &orthoProjection[0][0])
	gl.BindSampler(0, 0)
	gl.ActiveTexture(gl.TEXTURE0)
	gl.BindVertexArray(r.vao)

	indexSize := imgui.IndexBufferLayout()
	drawType := uint32(gl.UNSIGNED_SHORT)
	if indexSize == 4 {
		drawType = gl.UNSIGNED_INT
	}

	for _, list := range drawData.CommandLists() {
		vertexBuffer, vertexBufferSize := list.VertexBuffer()
		gl.BindBuffer(gl.ARRAY_BUFFER, r.vbo)
		gl.BufferData(gl.ARRAY_BUFFER, vertexBufferSize, vertexBuffer, gl.STREAM_DRAW)

		indexBuffer, indexBufferSize := list.IndexBuffer()
		gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, r.ebo)
		gl.BufferData(gl.ELEMENT_ARRAY_BUFFER, indexBufferSize, indexBuffer, gl.STREAM_DRAW)

		var indexBufferOffset uintptr
		for _, cmd := range list.Commands() {
			if cmd.HasUserCallback() {
				cmd.CallUserCallback(list)
			} else {
				gl.BindTexture(gl.TEXTURE_2D, uint32(cmd.TextureID()))
				clip := cmd.ClipRect()
				gl.Scissor(int32(clip.X), int32(fbHeight)-int32(clip.W), int32(clip.Z-clip.X), int32(clip.W-clip.Y))
				gl.DrawElements(gl.TRIANGLES, int32(cmd.ElementCount()), drawType, unsafe.Pointer(indexBufferOffset))
			}
			indexBufferOffset += uintptr(cmd.ElementCount() * indexSize)
		}
	}

	gl.BindVertexArray(0)
	gl.Disable(gl.SCISSOR_TEST)
	gl.Enable(gl.DEPTH_TEST)
}

func (r *drawRenderer) destroy() {
	gl.DeleteVertexArrays(1, &r.vao)
	gl.DeleteBuffers(1, &r.vbo)
	gl.DeleteBuffers(1, &r.ebo)
	if r.fontTexture != 0 {
		gl.DeleteTextures(1, &r.fontTexture)
		imgui.CurrentIO().Fonts().SetTextureID(0)
		r.fontTexture = 0
	}
	gl.DeleteProgram(r.prog)
}
