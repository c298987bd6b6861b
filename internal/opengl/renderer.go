package opengl

import (
	"fmt"
	"unsafe"

	gl "github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/mathgl/mgl32"

	"model-viewer/core"
	"model-viewer/scene"
)

// GPUMesh holds the OpenGL buffer objects for an uploaded mesh.
type GPUMesh struct {
	VAO        uint32
	VBO        uint32
	EBO        uint32
	IndexCount int32
	HasIndices bool
}

// FrameParams carries the per-frame state shared by every draw.
type FrameParams struct {
	Clear     core.Color
	CameraPos mgl32.Vec3
	Light     scene.DirectionalLight

	// Environment is sampled for image-based lighting when non-nil and uploaded.
	Environment  *scene.HDRTexture
	EnvIntensity float32
}

// Renderer is the OpenGL rendering backend.
type Renderer struct {
	program uint32

	mvpLoc       int32
	modelLoc     int32
	cameraPosLoc int32

	lightDirLoc       int32
	lightColorLoc     int32
	lightIntensityLoc int32
	ambientLoc        int32

	hasEnvLoc       int32
	envMapLoc       int32
	envMaxLodLoc    int32
	envIntensityLoc int32

	matBaseColorLoc int32
	matMetallicLoc  int32
	matRoughnessLoc int32
	matEmissiveLoc  int32

	baseColorTexLoc            int32
	hasBaseColorTexLoc         int32
	normalTexLoc               int32
	hasNormalTexLoc            int32
	metallicRoughnessTexLoc    int32
	hasMetallicRoughnessTexLoc int32
	emissiveTexLoc             int32
	hasEmissiveTexLoc          int32

	gpuMeshes map[*scene.Mesh]*GPUMesh

	background  *Background
	postProcess *PostProcessFBO

	viewportW int32
	viewportH int32

	logger core.Logger
}

const vertSrc = `
#version 410 core
layout(location = 0) in vec3 inPosition;
layout(location = 1) in vec3 inNormal;
layout(location = 2) in vec2 inUV;
layout(location = 3) in vec4 inColor;
layout(location = 4) in vec3 inTangent;
layout(location = 5) in vec3 inBitangent;

uniform mat4 mvp;
uniform mat4 model;

out vec4 fragColor;
out vec3 fragNormal;
out vec2 fragUV;
out vec3 fragWorldPos;
out vec3 fragTangent;
out vec3 fragBitangent;

void main() {
    mat3 normalMat = mat3(transpose(inverse(model)));
    vec4 worldPos  = model * vec4(inPosition, 1.0);

    gl_Position   = mvp * vec4(inPosition, 1.0);
    fragColor     = inColor;
    fragNormal    = normalMat * inNormal;
    fragUV        = inUV;
    fragWorldPos  = worldPos.xyz;
    fragTangent   = mat3(model) * inTangent;
    fragBitangent = mat3(model) * inBitangent;
}
` + "\x00"

// Metallic-roughness Cook-Torrance with an equirectangular environment for
// diffuse and specular ambient. Without an environment the key light and a
// flat ambient term light the model.
const fragSrc = `
#version 410 core
in vec4 fragColor;
in vec3 fragNormal;
in vec2 fragUV;
in vec3 fragWorldPos;
in vec3 fragTangent;
in vec3 fragBitangent;

out vec4 outColor;

uniform vec3  cameraPos;

uniform vec3  lightDir;
uniform vec3  lightColor;
uniform float lightIntensity;
uniform float ambient;

uniform bool      hasEnv;
uniform sampler2D envMap;      // unit 5
uniform float     envMaxLod;
uniform float     envIntensity;

uniform vec4  matBaseColor;
uniform float matMetallic;
uniform float matRoughness;
uniform vec3  matEmissive;

uniform sampler2D baseColorTex;          // unit 0
uniform bool      hasBaseColorTex;
uniform sampler2D normalTex;             // unit 2
uniform bool      hasNormalTex;
uniform sampler2D metallicRoughnessTex;  // unit 3, G=roughness B=metallic
uniform bool      hasMetallicRoughnessTex;
uniform sampler2D emissiveTex;           // unit 4
uniform bool      hasEmissiveTex;

const float PI = 3.14159265359;

float DistributionGGX(vec3 N, vec3 H, float roughness) {
    float a  = roughness * roughness;
    float a2 = a * a;
    float NdH = max(dot(N, H), 0.0);
    float d   = NdH * NdH * (a2 - 1.0) + 1.0;
    return a2 / (PI * d * d);
}

float GeometrySchlickGGX(float cosTheta, float roughness) {
    float r = roughness + 1.0;
    float k = (r * r) / 8.0;
    return cosTheta / (cosTheta * (1.0 - k) + k);
}

float GeometrySmith(float NdV, float NdL, float roughness) {
    return GeometrySchlickGGX(NdV, roughness) * GeometrySchlickGGX(NdL, roughness);
}

vec3 FresnelSchlick(float cosTheta, vec3 F0) {
    return F0 + (1.0 - F0) * pow(clamp(1.0 - cosTheta, 0.0, 1.0), 5.0);
}

vec3 FresnelSchlickRoughness(float cosTheta, vec3 F0, float roughness) {
    return F0 + (max(vec3(1.0 - roughness), F0) - F0) * pow(clamp(1.0 - cosTheta, 0.0, 1.0), 5.0);
}

// Analytic split-sum approximation of the specular environment BRDF.
vec2 EnvBRDFApprox(float NdV, float roughness) {
    const vec4 c0 = vec4(-1.0, -0.0275, -0.572, 0.022);
    const vec4 c1 = vec4(1.0, 0.0425, 1.04, -0.04);
    vec4 r = roughness * c0 + c1;
    float a004 = min(r.x * r.x, exp2(-9.28 * NdV)) * r.x + r.y;
    return vec2(-1.04, 1.04) * a004 + r.zw;
}

// Rows are stored top to bottom, so +Y maps to v = 0.
vec2 equirectUV(vec3 dir) {
    float u = atan(dir.z, dir.x) / (2.0 * PI) + 0.5;
    float v = 0.5 - asin(clamp(dir.y, -1.0, 1.0)) / PI;
    return vec2(u, v);
}

vec3 sampleEnv(vec3 dir, float lod) {
    return textureLod(envMap, equirectUV(normalize(dir)), lod).rgb * envIntensity;
}

void main() {
    vec3 N = normalize(fragNormal);
    if (hasNormalTex) {
        mat3 TBN = mat3(normalize(fragTangent), normalize(fragBitangent), N);
        N = normalize(TBN * (texture(normalTex, fragUV).rgb * 2.0 - 1.0));
    }
    if (!gl_FrontFacing) {
        N = -N;
    }
    vec3 V = normalize(cameraPos - fragWorldPos);

    vec4 baseColor = fragColor * matBaseColor;
    if (hasBaseColorTex) {
        baseColor *= texture(baseColorTex, fragUV);
    }

    float metallic  = matMetallic;
    float roughness = matRoughness;
    if (hasMetallicRoughnessTex) {
        vec4 mr = texture(metallicRoughnessTex, fragUV);
        roughness *= mr.g;
        metallic  *= mr.b;
    }
    metallic  = clamp(metallic, 0.0, 1.0);
    roughness = clamp(roughness, 0.04, 1.0);

    vec3  albedo = baseColor.rgb;
    vec3  F0     = mix(vec3(0.04), albedo, metallic);
    float NdV    = max(dot(N, V), 0.0);

    // Key light
    vec3  L   = normalize(-lightDir);
    vec3  H   = normalize(V + L);
    float NdL = max(dot(N, L), 0.0);
    vec3  Lo  = vec3(0.0);
    if (NdL > 0.0) {
        float D = DistributionGGX(N, H, roughness);
        float G = GeometrySmith(NdV, NdL, roughness);
        vec3  F = FresnelSchlick(max(dot(H, V), 0.0), F0);
        vec3 kD = (vec3(1.0) - F) * (1.0 - metallic);
        vec3 specular = D * G * F / max(4.0 * NdV * NdL, 0.001);
        Lo = (kD * albedo / PI + specular) * lightColor * lightIntensity * NdL;
    }

    // Ambient
    vec3 F  = FresnelSchlickRoughness(NdV, F0, roughness);
    vec3 kD = (1.0 - F) * (1.0 - metallic);
    vec3 ambientColor;
    if (hasEnv) {
        vec3 irradiance = sampleEnv(N, max(envMaxLod - 2.0, 0.0));
        vec3 R          = reflect(-V, N);
        vec3 prefiltered = sampleEnv(R, roughness * envMaxLod);
        vec2 brdf       = EnvBRDFApprox(NdV, roughness);
        ambientColor = kD * irradiance * albedo + prefiltered * (F0 * brdf.x + brdf.y);
    } else {
        ambientColor = kD * albedo * ambient + F * ambient * (1.0 - roughness) * 0.5;
    }

    vec3 emissive = matEmissive;
    if (hasEmissiveTex) {
        emissive *= texture(emissiveTex, fragUV).rgb;
    }

    outColor = vec4(Lo + ambientColor + emissive, baseColor.a);
}
` + "\x00"

// NewRenderer initialises OpenGL and compiles the model shader.
// Must be called after the GLFW window context is made current.
func NewRenderer(logger core.Logger) (*Renderer, error) {
	logger = core.OrNop(logger)
	if err := gl.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize OpenGL: %w", err)
	}
	logger.Infof("OpenGL version: %s", gl.GoStr(gl.GetString(gl.VERSION)))

	prog, err := NewProgram(vertSrc, fragSrc)
	if err != nil {
		return nil, fmt.Errorf("main shader compile: %w", err)
	}

	gl.Enable(gl.DEPTH_TEST)
	gl.DepthFunc(gl.LESS)
	gl.Enable(gl.BLEND)
	gl.BlendFunc(gl.SRC_ALPHA, gl.ONE_MINUS_SRC_ALPHA)

	r := &Renderer{
		program: prog,

		mvpLoc:       uniformLoc(prog, "mvp"),
		modelLoc:     uniformLoc(prog, "model"),
		cameraPosLoc: uniformLoc(prog, "cameraPos"),

		lightDirLoc:       uniformLoc(prog, "lightDir"),
		lightColorLoc:     uniformLoc(prog, "lightColor"),
		lightIntensityLoc: uniformLoc(prog, "lightIntensity"),
		ambientLoc:        uniformLoc(prog, "ambient"),

		hasEnvLoc:       uniformLoc(prog, "hasEnv"),
		envMapLoc:       uniformLoc(prog, "envMap"),
		envMaxLodLoc:    uniformLoc(prog, "envMaxLod"),
		envIntensityLoc: uniformLoc(prog, "envIntensity"),

		matBaseColorLoc: uniformLoc(prog, "matBaseColor"),
		matMetallicLoc:  uniformLoc(prog, "matMetallic"),
		matRoughnessLoc: uniformLoc(prog, "matRoughness"),
		matEmissiveLoc:  uniformLoc(prog, "matEmissive"),

		baseColorTexLoc:            uniformLoc(prog, "baseColorTex"),
		hasBaseColorTexLoc:         uniformLoc(prog, "hasBaseColorTex"),
		normalTexLoc:               uniformLoc(prog, "normalTex"),
		hasNormalTexLoc:            uniformLoc(prog, "hasNormalTex"),
		metallicRoughnessTexLoc:    uniformLoc(prog, "metallicRoughnessTex"),
		hasMetallicRoughnessTexLoc: uniformLoc(prog, "hasMetallicRoughnessTex"),
		emissiveTexLoc:             uniformLoc(prog, "emissiveTex"),
		hasEmissiveTexLoc:          uniformLoc(prog, "hasEmissiveTex"),

		gpuMeshes: make(map[*scene.Mesh]*GPUMesh),
		logger:    logger,
	}

	// Texture units: baseColor=0, normal=2, metallicRoughness=3, emissive=4, env=5
	gl.UseProgram(prog)
	gl.Uniform1i(r.baseColorTexLoc, 0)
	gl.Uniform1i(r.normalTexLoc, 2)
	gl.Uniform1i(r.metallicRoughnessTexLoc, 3)
	gl.Uniform1i(r.emissiveTexLoc, 4)
	gl.Uniform1i(r.envMapLoc, 5)

	return r, nil
}

// SetViewport resizes the default-framebuffer viewport.
func (r *Renderer) SetViewport(width, height int) {
	r.viewportW = int32(width)
	r.viewportH = int32(height)
	gl.Viewport(0, 0, int32(width), int32(height))
}

// EnableBackground compiles the environment background pass.
func (r *Renderer) EnableBackground() error {
	if r.background != nil {
		return nil
	}
	bg, err := NewBackground()
	if err != nil {
		return err
	}
	r.background = bg
	return nil
}

// DrawBackground draws env behind all geometry. No-op until the texture is uploaded.
func (r *Renderer) DrawBackground(env *scene.HDRTexture, intensity float32, view, proj mgl32.Mat4) {
	if r.background == nil || env == nil || env.GLID == 0 {
		return
	}
	r.background.Draw(env.GLID, intensity, view, proj)
	gl.UseProgram(r.program)
}

// EnablePostProcess creates the HDR render target. samples > 0 enables MSAA.
func (r *Renderer) EnablePostProcess(width, height, samples int) error {
	if r.postProcess != nil {
		return nil
	}
	pp, err := NewPostProcessFBO(width, height, samples)
	if err != nil {
		return err
	}
	r.postProcess = pp
	return nil
}

func (r *Renderer) HasPostProcess() bool {
	return r.postProcess != nil
}

// ResizePostProcess reallocates the HDR target. Same-size calls are free.
func (r *Renderer) ResizePostProcess(width, height int) {
	if r.postProcess != nil {
		r.postProcess.Resize(width, height)
	}
}

// SetToneMapping configures the final pass.
func (r *Renderer) SetToneMapping(op ToneMapOperator, exposure float32, outputSRGB bool) {
	if r.postProcess == nil {
		return
	}
	r.postProcess.Operator = op
	r.postProcess.Exposure = exposure
	r.postProcess.OutputSRGB = outputSRGB
}

// BeginFrame binds the scene target, clears it and sets per-frame uniforms.
func (r *Renderer) BeginFrame(p FrameParams) {
	if r.postProcess != nil {
		r.postProcess.Bind()
	} else {
		gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
		gl.Viewport(0, 0, r.viewportW, r.viewportH)
	}
	gl.Enable(gl.DEPTH_TEST)
	gl.DepthMask(true)
	gl.ClearColor(p.Clear.R, p.Clear.G, p.Clear.B, 1)
	gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)

	gl.UseProgram(r.program)
	gl.Uniform3f(r.cameraPosLoc, p.CameraPos.X(), p.CameraPos.Y(), p.CameraPos.Z())

	dir := p.Light.Direction
	if dir.Len() == 0 {
		dir = mgl32.Vec3{0, -1, 0}
	}
	dir = dir.Normalize()
	gl.Uniform3f(r.lightDirLoc, dir.X(), dir.Y(), dir.Z())
	gl.Uniform3f(r.lightColorLoc, p.Light.Color.R, p.Light.Color.G, p.Light.Color.B)
	gl.Uniform1f(r.lightIntensityLoc, p.Light.Intensity)
	gl.Uniform1f(r.ambientLoc, p.Light.Ambient)

	if env := p.Environment; env != nil && env.GLID != 0 {
		gl.ActiveTexture(gl.TEXTURE5)
		gl.BindTexture(gl.TEXTURE_2D, env.GLID)
		gl.Uniform1i(r.hasEnvLoc, 1)
		gl.Uniform1f(r.envMaxLodLoc, MipLevels(env.Width, env.Height))
		gl.Uniform1f(r.envIntensityLoc, p.EnvIntensity)
	} else {
		gl.Uniform1i(r.hasEnvLoc, 0)
	}
}

// DrawMesh draws a mesh with the given MVP and model matrices.
func (r *Renderer) DrawMesh(mesh *scene.Mesh, mvp, model mgl32.Mat4) {
	gpu := r.ensureUploaded(mesh)
	if gpu == nil {
		return
	}

	gl.UseProgram(r.program)
	gl.UniformMatrix4fv(r.mvpLoc, 1, false, &mvp[0])
	gl.UniformMatrix4fv(r.modelLoc, 1, false, &model[0])

	mat := mesh.Material
	if mat == nil {
		mat = scene.DefaultMaterial()
	}
	r.applyMaterial(mat)

	if mat.DoubleSided {
		gl.Disable(gl.CULL_FACE)
	} else {
		gl.Enable(gl.CULL_FACE)
		gl.CullFace(gl.BACK)
	}

	gl.BindVertexArray(gpu.VAO)
	if gpu.HasIndices {
		gl.DrawElements(gl.TRIANGLES, gpu.IndexCount, gl.UNSIGNED_INT, nil)
	} else {
		gl.DrawArrays(gl.TRIANGLES, 0, int32(len(mesh.Vertices)))
	}
	gl.BindVertexArray(0)
}

// EndFrame resolves and tone maps the scene target onto the default framebuffer.
func (r *Renderer) EndFrame() {
	gl.Disable(gl.CULL_FACE)
	if r.postProcess == nil {
		return
	}
	r.postProcess.Present(r.viewportW, r.viewportH)
}

// applyMaterial sets material uniforms and binds textures.
// Must be called while r.program is active.
func (r *Renderer) applyMaterial(mat *scene.Material) {
	c := mat.BaseColor
	gl.Uniform4f(r.matBaseColorLoc, c.R, c.G, c.B, c.A)
	gl.Uniform1f(r.matMetallicLoc, mat.Metalness)
	gl.Uniform1f(r.matRoughnessLoc, mat.Roughness)
	gl.Uniform3f(r.matEmissiveLoc, mat.Emissive.R, mat.Emissive.G, mat.Emissive.B)

	bindTexture(gl.TEXTURE0, mat.BaseColorTexture, r.hasBaseColorTexLoc)
	bindTexture(gl.TEXTURE2, mat.NormalTexture, r.hasNormalTexLoc)
	bindTexture(gl.TEXTURE3, mat.MetallicRoughnessTexture, r.hasMetallicRoughnessTexLoc)
	bindTexture(gl.TEXTURE4, mat.EmissiveTexture, r.hasEmissiveTexLoc)
}

func bindTexture(unit uint32, tex *scene.Texture, flagLoc int32) {
	if tex == nil || tex.GLID == 0 {
		gl.Uniform1i(flagLoc, 0)
		return
	}
	gl.ActiveTexture(unit)
	gl.BindTexture(gl.TEXTURE_2D, tex.GLID)
	gl.Uniform1i(flagLoc, 1)
}

// ReleaseMesh frees GPU buffers for the given mesh.
func (r *Renderer) ReleaseMesh(mesh *scene.Mesh) {
	gpu, ok := r.gpuMeshes[mesh]
	if !ok {
		return
	}
	gl.DeleteVertexArrays(1, &gpu.VAO)
	gl.DeleteBuffers(1, &gpu.VBO)
	if gpu.HasIndices {
		gl.DeleteBuffers(1, &gpu.EBO)
	}
	delete(r.gpuMeshes, mesh)
	mesh.GPUData = nil
}

// Destroy releases all GPU resources.
func (r *Renderer) Destroy() {
	for mesh := range r.gpuMeshes {
		r.ReleaseMesh(mesh)
	}
	if r.postProcess != nil {
		r.postProcess.Destroy()
	}
	if r.background != nil {
		r.background.Destroy()
	}
	gl.DeleteProgram(r.program)
}

// ensureUploaded uploads vertex/index data if not already done.
func (r *Renderer) ensureUploaded(mesh *scene.Mesh) *GPUMesh {
	if gpu, ok := r.gpuMeshes[mesh]; ok {
		return gpu
	}
	if len(mesh.Vertices) == 0 {
		return nil
	}

	stride := int32(unsafe.Sizeof(core.Vertex{}))

	gpu := &GPUMesh{
		IndexCount: int32(len(mesh.Indices)),
		HasIndices: len(mesh.Indices) > 0,
	}

	gl.GenVertexArrays(1, &gpu.VAO)
	gl.GenBuffers(1, &gpu.VBO)
	gl.BindVertexArray(gpu.VAO)

	gl.BindBuffer(gl.ARRAY_BUFFER, gpu.VBO)
	gl.BufferData(gl.ARRAY_BUFFER,
		len(mesh.Vertices)*int(stride),
		gl.Ptr(mesh.Vertices),
		gl.STATIC_DRAW)

	var v core.Vertex
	attribs := []struct {
		size   int32
		offset uintptr
	}{
		{3, unsafe.Offsetof(v.Position)},
		{3, unsafe.Offsetof(v.Normal)},
		{2, unsafe.Offsetof(v.UV)},
		{4, unsafe.Offsetof(v.Color)},
		{3, unsafe.Offsetof(v.Tangent)},
		{3, unsafe.Offsetof(v.Bitangent)},
	}
	for i, a := range attribs {
		gl.EnableVertexAttribArray(uint32(i))
		gl.VertexAttribPointer(uint32(i), a.size, gl.FLOAT, false, stride, gl.PtrOffset(int(a.offset)))
	}

	if gpu.HasIndices {
		gl.GenBuffers(1, &gpu.EBO)
		gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, gpu.EBO)
		gl.BufferData(gl.ELEMENT_ARRAY_BUFFER,
			len(mesh.Indices)*4,
			gl.Ptr(mesh.Indices),
			gl.STATIC_DRAW)
	}

	gl.BindVertexArray(0)

	r.gpuMeshes[mesh] = gpu
	mesh.GPUData = gpu
	r.logger.Debugf("uploaded mesh %q: %d vertices, %d indices", mesh.Name, len(mesh.Vertices), len(mesh.Indices))
	return gpu
}
