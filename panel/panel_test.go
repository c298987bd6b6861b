package panel

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"model-viewer/scene"
)

func TestFloat32Binding(t *testing.T) {
	var field float32 = 0.5
	p := New("Debug", nil)
	b := p.AddFolder("Material").Add("metalness", Float32(&field), 0, 1, 0.01).Name("Metalness")

	assert.Equal(t, "Metalness", b.Label())
	assert.Equal(t, float32(0.5), b.Value())

	for _, v := range []float32{0, 0.25, 1} {
		assert.Equal(t, v, b.SetValue(v))
		assert.Equal(t, v, field)
		assert.Equal(t, v, b.Value())
	}
}

func TestSetValueClamps(t *testing.T) {
	var field float32
	b := New("Debug", nil).AddFolder("Camera").Add("x", Float32(&field), -10, 10, 0.01)

	assert.Equal(t, float32(10), b.SetValue(42))
	assert.Equal(t, float32(10), field)
	assert.Equal(t, float32(-10), b.SetValue(-1e9))
	assert.Equal(t, float32(-10), field)
}

func TestSetValueRejectsNaN(t *testing.T) {
	var field float32 = 0.3
	calls := 0
	b := New("Debug", nil).AddFolder("Material").Add("roughness", Float32(&field), 0, 1, 0.01).
		OnChange(func(float32) { calls++ })

	got := b.SetValue(float32(math.NaN()))
	assert.Equal(t, float32(0.3), got)
	assert.Equal(t, float32(0.3), field)
	assert.Zero(t, calls)
}

func TestOnChangeRunsAfterWrite(t *testing.T) {
	cam := scene.NewCamera(65, 1, 0.1, 100)
	version := cam.ProjectionVersion()

	var seen []float32
	b := New("Debug", nil).AddFolder("Camera").
		Add("zoom", Float32(&cam.Zoom), 0.1, 5, 0.1).
		Name("Zoom").
		OnChange(func(v float32) {
			assert.Equal(t, v, cam.Zoom, "hook must see the written value")
			seen = append(seen, v)
			cam.UpdateProjectionMatrix()
		})

	b.SetValue(2)
	assert.Equal(t, []float32{2}, seen)
	assert.False(t, cam.ProjectionStale())
	assert.Equal(t, version+1, cam.ProjectionVersion())

	b.SetValue(99)
	assert.Equal(t, []float32{2, 5}, seen)
	assert.Equal(t, float32(5), cam.Zoom)
}

func TestNudgeMovesBySteps(t *testing.T) {
	var field float32 = 1
	b := New("Debug", nil).AddFolder("Camera").Add("zoom", Float32(&field), 0.1, 5, 0.1)

	assert.InDelta(t, 1.3, b.Nudge(3), 1e-6)
	assert.InDelta(t, 1.1, b.Nudge(-2), 1e-6)
	assert.InDelta(t, 0.1, b.Nudge(-100), 1e-6)
}

func TestMaterialBindingsThroughOverride(t *testing.T) {
	override := scene.NewMaterialOverride(0.5, 0.5)
	mat := scene.DefaultMaterial()
	model := &scene.Model{Root: scene.NewNode("m"), Materials: []*scene.Material{mat}}
	override.Attach(model)

	folder := New("Debug", nil).AddFolder("Material").Open()
	metal := folder.Add("metalness", Property{
		Get: func() float32 { return override.Metalness },
		Set: override.SetMetalness,
	}, 0, 1, 0.01)
	rough := folder.Add("roughness", Property{
		Get: func() float32 { return override.Roughness },
		Set: override.SetRoughness,
	}, 0, 1, 0.01)

	metal.SetValue(1)
	rough.SetValue(0)
	assert.Equal(t, float32(1), mat.Metalness)
	assert.Equal(t, float32(0), mat.Roughness)
}

func TestFoldersAndFind(t *testing.T) {
	var x, y float32
	p := New("Debug", nil)
	mat := p.AddFolder("Material")
	cam := p.AddFolder("Camera").Open()
	cam.Add("x", Float32(&x), -10, 10, 0.01).Name("Camera X")
	cam.Add("y", Float32(&y), -10, 10, 0.01).Name("Camera Y")

	require.Len(t, p.Folders(), 2)
	assert.False(t, mat.IsOpen())
	assert.True(t, cam.IsOpen())
	assert.False(t, cam.Close().IsOpen())

	b := p.Find("Camera", "Camera Y")
	require.NotNil(t, b)
	b.SetValue(3)
	assert.Equal(t, float32(3), y)
	assert.Nil(t, p.Find("Camera", "Camera W"))
	assert.Nil(t, p.Find("Lights", "Camera X"))
}

func TestAddNormalizesRange(t *testing.T) {
	var v float32
	b := New("Debug", nil).AddFolder("f").Add("v", Float32(&v), 1, -1, 0)
	assert.Equal(t, float32(-1), b.Min)
	assert.Equal(t, float32(1), b.Max)
	assert.InDelta(t, 0.02, b.Step, 1e-6)
}
