package scene

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"model-viewer/core"
)

func testModel(name string, materials ...*Material) *Model {
	root := NewNode(name)
	for i, mat := range materials {
		child := NewNode(mat.Name)
		child.Mesh = CreateMeshFromData(mat.Name, []core.Vertex{
			{Position: mgl32.Vec3{0, 0, 0}},
			{Position: mgl32.Vec3{1, 0, 0}},
			{Position: mgl32.Vec3{0, 1, float32(i)}},
		}, nil)
		child.Mesh.Material = mat
		root.AddChild(child)
	}
	return &Model{Name: name, Root: root, Materials: materials}
}

func TestSceneEnvironmentAndModelAreIndependent(t *testing.T) {
	env := NewEquirectEnvironment(&HDRTexture{Width: 2, Height: 1, Pixels: make([]float32, 6)})
	model := testModel("m", DefaultMaterial())

	a := NewScene()
	a.SetEnvironment(env)
	a.AddModel(model)

	b := NewScene()
	b.AddModel(testModel("m", DefaultMaterial()))
	b.SetEnvironment(env)

	assert.Same(t, a.Environment, b.Environment)
	require.Len(t, a.Models(), 1)
	require.Len(t, b.Models(), 1)
	assert.Len(t, a.VisibleNodes(), len(b.VisibleNodes()))
	assert.Equal(t, MappingEquirectangularReflection, a.Environment.Mapping)
}

func TestSceneSetEnvironmentReplaces(t *testing.T) {
	s := NewScene()
	first := NewEquirectEnvironment(&HDRTexture{Name: "first"})
	second := NewEquirectEnvironment(&HDRTexture{Name: "second"})

	s.SetEnvironment(first)
	s.SetEnvironment(second)

	assert.Equal(t, "second", s.Environment.Texture.Name)
}

func TestSceneVisibleNodesSkipsHiddenSubtrees(t *testing.T) {
	s := NewScene()
	model := testModel("m", DefaultMaterial(), DefaultMaterial())
	s.AddModel(model)
	require.Len(t, s.VisibleNodes(), 2)

	model.Root.Children[0].Visible = false
	assert.Len(t, s.VisibleNodes(), 1)

	model.Root.Visible = false
	assert.Empty(t, s.VisibleNodes())
}

func TestNodeWorldMatrixFollowsParent(t *testing.T) {
	parent := NewNode("parent")
	child := NewNode("child")
	parent.AddChild(child)

	child.SetPosition(mgl32.Vec3{1, 0, 0})
	parent.SetPosition(mgl32.Vec3{0, 2, 0})

	p := mgl32.TransformCoordinate(mgl32.Vec3{}, child.WorldMatrix())
	assert.True(t, p.ApproxEqual(mgl32.Vec3{1, 2, 0}), "got %v", p)

	parent.RemoveChild(child)
	p = mgl32.TransformCoordinate(mgl32.Vec3{}, child.WorldMatrix())
	assert.True(t, p.ApproxEqual(mgl32.Vec3{1, 0, 0}), "got %v", p)
	assert.Nil(t, child.Parent)
}

func TestNodeFind(t *testing.T) {
	root := NewNode("root")
	a := NewNode("a")
	b := NewNode("b")
	root.AddChild(a)
	a.AddChild(b)

	assert.Same(t, b, root.Find("b"))
	assert.Nil(t, root.Find("missing"))
	assert.NotEqual(t, a.ID, b.ID)
}

func TestMaterialOverrideFansOut(t *testing.T) {
	m1 := DefaultMaterial()
	m2 := DefaultMaterial()
	override := NewMaterialOverride(0.5, 0.5)

	override.Attach(testModel("m", m1, m2))
	assert.Len(t, override.Targets(), 2)

	override.SetMetalness(1)
	override.SetRoughness(0)
	for _, m := range []*Material{m1, m2} {
		assert.Equal(t, float32(1), m.Metalness)
		assert.Equal(t, float32(0), m.Roughness)
	}
}

func TestMaterialOverrideAppliesToLateModel(t *testing.T) {
	override := NewMaterialOverride(0.5, 0.5)
	override.SetMetalness(1)
	override.SetRoughness(0)
	assert.Empty(t, override.Targets())

	late := DefaultMaterial()
	override.Attach(testModel("late", late))
	assert.Equal(t, float32(1), late.Metalness)
	assert.Equal(t, float32(0), late.Roughness)
}

func TestMaterialOverrideKeepsModelValuesUntilWritten(t *testing.T) {
	steel, rubber := DefaultMaterial(), DefaultMaterial()
	steel.Metalness, steel.Roughness = 0.8, 0.3
	rubber.Metalness, rubber.Roughness = 0, 0.9
	override := NewMaterialOverride(0.5, 0.5)

	override.Attach(testModel("m", steel, rubber))

	assert.Equal(t, float32(0.8), steel.Metalness)
	assert.Equal(t, float32(0.3), steel.Roughness)
	assert.Equal(t, float32(0.9), rubber.Roughness)
	assert.Equal(t, float32(0.8), override.Metalness)
	assert.Equal(t, float32(0.3), override.Roughness)

	override.SetRoughness(0.6)
	assert.Equal(t, float32(0.6), steel.Roughness)
	assert.Equal(t, float32(0.6), rubber.Roughness)
	assert.Equal(t, float32(0.8), steel.Metalness)
}

func TestMaterialOverrideDetach(t *testing.T) {
	keep, drop := DefaultMaterial(), DefaultMaterial()
	kept, dropped := testModel("kept", keep), testModel("dropped", drop)
	override := NewMaterialOverride(0.5, 0.5)
	override.Attach(kept)
	override.Attach(dropped)

	override.Detach(dropped)
	override.SetRoughness(0.9)

	assert.Equal(t, []*Material{keep}, override.Targets())
	assert.Equal(t, float32(0.9), keep.Roughness)
	assert.Equal(t, float32(0.5), drop.Roughness)
}

func TestSceneRemoveModel(t *testing.T) {
	s := NewScene()
	a, b := testModel("a", DefaultMaterial()), testModel("b", DefaultMaterial())
	s.AddModel(a)
	s.AddModel(b)

	s.RemoveModel(a)

	assert.Equal(t, []*Model{b}, s.Models())
	require.Len(t, s.Root.Children, 1)
	assert.Same(t, b.Root, s.Root.Children[0])
	assert.Nil(t, a.Root.Parent)
}

func TestFrustumCulling(t *testing.T) {
	cam := NewCamera(65, 1, 0.1, 100)
	cam.SetPosition(0, 0, 5)
	cam.LookAt(mgl32.Vec3{})
	f := FrustumFromVP(cam.ViewProjectionMatrix())

	inside := AABB{Min: mgl32.Vec3{-1, -1, -1}, Max: mgl32.Vec3{1, 1, 1}}
	behind := AABB{Min: mgl32.Vec3{-1, -1, 10}, Max: mgl32.Vec3{1, 1, 12}}
	assert.True(t, inside.IntersectsFrustum(&f))
	assert.False(t, behind.IntersectsFrustum(&f))
}

func TestModelBounds(t *testing.T) {
	model := testModel("m", DefaultMaterial())
	model.Root.SetPosition(mgl32.Vec3{10, 0, 0})

	box, ok := model.Bounds()
	require.True(t, ok)
	assert.True(t, box.Min.ApproxEqual(mgl32.Vec3{10, 0, 0}), "min %v", box.Min)
	assert.True(t, box.Max.ApproxEqual(mgl32.Vec3{11, 1, 0}), "max %v", box.Max)
}
