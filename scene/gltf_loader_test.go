package scene

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"path/filepath"
	"strings"
	"testing"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// quadDocument builds a one-node, one-mesh document with a metal/rough material
// and an embedded PNG base colour texture.
func quadDocument(t *testing.T) *gltf.Document {
	t.Helper()
	doc := gltf.NewDocument()

	positions := modeler.WritePosition(doc, [][3]float32{{0, 0, 0}, {1, 0, 0}, {1, 1, 0}, {0, 1, 0}})
	normals := modeler.WriteNormal(doc, [][3]float32{{0, 0, 1}, {0, 0, 1}, {0, 0, 1}, {0, 0, 1}})
	uvs := modeler.WriteTextureCoord(doc, [][2]float32{{0, 0}, {1, 0}, {1, 1}, {0, 1}})
	indices := modeler.WriteIndices(doc, []uint16{0, 1, 2, 2, 3, 0})

	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	imgIdx, err := modeler.WriteImage(doc, "base.png", "image/png", &buf)
	require.NoError(t, err)
	doc.Textures = append(doc.Textures, &gltf.Texture{Source: gltf.Index(imgIdx)})

	doc.Materials = append(doc.Materials, &gltf.Material{
		Name: "Steel",
		PBRMetallicRoughness: &gltf.PBRMetallicRoughness{
			BaseColorTexture: &gltf.TextureInfo{Index: 0},
			MetallicFactor:   gltf.Float(0.8),
			RoughnessFactor:  gltf.Float(0.3),
		},
	})
	doc.Meshes = append(doc.Meshes, &gltf.Mesh{
		Name: "Quad",
		Primitives: []*gltf.Primitive{{
			Indices:    gltf.Index(indices),
			Material:   gltf.Index(0),
			Attributes: map[string]int{"POSITION": positions, "NORMAL": normals, "TEXCOORD_0": uvs},
		}},
	})
	doc.Nodes = append(doc.Nodes, &gltf.Node{Name: "QuadNode", Mesh: gltf.Index(0), Translation: [3]float64{0, 2, 0}})
	doc.Scenes = []*gltf.Scene{{Nodes: []int{0}}}
	doc.Scene = gltf.Index(0)
	return doc
}

func assertQuadModel(t *testing.T, model *Model) {
	t.Helper()
	meshes := model.Meshes()
	require.Len(t, meshes, 1)
	mesh := meshes[0]
	assert.Len(t, mesh.Vertices, 4)
	assert.Equal(t, []uint32{0, 1, 2, 2, 3, 0}, mesh.Indices)
	assert.Equal(t, 2, mesh.TriangleCount())

	require.Len(t, model.Materials, 1)
	mat := model.Materials[0]
	assert.Equal(t, "Steel", mat.Name)
	assert.InDelta(t, 0.8, mat.Metalness, 1e-6)
	assert.InDelta(t, 0.3, mat.Roughness, 1e-6)
	assert.Same(t, mat, mesh.Material)

	require.NotNil(t, mat.BaseColorTexture)
	assert.True(t, mat.BaseColorTexture.SRGB)
	assert.Equal(t, 2, mat.BaseColorTexture.Width)
	assert.Equal(t, []byte{255, 0, 0, 255}, mat.BaseColorTexture.Pixels[:4])

	node := model.Root.Find("QuadNode")
	require.NotNil(t, node)
	assert.Equal(t, float32(2), node.Transform.Position.Y())
}

func TestDecodeDocument(t *testing.T) {
	model, err := DecodeDocument(quadDocument(t), "quad.glb", "")
	require.NoError(t, err)
	assertQuadModel(t, model)
	assert.Equal(t, "quad", model.Root.Name)
	assert.Empty(t, model.Warnings)
}

func TestParseGLB(t *testing.T) {
	var buf bytes.Buffer
	enc := gltf.NewEncoder(&buf)
	enc.AsBinary = true
	require.NoError(t, enc.Encode(quadDocument(t)))

	model, err := ParseGLB("quad.glb", buf.Bytes())
	require.NoError(t, err)
	assertQuadModel(t, model)
}

func TestLoadGLTFFromDisk(t *testing.T) {
	path := filepath.Join(t.TempDir(), "quad.glb")
	require.NoError(t, gltf.SaveBinary(quadDocument(t), path))

	model, err := LoadGLTF(path)
	require.NoError(t, err)
	assertQuadModel(t, model)
}

func TestLoadGLTFMissingFile(t *testing.T) {
	_, err := LoadGLTF(filepath.Join(t.TempDir(), "missing.glb"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing.glb")
}

func TestParseGLBGarbage(t *testing.T) {
	_, err := ParseGLB("junk.glb", []byte("definitely not a glb"))
	require.Error(t, err)
}

func TestDecodeDocumentWithoutMeshes(t *testing.T) {
	doc := gltf.NewDocument()
	doc.Nodes = append(doc.Nodes, &gltf.Node{Name: "empty"})
	_, err := DecodeDocument(doc, "empty.gltf", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no renderable meshes")
}

func TestDecodeDocumentComputesMissingNormals(t *testing.T) {
	doc := gltf.NewDocument()
	positions := modeler.WritePosition(doc, [][3]float32{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}})
	doc.Meshes = append(doc.Meshes, &gltf.Mesh{
		Primitives: []*gltf.Primitive{{Attributes: map[string]int{"POSITION": positions}}},
	})
	doc.Nodes = append(doc.Nodes, &gltf.Node{Mesh: gltf.Index(0)})
	doc.Scenes = []*gltf.Scene{{Nodes: []int{0}}}
	doc.Scene = gltf.Index(0)

	model, err := DecodeDocument(doc, "tri.gltf", "")
	require.NoError(t, err)
	mesh := model.Meshes()[0]
	for _, v := range mesh.Vertices {
		assert.InDelta(t, 1.0, v.Normal.Z(), 1e-6)
	}
	// Primitives without a material share one default so overrides reach them.
	require.Len(t, model.Materials, 1)
	assert.Same(t, model.Materials[0], mesh.Material)
}

func TestDecodeDocumentExternalImageWithoutDir(t *testing.T) {
	doc := quadDocument(t)
	doc.Images = append(doc.Images, &gltf.Image{URI: "textures/missing.png"})
	doc.Textures = append(doc.Textures, &gltf.Texture{Source: gltf.Index(len(doc.Images) - 1)})

	model, err := DecodeDocument(doc, "quad.glb", "")
	require.NoError(t, err)
	require.Len(t, model.Warnings, 1)
	assert.True(t, strings.Contains(model.Warnings[0], "cannot be resolved"))
}

func TestDecodeTextureRejectsUnknownFormat(t *testing.T) {
	_, err := DecodeTexture("bad", bytes.NewReader([]byte{1, 2, 3}))
	require.Error(t, err)
}

func encodeGLB(t *testing.T, doc *gltf.Document) []byte {
	t.Helper()
	var buf bytes.Buffer
	enc := gltf.NewEncoder(&buf)
	enc.AsBinary = true
	require.NoError(t, enc.Encode(doc))
	return buf.Bytes()
}

func TestParseGLBBadAccessorIndex(t *testing.T) {
	doc := quadDocument(t)
	doc.Meshes[0].Primitives[0].Attributes["POSITION"] = 99

	_, err := ParseGLB("bad.glb", encodeGLB(t, doc))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no renderable meshes")
}

func TestDecodeDocumentSkipsBadAttributeIndices(t *testing.T) {
	for _, attr := range []string{"NORMAL", "TEXCOORD_0"} {
		doc := quadDocument(t)
		doc.Meshes[0].Primitives[0].Attributes[attr] = -1

		_, err := DecodeDocument(doc, "bad.glb", "")
		require.Error(t, err, attr)
	}

	doc := quadDocument(t)
	doc.Meshes[0].Primitives[0].Indices = gltf.Index(len(doc.Accessors) + 5)
	_, err := DecodeDocument(doc, "bad.glb", "")
	require.Error(t, err)
}

func TestDecodeDocumentRejectsIndicesPastVertexCount(t *testing.T) {
	doc := gltf.NewDocument()
	positions := modeler.WritePosition(doc, [][3]float32{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}})
	indices := modeler.WriteIndices(doc, []uint16{0, 1, 7})
	doc.Meshes = append(doc.Meshes, &gltf.Mesh{
		Primitives: []*gltf.Primitive{{
			Indices:    gltf.Index(indices),
			Attributes: map[string]int{"POSITION": positions},
		}},
	})
	doc.Nodes = append(doc.Nodes, &gltf.Node{Mesh: gltf.Index(0)})

	model, err := DecodeDocument(doc, "tri.gltf", "")
	require.Error(t, err)
	assert.Nil(t, model)
}

func TestDecodeDocumentImageBufferViewOutOfRange(t *testing.T) {
	doc := quadDocument(t)
	doc.Images[0].BufferView = gltf.Index(42)

	model, err := DecodeDocument(doc, "quad.glb", "")
	require.NoError(t, err)
	require.Len(t, model.Warnings, 1)
	assert.Contains(t, model.Warnings[0], "out of range")
	assert.Nil(t, model.Materials[0].BaseColorTexture)
}

func TestDecodeDocumentRefusesNodeCycle(t *testing.T) {
	doc := quadDocument(t)
	doc.Nodes = append(doc.Nodes, &gltf.Node{Name: "Loop"})
	doc.Nodes[0].Children = []int{1}
	doc.Nodes[1].Children = []int{0}

	model, err := DecodeDocument(doc, "loop.glb", "")
	require.NoError(t, err)
	require.Len(t, model.Warnings, 1)
	assert.Contains(t, model.Warnings[0], "cycle")

	quad := model.Root.Find("QuadNode")
	require.NotNil(t, quad)
	assert.Same(t, model.Root, quad.Parent)
	assert.Same(t, quad, model.Root.Find("Loop").Parent)
	quad.MarkWorldMatrixDirty()
}

func TestDecodeDocumentRefusesSharedChild(t *testing.T) {
	doc := quadDocument(t)
	doc.Nodes = append(doc.Nodes, &gltf.Node{Name: "Other", Children: []int{0}}, &gltf.Node{Name: "Third", Children: []int{0}})
	doc.Scenes[0].Nodes = []int{1, 2}

	model, err := DecodeDocument(doc, "shared.glb", "")
	require.NoError(t, err)
	require.Len(t, model.Warnings, 1)
	assert.Contains(t, model.Warnings[0], "already has a parent")
	assert.Equal(t, "Other", model.Root.Find("QuadNode").Parent.Name)
}

func TestDecodeDocumentIgnoresNegativeIndices(t *testing.T) {
	doc := quadDocument(t)
	doc.Nodes = append(doc.Nodes, &gltf.Node{Name: "Stray", Mesh: gltf.Index(-1), Children: []int{-3}})
	doc.Meshes[0].Primitives[0].Material = gltf.Index(-2)
	doc.Scenes[0].Nodes = []int{0, 1, -1}

	model, err := DecodeDocument(doc, "neg.glb", "")
	require.NoError(t, err)
	assert.NotNil(t, model.Root.Find("Stray"))
	assert.Len(t, model.Meshes(), 1)
}
