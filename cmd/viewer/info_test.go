package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTriangleGLB(t *testing.T) string {
	t.Helper()
	doc := gltf.NewDocument()
	positions := modeler.WritePosition(doc, [][3]float32{{0, 0, 0}, {2, 0, 0}, {0, 1, 0}})
	indices := modeler.WriteIndices(doc, []uint16{0, 1, 2})
	doc.Materials = append(doc.Materials, &gltf.Material{Name: "Plain"})
	doc.Meshes = append(doc.Meshes, &gltf.Mesh{
		Name: "Tri",
		Primitives: []*gltf.Primitive{{
			Indices:    gltf.Index(indices),
			Material:   gltf.Index(0),
			Attributes: map[string]int{"POSITION": positions},
		}},
	})
	doc.Nodes = append(doc.Nodes, &gltf.Node{Name: "TriNode", Mesh: gltf.Index(0)})
	doc.Scenes = []*gltf.Scene{{Nodes: []int{0}}}
	doc.Scene = gltf.Index(0)

	path := filepath.Join(t.TempDir(), "tri.glb")
	require.NoError(t, gltf.SaveBinary(doc, path))
	return path
}

func TestRunInfo(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, runInfo(&out, writeTriangleGLB(t)))

	text := out.String()
	assert.Contains(t, text, "File:       tri.glb")
	assert.Contains(t, text, "Format:     GLB")
	assert.Contains(t, text, "Version:    2.0")
	assert.Contains(t, text, "Nodes:      1")
	assert.Contains(t, text, "Meshes:     1")
	assert.Contains(t, text, "Materials:  1")
	assert.Contains(t, text, "Vertices:   3")
	assert.Contains(t, text, "Triangles:  1")
	assert.Contains(t, text, "Bounds Max: (2.000, 1.000, 0.000)")
	assert.NotContains(t, text, "Warning:")
}

func TestRunInfoRejectsUnknownExtension(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.obj")
	require.NoError(t, os.WriteFile(path, []byte("v 0 0 0\n"), 0o644))

	err := runInfo(&bytes.Buffer{}, path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported format")
}

func TestRunInfoMissingFile(t *testing.T) {
	err := runInfo(&bytes.Buffer{}, filepath.Join(t.TempDir(), "absent.glb"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot access file")
}

func TestInfoCommandWritesToOutput(t *testing.T) {
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"info", writeTriangleGLB(t)})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "Triangles:  1")
}
