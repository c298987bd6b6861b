package scene

import (
	"github.com/go-gl/mathgl/mgl32"

	"model-viewer/core"
)

type AABB struct {
	Min, Max mgl32.Vec3
}

func (b AABB) Center() mgl32.Vec3 {
	return b.Min.Add(b.Max).Mul(0.5)
}

func (b AABB) Size() mgl32.Vec3 {
	return b.Max.Sub(b.Min)
}

// Union returns the smallest box containing both.
func (b AABB) Union(o AABB) AABB {
	return AABB{
		Min: mgl32.Vec3{min(b.Min[0], o.Min[0]), min(b.Min[1], o.Min[1]), min(b.Min[2], o.Min[2])},
		Max: mgl32.Vec3{max(b.Max[0], o.Max[0]), max(b.Max[1], o.Max[1]), max(b.Max[2], o.Max[2])},
	}
}

// Transform returns the box enclosing b's corners after applying m.
func (b AABB) Transform(m mgl32.Mat4) AABB {
	var out AABB
	for i := 0; i < 8; i++ {
		corner := mgl32.Vec3{b.Min[0], b.Min[1], b.Min[2]}
		if i&1 != 0 {
			corner[0] = b.Max[0]
		}
		if i&2 != 0 {
			corner[1] = b.Max[1]
		}
		if i&4 != 0 {
			corner[2] = b.Max[2]
		}
		p := mgl32.TransformCoordinate(corner, m)
		if i == 0 {
			out = AABB{Min: p, Max: p}
			continue
		}
		out = out.Union(AABB{Min: p, Max: p})
	}
	return out
}

// Mesh holds CPU-side vertex and index data.
type Mesh struct {
	Name      string
	Vertices  []core.Vertex
	Indices   []uint32
	LocalAABB AABB
	Material  *Material

	// GPUData is owned by the renderer backend.
	GPUData any
}

func CreateMeshFromData(name string, vertices []core.Vertex, indices []uint32) *Mesh {
	m := &Mesh{
		Name:     name,
		Vertices: vertices,
		Indices:  indices,
	}
	if len(vertices) > 0 {
		m.LocalAABB = AABB{Min: vertices[0].Position, Max: vertices[0].Position}
		for _, v := range vertices[1:] {
			m.LocalAABB = m.LocalAABB.Union(AABB{Min: v.Position, Max: v.Position})
		}
	}
	return m
}

// TriangleCount counts indexed triangles, or vertex triples when unindexed.
func (m *Mesh) TriangleCount() int {
	if len(m.Indices) > 0 {
		return len(m.Indices) / 3
	}
	return len(m.Vertices) / 3
}

func (m *Mesh) forEachTriangle(fn func(i0, i1, i2 uint32)) {
	if len(m.Indices) > 0 {
		for i := 0; i+2 < len(m.Indices); i += 3 {
			fn(m.Indices[i], m.Indices[i+1], m.Indices[i+2])
		}
		return
	}
	for i := 0; i+2 < len(m.Vertices); i += 3 {
		fn(uint32(i), uint32(i+1), uint32(i+2))
	}
}

// computeFlatNormals accumulates face normals into vertices that carry none.
func computeFlatNormals(verts []core.Vertex, indices []uint32) {
	m := Mesh{Vertices: verts, Indices: indices}
	for i := range verts {
		verts[i].Normal = mgl32.Vec3{}
	}
	m.forEachTriangle(func(i0, i1, i2 uint32) {
		e1 := verts[i1].Position.Sub(verts[i0].Position)
		e2 := verts[i2].Position.Sub(verts[i0].Position)
		n := e1.Cross(e2)
		verts[i0].Normal = verts[i0].Normal.Add(n)
		verts[i1].Normal = verts[i1].Normal.Add(n)
		verts[i2].Normal = verts[i2].Normal.Add(n)
	})
	for i := range verts {
		if verts[i].Normal.LenSqr() > 0 {
			verts[i].Normal = verts[i].Normal.Normalize()
		} else {
			verts[i].Normal = mgl32.Vec3{0, 1, 0}
		}
	}
}
