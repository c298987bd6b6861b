package scene

import (
	"github.com/go-gl/mathgl/mgl32"
)

// ComputeTangents fills per-vertex tangent frames for normal mapping.
// Triangles with zero UV area contribute nothing; vertices left without a
// tangent get an arbitrary one perpendicular to the normal.
func ComputeTangents(m *Mesh) {
	for i := range m.Vertices {
		m.Vertices[i].Tangent = mgl32.Vec3{}
		m.Vertices[i].Bitangent = mgl32.Vec3{}
	}

	accum := func(i0, i1, i2 uint32) {
		v0, v1, v2 := m.Vertices[i0], m.Vertices[i1], m.Vertices[i2]

		e1 := v1.Position.Sub(v0.Position)
		e2 := v2.Position.Sub(v0.Position)
		duv1 := v1.UV.Sub(v0.UV)
		duv2 := v2.UV.Sub(v0.UV)

		denom := duv1.X()*duv2.Y() - duv2.X()*duv1.Y()
		if denom == 0 {
			return
		}
		r := 1 / denom
		t := e1.Mul(duv2.Y() * r).Sub(e2.Mul(duv1.Y() * r))
		b := e2.Mul(duv1.X() * r).Sub(e1.Mul(duv2.X() * r))

		for _, idx := range [3]uint32{i0, i1, i2} {
			m.Vertices[idx].Tangent = m.Vertices[idx].Tangent.Add(t)
			m.Vertices[idx].Bitangent = m.Vertices[idx].Bitangent.Add(b)
		}
	}
	m.forEachTriangle(accum)

	for i := range m.Vertices {
		n := m.Vertices[i].Normal
		t := m.Vertices[i].Tangent
		b := m.Vertices[i].Bitangent

		t = t.Sub(n.Mul(n.Dot(t)))
		if t.LenSqr() < 1e-8 {
			if abs32(n.X()) < 0.9 {
				t = mgl32.Vec3{1, 0, 0}.Sub(n.Mul(n.X()))
			} else {
				t = mgl32.Vec3{0, 1, 0}.Sub(n.Mul(n.Y()))
			}
		}
		m.Vertices[i].Tangent = t.Normalize()

		if b.LenSqr() < 1e-8 {
			b = n.Cross(m.Vertices[i].Tangent)
		}
		m.Vertices[i].Bitangent = b.Normalize()
	}
}

func abs32(f float32) float32 {
	if f < 0 {
		return -f
	}
	return f
}
