package scene

import "github.com/go-gl/mathgl/mgl32"

// Plane is the half-space Normal·p + D >= 0.
type Plane struct {
	Normal mgl32.Vec3
	D      float32
}

func (p Plane) DistanceTo(pt mgl32.Vec3) float32 {
	return p.Normal.Dot(pt) + p.D
}

// Frustum holds six inward-facing planes: left, right, bottom, top, near, far.
type Frustum struct {
	Planes [6]Plane
}

// FrustumFromVP extracts normalized planes from a view-projection matrix
// (Gribb/Hartmann, rows of the column-major matrix).
func FrustumFromVP(vp mgl32.Mat4) Frustum {
	r0, r1, r2, r3 := vp.Row(0), vp.Row(1), vp.Row(2), vp.Row(3)
	var f Frustum
	f.Planes[0] = normalizePlane(r3.Add(r0))
	f.Planes[1] = normalizePlane(r3.Sub(r0))
	f.Planes[2] = normalizePlane(r3.Add(r1))
	f.Planes[3] = normalizePlane(r3.Sub(r1))
	f.Planes[4] = normalizePlane(r3.Add(r2))
	f.Planes[5] = normalizePlane(r3.Sub(r2))
	return f
}

func normalizePlane(v mgl32.Vec4) Plane {
	n := v.Vec3()
	l := n.Len()
	if l == 0 {
		return Plane{}
	}
	return Plane{Normal: n.Mul(1 / l), D: v.W() / l}
}

// IntersectsFrustum is false only when the box lies entirely outside one plane.
func (b AABB) IntersectsFrustum(f *Frustum) bool {
	for _, p := range f.Planes {
		positive := b.Max
		for axis := 0; axis < 3; axis++ {
			if p.Normal[axis] < 0 {
				positive[axis] = b.Min[axis]
			}
		}
		if p.DistanceTo(positive) < 0 {
			return false
		}
	}
	return true
}

// WorldAABB returns the node mesh's bounds in world space.
func (n *Node) WorldAABB() AABB {
	return n.Mesh.LocalAABB.Transform(n.WorldMatrix())
}
