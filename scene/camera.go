package scene

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// projectionParams is the subset of camera state that feeds the projection matrix.
type projectionParams struct {
	fov, aspect, near, far, zoom float32
}

// Camera is a perspective camera. Projection fields may be written directly;
// the cached projection matrix only follows them after UpdateProjectionMatrix.
type Camera struct {
	FOV    float32 // vertical, degrees
	Aspect float32
	Near   float32
	Far    float32
	Zoom   float32

	Position mgl32.Vec3
	Up       mgl32.Vec3

	target     mgl32.Vec3
	projection mgl32.Mat4
	applied    projectionParams
	version    uint64
}

func NewCamera(fov, aspect, near, far float32) *Camera {
	c := &Camera{
		FOV:    fov,
		Aspect: aspect,
		Near:   near,
		Far:    far,
		Zoom:   1,
		Up:     mgl32.Vec3{0, 1, 0},
	}
	c.UpdateProjectionMatrix()
	return c
}

func (c *Camera) params() projectionParams {
	return projectionParams{c.FOV, c.Aspect, c.Near, c.Far, c.Zoom}
}

// UpdateProjectionMatrix recomputes the projection from FOV, Aspect, Near, Far and Zoom.
func (c *Camera) UpdateProjectionMatrix() {
	zoom := c.Zoom
	if zoom <= 0 {
		zoom = 1
	}
	top := c.Near * float32(math.Tan(float64(mgl32.DegToRad(c.FOV))*0.5)) / zoom
	height := 2 * top
	width := c.Aspect * height
	left := -0.5 * width

	c.projection = mgl32.Frustum(left, left+width, top-height, top, c.Near, c.Far)
	c.applied = c.params()
	c.version++
}

// ProjectionMatrix returns the cached matrix, stale or not.
func (c *Camera) ProjectionMatrix() mgl32.Mat4 {
	return c.projection
}

// ProjectionStale reports whether a projection field changed since the last update.
func (c *Camera) ProjectionStale() bool {
	return c.params() != c.applied
}

// ProjectionVersion counts calls to UpdateProjectionMatrix.
func (c *Camera) ProjectionVersion() uint64 {
	return c.version
}

func (c *Camera) SetPosition(x, y, z float32) {
	c.Position = mgl32.Vec3{x, y, z}
}

func (c *Camera) LookAt(target mgl32.Vec3) {
	c.target = target
}

func (c *Camera) Target() mgl32.Vec3 {
	return c.target
}

func (c *Camera) ViewMatrix() mgl32.Mat4 {
	if c.Position.ApproxEqual(c.target) {
		return mgl32.Translate3D(-c.Position.X(), -c.Position.Y(), -c.Position.Z())
	}
	return mgl32.LookAtV(c.Position, c.target, c.Up)
}

func (c *Camera) ViewProjectionMatrix() mgl32.Mat4 {
	return c.projection.Mul4(c.ViewMatrix())
}

// Forward is the unit vector from the camera toward its target.
func (c *Camera) Forward() mgl32.Vec3 {
	d := c.target.Sub(c.Position)
	if d.Len() == 0 {
		return mgl32.Vec3{0, 0, -1}
	}
	return d.Normalize()
}
