package controls

import (
	"math"

	"github.com/charmbracelet/harmonica"
	"github.com/go-gl/mathgl/mgl32"

	"model-viewer/scene"
)

type State int

const (
	StateIdle State = iota
	StateDragging
	StateCoasting
)

func (s State) String() string {
	switch s {
	case StateDragging:
		return "dragging"
	case StateCoasting:
		return "coasting"
	default:
		return "idle"
	}
}

type Button int

const (
	ButtonLeft Button = iota
	ButtonRight
	ButtonMiddle
)

type dragMode int

const (
	dragRotate dragMode = iota
	dragPan
)

const (
	// polarEpsilon keeps the camera off the poles where look-at degenerates.
	polarEpsilon    = 1e-6
	settleEpsilon   = 1e-6
	springFrequency = 6.0
)

// OrbitControls orbits a camera around a target point.
type OrbitControls struct {
	Camera *scene.Camera
	Target mgl32.Vec3

	EnableDamping   bool
	DampingFactor   float32
	AutoRotate      bool
	AutoRotateSpeed float32 // 1.0 is one revolution per 60 s at 60 fps

	EnableRotate bool
	EnableZoom   bool
	EnablePan    bool
	RotateSpeed  float32
	ZoomSpeed    float32
	PanSpeed     float32

	MinDistance   float32
	MaxDistance   float32
	MinPolarAngle float32
	MaxPolarAngle float32

	viewportWidth  float32
	viewportHeight float32

	state        State
	mode         dragMode
	lastX, lastY float64
	deltaAzimuth float32
	deltaPolar   float32
	panOffset    mgl32.Vec3

	dollySpring harmonica.Spring
	dollyActive bool
	dollyGoal   float64
	dollyVel    float64

	azimuth float32
	polar   float32
	radius  float32
}

// NewOrbitControls targets the origin and derives the initial orbit from the camera position.
func NewOrbitControls(camera *scene.Camera) *OrbitControls {
	c := &OrbitControls{
		Camera:          camera,
		EnableDamping:   false,
		DampingFactor:   0.05,
		AutoRotateSpeed: 2,
		EnableRotate:    true,
		EnableZoom:      true,
		EnablePan:       true,
		RotateSpeed:     1,
		ZoomSpeed:       1,
		PanSpeed:        1,
		MinDistance:     0,
		MaxDistance:     float32(math.Inf(1)),
		MinPolarAngle:   0,
		MaxPolarAngle:   math.Pi,
		viewportWidth:   1,
		viewportHeight:  1,
		dollySpring:     harmonica.NewSpring(harmonica.FPS(60), springFrequency, 1.0),
	}
	c.azimuth, c.polar, c.radius = toSpherical(camera.Position.Sub(c.Target))
	camera.LookAt(c.Target)
	return c
}

func (c *OrbitControls) State() State {
	return c.state
}

// AutoRotating reports whether auto-rotate contributes to the next Update.
func (c *OrbitControls) AutoRotating() bool {
	return c.AutoRotate && c.AutoRotateSpeed != 0
}

// AzimuthalAngle is the angle around the up axis, measured from +Z toward +X.
func (c *OrbitControls) AzimuthalAngle() float32 {
	return c.azimuth
}

// PolarAngle is the angle from the up axis.
func (c *OrbitControls) PolarAngle() float32 {
	return c.polar
}

func (c *OrbitControls) Distance() float32 {
	return c.radius
}

// SetViewportSize sets the pixel size used to scale pointer deltas.
func (c *OrbitControls) SetViewportSize(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	c.viewportWidth = float32(width)
	c.viewportHeight = float32(height)
}

// ViewportSize returns the size pointer deltas are scaled by.
func (c *OrbitControls) ViewportSize() (width, height int) {
	return int(c.viewportWidth), int(c.viewportHeight)
}

func (c *OrbitControls) PointerDown(button Button, x, y float64) {
	switch {
	case button == ButtonLeft && c.EnableRotate:
		c.mode = dragRotate
	case (button == ButtonRight || button == ButtonMiddle) && c.EnablePan:
		c.mode = dragPan
	default:
		return
	}
	c.state = StateDragging
	c.lastX, c.lastY = x, y
}

func (c *OrbitControls) PointerMove(x, y float64) {
	if c.state != StateDragging {
		return
	}
	dx := float32(x - c.lastX)
	dy := float32(y - c.lastY)
	c.lastX, c.lastY = x, y

	switch c.mode {
	case dragRotate:
		c.rotateLeft(2 * math.Pi * dx / c.viewportHeight * c.RotateSpeed)
		c.rotateUp(2 * math.Pi * dy / c.viewportHeight * c.RotateSpeed)
	case dragPan:
		c.pan(dx*c.PanSpeed, dy*c.PanSpeed)
	}
}

func (c *OrbitControls) PointerUp() {
	if c.state != StateDragging {
		return
	}
	if c.EnableDamping && c.hasMomentum() {
		c.state = StateCoasting
		return
	}
	c.state = StateIdle
}

// Wheel dollies by 0.95^ZoomSpeed per notch; positive dy moves closer.
func (c *OrbitControls) Wheel(dy float64) {
	if !c.EnableZoom || dy == 0 {
		return
	}
	if !c.dollyActive {
		c.dollyGoal = float64(c.radius)
		c.dollyVel = 0
		c.dollyActive = true
	}
	scale := math.Pow(math.Pow(0.95, float64(c.ZoomSpeed)), dy)
	c.dollyGoal = float64(c.clampDistance(float32(c.dollyGoal * scale)))
}

func (c *OrbitControls) rotateLeft(angle float32) {
	c.deltaAzimuth -= angle
}

func (c *OrbitControls) rotateUp(angle float32) {
	c.deltaPolar -= angle
}

// pan moves the target in the camera's view plane, scaled so a drag across
// the viewport height covers the visible height at the target distance.
func (c *OrbitControls) pan(dx, dy float32) {
	offset := c.Camera.Position.Sub(c.Target)
	distance := offset.Len() * float32(math.Tan(float64(mgl32.DegToRad(c.Camera.FOV))/2))
	forward := c.Target.Sub(c.Camera.Position)
	if forward.Len() == 0 {
		return
	}
	forward = forward.Normalize()
	right := forward.Cross(c.Camera.Up)
	if right.Len() == 0 {
		return
	}
	right = right.Normalize()
	up := right.Cross(forward)

	k := 2 * distance / c.viewportHeight
	c.panOffset = c.panOffset.Add(right.Mul(-dx * k)).Add(up.Mul(dy * k))
}

func (c *OrbitControls) hasMomentum() bool {
	return abs32(c.deltaAzimuth) > settleEpsilon || abs32(c.deltaPolar) > settleEpsilon ||
		c.panOffset.Len() > settleEpsilon
}

// Update advances the orbit by one frame and writes the camera position.
// It reports whether the camera moved.
func (c *OrbitControls) Update() bool {
	before := c.Camera.Position
	offset := before.Sub(c.Target)
	azimuth, polar, radius := toSpherical(offset)

	if c.EnableDamping {
		azimuth += c.deltaAzimuth * c.DampingFactor
		polar += c.deltaPolar * c.DampingFactor
	} else {
		azimuth += c.deltaAzimuth
		polar += c.deltaPolar
	}
	if c.AutoRotate {
		azimuth -= 2 * math.Pi / 60 / 60 * c.AutoRotateSpeed
	}
	azimuth = wrapAngle(azimuth)

	polar = clamp(polar, c.MinPolarAngle, c.MaxPolarAngle)
	polar = clamp(polar, polarEpsilon, math.Pi-polarEpsilon)

	radius = c.clampDistance(radius)
	if c.dollyActive {
		if c.EnableDamping {
			r, v := c.dollySpring.Update(float64(radius), c.dollyVel, c.dollyGoal)
			radius, c.dollyVel = float32(r), v
			if math.Abs(r-c.dollyGoal) < 1e-4 && math.Abs(v) < 1e-4 {
				radius = float32(c.dollyGoal)
				c.dollyActive = false
			}
		} else {
			radius = float32(c.dollyGoal)
			c.dollyActive = false
		}
	}

	if c.EnableDamping {
		c.Target = c.Target.Add(c.panOffset.Mul(c.DampingFactor))
	} else {
		c.Target = c.Target.Add(c.panOffset)
	}

	c.Camera.Position = c.Target.Add(fromSpherical(azimuth, polar, radius))
	c.Camera.LookAt(c.Target)
	c.azimuth, c.polar, c.radius = azimuth, polar, radius

	if c.EnableDamping {
		decay := 1 - c.DampingFactor
		c.deltaAzimuth *= decay
		c.deltaPolar *= decay
		c.panOffset = c.panOffset.Mul(decay)
	} else {
		c.deltaAzimuth, c.deltaPolar = 0, 0
		c.panOffset = mgl32.Vec3{}
	}
	if c.state == StateCoasting && !c.hasMomentum() {
		c.state = StateIdle
	}

	return !before.ApproxEqualThreshold(c.Camera.Position, 1e-5)
}

func (c *OrbitControls) clampDistance(r float32) float32 {
	return clamp(r, c.MinDistance, c.MaxDistance)
}

// toSpherical returns (azimuth, polar, radius) of a y-up offset.
func toSpherical(offset mgl32.Vec3) (azimuth, polar, radius float32) {
	if offset.Len() == 0 {
		return 0, math.Pi / 2, 0
	}
	// mgl32 measures theta from +Z and phi in the XY plane, so rotate axes to y-up.
	r, theta, phi := mgl32.CartesianToSpherical(mgl32.Vec3{offset.Z(), offset.X(), offset.Y()})
	return phi, theta, r
}

func fromSpherical(azimuth, polar, radius float32) mgl32.Vec3 {
	v := mgl32.SphericalToCartesian(radius, polar, azimuth)
	return mgl32.Vec3{v[1], v[2], v[0]}
}

func wrapAngle(a float32) float32 {
	for a > math.Pi {
		a -= 2 * math.Pi
	}
	for a <= -math.Pi {
		a += 2 * math.Pi
	}
	return a
}

func clamp(v, lo, hi float32) float32 {
	return max(lo, min(hi, v))
}

func abs32(f float32) float32 {
	if f < 0 {
		return -f
	}
	return f
}
