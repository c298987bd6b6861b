package scene

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func TestCameraProjectionMatchesPerspective(t *testing.T) {
	cam := NewCamera(65, 16.0/9.0, 0.1, 100)
	expected := mgl32.Perspective(mgl32.DegToRad(65), 16.0/9.0, 0.1, 100)

	if !cam.ProjectionMatrix().ApproxEqualThreshold(expected, 1e-4) {
		t.Errorf("ProjectionMatrix: expected %v, got %v", expected, cam.ProjectionMatrix())
	}
	if cam.ProjectionStale() {
		t.Errorf("ProjectionStale: expected false right after construction")
	}
}

func TestCameraZoomNeedsExplicitUpdate(t *testing.T) {
	cam := NewCamera(65, 1.5, 0.1, 100)
	before := cam.ProjectionMatrix()
	version := cam.ProjectionVersion()

	cam.Zoom = 2
	if !cam.ProjectionStale() {
		t.Fatalf("ProjectionStale: expected true after changing Zoom")
	}
	if cam.ProjectionMatrix() != before {
		t.Errorf("ProjectionMatrix changed before UpdateProjectionMatrix")
	}

	cam.UpdateProjectionMatrix()
	if cam.ProjectionStale() {
		t.Errorf("ProjectionStale: expected false after update")
	}
	if cam.ProjectionVersion() != version+1 {
		t.Errorf("ProjectionVersion: expected %d, got %d", version+1, cam.ProjectionVersion())
	}

	// Vertical scale is cot(fov/2) * zoom.
	want := float32(1/math.Tan(float64(mgl32.DegToRad(65))/2)) * 2
	if got := cam.ProjectionMatrix().At(1, 1); math.Abs(float64(got-want)) > 1e-4 {
		t.Errorf("y scale: expected %v, got %v", want, got)
	}
}

func TestCameraAspectChangeIsStale(t *testing.T) {
	cam := NewCamera(65, 1, 0.1, 100)
	cam.Aspect = 2
	if !cam.ProjectionStale() {
		t.Errorf("ProjectionStale: expected true after changing Aspect")
	}
	cam.Aspect = 1
	if cam.ProjectionStale() {
		t.Errorf("ProjectionStale: expected false after restoring Aspect")
	}
}

func TestCameraPositionDoesNotAffectProjection(t *testing.T) {
	cam := NewCamera(65, 1, 0.1, 100)
	cam.SetPosition(0, 1, 5)
	if cam.ProjectionStale() {
		t.Errorf("ProjectionStale: position must not invalidate the projection")
	}
}

func TestCameraViewMatrixLooksAtTarget(t *testing.T) {
	cam := NewCamera(65, 1, 0.1, 100)
	cam.SetPosition(0, 0, 5)
	cam.LookAt(mgl32.Vec3{})

	// The target sits straight ahead on -Z in view space.
	p := mgl32.TransformCoordinate(mgl32.Vec3{}, cam.ViewMatrix())
	expected := mgl32.Vec3{0, 0, -5}
	if !p.ApproxEqualThreshold(expected, 1e-5) {
		t.Errorf("view-space target: expected %v, got %v", expected, p)
	}
	if f := cam.Forward(); !f.ApproxEqual(mgl32.Vec3{0, 0, -1}) {
		t.Errorf("Forward: expected (0,0,-1), got %v", f)
	}
}

func TestCameraViewMatrixDegenerateTarget(t *testing.T) {
	cam := NewCamera(65, 1, 0.1, 100)
	cam.SetPosition(1, 2, 3)
	cam.LookAt(mgl32.Vec3{1, 2, 3})

	m := cam.ViewMatrix()
	for i, v := range m {
		if math.IsNaN(float64(v)) {
			t.Fatalf("ViewMatrix[%d] is NaN", i)
		}
	}
}
