package scene

import (
	"github.com/go-gl/mathgl/mgl32"

	"model-viewer/core"
)

// Scene owns the node graph, the active camera and the environment map.
type Scene struct {
	Root        *Node
	Camera      *Camera
	Environment *EnvironmentMap

	// Background is used when no environment is set.
	Background core.Color
	// KeyLight lights the scene when no environment is set.
	KeyLight DirectionalLight

	models []*Model
}

type DirectionalLight struct {
	Direction mgl32.Vec3
	Color     core.Color
	Intensity float32
	Ambient   float32
}

func NewScene() *Scene {
	return &Scene{
		Root:       NewNode("Root"),
		Background: core.Color{R: 0.12, G: 0.12, B: 0.14, A: 1},
		KeyLight: DirectionalLight{
			Direction: mgl32.Vec3{-0.5, -1, -0.6}.Normalize(),
			Color:     core.ColorWhite,
			Intensity: 2.5,
			Ambient:   0.25,
		},
	}
}

func (s *Scene) SetCamera(camera *Camera) {
	s.Camera = camera
}

// SetEnvironment replaces the environment used for background and lighting.
func (s *Scene) SetEnvironment(env *EnvironmentMap) {
	s.Environment = env
}

// AddModel attaches the model's root under the scene root.
func (s *Scene) AddModel(m *Model) {
	s.Root.AddChild(m.Root)
	s.models = append(s.models, m)
}

// RemoveModel detaches the model's root and forgets the model.
func (s *Scene) RemoveModel(m *Model) {
	s.Root.RemoveChild(m.Root)
	for i, existing := range s.models {
		if existing == m {
			s.models = append(s.models[:i], s.models[i+1:]...)
			break
		}
	}
}

func (s *Scene) Models() []*Model {
	return s.models
}

// VisibleNodes returns every visible node carrying a mesh. A hidden node hides its subtree.
func (s *Scene) VisibleNodes() []*Node {
	var visible []*Node
	var walk func(n *Node)
	walk = func(n *Node) {
		if !n.Visible {
			return
		}
		if n.Mesh != nil {
			visible = append(visible, n)
		}
		for _, c := range n.Children {
			walk(c)
		}
	}
	walk(s.Root)
	return visible
}
