package viewer

import (
	"model-viewer/core"
	"model-viewer/panel"
	"model-viewer/scene"
)

const panelTitle = "Controls"

// buildPanel exposes the material override and the camera.
func buildPanel(cam *scene.Camera, material *scene.MaterialOverride, logger core.Logger) *panel.Panel {
	p := panel.New(panelTitle, logger)

	mat := p.AddFolder("Material")
	mat.Add("metalness", panel.Property{
		Get: func() float32 { return material.Metalness },
		Set: material.SetMetalness,
	}, 0, 1, 0.01).Name("Metalness")
	mat.Add("roughness", panel.Property{
		Get: func() float32 { return material.Roughness },
		Set: material.SetRoughness,
	}, 0, 1, 0.01).Name("Roughness")
	mat.Open()

	camera := p.AddFolder("Camera")
	camera.Add("x", panel.Float32(&cam.Position[0]), -10, 10, 0.01).Name("Camera X")
	camera.Add("y", panel.Float32(&cam.Position[1]), -10, 10, 0.01).Name("Camera Y")
	camera.Add("z", panel.Float32(&cam.Position[2]), -10, 10, 0.01).Name("Camera Z")
	camera.Add("zoom", panel.Float32(&cam.Zoom), 0.1, 5, 0.1).
		Name("Zoom").
		OnChange(func(float32) { cam.UpdateProjectionMatrix() })
	camera.Open()

	return p
}
