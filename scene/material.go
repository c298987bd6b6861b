package scene

import (
	"slices"

	"model-viewer/core"
)

// Material is a glTF metal/rough PBR material.
type Material struct {
	Name        string
	BaseColor   core.Color
	Metalness   float32 // 0 = dielectric, 1 = metal
	Roughness   float32 // 0 = mirror, 1 = fully rough
	Emissive    core.Color
	DoubleSided bool

	BaseColorTexture *Texture
	NormalTexture    *Texture
	// glTF convention: G = roughness, B = metalness.
	MetallicRoughnessTexture *Texture
	EmissiveTexture          *Texture
}

func DefaultMaterial() *Material {
	return &Material{
		Name:      "Default",
		BaseColor: core.ColorWhite,
		Metalness: 0,
		Roughness: 0.5,
		Emissive:  core.ColorBlack,
	}
}

// MaterialOverride holds metalness and roughness values applied to every
// material of the models it is attached to. Until one of its setters is
// called it leaves materials alone and mirrors the attached model instead.
type MaterialOverride struct {
	Metalness float32
	Roughness float32

	targets []*Material
	written bool
}

func NewMaterialOverride(metalness, roughness float32) *MaterialOverride {
	return &MaterialOverride{Metalness: metalness, Roughness: roughness}
}

// Attach adds the model's materials as targets. Values already written are
// applied to them; otherwise the override takes the model's first material values.
func (o *MaterialOverride) Attach(m *Model) {
	o.targets = append(o.targets, m.Materials...)
	if o.written {
		o.Apply()
		return
	}
	if len(m.Materials) > 0 {
		o.Metalness = m.Materials[0].Metalness
		o.Roughness = m.Materials[0].Roughness
	}
}

// Detach stops writing to the model's materials.
func (o *MaterialOverride) Detach(m *Model) {
	kept := o.targets[:0]
	for _, mat := range o.targets {
		if !slices.Contains(m.Materials, mat) {
			kept = append(kept, mat)
		}
	}
	o.targets = kept
}

// Apply writes the current values to every target.
func (o *MaterialOverride) Apply() {
	for _, mat := range o.targets {
		mat.Metalness = o.Metalness
		mat.Roughness = o.Roughness
	}
}

func (o *MaterialOverride) SetMetalness(v float32) {
	o.Metalness = v
	o.written = true
	o.Apply()
}

func (o *MaterialOverride) SetRoughness(v float32) {
	o.Roughness = v
	o.written = true
	o.Apply()
}

func (o *MaterialOverride) Targets() []*Material {
	return o.targets
}
