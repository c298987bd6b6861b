// Package panel holds the viewer's tweakable parameters: folders of numeric
// bindings, each tied to a property through a typed accessor pair.
package panel

import (
	"math"

	"model-viewer/core"
)

// Property reads and writes one float value.
type Property struct {
	Get func() float32
	Set func(float32)
}

// Float32 binds a property directly to a field.
func Float32(field *float32) Property {
	return Property{
		Get: func() float32 { return *field },
		Set: func(v float32) { *field = v },
	}
}

type Panel struct {
	Title   string
	folders []*Folder
	logger  core.Logger
}

func New(title string, logger core.Logger) *Panel {
	return &Panel{Title: title, logger: core.OrNop(logger)}
}

// AddFolder appends a closed folder.
func (p *Panel) AddFolder(title string) *Folder {
	f := &Folder{Title: title, panel: p}
	p.folders = append(p.folders, f)
	return f
}

func (p *Panel) Folders() []*Folder {
	return p.folders
}

// Find returns the binding labelled label inside folder, or nil.
func (p *Panel) Find(folder, label string) *Binding {
	for _, f := range p.folders {
		if f.Title != folder {
			continue
		}
		for _, b := range f.bindings {
			if b.label == label {
				return b
			}
		}
	}
	return nil
}

type Folder struct {
	Title    string
	open     bool
	bindings []*Binding
	panel    *Panel
}

// Add binds prop as a slider over [min, max] moving in increments of step.
// The label defaults to the one given here; Name replaces it.
func (f *Folder) Add(label string, prop Property, min, max, step float32) *Binding {
	if min > max {
		min, max = max, min
	}
	if step <= 0 {
		step = (max - min) / 100
	}
	b := &Binding{
		label:  label,
		prop:   prop,
		Min:    min,
		Max:    max,
		Step:   step,
		logger: f.panel.logger,
	}
	f.bindings = append(f.bindings, b)
	return b
}

func (f *Folder) Open() *Folder {
	f.open = true
	return f
}

func (f *Folder) Close() *Folder {
	f.open = false
	return f
}

func (f *Folder) IsOpen() bool {
	return f.open
}

func (f *Folder) Bindings() []*Binding {
	return f.bindings
}

// Binding ties a labelled slider to a property.
type Binding struct {
	Min, Max, Step float32

	label    string
	prop     Property
	onChange func(float32)
	logger   core.Logger
}

// Name sets the display label.
func (b *Binding) Name(label string) *Binding {
	b.label = label
	return b
}

func (b *Binding) Label() string {
	return b.label
}

// OnChange registers a hook run after every successful write.
func (b *Binding) OnChange(fn func(float32)) *Binding {
	b.onChange = fn
	return b
}

func (b *Binding) Value() float32 {
	return b.prop.Get()
}

// SetValue clamps v into [Min, Max], writes it and runs the change hook.
// NaN is rejected and leaves the property untouched. It returns the value
// the property holds afterwards.
func (b *Binding) SetValue(v float32) float32 {
	if math.IsNaN(float64(v)) {
		b.logger.Warnf("panel: %s: rejected NaN", b.label)
		return b.prop.Get()
	}
	if v < b.Min || v > b.Max {
		clamped := max(b.Min, min(b.Max, v))
		b.logger.Debugf("panel: %s: %v out of [%v, %v], clamped to %v", b.label, v, b.Min, b.Max, clamped)
		v = clamped
	}
	b.prop.Set(v)
	if b.onChange != nil {
		b.onChange(v)
	}
	return v
}

// Nudge moves the value by n steps.
func (b *Binding) Nudge(n int) float32 {
	return b.SetValue(b.Value() + float32(n)*b.Step)
}
