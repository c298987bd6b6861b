package renderer

import (
	"fmt"
	"strings"
)

// ToneMapping selects how HDR radiance is mapped to display range.
type ToneMapping int

const (
	ToneMappingNone ToneMapping = iota
	ToneMappingLinear
	ToneMappingReinhard
	ToneMappingACESFilmic
)

var toneMappingNames = map[ToneMapping]string{
	ToneMappingNone:       "none",
	ToneMappingLinear:     "linear",
	ToneMappingReinhard:   "reinhard",
	ToneMappingACESFilmic: "aces",
}

func (t ToneMapping) String() string {
	if name, ok := toneMappingNames[t]; ok {
		return name
	}
	return fmt.Sprintf("ToneMapping(%d)", int(t))
}

// ParseToneMapping accepts the names used in configuration files.
func ParseToneMapping(s string) (ToneMapping, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "none", "":
		return ToneMappingNone, nil
	case "linear":
		return ToneMappingLinear, nil
	case "reinhard":
		return ToneMappingReinhard, nil
	case "aces", "acesfilmic", "aces-filmic":
		return ToneMappingACESFilmic, nil
	}
	return ToneMappingNone, fmt.Errorf("unknown tone mapping %q", s)
}

// Settings are fixed when the engine is created.
type Settings struct {
	ToneMapping ToneMapping
	Exposure    float32
	OutputSRGB  bool
	// Antialias renders the scene into a multisampled target.
	Antialias bool
	Samples   int

	// EnvironmentIntensity scales both background and image-based lighting.
	EnvironmentIntensity float32
}

func DefaultSettings() Settings {
	return Settings{
		ToneMapping:          ToneMappingACESFilmic,
		Exposure:             1,
		OutputSRGB:           true,
		Antialias:            true,
		Samples:              4,
		EnvironmentIntensity: 1,
	}
}

// samples returns the MSAA sample count to request, zero when disabled.
func (s Settings) samples() int {
	if !s.Antialias {
		return 0
	}
	if s.Samples <= 0 {
		return 4
	}
	return s.Samples
}

// Stats describes the most recent frame.
type Stats struct {
	Objects   int
	Vertices  int
	Triangles int
	Culled    int
}
