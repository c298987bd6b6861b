package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"
)

// DefaultPath is where the viewer looks for its configuration, relative to the working directory.
const DefaultPath = "viewer.yaml"

const (
	DefaultEnvironmentURL = "https://dl.polyhaven.org/file/ph-assets/HDRIs/hdr/1k/zwartkops_start_morning_1k.hdr"
	DefaultModelPath      = "./Models/3dmodel.glb"
)

type Config struct {
	Window   Window   `yaml:"window"`
	Assets   Assets   `yaml:"assets"`
	Camera   Camera   `yaml:"camera"`
	Controls Controls `yaml:"controls"`
	Renderer Renderer `yaml:"renderer"`
	Material Material `yaml:"material"`
	Debug    bool     `yaml:"debug"`
}

type Window struct {
	Width   int    `yaml:"width"`
	Height  int    `yaml:"height"`
	Title   string `yaml:"title"`
	VSync   bool   `yaml:"vsync"`
	Samples int    `yaml:"samples"`
}

type Assets struct {
	Environment string `yaml:"environment"`
	Model       string `yaml:"model"`
	// CacheDir holds downloaded remote assets across runs. Empty, the default,
	// keeps nothing on disk.
	CacheDir string `yaml:"cache_dir"`
}

type Camera struct {
	FOV      float32    `yaml:"fov"`
	Near     float32    `yaml:"near"`
	Far      float32    `yaml:"far"`
	Position [3]float32 `yaml:"position"`
}

type Controls struct {
	EnableDamping   bool    `yaml:"enable_damping"`
	DampingFactor   float32 `yaml:"damping_factor"`
	AutoRotate      bool    `yaml:"auto_rotate"`
	AutoRotateSpeed float32 `yaml:"auto_rotate_speed"`
}

type Renderer struct {
	ToneMapping string  `yaml:"tone_mapping"`
	Exposure    float32 `yaml:"exposure"`
	OutputSRGB  bool    `yaml:"output_srgb"`
}

// Material holds the starting values of the panel's material controls.
type Material struct {
	Metalness float32 `yaml:"metalness"`
	Roughness float32 `yaml:"roughness"`
}

func Default() Config {
	return Config{
		Window: Window{
			Width:   1280,
			Height:  720,
			Title:   "Model Viewer",
			VSync:   true,
			Samples: 4,
		},
		Assets: Assets{
			Environment: DefaultEnvironmentURL,
			Model:       DefaultModelPath,
		},
		Camera: Camera{
			FOV:      65,
			Near:     0.1,
			Far:      100,
			Position: [3]float32{0, 1, 5},
		},
		Controls: Controls{
			EnableDamping:   true,
			DampingFactor:   0.05,
			AutoRotate:      true,
			AutoRotateSpeed: 1,
		},
		Renderer: Renderer{
			ToneMapping: "aces",
			Exposure:    1,
			OutputSRGB:  true,
		},
		Material: Material{
			Metalness: 0.5,
			Roughness: 0.5,
		},
	}
}

// Load reads a YAML file over Default(). A missing file yields the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("read config %q: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Default(), fmt.Errorf("parse config %q: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Default(), fmt.Errorf("config %q: %w", path, err)
	}
	return cfg, nil
}

func (c Config) Validate() error {
	switch {
	case c.Window.Width <= 0 || c.Window.Height <= 0:
		return fmt.Errorf("window size must be positive, got %dx%d", c.Window.Width, c.Window.Height)
	case c.Camera.FOV <= 0 || c.Camera.FOV >= 180:
		return fmt.Errorf("camera fov must be in (0, 180), got %v", c.Camera.FOV)
	case c.Camera.Near <= 0 || c.Camera.Far <= c.Camera.Near:
		return fmt.Errorf("camera planes must satisfy 0 < near < far, got %v/%v", c.Camera.Near, c.Camera.Far)
	case c.Controls.DampingFactor < 0 || c.Controls.DampingFactor > 1:
		return fmt.Errorf("damping factor must be in [0, 1], got %v", c.Controls.DampingFactor)
	case c.Renderer.Exposure < 0:
		return fmt.Errorf("exposure must not be negative, got %v", c.Renderer.Exposure)
	case c.Assets.Model == "":
		return errors.New("assets.model must be set")
	}
	return nil
}
