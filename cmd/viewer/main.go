package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"model-viewer/config"
	"model-viewer/controls"
	"model-viewer/core"
	"model-viewer/internal/gui"
	"model-viewer/internal/platform"
	"model-viewer/loader"
	"model-viewer/renderer"
	"model-viewer/viewer"
)

type options struct {
	configPath  string
	environment string
	model       string
	debug       bool
	width       int
	height      int
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var opts options
	cmd := &cobra.Command{
		Use:   "viewer",
		Short: "glTF model viewer",
		Long: `viewer - glTF/GLB model viewer with HDR environment lighting

Controls:
  Left drag   - Orbit
  Right drag  - Pan
  Scroll      - Dolly in/out
  Panel       - Material metalness/roughness, camera position and zoom`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd, opts)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return run(ctx, cfg)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.configPath, "config", config.DefaultPath, "YAML configuration file (optional)")
	flags.StringVar(&opts.environment, "env", "", "HDR environment URL or path")
	flags.StringVar(&opts.model, "model", "", "glTF/GLB model URL or path")
	flags.BoolVar(&opts.debug, "debug", false, "Enable debug logging")
	flags.IntVar(&opts.width, "width", 0, "Window width")
	flags.IntVar(&opts.height, "height", 0, "Window height")

	cmd.AddCommand(newInfoCommand())
	return cmd
}

// loadConfig reads the config file and applies flags the user set explicitly.
func loadConfig(cmd *cobra.Command, opts options) (config.Config, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return cfg, err
	}
	flags := cmd.Flags()
	if flags.Changed("env") {
		cfg.Assets.Environment = opts.environment
	}
	if flags.Changed("model") {
		cfg.Assets.Model = opts.model
	}
	if flags.Changed("debug") {
		cfg.Debug = opts.debug
	}
	if flags.Changed("width") {
		cfg.Window.Width = opts.width
	}
	if flags.Changed("height") {
		cfg.Window.Height = opts.height
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("flags: %w", err)
	}
	return cfg, nil
}

func rendererSettings(cfg config.Config) (renderer.Settings, error) {
	settings := renderer.DefaultSettings()
	tm, err := renderer.ParseToneMapping(cfg.Renderer.ToneMapping)
	if err != nil {
		return settings, err
	}
	settings.ToneMapping = tm
	settings.Exposure = cfg.Renderer.Exposure
	settings.OutputSRGB = cfg.Renderer.OutputSRGB
	settings.Antialias = cfg.Window.Samples > 0
	settings.Samples = cfg.Window.Samples
	return settings, nil
}

func run(ctx context.Context, cfg config.Config) error {
	logger := core.NewDefaultLogger("viewer", cfg.Debug)

	settings, err := rendererSettings(cfg)
	if err != nil {
		return err
	}

	// The scene renders into its own multisampled target, so the default
	// framebuffer does not need samples.
	window, err := platform.NewWindow(platform.WindowConfig{
		Width:     cfg.Window.Width,
		Height:    cfg.Window.Height,
		Title:     cfg.Window.Title,
		Resizable: true,
		VSync:     cfg.Window.VSync,
	})
	if err != nil {
		return err
	}
	defer window.Destroy()

	engine, err := renderer.NewRenderEngine(settings, logger)
	if err != nil {
		return err
	}
	defer engine.Destroy()

	queue := loader.NewQueue()
	defer queue.Close()
	// Runs before queue.Close so in-flight fetches abort when the window closes.
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	fetcher := loader.NewFetcher(cfg.Assets.CacheDir, logger)

	v, err := viewer.New(cfg, viewer.Deps{
		Renderer:     engine,
		Environments: loader.NewEnvironmentLoader(fetcher, queue, logger),
		Models:       loader.NewModelLoader(fetcher, queue, logger),
		Queue:        queue,
		Pointer:      window,
		Logger:       logger,
	})
	if err != nil {
		return err
	}
	v.Resize(window.FramebufferSize())
	window.OnResize(v.Resize)

	var captured func() bool
	if g, err := gui.New(window, v.Panel, logger); err != nil {
		logger.Warnf("panel unavailable: %v", err)
	} else {
		defer g.Destroy()
		v.Overlay = g
		captured = g.WantCaptureMouse
	}
	controls.NewInputRouter(v.Controls, captured).Attach(window)

	logger.Infof("environment: %s", cfg.Assets.Environment)
	logger.Infof("model: %s", cfg.Assets.Model)
	v.Start(ctx)
	return v.Run(ctx, window)
}
