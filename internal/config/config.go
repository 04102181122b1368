// Package config handles viewer configuration loading and management.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/Faultbox/archview/internal/logger"
)

// Config holds all viewer settings.
type Config struct {
	Window      WindowConfig     `yaml:"window"`
	Camera      CameraConfig     `yaml:"camera"`
	Models      ModelsConfig     `yaml:"models"`
	Visibility  VisibilityConfig `yaml:"visibility"`
	Playback    PlaybackConfig   `yaml:"playback"`
	Scene       SceneConfig      `yaml:"scene"`
	Logging     LoggingConfig    `yaml:"logging"`
	Screenshots ScreenshotConfig `yaml:"screenshots"`
}

// WindowConfig holds display settings.
type WindowConfig struct {
	Title      string `yaml:"title"`
	Width      int    `yaml:"width"`
	Height     int    `yaml:"height"`
	Fullscreen bool   `yaml:"fullscreen"`
	VSync      bool   `yaml:"vsync"`
}

// CameraConfig holds projection, orbit and preset settings.
type CameraConfig struct {
	FOV         float32        `yaml:"fov"` // Vertical, degrees
	Near        float32        `yaml:"near"`
	Far         float32        `yaml:"far"`
	MinDistance float32        `yaml:"min_distance"`
	MaxDistance float32        `yaml:"max_distance"`
	Initial     [3]float32     `yaml:"initial"`
	Target      [3]float32     `yaml:"target"`
	Presets     []CameraPreset `yaml:"presets"`
}

// CameraPreset is a named camera position.
type CameraPreset struct {
	Name     string     `yaml:"name"`
	Position [3]float32 `yaml:"position"`
}

// Preset returns the named preset position.
func (c CameraConfig) Preset(name string) ([3]float32, bool) {
	for _, p := range c.Presets {
		if p.Name == name {
			return p.Position, true
		}
	}
	return [3]float32{}, false
}

// ModelsConfig holds the asset root and the time-step sequence.
type ModelsConfig struct {
	Root        string       `yaml:"root"`
	Scale       float32      `yaml:"scale"`
	Steps       []StepConfig `yaml:"steps"`
	InitialStep int          `yaml:"initial_step"` // -1 binds nothing at startup
}

// StepConfig pairs the assets shown at one time step.
type StepConfig struct {
	Mandibular string `yaml:"mandibular"`
	Maxillary  string `yaml:"maxillary"`
}

// VisibilityConfig holds the arch toggle policy.
type VisibilityConfig struct {
	Policy string `yaml:"policy"` // keep-one or exclusive
}

// PlaybackConfig holds play-all settings.
type PlaybackConfig struct {
	StepDelay time.Duration `yaml:"step_delay"`
}

// SceneConfig holds background, ground and shadow settings.
type SceneConfig struct {
	Background       uint32  `yaml:"background"`
	ShadowResolution int     `yaml:"shadow_resolution"`
	ShadowBias       float32 `yaml:"shadow_bias"`
	GroundY          float32 `yaml:"ground_y"`
	GroundSize       float32 `yaml:"ground_size"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// ScreenshotConfig holds screenshot output settings.
type ScreenshotConfig struct {
	Dir    string `yaml:"dir"`
	Format string `yaml:"format"` // png, bmp or tiff
}

// Default returns a Config with the deployed viewer values.
func Default() *Config {
	return &Config{
		Window: WindowConfig{
			Title:      "ArchView",
			Width:      1280,
			Height:     720,
			Fullscreen: false,
			VSync:      true,
		},
		Camera: CameraConfig{
			FOV:         35,
			Near:        1,
			Far:         15,
			MinDistance: 3,
			MaxDistance: 5,
			Initial:     [3]float32{0, 0.15, 3},
			Target:      [3]float32{0, 0.15, 0},
			Presets: []CameraPreset{
				{Name: "left", Position: [3]float32{-4, 0.15, 3}},
				{Name: "center", Position: [3]float32{0, 0.15, 3}},
				{Name: "right", Position: [3]float32{4, 0.15, 3}},
			},
		},
		Models: ModelsConfig{
			Root:  ".",
			Scale: 0.02,
			Steps: []StepConfig{
				{Mandibular: "Models/Mandibular.ply", Maxillary: "Models/Maxillary.ply"},
				{Mandibular: "Models/Mandibular2.ply", Maxillary: "Models/Maxillary2.ply"},
				{Mandibular: "Models/Mandibular3.ply", Maxillary: "Models/Maxillary3.ply"},
				{Mandibular: "Models/Mandibular4.ply", Maxillary: "Models/Maxillary4.ply"},
				{Mandibular: "Models/Mandibular5.ply", Maxillary: "Models/Maxillary5.ply"},
			},
			InitialStep: 0,
		},
		Visibility: VisibilityConfig{
			Policy: "keep-one",
		},
		Playback: PlaybackConfig{
			StepDelay: 300 * time.Millisecond,
		},
		Scene: SceneConfig{
			Background:       0x282828,
			ShadowResolution: 1024,
			ShadowBias:       -0.001,
			GroundY:          -0.5,
			GroundSize:       0.00001,
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
		Screenshots: ScreenshotConfig{
			Dir:    "screenshots",
			Format: "png",
		},
	}
}

// Validate reports the first inconsistent setting.
func (c *Config) Validate() error {
	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		return fmt.Errorf("window size must be positive, got %dx%d", c.Window.Width, c.Window.Height)
	}
	if c.Camera.FOV <= 0 || c.Camera.FOV >= 180 {
		return fmt.Errorf("camera fov must be in (0, 180), got %g", c.Camera.FOV)
	}
	if c.Camera.Near <= 0 || c.Camera.Far <= c.Camera.Near {
		return fmt.Errorf("camera clip planes must satisfy 0 < near < far, got %g/%g", c.Camera.Near, c.Camera.Far)
	}
	if c.Camera.MinDistance <= 0 || c.Camera.MinDistance > c.Camera.MaxDistance {
		return fmt.Errorf("camera distance bounds must satisfy 0 < min <= max, got %g/%g",
			c.Camera.MinDistance, c.Camera.MaxDistance)
	}
	for _, p := range c.Camera.Presets {
		if p.Name == "" {
			return errors.New("camera preset without name")
		}
	}
	if c.Models.Scale <= 0 {
		return fmt.Errorf("models scale must be positive, got %g", c.Models.Scale)
	}
	if len(c.Models.Steps) == 0 {
		return errors.New("models steps must not be empty")
	}
	for i, s := range c.Models.Steps {
		if s.Mandibular == "" || s.Maxillary == "" {
			return fmt.Errorf("models step %d must name both mandibular and maxillary assets", i)
		}
	}
	if c.Models.InitialStep < -1 || c.Models.InitialStep >= len(c.Models.Steps) {
		return fmt.Errorf("models initial_step %d out of range [-1, %d)", c.Models.InitialStep, len(c.Models.Steps))
	}
	switch c.Visibility.Policy {
	case "keep-one", "exclusive":
	default:
		return fmt.Errorf("unknown visibility policy %q", c.Visibility.Policy)
	}
	if c.Playback.StepDelay <= 0 {
		return fmt.Errorf("playback step_delay must be positive, got %v", c.Playback.StepDelay)
	}
	if c.Scene.ShadowResolution <= 0 {
		return fmt.Errorf("scene shadow_resolution must be positive, got %d", c.Scene.ShadowResolution)
	}
	switch c.Screenshots.Format {
	case "png", "bmp", "tiff":
	default:
		return fmt.Errorf("unknown screenshot format %q", c.Screenshots.Format)
	}
	if _, err := logger.ParseLevel(c.Logging.Level); err != nil {
		return err
	}
	return nil
}
