package engine

import (
	"bytes"
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"

	"github.com/spaghettifunk/anima-gl/engine/core"
	"github.com/spaghettifunk/anima-gl/engine/renderer"
	"github.com/spaghettifunk/anima-gl/engine/systems"
)

type WindowConfig struct {
	// Window starting position x axis, if applicable.
	StartPosX uint32 `toml:"x"`
	// Window starting position y axis, if applicable.
	StartPosY uint32 `toml:"y"`
	// Window starting width, if applicable.
	StartWidth uint32 `toml:"width"`
	// Window starting height, if applicable.
	StartHeight uint32 `toml:"height"`
	Resizable   bool   `toml:"resizable"`
	VSync       bool   `toml:"vsync"`
}

type RendererConfig struct {
	// Backend is "opengl" or "headless".
	Backend    string     `toml:"backend"`
	GLMajor    int        `toml:"gl_major"`
	GLMinor    int        `toml:"gl_minor"`
	ClearColor [4]float32 `toml:"clear_color"`
}

type ApplicationConfig struct {
	// The application name used in windowing, if applicable.
	Name     string         `toml:"name"`
	LogLevel core.LogLevel  `toml:"log_level"`
	Window   WindowConfig   `toml:"window"`
	Renderer RendererConfig `toml:"renderer"`
	// Directory watched for shaders and textures, relative to the working
	// directory unless absolute.
	AssetsDir string `toml:"assets_dir"`
	// Goroutines decoding assets in the background.
	Workers      int                     `toml:"workers"`
	MaxImageSize int                     `toml:"max_image_size"`
	Camera       systems.CameraConfig    `toml:"camera"`
	Programs     []systems.ProgramConfig `toml:"programs"`
}

// DefaultApplicationConfig is what a missing configuration key falls back
// to.
func DefaultApplicationConfig() *ApplicationConfig {
	return &ApplicationConfig{
		Name:     "Anima GL",
		LogLevel: core.LogLevelInfo,
		Window: WindowConfig{
			StartPosX:   100,
			StartPosY:   100,
			StartWidth:  1280,
			StartHeight: 720,
			Resizable:   true,
			VSync:       true,
		},
		Renderer: RendererConfig{
			Backend:    string(renderer.OpenGL),
			GLMajor:    3,
			GLMinor:    3,
			ClearColor: [4]float32{0, 0, 0.2, 1},
		},
		AssetsDir: "assets",
		Workers:   2,
		Camera: systems.CameraConfig{
			Position: [3]float32{0, 0, 5},
			FOV:      45,
			Near:     0.1,
			Far:      1000,
		},
	}
}

// LoadApplicationConfig reads a TOML configuration file over the defaults.
func LoadApplicationConfig(path string) (*ApplicationConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg, err := ParseApplicationConfig(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// ParseApplicationConfig decodes TOML over the defaults. Unknown keys are
// rejected so typos do not go unnoticed.
func ParseApplicationConfig(data []byte) (*ApplicationConfig, error) {
	cfg := DefaultApplicationConfig()
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *ApplicationConfig) Validate() error {
	if _, err := renderer.ParseRendererType(c.Renderer.Backend); err != nil {
		return err
	}
	if c.Window.StartWidth == 0 || c.Window.StartHeight == 0 {
		return fmt.Errorf("window size must not be zero, got %dx%d", c.Window.StartWidth, c.Window.StartHeight)
	}
	if c.Renderer.GLMajor < 3 || (c.Renderer.GLMajor == 3 && c.Renderer.GLMinor < 3) {
		return fmt.Errorf("GL %d.%d requested, at least 3.3 is needed", c.Renderer.GLMajor, c.Renderer.GLMinor)
	}
	seen := make(map[string]bool, len(c.Programs))
	for i, p := range c.Programs {
		if p.Name == "" {
			return fmt.Errorf("program %d has no name", i)
		}
		if seen[p.Name] {
			return fmt.Errorf("program %s is configured twice", p.Name)
		}
		seen[p.Name] = true
	}
	return nil
}
