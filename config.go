package vkframe

import (
	"bytes"
	"os"

	"github.com/pelletier/go-toml/v2"
	"github.com/pkg/errors"
)

// WindowConfig is the [window] table.
type WindowConfig struct {
	Width  int    `toml:"width"`
	Height int    `toml:"height"`
	Title  string `toml:"title"`
}

// RendererConfig is the [renderer] table.
type RendererConfig struct {
	MaxFramesInFlight int        `toml:"max_frames_in_flight"`
	Vsync             bool       `toml:"vsync"`
	Depth             bool       `toml:"depth"`
	ClearColor        [4]float32 `toml:"clear_color"`
	Validation        bool       `toml:"validation"`
	Anisotropy        bool       `toml:"anisotropy"`
}

// AssetsConfig is the [assets] table. Relative paths are resolved by the
// caller.
type AssetsConfig struct {
	VertexShader   string `toml:"vertex_shader"`
	FragmentShader string `toml:"fragment_shader"`
	Texture        string `toml:"texture"`
	MaxTextureSize int    `toml:"max_texture_size"`
}

// Config holds everything a renderer needs that is not code.
type Config struct {
	Window   WindowConfig   `toml:"window"`
	Renderer RendererConfig `toml:"renderer"`
	Assets   AssetsConfig   `toml:"assets"`
}

func DefaultConfig() *Config {
	return &Config{
		Window: WindowConfig{
			Width:  800,
			Height: 600,
			Title:  "vkframe",
		},
		Renderer: RendererConfig{
			MaxFramesInFlight: DefaultMaxFramesInFlight,
			Depth:             true,
			ClearColor:        [4]float32{0, 0, 0, 1},
			Anisotropy:        true,
		},
		Assets: AssetsConfig{
			VertexShader:   "shaders/vert.spv",
			FragmentShader: "shaders/frag.spv",
			MaxTextureSize: 4096,
		},
	}
}

// ParseConfig decodes data over the defaults, so a document only needs the
// keys it changes. Unknown keys are an error.
func ParseConfig(data []byte) (*Config, error) {
	cfg := DefaultConfig()
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(cfg); err != nil {
		var sme *toml.StrictMissingError
		if errors.As(err, &sme) {
			return nil, errors.Errorf("config: %s", sme.String())
		}
		return nil, errors.Wrap(err, "config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadConfig reads path. A missing file yields the defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		Logger().Info("config not found, using defaults", "path", path)
		return DefaultConfig(), nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "config")
	}
	cfg, err := ParseConfig(data)
	if err != nil {
		return nil, errors.Wrap(err, path)
	}
	return cfg, nil
}

// Validate rejects values no renderer can start with.
func (c *Config) Validate() error {
	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		return errors.Errorf("config: window size %dx%d", c.Window.Width, c.Window.Height)
	}
	if c.Renderer.MaxFramesInFlight < 1 {
		return errors.Errorf("config: max_frames_in_flight %d", c.Renderer.MaxFramesInFlight)
	}
	for _, v := range c.Renderer.ClearColor {
		if v < 0 || v > 1 {
			return errors.Errorf("config: clear_color %v outside [0, 1]", c.Renderer.ClearColor)
		}
	}
	if c.Assets.MaxTextureSize < 1 {
		return errors.Errorf("config: max_texture_size %d", c.Assets.MaxTextureSize)
	}
	return nil
}

// Marshal encodes c as TOML.
func (c *Config) Marshal() ([]byte, error) {
	data, err := toml.Marshal(c)
	return data, errors.Wrap(err, "config")
}
