package config

import (
	"errors"
	"fmt"
	"image/color"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/milk9111/tiledmap/tiled"
	"gopkg.in/yaml.v3"
)

var ErrInvalidConfig = errors.New("config: invalid")

type Filter string

const (
	FilterNearest Filter = "nearest"
	FilterLinear  Filter = "linear"
)

// Config is the plugin configuration file.
type Config struct {
	ChunkSize       int               `yaml:"chunk_size"`
	AssetRoot       string            `yaml:"asset_root"`
	Watch           bool              `yaml:"watch"`
	Center          bool              `yaml:"center"`
	DebugObjects    bool              `yaml:"debug_objects"`
	DebugColor      Color             `yaml:"debug_color"`
	ObjectZOffset   float64           `yaml:"object_z_offset"`
	ObjectDepthSpan float64           `yaml:"object_depth_span"`
	CollisionTypes  []string          `yaml:"collision_types"`
	Scripts         map[string]string `yaml:"scripts"`
	Filter          Filter            `yaml:"filter"`
}

func Default() Config {
	return Config{
		ChunkSize:       tiled.DefaultChunkSize,
		AssetRoot:       "assets",
		DebugColor:      Color{RGBA: color.RGBA{R: 255, G: 0, B: 255, A: 255}},
		ObjectZOffset:   tiled.DefaultZOffset,
		ObjectDepthSpan: tiled.DefaultDepthSpan,
		Scripts:         map[string]string{},
		Filter:          FilterNearest,
	}
}

// Load reads and validates a config file. Missing keys keep their defaults.
func Load(filename string) (Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return Config{}, fmt.Errorf("config: load %s: %w", filename, err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return Config{}, fmt.Errorf("config: %s: %w", filename, err)
	}
	return cfg, nil
}

func Parse(data []byte) (Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: unmarshal: %w", err)
	}
	if cfg.Scripts == nil {
		cfg.Scripts = map[string]string{}
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.ChunkSize <= 0 {
		return fmt.Errorf("%w: chunk_size must be positive, got %d", ErrInvalidConfig, c.ChunkSize)
	}
	if c.ObjectDepthSpan <= 0 {
		return fmt.Errorf("%w: object_depth_span must be positive, got %v", ErrInvalidConfig, c.ObjectDepthSpan)
	}
	switch c.Filter {
	case FilterNearest, FilterLinear:
	default:
		return fmt.Errorf("%w: unknown filter %q", ErrInvalidConfig, c.Filter)
	}
	for typ, p := range c.Scripts {
		if strings.TrimSpace(p) == "" {
			return fmt.Errorf("%w: script for type %q has no path", ErrInvalidConfig, typ)
		}
	}
	return nil
}

// MapOptions converts the meshing and object depth settings.
func (c Config) MapOptions() tiled.Options {
	return tiled.Options{
		ChunkSize: c.ChunkSize,
		ZOffset:   float32(c.ObjectZOffset),
		DepthSpan: float32(c.ObjectDepthSpan),
	}
}

func (c Config) IsCollisionType(typ string) bool {
	return typ != "" && slices.Contains(c.CollisionTypes, typ)
}

// Color reads "#rrggbb" or "#rrggbbaa".
type Color struct {
	color.RGBA
}

func (c *Color) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("color must be a string")
	}
	s := strings.TrimPrefix(value.Value, "#")
	if len(s) != 6 && len(s) != 8 {
		return fmt.Errorf("invalid color format: %s", value.Value)
	}

	var ch [4]uint8
	ch[3] = 255
	for i := 0; i < len(s)/2; i++ {
		v, err := strconv.ParseUint(s[i*2:i*2+2], 16, 8)
		if err != nil {
			return fmt.Errorf("invalid color format: %s", value.Value)
		}
		ch[i] = uint8(v)
	}
	nc := color.NRGBA{R: ch[0], G: ch[1], B: ch[2], A: ch[3]}
	c.RGBA = color.RGBAModel.Convert(nc).(color.RGBA)
	return nil
}
