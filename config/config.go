// Package config provides configuration loading and access for the layout
// tools and the demo.
package config

import (
	_ "embed"
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/pthm-cable/gpgpu/gpu"
	"github.com/pthm-cable/gpgpu/layout"
	"github.com/pthm-cable/gpgpu/macro"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all configuration parameters.
type Config struct {
	Screen    ScreenConfig    `yaml:"screen"`
	Device    DeviceConfig    `yaml:"device"`
	State     StateConfig     `yaml:"state"`
	Values    []ValueConfig   `yaml:"values"`
	Demo      DemoConfig      `yaml:"demo"`
	Telemetry TelemetryConfig `yaml:"telemetry"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// ScreenConfig holds display settings.
type ScreenConfig struct {
	Width     int `yaml:"width"`
	Height    int `yaml:"height"`
	TargetFPS int `yaml:"target_fps"`
}

// DeviceConfig holds the GPU limits layouts are fitted to.
type DeviceConfig struct {
	ChannelsMax int `yaml:"channels_max"` // channels per texel
	BuffersMax  int `yaml:"buffers_max"`  // draw buffers per framebuffer
	TexturesMax int `yaml:"textures_max"` // sampler units per draw, 0 for no check
}

// StateConfig holds the shape and storage of the state textures.
type StateConfig struct {
	Width  int    `yaml:"width"`
	Height int    `yaml:"height"`
	Steps  int    `yaml:"steps"` // step buffers kept
	Bound  int    `yaml:"bound"` // steps being written, not readable
	Merge  bool   `yaml:"merge"`
	Pack   bool   `yaml:"pack"`
	Prefix string `yaml:"prefix"`
	Type   string `yaml:"type"`   // float, half or uint8
	Filter string `yaml:"filter"` // nearest or linear
	Wrap   string `yaml:"wrap"`   // clamp or repeat
}

// ValueConfig declares one state value and what its next state reads.
type ValueConfig struct {
	Name     string        `yaml:"name"`
	Channels int           `yaml:"channels"`
	Derive   *DeriveConfig `yaml:"derive,omitempty"`
}

// DemoConfig holds the particle demo parameters.
type DemoConfig struct {
	Attractors int     `yaml:"attractors"`
	Strength   float64 `yaml:"strength"` // attractor pull
	Drag       float64 `yaml:"drag"`     // velocity kept per second
	Lifetime   float64 `yaml:"lifetime"` // seconds
	Seed       int64   `yaml:"seed"`
	DT         float64 `yaml:"dt"`
}

// TelemetryConfig holds telemetry parameters.
type TelemetryConfig struct {
	PerfWindow  int `yaml:"perf_window"`  // frames averaged in perf stats
	LogInterval int `yaml:"log_interval"` // ticks between stats logs, 0 disables
}

// DerivedConfig holds values derived from the loaded config.
type DerivedConfig struct {
	ScreenW32 float32
	ScreenH32 float32
	DT32      float32

	Type   gpu.DataType
	Filter gpu.Filter
	Wrap   gpu.Wrap

	// ValueIndex maps value names to their index.
	ValueIndex map[string]int
}

var global *Config

// Init loads configuration from the given path (or defaults if empty) and
// sets it as the global config.
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// MustInit is like Init but panics on error.
func MustInit(path string) {
	if err := Init(path); err != nil {
		panic(fmt.Sprintf("config: failed to initialize: %v", err))
	}
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Only overwrites fields present in file; lists are replaced whole.
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := cfg.computeDerived(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// computeDerived calculates values derived from loaded config.
func (c *Config) computeDerived() error {
	c.Derived.ScreenW32 = float32(c.Screen.Width)
	c.Derived.ScreenH32 = float32(c.Screen.Height)
	c.Derived.DT32 = float32(c.Demo.DT)

	switch c.State.Type {
	case "", "float":
		c.Derived.Type = gpu.Float
	case "half":
		c.Derived.Type = gpu.HalfFloat
	case "uint8":
		c.Derived.Type = gpu.Uint8
	default:
		return fmt.Errorf("state.type %q: want float, half or uint8", c.State.Type)
	}
	switch c.State.Filter {
	case "", "nearest":
		c.Derived.Filter = gpu.Nearest
	case "linear":
		c.Derived.Filter = gpu.Linear
	default:
		return fmt.Errorf("state.filter %q: want nearest or linear", c.State.Filter)
	}
	switch c.State.Wrap {
	case "", "clamp":
		c.Derived.Wrap = gpu.Clamp
	case "repeat":
		c.Derived.Wrap = gpu.Repeat
	default:
		return fmt.Errorf("state.wrap %q: want clamp or repeat", c.State.Wrap)
	}

	c.Derived.ValueIndex = make(map[string]int, len(c.Values))
	for i, v := range c.Values {
		if v.Name == "" {
			continue
		}
		if _, dup := c.Derived.ValueIndex[v.Name]; dup {
			return fmt.Errorf("value %q declared twice", v.Name)
		}
		c.Derived.ValueIndex[v.Name] = i
	}

	// Unnamed values are addressed by index in macro names.
	idents := make(map[string]int, len(c.Values))
	for i, v := range c.Values {
		name := v.Name
		if name == "" {
			name = strconv.Itoa(i)
		}
		id := macro.Ident(name)
		if j, dup := idents[id]; dup {
			return fmt.Errorf("values %d and %d share macro name %q", j, i, id)
		}
		idents[id] = i
	}
	return nil
}

// Spec builds the layout specification the values and limits describe.
func (c *Config) Spec() (layout.Spec, error) {
	spec := layout.Spec{
		Values:      make([]int, len(c.Values)),
		Names:       make([]string, len(c.Values)),
		Derives:     make([]*layout.Derive, len(c.Values)),
		ChannelsMax: c.Device.ChannelsMax,
		BuffersMax:  c.Device.BuffersMax,
		Steps:       c.State.Steps,
		Bound:       c.State.Bound,
		Pack:        c.State.Pack,
	}
	for i, v := range c.Values {
		spec.Values[i] = v.Channels
		spec.Names[i] = v.Name
		if v.Derive == nil {
			continue
		}
		d, err := v.Derive.Resolve(c.Derived.ValueIndex)
		if err != nil {
			return layout.Spec{}, fmt.Errorf("value %d derive: %w", i, err)
		}
		spec.Derives[i] = &d
	}
	if err := spec.Validate(); err != nil {
		return layout.Spec{}, err
	}
	return spec, nil
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
