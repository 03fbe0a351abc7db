// Package config provides configuration loading and access for the simulation.
package config

import (
	_ "embed"
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all simulation run parameters.
type Config struct {
	Trench  TrenchConfig  `yaml:"trench"`
	Cell    CellConfig    `yaml:"cell"`
	Physics PhysicsConfig `yaml:"physics"`
	Sim     SimConfig     `yaml:"sim"`
	Display DisplayConfig `yaml:"display"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// TrenchConfig holds the mother-machine trench geometry in microns.
// The origin is the bottom-left corner of the trench in world units.
type TrenchConfig struct {
	Length  float64 `yaml:"length"` // trench length (micron)
	Width   float64 `yaml:"width"`  // trench width (micron)
	OriginX float64 `yaml:"origin_x"`
	OriginY float64 `yaml:"origin_y"`
}

// CellConfig holds cell geometry and lifecycle parameters in microns.
type CellConfig struct {
	MaxLength    float64 `yaml:"max_length"`     // mean division length (micron)
	MaxLengthVar float64 `yaml:"max_length_var"` // spread of the division length
	Width        float64 `yaml:"width"`          // mean cell width (micron)
	WidthVar     float64 `yaml:"width_var"`      // spread of the cell width
	GrowthRate   float64 `yaml:"growth_rate"`    // first-order growth constant
	LysisP       float64 `yaml:"lysis_p"`        // per-frame lysis probability
	SeedX        float64 `yaml:"seed_x"`         // initial cell pose, world units
	SeedY        float64 `yaml:"seed_y"`
	SeedAngle    float64 `yaml:"seed_angle"`
}

// PhysicsConfig holds rigid-body stepping parameters.
type PhysicsConfig struct {
	DT            float64 `yaml:"dt"`             // timestep per frame
	Gravity       float64 `yaml:"gravity"`        // pressure toward the trench pole, usually 0
	Iters         int     `yaml:"iters"`          // main physics steps per frame
	SettleIters   int     `yaml:"settle_iters"`   // over-relaxation steps after each registration
	SettleDT      float64 `yaml:"settle_dt"`      // sub-interval for the settle pass
	CollisionSlop float64 `yaml:"collision_slop"` // allowed shape overlap
}

// SimConfig holds run length and resolution scaling.
type SimConfig struct {
	Frames       int     `yaml:"frames"`        // number of simulation frames
	PixMicConv   float64 `yaml:"pix_mic_conv"`  // micron per pixel of the target image
	ResizeAmount float64 `yaml:"resize_amount"` // extra resolution multiplier
}

// DisplayConfig holds the interactive debug view settings.
type DisplayConfig struct {
	Enabled bool `yaml:"enabled"`
	Width   int  `yaml:"width"`
	Height  int  `yaml:"height"`
}

// DerivedConfig holds computed values derived from the loaded config.
// Geometry means are scaled into world units; variance terms scale with the
// square root of the scale factor so sampling noise stays realistic at
// higher resolutions.
type DerivedConfig struct {
	ScaleFactor  float64 // world units per micron
	TrenchLength float64
	TrenchWidth  float64
	MaxLength    float64
	MaxLengthVar float64
	Width        float64
	WidthVar     float64
}

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded defaults if path is empty.
// Must be called before Cfg().
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
	// Start with embedded defaults
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	// Load user config if provided
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Unmarshal into same struct - only overwrites fields present in file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	cfg.ComputeDerived()

	return cfg, nil
}

// ComputeDerived calculates values derived from loaded config. Load calls it
// automatically; call it again after mutating geometry or scaling fields.
func (c *Config) ComputeDerived() {
	scale := (1.0 / c.Sim.PixMicConv) * c.Sim.ResizeAmount
	c.Derived.ScaleFactor = scale
	c.Derived.TrenchLength = c.Trench.Length * scale
	c.Derived.TrenchWidth = c.Trench.Width * scale
	c.Derived.MaxLength = c.Cell.MaxLength * scale
	c.Derived.MaxLengthVar = c.Cell.MaxLengthVar * math.Sqrt(scale)
	c.Derived.Width = c.Cell.Width * scale
	c.Derived.WidthVar = c.Cell.WidthVar * math.Sqrt(scale)
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
