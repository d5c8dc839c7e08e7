// Package config provides the tunable parameters of the analysis
// pipeline, loaded from YAML with sensible defaults.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"gopkg.in/yaml.v3"
)

// Config holds every engine tuning knob. Zero values are replaced by
// defaults on load, so partial config files are fine.
type Config struct {
	// Threshold parameters for the adaptive segmentation.
	Threshold struct {
		// WindowRadius is the half-width of the local background window.
		WindowRadius int `yaml:"windowRadius"`

		// Offset is subtracted from the local background mean; pixels
		// darker than the result become foreground.
		Offset float64 `yaml:"offset"`

		// UniformEps is the masked intensity variance below which a
		// region counts as near-uniform.
		UniformEps float64 `yaml:"uniformEps"`

		// MinPixels is the smallest analyzable region size.
		MinPixels int `yaml:"minPixels"`
	} `yaml:"threshold"`

	Halo struct {
		// BandRadius is the halo search distance in pixels.
		BandRadius int `yaml:"bandRadius"`
	} `yaml:"halo"`

	Engine struct {
		// Workers is the number of concurrent region workers.
		Workers int `yaml:"workers"`
	} `yaml:"engine"`

	Render struct {
		// HeatmapPad is the bounding-box padding around heatmap crops.
		HeatmapPad int `yaml:"heatmapPad"`
	} `yaml:"render"`

	Serve struct {
		Addr              string `yaml:"addr"`
		RequestTimeoutSec int    `yaml:"requestTimeoutSec"`
	} `yaml:"serve"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	cfg := &Config{}
	cfg.Threshold.WindowRadius = 15
	cfg.Threshold.Offset = 10
	cfg.Threshold.UniformEps = 1.0
	cfg.Threshold.MinPixels = 4
	cfg.Halo.BandRadius = 4
	cfg.Engine.Workers = runtime.NumCPU()
	cfg.Render.HeatmapPad = 8
	cfg.Serve.Addr = ":8080"
	cfg.Serve.RequestTimeoutSec = 30
	return cfg
}

// Load reads a YAML config file over the defaults. A missing file is not
// an error; it simply yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	cfg.clamp()
	return cfg, nil
}

// Save writes the configuration to a YAML file, creating parent
// directories as needed.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("error marshaling config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("error writing config file: %w", err)
	}
	return nil
}

// clamp replaces out-of-range values with their defaults.
func (c *Config) clamp() {
	def := Default()
	if c.Threshold.WindowRadius < 1 {
		c.Threshold.WindowRadius = def.Threshold.WindowRadius
	}
	if c.Threshold.UniformEps < 0 {
		c.Threshold.UniformEps = def.Threshold.UniformEps
	}
	if c.Threshold.MinPixels < 1 {
		c.Threshold.MinPixels = def.Threshold.MinPixels
	}
	if c.Halo.BandRadius < 1 {
		c.Halo.BandRadius = def.Halo.BandRadius
	}
	if c.Engine.Workers < 1 {
		c.Engine.Workers = def.Engine.Workers
	}
	if c.Render.HeatmapPad < 0 {
		c.Render.HeatmapPad = def.Render.HeatmapPad
	}
	if c.Serve.RequestTimeoutSec < 1 {
		c.Serve.RequestTimeoutSec = def.Serve.RequestTimeoutSec
	}
}
