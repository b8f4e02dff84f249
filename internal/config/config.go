package config

import (
	"fmt"
	"os"
	"runtime"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the global configuration for a conversion run
type Config struct {
	// Input settings
	InputFile string // Lane-graph snapshot (*.yaml)

	// Output settings
	OutputFile string // Lanelet2 map (*.osm)

	// Conversion settings
	SamplingDistance float64 // Waypoint sampling step in meters
	SpeedLimit       string  // Default speed limit tag for road lanelets
	Location         string  // Location tag for road lanelets (urban/nonurban)
	HookScript       string  // Optional Lua attribute hook script

	// Processing settings
	Workers int // Parallel workers for border pre-sampling

	// Logging and metrics
	Verbose         bool
	LogFile         string
	MetricsInterval time.Duration
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		OutputFile:       "lanelet2.osm",
		SamplingDistance: 2.0,
		SpeedLimit:       "30",
		Location:         "urban",
		Workers:          runtime.NumCPU(),
		MetricsInterval:  30 * time.Second,
	}
}

// fileConfig mirrors Config for YAML decoding. Durations are given as
// strings ("30s", "1m") and parsed separately.
type fileConfig struct {
	InputFile        string  `yaml:"input"`
	OutputFile       string  `yaml:"output"`
	SamplingDistance float64 `yaml:"sampling_distance"`
	SpeedLimit       string  `yaml:"speed_limit"`
	Location         string  `yaml:"location"`
	HookScript       string  `yaml:"hook"`
	Workers          int     `yaml:"workers"`
	Verbose          bool    `yaml:"verbose"`
	LogFile          string  `yaml:"log_file"`
	MetricsInterval  string  `yaml:"metrics_interval"`
}

// LoadFile overlays configuration values from a YAML file on top of c.
// Zero values in the file leave the current settings untouched.
func (c *Config) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	var file fileConfig
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("failed to parse config YAML: %w", err)
	}

	if file.InputFile != "" {
		c.InputFile = file.InputFile
	}
	if file.OutputFile != "" {
		c.OutputFile = file.OutputFile
	}
	if file.SamplingDistance != 0 {
		c.SamplingDistance = file.SamplingDistance
	}
	if file.SpeedLimit != "" {
		c.SpeedLimit = file.SpeedLimit
	}
	if file.Location != "" {
		c.Location = file.Location
	}
	if file.HookScript != "" {
		c.HookScript = file.HookScript
	}
	if file.Workers != 0 {
		c.Workers = file.Workers
	}
	if file.Verbose {
		c.Verbose = true
	}
	if file.LogFile != "" {
		c.LogFile = file.LogFile
	}
	if file.MetricsInterval != "" {
		interval, err := time.ParseDuration(file.MetricsInterval)
		if err != nil {
			return fmt.Errorf("invalid metrics_interval: %w", err)
		}
		c.MetricsInterval = interval
	}
	return nil
}

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	if c.InputFile == "" {
		return fmt.Errorf("input file is required")
	}
	if c.OutputFile == "" {
		return fmt.Errorf("output file is required")
	}
	if c.SamplingDistance <= 0 {
		return fmt.Errorf("sampling distance must be positive, got %f", c.SamplingDistance)
	}
	if c.Workers < 1 {
		return fmt.Errorf("workers must be at least 1")
	}
	return nil
}
