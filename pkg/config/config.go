// Package config provides configuration loading and management for floodseg.
// It handles loading configuration from YAML files and provides default values.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration loaded from YAML
type Config struct {
	// Tiling parameters shared by dataset preparation and inference
	Tiling struct {
		// TileSize is the square tile edge in pixels
		TileSize int `yaml:"tileSize"`

		// Overlap is the shared pixel band between adjacent tiles
		Overlap int `yaml:"overlap"`
	} `yaml:"tiling"`

	// Model collaborator parameters
	Model struct {
		// InputSize is the fixed spatial input size the model expects;
		// boundary tiles are reflection-padded up to it
		InputSize int `yaml:"inputSize"`

		// Bands is the channel count the model expects
		Bands int `yaml:"bands"`

		// GreenBand and NIRBand are the zero-based band indices the
		// built-in NDWI predictor reads
		GreenBand int `yaml:"greenBand"`
		NIRBand   int `yaml:"nirBand"`
	} `yaml:"model"`

	// Stitch parameters
	Stitch struct {
		// Policy resolves overlapping predictions: last, max or mean
		Policy string `yaml:"policy"`

		// Threshold binarizes the stitched confidence canvas
		Threshold float64 `yaml:"threshold"`
	} `yaml:"stitch"`

	// Processing parameters
	Processing struct {
		// Workers is the number of parallel tile workers
		Workers int `yaml:"workers"`
	} `yaml:"processing"`

	// Catalog parameters
	Catalog struct {
		// Path is the sqlite tile catalog location; empty disables it
		Path string `yaml:"path"`
	} `yaml:"catalog"`
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	cfg := &Config{}

	// Tiling defaults match the Sentinel-2A preparation the datasets
	// were built with
	cfg.Tiling.TileSize = 256
	cfg.Tiling.Overlap = 32

	// Model defaults: 10-band Sentinel-2A stack, green=B3, NIR=B8
	cfg.Model.InputSize = 256
	cfg.Model.Bands = 10
	cfg.Model.GreenBand = 1
	cfg.Model.NIRBand = 6

	cfg.Stitch.Policy = "last"
	cfg.Stitch.Threshold = 0.5

	cfg.Processing.Workers = runtime.NumCPU()

	cfg.Catalog.Path = "tiles.db"

	return cfg
}

// LoadConfig loads configuration from a YAML file
// If the file doesn't exist, it returns the default configuration
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return cfg, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	return cfg, nil
}

// SaveConfig saves the configuration to a YAML file
func SaveConfig(cfg *Config, configPath string) error {
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("error marshaling config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("error writing config file: %w", err)
	}

	return nil
}
