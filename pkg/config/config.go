// Package config provides configuration loading and management for the
// registration pipeline. It handles loading configuration from YAML files
// and provides the reference default values.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"regflow/pkg/integrator"
	"regflow/pkg/smoother"
)

// Config represents the pipeline configuration loaded from YAML.
type Config struct {
	// Registration parameters drive the outer optimization loop.
	Registration struct {
		// Iterations is the number of gradient steps.
		Iterations int `yaml:"iterations"`

		// StepSize scales the velocity update per iteration.
		StepSize float64 `yaml:"step_size"`

		// SimilarityWeight weights the image match term of the energy.
		SimilarityWeight float64 `yaml:"similarity_weight"`
	} `yaml:"registration"`

	// Regularizer parametrizes the smoothness penalty.
	Regularizer struct {
		// Type names the regularizer; only "helmholtz" is known.
		Type string `yaml:"type"`

		// Alpha is the second-derivative penalty weight.
		Alpha float64 `yaml:"alpha"`

		// Gamma is the magnitude penalty weight.
		Gamma float64 `yaml:"gamma"`
	} `yaml:"regularizer"`

	// Smoother selects and parametrizes the velocity smoothing operator.
	Smoother smoother.Config `yaml:"smoother"`

	// Integrator configures the Runge-Kutta time stepping.
	Integrator integrator.Config `yaml:"integrator"`

	// Output parameters.
	Output struct {
		// Verbose controls per-iteration energy logging.
		Verbose bool `yaml:"verbose"`

		// SaveIntermediaryResults determines whether per-iteration
		// snapshots are written during the optimization.
		SaveIntermediaryResults bool `yaml:"save_intermediary_results"`

		// IntermediaryDir is the directory snapshots are written to.
		IntermediaryDir string `yaml:"intermediary_dir"`
	} `yaml:"output"`
}

// DefaultConfig returns a configuration with the reference default values.
func DefaultConfig() *Config {
	cfg := &Config{}

	cfg.Registration.Iterations = 50
	cfg.Registration.StepSize = 0.25
	cfg.Registration.SimilarityWeight = 1.0

	cfg.Regularizer.Type = "helmholtz"
	cfg.Regularizer.Alpha = 0.2
	cfg.Regularizer.Gamma = 1.0

	cfg.Smoother = smoother.DefaultConfig()
	cfg.Integrator = integrator.DefaultConfig()

	cfg.Output.Verbose = true
	cfg.Output.SaveIntermediaryResults = false
	cfg.Output.IntermediaryDir = "intermediary_results"

	return cfg
}

// LoadConfig loads configuration from a YAML file.
// If the file doesn't exist, it returns the default configuration.
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

// SaveConfig saves the configuration to a YAML file.
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

// CreateDefaultConfigFile creates a default configuration file at the
// specified path.
func CreateDefaultConfigFile(configPath string) error {
	return SaveConfig(DefaultConfig(), configPath)
}
