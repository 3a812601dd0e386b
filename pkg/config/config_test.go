package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Registration.Iterations != 50 {
		t.Errorf("Iterations = %d, want 50", cfg.Registration.Iterations)
	}
	if cfg.Regularizer.Type != "helmholtz" {
		t.Errorf("Regularizer.Type = %q, want helmholtz", cfg.Regularizer.Type)
	}
	if cfg.Regularizer.Alpha != 0.2 || cfg.Regularizer.Gamma != 1.0 {
		t.Errorf("regularizer weights = (%g, %g), want (0.2, 1.0)",
			cfg.Regularizer.Alpha, cfg.Regularizer.Gamma)
	}
	if cfg.Smoother.Type != "gaussian" {
		t.Errorf("Smoother.Type = %q, want gaussian", cfg.Smoother.Type)
	}
	if cfg.Smoother.GaussianStd != 0.15 {
		t.Errorf("Smoother.GaussianStd = %g, want 0.15", cfg.Smoother.GaussianStd)
	}
	if cfg.Integrator.NumberOfTimeSteps != 10 {
		t.Errorf("NumberOfTimeSteps = %d, want 10", cfg.Integrator.NumberOfTimeSteps)
	}
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Registration.Iterations != 50 {
		t.Errorf("missing file should yield defaults, got %d iterations", cfg.Registration.Iterations)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := DefaultConfig()
	cfg.Registration.Iterations = 7
	cfg.Registration.StepSize = 0.05
	cfg.Smoother.Type = "diffusion"
	cfg.Smoother.Iter = 3
	cfg.Integrator.NumberOfTimeSteps = 20
	cfg.Output.Verbose = false

	if err := SaveConfig(cfg, path); err != nil {
		t.Fatalf("SaveConfig failed: %v", err)
	}
	loaded, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if loaded.Registration.Iterations != 7 {
		t.Errorf("Iterations = %d, want 7", loaded.Registration.Iterations)
	}
	if loaded.Registration.StepSize != 0.05 {
		t.Errorf("StepSize = %g, want 0.05", loaded.Registration.StepSize)
	}
	if loaded.Smoother.Type != "diffusion" || loaded.Smoother.Iter != 3 {
		t.Errorf("smoother = %+v, want diffusion with 3 iterations", loaded.Smoother)
	}
	if loaded.Integrator.NumberOfTimeSteps != 20 {
		t.Errorf("NumberOfTimeSteps = %d, want 20", loaded.Integrator.NumberOfTimeSteps)
	}
	if loaded.Output.Verbose {
		t.Error("Verbose should have round-tripped as false")
	}
}

func TestPartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "partial.yaml")
	data := []byte("registration:\n  iterations: 3\n")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Registration.Iterations != 3 {
		t.Errorf("Iterations = %d, want 3", cfg.Registration.Iterations)
	}
	// untouched keys keep their defaults
	if cfg.Regularizer.Alpha != 0.2 {
		t.Errorf("Alpha = %g, want default 0.2", cfg.Regularizer.Alpha)
	}
	if cfg.Smoother.Type != "gaussian" {
		t.Errorf("Smoother.Type = %q, want default gaussian", cfg.Smoother.Type)
	}
}

// Every config key uses snake_case, matching the parameter names the
// numerical components document.
func TestSnakeCaseKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snake.yaml")
	data := []byte(`registration:
  step_size: 0.125
  similarity_weight: 2.0
smoother:
  type: gaussianSpatial
  k_sz_h: 3
  gaussian_std: 0.2
integrator:
  number_of_time_steps: 4
output:
  save_intermediary_results: true
  intermediary_dir: snaps
`)
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Registration.StepSize != 0.125 || cfg.Registration.SimilarityWeight != 2.0 {
		t.Errorf("registration keys did not bind: %+v", cfg.Registration)
	}
	if cfg.Smoother.KernelHalfWidth != 3 || cfg.Smoother.GaussianStd != 0.2 {
		t.Errorf("smoother keys did not bind: %+v", cfg.Smoother)
	}
	if cfg.Integrator.NumberOfTimeSteps != 4 {
		t.Errorf("integrator key did not bind: %+v", cfg.Integrator)
	}
	if !cfg.Output.SaveIntermediaryResults || cfg.Output.IntermediaryDir != "snaps" {
		t.Errorf("output keys did not bind: %+v", cfg.Output)
	}
}

func TestCreateDefaultConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "default.yaml")
	if err := CreateDefaultConfigFile(path); err != nil {
		t.Fatalf("CreateDefaultConfigFile failed: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("config file missing: %v", err)
	}
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Registration.StepSize != 0.25 {
		t.Errorf("StepSize = %g, want 0.25", cfg.Registration.StepSize)
	}
}
