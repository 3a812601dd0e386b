package main

import (
	"flag"
	"fmt"
	"log"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"regflow/internal/models"
	"regflow/pkg/config"
	"regflow/pkg/example"
	"regflow/pkg/registration"
	"regflow/pkg/visualization"
)

func main() {
	// Parse command line arguments
	configPath := flag.String("config", "", "Path to a YAML configuration file (optional)")
	size := flag.String("size", "64,64", "Comma-separated grid extents, e.g. 64,64 or 32,32,32")
	spacing := flag.Float64("spacing", 1.0, "Physical spacing between samples (same for all axes)")
	iterations := flag.Int("iterations", 0, "Override the number of optimization iterations")
	outputDir := flag.String("output-dir", "registration_results", "Directory to save result images")
	saveImages := flag.Bool("save-images", true, "Save source/target/warped/difference images (2D only)")
	flag.Parse()

	shape, err := parseShape(*size)
	if err != nil {
		log.Fatalf("Invalid -size: %v", err)
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if *iterations > 0 {
		cfg.Registration.Iterations = *iterations
	}

	fmt.Println("================================")
	fmt.Println("DEFORMABLE IMAGE REGISTRATION VIA STATIONARY VELOCITY FIELDS")
	fmt.Println("================================")
	fmt.Printf("Grid: %v, spacing: %g\n", shape, *spacing)
	fmt.Printf("Smoother: %s, regularizer: %s (alpha=%g gamma=%g), time steps: %d\n",
		cfg.Smoother.Type, cfg.Regularizer.Type,
		cfg.Regularizer.Alpha, cfg.Regularizer.Gamma,
		cfg.Integrator.NumberOfTimeSteps)

	// Create the synthetic squares pair
	source, target, err := example.Squares(shape, example.SquaresParams{})
	if err != nil {
		log.Fatalf("Failed to create example images: %v", err)
	}
	sp := make([]float64, len(shape))
	for d := range sp {
		sp[d] = *spacing
	}
	pair := models.ImagePair{Source: source, Target: target, Spacing: sp}

	optimizer, err := registration.New(pair, cfg)
	if err != nil {
		log.Fatalf("Failed to set up registration: %v", err)
	}

	fmt.Println("Starting registration...")
	startTime := time.Now()
	result, err := optimizer.Run()
	if err != nil {
		log.Fatalf("Registration failed: %v", err)
	}
	elapsed := time.Since(startTime)

	fmt.Printf("\nRegistration completed in %.2f seconds\n", elapsed.Seconds())
	if n := len(result.Energy); n > 0 {
		fmt.Printf("Energy: %.6f -> %.6f over %d iterations\n", result.Energy[0], result.Energy[n-1], n)
	}
	fmt.Printf("Final metrics:\n")
	fmt.Printf("  Sum of squared differences: %.6f\n", result.Metrics.SSD)
	fmt.Printf("  Root mean square error:     %.6f\n", result.Metrics.RMSE)
	fmt.Printf("  Correlation:                %.4f\n", result.Metrics.Correlation)

	if *saveImages && len(shape) == 2 {
		saves := []struct {
			name string
			err  error
		}{
			{"source.png", visualization.SaveImage(pair.Source, filepath.Join(*outputDir, "source.png"))},
			{"target.png", visualization.SaveImage(pair.Target, filepath.Join(*outputDir, "target.png"))},
			{"warped.png", visualization.SaveImage(result.Warped, filepath.Join(*outputDir, "warped.png"))},
			{"difference.png", visualization.SaveDifference(result.Warped, pair.Target, filepath.Join(*outputDir, "difference.png"))},
		}
		for _, s := range saves {
			if s.err != nil {
				log.Printf("Warning: failed to save %s: %v", s.name, s.err)
			}
		}
		fmt.Printf("\nResult images saved to: %s\n", *outputDir)
	}
}

// parseShape parses comma-separated grid extents.
func parseShape(s string) ([]int, error) {
	parts := strings.Split(s, ",")
	if len(parts) < 1 || len(parts) > 3 {
		return nil, fmt.Errorf("need 1 to 3 extents, got %d", len(parts))
	}
	shape := make([]int, len(parts))
	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, fmt.Errorf("extent %q: %w", p, err)
		}
		if n < 2 {
			return nil, fmt.Errorf("extent %d is too small", n)
		}
		shape[i] = n
	}
	return shape, nil
}
