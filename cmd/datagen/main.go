package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/vanshika/circuitcycle/backend/internal/generator"
)

func main() {
	cfg := generator.DefaultConfig()
	var (
		bins          = flag.Int("bins", cfg.NumBins, "number of bins to generate")
		neighborhoods = flag.Int("neighborhoods", cfg.NumNeighborhoods, "number of leaderboard neighborhoods")
		lat           = flag.Float64("lat", cfg.CenterLat, "latitude of the fleet center")
		lng           = flag.Float64("lng", cfg.CenterLng, "longitude of the fleet center")
		spread        = flag.Float64("spread", cfg.Spread, "maximum offset in degrees from the center")
		maintenance   = flag.Float64("maintenance-chance", cfg.MaintenanceChance, "probability a bin is under maintenance")
		seed          = flag.Int64("seed", cfg.Seed, "random seed for deterministic generation")
		output        = flag.String("output", "data/seed.yaml", "path of the YAML fixture to write")
		writeStdout   = flag.Bool("stdout", false, "write the fixture to stdout instead of a file")
	)
	flag.Parse()

	genCfg := generator.Config{
		NumBins:            *bins,
		NumNeighborhoods:   *neighborhoods,
		CenterLat:          *lat,
		CenterLng:          *lng,
		Spread:             *spread,
		MaintenanceChance:  clampProbability(*maintenance),
		CollectedWithinHrs: cfg.CollectedWithinHrs,
		Seed:               *seed,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	fixture, err := generator.New(genCfg).Generate(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "generation failed: %v\n", err)
		os.Exit(1)
	}

	if *writeStdout {
		if err := generator.EncodeFixture(fixture, os.Stdout); err != nil {
			fmt.Fprintf(os.Stderr, "failed to write fixture to stdout: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if err := generator.WriteFixture(fixture, *output); err != nil {
		fmt.Fprintf(os.Stderr, "failed to write fixture: %v\n", err)
		os.Exit(1)
	}

	fmt.Fprintf(os.Stdout, "Generated %d bins and %d neighborhoods into %s\n", len(fixture.Bins), len(fixture.Leaderboard), *output)
}

func clampProbability(value float64) float64 {
	if value < 0 {
		return 0
	}
	if value > 1 {
		return 1
	}
	return value
}
