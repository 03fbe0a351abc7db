package main

import (
	"flag"
	"log/slog"
	"os"
	"time"

	"trenchsim/config"
	"trenchsim/display"
	"trenchsim/sim"
)

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	headless := flag.Bool("headless", false, "Run without graphics")
	outputDir := flag.String("output-dir", "", "Output directory for run artifacts")
	seed := flag.Int64("seed", 0, "RNG seed (0 = time-based)")
	frames := flag.Int("frames", 0, "Override simulation length in frames (0 = use config)")

	flag.Parse()

	// Initialize config before anything else
	if err := config.Init(*configPath); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg := config.Cfg()
	if *frames > 0 {
		cfg.Sim.Frames = *frames
	}

	// Set up seed
	rngSeed := *seed
	if rngSeed == 0 {
		rngSeed = time.Now().UnixNano()
	}

	// Set up slog (JSON to stdout for structured logging)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	r, err := sim.NewRunner(cfg, sim.Options{
		Seed:      uint64(rngSeed),
		OutputDir: *outputDir,
	})
	if err != nil {
		slog.Error("failed to build simulation", "error", err)
		os.Exit(1)
	}

	if *headless || !cfg.Display.Enabled {
		slog.Info("starting headless simulation",
			"seed", rngSeed,
			"frames", cfg.Sim.Frames,
			"output_dir", *outputDir,
		)
		if err := r.RunHeadless(); err != nil {
			slog.Error("simulation failed", "error", err)
			os.Exit(1)
		}
	} else {
		slog.Info("starting interactive simulation",
			"seed", rngSeed,
			"frames", cfg.Sim.Frames,
		)
		if err := display.Run(cfg, r); err != nil {
			slog.Error("simulation failed", "error", err)
			os.Exit(1)
		}
	}

	slog.Info("simulation complete",
		"frames_recorded", r.Series().Len(),
		"cells_total", r.Historic().Len(),
	)
}
