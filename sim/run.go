package sim

import (
	"fmt"
	"log/slog"

	"github.com/jakecoffman/cp"

	"trenchsim/config"
	"trenchsim/physics"
	"trenchsim/telemetry"
)

// Options holds per-run settings that are not part of the configuration
// file.
type Options struct {
	Seed      uint64
	OutputDir string
}

// Runner builds the world, seeds the colony, and drives the stepper either
// in a tight headless loop or one Tick per external timer callback.
type Runner struct {
	cfg *config.Config
	sp  *physics.Space
	pop *Population
	st  *Stepper
}

// NewRunner constructs the scaled trench world, seeds the initial cell, and
// wires the output manager.
func NewRunner(cfg *config.Config, opts Options) (*Runner, error) {
	if cfg.Sim.Frames < 1 {
		return nil, fmt.Errorf("sim.frames must be at least 1, got %d", cfg.Sim.Frames)
	}
	sp := physics.NewSpace(cfg.Physics.Gravity, cfg.Physics.CollisionSlop)
	d := cfg.Derived
	physics.BuildTrench(d.TrenchWidth, d.TrenchLength,
		cp.Vector{X: cfg.Trench.OriginX, Y: cfg.Trench.OriginY}, sp)

	pop := NewPopulation(cfg, opts.Seed)
	seed := pop.SeedCell(cfg)
	slog.Info("seeded cell",
		"label", seed.Label,
		"length", seed.Length,
		"x", seed.X,
		"y", seed.Y,
	)

	out, err := telemetry.NewOutputManager(opts.OutputDir)
	if err != nil {
		return nil, fmt.Errorf("output manager: %w", err)
	}

	return &Runner{
		cfg: cfg,
		sp:  sp,
		pop: pop,
		st:  NewStepper(cfg, sp, pop, out),
	}, nil
}

// Tick advances the simulation by one frame. Used by the interactive driver,
// which calls it once per timer tick.
func (r *Runner) Tick() error {
	return r.st.Tick()
}

// Done reports whether the run has finished.
func (r *Runner) Done() bool {
	return r.st.Done()
}

// Frame reports the current frame counter.
func (r *Runner) Frame() int {
	return r.st.Frame()
}

// RunHeadless drives the stepper in a tight synchronous loop until the run
// finalizes.
func (r *Runner) RunHeadless() error {
	for !r.st.Done() {
		if err := r.st.Tick(); err != nil {
			return err
		}
	}
	return nil
}

// Series returns the recorded time series.
func (r *Runner) Series() *telemetry.Series {
	return r.st.Series()
}

// Historic returns value copies of every cell ever created.
func (r *Runner) Historic() *telemetry.HistoricRecord {
	return r.pop.SnapshotHistoric()
}

// LiveStates returns value copies of the current live cells, for drawing.
func (r *Runner) LiveStates() []telemetry.CellState {
	return r.pop.SnapshotLive()
}

// StaticSegments exposes the trench geometry, for drawing.
func (r *Runner) StaticSegments() []physics.SegmentDef {
	return r.sp.StaticSegments()
}
