package sim

import (
	"fmt"
	"log/slog"

	"trenchsim/config"
	"trenchsim/physics"
	"trenchsim/telemetry"
)

// State identifies where the stepper is in its run.
type State int

const (
	// WarmingUp covers the first frames, which are excluded from the
	// recorded series while the seeded geometry settles.
	WarmingUp State = iota
	// Recording appends a snapshot of the live cells every frame.
	Recording
	// Finalizing is terminal: results are persisted and Tick becomes a no-op.
	Finalizing
)

// warmUpFrames is the number of initial frames excluded from the series.
const warmUpFrames = 2

// Stepper advances the simulation one discrete frame per Tick and owns the
// recorded time series. The physics space is mutated only here during a
// tick; there is no concurrent access.
type Stepper struct {
	cfg    *config.Config
	sp     *physics.Space
	pop    *Population
	out    *telemetry.OutputManager
	series *telemetry.Series

	frame int
	yMin  float64
	yMax  float64
	done  bool
}

// NewStepper wires a stepper over an already built world and seeded
// population.
func NewStepper(cfg *config.Config, sp *physics.Space, pop *Population, out *telemetry.OutputManager) *Stepper {
	return &Stepper{
		cfg:    cfg,
		sp:     sp,
		pop:    pop,
		out:    out,
		series: &telemetry.Series{},
		yMin:   cfg.Trench.OriginY,
		yMax:   cfg.Trench.OriginY + cfg.Derived.TrenchLength,
	}
}

// State reports the stepper's current phase.
func (s *Stepper) State() State {
	switch {
	case s.done:
		return Finalizing
	case s.frame < warmUpFrames:
		return WarmingUp
	default:
		return Recording
	}
}

// Done reports whether the run has finished and been persisted.
func (s *Stepper) Done() bool {
	return s.done
}

// Frame reports the current frame counter.
func (s *Stepper) Frame() int {
	return s.frame
}

// Series returns the recorded time series.
func (s *Stepper) Series() *telemetry.Series {
	return s.series
}

// Tick runs one full simulation frame. Each phase completes before the next
// begins; the ordering is load-bearing and must not be rearranged. Tick is a
// no-op once the run has finalized.
func (s *Stepper) Tick() error {
	if s.done {
		return nil
	}
	dt := s.cfg.Physics.DT

	// World-level bounds check on the raw bodies, independent from the
	// logical cell check below. Candidates are collected from a snapshot,
	// then each removal is followed by a single step so the remaining
	// stack re-packs between removals. Not batched on purpose.
	var escaped []physics.Pair
	for _, pr := range s.sp.Pairs() {
		if y := pr.Body.Position().Y; y < s.yMin || y > s.yMax {
			escaped = append(escaped, pr)
		}
	}
	for _, pr := range escaped {
		s.sp.Remove(pr.Body, pr.Shape)
		s.sp.Step(dt)
	}

	// Logical removals against the cell list.
	s.pop.PurgeOutOfBounds(s.sp, s.yMin, s.yMax, dt)
	s.pop.ApplyLysis(s.sp, dt)

	// Rebuild the world's dynamic set from the authoritative live list.
	s.sp.WipeDynamic()
	s.pop.SynchronizeWorld(s.sp)

	// Main collision-resolution loop.
	for i := 0; i < s.cfg.Physics.Iters; i++ {
		s.sp.Step(dt)
	}

	s.pop.SyncPositions()

	if s.frame >= warmUpFrames {
		cells := s.pop.SnapshotLive()
		// Recorded frames are numbered from the end of the warm-up, and the
		// stamp has to land before the rows stream out to the CSV.
		for i := range cells {
			cells[i].Frame = s.frame - warmUpFrames
		}
		s.series.Append(s.frame, cells)
		if err := s.out.WriteFrame(cells); err != nil {
			return fmt.Errorf("frame %d: %w", s.frame, err)
		}
	}

	if s.frame == s.cfg.Sim.Frames-1 {
		if err := s.finalize(); err != nil {
			return fmt.Errorf("finalizing: %w", err)
		}
		s.done = true
		return nil
	}
	s.frame++
	return nil
}

// finalize stamps the series, persists all run artifacts, and logs the
// summary.
func (s *Stepper) finalize() error {
	s.series.StampFrames()

	historic := s.pop.SnapshotHistoric()
	sum := telemetry.Summarize(s.series, historic)

	if err := s.out.WriteSeries(s.series); err != nil {
		return err
	}
	if err := s.out.WriteWorld(s.worldSnapshot()); err != nil {
		return err
	}
	if err := s.out.WriteHistoric(historic); err != nil {
		return err
	}
	if err := s.out.WriteSummary(sum); err != nil {
		return err
	}
	if err := s.out.WriteConfig(s.cfg); err != nil {
		return err
	}
	if err := s.out.Close(); err != nil {
		return err
	}

	slog.Info("run finalized",
		"frames_recorded", sum.FramesRecorded,
		"final_cells", sum.FinalCells,
		"peak_cells", sum.PeakCells,
		"total_cells", sum.TotalCells,
		"divisions", sum.Divisions,
		"mean_length", sum.MeanLength,
	)
	return nil
}

// worldSnapshot captures the final space: static trench segments plus the
// pose and dimensions of every live cell's body.
func (s *Stepper) worldSnapshot() *telemetry.WorldSnapshot {
	w := &telemetry.WorldSnapshot{
		Gravity:       s.sp.Gravity(),
		CollisionSlop: s.sp.CollisionSlop(),
	}
	for _, seg := range s.sp.StaticSegments() {
		w.Static = append(w.Static, telemetry.SegmentState{
			AX: seg.A.X, AY: seg.A.Y,
			BX: seg.B.X, BY: seg.B.Y,
			Radius: seg.Radius,
		})
	}
	for _, c := range s.pop.Live {
		w.Bodies = append(w.Bodies, telemetry.BodyState{
			Label:  c.Label,
			X:      c.X,
			Y:      c.Y,
			Angle:  c.Angle,
			Length: c.Length,
			Width:  c.Width,
		})
	}
	return w
}
