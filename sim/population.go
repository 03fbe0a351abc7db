package sim

import (
	"log/slog"

	"trenchsim/config"
	"trenchsim/physics"
	"trenchsim/telemetry"
)

// Population owns the authoritative list of live cells, the append-only
// historic record of every cell ever created, and the mask-label counter.
// The physics world tracks bodies separately; SynchronizeWorld restores the
// 1:1 mapping between the two every frame.
type Population struct {
	Live     []*Cell
	Historic []*Cell

	sampler     *Sampler
	nextLabel   int
	settleIters int
	settleDT    float64
}

// NewPopulation creates an empty population with a seeded sampler.
func NewPopulation(cfg *config.Config, seed uint64) *Population {
	return &Population{
		sampler:     NewSampler(cfg, seed),
		nextLabel:   1,
		settleIters: cfg.Physics.SettleIters,
		settleDT:    cfg.Physics.SettleDT,
	}
}

// SeedCell creates the generation-0 cell at the configured pose, starting at
// half its division length. The seed takes mask label 1.
func (p *Population) SeedCell(cfg *config.Config) *Cell {
	d := cfg.Derived
	c := &Cell{
		Label:         p.nextLabel,
		Length:        d.MaxLength * 0.5,
		Width:         d.Width,
		X:             cfg.Cell.SeedX,
		Y:             cfg.Cell.SeedY,
		Angle:         cfg.Cell.SeedAngle,
		GrowthRate:    cfg.Cell.GrowthRate,
		MaxLength:     d.MaxLength,
		MaxLengthMean: d.MaxLength,
		MaxLengthVar:  d.MaxLengthVar,
		WidthMean:     d.Width,
		WidthVar:      d.WidthVar,
		LysisP:        cfg.Cell.LysisP,
		Generation:    0,
		Alive:         true,
		dt:            cfg.Physics.DT,
	}
	p.nextLabel++
	p.Live = append(p.Live, c)
	p.Historic = append(p.Historic, c)
	return c
}

// SynchronizeWorld grows every live cell, spawns daughters for the
// division-ready ones, and re-registers each cell's body/shape with the
// space. After each registration the settle pass runs: a deliberate
// over-relaxation at a fine sub-interval that resolves the overlaps growth
// and division just introduced, before the main per-frame physics loop.
//
// Iteration walks a snapshot of the live list; daughters appended mid-pass
// are registered immediately but not themselves grown until the next frame.
func (p *Population) SynchronizeWorld(sp *physics.Space) {
	current := append([]*Cell(nil), p.Live...)
	for _, c := range current {
		c.UpdateLength()
		res := c.Materialize(p.sampler)
		sp.Add(res.Body, res.Shape)

		if res.Daughter != nil {
			d := p.spawnDaughter(c, res.Daughter)
			dres := d.Materialize(p.sampler)
			sp.Add(dres.Body, dres.Shape)
			slog.Debug("division",
				"mother", c.Label,
				"daughter", d.Label,
				"generation", d.Generation,
			)
		}

		for i := 0; i < p.settleIters; i++ {
			sp.Step(p.settleDT)
		}
	}
}

// spawnDaughter builds a new cell from a division descriptor, links the
// lineage in both directions, and records it in the live list and historic
// record.
func (p *Population) spawnDaughter(mother *Cell, cfg *DaughterConfig) *Cell {
	d := &Cell{
		Label:         p.nextLabel,
		Length:        cfg.Length,
		Width:         cfg.Width,
		X:             cfg.X,
		Y:             cfg.Y,
		Angle:         cfg.Angle,
		GrowthRate:    mother.GrowthRate,
		MaxLength:     cfg.MaxLength,
		MaxLengthMean: mother.MaxLengthMean,
		MaxLengthVar:  mother.MaxLengthVar,
		WidthMean:     mother.WidthMean,
		WidthVar:      mother.WidthVar,
		LysisP:        mother.LysisP,
		Generation:    mother.Generation + 1,
		Alive:         true,
		Mother:        mother,
		dt:            mother.dt,
	}
	p.nextLabel++
	mother.Daughter = d
	p.Live = append(p.Live, d)
	p.Historic = append(p.Historic, d)
	return d
}

// PurgeOutOfBounds removes cells whose body has left [yMin, yMax]. The scan
// collects candidates first and removals happen after, because removing
// in-place while iterating the live list skips or double-processes entries.
func (p *Population) PurgeOutOfBounds(sp *physics.Space, yMin, yMax, dt float64) int {
	var doomed []*Cell
	for _, c := range p.Live {
		if y := c.BodyY(); y < yMin || y > yMax {
			doomed = append(doomed, c)
		}
	}
	return p.removeCells(doomed, sp, dt, "out_of_bounds")
}

// ApplyLysis runs one stochastic lysis trial per live cell and removes the
// ones that trigger. Same collect-then-apply discipline as the bounds purge.
// Trials are skipped entirely when only one cell remains.
func (p *Population) ApplyLysis(sp *physics.Space, dt float64) int {
	var doomed []*Cell
	for _, c := range p.Live {
		if len(p.Live) > 1 && p.sampler.LysisTrial(c.LysisP) {
			doomed = append(doomed, c)
		}
	}
	return p.removeCells(doomed, sp, dt, "lysis")
}

// removeCells applies a collected removal set: unlink from the live list,
// mark dead, drop from the space, and interleave one settling step per
// removal so the remaining stack re-packs between removals. A removal that
// would empty the simulation is suppressed.
func (p *Population) removeCells(doomed []*Cell, sp *physics.Space, dt float64, cause string) int {
	removed := 0
	for _, c := range doomed {
		if len(p.Live) <= 1 {
			break
		}
		if !p.unlink(c) {
			continue
		}
		c.Alive = false
		sp.Remove(c.Body(), c.Shape())
		sp.Step(dt)
		removed++
		slog.Debug("cell removed", "label", c.Label, "cause", cause)
	}
	return removed
}

// unlink splices a cell out of the live list. Reports false if the cell was
// already gone.
func (p *Population) unlink(c *Cell) bool {
	for i, lc := range p.Live {
		if lc == c {
			p.Live = append(p.Live[:i], p.Live[i+1:]...)
			return true
		}
	}
	return false
}

// SyncPositions copies every live cell's pose back from its physics body.
func (p *Population) SyncPositions() {
	for _, c := range p.Live {
		c.SyncFromBody()
	}
}

// SnapshotLive returns value copies of all live cells, in list order.
func (p *Population) SnapshotLive() []telemetry.CellState {
	out := make([]telemetry.CellState, len(p.Live))
	for i, c := range p.Live {
		out[i] = c.Snapshot()
	}
	return out
}

// SnapshotHistoric returns value copies of every cell ever created.
func (p *Population) SnapshotHistoric() *telemetry.HistoricRecord {
	h := &telemetry.HistoricRecord{}
	for _, c := range p.Historic {
		h.Append(c.Snapshot())
	}
	return h
}

// TotalCreated reports how many cells have ever existed.
func (p *Population) TotalCreated() int {
	return len(p.Historic)
}
