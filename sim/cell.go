// Package sim implements the bacterial growth simulation: cell entities,
// the population manager, the per-frame stepper, and the run controller.
package sim

import (
	"math"

	"github.com/jakecoffman/cp"

	"trenchsim/telemetry"
)

const cellFriction = 0.4

// Cell is one bacterium: its geometry, growth state, lineage links, and the
// handle to its current rigid-body representation. The mask label is a
// stable identity used for tracking across frames; it never changes once
// assigned.
type Cell struct {
	Label  int
	Length float64
	Width  float64
	X      float64
	Y      float64
	Angle  float64

	GrowthRate float64
	MaxLength  float64 // division threshold, sampled once at creation

	MaxLengthMean float64
	MaxLengthVar  float64
	WidthMean     float64
	WidthVar      float64
	LysisP        float64

	Generation int
	Divisions  int
	Alive      bool

	// Lineage only; neither reference implies ownership.
	Mother   *Cell
	Daughter *Cell

	dt    float64
	body  *cp.Body
	shape *cp.Shape
}

// DaughterConfig is the descriptor for a cell to be spawned by a division:
// pose adjacent to the mother's tail plus independently resampled geometry
// targets.
type DaughterConfig struct {
	Length    float64
	Width     float64
	X         float64
	Y         float64
	Angle     float64
	MaxLength float64
}

// MaterializeResult reports the rebuilt body/shape for a cell and, only when
// a division occurred, the descriptor for the daughter to spawn. The two
// outcomes are distinguished by the Daughter field being nil or not, never
// by structural arity.
type MaterializeResult struct {
	Body     *cp.Body
	Shape    *cp.Shape
	Daughter *DaughterConfig
}

// UpdateLength advances the cell's length by one timestep of first-order
// exponential growth. Length never decreases here; it only resets on
// division.
func (c *Cell) UpdateLength() {
	c.Length += c.GrowthRate * c.dt * c.Length
}

// DividingReady reports whether the cell has reached its sampled division
// threshold.
func (c *Cell) DividingReady() bool {
	return c.Length >= c.MaxLength
}

// Materialize rebuilds the cell's physics body and shape from its current
// geometry. If the cell is division-ready, its length is first halved and a
// daughter descriptor is produced: the mother keeps the head half, the
// daughter takes the tail half, both centered where the corresponding half
// of the old rod was.
func (c *Cell) Materialize(s *Sampler) MaterializeResult {
	var daughter *DaughterConfig
	if c.DividingReady() {
		motherLen := c.Length / 2
		daughterLen := c.Length - motherLen
		c.Length = motherLen

		// Offset each half's center by a quarter of the old length along
		// the rod axis.
		off := motherLen / 2
		dx := math.Cos(c.Angle) * off
		dy := math.Sin(c.Angle) * off
		daughter = &DaughterConfig{
			Length:    daughterLen,
			Width:     s.Width(),
			X:         c.X - dx,
			Y:         c.Y - dy,
			Angle:     c.Angle,
			MaxLength: s.MaxLength(),
		}
		c.X += dx
		c.Y += dy
		c.Divisions++
	}

	c.body, c.shape = c.buildBody()
	return MaterializeResult{Body: c.body, Shape: c.shape, Daughter: daughter}
}

// buildBody constructs a fresh rounded-box body/shape pair for the current
// geometry. Density is uniform, so mass tracks the rod's area.
func (c *Cell) buildBody() (*cp.Body, *cp.Shape) {
	mass := c.Length * c.Width
	body := cp.NewBody(mass, cp.MomentForBox(mass, c.Length, c.Width))
	body.SetPosition(cp.Vector{X: c.X, Y: c.Y})
	body.SetAngle(c.Angle)

	shape := cp.NewBox(body, c.Length, c.Width, c.Width/4)
	shape.SetFriction(cellFriction)
	shape.SetElasticity(0)
	return body, shape
}

// SyncFromBody copies the physics body's pose back into the cell attributes.
func (c *Cell) SyncFromBody() {
	if c.body == nil {
		return
	}
	pos := c.body.Position()
	c.X = pos.X
	c.Y = pos.Y
	c.Angle = c.body.Angle()
}

// Body returns the cell's current physics body, or nil before the first
// materialization.
func (c *Cell) Body() *cp.Body {
	return c.body
}

// Shape returns the cell's current collision shape.
func (c *Cell) Shape() *cp.Shape {
	return c.shape
}

// BodyY reports the y coordinate of the cell's physics body, falling back to
// the logical position before the first materialization.
func (c *Cell) BodyY() float64 {
	if c.body == nil {
		return c.Y
	}
	return c.body.Position().Y
}

// Snapshot produces a value copy of the cell's attributes with lineage
// expressed as labels.
func (c *Cell) Snapshot() telemetry.CellState {
	cs := telemetry.CellState{
		Label:      c.Label,
		Length:     c.Length,
		Width:      c.Width,
		X:          c.X,
		Y:          c.Y,
		Angle:      c.Angle,
		MaxLength:  c.MaxLength,
		GrowthRate: c.GrowthRate,
		LysisP:     c.LysisP,
		Generation: c.Generation,
		Divisions:  c.Divisions,
		Alive:      c.Alive,
	}
	if c.Mother != nil {
		cs.MotherLabel = c.Mother.Label
	}
	if c.Daughter != nil {
		cs.DaughterLabel = c.Daughter.Label
	}
	return cs
}
