package physics

import "github.com/jakecoffman/cp"

const (
	wallRadius   = 0.5
	wallFriction = 0.6
)

// BuildTrench populates the static channel geometry: two side walls and a
// bottom cap, with the trench opening facing +y. The origin is the
// bottom-left corner; width and length are in world units.
func BuildTrench(width, length float64, origin cp.Vector, sp *Space) {
	bl := origin
	br := cp.Vector{X: origin.X + width, Y: origin.Y}
	tl := cp.Vector{X: origin.X, Y: origin.Y + length}
	tr := cp.Vector{X: origin.X + width, Y: origin.Y + length}

	sp.AddStaticSegment(bl, tl, wallRadius, wallFriction)
	sp.AddStaticSegment(br, tr, wallRadius, wallFriction)
	sp.AddStaticSegment(bl, br, wallRadius, wallFriction)
}
