// Package physics wraps the Chipmunk rigid-body engine behind the narrow
// surface the simulation needs: dynamic body/shape registration, idempotent
// removal, snapshot enumeration, and discrete stepping.
package physics

import "github.com/jakecoffman/cp"

// Pair is one dynamic body together with its single collision shape.
type Pair struct {
	Body  *cp.Body
	Shape *cp.Shape
}

// SegmentDef describes one static segment shape in the space.
type SegmentDef struct {
	A      cp.Vector
	B      cp.Vector
	Radius float64
}

// Space owns a cp.Space plus a registry of the dynamic pairs it holds.
// The registry is what makes removal idempotent and enumeration a stable
// snapshot while the underlying space is being mutated.
type Space struct {
	sp      *cp.Space
	gravity float64
	slop    float64
	pairs   []Pair
	present map[*cp.Body]bool
	statics []SegmentDef
}

// NewSpace creates an empty space with the given gravity (negative pulls
// toward the trench pole) and collision slop.
func NewSpace(gravity, collisionSlop float64) *Space {
	sp := cp.NewSpace()
	sp.SetGravity(cp.Vector{X: 0, Y: gravity})
	sp.SetCollisionSlop(collisionSlop)
	return &Space{
		sp:      sp,
		gravity: gravity,
		slop:    collisionSlop,
		present: make(map[*cp.Body]bool),
	}
}

// Add registers a dynamic pair with the space. Adding a pair that is already
// present is a no-op.
func (s *Space) Add(body *cp.Body, shape *cp.Shape) {
	if s.present[body] {
		return
	}
	s.sp.AddBody(body)
	s.sp.AddShape(shape)
	s.pairs = append(s.pairs, Pair{Body: body, Shape: shape})
	s.present[body] = true
}

// Remove takes a dynamic pair out of the space. Removing a pair that was
// never added, or was already removed, is a silent no-op.
func (s *Space) Remove(body *cp.Body, shape *cp.Shape) {
	if !s.present[body] {
		return
	}
	s.sp.RemoveShape(shape)
	s.sp.RemoveBody(body)
	delete(s.present, body)
	for i, p := range s.pairs {
		if p.Body == body {
			s.pairs = append(s.pairs[:i], s.pairs[i+1:]...)
			break
		}
	}
}

// Pairs returns a snapshot of the dynamic pairs currently in the space, in
// registration order. Mutating the space afterwards does not affect a
// snapshot already returned.
func (s *Space) Pairs() []Pair {
	out := make([]Pair, len(s.pairs))
	copy(out, s.pairs)
	return out
}

// WipeDynamic removes every dynamic pair, leaving static geometry in place.
func (s *Space) WipeDynamic() {
	for _, p := range s.Pairs() {
		s.Remove(p.Body, p.Shape)
	}
}

// Step advances all dynamics by dt.
func (s *Space) Step(dt float64) {
	s.sp.Step(dt)
}

// AddStaticSegment attaches a segment shape to the space's static body and
// records its definition for later serialization.
func (s *Space) AddStaticSegment(a, b cp.Vector, radius, friction float64) {
	seg := cp.NewSegment(s.sp.StaticBody, a, b, radius)
	seg.SetFriction(friction)
	seg.SetElasticity(0)
	s.sp.AddShape(seg)
	s.statics = append(s.statics, SegmentDef{A: a, B: b, Radius: radius})
}

// StaticSegments returns the definitions of all static segments added so far.
func (s *Space) StaticSegments() []SegmentDef {
	out := make([]SegmentDef, len(s.statics))
	copy(out, s.statics)
	return out
}

// DynamicCount reports how many dynamic pairs the space currently holds.
func (s *Space) DynamicCount() int {
	return len(s.pairs)
}

// Gravity returns the configured gravity magnitude.
func (s *Space) Gravity() float64 {
	return s.gravity
}

// CollisionSlop returns the configured collision slop.
func (s *Space) CollisionSlop() float64 {
	return s.slop
}
