package sim

import (
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"

	"trenchsim/config"
)

// Sampler draws the per-cell stochastic quantities from seeded normal
// distributions: division-length and width targets for new cells, and the
// standard-normal trials used for lysis.
type Sampler struct {
	maxLen distuv.Normal
	width  distuv.Normal
	unit   distuv.Normal
}

// NewSampler builds a sampler over the scaled geometry distributions from
// the config, using a single seeded source for reproducible runs.
func NewSampler(cfg *config.Config, seed uint64) *Sampler {
	src := rand.NewSource(seed)
	d := cfg.Derived
	return &Sampler{
		maxLen: distuv.Normal{Mu: d.MaxLength, Sigma: d.MaxLengthVar, Src: src},
		width:  distuv.Normal{Mu: d.Width, Sigma: d.WidthVar, Src: src},
		unit:   distuv.Normal{Mu: 0, Sigma: 1, Src: src},
	}
}

// MaxLength samples a division-length threshold for a new cell.
func (s *Sampler) MaxLength() float64 {
	return s.maxLen.Rand()
}

// Width samples a width for a new cell.
func (s *Sampler) Width() float64 {
	return s.width.Rand()
}

// LysisTrial runs one stochastic lysis decision: a standard-normal draw
// compared against the inverse-normal percentile of p. Triggers with
// probability p; p = 0 never triggers and p = 1 always does.
func (s *Sampler) LysisTrial(p float64) bool {
	return s.unit.Rand() <= s.unit.Quantile(p)
}
