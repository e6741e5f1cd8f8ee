package metrics

import (
	"github.com/san-kum/nbodyffi/internal/ensemble"
	"github.com/san-kum/nbodyffi/internal/vector"
)

// Containment is the fraction of frames in which every particle stays
// within radius of the origin.
type Containment[V vector.Vector] struct {
	name       string
	radius     float64
	violations int
	samples    int
}

func NewContainment[V vector.Vector](radius float64) *Containment[V] {
	return &Containment[V]{
		name:   "containment",
		radius: radius,
	}
}

func (c *Containment[V]) Name() string { return c.name }

func (c *Containment[V]) Observe(s ensemble.Snapshot[V]) {
	c.samples++
	for _, p := range s.Positions {
		if vector.Norm(p) > c.radius {
			c.violations++
			break
		}
	}
}

func (c *Containment[V]) Value() float64 {
	if c.samples == 0 {
		return 1.0
	}
	return 1.0 - float64(c.violations)/float64(c.samples)
}

func (c *Containment[V]) Reset() {
	c.violations = 0
	c.samples = 0
}
