package metrics

import (
	"math"

	"github.com/san-kum/nbodyffi/internal/ensemble"
	"github.com/san-kum/nbodyffi/internal/vector"
)

// kinetic is the total kinetic energy of unit-mass particles.
func kinetic[V vector.Vector](vel []V) float64 {
	var e float64
	for _, v := range vel {
		n := vector.Norm(v)
		e += 0.5 * n * n
	}
	return e
}

// KineticEnergy averages the ensemble's kinetic energy over the observed
// frames. Every particle has unit mass.
type KineticEnergy[V vector.Vector] struct {
	name    string
	total   float64
	samples int
}

func NewKineticEnergy[V vector.Vector]() *KineticEnergy[V] {
	return &KineticEnergy[V]{name: "kinetic_energy"}
}

func (e *KineticEnergy[V]) Name() string { return e.name }

func (e *KineticEnergy[V]) Observe(s ensemble.Snapshot[V]) {
	e.total += kinetic(s.Velocities)
	e.samples++
}

func (e *KineticEnergy[V]) Value() float64 {
	if e.samples == 0 {
		return 0
	}
	return e.total / float64(e.samples)
}

func (e *KineticEnergy[V]) Reset() {
	e.total = 0
	e.samples = 0
}

// KineticDrift is the largest change in kinetic energy relative to the
// first observed frame. When the first frame is at rest the change is
// absolute.
type KineticDrift[V vector.Vector] struct {
	name     string
	initial  float64
	maxDrift float64
	samples  int
}

func NewKineticDrift[V vector.Vector]() *KineticDrift[V] {
	return &KineticDrift[V]{name: "kinetic_drift"}
}

func (e *KineticDrift[V]) Name() string { return e.name }

func (e *KineticDrift[V]) Observe(s ensemble.Snapshot[V]) {
	energy := kinetic(s.Velocities)
	if e.samples == 0 {
		e.initial = energy
	}
	e.samples++

	drift := math.Abs(energy - e.initial)
	if e.initial != 0 {
		drift /= math.Abs(e.initial)
	}
	e.maxDrift = math.Max(e.maxDrift, drift)
}

func (e *KineticDrift[V]) Value() float64 { return e.maxDrift }

func (e *KineticDrift[V]) Reset() {
	e.initial = 0
	e.maxDrift = 0
	e.samples = 0
}
