package metrics

import (
	"github.com/san-kum/nbodyffi/internal/ensemble"
	"github.com/san-kum/nbodyffi/internal/vector"
)

// MeanSpeed is the particle speed averaged over particles and frames.
type MeanSpeed[V vector.Vector] struct {
	name    string
	sum     float64
	samples int
}

func NewMeanSpeed[V vector.Vector]() *MeanSpeed[V] {
	return &MeanSpeed[V]{name: "mean_speed"}
}

func (m *MeanSpeed[V]) Name() string { return m.name }

func (m *MeanSpeed[V]) Observe(s ensemble.Snapshot[V]) {
	for _, v := range s.Velocities {
		m.sum += vector.Norm(v)
		m.samples++
	}
}

func (m *MeanSpeed[V]) Value() float64 {
	if m.samples == 0 {
		return 0
	}
	return m.sum / float64(m.samples)
}

func (m *MeanSpeed[V]) Reset() {
	m.sum = 0
	m.samples = 0
}
