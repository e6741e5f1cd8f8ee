package storage

import (
	"math"

	"github.com/san-kum/nbodyffi/internal/ensemble"
	"github.com/san-kum/nbodyffi/internal/vector"
)

// Trajectory is a recorded run with components flattened per particle, so
// it can be stored and plotted without knowing the vector type.
type Trajectory struct {
	Dim       int
	Particles int
	Frames    []FrameRecord
}

// FrameRecord holds one frame. Positions and Velocities have Particles*Dim
// components, particle-major.
type FrameRecord struct {
	Frame      uint64
	Time       float64
	Positions  []float32
	Velocities []float32
}

// MeanSpeed returns the mean particle speed for each frame.
func (t *Trajectory) MeanSpeed() []float64 {
	out := make([]float64, len(t.Frames))
	for i, f := range t.Frames {
		out[i] = meanNorm(f.Velocities, t.Dim)
	}
	return out
}

// MaxRadius returns the largest distance from the origin any particle
// reached over the run.
func (t *Trajectory) MaxRadius() float64 {
	var max float64
	for _, f := range t.Frames {
		for p := 0; p+t.Dim <= len(f.Positions); p += t.Dim {
			if r := norm(f.Positions[p : p+t.Dim]); r > max {
				max = r
			}
		}
	}
	return max
}

// Summary computes the metrics stored alongside a run.
func (t *Trajectory) Summary() map[string]float64 {
	m := map[string]float64{
		"frames":     float64(len(t.Frames)),
		"max_radius": t.MaxRadius(),
	}
	if n := len(t.Frames); n > 0 {
		speeds := t.MeanSpeed()
		m["final_mean_speed"] = speeds[n-1]
		m["final_time"] = t.Frames[n-1].Time
	}
	return m
}

func meanNorm(c []float32, dim int) float64 {
	if dim == 0 || len(c) == 0 {
		return 0
	}
	var sum float64
	n := 0
	for p := 0; p+dim <= len(c); p += dim {
		sum += norm(c[p : p+dim])
		n++
	}
	return sum / float64(n)
}

func norm(c []float32) float64 {
	var s float64
	for _, x := range c {
		s += float64(x) * float64(x)
	}
	return math.Sqrt(s)
}

// Record flattens a snapshot.
func Record[V vector.Vector](s ensemble.Snapshot[V]) FrameRecord {
	return FrameRecord{
		Frame:      s.Frame,
		Time:       s.Time,
		Positions:  flatten(s.Positions),
		Velocities: flatten(s.Velocities),
	}
}

func flatten[V vector.Vector](vs []V) []float32 {
	out := make([]float32, 0, len(vs)*vector.Dim[V]())
	for _, v := range vs {
		out = append(out, vector.Components(v)...)
	}
	return out
}
