package sim

import (
	"time"

	"github.com/san-kum/nbodyffi/internal/ensemble"
	"github.com/san-kum/nbodyffi/internal/vector"
)

// Observer is notified with every applied frame, and once with the initial
// frame before stepping starts. A non-nil error stops the run.
type Observer[V vector.Vector] interface {
	OnFrame(s ensemble.Snapshot[V]) error
}

type ObserverFunc[V vector.Vector] func(s ensemble.Snapshot[V]) error

func (f ObserverFunc[V]) OnFrame(s ensemble.Snapshot[V]) error { return f(s) }

type Metric[V vector.Vector] interface {
	Name() string
	Observe(s ensemble.Snapshot[V])
	Value() float64
	Reset()
}

type Config struct {
	Dt     float32
	Frames int
	// Interval is the minimum spacing between frames. Zero runs unpaced.
	Interval time.Duration
}

type Result struct {
	Frames   int
	Wall     time.Duration
	MeanStep time.Duration
	Metrics  map[string]float64
}
