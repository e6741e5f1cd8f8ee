package sim

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"

	"github.com/san-kum/nbodyffi/internal/ensemble"
	"github.com/san-kum/nbodyffi/internal/logging"
	"github.com/san-kum/nbodyffi/internal/vector"
)

// Runner drives a Stepper for a fixed number of frames.
type Runner[V vector.Vector] struct {
	stepper   *ensemble.Stepper[V]
	metrics   []Metric[V]
	observers []Observer[V]
	log       *logging.Logger
}

func New[V vector.Vector](stepper *ensemble.Stepper[V], log *logging.Logger) *Runner[V] {
	if log == nil {
		log = logging.Noop()
	}
	return &Runner[V]{
		stepper:   stepper,
		metrics:   make([]Metric[V], 0),
		observers: make([]Observer[V], 0),
		log:       log,
	}
}

func (r *Runner[V]) AddMetric(m Metric[V])     { r.metrics = append(r.metrics, m) }
func (r *Runner[V]) AddObserver(o Observer[V]) { r.observers = append(r.observers, o) }

// Run steps st cfg.Frames times. Cancellation is checked between frames, so
// a frame in flight always completes or fails as a whole. The partial result
// is returned alongside any error.
func (r *Runner[V]) Run(ctx context.Context, st *ensemble.State[V], cfg Config) (*Result, error) {
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	result := &Result{Metrics: make(map[string]float64)}
	for _, m := range r.metrics {
		m.Reset()
	}

	var limiter *rate.Limiter
	if cfg.Interval > 0 {
		limiter = rate.NewLimiter(rate.Every(cfg.Interval), 1)
	}

	start := time.Now()
	var stepping time.Duration

	err := r.notify(st.Snapshot())
	for i := 0; err == nil && i < cfg.Frames; i++ {
		if err = ctx.Err(); err != nil {
			break
		}
		if limiter != nil {
			if err = limiter.Wait(ctx); err != nil {
				break
			}
		}

		t0 := time.Now()
		if err = r.stepper.Step(st, cfg.Dt); err != nil {
			break
		}
		stepping += time.Since(t0)
		result.Frames++

		err = r.notify(st.Snapshot())
	}

	result.Wall = time.Since(start)
	if result.Frames > 0 {
		result.MeanStep = stepping / time.Duration(result.Frames)
	}
	for _, m := range r.metrics {
		result.Metrics[m.Name()] = m.Value()
	}

	r.log.LogRun(ctx, result.Frames, result.Wall, err)
	return result, err
}

func (r *Runner[V]) notify(s ensemble.Snapshot[V]) error {
	for _, m := range r.metrics {
		m.Observe(s)
	}
	for _, o := range r.observers {
		if err := o.OnFrame(s); err != nil {
			return fmt.Errorf("sim: observer at frame %d: %w", s.Frame, err)
		}
	}
	return nil
}

func validateConfig(cfg Config) error {
	if cfg.Frames < 0 {
		return fmt.Errorf("sim: frames must not be negative, got %d", cfg.Frames)
	}
	if cfg.Interval < 0 {
		return fmt.Errorf("sim: interval must not be negative, got %s", cfg.Interval)
	}
	return nil
}
