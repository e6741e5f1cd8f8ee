package ensemble

import (
	"context"
	"time"

	"github.com/san-kum/nbodyffi/internal/buffer"
	"github.com/san-kum/nbodyffi/internal/logging"
	"github.com/san-kum/nbodyffi/internal/vector"
)

// Kernel advances a whole ensemble by one step in a single call. It reads
// pos and vel and writes newPos and newVel; all four have the same length.
// *native.Binding implements Kernel.
type Kernel[V vector.Vector] interface {
	Step(pos, vel, newPos, newVel *buffer.Buffer[V], dt float32) error
}

// Stepper drives a Kernel for an ensemble of fixed size.
type Stepper[V vector.Vector] struct {
	kernel Kernel[V]
	n      int
	pool   *buffer.Pool[V]
	log    *logging.Logger
}

func NewStepper[V vector.Vector](k Kernel[V], n int, log *logging.Logger) *Stepper[V] {
	if log == nil {
		log = logging.Noop()
	}
	return &Stepper[V]{
		kernel: k,
		n:      n,
		pool:   buffer.NewPool[V](n),
		log:    log,
	}
}

func (s *Stepper[V]) Len() int { return s.n }

// Step advances st by dt with exactly one kernel call. dt is passed through
// unclamped. The new positions and velocities replace the old ones together,
// and only once the kernel has returned and both outputs have been copied
// back; on any error st is left untouched and a *FrameError is returned.
func (s *Stepper[V]) Step(st *State[V], dt float32) error {
	st.step.Lock()
	defer st.step.Unlock()

	start := time.Now()
	frame := st.Frame() + 1

	newPos, newVel, err := s.advance(st, dt)
	if err != nil {
		err = &FrameError{Frame: frame, Wrapped: err}
		s.log.LogFrame(context.Background(), frame, time.Since(start), err)
		return err
	}

	st.apply(newPos, newVel, float64(dt))
	s.log.LogFrame(context.Background(), frame, time.Since(start), nil)
	return nil
}

func (s *Stepper[V]) advance(st *State[V], dt float32) ([]V, []V, error) {
	if err := buffer.CheckLen(s.n, st.Len()); err != nil {
		return nil, nil, err
	}

	pos, vel := st.current()
	inPos, err := s.pool.Marshal(pos)
	if err != nil {
		return nil, nil, err
	}
	defer s.pool.Put(inPos)
	inVel, err := s.pool.Marshal(vel)
	if err != nil {
		return nil, nil, err
	}
	defer s.pool.Put(inVel)

	if err := s.kernel.Step(inPos, inVel, st.scratchPos, st.scratchVel, dt); err != nil {
		return nil, nil, err
	}

	newPos, err := buffer.FromNative(st.scratchPos, s.n)
	if err != nil {
		return nil, nil, err
	}
	newVel, err := buffer.FromNative(st.scratchVel, s.n)
	if err != nil {
		return nil, nil, err
	}
	return newPos, newVel, nil
}
