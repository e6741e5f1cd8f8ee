package ensemble

import (
	"sync"

	"github.com/san-kum/nbodyffi/internal/buffer"
	"github.com/san-kum/nbodyffi/internal/vector"
)

// Reader is the read-only view handed to renderers and recorders. Every call
// returns copies.
type Reader[V vector.Vector] interface {
	Len() int
	Frame() uint64
	Time() float64
	Positions() []V
	Velocities() []V
	Snapshot() Snapshot[V]
}

// Snapshot is one whole frame.
type Snapshot[V vector.Vector] struct {
	Frame      uint64
	Time       float64
	Positions  []V
	Velocities []V
}

// State is the host-owned ensemble. Its size is fixed at construction.
type State[V vector.Vector] struct {
	// step is held for the whole of a Step or Reset call.
	step sync.Mutex

	mu         sync.RWMutex
	n          int
	positions  []V
	velocities []V
	frame      uint64
	time       float64

	// scratch is the output pair the kernel writes into; only the stepper
	// touches it.
	scratchPos *buffer.Buffer[V]
	scratchVel *buffer.Buffer[V]
}

// NewState copies positions and velocities into a new State. Both must have
// the same non-zero length.
func NewState[V vector.Vector](positions, velocities []V) (*State[V], error) {
	n := len(positions)
	if n == 0 {
		return nil, ErrEmptyEnsemble
	}
	if err := buffer.CheckLen(n, len(velocities)); err != nil {
		return nil, err
	}
	return &State[V]{
		n:          n,
		positions:  clone(positions),
		velocities: clone(velocities),
		scratchPos: buffer.New[V](n),
		scratchVel: buffer.New[V](n),
	}, nil
}

func (s *State[V]) Len() int { return s.n }

func (s *State[V]) Frame() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.frame
}

// Time is the sum of the timesteps applied so far.
func (s *State[V]) Time() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.time
}

func (s *State[V]) Positions() []V {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return clone(s.positions)
}

func (s *State[V]) Velocities() []V {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return clone(s.velocities)
}

func (s *State[V]) Snapshot() Snapshot[V] {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot[V]{
		Frame:      s.frame,
		Time:       s.time,
		Positions:  clone(s.positions),
		Velocities: clone(s.velocities),
	}
}

// Reset replaces positions and velocities and rewinds the frame counter. Both
// slices must hold exactly Len() elements; otherwise the state is left as it
// was.
func (s *State[V]) Reset(positions, velocities []V) error {
	if err := buffer.CheckLen(s.n, len(positions)); err != nil {
		return err
	}
	if err := buffer.CheckLen(s.n, len(velocities)); err != nil {
		return err
	}
	s.step.Lock()
	defer s.step.Unlock()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.positions = clone(positions)
	s.velocities = clone(velocities)
	s.frame = 0
	s.time = 0
	return nil
}

// current returns the live slices without copying. Callers must only read
// them and must hold no lock.
func (s *State[V]) current() ([]V, []V) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.positions, s.velocities
}

// apply swaps in a new frame. positions and velocities must already be owned
// by the state.
func (s *State[V]) apply(positions, velocities []V, dt float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.positions = positions
	s.velocities = velocities
	s.frame++
	s.time += dt
}

func clone[V vector.Vector](src []V) []V {
	dst := make([]V, len(src))
	copy(dst, src)
	return dst
}
