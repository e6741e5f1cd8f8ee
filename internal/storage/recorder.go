package storage

import (
	"sync"

	"github.com/san-kum/nbodyffi/internal/ensemble"
	"github.com/san-kum/nbodyffi/internal/vector"
)

// Recorder collects every frame it is shown.
type Recorder[V vector.Vector] struct {
	mu   sync.Mutex
	traj Trajectory
}

func NewRecorder[V vector.Vector](particles int) *Recorder[V] {
	return &Recorder[V]{traj: Trajectory{Dim: vector.Dim[V](), Particles: particles}}
}

func (r *Recorder[V]) OnFrame(s ensemble.Snapshot[V]) error {
	rec := Record(s)
	r.mu.Lock()
	r.traj.Frames = append(r.traj.Frames, rec)
	r.mu.Unlock()
	return nil
}

// Trajectory returns what has been recorded so far. The frame slice is
// shared; callers must not modify it.
func (r *Recorder[V]) Trajectory() *Trajectory {
	r.mu.Lock()
	defer r.mu.Unlock()
	t := r.traj
	t.Frames = t.Frames[:len(t.Frames):len(t.Frames)]
	return &t
}
