package ensemble

import "errors"

var (
	// ErrEmptyEnsemble indicates a state with no particles.
	ErrEmptyEnsemble = errors.New("ensemble: ensemble must hold at least one particle")

	// ErrStepFailed wraps any failure that aborted a frame before it was applied.
	ErrStepFailed = errors.New("ensemble: step aborted, state unchanged")
)

// FrameError attaches the frame number to a failed step.
type FrameError struct {
	Frame   uint64
	Wrapped error
}

func (e *FrameError) Error() string {
	return ErrStepFailed.Error() + ": " + e.Wrapped.Error()
}

func (e *FrameError) Unwrap() []error {
	return []error{ErrStepFailed, e.Wrapped}
}
