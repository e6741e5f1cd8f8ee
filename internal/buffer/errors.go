package buffer

import (
	"errors"
	"fmt"
)

// ErrReleased is returned when a released buffer is handed back to a pool
// or read from.
var ErrReleased = errors.New("buffer: use of released buffer")

// SizeMismatchError reports a sequence or buffer whose length is not the
// ensemble size. It is always raised before any native call is issued.
type SizeMismatchError struct {
	Want int
	Got  int
}

func (e *SizeMismatchError) Error() string {
	return fmt.Sprintf("buffer: size mismatch: expected %d elements, got %d", e.Want, e.Got)
}

// CheckLen returns a *SizeMismatchError when got != want.
func CheckLen(want, got int) error {
	if want != got {
		return &SizeMismatchError{Want: want, Got: got}
	}
	return nil
}
