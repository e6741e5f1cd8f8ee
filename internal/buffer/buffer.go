// Package buffer implements the contiguous, size-checked ensemble buffers that
// are handed to the native kernel.
package buffer

import (
	"unsafe"

	"github.com/san-kum/nbodyffi/internal/vector"
)

// Buffer holds exactly Len() elements of V in one contiguous Go allocation.
// The element type carries no Go pointers, so the backing array may be passed
// to native code for the duration of a call.
type Buffer[V vector.Vector] struct {
	data     []V
	released bool
}

// New allocates a zeroed buffer of n elements.
func New[V vector.Vector](n int) *Buffer[V] {
	return &Buffer[V]{data: make([]V, n)}
}

// ToNative copies seq into a fresh buffer without reordering. seq must hold
// exactly n elements.
func ToNative[V vector.Vector](seq []V, n int) (*Buffer[V], error) {
	if err := CheckLen(n, len(seq)); err != nil {
		return nil, err
	}
	b := New[V](n)
	copy(b.data, seq)
	return b, nil
}

// FromNative copies the first n elements of b into a new slice owned by the
// caller. Later writes to either side are not visible to the other.
func FromNative[V vector.Vector](b *Buffer[V], n int) ([]V, error) {
	if b.released {
		return nil, ErrReleased
	}
	if err := CheckLen(n, len(b.data)); err != nil {
		return nil, err
	}
	out := make([]V, n)
	copy(out, b.data)
	return out, nil
}

// Fill overwrites the buffer with seq. It is the in-place form of ToNative
// used for pooled buffers.
func (b *Buffer[V]) Fill(seq []V) error {
	if b.released {
		return ErrReleased
	}
	if err := CheckLen(len(b.data), len(seq)); err != nil {
		return err
	}
	copy(b.data, seq)
	return nil
}

func (b *Buffer[V]) Len() int { return len(b.data) }

// At returns element i.
func (b *Buffer[V]) At(i int) V {
	b.mustBeLive()
	return b.data[i]
}

// Ptr returns the address of the first element. Calling Ptr on a released or
// empty buffer is a programming error and panics.
func (b *Buffer[V]) Ptr() unsafe.Pointer {
	b.mustBeLive()
	if len(b.data) == 0 {
		panic("buffer: pointer to empty buffer")
	}
	return unsafe.Pointer(&b.data[0])
}

// Released reports whether Release has been called.
func (b *Buffer[V]) Released() bool { return b.released }

// Release drops the backing array. A second Release panics.
func (b *Buffer[V]) Release() {
	if b.released {
		panic("buffer: double release")
	}
	b.released = true
	b.data = nil
}

// Same reports whether a and b share backing memory.
func Same[V vector.Vector](a, b *Buffer[V]) bool {
	if a == b {
		return true
	}
	if len(a.data) == 0 || len(b.data) == 0 {
		return false
	}
	return &a.data[0] == &b.data[0]
}

func (b *Buffer[V]) mustBeLive() {
	if b.released {
		panic(ErrReleased)
	}
}
