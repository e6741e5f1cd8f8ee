package native

import (
	"context"
	"fmt"
	"runtime"

	"github.com/san-kum/nbodyffi/internal/buffer"
	"github.com/san-kum/nbodyffi/internal/vector"
)

// SymbolName is the entry point exported for dimensionality dim.
func SymbolName(dim int) string {
	return fmt.Sprintf("next_%dD", dim)
}

// Binding is a resolved entry point for vectors of type V.
type Binding[V vector.Vector] struct {
	module *Module
	symbol string
	entry  Entry
}

// Bind resolves the entry point for V in m. A missing symbol yields a
// *BindError; the dimensionality is then unsupported by the artifact.
func Bind[V vector.Vector](m *Module) (*Binding[V], error) {
	dim := vector.Dim[V]()
	sym := SymbolName(dim)
	log := m.loader.log.WithDimension(dim)

	entry, err := m.lookup(sym)
	if err != nil {
		err = &BindError{Path: m.path, Symbol: sym, Dim: dim, Err: err}
		log.LogBind(context.Background(), sym, err)
		return nil, err
	}

	log.LogBind(context.Background(), sym, nil)
	return &Binding[V]{module: m, symbol: sym, entry: entry}, nil
}

func (b *Binding[V]) Symbol() string  { return b.symbol }
func (b *Binding[V]) Module() *Module { return b.module }

// Step calls the entry point once for the whole ensemble. All four buffers
// must have the same length and the outputs must not share memory with any
// other argument; both are checked before the call is issued. The buffers are
// pinned for the duration of the call.
func (b *Binding[V]) Step(pos, vel, newPos, newVel *buffer.Buffer[V], dt float32) (err error) {
	n := pos.Len()
	for _, buf := range []*buffer.Buffer[V]{vel, newPos, newVel} {
		if err := buffer.CheckLen(n, buf.Len()); err != nil {
			return err
		}
	}
	if buffer.Same(newPos, newVel) ||
		buffer.Same(newPos, pos) || buffer.Same(newPos, vel) ||
		buffer.Same(newVel, pos) || buffer.Same(newVel, vel) {
		return ErrAliasedBuffers
	}

	var pinner runtime.Pinner
	defer pinner.Unpin()
	args := [4]*buffer.Buffer[V]{pos, vel, newPos, newVel}
	for _, buf := range args {
		pinner.Pin(buf.Ptr())
	}

	b.module.mu.Lock()
	defer b.module.mu.Unlock()
	b.module.mustBeOpen()

	defer func() {
		if r := recover(); r != nil {
			err = &NativeCallFailure{Symbol: b.symbol, Cause: r}
		}
	}()

	b.entry(pos.Ptr(), vel.Ptr(), newPos.Ptr(), newVel.Ptr(), dt, uintptr(n))
	return nil
}
