package native

import (
	"fmt"
	"unsafe"
)

// Entry is the Go view of a kernel entry point. n is the C size_t particle
// count; dt is passed through unchanged.
type Entry func(pos, vel, newPos, newVel unsafe.Pointer, dt float32, n uintptr)

// Library is a shared module mapped into the process.
type Library interface {
	Lookup(symbol string) (Entry, error)
	Close() error
}

// Opener maps the shared module at path into the process.
type Opener func(path string) (Library, error)

// FuncLibrary is a Library whose entry points are Go functions. It stands in
// for a shared module where none can be loaded.
type FuncLibrary map[string]Entry

func (l FuncLibrary) Lookup(symbol string) (Entry, error) {
	e, ok := l[symbol]
	if !ok {
		return nil, fmt.Errorf("undefined symbol: %s", symbol)
	}
	return e, nil
}

func (l FuncLibrary) Close() error { return nil }

// StaticOpener returns an Opener that hands out lib for every path.
func StaticOpener(lib Library) Opener {
	return func(string) (Library, error) { return lib, nil }
}
