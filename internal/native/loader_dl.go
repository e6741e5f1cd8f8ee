//go:build darwin || linux

package native

import (
	"github.com/ebitengine/purego"
)

type dlLibrary struct {
	handle uintptr
}

// OpenShared loads path with dlopen.
func OpenShared(path string) (Library, error) {
	h, err := purego.Dlopen(path, purego.RTLD_NOW|purego.RTLD_GLOBAL)
	if err != nil {
		return nil, err
	}
	return &dlLibrary{handle: h}, nil
}

func (l *dlLibrary) Lookup(symbol string) (Entry, error) {
	sym, err := purego.Dlsym(l.handle, symbol)
	if err != nil {
		return nil, err
	}
	var fn Entry
	purego.RegisterFunc(&fn, sym)
	return fn, nil
}

func (l *dlLibrary) Close() error {
	return purego.Dlclose(l.handle)
}
