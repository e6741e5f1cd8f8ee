package native

import (
	"context"
	"path/filepath"
	"sync"

	"github.com/san-kum/nbodyffi/internal/logging"
)

// Loader keeps at most one Module per artifact path.
type Loader struct {
	mu      sync.Mutex
	open    Opener
	modules map[string]*Module
	log     *logging.Logger
}

// NewLoader returns a Loader using open, or OpenShared when open is nil.
func NewLoader(open Opener, log *logging.Logger) *Loader {
	if open == nil {
		open = OpenShared
	}
	if log == nil {
		log = logging.Noop()
	}
	return &Loader{
		open:    open,
		modules: make(map[string]*Module),
		log:     log,
	}
}

// Load maps the artifact at path into the process. Loading a path that is
// already loaded returns the same *Module.
func (l *Loader) Load(ctx context.Context, path string) (*Module, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, &BindError{Path: path, Err: err}
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if m, ok := l.modules[abs]; ok {
		l.log.LogLoad(ctx, abs, true, nil)
		return m, nil
	}

	lib, err := l.open(abs)
	if err != nil {
		err = &BindError{Path: abs, Err: err}
		l.log.LogLoad(ctx, abs, false, err)
		return nil, err
	}

	m := &Module{
		path:    abs,
		lib:     lib,
		loader:  l,
		entries: make(map[string]Entry),
	}
	l.modules[abs] = m
	l.log.LogLoad(ctx, abs, false, nil)
	return m, nil
}

// Loaded reports how many modules are currently mapped.
func (l *Loader) Loaded() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.modules)
}

// Module is a loaded kernel artifact. It is released exactly once with Close;
// releasing it again or calling into it afterwards panics.
type Module struct {
	path   string
	lib    Library
	loader *Loader

	// mu serializes symbol resolution and every call into the module.
	mu      sync.Mutex
	entries map[string]Entry
	closed  bool
}

func (m *Module) Path() string { return m.path }

// Has reports whether the module exports symbol.
func (m *Module) Has(symbol string) bool {
	_, err := m.lookup(symbol)
	return err == nil
}

// Supported lists the dimensionalities whose entry points the module exports.
func (m *Module) Supported() []int {
	dims := make([]int, 0, 3)
	for d := 1; d <= 3; d++ {
		if m.Has(SymbolName(d)) {
			dims = append(dims, d)
		}
	}
	return dims
}

func (m *Module) lookup(symbol string) (Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.mustBeOpen()

	if e, ok := m.entries[symbol]; ok {
		return e, nil
	}
	e, err := m.lib.Lookup(symbol)
	if err != nil {
		return nil, err
	}
	m.entries[symbol] = e
	return e, nil
}

// Close unmaps the module and forgets it in its Loader.
func (m *Module) Close() error {
	m.loader.mu.Lock()
	defer m.loader.mu.Unlock()
	m.mu.Lock()
	defer m.mu.Unlock()

	m.mustBeOpen()
	m.closed = true
	m.entries = nil
	delete(m.loader.modules, m.path)
	return m.lib.Close()
}

// mustBeOpen must be called with m.mu held.
func (m *Module) mustBeOpen() {
	if m.closed {
		panic("native: use of released module " + m.path)
	}
}
