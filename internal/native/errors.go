package native

import (
	"errors"
	"fmt"
)

var (
	// ErrNoSource indicates a directory without any C source file.
	ErrNoSource = errors.New("native: no C source found")

	// ErrAmbiguousSource indicates a directory with more than one C source file.
	ErrAmbiguousSource = errors.New("native: more than one C source found")

	// ErrAliasedBuffers indicates an output buffer sharing memory with another
	// argument buffer.
	ErrAliasedBuffers = errors.New("native: kernel buffers must not alias")

	// ErrUnsupportedPlatform indicates dynamic loading is unavailable.
	ErrUnsupportedPlatform = errors.New("native: dynamic loading not supported on this platform")
)

// BuildError reports a failure to produce an artifact. Diagnostics holds the
// compiler output exactly as it was printed.
type BuildError struct {
	Source      string
	Compiler    string
	ExitCode    int
	Diagnostics string
	Err         error
}

func (e *BuildError) Error() string {
	if e.Diagnostics != "" {
		return fmt.Sprintf("native: build of %s failed (exit %d):\n%s", e.Source, e.ExitCode, e.Diagnostics)
	}
	return fmt.Sprintf("native: build of %s failed: %v", e.Source, e.Err)
}

func (e *BuildError) Unwrap() error { return e.Err }

// BindError reports an artifact that could not be loaded or that does not
// export the entry point for the requested dimensionality.
type BindError struct {
	Path   string
	Symbol string
	Dim    int
	Err    error
}

func (e *BindError) Error() string {
	if e.Symbol == "" {
		return fmt.Sprintf("native: load %s: %v", e.Path, e.Err)
	}
	return fmt.Sprintf("native: %s does not provide %s (%dD unsupported): %v", e.Path, e.Symbol, e.Dim, e.Err)
}

func (e *BindError) Unwrap() error { return e.Err }

// NativeCallFailure reports a kernel call that did not return normally.
// It is fatal for the run that observes it.
type NativeCallFailure struct {
	Symbol string
	Cause  any
}

func (e *NativeCallFailure) Error() string {
	return fmt.Sprintf("native: call to %s failed: %v", e.Symbol, e.Cause)
}

func (e *NativeCallFailure) Unwrap() error {
	if err, ok := e.Cause.(error); ok {
		return err
	}
	return nil
}
