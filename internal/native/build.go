package native

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/san-kum/nbodyffi/internal/logging"
)

// Toolchain is the compiler invocation used to build a shared module. The
// pipeline appends "-o <artifact> <source>" to Flags.
type Toolchain struct {
	Compiler string
	Flags    []string
}

// DefaultToolchain uses $CC, falling back to cc.
func DefaultToolchain() Toolchain {
	cc := os.Getenv("CC")
	if cc == "" {
		cc = "cc"
	}
	return Toolchain{
		Compiler: cc,
		Flags:    []string{"-shared", "-fPIC", "-O2"},
	}
}

// Artifact is a loadable shared module on disk.
type Artifact struct {
	Path     string
	Source   string
	Reused   bool
	Prebuilt bool
}

type Pipeline struct {
	tc    Toolchain
	group singleflight.Group
	log   *logging.Logger
}

func NewPipeline(tc Toolchain, log *logging.Logger) *Pipeline {
	if tc.Compiler == "" {
		tc.Compiler = DefaultToolchain().Compiler
	}
	if log == nil {
		log = logging.Noop()
	}
	return &Pipeline{tc: tc, log: log}
}

// SharedExt is the shared-module file extension for the host platform.
func SharedExt() string {
	if runtime.GOOS == "darwin" {
		return ".dylib"
	}
	return ".so"
}

// ArtifactPath derives the output path for a source file: dir/foo.c becomes
// dir/libfoo.so.
func ArtifactPath(source string) string {
	base := filepath.Base(source)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(filepath.Dir(source), "lib"+stem+SharedExt())
}

// Obtain returns an artifact for path, which may name a C source file, a
// directory holding exactly one, or an already built shared module. Every
// failure is a *BuildError. Concurrent calls for the same source share one
// compiler run.
func (p *Pipeline) Obtain(ctx context.Context, path string) (Artifact, error) {
	start := time.Now()

	src, err := resolveSource(path)
	if err != nil {
		err = &BuildError{Source: path, Compiler: p.tc.Compiler, ExitCode: -1, Err: err}
		p.log.LogBuild(ctx, path, "", false, 0, err)
		return Artifact{}, err
	}

	if isShared(src) {
		art := Artifact{Path: src, Source: src, Reused: true, Prebuilt: true}
		p.log.LogBuild(ctx, src, src, true, time.Since(start), nil)
		return art, nil
	}

	// The shared build outlives any single caller's cancellation; a
	// cancelled caller stops waiting and the others still get the artifact.
	ch := p.group.DoChan(src, func() (interface{}, error) {
		return p.obtain(context.WithoutCancel(ctx), src)
	})
	var res singleflight.Result
	select {
	case res = <-ch:
	case <-ctx.Done():
		err := &BuildError{Source: src, Compiler: p.tc.Compiler, ExitCode: -1, Err: ctx.Err()}
		p.log.LogBuild(ctx, src, "", false, time.Since(start), err)
		return Artifact{}, err
	}
	if res.Err != nil {
		p.log.LogBuild(ctx, src, "", false, time.Since(start), res.Err)
		return Artifact{}, res.Err
	}

	art := res.Val.(Artifact)
	p.log.LogBuild(ctx, src, art.Path, art.Reused, time.Since(start), nil)
	return art, nil
}

func (p *Pipeline) obtain(ctx context.Context, src string) (Artifact, error) {
	out := ArtifactPath(src)
	art := Artifact{Path: out, Source: src}

	srcInfo, err := os.Stat(src)
	if err != nil {
		return art, &BuildError{Source: src, Compiler: p.tc.Compiler, ExitCode: -1, Err: err}
	}
	if outInfo, err := os.Stat(out); err == nil && outInfo.ModTime().After(srcInfo.ModTime()) {
		art.Reused = true
		return art, nil
	}

	if err := p.compile(ctx, src, out); err != nil {
		return art, err
	}
	return art, nil
}

func (p *Pipeline) compile(ctx context.Context, src, out string) error {
	tmp := out + ".tmp"
	args := make([]string, 0, len(p.tc.Flags)+3)
	args = append(args, p.tc.Flags...)
	args = append(args, "-o", tmp, src)

	var diag bytes.Buffer
	cmd := exec.CommandContext(ctx, p.tc.Compiler, args...)
	cmd.Stdout = &diag
	cmd.Stderr = &diag

	if err := cmd.Run(); err != nil {
		os.Remove(tmp)
		be := &BuildError{
			Source:      src,
			Compiler:    p.tc.Compiler,
			ExitCode:    -1,
			Diagnostics: diag.String(),
			Err:         err,
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			be.ExitCode = exitErr.ExitCode()
		}
		return be
	}

	if err := os.Rename(tmp, out); err != nil {
		os.Remove(tmp)
		return &BuildError{Source: src, Compiler: p.tc.Compiler, ExitCode: 0, Err: err}
	}
	return nil
}

func resolveSource(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", err
	}
	if !info.IsDir() {
		return abs, nil
	}

	matches, err := filepath.Glob(filepath.Join(abs, "*.c"))
	if err != nil {
		return "", err
	}
	switch len(matches) {
	case 0:
		return "", fmt.Errorf("%w in %s", ErrNoSource, abs)
	case 1:
		return matches[0], nil
	default:
		return "", fmt.Errorf("%w in %s: %v", ErrAmbiguousSource, abs, matches)
	}
}

func isShared(path string) bool {
	switch filepath.Ext(path) {
	case ".so", ".dylib", ".dll":
		return true
	}
	return false
}
