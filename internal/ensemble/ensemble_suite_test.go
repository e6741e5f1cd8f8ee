package ensemble_test

import (
	"context"
	"testing"
	"unsafe"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/nbodyffi/internal/native"
	"github.com/san-kum/nbodyffi/internal/vector"
)

func TestEnsemble(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Ensemble Suite")
}

func floats(p unsafe.Pointer, n int) []float32 {
	return unsafe.Slice((*float32)(p), n)
}

// callLog records every call that reaches a Go stand-in kernel.
type callLog struct {
	calls int
	n     []uintptr
	dt    []float32
}

// plusOne keeps positions and adds 1 to every velocity component.
func plusOne(dim int, log *callLog) native.Entry {
	return func(pos, vel, newPos, newVel unsafe.Pointer, dt float32, n uintptr) {
		log.calls++
		log.n = append(log.n, n)
		log.dt = append(log.dt, dt)

		m := int(n) * dim
		copy(floats(newPos, m), floats(pos, m))
		in, out := floats(vel, m), floats(newVel, m)
		for i := range in {
			out[i] = in[i] + 1
		}
	}
}

// bothPlusOne adds 1 to every position and velocity component.
func bothPlusOne(dim int) native.Entry {
	return func(pos, vel, newPos, newVel unsafe.Pointer, dt float32, n uintptr) {
		m := int(n) * dim
		p, np := floats(pos, m), floats(newPos, m)
		v, nv := floats(vel, m), floats(newVel, m)
		for i := 0; i < m; i++ {
			np[i] = p[i] + 1
			nv[i] = v[i] + 1
		}
	}
}

// bindEntry loads a module whose only export is entry under the name
// expected for V and binds it.
func bindEntry[V vector.Vector](entry native.Entry) *native.Binding[V] {
	GinkgoHelper()
	sym := native.SymbolName(vector.Dim[V]())
	l := native.NewLoader(native.StaticOpener(native.FuncLibrary{sym: entry}), nil)
	m, err := l.Load(context.Background(), "libstub"+native.SharedExt())
	Expect(err).NotTo(HaveOccurred())
	b, err := native.Bind[V](m)
	Expect(err).NotTo(HaveOccurred())
	return b
}

func ring[V vector.Vector](n int) []V {
	out := make([]V, n)
	for i := range out {
		f := float32(i)
		out[i] = vector.New[V](f, f+0.5, -f)
	}
	return out
}
