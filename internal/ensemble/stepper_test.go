package ensemble_test

import (
	"context"
	"errors"
	"sync"
	"unsafe"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/nbodyffi/internal/buffer"
	"github.com/san-kum/nbodyffi/internal/ensemble"
	"github.com/san-kum/nbodyffi/internal/native"
	"github.com/san-kum/nbodyffi/internal/vector"
)

// halfWriteKernel writes every output position and the first half of the
// output velocities, then fails.
type halfWriteKernel[V vector.Vector] struct{}

func (halfWriteKernel[V]) Step(pos, vel, newPos, newVel *buffer.Buffer[V], dt float32) error {
	dim := vector.Dim[V]()
	n := pos.Len() * dim
	copy(floats(newPos.Ptr(), n), make([]float32, n))
	for i, out := 0, floats(newVel.Ptr(), n); i < n/2; i++ {
		out[i] = 42
	}
	return errors.New("kernel gave up half way")
}

// dropVelocitiesKernel writes complete outputs and then releases the
// velocity output, so copying positions back succeeds and copying
// velocities back fails.
type dropVelocitiesKernel[V vector.Vector] struct{}

func (dropVelocitiesKernel[V]) Step(pos, vel, newPos, newVel *buffer.Buffer[V], dt float32) error {
	n := pos.Len() * vector.Dim[V]()
	outPos, outVel := floats(newPos.Ptr(), n), floats(newVel.Ptr(), n)
	for i := range outPos {
		outPos[i] = float32(i) + 100
		outVel[i] = -1
	}
	newVel.Release()
	return nil
}

var _ = Describe("Stepper", func() {
	Describe("batching", func() {
		It("issues exactly one kernel call per step for the whole ensemble", func() {
			log := &callLog{}
			b := bindEntry[vector.Vec2](plusOne(2, log))
			st, err := ensemble.NewState(ring[vector.Vec2](10), ring[vector.Vec2](10))
			Expect(err).NotTo(HaveOccurred())
			stepper := ensemble.NewStepper[vector.Vec2](b, 10, nil)

			for i := 1; i <= 3; i++ {
				Expect(stepper.Step(st, 0.01)).To(Succeed())
				Expect(log.calls).To(Equal(i))
			}
			Expect(log.n).To(Equal([]uintptr{10, 10, 10}))
		})
	})

	Describe("ordering", func() {
		It("applies positions and velocities index by index without reordering", func() {
			b := bindEntry[vector.Vec3](plusOne(3, &callLog{}))
			oldPos, oldVel := ring[vector.Vec3](7), ring[vector.Vec3](7)
			oldVel[3] = vector.Vec3{X: -9, Y: 4, Z: 0.25}
			st, _ := ensemble.NewState(oldPos, oldVel)

			Expect(ensemble.NewStepper[vector.Vec3](b, 7, nil).Step(st, 0.5)).To(Succeed())

			pos, vel := st.Positions(), st.Velocities()
			for i := range oldPos {
				Expect(pos[i]).To(Equal(oldPos[i]), "position %d", i)
				Expect(vel[i]).To(Equal(vector.Add(oldVel[i], vector.Vec3{X: 1, Y: 1, Z: 1})), "velocity %d", i)
			}
		})
	})

	Describe("timestep", func() {
		It("passes dt through unclamped, including zero and negative values", func() {
			log := &callLog{}
			b := bindEntry[vector.Vec1](plusOne(1, log))
			st, _ := ensemble.NewState(ring[vector.Vec1](2), ring[vector.Vec1](2))
			stepper := ensemble.NewStepper[vector.Vec1](b, 2, nil)

			for _, dt := range []float32{0, -0.5, 1e6} {
				Expect(stepper.Step(st, dt)).To(Succeed())
			}
			Expect(log.dt).To(Equal([]float32{0, -0.5, 1e6}))
		})

		It("keeps positions for dt = 0 when the kernel does", func() {
			b := bindEntry[vector.Vec2](plusOne(2, &callLog{}))
			pos := ring[vector.Vec2](4)
			st, _ := ensemble.NewState(pos, ring[vector.Vec2](4))

			Expect(ensemble.NewStepper[vector.Vec2](b, 4, nil).Step(st, 0)).To(Succeed())
			Expect(st.Positions()).To(Equal(pos))
		})
	})

	Describe("size enforcement", func() {
		for _, got := range []int{4, 6} {
			got := got
			It("rejects an ensemble of the wrong size before calling the kernel", func() {
				log := &callLog{}
				b := bindEntry[vector.Vec2](plusOne(2, log))
				pos, vel := ring[vector.Vec2](got), ring[vector.Vec2](got)
				st, _ := ensemble.NewState(pos, vel)

				err := ensemble.NewStepper[vector.Vec2](b, 5, nil).Step(st, 0.01)

				var sm *buffer.SizeMismatchError
				Expect(errors.As(err, &sm)).To(BeTrue())
				Expect(sm.Want).To(Equal(5))
				Expect(sm.Got).To(Equal(got))
				Expect(errors.Is(err, ensemble.ErrStepFailed)).To(BeTrue())
				Expect(log.calls).To(BeZero())
				Expect(st.Positions()).To(Equal(pos))
				Expect(st.Velocities()).To(Equal(vel))
				Expect(st.Frame()).To(BeZero())
			})
		}
	})

	Describe("atomic replace", func() {
		It("leaves the state untouched when the kernel fails mid-write", func() {
			pos, vel := ring[vector.Vec2](6), ring[vector.Vec2](6)
			st, _ := ensemble.NewState(pos, vel)
			stepper := ensemble.NewStepper[vector.Vec2](halfWriteKernel[vector.Vec2]{}, 6, nil)

			err := stepper.Step(st, 0.01)

			var fe *ensemble.FrameError
			Expect(errors.As(err, &fe)).To(BeTrue())
			Expect(fe.Frame).To(Equal(uint64(1)))
			Expect(st.Positions()).To(Equal(pos))
			Expect(st.Velocities()).To(Equal(vel))
			Expect(st.Frame()).To(BeZero())
			Expect(st.Time()).To(BeZero())
		})

		It("leaves the state untouched when velocities fail to copy back after positions did", func() {
			pos, vel := ring[vector.Vec3](4), ring[vector.Vec3](4)
			st, _ := ensemble.NewState(pos, vel)
			stepper := ensemble.NewStepper[vector.Vec3](dropVelocitiesKernel[vector.Vec3]{}, 4, nil)

			err := stepper.Step(st, 0.01)

			Expect(err).To(MatchError(buffer.ErrReleased))
			Expect(errors.Is(err, ensemble.ErrStepFailed)).To(BeTrue())
			Expect(st.Positions()).To(Equal(pos))
			Expect(st.Velocities()).To(Equal(vel))
			Expect(st.Frame()).To(BeZero())
			Expect(st.Time()).To(BeZero())
		})

		It("leaves the state untouched when the native call fails", func() {
			b := bindEntry[vector.Vec2](func(pos, vel, newPos, newVel unsafe.Pointer, dt float32, n uintptr) {
				copy(floats(newPos, int(n)*2), floats(vel, int(n)*2))
				panic("SIGSEGV")
			})
			pos, vel := ring[vector.Vec2](3), ring[vector.Vec2](3)
			st, _ := ensemble.NewState(pos, vel)

			err := ensemble.NewStepper[vector.Vec2](b, 3, nil).Step(st, 0.01)

			var nf *native.NativeCallFailure
			Expect(errors.As(err, &nf)).To(BeTrue())
			Expect(st.Positions()).To(Equal(pos))
			Expect(st.Velocities()).To(Equal(vel))
		})

		It("never shows a reader positions and velocities from different frames", func() {
			b := bindEntry[vector.Vec1](bothPlusOne(1))
			start := []vector.Vec1{{X: 0}, {X: 0}}
			st, _ := ensemble.NewState(start, start)
			stepper := ensemble.NewStepper[vector.Vec1](b, 2, nil)

			done := make(chan struct{})
			var wg sync.WaitGroup
			wg.Add(1)
			go func() {
				defer GinkgoRecover()
				defer wg.Done()
				for {
					select {
					case <-done:
						return
					default:
					}
					snap := st.Snapshot()
					Expect(snap.Positions).To(Equal(snap.Velocities))
					Expect(snap.Positions[0].X).To(Equal(float32(snap.Frame)))
				}
			}()

			for i := 0; i < 200; i++ {
				Expect(stepper.Step(st, 0.01)).To(Succeed())
			}
			close(done)
			wg.Wait()
			Expect(st.Frame()).To(Equal(uint64(200)))
		})
	})

	Describe("idempotent bind", func() {
		It("gives identical results for two bindings of the same artifact", func() {
			lib := native.FuncLibrary{"next_2D": bothPlusOne(2)}
			l := native.NewLoader(native.StaticOpener(lib), nil)
			m1, err := l.Load(context.Background(), "libsolver.so")
			Expect(err).NotTo(HaveOccurred())
			m2, err := l.Load(context.Background(), "libsolver.so")
			Expect(err).NotTo(HaveOccurred())
			Expect(m2).To(BeIdenticalTo(m1))

			b1, err := native.Bind[vector.Vec2](m1)
			Expect(err).NotTo(HaveOccurred())
			b2, err := native.Bind[vector.Vec2](m2)
			Expect(err).NotTo(HaveOccurred())

			s1, _ := ensemble.NewState(ring[vector.Vec2](5), ring[vector.Vec2](5))
			s2, _ := ensemble.NewState(ring[vector.Vec2](5), ring[vector.Vec2](5))
			Expect(ensemble.NewStepper[vector.Vec2](b1, 5, nil).Step(s1, 0.1)).To(Succeed())
			Expect(ensemble.NewStepper[vector.Vec2](b2, 5, nil).Step(s2, 0.1)).To(Succeed())

			Expect(s1.Snapshot()).To(Equal(s2.Snapshot()))
		})
	})

	Describe("end to end", func() {
		It("moves velocities by the kernel constant and keeps positions over three steps", func() {
			b := bindEntry[vector.Vec2](plusOne(2, &callLog{}))
			initPos := []vector.Vec2{{X: 2, Y: 0}}
			initVel := []vector.Vec2{{X: 0.5, Y: -0.25}}
			st, _ := ensemble.NewState(initPos, initVel)
			stepper := ensemble.NewStepper[vector.Vec2](b, 1, nil)

			for i := 0; i < 3; i++ {
				Expect(stepper.Step(st, 0.01)).To(Succeed())
			}

			Expect(st.Positions()).To(Equal(initPos))
			Expect(st.Velocities()).To(Equal([]vector.Vec2{{X: 3.5, Y: 2.75}}))
			Expect(st.Frame()).To(Equal(uint64(3)))
			Expect(st.Time()).To(BeNumerically("~", 0.03, 1e-6))
		})
	})
})
