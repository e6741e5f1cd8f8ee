package ensemble_test

import (
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/nbodyffi/internal/buffer"
	"github.com/san-kum/nbodyffi/internal/ensemble"
	"github.com/san-kum/nbodyffi/internal/vector"
)

var _ = Describe("State", func() {
	It("rejects an empty ensemble", func() {
		_, err := ensemble.NewState[vector.Vec2](nil, nil)
		Expect(err).To(MatchError(ensemble.ErrEmptyEnsemble))
	})

	It("rejects velocities of a different length", func() {
		_, err := ensemble.NewState(ring[vector.Vec2](3), ring[vector.Vec2](2))
		var sm *buffer.SizeMismatchError
		Expect(errors.As(err, &sm)).To(BeTrue())
		Expect(sm.Want).To(Equal(3))
		Expect(sm.Got).To(Equal(2))
	})

	It("does not alias the caller's slices", func() {
		pos := ring[vector.Vec3](2)
		st, err := ensemble.NewState(pos, ring[vector.Vec3](2))
		Expect(err).NotTo(HaveOccurred())

		pos[0].X = 99
		Expect(st.Positions()[0].X).To(BeZero())

		got := st.Positions()
		got[1].Y = -7
		Expect(st.Positions()[1].Y).To(Equal(float32(1.5)))
	})

	It("returns a whole frame from Snapshot", func() {
		st, _ := ensemble.NewState(ring[vector.Vec1](3), ring[vector.Vec1](3))
		snap := st.Snapshot()
		Expect(snap.Frame).To(BeZero())
		Expect(snap.Time).To(BeZero())
		Expect(snap.Positions).To(Equal(ring[vector.Vec1](3)))
		Expect(snap.Velocities).To(Equal(ring[vector.Vec1](3)))
	})

	Describe("Reset", func() {
		var (
			st       *ensemble.State[vector.Vec2]
			pos, vel []vector.Vec2
		)

		BeforeEach(func() {
			pos, vel = ring[vector.Vec2](5), ring[vector.Vec2](5)
			var err error
			st, err = ensemble.NewState(pos, vel)
			Expect(err).NotTo(HaveOccurred())
		})

		DescribeTable("leaves the state unchanged on a size mismatch",
			func(np, nv int) {
				err := st.Reset(ring[vector.Vec2](np), ring[vector.Vec2](nv))
				var sm *buffer.SizeMismatchError
				Expect(errors.As(err, &sm)).To(BeTrue())
				Expect(sm.Want).To(Equal(5))
				Expect(st.Positions()).To(Equal(pos))
				Expect(st.Velocities()).To(Equal(vel))
			},
			Entry("four positions", 4, 5),
			Entry("six positions", 6, 5),
			Entry("four velocities", 5, 4),
			Entry("six velocities", 5, 6),
		)

		It("rewinds the frame counter", func() {
			b := bindEntry[vector.Vec2](plusOne(2, &callLog{}))
			Expect(ensemble.NewStepper[vector.Vec2](b, 5, nil).Step(st, 0.25)).To(Succeed())
			Expect(st.Frame()).To(Equal(uint64(1)))

			next := []vector.Vec2{{X: 1}, {X: 2}, {X: 3}, {X: 4}, {X: 5}}
			Expect(st.Reset(next, next)).To(Succeed())
			Expect(st.Frame()).To(BeZero())
			Expect(st.Time()).To(BeZero())
			Expect(st.Positions()).To(Equal(next))
		})
	})
})
