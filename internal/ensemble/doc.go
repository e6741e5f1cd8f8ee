// Package ensemble owns the host-side particle state and the per-frame
// stepping protocol.
//
//   - [State]: current positions and velocities plus the scratch pair the
//     kernel writes into
//   - [Kernel]: one batched native step for the whole ensemble
//   - [Stepper]: marshals the state, calls the kernel once, applies the result
//
// # Example
//
//	st, _ := ensemble.NewState(positions, velocities)
//	step := ensemble.NewStepper[vector.Vec2](binding, st.Len())
//	for frame := 0; frame < 60; frame++ {
//	    if err := step.Step(st, 0.01); err != nil {
//	        return err
//	    }
//	    draw(st.Positions())
//	}
//
// # Thread Safety
//
// Step calls are serialized. Readers may call [State.Positions],
// [State.Velocities] or [State.Snapshot] concurrently with a step and always
// observe a whole frame, never positions from one frame and velocities from
// another.
package ensemble
