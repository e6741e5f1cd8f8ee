// Package analysis looks at recorded trajectories after a run.
//
// [DominantFrequency] finds the strongest oscillation in a sampled signal,
// such as one coordinate of one particle across frames:
//
//	xs, err := analysis.Coordinate(traj, 0, 0)
//	...
//	f := analysis.DominantFrequency(xs, dt)
//
// [NewPhasePortrait] pairs one coordinate with its velocity component and
// [PhasePortrait.ASCII] draws it. Transforms use go-dsp.
package analysis
