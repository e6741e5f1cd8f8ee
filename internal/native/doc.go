// Package native compiles, loads and binds the stepping kernel.
//
// The kernel is a C shared module exporting one entry point per supported
// dimensionality:
//
//	void next_1D(float   *pos, float   *vel, float   *new_pos, float   *new_vel, float dt, size_t n);
//	void next_2D(Vector2D *pos, Vector2D *vel, Vector2D *new_pos, Vector2D *new_vel, float dt, size_t n);
//	void next_3D(Vector3D *pos, Vector3D *vel, Vector3D *new_pos, Vector3D *new_vel, float dt, size_t n);
//
// # Pipeline
//
// [Pipeline.Obtain] turns a source path into a loadable artifact, reusing a
// previous build when it is newer than the source:
//
//	p := native.NewPipeline(native.DefaultToolchain(), log)
//	art, err := p.Obtain(ctx, "solver/solver.c") // solver/libsolver.so
//
// [Loader.Load] maps the artifact into the process once per path, and [Bind]
// resolves the entry point matching a vector layout:
//
//	mod, err := loader.Load(ctx, art.Path)
//	defer mod.Close()
//	b, err := native.Bind[vector.Vec2](mod)
//
// # Limitations
//
// A raw symbol carries no type information, so Bind cannot check that the
// entry point really takes the six arguments above. The contract is covered by
// tests that compile a kernel and drive it through a [Binding].
//
// # Thread Safety
//
// Calls into one [Module] are serialized; the kernel is assumed non-reentrant.
package native
