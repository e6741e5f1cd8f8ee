// Package vector defines the binary layout of the fixed-arity vectors that
// cross the native boundary.
//
// Each type is a plain struct of float32 fields in x, y, z order, so a slice
// of them is laid out exactly like the C array the kernel expects:
//
//   - [Vec1]: one component, matches a bare float
//   - [Vec2]: matches struct { float x; float y; }
//   - [Vec3]: matches struct { float x; float y; float z; }
//
// Values are immutable and compare component-wise with ==. Consumers that need
// the raw numbers (renderers, recorders) go through [Components] and
// [Project] rather than methods on the types.
package vector
