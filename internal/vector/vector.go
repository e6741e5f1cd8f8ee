package vector

import "math"

type Vec1 struct {
	X float32
}

type Vec2 struct {
	X float32
	Y float32
}

type Vec3 struct {
	X float32
	Y float32
	Z float32
}

// Vector is the set of layouts the kernel ABI supports.
type Vector interface {
	Vec1 | Vec2 | Vec3
}

// Dim returns the number of components of V.
func Dim[V Vector]() int {
	var v V
	switch any(v).(type) {
	case Vec1:
		return 1
	case Vec2:
		return 2
	default:
		return 3
	}
}

// New builds a V from up to Dim[V]() components. Missing components are zero,
// extra ones are ignored.
func New[V Vector](c ...float32) V {
	var at [3]float32
	copy(at[:], c)

	var v V
	switch p := any(&v).(type) {
	case *Vec1:
		*p = Vec1{X: at[0]}
	case *Vec2:
		*p = Vec2{X: at[0], Y: at[1]}
	case *Vec3:
		*p = Vec3{X: at[0], Y: at[1], Z: at[2]}
	}
	return v
}

// Components returns the fields of v in layout order.
func Components[V Vector](v V) []float32 {
	switch t := any(v).(type) {
	case Vec1:
		return []float32{t.X}
	case Vec2:
		return []float32{t.X, t.Y}
	case Vec3:
		return []float32{t.X, t.Y, t.Z}
	}
	return nil
}

// Project maps v onto the x-y plane. A Vec1 projects onto the x axis and a
// Vec3 drops z.
func Project[V Vector](v V) (x, y float64) {
	c := Components(v)
	x = float64(c[0])
	if len(c) > 1 {
		y = float64(c[1])
	}
	return x, y
}

// Norm is the Euclidean length of v.
func Norm[V Vector](v V) float64 {
	sum := 0.0
	for _, c := range Components(v) {
		sum += float64(c) * float64(c)
	}
	return math.Sqrt(sum)
}

// Add returns the component-wise sum a + b.
func Add[V Vector](a, b V) V {
	ca, cb := Components(a), Components(b)
	for i := range ca {
		ca[i] += cb[i]
	}
	return New[V](ca...)
}
