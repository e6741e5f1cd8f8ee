package viz

import (
	"math"

	"github.com/san-kum/nbodyffi/internal/vector"
)

// View maps world coordinates onto a canvas. Extent is the distance from
// the origin to the nearest canvas edge in world units. Camera is only used
// for 3D ensembles; without one they are drawn with z dropped.
type View struct {
	Extent float64
	Camera *Camera
}

// Render clears c and draws one blob per particle. With more than one
// particle the blobs are joined in index order into a closed loop.
func Render[V vector.Vector](c *Canvas, positions []V, v View) {
	c.Clear()
	pts := Place(c, positions, v)
	if len(pts) > 1 {
		for i, p := range pts {
			q := pts[(i+1)%len(pts)]
			if p.Hidden || q.Hidden {
				continue
			}
			c.Line(p.X, p.Y, q.X, q.Y)
		}
	}
	for _, p := range pts {
		if !p.Hidden {
			c.Blob(p.X, p.Y, 1)
		}
	}
}

// Dot is a canvas position in dots. Hidden dots belong to particles at a
// non-finite position or too far off the canvas to draw; X and Y are zero.
type Dot struct {
	X, Y   int
	Hidden bool
}

// farDots is how far past the canvas size a dot may lie and still be drawn.
const farDots = 16

// Place returns the dot each particle lands on. Dots may fall outside the
// canvas.
func Place[V vector.Vector](c *Canvas, positions []V, v View) []Dot {
	w, h := c.Dots()
	extent := v.Extent
	if extent <= 0 {
		extent = 1
	}
	scale := float64(min(w, h)) / (2 * extent)

	limit := float64(farDots * max(w, h))

	pts := make([]Dot, len(positions))
	for i, p := range positions {
		x, y := flatten(p, v.Camera)
		x, y = x*scale, y*scale
		if !(math.Abs(x) <= limit && math.Abs(y) <= limit) {
			pts[i] = Dot{Hidden: true}
			continue
		}
		pts[i] = Dot{
			X: w/2 + int(math.Round(x)),
			Y: h/2 - int(math.Round(y)),
		}
	}
	return pts
}

func flatten[V vector.Vector](p V, cam *Camera) (float64, float64) {
	if c := vector.Components(p); len(c) == 3 && cam != nil {
		return cam.Project(float64(c[0]), float64(c[1]), float64(c[2]))
	}
	return vector.Project(p)
}
