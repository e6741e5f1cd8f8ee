package viz

import "math"

// Camera orients a 3D ensemble before it is flattened onto the canvas.
type Camera struct {
	RotX, RotY float64
	Zoom       float64
	// Distance from the eye to the origin, in world units. Zero disables
	// perspective.
	Distance float64
}

func NewCamera() *Camera {
	return &Camera{RotX: -0.5, RotY: 0.6, Zoom: 1.0, Distance: 12}
}

func (c *Camera) RotateX(a float64) { c.RotX += a }
func (c *Camera) RotateY(a float64) { c.RotY += a }
func (c *Camera) ZoomIn()           { c.Zoom = math.Min(10, c.Zoom*1.2) }
func (c *Camera) ZoomOut()          { c.Zoom = math.Max(0.1, c.Zoom/1.2) }

// Project rotates p about the X then Y axis and returns its screen-plane
// coordinates in world units, scaled by zoom and perspective.
func (c *Camera) Project(x, y, z float64) (float64, float64) {
	cx, sx := math.Cos(c.RotX), math.Sin(c.RotX)
	y, z = y*cx-z*sx, y*sx+z*cx
	cy, sy := math.Cos(c.RotY), math.Sin(c.RotY)
	x, z = x*cy+z*sy, -x*sy+z*cy

	scale := c.Zoom
	if c.Distance > 0 && z < c.Distance {
		scale *= c.Distance / (c.Distance - z)
	}
	return x * scale, y * scale
}
