package export

import (
	"fmt"
	"strings"

	"github.com/san-kum/nbodyffi/internal/storage"
)

var palette = []string{"#00ff00", "#00ffff", "#ff00ff", "#ffaa00", "#ff5555", "#8888ff"}

type point struct{ X, Y float64 }

// PathsSVG draws the path of every particle in traj as its own polyline.
// 2D and 3D runs are drawn in the x-y plane; 1D runs plot x against time.
func PathsSVG(traj *storage.Trajectory, width, height int) string {
	if traj == nil || len(traj.Frames) < 2 || traj.Particles < 1 {
		return ""
	}

	paths := make([][]point, traj.Particles)
	for p := range paths {
		paths[p] = make([]point, len(traj.Frames))
		base := p * traj.Dim
		for i, f := range traj.Frames {
			if traj.Dim == 1 {
				paths[p][i] = point{X: f.Time, Y: float64(f.Positions[base])}
			} else {
				paths[p][i] = point{X: float64(f.Positions[base]), Y: float64(f.Positions[base+1])}
			}
		}
	}

	minX, maxX := paths[0][0].X, paths[0][0].X
	minY, maxY := paths[0][0].Y, paths[0][0].Y
	for _, path := range paths {
		for _, pt := range path {
			minX, maxX = min(minX, pt.X), max(maxX, pt.X)
			minY, maxY = min(minY, pt.Y), max(maxY, pt.Y)
		}
	}

	rangeX := maxX - minX
	rangeY := maxY - minY
	if rangeX == 0 {
		rangeX = 1
	}
	if rangeY == 0 {
		rangeY = 1
	}
	minX -= rangeX * 0.1
	maxX += rangeX * 0.1
	minY -= rangeY * 0.1
	maxY += rangeY * 0.1
	rangeX = maxX - minX
	rangeY = maxY - minY

	var sb strings.Builder

	sb.WriteString(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
`, width, height, width, height))

	for p, path := range paths {
		sb.WriteString(fmt.Sprintf(`<path fill="none" stroke="%s" stroke-width="1.5" d="`, palette[p%len(palette)]))
		for i, pt := range path {
			x := (pt.X - minX) / rangeX * float64(width)
			y := float64(height) - (pt.Y-minY)/rangeY*float64(height)
			if i == 0 {
				sb.WriteString(fmt.Sprintf("M%.1f,%.1f", x, y))
			} else {
				sb.WriteString(fmt.Sprintf(" L%.1f,%.1f", x, y))
			}
		}
		sb.WriteString("\"/>\n")
	}

	sb.WriteString("</svg>")
	return sb.String()
}
