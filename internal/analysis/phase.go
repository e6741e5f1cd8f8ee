package analysis

import (
	"errors"
	"fmt"
	"strings"

	"github.com/san-kum/nbodyffi/internal/storage"
)

var ErrOutOfRange = errors.New("analysis: particle or axis out of range")

// Coordinate returns position component axis of particle for every frame.
func Coordinate(traj *storage.Trajectory, particle, axis int) ([]float64, error) {
	return series(traj, particle, axis, func(f storage.FrameRecord) []float32 { return f.Positions })
}

// Velocity returns velocity component axis of particle for every frame.
func Velocity(traj *storage.Trajectory, particle, axis int) ([]float64, error) {
	return series(traj, particle, axis, func(f storage.FrameRecord) []float32 { return f.Velocities })
}

func series(traj *storage.Trajectory, particle, axis int, pick func(storage.FrameRecord) []float32) ([]float64, error) {
	if particle < 0 || particle >= traj.Particles || axis < 0 || axis >= traj.Dim {
		return nil, fmt.Errorf("%w: particle %d axis %d (have %d particles, %d dims)",
			ErrOutOfRange, particle, axis, traj.Particles, traj.Dim)
	}
	i := particle*traj.Dim + axis
	out := make([]float64, 0, len(traj.Frames))
	for _, f := range traj.Frames {
		values := pick(f)
		if i >= len(values) {
			return nil, fmt.Errorf("%w: frame %d has %d values", ErrOutOfRange, f.Frame, len(values))
		}
		out = append(out, float64(values[i]))
	}
	return out, nil
}

// PhasePortrait holds (position, velocity) pairs of one particle along one
// axis, one pair per frame.
type PhasePortrait struct {
	Points []struct{ X, Y float64 }
}

func NewPhasePortrait(traj *storage.Trajectory, particle, axis int) (*PhasePortrait, error) {
	xs, err := Coordinate(traj, particle, axis)
	if err != nil {
		return nil, err
	}
	vs, err := Velocity(traj, particle, axis)
	if err != nil {
		return nil, err
	}

	pp := &PhasePortrait{Points: make([]struct{ X, Y float64 }, len(xs))}
	for i := range xs {
		pp.Points[i].X = xs[i]
		pp.Points[i].Y = vs[i]
	}
	return pp, nil
}

// ASCII plots the portrait with position across and velocity up, drawing
// the axes where they fall inside the plot.
func (p *PhasePortrait) ASCII(width, height int) string {
	if p == nil || len(p.Points) == 0 || width < 2 || height < 2 {
		return "no data"
	}

	minX, maxX := p.Points[0].X, p.Points[0].X
	minY, maxY := p.Points[0].Y, p.Points[0].Y
	for _, pt := range p.Points {
		minX, maxX = min(minX, pt.X), max(maxX, pt.X)
		minY, maxY = min(minY, pt.Y), max(maxY, pt.Y)
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

	grid := make([][]rune, height)
	for i := range grid {
		grid[i] = []rune(strings.Repeat(" ", width))
	}

	for _, pt := range p.Points {
		col := int((pt.X - minX) / rangeX * float64(width-1))
		row := height - 1 - int((pt.Y-minY)/rangeY*float64(height-1))
		if row >= 0 && row < height && col >= 0 && col < width {
			grid[row][col] = '•'
		}
	}

	if minX <= 0 && maxX >= 0 {
		col := int((0 - minX) / rangeX * float64(width-1))
		for row := 0; row < height; row++ {
			if grid[row][col] == ' ' {
				grid[row][col] = '│'
			}
		}
	}
	if minY <= 0 && maxY >= 0 {
		row := height - 1 - int((0-minY)/rangeY*float64(height-1))
		for col := 0; col < width; col++ {
			if grid[row][col] == ' ' {
				grid[row][col] = '─'
			}
		}
	}

	var sb strings.Builder
	for _, row := range grid {
		sb.WriteString(string(row))
		sb.WriteRune('\n')
	}
	return sb.String()
}
