package analysis

import (
	"errors"
	"strings"
	"testing"

	"github.com/san-kum/nbodyffi/internal/storage"
)

func twoParticles() *storage.Trajectory {
	return &storage.Trajectory{
		Dim:       2,
		Particles: 2,
		Frames: []storage.FrameRecord{
			{Frame: 0, Positions: []float32{1, 2, 3, 4}, Velocities: []float32{-1, -2, -3, -4}},
			{Frame: 1, Positions: []float32{5, 6, 7, 8}, Velocities: []float32{-5, -6, -7, -8}},
		},
	}
}

func TestCoordinateAndVelocity(t *testing.T) {
	traj := twoParticles()

	xs, err := Coordinate(traj, 1, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(xs) != 2 || xs[0] != 4 || xs[1] != 8 {
		t.Errorf("unexpected coordinate series %v", xs)
	}
	vs, err := Velocity(traj, 0, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(vs) != 2 || vs[0] != -1 || vs[1] != -5 {
		t.Errorf("unexpected velocity series %v", vs)
	}
}

func TestCoordinateAndVelocity_OutOfRange(t *testing.T) {
	traj := twoParticles()
	tests := []struct {
		name           string
		particle, axis int
	}{
		{"particle past end", 2, 0},
		{"negative particle", -1, 0},
		{"axis past dim", 0, 2},
		{"negative axis", 0, -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Coordinate(traj, tt.particle, tt.axis); !errors.Is(err, ErrOutOfRange) {
				t.Errorf("Coordinate: expected ErrOutOfRange, got %v", err)
			}
			if _, err := Velocity(traj, tt.particle, tt.axis); !errors.Is(err, ErrOutOfRange) {
				t.Errorf("Velocity: expected ErrOutOfRange, got %v", err)
			}
		})
	}
}

func TestCoordinate_ShortFrame(t *testing.T) {
	traj := twoParticles()
	traj.Frames[1].Positions = traj.Frames[1].Positions[:2]

	if _, err := Coordinate(traj, 1, 0); !errors.Is(err, ErrOutOfRange) {
		t.Errorf("expected ErrOutOfRange, got %v", err)
	}
}

func TestPhasePortrait(t *testing.T) {
	traj := twoParticles()

	pp, err := NewPhasePortrait(traj, 0, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(pp.Points) != 2 || pp.Points[1].X != 6 || pp.Points[1].Y != -6 {
		t.Errorf("unexpected points %v", pp.Points)
	}

	plot := pp.ASCII(20, 8)
	if strings.Count(plot, "\n") != 8 {
		t.Errorf("expected 8 rows, got:\n%s", plot)
	}
	if strings.Count(plot, "•") != 2 {
		t.Errorf("expected 2 points, got:\n%s", plot)
	}
}

func TestPhasePortrait_OutOfRange(t *testing.T) {
	traj := twoParticles()
	for _, c := range []struct{ particle, axis int }{{2, 0}, {0, 2}, {-1, 0}} {
		if _, err := NewPhasePortrait(traj, c.particle, c.axis); err == nil {
			t.Errorf("particle %d axis %d: expected error", c.particle, c.axis)
		}
	}
}

func TestPhasePortrait_Empty(t *testing.T) {
	var pp *PhasePortrait
	if got := pp.ASCII(10, 5); got != "no data" {
		t.Errorf("got %q", got)
	}
}
