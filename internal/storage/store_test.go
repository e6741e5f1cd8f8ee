package storage

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/san-kum/nbodyffi/internal/ensemble"
	"github.com/san-kum/nbodyffi/internal/vector"
)

func sampleTrajectory() *Trajectory {
	rec := NewRecorder[vector.Vec2](2)
	pos := []vector.Vec2{{X: 2, Y: 0}, {X: -2, Y: 0}}
	vel := []vector.Vec2{{X: 0, Y: 0}, {X: 0, Y: 0}}
	for f := uint64(0); f < 4; f++ {
		rec.OnFrame(ensemble.Snapshot[vector.Vec2]{
			Frame:      f,
			Time:       float64(f) * 0.25,
			Positions:  pos,
			Velocities: vel,
		})
		for i := range vel {
			vel[i] = vector.Add(vel[i], vector.Vec2{X: 3, Y: 4})
		}
	}
	return rec.Trajectory()
}

func TestRecorder(t *testing.T) {
	traj := sampleTrajectory()
	if traj.Dim != 2 || traj.Particles != 2 {
		t.Fatalf("unexpected shape: dim=%d particles=%d", traj.Dim, traj.Particles)
	}
	if len(traj.Frames) != 4 {
		t.Fatalf("expected 4 frames, got %d", len(traj.Frames))
	}
	want := []float32{2, 0, -2, 0}
	if !reflect.DeepEqual(traj.Frames[3].Positions, want) {
		t.Errorf("expected positions %v, got %v", want, traj.Frames[3].Positions)
	}
	want = []float32{9, 12, 9, 12}
	if !reflect.DeepEqual(traj.Frames[3].Velocities, want) {
		t.Errorf("expected velocities %v, got %v", want, traj.Frames[3].Velocities)
	}
}

func TestSummary(t *testing.T) {
	traj := sampleTrajectory()
	speeds := traj.MeanSpeed()
	for i, want := range []float64{0, 5, 10, 15} {
		if math.Abs(speeds[i]-want) > 1e-9 {
			t.Errorf("frame %d: expected mean speed %f, got %f", i, want, speeds[i])
		}
	}

	m := traj.Summary()
	if m["frames"] != 4 || m["max_radius"] != 2 || m["final_mean_speed"] != 15 || m["final_time"] != 0.75 {
		t.Errorf("unexpected summary %v", m)
	}
}

func TestStore_SaveLoad(t *testing.T) {
	for _, codec := range []string{"none", "zstd", "lz4"} {
		t.Run(codec, func(t *testing.T) {
			store := New(t.TempDir())
			if err := store.Init(); err != nil {
				t.Fatal(err)
			}
			traj := sampleTrajectory()

			id, err := store.Save(RunMetadata{Kernel: "libsolver.so", Symbol: "next_2D", Dt: 0.25, Compression: codec}, traj)
			if err != nil {
				t.Fatalf("Save: %v", err)
			}

			meta, err := store.Load(id)
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			if meta.ID != id || meta.Particles != 2 || meta.Dimensions != 2 || meta.Symbol != "next_2D" {
				t.Errorf("unexpected metadata %+v", meta)
			}
			if meta.Metrics["frames"] != 4 {
				t.Errorf("expected frames metric 4, got %v", meta.Metrics["frames"])
			}

			got, err := store.LoadTrajectory(id)
			if err != nil {
				t.Fatalf("LoadTrajectory: %v", err)
			}
			if !reflect.DeepEqual(got, traj) {
				t.Errorf("trajectory changed on reload:\nwant %+v\ngot  %+v", traj, got)
			}
		})
	}
}

func TestStore_TimeRoundTrip(t *testing.T) {
	dt := float64(float32(0.01))
	traj := &Trajectory{Dim: 1, Particles: 1}
	for f, tm := range []float64{0, dt, 3 * dt, 1e-9, 12345.678901234} {
		traj.Frames = append(traj.Frames, FrameRecord{
			Frame:      uint64(f),
			Time:       tm,
			Positions:  []float32{float32(f)},
			Velocities: []float32{0},
		})
	}

	store := New(t.TempDir())
	id, err := store.Save(RunMetadata{}, traj)
	if err != nil {
		t.Fatal(err)
	}
	got, err := store.LoadTrajectory(id)
	if err != nil {
		t.Fatal(err)
	}
	for i, f := range got.Frames {
		if f.Time != traj.Frames[i].Time {
			t.Errorf("frame %d: time %v reloaded as %v", i, traj.Frames[i].Time, f.Time)
		}
	}
}

func TestStore_CompressedFileName(t *testing.T) {
	dir := t.TempDir()
	store := New(dir)
	id, err := store.Save(RunMetadata{Compression: "zstd"}, sampleTrajectory())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(filepath.Join(dir, id, "trajectory.csv.zst")); err != nil {
		t.Errorf("expected zstd trajectory file: %v", err)
	}
}

func TestStore_UnknownCompression(t *testing.T) {
	store := New(t.TempDir())
	_, err := store.Save(RunMetadata{Compression: "brotli"}, sampleTrajectory())
	if !errors.Is(err, ErrUnknownCompression) {
		t.Errorf("expected ErrUnknownCompression, got %v", err)
	}
}

func TestStore_List(t *testing.T) {
	store := New(t.TempDir())
	runs, err := store.List()
	if err != nil || len(runs) != 0 {
		t.Fatalf("expected empty list, got %v, %v", runs, err)
	}

	first, _ := store.Save(RunMetadata{}, sampleTrajectory())
	second, _ := store.Save(RunMetadata{Compression: "lz4"}, sampleTrajectory())

	runs, err = store.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(runs))
	}
	if runs[0].ID != first || runs[1].ID != second {
		t.Errorf("expected [%s %s], got [%s %s]", first, second, runs[0].ID, runs[1].ID)
	}
}

func TestList_MissingDir(t *testing.T) {
	store := New(filepath.Join(t.TempDir(), "nope"))
	runs, err := store.List()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(runs) != 0 {
		t.Errorf("expected no runs, got %d", len(runs))
	}
}

func TestReadTrajectory_Malformed(t *testing.T) {
	tests := []struct {
		name      string
		data      string
		particles int
	}{
		{"empty", "", 1},
		{"bad header", "frame,time,particle,x,vx,vy\n", 1},
		{"ragged rows", "frame,time,particle,x,vx\n0,0,0,1,1\n0,0,1,1,1\n1,0,0,1,1\n", 2},
		{"bad number", "frame,time,particle,x,vx\n0,0,0,abc,1\n", 1},
		{"field count", "frame,time,particle,x,vx\n0,0,0,1\n", 1},
		{"frame split across blocks", "frame,time,particle,x,vx\n0,0,0,1,1\n1,0.1,1,1,1\n1,0.1,0,1,1\n2,0.2,1,1,1\n", 2},
		{"time differs within frame", "frame,time,particle,x,vx\n0,0,0,1,1\n0,0.5,1,1,1\n", 2},
		{"particles out of order", "frame,time,particle,x,vx\n0,0,1,1,1\n0,0,0,1,1\n", 2},
		{"particle index gap", "frame,time,particle,x,vx\n0,0,0,1,1\n0,0,2,1,1\n", 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := readTrajectory(strings.NewReader(tt.data), tt.particles)
			if !errors.Is(err, ErrMalformedTrajectory) {
				t.Errorf("expected ErrMalformedTrajectory, got %v", err)
			}
		})
	}
}
