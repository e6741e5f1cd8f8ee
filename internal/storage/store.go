package storage

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"
)

var ErrMalformedTrajectory = errors.New("storage: malformed trajectory")

var axes = []string{"x", "y", "z"}

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type RunMetadata struct {
	ID          string             `json:"id"`
	Timestamp   time.Time          `json:"timestamp"`
	Kernel      string             `json:"kernel"`
	Symbol      string             `json:"symbol"`
	Dimensions  int                `json:"dimensions"`
	Particles   int                `json:"particles"`
	Radius      float64            `json:"radius"`
	Dt          float32            `json:"dt"`
	Frames      int                `json:"frames"`
	WallTime    time.Duration      `json:"wall_time_ns"`
	MeanStep    time.Duration      `json:"mean_step_ns"`
	Compression string             `json:"compression"`
	Metrics     map[string]float64 `json:"metrics"`
}

// Save writes meta and traj under a new run directory and returns its ID.
// meta.ID, Timestamp and the shape fields are filled in here; the trajectory
// summary is merged into meta.Metrics.
func (s *Store) Save(meta RunMetadata, traj *Trajectory) (string, error) {
	name, err := trajectoryFile(meta.Compression)
	if err != nil {
		return "", err
	}

	if err := s.Init(); err != nil {
		return "", err
	}
	now := time.Now()
	runID, runDir, err := s.newRunDir(traj.Dim, now)
	if err != nil {
		return "", err
	}

	meta.ID = runID
	meta.Timestamp = now
	meta.Dimensions = traj.Dim
	meta.Particles = traj.Particles
	if meta.Metrics == nil {
		meta.Metrics = make(map[string]float64)
	}
	for k, v := range traj.Summary() {
		meta.Metrics[k] = v
	}

	if err := writeJSON(filepath.Join(runDir, "metadata.json"), meta); err != nil {
		return "", err
	}

	f, err := os.Create(filepath.Join(runDir, name))
	if err != nil {
		return "", err
	}
	defer f.Close()

	cw, err := compressWriter(f, meta.Compression)
	if err != nil {
		return "", err
	}
	if err := writeTrajectory(cw, traj); err != nil {
		cw.Close()
		return "", err
	}
	if err := cw.Close(); err != nil {
		return "", err
	}
	return runID, f.Close()
}

// newRunDir creates a fresh run directory, bumping the suffix if another run
// already took the name.
func (s *Store) newRunDir(dim int, now time.Time) (string, string, error) {
	stamp := now.UnixNano()
	for {
		runID := fmt.Sprintf("nbody%dd_%d", dim, stamp)
		runDir := filepath.Join(s.baseDir, runID)
		err := os.Mkdir(runDir, 0755)
		if err == nil {
			return runID, runDir, nil
		}
		if !os.IsExist(err) {
			return "", "", err
		}
		stamp++
	}
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return err
	}
	return f.Close()
}

// writeTrajectory emits one row per particle per frame:
// frame,time,particle,x..,vx..
func writeTrajectory(w io.Writer, traj *Trajectory) error {
	cw := csv.NewWriter(w)

	header := []string{"frame", "time", "particle"}
	for _, prefix := range []string{"", "v"} {
		for _, a := range axes[:traj.Dim] {
			header = append(header, prefix+a)
		}
	}
	if err := cw.Write(header); err != nil {
		return err
	}

	row := make([]string, len(header))
	for _, f := range traj.Frames {
		row[0] = strconv.FormatUint(f.Frame, 10)
		row[1] = strconv.FormatFloat(f.Time, 'g', -1, 64)
		for p := 0; p < traj.Particles; p++ {
			row[2] = strconv.Itoa(p)
			for d := 0; d < traj.Dim; d++ {
				row[3+d] = strconv.FormatFloat(float64(f.Positions[p*traj.Dim+d]), 'g', -1, 32)
				row[3+traj.Dim+d] = strconv.FormatFloat(float64(f.Velocities[p*traj.Dim+d]), 'g', -1, 32)
			}
			if err := cw.Write(row); err != nil {
				return err
			}
		}
	}
	cw.Flush()
	return cw.Error()
}

// List returns the stored runs, oldest first.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}

	sort.Slice(runs, func(i, j int) bool {
		if !runs[i].Timestamp.Equal(runs[j].Timestamp) {
			return runs[i].Timestamp.Before(runs[j].Timestamp)
		}
		return runs[i].ID < runs[j].ID
	})
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, "metadata.json"))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

func (s *Store) LoadTrajectory(runID string) (*Trajectory, error) {
	meta, err := s.Load(runID)
	if err != nil {
		return nil, err
	}
	name, err := trajectoryFile(meta.Compression)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(filepath.Join(s.baseDir, runID, name))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r, release, err := decompressReader(f, meta.Compression)
	if err != nil {
		return nil, err
	}
	defer release()

	return readTrajectory(r, meta.Particles)
}

func readTrajectory(r io.Reader, particles int) (*Trajectory, error) {
	records, err := csv.NewReader(r).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedTrajectory, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: missing header", ErrMalformedTrajectory)
	}

	dim := (len(records[0]) - 3) / 2
	if dim < 1 || dim > 3 || len(records[0]) != 3+2*dim {
		return nil, fmt.Errorf("%w: header %v", ErrMalformedTrajectory, records[0])
	}
	traj := &Trajectory{Dim: dim, Particles: particles}

	rows := records[1:]
	if particles < 1 || len(rows)%particles != 0 {
		return nil, fmt.Errorf("%w: %d rows for %d particles", ErrMalformedTrajectory, len(rows), particles)
	}

	for i := 0; i < len(rows); i += particles {
		frame, err := strconv.ParseUint(rows[i][0], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedTrajectory, err)
		}
		t, err := strconv.ParseFloat(rows[i][1], 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedTrajectory, err)
		}
		rec := FrameRecord{
			Frame:      frame,
			Time:       t,
			Positions:  make([]float32, 0, particles*dim),
			Velocities: make([]float32, 0, particles*dim),
		}
		for j, row := range rows[i : i+particles] {
			if row[0] != rows[i][0] || row[1] != rows[i][1] {
				return nil, fmt.Errorf("%w: row %d belongs to frame %s, expected frame %s",
					ErrMalformedTrajectory, i+j+2, row[0], rows[i][0])
			}
			if row[2] != strconv.Itoa(j) {
				return nil, fmt.Errorf("%w: row %d has particle %s, expected %d",
					ErrMalformedTrajectory, i+j+2, row[2], j)
			}
			for d := 0; d < dim; d++ {
				p, err := strconv.ParseFloat(row[3+d], 32)
				if err != nil {
					return nil, fmt.Errorf("%w: %v", ErrMalformedTrajectory, err)
				}
				v, err := strconv.ParseFloat(row[3+dim+d], 32)
				if err != nil {
					return nil, fmt.Errorf("%w: %v", ErrMalformedTrajectory, err)
				}
				rec.Positions = append(rec.Positions, float32(p))
				rec.Velocities = append(rec.Velocities, float32(v))
			}
		}
		traj.Frames = append(traj.Frames, rec)
	}
	return traj, nil
}
