package main

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/san-kum/nbodyffi/internal/config"
	"github.com/san-kum/nbodyffi/internal/ensemble"
	"github.com/san-kum/nbodyffi/internal/logging"
	"github.com/san-kum/nbodyffi/internal/metrics"
	"github.com/san-kum/nbodyffi/internal/native"
	"github.com/san-kum/nbodyffi/internal/sim"
	"github.com/san-kum/nbodyffi/internal/storage"
	"github.com/san-kum/nbodyffi/internal/vector"
	"github.com/san-kum/nbodyffi/internal/viz"
)

type mode int

const (
	modeHeadless mode = iota
	modeLive
)

func dispatch(ctx context.Context, cfg *config.Config, log *logging.Logger, m mode) error {
	switch cfg.Dimensions {
	case 1:
		return simulate[vector.Vec1](ctx, cfg, log, m)
	case 2:
		return simulate[vector.Vec2](ctx, cfg, log, m)
	case 3:
		return simulate[vector.Vec3](ctx, cfg, log, m)
	}
	return fmt.Errorf("unsupported dimensionality: %d", cfg.Dimensions)
}

// session is one obtained, loaded and bound kernel with an ensemble to step.
type session[V vector.Vector] struct {
	cfg      *config.Config
	artifact native.Artifact
	module   *native.Module
	binding  *native.Binding[V]
	state    *ensemble.State[V]
	runner   *sim.Runner[V]
}

func openSession[V vector.Vector](ctx context.Context, cfg *config.Config, log *logging.Logger) (*session[V], error) {
	log = log.WithDimension(vector.Dim[V]()).WithParticles(cfg.Particles)

	art, err := native.NewPipeline(toolchain(cfg), log).Obtain(ctx, cfg.Kernel.Source)
	if err != nil {
		return nil, err
	}
	mod, err := native.NewLoader(nil, log).Load(ctx, art.Path)
	if err != nil {
		return nil, err
	}
	b, err := native.Bind[V](mod)
	if err != nil {
		mod.Close()
		return nil, err
	}

	pos, vel := circle[V](cfg.Particles, cfg.Radius)
	st, err := ensemble.NewState(pos, vel)
	if err != nil {
		mod.Close()
		return nil, err
	}

	runner := sim.New(ensemble.NewStepper[V](b, cfg.Particles, log), log)
	runner.AddMetric(metrics.NewKineticEnergy[V]())
	runner.AddMetric(metrics.NewKineticDrift[V]())
	runner.AddMetric(metrics.NewMeanSpeed[V]())
	runner.AddMetric(metrics.NewContainment[V](2 * cfg.Radius))

	return &session[V]{
		cfg:      cfg,
		artifact: art,
		module:   mod,
		binding:  b,
		state:    st,
		runner:   runner,
	}, nil
}

func (s *session[V]) Close() error { return s.module.Close() }

func (s *session[V]) simConfig() sim.Config {
	return sim.Config{
		Dt:       s.cfg.Dt,
		Frames:   s.cfg.Frames,
		Interval: time.Duration(s.cfg.IntervalMs) * time.Millisecond,
	}
}

func simulate[V vector.Vector](ctx context.Context, cfg *config.Config, log *logging.Logger, m mode) error {
	s, err := openSession[V](ctx, cfg, log)
	if err != nil {
		return err
	}
	defer s.Close()

	if m == modeLive {
		return s.live(ctx)
	}
	return s.headless(ctx)
}

// headless runs to completion and saves whatever was recorded, including a
// partial run after an interrupt or a failed frame.
func (s *session[V]) headless(ctx context.Context) error {
	rec := storage.NewRecorder[V](s.cfg.Particles)
	s.runner.AddObserver(rec)

	fmt.Printf("stepping %d particles in %dD with %s...\n", s.cfg.Particles, vector.Dim[V](), s.binding.Symbol())
	result, runErr := s.runner.Run(ctx, s.state, s.simConfig())
	if result == nil {
		return runErr
	}

	store := storage.New(s.cfg.DataDir)
	runID, err := store.Save(storage.RunMetadata{
		Kernel:      s.artifact.Path,
		Symbol:      s.binding.Symbol(),
		Radius:      s.cfg.Radius,
		Dt:          s.cfg.Dt,
		Frames:      result.Frames,
		WallTime:    result.Wall,
		MeanStep:    result.MeanStep,
		Compression: s.cfg.Compression,
		Metrics:     result.Metrics,
	}, rec.Trajectory())
	if err != nil {
		return err
	}

	fmt.Printf("completed in %v\n", result.Wall.Round(time.Millisecond))
	fmt.Printf("run id: %s\n", runID)
	fmt.Printf("frames: %d (mean step %v)\n", result.Frames, result.MeanStep)
	fmt.Println("\nmetrics:")
	for _, name := range sortedKeys(result.Metrics) {
		fmt.Printf("  %s: %.6f\n", name, result.Metrics[name])
	}
	return runErr
}

// live steps on a background goroutine while the terminal UI polls the
// ensemble. Quitting the UI cancels the run.
func (s *session[V]) live(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	interval := time.Duration(s.cfg.IntervalMs) * time.Millisecond
	title := fmt.Sprintf("%s  n=%d", s.binding.Symbol(), s.cfg.Particles)
	p := tea.NewProgram(viz.NewModel[V](s.state, title, 1.25*s.cfg.Radius, interval), tea.WithAltScreen())

	done := make(chan struct{})
	go func() {
		defer close(done)
		result, err := s.runner.Run(ctx, s.state, s.simConfig())
		p.Send(viz.DoneMsg{Result: result, Err: err})
	}()

	_, err := p.Run()
	cancel()
	<-done
	return err
}
