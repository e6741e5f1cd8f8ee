package main

import (
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"text/tabwriter"
	"time"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/san-kum/nbodyffi/internal/analysis"
	"github.com/san-kum/nbodyffi/internal/config"
	"github.com/san-kum/nbodyffi/internal/export"
	"github.com/san-kum/nbodyffi/internal/logging"
	"github.com/san-kum/nbodyffi/internal/native"
	"github.com/san-kum/nbodyffi/internal/storage"
)

var (
	configFile  string
	preset      string
	dataDir     string
	logLevel    string
	logJSON     bool
	kernel      string
	compiler    string
	dims        int
	dt          float32
	frames      int
	intervalMs  int
	radius      float64
	compression string
	particle    int
	axis        int
	outFile     string
)

func main() {
	rootCmd := &cobra.Command{
		Use:          "nbodyffi",
		Short:        "particle ensembles stepped by a native kernel",
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (yaml)")
	rootCmd.PersistentFlags().StringVar(&preset, "preset", "", "use preset configuration")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data", config.DefaultDataDir, "data directory")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", config.DefaultLogLevel, "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&logJSON, "log-json", false, "log as JSON")
	rootCmd.PersistentFlags().StringVar(&kernel, "kernel", config.DefaultSource, "kernel source file, directory or shared library")
	rootCmd.PersistentFlags().StringVar(&compiler, "cc", "", "C compiler (default $CC or cc)")

	buildCmd := &cobra.Command{
		Use:   "build [source]",
		Short: "compile a kernel source into a shared library",
		Args:  cobra.MaximumNArgs(1),
		RunE:  buildKernel,
	}

	inspectCmd := &cobra.Command{
		Use:   "inspect [source]",
		Short: "show which dimensionalities a kernel supports",
		Args:  cobra.MaximumNArgs(1),
		RunE:  inspectKernel,
	}

	runCmd := &cobra.Command{
		Use:   "run [particles]",
		Short: "step an ensemble headless and save the run",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runHeadless,
	}
	addStepFlags(runCmd)
	runCmd.Flags().StringVar(&compression, "compress", config.CompressionNone, "trajectory compression (none, zstd, lz4)")

	liveCmd := &cobra.Command{
		Use:   "live [particles]",
		Short: "step an ensemble with live terminal animation",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runLive,
	}
	addStepFlags(liveCmd)

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot run results",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}

	analyzeCmd := &cobra.Command{
		Use:   "analyze [run_id]",
		Short: "report oscillation frequency and phase portrait of a run",
		Args:  cobra.ExactArgs(1),
		RunE:  analyzeRun,
	}
	analyzeCmd.Flags().IntVar(&particle, "particle", 0, "particle index")
	analyzeCmd.Flags().IntVar(&axis, "axis", 0, "axis index (0=x, 1=y, 2=z)")

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "write particle paths of a run as SVG",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}
	exportCmd.Flags().StringVarP(&outFile, "out", "o", "", "output file (default <run_id>.svg)")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available presets",
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tDIMS\tN\tDT\tFRAMES")
			for _, name := range config.ListPresets() {
				p := config.GetPreset(name)
				fmt.Fprintf(w, "%s\t%d\t%d\t%.4f\t%d\n", name, p.Dimensions, p.Particles, p.Dt, p.Frames)
			}
			return w.Flush()
		},
	}

	rootCmd.AddCommand(buildCmd, inspectCmd, runCmd, liveCmd, listCmd, plotCmd, analyzeCmd, exportCmd, presetsCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func addStepFlags(cmd *cobra.Command) {
	cmd.Flags().IntVar(&dims, "dims", config.DefaultDimensions, "dimensionality (1, 2 or 3)")
	cmd.Flags().Float32Var(&dt, "dt", config.DefaultDt, "timestep")
	cmd.Flags().IntVar(&frames, "frames", config.DefaultFrames, "number of frames")
	cmd.Flags().IntVar(&intervalMs, "interval", config.DefaultIntervalMs, "milliseconds between frames (0 = unpaced)")
	cmd.Flags().Float64Var(&radius, "radius", config.DefaultRadius, "radius of the initial circle")
}

// resolveConfig layers defaults, preset, config file, explicitly set flags
// and the particle count argument, in that order. Keys absent from the
// config file keep their preset (or default) values.
func resolveConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.DefaultConfig()

	if preset != "" {
		cfg = config.GetPreset(preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
	}

	if configFile != "" {
		loaded, err := config.LoadOver(configFile, cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	flags := cmd.Flags()
	if flags.Changed("kernel") {
		cfg.Kernel.Source = kernel
	}
	if flags.Changed("cc") {
		cfg.Kernel.Compiler = compiler
	}
	if flags.Changed("data") {
		cfg.DataDir = dataDir
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = logLevel
	}
	if flags.Changed("dims") {
		cfg.Dimensions = dims
	}
	if flags.Changed("dt") {
		cfg.Dt = dt
	}
	if flags.Changed("frames") {
		cfg.Frames = frames
	}
	if flags.Changed("interval") {
		cfg.IntervalMs = intervalMs
	}
	if flags.Changed("radius") {
		cfg.Radius = radius
	}
	if flags.Changed("compress") {
		cfg.Compression = compression
	}

	if len(args) > 0 {
		n, err := parseParticles(args[0], rand.Intn)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%v; using %d particles\n", err, n)
		}
		cfg.Particles = n
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newLogger(level string) (*logging.Logger, error) {
	lvl, err := logging.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	if logJSON {
		return logging.NewJSON(lvl), nil
	}
	return logging.NewText(lvl), nil
}

func toolchain(cfg *config.Config) native.Toolchain {
	tc := native.DefaultToolchain()
	if cfg.Kernel.Compiler != "" {
		tc.Compiler = cfg.Kernel.Compiler
	}
	if len(cfg.Kernel.Flags) > 0 {
		tc.Flags = cfg.Kernel.Flags
	}
	return tc
}

// kernelConfig resolves the config for commands that only need the kernel;
// an explicit source argument wins over everything else.
func kernelConfig(cmd *cobra.Command, args []string) (*config.Config, *logging.Logger, error) {
	cfg, err := resolveConfig(cmd, nil)
	if err != nil {
		return nil, nil, err
	}
	if len(args) > 0 {
		cfg.Kernel.Source = args[0]
	}
	log, err := newLogger(cfg.LogLevel)
	if err != nil {
		return nil, nil, err
	}
	return cfg, log, nil
}

func buildKernel(cmd *cobra.Command, args []string) error {
	cfg, log, err := kernelConfig(cmd, args)
	if err != nil {
		return err
	}

	start := time.Now()
	art, err := native.NewPipeline(toolchain(cfg), log).Obtain(cmd.Context(), cfg.Kernel.Source)
	if err != nil {
		return err
	}

	switch {
	case art.Prebuilt:
		fmt.Printf("prebuilt: %s\n", art.Path)
	case art.Reused:
		fmt.Printf("up to date: %s\n", art.Path)
	default:
		fmt.Printf("built %s in %v\n", art.Path, time.Since(start).Round(time.Millisecond))
	}
	return nil
}

func inspectKernel(cmd *cobra.Command, args []string) error {
	cfg, log, err := kernelConfig(cmd, args)
	if err != nil {
		return err
	}

	art, err := native.NewPipeline(toolchain(cfg), log).Obtain(cmd.Context(), cfg.Kernel.Source)
	if err != nil {
		return err
	}
	mod, err := native.NewLoader(nil, log).Load(cmd.Context(), art.Path)
	if err != nil {
		return err
	}
	defer mod.Close()

	fmt.Printf("artifact: %s\n", art.Path)
	for d := 1; d <= 3; d++ {
		mark := "missing"
		if mod.Has(native.SymbolName(d)) {
			mark = "ok"
		}
		fmt.Printf("  %-8s %s\n", native.SymbolName(d), mark)
	}
	return nil
}

func runHeadless(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, args)
	if err != nil {
		return err
	}
	log, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	return dispatch(ctx, cfg, log, modeHeadless)
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, args)
	if err != nil {
		return err
	}
	// stderr belongs to the terminal UI while it runs
	return dispatch(cmd.Context(), cfg, logging.Noop(), modeLive)
}

func listRuns(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, nil)
	if err != nil {
		return err
	}
	runs, err := storage.New(cfg.DataDir).List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTIME\tDIMS\tN\tFRAMES\tDT\tCODEC\tKERNEL")

	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%d\t%.4f\t%s\t%s\n",
			run.ID,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Dimensions,
			run.Particles,
			run.Frames,
			run.Dt,
			run.Compression,
			run.Kernel,
		)
	}

	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	cfg, err := resolveConfig(cmd, nil)
	if err != nil {
		return err
	}
	st := storage.New(cfg.DataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}

	traj, err := st.LoadTrajectory(runID)
	if err != nil {
		return err
	}
	if len(traj.Frames) == 0 {
		return fmt.Errorf("no data to plot")
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("kernel: %s (%s)\n", meta.Kernel, meta.Symbol)
	fmt.Printf("particles: %d  dims: %d  dt: %.4f  frames: %d\n\n", meta.Particles, meta.Dimensions, meta.Dt, meta.Frames)

	x0 := make([]float64, len(traj.Frames))
	for i, f := range traj.Frames {
		x0[i] = float64(f.Positions[0])
	}

	fmt.Println(asciigraph.Plot(downsample(traj.MeanSpeed(), 70), asciigraph.Height(10), asciigraph.Caption("mean speed")))
	fmt.Println()
	fmt.Println(asciigraph.Plot(downsample(x0, 70), asciigraph.Height(10), asciigraph.Caption("particle 0 x")))

	fmt.Println("\nmetrics:")
	for _, name := range sortedKeys(meta.Metrics) {
		fmt.Printf("  %s: %.6f\n", name, meta.Metrics[name])
	}
	return nil
}

func analyzeRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	cfg, err := resolveConfig(cmd, nil)
	if err != nil {
		return err
	}
	st := storage.New(cfg.DataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	traj, err := st.LoadTrajectory(runID)
	if err != nil {
		return err
	}

	pp, err := analysis.NewPhasePortrait(traj, particle, axis)
	if err != nil {
		return err
	}
	xs, err := analysis.Coordinate(traj, particle, axis)
	if err != nil {
		return err
	}
	freq := analysis.DominantFrequency(xs, float64(meta.Dt))

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("particle %d axis %d over %d frames\n", particle, axis, len(traj.Frames))
	if freq > 0 {
		fmt.Printf("dominant frequency: %.4f (period %.3f)\n\n", freq, 1/freq)
	} else {
		fmt.Print("dominant frequency: none\n\n")
	}
	fmt.Println("phase portrait (position across, velocity up):")
	fmt.Print(pp.ASCII(60, 20))
	return nil
}

func exportRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	cfg, err := resolveConfig(cmd, nil)
	if err != nil {
		return err
	}
	traj, err := storage.New(cfg.DataDir).LoadTrajectory(runID)
	if err != nil {
		return err
	}

	svg := export.PathsSVG(traj, 800, 800)
	if svg == "" {
		return fmt.Errorf("run %s has fewer than two frames", runID)
	}

	out := outFile
	if out == "" {
		out = runID + ".svg"
	}
	if err := os.WriteFile(out, []byte(svg), 0644); err != nil {
		return err
	}
	fmt.Printf("wrote %s\n", out)
	return nil
}
