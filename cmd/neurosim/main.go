package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/san-kum/neurosim/internal/analysis"
	"github.com/san-kum/neurosim/internal/automation"
	"github.com/san-kum/neurosim/internal/config"
	"github.com/san-kum/neurosim/internal/experiment"
	"github.com/san-kum/neurosim/internal/export"
	"github.com/san-kum/neurosim/internal/metrics"
	"github.com/san-kum/neurosim/internal/ml"
	"github.com/san-kum/neurosim/internal/optim"
	"github.com/san-kum/neurosim/internal/sim"
	"github.com/san-kum/neurosim/internal/storage"
	"github.com/san-kum/neurosim/internal/viz"
)

var (
	configFile string
	dataDir    string
	backend    string
	logLevel   string

	preset    string
	seed      int64
	dt        float64
	speed     float64
	intensity float64
	ticks     int
	maxIter   int
	periodMs  int
	epochs    int
	params    []string
	options   []string

	noSave    bool
	metricKey string
	themeName string
	outFile   string
	width     int
	height    int
	series    bool
	braille   bool

	sweepMin   float64
	sweepMax   float64
	sweepSteps int
	diagram    string
	transient  int
	trials     int
	versus     string
	grid       []string
	objective  string
	maximize   bool
)

// canvasScale is the SVG size of one braille sub-pixel.
const canvasScale = 5

func main() {
	rootCmd := &cobra.Command{
		Use:          "neurosim",
		Short:        "neural network simulation lab",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return viz.RunInteractive(experiment.NewRegistry())
		},
	}

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (yaml)")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data", config.DefaultRunsDir, "run record directory")
	rootCmd.PersistentFlags().StringVar(&backend, "backend", config.DefaultBackend, "run store backend (file, sqlite)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level (debug, info, warn, error)")

	runCmd := &cobra.Command{
		Use:   "run [sim]",
		Short: "run a simulation headless and save the run",
		Args:  cobra.ExactArgs(1),
		RunE:  runSimulation,
	}
	simFlags(runCmd)
	runCmd.Flags().BoolVar(&noSave, "no-save", false, "do not save a run record")
	runCmd.Flags().StringVar(&metricKey, "metric", "", "metric to chart (default: first summary metric)")

	liveCmd := &cobra.Command{
		Use:   "live [sim]",
		Short: "run a simulation in the terminal view",
		Args:  cobra.ExactArgs(1),
		RunE:  runLive,
	}
	simFlags(liveCmd)
	liveCmd.Flags().StringVar(&themeName, "theme", "cortex", "color theme ("+strings.Join(viz.ThemeNames(), ", ")+")")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list saved runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot the metrics of a saved run",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().StringVar(&metricKey, "metric", "", "plot only this metric")

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export a saved run to JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}
	exportCmd.Flags().StringVarP(&outFile, "out", "o", "", "output file (default: stdout)")

	exportSVGCmd := &cobra.Command{
		Use:   "export-svg [sim]",
		Short: "render a simulation frame (or its metric history) as SVG",
		Args:  cobra.ExactArgs(1),
		RunE:  exportSVG,
	}
	simFlags(exportSVGCmd)
	exportSVGCmd.Flags().StringVarP(&outFile, "out", "o", "", "output file (default: <sim>.svg)")
	exportSVGCmd.Flags().IntVar(&width, "width", 800, "image width")
	exportSVGCmd.Flags().IntVar(&height, "height", 500, "image height")
	exportSVGCmd.Flags().BoolVar(&series, "series", false, "plot the metric history instead of the final frame")
	exportSVGCmd.Flags().BoolVar(&braille, "canvas", false, "render the braille view of the final frame as dots")
	exportSVGCmd.Flags().StringVar(&themeName, "theme", "cortex", "color theme")

	presetsCmd := &cobra.Command{
		Use:   "presets [sim]",
		Short: "list available presets for a simulation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			presets := config.ListPresets(args[0])
			if len(presets) == 0 {
				fmt.Printf("no presets for sim: %s\n", args[0])
				return nil
			}
			fmt.Printf("presets for %s:\n", args[0])
			for _, p := range presets {
				fmt.Printf("  %s\n", p)
			}
			return nil
		},
	}

	classifyCmd := &cobra.Command{
		Use:   "classify [grid_file]",
		Short: "classify a 28x28 digit grid (- reads stdin)",
		Args:  cobra.ExactArgs(1),
		RunE:  classifyGrid,
	}

	scenarioCmd := &cobra.Command{
		Use:   "scenario [file]",
		Short: "run a yaml scenario of headless runs",
		Args:  cobra.ExactArgs(1),
		RunE:  runScenario,
	}
	scenarioCmd.Flags().BoolVar(&noSave, "no-save", false, "do not save run records")

	sweepCmd := &cobra.Command{
		Use:   "sweep [sim] [param]",
		Short: "sweep one parameter and summarize each run",
		Args:  cobra.ExactArgs(2),
		RunE:  runSweep,
	}
	simFlags(sweepCmd)
	sweepCmd.Flags().Float64Var(&sweepMin, "min", 0, "first parameter value")
	sweepCmd.Flags().Float64Var(&sweepMax, "max", 1, "last parameter value")
	sweepCmd.Flags().IntVar(&sweepSteps, "steps", 5, "number of parameter values")
	sweepCmd.Flags().StringVar(&diagram, "diagram", "", "draw a response diagram of this metric")
	sweepCmd.Flags().IntVar(&transient, "transient", 100, "ticks discarded before recording (diagram)")

	ensembleCmd := &cobra.Command{
		Use:   "ensemble [sim]",
		Short: "run independent seeds in parallel and summarize final metrics",
		Args:  cobra.ExactArgs(1),
		RunE:  runEnsemble,
	}
	simFlags(ensembleCmd)
	ensembleCmd.Flags().IntVar(&trials, "trials", 8, "number of runs")

	analyzeCmd := &cobra.Command{
		Use:   "analyze [run_id] [metric]",
		Short: "rhythm and threshold analysis of a recorded metric",
		Args:  cobra.ExactArgs(2),
		RunE:  analyzeRun,
	}
	analyzeCmd.Flags().StringVar(&versus, "vs", "", "second metric for a phase portrait")

	watchCmd := &cobra.Command{
		Use:   "watch [sim]",
		Short: "tick a simulation in real time and print its metrics",
		Args:  cobra.ExactArgs(1),
		RunE:  runWatch,
	}
	simFlags(watchCmd)
	watchCmd.Flags().StringVar(&metricKey, "metric", "", "print only this metric")

	tuneCmd := &cobra.Command{
		Use:   "tune [sim]",
		Short: "grid search parameters for the best run summary",
		Args:  cobra.ExactArgs(1),
		RunE:  runTune,
	}
	simFlags(tuneCmd)
	tuneCmd.Flags().StringArrayVar(&grid, "grid", nil, "parameter range name=min:max:steps or name=v1,v2 (repeatable)")
	tuneCmd.Flags().StringVar(&objective, "objective", "", "summary metric to optimize")
	tuneCmd.Flags().BoolVar(&maximize, "maximize", false, "maximize instead of minimize")
	_ = tuneCmd.MarkFlagRequired("grid")
	_ = tuneCmd.MarkFlagRequired("objective")

	rootCmd.AddCommand(runCmd, liveCmd, listCmd, plotCmd, exportCmd, exportSVGCmd, presetsCmd, classifyCmd, scenarioCmd, sweepCmd, ensembleCmd, analyzeCmd, tuneCmd, watchCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func simFlags(cmd *cobra.Command) {
	def := config.DefaultConfig()
	f := cmd.Flags()
	f.StringVar(&preset, "preset", "", "use preset configuration")
	f.Int64Var(&seed, "seed", def.Seed, "random seed")
	f.Float64Var(&dt, "dt", def.Dt, "time step")
	f.Float64Var(&speed, "speed", def.Speed, "speed multiplier")
	f.Float64Var(&intensity, "intensity", def.Intensity, "input intensity in [0,1]")
	f.IntVar(&ticks, "ticks", def.Ticks, "ticks to run")
	f.IntVar(&maxIter, "max-iter", 0, "iteration ceiling (0 = none)")
	f.IntVar(&periodMs, "period", def.PeriodMs, "live tick period in ms")
	f.IntVar(&epochs, "epochs", def.ANN.Epochs, "ann training epochs")
	f.StringArrayVarP(&params, "param", "p", nil, "simulation parameter name=value (repeatable)")
	f.StringArrayVar(&options, "option", nil, "simulation option name=value (repeatable)")
}

// baseConfig loads the config file, if any, and applies the global flags.
func baseConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}
	if cmd.Flags().Changed("data") || cfg.Storage.Dir == "" {
		cfg.Storage.Dir = dataDir
	}
	if cmd.Flags().Changed("backend") || cfg.Storage.Backend == "" {
		cfg.Storage.Backend = backend
	}
	if cmd.Flags().Changed("log-level") {
		cfg.Log.Level = logLevel
	}
	return cfg, cfg.Validate()
}

// simConfig resolves the config for simName: config file, then preset, then
// any flag set on the command line.
func simConfig(cmd *cobra.Command, simName string) (*config.Config, error) {
	cfg, err := baseConfig(cmd)
	if err != nil {
		return nil, err
	}
	if cfg.Sim != simName {
		cfg.Params, cfg.Options = nil, nil
	}
	cfg.Sim = simName

	if preset != "" {
		p := config.GetPreset(simName, preset)
		if p == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets(simName))
		}
		p.Storage, p.Log = cfg.Storage, cfg.Log
		if configFile != "" {
			p.Seed = cfg.Seed
		}
		cfg = p
	}

	f := cmd.Flags()
	if f.Changed("seed") {
		cfg.Seed = seed
	}
	if f.Changed("dt") {
		cfg.Dt = dt
	}
	if f.Changed("speed") {
		cfg.Speed = speed
	}
	if f.Changed("intensity") {
		cfg.Intensity = intensity
	}
	if f.Changed("ticks") {
		cfg.Ticks = ticks
	}
	if f.Changed("max-iter") {
		cfg.MaxIterations = maxIter
	}
	if f.Changed("period") {
		cfg.PeriodMs = periodMs
	}
	if f.Changed("epochs") {
		cfg.ANN.Epochs = epochs
	}

	kv, err := parsePairs(params)
	if err != nil {
		return nil, err
	}
	for k, v := range kv {
		val, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, fmt.Errorf("param %s: %w", k, err)
		}
		if cfg.Params == nil {
			cfg.Params = map[string]float64{}
		}
		cfg.Params[k] = val
	}
	kv, err = parsePairs(options)
	if err != nil {
		return nil, err
	}
	for k, v := range kv {
		if cfg.Options == nil {
			cfg.Options = map[string]string{}
		}
		cfg.Options[k] = v
	}

	return cfg, cfg.Validate()
}

func parsePairs(pairs []string) (map[string]string, error) {
	out := make(map[string]string, len(pairs))
	for _, p := range pairs {
		k, v, ok := strings.Cut(p, "=")
		k = strings.TrimSpace(k)
		if !ok || k == "" {
			return nil, fmt.Errorf("expected name=value, got %q", p)
		}
		out[k] = strings.TrimSpace(v)
	}
	return out, nil
}

func newLogger(cfg *config.Config) *slog.Logger {
	return cfg.Log.Logger(os.Stderr)
}

func openStore(ctx context.Context, cfg *config.Config) (storage.RunStore, error) {
	st, err := storage.New(cfg.Storage.Backend, cfg.Storage.Dir)
	if err != nil {
		return nil, err
	}
	if err := st.Init(ctx); err != nil {
		return nil, err
	}
	return st, nil
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}

func runMetadata(id string, cfg *config.Config, res *experiment.Result) storage.RunMetadata {
	return storage.RunMetadata{
		ID:        id,
		Sim:       cfg.Sim,
		Session:   res.Session,
		Seed:      cfg.Seed,
		Dt:        cfg.Dt,
		Speed:     cfg.Speed,
		Intensity: cfg.Intensity,
		Ticks:     res.Ticks,
		Options:   cfg.Options,
		Params:    cfg.Params,
		Metrics:   res.Summary,
	}
}

func runSimulation(cmd *cobra.Command, args []string) error {
	cfg, err := simConfig(cmd, args[0])
	if err != nil {
		return err
	}
	ctx, cancel := signalContext()
	defer cancel()

	exp, err := experiment.New(experiment.NewRegistry(), cfg, newLogger(cfg))
	if err != nil {
		return err
	}

	fmt.Printf("running %s simulation...\n", cfg.Sim)
	start := time.Now()
	result, err := exp.Run(ctx, cfg.Ticks)
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	fmt.Printf("completed in %v\n", elapsed)
	if !noSave {
		st, err := openStore(ctx, cfg)
		if err != nil {
			return err
		}
		defer st.Close()
		runID, err := st.Save(ctx, runMetadata("", cfg, result), result.Series)
		if err != nil {
			return err
		}
		fmt.Printf("run id: %s\n", runID)
	}
	fmt.Printf("ticks: %d\n", result.Ticks)
	printSummary(result.Summary)

	key := metricKey
	if key == "" {
		key = chartMetric(result)
	}
	if col, ok := result.Series.Column(key); ok && len(col) > 1 {
		fmt.Println()
		fmt.Println(asciigraph.Plot(col, asciigraph.Height(10), asciigraph.Width(80), asciigraph.Caption(key)))
	} else if metricKey != "" {
		return fmt.Errorf("no metric %q (have %v)", metricKey, result.Series.Names())
	}
	return nil
}

// chartMetric picks the frame metric behind the first summary entry.
func chartMetric(res *experiment.Result) string {
	names := make([]string, 0, len(res.Summary))
	for k := range res.Summary {
		names = append(names, k)
	}
	sort.Strings(names)
	for _, n := range names {
		if _, key, ok := strings.Cut(n, "_"); ok {
			if _, found := res.Series.Column(key); found {
				return key
			}
		}
	}
	if all := res.Series.Names(); len(all) > 0 {
		return all[0]
	}
	return ""
}

func printSummary(summary map[string]float64) {
	fmt.Println("\nmetrics:")
	names := make([]string, 0, len(summary))
	for k := range summary {
		names = append(names, k)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Printf("  %s: %.6f\n", name, summary[name])
	}
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, err := simConfig(cmd, args[0])
	if err != nil {
		return err
	}
	viz.SetTheme(themeName)

	// the terminal owns stdout; only errors go to stderr
	cfg.Log.Level = "error"
	exp, err := experiment.New(experiment.NewRegistry(), cfg, newLogger(cfg))
	if err != nil {
		return err
	}
	return viz.Run(exp.Session(), time.Duration(cfg.PeriodMs)*time.Millisecond)
}

func listRuns(cmd *cobra.Command, args []string) error {
	cfg, err := baseConfig(cmd)
	if err != nil {
		return err
	}
	ctx := context.Background()
	st, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	runs, err := st.List(ctx)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSIM\tTIME\tTICKS\tSEED\tSPEED\tINTENSITY")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%.2f\t%.2f\n",
			run.ID,
			run.Sim,
			run.Timestamp.Local().Format("2006-01-02 15:04:05"),
			run.Ticks,
			run.Seed,
			run.Speed,
			run.Intensity,
		)
	}
	return w.Flush()
}

func loadRun(cmd *cobra.Command, runID string) (*storage.RunMetadata, *metrics.Series, error) {
	cfg, err := baseConfig(cmd)
	if err != nil {
		return nil, nil, err
	}
	ctx := context.Background()
	st, err := openStore(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	defer st.Close()

	meta, err := st.Load(ctx, runID)
	if err != nil {
		return nil, nil, err
	}
	s, err := st.LoadSeries(ctx, runID)
	if err != nil {
		return nil, nil, err
	}
	return meta, s, nil
}

func plotRun(cmd *cobra.Command, args []string) error {
	meta, s, err := loadRun(cmd, args[0])
	if err != nil {
		return err
	}
	if s.Len() == 0 {
		return fmt.Errorf("no data to plot")
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("sim: %s\n", meta.Sim)
	fmt.Printf("samples: %d\n\n", s.Len())

	names := s.Names()
	if metricKey != "" {
		names = []string{metricKey}
	}
	const maxPlots = 6
	if len(names) > maxPlots {
		names = names[:maxPlots]
	}
	for _, name := range names {
		col, ok := s.Column(name)
		if !ok {
			return fmt.Errorf("no metric %q (have %v)", name, s.Names())
		}
		fmt.Println(asciigraph.Plot(col, asciigraph.Height(10), asciigraph.Width(80), asciigraph.Caption(name)))
		fmt.Println()
	}
	return nil
}

func exportRun(cmd *cobra.Command, args []string) error {
	meta, s, err := loadRun(cmd, args[0])
	if err != nil {
		return err
	}
	return writeOut(outFile, func(w io.Writer) error {
		return storage.ExportJSON(w, *meta, s)
	})
}

func writeOut(path string, write func(io.Writer) error) error {
	if path == "" || path == "-" {
		return write(os.Stdout)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func exportSVG(cmd *cobra.Command, args []string) error {
	cfg, err := simConfig(cmd, args[0])
	if err != nil {
		return err
	}
	ctx, cancel := signalContext()
	defer cancel()

	exp, err := experiment.New(experiment.NewRegistry(), cfg, newLogger(cfg))
	if err != nil {
		return err
	}
	result, err := exp.Run(ctx, cfg.Ticks)
	if err != nil {
		return err
	}

	theme := viz.GetTheme(themeName)
	var svg string
	switch {
	case series:
		svg = export.SeriesToSVG(result.Series, nil, width, height, theme)
	case braille:
		canvas := viz.NewCanvas(max(1, width/canvasScale/2), max(1, height/canvasScale/4))
		viz.RenderFrame(canvas, result.Final)
		svg = export.CanvasToSVG(canvas, canvasScale, theme)
	default:
		svg = export.FrameToSVG(result.Final, width, height, theme)
	}
	if svg == "" {
		return fmt.Errorf("nothing to draw after %d ticks", result.Ticks)
	}

	path := outFile
	if path == "" {
		path = cfg.Sim + ".svg"
	}
	if err := writeOut(path, func(w io.Writer) error {
		_, err := io.WriteString(w, svg)
		return err
	}); err != nil {
		return err
	}
	if path != "-" {
		fmt.Printf("wrote %s (iteration %d)\n", path, result.Final.Iteration)
	}
	return nil
}

func classifyGrid(cmd *cobra.Command, args []string) error {
	var r io.Reader = os.Stdin
	if args[0] != "-" {
		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()
		r = f
	}

	grid, err := ml.ParseGrid(r)
	if err != nil {
		return err
	}
	pred := ml.Classify(grid)

	fmt.Print(grid.String())
	fmt.Println()
	if pred.Digit < 0 {
		fmt.Println("empty grid: no prediction")
		return nil
	}
	fmt.Printf("digit: %d  confidence: %.1f%%", pred.Digit, pred.Confidence*100)
	if pred.LowConfidence {
		fmt.Print("  (low confidence)")
	}
	fmt.Println()
	fmt.Println()
	for d, p := range pred.Probs {
		fmt.Printf("  %d %5.1f%% %s\n", d, p*100, strings.Repeat("█", int(p*40+0.5)))
	}
	return nil
}

func runScenario(cmd *cobra.Command, args []string) error {
	sc, err := automation.LoadScenario(args[0])
	if err != nil {
		return err
	}
	base, err := baseConfig(cmd)
	if err != nil {
		return err
	}
	ctx, cancel := signalContext()
	defer cancel()

	fmt.Printf("scenario: %s (%d steps)\n", sc.Name, len(sc.Steps))
	if sc.Description != "" {
		fmt.Println(sc.Description)
	}

	results, runErr := automation.RunScenario(ctx, sc, experiment.NewRegistry(), base, newLogger(base))

	var st storage.RunStore
	if !noSave && len(results) > 0 {
		if st, err = openStore(ctx, base); err != nil {
			return err
		}
		defer st.Close()
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "STEP\tSIM\tTICKS\tRUN\tSUMMARY")
	for i, r := range results {
		name := r.Step.Name
		if name == "" {
			name = strconv.Itoa(i + 1)
		}
		runID := "-"
		if st != nil {
			if runID, err = st.Save(ctx, runMetadata(r.Step.SaveAs, r.Config, r.Result), r.Result.Series); err != nil {
				return err
			}
		}
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\n", name, r.Config.Sim, r.Result.Ticks, runID, formatSummary(r.Result.Summary))
	}
	if err := w.Flush(); err != nil {
		return err
	}
	return runErr
}

func formatSummary(summary map[string]float64) string {
	names := make([]string, 0, len(summary))
	for k := range summary {
		names = append(names, k)
	}
	sort.Strings(names)
	parts := make([]string, len(names))
	for i, k := range names {
		parts[i] = fmt.Sprintf("%s=%.4g", k, summary[k])
	}
	return strings.Join(parts, " ")
}

func runSweep(cmd *cobra.Command, args []string) error {
	cfg, err := simConfig(cmd, args[0])
	if err != nil {
		return err
	}
	param := args[1]
	ctx, cancel := signalContext()
	defer cancel()
	reg := experiment.NewRegistry()

	if diagram != "" {
		factory, simCfg, err := reg.Factory(cfg)
		if err != nil {
			return err
		}
		points, err := analysis.ResponseDiagram(ctx, factory, simCfg, param, sweepMin, sweepMax, sweepSteps, diagram, transient, cfg.Ticks)
		if err != nil {
			return err
		}
		fmt.Printf("response of %s to %s in [%g, %g]\n\n", diagram, param, sweepMin, sweepMax)
		fmt.Println(analysis.ResponseToASCII(points, 80, 20))
		return nil
	}

	results, err := automation.RunSweep(ctx, &automation.ParameterSweep{
		Base:      cfg,
		ParamName: param,
		ParamMin:  sweepMin,
		ParamMax:  sweepMax,
		NumSteps:  sweepSteps,
		Ticks:     cfg.Ticks,
	}, reg, newLogger(cfg))
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%s\tTICKS\tSUMMARY\n", strings.ToUpper(param))
	for _, r := range results {
		fmt.Fprintf(w, "%.4g\t%d\t%s\n", r.ParamValue, r.Ticks, formatSummary(r.Summary))
	}
	return w.Flush()
}

func runEnsemble(cmd *cobra.Command, args []string) error {
	cfg, err := simConfig(cmd, args[0])
	if err != nil {
		return err
	}
	ctx, cancel := signalContext()
	defer cancel()

	start := time.Now()
	res, err := automation.RunMonteCarlo(ctx, experiment.NewRegistry(), cfg, trials, cfg.Ticks)
	if err != nil {
		return err
	}
	fmt.Printf("%d runs of %s, seeds %d..%d, %v\n\n", res.Trials, cfg.Sim, cfg.Seed, cfg.Seed+int64(res.Trials)-1, time.Since(start))

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "METRIC\tMEAN\tSTD\tMIN\tMAX")
	for _, name := range res.Names() {
		s := res.Metrics[name]
		fmt.Fprintf(w, "%s\t%.4f\t%.4f\t%.4f\t%.4f\n", name, s.Mean, s.Std, s.Min, s.Max)
	}
	return w.Flush()
}

func analyzeRun(cmd *cobra.Command, args []string) error {
	meta, s, err := loadRun(cmd, args[0])
	if err != nil {
		return err
	}
	name := args[1]
	data, ok := s.Column(name)
	if !ok || len(data) == 0 {
		return fmt.Errorf("no metric %q (have %v)", name, s.Names())
	}
	stats, _ := s.Stats(name)

	fmt.Printf("analysis: %s\n", meta.ID)
	fmt.Printf("sim: %s  metric: %s  samples: %d\n\n", meta.Sim, name, len(data))
	fmt.Printf("min %.4f  max %.4f  mean %.4f  last %.4f\n", stats.Min, stats.Max, stats.Mean, stats.Last)
	fmt.Printf("mean crossings: %d\n\n", len(analysis.Crossings(data, stats.Mean)))

	sampleDt := meta.Dt * meta.Speed
	if len(s.Times) > 1 {
		sampleDt = s.Times[1] - s.Times[0]
	}
	if rhythm, ok := analysis.DominantRhythm(data, sampleDt); ok {
		ps := analysis.PowerSpectrum(data)
		fmt.Println(asciigraph.Plot(ps[1:], asciigraph.Height(12), asciigraph.Width(80), asciigraph.Caption("power spectrum ("+name+")")))
		fmt.Println()
		fmt.Printf("dominant frequency: %.4f per time unit\n", rhythm.Frequency)
		fmt.Printf("period: %.2f time units\n", rhythm.Period)
	} else {
		fmt.Println("no rhythm: series too short or flat")
	}

	if versus != "" {
		ys, ok := s.Column(versus)
		if !ok {
			return fmt.Errorf("no metric %q (have %v)", versus, s.Names())
		}
		fmt.Printf("\nphase portrait: %s vs %s\n\n", versus, name)
		fmt.Println(analysis.PhasePortraitToASCII(analysis.NewPhasePortrait(name, data, versus, ys), 80, 24))
	}
	return nil
}

func runTune(cmd *cobra.Command, args []string) error {
	cfg, err := simConfig(cmd, args[0])
	if err != nil {
		return err
	}
	var names []string
	var ranges [][]float64
	for _, g := range grid {
		name, vals, err := optim.ParseRange(g)
		if err != nil {
			return err
		}
		names = append(names, name)
		ranges = append(ranges, vals)
	}
	ctx, cancel := signalContext()
	defer cancel()

	best, trials, err := optim.NewGridSearch(names, ranges).Search(ctx, experiment.NewRegistry(), cfg, cfg.Ticks,
		optim.Objective{Metric: objective, Maximize: maximize})
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%s\t%s\n", strings.ToUpper(strings.Join(names, "\t")), strings.ToUpper(objective))
	for _, t := range trials {
		vals := make([]string, len(names))
		for i, n := range names {
			vals[i] = fmt.Sprintf("%.4g", t.Params[n])
		}
		fmt.Fprintf(w, "%s\t%.6f\n", strings.Join(vals, "\t"), t.Value)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	parts := make([]string, len(names))
	for i, n := range names {
		parts[i] = fmt.Sprintf("%s=%g", n, best.Params[n])
	}
	fmt.Printf("\nbest: %s (%s %.6f)\n", strings.Join(parts, " "), objective, best.Value)
	return nil
}

// runWatch drives the session from a Scheduler on the configured period and
// prints every published frame until the tick budget or the ceiling.
func runWatch(cmd *cobra.Command, args []string) error {
	cfg, err := simConfig(cmd, args[0])
	if err != nil {
		return err
	}
	logger := newLogger(cfg)
	exp, err := experiment.New(experiment.NewRegistry(), cfg, logger)
	if err != nil {
		return err
	}
	ctx, cancel := signalContext()
	defer cancel()

	sched := sim.NewScheduler(exp.Session(), time.Duration(cfg.PeriodMs)*time.Millisecond, logger)
	sched.Start(ctx)
	defer sched.Close()
	if err := sched.SetRunning(true); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case f := <-sched.Frames():
			names := f.MetricNames()
			if metricKey != "" {
				names = []string{metricKey}
			}
			parts := make([]string, 0, len(names))
			for _, n := range names {
				parts = append(parts, fmt.Sprintf("%s=%.4g", n, f.Metrics[n]))
			}
			fmt.Printf("%6d t=%8.1f %s\n", f.Iteration, f.Time, strings.Join(parts, " "))
			if !f.Running || (cfg.Ticks > 0 && f.Iteration >= cfg.Ticks) {
				return nil
			}
		}
	}
}
