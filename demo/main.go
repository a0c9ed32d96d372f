package main

import (
	"fmt"
	"net/http"
	"os"

	"github.com/axiomhq/sketchview"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	configFile string

	renderFlags struct {
		samples  int
		binLimit uint16
		buckets  uint32
		dir      string
	}

	rootCmd = &cobra.Command{
		Use:   "sketchview",
		Short: "explore how a sketch bin limit trades memory for fidelity",
		Long: "sketchview samples synthetic latencies, feeds them to a DDSketch and draws " +
			"a histogram of the raw samples next to one of the sketch bins",
		SilenceUsage: true,
	}

	renderCmd = &cobra.Command{
		Use:   "render",
		Short: "sample, render both charts to files and print stats",
		RunE:  renderExec,
		Example: `# 100k samples against a 256 bin sketch, charts in /tmp:
./sketchview render --samples 100000 --bin-limit 256 --dir /tmp`,
	}

	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "serve an interactive explorer over HTTP",
		RunE:  serveExec,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "f", "", "YAML configuration file")

	renderCmd.Flags().IntVarP(&renderFlags.samples, "samples", "n", 10000, "number of samples to draw")
	renderCmd.Flags().Uint16VarP(&renderFlags.binLimit, "bin-limit", "l", 0, "sketch bin limit (0 keeps the configured one)")
	renderCmd.Flags().Uint32VarP(&renderFlags.buckets, "buckets", "b", 0, "raw histogram bucket count (0 keeps the configured one)")
	renderCmd.Flags().StringVarP(&renderFlags.dir, "dir", "d", "", "output directory (overrides surfaces.dir)")

	rootCmd.AddCommand(renderCmd, serveCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func loadConfig() (sketchview.Config, error) {
	cfg := sketchview.DefaultConfig()
	if configFile == "" {
		return cfg, cfg.Validate()
	}
	err := sketchview.LoadFile(&cfg, configFile)
	return cfg, err
}

func newLogger(level string) (*zap.Logger, error) {
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}
	zc := zap.NewProductionConfig()
	zc.Level = zap.NewAtomicLevelAt(lvl)
	return zc.Build()
}

func renderExec(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if renderFlags.dir != "" {
		cfg.Surfaces.Dir = renderFlags.dir
	}
	if renderFlags.buckets != 0 {
		cfg.Input.Buckets = renderFlags.buckets
	}
	if renderFlags.binLimit != 0 {
		cfg.Sketch.BinLimit = renderFlags.binLimit
	}

	if renderFlags.samples > cfg.Input.MaxSampleCount {
		return fmt.Errorf("--samples %d exceeds input.maxSampleCount %d", renderFlags.samples, cfg.Input.MaxSampleCount)
	}

	logger, err := newLogger(cfg.Logging.Level)
	if err != nil {
		return err
	}
	defer logger.Sync()

	renderer := cfg.ChartRenderer()
	surfaces := sketchview.NewDirSurfaces(cfg.Surfaces.Dir, renderer.Format)
	e := sketchview.New(cfg.Surfaces.Input, cfg.Surfaces.Output,
		sketchview.WithGenerator(cfg.NewGenerator()),
		sketchview.WithSurfaces(surfaces),
		sketchview.WithRenderer(renderer),
		sketchview.WithRelativeAccuracy(cfg.Sketch.RelativeAccuracy),
		sketchview.WithBinLimit(cfg.Sketch.BinLimit),
		sketchview.WithLogger(logger))

	e.Sample(renderFlags.samples)

	if _, err := e.InputChart(cfg.Input.Buckets); err != nil {
		logger.Error("unable to draw input chart", zap.Error(err))
		return err
	}
	if _, err := e.OutputChart(); err != nil {
		logger.Error("unable to draw output chart", zap.Error(err))
		return err
	}

	in, out := e.InputStats(), e.OutputStats()
	fmt.Printf("input:  %d values, %d bytes, p50=%.4f p90=%.4f p99=%.4f\n",
		in.ValueCount, in.InMemoryBytes, in.P50, in.P90, in.P99)
	fmt.Printf("output: %d bins (limit %d), %d bytes, p50=%.4f p90=%.4f p99=%.4f\n",
		out.BinCount, out.BinLimit, out.InMemoryBytes, out.P50, out.P90, out.P99)
	fmt.Printf("charts: %s, %s\n", surfaces.Path(cfg.Surfaces.Input), surfaces.Path(cfg.Surfaces.Output))
	return nil
}

func serveExec(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg.Logging.Level)
	if err != nil {
		return err
	}
	defer logger.Sync()

	renderer := cfg.ChartRenderer()
	surfaces := sketchview.NewMemorySurfaces(cfg.Surfaces.Input, cfg.Surfaces.Output)
	e := sketchview.New(cfg.Surfaces.Input, cfg.Surfaces.Output,
		sketchview.WithGenerator(cfg.NewGenerator()),
		sketchview.WithSurfaces(surfaces),
		sketchview.WithRenderer(renderer),
		sketchview.WithRelativeAccuracy(cfg.Sketch.RelativeAccuracy),
		sketchview.WithBinLimit(cfg.Sketch.BinLimit),
		sketchview.WithLogger(logger))

	srv := sketchview.NewServer(e, surfaces, renderer.Format, cfg.Input.Buckets, cfg.Input.MaxSampleCount, logger)
	logger.Info("serving sketch explorer", zap.String("listen", cfg.Listen))
	return http.ListenAndServe(cfg.Listen, srv)
}
