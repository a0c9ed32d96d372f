package sketchview

import (
	"io/ioutil"

	"github.com/pkg/errors"
	validator "gopkg.in/validator.v2"
	yaml "gopkg.in/yaml.v2"
)

var errNoFilesToLoad = errors.New("attempt to load configuration with no files")

// Config is the configuration of the explorer command.
type Config struct {
	Surfaces  SurfacesConfig  `yaml:"surfaces"`
	Chart     ChartConfig     `yaml:"chart"`
	Sketch    SketchConfig    `yaml:"sketch"`
	Generator GeneratorConfig `yaml:"generator"`
	Input     InputConfig     `yaml:"input"`
	Listen    string          `yaml:"listen" validate:"nonzero"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// SurfacesConfig names the drawing surfaces.
type SurfacesConfig struct {
	Dir    string `yaml:"dir" validate:"nonzero"`
	Input  string `yaml:"input" validate:"nonzero"`
	Output string `yaml:"output" validate:"nonzero"`
	Format string `yaml:"format" validate:"nonzero"`
}

// ChartConfig sizes rendered charts in pixels.
type ChartConfig struct {
	Width  int `yaml:"width" validate:"min=100"`
	Height int `yaml:"height" validate:"min=100"`
}

// SketchConfig configures the sketch.
type SketchConfig struct {
	BinLimit         uint16  `yaml:"binLimit" validate:"min=1"`
	RelativeAccuracy float64 `yaml:"relativeAccuracy" validate:"nonzero"`
}

// GeneratorConfig configures the latency generator. A zero seed draws one
// from the system entropy source.
type GeneratorConfig struct {
	Seed       int64 `yaml:"seed"`
	DrawBudget int   `yaml:"drawBudget" validate:"min=1"`
}

// InputConfig configures the raw sample histogram and bounds how many
// samples a single request may ask for.
type InputConfig struct {
	Buckets        uint32 `yaml:"buckets" validate:"min=1"`
	MaxSampleCount int    `yaml:"maxSampleCount" validate:"min=1"`
}

// LoggingConfig ...
type LoggingConfig struct {
	Level string `yaml:"level" validate:"nonzero"`
}

// DefaultConfig returns the configuration used when no file overrides it.
func DefaultConfig() Config {
	return Config{
		Surfaces: SurfacesConfig{
			Dir:    ".",
			Input:  "input",
			Output: "output",
			Format: string(FormatPNG),
		},
		Chart: ChartConfig{
			Width:  DefaultChartWidth,
			Height: DefaultChartHeight,
		},
		Sketch: SketchConfig{
			BinLimit:         DefaultBinLimit,
			RelativeAccuracy: DefaultRelativeAccuracy,
		},
		Generator: GeneratorConfig{
			DrawBudget: DefaultDrawBudget,
		},
		Input:   InputConfig{Buckets: 100, MaxSampleCount: DefaultMaxSampleCount},
		Listen:  ":8080",
		Logging: LoggingConfig{Level: "info"},
	}
}

// LoadFile loads a config from a file on top of the values already in config.
func LoadFile(config *Config, fname string) error {
	return loadFiles(config, fname)
}

// loadFiles loads a config from a list of files. If a property is present in
// multiple files, the value from the last file is applied. Validation is done
// after merging all values.
func loadFiles(config *Config, fnames ...string) error {
	if len(fnames) == 0 {
		return errNoFilesToLoad
	}
	for _, fname := range fnames {
		data, err := ioutil.ReadFile(fname)
		if err != nil {
			return errors.Wrapf(err, "read config %s", fname)
		}
		if err := yaml.UnmarshalStrict(data, config); err != nil {
			return errors.Wrapf(err, "parse config %s", fname)
		}
	}
	return config.Validate()
}

// Validate checks field constraints and the chart format.
func (c Config) Validate() error {
	if err := validator.Validate(c); err != nil {
		return errors.Wrap(err, "invalid config")
	}
	if _, err := ParseFormat(c.Surfaces.Format); err != nil {
		return errors.Wrap(err, "invalid config")
	}
	if c.Sketch.RelativeAccuracy <= 0 || c.Sketch.RelativeAccuracy >= 1 {
		return errors.Errorf("invalid config: relative accuracy %v not in (0, 1)", c.Sketch.RelativeAccuracy)
	}
	return nil
}

// ChartRenderer returns the renderer described by the config.
func (c Config) ChartRenderer() ChartRenderer {
	format, err := ParseFormat(c.Surfaces.Format)
	if err != nil {
		format = FormatPNG
	}
	return ChartRenderer{Width: c.Chart.Width, Height: c.Chart.Height, Format: format}
}

// NewGenerator returns the generator described by the config.
func (c Config) NewGenerator() *LatencyGenerator {
	var g *LatencyGenerator
	if c.Generator.Seed == 0 {
		g = NewEntropyLatencyGenerator()
	} else {
		g = NewLatencyGenerator(c.Generator.Seed)
	}
	return g.WithDrawBudget(c.Generator.DrawBudget)
}
