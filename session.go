package sketchview

import (
	"time"
	"unsafe"

	"go.uber.org/zap"
)

// outputScale converts quantiles of the microsecond samples to the unit
// shown in the stats panel.
const outputScale = 1000000.0

// InputStats describes the retained raw samples. InMemoryBytes counts the raw
// samples only, not the exact summary kept alongside them for the quantiles.
type InputStats struct {
	ValueCount    int     `json:"valueCount"`
	InMemoryBytes int     `json:"inMemoryBytes"`
	P50           float64 `json:"p50"`
	P90           float64 `json:"p90"`
	P99           float64 `json:"p99"`
}

// OutputStats describes the sketch. BinLimit bounds distinct keys while
// BinCount counts reported bins, so BinCount may exceed BinLimit when a key
// overflows a bin.
type OutputStats struct {
	BinCount      int     `json:"binCount"`
	BinLimit      uint16  `json:"binLimit"`
	InMemoryBytes int     `json:"inMemoryBytes"`
	P50           float64 `json:"p50"`
	P90           float64 `json:"p90"`
	P99           float64 `json:"p99"`
}

// Chart is the result of a render. Coord maps pixels of that render back to
// data coordinates; it goes stale once another chart is drawn to the same
// surface.
type Chart struct {
	mapper    CoordinateMapper
	histogram BucketedHistogram
}

// Coord ...
func (c *Chart) Coord(x, y int) (Point, bool) {
	return c.mapper.Coord(x, y)
}

// Mapper returns the pixel to data mapping captured at render time.
func (c *Chart) Mapper() CoordinateMapper {
	return c.mapper
}

// Histogram returns the buckets that were drawn.
func (c *Chart) Histogram() BucketedHistogram {
	return c.histogram
}

// Option configures an Explorer.
type Option func(*Explorer)

// WithGenerator replaces the entropy seeded latency generator.
func WithGenerator(g Generator) Option {
	return func(e *Explorer) { e.generator = g }
}

// WithSurfaces sets where charts are drawn. The default writes PNG files to
// the working directory.
func WithSurfaces(r SurfaceResolver) Option {
	return func(e *Explorer) { e.surfaces = r }
}

// WithRenderer sets chart size and encoding.
func WithRenderer(r ChartRenderer) Option {
	return func(e *Explorer) { e.renderer = r }
}

// WithLogger ...
func WithLogger(l *zap.Logger) Option {
	return func(e *Explorer) { e.logger = l }
}

// WithBinLimit sets the bin limit of the initial sketch.
func WithBinLimit(limit uint16) Option {
	return func(e *Explorer) { e.binLimit = limit }
}

// WithRelativeAccuracy sets the relative accuracy of every sketch the
// explorer builds. Invalid values fall back to DefaultRelativeAccuracy.
func WithRelativeAccuracy(a float64) Option {
	return func(e *Explorer) { e.relativeAccuracy = a }
}

// Explorer generates latency samples, keeps every one of them, and maintains
// a sketch over them so both can be charted side by side.
//
// An Explorer is not safe for concurrent use.
type Explorer struct {
	inputSurface  string
	outputSurface string

	generator        Generator
	surfaces         SurfaceResolver
	renderer         ChartRenderer
	logger           *zap.Logger
	binLimit         uint16
	relativeAccuracy float64

	samples []float64
	// exact covers samples[:folded]; the rest is folded in on demand.
	exact  *ExactSummary
	folded int
	sketch *Sketch
}

// New returns an empty Explorer drawing its charts to the two surfaces.
func New(inputSurface, outputSurface string, opts ...Option) *Explorer {
	e := &Explorer{
		inputSurface:     inputSurface,
		outputSurface:    outputSurface,
		renderer:         DefaultChartRenderer(),
		binLimit:         DefaultBinLimit,
		relativeAccuracy: DefaultRelativeAccuracy,
		samples:          []float64{},
		exact:            NewExactSummary(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.generator == nil {
		e.generator = NewEntropyLatencyGenerator()
	}
	if e.surfaces == nil {
		e.surfaces = NewDirSurfaces(".", e.renderer.Format)
	}
	if e.logger == nil {
		e.logger = zap.NewNop()
	}
	sketch, err := NewSketch(e.binLimit, e.relativeAccuracy)
	if err != nil {
		e.logger.Warn("falling back to default relative accuracy",
			zap.Float64("relativeAccuracy", e.relativeAccuracy), zap.Error(err))
		e.relativeAccuracy = DefaultRelativeAccuracy
		sketch, _ = NewSketch(e.binLimit, e.relativeAccuracy)
	}
	e.sketch = sketch
	return e
}

// Sample generates up to count samples, retains them and adds them to the
// sketch.
func (e *Explorer) Sample(count int) {
	if count <= 0 {
		return
	}
	points := e.generator.Generate(count)
	e.sketch.InsertMany(points)
	e.samples = append(e.samples, points...)
	e.logger.Debug("sampled",
		zap.Int("requested", count),
		zap.Int("accepted", len(points)),
		zap.Int("total", len(e.samples)))
}

// SetBinLimit rebuilds the sketch with a new bin limit from every retained
// sample. The cost grows with the number of samples ever taken.
func (e *Explorer) SetBinLimit(limit uint16) {
	start := time.Now()
	old := e.sketch.BinLimit()
	e.sketch.Reconfigure(limit, e.samples)
	e.logger.Info("sketch reconfigured",
		zap.Uint16("oldBinLimit", old),
		zap.Uint16("binLimit", e.sketch.BinLimit()),
		zap.Int("replayed", len(e.samples)),
		zap.Duration("took", time.Since(start)))
}

// BinLimit returns the bin limit of the current sketch.
func (e *Explorer) BinLimit() uint16 {
	return e.sketch.BinLimit()
}

// Samples returns a copy of the retained samples.
func (e *Explorer) Samples() []float64 {
	return append([]float64(nil), e.samples...)
}

// Sketch returns the current sketch. It is replaced by SetBinLimit.
func (e *Explorer) Sketch() *Sketch {
	return e.sketch
}

// InputStats ...
func (e *Explorer) InputStats() InputStats {
	e.foldExact()
	var f float64
	return InputStats{
		ValueCount:    len(e.samples),
		InMemoryBytes: len(e.samples) * int(unsafe.Sizeof(f)),
		P50:           e.exactQuantile(0.50),
		P90:           e.exactQuantile(0.90),
		P99:           e.exactQuantile(0.99),
	}
}

// OutputStats ...
func (e *Explorer) OutputStats() OutputStats {
	return OutputStats{
		BinCount:      e.sketch.BinCount(),
		BinLimit:      e.sketch.BinLimit(),
		InMemoryBytes: e.sketch.InMemorySize(),
		P50:           e.sketchQuantile(0.50),
		P90:           e.sketchQuantile(0.90),
		P99:           e.sketchQuantile(0.99),
	}
}

// foldExact merges samples taken since the last stats call into the exact
// summary, so repeated small Sample calls stay linear overall.
func (e *Explorer) foldExact() {
	if e.folded == len(e.samples) {
		return
	}
	e.exact.Merge(NewExactSummaryFromValues(e.samples[e.folded:]))
	e.folded = len(e.samples)
}

func (e *Explorer) exactQuantile(q float64) float64 {
	v, _ := e.exact.Quantile(q)
	return v / outputScale
}

func (e *Explorer) sketchQuantile(q float64) float64 {
	v, _ := e.sketch.Quantile(q)
	return v / outputScale
}

// InputHistogram bins the raw samples into bucketCount buckets.
func (e *Explorer) InputHistogram(bucketCount uint32) BucketedHistogram {
	return BinSamples(e.samples, bucketCount)
}

// OutputHistogram returns the sketch bins as buckets.
func (e *Explorer) OutputHistogram() BucketedHistogram {
	return BinSketch(e.sketch.Bins(), e.sketch)
}

// InputChart draws the raw sample histogram to the input surface.
func (e *Explorer) InputChart(bucketCount uint32) (*Chart, error) {
	h := e.InputHistogram(bucketCount)
	return e.draw(e.inputSurface, h, ChartOptions{Name: "input"})
}

// OutputChart draws the sketch bin histogram to the output surface.
func (e *Explorer) OutputChart() (*Chart, error) {
	h := e.OutputHistogram()
	return e.draw(e.outputSurface, h, ChartOptions{Name: "output", Outline: true})
}

func (e *Explorer) draw(surfaceID string, h BucketedHistogram, opts ChartOptions) (*Chart, error) {
	logger := e.logger.With(zap.String("chart", opts.Name), zap.String("surface", surfaceID))

	surface, err := e.surfaces.Resolve(surfaceID)
	if err != nil {
		logger.Error("cannot resolve surface", zap.Error(err))
		return nil, err
	}

	mapper, err := e.renderer.Render(surface, h, opts)
	if err != nil {
		if a, ok := surface.(aborter); ok {
			a.Abort()
		}
		surface.Close()
		logger.Error("render failed", zap.Error(err))
		return nil, &RenderError{Chart: opts.Name, Err: err}
	}
	if err := surface.Close(); err != nil {
		logger.Error("cannot finalize surface", zap.Error(err))
		return nil, &RenderError{Chart: opts.Name, Err: err}
	}

	logger.Debug("chart rendered", zap.Int("buckets", len(h.Buckets)))
	return &Chart{mapper: mapper, histogram: h}, nil
}
