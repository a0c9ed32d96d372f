package sketchview

import (
	"fmt"
	"io"
	"strings"

	"github.com/pkg/errors"
	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

// Format is the image encoding of rendered charts.
type Format string

const (
	// FormatPNG renders raster charts.
	FormatPNG Format = "png"
	// FormatSVG renders vector charts.
	FormatSVG Format = "svg"
)

// ParseFormat ...
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatPNG, FormatSVG:
		return f, nil
	}
	return "", errors.Errorf("unknown chart format %q", s)
}

// ContentType returns the MIME type of the encoding.
func (f Format) ContentType() string {
	if f == FormatSVG {
		return "image/svg+xml"
	}
	return "image/png"
}

func (f Format) provider() chart.RendererProvider {
	if f == FormatSVG {
		return chart.SVG
	}
	return chart.PNG
}

const (
	// DefaultChartWidth and DefaultChartHeight are the chart size in pixels.
	DefaultChartWidth  = 800
	DefaultChartHeight = 600

	// labelScale turns axis values into the displayed unit.
	labelScale = 1000000.0
)

var (
	blueGrey   = drawing.Color{R: 96, G: 125, B: 139, A: 255}
	axisColour = drawing.Color{R: 0, G: 0, B: 0, A: 26}
)

// ChartOptions controls how a single histogram is drawn.
type ChartOptions struct {
	// Name labels the series and shows up in render errors.
	Name string
	// Outline draws unfilled bars.
	Outline bool
}

// ChartRenderer draws histograms with go-chart.
type ChartRenderer struct {
	Width  int
	Height int
	Format Format
}

// DefaultChartRenderer returns an 800x600 PNG renderer.
func DefaultChartRenderer() ChartRenderer {
	return ChartRenderer{Width: DefaultChartWidth, Height: DefaultChartHeight, Format: FormatPNG}
}

// Render draws h to w and returns the mapping from pixels of the drawn
// image back to histogram coordinates.
func (cr ChartRenderer) Render(w io.Writer, h BucketedHistogram, opts ChartOptions) (CoordinateMapper, error) {
	xMin, xMax := widen(h.Min, h.Max)
	yMin, yMax := widen(0, h.MaxCount)

	series := &histogramSeries{
		name:    opts.Name,
		buckets: h.Buckets,
		style: chart.Style{
			StrokeColor: blueGrey,
			StrokeWidth: 1,
			FillColor:   blueGrey,
		},
	}
	if opts.Outline {
		series.style.FillColor = chart.ColorTransparent
	}

	axisStyle := chart.Style{StrokeColor: axisColour, FontSize: 8}
	c := chart.Chart{
		Width:  cr.Width,
		Height: cr.Height,
		Background: chart.Style{
			Padding: chart.Box{Top: 20, Left: 20, Right: 20, Bottom: 20},
		},
		XAxis: chart.XAxis{
			Style: axisStyle,
			Range: &chart.ContinuousRange{Min: xMin, Max: xMax},
			ValueFormatter: func(v interface{}) string {
				if f, ok := v.(float64); ok {
					return fmt.Sprintf("%.1f", f/labelScale)
				}
				return ""
			},
		},
		YAxis: chart.YAxis{
			Style: axisStyle,
			Range: &chart.ContinuousRange{Min: yMin, Max: yMax},
			ValueFormatter: func(v interface{}) string {
				if f, ok := v.(float64); ok {
					return fmt.Sprintf("%.0f", f)
				}
				return ""
			},
		},
		Series: []chart.Series{series},
	}

	if err := c.Render(cr.Format.provider(), w); err != nil {
		return CoordinateMapper{}, errors.Wrapf(err, "render %s chart", opts.Name)
	}
	return series.mapper, nil
}

// widen turns an empty or inverted range into a drawable one.
func widen(min, max float64) (float64, float64) {
	if max <= min {
		return min, min + 1
	}
	return min, max
}

// histogramSeries draws buckets of arbitrary width as bars. It records the
// canvas box and ranges it was handed so pixels can be mapped back.
type histogramSeries struct {
	name    string
	buckets []Bucket
	style   chart.Style
	mapper  CoordinateMapper
}

var _ chart.Series = (*histogramSeries)(nil)

func (hs *histogramSeries) GetName() string           { return hs.name }
func (hs *histogramSeries) GetYAxis() chart.YAxisType { return chart.YAxisPrimary }
func (hs *histogramSeries) GetStyle() chart.Style     { return hs.style }
func (hs *histogramSeries) Validate() error           { return nil }

func (hs *histogramSeries) Render(r chart.Renderer, canvasBox chart.Box, xrange, yrange chart.Range, _ chart.Style) {
	hs.mapper = CoordinateMapper{
		Plot: PlotArea{
			Left:   canvasBox.Left,
			Top:    canvasBox.Top,
			Right:  canvasBox.Right,
			Bottom: canvasBox.Bottom,
		},
		XMin: xrange.GetMin(),
		XMax: xrange.GetMax(),
		YMin: yrange.GetMin(),
		YMax: yrange.GetMax(),
	}

	for _, b := range hs.buckets {
		box := chart.Box{
			Left:   canvasBox.Left + xrange.Translate(b.Lower),
			Right:  canvasBox.Left + xrange.Translate(b.Upper),
			Top:    canvasBox.Bottom - yrange.Translate(float64(b.Count)),
			Bottom: canvasBox.Bottom - yrange.Translate(0),
		}
		box, ok := clip(box, canvasBox)
		if !ok {
			continue
		}
		chart.Draw.Box(r, box, hs.style)
	}
}

// clip constrains b to bounds; ok is false when nothing is left.
func clip(b, bounds chart.Box) (chart.Box, bool) {
	if b.Left < bounds.Left {
		b.Left = bounds.Left
	}
	if b.Right > bounds.Right {
		b.Right = bounds.Right
	}
	if b.Top < bounds.Top {
		b.Top = bounds.Top
	}
	if b.Bottom > bounds.Bottom {
		b.Bottom = bounds.Bottom
	}
	return b, b.Left <= b.Right && b.Top <= b.Bottom
}
