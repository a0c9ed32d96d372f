package sketchview

// Point is a position in chart data space.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// PlotArea is the pixel rectangle a chart's data was drawn into. Right and
// Bottom are inclusive.
type PlotArea struct {
	Left   int `json:"left"`
	Top    int `json:"top"`
	Right  int `json:"right"`
	Bottom int `json:"bottom"`
}

// Contains reports whether the pixel lies inside the area.
func (a PlotArea) Contains(x, y int) bool {
	return x >= a.Left && x <= a.Right && y >= a.Top && y <= a.Bottom
}

// CoordinateMapper converts device pixels of a rendered chart back to data
// coordinates. It is a plain value: the plot area and the axis ranges in
// effect when the chart was drawn.
type CoordinateMapper struct {
	Plot PlotArea `json:"plot"`
	XMin float64  `json:"xMin"`
	XMax float64  `json:"xMax"`
	YMin float64  `json:"yMin"`
	YMax float64  `json:"yMax"`
}

// Coord maps a device pixel to data coordinates. ok is false for pixels
// outside the plot area, such as the axis labels and margins.
func (m CoordinateMapper) Coord(x, y int) (p Point, ok bool) {
	if !m.Plot.Contains(x, y) {
		return Point{}, false
	}
	w := m.Plot.Right - m.Plot.Left
	h := m.Plot.Bottom - m.Plot.Top
	if w <= 0 || h <= 0 {
		return Point{}, false
	}
	return Point{
		X: m.XMin + float64(x-m.Plot.Left)/float64(w)*(m.XMax-m.XMin),
		Y: m.YMin + float64(m.Plot.Bottom-y)/float64(h)*(m.YMax-m.YMin),
	}, true
}
