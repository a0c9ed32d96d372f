package sketchview_test

import (
	"fmt"

	"github.com/axiomhq/sketchview"
)

func Example() {
	e := sketchview.New("input", "output",
		sketchview.WithGenerator(sketchview.NewLatencyGenerator(1)),
		sketchview.WithSurfaces(sketchview.NewMemorySurfaces("input", "output")))

	e.Sample(1000)
	e.SetBinLimit(128)

	in, out := e.InputStats(), e.OutputStats()
	fmt.Println("values:", in.ValueCount)
	fmt.Println("bin limit:", out.BinLimit)
	fmt.Println("within limit:", out.BinCount <= int(out.BinLimit))

	chart, err := e.OutputChart()
	if err != nil {
		panic(err)
	}
	fmt.Println("all values drawn:", chart.Histogram().TotalCount() == uint64(in.ValueCount))

	// Output:
	// values: 1000
	// bin limit: 128
	// within limit: true
	// all values drawn: true
}

func ExampleExactSummary() {
	values := make([]float64, 1000)
	for i := range values {
		values[i] = float64(i + 1)
	}
	sum := sketchview.NewExactSummaryFromValues(values)
	for _, q := range []float64{0.5, 0.9, 0.99} {
		v, _ := sum.Quantile(q)
		fmt.Println(q, v)
	}

	// Output:
	// 0.5 500
	// 0.9 900
	// 0.99 990
}
