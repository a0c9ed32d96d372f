package sketchview

import (
	crand "crypto/rand"
	"encoding/binary"
	"math"
	"math/rand"
)

const (
	// paretoShape and paretoScale describe the heavy tailed draw.
	paretoShape = 1.0
	paretoScale = 1.0

	// microsPerDraw converts a unit Pareto draw to microseconds.
	microsPerDraw = 10000.0

	// MinLatencyMicros and MaxLatencyMicros bound accepted samples (exclusive):
	// 15ms to 1s.
	MinLatencyMicros = 15000.0
	MaxLatencyMicros = 1000000.0

	// DefaultDrawBudget is the number of draws allowed per requested sample.
	DefaultDrawBudget = 64

	// maxReserve caps the up-front allocation of Generate; larger requests
	// grow the result as samples are accepted.
	maxReserve = 1 << 16
)

// Generator produces synthetic latency samples in microseconds.
type Generator interface {
	// Generate returns at most n accepted samples.
	Generate(n int) []float64
}

// LatencyGenerator draws latencies from a Pareto distribution and keeps the
// ones that fall inside a plausible web service envelope.
type LatencyGenerator struct {
	rng        *rand.Rand
	drawBudget int
}

// NewLatencyGenerator returns a generator whose sequence is fixed by seed.
func NewLatencyGenerator(seed int64) *LatencyGenerator {
	return &LatencyGenerator{
		rng:        rand.New(rand.NewSource(seed)),
		drawBudget: DefaultDrawBudget,
	}
}

// NewEntropyLatencyGenerator returns a generator seeded from crypto/rand.
func NewEntropyLatencyGenerator() *LatencyGenerator {
	var b [8]byte
	seed := int64(0)
	if _, err := crand.Read(b[:]); err == nil {
		seed = int64(binary.LittleEndian.Uint64(b[:]))
	}
	return NewLatencyGenerator(seed)
}

// WithDrawBudget sets how many draws are allowed per requested sample before
// Generate gives up and returns short. Values below one are treated as one.
func (g *LatencyGenerator) WithDrawBudget(factor int) *LatencyGenerator {
	if factor < 1 {
		factor = 1
	}
	g.drawBudget = factor
	return g
}

// Generate returns up to n accepted samples.
func (g *LatencyGenerator) Generate(n int) []float64 {
	if n <= 0 {
		return []float64{}
	}
	out := make([]float64, 0, initialCapacity(n))
	maxDraws := math.MaxInt
	if n <= math.MaxInt/g.drawBudget {
		maxDraws = n * g.drawBudget
	}
	for draws := 0; draws < maxDraws && len(out) < n; draws++ {
		v := g.pareto() * microsPerDraw
		if v > MinLatencyMicros && v < MaxLatencyMicros {
			out = append(out, v)
		}
	}
	return out
}

func initialCapacity(n int) int {
	if n > maxReserve {
		return maxReserve
	}
	return n
}

// pareto draws by inverting the CDF; u lies in (0, 1] so the draw is finite.
func (g *LatencyGenerator) pareto() float64 {
	u := 1 - g.rng.Float64()
	return paretoScale / math.Pow(u, 1/paretoShape)
}
