package sketchview

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGeneratorDeterministic(t *testing.T) {
	assert := assert.New(t)

	a := NewLatencyGenerator(42).Generate(500)
	b := NewLatencyGenerator(42).Generate(500)
	assert.Equal(a, b)

	c := NewLatencyGenerator(43).Generate(500)
	assert.NotEqual(a, c)
}

func TestGeneratorRange(t *testing.T) {
	assert := assert.New(t)

	values := NewLatencyGenerator(1).Generate(10000)
	assert.Len(values, 10000)
	for _, v := range values {
		assert.True(v > MinLatencyMicros && v < MaxLatencyMicros, "value %v out of range", v)
	}
}

func TestGeneratorNonPositive(t *testing.T) {
	assert := assert.New(t)
	g := NewLatencyGenerator(1)

	assert.Empty(g.Generate(0))
	assert.NotNil(g.Generate(0))
	assert.Empty(g.Generate(-5))
}

func TestGeneratorDrawBudget(t *testing.T) {
	assert := assert.New(t)

	// Roughly two thirds of the draws land inside the accepted range, so a
	// budget of one draw per sample always comes back short.
	values := NewLatencyGenerator(7).WithDrawBudget(1).Generate(10000)
	assert.NotEmpty(values)
	assert.True(len(values) < 10000, "got %d values", len(values))

	g := NewLatencyGenerator(7).WithDrawBudget(-3)
	assert.Equal(1, g.drawBudget)
}

func TestGeneratorHeavyTail(t *testing.T) {
	assert := assert.New(t)

	values := NewLatencyGenerator(3).Generate(20000)
	sum := NewExactSummaryFromValues(values)
	p50, _ := sum.Quantile(0.5)
	p99, _ := sum.Quantile(0.99)

	// Pareto draws crowd the lower bound and leave a long tail.
	assert.True(p50 < 50000, "p50 %v", p50)
	assert.True(p99 > 300000, "p99 %v", p99)
}

func TestEntropyGenerator(t *testing.T) {
	assert := assert.New(t)

	g := NewEntropyLatencyGenerator()
	assert.Equal(DefaultDrawBudget, g.drawBudget)
	assert.Len(g.Generate(100), 100)
}

func TestGeneratorInitialCapacity(t *testing.T) {
	assert := assert.New(t)

	assert.Equal(0, initialCapacity(0))
	assert.Equal(10, initialCapacity(10))
	assert.Equal(maxReserve, initialCapacity(maxReserve))
	assert.Equal(maxReserve, initialCapacity(1<<50))
	assert.Equal(maxReserve, initialCapacity(math.MaxInt))

	// Requests above the reservation grow as samples are accepted.
	values := NewLatencyGenerator(8).Generate(maxReserve + 100)
	assert.Len(values, maxReserve+100)
}
