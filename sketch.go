package sketchview

import (
	"math"
	"unsafe"

	"github.com/DataDog/sketches-go/ddsketch"
	"github.com/DataDog/sketches-go/ddsketch/mapping"
	"github.com/DataDog/sketches-go/ddsketch/store"
	"github.com/pkg/errors"
)

const (
	// DefaultBinLimit is the bin limit of a freshly created sketch.
	DefaultBinLimit uint16 = 4096
	// DefaultRelativeAccuracy matches an agent sketch with eps = 1/128.
	DefaultRelativeAccuracy = 1.0 / 128

	maxBinCount = math.MaxUint16
)

// Bin is one sketch bin: a logarithmically encoded key and a count. Counts
// that do not fit a bin spill into further bins with the same key.
type Bin struct {
	Key   int32
	Count uint16
}

// Sketch owns a DDSketch configured with a bin limit. When more keys are
// needed than the limit allows, the lowest keys collapse together.
type Sketch struct {
	binLimit         uint16
	relativeAccuracy float64
	mapping          mapping.IndexMapping
	dd               *ddsketch.DDSketchWithExactSummaryStatistics
}

// NewSketch returns an empty sketch. A bin limit of zero is raised to one.
func NewSketch(binLimit uint16, relativeAccuracy float64) (*Sketch, error) {
	m, err := mapping.NewLogarithmicMapping(relativeAccuracy)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid relative accuracy %v", relativeAccuracy)
	}
	s := &Sketch{
		relativeAccuracy: relativeAccuracy,
		mapping:          m,
	}
	s.reset(binLimit)
	return s, nil
}

// NewDefaultSketch returns an empty sketch with the default configuration.
func NewDefaultSketch() *Sketch {
	s, err := NewSketch(DefaultBinLimit, DefaultRelativeAccuracy)
	if err != nil {
		panic(err)
	}
	return s
}

func (s *Sketch) reset(binLimit uint16) {
	if binLimit == 0 {
		binLimit = 1
	}
	limit := int(binLimit)
	s.binLimit = binLimit
	s.dd = ddsketch.NewDDSketchWithExactSummaryStatistics(s.mapping, func() store.Store {
		return store.NewCollapsingLowestDenseStore(limit)
	})
}

// InsertMany adds values and returns how many were accepted. NaN and values
// outside the indexable range of the mapping are dropped.
func (s *Sketch) InsertMany(values []float64) int {
	accepted := 0
	for _, v := range values {
		if err := s.dd.Add(v); err == nil {
			accepted++
		}
	}
	return accepted
}

// Reconfigure replaces the sketch with an empty one using binLimit and
// replays history into it.
func (s *Sketch) Reconfigure(binLimit uint16, history []float64) {
	s.reset(binLimit)
	s.InsertMany(history)
}

// Merge folds others into s. All sketches must share the relative accuracy.
func (s *Sketch) Merge(others ...*Sketch) error {
	for _, o := range others {
		if !s.mapping.Equals(o.mapping) {
			return errors.Errorf("cannot merge sketches with relative accuracy %v and %v",
				s.relativeAccuracy, o.relativeAccuracy)
		}
	}
	for _, o := range others {
		if err := s.dd.MergeWith(o.dd); err != nil {
			return errors.Wrap(err, "merge sketch")
		}
	}
	return nil
}

// Quantile returns the estimated value at q. ok is false when the sketch is
// empty or q is outside [0, 1].
func (s *Sketch) Quantile(q float64) (value float64, ok bool) {
	if s.dd.IsEmpty() {
		return 0, false
	}
	v, err := s.dd.GetValueAtQuantile(q)
	if err != nil {
		return 0, false
	}
	return v, true
}

// Min returns the smallest inserted value.
func (s *Sketch) Min() (float64, bool) {
	v, err := s.dd.GetMinValue()
	if err != nil {
		return 0, false
	}
	return v, true
}

// Max returns the largest inserted value.
func (s *Sketch) Max() (float64, bool) {
	v, err := s.dd.GetMaxValue()
	if err != nil {
		return 0, false
	}
	return v, true
}

// Count returns the number of inserted values.
func (s *Sketch) Count() uint64 {
	return uint64(math.Round(s.dd.GetCount()))
}

// BinLimit returns the maximum number of distinct keys. BinCount can exceed
// it when a key holds more than 65535 values and spills into extra bins.
func (s *Sketch) BinLimit() uint16 {
	return s.binLimit
}

// RelativeAccuracy ...
func (s *Sketch) RelativeAccuracy() float64 {
	return s.relativeAccuracy
}

// Bins returns a snapshot of the bins in ascending key order.
func (s *Sketch) Bins() []Bin {
	var bins []Bin
	s.dd.GetPositiveValueStore().ForEach(func(index int, count float64) bool {
		n := uint64(math.Round(count))
		for n > 0 {
			c := n
			if c > maxBinCount {
				c = maxBinCount
			}
			bins = append(bins, Bin{Key: int32(index), Count: uint16(c)})
			n -= c
		}
		return false
	})
	return bins
}

// BinCount returns the number of bins Bins would return.
func (s *Sketch) BinCount() int {
	count := 0
	s.dd.GetPositiveValueStore().ForEach(func(_ int, c float64) bool {
		n := uint64(math.Round(c))
		count += int((n + maxBinCount - 1) / maxBinCount)
		return false
	})
	return count
}

// BinLowerBound returns the smallest value encoded by key.
func (s *Sketch) BinLowerBound(key int32) float64 {
	return s.mapping.LowerBound(int(key))
}

// BinUpperBound returns the value where key ends and key+1 begins.
func (s *Sketch) BinUpperBound(key int32) float64 {
	return s.mapping.LowerBound(int(key) + 1)
}

// InMemorySize approximates the footprint of the sketch as the bins plus the
// fixed sketch header. It is meant for display only.
func (s *Sketch) InMemorySize() int {
	return s.BinCount()*int(unsafe.Sizeof(Bin{})) + int(unsafe.Sizeof(Sketch{}))
}
