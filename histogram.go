package sketchview

import (
	"math"
)

// inputHeadroom is the extra room above the tallest raw-sample bucket.
const inputHeadroom = 1.1

// Bucket is one bar of a histogram, spanning [Lower, Upper].
type Bucket struct {
	Lower float64
	Upper float64
	Count uint64
}

// BucketedHistogram is a set of buckets plus the axis bounds used to draw them.
type BucketedHistogram struct {
	Buckets  []Bucket
	Min      float64
	Max      float64
	MaxCount float64
}

// TotalCount returns the sum of all bucket counts.
func (h BucketedHistogram) TotalCount() uint64 {
	var total uint64
	for _, b := range h.Buckets {
		total += b.Count
	}
	return total
}

// Empty reports whether the histogram has no buckets.
func (h BucketedHistogram) Empty() bool {
	return len(h.Buckets) == 0
}

// BinBounds maps a sketch bin key back to the value range it encodes.
type BinBounds interface {
	BinLowerBound(key int32) float64
	BinUpperBound(key int32) float64
}

// BinSamples groups raw values into buckets of equal width, (max-min)/bucketCount
// wide. Bucket i covers [i*width, (i+1)*width], so the grid is anchored at zero
// and not at the smallest value. Axis bounds come from the occupied buckets:
// Max is the lower edge of the highest bucket and MaxCount carries 10%
// headroom.
//
// When bucketCount is zero or every value is equal the width would be zero; a
// single bucket [v, v] holding every value is returned instead.
func BinSamples(values []float64, bucketCount uint32) BucketedHistogram {
	if len(values) == 0 {
		return BucketedHistogram{Buckets: []Bucket{}}
	}

	lo, hi := values[0], values[0]
	for _, v := range values[1:] {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}

	width := 0.0
	if bucketCount > 0 {
		width = (hi - lo) / float64(bucketCount)
	}
	if width <= 0 || math.IsInf(width, 0) || math.IsNaN(width) {
		return BucketedHistogram{
			Buckets:  []Bucket{{Lower: lo, Upper: lo, Count: uint64(len(values))}},
			Min:      lo,
			Max:      lo,
			MaxCount: float64(len(values)) * inputHeadroom,
		}
	}

	buf := newEntryBuffer(len(values))
	for _, v := range values {
		buf.push(math.Floor(v/width), 1)
	}
	entries := buf.generateEntryList()

	h := BucketedHistogram{Buckets: make([]Bucket, 0, len(entries))}
	maxCount := 0.0
	for _, e := range entries {
		h.Buckets = append(h.Buckets, Bucket{
			Lower: e.key * width,
			Upper: (e.key + 1) * width,
			Count: uint64(e.weight),
		})
		maxCount = math.Max(maxCount, e.weight)
	}
	h.Min = entries[0].key * width
	h.Max = entries[len(entries)-1].key * width
	h.MaxCount = maxCount * inputHeadroom
	return h
}

// BinSketch turns sketch bins into buckets. Bins sharing a key are merged by
// summing their counts, and each key spans [lower(key), upper(key)], which
// widens logarithmically with the value. MaxCount has no headroom.
func BinSketch(bins []Bin, bounds BinBounds) BucketedHistogram {
	if len(bins) == 0 {
		return BucketedHistogram{Buckets: []Bucket{}}
	}

	buf := newEntryBuffer(len(bins))
	for _, b := range bins {
		buf.push(float64(b.Key), float64(b.Count))
	}
	entries := buf.generateEntryList()
	if len(entries) == 0 {
		return BucketedHistogram{Buckets: []Bucket{}}
	}

	h := BucketedHistogram{Buckets: make([]Bucket, 0, len(entries))}
	for _, e := range entries {
		key := int32(e.key)
		h.Buckets = append(h.Buckets, Bucket{
			Lower: bounds.BinLowerBound(key),
			Upper: bounds.BinUpperBound(key),
			Count: uint64(e.weight),
		})
		h.MaxCount = math.Max(h.MaxCount, e.weight)
	}
	h.Min = bounds.BinLowerBound(int32(entries[0].key))
	h.Max = bounds.BinUpperBound(int32(entries[len(entries)-1].key))
	return h
}
