package sketchview

import (
	"sort"
)

// ExactSummary is a rank summary holding every distinct value it was built
// from. It answers quantile queries exactly and merges with another summary in
// linear time, so a growing sample set can be folded in batch by batch.
type ExactSummary struct {
	entries []sumEntry
}

// NewExactSummary returns an empty summary.
func NewExactSummary() *ExactSummary {
	return &ExactSummary{entries: []sumEntry{}}
}

// NewExactSummaryFromValues builds a summary over values, each of weight one.
func NewExactSummaryFromValues(values []float64) *ExactSummary {
	buf := newEntryBuffer(len(values))
	for _, v := range values {
		buf.push(v, 1)
	}
	sum := NewExactSummary()
	sum.buildFromBufferEntries(buf.generateEntryList())
	return sum
}

func (sum *ExactSummary) buildFromBufferEntries(bes []bufEntry) {
	sum.entries = make([]sumEntry, 0, len(bes))
	cumWeight := 0.0
	for _, entry := range bes {
		sum.entries = append(sum.entries, sumEntry{
			value:   entry.key,
			weight:  entry.weight,
			minRank: cumWeight,
			maxRank: cumWeight + entry.weight,
		})
		cumWeight += entry.weight
	}
}

// Merge folds other into sum. other is left untouched.
func (sum *ExactSummary) Merge(other *ExactSummary) {
	otherEntries := other.entries
	if len(otherEntries) == 0 {
		return
	}
	if len(sum.entries) == 0 {
		sum.entries = append([]sumEntry(nil), otherEntries...)
		return
	}

	baseEntries := sum.entries
	sum.entries = make([]sumEntry, 0, len(baseEntries)+len(otherEntries))

	// Both sides are sorted, so values stack in linear time. Each side keeps
	// the rank reached so far on the other side; equal values are merged into
	// one entry and advance both.
	var (
		i            int
		j            int
		nextMinRank1 float64
		nextMinRank2 float64
	)

	for i != len(baseEntries) && j != len(otherEntries) {
		it1 := baseEntries[i]
		it2 := otherEntries[j]
		if it1.value < it2.value {
			sum.entries = append(sum.entries, sumEntry{
				value: it1.value, weight: it1.weight,
				minRank: it1.minRank + nextMinRank2,
				maxRank: it1.maxRank + it2.prevMaxRank(),
			})
			nextMinRank1 = it1.nextMinRank()
			i++
		} else if it1.value > it2.value {
			sum.entries = append(sum.entries, sumEntry{
				value: it2.value, weight: it2.weight,
				minRank: it2.minRank + nextMinRank1,
				maxRank: it2.maxRank + it1.prevMaxRank(),
			})
			nextMinRank2 = it2.nextMinRank()
			j++
		} else {
			sum.entries = append(sum.entries, sumEntry{
				value: it1.value, weight: it1.weight + it2.weight,
				minRank: it1.minRank + it2.minRank,
				maxRank: it1.maxRank + it2.maxRank,
			})
			nextMinRank1 = it1.nextMinRank()
			nextMinRank2 = it2.nextMinRank()
			i++
			j++
		}
	}

	// Fill in any residual.
	for ; i != len(baseEntries); i++ {
		it1 := baseEntries[i]
		sum.entries = append(sum.entries, sumEntry{
			value: it1.value, weight: it1.weight,
			minRank: it1.minRank + nextMinRank2,
			maxRank: it1.maxRank + otherEntries[len(otherEntries)-1].maxRank,
		})
	}
	for ; j != len(otherEntries); j++ {
		it2 := otherEntries[j]
		sum.entries = append(sum.entries, sumEntry{
			value: it2.value, weight: it2.weight,
			minRank: it2.minRank + nextMinRank1,
			maxRank: it2.maxRank + baseEntries[len(baseEntries)-1].maxRank,
		})
	}
}

// Quantile returns the smallest value whose rank reaches q of the total
// weight. ok is false on an empty summary.
func (sum *ExactSummary) Quantile(q float64) (value float64, ok bool) {
	if len(sum.entries) == 0 {
		return 0, false
	}
	if q <= 0 {
		return sum.MinValue(), true
	}
	if q >= 1 {
		return sum.MaxValue(), true
	}
	target := q * sum.TotalWeight()
	idx := sort.Search(len(sum.entries), func(i int) bool {
		return sum.entries[i].maxRank >= target
	})
	if idx == len(sum.entries) {
		idx--
	}
	return sum.entries[idx].value, true
}

// MinValue ...
func (sum *ExactSummary) MinValue() float64 {
	if len(sum.entries) != 0 {
		return sum.entries[0].value
	}
	return 0
}

// MaxValue ...
func (sum *ExactSummary) MaxValue() float64 {
	if len(sum.entries) != 0 {
		return sum.entries[len(sum.entries)-1].value
	}
	return 0
}

// TotalWeight ...
func (sum *ExactSummary) TotalWeight() float64 {
	if len(sum.entries) != 0 {
		return sum.entries[len(sum.entries)-1].maxRank
	}
	return 0
}

// Size returns the number of distinct values.
func (sum *ExactSummary) Size() int {
	return len(sum.entries)
}
