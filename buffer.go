package sketchview

import (
	"sort"
)

// bufEntry is a keyed weight waiting to be merged with its equals.
type bufEntry struct {
	key    float64
	weight float64
}

func (be bufEntry) lessThan(o bufEntry) bool {
	return be.key < o.key
}

// entryBuffer accumulates (key, weight) entries and hands them back sorted,
// with entries sharing a key collapsed into one by summing their weights.
// The histogram binner feeds it bucket indexes and sketch bin keys, the exact
// summary feeds it raw sample values.
type entryBuffer struct {
	vec []bufEntry
}

func newEntryBuffer(sizeHint int) *entryBuffer {
	if sizeHint < 0 {
		sizeHint = 0
	}
	return &entryBuffer{vec: make([]bufEntry, 0, sizeHint)}
}

// push adds an entry. Entries without positive weight carry no mass and are dropped.
func (eb *entryBuffer) push(key, weight float64) {
	if weight > 0 {
		eb.vec = append(eb.vec, bufEntry{key, weight})
	}
}

// generateEntryList returns a sorted view of the buffer with equal keys
// merged, and clears the buffer.
func (eb *entryBuffer) generateEntryList() []bufEntry {
	sort.Slice(eb.vec, func(i, j int) bool { return eb.vec[i].lessThan(eb.vec[j]) })
	ret := eb.vec
	eb.vec = []bufEntry{}

	if len(ret) == 0 {
		return ret
	}
	numEntries := 0
	for i := 1; i < len(ret); i++ {
		if ret[i].key != ret[numEntries].key {
			numEntries++
			ret[numEntries] = ret[i]
		} else {
			ret[numEntries].weight += ret[i].weight
		}
	}
	return ret[:numEntries+1]
}
