package sketchview

// sumEntry is a distinct value of the exact summary together with its weight
// and the rank interval it occupies.
type sumEntry struct {
	value   float64
	weight  float64
	minRank float64
	maxRank float64
}

func (se sumEntry) prevMaxRank() float64 {
	return se.maxRank - se.weight
}

func (se sumEntry) nextMinRank() float64 {
	return se.minRank + se.weight
}
