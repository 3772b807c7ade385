package coinc

// Count returns how many timestamps in primary lie within w of at least one
// timestamp in aux. Both slices must be sorted ascending; w must be >= 0.
func Count(primary, aux []float64, w float64) int {
	n := 0
	j := 0
	for _, p := range primary {
		for j < len(aux) && aux[j] < p-w {
			j++
		}
		if j < len(aux) && aux[j] <= p+w {
			n++
		}
	}
	return n
}

// Matched returns the indices into primary of the coincident events, in
// ascending order. Same contract as Count.
func Matched(primary, aux []float64, w float64) []int {
	var idx []int
	j := 0
	for i, p := range primary {
		for j < len(aux) && aux[j] < p-w {
			j++
		}
		if j < len(aux) && aux[j] <= p+w {
			idx = append(idx, i)
		}
	}
	return idx
}
