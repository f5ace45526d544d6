package layout

import "sort"

// Pack orders value indices so that consecutive greedy filling needs as few
// textures as possible under channelsMax channels per texture.
//
// Values are sorted by descending channel count (stable, so equal counts keep
// their input order) and dropped first-fit into bins; the result lists each
// bin's values in bin order. A value wider than channelsMax gets a bin of its
// own and is never split.
func Pack(values []int, channelsMax int) []int {
	order := make([]int, len(values))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return values[order[a]] > values[order[b]]
	})

	var bins [][]int
	var free []int
	for _, v := range order {
		placed := false
		for b := range bins {
			if values[v] <= free[b] {
				bins[b] = append(bins[b], v)
				free[b] -= values[v]
				placed = true
				break
			}
		}
		if !placed {
			bins = append(bins, []int{v})
			// Oversized values close their bin immediately.
			free = append(free, max(channelsMax-values[v], 0))
		}
	}

	packed := make([]int, 0, len(values))
	for _, bin := range bins {
		packed = append(packed, bin...)
	}
	return packed
}

// identity returns the unpacked order 0..n-1.
func identity(n int) []int {
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	return order
}
