package layout

// Sample is one texture fetch: a texture as it was Step steps ago.
type Sample struct {
	Step    int
	Texture int
}

// MapSamples resolves every derive edge of each pass's bound values to a
// (step, texture) sample, deduplicated per pass in first-seen order.
//
// reads[pass][value] holds, per edge of value in edge order, the index of
// the sample that edge resolves to; it is nil for values not bound in the
// pass or without edges. Derives must already be validated.
func MapSamples(derives []*Derive, g Groups, stepsPast int) (samples [][]Sample, reads [][][]int) {
	valueCount := len(g.ValueToTexture)
	samples = make([][]Sample, len(g.Passes))
	reads = make([][][]int, len(g.Passes))

	for p, pass := range g.Passes {
		index := make(map[Sample]int)
		passReads := make([][]int, valueCount)

		for _, t := range pass {
			for _, v := range g.Textures[t] {
				if v >= len(derives) || derives[v] == nil {
					continue
				}
				edges := derives[v].Edges(valueCount, stepsPast)
				if len(edges) == 0 {
					continue
				}
				valueReads := make([]int, len(edges))
				for e, edge := range edges {
					s := Sample{Step: edge.Step, Texture: g.ValueToTexture[edge.Value]}
					i, ok := index[s]
					if !ok {
						i = len(samples[p])
						index[s] = i
						samples[p] = append(samples[p], s)
					}
					valueReads[e] = i
				}
				passReads[v] = valueReads
			}
		}
		reads[p] = passReads
	}
	return samples, reads
}
