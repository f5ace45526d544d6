package layout

// Groups is the physical layout of values into textures and textures into
// passes, with inverse maps for constant-time lookup.
type Groups struct {
	// Textures lists value indices per texture, in packing order.
	Textures [][]int
	// Passes lists texture indices per pass.
	Passes [][]int

	ValueToTexture []int
	ValueToPass    []int
	TextureToPass  []int

	// Channels holds, per value, its first channel within its texture and
	// its channel count.
	Channels [][2]int
}

// GroupValues fills textures by walking values in the given order, opening a
// new texture whenever the next value does not fit in channelsMax, then fills
// passes with up to buffersMax consecutive textures.
//
// A value wider than channelsMax still occupies exactly one texture.
func GroupValues(values []int, channelsMax, buffersMax int, order []int) Groups {
	g := Groups{
		ValueToTexture: make([]int, len(values)),
		ValueToPass:    make([]int, len(values)),
		Channels:       make([][2]int, len(values)),
	}

	used := 0
	for _, v := range order {
		c := values[v]
		if len(g.Textures) == 0 || used+c > channelsMax {
			g.Textures = append(g.Textures, nil)
			used = 0
		}
		t := len(g.Textures) - 1
		g.Textures[t] = append(g.Textures[t], v)
		g.ValueToTexture[v] = t
		g.Channels[v] = [2]int{used, c}
		used += c
	}

	g.TextureToPass = make([]int, len(g.Textures))
	for t := range g.Textures {
		if len(g.Passes) == 0 || len(g.Passes[len(g.Passes)-1]) >= buffersMax {
			g.Passes = append(g.Passes, nil)
		}
		p := len(g.Passes) - 1
		g.Passes[p] = append(g.Passes[p], t)
		g.TextureToPass[t] = p
	}

	for v := range values {
		g.ValueToPass[v] = g.TextureToPass[g.ValueToTexture[v]]
	}
	return g
}
