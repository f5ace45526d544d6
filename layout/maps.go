package layout

import "strconv"

// Maps is the complete, immutable layout derived from a Spec. It is plain
// data and safe to share read-only.
type Maps struct {
	Values  []int
	Names   []string
	Derives []*Derive

	ChannelsMax int
	BuffersMax  int
	Steps       int
	Bound       int
	StepsPast   int

	// Packed is the order values were grouped in.
	Packed []int
	Groups

	// Samples lists, per pass, the distinct (step, texture) fetches.
	Samples [][]Sample
	// Reads indexes Samples per pass, per value, per derive edge.
	Reads [][][]int

	// Key identifies the spec content these maps were built from.
	Key uint64
}

// Map validates spec and runs the packing, grouping and sampling stages.
// Either a complete layout is returned or an error, never a partial one.
func Map(spec Spec) (*Maps, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}

	order := identity(len(spec.Values))
	if spec.Pack {
		order = Pack(spec.Values, spec.ChannelsMax)
	}
	groups := GroupValues(spec.Values, spec.ChannelsMax, spec.BuffersMax, order)
	samples, reads := MapSamples(spec.Derives, groups, spec.StepsPast())

	m := &Maps{
		Values:      append([]int(nil), spec.Values...),
		Names:       append([]string(nil), spec.Names...),
		Derives:     cloneDerives(spec.Derives),
		ChannelsMax: spec.ChannelsMax,
		BuffersMax:  spec.BuffersMax,
		Steps:       spec.Steps,
		Bound:       spec.Bound,
		StepsPast:   spec.StepsPast(),
		Packed:      order,
		Groups:      groups,
		Samples:     samples,
		Reads:       reads,
		Key:         spec.Hash(),
	}
	return m, nil
}

// Name returns the label of value v, or its index when unnamed.
func (m *Maps) Name(v int) string {
	if v < len(m.Names) && m.Names[v] != "" {
		return m.Names[v]
	}
	return strconv.Itoa(v)
}

// Swizzle returns the channels value v occupies in its texture, e.g. "ba".
func (m *Maps) Swizzle(v int) string {
	const rgba = "rgba"
	ch := m.Channels[v]
	end := min(ch[0]+ch[1], len(rgba))
	return rgba[ch[0]:end]
}

// PassValues returns the values written by pass p, in texture order.
func (m *Maps) PassValues(p int) []int {
	var out []int
	for _, t := range m.Passes[p] {
		out = append(out, m.Textures[t]...)
	}
	return out
}

// Attachment returns the draw-buffer index value v is written to within its
// pass.
func (m *Maps) Attachment(v int) int {
	t := m.ValueToTexture[v]
	for i, pt := range m.Passes[m.TextureToPass[t]] {
		if pt == t {
			return i
		}
	}
	return -1
}

// Edges returns the flattened derive edges of value v.
func (m *Maps) Edges(v int) []Edge {
	if v >= len(m.Derives) || m.Derives[v] == nil {
		return nil
	}
	return m.Derives[v].Edges(len(m.Values), m.StepsPast)
}

func cloneDerives(derives []*Derive) []*Derive {
	if derives == nil {
		return nil
	}
	out := make([]*Derive, len(derives))
	for i, d := range derives {
		if d != nil {
			c := d.clone()
			out[i] = &c
		}
	}
	return out
}
