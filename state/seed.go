package state

import "github.com/pthm-cable/gpgpu/layout"

// ValueFiller writes the initial channels of value v at texel (x, y) into
// out, which has one entry per channel of the value.
type ValueFiller func(v, x, y int, out []float32)

// SeedValues returns an Options.Data function that fills each texture from
// per-value initial state, placing every value in the channels the layout
// gave it. Every step buffer starts from the same state.
func SeedValues(m *layout.Maps, width, height int, fill ValueFiller) func(step, texture int) []float32 {
	return func(step, texture int) []float32 {
		data := make([]float32, width*height*layout.MaxChannels)
		for _, v := range m.Textures[texture] {
			offset, count := m.Channels[v][0], m.Channels[v][1]
			for y := 0; y < height; y++ {
				for x := 0; x < width; x++ {
					i := (y*width+x)*layout.MaxChannels + offset
					fill(v, x, y, data[i:i+count])
				}
			}
		}
		return data
	}
}
