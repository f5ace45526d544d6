package state

import (
	"fmt"
	"strconv"

	"github.com/pthm-cable/gpgpu/gpu"
	"github.com/pthm-cable/gpgpu/layout"
)

// Phase names reported to the PhaseTimer.
const (
	PhaseMerge = "merge"
)

// PhasePass names the phase of drawing pass p.
func PhasePass(p int) string {
	return "pass_" + strconv.Itoa(p)
}

// Step advances the step ring and draws every pass in order. Draw failures
// are returned with the step and pass they happened in; later passes of the
// step are not drawn.
func (s *State) Step() error {
	if s.closed {
		return ErrClosed
	}
	s.stepNow = (s.stepNow + 1) % s.maps.Steps
	s.tick++

	for pass := range s.maps.Passes {
		if err := s.drawPass(pass); err != nil {
			return fmt.Errorf("step %d pass %d: %w", s.tick, pass, err)
		}
		if s.opts.Merge {
			if s.opts.Timer != nil {
				s.opts.Timer.StartPhase(PhaseMerge)
			}
			if err := s.updateMerge(pass); err != nil {
				return fmt.Errorf("step %d pass %d merge: %w", s.tick, pass, err)
			}
		}
	}
	return nil
}

func (s *State) drawPass(pass int) error {
	if s.opts.Timer != nil {
		s.opts.Timer.StartPhase(PhasePass(pass))
	}
	fb := s.framebuffers[s.stepNow][pass]
	return s.provider.Draw(gpu.DrawCommand{
		Vertex:      s.opts.Vertex,
		Fragment:    s.fragments[pass],
		Uniforms:    s.uniforms(),
		Framebuffer: &fb,
		DrawBuffers: len(s.maps.Passes[pass]),
		Primitive:   gpu.Triangles,
		Count:       3,
	})
}

// uniforms merges user uniforms with the binder's own, which win on name
// clashes.
func (s *State) uniforms() map[string]gpu.UniformFunc {
	p := s.gen.Prefix()
	u := make(map[string]gpu.UniformFunc, len(s.opts.Uniforms)+3)
	for name, f := range s.opts.Uniforms {
		u[name] = f
	}
	u[p+"shape"] = func() any {
		return []float32{float32(s.opts.Width), float32(s.opts.Height)}
	}
	u[p+"stepNow"] = func() any {
		return int32(s.stepNow)
	}
	if s.opts.Merge {
		u[p+"states"] = func() any { return *s.merged }
	} else if TextureUnits(s.maps, false) > 0 {
		u[p+"states"] = func() any { return s.pastTextures() }
	}
	return u
}

// pastTextures orders readable textures as the generated taps index them:
// steps ago major, texture minor.
func (s *State) pastTextures() []gpu.Texture {
	out := make([]gpu.Texture, 0, TextureUnits(s.maps, false))
	for ago := 0; ago < s.maps.StepsPast; ago++ {
		out = append(out, s.textures[s.StepIndex(ago)]...)
	}
	return out
}

// updateMerge copies the textures pass just wrote into their merged tiles.
func (s *State) updateMerge(pass int) error {
	for _, t := range s.maps.Passes[pass] {
		if err := s.copyTile(s.stepNow, t); err != nil {
			return err
		}
	}
	return nil
}

func (s *State) copyTile(step, t int) error {
	w, h := s.opts.Width, s.opts.Height
	err := s.provider.Copy(*s.merged, t*w, step*h, s.textures[step][t], gpu.Region{Width: w, Height: h})
	if err != nil {
		return fmt.Errorf("merge step %d texture %d: %w", step, t, err)
	}
	return nil
}

// StepIndex returns the step buffer holding the state stepsAgo steps before
// the most recent readable one.
func (s *State) StepIndex(stepsAgo int) int {
	steps := s.maps.Steps
	i := (s.stepNow - s.maps.Bound - stepsAgo) % steps
	if i < 0 {
		i += steps
	}
	return i
}

// StepNow returns the step buffer being written by the current step.
func (s *State) StepNow() int { return s.stepNow }

// Tick returns how many steps have run.
func (s *State) Tick() int { return s.tick }

// Maps returns the layout the state was built for.
func (s *State) Maps() *layout.Maps { return s.maps }

// Current returns the textures written by the latest step.
func (s *State) Current() []gpu.Texture { return s.textures[s.stepNow] }

// Textures returns step buffer i's textures.
func (s *State) Textures(i int) []gpu.Texture { return s.textures[i] }

// Framebuffer returns step buffer i's framebuffer for pass p.
func (s *State) Framebuffer(i, p int) gpu.Framebuffer { return s.framebuffers[i][p] }

// Merged returns the merged texture, if merging.
func (s *State) Merged() (gpu.Texture, bool) {
	if s.merged == nil {
		return gpu.Texture{}, false
	}
	return *s.merged, true
}

// Fragment returns pass p's complete fragment source.
func (s *State) Fragment(p int) string { return s.fragments[p] }
