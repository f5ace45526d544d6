// Package state binds a layout to GPU resources and runs the per-frame
// update: one framebuffer per (step buffer, pass), drawn in pass order, with
// past steps exposed to shaders through the generated macros.
package state

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/pthm-cable/gpgpu/glsl"
	"github.com/pthm-cable/gpgpu/gpu"
	"github.com/pthm-cable/gpgpu/layout"
	"github.com/pthm-cable/gpgpu/macro"
)

// ErrTextureUnits is returned when a pass would bind more textures than the
// device allows.
var ErrTextureUnits = errors.New("texture units exceeded")

// ErrClosed is returned by Step after Close.
var ErrClosed = errors.New("state closed")

// PhaseTimer receives the name of each phase of a step as it starts.
type PhaseTimer interface {
	StartPhase(phase string)
}

// Options configure resource allocation and drawing.
type Options struct {
	Width  int
	Height int

	// Merge copies every written texture into one merged texture so shaders
	// can index steps dynamically.
	Merge bool

	Type   gpu.DataType
	Filter gpu.Filter
	Wrap   gpu.Wrap

	// TexturesMax is the device's sampler unit limit, 0 for no check.
	TexturesMax int
	// UserTextures counts sampler units taken by user uniforms.
	UserTextures int

	Prefix string
	Hooks  macro.Hook

	// Vertex defaults to glsl.Vertex.
	Vertex string
	// Fragment is the update logic; each pass gets its macros prepended.
	Fragment string
	Uniforms map[string]gpu.UniformFunc

	// Data optionally seeds a texture of a step buffer.
	Data func(step, texture int) []float32

	Timer  PhaseTimer
	Logger *slog.Logger
}

// State owns the textures and framebuffers of one layout.
type State struct {
	provider gpu.Provider
	maps     *layout.Maps
	opts     Options
	gen      *macro.Generator
	log      *slog.Logger

	// textures[step buffer][texture], framebuffers[step buffer][pass]
	textures     [][]gpu.Texture
	framebuffers [][]gpu.Framebuffer
	merged       *gpu.Texture
	fragments    []string

	stepNow int
	tick    int
	closed  bool
}

// TextureUnits returns the sampler units a pass binds for the layout.
func TextureUnits(m *layout.Maps, merge bool) int {
	if merge {
		return 1
	}
	return m.StepsPast * len(m.Textures)
}

// New validates device limits and allocates every resource. Nothing is left
// allocated when it fails.
func New(p gpu.Provider, m *layout.Maps, opts Options) (*State, error) {
	if opts.Width <= 0 || opts.Height <= 0 {
		return nil, fmt.Errorf("state size %dx%d: must be positive", opts.Width, opts.Height)
	}
	units := TextureUnits(m, opts.Merge) + opts.UserTextures
	if opts.TexturesMax > 0 && units > opts.TexturesMax {
		return nil, fmt.Errorf("%d units needed, %d available: %w", units, opts.TexturesMax, ErrTextureUnits)
	}
	if opts.Vertex == "" {
		opts.Vertex = glsl.Vertex
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	s := &State{
		provider: p,
		maps:     m,
		opts:     opts,
		gen:      macro.NewGenerator(opts.Prefix, opts.Hooks),
		log:      opts.Logger,
	}
	if err := s.allocate(); err != nil {
		if cerr := s.release(); cerr != nil {
			s.log.Debug("release after failed allocation", "error", cerr)
		}
		return nil, err
	}

	flags := macro.Flags{Merge: opts.Merge}
	s.fragments = make([]string, len(m.Passes))
	for pass := range m.Passes {
		s.fragments[pass] = s.gen.Source(m, pass, flags, opts.Fragment)
	}

	s.log.Debug("state allocated",
		"steps", m.Steps,
		"textures", len(m.Textures),
		"passes", len(m.Passes),
		"merge", opts.Merge,
		"units", units,
	)
	return s, nil
}

func (s *State) allocate() error {
	m := s.maps
	w, h := s.opts.Width, s.opts.Height

	s.textures = make([][]gpu.Texture, 0, m.Steps)
	for step := 0; step < m.Steps; step++ {
		row := make([]gpu.Texture, 0, len(m.Textures))
		for t := range m.Textures {
			spec := gpu.TextureSpec{
				Type:     s.opts.Type,
				Min:      s.opts.Filter,
				Mag:      s.opts.Filter,
				Wrap:     s.opts.Wrap,
				Width:    w,
				Height:   h,
				Channels: layout.MaxChannels,
			}
			if s.opts.Data != nil {
				spec.Data = s.opts.Data(step, t)
			}
			tex, err := s.provider.CreateTexture(spec)
			if err != nil {
				s.textures = append(s.textures, row)
				return fmt.Errorf("step %d texture %d: %w", step, t, err)
			}
			row = append(row, tex)
		}
		s.textures = append(s.textures, row)
	}

	s.framebuffers = make([][]gpu.Framebuffer, 0, m.Steps)
	for step := 0; step < m.Steps; step++ {
		row := make([]gpu.Framebuffer, 0, len(m.Passes))
		for pass, textures := range m.Passes {
			color := make([]gpu.Texture, len(textures))
			for i, t := range textures {
				color[i] = s.textures[step][t]
			}
			fb, err := s.provider.CreateFramebuffer(gpu.FramebufferSpec{Width: w, Height: h, Color: color})
			if err != nil {
				s.framebuffers = append(s.framebuffers, row)
				return fmt.Errorf("step %d pass %d framebuffer: %w", step, pass, err)
			}
			if s.opts.Data == nil {
				if err := s.provider.Clear(&fb, [4]float32{}); err != nil {
					s.framebuffers = append(s.framebuffers, append(row, fb))
					return fmt.Errorf("step %d pass %d clear: %w", step, pass, err)
				}
			}
			row = append(row, fb)
		}
		s.framebuffers = append(s.framebuffers, row)
	}

	if s.opts.Merge {
		merged, err := s.provider.CreateTexture(gpu.TextureSpec{
			Type:     s.opts.Type,
			Min:      s.opts.Filter,
			Mag:      s.opts.Filter,
			Wrap:     gpu.Clamp,
			Width:    w * len(m.Textures),
			Height:   h * m.Steps,
			Channels: layout.MaxChannels,
		})
		if err != nil {
			return fmt.Errorf("merged texture: %w", err)
		}
		s.merged = &merged
		for step := 0; step < m.Steps; step++ {
			for t := range m.Textures {
				if err := s.copyTile(step, t); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// release frees every allocated resource, returning the first error.
func (s *State) release() error {
	var first error
	keep := func(err error) {
		if err != nil && first == nil {
			first = err
		}
	}
	for _, row := range s.framebuffers {
		for _, fb := range row {
			keep(s.provider.ReleaseFramebuffer(fb))
		}
	}
	for _, row := range s.textures {
		for _, tex := range row {
			keep(s.provider.ReleaseTexture(tex))
		}
	}
	if s.merged != nil {
		keep(s.provider.ReleaseTexture(*s.merged))
	}
	s.framebuffers, s.textures, s.merged = nil, nil, nil
	return first
}

// Close releases every resource. Further steps fail with ErrClosed.
func (s *State) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	return s.release()
}
