// Package game runs the particle demo: three state values updated on the GPU
// through generated layout macros, with attractors managed in an ECS world.
package game

import (
	"errors"
	"fmt"
	"log/slog"
	"math/rand"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/gpgpu/components"
	"github.com/pthm-cable/gpgpu/config"
	"github.com/pthm-cable/gpgpu/gpu"
	"github.com/pthm-cable/gpgpu/layout"
	"github.com/pthm-cable/gpgpu/renderer"
	"github.com/pthm-cable/gpgpu/state"
	"github.com/pthm-cable/gpgpu/telemetry"
)

// Values the demo shader reads and writes.
var demoValues = []string{"position", "motion", "life"}

// ErrDemoValues is returned when the configured values do not include the
// ones the demo shader uses.
var ErrDemoValues = errors.New("demo needs values position, motion and life")

// Options configure a demo run.
type Options struct {
	Seed           int64
	LogStats       bool
	OutputDir      string
	Headless       bool
	StepsPerUpdate int
}

// Game holds the complete demo state.
type Game struct {
	cfg  *config.Config
	opts Options
	rng  *rand.Rand

	world           *ecs.World
	attractorMapper *ecs.Map3[components.Position, components.Orbit, components.Attractor]
	attractorFilter *ecs.Filter3[components.Position, components.Orbit, components.Attractor]

	// Exactly one of recorder (headless) and gl is set.
	provider gpu.Provider
	recorder *gpu.Recorder
	gl       *renderer.Provider
	preview  *renderer.Preview
	panel    *Panel

	pipeline *layout.Pipeline
	state    *state.State
	fragment string
	merge    bool

	perf   *telemetry.PerfCollector
	output *telemetry.OutputManager

	// Attractor uniforms, refreshed once per tick
	attractors     [components.MaxAttractors][]float32
	attractorCount int32

	tick           int32
	time           float32
	paused         bool
	stepsPerUpdate int
	view           int // value shown in the main view
	strength       float32
}

// NewGameWithOptions creates a demo. Graphical mode needs an open window.
func NewGameWithOptions(opts Options) (*Game, error) {
	cfg := config.Cfg()

	spec, err := cfg.Spec()
	if err != nil {
		return nil, fmt.Errorf("layout spec: %w", err)
	}
	for _, name := range demoValues {
		if _, ok := cfg.Derived.ValueIndex[name]; !ok {
			return nil, fmt.Errorf("missing %q: %w", name, ErrDemoValues)
		}
	}

	world := ecs.NewWorld()
	g := &Game{
		cfg:             cfg,
		opts:            opts,
		rng:             rand.New(rand.NewSource(opts.Seed)),
		world:           world,
		attractorMapper: ecs.NewMap3[components.Position, components.Orbit, components.Attractor](world),
		attractorFilter: ecs.NewFilter3[components.Position, components.Orbit, components.Attractor](world),
		pipeline:        layout.NewPipeline(spec),
		fragment:        fragmentSource(cfg.State.Prefix),
		merge:           cfg.State.Merge,
		perf:            telemetry.NewPerfCollector(cfg.Telemetry.PerfWindow),
		stepsPerUpdate:  max(opts.StepsPerUpdate, 1),
		view:            cfg.Derived.ValueIndex["position"],
		strength:        float32(cfg.Demo.Strength),
	}

	if opts.Headless {
		g.recorder = gpu.NewRecorder()
		g.provider = g.recorder
	} else {
		g.gl = renderer.NewProvider()
		g.provider = g.gl
		if g.preview, err = renderer.NewPreview(); err != nil {
			g.gl.Unload()
			return nil, fmt.Errorf("preview shader: %w", err)
		}
		g.panel = NewPanel()
	}

	if g.output, err = telemetry.NewOutputManager(opts.OutputDir); err != nil {
		g.Unload()
		return nil, err
	}
	if err := g.output.WriteConfig(cfg); err != nil {
		slog.Warn("failed to write config", "error", err)
	}

	g.spawnAttractors()
	if err := g.reset(); err != nil {
		g.Unload()
		return nil, err
	}
	return g, nil
}

// reset rebuilds the state from the current layout and initial values.
func (g *Game) reset() error {
	if g.state != nil {
		if err := g.state.Close(); err != nil {
			slog.Warn("closing state", "error", err)
		}
		g.state = nil
	}

	m, err := g.pipeline.Maps()
	if err != nil {
		return fmt.Errorf("layout: %w", err)
	}
	w, h := g.cfg.State.Width, g.cfg.State.Height
	st, err := state.New(g.provider, m, state.Options{
		Width:       w,
		Height:      h,
		Merge:       g.merge,
		Type:        g.cfg.Derived.Type,
		Filter:      g.cfg.Derived.Filter,
		Wrap:        g.cfg.Derived.Wrap,
		TexturesMax: g.cfg.Device.TexturesMax,
		Prefix:      g.cfg.State.Prefix,
		Fragment:    g.fragment,
		Uniforms:    g.uniforms(),
		Data:        state.SeedValues(m, w, h, g.seedValue),
		Timer:       g.perf,
		Logger:      slog.Default(),
	})
	if err != nil {
		return fmt.Errorf("state: %w", err)
	}
	g.state = st
	g.time = 0

	slog.Info("state ready", "layout", telemetry.Summarize(m), "merge", g.merge)
	if err := g.output.WriteLayout(m); err != nil {
		slog.Warn("failed to write layout", "error", err)
	}
	for pass := range m.Passes {
		if err := g.output.WriteShader(pass, st.Fragment(pass)); err != nil {
			slog.Warn("failed to write shader", "error", err)
		}
	}
	return nil
}

// seedValue fills the initial particle state. Every texel gets its own
// deterministic noise so all step buffers start identical.
func (g *Game) seedValue(v, x, y int, out []float32) {
	idx := g.cfg.Derived.ValueIndex
	switch v {
	case idx["position"]:
		out[0] = noise(g.opts.Seed, x, y, 0)
		out[1] = noise(g.opts.Seed, x, y, 1)
	case idx["life"]:
		out[0] = noise(g.opts.Seed, x, y, 2)
	default:
		clear(out)
	}
}

// noise hashes a texel channel to [0, 1) with a splitmix64 finalizer.
func noise(seed int64, x, y, c int) float32 {
	z := uint64(seed) + uint64(x)*0x9e3779b97f4a7c15 + uint64(y)*0xbf58476d1ce4e5b9 + uint64(c)*0x94d049bb133111eb
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	z ^= z >> 31
	return float32(z>>40) / (1 << 24)
}

// Tick returns the number of steps run.
func (g *Game) Tick() int32 {
	return g.tick
}

// State returns the running state binder.
func (g *Game) State() *state.State {
	return g.state
}

// Recorder returns the headless provider, nil in graphical mode.
func (g *Game) Recorder() *gpu.Recorder {
	return g.recorder
}

// Unload releases all resources.
func (g *Game) Unload() {
	if g.state != nil {
		if err := g.state.Close(); err != nil {
			slog.Warn("closing state", "error", err)
		}
	}
	if g.preview != nil {
		g.preview.Unload()
	}
	if g.gl != nil {
		g.gl.Unload()
	}
	if err := g.output.Close(); err != nil {
		slog.Warn("closing output", "error", err)
	}
}
