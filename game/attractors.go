package game

import (
	"math"
	"strconv"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/gpgpu/components"
	"github.com/pthm-cable/gpgpu/gpu"
)

// spawnAttractors creates the configured number of orbiting attractors.
func (g *Game) spawnAttractors() {
	n := min(g.cfg.Demo.Attractors, components.MaxAttractors)
	for i := 0; i < n; i++ {
		orbit := components.Orbit{
			CX:     0.3 + 0.4*g.rng.Float32(),
			CY:     0.3 + 0.4*g.rng.Float32(),
			Radius: 0.05 + 0.2*g.rng.Float32(),
			Speed:  (g.rng.Float32()*2 - 1) * 0.8,
			Phase:  g.rng.Float32() * 2 * math.Pi,
		}
		pos := orbit.Advance(0)
		attr := components.Attractor{Strength: 1}
		// Every third attractor repels.
		if i%3 == 2 {
			attr.Strength = -0.5
		}
		g.attractorMapper.NewEntity(&pos, &orbit, &attr)
	}
	g.refreshAttractors()
}

// addAttractor pins a new attractor at a state-space point, if a slot is
// free.
func (g *Game) addAttractor(x, y, strength float32) bool {
	if g.countAttractors() >= components.MaxAttractors {
		return false
	}
	pos := components.Position{X: x, Y: y}
	orbit := components.Orbit{CX: x, CY: y}
	attr := components.Attractor{Strength: strength, Pinned: true}
	g.attractorMapper.NewEntity(&pos, &orbit, &attr)
	g.refreshAttractors()
	return true
}

// removeNearestAttractor removes the attractor closest to a state-space
// point.
func (g *Game) removeNearestAttractor(x, y float32) bool {
	var nearest ecs.Entity
	best := float32(math.MaxFloat32)
	found := false

	query := g.attractorFilter.Query()
	for query.Next() {
		pos, _, _ := query.Get()
		dx, dy := pos.X-x, pos.Y-y
		if d := dx*dx + dy*dy; d < best {
			best = d
			nearest = query.Entity()
			found = true
		}
	}
	if !found {
		return false
	}
	g.attractorMapper.Remove(nearest)
	g.refreshAttractors()
	return true
}

func (g *Game) countAttractors() int {
	n := 0
	query := g.attractorFilter.Query()
	for query.Next() {
		n++
	}
	return n
}

// updateAttractors moves orbiting attractors on by dt.
func (g *Game) updateAttractors(dt float32) {
	query := g.attractorFilter.Query()
	for query.Next() {
		pos, orbit, attr := query.Get()
		if attr.Pinned {
			continue
		}
		*pos = orbit.Advance(dt)
	}
	g.refreshAttractors()
}

// refreshAttractors copies attractor positions into the uniform slots.
func (g *Game) refreshAttractors() {
	g.attractorCount = 0
	query := g.attractorFilter.Query()
	for query.Next() {
		pos, _, attr := query.Get()
		if int(g.attractorCount) < components.MaxAttractors {
			g.attractors[g.attractorCount] = []float32{pos.X, pos.Y, attr.Strength}
			g.attractorCount++
		}
	}
	for i := int(g.attractorCount); i < components.MaxAttractors; i++ {
		g.attractors[i] = []float32{0, 0, 0}
	}
}

// uniforms are the demo's shader inputs, read at draw time.
func (g *Game) uniforms() map[string]gpu.UniformFunc {
	u := map[string]gpu.UniformFunc{
		"time":           func() any { return g.time },
		"dt":             func() any { return g.cfg.Derived.DT32 },
		"drag":           func() any { return float32(g.cfg.Demo.Drag) },
		"lifetime":       func() any { return float32(g.cfg.Demo.Lifetime) },
		"strength":       func() any { return g.strength },
		"attractorCount": func() any { return g.attractorCount },
	}
	for i := range g.attractors {
		u[attractorUniform(i)] = func() any { return g.attractors[i] }
	}
	return u
}

func attractorUniform(i int) string {
	return "attractors[" + strconv.Itoa(i) + "]"
}
