package game

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/pthm-cable/gpgpu/telemetry"
)

var errNoState = errors.New("no state allocated")

// Update handles input and runs the configured number of steps.
func (g *Game) Update() {
	g.handleInput()
	g.perf.RecordFrame()

	if g.paused {
		return
	}
	for i := 0; i < g.stepsPerUpdate; i++ {
		if err := g.step(); err != nil {
			g.logStepError(err)
			g.paused = true
			return
		}
	}
}

// UpdateHeadless runs the configured number of steps without input or
// drawing. Recorded commands are dropped after each step.
func (g *Game) UpdateHeadless() error {
	for i := 0; i < g.stepsPerUpdate; i++ {
		if g.recorder != nil {
			g.recorder.Reset()
		}
		if err := g.step(); err != nil {
			return err
		}
	}
	return nil
}

// step runs one tick: host-side uniforms, every pass, then telemetry.
func (g *Game) step() error {
	if g.state == nil {
		return errNoState
	}
	g.perf.StartTick()
	g.perf.StartPhase(telemetry.PhaseUniforms)
	g.updateAttractors(g.cfg.Derived.DT32)

	if err := g.state.Step(); err != nil {
		g.perf.EndTick()
		return fmt.Errorf("tick %d: %w", g.tick, err)
	}
	g.tick++
	g.time += g.cfg.Derived.DT32

	g.perf.StartPhase(telemetry.PhaseOutput)
	if interval := int32(g.cfg.Telemetry.LogInterval); interval > 0 && g.tick%interval == 0 {
		g.flushStats()
	}
	g.perf.EndTick()
	return nil
}

// flushStats logs and writes the current perf window.
func (g *Game) flushStats() {
	stats := g.perf.Stats()
	if g.opts.LogStats {
		stats.LogStats()
	}
	if err := g.output.WritePerf(stats, g.tick); err != nil {
		slog.Warn("failed to write perf", "error", err)
	}
}

// setMerge switches between per-step and merged state textures, rebuilding
// the state.
func (g *Game) setMerge(merge bool) {
	if merge == g.merge {
		return
	}
	g.merge = merge
	if err := g.reset(); err != nil {
		slog.Error("rebuilding state", "merge", merge, "error", err)
		g.merge = !merge
		if err := g.reset(); err != nil {
			slog.Error("restoring state", "error", err)
			g.paused = true
		}
	}
}

func (g *Game) logStepError(err error) {
	slog.Error("step failed", "tick", g.tick, "error", err)
}
