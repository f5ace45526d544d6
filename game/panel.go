package game

import (
	"fmt"

	gui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"
)

// Panel draws the raygui controls beside the main view.
type Panel struct {
	rowHeight float32
	gap       float32
}

// NewPanel creates the control panel.
func NewPanel() *Panel {
	return &Panel{rowHeight: 30, gap: 10}
}

// Draw renders the controls into bounds and applies any changes to g.
func (p *Panel) Draw(g *Game, bounds rl.Rectangle) {
	x, y := bounds.X, bounds.Y
	half := (bounds.Width - p.gap) / 2

	rl.DrawText("Controls", int32(x), int32(y), 20, rl.LightGray)
	y += 35

	if gui.Button(rl.Rectangle{X: x, Y: y, Width: half, Height: p.rowHeight}, toggleText(g.paused, "Resume", "Pause")) {
		g.paused = !g.paused
	}
	if gui.Button(rl.Rectangle{X: x + half + p.gap, Y: y, Width: half, Height: p.rowHeight}, "Step") {
		g.stepOnce()
	}
	y += p.rowHeight + p.gap

	if gui.Button(rl.Rectangle{X: x, Y: y, Width: half, Height: p.rowHeight}, "Reset") {
		g.resetOrPause()
	}
	if gui.Button(rl.Rectangle{X: x + half + p.gap, Y: y, Width: half, Height: p.rowHeight}, toggleText(g.merge, "Unmerge", "Merge")) {
		g.setMerge(!g.merge)
	}
	y += p.rowHeight + p.gap + 5

	// Steps per update
	rl.DrawText(fmt.Sprintf("Steps/update: %d", g.stepsPerUpdate), int32(x), int32(y), 14, rl.Gray)
	y += 18
	steps := gui.SliderBar(
		rl.Rectangle{X: x + 20, Y: y, Width: bounds.Width - 40, Height: 20},
		"1", "10",
		float32(g.stepsPerUpdate), 1, 10,
	)
	g.stepsPerUpdate = max(int(steps+0.5), 1)
	y += 35

	// Attractor strength
	rl.DrawText(fmt.Sprintf("Strength: %.2f", g.strength), int32(x), int32(y), 14, rl.Gray)
	y += 18
	g.strength = gui.SliderBar(
		rl.Rectangle{X: x + 20, Y: y, Width: bounds.Width - 40, Height: 20},
		"0", "2",
		g.strength, 0, 2,
	)
	y += 45

	// Value shown in the main view
	rl.DrawText("View", int32(x), int32(y), 14, rl.Gray)
	y += 18
	for v, value := range g.cfg.Values {
		label := value.Name
		if v == g.view {
			label = "> " + label
		}
		if gui.Button(rl.Rectangle{X: x, Y: y, Width: bounds.Width, Height: p.rowHeight - 4}, label) {
			g.view = v
		}
		y += p.rowHeight
	}
	y += p.gap

	if g.state == nil {
		return
	}
	m := g.state.Maps()
	rl.DrawText("Layout", int32(x), int32(y), 14, rl.Gray)
	y += 18
	for t, values := range m.Textures {
		line := fmt.Sprintf("tex %d (pass %d):", t, m.TextureToPass[t])
		for _, v := range values {
			line += " " + m.Name(v) + "." + m.Swizzle(v)
		}
		rl.DrawText(line, int32(x), int32(y), 12, rl.DarkGray)
		y += 16
	}
}

func toggleText(on bool, onText, offText string) string {
	if on {
		return onText
	}
	return offText
}
