package game

import (
	"fmt"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/gpgpu/components"
)

const (
	margin      = 10
	panelWidth  = 220
	thumbHeight = 120
)

// valueRanges map value names to the range their preview spans.
var valueRanges = map[string][2]float32{
	"position": {0, 1},
	"motion":   {-0.5, 0.5},
	"life":     {0, 1},
}

// mainView is the screen rectangle of the selected value's preview.
func (g *Game) mainView() rl.Rectangle {
	w := float32(rl.GetScreenWidth()) - panelWidth - 3*margin
	h := float32(rl.GetScreenHeight()) - thumbHeight - 3*margin
	size := min(w, h)
	return rl.Rectangle{X: margin, Y: margin, Width: size, Height: size}
}

// Draw renders the state previews, attractors, HUD and control panel.
func (g *Game) Draw() {
	rl.BeginDrawing()
	rl.ClearBackground(rl.Color{R: 18, G: 18, B: 24, A: 255})

	if g.state != nil {
		view := g.mainView()
		g.drawValue(g.view, view)
		g.drawAttractors(view)
		g.drawHUD(view)

		// Thumbnails of every value along the bottom
		x := float32(margin)
		y := view.Y + view.Height + margin
		for v := range g.cfg.Values {
			rect := rl.Rectangle{X: x, Y: y, Width: thumbHeight, Height: thumbHeight}
			g.drawValue(v, rect)
			color := rl.Gray
			if v == g.view {
				color = rl.Yellow
			}
			rl.DrawRectangleLinesEx(rect, 1, color)
			rl.DrawText(g.cfg.Values[v].Name, int32(x)+4, int32(y)+4, 14, color)
			x += thumbHeight + margin
		}
	}

	if g.panel != nil {
		g.panel.Draw(g, rl.Rectangle{
			X:      float32(rl.GetScreenWidth()) - panelWidth - margin,
			Y:      margin,
			Width:  panelWidth,
			Height: float32(rl.GetScreenHeight()) - 2*margin,
		})
	}

	rl.EndDrawing()
}

// drawValue previews value v of the latest step in dst.
func (g *Game) drawValue(v int, dst rl.Rectangle) {
	m := g.state.Maps()
	tex := g.state.Current()[m.ValueToTexture[v]]
	ch := m.Channels[v]
	r, ok := valueRanges[m.Name(v)]
	if !ok {
		r = [2]float32{0, 1}
	}
	g.preview.Draw(g.gl, tex, ch[0], ch[0]+ch[1], r[0], r[1], dst)
}

func (g *Game) drawAttractors(view rl.Rectangle) {
	query := g.attractorFilter.Query()
	for query.Next() {
		pos, _, attr := query.Get()
		x := view.X + pos.X*view.Width
		y := view.Y + (1-pos.Y)*view.Height
		color := rl.Color{R: 120, G: 220, B: 255, A: 200}
		if attr.Strength < 0 {
			color = rl.Color{R: 255, G: 120, B: 120, A: 200}
		}
		rl.DrawCircleLines(int32(x), int32(y), 6+4*abs32(attr.Strength), color)
	}
}

func (g *Game) drawHUD(view rl.Rectangle) {
	m := g.state.Maps()
	stats := g.perf.Stats()
	lines := []string{
		fmt.Sprintf("Tick: %d | Steps/update: %d | FPS: %d", g.tick, g.stepsPerUpdate, rl.GetFPS()),
		fmt.Sprintf("Values: %d | Textures: %d | Passes: %d", len(m.Values), len(m.Textures), len(m.Passes)),
		fmt.Sprintf("Steps: %d | Bound: %d | Merge: %v | Attractors: %d/%d", m.Steps, m.Bound, g.merge, g.attractorCount, components.MaxAttractors),
		fmt.Sprintf("Tick: avg %s | p90 %s", stats.AvgTickDuration, stats.P90TickDuration),
	}
	y := int32(view.Y + view.Height - 4)
	for i := len(lines) - 1; i >= 0; i-- {
		y -= 18
		rl.DrawText(lines[i], int32(view.X)+6, y, 16, rl.LightGray)
	}

	status := "Running"
	if g.paused {
		status = "PAUSED"
	}
	rl.DrawText(status, int32(view.X)+6, int32(view.Y)+6, 16, rl.Yellow)

	controls := "[SPACE] Pause  [->] Step  [R] Reset  [M] Merge  [TAB] View  [< >] Speed  [LMB] Add  [RMB] Remove"
	rl.DrawText(controls, margin, int32(rl.GetScreenHeight())-20, 14, rl.Gray)
}

func abs32(x float32) float32 {
	if x < 0 {
		return -x
	}
	return x
}
