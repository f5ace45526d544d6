package game

import rl "github.com/gen2brain/raylib-go/raylib"

// handleInput processes keyboard and mouse input.
func (g *Game) handleInput() {
	if rl.IsKeyPressed(rl.KeyF11) {
		rl.ToggleFullscreen()
	}

	if rl.IsKeyPressed(rl.KeySpace) {
		g.paused = !g.paused
	}

	// Single step while paused
	if g.paused && rl.IsKeyPressed(rl.KeyRight) {
		g.stepOnce()
	}

	// Steps-per-update control with < > keys (comma and period)
	if rl.IsKeyPressed(rl.KeyComma) && g.stepsPerUpdate > 1 {
		g.stepsPerUpdate--
	}
	if rl.IsKeyPressed(rl.KeyPeriod) && g.stepsPerUpdate < 10 {
		g.stepsPerUpdate++
	}

	if rl.IsKeyPressed(rl.KeyR) {
		g.resetOrPause()
	}
	if rl.IsKeyPressed(rl.KeyM) {
		g.setMerge(!g.merge)
	}
	if rl.IsKeyPressed(rl.KeyTab) {
		g.view = (g.view + 1) % len(g.cfg.Values)
	}

	// Attractors: left click pins one, right click removes the nearest
	if x, y, ok := g.mouseState(); ok {
		if rl.IsMouseButtonPressed(rl.MouseButtonLeft) {
			g.addAttractor(x, y, 1)
		}
		if rl.IsMouseButtonPressed(rl.MouseButtonRight) {
			g.removeNearestAttractor(x, y)
		}
	}
}

// mouseState maps the mouse into state space when it is over the main view.
func (g *Game) mouseState() (x, y float32, ok bool) {
	view := g.mainView()
	m := rl.GetMousePosition()
	if !rl.CheckCollisionPointRec(m, view) {
		return 0, 0, false
	}
	// Screen y runs down, state y up.
	return (m.X - view.X) / view.Width, 1 - (m.Y-view.Y)/view.Height, true
}

func (g *Game) stepOnce() {
	if err := g.step(); err != nil {
		g.logStepError(err)
	}
}

func (g *Game) resetOrPause() {
	if err := g.reset(); err != nil {
		g.logStepError(err)
		g.paused = true
	}
}
