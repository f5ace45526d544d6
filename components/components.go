// Package components defines ECS components for the particle demo.
package components

import "math"

// Attractor pulls particles towards its entity's position. Negative
// strength repels.
type Attractor struct {
	Strength float32
	Pinned   bool // placed by the user; does not orbit
}

// MaxAttractors is the number of attractor slots the demo shader declares.
const MaxAttractors = 8

func sin32(x float32) float32 { return float32(math.Sin(float64(x))) }
func cos32(x float32) float32 { return float32(math.Cos(float64(x))) }
