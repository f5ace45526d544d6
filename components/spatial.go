package components

// Position is a point in state space, where both axes run over [0, 1] across
// the state textures.
type Position struct {
	X, Y float32
}

// Orbit moves an entity around a centre in state space.
type Orbit struct {
	CX, CY float32
	Radius float32
	Speed  float32 // radians per second
	Phase  float32 // radians
}

// Advance moves the orbit on by dt seconds and returns the new position.
func (o *Orbit) Advance(dt float32) Position {
	o.Phase += o.Speed * dt
	return Position{
		X: o.CX + o.Radius*cos32(o.Phase),
		Y: o.CY + o.Radius*sin32(o.Phase),
	}
}
