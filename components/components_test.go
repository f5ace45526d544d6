package components

import (
	"math"
	"testing"
)

func TestOrbitAdvance(t *testing.T) {
	o := Orbit{CX: 0.5, CY: 0.5, Radius: 0.25, Speed: math.Pi}

	tests := []struct {
		dt   float32
		x, y float32
	}{
		{0.5, 0.5, 0.75},
		{0.5, 0.25, 0.5},
		{1, 0.75, 0.5},
	}
	for i, tt := range tests {
		p := o.Advance(tt.dt)
		if math.Abs(float64(p.X-tt.x)) > 1e-5 || math.Abs(float64(p.Y-tt.y)) > 1e-5 {
			t.Errorf("step %d: got (%v, %v), want (%v, %v)", i, p.X, p.Y, tt.x, tt.y)
		}
	}
}
