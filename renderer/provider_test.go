package renderer

import (
	"math"
	"testing"

	"github.com/pthm-cable/gpgpu/gpu"
)

func TestHalfBits(t *testing.T) {
	tests := []struct {
		in   float32
		want uint16
	}{
		{0, 0x0000},
		{1, 0x3c00},
		{-2, 0xc000},
		{0.5, 0x3800},
		{65504, 0x7bff},
		{1e6, 0x7c00},
		{float32(math.Inf(-1)), 0xfc00},
		{1e-8, 0x0000},
	}
	for _, tt := range tests {
		if got := halfBits(tt.in); got != tt.want {
			t.Errorf("halfBits(%v) = %#04x, want %#04x", tt.in, got, tt.want)
		}
	}
	if got := halfBits(float32(math.NaN())); got&0x7c00 != 0x7c00 || got&0x3ff == 0 {
		t.Errorf("halfBits(NaN) = %#04x, want a NaN", got)
	}
}

func TestEncode(t *testing.T) {
	data := []float32{0, 0.5, 1, 2}

	if got := encode(gpu.Uint8, data); string(got) != string([]byte{0, 128, 255, 255}) {
		t.Errorf("uint8 encoding = %v", got)
	}
	if got := encode(gpu.Float, data); len(got) != 16 || got[11] != 0x3f || got[15] != 0x40 {
		t.Errorf("float encoding = %v", got)
	}
	if got := encode(gpu.HalfFloat, data); len(got) != 8 || got[5] != 0x3c {
		t.Errorf("half float encoding = %v", got)
	}
}
