package renderer

import (
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/gpgpu/glsl"
	"github.com/pthm-cable/gpgpu/gpu"
)

const previewFragment = glsl.Version + `
in vec2 fragTexCoord;
uniform sampler2D texture0;
uniform vec4 channels;
uniform vec2 valueRange;
out vec4 finalColor;

void main() {
    vec4 texel = texture(texture0, fragTexCoord);
    vec4 v = clamp((texel-valueRange.x)/(valueRange.y-valueRange.x), 0.0, 1.0);
    // Single channel values show as greyscale.
    if (dot(channels, vec4(1.0)) <= 1.0) {
        finalColor = vec4(vec3(dot(v, channels)), 1.0);
    } else {
        finalColor = vec4(mix(vec3(0.0), v.rgb, channels.rgb), 1.0);
    }
}
`

// Preview draws one value of a state texture to the screen, mapping its
// channels through a range into colour.
type Preview struct {
	shader      rl.Shader
	channelsLoc int32
	rangeLoc    int32
}

// NewPreview compiles the preview shader.
func NewPreview() (*Preview, error) {
	s := rl.LoadShaderFromMemory(glsl.Vertex, previewFragment)
	if !rl.IsShaderValid(s) || s.ID == rl.GetShaderIdDefault() {
		return nil, ErrShader
	}
	return &Preview{
		shader:      s,
		channelsLoc: rl.GetShaderLocation(s, "channels"),
		rangeLoc:    rl.GetShaderLocation(s, "valueRange"),
	}, nil
}

// Draw renders tex over dst showing channels [from, to) mapped from
// [lo, hi] to [0, 1].
func (pv *Preview) Draw(p *Provider, tex gpu.Texture, from, to int, lo, hi float32, dst rl.Rectangle) {
	t, ok := p.Texture(tex)
	if !ok {
		return
	}
	mask := make([]float32, 4)
	for c := from; c < to && c < 4; c++ {
		mask[c] = 1
	}
	rl.SetShaderValue(pv.shader, pv.channelsLoc, mask, rl.ShaderUniformVec4)
	rl.SetShaderValue(pv.shader, pv.rangeLoc, []float32{lo, hi}, rl.ShaderUniformVec2)

	// The texture is upside down (OpenGL convention), so we flip it
	src := rl.Rectangle{
		X:      0,
		Y:      float32(tex.Height),
		Width:  float32(tex.Width),
		Height: -float32(tex.Height),
	}
	rl.BeginShaderMode(pv.shader)
	rl.DrawTexturePro(t, src, dst, rl.Vector2{}, 0, rl.White)
	rl.EndShaderMode()
}

// Unload releases GPU resources.
func (pv *Preview) Unload() {
	rl.UnloadShader(pv.shader)
}
