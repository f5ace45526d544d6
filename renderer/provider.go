package renderer

import (
	"errors"
	"fmt"
	"math"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/gpgpu/gpu"
)

// ErrShader is returned when a shader fails to compile or link.
var ErrShader = errors.New("shader compile failed")

// Blend factors for an overwriting copy: GL_ONE, GL_ZERO, GL_FUNC_ADD.
const (
	glOne     = 1
	glZero    = 0
	glFuncAdd = 0x8006
)

// Provider implements gpu.Provider on raylib's OpenGL backend. It must be used
// from the goroutine that owns the window.
type Provider struct {
	textures     map[uint32]rl.Texture2D
	framebuffers map[uint32]rl.RenderTexture2D
	// copyTargets are framebuffers wrapping copy destinations, by texture ID.
	copyTargets map[uint32]rl.RenderTexture2D
	shaders     map[string]rl.Shader
	locations   map[uint32]map[string]int32
}

var _ gpu.Provider = (*Provider)(nil)

// NewProvider creates a provider. The window must already be open.
func NewProvider() *Provider {
	return &Provider{
		textures:     make(map[uint32]rl.Texture2D),
		framebuffers: make(map[uint32]rl.RenderTexture2D),
		copyTargets:  make(map[uint32]rl.RenderTexture2D),
		shaders:      make(map[string]rl.Shader),
		locations:    make(map[uint32]map[string]int32),
	}
}

func pixelFormat(t gpu.DataType) (rl.PixelFormat, int) {
	switch t {
	case gpu.HalfFloat:
		return rl.UncompressedR16g16b16a16, 2
	case gpu.Uint8:
		return rl.UncompressedR8g8b8a8, 1
	}
	return rl.UncompressedR32g32b32a32, 4
}

// encode converts RGBA floats to the texel bytes of a data type.
func encode(t gpu.DataType, data []float32) []byte {
	_, size := pixelFormat(t)
	out := make([]byte, len(data)*size)
	for i, v := range data {
		switch t {
		case gpu.Float:
			bits := math.Float32bits(v)
			out[i*4], out[i*4+1], out[i*4+2], out[i*4+3] = byte(bits), byte(bits>>8), byte(bits>>16), byte(bits>>24)
		case gpu.HalfFloat:
			h := halfBits(v)
			out[i*2], out[i*2+1] = byte(h), byte(h>>8)
		case gpu.Uint8:
			out[i] = uint8(math.Round(float64(clamp01(v)) * 255))
		}
	}
	return out
}

// halfBits rounds a float32 to IEEE 754 binary16, flushing subnormals to zero.
func halfBits(v float32) uint16 {
	bits := math.Float32bits(v)
	sign := uint16(bits>>16) & 0x8000
	exp := int((bits>>23)&0xff) - 127 + 15
	mant := bits & 0x7fffff
	switch {
	case (bits>>23)&0xff == 0xff:
		if mant != 0 {
			return sign | 0x7e00
		}
		return sign | 0x7c00
	case exp >= 0x1f:
		return sign | 0x7c00
	case exp <= 0:
		return sign
	}
	h := sign | uint16(exp)<<10 | uint16(mant>>13)
	if mant&0x1000 != 0 {
		h++
	}
	return h
}

func clamp01(v float32) float32 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func (p *Provider) CreateTexture(spec gpu.TextureSpec) (gpu.Texture, error) {
	if spec.Width <= 0 || spec.Height <= 0 {
		return gpu.Texture{}, fmt.Errorf("texture %dx%d: invalid size", spec.Width, spec.Height)
	}
	if spec.Channels != 4 {
		return gpu.Texture{}, fmt.Errorf("texture with %d channels: only RGBA is supported", spec.Channels)
	}
	data := spec.Data
	if data == nil {
		data = make([]float32, spec.Width*spec.Height*4)
	} else if len(data) != spec.Width*spec.Height*4 {
		return gpu.Texture{}, fmt.Errorf("texture data has %d floats, want %d", len(data), spec.Width*spec.Height*4)
	}

	format, _ := pixelFormat(spec.Type)
	img := rl.NewImage(encode(spec.Type, data), int32(spec.Width), int32(spec.Height), 1, format)
	tex := rl.LoadTextureFromImage(img)
	if tex.ID == 0 {
		return gpu.Texture{}, fmt.Errorf("texture %dx%d: upload failed", spec.Width, spec.Height)
	}

	filter := rl.FilterPoint
	if spec.Min == gpu.Linear || spec.Mag == gpu.Linear {
		filter = rl.FilterBilinear
	}
	rl.SetTextureFilter(tex, filter)
	wrap := rl.WrapClamp
	if spec.Wrap == gpu.Repeat {
		wrap = rl.WrapRepeat
	}
	rl.SetTextureWrap(tex, wrap)

	p.textures[tex.ID] = tex
	return gpu.Texture{ID: tex.ID, Width: spec.Width, Height: spec.Height, Channels: spec.Channels}, nil
}

// UpdateTexture uploads data to a staging texture and copies it over tex, so
// handles attached to framebuffers stay valid.
func (p *Provider) UpdateTexture(tex gpu.Texture, data []float32) error {
	dst, ok := p.textures[tex.ID]
	if !ok {
		return fmt.Errorf("update texture %d: %w", tex.ID, gpu.ErrUnknownResource)
	}
	staging, err := p.CreateTexture(gpu.TextureSpec{
		Type:     dataType(dst.Format),
		Width:    tex.Width,
		Height:   tex.Height,
		Channels: 4,
		Data:     data,
	})
	if err != nil {
		return fmt.Errorf("update texture %d: %w", tex.ID, err)
	}
	defer p.ReleaseTexture(staging)
	return p.Copy(tex, 0, 0, staging, gpu.Region{Width: tex.Width, Height: tex.Height})
}

func dataType(f rl.PixelFormat) gpu.DataType {
	switch f {
	case rl.UncompressedR16g16b16a16:
		return gpu.HalfFloat
	case rl.UncompressedR8g8b8a8:
		return gpu.Uint8
	}
	return gpu.Float
}

func (p *Provider) ReleaseTexture(tex gpu.Texture) error {
	t, ok := p.textures[tex.ID]
	if !ok {
		return fmt.Errorf("release texture %d: %w", tex.ID, gpu.ErrUnknownResource)
	}
	if target, ok := p.copyTargets[tex.ID]; ok {
		rl.UnloadFramebuffer(target.ID)
		delete(p.copyTargets, tex.ID)
	}
	rl.UnloadTexture(t)
	delete(p.textures, tex.ID)
	return nil
}

// attach builds a framebuffer object over existing textures.
func (p *Provider) attach(width, height int, color []rl.Texture2D) (rl.RenderTexture2D, error) {
	id := rl.LoadFramebuffer()
	if id == 0 {
		return rl.RenderTexture2D{}, errors.New("framebuffer object creation failed")
	}
	rl.EnableFramebuffer(id)
	for i, tex := range color {
		rl.FramebufferAttach(id, tex.ID, int32(rl.AttachmentColorChannel0)+int32(i), int32(rl.AttachmentTexture2d), 0)
	}
	complete := rl.FramebufferComplete(id)
	rl.DisableFramebuffer()
	if !complete {
		rl.UnloadFramebuffer(id)
		return rl.RenderTexture2D{}, fmt.Errorf("framebuffer %dx%d with %d attachments incomplete", width, height, len(color))
	}
	target := rl.RenderTexture2D{ID: id}
	if len(color) > 0 {
		target.Texture = color[0]
	}
	target.Texture.Width, target.Texture.Height = int32(width), int32(height)
	return target, nil
}

func (p *Provider) CreateFramebuffer(spec gpu.FramebufferSpec) (gpu.Framebuffer, error) {
	if spec.Depth || spec.Stencil {
		return gpu.Framebuffer{}, errors.New("depth and stencil attachments are not supported")
	}
	color := make([]rl.Texture2D, len(spec.Color))
	for i, c := range spec.Color {
		tex, ok := p.textures[c.ID]
		if !ok {
			return gpu.Framebuffer{}, fmt.Errorf("framebuffer attachment %d: %w", c.ID, gpu.ErrUnknownResource)
		}
		color[i] = tex
	}
	target, err := p.attach(spec.Width, spec.Height, color)
	if err != nil {
		return gpu.Framebuffer{}, err
	}
	p.framebuffers[target.ID] = target
	return gpu.Framebuffer{ID: target.ID, Width: spec.Width, Height: spec.Height, Color: spec.Color}, nil
}

func (p *Provider) ReleaseFramebuffer(fb gpu.Framebuffer) error {
	if _, ok := p.framebuffers[fb.ID]; !ok {
		return fmt.Errorf("release framebuffer %d: %w", fb.ID, gpu.ErrUnknownResource)
	}
	// Attachments belong to their textures; only the object goes.
	rl.UnloadFramebuffer(fb.ID)
	delete(p.framebuffers, fb.ID)
	return nil
}

func (p *Provider) copyTarget(dst gpu.Texture) (rl.RenderTexture2D, error) {
	if target, ok := p.copyTargets[dst.ID]; ok {
		return target, nil
	}
	tex, ok := p.textures[dst.ID]
	if !ok {
		return rl.RenderTexture2D{}, fmt.Errorf("copy to texture %d: %w", dst.ID, gpu.ErrUnknownResource)
	}
	target, err := p.attach(dst.Width, dst.Height, []rl.Texture2D{tex})
	if err != nil {
		return rl.RenderTexture2D{}, err
	}
	p.copyTargets[dst.ID] = target
	return target, nil
}

// Copy draws src's region into dst. GL rows run bottom up while raylib's
// texture mode projects top down, so the source is flipped and the
// destination row mirrored.
func (p *Provider) Copy(dst gpu.Texture, x, y int, src gpu.Texture, region gpu.Region) error {
	from, ok := p.textures[src.ID]
	if !ok {
		return fmt.Errorf("copy from texture %d: %w", src.ID, gpu.ErrUnknownResource)
	}
	target, err := p.copyTarget(dst)
	if err != nil {
		return err
	}

	source := rl.Rectangle{
		X:      float32(region.X),
		Y:      float32(region.Y),
		Width:  float32(region.Width),
		Height: -float32(region.Height),
	}
	pos := rl.Vector2{X: float32(x), Y: float32(dst.Height - y - region.Height)}

	rl.BeginTextureMode(target)
	rl.SetBlendFactors(glOne, glZero, glFuncAdd)
	rl.BeginBlendMode(rl.BlendCustom)
	rl.DrawTextureRec(from, source, pos, rl.White)
	rl.EndBlendMode()
	rl.EndTextureMode()
	return nil
}

func (p *Provider) Clear(fb *gpu.Framebuffer, color [4]float32) error {
	c := rl.NewColor(
		uint8(clamp01(color[0])*255),
		uint8(clamp01(color[1])*255),
		uint8(clamp01(color[2])*255),
		uint8(clamp01(color[3])*255),
	)
	if fb == nil {
		rl.ClearBackground(c)
		return nil
	}
	target, ok := p.framebuffers[fb.ID]
	if !ok {
		return fmt.Errorf("clear framebuffer %d: %w", fb.ID, gpu.ErrUnknownResource)
	}
	rl.BeginTextureMode(target)
	rl.ActiveDrawBuffers(int32(max(len(fb.Color), 1)))
	rl.ClearBackground(c)
	rl.EndTextureMode()
	return nil
}

// shader returns the compiled program for a source pair, compiling it once.
func (p *Provider) shader(vertex, fragment string) (rl.Shader, error) {
	key := vertex + "\x00" + fragment
	if s, ok := p.shaders[key]; ok {
		return s, nil
	}
	s := rl.LoadShaderFromMemory(vertex, fragment)
	if !rl.IsShaderValid(s) || s.ID == rl.GetShaderIdDefault() {
		return rl.Shader{}, ErrShader
	}
	p.shaders[key] = s
	p.locations[s.ID] = make(map[string]int32)
	return s, nil
}

func (p *Provider) location(s rl.Shader, name string) int32 {
	locs := p.locations[s.ID]
	loc, ok := locs[name]
	if !ok {
		loc = rl.GetShaderLocation(s, name)
		locs[name] = loc
	}
	return loc
}

// intBits reinterprets ints as the float32 words raylib passes through to
// glUniform1iv.
func intBits(v ...int32) []float32 {
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = math.Float32frombits(uint32(x))
	}
	return out
}

var vectorTypes = map[int]rl.ShaderUniformDataType{
	1: rl.ShaderUniformFloat,
	2: rl.ShaderUniformVec2,
	3: rl.ShaderUniformVec3,
	4: rl.ShaderUniformVec4,
}

// Draw renders a rectangle covering the target with the command's program.
// Texture uniforms take units from 1 up; unit 0 stays raylib's batch texture.
func (p *Provider) Draw(cmd gpu.DrawCommand) error {
	if len(cmd.Attributes) > 0 {
		return errors.New("custom vertex attributes are not supported")
	}
	s, err := p.shader(cmd.Vertex, cmd.Fragment)
	if err != nil {
		return err
	}

	width, height := int32(rl.GetScreenWidth()), int32(rl.GetScreenHeight())
	if cmd.Framebuffer != nil {
		target, ok := p.framebuffers[cmd.Framebuffer.ID]
		if !ok {
			return fmt.Errorf("draw to framebuffer %d: %w", cmd.Framebuffer.ID, gpu.ErrUnknownResource)
		}
		width, height = int32(cmd.Framebuffer.Width), int32(cmd.Framebuffer.Height)
		rl.BeginTextureMode(target)
		rl.ActiveDrawBuffers(int32(max(cmd.DrawBuffers, 1)))
		defer rl.EndTextureMode()
	}

	rl.BeginShaderMode(s)
	defer rl.EndShaderMode()

	var bound []rl.Texture2D
	for name, f := range cmd.Uniforms {
		loc := p.location(s, name)
		if loc < 0 {
			continue
		}
		switch v := f().(type) {
		case float32:
			rl.SetShaderValue(s, loc, []float32{v}, rl.ShaderUniformFloat)
		case []float32:
			t, ok := vectorTypes[len(v)]
			if !ok {
				return fmt.Errorf("uniform %s: %d-component vector", name, len(v))
			}
			rl.SetShaderValue(s, loc, v, t)
		case int32:
			rl.SetShaderValue(s, loc, intBits(v), rl.ShaderUniformInt)
		case int:
			rl.SetShaderValue(s, loc, intBits(int32(v)), rl.ShaderUniformInt)
		case gpu.Texture:
			units, err := p.bind(&bound, v)
			if err != nil {
				return fmt.Errorf("uniform %s: %w", name, err)
			}
			rl.SetShaderValue(s, loc, intBits(units...), rl.ShaderUniformSampler2d)
		case []gpu.Texture:
			units, err := p.bind(&bound, v...)
			if err != nil {
				return fmt.Errorf("uniform %s: %w", name, err)
			}
			rl.SetShaderValueV(s, loc, intBits(units...), rl.ShaderUniformSampler2d, int32(len(units)))
		default:
			return fmt.Errorf("uniform %s: unsupported type %T", name, v)
		}
	}

	for i, tex := range bound {
		rl.ActiveTextureSlot(int32(i + 1))
		rl.EnableTexture(tex.ID)
	}
	rl.DrawRectangle(0, 0, width, height, rl.White)
	// Flush while the units are still bound.
	rl.DrawRenderBatchActive()
	for i := range bound {
		rl.ActiveTextureSlot(int32(i + 1))
		rl.DisableTexture()
	}
	rl.ActiveTextureSlot(0)
	return nil
}

func (p *Provider) bind(bound *[]rl.Texture2D, textures ...gpu.Texture) ([]int32, error) {
	units := make([]int32, len(textures))
	for i, t := range textures {
		tex, ok := p.textures[t.ID]
		if !ok {
			return nil, fmt.Errorf("texture %d: %w", t.ID, gpu.ErrUnknownResource)
		}
		*bound = append(*bound, tex)
		units[i] = int32(len(*bound))
	}
	return units, nil
}

// Texture returns the raylib texture behind a handle.
func (p *Provider) Texture(tex gpu.Texture) (rl.Texture2D, bool) {
	t, ok := p.textures[tex.ID]
	return t, ok
}

// ReadImage reads a texture back as an upright 8-bit image. The caller
// unloads it.
func (p *Provider) ReadImage(tex gpu.Texture) (*rl.Image, error) {
	t, ok := p.textures[tex.ID]
	if !ok {
		return nil, fmt.Errorf("read texture %d: %w", tex.ID, gpu.ErrUnknownResource)
	}
	img := rl.LoadImageFromTexture(t)
	rl.ImageFormat(img, rl.UncompressedR8g8b8a8)
	rl.ImageFlipVertical(img)
	return img, nil
}

// Unload releases every resource the provider still owns.
func (p *Provider) Unload() {
	for id, target := range p.copyTargets {
		rl.UnloadFramebuffer(target.ID)
		delete(p.copyTargets, id)
	}
	for id := range p.framebuffers {
		rl.UnloadFramebuffer(id)
		delete(p.framebuffers, id)
	}
	for id, tex := range p.textures {
		rl.UnloadTexture(tex)
		delete(p.textures, id)
	}
	for key, s := range p.shaders {
		rl.UnloadShader(s)
		delete(p.shaders, key)
	}
	clear(p.locations)
}
