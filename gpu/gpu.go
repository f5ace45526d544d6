// Package gpu defines the resource-provider contract the state binder drives:
// textures, framebuffers, copies, clears and draw calls. Implementations wrap
// a concrete graphics API; Recorder records calls without one.
package gpu

// DataType is the texel storage type of a texture.
type DataType uint8

const (
	Float DataType = iota
	HalfFloat
	Uint8
)

// Filter is a texture sampling filter.
type Filter uint8

const (
	Nearest Filter = iota
	Linear
)

// Wrap is a texture addressing mode.
type Wrap uint8

const (
	Clamp Wrap = iota
	Repeat
)

// Primitive is the topology of a draw call.
type Primitive uint8

const (
	Triangles Primitive = iota
	TriangleStrip
	Points
	Lines
)

// TextureSpec describes a texture to create.
type TextureSpec struct {
	Type     DataType
	Min, Mag Filter
	Wrap     Wrap
	Width    int
	Height   int
	Channels int
	// Data optionally fills the texture, Width*Height*Channels floats.
	Data []float32
}

// Texture is a provider-owned texture handle.
type Texture struct {
	ID       uint32
	Width    int
	Height   int
	Channels int
}

// FramebufferSpec describes a framebuffer to create.
type FramebufferSpec struct {
	Width   int
	Height  int
	Depth   bool
	Stencil bool
	Color   []Texture
}

// Framebuffer is a provider-owned framebuffer handle.
type Framebuffer struct {
	ID     uint32
	Width  int
	Height int
	Color  []Texture
}

// Region is a rectangle in texels.
type Region struct {
	X, Y, Width, Height int
}

// UniformFunc yields a uniform's value at draw time: float32, int32,
// []float32 (vector), Texture or []Texture (sampler array).
type UniformFunc func() any

// DrawCommand is one draw call.
type DrawCommand struct {
	Vertex   string
	Fragment string

	Attributes map[string][]float32
	Uniforms   map[string]UniformFunc

	// Framebuffer is the target; nil draws to the default view.
	Framebuffer *Framebuffer
	DrawBuffers int

	Primitive Primitive
	Count     int
}

// Provider creates and drives GPU resources. The binder calls it from one
// goroutine only.
type Provider interface {
	CreateTexture(spec TextureSpec) (Texture, error)
	UpdateTexture(tex Texture, data []float32) error
	ReleaseTexture(tex Texture) error

	CreateFramebuffer(spec FramebufferSpec) (Framebuffer, error)
	ReleaseFramebuffer(fb Framebuffer) error

	// Copy copies src's region into dst with its origin at (x, y).
	Copy(dst Texture, x, y int, src Texture, region Region) error
	// Clear fills fb, or the default view when fb is nil.
	Clear(fb *Framebuffer, color [4]float32) error
	Draw(cmd DrawCommand) error
}
