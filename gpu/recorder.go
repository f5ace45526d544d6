package gpu

import (
	"errors"
	"fmt"
)

// ErrUnknownResource is returned for handles the provider did not create or
// already released.
var ErrUnknownResource = errors.New("unknown resource")

// Command is one recorded provider call.
type Command interface {
	isCommand()
}

func (*CreateTexture) isCommand()      {}
func (*UpdateTexture) isCommand()      {}
func (*ReleaseTexture) isCommand()     {}
func (*CreateFramebuffer) isCommand()  {}
func (*ReleaseFramebuffer) isCommand() {}
func (*Copy) isCommand()               {}
func (*Clear) isCommand()              {}
func (*Draw) isCommand()               {}

type CreateTexture struct {
	Texture Texture
	Spec    TextureSpec
}

type UpdateTexture struct {
	Texture Texture
	Data    []float32
}

type ReleaseTexture struct {
	Texture Texture
}

type CreateFramebuffer struct {
	Framebuffer Framebuffer
	Spec        FramebufferSpec
}

type ReleaseFramebuffer struct {
	Framebuffer Framebuffer
}

type Copy struct {
	Dst    Texture
	X, Y   int
	Src    Texture
	Region Region
}

type Clear struct {
	Framebuffer *Framebuffer
	Color       [4]float32
}

// Draw is a recorded draw call with its uniforms resolved at call time.
type Draw struct {
	Command  DrawCommand
	Uniforms map[string]any
}

// Recorder is an in-memory Provider that records every call. It validates
// handles so misuse shows up in tests.
type Recorder struct {
	Commands []Command

	// FailDraw, when set, is returned by the next draw calls.
	FailDraw error

	nextID       uint32
	textures     map[uint32]Texture
	framebuffers map[uint32]Framebuffer
}

var _ Provider = (*Recorder)(nil)

// NewRecorder creates an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{
		textures:     make(map[uint32]Texture),
		framebuffers: make(map[uint32]Framebuffer),
	}
}

func (r *Recorder) id() uint32 {
	r.nextID++
	return r.nextID
}

func (r *Recorder) CreateTexture(spec TextureSpec) (Texture, error) {
	if spec.Width <= 0 || spec.Height <= 0 || spec.Channels <= 0 {
		return Texture{}, fmt.Errorf("texture %dx%dx%d: invalid size", spec.Width, spec.Height, spec.Channels)
	}
	tex := Texture{ID: r.id(), Width: spec.Width, Height: spec.Height, Channels: spec.Channels}
	r.textures[tex.ID] = tex
	r.Commands = append(r.Commands, &CreateTexture{tex, spec})
	return tex, nil
}

func (r *Recorder) UpdateTexture(tex Texture, data []float32) error {
	if _, ok := r.textures[tex.ID]; !ok {
		return fmt.Errorf("update texture %d: %w", tex.ID, ErrUnknownResource)
	}
	r.Commands = append(r.Commands, &UpdateTexture{tex, data})
	return nil
}

func (r *Recorder) ReleaseTexture(tex Texture) error {
	if _, ok := r.textures[tex.ID]; !ok {
		return fmt.Errorf("release texture %d: %w", tex.ID, ErrUnknownResource)
	}
	delete(r.textures, tex.ID)
	r.Commands = append(r.Commands, &ReleaseTexture{tex})
	return nil
}

func (r *Recorder) CreateFramebuffer(spec FramebufferSpec) (Framebuffer, error) {
	for _, c := range spec.Color {
		if _, ok := r.textures[c.ID]; !ok {
			return Framebuffer{}, fmt.Errorf("framebuffer attachment %d: %w", c.ID, ErrUnknownResource)
		}
	}
	fb := Framebuffer{ID: r.id(), Width: spec.Width, Height: spec.Height, Color: spec.Color}
	r.framebuffers[fb.ID] = fb
	r.Commands = append(r.Commands, &CreateFramebuffer{fb, spec})
	return fb, nil
}

func (r *Recorder) ReleaseFramebuffer(fb Framebuffer) error {
	if _, ok := r.framebuffers[fb.ID]; !ok {
		return fmt.Errorf("release framebuffer %d: %w", fb.ID, ErrUnknownResource)
	}
	delete(r.framebuffers, fb.ID)
	r.Commands = append(r.Commands, &ReleaseFramebuffer{fb})
	return nil
}

func (r *Recorder) Copy(dst Texture, x, y int, src Texture, region Region) error {
	for _, tex := range []Texture{dst, src} {
		if _, ok := r.textures[tex.ID]; !ok {
			return fmt.Errorf("copy texture %d: %w", tex.ID, ErrUnknownResource)
		}
	}
	r.Commands = append(r.Commands, &Copy{dst, x, y, src, region})
	return nil
}

func (r *Recorder) Clear(fb *Framebuffer, color [4]float32) error {
	if fb != nil {
		if _, ok := r.framebuffers[fb.ID]; !ok {
			return fmt.Errorf("clear framebuffer %d: %w", fb.ID, ErrUnknownResource)
		}
	}
	r.Commands = append(r.Commands, &Clear{fb, color})
	return nil
}

func (r *Recorder) Draw(cmd DrawCommand) error {
	if r.FailDraw != nil {
		return r.FailDraw
	}
	if cmd.Framebuffer != nil {
		if _, ok := r.framebuffers[cmd.Framebuffer.ID]; !ok {
			return fmt.Errorf("draw to framebuffer %d: %w", cmd.Framebuffer.ID, ErrUnknownResource)
		}
	}
	uniforms := make(map[string]any, len(cmd.Uniforms))
	for name, f := range cmd.Uniforms {
		uniforms[name] = f()
	}
	r.Commands = append(r.Commands, &Draw{cmd, uniforms})
	return nil
}

// Live reports how many textures and framebuffers are still allocated.
func (r *Recorder) Live() (textures, framebuffers int) {
	return len(r.textures), len(r.framebuffers)
}

// Draws returns the recorded draw calls in order.
func (r *Recorder) Draws() []*Draw {
	var out []*Draw
	for _, c := range r.Commands {
		if d, ok := c.(*Draw); ok {
			out = append(out, d)
		}
	}
	return out
}

// Reset drops the recorded commands. Live resources are kept.
func (r *Recorder) Reset() {
	clear(r.Commands)
	r.Commands = r.Commands[:0]
}
