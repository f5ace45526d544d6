// Package macro renders a layout as GLSL preprocessor macros, so shader
// logic can read and write named values without knowing how they are packed.
package macro

import (
	"strings"
	"sync"

	"github.com/pthm-cable/gpgpu/layout"
)

// DefaultPrefix namespaces every generated macro.
const DefaultPrefix = "gpgpu_"

// Generator emits macro text per pass, applying hooks and memoizing the
// result per (layout key, pass, flags).
type Generator struct {
	prefix string
	hooks  Hook

	mu    sync.Mutex
	cache map[cacheKey]string
}

type cacheKey struct {
	maps  uint64
	pass  int
	flags Flags
}

// NewGenerator creates a generator. An empty prefix uses DefaultPrefix and a
// nil hook keeps every built-in section.
func NewGenerator(prefix string, hooks Hook) *Generator {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	if hooks == nil {
		hooks = Default()
	}
	return &Generator{
		prefix: prefix,
		hooks:  hooks,
		cache:  make(map[cacheKey]string),
	}
}

// Prefix returns the macro namespace.
func (g *Generator) Prefix() string {
	return g.prefix
}

// Section returns one section's text for a pass, after hooks.
func (g *Generator) Section(m *layout.Maps, pass int, flags Flags, section string) string {
	ctx := Context{
		Maps:    m,
		Pass:    pass,
		Flags:   flags,
		Section: section,
		Prefix:  g.prefix,
	}
	ctx.Default = func() string {
		return render(m, pass, flags, section, g.prefix)
	}
	if text, ok := g.hooks.resolve(ctx); ok {
		return text
	}
	return ctx.Default()
}

// Pass returns every section for a pass, concatenated in emission order.
func (g *Generator) Pass(m *layout.Maps, pass int, flags Flags) string {
	key := cacheKey{maps: m.Key, pass: pass, flags: flags}

	g.mu.Lock()
	text, ok := g.cache[key]
	g.mu.Unlock()
	if ok {
		return text
	}

	var b strings.Builder
	for _, section := range Sections {
		b.WriteString(g.Section(m, pass, flags, section))
	}
	text = b.String()

	g.mu.Lock()
	g.cache[key] = text
	g.mu.Unlock()
	return text
}

// Source prepends a pass's macros to shader source. A leading #version
// directive stays first.
func (g *Generator) Source(m *layout.Maps, pass int, flags Flags, src string) string {
	macros := g.Pass(m, pass, flags)
	if strings.HasPrefix(strings.TrimSpace(src), "#version") {
		src = strings.TrimLeft(src, " \t\r\n")
		version, rest, _ := strings.Cut(src, "\n")
		return version + "\n" + macros + rest
	}
	return macros + src
}

// Cached reports how many pass texts are memoized.
func (g *Generator) Cached() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.cache)
}

// Reset drops memoized text, e.g. after the layout was respecified.
func (g *Generator) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	clear(g.cache)
}
