package macro

import (
	"strconv"

	"github.com/pthm-cable/gpgpu/layout"
)

// Context is what a Hook sees when asked for a section's text.
type Context struct {
	Maps    *layout.Maps
	Pass    int
	Flags   Flags
	Section string
	Prefix  string

	// Default renders the section's built-in text.
	Default func() string
}

// Hook overrides generated text. Variants are Default, Text, Func and
// Nested; a hook that declines falls back to the built-in generator.
type Hook interface {
	resolve(ctx Context) (string, bool)
}

type defaultHook struct{}

func (defaultHook) resolve(Context) (string, bool) { return "", false }

// Default keeps the built-in text.
func Default() Hook { return defaultHook{} }

type textHook string

func (h textHook) resolve(Context) (string, bool) { return string(h), true }

// Text replaces a section with literal text. Text("") disables it.
func Text(s string) Hook { return textHook(s) }

type funcHook func(Context) string

func (h funcHook) resolve(ctx Context) (string, bool) { return h(ctx), true }

// Func computes a section's text. f must be a pure function of its Context
// since results are memoized.
func Func(f func(Context) string) Hook { return funcHook(f) }

type nestedHook map[string]Hook

func (h nestedHook) resolve(ctx Context) (string, bool) {
	for _, key := range []string{ctx.Section, strconv.Itoa(ctx.Pass), "*"} {
		if child, ok := h[key]; ok && child != nil {
			return child.resolve(ctx)
		}
	}
	return "", false
}

// Nested dispatches by key. At every level keys are tried in order: the
// section name, the pass index, then "*"; missing keys keep the default.
func Nested(hooks map[string]Hook) Hook { return nestedHook(hooks) }
