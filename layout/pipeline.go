package layout

import "sync"

// Pipeline memoizes Map results by spec content. The cache belongs to the
// pipeline instance; Respecify and Invalidate make its lifetime explicit.
type Pipeline struct {
	mu      sync.Mutex
	version uint64
	cache   map[uint64]*Maps
	spec    Spec
}

// NewPipeline creates a pipeline for spec.
func NewPipeline(spec Spec) *Pipeline {
	p := &Pipeline{cache: make(map[uint64]*Maps)}
	p.Respecify(spec)
	return p
}

// Respecify replaces the current spec and bumps the version. Maps already
// handed out stay valid; anything cached against the old version, such as
// macro text, should be dropped by comparing Version.
func (p *Pipeline) Respecify(spec Spec) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.spec = spec
	p.version++
}

// Version increases on every Respecify and Invalidate.
func (p *Pipeline) Version() uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.version
}

// Maps returns the layout for the current spec, computing it on first use.
func (p *Pipeline) Maps() (*Maps, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	key := p.spec.Hash()
	if m, ok := p.cache[key]; ok {
		return m, nil
	}
	m, err := Map(p.spec)
	if err != nil {
		return nil, err
	}
	p.cache[key] = m
	return m, nil
}

// Cached reports how many layouts are memoized.
func (p *Pipeline) Cached() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.cache)
}

// Invalidate drops every memoized layout.
func (p *Pipeline) Invalidate() {
	p.mu.Lock()
	defer p.mu.Unlock()
	clear(p.cache)
	p.version++
}
