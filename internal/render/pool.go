package render

import (
	"sync"

	"github.com/charmbracelet/glamour"
)

// rendererPool hands out one renderer per concurrent caller, bucketed
// by option set. Options is comparable, so it keys the map directly.
type rendererPool struct {
	mu      sync.Mutex
	buckets map[Options]*sync.Pool
}

var pool = &rendererPool{buckets: make(map[Options]*sync.Pool)}

func (p *rendererPool) bucket(opts Options) *sync.Pool {
	p.mu.Lock()
	defer p.mu.Unlock()

	b, ok := p.buckets[opts]
	if !ok {
		b = &sync.Pool{
			New: func() any {
				r, err := newRenderer(opts)
				if err != nil {
					return nil
				}
				return r
			},
		}
		p.buckets[opts] = b
	}
	return b
}

func (p *rendererPool) get(opts Options) (*glamour.TermRenderer, error) {
	if r := p.bucket(opts).Get(); r != nil {
		return r.(*glamour.TermRenderer), nil
	}
	// The pool's New swallowed the construction error; retry directly
	// so the caller sees it.
	return newRenderer(opts)
}

func (p *rendererPool) put(opts Options, r *glamour.TermRenderer) {
	if r != nil {
		p.bucket(opts).Put(r)
	}
}

// newRenderer builds a glamour renderer, resolving theme names to
// glamour style identifiers first.
func newRenderer(opts Options) (*glamour.TermRenderer, error) {
	ropts := []glamour.TermRendererOption{
		glamour.WithStylePath(ResolveStyle(opts.Style)),
		glamour.WithWordWrap(opts.Width),
		glamour.WithTableWrap(opts.TableWrap),
		glamour.WithInlineTableLinks(opts.InlineTableLinks),
	}
	if opts.EnableEmoji {
		ropts = append(ropts, glamour.WithEmoji())
	}
	if opts.PreserveNewLines {
		ropts = append(ropts, glamour.WithPreservedNewLines())
	}
	return glamour.NewTermRenderer(ropts...)
}

// ClearCache drops every pooled renderer.
func ClearCache() {
	pool.mu.Lock()
	pool.buckets = make(map[Options]*sync.Pool)
	pool.mu.Unlock()
}

// CacheSize reports how many option sets currently have a pool.
func CacheSize() int {
	pool.mu.Lock()
	defer pool.mu.Unlock()
	return len(pool.buckets)
}
