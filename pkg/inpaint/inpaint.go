// Package inpaint fills removed foreground regions of a slide image
// with plausible background content.
//
// Providers wrap one backend each (generative image editing, Baidu's
// inpainting API). A Registry picks the provider for a region by
// selector (the region kind), falling back to a registered default.
package inpaint

import (
	"context"
	"errors"
	"fmt"
	"image"
	"sync"

	"github.com/menta2k/slide-editor/pkg/types"
)

// ErrNoProvider is returned by Resolve when no override matches and no
// default provider was ever registered.
var ErrNoProvider = errors.New("no inpaint provider available")

// Provider produces an inpainted patch for one region of an image.
// The patch covers exactly the region's dimensions. Implementations
// must be safe for concurrent use.
type Provider interface {
	Inpaint(ctx context.Context, img image.Image, region types.Box) (image.Image, error)

	// Name identifies the backend in logs.
	Name() string
}

// Registry maps region selectors to providers with a default fallback.
// Registration happens single-threaded before analysis starts; Resolve
// is safe for concurrent use afterwards.
type Registry struct {
	mu        sync.RWMutex
	def       Provider
	overrides map[string]Provider
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{overrides: make(map[string]Provider)}
}

// RegisterDefault sets the fallback-of-last-resort provider.
func (r *Registry) RegisterDefault(p Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.def = p
}

// Register adds a targeted override for a selector.
func (r *Registry) Register(selector string, p Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.overrides[selector] = p
}

// Resolve returns the override for the selector if present, else the
// default, else ErrNoProvider.
func (r *Registry) Resolve(selector string) (Provider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if p, ok := r.overrides[selector]; ok {
		return p, nil
	}
	if r.def != nil {
		return r.def, nil
	}
	return nil, fmt.Errorf("%w: selector %q", ErrNoProvider, selector)
}

// Empty reports whether the registry has neither default nor
// overrides.
func (r *Registry) Empty() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.def == nil && len(r.overrides) == 0
}
