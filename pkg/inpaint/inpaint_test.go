package inpaint

import (
	"context"
	"errors"
	"image"
	"testing"

	"github.com/menta2k/slide-editor/pkg/types"
)

// stubProvider fills regions with nothing; it only records its name.
type stubProvider struct {
	name string
}

func (s *stubProvider) Name() string { return s.name }

func (s *stubProvider) Inpaint(_ context.Context, _ image.Image, region types.Box) (image.Image, error) {
	return image.NewNRGBA(image.Rect(0, 0, region.W, region.H)), nil
}

func TestRegistryResolveDefault(t *testing.T) {
	r := NewRegistry()
	r.RegisterDefault(&stubProvider{name: "default"})

	p, err := r.Resolve("text")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if p.Name() != "default" {
		t.Errorf("Expected the default provider, got %q", p.Name())
	}
}

func TestRegistryResolveOverride(t *testing.T) {
	r := NewRegistry()
	r.RegisterDefault(&stubProvider{name: "default"})
	r.Register("text", &stubProvider{name: "text-only"})

	p, err := r.Resolve("text")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if p.Name() != "text-only" {
		t.Errorf("Expected the text override, got %q", p.Name())
	}

	p, err = r.Resolve("graphic")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if p.Name() != "default" {
		t.Errorf("Expected the default provider for graphic, got %q", p.Name())
	}
}

func TestRegistryResolveEmpty(t *testing.T) {
	r := NewRegistry()

	if !r.Empty() {
		t.Error("Expected a fresh registry to be empty")
	}
	if _, err := r.Resolve("text"); !errors.Is(err, ErrNoProvider) {
		t.Errorf("Expected ErrNoProvider, got %v", err)
	}
}

func TestRegistryOverrideWithoutDefault(t *testing.T) {
	r := NewRegistry()
	r.Register("text", &stubProvider{name: "text-only"})

	if r.Empty() {
		t.Error("Expected registry with an override not to be empty")
	}
	if _, err := r.Resolve("graphic"); !errors.Is(err, ErrNoProvider) {
		t.Errorf("Expected ErrNoProvider for uncovered selector, got %v", err)
	}
}
