package extract

import (
	"context"
	"image"
	"image/color"
	"testing"

	"github.com/menta2k/slide-editor/pkg/types"
)

// createSlideImage creates a flat-colored slide with a wide bright bar
// (text-like) and a tall dark block (graphic-like).
func createSlideImage(width, height int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, width, height))

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{200, 200, 210, 255})
		}
	}

	// Wide, shallow bar near the top
	for y := height / 10; y < height/10+height/12; y++ {
		for x := width / 8; x < 7*width/8; x++ {
			img.Set(x, y, color.RGBA{250, 250, 255, 255})
		}
	}

	// Tall block lower left
	for y := height / 2; y < 9*height/10; y++ {
		for x := width / 8; x < width/8+width/4; x++ {
			img.Set(x, y, color.RGBA{20, 20, 40, 255})
		}
	}

	return img
}

func TestNewStructural(t *testing.T) {
	s := NewStructural()
	if s == nil {
		t.Fatal("NewStructural() returned nil")
	}
	if s.config.CellSize != 16 {
		t.Errorf("Expected default cell size 16, got %d", s.config.CellSize)
	}
}

func TestStructuralExtract(t *testing.T) {
	s := NewStructural()
	img := createSlideImage(640, 360)

	candidates, err := s.Extract(context.Background(), img)
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if len(candidates) == 0 {
		t.Fatal("Expected to find at least one region")
	}

	frame := types.Box{W: 640, H: 360}
	for i, c := range candidates {
		if c.Box.Empty() {
			t.Errorf("Candidate %d has an empty box", i)
		}
		if !frame.Contains(c.Box) {
			t.Errorf("Candidate %d box %+v extends outside the image", i, c.Box)
		}
		if c.Kind != types.KindText && c.Kind != types.KindGraphic {
			t.Errorf("Candidate %d has unknown kind %q", i, c.Kind)
		}
		if c.Source != "structural" {
			t.Errorf("Candidate %d has source %q, expected structural", i, c.Source)
		}
	}
}

func TestStructuralExtractDeterministic(t *testing.T) {
	s := NewStructural()
	img := createSlideImage(640, 360)

	first, err := s.Extract(context.Background(), img)
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	second, err := s.Extract(context.Background(), img)
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}

	if len(first) != len(second) {
		t.Fatalf("Candidate counts differ between runs: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i].Box != second[i].Box || first[i].Kind != second[i].Kind {
			t.Errorf("Candidate %d differs between runs: %+v vs %+v", i, first[i], second[i])
		}
	}
}

func TestStructuralExtractReadingOrder(t *testing.T) {
	s := NewStructural()
	img := createSlideImage(640, 360)

	candidates, err := s.Extract(context.Background(), img)
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}

	for i := 1; i < len(candidates); i++ {
		prev, cur := candidates[i-1].Box, candidates[i].Box
		if cur.Y < prev.Y || (cur.Y == prev.Y && cur.X < prev.X) {
			t.Errorf("Candidates out of reading order at %d: %+v before %+v", i, prev, cur)
		}
	}
}

func TestStructuralExtractTinyImage(t *testing.T) {
	s := NewStructural()
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))

	candidates, err := s.Extract(context.Background(), img)
	if err != nil {
		t.Fatalf("Extract failed on tiny image: %v", err)
	}
	if len(candidates) != 0 {
		t.Errorf("Expected no candidates for a tiny image, got %d", len(candidates))
	}
}

func TestStructuralExtractFlatImage(t *testing.T) {
	s := NewStructural()
	img := image.NewRGBA(image.Rect(0, 0, 320, 180))
	for y := 0; y < 180; y++ {
		for x := 0; x < 320; x++ {
			img.Set(x, y, color.RGBA{128, 128, 128, 255})
		}
	}

	candidates, err := s.Extract(context.Background(), img)
	if err != nil {
		t.Fatalf("Extract failed on flat image: %v", err)
	}
	if len(candidates) != 0 {
		t.Errorf("Expected no candidates for a featureless image, got %d", len(candidates))
	}
}

func TestStructuralMaxRegions(t *testing.T) {
	cfg := DefaultStructuralConfig()
	cfg.MaxRegions = 1
	s := NewStructuralWithConfig(cfg)

	candidates, err := s.Extract(context.Background(), createSlideImage(640, 360))
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if len(candidates) > 1 {
		t.Errorf("Expected at most 1 candidate, got %d", len(candidates))
	}
}

func BenchmarkStructuralExtract(b *testing.B) {
	s := NewStructural()
	img := createSlideImage(640, 360)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		s.Extract(context.Background(), img)
	}
}
