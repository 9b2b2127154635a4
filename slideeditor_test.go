package slideeditor

import (
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/menta2k/slide-editor/internal/config"
)

// writeTestSlide renders a slide-like PNG: flat background, a wide
// bright bar and a dark block.
func writeTestSlide(t *testing.T, path string) {
	t.Helper()

	width, height := 640, 360
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{210, 210, 220, 255})
		}
	}
	for y := 30; y < 60; y++ {
		for x := 80; x < 560; x++ {
			img.Set(x, y, color.RGBA{255, 255, 255, 255})
		}
	}
	for y := 150; y < 320; y++ {
		for x := 80; x < 240; x++ {
			img.Set(x, y, color.RGBA{30, 30, 50, 255})
		}
	}

	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
}

func newOfflineService(t *testing.T) *Service {
	t.Helper()
	svc, err := NewService(config.Default(), Options{
		Extractor: ExtractorStructural,
		Inpaint:   InpaintNone,
	})
	if err != nil {
		t.Fatalf("NewService failed: %v", err)
	}
	return svc
}

func TestNewServiceDefaults(t *testing.T) {
	svc, err := NewService(nil, Options{Extractor: ExtractorStructural, Inpaint: InpaintNone})
	if err != nil {
		t.Fatalf("NewService with nil config failed: %v", err)
	}
	if svc == nil {
		t.Fatal("NewService returned nil service")
	}
}

func TestNewServiceRejectsUnknownStrategies(t *testing.T) {
	if _, err := NewService(config.Default(), Options{Extractor: "magic"}); err == nil {
		t.Error("Expected an error for an unknown extractor strategy")
	}
	if _, err := NewService(config.Default(), Options{Inpaint: "magic"}); err == nil {
		t.Error("Expected an error for an unknown inpaint strategy")
	}
}

func TestNewServiceRejectsInvalidConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Pipeline.Concurrency = -1

	if _, err := NewService(cfg, Options{}); err == nil {
		t.Error("Expected an error for invalid config")
	}
}

func TestNewServiceBaiduWithoutCredentials(t *testing.T) {
	cfg := config.Default()
	if _, err := NewService(cfg, Options{Inpaint: InpaintBaidu}); err == nil {
		t.Error("Expected an error for baidu strategy without credentials")
	}

	// Hybrid degrades instead of failing
	if _, err := NewService(cfg, Options{Inpaint: InpaintHybrid}); err != nil {
		t.Errorf("Expected hybrid to degrade without baidu credentials, got %v", err)
	}
}

func TestMakeEditable(t *testing.T) {
	dir := t.TempDir()
	slidePath := filepath.Join(dir, "slide.png")
	writeTestSlide(t, slidePath)

	svc := newOfflineService(t)
	result, err := svc.MakeEditable(context.Background(), slidePath)
	if err != nil {
		t.Fatalf("MakeEditable failed: %v", err)
	}

	if result.Width != 640 || result.Height != 360 {
		t.Errorf("Expected 640x360, got %dx%d", result.Width, result.Height)
	}
	if result.Background == nil {
		t.Error("Expected a background image")
	}
	if len(result.Components) == 0 {
		t.Error("Expected at least one recovered component")
	}
}

func TestMakeEditableMissingFile(t *testing.T) {
	svc := newOfflineService(t)
	if _, err := svc.MakeEditable(context.Background(), "/no/such/slide.png"); err == nil {
		t.Error("Expected an error for a missing file")
	}
}

func TestConvert(t *testing.T) {
	dir := t.TempDir()
	paths := []string{
		filepath.Join(dir, "slide1.png"),
		filepath.Join(dir, "slide2.png"),
	}
	for _, p := range paths {
		writeTestSlide(t, p)
	}

	svc := newOfflineService(t)
	output := filepath.Join(dir, "deck.pptx")
	if err := svc.Convert(context.Background(), paths, output); err != nil {
		t.Fatalf("Convert failed: %v", err)
	}

	info, err := os.Stat(output)
	if err != nil {
		t.Fatalf("Expected the presentation on disk: %v", err)
	}
	if info.Size() == 0 {
		t.Error("Expected a non-empty presentation")
	}
}

func TestConvertNoInputs(t *testing.T) {
	svc := newOfflineService(t)
	if err := svc.Convert(context.Background(), nil, "out.pptx"); err == nil {
		t.Error("Expected an error for an empty batch")
	}
}

func TestConvertFailFast(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "slide1.png")
	writeTestSlide(t, good)
	missing := filepath.Join(dir, "missing.png")

	svc := newOfflineService(t)
	output := filepath.Join(dir, "deck.pptx")
	if err := svc.Convert(context.Background(), []string{good, missing}, output); err == nil {
		t.Fatal("Expected the batch to fail on the missing image")
	}
	if _, err := os.Stat(output); !os.IsNotExist(err) {
		t.Error("Expected no output after a failed batch")
	}
}

func TestGetVersion(t *testing.T) {
	if GetVersion() != Version {
		t.Errorf("Expected version %s, got %s", Version, GetVersion())
	}
}
