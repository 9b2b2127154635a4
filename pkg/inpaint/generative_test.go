package inpaint

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/menta2k/slide-editor/pkg/types"
)

func solidNRGBA(w, h int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestGenerativeInpaint(t *testing.T) {
	region := types.Box{X: 50, Y: 20, W: 60, H: 40}
	edited := solidNRGBA(200, 100, color.NRGBA{30, 60, 90, 255})
	editedB64 := base64.StdEncoding.EncodeToString(encodePNG(t, edited))

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/images/edits" {
			t.Errorf("Unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("Expected bearer auth, got %q", got)
		}
		if err := r.ParseMultipartForm(32 << 20); err != nil {
			t.Errorf("Bad multipart request: %v", err)
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		if r.FormValue("prompt") == "" {
			t.Error("Expected a prompt field")
		}
		if _, _, err := r.FormFile("image"); err != nil {
			t.Errorf("Expected an image part: %v", err)
		}

		// The mask must be opaque outside the region, transparent inside
		maskFile, _, err := r.FormFile("mask")
		if err != nil {
			t.Errorf("Expected a mask part: %v", err)
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		mask, err := png.Decode(maskFile)
		if err != nil {
			t.Errorf("Mask is not a valid PNG: %v", err)
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		if _, _, _, a := mask.At(0, 0).RGBA(); a == 0 {
			t.Error("Expected the mask corner to be opaque")
		}
		if _, _, _, a := mask.At(region.X+region.W/2, region.Y+region.H/2).RGBA(); a != 0 {
			t.Error("Expected the mask region to be transparent")
		}

		resp := map[string]any{
			"data": []map[string]string{
				{"b64_json": editedB64},
			},
		}
		json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	p := NewGenerative(srv.URL, "test-key", "gpt-image-1", 5*time.Second)
	src := solidNRGBA(200, 100, color.NRGBA{255, 0, 0, 255})

	patch, err := p.Inpaint(context.Background(), src, region)
	if err != nil {
		t.Fatalf("Inpaint failed: %v", err)
	}

	// The patch is the region crop of the edited image
	if b := patch.Bounds(); b.Dx() != region.W || b.Dy() != region.H {
		t.Fatalf("Expected a %dx%d patch, got %v", region.W, region.H, b)
	}
	r, g, b, _ := patch.At(patch.Bounds().Min.X, patch.Bounds().Min.Y).RGBA()
	if r>>8 != 30 || g>>8 != 60 || b>>8 != 90 {
		t.Errorf("Expected the edited color in the patch, got %d %d %d", r>>8, g>>8, b>>8)
	}
}

func TestGenerativeInpaintServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model overloaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	p := NewGenerative(srv.URL, "", "", 5*time.Second)
	src := solidNRGBA(100, 100, color.NRGBA{255, 255, 255, 255})

	if _, err := p.Inpaint(context.Background(), src, types.Box{X: 10, Y: 10, W: 20, H: 20}); err == nil {
		t.Error("Expected an error for a failing endpoint")
	}
}
