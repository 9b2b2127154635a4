package styles

import (
	"context"
	"errors"
	"image"
	"testing"

	"github.com/menta2k/slide-editor/pkg/types"
)

func TestParseStyle(t *testing.T) {
	raw := `{"weight": "bold", "color": "#1A2B3C", "font_family": "Georgia"}`

	attrs, err := parseStyle(raw)
	if err != nil {
		t.Fatalf("parseStyle failed: %v", err)
	}
	if attrs.Weight != "bold" {
		t.Errorf("Expected weight bold, got %q", attrs.Weight)
	}
	if attrs.Color != "#1A2B3C" {
		t.Errorf("Expected color #1A2B3C, got %q", attrs.Color)
	}
	if attrs.FontFamily != "Georgia" {
		t.Errorf("Expected family Georgia, got %q", attrs.FontFamily)
	}
}

func TestParseStyleNormalizesWeight(t *testing.T) {
	// Anything that is not exactly "bold" is normal
	for _, weight := range []string{"", "heavy", "BOLD", "light"} {
		attrs, err := parseStyle(`{"weight": "` + weight + `"}`)
		if err != nil {
			t.Fatalf("parseStyle failed for weight %q: %v", weight, err)
		}
		if attrs.Weight != "normal" {
			t.Errorf("Expected weight %q to normalize to normal, got %q", weight, attrs.Weight)
		}
	}
}

func TestParseStyleRejectsBadColors(t *testing.T) {
	for _, c := range []string{"red", "#12345", "#GGGGGG", "1A2B3C"} {
		attrs, err := parseStyle(`{"weight": "normal", "color": "` + c + `"}`)
		if err != nil {
			t.Fatalf("parseStyle failed for color %q: %v", c, err)
		}
		if attrs.Color != "" {
			t.Errorf("Expected invalid color %q to be dropped, got %q", c, attrs.Color)
		}
	}
}

func TestParseStyleWithFences(t *testing.T) {
	raw := "```json\n{\"weight\": \"bold\", \"color\": \"#FFFFFF\"}\n```"

	attrs, err := parseStyle(raw)
	if err != nil {
		t.Fatalf("parseStyle failed: %v", err)
	}
	if !attrs.Bold() {
		t.Error("Expected bold after stripping fences")
	}
}

func TestParseStyleNoJSON(t *testing.T) {
	if _, err := parseStyle("the text looks bold and white"); err == nil {
		t.Error("Expected an error for a response without JSON")
	}
}

// fakeVision returns canned responses for style queries.
type fakeVision struct {
	response string
	err      error
}

func (f *fakeVision) SimpleQuery(context.Context, string, string, string) (string, error) {
	return f.response, f.err
}

func (f *fakeVision) DetectRegions(context.Context, string, string, string) (*types.Detection, error) {
	return &types.Detection{}, nil
}

func TestExtractStyle(t *testing.T) {
	e := NewCaptionModel(&fakeVision{response: `{"weight":"bold","color":"#000000","font_family":"Arial"}`}, "test-model")

	crop := image.NewRGBA(image.Rect(0, 0, 120, 40))
	attrs, err := e.ExtractStyle(context.Background(), crop)
	if err != nil {
		t.Fatalf("ExtractStyle failed: %v", err)
	}
	if !attrs.Bold() || attrs.Color != "#000000" || attrs.FontFamily != "Arial" {
		t.Errorf("Unexpected attributes: %+v", attrs)
	}
}

func TestExtractStyleQueryError(t *testing.T) {
	boom := errors.New("model offline")
	e := NewCaptionModel(&fakeVision{err: boom}, "test-model")

	if _, err := e.ExtractStyle(context.Background(), image.NewRGBA(image.Rect(0, 0, 10, 10))); !errors.Is(err, boom) {
		t.Errorf("Expected the query error to propagate, got %v", err)
	}
}
