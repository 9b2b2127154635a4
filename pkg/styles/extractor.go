// Package styles enriches recovered text components with inferred
// visual attributes (weight, color, approximate font family) using a
// vision caption model. Style is cosmetic: every failure here is
// absorbed and logged, never propagated.
package styles

import (
	"context"
	"encoding/json"
	"fmt"
	"image"
	"regexp"
	"strings"

	"github.com/menta2k/slide-editor/pkg/client"
	"github.com/menta2k/slide-editor/pkg/processing"
	"github.com/menta2k/slide-editor/pkg/types"
)

// StylePrompt asks the caption model to describe the rendering of a
// cropped text block.
const StylePrompt = `You are a typography analyzer. The image is a cropped text block
from a presentation slide.

Return JSON only:
{"weight": "bold" | "normal", "color": "#RRGGBB", "font_family": "string"}

HARD RULES
- "color" is the dominant text color as a hex code.
- "font_family" is the closest common font family (e.g. "Arial",
  "Georgia", "Courier New"); use "sans-serif" when unsure.
- JSON only. No markdown, no code fences, no comments.`

// Extractor infers style attributes for one text component.
type Extractor interface {
	ExtractStyle(ctx context.Context, crop image.Image) (*types.StyleAttributes, error)
}

// CaptionModel implements Extractor with a vision caption model behind
// a VisionClient.
type CaptionModel struct {
	client    client.VisionClient
	model     string
	processor *processing.Processor
}

// NewCaptionModel creates a caption-model style extractor.
func NewCaptionModel(c client.VisionClient, model string) *CaptionModel {
	return &CaptionModel{
		client:    c,
		model:     model,
		processor: processing.NewProcessor(),
	}
}

// ExtractStyle sends the cropped text block to the caption model and
// parses the attribute JSON.
func (e *CaptionModel) ExtractStyle(ctx context.Context, crop image.Image) (*types.StyleAttributes, error) {
	imgB64, err := e.processor.PrepareForModel(crop, "png", 512, 90)
	if err != nil {
		return nil, fmt.Errorf("encode for model: %w", err)
	}

	raw, err := e.client.SimpleQuery(ctx, e.model, StylePrompt, imgB64)
	if err != nil {
		return nil, fmt.Errorf("style query: %w", err)
	}

	attrs, err := parseStyle(raw)
	if err != nil {
		return nil, err
	}
	return attrs, nil
}

var hexColorRe = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

// parseStyle parses and normalizes the model's attribute JSON.
func parseStyle(raw string) (*types.StyleAttributes, error) {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		if i := strings.Index(raw, "\n"); i >= 0 {
			raw = raw[i+1:]
		}
		if j := strings.LastIndex(raw, "```"); j >= 0 {
			raw = raw[:j]
		}
	}
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("no JSON in style response")
	}

	var attrs types.StyleAttributes
	if err := json.Unmarshal([]byte(raw[start:end+1]), &attrs); err != nil {
		return nil, fmt.Errorf("parse style response: %w", err)
	}

	if attrs.Weight != "bold" {
		attrs.Weight = "normal"
	}
	if !hexColorRe.MatchString(attrs.Color) {
		attrs.Color = ""
	}
	attrs.FontFamily = strings.TrimSpace(attrs.FontFamily)

	return &attrs, nil
}
