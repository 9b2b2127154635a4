package extract

import (
	"context"
	"fmt"
	"image"
	"strings"

	"github.com/menta2k/slide-editor/pkg/client"
	"github.com/menta2k/slide-editor/pkg/processing"
	"github.com/menta2k/slide-editor/pkg/types"
)

// DefaultPrompt asks a vision model to enumerate the editable
// components of a slide image.
const DefaultPrompt = `You are a slide layout analyzer.

Return JSON only:
{
  "regions": [
    {
      "label": "string",
      "kind": "text" | "graphic",
      "text": "string (exact visible text, only for kind=text)",
      "confidence": 0.0,
      "box": {"x": 0.0, "y": 0.0, "w": 0.0, "h": 0.0}
    }
  ]
}

HARD RULES
- All coordinates are normalized to [0,1] (NOT pixels).
- One region per visually separate element: each heading, each body text
  block, each chart/diagram/photo/icon group.
- The box must tightly enclose the element.
- "kind" is "text" for readable text blocks, "graphic" for everything else.
- For kind=text, "text" must contain the exact visible characters.
- Do NOT return a region covering the whole slide or the plain background.
- If the slide has no separable elements, return {"regions": []}.
- JSON only. No markdown, no code fences, no comments, no trailing commas.`

// MinModelConfidence drops regions the model itself is unsure about.
const MinModelConfidence = 0.3

// ModelExtractor asks a vision model to enumerate slide components.
type ModelExtractor struct {
	client    client.VisionClient
	model     string
	prompt    string
	processor *processing.Processor

	// sendMaxDim bounds the long side of the image sent to the model.
	sendMaxDim int
}

// NewModel creates a model-based extractor using the given vision
// backend.
func NewModel(c client.VisionClient, model string) *ModelExtractor {
	return &ModelExtractor{
		client:     c,
		model:      model,
		prompt:     DefaultPrompt,
		processor:  processing.NewProcessor(),
		sendMaxDim: 1536,
	}
}

// WithPrompt overrides the detection prompt.
func (m *ModelExtractor) WithPrompt(prompt string) *ModelExtractor {
	m.prompt = prompt
	return m
}

// Extract sends the image to the vision model and converts the parsed
// regions into pixel-space candidates. Backend failures are wrapped in
// ErrExtractionFailed.
func (m *ModelExtractor) Extract(ctx context.Context, img image.Image) ([]Candidate, error) {
	imgB64, err := m.processor.PrepareForModel(img, "jpg", m.sendMaxDim, 85)
	if err != nil {
		return nil, fmt.Errorf("%w: encode for model: %v", ErrExtractionFailed, err)
	}

	detection, err := m.client.DetectRegions(ctx, m.model, m.prompt, imgB64)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExtractionFailed, err)
	}

	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	frame := types.Box{W: width, H: height}

	var out []Candidate
	for _, region := range detection.Regions {
		kind, ok := normalizeKind(region.Kind, region.Label)
		if !ok {
			// Unclassifiable elements stay part of the background.
			continue
		}
		if region.Confidence > 0 && region.Confidence < MinModelConfidence {
			continue
		}

		box := region.Box.Denormalize(width, height).Clamp(frame)
		if box.Empty() {
			continue
		}
		// A box spanning the whole frame is the slide, not a component.
		if float64(box.Area()) > 0.9*float64(frame.Area()) {
			continue
		}

		out = append(out, Candidate{
			Kind:       kind,
			Box:        box,
			Text:       strings.TrimSpace(region.Text),
			Confidence: region.Confidence,
			Source:     "model",
		})
	}
	return out, nil
}

// normalizeKind maps model output onto the closed kind set. Labels are
// consulted when the kind field is missing or nonstandard.
func normalizeKind(kind, label string) (types.Kind, bool) {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "text", "title", "body", "caption":
		return types.KindText, true
	case "graphic", "image", "chart", "diagram", "figure", "icon", "table":
		return types.KindGraphic, true
	}

	l := strings.ToLower(label)
	switch {
	case strings.Contains(l, "text"), strings.Contains(l, "title"), strings.Contains(l, "heading"):
		return types.KindText, true
	case strings.Contains(l, "chart"), strings.Contains(l, "image"),
		strings.Contains(l, "diagram"), strings.Contains(l, "figure"),
		strings.Contains(l, "photo"), strings.Contains(l, "icon"):
		return types.KindGraphic, true
	}
	return "", false
}
