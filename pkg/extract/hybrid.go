package extract

import (
	"context"
	"image"

	"github.com/menta2k/slide-editor/pkg/types"
)

// MergeIoU is the intersection-over-union threshold above which two
// candidates from different detectors are treated as the same
// component.
const MergeIoU = 0.5

// HybridExtractor runs a structural detector and a model-based detector
// and merges their candidates. Overlapping candidates collapse into
// one; when the detectors disagree on kind, text wins, because a text
// classification that agrees on location is the higher-confidence
// signal.
type HybridExtractor struct {
	structural Extractor
	model      Extractor
}

// NewHybrid combines a structural extractor with a model-based one.
func NewHybrid(structural, model Extractor) *HybridExtractor {
	return &HybridExtractor{structural: structural, model: model}
}

// Extract runs both detectors and merges. A failure of either backend
// fails the extraction: the hybrid contract is "both, merged", not
// "whichever answered".
func (h *HybridExtractor) Extract(ctx context.Context, img image.Image) ([]Candidate, error) {
	structCands, err := h.structural.Extract(ctx, img)
	if err != nil {
		return nil, err
	}
	modelCands, err := h.model.Extract(ctx, img)
	if err != nil {
		return nil, err
	}
	return merge(modelCands, structCands), nil
}

// merge folds secondary candidates into primary ones. Primary
// candidates win ties: the model's candidates carry recovered text, so
// they come first.
func merge(primary, secondary []Candidate) []Candidate {
	out := make([]Candidate, len(primary))
	copy(out, primary)

	for _, sec := range secondary {
		matched := -1
		for i := range out {
			if out[i].Box.IoU(sec.Box) > MergeIoU {
				matched = i
				break
			}
		}
		if matched < 0 {
			out = append(out, sec)
			continue
		}

		// Same component seen by both detectors. Text classification
		// beats graphic; recovered text is never discarded.
		if sec.Kind != out[matched].Kind && sec.Kind == types.KindText {
			out[matched].Kind = sec.Kind
			if out[matched].Text == "" {
				out[matched].Text = sec.Text
			}
		}
		if sec.Confidence > out[matched].Confidence {
			out[matched].Confidence = sec.Confidence
		}
	}
	return out
}
