// Package extract discovers candidate components (text blocks, graphic
// regions) in a slide image.
//
// Two extraction strategies are provided: a structural detector that
// works on pixel statistics alone, and a model-based detector that asks
// a vision model to enumerate components. The hybrid extractor runs
// both and merges their candidates by box overlap.
package extract

import (
	"context"
	"errors"
	"image"

	"github.com/menta2k/slide-editor/pkg/types"
)

// ErrExtractionFailed indicates the extraction backend was unreachable
// or returned an unusable response. It is fatal for the affected image.
var ErrExtractionFailed = errors.New("extraction failed")

// Candidate is a detected region before decomposition: a kind, a pixel
// bounding box, and recovered text when the detector can read it.
type Candidate struct {
	Kind       types.Kind
	Box        types.Box
	Text       string
	Confidence float64
	Source     string // "structural" or "model"
}

// Extractor produces a flat list of candidate regions for one image.
// Implementations must be safe for concurrent use.
type Extractor interface {
	Extract(ctx context.Context, img image.Image) ([]Candidate, error)
}
