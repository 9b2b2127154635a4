// Package decompose splits a slide image into an inpainted background
// and a tree of recoverable components, bounded by a maximum recursion
// depth.
package decompose

import (
	"context"
	"errors"
	"fmt"
	"image"

	"github.com/charmbracelet/log"

	"github.com/menta2k/slide-editor/pkg/extract"
	"github.com/menta2k/slide-editor/pkg/inpaint"
	"github.com/menta2k/slide-editor/pkg/processing"
	"github.com/menta2k/slide-editor/pkg/types"
)

// ErrInpaintingFailed indicates every region of an image failed
// inpainting. The image is still usable as a background-only slide;
// the caller decides whether that is acceptable.
var ErrInpaintingFailed = errors.New("inpainting failed for every region")

// SiblingOverlapIoU is the tolerance above which overlapping sibling
// boxes are reported as a decomposition defect. Overlaps are logged,
// never dropped.
const SiblingOverlapIoU = 0.15

// Decomposer turns one image into an EditableImage. It is safe for
// concurrent use: all fields are read-only after construction.
type Decomposer struct {
	extractor extract.Extractor
	registry  *inpaint.Registry
	processor *processing.Processor
	maxDepth  int
	logger    *log.Logger
}

// New creates a decomposer. maxDepth values below 1 are raised to 1;
// a nil logger falls back to the package default.
func New(extractor extract.Extractor, registry *inpaint.Registry, maxDepth int, logger *log.Logger) *Decomposer {
	if maxDepth < 1 {
		maxDepth = 1
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Decomposer{
		extractor: extractor,
		registry:  registry,
		processor: processing.NewProcessor(),
		maxDepth:  maxDepth,
		logger:    logger,
	}
}

// Decompose analyzes one image and produces its editable form.
//
// Extraction failures are fatal for the image. Inpainting failures are
// absorbed per region (the region keeps its original pixels); only when
// every region fails is ErrInpaintingFailed returned, together with a
// background-only EditableImage.
func (d *Decomposer) Decompose(ctx context.Context, img image.Image, sourcePath string) (*types.EditableImage, error) {
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()

	components, background, regions, failures, err := d.analyze(ctx, img, 0)
	if err != nil {
		return nil, fmt.Errorf("decompose %s: %w", sourcePath, err)
	}

	result := &types.EditableImage{
		SourcePath: sourcePath,
		Width:      width,
		Height:     height,
		Background: background,
		Components: components,
	}

	if regions > 0 && failures == regions {
		// Nothing could be lifted off the background: hand back the
		// untouched image with no editable layers.
		result.Background = img
		result.Components = nil
		return result, fmt.Errorf("decompose %s: %w", sourcePath, ErrInpaintingFailed)
	}
	return result, nil
}

// analyze is the recursive core. It returns the components found at
// this depth, the background with those components inpainted out, and
// the region/inpaint-failure counts for this level.
func (d *Decomposer) analyze(ctx context.Context, img image.Image, depth int) ([]*types.Component, image.Image, int, int, error) {
	bounds := img.Bounds()
	frame := types.Box{W: bounds.Dx(), H: bounds.Dy()}

	candidates, err := d.extractor.Extract(ctx, img)
	if err != nil {
		if !errors.Is(err, extract.ErrExtractionFailed) {
			err = fmt.Errorf("%w: %v", extract.ErrExtractionFailed, err)
		}
		return nil, nil, 0, 0, err
	}
	if len(candidates) == 0 {
		return nil, img, 0, 0, nil
	}

	background := d.processor.ToNRGBA(img)
	components := make([]*types.Component, 0, len(candidates))
	failures := 0

	for _, cand := range candidates {
		box := cand.Box.Clamp(frame)
		if box.Empty() {
			continue
		}

		crop, err := d.processor.Crop(img, box)
		if err != nil {
			d.logger.Warn("skipping candidate with unusable box", "box", box, "err", err)
			continue
		}

		if d.inpaintRegion(ctx, img, background, cand.Kind, box) {
			failures++
		}

		comp := &types.Component{
			Kind:  cand.Kind,
			Box:   box,
			Depth: depth,
			Text:  cand.Text,
			Image: crop,
		}

		// Only graphic regions can contain nested structure; text is a
		// leaf by definition.
		if cand.Kind == types.KindGraphic && depth+1 < d.maxDepth {
			children, subBackground, _, _, err := d.analyze(ctx, crop, depth+1)
			if err != nil {
				return nil, nil, 0, 0, err
			}
			if len(children) > 0 {
				offsetInto(children, box)
				comp.Children = children
				// The component renders from its own inpainted
				// background; the children become layers above it.
				comp.Image = subBackground
			}
		}

		components = append(components, comp)
	}

	d.reportSiblingOverlap(components, depth)
	return components, background, len(components), failures, nil
}

// inpaintRegion resolves a provider for the region kind and applies the
// returned patch. On any failure the region keeps its original pixels
// (never a hole) and true is returned.
func (d *Decomposer) inpaintRegion(ctx context.Context, img image.Image, background *image.NRGBA, kind types.Kind, box types.Box) (failed bool) {
	// An empty registry means inpainting is disabled, not failing.
	if d.registry.Empty() {
		return false
	}

	provider, err := d.registry.Resolve(string(kind))
	if err != nil {
		d.logger.Warn("no inpaint provider for region, keeping original pixels", "box", box, "err", err)
		return true
	}

	patch, err := provider.Inpaint(ctx, img, box)
	if err != nil {
		d.logger.Warn("inpainting failed, region keeps original pixels",
			"provider", provider.Name(), "box", box, "err", err)
		return true
	}

	d.processor.ApplyPatch(background, patch, box)
	return false
}

// reportSiblingOverlap logs pairs of sibling boxes that overlap beyond
// the tolerance. Such overlap indicates a decomposition defect and must
// be visible, not silently dropped.
func (d *Decomposer) reportSiblingOverlap(components []*types.Component, depth int) {
	for i := 0; i < len(components); i++ {
		for j := i + 1; j < len(components); j++ {
			if iou := components[i].Box.IoU(components[j].Box); iou > SiblingOverlapIoU {
				d.logger.Warn("sibling components overlap beyond tolerance",
					"depth", depth, "iou", fmt.Sprintf("%.2f", iou),
					"a", components[i].Box, "b", components[j].Box)
			}
		}
	}
}

// offsetInto shifts a freshly analyzed subtree from crop-local
// coordinates into the parent's coordinate space and clamps each child
// into the parent box.
func offsetInto(children []*types.Component, parent types.Box) {
	for _, child := range children {
		child.Walk(func(c *types.Component) {
			c.Box.X += parent.X
			c.Box.Y += parent.Y
		})
		child.Box = child.Box.Clamp(parent)
	}
}
