package pptx

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"image"
	"math"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/disintegration/imaging"
	"github.com/google/uuid"

	"github.com/menta2k/slide-editor/pkg/processing"
	"github.com/menta2k/slide-editor/pkg/styles"
	"github.com/menta2k/slide-editor/pkg/types"
)

// ErrWriteFailed wraps any failure while assembling or persisting the
// output document.
var ErrWriteFailed = errors.New("presentation write failed")

const (
	// DefaultCanvasWidth and DefaultCanvasHeight are used when no input
	// image provides dimensions.
	DefaultCanvasWidth  = 1920
	DefaultCanvasHeight = 1080

	// widescreenRatio and ratio tolerance for the aspect warning.
	widescreenRatio = 16.0 / 9.0
	ratioTolerance  = 0.02
)

// ProgressFunc receives reconstruction progress. percent is monotonic
// and reaches 100 on success.
type ProgressFunc func(step, message string, percent int)

// Writer assembles editable images into a single presentation with one
// slide per image on a uniform canvas.
type Writer struct {
	processor *processing.Processor
	styler    styles.Extractor
	progress  ProgressFunc
	logger    *log.Logger
}

// Option configures a Writer.
type Option func(*Writer)

// WithStyleExtractor enables the style pass over text components before
// slides are rendered.
func WithStyleExtractor(s styles.Extractor) Option {
	return func(w *Writer) { w.styler = s }
}

// WithProgress installs a progress callback.
func WithProgress(fn ProgressFunc) Option {
	return func(w *Writer) { w.progress = fn }
}

// WithLogger overrides the default logger.
func WithLogger(logger *log.Logger) Option {
	return func(w *Writer) { w.logger = logger }
}

// NewWriter creates a presentation writer.
func NewWriter(opts ...Option) *Writer {
	w := &Writer{
		processor: processing.NewProcessor(),
		logger:    log.Default(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

func (w *Writer) report(step, message string, percent int) {
	if w.progress != nil {
		w.progress(step, message, percent)
	}
}

// CanvasSize picks the uniform slide canvas: the minimum width and the
// minimum height across all images, each axis independently. An empty
// input falls back to 1920x1080.
func CanvasSize(images []*types.EditableImage) (int, int) {
	width, height := 0, 0
	for _, img := range images {
		if img == nil || img.Width <= 0 || img.Height <= 0 {
			continue
		}
		if width == 0 || img.Width < width {
			width = img.Width
		}
		if height == 0 || img.Height < height {
			height = img.Height
		}
	}
	if width == 0 || height == 0 {
		return DefaultCanvasWidth, DefaultCanvasHeight
	}
	return width, height
}

// Write renders the images into a presentation at outputPath. The file
// appears atomically: content is staged in a temporary file alongside
// the destination and renamed into place only on success.
func (w *Writer) Write(ctx context.Context, images []*types.EditableImage, outputPath string) error {
	canvasW, canvasH := CanvasSize(images)
	w.logger.Info("assembling presentation", "slides", len(images), "canvas_w", canvasW, "canvas_h", canvasH)
	w.warnRatios(images)
	w.report("assemble", fmt.Sprintf("canvas %dx%d", canvasW, canvasH), 5)

	if w.styler != nil {
		if err := w.applyStyles(ctx, images); err != nil {
			return fmt.Errorf("%w: %v", ErrWriteFailed, err)
		}
	}

	tmpPath := fmt.Sprintf("%s.tmp-%s", outputPath, uuid.New().String())
	f, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("%w: creating %s: %v", ErrWriteFailed, tmpPath, err)
	}

	if err := w.writeArchive(ctx, f, images, canvasW, canvasH); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("%w: %v", ErrWriteFailed, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("%w: closing %s: %v", ErrWriteFailed, tmpPath, err)
	}
	if err := os.Rename(tmpPath, outputPath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("%w: renaming into place: %v", ErrWriteFailed, err)
	}

	w.logger.Info("presentation written", "path", filepath.Clean(outputPath))
	w.report("finalize", "presentation written", 100)
	return nil
}

func (w *Writer) warnRatios(images []*types.EditableImage) {
	for _, img := range images {
		if img == nil || img.Height <= 0 {
			continue
		}
		ratio := img.AspectRatio()
		if math.Abs(ratio-widescreenRatio)/widescreenRatio > ratioTolerance {
			w.logger.Warn("image is not 16:9, content may be cropped or letterboxed",
				"source", img.SourcePath, "ratio", fmt.Sprintf("%.3f", ratio))
		}
	}
}

// applyStyles runs the style extractor over every text component that
// has a crop. Extraction failures degrade to unstyled text.
func (w *Writer) applyStyles(ctx context.Context, images []*types.EditableImage) error {
	total, done := 0, 0
	for _, img := range images {
		for _, c := range img.Components {
			c.Walk(func(comp *types.Component) {
				if comp.Kind == types.KindText && comp.Image != nil {
					total++
				}
			})
		}
	}
	for _, img := range images {
		for _, c := range img.Components {
			var walkErr error
			c.Walk(func(comp *types.Component) {
				if walkErr != nil || comp.Kind != types.KindText || comp.Image == nil {
					return
				}
				if err := ctx.Err(); err != nil {
					walkErr = err
					return
				}
				attrs, err := w.styler.ExtractStyle(ctx, comp.Image)
				if err != nil {
					w.logger.Warn("style extraction failed, keeping plain text",
						"source", img.SourcePath, "box", comp.Box, "error", err)
				} else {
					comp.Style = attrs
				}
				done++
				if total > 0 {
					w.report("styles", fmt.Sprintf("styled %d/%d text components", done, total),
						5+done*20/total)
				}
			})
			if walkErr != nil {
				return walkErr
			}
		}
	}
	return nil
}

// writeArchive streams the complete package into zw's destination.
func (w *Writer) writeArchive(ctx context.Context, dst *os.File, images []*types.EditableImage, canvasW, canvasH int) error {
	zw := zip.NewWriter(dst)

	mediaCount := 0
	type mediaPart struct {
		name string
		data []byte
	}
	var pending []mediaPart
	addMedia := func(data []byte) string {
		mediaCount++
		name := fmt.Sprintf("image%d.png", mediaCount)
		pending = append(pending, mediaPart{name: name, data: data})
		return "../media/" + name
	}

	parts := []struct {
		name    string
		content string
	}{
		{"[Content_Types].xml", contentTypesXML(len(images))},
		{"_rels/.rels", rootRelsXML()},
		{"ppt/presentation.xml", presentationXML(len(images), canvasW*emuPerPixel, canvasH*emuPerPixel)},
		{"ppt/_rels/presentation.xml.rels", presentationRelsXML(len(images))},
		{"ppt/slideMasters/slideMaster1.xml", slideMasterXML},
		{"ppt/slideMasters/_rels/slideMaster1.xml.rels", slideMasterRelsXML},
		{"ppt/slideLayouts/slideLayout1.xml", slideLayoutXML},
		{"ppt/slideLayouts/_rels/slideLayout1.xml.rels", slideLayoutRelsXML},
		{"ppt/theme/theme1.xml", themeXML},
	}
	for _, part := range parts {
		if err := writeZipEntry(zw, part.name, []byte(part.content)); err != nil {
			return err
		}
	}

	for i, img := range images {
		if err := ctx.Err(); err != nil {
			return err
		}
		slideXML, refs, err := w.renderSlide(img, canvasW, canvasH, addMedia)
		if err != nil {
			return fmt.Errorf("slide %d (%s): %w", i+1, img.SourcePath, err)
		}
		slideName := fmt.Sprintf("ppt/slides/slide%d.xml", i+1)
		if err := writeZipEntry(zw, slideName, []byte(slideXML)); err != nil {
			return err
		}
		relsName := fmt.Sprintf("ppt/slides/_rels/slide%d.xml.rels", i+1)
		if err := writeZipEntry(zw, relsName, []byte(slideRelsXML(refs))); err != nil {
			return err
		}
		w.report("slides", fmt.Sprintf("rendered slide %d/%d", i+1, len(images)),
			30+(i+1)*60/max(len(images), 1))
	}

	for _, part := range pending {
		if err := writeZipEntry(zw, "ppt/media/"+part.name, part.data); err != nil {
			return err
		}
	}

	return zw.Close()
}

// renderSlide builds the slide XML and media for one image.
func (w *Writer) renderSlide(img *types.EditableImage, canvasW, canvasH int, addMedia func([]byte) string) (string, []mediaRef, error) {
	sx, sy := 1.0, 1.0
	if img.Width > 0 {
		sx = float64(canvasW) / float64(img.Width)
	}
	if img.Height > 0 {
		sy = float64(canvasH) / float64(img.Height)
	}

	b := newSlideBuilder(sx, sy, addMedia)

	bgData, err := w.encodeBackground(img.Background, canvasW, canvasH)
	if err != nil {
		return "", nil, fmt.Errorf("encoding background: %w", err)
	}
	b.background(bgData, canvasW, canvasH)

	encode := func(c *types.Component) ([]byte, error) {
		if c.Image == nil {
			return nil, fmt.Errorf("graphic component at %+v has no pixels", c.Box)
		}
		return w.processor.EncodePNG(c.Image)
	}
	for _, c := range img.Components {
		if err := b.component(c, encode); err != nil {
			return "", nil, err
		}
	}

	return b.finish(), b.refs, nil
}

// encodeBackground fits the background onto the canvas. Mismatched
// dimensions are scaled to fill and center-cropped so the canvas never
// shows bare borders.
func (w *Writer) encodeBackground(bg image.Image, canvasW, canvasH int) ([]byte, error) {
	if bg == nil {
		bg = image.NewNRGBA(image.Rect(0, 0, canvasW, canvasH))
	}
	bounds := bg.Bounds()
	if bounds.Dx() != canvasW || bounds.Dy() != canvasH {
		bg = imaging.Fill(bg, canvasW, canvasH, imaging.Center, imaging.Lanczos)
	}
	return w.processor.EncodePNG(bg)
}

func writeZipEntry(zw *zip.Writer, name string, data []byte) error {
	entry, err := zw.Create(name)
	if err != nil {
		return fmt.Errorf("creating archive entry %s: %w", name, err)
	}
	if _, err := entry.Write(data); err != nil {
		return fmt.Errorf("writing archive entry %s: %w", name, err)
	}
	return nil
}
