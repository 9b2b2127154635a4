package processing

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/draw"
	"image/jpeg"
	"image/png"
	"os"
	"strings"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp"

	"github.com/menta2k/slide-editor/pkg/types"
)

// Processor handles image loading, encoding, cropping, and patch
// compositing for the decomposition pipeline.
type Processor struct{}

// NewProcessor creates a new image processor.
func NewProcessor() *Processor {
	return &Processor{}
}

// LoadImage loads an image from a file path with WebP support.
func (p *Processor) LoadImage(path string) (image.Image, error) {
	// Try imaging.Open (registered decoders)
	if img, err := imaging.Open(path); err == nil {
		return img, nil
	}

	// Fallback: explicit WebP decode
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	if strings.Contains(strings.ToLower(path), ".webp") {
		if img, err := webp.Decode(f); err == nil {
			return img, nil
		}
		if _, err := f.Seek(0, 0); err == nil {
			if img, _, err := image.Decode(f); err == nil {
				return img, nil
			}
		}
	} else {
		if _, err := f.Seek(0, 0); err == nil {
			if img, _, err := image.Decode(f); err == nil {
				return img, nil
			}
		}
	}
	return nil, fmt.Errorf("image: unknown format for %s", path)
}

// Decode decodes an image from byte data with WebP fallback.
func (p *Processor) Decode(data []byte) (image.Image, error) {
	if img, _, err := image.Decode(bytes.NewReader(data)); err == nil {
		return img, nil
	}
	if img, err := webp.Decode(bytes.NewReader(data)); err == nil {
		return img, nil
	}
	return nil, fmt.Errorf("image: unknown or unsupported format")
}

// PrepareForModel converts an image to base64 for sending to vision
// models, downscaling the long side to maxDim when positive.
func (p *Processor) PrepareForModel(img image.Image, format string, maxDim, quality int) (string, error) {
	if maxDim > 0 {
		b := img.Bounds()
		w, h := b.Dx(), b.Dy()
		if w > maxDim || h > maxDim {
			if w >= h {
				img = imaging.Resize(img, maxDim, 0, imaging.Lanczos)
			} else {
				img = imaging.Resize(img, 0, maxDim, imaging.Lanczos)
			}
		}
	}

	var buf bytes.Buffer
	switch strings.ToLower(format) {
	case "png":
		enc := png.Encoder{CompressionLevel: png.BestCompression}
		if err := enc.Encode(&buf, img); err != nil {
			return "", err
		}
	default: // jpg
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
			return "", err
		}
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// Crop extracts the pixels of a box from an image. The box is
// intersected with the image bounds first.
func (p *Processor) Crop(img image.Image, box types.Box) (image.Image, error) {
	rect := box.Rect().Add(img.Bounds().Min).Intersect(img.Bounds())
	if rect.Empty() {
		return nil, fmt.Errorf("empty crop rectangle for box %+v", box)
	}
	return imaging.Crop(img, rect), nil
}

// ToNRGBA returns a mutable NRGBA copy of an image with zero-based
// bounds.
func (p *Processor) ToNRGBA(img image.Image) *image.NRGBA {
	return imaging.Clone(img)
}

// ApplyPatch draws a patch over the given box of dst, resizing the
// patch to the box dimensions when they differ.
func (p *Processor) ApplyPatch(dst *image.NRGBA, patch image.Image, box types.Box) {
	if box.Empty() || patch == nil {
		return
	}
	pb := patch.Bounds()
	if pb.Dx() != box.W || pb.Dy() != box.H {
		patch = imaging.Resize(patch, box.W, box.H, imaging.Lanczos)
	}
	draw.Draw(dst, box.Rect(), patch, patch.Bounds().Min, draw.Src)
}

// EncodePNG encodes an image as PNG bytes.
func (p *Processor) EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("png encode: %w", err)
	}
	return buf.Bytes(), nil
}

// SaveImage saves an image to a file with the specified format and
// quality.
func (p *Processor) SaveImage(img image.Image, path, format string, quality int, lossless bool) error {
	switch strings.ToLower(format) {
	case "webp":
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		defer f.Close()
		opts := &webp.Options{Lossless: lossless, Quality: float32(quality)}
		return webp.Encode(f, img, opts)
	case "png":
		return imaging.Save(img, path)
	default: // jpg/jpeg
		return imaging.Save(img, path, imaging.JPEGQuality(quality))
	}
}
