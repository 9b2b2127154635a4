// Package slideeditor turns flat slide images back into editable
// presentations.
//
// Each input image is decomposed into an inpainted background plus the
// text and graphic components that sat on top of it; the components are
// then reassembled as individually movable shapes in a generated
// presentation, one slide per image on a uniform canvas.
//
// Basic usage:
//
//	package main
//
//	import (
//		"context"
//		"log"
//
//		slideeditor "github.com/menta2k/slide-editor"
//		"github.com/menta2k/slide-editor/internal/config"
//	)
//
//	func main() {
//		svc, err := slideeditor.NewService(config.Default(), slideeditor.Options{})
//		if err != nil {
//			log.Fatal(err)
//		}
//
//		if err := svc.Convert(context.Background(), []string{"slide1.png", "slide2.png"}, "deck.pptx"); err != nil {
//			log.Fatal(err)
//		}
//	}
//
// The package consists of five main components:
//
// 1. Extract (pkg/extract): Finds text and graphic regions, structurally or via a vision model
// 2. Inpaint (pkg/inpaint): Removes regions from the background through pluggable providers
// 3. Decompose (pkg/decompose): Drives recursive per-image decomposition
// 4. Batch (pkg/batch): Fans decomposition out over a bounded worker pool
// 5. PPTX (pkg/pptx): Reassembles editable images into a presentation
package slideeditor

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/menta2k/slide-editor/internal/config"
	"github.com/menta2k/slide-editor/pkg/batch"
	"github.com/menta2k/slide-editor/pkg/client"
	"github.com/menta2k/slide-editor/pkg/decompose"
	"github.com/menta2k/slide-editor/pkg/extract"
	"github.com/menta2k/slide-editor/pkg/inpaint"
	"github.com/menta2k/slide-editor/pkg/llamacpp"
	"github.com/menta2k/slide-editor/pkg/ollama"
	"github.com/menta2k/slide-editor/pkg/pptx"
	"github.com/menta2k/slide-editor/pkg/processing"
	"github.com/menta2k/slide-editor/pkg/styles"
	"github.com/menta2k/slide-editor/pkg/types"
)

// Version of the slide editor library
const Version = "1.0.0"

// ExtractorStrategy selects how components are found in an image.
type ExtractorStrategy string

const (
	// ExtractorStructural uses edge statistics only, no model calls.
	ExtractorStructural ExtractorStrategy = "structural"
	// ExtractorModel queries a vision model for regions.
	ExtractorModel ExtractorStrategy = "model"
	// ExtractorHybrid merges model regions with structural ones.
	ExtractorHybrid ExtractorStrategy = "hybrid"
)

// InpaintStrategy selects which providers remove components from the
// background.
type InpaintStrategy string

const (
	// InpaintGenerative routes every region to the generative provider.
	InpaintGenerative InpaintStrategy = "generative"
	// InpaintBaidu routes every region to the Baidu provider.
	InpaintBaidu InpaintStrategy = "baidu"
	// InpaintHybrid uses Baidu for text regions and the generative
	// provider for everything else.
	InpaintHybrid InpaintStrategy = "hybrid"
	// InpaintNone disables inpainting; the background keeps all pixels.
	InpaintNone InpaintStrategy = "none"
)

// Options selects pipeline behaviour on top of the connection config.
// Zero values pick the defaults noted per field.
type Options struct {
	Extractor     ExtractorStrategy // default ExtractorHybrid
	Inpaint       InpaintStrategy   // default InpaintGenerative
	ExtractStyles bool
	MaxDepth      int // default from config
	Concurrency   int // default from config
	Progress      pptx.ProgressFunc
	Logger        *log.Logger
}

// Service is the high-level pipeline: decompose, batch, reconstruct.
type Service struct {
	decomposer *decompose.Decomposer
	batcher    *batch.Analyzer
	writer     *pptx.Writer
	processor  *processing.Processor
	logger     *log.Logger
}

// NewService wires a pipeline from connection config and options.
func NewService(cfg *config.Config, opts Options) (*Service, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	if opts.Extractor == "" {
		opts.Extractor = ExtractorHybrid
	}
	if opts.Inpaint == "" {
		opts.Inpaint = InpaintGenerative
	}
	if opts.MaxDepth <= 0 {
		opts.MaxDepth = cfg.Pipeline.MaxDepth
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = cfg.Pipeline.Concurrency
	}

	vision, detectModel, captionModel, err := buildVisionClient(cfg)
	if err != nil && opts.Extractor != ExtractorStructural {
		return nil, err
	}

	extractor, err := buildExtractor(opts.Extractor, vision, detectModel)
	if err != nil {
		return nil, err
	}

	registry, err := buildRegistry(opts.Inpaint, cfg, logger)
	if err != nil {
		return nil, err
	}

	writerOpts := []pptx.Option{pptx.WithLogger(logger)}
	if opts.Progress != nil {
		writerOpts = append(writerOpts, pptx.WithProgress(opts.Progress))
	}
	if opts.ExtractStyles {
		if vision == nil {
			return nil, fmt.Errorf("style extraction requires a vision model endpoint")
		}
		writerOpts = append(writerOpts, pptx.WithStyleExtractor(styles.NewCaptionModel(vision, captionModel)))
	}

	svc := &Service{
		decomposer: decompose.New(extractor, registry, opts.MaxDepth, logger),
		writer:     pptx.NewWriter(writerOpts...),
		processor:  processing.NewProcessor(),
		logger:     logger,
	}
	svc.batcher = batch.New(svc.MakeEditable, opts.Concurrency, logger)
	return svc, nil
}

func buildVisionClient(cfg *config.Config) (client.VisionClient, string, string, error) {
	if cfg.Ollama.URL != "" {
		c, err := ollama.NewClient(cfg.Ollama.URL, cfg.Pipeline.Timeout())
		if err != nil {
			return nil, "", "", fmt.Errorf("connecting to ollama: %w", err)
		}
		return c, cfg.Ollama.DetectModel, cfg.Ollama.CaptionModel, nil
	}
	if cfg.LlamaCpp.URL != "" {
		c, err := llamacpp.NewClient(cfg.LlamaCpp.URL, cfg.Pipeline.Timeout())
		if err != nil {
			return nil, "", "", fmt.Errorf("connecting to llama.cpp: %w", err)
		}
		return c, cfg.LlamaCpp.DetectModel, cfg.LlamaCpp.CaptionModel, nil
	}
	return nil, "", "", fmt.Errorf("no vision model endpoint configured")
}

func buildExtractor(strategy ExtractorStrategy, vision client.VisionClient, detectModel string) (extract.Extractor, error) {
	switch strategy {
	case ExtractorStructural:
		return extract.NewStructural(), nil
	case ExtractorModel:
		return extract.NewModel(vision, detectModel), nil
	case ExtractorHybrid:
		return extract.NewHybrid(extract.NewStructural(), extract.NewModel(vision, detectModel)), nil
	default:
		return nil, fmt.Errorf("unknown extractor strategy %q", strategy)
	}
}

// buildRegistry assembles inpainting providers for the chosen strategy.
// A hybrid request without Baidu credentials degrades to generative
// everywhere with a warning instead of failing.
func buildRegistry(strategy InpaintStrategy, cfg *config.Config, logger *log.Logger) (*inpaint.Registry, error) {
	registry := inpaint.NewRegistry()
	timeout := cfg.Pipeline.Timeout()

	switch strategy {
	case InpaintNone:
		return registry, nil
	case InpaintGenerative:
		registry.RegisterDefault(inpaint.NewGenerative(cfg.Generative.BaseURL, cfg.Generative.APIKey, cfg.Generative.Model, timeout))
		return registry, nil
	case InpaintBaidu:
		baidu, err := inpaint.NewBaidu(cfg.Baidu.APIKey, cfg.Baidu.SecretKey, timeout)
		if err != nil {
			return nil, fmt.Errorf("baidu inpainting: %w", err)
		}
		registry.RegisterDefault(baidu)
		return registry, nil
	case InpaintHybrid:
		registry.RegisterDefault(inpaint.NewGenerative(cfg.Generative.BaseURL, cfg.Generative.APIKey, cfg.Generative.Model, timeout))
		baidu, err := inpaint.NewBaidu(cfg.Baidu.APIKey, cfg.Baidu.SecretKey, timeout)
		if err != nil {
			logger.Warn("baidu credentials missing, text regions use the generative provider", "error", err)
			return registry, nil
		}
		registry.Register(string(types.KindText), baidu)
		return registry, nil
	default:
		return nil, fmt.Errorf("unknown inpaint strategy %q", strategy)
	}
}

// MakeEditable loads and decomposes a single image. When every region's
// inpainting fails the image comes back with its background untouched
// and no components; that is reported as a warning, not an error.
func (s *Service) MakeEditable(ctx context.Context, path string) (*types.EditableImage, error) {
	img, err := s.processor.LoadImage(path)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", path, err)
	}

	result, err := s.decomposer.Decompose(ctx, img, path)
	if err != nil {
		if errors.Is(err, decompose.ErrInpaintingFailed) {
			s.logger.Warn("no region could be inpainted, keeping the flat image", "path", path)
			return result, nil
		}
		return nil, err
	}
	return result, nil
}

// AnalyzeBatch decomposes all paths concurrently. The first failure
// aborts the batch.
func (s *Service) AnalyzeBatch(ctx context.Context, paths []string) (*batch.Result, error) {
	return s.batcher.Run(ctx, paths)
}

// Reconstruct writes the analyzed images into a presentation.
func (s *Service) Reconstruct(ctx context.Context, images []*types.EditableImage, outputPath string) error {
	return s.writer.Write(ctx, images, outputPath)
}

// Convert runs the whole pipeline: analyze every input image and write
// the resulting presentation.
func (s *Service) Convert(ctx context.Context, paths []string, outputPath string) error {
	if len(paths) == 0 {
		return fmt.Errorf("no input images")
	}

	result, err := s.AnalyzeBatch(ctx, paths)
	if err != nil {
		return fmt.Errorf("batch analysis failed: %w", err)
	}
	return s.Reconstruct(ctx, result.Images, outputPath)
}

// GetVersion returns the library version
func GetVersion() string {
	return Version
}
