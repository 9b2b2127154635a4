// Package batch fans the decomposition of many images out over a
// bounded worker pool and collects results in input order.
package batch

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/menta2k/slide-editor/pkg/types"
)

// DefaultConcurrency is the worker-pool size used when none is
// configured.
const DefaultConcurrency = 4

// AnalyzeFunc decomposes a single image by path.
type AnalyzeFunc func(ctx context.Context, path string) (*types.EditableImage, error)

// Result is the ordered outcome of a batch analysis. Images[i] always
// corresponds to the i-th input path regardless of completion order.
type Result struct {
	Images []*types.EditableImage
}

// Analyzer runs an AnalyzeFunc over a batch of image paths with bounded
// parallelism and a fail-fast policy: the first per-image failure
// aborts the whole batch. In-flight analyses are cancelled via context;
// they may finish, but their results are discarded.
type Analyzer struct {
	analyze     AnalyzeFunc
	concurrency int
	logger      *log.Logger
}

// New creates an analyzer. A concurrency of zero or less selects
// DefaultConcurrency; a nil logger falls back to the package default.
func New(analyze AnalyzeFunc, concurrency int, logger *log.Logger) *Analyzer {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Analyzer{analyze: analyze, concurrency: concurrency, logger: logger}
}

// Run analyzes all paths. The returned Result has exactly one entry per
// input path, index-aligned. On the first failure the batch aborts and
// the error names the offending image.
func (a *Analyzer) Run(ctx context.Context, paths []string) (*Result, error) {
	results := make([]*types.EditableImage, len(paths))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(a.concurrency)

	for idx, path := range paths {
		g.Go(func() error {
			ei, err := a.analyze(ctx, path)
			if err != nil {
				return fmt.Errorf("image %d (%s): %w", idx, path, err)
			}
			// Each worker owns exactly its own slot; no lock needed.
			results[idx] = ei
			a.logger.Debug("analyzed image", "index", idx, "path", path,
				"components", len(ei.Components))
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &Result{Images: results}, nil
}
