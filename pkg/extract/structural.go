package extract

import (
	"context"
	"image"
	"math"
	"sort"

	"github.com/menta2k/slide-editor/pkg/types"
)

// StructuralConfig holds tuning parameters for the structural detector.
type StructuralConfig struct {
	// EdgeThreshold is the minimum mean edge strength for a grid cell
	// to count as foreground.
	EdgeThreshold float64

	// CellSize is the grid cell edge length in pixels.
	CellSize int

	// MinRegionRatio is the minimum region area as a fraction of the
	// image area.
	MinRegionRatio float64

	// MaxRegions caps the number of candidates returned.
	MaxRegions int

	// TextAspectMin is the minimum width/height ratio for a region to
	// be classified as a text row.
	TextAspectMin float64

	// TextHeightMax is the maximum region height as a fraction of the
	// image height for the text classification.
	TextHeightMax float64
}

// DefaultStructuralConfig returns the detector defaults, tuned for
// 1080p-class slide renders.
func DefaultStructuralConfig() StructuralConfig {
	return StructuralConfig{
		EdgeThreshold:  0.035,
		CellSize:       16,
		MinRegionRatio: 0.0008,
		MaxRegions:     24,
		TextAspectMin:  2.5,
		TextHeightMax:  0.18,
	}
}

// StructuralExtractor detects foreground regions from pixel statistics
// alone: an edge map is pooled onto a coarse grid, connected active
// cells become regions, and regions are classified as text rows or
// graphic blocks by their geometry. It is deterministic and needs no
// network backend.
type StructuralExtractor struct {
	config StructuralConfig
}

// NewStructural creates a structural extractor with default
// configuration.
func NewStructural() *StructuralExtractor {
	return &StructuralExtractor{config: DefaultStructuralConfig()}
}

// NewStructuralWithConfig creates a structural extractor with custom
// configuration.
func NewStructuralWithConfig(config StructuralConfig) *StructuralExtractor {
	return &StructuralExtractor{config: config}
}

// Extract returns candidate regions for the image. It never contacts a
// backend and only fails on degenerate input.
func (s *StructuralExtractor) Extract(_ context.Context, img image.Image) ([]Candidate, error) {
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if width < 2*s.config.CellSize || height < 2*s.config.CellSize {
		return nil, nil
	}

	cells := s.edgeGrid(img)
	regions := s.connectedRegions(cells, width, height)
	candidates := s.classify(regions, width, height)

	// Deterministic reading order: top-to-bottom, then left-to-right.
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].Box.Y != candidates[j].Box.Y {
			return candidates[i].Box.Y < candidates[j].Box.Y
		}
		return candidates[i].Box.X < candidates[j].Box.X
	})

	if len(candidates) > s.config.MaxRegions {
		candidates = candidates[:s.config.MaxRegions]
	}
	return candidates, nil
}

// cellGrid is the pooled edge map: one mean edge strength per cell.
type cellGrid struct {
	cols, rows int
	score      []float64
}

func (g *cellGrid) at(cx, cy int) float64 { return g.score[cy*g.cols+cx] }

// edgeGrid computes per-pixel gradient magnitude and pools it onto the
// cell grid.
func (s *StructuralExtractor) edgeGrid(img image.Image) *cellGrid {
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	cell := s.config.CellSize

	cols := (width + cell - 1) / cell
	rows := (height + cell - 1) / cell
	grid := &cellGrid{cols: cols, rows: rows, score: make([]float64, cols*rows)}
	counts := make([]int, cols*rows)

	lum := make([]float64, width*height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			r, g, b, _ := img.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
			lum[y*width+x] = (float64(r) + float64(g) + float64(b)) / (3.0 * 65535.0)
		}
	}

	for y := 1; y < height-1; y++ {
		for x := 1; x < width-1; x++ {
			gx := lum[y*width+x+1] - lum[y*width+x-1]
			gy := lum[(y+1)*width+x] - lum[(y-1)*width+x]
			mag := math.Sqrt(gx*gx + gy*gy)

			idx := (y/cell)*cols + x/cell
			grid.score[idx] += mag
			counts[idx]++
		}
	}

	for i := range grid.score {
		if counts[i] > 0 {
			grid.score[i] /= float64(counts[i])
		}
	}
	return grid
}

// connectedRegions groups adjacent active cells into pixel-space boxes
// using a 4-neighbor flood fill.
func (s *StructuralExtractor) connectedRegions(grid *cellGrid, width, height int) []scoredRegion {
	cell := s.config.CellSize
	visited := make([]bool, len(grid.score))
	var regions []scoredRegion

	for cy := 0; cy < grid.rows; cy++ {
		for cx := 0; cx < grid.cols; cx++ {
			idx := cy*grid.cols + cx
			if visited[idx] || grid.at(cx, cy) < s.config.EdgeThreshold {
				continue
			}

			// Flood fill from this cell.
			minX, minY, maxX, maxY := cx, cy, cx, cy
			var scoreSum float64
			var cellCount int
			queue := []int{idx}
			visited[idx] = true

			for len(queue) > 0 {
				cur := queue[0]
				queue = queue[1:]
				ccx, ccy := cur%grid.cols, cur/grid.cols

				minX = min(minX, ccx)
				minY = min(minY, ccy)
				maxX = max(maxX, ccx)
				maxY = max(maxY, ccy)
				scoreSum += grid.score[cur]
				cellCount++

				for _, d := range [4][2]int{{-1, 0}, {1, 0}, {0, -1}, {0, 1}} {
					nx, ny := ccx+d[0], ccy+d[1]
					if nx < 0 || ny < 0 || nx >= grid.cols || ny >= grid.rows {
						continue
					}
					nidx := ny*grid.cols + nx
					if !visited[nidx] && grid.at(nx, ny) >= s.config.EdgeThreshold {
						visited[nidx] = true
						queue = append(queue, nidx)
					}
				}
			}

			box := types.Box{
				X: minX * cell,
				Y: minY * cell,
				W: (maxX - minX + 1) * cell,
				H: (maxY - minY + 1) * cell,
			}
			box = box.Clamp(types.Box{W: width, H: height})
			regions = append(regions, scoredRegion{
				box:   box,
				score: scoreSum / float64(cellCount),
			})
		}
	}
	return regions
}

type scoredRegion struct {
	box   types.Box
	score float64
}

// classify filters regions by size and labels each as text or graphic
// by its geometry. Regions covering nearly the whole frame are dropped:
// they are the slide itself, not a component.
func (s *StructuralExtractor) classify(regions []scoredRegion, width, height int) []Candidate {
	imageArea := width * height
	minArea := int(float64(imageArea) * s.config.MinRegionRatio)

	var out []Candidate
	for _, r := range regions {
		if r.box.Area() < minArea {
			continue
		}
		if float64(r.box.Area()) > 0.9*float64(imageArea) {
			continue
		}

		aspect := float64(r.box.W) / float64(r.box.H)
		kind := types.KindGraphic
		if aspect >= s.config.TextAspectMin &&
			float64(r.box.H) <= s.config.TextHeightMax*float64(height) {
			kind = types.KindText
		}

		out = append(out, Candidate{
			Kind:       kind,
			Box:        r.box,
			Confidence: math.Min(1, r.score/s.config.EdgeThreshold/4),
			Source:     "structural",
		})
	}
	return out
}
