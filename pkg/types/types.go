package types

import "image"

// Kind classifies a recovered component.
type Kind string

const (
	KindText    Kind = "text"
	KindGraphic Kind = "graphic"
)

// Box is an axis-aligned bounding box in source-image pixel space.
type Box struct {
	X int `json:"x"`
	Y int `json:"y"`
	W int `json:"w"`
	H int `json:"h"`
}

// Rect converts the box to an image.Rectangle.
func (b Box) Rect() image.Rectangle {
	return image.Rect(b.X, b.Y, b.X+b.W, b.Y+b.H)
}

// Area returns the area of the box in pixels.
func (b Box) Area() int {
	if b.W <= 0 || b.H <= 0 {
		return 0
	}
	return b.W * b.H
}

// Empty reports whether the box has no area.
func (b Box) Empty() bool { return b.W <= 0 || b.H <= 0 }

// Contains reports whether other lies fully inside b.
func (b Box) Contains(other Box) bool {
	return other.X >= b.X && other.Y >= b.Y &&
		other.X+other.W <= b.X+b.W && other.Y+other.H <= b.Y+b.H
}

// Intersect returns the overlapping region of two boxes.
// The result is empty when the boxes do not overlap.
func (b Box) Intersect(other Box) Box {
	x0 := max(b.X, other.X)
	y0 := max(b.Y, other.Y)
	x1 := min(b.X+b.W, other.X+other.W)
	y1 := min(b.Y+b.H, other.Y+other.H)
	if x1 <= x0 || y1 <= y0 {
		return Box{}
	}
	return Box{X: x0, Y: y0, W: x1 - x0, H: y1 - y0}
}

// IoU returns the intersection-over-union of two boxes in [0,1].
func (b Box) IoU(other Box) float64 {
	inter := b.Intersect(other).Area()
	if inter == 0 {
		return 0
	}
	union := b.Area() + other.Area() - inter
	if union <= 0 {
		return 0
	}
	return float64(inter) / float64(union)
}

// Clamp returns the box constrained to lie within bounds.
func (b Box) Clamp(bounds Box) Box {
	clamped := b.Intersect(bounds)
	if clamped.Empty() {
		return Box{X: bounds.X, Y: bounds.Y}
	}
	return clamped
}

// NormBox is a bounding box normalized to [0,1], as produced by vision
// models.
type NormBox struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// Denormalize converts a normalized box into pixel coordinates for an
// image of the given dimensions, clamped to the image bounds.
func (n NormBox) Denormalize(width, height int) Box {
	fw, fh := float64(width), float64(height)
	x0 := int(clamp(n.X, 0, 1)*fw + 0.5)
	y0 := int(clamp(n.Y, 0, 1)*fh + 0.5)
	x1 := int(clamp(n.X+n.W, 0, 1)*fw + 0.5)
	y1 := int(clamp(n.Y+n.H, 0, 1)*fh + 0.5)
	return Box{X: x0, Y: y0, W: x1 - x0, H: y1 - y0}
}

// StyleAttributes holds inferred visual attributes for a text component.
// Populated only by the style extraction pass; all fields are optional.
type StyleAttributes struct {
	Weight     string `json:"weight,omitempty"`      // "bold" or "normal"
	Color      string `json:"color,omitempty"`       // "#RRGGBB"
	FontFamily string `json:"font_family,omitempty"` // approximate family name
}

// Bold reports whether the weight indicates bold text.
func (s *StyleAttributes) Bold() bool {
	return s != nil && s.Weight == "bold"
}

// Component is one recovered region of a slide image: a text block or a
// graphic region, optionally with nested children discovered by the
// recursive decomposition.
type Component struct {
	Kind  Kind
	Box   Box
	Depth int

	// Text is the recovered text content, present only for KindText.
	Text string

	// Style is filled in by the style extraction pass, not by the
	// decomposer.
	Style *StyleAttributes

	// Image holds the cropped source pixels for this component. Graphic
	// components are emitted into the output document from this crop.
	Image image.Image

	// Children are nested components in depth-first order. Their boxes
	// are expressed in the same source-image pixel space as Box and lie
	// fully inside Box.
	Children []*Component
}

// Walk visits the component and all descendants depth-first.
func (c *Component) Walk(fn func(*Component)) {
	fn(c)
	for _, child := range c.Children {
		child.Walk(fn)
	}
}

// EditableImage is the decomposition result for one source image: an
// inpainted background plus the recovered top-level components.
type EditableImage struct {
	SourcePath string
	Width      int
	Height     int

	// Background is the source image with all recovered components
	// removed via inpainting. Regions whose inpainting failed keep
	// their original pixels.
	Background image.Image

	Components []*Component
}

// AspectRatio returns width/height, or 0 for degenerate dimensions.
func (e *EditableImage) AspectRatio() float64 {
	if e.Height <= 0 {
		return 0
	}
	return float64(e.Width) / float64(e.Height)
}

// DetectedRegion is a single region reported by a vision model, with
// normalized coordinates.
type DetectedRegion struct {
	Label      string  `json:"label"`
	Kind       string  `json:"kind"`
	Text       string  `json:"text,omitempty"`
	Confidence float64 `json:"confidence"`
	Box        NormBox `json:"box"`
}

// Detection is the complete structured response from a vision model
// asked to enumerate slide components.
type Detection struct {
	Regions []DetectedRegion `json:"regions"`
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
