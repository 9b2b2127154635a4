package types

import "testing"

func TestBoxArea(t *testing.T) {
	box := Box{X: 10, Y: 20, W: 100, H: 80}
	if area := box.Area(); area != 8000 {
		t.Errorf("Expected area 8000, got %d", area)
	}

	degenerate := Box{X: 10, Y: 20, W: -5, H: 80}
	if area := degenerate.Area(); area != 0 {
		t.Errorf("Expected zero area for negative width, got %d", area)
	}
}

func TestBoxContains(t *testing.T) {
	outer := Box{X: 0, Y: 0, W: 100, H: 100}

	if !outer.Contains(Box{X: 10, Y: 10, W: 50, H: 50}) {
		t.Error("Expected outer box to contain inner box")
	}
	if !outer.Contains(outer) {
		t.Error("Expected box to contain itself")
	}
	if outer.Contains(Box{X: 60, Y: 60, W: 50, H: 50}) {
		t.Error("Expected box overflowing the edge not to be contained")
	}
}

func TestBoxIntersect(t *testing.T) {
	a := Box{X: 0, Y: 0, W: 100, H: 100}
	b := Box{X: 50, Y: 50, W: 100, H: 100}

	inter := a.Intersect(b)
	expected := Box{X: 50, Y: 50, W: 50, H: 50}
	if inter != expected {
		t.Errorf("Expected intersection %+v, got %+v", expected, inter)
	}

	c := Box{X: 200, Y: 200, W: 10, H: 10}
	if !a.Intersect(c).Empty() {
		t.Error("Expected empty intersection for disjoint boxes")
	}
}

func TestBoxIoU(t *testing.T) {
	a := Box{X: 0, Y: 0, W: 100, H: 100}

	if iou := a.IoU(a); iou != 1.0 {
		t.Errorf("Expected IoU 1.0 for identical boxes, got %f", iou)
	}

	b := Box{X: 50, Y: 0, W: 100, H: 100}
	// intersection 50*100=5000, union 10000+10000-5000=15000
	expected := 5000.0 / 15000.0
	if iou := a.IoU(b); iou < expected-0.001 || iou > expected+0.001 {
		t.Errorf("Expected IoU %.4f, got %.4f", expected, iou)
	}

	c := Box{X: 500, Y: 500, W: 10, H: 10}
	if iou := a.IoU(c); iou != 0 {
		t.Errorf("Expected IoU 0 for disjoint boxes, got %f", iou)
	}
}

func TestBoxClamp(t *testing.T) {
	bounds := Box{X: 0, Y: 0, W: 100, H: 100}

	clamped := Box{X: 80, Y: 80, W: 50, H: 50}.Clamp(bounds)
	expected := Box{X: 80, Y: 80, W: 20, H: 20}
	if clamped != expected {
		t.Errorf("Expected clamped box %+v, got %+v", expected, clamped)
	}

	outside := Box{X: 200, Y: 200, W: 50, H: 50}.Clamp(bounds)
	if !outside.Empty() {
		t.Errorf("Expected empty box when clamping fully outside, got %+v", outside)
	}
}

func TestNormBoxDenormalize(t *testing.T) {
	n := NormBox{X: 0.25, Y: 0.5, W: 0.5, H: 0.25}
	box := n.Denormalize(400, 200)

	expected := Box{X: 100, Y: 100, W: 200, H: 50}
	if box != expected {
		t.Errorf("Expected %+v, got %+v", expected, box)
	}
}

func TestNormBoxDenormalizeClamps(t *testing.T) {
	// Coordinates outside [0,1] must clamp to the image bounds
	n := NormBox{X: -0.5, Y: 0.9, W: 2.0, H: 0.5}
	box := n.Denormalize(100, 100)

	if box.X < 0 || box.Y < 0 {
		t.Errorf("Expected non-negative origin, got (%d, %d)", box.X, box.Y)
	}
	if box.X+box.W > 100 || box.Y+box.H > 100 {
		t.Errorf("Expected box within 100x100 bounds, got %+v", box)
	}
}

func TestStyleAttributesBold(t *testing.T) {
	var nilStyle *StyleAttributes
	if nilStyle.Bold() {
		t.Error("Expected nil style not to be bold")
	}

	if !(&StyleAttributes{Weight: "bold"}).Bold() {
		t.Error("Expected bold weight to report bold")
	}
	if (&StyleAttributes{Weight: "normal"}).Bold() {
		t.Error("Expected normal weight not to report bold")
	}
}

func TestComponentWalk(t *testing.T) {
	root := &Component{
		Kind: KindGraphic,
		Box:  Box{W: 100, H: 100},
		Children: []*Component{
			{Kind: KindText, Box: Box{X: 10, Y: 10, W: 20, H: 10}},
			{
				Kind: KindGraphic,
				Box:  Box{X: 40, Y: 40, W: 50, H: 50},
				Children: []*Component{
					{Kind: KindText, Box: Box{X: 45, Y: 45, W: 10, H: 5}},
				},
			},
		},
	}

	visited := 0
	root.Walk(func(*Component) { visited++ })
	if visited != 4 {
		t.Errorf("Expected to visit 4 components, visited %d", visited)
	}
}

func TestEditableImageAspectRatio(t *testing.T) {
	img := &EditableImage{Width: 1920, Height: 1080}
	ratio := img.AspectRatio()
	if ratio < 1.77 || ratio > 1.78 {
		t.Errorf("Expected ratio near 1.778, got %f", ratio)
	}

	degenerate := &EditableImage{Width: 100, Height: 0}
	if degenerate.AspectRatio() != 0 {
		t.Error("Expected zero ratio for zero height")
	}
}
