package pptx

import (
	"fmt"
	"strings"

	"github.com/menta2k/slide-editor/pkg/types"
)

// slideBuilder assembles the XML for one slide: background picture
// first, then one shape per component in depth-first order.
type slideBuilder struct {
	body    strings.Builder
	shapeID int
	refs    []mediaRef

	// sx/sy map source-image pixels onto canvas pixels.
	sx, sy float64

	// addMedia registers image bytes as a package-level media part and
	// returns its slide-relative target path.
	addMedia func(data []byte) string
}

func newSlideBuilder(sx, sy float64, addMedia func([]byte) string) *slideBuilder {
	return &slideBuilder{shapeID: 1, sx: sx, sy: sy, addMedia: addMedia}
}

func (b *slideBuilder) nextShapeID() int {
	b.shapeID++
	return b.shapeID
}

// ref registers a media part for this slide and returns its rId.
// rId1 is reserved for the slide layout.
func (b *slideBuilder) ref(data []byte) string {
	target := b.addMedia(data)
	relID := fmt.Sprintf("rId%d", 2+len(b.refs))
	b.refs = append(b.refs, mediaRef{relID: relID, target: target})
	return relID
}

func (b *slideBuilder) emuX(px int) int { return int(float64(px)*b.sx)*emuPerPixel }
func (b *slideBuilder) emuY(px int) int { return int(float64(px)*b.sy)*emuPerPixel }

// background writes the full-canvas background picture.
func (b *slideBuilder) background(data []byte, canvasW, canvasH int) {
	relID := b.ref(data)
	fmt.Fprintf(&b.body,
		`<p:pic><p:nvPicPr><p:cNvPr id="%d" name="Background"/><p:cNvPicPr/><p:nvPr/></p:nvPicPr>`+
			`<p:blipFill><a:blip r:embed="%s"/><a:stretch><a:fillRect/></a:stretch></p:blipFill>`+
			`<p:spPr><a:xfrm><a:off x="0" y="0"/><a:ext cx="%d" cy="%d"/></a:xfrm>`+
			`<a:prstGeom prst="rect"><a:avLst/></a:prstGeom></p:spPr></p:pic>`,
		b.nextShapeID(), relID, canvasW*emuPerPixel, canvasH*emuPerPixel)
}

// component writes one component shape, recursing through children as
// a grouped shape.
func (b *slideBuilder) component(c *types.Component, pngEncode func(*types.Component) ([]byte, error)) error {
	switch {
	case c.Kind == types.KindText:
		b.textShape(c)
		return nil
	case len(c.Children) == 0:
		data, err := pngEncode(c)
		if err != nil {
			return err
		}
		b.picShape(c, data)
		return nil
	default:
		return b.groupShape(c, pngEncode)
	}
}

func (b *slideBuilder) xfrm(box types.Box) string {
	return fmt.Sprintf(`<a:xfrm><a:off x="%d" y="%d"/><a:ext cx="%d" cy="%d"/></a:xfrm>`,
		b.emuX(box.X), b.emuY(box.Y), b.emuX(box.W), b.emuY(box.H))
}

func (b *slideBuilder) picShape(c *types.Component, data []byte) {
	relID := b.ref(data)
	fmt.Fprintf(&b.body,
		`<p:pic><p:nvPicPr><p:cNvPr id="%d" name="Graphic"/><p:cNvPicPr/><p:nvPr/></p:nvPicPr>`+
			`<p:blipFill><a:blip r:embed="%s"/><a:stretch><a:fillRect/></a:stretch></p:blipFill>`+
			`<p:spPr>%s<a:prstGeom prst="rect"><a:avLst/></a:prstGeom></p:spPr></p:pic>`,
		b.nextShapeID(), relID, b.xfrm(c.Box))
}

func (b *slideBuilder) textShape(c *types.Component) {
	fmt.Fprintf(&b.body,
		`<p:sp><p:nvSpPr><p:cNvPr id="%d" name="Text"/><p:cNvSpPr txBox="1"/><p:nvPr/></p:nvSpPr>`+
			`<p:spPr>%s<a:prstGeom prst="rect"><a:avLst/></a:prstGeom><a:noFill/></p:spPr>`+
			`<p:txBody><a:bodyPr wrap="square" lIns="0" tIns="0" rIns="0" bIns="0"/><a:lstStyle/>`,
		b.nextShapeID(), b.xfrm(c.Box))

	runProps := b.runProperties(c)
	lines := strings.Split(c.Text, "\n")
	for _, line := range lines {
		if strings.TrimSpace(line) == "" && len(lines) > 1 {
			b.body.WriteString(`<a:p/>`)
			continue
		}
		fmt.Fprintf(&b.body, `<a:p><a:r>%s<a:t>%s</a:t></a:r></a:p>`, runProps, xmlEscape(line))
	}
	b.body.WriteString(`</p:txBody></p:sp>`)
}

// runProperties renders run properties from the component's style
// attributes, sizing the font from the box height.
func (b *slideBuilder) runProperties(c *types.Component) string {
	var sb strings.Builder
	lineCount := strings.Count(c.Text, "\n") + 1
	fmt.Fprintf(&sb, `<a:rPr lang="en-US" sz="%d"`, fontSizeHundredths(int(float64(c.Box.H)*b.sy), lineCount))
	if c.Style.Bold() {
		sb.WriteString(` b="1"`)
	}
	sb.WriteString(`>`)
	if c.Style != nil && c.Style.Color != "" {
		fmt.Fprintf(&sb, `<a:solidFill><a:srgbClr val="%s"/></a:solidFill>`,
			strings.TrimPrefix(strings.ToUpper(c.Style.Color), "#"))
	}
	if c.Style != nil && c.Style.FontFamily != "" {
		fmt.Fprintf(&sb, `<a:latin typeface="%s"/>`, xmlEscape(c.Style.FontFamily))
	}
	sb.WriteString(`</a:rPr>`)
	return sb.String()
}

// groupShape renders a graphic component with children: the parent's
// own image first, then the children layered above it, all inside one
// group. Child offsets equal the group offsets so the children keep
// their absolute canvas coordinates.
func (b *slideBuilder) groupShape(c *types.Component, pngEncode func(*types.Component) ([]byte, error)) error {
	fmt.Fprintf(&b.body,
		`<p:grpSp><p:nvGrpSpPr><p:cNvPr id="%d" name="Group"/><p:cNvGrpSpPr/><p:nvPr/></p:nvGrpSpPr>`+
			`<p:grpSpPr><a:xfrm><a:off x="%d" y="%d"/><a:ext cx="%d" cy="%d"/>`+
			`<a:chOff x="%d" y="%d"/><a:chExt cx="%d" cy="%d"/></a:xfrm></p:grpSpPr>`,
		b.nextShapeID(),
		b.emuX(c.Box.X), b.emuY(c.Box.Y), b.emuX(c.Box.W), b.emuY(c.Box.H),
		b.emuX(c.Box.X), b.emuY(c.Box.Y), b.emuX(c.Box.W), b.emuY(c.Box.H))

	data, err := pngEncode(c)
	if err != nil {
		return err
	}
	b.picShape(c, data)

	for _, child := range c.Children {
		if err := b.component(child, pngEncode); err != nil {
			return err
		}
	}

	b.body.WriteString(`</p:grpSp>`)
	return nil
}

// finish wraps the accumulated shapes into a complete slide part.
func (b *slideBuilder) finish() string {
	var sb strings.Builder
	sb.WriteString(xmlHeader)
	sb.WriteString(`<p:sld xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main" xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships" xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main">`)
	sb.WriteString(`<p:cSld><p:spTree>`)
	sb.WriteString(`<p:nvGrpSpPr><p:cNvPr id="1" name=""/><p:cNvGrpSpPr/><p:nvPr/></p:nvGrpSpPr>`)
	sb.WriteString(`<p:grpSpPr><a:xfrm><a:off x="0" y="0"/><a:ext cx="0" cy="0"/><a:chOff x="0" y="0"/><a:chExt cx="0" cy="0"/></a:xfrm></p:grpSpPr>`)
	sb.WriteString(b.body.String())
	sb.WriteString(`</p:spTree></p:cSld><p:clrMapOvr><a:masterClrMapping/></p:clrMapOvr></p:sld>`)
	return sb.String()
}

// fontSizeHundredths estimates a font size (hundredths of a point)
// from a text box height in canvas pixels. 96-dpi pixels convert to
// points at 0.75; line boxes are taller than their glyphs, so the
// estimate keeps a margin.
func fontSizeHundredths(boxHeightPx, lineCount int) int {
	if lineCount < 1 {
		lineCount = 1
	}
	lineHeight := float64(boxHeightPx) / float64(lineCount)
	size := int(lineHeight * 0.75 * 0.72 * 100)
	if size < 800 {
		size = 800
	}
	if size > 6600 {
		size = 6600
	}
	return size
}
