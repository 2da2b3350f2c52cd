package poster

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"sync"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/math/fixed"
)

const (
	// length & stroke width of each trim mark, in pixels
	trimMarkLength = 20
	trimMarkWidth  = 2

	// label font size (px) & the inset of its background patch
	labelSize   = 24
	labelInset  = 10
	labelTextAt = 12
	labelPad    = 5
)

var (
	labelFontOnce sync.Once
	labelFont     *truetype.Font
	labelFontErr  error
)

// newLabelFace returns a fresh face; faces cache glyphs & aren't safe to share
func newLabelFace() (font.Face, error) {
	labelFontOnce.Do(func() {
		labelFont, labelFontErr = truetype.Parse(goregular.TTF)
	})
	if labelFontErr != nil {
		return nil, labelFontErr
	}
	return truetype.NewFace(labelFont, &truetype.Options{Size: labelSize}), nil
}

// Label is the position text printed on a tile
func Label(c Coord) string {
	return fmt.Sprintf("Row %d, Col %d", c.Row+1, c.Col+1)
}

// Annotate draws the enabled decorations onto a rendered page, in order:
// border, trim marks, then the position label (on top of everything).
func Annotate(page *image.RGBA, c Coord, s *Settings) error {
	dc := gg.NewContextForRGBA(page)
	w := float64(page.Bounds().Dx())
	h := float64(page.Bounds().Dy())

	if s.Border {
		drawBorder(dc, w, h, float64(s.BorderWidth))
	}
	if s.TrimMarks {
		drawTrimMarks(dc, w, h)
	}
	if s.Labels {
		return drawLabel(dc, Label(c))
	}
	return nil
}

// drawBorder outlines the page; the stroke sits wholly inside the page edge
func drawBorder(dc *gg.Context, w, h, width float64) {
	dc.SetColor(color.Black)
	dc.SetLineWidth(width)
	dc.DrawRectangle(width/2, width/2, w-width, h-width)
	dc.Stroke()
}

// drawTrimMarks draws two short strokes at each corner, along each edge
func drawTrimMarks(dc *gg.Context, w, h float64) {
	const (
		l = trimMarkLength
		o = trimMarkWidth / 2.0
	)

	dc.SetColor(color.Black)
	dc.SetLineWidth(trimMarkWidth)
	dc.SetLineCap(gg.LineCapButt)

	segments := [][4]float64{
		// top left
		{0, o, l, o}, {o, 0, o, l},
		// top right
		{w - l, o, w, o}, {w - o, 0, w - o, l},
		// bottom left
		{o, h - l, o, h}, {0, h - o, l, h - o},
		// bottom right
		{w - l, h - o, w, h - o}, {w - o, h - l, w - o, h},
	}
	for _, seg := range segments {
		dc.DrawLine(seg[0], seg[1], seg[2], seg[3])
		dc.Stroke()
	}
}

// drawLabel writes text top-left over an opaque patch so it reads on
// any image.
func drawLabel(dc *gg.Context, text string) error {
	face, err := newLabelFace()
	if err != nil {
		return err
	}
	dc.SetFontFace(face)

	patch, baseline := labelPatch(face, text)
	dc.SetColor(color.White)
	dc.DrawRectangle(float64(patch.Min.X), float64(patch.Min.Y), float64(patch.Dx()), float64(patch.Dy()))
	dc.Fill()

	dc.SetColor(color.Black)
	dc.DrawString(text, labelTextAt, baseline)
	return nil
}

// labelPatch returns the white box drawn behind a label & the baseline the
// text sits on. The box is at least the text's advance & line height plus
// padding, grown to cover the ink of every glyph (descenders included).
func labelPatch(face font.Face, text string) (image.Rectangle, float64) {
	lineHeight := float64(face.Metrics().Height) / 64
	baseline := labelTextAt + lineHeight

	ink, advance := font.BoundString(face, text)
	edge := float64(labelTextAt - labelInset)

	x0 := math.Min(labelInset, labelTextAt+fixedFloor(ink.Min.X)-edge)
	y0 := math.Min(labelInset, baseline+fixedFloor(ink.Min.Y)-edge)
	x1 := math.Max(labelInset+float64(advance.Ceil())+labelPad, labelTextAt+fixedCeil(ink.Max.X)+edge)
	y1 := math.Max(labelInset+lineHeight+labelPad, baseline+fixedCeil(ink.Max.Y)+edge)

	return image.Rect(
		int(math.Max(0, math.Floor(x0))),
		int(math.Max(0, math.Floor(y0))),
		int(math.Ceil(x1)),
		int(math.Ceil(y1)),
	), baseline
}

func fixedFloor(v fixed.Int26_6) float64 {
	return float64(v.Floor())
}

func fixedCeil(v fixed.Int26_6) float64 {
	return float64(v.Ceil())
}
