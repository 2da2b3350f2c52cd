package poster

import (
	"fmt"
	"image"
	"math"

	"github.com/disintegration/imaging"
	"github.com/go-pdf/fpdf"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
)

// the guide is always printed on A4 portrait
var guidePage = pageFromMM("A4", 210, 297)

const (
	guideInset = 72.0

	// box the source thumbnail is fitted into, in points
	thumbMaxW = 400.0
	thumbMaxH = 300.0

	// box the layout diagram is fitted into, in points
	diagramMax = 400.0

	// details pages break before dropping below this distance from the bottom
	detailsBottom = 100.0
)

var instructions = []string{
	"1. Print all pages at 100% scale (do not fit to page)",
	"2. Trim along the cut marks on each page",
	"3. Align pages using the row and column numbers",
	"4. Use the overlap areas to match adjacent pages",
	"5. Tape or glue pages together from behind",
}

// Guide writes a multi page PDF explaining how the tiles go back together.
type Guide struct {
	Base   string
	Layout *Layout
	Format Format

	// the full prepared canvas, thumbnailed onto the first page
	Canvas image.Image

	doc *fpdf.Fpdf
	enc *encoding.Encoder
}

// NewGuide prepares a guide for the tiles of `base`.
func NewGuide(base string, l *Layout, canvas image.Image, f Format) *Guide {
	return &Guide{
		Base:   base,
		Layout: l,
		Format: f,
		Canvas: canvas,
		enc:    encoding.ReplaceUnsupported(charmap.Windows1252.NewEncoder()),
	}
}

// WriteFile renders every section of the guide to `path`.
func (g *Guide) WriteFile(path string) error {
	g.doc = newPDF(guidePage)
	g.doc.SetTitle(fmt.Sprintf("Assembly guide: %s", g.Base), true)

	if err := g.titlePage(); err != nil {
		return ioError("render guide", path, err)
	}
	g.instructionsPage()
	g.diagramPage()
	g.detailsPages()

	if err := g.doc.OutputFileAndClose(path); err != nil {
		return ioError("write guide", path, err)
	}
	return nil
}

// text writes a line with its baseline at y (from the top of the page)
func (g *Guide) text(x, y float64, s string) {
	out, err := g.enc.String(s)
	if err != nil {
		out = s
	}
	g.doc.Text(x, y, out)
}

func (g *Guide) titlePage() error {
	l := g.Layout
	g.doc.AddPage()

	g.doc.SetFont("Helvetica", "B", 24)
	g.text(guideInset, guideInset, "Image Assembly Guide")

	g.doc.SetFont("Helvetica", "", 14)
	g.text(guideInset, 100, fmt.Sprintf("For: %s", g.Base))
	g.text(guideInset, 124, fmt.Sprintf("Grid: %d × %d pages", l.Columns, l.Rows))
	g.text(guideInset, 148, fmt.Sprintf("Total pages: %d", l.Total()))

	if g.Canvas == nil {
		return nil
	}

	w, h := thumbnailSize(g.Canvas.Bounds().Dx(), g.Canvas.Bounds().Dy())
	// twice the point size in pixels so the thumbnail prints sharp
	thumb := imaging.Fit(g.Canvas, int(2*thumbMaxW), int(2*thumbMaxH), imaging.Lanczos)
	data, err := encodePNG(thumb, DPI)
	if err != nil {
		return err
	}
	embedPNG(g.doc, "thumbnail", data, (guidePage.WidthPt-w)/2, 200, w, h)
	return nil
}

// thumbnailSize fits a w x h image into the thumbnail box, keeping aspect
func thumbnailSize(w, h int) (float64, float64) {
	ratio := float64(w) / float64(h)
	tw := thumbMaxW
	th := tw / ratio
	if th > thumbMaxH {
		th = thumbMaxH
		tw = th * ratio
	}
	return tw, th
}

func (g *Guide) instructionsPage() {
	l := g.Layout
	g.doc.AddPage()

	g.doc.SetFont("Helvetica", "B", 16)
	g.text(guideInset, guideInset, "Assembly Instructions:")

	lines := append([]string{}, instructions...)
	lines = append(lines, fmt.Sprintf(
		"6. Final size: %.1f × %.1f cm",
		l.Page.WidthMM*float64(l.Columns)/10,
		l.Page.HeightMM*float64(l.Rows)/10,
	))

	g.doc.SetFont("Helvetica", "", 12)
	y := 100.0
	for _, line := range lines {
		g.text(guideInset, y, line)
		y += 24
	}
}

// diagramPage draws the page grid to scale, each cell labelled
func (g *Guide) diagramPage() {
	l := g.Layout
	g.doc.AddPage()

	g.doc.SetFont("Helvetica", "B", 16)
	g.text(guideInset, guideInset, "Page Layout:")

	totalW := float64(l.Columns) * l.Page.WidthMM
	totalH := float64(l.Rows) * l.Page.HeightMM
	scale := diagramMax / math.Max(totalW, totalH)
	gw, gh := totalW*scale, totalH*scale
	gx := (guidePage.WidthPt - gw) / 2
	gy := 120.0

	cw := gw / float64(l.Columns)
	ch := gh / float64(l.Rows)

	g.doc.SetDrawColor(0, 0, 0)
	g.doc.SetLineWidth(1)
	for row := 0; row <= l.Rows; row++ {
		y := gy + float64(row)*ch
		g.doc.Line(gx, y, gx+gw, y)
	}
	for col := 0; col <= l.Columns; col++ {
		x := gx + float64(col)*cw
		g.doc.Line(x, gy, x, gy+gh)
	}

	size := labelFontSize(g.doc, "Row 00, Col 00", cw-6)
	g.doc.SetFont("Helvetica", "", size)
	for _, c := range l.Coords() {
		x := gx + float64(c.Col)*cw + 3
		y := gy + float64(c.Row)*ch + size + 2
		g.text(x, y, Label(c))
	}
}

// labelFontSize shrinks the diagram label font (from 10pt, to no
// less than 4pt) until `sample` fits in `width`.
func labelFontSize(doc *fpdf.Fpdf, sample string, width float64) float64 {
	size := 10.0
	for ; size > 4; size -= 0.5 {
		doc.SetFont("Helvetica", "", size)
		if doc.GetStringWidth(sample) <= width {
			break
		}
	}
	return size
}

// tileFile is the file written for `c`; tiles cut from outside the
// canvas are never written.
func (g *Guide) tileFile(c Coord) string {
	if g.Layout.Region(c).Empty() {
		return "(no content)"
	}
	return TileFilename(g.Base, c, g.Format)
}

// detailsPages lists each tile's position, size & filename, continuing
// onto as many pages as needed.
func (g *Guide) detailsPages() {
	l := g.Layout
	g.doc.AddPage()

	g.doc.SetFont("Helvetica", "B", 16)
	g.text(guideInset, guideInset, "Page Details:")

	wcm := l.Page.WidthMM / 10
	hcm := l.Page.HeightMM / 10

	y := 100.0
	for _, c := range l.Coords() {
		if y > guidePage.HeightPt-detailsBottom {
			g.doc.AddPage()
			y = guideInset
			g.doc.SetFont("Helvetica", "B", 16)
			g.text(guideInset, y, "Page Details (cont.):")
			y += 28
		}

		g.doc.SetFont("Helvetica", "B", 12)
		g.text(guideInset, y, fmt.Sprintf("Page %d: %s", l.PageNumber(c), Label(c)))
		y += 20

		g.doc.SetFont("Helvetica", "", 10)
		g.text(90, y, fmt.Sprintf("- Position: Top-left at (%.1f cm, %.1f cm)", float64(c.Col)*wcm, float64(c.Row)*hcm))
		y += 15
		g.text(90, y, fmt.Sprintf("- Dimensions: %.1f × %.1f cm", wcm, hcm))
		y += 15
		g.text(90, y, fmt.Sprintf("- File: %s", g.tileFile(c)))
		y += 25
	}
}
