package poster

import (
	"image"
	"math"
)

// Coord identifies a tile by its 0-based row & column
type Coord struct {
	Row int
	Col int
}

// Layout is the planned geometry of a job: how many pages, how big each is,
// and how big the full canvas they are cut from is.
type Layout struct {
	Page    PageSpec
	Columns int
	Rows    int

	// page size at DPI
	PageWidthPx  int
	PageHeightPx int

	// physical size of the finished poster
	CanvasWidthMM  float64
	CanvasHeightMM float64

	// size of the prepared canvas at DPI
	CanvasWidthPx  int
	CanvasHeightPx int

	MarginPx int
}

// Plan works out the tile grid & canvas size for the given settings.
func Plan(s *Settings) (*Layout, error) {
	page, err := s.PageSpec()
	if err != nil {
		return nil, err
	}

	l := &Layout{
		Page:         page,
		PageWidthPx:  MMToPixels(page.WidthMM),
		PageHeightPx: MMToPixels(page.HeightMM),
		MarginPx:     MMToPixels(s.MarginMM),
	}

	switch z := s.Sizing.(type) {
	case GridCount:
		l.Columns = atLeastOne(z.Columns)
		l.Rows = atLeastOne(z.Rows)
		l.CanvasWidthMM = float64(l.Columns) * page.WidthMM
		l.CanvasHeightMM = float64(l.Rows) * page.HeightMM
		// whole pages; converting the summed mm could round differently
		l.CanvasWidthPx = l.Columns * l.PageWidthPx
		l.CanvasHeightPx = l.Rows * l.PageHeightPx
	case TargetDimensions:
		l.Columns = atLeastOne(int(math.Ceil(z.WidthMM / page.WidthMM)))
		l.Rows = atLeastOne(int(math.Ceil(z.HeightMM / page.HeightMM)))
		l.CanvasWidthMM = z.WidthMM
		l.CanvasHeightMM = z.HeightMM
		l.CanvasWidthPx = MMToPixels(z.WidthMM)
		l.CanvasHeightPx = MMToPixels(z.HeightMM)
	default:
		return nil, invalidSettings("unsupported sizing %T", s.Sizing)
	}

	return l, nil
}

func atLeastOne(n int) int {
	if n < 1 {
		return 1
	}
	return n
}

// Total is the number of planned tiles (including any that turn out
// to be empty).
func (l *Layout) Total() int {
	return l.Columns * l.Rows
}

// Coords returns every planned tile in row-major order.
func (l *Layout) Coords() []Coord {
	out := make([]Coord, 0, l.Total())
	for row := 0; row < l.Rows; row++ {
		for col := 0; col < l.Columns; col++ {
			out = append(out, Coord{Row: row, Col: col})
		}
	}
	return out
}

// CanvasBounds is the rectangle of the full prepared canvas
func (l *Layout) CanvasBounds() image.Rectangle {
	return image.Rect(0, 0, l.CanvasWidthPx, l.CanvasHeightPx)
}

// PageBounds is the rectangle of a single rendered page
func (l *Layout) PageBounds() image.Rectangle {
	return image.Rect(0, 0, l.PageWidthPx, l.PageHeightPx)
}

// Region returns the canvas rectangle tile `c` is cut from: the page cell
// grown by the margin on every side, clipped to the canvas.
// An empty rectangle means there is nothing to print for this tile.
func (l *Layout) Region(c Coord) image.Rectangle {
	cell := image.Rect(
		c.Col*l.PageWidthPx,
		c.Row*l.PageHeightPx,
		(c.Col+1)*l.PageWidthPx,
		(c.Row+1)*l.PageHeightPx,
	)
	return cell.Inset(-l.MarginPx).Intersect(l.CanvasBounds())
}

// PageNumber is the 1-based print order of a tile
func (l *Layout) PageNumber(c Coord) int {
	return c.Row*l.Columns + c.Col + 1
}

// Estimate summarises what a job would produce for a source image of the
// given size, without touching any pixels.
type Estimate struct {
	Columns int
	Rows    int
	Pages   int

	// effective print resolution of the source at the final size
	DPI float64

	// final printed size in cm
	WidthCM  float64
	HeightCM float64

	// true if the upscale step would resample the source
	NeedsUpscale bool
}

// EstimateFor plans the job & reports the effective resolution the source
// image (srcW x srcH pixels) would print at.
func EstimateFor(s *Settings, srcW, srcH int) (*Estimate, error) {
	l, err := Plan(s)
	if err != nil {
		return nil, err
	}
	if srcW <= 0 || srcH <= 0 {
		return nil, invalidSettings("source size must be positive, got %dx%d", srcW, srcH)
	}

	// source pixels per printed inch along each axis
	dpiX := float64(srcW) / (l.CanvasWidthMM / MMPerInch)
	dpiY := float64(srcH) / (l.CanvasHeightMM / MMPerInch)

	// stretching spreads each axis independently, the worst one counts.
	// fitting scales uniformly by the tighter axis, which leaves the other
	// axis with more source pixels than it needs.
	dpi := math.Min(dpiX, dpiY)
	if !s.Stretch {
		dpi = math.Max(dpiX, dpiY)
	}

	return &Estimate{
		Columns:      l.Columns,
		Rows:         l.Rows,
		Pages:        l.Total(),
		DPI:          dpi,
		WidthCM:      l.CanvasWidthMM / 10,
		HeightCM:     l.CanvasHeightMM / 10,
		NeedsUpscale: achievableDPI(srcW, srcH, l) < DPI,
	}, nil
}

// achievableDPI is the resolution the unscaled source would print at
// over the whole canvas.
func achievableDPI(srcW, srcH int, l *Layout) float64 {
	return math.Min(
		float64(srcW)/(l.CanvasWidthMM/MMPerInch),
		float64(srcH)/(l.CanvasHeightMM/MMPerInch),
	)
}
