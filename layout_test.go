package poster

import (
	"errors"
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlanGrid(t *testing.T) {
	s := DefaultSettings()

	l, err := Plan(s)

	require.NoError(t, err)
	assert.Equal(t, 2, l.Columns)
	assert.Equal(t, 2, l.Rows)
	assert.Equal(t, 4, l.Total())
	assert.Equal(t, 2481, l.PageWidthPx)
	assert.Equal(t, 3508, l.PageHeightPx)
	assert.Equal(t, 2*2481, l.CanvasWidthPx)
	assert.Equal(t, 2*3508, l.CanvasHeightPx)
	assert.Equal(t, 420.0, l.CanvasWidthMM)
	assert.Equal(t, 594.0, l.CanvasHeightMM)
	assert.Equal(t, 119, l.MarginPx)
}

func TestPlanTarget(t *testing.T) {
	s := DefaultSettings()
	s.Sizing = TargetDimensions{WidthMM: 1000, HeightMM: 500}

	l, err := Plan(s)

	require.NoError(t, err)
	assert.Equal(t, 5, l.Columns)
	assert.Equal(t, 2, l.Rows)
	assert.Equal(t, 10, l.Total())
	assert.Equal(t, 11812, l.CanvasWidthPx)
	assert.Equal(t, 5906, l.CanvasHeightPx)
}

func TestPlanLandscape(t *testing.T) {
	s := DefaultSettings()
	s.Orientation = Landscape
	s.Sizing = TargetDimensions{WidthMM: 1000, HeightMM: 500}

	l, err := Plan(s)

	require.NoError(t, err)
	assert.Equal(t, 3508, l.PageWidthPx)
	assert.Equal(t, 2481, l.PageHeightPx)
	assert.Equal(t, 4, l.Columns)
	assert.Equal(t, 3, l.Rows)
}

func TestPlanTinyTarget(t *testing.T) {
	s := DefaultSettings()
	s.Sizing = TargetDimensions{WidthMM: 1, HeightMM: 1}

	l, err := Plan(s)

	require.NoError(t, err)
	assert.Equal(t, 1, l.Columns)
	assert.Equal(t, 1, l.Rows)
}

func TestPlanInvalid(t *testing.T) {
	s := DefaultSettings()
	s.Page = "Napkin"

	_, err := Plan(s)

	assert.True(t, errors.Is(err, ErrInvalidSettings))
}

func TestCoordsRowMajor(t *testing.T) {
	l := &Layout{Columns: 3, Rows: 2}

	assert.Equal(t, []Coord{
		{0, 0}, {0, 1}, {0, 2},
		{1, 0}, {1, 1}, {1, 2},
	}, l.Coords())

	assert.Equal(t, 1, l.PageNumber(Coord{0, 0}))
	assert.Equal(t, 3, l.PageNumber(Coord{0, 2}))
	assert.Equal(t, 5, l.PageNumber(Coord{1, 1}))
}

func TestRegionsWithoutMarginTileTheCanvas(t *testing.T) {
	s := DefaultSettings()
	s.Sizing = GridCount{Columns: 3, Rows: 2}
	s.MarginMM = 0
	l, err := Plan(s)
	require.NoError(t, err)

	area := 0
	for _, c := range l.Coords() {
		r := l.Region(c)
		assert.Equal(t, l.PageBounds().Size(), r.Size())
		area += r.Dx() * r.Dy()

		// neighbours share an edge & never overlap
		if c.Col > 0 {
			left := l.Region(Coord{Row: c.Row, Col: c.Col - 1})
			assert.Equal(t, left.Max.X, r.Min.X)
			assert.True(t, left.Intersect(r).Empty())
		}
		if c.Row > 0 {
			up := l.Region(Coord{Row: c.Row - 1, Col: c.Col})
			assert.Equal(t, up.Max.Y, r.Min.Y)
		}
	}
	assert.Equal(t, l.CanvasWidthPx*l.CanvasHeightPx, area)
}

func TestRegionMargin(t *testing.T) {
	s := DefaultSettings()
	s.Sizing = GridCount{Columns: 3, Rows: 3}
	l, err := Plan(s)
	require.NoError(t, err)
	m := l.MarginPx

	// interior tiles grow on all sides
	centre := l.Region(Coord{Row: 1, Col: 1})
	assert.Equal(t, image.Rect(l.PageWidthPx-m, l.PageHeightPx-m, 2*l.PageWidthPx+m, 2*l.PageHeightPx+m), centre)

	// edge tiles are clipped to the canvas
	corner := l.Region(Coord{Row: 0, Col: 0})
	assert.Equal(t, image.Rect(0, 0, l.PageWidthPx+m, l.PageHeightPx+m), corner)

	last := l.Region(Coord{Row: 2, Col: 2})
	assert.Equal(t, l.CanvasBounds().Max, last.Max)
}

func TestRegionGrowsWithMargin(t *testing.T) {
	s := DefaultSettings()
	s.Sizing = GridCount{Columns: 3, Rows: 3}
	c := Coord{Row: 1, Col: 1}

	prev := 0
	for _, margin := range []float64{0, 1, 5, 10, 20} {
		s.MarginMM = margin
		l, err := Plan(s)
		require.NoError(t, err)

		r := l.Region(c)
		assert.True(t, r.Dx()*r.Dy() >= prev, "margin %v", margin)
		assert.True(t, r.In(l.CanvasBounds()))
		prev = r.Dx() * r.Dy()
	}
}

func TestRegionClippedToSmallCanvas(t *testing.T) {
	s := DefaultSettings()
	s.Sizing = TargetDimensions{WidthMM: 220, HeightMM: 100}
	s.MarginMM = 0
	l, err := Plan(s)
	require.NoError(t, err)
	require.Equal(t, 2, l.Columns)
	require.Equal(t, 1, l.Rows)

	r := l.Region(Coord{Row: 0, Col: 1})
	assert.Equal(t, image.Rect(l.PageWidthPx, 0, l.CanvasWidthPx, l.CanvasHeightPx), r)
	assert.False(t, r.Empty())
}

func TestEstimateFor(t *testing.T) {
	s := DefaultSettings()
	s.Sizing = GridCount{Columns: 1, Rows: 1}

	est, err := EstimateFor(s, 2481, 3508)
	require.NoError(t, err)
	assert.Equal(t, 1, est.Pages)
	assert.InDelta(t, 300, est.DPI, 1)
	assert.InDelta(t, 21.0, est.WidthCM, 1e-9)
	assert.InDelta(t, 29.7, est.HeightCM, 1e-9)
	assert.False(t, est.NeedsUpscale)

	est, err = EstimateFor(s, 1240, 1754)
	require.NoError(t, err)
	assert.InDelta(t, 150, est.DPI, 1)
	assert.True(t, est.NeedsUpscale)
}

func TestEstimateForFitAndStretch(t *testing.T) {
	s := DefaultSettings()
	s.Sizing = GridCount{Columns: 1, Rows: 1}

	// full width, half height
	est, err := EstimateFor(s, 2481, 1754)
	require.NoError(t, err)
	assert.InDelta(t, 300, est.DPI, 1)

	s.Stretch = true
	est, err = EstimateFor(s, 2481, 1754)
	require.NoError(t, err)
	assert.InDelta(t, 150, est.DPI, 1)
}

func TestEstimateForBadSource(t *testing.T) {
	_, err := EstimateFor(DefaultSettings(), 0, 100)
	assert.True(t, errors.Is(err, ErrInvalidSettings))
}
