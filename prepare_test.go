package poster

import (
	"errors"
	"image"
	"image/color"
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadImage(t *testing.T) {
	dir := t.TempDir()
	path := writeImage(t, dir, "in.png", gradient(40, 30))

	img, err := LoadImage(path)

	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 40, 30), img.Bounds())
}

func TestLoadImageErrors(t *testing.T) {
	dir := t.TempDir()
	junk := filepath.Join(dir, "junk.png")
	require.NoError(t, ioutil.WriteFile(junk, []byte("not an image"), 0644))

	cases := map[string]string{
		"missing": filepath.Join(dir, "nope.png"),
		"corrupt": junk,
	}

	for name, path := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := LoadImage(path)
			assert.True(t, errors.Is(err, ErrSourceImage))
			assert.False(t, errors.Is(err, ErrIO))
		})
	}

	_, err := LoadImage(filepath.Join(dir, "nope.png"))
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestFillStretch(t *testing.T) {
	l := &Layout{CanvasWidthPx: 300, CanvasHeightPx: 200}

	canvas := Fill(solid(10, 50, color.RGBA{R: 255, A: 255}), l, true)

	assert.Equal(t, image.Rect(0, 0, 300, 200), canvas.Bounds())
	r, g, b := rgb(canvas, 0, 0)
	assert.InDelta(t, 255, r, 2)
	assert.InDelta(t, 0, g, 2)
	assert.InDelta(t, 0, b, 2)
}

func TestFillFitCentres(t *testing.T) {
	l := &Layout{CanvasWidthPx: 300, CanvasHeightPx: 300}

	// 2:1 source, scaled x3 to 300x150 & centred vertically
	canvas := Fill(solid(100, 50, color.RGBA{R: 255, A: 255}), l, false)

	assert.Equal(t, image.Rect(0, 0, 300, 300), canvas.Bounds())

	for _, y := range []int{0, 70} {
		r, g, b := rgb(canvas, 150, y)
		assert.Equal(t, [3]int{255, 255, 255}, [3]int{r, g, b}, "y=%d", y)
	}
	for _, y := range []int{80, 150, 220} {
		r, g, _ := rgb(canvas, 150, y)
		assert.InDelta(t, 255, r, 2, "y=%d", y)
		assert.InDelta(t, 0, g, 2, "y=%d", y)
	}
	for _, y := range []int{230, 299} {
		r, g, b := rgb(canvas, 150, y)
		assert.Equal(t, [3]int{255, 255, 255}, [3]int{r, g, b}, "y=%d", y)
	}
}

func TestUpscale(t *testing.T) {
	// one inch square poster
	l := &Layout{CanvasWidthMM: MMPerInch, CanvasHeightMM: MMPerInch}

	out, scaled := Upscale(gradient(150, 150), l)
	assert.True(t, scaled)
	assert.Equal(t, 300, out.Bounds().Dx())
	assert.Equal(t, 300, out.Bounds().Dy())

	src := gradient(300, 300)
	out, scaled = Upscale(src, l)
	assert.False(t, scaled)
	assert.Equal(t, image.Image(src), out)
}

func TestPrepare(t *testing.T) {
	s := DefaultSettings()
	s.Page = testPage.Name
	s.Sizing = GridCount{Columns: 1, Rows: 1}
	s.Upscale = true
	l, err := Plan(s)
	require.NoError(t, err)

	canvas := Prepare(gradient(30, 30), l, s)

	assert.Equal(t, l.CanvasBounds(), canvas.Bounds())
}

func TestExtractCentresSmallRegion(t *testing.T) {
	canvas := solid(100, 100, color.RGBA{R: 255, A: 255})

	page := Extract(canvas, image.Rect(0, 0, 50, 50), 100, 100)

	assert.Equal(t, image.Rect(0, 0, 100, 100), page.Bounds())
	r, g, b := rgb(page, 10, 10)
	assert.Equal(t, [3]int{255, 255, 255}, [3]int{r, g, b})
	r, g, b = rgb(page, 50, 50)
	assert.Equal(t, [3]int{255, 0, 0}, [3]int{r, g, b})
	r, g, b = rgb(page, 80, 80)
	assert.Equal(t, [3]int{255, 255, 255}, [3]int{r, g, b})
}

func TestExtractCropsLargeRegion(t *testing.T) {
	canvas := gradient(200, 200)

	// 200px region onto a 100px page: the middle 100px survive
	page := Extract(canvas, image.Rect(0, 0, 200, 200), 100, 100)

	r, g, _ := rgb(page, 0, 0)
	assert.Equal(t, 50, r)
	assert.Equal(t, 50, g)
	r, g, _ = rgb(page, 99, 99)
	assert.Equal(t, 149, r)
	assert.Equal(t, 149, g)
}

func TestExtractOffsetRegion(t *testing.T) {
	canvas := gradient(200, 200)

	page := Extract(canvas, image.Rect(100, 40, 200, 140), 100, 100)

	r, g, _ := rgb(page, 0, 0)
	assert.Equal(t, 100, r)
	assert.Equal(t, 40, g)
}
