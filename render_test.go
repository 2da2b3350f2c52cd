package poster

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io/ioutil"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilenames(t *testing.T) {
	assert.Equal(t, "holiday.final", BaseName("/photos/holiday.final.jpg"))
	assert.Equal(t, filepath.Join("/photos", "holiday_split"), OutputDir("/photos/holiday.jpg"))
	assert.Equal(t, "holiday_row_2_col_3.png", TileFilename("holiday", Coord{Row: 1, Col: 2}, PNG))
	assert.Equal(t, "holiday_row_1_col_1.pdf", TileFilename("holiday", Coord{}, PDF))
	assert.Equal(t, "holiday_assembly_guide.pdf", GuideFilename("holiday"))
	assert.Equal(t, "holiday_manifest.sqlite", ManifestFilename("holiday"))
	assert.Equal(t, "holiday_layout.tmx", LayoutMapFilename("holiday"))
	assert.Equal(t, "holiday_tiles.pdf", CombinedFilename("holiday"))
}

func TestEncodePNGSetsDPI(t *testing.T) {
	img := gradient(20, 10)

	data, err := encodePNG(img, DPI)
	require.NoError(t, err)

	dpi, ok := pngDPI(data)
	assert.True(t, ok)
	assert.InDelta(t, DPI, dpi, 0.01)

	// still a valid png (chunk checksums included)
	out, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, img.Bounds(), out.Bounds())
	r, g, b := rgb(out, 7, 3)
	assert.Equal(t, [3]int{7, 3, 128}, [3]int{r, g, b})
}

func TestPNGDPIMissing(t *testing.T) {
	buff := bytes.Buffer{}
	require.NoError(t, png.Encode(&buff, gradient(4, 4)))

	_, ok := pngDPI(buff.Bytes())
	assert.False(t, ok)

	_, ok = pngDPI([]byte("nope"))
	assert.False(t, ok)
}

func TestWritePNG(t *testing.T) {
	path := filepath.Join(t.TempDir(), "page.png")

	require.NoError(t, Render(solid(300, 300, color.White), path, PNG, testPage))

	data, err := ioutil.ReadFile(path)
	require.NoError(t, err)
	cfg, err := png.DecodeConfig(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 300, cfg.Width)
	assert.Equal(t, 300, cfg.Height)
	dpi, ok := pngDPI(data)
	assert.True(t, ok)
	assert.InDelta(t, DPI, dpi, 0.01)
}

func TestWritePDF(t *testing.T) {
	dir := t.TempDir()
	a4, _ := LookupPage("A4")
	land := a4.Oriented(Landscape)

	// pixel size doesn't matter; the page is always the page size
	require.NoError(t, Render(gradient(64, 32), filepath.Join(dir, "p_row_1_col_1.pdf"), PDF, land))

	report, err := Verify(dir, land)
	require.NoError(t, err)
	assert.True(t, report.OK(), "%v", report.Problems)
	assert.Equal(t, 1, report.Tiles)

	// and is not the portrait page
	report, err = Verify(dir, a4)
	require.NoError(t, err)
	assert.False(t, report.OK())
}

func TestRenderIOError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "page.png")

	err := Render(image.NewRGBA(image.Rect(0, 0, 2, 2)), path, PNG, testPage)

	assert.True(t, errors.Is(err, ErrIO))
}
