package poster

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// a one inch square page (300x300 px) keeps rendering in tests quick
var testPage = pageFromMM("Test", MMPerInch, MMPerInch)

// 25.5mm rounds up to 302px, so a page is a little bigger than the
// canvas it is cut from says it should be
var oddPage = pageFromMM("Odd", 25.5, 25.5)

func init() {
	for _, p := range []PageSpec{testPage, oddPage} {
		if err := RegisterPage(p); err != nil {
			panic(err)
		}
	}
}

// testSettings renders a 2x1 grid of test pages as png, guide off
func testSettings(dir string) *Settings {
	s := DefaultSettings()
	s.Page = testPage.Name
	s.Sizing = GridCount{Columns: 2, Rows: 1}
	s.MarginMM = 2
	s.Guide = false
	s.OutputDir = dir
	return s
}

// gradient makes an image whose pixel (x,y) is {x, y, 128}
func gradient(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}
	return img
}

func solid(w, h int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

// writeImage saves `img` as png in `dir` & returns the path
func writeImage(t *testing.T, dir, name string, img image.Image) string {
	t.Helper()
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
	return path
}

// rgb returns the 8 bit colour channels of a pixel
func rgb(img image.Image, x, y int) (int, int, int) {
	r, g, b, _ := img.At(x, y).RGBA()
	return int(r >> 8), int(g >> 8), int(b >> 8)
}
