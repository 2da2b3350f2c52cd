package poster

import (
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"math"
	"os"

	"github.com/disintegration/imaging"
	"github.com/nfnt/resize"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
)

// Background is the colour of everything not covered by the source image
var Background = color.White

// LoadImage decodes a png, jpeg, gif, bmp or tiff image from disk.
func LoadImage(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, sourceImageError("open image", path, err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, sourceImageError("decode image", path, err)
	}
	if img.Bounds().Empty() {
		return nil, sourceImageError("decode image", path, errEmptyImage)
	}
	return img, nil
}

// Upscale resamples `src` up (Lanczos) so that it prints at no less than DPI
// over the layout's canvas. This is plain interpolation, no detail is
// invented. Returns the source untouched (& false) if it is already dense
// enough.
func Upscale(src image.Image, l *Layout) (image.Image, bool) {
	b := src.Bounds()
	dpi := achievableDPI(b.Dx(), b.Dy(), l)
	if dpi >= DPI || dpi <= 0 {
		return src, false
	}

	scale := DPI / dpi
	w := int(float64(b.Dx()) * scale)
	h := int(float64(b.Dy()) * scale)

	log().Debug("upscaling source", "dpi", dpi, "scale", scale, "width", w, "height", h)
	return resize.Resize(uint(w), uint(h), src, resize.Lanczos3), true
}

// Fill resizes `src` onto a canvas of the layout's full pixel size.
// With stretch the source is resized to exactly cover the canvas.
// Otherwise it is scaled uniformly to fit, centred on a white canvas.
func Fill(src image.Image, l *Layout, stretch bool) *image.NRGBA {
	cw, ch := l.CanvasWidthPx, l.CanvasHeightPx

	if stretch {
		return imaging.Clone(resize.Resize(uint(cw), uint(ch), src, resize.Lanczos3))
	}

	b := src.Bounds()
	scale := math.Min(float64(cw)/float64(b.Dx()), float64(ch)/float64(b.Dy()))
	w := clamp(int(math.Round(float64(b.Dx())*scale)), 1, cw)
	h := clamp(int(math.Round(float64(b.Dy())*scale)), 1, ch)

	resized := resize.Resize(uint(w), uint(h), src, resize.Lanczos3)
	canvas := imaging.New(cw, ch, Background)
	return imaging.Paste(canvas, resized, image.Pt((cw-w)/2, (ch-h)/2))
}

// Prepare runs the optional upscale step then Fill.
func Prepare(src image.Image, l *Layout, s *Settings) *image.NRGBA {
	if s.Upscale {
		src, _ = Upscale(src, l)
	}
	return Fill(src, l, s.Stretch)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
