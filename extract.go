package poster

import (
	"image"
	"image/draw"
)

// Extract copies `region` of the canvas onto a fresh white page of
// pageW x pageH pixels, centred. Regions at the canvas edge are smaller
// than a page (or larger, with margins) so the offset may be negative;
// anything outside the page is cropped away.
func Extract(canvas image.Image, region image.Rectangle, pageW, pageH int) *image.RGBA {
	page := image.NewRGBA(image.Rect(0, 0, pageW, pageH))
	draw.Draw(page, page.Bounds(), image.NewUniform(Background), image.Point{}, draw.Src)

	offset := image.Pt((pageW-region.Dx())/2, (pageH-region.Dy())/2)
	dst := image.Rectangle{Min: offset, Max: offset.Add(region.Size())}

	draw.Draw(page, dst, canvas, region.Min, draw.Src)
	return page
}
