package poster

import (
	"bytes"
	"fmt"
	"image"
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-pdf/fpdf"
)

// BaseName is the image filename without directory or extension
func BaseName(imagePath string) string {
	base := filepath.Base(imagePath)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// OutputDir is where tiles for an image go by default: a
// "{base}_split" directory next to the image.
func OutputDir(imagePath string) string {
	return filepath.Join(filepath.Dir(imagePath), fmt.Sprintf("%s_split", BaseName(imagePath)))
}

// TileFilename names the output file of a tile
func TileFilename(base string, c Coord, f Format) string {
	return fmt.Sprintf("%s_row_%d_col_%d.%s", base, c.Row+1, c.Col+1, f.Ext())
}

// GuideFilename names the assembly guide document
func GuideFilename(base string) string {
	return fmt.Sprintf("%s_assembly_guide.pdf", base)
}

// ensureDir creates (if needed) the output directory
func ensureDir(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return ioError("create output directory", dir, err)
	}
	return nil
}

// Render writes a finished page to `path` in the given format.
// PDFs are sized to `page` exactly, with the pixels filling it edge to edge.
func Render(img image.Image, path string, f Format, page PageSpec) error {
	switch f {
	case PDF:
		return WritePDF(path, img, page)
	default:
		return WritePNG(path, img)
	}
}

// WritePNG saves an image as png, tagged with DPI.
func WritePNG(path string, img image.Image) error {
	data, err := encodePNG(img, DPI)
	if err != nil {
		return ioError("encode png", path, err)
	}
	if err := ioutil.WriteFile(path, data, 0644); err != nil {
		return ioError("write png", path, err)
	}
	return nil
}

// WritePDF saves an image as a single page PDF of the given page size.
// The image goes into the document straight from memory.
func WritePDF(path string, img image.Image, page PageSpec) error {
	data, err := encodePNG(img, DPI)
	if err != nil {
		return ioError("encode png", path, err)
	}

	doc := newPDF(page)
	doc.AddPage()
	embedPNG(doc, "tile", data, 0, 0, page.WidthPt, page.HeightPt)

	if err := doc.OutputFileAndClose(path); err != nil {
		return ioError("write pdf", path, err)
	}
	return nil
}

// newPDF starts a document measured in points with no margins or
// automatic page breaks; we place everything ourselves.
func newPDF(page PageSpec) *fpdf.Fpdf {
	doc := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "pt",
		Size:           fpdf.SizeType{Wd: page.WidthPt, Ht: page.HeightPt},
	})
	doc.SetMargins(0, 0, 0)
	doc.SetAutoPageBreak(false, 0)
	doc.SetCreator("poster", false)
	return doc
}

// embedPNG registers png bytes under `name` & draws them into the box
func embedPNG(doc *fpdf.Fpdf, name string, data []byte, x, y, w, h float64) {
	opts := fpdf.ImageOptions{ImageType: "PNG"}
	doc.RegisterImageOptionsReader(name, opts, bytes.NewReader(data))
	doc.ImageOptions(name, x, y, w, h, false, opts, 0, "")
}
