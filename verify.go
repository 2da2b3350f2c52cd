package poster

import (
	"bytes"
	"fmt"
	"image/png"
	"io/ioutil"
	"math"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	pdfapi "github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

// sizes within this many points are the same page
const ptTolerance = 0.5

var tileName = regexp.MustCompile(`_row_\d+_col_\d+\.(png|pdf)$`)

// Problem is something wrong with one output file
type Problem struct {
	Path string
	Msg  string
}

func (p Problem) String() string {
	return fmt.Sprintf("%s: %s", p.Path, p.Msg)
}

// Report is the outcome of checking an output directory
type Report struct {
	Dir      string
	Page     PageSpec
	Tiles    int
	Checked  int
	Problems []Problem
}

// OK reports if every file checked out
func (r *Report) OK() bool {
	return len(r.Problems) == 0
}

func (r *Report) problem(path, format string, args ...interface{}) {
	r.Problems = append(r.Problems, Problem{Path: path, Msg: fmt.Sprintf(format, args...)})
}

// Verify checks the files a job wrote into `dir` print at the size of
// `page`: PNG tiles must be page sized at DPI & say so, PDF tiles must
// be one page of exactly the page size. Guides, combined PDFs, layout
// maps & manifests found alongside are checked too.
func Verify(dir string, page PageSpec) (*Report, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, ioError("read output directory", dir, err)
	}

	names := []string{}
	for _, e := range entries {
		if !e.IsDir() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	r := &Report{Dir: dir, Page: page}
	for _, name := range names {
		path := filepath.Join(dir, name)
		switch {
		case tileName.MatchString(name) && strings.HasSuffix(name, ".png"):
			r.Tiles++
			r.checkPNG(path)
		case tileName.MatchString(name):
			r.Tiles++
			r.checkPDF(path, page, 1)
		case strings.HasSuffix(name, "_assembly_guide.pdf"):
			r.checkPDF(path, guidePage, -1)
		case strings.HasSuffix(name, "_tiles.pdf"):
			r.checkPDF(path, page, -1)
		case strings.HasSuffix(name, "_layout.tmx"):
			r.checkLayoutMap(path)
		case strings.HasSuffix(name, "_manifest.sqlite"):
			r.checkManifest(path)
		default:
			continue
		}
		r.Checked++
	}

	log().Debug("verified output", "dir", dir, "checked", r.Checked, "problems", len(r.Problems))
	return r, nil
}

func (r *Report) checkPNG(path string) {
	data, err := ioutil.ReadFile(path)
	if err != nil {
		r.problem(path, "unreadable: %v", err)
		return
	}

	cfg, err := png.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		r.problem(path, "not a png: %v", err)
		return
	}
	w, h := MMToPixels(r.Page.WidthMM), MMToPixels(r.Page.HeightMM)
	if cfg.Width != w || cfg.Height != h {
		r.problem(path, "is %dx%d px, want %dx%d", cfg.Width, cfg.Height, w, h)
	}

	dpi, ok := pngDPI(data)
	if !ok {
		r.problem(path, "has no resolution set")
	} else if math.Abs(dpi-DPI) > 0.5 {
		r.problem(path, "is %.1f dpi, want %d", dpi, DPI)
	}
}

// checkPDF wants `pages` pages (any number if < 0), all the size of `page`
func (r *Report) checkPDF(path string, page PageSpec, pages int) {
	data, err := ioutil.ReadFile(path)
	if err != nil {
		r.problem(path, "unreadable: %v", err)
		return
	}

	ctx, err := pdfapi.ReadValidateAndOptimize(bytes.NewReader(data), model.NewDefaultConfiguration())
	if err != nil {
		r.problem(path, "invalid pdf: %v", err)
		return
	}
	if err := ctx.EnsurePageCount(); err != nil {
		r.problem(path, "invalid pdf: %v", err)
		return
	}
	if pages >= 0 && ctx.PageCount != pages {
		r.problem(path, "has %d pages, want %d", ctx.PageCount, pages)
	}

	dims, err := ctx.PageDims()
	if err != nil {
		r.problem(path, "unreadable page sizes: %v", err)
		return
	}
	for i, d := range dims {
		if !sameSize(d, page) {
			r.problem(path, "page %d is %.1fx%.1f pt, want %.1fx%.1f", i+1, d.Width, d.Height, page.WidthPt, page.HeightPt)
		}
	}
}

func sameSize(d types.Dim, page PageSpec) bool {
	return math.Abs(d.Width-page.WidthPt) <= ptTolerance && math.Abs(d.Height-page.HeightPt) <= ptTolerance
}

// checkLayoutMap wants every image the map shows to exist next to it
func (r *Report) checkLayoutMap(path string) {
	m, err := ReadLayoutMap(path)
	if err != nil {
		r.problem(path, "%v", err)
		return
	}
	dir := filepath.Dir(path)
	for row := 0; row < m.Height; row++ {
		for col := 0; col < m.Width; col++ {
			src := m.At(col, row)
			if src == "" {
				continue
			}
			if _, err := os.Stat(filepath.Join(dir, src)); err != nil {
				r.problem(path, "cell (%d,%d) shows missing file %s", col, row, src)
			}
		}
	}
}

// checkManifest wants every tile of completed jobs to still exist
func (r *Report) checkManifest(path string) {
	m, err := OpenManifest(path)
	if err != nil {
		r.problem(path, "%v", err)
		return
	}
	defer m.Close(Idle)

	jobs, err := m.Jobs()
	if err != nil {
		r.problem(path, "unreadable jobs: %v", err)
		return
	}
	for _, j := range jobs {
		if j.State != Completed.String() {
			continue
		}
		tiles, err := m.Tiles(j.ID)
		if err != nil {
			r.problem(path, "unreadable tiles of job %s: %v", j.ID, err)
			continue
		}
		for _, t := range tiles {
			if _, err := os.Stat(t.Path); err != nil {
				r.problem(path, "job %s lists missing file %s", j.ID, t.Path)
			}
		}
	}
}
