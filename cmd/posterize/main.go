package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/mitchellh/go-homedir"

	"github.com/voidshard/poster"
)

const desc = `Splits a large image into page sized tiles that can be printed on an ordinary printer
and glued back together into a poster.

Every tile is rendered at 300 DPI with an optional border, trim marks & a "Row r, Col c" label, and
overlaps its neighbours by a margin so pages can be aligned. An assembly guide PDF explains how the
pages go together.

Settings may be read from a yaml file (--config); flags given on the command line override it.`

// settingsFlags are the tiling settings a command line can set
type settingsFlags struct {
	Page      string `default:"A4" help:"page size (see 'posterize pages')"`
	Landscape bool   `help:"use pages in landscape"`

	Grid   string `default:"2x2" help:"number of pages as COLUMNSxROWS"`
	Target string `help:"finished poster size in mm as WIDTHxHEIGHT (instead of --grid)"`

	Stretch bool    `help:"stretch the image to the poster (default: fit & pad with white)"`
	Upscale bool    `help:"interpolation upscale low resolution images before resizing"`
	Margin  float64 `default:"10" help:"overlap around each page in mm"`

	Border      bool `default:"true" negatable:"" help:"draw a border on each page"`
	BorderWidth int  `default:"2" help:"border width in px"`
	TrimMarks   bool `default:"true" negatable:"" help:"draw trim marks in each page corner"`
	Labels      bool `default:"true" negatable:"" help:"label each page with its row & column"`
	Guide       bool `default:"true" negatable:"" help:"write an assembly guide pdf"`

	Format string `enum:"png,pdf" default:"png" help:"output format (png, pdf)"`
	Output string `short:"o" help:"output directory (default: {image}_split next to the image)"`

	Manifest   bool `help:"record the job in a sqlite manifest"`
	LayoutMap  bool `help:"write a Tiled (.tmx) layout map (png only)"`
	CombinePdf bool `help:"also merge all pages into one pdf (pdf only)"`
}

var cli struct {
	Config  string `short:"c" help:"yaml settings file"`
	Verbose bool   `short:"v" help:"log debug detail"`

	Split  splitCmd  `cmd:"" help:"split an image into printable pages"`
	Plan   planCmd   `cmd:"" help:"show how an image would be split, without writing anything"`
	Pages  pagesCmd  `cmd:"" help:"list the known page sizes"`
	Verify verifyCmd `cmd:"" help:"check the pages in an output directory print at the right size"`
	Layout layoutCmd `cmd:"" help:"write a layout map for a job recorded in a manifest"`
}

// env is handed to every command
type env struct {
	// names of flags given on the command line
	set map[string]bool
}

func main() {
	ctx := kong.Parse(
		&cli,
		kong.Name("posterize"),
		kong.Description(desc),
		kong.UsageOnError(),
	)

	level := slog.LevelInfo
	if cli.Verbose {
		level = slog.LevelDebug
	}
	poster.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	set := map[string]bool{}
	for _, p := range ctx.Path {
		if p.Flag != nil {
			set[p.Flag.Name] = true
		}
	}

	ctx.FatalIfErrorf(ctx.Run(&env{set: set}))
}

// settings reads --config (if given) & applies flags on top. Without a
// config file every flag (or its default) applies.
func (f *settingsFlags) settings(e *env) (*poster.Settings, error) {
	s := poster.DefaultSettings()
	if cli.Config != "" {
		var err error
		s, err = poster.LoadSettings(cli.Config)
		if err != nil {
			return nil, err
		}
	}
	apply := func(name string) bool {
		return cli.Config == "" || e.set[name]
	}

	if apply("page") {
		s.Page = f.Page
	}
	if apply("landscape") {
		s.Orientation = poster.Portrait
		if f.Landscape {
			s.Orientation = poster.Landscape
		}
	}

	switch {
	case f.Target != "" && e.set["grid"]:
		return nil, fmt.Errorf("set one of --grid or --target, not both")
	case f.Target != "" && apply("target"):
		w, h, err := parsePair(f.Target, strconv.ParseFloat)
		if err != nil {
			return nil, fmt.Errorf("--target: %w", err)
		}
		s.Sizing = poster.TargetDimensions{WidthMM: w, HeightMM: h}
	case apply("grid"):
		c, r, err := parsePair(f.Grid, func(v string, _ int) (float64, error) {
			n, err := strconv.Atoi(v)
			return float64(n), err
		})
		if err != nil {
			return nil, fmt.Errorf("--grid: %w", err)
		}
		s.Sizing = poster.GridCount{Columns: int(c), Rows: int(r)}
	}

	if apply("stretch") {
		s.Stretch = f.Stretch
	}
	if apply("upscale") {
		s.Upscale = f.Upscale
	}
	if apply("margin") {
		s.MarginMM = f.Margin
	}
	if apply("border") {
		s.Border = f.Border
	}
	if apply("border-width") {
		s.BorderWidth = f.BorderWidth
	}
	if apply("trim-marks") {
		s.TrimMarks = f.TrimMarks
	}
	if apply("labels") {
		s.Labels = f.Labels
	}
	if apply("guide") {
		s.Guide = f.Guide
	}
	if apply("format") {
		format, err := poster.ParseFormat(f.Format)
		if err != nil {
			return nil, err
		}
		s.Format = format
	}
	if f.Output != "" {
		out, err := homedir.Expand(f.Output)
		if err != nil {
			return nil, err
		}
		s.OutputDir = out
	}
	if apply("manifest") {
		s.Manifest = f.Manifest
	}
	if apply("layout-map") {
		s.LayoutMap = f.LayoutMap
	}
	if apply("combine-pdf") {
		s.CombinePDF = f.CombinePdf
	}

	return s, s.Validate()
}

// parsePair reads "AxB"
func parsePair(in string, parse func(string, int) (float64, error)) (float64, float64, error) {
	bits := strings.SplitN(strings.ToLower(in), "x", 2)
	if len(bits) != 2 {
		return 0, 0, fmt.Errorf("expected AxB, got %q", in)
	}
	a, err := parse(strings.TrimSpace(bits[0]), 64)
	if err != nil {
		return 0, 0, err
	}
	b, err := parse(strings.TrimSpace(bits[1]), 64)
	if err != nil {
		return 0, 0, err
	}
	return a, b, nil
}

type splitCmd struct {
	Settings settingsFlags `embed:""`

	Image string `arg:"" type:"existingfile" help:"image to split"`
}

func (c *splitCmd) Run(e *env) error {
	s, err := c.Settings.settings(e)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	res, err := poster.NewRunner().Run(ctx, c.Image, s, func(ev poster.Event) {
		fmt.Println(ev.String())
	})
	if err != nil {
		return err
	}

	for _, f := range res.Files {
		fmt.Println(f)
	}
	switch res.State {
	case poster.Failed:
		return res.Err
	case poster.Cancelled:
		return fmt.Errorf("cancelled after writing %d file(s)", len(res.Files))
	}
	return nil
}

type planCmd struct {
	Settings settingsFlags `embed:""`

	Image string `arg:"" type:"existingfile" help:"image to plan for"`
}

func (c *planCmd) Run(e *env) error {
	s, err := c.Settings.settings(e)
	if err != nil {
		return err
	}

	img, err := poster.LoadImage(c.Image)
	if err != nil {
		return err
	}
	b := img.Bounds()

	est, err := poster.EstimateFor(s, b.Dx(), b.Dy())
	if err != nil {
		return err
	}

	fmt.Printf("source:  %dx%d px\n", b.Dx(), b.Dy())
	fmt.Printf("pages:   %d (%d x %d %s %s)\n", est.Pages, est.Columns, est.Rows, s.Page, s.Orientation)
	fmt.Printf("poster:  %.1f x %.1f cm\n", est.WidthCM, est.HeightCM)
	fmt.Printf("quality: %.0f dpi\n", est.DPI)
	if est.NeedsUpscale {
		fmt.Printf("below %d dpi, consider --upscale\n", poster.DPI)
	}
	return nil
}

type pagesCmd struct{}

func (c *pagesCmd) Run(e *env) error {
	for _, name := range poster.PageNames() {
		p, _ := poster.LookupPage(name)
		fmt.Printf("%-8s %6.1f x %6.1f mm  %7.2f x %7.2f pt\n", p.Name, p.WidthMM, p.HeightMM, p.WidthPt, p.HeightPt)
	}
	return nil
}

type verifyCmd struct {
	Page      string `default:"A4" help:"page size the tiles were made for"`
	Landscape bool   `help:"tiles were made in landscape"`

	Dir string `arg:"" type:"existingdir" help:"output directory to check"`
}

func (c *verifyCmd) Run(e *env) error {
	page, ok := poster.LookupPage(c.Page)
	if !ok {
		return fmt.Errorf("unknown page size %q", c.Page)
	}
	if c.Landscape {
		page = page.Oriented(poster.Landscape)
	}

	report, err := poster.Verify(c.Dir, page)
	if err != nil {
		return err
	}
	for _, p := range report.Problems {
		fmt.Println(p.String())
	}
	if !report.OK() {
		return fmt.Errorf("%d problem(s) in %d file(s)", len(report.Problems), report.Checked)
	}
	fmt.Printf("ok: %d file(s), %d page(s)\n", report.Checked, report.Tiles)
	return nil
}

type layoutCmd struct {
	Job    string `help:"job id (default: the most recent job)"`
	Output string `short:"o" help:"where to write the map (default: next to the manifest)"`

	Manifest string `arg:"" type:"existingfile" help:"manifest database"`
}

func (c *layoutCmd) Run(e *env) error {
	out := c.Output
	if out == "" {
		base := strings.TrimSuffix(filepath.Base(c.Manifest), "_manifest.sqlite")
		out = filepath.Join(filepath.Dir(c.Manifest), poster.LayoutMapFilename(base))
	}
	out, err := homedir.Expand(out)
	if err != nil {
		return err
	}

	m, err := poster.OpenManifest(c.Manifest)
	if err != nil {
		return err
	}
	defer m.Close(poster.Idle)

	if err := m.WriteLayoutMap(c.Job, out); err != nil {
		return err
	}
	fmt.Println(out)
	return nil
}
