package poster

import (
	"fmt"
	"io/ioutil"
	"math"
	"strings"

	"github.com/mitchellh/go-homedir"
	"gopkg.in/yaml.v2"
)

// Format is the file type tiles are written as
type Format int

const (
	PNG Format = iota
	PDF
)

func (f Format) String() string {
	switch f {
	case PDF:
		return "PDF"
	default:
		return "PNG"
	}
}

// Ext is the file extension (without the dot) for the format
func (f Format) Ext() string {
	return strings.ToLower(f.String())
}

// ParseFormat reads "png" or "pdf" (any case).
func ParseFormat(in string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(in)) {
	case "", "png":
		return PNG, nil
	case "pdf":
		return PDF, nil
	}
	return PNG, fmt.Errorf("unknown output format %q", in)
}

// MarshalYAML writes the format by name
func (f Format) MarshalYAML() (interface{}, error) {
	return f.Ext(), nil
}

// UnmarshalYAML reads the format by name
func (f *Format) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	v, err := ParseFormat(s)
	if err != nil {
		return err
	}
	*f = v
	return nil
}

// Sizing decides how big the final poster is. It is one of
// GridCount or TargetDimensions.
type Sizing interface {
	isSizing()
}

// GridCount asks for an explicit number of pages across & down
type GridCount struct {
	Columns int `yaml:"columns"`
	Rows    int `yaml:"rows"`
}

func (GridCount) isSizing() {}

// TargetDimensions asks for an explicit physical size; the number of pages
// is however many it takes to cover it.
type TargetDimensions struct {
	WidthMM  float64 `yaml:"width_mm"`
	HeightMM float64 `yaml:"height_mm"`
}

func (TargetDimensions) isSizing() {}

// Settings configure a single tiling job.
// A job takes a copy when it starts; changing a Settings afterwards
// has no effect on a running job.
type Settings struct {
	Page        string
	Orientation Orientation
	Sizing      Sizing

	// resize without keeping aspect ratio (otherwise fit & pad with white)
	Stretch bool

	// interpolation upscaling of low resolution sources before resizing
	Upscale bool

	// overlap added around each tile, in mm
	MarginMM float64

	Border      bool
	BorderWidth int
	TrimMarks   bool
	Labels      bool
	Guide       bool

	Format Format

	// defaults to {image dir}/{image base}_split
	OutputDir string

	// also record the job in {base}_manifest.sqlite
	Manifest bool

	// also write {base}_layout.tmx (PNG output only)
	LayoutMap bool

	// also merge all tile PDFs into {base}_tiles.pdf (PDF output only)
	CombinePDF bool
}

// DefaultSettings returns settings matching a plain 2x2 A4 poster.
func DefaultSettings() *Settings {
	return &Settings{
		Page:        "A4",
		Orientation: Portrait,
		Sizing:      GridCount{Columns: 2, Rows: 2},
		MarginMM:    10,
		Border:      true,
		BorderWidth: 2,
		TrimMarks:   true,
		Labels:      true,
		Guide:       true,
		Format:      PNG,
	}
}

// PageSpec returns the oriented page these settings print on.
func (s *Settings) PageSpec() (PageSpec, error) {
	p, ok := LookupPage(s.Page)
	if !ok {
		return PageSpec{}, invalidSettings("unknown page size %q", s.Page)
	}
	return p.Oriented(s.Orientation), nil
}

// Validate rejects settings that can never produce a job.
func (s *Settings) Validate() error {
	if _, err := s.PageSpec(); err != nil {
		return err
	}

	switch z := s.Sizing.(type) {
	case GridCount:
		if z.Columns < 1 || z.Rows < 1 {
			return invalidSettings("grid must be at least 1x1, got %dx%d", z.Columns, z.Rows)
		}
	case TargetDimensions:
		if !finite(z.WidthMM) || !finite(z.HeightMM) {
			return invalidSettings("dimensions must be finite, got %vx%vmm", z.WidthMM, z.HeightMM)
		}
		if z.WidthMM <= 0 || z.HeightMM <= 0 {
			return invalidSettings("dimensions must be positive, got %.1fx%.1fmm", z.WidthMM, z.HeightMM)
		}
	case nil:
		return invalidSettings("no sizing given")
	default:
		return invalidSettings("unsupported sizing %T", s.Sizing)
	}

	if !finite(s.MarginMM) {
		return invalidSettings("margin must be finite, got %v", s.MarginMM)
	}
	if s.MarginMM < 0 {
		return invalidSettings("margin must not be negative, got %.1fmm", s.MarginMM)
	}
	if s.Border && s.BorderWidth < 1 {
		return invalidSettings("border width must be at least 1, got %d", s.BorderWidth)
	}
	if s.Format != PNG && s.Format != PDF {
		return invalidSettings("unsupported format %d", s.Format)
	}
	return nil
}

// finite is false for NaN & either infinity, which no size can be
func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// settingsFile is the on disk (yaml) layout of Settings
type settingsFile struct {
	Page        string            `yaml:"page"`
	Orientation Orientation       `yaml:"orientation"`
	Grid        *GridCount        `yaml:"grid,omitempty"`
	Target      *TargetDimensions `yaml:"target,omitempty"`
	Stretch     bool              `yaml:"stretch"`
	Upscale     bool              `yaml:"upscale"`
	MarginMM    float64           `yaml:"margin_mm"`
	Border      bool              `yaml:"border"`
	BorderWidth int               `yaml:"border_width"`
	TrimMarks   bool              `yaml:"trim_marks"`
	Labels      bool              `yaml:"labels"`
	Guide       bool              `yaml:"guide"`
	Format      Format            `yaml:"format"`
	OutputDir   string            `yaml:"output_dir,omitempty"`
	Manifest    bool              `yaml:"manifest"`
	LayoutMap   bool              `yaml:"layout_map"`
	CombinePDF  bool              `yaml:"combine_pdf"`
}

// ParseSettings reads yaml settings. Keys not present keep their
// DefaultSettings value.
func ParseSettings(data []byte) (*Settings, error) {
	s := DefaultSettings()
	f := settingsFile{
		Page:        s.Page,
		Orientation: s.Orientation,
		Stretch:     s.Stretch,
		Upscale:     s.Upscale,
		MarginMM:    s.MarginMM,
		Border:      s.Border,
		BorderWidth: s.BorderWidth,
		TrimMarks:   s.TrimMarks,
		Labels:      s.Labels,
		Guide:       s.Guide,
		Format:      s.Format,
	}
	if err := yaml.UnmarshalStrict(data, &f); err != nil {
		return nil, invalidSettings("%v", err)
	}

	switch {
	case f.Grid != nil && f.Target != nil:
		return nil, invalidSettings("set one of grid or target, not both")
	case f.Grid != nil:
		s.Sizing = *f.Grid
	case f.Target != nil:
		s.Sizing = *f.Target
	}

	outdir := f.OutputDir
	if outdir != "" {
		expanded, err := homedir.Expand(outdir)
		if err != nil {
			return nil, invalidSettings("output_dir: %v", err)
		}
		outdir = expanded
	}

	s.Page = f.Page
	s.Orientation = f.Orientation
	s.Stretch = f.Stretch
	s.Upscale = f.Upscale
	s.MarginMM = f.MarginMM
	s.Border = f.Border
	s.BorderWidth = f.BorderWidth
	s.TrimMarks = f.TrimMarks
	s.Labels = f.Labels
	s.Guide = f.Guide
	s.Format = f.Format
	s.OutputDir = outdir
	s.Manifest = f.Manifest
	s.LayoutMap = f.LayoutMap
	s.CombinePDF = f.CombinePDF

	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// LoadSettings reads yaml settings from a file. A leading ~ is expanded.
func LoadSettings(fname string) (*Settings, error) {
	path, err := homedir.Expand(fname)
	if err != nil {
		return nil, invalidSettings("%v", err)
	}
	data, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, invalidSettings("reading %s: %v", path, err)
	}
	return ParseSettings(data)
}

// Marshal encodes settings as yaml (the inverse of ParseSettings).
func (s *Settings) Marshal() ([]byte, error) {
	f := settingsFile{
		Page:        s.Page,
		Orientation: s.Orientation,
		Stretch:     s.Stretch,
		Upscale:     s.Upscale,
		MarginMM:    s.MarginMM,
		Border:      s.Border,
		BorderWidth: s.BorderWidth,
		TrimMarks:   s.TrimMarks,
		Labels:      s.Labels,
		Guide:       s.Guide,
		Format:      s.Format,
		OutputDir:   s.OutputDir,
		Manifest:    s.Manifest,
		LayoutMap:   s.LayoutMap,
		CombinePDF:  s.CombinePDF,
	}
	switch z := s.Sizing.(type) {
	case GridCount:
		f.Grid = &z
	case TargetDimensions:
		f.Target = &z
	}
	return yaml.Marshal(&f)
}
