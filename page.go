package poster

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Orientation of a printed page
type Orientation int

const (
	Portrait Orientation = iota
	Landscape
)

func (o Orientation) String() string {
	switch o {
	case Landscape:
		return "Landscape"
	default:
		return "Portrait"
	}
}

// ParseOrientation reads "portrait" or "landscape" (any case).
func ParseOrientation(in string) (Orientation, error) {
	switch strings.ToLower(strings.TrimSpace(in)) {
	case "", "portrait":
		return Portrait, nil
	case "landscape":
		return Landscape, nil
	}
	return Portrait, fmt.Errorf("unknown orientation %q", in)
}

// MarshalYAML writes the orientation by name
func (o Orientation) MarshalYAML() (interface{}, error) {
	return o.String(), nil
}

// UnmarshalYAML reads the orientation by name
func (o *Orientation) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	v, err := ParseOrientation(s)
	if err != nil {
		return err
	}
	*o = v
	return nil
}

// PageSpec describes a sheet of print media in both PDF points & millimeters.
type PageSpec struct {
	Name     string
	WidthPt  float64
	HeightPt float64
	WidthMM  float64
	HeightMM float64
}

// Oriented returns the page turned to the given orientation.
// Presets are stored portrait, so landscape swaps width & height.
func (p PageSpec) Oriented(o Orientation) PageSpec {
	if o == Landscape {
		p.WidthPt, p.HeightPt = p.HeightPt, p.WidthPt
		p.WidthMM, p.HeightMM = p.HeightMM, p.WidthMM
	}
	return p
}

// Validate checks the page has a name & a positive size
func (p PageSpec) Validate() error {
	if p.Name == "" {
		return fmt.Errorf("page name is required")
	}
	if p.WidthMM <= 0 || p.HeightMM <= 0 || p.WidthPt <= 0 || p.HeightPt <= 0 {
		return fmt.Errorf("page %s dimensions must be positive", p.Name)
	}
	return nil
}

var (
	pagesLock sync.RWMutex
	pages     = map[string]PageSpec{}
)

// RegisterPage adds (or replaces) a named page preset.
func RegisterPage(p PageSpec) error {
	if err := p.Validate(); err != nil {
		return err
	}
	pagesLock.Lock()
	defer pagesLock.Unlock()
	pages[p.Name] = p
	return nil
}

// LookupPage returns the preset registered under `name`.
func LookupPage(name string) (PageSpec, bool) {
	pagesLock.RLock()
	defer pagesLock.RUnlock()
	p, ok := pages[name]
	return p, ok
}

// PageNames returns all registered preset names, sorted.
func PageNames() []string {
	pagesLock.RLock()
	defer pagesLock.RUnlock()
	names := make([]string, 0, len(pages))
	for name := range pages {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// pageFromMM builds a preset from its millimeter size
func pageFromMM(name string, wmm, hmm float64) PageSpec {
	return PageSpec{
		Name:     name,
		WidthPt:  MMToPoints(wmm),
		HeightPt: MMToPoints(hmm),
		WidthMM:  wmm,
		HeightMM: hmm,
	}
}

func init() {
	for _, p := range []PageSpec{
		pageFromMM("A4", 210, 297),
		{Name: "A3", WidthPt: 842, HeightPt: 1191, WidthMM: 297, HeightMM: 420},
		{Name: "Letter", WidthPt: 612, HeightPt: 792, WidthMM: 215.9, HeightMM: 279.4},
		{Name: "Legal", WidthPt: 612, HeightPt: 1008, WidthMM: 215.9, HeightMM: 355.6},
		{Name: "Tabloid", WidthPt: 792, HeightPt: 1224, WidthMM: 279.4, HeightMM: 431.8},
	} {
		pages[p.Name] = p
	}
}
