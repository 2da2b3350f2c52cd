package poster

import (
	"bytes"
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"
	"sync"
)

// LayoutMapFilename names the TMX layout map of a poster
func LayoutMapFilename(base string) string {
	return fmt.Sprintf("%s_layout.tmx", base)
}

// LayoutMap is a Recorder that builds a Tiled map of the poster: one
// cell per page, each showing that page's image. Open the result in
// Tiled to see the pages laid out as they will be assembled.
//
// The map is written when the job completes; a cancelled or failed job
// leaves no map behind.
type LayoutMap struct {
	path string

	lock sync.Mutex
	m    *TileMap
}

// NewLayoutMap starts an empty layout map for `l`, to be written to `path`
func NewLayoutMap(path string, l *Layout) *LayoutMap {
	m := newTileMap(l.Columns, l.Rows, l.PageWidthPx, l.PageHeightPx)

	props := NewProperties()
	props.SetString("page", l.Page.Name)
	props.SetInt("columns", l.Columns)
	props.SetInt("rows", l.Rows)
	props.SetInt("dpi", DPI)
	props.SetInt("margin_px", l.MarginPx)
	props.SetInt("canvas_width", l.CanvasWidthPx)
	props.SetInt("canvas_height", l.CanvasHeightPx)
	m.SetMapProperties(props)

	return &LayoutMap{path: path, m: m}
}

// Record places a written page in its cell. Images are referenced by
// file name; they sit next to the map.
func (lm *LayoutMap) Record(t *Tile) error {
	lm.lock.Lock()
	defer lm.lock.Unlock()

	src := filepath.Base(t.Path)
	if err := lm.m.Set(t.Coord.Col, t.Coord.Row, src); err != nil {
		return err
	}

	props := NewProperties()
	props.SetInt("page", t.Number)
	props.SetInt("row", t.Coord.Row+1)
	props.SetInt("col", t.Coord.Col+1)
	props.SetString("region", t.Region.String())
	lm.m.SetProperties(src, props)
	return nil
}

// Close writes the map if the job completed
func (lm *LayoutMap) Close(final State) error {
	if final != Completed {
		return nil
	}
	lm.lock.Lock()
	defer lm.lock.Unlock()

	buff := bytes.Buffer{}
	if err := lm.m.Encode(&buff); err != nil {
		return ioError("encode layout map", lm.path, err)
	}
	if err := ioutil.WriteFile(lm.path, buff.Bytes(), 0644); err != nil {
		return ioError("write layout map", lm.path, err)
	}
	return nil
}

// ReadLayoutMap opens a layout map written by a job
func ReadLayoutMap(path string) (*TileMap, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, ioError("open layout map", path, err)
	}
	defer f.Close()

	m, err := DecodeTileMap(f)
	if err != nil {
		return nil, ioError("decode layout map", path, err)
	}
	return m, nil
}
