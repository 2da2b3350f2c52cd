/* this file is a small set of structs for reading & writing TMX files.

The encode / decode functions derive from github.com/bcvery1/tilepix
(all credit to authors).

We only need a small part of TMX to describe where pages sit on a poster,
so we only bother to parse / write those things.
*/
package poster

import (
	"encoding/xml"
	"fmt"
	"io"
	"strconv"
	"strings"
)

const tmxLayerName = "pages"

// TileMap is a TMX file structure representing the map as a whole.
// We support only a subset of TMX:
// - one "collection of images" tileset, one entry per page file
// - one tile layer, CSV encoded without compression
// - the 'orthogonal' orientation, cells drawn right-down (row major)
type TileMap struct {
	XMLName        xml.Name     `xml:"map"`
	Version        string       `xml:"version,attr"`
	Orientation    string       `xml:"orientation,attr"`
	RenderOrder    string       `xml:"renderorder,attr"`
	Width          int          `xml:"width,attr"`      // in tiles
	Height         int          `xml:"height,attr"`     // in tiles
	TileWidth      int          `xml:"tilewidth,attr"`  // in pixels
	TileHeight     int          `xml:"tileheight,attr"` // in pixels
	RootProperties []*Property  `xml:"properties>property"`
	Tilesets       []*Tileset   `xml:"tileset"`
	TileLayers     []*TileLayer `xml:"layer"`
}

// Tileset is a TMX file structure which represents a Tiled Tileset
type Tileset struct {
	FirstGID   uint       `xml:"firstgid,attr"`
	Name       string     `xml:"name,attr"`
	TileWidth  int        `xml:"tilewidth,attr"`
	TileHeight int        `xml:"tileheight,attr"`
	TileCount  int        `xml:"tilecount,attr"`
	Columns    int        `xml:"columns,attr"`
	Tiles      []*MapTile `xml:"tile"`

	tileByGID map[uint]*MapTile
	tileBySrc map[string]*MapTile
}

// Property is a TMX file structure which holds a Tiled property.
type Property struct {
	Name  string `xml:"name,attr"`
	Value string `xml:"value,attr"`
	Type  string `xml:"type,attr"` // string (default), int, bool + other (we don't use)
}

// MapImage is an image file in TMX
type MapImage struct {
	Source string `xml:"source,attr"`
	Width  int    `xml:"width,attr"`
	Height int    `xml:"height,attr"`
}

// MapTile is a TMX tile (from a tileset). ID is local to the tileset.
type MapTile struct {
	ID         uint        `xml:"id,attr"`
	Image      *MapImage   `xml:"image"`
	Properties []*Property `xml:"properties>property"`
}

// TileLayer is a TMX file structure which can hold any type of Tiled layer.
type TileLayer struct {
	ID     uint      `xml:"id,attr"`
	Name   string    `xml:"name,attr"`
	Width  int       `xml:"width,attr"`
	Height int       `xml:"height,attr"`
	Data   LayerData `xml:"data"`

	gids []uint
}

// LayerData is a TMX file structure holding data.
type LayerData struct {
	Encoding string `xml:"encoding,attr"`
	RawData  []byte `xml:",innerxml"`
}

// newTileMap returns an empty cols x rows map of tw x th pixel cells
func newTileMap(cols, rows, tw, th int) *TileMap {
	return &TileMap{
		Version:        "1.10",
		Orientation:    "orthogonal",
		RenderOrder:    "right-down",
		Width:          cols,
		Height:         rows,
		TileWidth:      tw,
		TileHeight:     th,
		RootProperties: []*Property{},
		Tilesets: []*Tileset{{
			FirstGID:   1,
			Name:       tmxLayerName,
			TileWidth:  tw,
			TileHeight: th,
			Tiles:      []*MapTile{},
			tileByGID:  map[uint]*MapTile{},
			tileBySrc:  map[string]*MapTile{},
		}},
		TileLayers: []*TileLayer{{
			ID:     1,
			Name:   tmxLayerName,
			Width:  cols,
			Height: rows,
			Data:   LayerData{Encoding: "csv"},
			gids:   make([]uint, cols*rows),
		}},
	}
}

func (m *TileMap) tileset() *Tileset {
	return m.Tilesets[0]
}

func (m *TileMap) layer() *TileLayer {
	return m.TileLayers[0]
}

// tile returns the tileset entry for an image, adding one if needed
func (m *TileMap) tile(source string) *MapTile {
	ts := m.tileset()
	if t, ok := ts.tileBySrc[source]; ok {
		return t
	}
	t := &MapTile{
		ID:         uint(len(ts.Tiles)),
		Image:      &MapImage{Source: source, Width: m.TileWidth, Height: m.TileHeight},
		Properties: []*Property{},
	}
	ts.Tiles = append(ts.Tiles, t)
	ts.TileCount = len(ts.Tiles)
	ts.tileByGID[ts.FirstGID+t.ID] = t
	ts.tileBySrc[source] = t
	return t
}

// Set the image shown at (col,row). "" sets the nil tile.
func (m *TileMap) Set(col, row int, source string) error {
	if col < 0 || col >= m.Width || row < 0 || row >= m.Height {
		return fmt.Errorf("cell (%d,%d) is outside a %dx%d map", col, row, m.Width, m.Height)
	}
	index := row*m.Width + col
	if source == "" {
		m.layer().gids[index] = 0
		return nil
	}
	t := m.tile(source)
	m.layer().gids[index] = m.tileset().FirstGID + t.ID
	return nil
}

// At returns the image shown at (col,row) or "" for the nil tile
func (m *TileMap) At(col, row int) string {
	if col < 0 || col >= m.Width || row < 0 || row >= m.Height {
		return ""
	}
	gid := m.layer().gids[row*m.Width+col]
	if gid == 0 {
		return ""
	}
	t, ok := m.tileset().tileByGID[gid]
	if !ok {
		return ""
	}
	return t.Image.Source
}

// MapProperties returns properties set on the map itself
func (m *TileMap) MapProperties() *Properties {
	return newPropertiesFromList(m.RootProperties)
}

// SetMapProperties sets properties on the map
func (m *TileMap) SetMapProperties(in *Properties) {
	m.RootProperties = in.toList()
}

// Properties returns the properties of the tile showing `source` (or nil).
func (m *TileMap) Properties(source string) *Properties {
	t, ok := m.tileset().tileBySrc[source]
	if !ok {
		return nil
	}
	return newPropertiesFromList(t.Properties)
}

// SetProperties sets properties on the tile showing `source`.
func (m *TileMap) SetProperties(source string, in *Properties) {
	if source == "" {
		// cannot set properties on the nil tile
		return
	}
	m.tile(source).Properties = in.toList()
}

// Encode the map as XML to a io.Writer stream
func (m *TileMap) Encode(w io.Writer) error {
	for _, tl := range m.TileLayers {
		tl.Data.RawData = encodeCSV(m.Width, m.Height, tl.gids)
	}
	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", " ")
	return enc.Encode(m)
}

// DecodeTileMap reads a TMX map as written by Encode
func DecodeTileMap(r io.Reader) (*TileMap, error) {
	m := &TileMap{}
	if err := xml.NewDecoder(r).Decode(m); err != nil {
		return nil, err
	}

	if len(m.Tilesets) != 1 || len(m.TileLayers) != 1 {
		return nil, fmt.Errorf("expected 1 tileset & 1 layer, got %d & %d", len(m.Tilesets), len(m.TileLayers))
	}

	ts := m.tileset()
	ts.tileByGID = map[uint]*MapTile{}
	ts.tileBySrc = map[string]*MapTile{}
	for _, t := range ts.Tiles {
		ts.tileByGID[ts.FirstGID+t.ID] = t
		if t.Image != nil {
			ts.tileBySrc[t.Image.Source] = t
		}
	}

	tl := m.layer()
	gids, err := decodeCSV(tl.Data.RawData)
	if err != nil {
		return nil, err
	}
	if len(gids) != m.Width*m.Height {
		return nil, fmt.Errorf("layer %s has %d cells, map is %dx%d", tl.Name, len(gids), m.Width, m.Height)
	}
	tl.gids = gids

	return m, nil
}

// encodeCSV turns a list of tile ids into csv format
func encodeCSV(width, height int, in []uint) []byte {
	values := make([]string, height)
	for row := 0; row < height; row++ {
		csvrow := make([]string, width)
		for col := 0; col < width; col++ {
			csvrow[col] = strconv.FormatUint(uint64(in[row*width+col]), 10)
		}
		values[row] = strings.Join(csvrow, ",")
	}
	return []byte("\n" + strings.Join(values, ",\n") + "\n")
}

// decodeCSV reads csv encoded tile data
func decodeCSV(raw []byte) ([]uint, error) {
	cleaner := func(r rune) rune {
		if (r >= '0' && r <= '9') || r == ',' {
			return r
		}
		return -1
	}

	clean := strings.Map(cleaner, string(raw))
	if clean == "" {
		return []uint{}, nil
	}

	str := strings.Split(clean, ",")
	gids := make([]uint, len(str))
	for i, s := range str {
		d, err := strconv.ParseUint(s, 10, 32)
		if err != nil {
			return nil, err
		}
		gids[i] = uint(d)
	}
	return gids, nil
}
