package poster

import (
	"image"
)

// Tile is a page that has been written to disk
type Tile struct {
	Coord  Coord
	Number int

	// part of the canvas the page was cut from
	Region image.Rectangle

	// full path of the written file
	Path string
}

// Recorder is told about every tile a job writes
type Recorder interface {
	// Record a tile once its file is on disk
	Record(t *Tile) error

	// Close is called once when the job ends, with the state it is
	// ending in. An error here fails an otherwise completed job.
	Close(final State) error
}

// recorders fans tiles out to a set of Recorders
type recorders []Recorder

func (rs recorders) Record(t *Tile) error {
	for _, r := range rs {
		if err := r.Record(t); err != nil {
			return err
		}
	}
	return nil
}

// Close closes every recorder, returning the first error
func (rs recorders) Close(final State) error {
	var first error
	for _, r := range rs {
		if err := r.Close(final); err != nil && first == nil {
			first = err
		}
	}
	return first
}
