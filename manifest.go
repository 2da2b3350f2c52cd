package poster

import (
	"fmt"
	"image"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
)

const (
	sqlInsertJob = `INSERT INTO jobs (id, image, settings, grid_columns, grid_rows, state, started, finished)
		VALUES (:id, :image, :settings, :grid_columns, :grid_rows, :state, :started, :finished);`
	sqlFinishJob  = `UPDATE jobs SET state=:state, finished=:finished WHERE id=:id;`
	sqlUpdateTile = `INSERT INTO tiles (id, job, grid_row, grid_col, number, path, x0, y0, x1, y1)
		VALUES (:id, :job, :grid_row, :grid_col, :number, :path, :x0, :y0, :x1, :y1)
		ON CONFLICT (id) DO UPDATE SET path=EXCLUDED.path;`
)

// fixed width so timestamps sort as text
const manifestTime = "2006-01-02T15:04:05.000000000Z"

// ManifestFilename names the sqlite manifest of a poster
func ManifestFilename(base string) string {
	return fmt.Sprintf("%s_manifest.sqlite", base)
}

// Manifest is a Recorder that keeps a sqlite record of jobs and the
// tiles they wrote. The same file may hold many runs over one image.
type Manifest struct {
	filename string
	db       *sqlx.DB

	lock sync.Mutex
	job  string
}

// OpenManifest given it's filename (database file) on disk.
// Will create if it doesn't exist.
func OpenManifest(fname string) (*Manifest, error) {
	db, err := sqlx.Open("sqlite3", fname)
	if err != nil {
		return nil, ioError("open manifest", fname, err)
	}

	m := &Manifest{db: db, filename: fname}
	if err := m.init(); err != nil {
		db.Close()
		return nil, ioError("init manifest", fname, err)
	}
	return m, nil
}

// Filename returns the path to the manifest on disk
func (m *Manifest) Filename() string {
	return m.filename
}

// StartJob records the job that following tiles belong to
func (m *Manifest) StartJob(j *Job) error {
	s := j.Settings()
	settings, err := s.Marshal()
	if err != nil {
		return err
	}

	row := ManifestJob{
		ID:       j.ID.String(),
		Image:    j.ImagePath,
		Settings: string(settings),
		Columns:  j.Layout().Columns,
		Rows:     j.Layout().Rows,
		State:    Tiling.String(),
		Started:  time.Now().UTC().Format(manifestTime),
	}
	if _, err := m.db.NamedExec(sqlInsertJob, row); err != nil {
		return ioError("record job", m.filename, err)
	}

	m.lock.Lock()
	m.job = row.ID
	m.lock.Unlock()
	return nil
}

// Record a written tile against the current job
func (m *Manifest) Record(t *Tile) error {
	m.lock.Lock()
	job := m.job
	m.lock.Unlock()
	if job == "" {
		return fmt.Errorf("manifest %s: tile recorded before a job was started", m.filename)
	}

	if _, err := m.db.NamedExec(sqlUpdateTile, newManifestTile(job, t)); err != nil {
		return ioError("record tile", m.filename, err)
	}
	return nil
}

// Close stamps the job with the state it ended in & closes the database.
// A manifest opened only to be read can be closed with any state.
func (m *Manifest) Close(final State) error {
	m.lock.Lock()
	job := m.job
	m.lock.Unlock()

	if job != "" {
		_, err := m.db.NamedExec(sqlFinishJob, map[string]interface{}{
			"id":       job,
			"state":    final.String(),
			"finished": time.Now().UTC().Format(manifestTime),
		})
		if err != nil {
			m.db.Close()
			return ioError("finish job", m.filename, err)
		}
	}
	return m.db.Close()
}

// Jobs returns every job in the manifest, oldest first
func (m *Manifest) Jobs() ([]*ManifestJob, error) {
	jobs := []*ManifestJob{}
	err := m.db.Select(&jobs, "SELECT * FROM jobs ORDER BY started;")
	return jobs, err
}

// Tiles returns the tiles written by `job` in the order they were written
func (m *Manifest) Tiles(job string) ([]*ManifestTile, error) {
	rows, err := m.db.NamedQuery(
		"SELECT * FROM tiles WHERE job=:job ORDER BY number;",
		map[string]interface{}{"job": job},
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tiles := []*ManifestTile{}
	for rows.Next() {
		t := &ManifestTile{}
		if err := rows.StructScan(t); err != nil {
			return nil, err
		}
		tiles = append(tiles, t)
	}
	return tiles, rows.Err()
}

// Job returns a recorded job by ID, or the most recently started one if
// `id` is "".
func (m *Manifest) Job(id string) (*ManifestJob, error) {
	query := "SELECT * FROM jobs WHERE id=:id LIMIT 1;"
	if id == "" {
		query = "SELECT * FROM jobs ORDER BY started DESC LIMIT 1;"
	}
	rows, err := m.db.NamedQuery(query, map[string]interface{}{"id": id})
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("manifest %s: no job %q", m.filename, id)
	}
	j := &ManifestJob{}
	return j, rows.StructScan(j)
}

// WriteLayoutMap writes the layout map of a recorded job to `path`, as
// if the job had been run with a layout map. See Job for `id`.
func (m *Manifest) WriteLayoutMap(id, path string) error {
	j, err := m.Job(id)
	if err != nil {
		return err
	}
	s, err := ParseSettings([]byte(j.Settings))
	if err != nil {
		return err
	}
	l, err := Plan(s)
	if err != nil {
		return err
	}
	tiles, err := m.Tiles(j.ID)
	if err != nil {
		return err
	}

	lm := NewLayoutMap(path, l)
	for _, t := range tiles {
		if err := lm.Record(t.Tile()); err != nil {
			return err
		}
	}
	return lm.Close(Completed)
}

// init creates some DB tables for us if they don't exist
func (m *Manifest) init() error {
	createJobs := `CREATE TABLE IF NOT EXISTS jobs(
		id TEXT PRIMARY KEY,
		image TEXT NOT NULL,
		settings TEXT NOT NULL,
		grid_columns INTEGER NOT NULL,
		grid_rows INTEGER NOT NULL,
		state TEXT NOT NULL,
		started TEXT NOT NULL,
		finished TEXT NOT NULL DEFAULT ''
	    );`
	if _, err := m.db.Exec(createJobs); err != nil {
		return err
	}

	createTiles := `CREATE TABLE IF NOT EXISTS tiles(
		id TEXT PRIMARY KEY,
		job TEXT NOT NULL,
		grid_row INTEGER NOT NULL,
		grid_col INTEGER NOT NULL,
		number INTEGER NOT NULL,
		path TEXT NOT NULL,
		x0 INTEGER NOT NULL,
		y0 INTEGER NOT NULL,
		x1 INTEGER NOT NULL,
		y1 INTEGER NOT NULL
	    );`
	_, err := m.db.Exec(createTiles)
	return err
}

// ManifestJob is one run of a job
type ManifestJob struct {
	ID       string `db:"id"`
	Image    string `db:"image"`
	Settings string `db:"settings"` // yaml
	Columns  int    `db:"grid_columns"`
	Rows     int    `db:"grid_rows"`
	State    string `db:"state"`
	Started  string `db:"started"`
	Finished string `db:"finished"`
}

// ManifestTile is one written page. Rows & columns are zero based; the
// region is in canvas pixels.
type ManifestTile struct {
	ID     string `db:"id"`
	Job    string `db:"job"`
	Row    int    `db:"grid_row"`
	Col    int    `db:"grid_col"`
	Number int    `db:"number"`
	Path   string `db:"path"`
	X0     int    `db:"x0"`
	Y0     int    `db:"y0"`
	X1     int    `db:"x1"`
	Y1     int    `db:"y1"`
}

// Tile converts back to the Tile that was recorded
func (t *ManifestTile) Tile() *Tile {
	return &Tile{
		Coord:  Coord{Row: t.Row, Col: t.Col},
		Number: t.Number,
		Region: image.Rect(t.X0, t.Y0, t.X1, t.Y1),
		Path:   t.Path,
	}
}

// newManifestTile crafts a ManifestTile. The ID makes (job,row,col) unique.
func newManifestTile(job string, t *Tile) ManifestTile {
	return ManifestTile{
		ID:     fmt.Sprintf("%s:%d-%d", job, t.Coord.Row, t.Coord.Col),
		Job:    job,
		Row:    t.Coord.Row,
		Col:    t.Coord.Col,
		Number: t.Number,
		Path:   t.Path,
		X0:     t.Region.Min.X,
		Y0:     t.Region.Min.Y,
		X1:     t.Region.Max.X,
		Y1:     t.Region.Max.Y,
	}
}
