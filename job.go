package poster

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
)

// State of a tiling job
type State int

const (
	Idle State = iota
	Preparing
	Tiling
	GeneratingGuide
	Completed
	Cancelled
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Preparing:
		return "preparing"
	case Tiling:
		return "tiling"
	case GeneratingGuide:
		return "generating guide"
	case Completed:
		return "completed"
	case Cancelled:
		return "cancelled"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Terminal reports if no further transitions can happen
func (s State) Terminal() bool {
	return s == Completed || s == Cancelled || s == Failed
}

// EventKind is the type of a job Event
type EventKind int

const (
	EventProgress EventKind = iota
	EventCompleted
	EventFailed
	EventCancelled
)

func (k EventKind) String() string {
	switch k {
	case EventProgress:
		return "progress"
	case EventCompleted:
		return "completed"
	case EventFailed:
		return "failed"
	case EventCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Event is sent to whoever started a job. Every job sends zero or more
// progress events followed by exactly one terminal event.
type Event struct {
	Kind EventKind

	// percent complete [0-100], progress events only
	Percent int

	// why the job failed, failed events only
	Err error
}

// Terminal reports if this is the last event of the job
func (e Event) Terminal() bool {
	return e.Kind != EventProgress
}

func (e Event) String() string {
	switch e.Kind {
	case EventProgress:
		return fmt.Sprintf("progress %d%%", e.Percent)
	case EventFailed:
		return fmt.Sprintf("failed: %v", e.Err)
	default:
		return e.Kind.String()
	}
}

// Result is the outcome of a finished job
type Result struct {
	State State

	// files written, in the order they were written
	Files []string

	// set when State is Failed
	Err error
}

// Job splits one image into printable tiles. Create one with a Runner.
type Job struct {
	ID        uuid.UUID
	ImagePath string

	settings Settings
	layout   *Layout
	log      *slog.Logger
	extra    []Recorder

	events chan Event
	cancel context.CancelFunc
	done   chan struct{}

	lock     sync.Mutex
	state    State
	progress int
	files    []string
	result   *Result
}

// newJob takes a private copy of the settings; they are validated already
func newJob(imagePath string, s *Settings, l *Layout) *Job {
	id := uuid.New()
	return &Job{
		ID:        id,
		ImagePath: imagePath,
		settings:  *s,
		layout:    l,
		log:       log().With("job", id.String(), "image", imagePath),
		// room for every event a job can send, so the worker never waits
		// on a slow reader: 10%, one per tile, 100%, terminal.
		events: make(chan Event, l.Total()+3),
		done:   make(chan struct{}),
		state:  Idle,
	}
}

// Events are delivered in order; the channel is closed after the
// terminal event.
func (j *Job) Events() <-chan Event {
	return j.events
}

// Settings returns the job's copy of its settings
func (j *Job) Settings() Settings {
	return j.settings
}

// Layout returns the planned tile grid
func (j *Job) Layout() *Layout {
	return j.layout
}

// Cancel asks the job to stop. It is checked before each tile and
// before post processing; a file being written is always finished.
func (j *Job) Cancel() {
	if j.cancel != nil {
		j.cancel()
	}
}

// State returns where the job is right now
func (j *Job) State() State {
	j.lock.Lock()
	defer j.lock.Unlock()
	return j.state
}

// Files returns the files written so far
func (j *Job) Files() []string {
	j.lock.Lock()
	defer j.lock.Unlock()
	return append([]string{}, j.files...)
}

// Done is closed when the job has reached a terminal state
func (j *Job) Done() <-chan struct{} {
	return j.done
}

// Wait blocks until the job ends & returns how it ended.
func (j *Job) Wait() *Result {
	<-j.done
	return j.result
}

func (j *Job) setState(s State) {
	j.lock.Lock()
	prev := j.state
	j.state = s
	j.lock.Unlock()
	j.log.Debug("state change", "from", prev.String(), "to", s.String())
}

func (j *Job) addFile(path string) {
	j.lock.Lock()
	defer j.lock.Unlock()
	j.files = append(j.files, path)
}

// reportProgress sends a progress event, never going backwards
func (j *Job) reportProgress(pct int) {
	j.lock.Lock()
	if pct <= j.progress {
		j.lock.Unlock()
		return
	}
	j.progress = pct
	j.lock.Unlock()
	j.events <- Event{Kind: EventProgress, Percent: pct}
}

// execute runs the job to a terminal state. `release` is called before
// the terminal event is sent so a listener may start the next job as soon
// as it sees it.
func (j *Job) execute(ctx context.Context, release func()) {
	err := j.run(ctx)
	final := finalState(err)

	j.lock.Lock()
	j.state = final
	j.result = &Result{State: final, Files: append([]string{}, j.files...)}
	if final == Failed {
		j.result.Err = err
	}
	j.lock.Unlock()

	switch final {
	case Completed:
		j.reportProgress(100)
		j.log.Info("job completed", "files", len(j.result.Files))
	case Cancelled:
		j.log.Info("job cancelled", "files", len(j.result.Files))
	default:
		j.log.Error("job failed", "err", err)
	}

	release()
	j.events <- terminalEvent(final, err)
	close(j.events)
	close(j.done)
}

func finalState(err error) State {
	switch {
	case err == nil:
		return Completed
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return Cancelled
	default:
		return Failed
	}
}

func terminalEvent(s State, err error) Event {
	switch s {
	case Completed:
		return Event{Kind: EventCompleted}
	case Cancelled:
		return Event{Kind: EventCancelled}
	default:
		return Event{Kind: EventFailed, Err: err}
	}
}

// run is the body of the job
func (j *Job) run(ctx context.Context) (err error) {
	s := &j.settings
	l := j.layout
	base := BaseName(j.ImagePath)

	j.setState(Preparing)
	j.log.Info("preparing image",
		"columns", l.Columns, "rows", l.Rows,
		"canvas_width", l.CanvasWidthPx, "canvas_height", l.CanvasHeightPx,
	)

	src, err := LoadImage(j.ImagePath)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	if s.Upscale {
		var scaled bool
		src, scaled = Upscale(src, l)
		j.log.Debug("upscale step", "resampled", scaled)
		j.reportProgress(10)
	}

	canvas := Fill(src, l, s.Stretch)
	if err := ctx.Err(); err != nil {
		return err
	}

	dir := s.OutputDir
	if dir == "" {
		dir = OutputDir(j.ImagePath)
	}
	if err := ensureDir(dir); err != nil {
		return err
	}

	recs, err := j.openRecorders(dir, base)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := recs.Close(finalState(err)); cerr != nil && err == nil {
			err = cerr
		}
	}()

	j.setState(Tiling)
	total := float64(l.Total())
	written := 0
	for _, c := range l.Coords() {
		if err := ctx.Err(); err != nil {
			return err
		}

		region := l.Region(c)
		if region.Empty() {
			j.log.Debug("skipping empty tile", "row", c.Row, "col", c.Col)
			continue
		}

		page := Extract(canvas, region, l.PageWidthPx, l.PageHeightPx)
		if err := Annotate(page, c, s); err != nil {
			return fmt.Errorf("annotating %s: %w", Label(c), err)
		}

		path := filepath.Join(dir, TileFilename(base, c, s.Format))
		if err := Render(page, path, s.Format, l.Page); err != nil {
			return err
		}
		j.addFile(path)

		if err := recs.Record(&Tile{Coord: c, Number: l.PageNumber(c), Region: region, Path: path}); err != nil {
			return err
		}

		written++
		j.log.Debug("wrote tile", "path", path, "region", region.String())
		j.reportProgress(int(10 + float64(written)/total*85))
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	if s.CombinePDF {
		if s.Format != PDF {
			j.log.Warn("combined pdf needs pdf output, skipping")
		} else {
			out := filepath.Join(dir, CombinedFilename(base))
			if err := CombinePDFs(j.Files(), out); err != nil {
				return err
			}
			j.addFile(out)
		}
	}

	if s.Guide {
		j.setState(GeneratingGuide)
		out := filepath.Join(dir, GuideFilename(base))
		if err := NewGuide(base, l, canvas, s.Format).WriteFile(out); err != nil {
			return err
		}
		j.addFile(out)
	}

	return nil
}

// openRecorders sets up the optional manifest & layout map
func (j *Job) openRecorders(dir, base string) (recorders, error) {
	s := &j.settings
	recs := recorders{}

	if s.Manifest {
		m, err := OpenManifest(filepath.Join(dir, ManifestFilename(base)))
		if err != nil {
			return nil, err
		}
		if err := m.StartJob(j); err != nil {
			m.Close(Failed)
			return nil, err
		}
		recs = append(recs, m)
	}

	if s.LayoutMap {
		if s.Format != PNG {
			j.log.Warn("layout map needs png output, skipping")
		} else {
			recs = append(recs, NewLayoutMap(filepath.Join(dir, LayoutMapFilename(base)), j.layout))
		}
	}

	return append(recs, j.extra...), nil
}
