package poster

import (
	"context"
	"sync"
)

// Runner runs tiling jobs one at a time on a background worker.
// Asking for a second job while one is running returns ErrBusy.
type Runner struct {
	// Recorders are told about every tile of every job, after any the
	// settings ask for (manifest, layout map).
	Recorders []Recorder

	// a queue of depth one; holding the token means a job is in flight
	slot chan struct{}

	lock   sync.Mutex
	active *Job
}

// NewRunner returns an idle Runner
func NewRunner() *Runner {
	return &Runner{
		slot: make(chan struct{}, 1),
	}
}

// Start validates the settings and begins splitting `imagePath` in the
// background. Settings are copied; the caller may reuse them at once.
//
// Invalid settings are rejected here and never reach the worker.
// Cancelling `ctx` (or calling Job.Cancel) cancels the job.
func (r *Runner) Start(ctx context.Context, imagePath string, s *Settings) (*Job, error) {
	if s == nil {
		return nil, invalidSettings("no settings given")
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	if imagePath == "" {
		return nil, invalidSettings("no image given")
	}

	l, err := Plan(s)
	if err != nil {
		return nil, err
	}

	select {
	case r.slot <- struct{}{}:
	default:
		return nil, ErrBusy
	}

	j := newJob(imagePath, s, l)
	j.extra = append([]Recorder{}, r.Recorders...)
	jctx, cancel := context.WithCancel(ctx)
	j.cancel = cancel
	r.setActive(j)

	go j.execute(jctx, func() {
		cancel()
		r.setActive(nil)
		<-r.slot
	})

	return j, nil
}

// Active returns the running job, or nil if the runner is idle
func (r *Runner) Active() *Job {
	r.lock.Lock()
	defer r.lock.Unlock()
	return r.active
}

func (r *Runner) setActive(j *Job) {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.active = j
}

// Busy reports if a job is in flight
func (r *Runner) Busy() bool {
	return len(r.slot) > 0
}

// Run is a convenience that starts a job, forwards its events to `fn`
// (which may be nil) and waits for it to end.
func (r *Runner) Run(ctx context.Context, imagePath string, s *Settings, fn func(Event)) (*Result, error) {
	j, err := r.Start(ctx, imagePath, s)
	if err != nil {
		return nil, err
	}
	for ev := range j.Events() {
		if fn != nil {
			fn(ev)
		}
	}
	return j.Wait(), nil
}
