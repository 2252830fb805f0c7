package vocab

import (
	"context"
	"sync"
	"time"
)

// Debouncer runs a task after a quiet period. A newer request replaces a
// pending one, at most one run is in flight, and a request that arrives
// during a run schedules exactly one more run after it.
type Debouncer struct {
	delay time.Duration
	task  func(ctx context.Context)

	mu      sync.Mutex
	timer   *time.Timer
	gen     uint64
	running bool
	rerun   bool
	stopped bool
	runs    int

	ctx    context.Context
	cancel context.CancelFunc
}

// NewDebouncer returns a debouncer that calls task delay after the last
// request. The context passed to task is cancelled by Stop.
func NewDebouncer(delay time.Duration, task func(ctx context.Context)) *Debouncer {
	ctx, cancel := context.WithCancel(context.Background())
	return &Debouncer{delay: delay, task: task, ctx: ctx, cancel: cancel}
}

// Request schedules a run, superseding any run that has not started yet.
func (d *Debouncer) Request() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}
	d.schedule()
}

// schedule must be called with d.mu held.
func (d *Debouncer) schedule() {
	if d.timer != nil {
		d.timer.Stop()
	}
	d.gen++
	gen := d.gen
	d.timer = time.AfterFunc(d.delay, func() { d.fire(gen) })
}

func (d *Debouncer) fire(gen uint64) {
	d.mu.Lock()
	if d.stopped || gen != d.gen {
		d.mu.Unlock()
		return
	}
	d.timer = nil
	if d.running {
		d.rerun = true
		d.mu.Unlock()
		return
	}
	d.running = true
	d.mu.Unlock()

	d.task(d.ctx)

	d.mu.Lock()
	d.running = false
	d.runs++
	if d.rerun && !d.stopped {
		d.rerun = false
		d.schedule()
	}
	d.mu.Unlock()
}

// Pending reports whether a run is scheduled or in flight.
func (d *Debouncer) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.timer != nil || d.running || d.rerun
}

// Runs is the number of completed runs.
func (d *Debouncer) Runs() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.runs
}

// Stop cancels any scheduled run and the context of a run in flight.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopped = true
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.cancel()
}
