// Package watcher keeps the index fresh: it observes filesystem events
// under the configured roots and triggers incremental passes once a
// burst of changes settles.
package watcher

import (
	"sync"
	"time"
)

// Debouncer coalesces bursts of filesystem events into a single trigger.
// Every event resets the timer; the callback fires once no event has
// arrived for the configured interval. Editors commonly emit several
// events per save, and bulk operations emit thousands.
type Debouncer struct {
	mu       sync.Mutex
	interval time.Duration
	timer    *time.Timer
	pending  map[string]struct{}
	fire     func(paths []string)
	stopped  bool
}

// NewDebouncer creates a debouncer that calls fire with the accumulated
// set of changed paths after interval of quiet.
func NewDebouncer(interval time.Duration, fire func(paths []string)) *Debouncer {
	return &Debouncer{
		interval: interval,
		pending:  make(map[string]struct{}),
		fire:     fire,
	}
}

// Notify records a changed path and (re)starts the quiet timer.
func (d *Debouncer) Notify(path string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}

	d.pending[path] = struct{}{}
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.interval, d.flush)
}

// Stop cancels any pending trigger. Safe to call more than once.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.stopped = true
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.pending = make(map[string]struct{})
}

func (d *Debouncer) flush() {
	d.mu.Lock()
	if d.stopped || len(d.pending) == 0 {
		d.mu.Unlock()
		return
	}
	paths := make([]string, 0, len(d.pending))
	for p := range d.pending {
		paths = append(paths, p)
	}
	d.pending = make(map[string]struct{})
	d.mu.Unlock()

	d.fire(paths)
}
