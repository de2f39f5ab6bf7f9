// Package async runs long operations (index builds, watch-triggered
// refreshes) in the background and tracks their lifecycle so callers can
// poll for progress instead of blocking.
package async

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// State is a task lifecycle phase.
type State string

const (
	StatePending   State = "pending"
	StateRunning   State = "running"
	StateCompleted State = "completed"
	StateFailed    State = "failed"
)

// Task is a snapshot of one background operation's status.
type Task struct {
	ID          string
	Kind        string
	State       State
	Error       string
	Processed   int
	Total       int
	SubmittedAt time.Time
	StartedAt   time.Time
	FinishedAt  time.Time
}

// Done reports whether the task reached a terminal state.
func (t Task) Done() bool {
	return t.State == StateCompleted || t.State == StateFailed
}

// Fn is the unit of background work. It reports progress through the
// callback and returns the task's final error.
type Fn func(ctx context.Context, progress func(processed, total int)) error

// Runner executes tasks one at a time on a single worker goroutine.
// Serializing builds keeps index writes single-writer without callers
// holding locks.
type Runner struct {
	mu     sync.Mutex
	tasks  map[string]*Task
	queue  chan queued
	closed bool
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

type queued struct {
	id string
	fn Fn
}

// NewRunner starts the worker. queueSize bounds how many tasks may wait;
// submissions past that fail fast.
func NewRunner(queueSize int) *Runner {
	if queueSize <= 0 {
		queueSize = 16
	}
	ctx, cancel := context.WithCancel(context.Background())
	r := &Runner{
		tasks:  make(map[string]*Task),
		queue:  make(chan queued, queueSize),
		ctx:    ctx,
		cancel: cancel,
		done:   make(chan struct{}),
	}
	go r.work()
	return r
}

// Submit enqueues fn and returns the new task's id. ok is false when the
// queue is full or the runner is shut down.
func (r *Runner) Submit(kind string, fn Fn) (id string, ok bool) {
	id = uuid.NewString()

	// The send happens under the same lock that Shutdown closes the
	// queue under, so a late Submit sees closed instead of panicking.
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return "", false
	}

	select {
	case r.queue <- queued{id: id, fn: fn}:
		r.tasks[id] = &Task{
			ID:          id,
			Kind:        kind,
			State:       StatePending,
			SubmittedAt: time.Now(),
		}
		return id, true
	default:
		return "", false
	}
}

// Get returns the current status of a task.
func (r *Runner) Get(id string) (Task, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	task, ok := r.tasks[id]
	if !ok {
		return Task{}, false
	}
	return *task, true
}

// Wait blocks until the task reaches a terminal state or ctx is done.
func (r *Runner) Wait(ctx context.Context, id string) (Task, error) {
	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()
	for {
		task, ok := r.Get(id)
		if ok && task.Done() {
			return task, nil
		}
		select {
		case <-ctx.Done():
			return task, ctx.Err()
		case <-ticker.C:
		}
	}
}

// Shutdown cancels the running task and stops the worker, waiting for it
// to exit. Safe to call more than once; Submit after Shutdown reports
// ok=false.
func (r *Runner) Shutdown() {
	r.mu.Lock()
	if !r.closed {
		r.closed = true
		r.cancel()
		close(r.queue)
	}
	r.mu.Unlock()
	<-r.done
}

func (r *Runner) work() {
	defer close(r.done)
	for q := range r.queue {
		if r.ctx.Err() != nil {
			r.finish(q.id, r.ctx.Err())
			continue
		}

		r.update(q.id, func(t *Task) {
			t.State = StateRunning
			t.StartedAt = time.Now()
		})

		err := q.fn(r.ctx, func(processed, total int) {
			r.update(q.id, func(t *Task) {
				t.Processed = processed
				t.Total = total
			})
		})
		r.finish(q.id, err)
	}
}

func (r *Runner) finish(id string, err error) {
	r.update(id, func(t *Task) {
		t.FinishedAt = time.Now()
		if err != nil {
			t.State = StateFailed
			t.Error = err.Error()
		} else {
			t.State = StateCompleted
		}
	})
}

func (r *Runner) update(id string, fn func(*Task)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if task, ok := r.tasks[id]; ok {
		fn(task)
	}
}
