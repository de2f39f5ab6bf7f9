package watcher

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	mu    sync.Mutex
	fires [][]string
}

func (r *recorder) fire(paths []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fires = append(r.fires, paths)
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.fires)
}

func (r *recorder) last() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.fires) == 0 {
		return nil
	}
	return r.fires[len(r.fires)-1]
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met in time")
}

func TestDebouncer_CoalescesBurst(t *testing.T) {
	rec := &recorder{}
	d := NewDebouncer(30*time.Millisecond, rec.fire)
	defer d.Stop()

	d.Notify("/docs/a.txt")
	d.Notify("/docs/a.txt")
	d.Notify("/docs/b.txt")

	waitFor(t, func() bool { return rec.count() == 1 })
	assert.ElementsMatch(t, []string{"/docs/a.txt", "/docs/b.txt"}, rec.last())

	// Stays at one fire: no further events arrived.
	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, 1, rec.count())
}

func TestDebouncer_EventResetsTimer(t *testing.T) {
	rec := &recorder{}
	d := NewDebouncer(50*time.Millisecond, rec.fire)
	defer d.Stop()

	// Keep poking before the interval elapses; nothing may fire yet.
	for i := 0; i < 4; i++ {
		d.Notify("/docs/a.txt")
		time.Sleep(20 * time.Millisecond)
		require.Equal(t, 0, rec.count())
	}

	waitFor(t, func() bool { return rec.count() == 1 })
}

func TestDebouncer_SeparateBurstsFireSeparately(t *testing.T) {
	rec := &recorder{}
	d := NewDebouncer(20*time.Millisecond, rec.fire)
	defer d.Stop()

	d.Notify("/docs/a.txt")
	waitFor(t, func() bool { return rec.count() == 1 })

	d.Notify("/docs/b.txt")
	waitFor(t, func() bool { return rec.count() == 2 })

	assert.Equal(t, []string{"/docs/b.txt"}, rec.last())
}

func TestDebouncer_StopCancelsPending(t *testing.T) {
	rec := &recorder{}
	d := NewDebouncer(30*time.Millisecond, rec.fire)

	d.Notify("/docs/a.txt")
	d.Stop()

	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, 0, rec.count())

	// Notify after Stop is a no-op.
	d.Notify("/docs/b.txt")
	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, 0, rec.count())
}
