package async

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunner_CompletesTask(t *testing.T) {
	runner := NewRunner(4)
	defer runner.Shutdown()

	id, ok := runner.Submit("index", func(ctx context.Context, progress func(int, int)) error {
		progress(3, 3)
		return nil
	})
	require.True(t, ok)
	require.NotEmpty(t, id)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	task, err := runner.Wait(ctx, id)
	require.NoError(t, err)

	assert.Equal(t, StateCompleted, task.State)
	assert.Equal(t, "index", task.Kind)
	assert.Equal(t, 3, task.Processed)
	assert.Equal(t, 3, task.Total)
	assert.False(t, task.StartedAt.IsZero())
	assert.False(t, task.FinishedAt.IsZero())
	assert.Empty(t, task.Error)
}

func TestRunner_RecordsFailure(t *testing.T) {
	runner := NewRunner(4)
	defer runner.Shutdown()

	id, ok := runner.Submit("index", func(ctx context.Context, progress func(int, int)) error {
		return fmt.Errorf("disk full")
	})
	require.True(t, ok)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	task, err := runner.Wait(ctx, id)
	require.NoError(t, err)

	assert.Equal(t, StateFailed, task.State)
	assert.Equal(t, "disk full", task.Error)
	assert.True(t, task.Done())
}

func TestRunner_TasksRunSerially(t *testing.T) {
	runner := NewRunner(4)
	defer runner.Shutdown()

	running := make(chan struct{})
	release := make(chan struct{})

	first, ok := runner.Submit("index", func(ctx context.Context, progress func(int, int)) error {
		close(running)
		<-release
		return nil
	})
	require.True(t, ok)

	second, ok := runner.Submit("index", func(ctx context.Context, progress func(int, int)) error {
		return nil
	})
	require.True(t, ok)

	<-running
	task, _ := runner.Get(second)
	assert.Equal(t, StatePending, task.State, "second task waits for the first")

	close(release)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	task, err := runner.Wait(ctx, first)
	require.NoError(t, err)
	assert.Equal(t, StateCompleted, task.State)

	task, err = runner.Wait(ctx, second)
	require.NoError(t, err)
	assert.Equal(t, StateCompleted, task.State)
}

func TestRunner_RejectsWhenQueueFull(t *testing.T) {
	runner := NewRunner(1)
	defer runner.Shutdown()

	release := make(chan struct{})
	defer close(release)

	running := make(chan struct{})
	_, ok := runner.Submit("index", func(ctx context.Context, progress func(int, int)) error {
		close(running)
		<-release
		return nil
	})
	require.True(t, ok)
	<-running

	// One slot in the queue, then full.
	_, ok = runner.Submit("index", func(ctx context.Context, progress func(int, int)) error { return nil })
	require.True(t, ok)

	id, ok := runner.Submit("index", func(ctx context.Context, progress func(int, int)) error { return nil })
	assert.False(t, ok)
	assert.Empty(t, id)
}

func TestRunner_GetUnknownTask(t *testing.T) {
	runner := NewRunner(1)
	defer runner.Shutdown()

	_, ok := runner.Get("no-such-task")
	assert.False(t, ok)
}

func TestRunner_SubmitAfterShutdownIsRejected(t *testing.T) {
	runner := NewRunner(2)
	runner.Shutdown()

	// Must report ok=false, not panic on the closed queue.
	id, ok := runner.Submit("index", func(ctx context.Context, progress func(int, int)) error {
		return nil
	})
	assert.False(t, ok)
	assert.Empty(t, id)

	_, found := runner.Get(id)
	assert.False(t, found)
}

func TestRunner_ShutdownIsIdempotent(t *testing.T) {
	runner := NewRunner(1)
	runner.Shutdown()
	runner.Shutdown()
}

func TestRunner_ShutdownCancelsRunningTask(t *testing.T) {
	runner := NewRunner(1)

	started := make(chan struct{})
	id, ok := runner.Submit("index", func(ctx context.Context, progress func(int, int)) error {
		close(started)
		<-ctx.Done()
		return ctx.Err()
	})
	require.True(t, ok)
	<-started

	runner.Shutdown()

	task, found := runner.Get(id)
	require.True(t, found)
	assert.Equal(t, StateFailed, task.State)
}
