package session

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSupervisorStartAndFinish(t *testing.T) {
	s := NewSupervisor()
	done := make(chan struct{})

	s.Start("s1", func(ctx context.Context) {
		close(done)
	})

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("task never ran")
	}

	// The task unregisters itself; give the finalizer a moment.
	require.Eventually(t, func() bool { return !s.Running("s1") }, time.Second, 5*time.Millisecond)
}

func TestSupervisorCancelAndWait(t *testing.T) {
	s := NewSupervisor()
	var unwound atomic.Bool

	started := make(chan struct{})
	s.Start("s1", func(ctx context.Context) {
		close(started)
		<-ctx.Done()
		// Simulate cleanup work inside the task's finalizer.
		time.Sleep(20 * time.Millisecond)
		unwound.Store(true)
	})

	<-started
	s.CancelAndWait("s1")

	// CancelAndWait must not return until the task fully unwound.
	assert.True(t, unwound.Load())
	assert.False(t, s.Running("s1"))
}

func TestSupervisorCancelAndWaitNoTask(t *testing.T) {
	s := NewSupervisor()
	s.CancelAndWait("missing") // no-op
}

func TestSupervisorReplaceWaitsForPredecessor(t *testing.T) {
	s := NewSupervisor()

	var mu sync.Mutex
	var order []string

	firstStarted := make(chan struct{})
	s.Start("s1", func(ctx context.Context) {
		close(firstStarted)
		<-ctx.Done()
		time.Sleep(10 * time.Millisecond)
		mu.Lock()
		order = append(order, "first-done")
		mu.Unlock()
	})
	<-firstStarted

	secondDone := make(chan struct{})
	s.Start("s1", func(ctx context.Context) {
		mu.Lock()
		order = append(order, "second-started")
		mu.Unlock()
		close(secondDone)
	})

	<-secondDone
	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, []string{"first-done", "second-started"}, order)
}

func TestSupervisorAtMostOneTask(t *testing.T) {
	s := NewSupervisor()
	var active atomic.Int32
	var maxActive atomic.Int32

	// Back-to-back starts without delay: never two live tasks for one id.
	for i := 0; i < 10; i++ {
		s.Start("s1", func(ctx context.Context) {
			n := active.Add(1)
			if n > maxActive.Load() {
				maxActive.Store(n)
			}
			select {
			case <-ctx.Done():
			case <-time.After(20 * time.Millisecond):
			}
			active.Add(-1)
		})
	}
	s.CancelAndWait("s1")

	assert.LessOrEqual(t, maxActive.Load(), int32(1))
}

func TestSupervisorForgetDoesNotCancel(t *testing.T) {
	s := NewSupervisor()

	started := make(chan struct{})
	finished := make(chan struct{})
	s.Start("s1", func(ctx context.Context) {
		close(started)
		select {
		case <-ctx.Done():
			t.Error("Forget must not cancel the task")
		case <-time.After(30 * time.Millisecond):
		}
		close(finished)
	})

	<-started
	s.Forget("s1")
	assert.False(t, s.Running("s1"))

	select {
	case <-finished:
	case <-time.After(time.Second):
		t.Fatal("task did not finish")
	}
}

func TestSupervisorStaleUnregisterKeepsSuccessor(t *testing.T) {
	s := NewSupervisor()

	block := make(chan struct{})
	s.Start("s1", func(ctx context.Context) {
		<-ctx.Done()
	})
	s.Start("s1", func(ctx context.Context) {
		<-block
	})

	// The first task's finalizer already ran; the second must still be
	// registered.
	assert.True(t, s.Running("s1"))
	close(block)
	require.Eventually(t, func() bool { return !s.Running("s1") }, time.Second, 5*time.Millisecond)
}
