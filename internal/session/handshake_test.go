package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandshakeSignalThenAwait(t *testing.T) {
	h := NewHandshake()

	// An entry exists only after a first wait; prime it with a zero wait.
	outcome, err := h.Await(context.Background(), "s1", 0)
	require.NoError(t, err)
	assert.Equal(t, TimedOut, outcome)

	// A fast ack arriving before the next wait is remembered.
	h.Signal("s1")
	outcome, err = h.Await(context.Background(), "s1", time.Second)
	require.NoError(t, err)
	assert.Equal(t, Confirmed, outcome)
}

func TestHandshakeSignalsCollapse(t *testing.T) {
	h := NewHandshake()
	_, err := h.Await(context.Background(), "s1", 0)
	require.NoError(t, err)

	h.Signal("s1")
	h.Signal("s1")
	h.Signal("s1")

	outcome, err := h.Await(context.Background(), "s1", time.Second)
	require.NoError(t, err)
	assert.Equal(t, Confirmed, outcome)

	// Level-triggered: the extra signals did not accumulate.
	outcome, err = h.Await(context.Background(), "s1", 10*time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, TimedOut, outcome)
}

func TestHandshakeSignalWithoutWaiterIgnored(t *testing.T) {
	h := NewHandshake()

	// No entry for this id: the ack is ignored, no state is created.
	h.Signal("never-waited")

	outcome, err := h.Await(context.Background(), "never-waited", 10*time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, TimedOut, outcome)
}

func TestHandshakeSignalUnblocksWaiter(t *testing.T) {
	h := NewHandshake()

	resCh := make(chan WaitOutcome, 1)
	go func() {
		outcome, _ := h.Await(context.Background(), "s1", 5*time.Second)
		resCh <- outcome
	}()

	// Give the waiter time to create its entry and block.
	time.Sleep(20 * time.Millisecond)
	h.Signal("s1")

	select {
	case outcome := <-resCh:
		assert.Equal(t, Confirmed, outcome)
	case <-time.After(time.Second):
		t.Fatal("waiter not released by signal")
	}
}

func TestHandshakeForceRelease(t *testing.T) {
	h := NewHandshake()

	resCh := make(chan WaitOutcome, 1)
	go func() {
		outcome, _ := h.Await(context.Background(), "s1", 5*time.Second)
		resCh <- outcome
	}()

	time.Sleep(20 * time.Millisecond)
	h.ForceRelease("s1")
	h.ForceRelease("s1") // idempotent

	select {
	case outcome := <-resCh:
		assert.Equal(t, Released, outcome)
	case <-time.After(time.Second):
		t.Fatal("waiter not released by teardown")
	}

	// Until the entry is dropped, further waits release immediately.
	outcome, err := h.Await(context.Background(), "s1", 5*time.Second)
	require.NoError(t, err)
	assert.Equal(t, Released, outcome)

	h.Drop("s1")
	outcome, err = h.Await(context.Background(), "s1", 10*time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, TimedOut, outcome)
}

func TestHandshakeForceReleaseUnknownID(t *testing.T) {
	h := NewHandshake()
	h.ForceRelease("unknown")
	h.Drop("unknown")
}

func TestHandshakeAwaitCancellation(t *testing.T) {
	h := NewHandshake()
	ctx, cancel := context.WithCancel(context.Background())

	errCh := make(chan error, 1)
	go func() {
		_, err := h.Await(ctx, "s1", 5*time.Second)
		errCh <- err
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-errCh:
		// Cancellation must surface as an error, not be absorbed as a timeout.
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("waiter not released by cancellation")
	}
}
