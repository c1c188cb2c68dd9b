package session

import (
	"context"
	"sync"
	"time"
)

// WaitOutcome is the result of a playback handshake wait.
type WaitOutcome int

const (
	// Confirmed means the client acknowledged playback completion.
	Confirmed WaitOutcome = iota
	// TimedOut means no acknowledgment arrived within the timeout. This is
	// the designed fallback, not an error; the conversation proceeds.
	TimedOut
	// Released means teardown force-released the wait. The caller must not
	// emit further events for this session.
	Released
)

func (o WaitOutcome) String() string {
	switch o {
	case Confirmed:
		return "confirmed"
	case TimedOut:
		return "timed_out"
	case Released:
		return "released"
	}
	return "unknown"
}

type waitEntry struct {
	signal      chan struct{} // buffered 1: pending acks collapse to one
	released    chan struct{}
	releaseOnce sync.Once
}

// Handshake coordinates the audio-playback rendezvous between the
// orchestrator and the client. The orchestrator blocks in Await after
// emitting a speaking event; the connection handler calls Signal when the
// client reports playback finished.
//
// Entries are created lazily on first Await. A signal arriving between a
// speaking event and the following Await is buffered so the wait does not
// block; an ack for a session that has never waited is ignored.
type Handshake struct {
	mu      sync.Mutex
	entries map[string]*waitEntry
}

// NewHandshake creates an empty handshake coordinator.
func NewHandshake() *Handshake {
	return &Handshake{entries: make(map[string]*waitEntry)}
}

func (h *Handshake) entry(id string, create bool) *waitEntry {
	h.mu.Lock()
	defer h.mu.Unlock()
	e, ok := h.entries[id]
	if !ok && create {
		e = &waitEntry{
			signal:   make(chan struct{}, 1),
			released: make(chan struct{}),
		}
		h.entries[id] = e
	}
	return e
}

// Await blocks until the session's ack arrives, the timeout elapses, the wait
// is force-released, or ctx is cancelled. Cancellation is reported as an
// error so it propagates as task cancellation rather than being absorbed as
// a timeout. The orchestrator never issues two concurrent waits for one id.
func (h *Handshake) Await(ctx context.Context, id string, timeout time.Duration) (WaitOutcome, error) {
	e := h.entry(id, true)

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-e.signal:
		return Confirmed, nil
	case <-e.released:
		return Released, nil
	case <-timer.C:
		return TimedOut, nil
	case <-ctx.Done():
		return Released, ctx.Err()
	}
}

// Signal records a playback-finished ack. Idempotent and level-triggered:
// signals before a wait collapse to one pending ack. A signal for a session
// with no coordinator entry (never waited, or already torn down) is ignored.
func (h *Handshake) Signal(id string) {
	e := h.entry(id, false)
	if e == nil {
		return
	}
	select {
	case e.signal <- struct{}{}:
	default:
	}
}

// ForceRelease unblocks any current or future waiter for id. Used by
// teardown so no orchestrator stays suspended past cleanup. Safe to call
// repeatedly and for unknown ids.
func (h *Handshake) ForceRelease(id string) {
	e := h.entry(id, false)
	if e == nil {
		return
	}
	e.releaseOnce.Do(func() { close(e.released) })
}

// Drop removes the session's entry. A waiter that already holds the entry is
// unaffected; callers release it first via ForceRelease.
func (h *Handshake) Drop(id string) {
	h.mu.Lock()
	delete(h.entries, id)
	h.mu.Unlock()
}
