package session

import (
	"context"
	"sync"
)

type task struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// Supervisor owns at most one running conversation task per session id.
// Starting a new task cancels and awaits the previous one, so two tasks can
// never mutate the same session concurrently.
type Supervisor struct {
	mu    sync.Mutex
	tasks map[string]*task
}

// NewSupervisor creates an empty task supervisor.
func NewSupervisor() *Supervisor {
	return &Supervisor{tasks: make(map[string]*task)}
}

// Start replaces any running task for id with a new one executing run. It
// blocks until the previous task (if any) has fully unwound, including its
// cleanup, before the new task is registered and launched.
func (s *Supervisor) Start(id string, run func(ctx context.Context)) {
	s.CancelAndWait(id)

	ctx, cancel := context.WithCancel(context.Background())
	t := &task{cancel: cancel, done: make(chan struct{})}

	s.mu.Lock()
	s.tasks[id] = t
	s.mu.Unlock()

	go func() {
		defer close(t.done)
		defer s.unregister(id, t)
		defer cancel()
		run(ctx)
	}()
}

// CancelAndWait cancels the registered task for id and blocks until it has
// terminated. No-op if none is registered.
func (s *Supervisor) CancelAndWait(id string) {
	s.mu.Lock()
	t := s.tasks[id]
	s.mu.Unlock()
	if t == nil {
		return
	}
	t.cancel()
	<-t.done
}

// Forget drops the bookkeeping entry for id without cancelling. Teardown
// calls this; it may run inside the task's own finalizer, which must not
// self-cancel.
func (s *Supervisor) Forget(id string) {
	s.mu.Lock()
	delete(s.tasks, id)
	s.mu.Unlock()
}

// Running reports whether a task is currently registered for id.
func (s *Supervisor) Running(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tasks[id] != nil
}

// unregister removes the entry only if it still refers to t, so a finished
// task cannot evict its successor.
func (s *Supervisor) unregister(id string, t *task) {
	s.mu.Lock()
	if s.tasks[id] == t {
		delete(s.tasks, id)
	}
	s.mu.Unlock()
}
