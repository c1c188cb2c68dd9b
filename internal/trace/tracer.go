package trace

import (
	"log/slog"
	"time"

	"github.com/google/uuid"
)

type traceMsg struct {
	kind   string // "turn", "end"
	turn   TurnRecord
	turns  int
	status string
}

// Tracer writes one conversation's trace rows asynchronously via a buffered
// channel so the turn loop never blocks on the database. All methods are
// nil-safe (no-op on nil receiver), which is how tracing is disabled.
type Tracer struct {
	store          *Store
	conversationID string
	turns          int
	ch             chan traceMsg
	done           chan struct{}
}

// NewTracer creates a tracer bound to a conversation, or nil when store is
// nil. Callers must Close it when the conversation ends.
func NewTracer(store *Store, conversationID string) *Tracer {
	if store == nil {
		return nil
	}
	t := &Tracer{
		store:          store,
		conversationID: conversationID,
		ch:             make(chan traceMsg, 64),
		done:           make(chan struct{}),
	}
	if err := store.CreateConversation(conversationID); err != nil {
		slog.Warn("trace create conversation", "error", err)
	}
	go t.loop()
	return t
}

// RecordTurn enqueues a turn timing row.
func (t *Tracer) RecordTurn(rec TurnRecord) {
	if t == nil {
		return
	}
	t.turns++
	rec.ID = uuid.NewString()
	rec.ConversationID = t.conversationID
	if rec.StartedAt.IsZero() {
		rec.StartedAt = time.Now()
	}
	t.enqueue(traceMsg{kind: "turn", turn: rec})
}

// End enqueues the terminal conversation update.
func (t *Tracer) End(status string) {
	if t == nil {
		return
	}
	t.enqueue(traceMsg{kind: "end", turns: t.turns, status: status})
}

// Close drains pending writes and stops the writer goroutine.
func (t *Tracer) Close() {
	if t == nil {
		return
	}
	close(t.ch)
	<-t.done
}

func (t *Tracer) enqueue(msg traceMsg) {
	select {
	case t.ch <- msg:
	default:
		slog.Warn("trace buffer full, dropping", "kind", msg.kind)
	}
}

func (t *Tracer) loop() {
	defer close(t.done)
	for msg := range t.ch {
		var err error
		switch msg.kind {
		case "turn":
			err = t.store.CreateTurn(msg.turn)
		case "end":
			err = t.store.EndConversation(t.conversationID, msg.turns, msg.status)
		}
		if err != nil {
			slog.Warn("trace write", "kind", msg.kind, "error", err)
		}
	}
}
