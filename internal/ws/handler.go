package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/babel-ai/dialogue-gateway/internal/conversation"
	"github.com/babel-ai/dialogue-gateway/internal/session"
	"github.com/babel-ai/dialogue-gateway/internal/trace"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// HandlerConfig holds the shared components for all dialogue sessions.
type HandlerConfig struct {
	Orchestrator  *conversation.Orchestrator
	Cleaner       *conversation.Cleaner
	Supervisor    *session.Supervisor
	Handshake     *session.Handshake
	TraceStore    *trace.Store
	MaxConcurrent int
}

// Handler manages websocket dialogue sessions with admission control. Each
// connection owns exactly one session id; all control messages for that
// session are dispatched sequentially from the connection's read loop.
type Handler struct {
	cfg HandlerConfig
	sem chan struct{}
}

// NewHandler creates a websocket handler with a concurrency limit.
func NewHandler(cfg HandlerConfig) *Handler {
	maxConc := cfg.MaxConcurrent
	if maxConc <= 0 {
		maxConc = 100
	}
	return &Handler{
		cfg: cfg,
		sem: make(chan struct{}, maxConc),
	}
}

// ServeHTTP upgrades the connection and runs the control loop.
// Returns 503 at max concurrent capacity.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	select {
	case h.sem <- struct{}{}:
		defer func() { <-h.sem }()
	default:
		http.Error(w, "at capacity", http.StatusServiceUnavailable)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	h.runSession(conn)
}

func (h *Handler) runSession(conn *websocket.Conn) {
	id := uuid.NewString()
	send := newEventSender(conn)

	slog.Info("client connected", "session_id", id)

	// Disconnect tears down exactly like an explicit stop, minus the ack.
	defer func() {
		h.cfg.Supervisor.CancelAndWait(id)
		h.cfg.Cleaner.Cleanup(id)
		slog.Info("client disconnected", "session_id", id)
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}

		var msg clientMessage
		if err = json.Unmarshal(data, &msg); err != nil {
			slog.Warn("malformed control message", "session_id", id, "error", err)
			continue
		}

		switch msg.Type {
		case "start":
			h.handleStart(id, &msg, send)
		case "stop":
			h.cfg.Supervisor.CancelAndWait(id)
			h.cfg.Cleaner.Cleanup(id)
			send(conversation.Stopped())
		case "audio_finished":
			h.cfg.Handshake.Signal(id)
		default:
			slog.Warn("unknown message type", "session_id", id, "type", msg.Type)
		}
	}
}

// handleStart replaces any running conversation for this session: cancel and
// await the previous task, clear stale state, then launch the new one. The
// new task must not begin before the old one has fully unwound.
func (h *Handler) handleStart(id string, msg *clientMessage, send conversation.Sender) {
	h.cfg.Supervisor.CancelAndWait(id)
	h.cfg.Cleaner.Cleanup(id)

	req := msg.startRequest()
	tr := trace.NewTracer(h.cfg.TraceStore, id)

	h.cfg.Supervisor.Start(id, func(ctx context.Context) {
		defer tr.Close()
		h.cfg.Orchestrator.Run(ctx, id, req, send, tr)
	})
}

// newEventSender returns a mutex-guarded writer. Write errors are ignored
// beyond a debug log: the connection may already be closed while the
// orchestrator unwinds.
func newEventSender(conn *websocket.Conn) conversation.Sender {
	var mu sync.Mutex
	return func(event any) {
		mu.Lock()
		defer mu.Unlock()
		if err := conn.WriteJSON(event); err != nil {
			slog.Debug("write event", "error", err)
		}
	}
}
