package conversation

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/babel-ai/dialogue-gateway/internal/audio"
	"github.com/babel-ai/dialogue-gateway/internal/metrics"
	"github.com/babel-ai/dialogue-gateway/internal/session"
	"github.com/babel-ai/dialogue-gateway/internal/trace"
)

const (
	// maxPromptLen caps each system prompt, counted in characters.
	maxPromptLen = 375

	// rounds bounds the main loop; together with the seed and the immediate
	// reply this yields at most 22 generated turns per conversation.
	rounds = 10
)

// Generator is the external text-generation collaborator. One synchronous
// call per turn, single attempt, no retry.
type Generator interface {
	Complete(ctx context.Context, system string, history []session.Turn, temperature, topP float64) (string, error)
}

// Synthesizer is the external speech-synthesis collaborator. Synthesize
// returns the artifact path, or "" with no error when there is nothing to
// render.
type Synthesizer interface {
	Synthesize(ctx context.Context, text, voiceKey string, speed float64) (string, error)
	StopAll()
	PurgeArtifacts(maxAge time.Duration)
}

// TurnTracer receives per-turn timing rows and the conversation's terminal
// status. Every Run call ends its trace exactly once, including the
// rejection paths that never start a turn loop.
type TurnTracer interface {
	RecordTurn(rec trace.TurnRecord)
	End(status string)
}

type noopTracer struct{}

func (noopTracer) RecordTurn(trace.TurnRecord) {}
func (noopTracer) End(string)                  {}

// Timings are the fixed margins and delays of the speak-and-wait procedure.
type Timings struct {
	// DeleteMargin is added to the playback estimate before the deferred
	// artifact deletion fires.
	DeleteMargin time.Duration
	// AckMargin is added to the playback estimate for the client-ack wait.
	AckMargin time.Duration
	// Settle is held after each turn for a clean client-side transition.
	Settle time.Duration
}

// DefaultTimings returns the production margins.
func DefaultTimings() Timings {
	return Timings{
		DeleteMargin: 5 * time.Second,
		AckMargin:    3 * time.Second,
		Settle:       100 * time.Millisecond,
	}
}

// StartRequest carries the validated, default-filled parameters of a start
// message. The websocket layer resolves optional fields before calling Run.
type StartRequest struct {
	System1, System2                 string
	Voice1, Voice2                   string
	Speed1, Speed2                   float64
	Temperature1, Temperature2       float64
	TopP1, TopP2                     float64
	ResponseLength1, ResponseLength2 int
}

type entityConfig struct {
	id          int
	system      string
	voice       string
	speed       float64
	temperature float64
	topP        float64
}

// Orchestrator drives one conversation per Run call: seed turn, immediate
// reply, then a bounded loop of alternating turns, each rendered to audio
// and gated on the client playback handshake.
type Orchestrator struct {
	Registry    *session.Registry
	Handshake   *session.Handshake
	Generator   Generator
	Synthesizer Synthesizer
	Cleaner     *Cleaner

	// AudioURLPrefix is prepended to artifact basenames in speaking events.
	AudioURLPrefix string

	Timings Timings

	// EstimateDuration overrides the artifact duration estimate in tests.
	EstimateDuration func(path string) time.Duration
}

// Run executes a full conversation for the session id. It validates inputs,
// registers the session, drives the turn loop, and always tears down through
// the cleaner regardless of which path terminated it. Cancellation of ctx
// stops the loop at the next suspension point.
func (o *Orchestrator) Run(ctx context.Context, id string, req StartRequest, send Sender, tr TurnTracer) {
	if tr == nil {
		tr = noopTracer{}
	}

	if msg := validatePrompts(req); msg != "" {
		send(Error(msg))
		tr.End("rejected")
		return
	}
	if o.Generator == nil {
		send(Error("Azure OpenAI credentials not found"))
		tr.End("rejected")
		return
	}

	sess, err := o.Registry.Create(id)
	if err != nil {
		send(Error("conversation already active"))
		tr.End("rejected")
		return
	}

	metrics.ConversationsActive.Inc()
	metrics.ConversationsTotal.Inc()

	status := "error"
	defer func() {
		if r := recover(); r != nil {
			slog.Error("conversation panicked", "session_id", id, "panic", r)
			metrics.Errors.WithLabelValues("conversation", "panic").Inc()
			if !sess.Stopped() {
				send(Error(fmt.Sprint(r)))
			}
		}
		tr.End(status)
		o.Cleaner.Cleanup(id)
		metrics.ConversationsActive.Dec()
		slog.Info("conversation ended", "session_id", id, "status", status)
	}()

	slog.Info("conversation started", "session_id", id, "voice1", req.Voice1, "voice2", req.Voice2)
	status = o.converse(ctx, sess, req, send, tr)
}

func validatePrompts(req StartRequest) string {
	switch {
	case req.System1 == "":
		return "System prompt 1 is required"
	case req.System2 == "":
		return "System prompt 2 is required"
	case utf8.RuneCountInString(req.System1) > maxPromptLen:
		return "System prompt 1 exceeds 375 character limit"
	case utf8.RuneCountInString(req.System2) > maxPromptLen:
		return "System prompt 2 exceeds 375 character limit"
	}
	return ""
}

func (o *Orchestrator) converse(ctx context.Context, sess *session.Session, req StartRequest, send Sender, tr TurnTracer) string {
	entities := [2]entityConfig{
		{id: 1, system: AugmentPrompt(req.System1, req.ResponseLength1), voice: req.Voice1, speed: req.Speed1, temperature: req.Temperature1, topP: req.TopP1},
		{id: 2, system: AugmentPrompt(req.System2, req.ResponseLength2), voice: req.Voice2, speed: req.Speed2, temperature: req.Temperature2, topP: req.TopP2},
	}

	// Seed: entity 1 opens from a synthetic user turn built on its own prompt.
	seedHistory := []session.Turn{{
		Role:    "user",
		Content: "Make a first response based on your system prompt: " + entities[0].system,
	}}
	if err := o.takeTurn(ctx, sess, entities[0], seedHistory, send, tr); err != nil {
		return "cancelled"
	}
	if sess.Stopped() {
		return "stopped"
	}

	// Immediate reply from entity 2.
	if err := o.takeTurn(ctx, sess, entities[1], sess.HistoryFor(2), send, tr); err != nil {
		return "cancelled"
	}

	for i := 0; i < rounds; i++ {
		if sess.Stopped() {
			return "stopped"
		}
		if err := o.takeTurn(ctx, sess, entities[0], sess.HistoryFor(1), send, tr); err != nil {
			return "cancelled"
		}
		if sess.Stopped() {
			return "stopped"
		}
		if err := o.takeTurn(ctx, sess, entities[1], sess.HistoryFor(2), send, tr); err != nil {
			return "cancelled"
		}
	}

	if sess.Stopped() {
		return "stopped"
	}
	return "completed"
}

// takeTurn generates one utterance for the entity and runs speak-and-wait.
// A failed or empty generation skips the speak step; the conversation
// continues with a silent turn. Only cancellation propagates as an error.
func (o *Orchestrator) takeTurn(ctx context.Context, sess *session.Session, ent entityConfig, history []session.Turn, send Sender, tr TurnTracer) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if sess.Stopped() {
		return nil
	}

	rec := trace.TurnRecord{Entity: ent.id, StartedAt: time.Now()}

	genStart := time.Now()
	text, err := o.Generator.Complete(ctx, ent.system, history, ent.temperature, ent.topP)
	rec.GenerationMs = float64(time.Since(genStart).Milliseconds())
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		slog.Warn("generation failed, skipping turn", "session_id", sess.ID, "entity", ent.id, "error", err)
		rec.Status = "generation_failed"
		tr.RecordTurn(rec)
		return nil
	}

	text = strings.TrimSpace(text)
	if text == "" {
		slog.Warn("empty generation, skipping turn", "session_id", sess.ID, "entity", ent.id)
		rec.Status = "empty"
		tr.RecordTurn(rec)
		return nil
	}

	sess.Record(ent.id, text)
	metrics.TurnsTotal.WithLabelValues(strconv.Itoa(ent.id)).Inc()

	err = o.speakAndWait(ctx, sess, ent, text, send, &rec)
	if rec.Status == "" {
		rec.Status = "ok"
	}
	tr.RecordTurn(rec)
	return err
}

// speakAndWait renders the turn to audio, announces it, and blocks until the
// client confirms playback or the timeout elapses. A timeout is a normal
// outcome. Cancellation while suspended here deletes the unconsumed artifact
// and propagates upward.
func (o *Orchestrator) speakAndWait(ctx context.Context, sess *session.Session, ent entityConfig, text string, send Sender, rec *trace.TurnRecord) error {
	if sess.Stopped() {
		return nil
	}

	synthStart := time.Now()
	artifact, err := o.Synthesizer.Synthesize(ctx, text, ent.voice, ent.speed)
	rec.SynthesisMs = float64(time.Since(synthStart).Milliseconds())
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		// Tolerated: the speaking event carries a null audio reference.
		slog.Error("synthesis failed", "session_id", sess.ID, "entity", ent.id, "error", err)
		rec.Status = "synthesis_failed"
		artifact = ""
	}

	// Stopped while synthesis was in flight: discard the artifact, say nothing.
	if sess.Stopped() {
		o.removeArtifact(artifact)
		return nil
	}

	var audioURL *string
	if artifact != "" {
		u := path.Join(o.AudioURLPrefix, filepath.Base(artifact))
		audioURL = &u
		if info, statErr := os.Stat(artifact); statErr == nil {
			rec.AudioBytes = info.Size()
		}
	}
	send(Speaking(ent.id, audioURL, text))

	if artifact != "" {
		duration := o.estimate(artifact)
		o.scheduleDelete(artifact, duration+o.Timings.DeleteMargin)

		outcome, waitErr := o.Handshake.Await(ctx, sess.ID, duration+o.Timings.AckMargin)
		if waitErr != nil {
			o.removeArtifact(artifact)
			return waitErr
		}
		rec.Outcome = outcome.String()
		metrics.HandshakeOutcomes.WithLabelValues(outcome.String()).Inc()
		if outcome == session.Released {
			// Teardown owns the session now; emit nothing further.
			return nil
		}
	}

	if !sess.Stopped() {
		send(FinishedSpeaking())
	}
	return o.settle(ctx)
}

func (o *Orchestrator) estimate(artifact string) time.Duration {
	if o.EstimateDuration != nil {
		return o.EstimateDuration(artifact)
	}
	return audio.EstimateDuration(artifact)
}

// scheduleDelete removes the artifact after the playback window plus margin.
// Fire-and-forget with its own failure isolation: a failed deletion never
// affects the turn loop, and teardown purges may get there first.
func (o *Orchestrator) scheduleDelete(artifact string, delay time.Duration) {
	time.AfterFunc(delay, func() {
		if err := os.Remove(artifact); err != nil {
			if !os.IsNotExist(err) {
				slog.Warn("deferred artifact delete", "path", artifact, "error", err)
			}
			return
		}
		metrics.ArtifactsDeleted.Inc()
	})
}

func (o *Orchestrator) removeArtifact(artifact string) {
	if artifact == "" {
		return
	}
	if err := os.Remove(artifact); err != nil && !os.IsNotExist(err) {
		slog.Warn("remove artifact", "path", artifact, "error", err)
	}
}

func (o *Orchestrator) settle(ctx context.Context) error {
	if o.Timings.Settle <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(o.Timings.Settle)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
