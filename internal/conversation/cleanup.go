package conversation

import (
	"time"

	"github.com/babel-ai/dialogue-gateway/internal/session"
)

// Cleaner tears down all per-session state. Idempotent and safe to invoke
// concurrently for the same id: the stop handler and the orchestrator's own
// finalizer are expected to race.
type Cleaner struct {
	Registry    *session.Registry
	Handshake   *session.Handshake
	Supervisor  *session.Supervisor
	Synthesizer Synthesizer

	// Settle is held after teardown so a back-to-back start does not race
	// the filesystem and connection state this cleanup just mutated.
	Settle time.Duration
}

// Cleanup clears registry and handshake entries, releases any blocked wait,
// drops supervisor bookkeeping (without self-cancelling; this may run inside
// the task's own finalizer), best-effort-stops in-flight synthesis, and
// purges resident artifacts.
func (c *Cleaner) Cleanup(id string) {
	c.Registry.MarkStopped(id)
	c.Registry.Remove(id)

	c.Handshake.ForceRelease(id)
	c.Handshake.Drop(id)

	c.Supervisor.Forget(id)

	if c.Synthesizer != nil {
		c.Synthesizer.StopAll()
		c.Synthesizer.PurgeArtifacts(0)
	}

	time.Sleep(c.Settle)
}
