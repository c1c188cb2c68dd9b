package conversation

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/babel-ai/dialogue-gateway/internal/session"
)

type countingSynthesizer struct {
	stops  atomic.Int32
	purges atomic.Int32
}

func (s *countingSynthesizer) Synthesize(ctx context.Context, text, voiceKey string, speed float64) (string, error) {
	return "", nil
}

func (s *countingSynthesizer) StopAll() { s.stops.Add(1) }

func (s *countingSynthesizer) PurgeArtifacts(maxAge time.Duration) { s.purges.Add(1) }

func newTestCleaner(synth Synthesizer) (*Cleaner, *session.Registry, *session.Handshake) {
	registry := session.NewRegistry()
	handshake := session.NewHandshake()
	return &Cleaner{
		Registry:    registry,
		Handshake:   handshake,
		Supervisor:  session.NewSupervisor(),
		Synthesizer: synth,
	}, registry, handshake
}

func TestCleanupClearsSessionState(t *testing.T) {
	synth := &countingSynthesizer{}
	c, registry, _ := newTestCleaner(synth)

	_, err := registry.Create("s1")
	require.NoError(t, err)

	c.Cleanup("s1")

	assert.True(t, registry.IsStopped("s1"))
	_, err = registry.Create("s1")
	assert.NoError(t, err, "cleanup must leave the id free for a new conversation")
	assert.Equal(t, int32(1), synth.stops.Load())
	assert.Equal(t, int32(1), synth.purges.Load())
}

func TestCleanupIdempotent(t *testing.T) {
	c, registry, _ := newTestCleaner(&countingSynthesizer{})

	_, err := registry.Create("s1")
	require.NoError(t, err)

	c.Cleanup("s1")
	c.Cleanup("s1")
	c.Cleanup("unknown")
}

func TestCleanupConcurrent(t *testing.T) {
	c, registry, _ := newTestCleaner(&countingSynthesizer{})

	_, err := registry.Create("s1")
	require.NoError(t, err)

	// The stop handler and the conversation's own finalizer race here.
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.Cleanup("s1")
		}()
	}
	wg.Wait()

	assert.True(t, registry.IsStopped("s1"))
}

func TestCleanupReleasesBlockedWaiter(t *testing.T) {
	c, _, handshake := newTestCleaner(&countingSynthesizer{})

	resCh := make(chan session.WaitOutcome, 1)
	go func() {
		outcome, _ := handshake.Await(context.Background(), "s1", 5*time.Second)
		resCh <- outcome
	}()

	time.Sleep(20 * time.Millisecond)
	c.Cleanup("s1")

	select {
	case outcome := <-resCh:
		assert.Equal(t, session.Released, outcome)
	case <-time.After(time.Second):
		t.Fatal("cleanup did not release the blocked waiter")
	}
}

func TestCleanupWithoutSynthesizer(t *testing.T) {
	c, _, _ := newTestCleaner(nil)
	c.Cleanup("s1")
}
