package main

import (
	"time"

	"github.com/babel-ai/dialogue-gateway/internal/conversation"
	"github.com/babel-ai/dialogue-gateway/internal/env"
)

type config struct {
	port string

	azureOpenAIKey        string
	azureOpenAIEndpoint   string
	azureOpenAIDeployment string
	azureOpenAIAPIVersion string
	llmMaxTokens          int

	speechKey      string
	speechEndpoint string
	audioDir       string
	ttsPoolSize    int
	ttsTimeout     time.Duration

	maxConcurrentConns int
	traceDatabaseURL   string

	timings       conversation.Timings
	cleanupSettle time.Duration
}

func loadConfig() config {
	timings := conversation.DefaultTimings()
	timings.DeleteMargin = env.Duration("ARTIFACT_DELETE_MARGIN", timings.DeleteMargin)
	timings.AckMargin = env.Duration("PLAYBACK_ACK_MARGIN", timings.AckMargin)
	timings.Settle = env.Duration("TURN_SETTLE_DELAY", timings.Settle)

	return config{
		port:                  env.Str("GATEWAY_PORT", "8000"),
		azureOpenAIKey:        env.Str("AZURE_OPENAI_KEY", ""),
		azureOpenAIEndpoint:   env.Str("AZURE_OPENAI_ENDPOINT", ""),
		azureOpenAIDeployment: env.Str("AZURE_OPENAI_DEPLOYMENT", "gpt-4o-mini"),
		azureOpenAIAPIVersion: env.Str("AZURE_OPENAI_API_VERSION", "2024-02-01"),
		llmMaxTokens:          env.Int("LLM_MAX_TOKENS", 250),
		speechKey:             env.Str("SPEECH_KEY", ""),
		speechEndpoint:        env.Str("SPEECH_ENDPOINT", ""),
		audioDir:              env.Str("AUDIO_DIR", "voices"),
		ttsPoolSize:           env.Int("TTS_POOL_SIZE", 10),
		ttsTimeout:            env.Duration("TTS_TIMEOUT", 30*time.Second),
		maxConcurrentConns:    env.Int("MAX_CONCURRENT_CONNS", 100),
		traceDatabaseURL:      env.Str("TRACE_DATABASE_URL", ""),
		timings:               timings,
		cleanupSettle:         env.Duration("CLEANUP_SETTLE_DELAY", 200*time.Millisecond),
	}
}
