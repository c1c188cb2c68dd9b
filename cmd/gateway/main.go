package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/babel-ai/dialogue-gateway/internal/conversation"
	"github.com/babel-ai/dialogue-gateway/internal/llm"
	"github.com/babel-ai/dialogue-gateway/internal/session"
	"github.com/babel-ai/dialogue-gateway/internal/trace"
	"github.com/babel-ai/dialogue-gateway/internal/tts"
	"github.com/babel-ai/dialogue-gateway/internal/ws"
)

func main() {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})))

	cfg := loadConfig()

	synth, err := tts.NewSynthesizer(tts.Config{
		Key:      cfg.speechKey,
		Endpoint: cfg.speechEndpoint,
		Dir:      cfg.audioDir,
		PoolSize: cfg.ttsPoolSize,
		Timeout:  cfg.ttsTimeout,
	})
	if err != nil {
		slog.Error("tts init failed", "error", err)
		os.Exit(1)
	}

	// Nil when credentials are absent; each start then reports a
	// configuration error instead of generating.
	generator := llm.NewClient(llm.Config{
		Key:        cfg.azureOpenAIKey,
		Endpoint:   cfg.azureOpenAIEndpoint,
		Deployment: cfg.azureOpenAIDeployment,
		APIVersion: cfg.azureOpenAIAPIVersion,
		MaxTokens:  cfg.llmMaxTokens,
	})
	if generator == nil {
		slog.Warn("azure openai credentials not set, conversations will fail at start")
	}

	var traceStore *trace.Store
	if cfg.traceDatabaseURL != "" {
		traceStore, err = trace.Open(cfg.traceDatabaseURL)
		if err != nil {
			slog.Warn("trace store disabled", "error", err)
		} else {
			defer traceStore.Close()
			slog.Info("trace store enabled")
		}
	}

	registry := session.NewRegistry()
	handshake := session.NewHandshake()
	supervisor := session.NewSupervisor()

	cleaner := &conversation.Cleaner{
		Registry:    registry,
		Handshake:   handshake,
		Supervisor:  supervisor,
		Synthesizer: synth,
		Settle:      cfg.cleanupSettle,
	}

	orch := &conversation.Orchestrator{
		Registry:       registry,
		Handshake:      handshake,
		Synthesizer:    synth,
		Cleaner:        cleaner,
		AudioURLPrefix: "/audio/",
		Timings:        cfg.timings,
	}
	if generator != nil {
		orch.Generator = generator
	}

	handler := ws.NewHandler(ws.HandlerConfig{
		Orchestrator:  orch,
		Cleaner:       cleaner,
		Supervisor:    supervisor,
		Handshake:     handshake,
		TraceStore:    traceStore,
		MaxConcurrent: cfg.maxConcurrentConns,
	})

	mux := http.NewServeMux()
	registerRoutes(mux, deps{
		wsHandler:  handler,
		audioDir:   synth.Dir(),
		traceStore: traceStore,
	})

	addr := ":" + cfg.port
	srv := &http.Server{Addr: addr, Handler: mux}

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigCh
		slog.Info("shutting down", "signal", sig)

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		srv.Shutdown(ctx)

		synth.Shutdown()
	}()

	slog.Info("gateway starting", "addr", addr, "max_concurrent", cfg.maxConcurrentConns)

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}

	synth.Shutdown()
	slog.Info("gateway stopped")
}
