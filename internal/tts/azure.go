package tts

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/babel-ai/dialogue-gateway/internal/metrics"
)

const outputFormat = "audio-24khz-48kbitrate-mono-mp3"

// Config holds the Azure speech service settings.
type Config struct {
	Key      string
	Endpoint string
	Dir      string // artifact directory
	PoolSize int
	Timeout  time.Duration
}

// Synthesizer renders text to compressed MP3 artifacts via the Azure speech
// REST API. Artifacts are written to a local directory and served to the
// client by URL; they are transient and purged on teardown and shutdown.
type Synthesizer struct {
	cfg          Config
	client       *http.Client
	shutdownOnce sync.Once
}

// NewSynthesizer creates a synthesizer and ensures the artifact directory
// exists. Key and Endpoint must be set.
func NewSynthesizer(cfg Config) (*Synthesizer, error) {
	if cfg.Key == "" || cfg.Endpoint == "" {
		return nil, fmt.Errorf("speech key and endpoint must be set")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.PoolSize <= 0 {
		cfg.PoolSize = 10
	}
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("create artifact dir: %w", err)
	}
	return &Synthesizer{
		cfg: cfg,
		client: &http.Client{
			Timeout: cfg.Timeout,
			Transport: &http.Transport{
				MaxIdleConns:        cfg.PoolSize,
				MaxIdleConnsPerHost: cfg.PoolSize,
				IdleConnTimeout:     90 * time.Second,
				ForceAttemptHTTP2:   true,
			},
		},
	}, nil
}

// Dir returns the artifact directory.
func (s *Synthesizer) Dir() string { return s.cfg.Dir }

// Synthesize renders text with the given voice key and speed multiplier and
// returns the artifact path. Empty text yields no artifact and no error.
// Single attempt; failures are returned to the caller to tolerate.
func (s *Synthesizer) Synthesize(ctx context.Context, text, voiceKey string, speed float64) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", nil
	}

	start := time.Now()
	ssml := buildSSML(text, VoiceName(voiceKey), speed)

	req, err := http.NewRequestWithContext(ctx, "POST", s.cfg.Endpoint+"/cognitiveservices/v1", strings.NewReader(ssml))
	if err != nil {
		return "", fmt.Errorf("create speech request: %w", err)
	}
	req.Header.Set("Ocp-Apim-Subscription-Key", s.cfg.Key)
	req.Header.Set("Content-Type", "application/ssml+xml")
	req.Header.Set("X-Microsoft-OutputFormat", outputFormat)

	resp, err := s.client.Do(req)
	if err != nil {
		metrics.Errors.WithLabelValues("tts", "http").Inc()
		return "", fmt.Errorf("speech request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		metrics.Errors.WithLabelValues("tts", "status").Inc()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("speech status %d: %s", resp.StatusCode, body)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read speech response: %w", err)
	}

	name := fmt.Sprintf("azure_%s_%d.mp3", voiceKey, time.Now().UnixMilli())
	path := filepath.Join(s.cfg.Dir, name)
	if err = os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write artifact: %w", err)
	}

	latency := time.Since(start)
	metrics.StageDuration.WithLabelValues("tts").Observe(latency.Seconds())
	slog.Debug("artifact synthesized", "path", name, "bytes", len(data), "tts_ms", latency.Milliseconds())

	return path, nil
}

// StopAll requests that in-flight synthesis stop. Best effort: the REST API
// has no server-side cancel, so this only logs; callers cancel their own
// request contexts.
func (s *Synthesizer) StopAll() {
	slog.Info("tts stop requested")
}

// PurgeArtifacts removes artifacts older than maxAge from the artifact
// directory. maxAge 0 removes everything. Best effort; failures are logged.
func (s *Synthesizer) PurgeArtifacts(maxAge time.Duration) {
	entries, err := os.ReadDir(s.cfg.Dir)
	if err != nil {
		slog.Warn("purge artifacts", "error", err)
		return
	}

	cutoff := time.Now().Add(-maxAge)
	for _, entry := range entries {
		if !isArtifact(entry.Name()) {
			continue
		}
		info, err := entry.Info()
		if err != nil || info.ModTime().After(cutoff) {
			continue
		}
		path := filepath.Join(s.cfg.Dir, entry.Name())
		if err = os.Remove(path); err != nil {
			slog.Warn("purge artifact", "path", path, "error", err)
		}
	}
}

// Shutdown purges all artifacts and closes idle connections. Called once at
// process exit.
func (s *Synthesizer) Shutdown() {
	s.shutdownOnce.Do(func() {
		s.PurgeArtifacts(0)
		s.client.CloseIdleConnections()
		slog.Info("tts shut down")
	})
}

func isArtifact(name string) bool {
	return strings.HasPrefix(name, "azure_") &&
		(strings.HasSuffix(name, ".mp3") || strings.HasSuffix(name, ".wav"))
}

// buildSSML wraps text in SSML with the voice and, when speed differs from
// 1.0, a prosody rate percentage (0.5 = -50%, 2.0 = +100%).
func buildSSML(text, voiceName string, speed float64) string {
	escaped := escapeXML(text)

	ratePercent := int((speed - 1.0) * 100)
	inner := escaped
	if ratePercent != 0 {
		inner = fmt.Sprintf(`<prosody rate="%+d%%">%s</prosody>`, ratePercent, escaped)
	}

	return fmt.Sprintf(
		`<speak version="1.0" xmlns="http://www.w3.org/2001/10/synthesis" xml:lang="en-US"><voice name="%s">%s</voice></speak>`,
		voiceName, inner,
	)
}

var xmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&apos;",
)

func escapeXML(s string) string {
	return xmlEscaper.Replace(s)
}
