package audio

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEstimateDurationMP3(t *testing.T) {
	// 12000 bytes at the fixed 48 kbps synthesis bitrate is two seconds.
	path := filepath.Join(t.TempDir(), "azure_Brian_1.mp3")
	require.NoError(t, os.WriteFile(path, make([]byte, 12000), 0o644))

	assert.Equal(t, 2*time.Second, EstimateDuration(path))
}

func TestEstimateDurationMissingFile(t *testing.T) {
	assert.Equal(t, FallbackDuration, EstimateDuration(filepath.Join(t.TempDir(), "gone.mp3")))
}

func TestEstimateDurationUnknownFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "artifact.ogg")
	require.NoError(t, os.WriteFile(path, make([]byte, 60000), 0o644))

	assert.Equal(t, FallbackDuration, EstimateDuration(path))
}

func TestEstimateDurationCorruptWAV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "azure_Brian_1.wav")
	require.NoError(t, os.WriteFile(path, []byte("not a wav file"), 0o644))

	assert.Equal(t, FallbackDuration, EstimateDuration(path))
}
