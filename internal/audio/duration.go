package audio

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-audio/wav"
)

const (
	// mp3BytesPerSecond matches the synthesizer's 48 kbps output format.
	mp3BytesPerSecond = 6000

	// FallbackDuration is used when the artifact cannot be inspected.
	FallbackDuration = 5 * time.Second
)

// EstimateDuration returns the expected playback time of an audio artifact.
// MP3 files are estimated from byte size at the fixed synthesis bitrate; WAV
// files are decoded for their real duration. The result is an approximation
// used only to schedule the client-ack timeout and deferred deletion, not a
// precise media property. Unknown formats and read failures fall back to a
// fixed constant.
func EstimateDuration(path string) time.Duration {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".mp3":
		info, err := os.Stat(path)
		if err != nil {
			return FallbackDuration
		}
		return time.Duration(float64(info.Size()) / mp3BytesPerSecond * float64(time.Second))
	case ".wav":
		return wavDuration(path)
	default:
		return FallbackDuration
	}
}

func wavDuration(path string) time.Duration {
	f, err := os.Open(path)
	if err != nil {
		return FallbackDuration
	}
	defer f.Close()

	d, err := wav.NewDecoder(f).Duration()
	if err != nil || d <= 0 {
		return FallbackDuration
	}
	return d
}
