package conversation

// Sender delivers one outbound event to the client. Implementations must be
// safe for concurrent use; the websocket handler serializes writes.
type Sender func(event any)

// SpeakingEvent announces a turn's audio artifact. AudioURL is null when
// synthesis produced no artifact.
type SpeakingEvent struct {
	Type     string  `json:"type"`
	Entity   int     `json:"entity"`
	AudioURL *string `json:"audioUrl"`
	Text     string  `json:"text"`
}

// FinishedSpeakingEvent marks the end of a turn's playback window.
type FinishedSpeakingEvent struct {
	Type string `json:"type"`
}

// StoppedEvent acknowledges a completed stop request.
type StoppedEvent struct {
	Type string `json:"type"`
}

// ErrorEvent reports a validation failure, missing configuration, or
// unhandled error. The session is not left running after one is sent.
type ErrorEvent struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

func Speaking(entity int, audioURL *string, text string) SpeakingEvent {
	return SpeakingEvent{Type: "speaking", Entity: entity, AudioURL: audioURL, Text: text}
}

func FinishedSpeaking() FinishedSpeakingEvent {
	return FinishedSpeakingEvent{Type: "finished_speaking"}
}

func Stopped() StoppedEvent {
	return StoppedEvent{Type: "stopped"}
}

func Error(message string) ErrorEvent {
	return ErrorEvent{Type: "error", Message: message}
}
