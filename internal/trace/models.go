package trace

import "time"

// Conversation is one traced session: timing and status only, no utterance
// text (transcripts live only in process memory).
type Conversation struct {
	ID        string     `json:"id"`
	StartedAt time.Time  `json:"started_at"`
	EndedAt   *time.Time `json:"ended_at,omitempty"`
	Turns     int        `json:"turns"`
	Status    string     `json:"status"`
}

// TurnRecord is the per-turn timing row.
type TurnRecord struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversation_id"`
	Entity         int       `json:"entity"`
	GenerationMs   float64   `json:"generation_ms"`
	SynthesisMs    float64   `json:"synthesis_ms"`
	AudioBytes     int64     `json:"audio_bytes"`
	Outcome        string    `json:"outcome"`
	Status         string    `json:"status"`
	StartedAt      time.Time `json:"started_at"`
}
