package ws

import "github.com/babel-ai/dialogue-gateway/internal/conversation"

// clientMessage is the union of all control messages read from the socket,
// discriminated by Type. Optional numeric fields are pointers so an explicit
// zero survives default resolution.
type clientMessage struct {
	Type string `json:"type"`

	// start fields
	System1         string   `json:"system1"`
	System2         string   `json:"system2"`
	Voice1          string   `json:"voice1"`
	Voice2          string   `json:"voice2"`
	Speed1          *float64 `json:"speed1"`
	Speed2          *float64 `json:"speed2"`
	Temperature1    *float64 `json:"temperature1"`
	Temperature2    *float64 `json:"temperature2"`
	TopP1           *float64 `json:"topP1"`
	TopP2           *float64 `json:"topP2"`
	ResponseLength1 *int     `json:"responseLength1"`
	ResponseLength2 *int     `json:"responseLength2"`
}

const (
	defaultVoice1         = "Brian"
	defaultVoice2         = "Ava"
	defaultSpeed          = 1.0
	defaultTemperature    = 0.7
	defaultTopP           = 1.0
	defaultResponseLength = 35
)

// startRequest resolves optional fields to their defaults.
func (m *clientMessage) startRequest() conversation.StartRequest {
	return conversation.StartRequest{
		System1:         m.System1,
		System2:         m.System2,
		Voice1:          strOr(m.Voice1, defaultVoice1),
		Voice2:          strOr(m.Voice2, defaultVoice2),
		Speed1:          floatOr(m.Speed1, defaultSpeed),
		Speed2:          floatOr(m.Speed2, defaultSpeed),
		Temperature1:    floatOr(m.Temperature1, defaultTemperature),
		Temperature2:    floatOr(m.Temperature2, defaultTemperature),
		TopP1:           floatOr(m.TopP1, defaultTopP),
		TopP2:           floatOr(m.TopP2, defaultTopP),
		ResponseLength1: intOr(m.ResponseLength1, defaultResponseLength),
		ResponseLength2: intOr(m.ResponseLength2, defaultResponseLength),
	}
}

func strOr(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

func floatOr(v *float64, fallback float64) float64 {
	if v == nil {
		return fallback
	}
	return *v
}

func intOr(v *int, fallback int) int {
	if v == nil {
		return fallback
	}
	return *v
}
