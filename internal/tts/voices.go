package tts

import "sort"

// voiceNames maps client-facing voice keys to Azure neural voice names.
var voiceNames = map[string]string{
	"entity1": "en-US-ChristopherMultilingualNeural",
	"entity2": "en-US-CoraMultilingualNeural",

	"Adam":        "en-US-AdamMultilingualNeural",
	"Alloy":       "en-US-AlloyTurboMultilingualNeural",
	"Amanda":      "en-US-AmandaMultilingualNeural",
	"Andrew":      "en-US-AndrewMultilingualNeural",
	"Ava":         "en-US-AvaMultilingualNeural",
	"Brandon":     "en-US-BrandonMultilingualNeural",
	"Brian":       "en-US-BrianMultilingualNeural",
	"Christopher": "en-US-ChristopherMultilingualNeural",
	"Cora":        "en-US-CoraMultilingualNeural",
	"Davis":       "en-US-DavisMultilingualNeural",
	"Derek":       "en-US-DerekMultilingualNeural",
	"Dustin":      "en-US-DustinMultilingualNeural",
	"Echo":        "en-US-EchoTurboMultilingualNeural",
	"Emma":        "en-US-EmmaMultilingualNeural",
	"Evelyn":      "en-US-EvelynMultilingualNeural",
	"Fable":       "en-US-FableTurboMultilingualNeural",
	"Jenny":       "en-US-JennyMultilingualNeural",
	"Lewis":       "en-US-LewisMultilingualNeural",
	"Lola":        "en-US-LolaMultilingualNeural",
	"Nancy":       "en-US-NancyMultilingualNeural",
	"Nova":        "en-US-NovaTurboMultilingualNeural",
	"Onyx":        "en-US-OnyxTurboMultilingualNeural",
	"Phoebe":      "en-US-PhoebeMultilingualNeural",
	"Ryan":        "en-US-RyanMultilingualNeural",
	"Samuel":      "en-US-SamuelMultilingualNeural",
	"Serena":      "en-US-SerenaMultilingualNeural",
	"Shimmer":     "en-US-ShimmerTurboMultilingualNeural",
	"Steffan":     "en-US-SteffanMultilingualNeural",
}

// VoiceName resolves a voice key to its Azure voice name, defaulting to the
// entity1 voice for unknown keys.
func VoiceName(key string) string {
	if name, ok := voiceNames[key]; ok {
		return name
	}
	return voiceNames["entity1"]
}

// VoiceKeys returns the available voice keys in sorted order.
func VoiceKeys() []string {
	keys := make([]string, 0, len(voiceNames))
	for k := range voiceNames {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
