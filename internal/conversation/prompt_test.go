package conversation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAugmentPrompt(t *testing.T) {
	out := AugmentPrompt("You are a pirate.", 35)

	assert.True(t, strings.HasPrefix(out, "You are a pirate."))
	assert.Contains(t, out, "CONVERSATION STYLE:")
	assert.Contains(t, out, "AVOID:")
	assert.True(t, strings.HasSuffix(out, "Keep your responses to 35 words maximum."))
}

func TestAugmentPromptResponseLength(t *testing.T) {
	assert.Contains(t, AugmentPrompt("x", 80), "80 words maximum")
}
