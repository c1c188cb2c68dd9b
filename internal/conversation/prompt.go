package conversation

import "fmt"

// styleInstructions steer both entities toward natural spoken conversation
// instead of formal debate. Appended to every system prompt.
const styleInstructions = `

CONVERSATION STYLE:
- Engage naturally like a real human in casual conversation
- React emotionally and personally to what the other person says
- Use conversational flow: ask questions, make observations, share thoughts
- Show curiosity, agreement, disagreement, surprise, or other natural reactions
- Build on previous points rather than just stating new arguments
- Use "I think...", "That's interesting...", "Wait, but...", "You know what..." etc.
- Include conversational fillers and natural speech patterns
- Show personality and individual perspective
- Sometimes go off on tangents or bring up related points
- React to the other person's tone and adjust accordingly

AVOID:
- Formal debate structure or academic presentations
- Simply stating facts without personal reaction
- Ignoring what the other person just said
- Being overly polite or robotic
- Starting every response the same way`

// AugmentPrompt appends the conversation-style block and a response-length
// ceiling to a system prompt before it is sent to the generation service.
func AugmentPrompt(system string, responseLength int) string {
	return fmt.Sprintf("%s%s\n\nKeep your responses to %d words maximum.", system, styleInstructions, responseLength)
}
