package synthesis

import (
	"fmt"
	"strings"

	"mirrorme/internal/personality"
	"mirrorme/internal/types"
)

// =============================================================================
// PROMPT CONSTRUCTION
// =============================================================================

// systemPrompt frames every generation call.
const systemPrompt = "You are responding as the user's digital twin. Match their exact communication style, humor, and personality."

// maxExemplars caps how many retrieved exemplars are included in a prompt.
const maxExemplars = 3

// moodModifiers maps each mood to its prompt instruction. MoodDefault adds
// nothing.
var moodModifiers = map[types.Mood]string{
	types.MoodDefault:      "",
	types.MoodEnergetic:    "Be more enthusiastic and high-energy in your response. ",
	types.MoodSavage:       "Be more sarcastic and witty. Don't hold back. ",
	types.MoodUnhinged:     "Be chaotic and unpredictable. Embrace the chaos. ",
	types.MoodProfessional: "Be more formal and business-like. ",
	types.MoodCasual:       "Be more relaxed and informal. ",
}

// moodInstruction returns the persona preamble for a mood. Unrecognized
// moods fall back to the default instruction.
func moodInstruction(mood types.Mood) string {
	base := "You are responding as the user's digital twin. "
	return base + moodModifiers[mood]
}

// BuildPrompt assembles the generation prompt from mood, profile traits,
// retrieved exemplars, context, and input. Identical inputs always yield
// identical prompt bytes; any variability comes from the generation call,
// never from prompt construction.
func BuildPrompt(mood types.Mood, profile personality.Profile, exemplars []string, context, input string) string {
	if len(exemplars) > maxExemplars {
		exemplars = exemplars[:maxExemplars]
	}

	emojiUsage := "Occasional"
	if profile.EmojiPreference.FrequentUser {
		emojiUsage = "Frequent"
	}

	var b strings.Builder
	b.WriteString(moodInstruction(mood))
	b.WriteString("\n\n")
	b.WriteString("Your communication style:\n")
	fmt.Fprintf(&b, "- Primary humor: %s\n", profile.Humor.Primary)
	fmt.Fprintf(&b, "- Formality level: %s\n", profile.Formality.Primary)
	fmt.Fprintf(&b, "- Energy level: %s\n", profile.Energy.Primary)
	fmt.Fprintf(&b, "- Emoji usage: %s\n", emojiUsage)
	b.WriteString("\nExample responses in your style:\n")
	b.WriteString(strings.Join(exemplars, "\n"))
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "Context: %s\n\n", context)
	fmt.Fprintf(&b, "Input: %s\n\n", input)
	b.WriteString("Respond in your authentic style:")

	return b.String()
}
