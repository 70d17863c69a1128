// Package personality builds and serves the trained personality model:
// per-sample trait annotation, trait aggregation into a profile, writing
// style statistics, and the single-writer/multi-reader profile store.
package personality

import (
	"regexp"
	"strings"

	"mirrorme/internal/types"
)

// =============================================================================
// TRAIT INDICATOR TABLES
// =============================================================================

// indicator lists are matched as case-insensitive substrings of the sample.
var humorIndicators = map[string][]string{
	"sarcastic": {"lol", "haha", "😂", "😅", "😆", "sarcasm", "obviously", "duh"},
	"wholesome": {"❤️", "💕", "😊", "aww", "cute", "sweet", "lovely"},
	"dark":      {"💀", "😈", "😱", "horror", "scary", "death"},
	"absurdist": {"🤪", "😵‍💫", "random", "wtf", "what", "why"},
}

var formalityIndicators = map[string][]string{
	"casual":       {"hey", "hi", "yo", "sup", "cool", "awesome", "nice"},
	"formal":       {"sincerely", "regards", "dear", "please", "thank you"},
	"professional": {"regarding", "furthermore", "consequently", "therefore"},
}

var energyIndicators = map[string][]string{
	"high":    {"!!!", "🔥", "💯", "amazing", "incredible", "wow"},
	"low":     {"...", "meh", "whatever", "okay", "fine"},
	"chaotic": {"😵‍💫", "🤯", "💥", "explosion", "chaos", "random"},
}

// humorOrder etc. fix iteration order so ties resolve deterministically.
var (
	humorOrder     = []string{"sarcastic", "wholesome", "dark", "absurdist"}
	formalityOrder = []string{"casual", "formal", "professional"}
	energyOrder    = []string{"high", "low", "chaotic"}
)

var (
	capsRunPattern = regexp.MustCompile(`[A-Z]{3,}`)
	emojiPattern   = regexp.MustCompile(`[\x{1F600}-\x{1F64F}\x{1F300}-\x{1F5FF}\x{1F680}-\x{1F6FF}\x{1F1E0}-\x{1F1FF}\x{2600}-\x{27BF}]`)
)

// Annotate derives per-sample trait labels from raw text. Returns nil for
// texts too short to carry signal.
func Annotate(text string) *types.TraitAnnotation {
	if len(strings.TrimSpace(text)) < 3 {
		return nil
	}

	lower := strings.ToLower(text)

	return &types.TraitAnnotation{
		Humor:         classifyIndicators(lower, humorIndicators, humorOrder, nil),
		Formality:     classifyIndicators(lower, formalityIndicators, formalityOrder, nil),
		Energy:        classifyEnergy(text, lower),
		Style:         classifyStyle(text),
		EmojiFrequent: len(emojiPattern.FindAllString(text, -1)) > 2,
	}
}

// classifyIndicators scores each label by indicator hits and returns the
// best label, or "neutral" when nothing matches. bonus, if non-nil, adds
// extra points per label before selection.
func classifyIndicators(lower string, table map[string][]string, order []string, bonus map[string]int) string {
	best := "neutral"
	bestScore := 0
	for _, label := range order {
		score := bonus[label]
		for _, ind := range table[label] {
			if strings.Contains(lower, strings.ToLower(ind)) {
				score++
			}
		}
		if score > bestScore {
			bestScore = score
			best = label
		}
	}
	return best
}

// classifyEnergy adds exclamation and caps-run weight to the "high" label
// before indicator selection.
func classifyEnergy(text, lower string) string {
	bonus := map[string]int{
		"high": strings.Count(text, "!")*2 + len(capsRunPattern.FindAllString(text, -1)),
	}
	return classifyIndicators(lower, energyIndicators, energyOrder, bonus)
}

// classifyStyle buckets the overall communication style of a text.
func classifyStyle(text string) string {
	switch {
	case capsRunPattern.MatchString(text):
		return "emphatic"
	case strings.Count(text, "...") > 2:
		return "contemplative"
	case strings.Count(text, "!") > 3:
		return "enthusiastic"
	case len(text) < 50:
		return "concise"
	case len(text) > 500:
		return "detailed"
	default:
		return "balanced"
	}
}
