// Package intent classifies incoming messages against a fixed set of
// intent categories using pattern scoring.
package intent

import (
	"regexp"
	"strings"
	"unicode"

	"mirrorme/internal/logging"
	"mirrorme/internal/types"
)

// category pairs a name with its match patterns. Declaration order is the
// tie-break order for primary intent selection, so the slice below must
// stay ordered.
type category struct {
	name     string
	patterns []*regexp.Regexp
}

// compile builds case-insensitive regexes, escaping plain substrings.
func compile(patterns ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		out = append(out, regexp.MustCompile("(?i)"+p))
	}
	return out
}

func lit(patterns ...string) []*regexp.Regexp {
	escaped := make([]string, 0, len(patterns))
	for _, p := range patterns {
		escaped = append(escaped, regexp.QuoteMeta(p))
	}
	return compile(escaped...)
}

var categories = []category{
	{"greeting", lit("hi", "hello", "hey", "sup", "what's up", "howdy",
		"good morning", "good afternoon", "good evening")},
	{"question", append(compile(`\?`), lit("what", "how", "why", "when", "where", "who",
		"can you", "could you", "would you", "do you")...)},
	{"request", lit("please", "can you", "could you", "would you mind",
		"i need", "i want", "help me", "assist")},
	{"compliment", lit("you're great", "you're awesome", "you're amazing",
		"thank you", "thanks", "appreciate", "love it")},
	{"complaint", lit("problem", "issue", "wrong", "broken", "doesn't work",
		"annoying", "frustrated", "angry", "upset")},
	{"casual", lit("lol", "haha", "😄", "😂", "cool", "nice", "awesome",
		"yeah", "sure", "okay", "whatever")},
	{"urgent", lit("asap", "urgent", "emergency", "now", "quick",
		"important", "critical", "immediately")},
}

var emojiPattern = regexp.MustCompile(`[\x{1F600}-\x{1F64F}\x{1F300}-\x{1F5FF}\x{1F680}-\x{1F6FF}\x{1F1E0}-\x{1F1FF}\x{2600}-\x{27BF}]`)

// Classifier scores messages against the fixed intent categories.
type Classifier struct{}

// NewClassifier creates an intent classifier.
func NewClassifier() *Classifier {
	return &Classifier{}
}

// Classify scores the message content against every category and returns
// the primary intent plus context flags. It never fails: any internal
// fault degrades to type "unknown" with zero confidence.
func (c *Classifier) Classify(msg types.IncomingMessage) (result types.IntentResult) {
	defer func() {
		if r := recover(); r != nil {
			logging.Get(logging.CategoryIntent).Error("classification fault: %v", r)
			result = types.IntentResult{Type: "unknown", Scores: map[string]int{}}
		}
	}()

	content := strings.ToLower(msg.Content)

	scores := make(map[string]int, len(categories))
	primary := "unknown"
	maxScore := -1
	for _, cat := range categories {
		score := 0
		for _, p := range cat.patterns {
			if p.MatchString(content) {
				score++
			}
		}
		scores[cat.name] = score
		// Strict > keeps the earliest category on ties
		if score > maxScore {
			maxScore = score
			primary = cat.name
		}
	}

	confidence := float64(maxScore) / 3
	if confidence > 1.0 {
		confidence = 1.0
	}
	if maxScore <= 0 {
		confidence = 0
	}

	result = types.IntentResult{
		Type:       primary,
		Confidence: confidence,
		Scores:     scores,
		Context: types.ContextFlags{
			IsQuestion:  strings.Contains(content, "?"),
			HasEmoji:    emojiPattern.MatchString(content),
			AllCaps:     isAllCaps(msg.Content),
			Length:      len(content),
			Platform:    msg.Platform,
			SenderKnown: msg.Sender != "",
		},
	}

	logging.IntentDebug("classified %q as %s (confidence=%.2f)", preview(content), primary, confidence)
	return result
}

// isAllCaps reports whether the text contains at least one letter and no
// lowercase letters.
func isAllCaps(s string) bool {
	hasUpper := false
	for _, r := range s {
		if unicode.IsLower(r) {
			return false
		}
		if unicode.IsUpper(r) {
			hasUpper = true
		}
	}
	return hasUpper
}

func preview(s string) string {
	if len(s) > 60 {
		return s[:60] + "..."
	}
	return s
}
