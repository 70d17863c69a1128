package synthesis

import (
	"strings"

	"mirrorme/internal/logging"
	"mirrorme/internal/types"
)

// =============================================================================
// TONE MATCHING
// =============================================================================

// DetermineTone derives the response tone from the classified intent, the
// message context, and the sender. Context keywords override the intent
// base, and the sender role overrides both; the last applicable rule wins.
func DetermineTone(intent types.IntentResult, context, sender string) types.Tone {
	tone := baseToneForIntent(intent.Type)

	ctx := strings.ToLower(context)
	if strings.Contains(ctx, "work") || strings.Contains(ctx, "business") {
		tone = types.ToneProfessional
	} else if strings.Contains(ctx, "friend") || strings.Contains(ctx, "family") {
		tone = types.ToneFriendly
	}

	switch sender {
	case "boss", "manager", "supervisor":
		tone = types.ToneProfessional
	case "friend", "family", "close":
		tone = types.ToneCasual
	}

	logging.Tone("tone determined: intent=%s sender=%s -> %s", intent.Type, sender, tone)
	return tone
}

func baseToneForIntent(intentType string) types.Tone {
	switch intentType {
	case "greeting":
		return types.ToneFriendly
	case "question":
		return types.ToneHelpful
	case "request":
		return types.ToneProfessional
	case "complaint":
		return types.ToneEmpathetic
	case "urgent":
		return types.ToneUrgent
	case "casual":
		return types.ToneCasual
	}
	return types.ToneNeutral
}

// friendlyEmoji are the emoji that count as already-warm; ApplyTone only
// appends one if none are present.
var friendlyEmoji = []string{"😊", "❤️", "👍"}

// ApplyTone performs bounded textual edits for the given tone. Applying
// the same tone a second time is a no-op; every edit first checks whether
// its effect is already present.
func ApplyTone(text string, tone types.Tone) string {
	switch tone {
	case types.ToneFormal:
		if !strings.HasPrefix(text, "Dear") && !strings.HasPrefix(text, "Hello") && !strings.HasPrefix(text, "Hi") {
			text = "Hello, " + text
		}

	case types.ToneCasual:
		text = strings.ReplaceAll(text, "Hello", "Hey")
		text = strings.ReplaceAll(text, "Thank you", "Thanks")

	case types.ToneProfessional:
		text = strings.ReplaceAll(text, "lol", "")
		text = strings.ReplaceAll(text, "LOL", "")

	case types.ToneFriendly:
		warm := false
		for _, e := range friendlyEmoji {
			if strings.Contains(text, e) {
				warm = true
				break
			}
		}
		if !warm {
			text += " 😊"
		}

	case types.ToneUrgent:
		if !strings.Contains(text, "!") {
			text += "!"
		}
	}

	return text
}

// AdjustTone is the full tone pass: determine, then apply.
func AdjustTone(text string, intent types.IntentResult, context, sender string) types.ToneDecision {
	tone := DetermineTone(intent, context, sender)
	return types.ToneDecision{
		Tone: tone,
		Text: ApplyTone(text, tone),
	}
}
