// Package types provides shared type definitions used across mirrorme packages.
// This package exists to break import cycles between pipeline, safety, and
// personality. Types in this package should be foundational data structures
// with no complex dependencies.
package types

import "time"

// =============================================================================
// PLATFORMS
// =============================================================================

// Platform identifies the channel a message or sample came from.
type Platform string

const (
	PlatformChat  Platform = "chat"
	PlatformEmail Platform = "email"
	PlatformPost  Platform = "post"
)

// ParsePlatform normalizes a platform string. Unknown values are passed
// through unchanged so stats can still bucket them.
func ParsePlatform(s string) Platform {
	switch Platform(s) {
	case PlatformChat, PlatformEmail, PlatformPost:
		return Platform(s)
	}
	return Platform(s)
}

// =============================================================================
// MOODS
// =============================================================================

// Mood is a named tone-of-voice preset that conditions response generation.
type Mood string

const (
	MoodDefault      Mood = "default"
	MoodEnergetic    Mood = "energetic"
	MoodSavage       Mood = "savage"
	MoodUnhinged     Mood = "unhinged"
	MoodProfessional Mood = "professional"
	MoodCasual       Mood = "casual"
)

// ValidMoods returns the fixed mood set in declaration order.
func ValidMoods() []Mood {
	return []Mood{MoodDefault, MoodEnergetic, MoodSavage, MoodUnhinged, MoodProfessional, MoodCasual}
}

// ParseMood validates a mood string. The second return is false for
// unrecognized values; callers are expected to fall back to MoodDefault.
func ParseMood(s string) (Mood, bool) {
	m := Mood(s)
	for _, v := range ValidMoods() {
		if m == v {
			return m, true
		}
	}
	return MoodDefault, false
}

// =============================================================================
// TRAINING DATA
// =============================================================================

// TraitAnnotation holds per-sample personality labels produced during
// ingestion analysis. A nil annotation means the sample carries no
// personality signal and is skipped by trait aggregation.
type TraitAnnotation struct {
	Humor         string // sarcastic, wholesome, dark, absurdist, neutral
	Formality     string // casual, formal, professional, neutral
	Energy        string // high, low, chaotic, neutral
	Style         string // emphatic, contemplative, enthusiastic, concise, detailed, balanced
	EmojiFrequent bool   // more than 2 emoji in the sample
}

// TrainingSample is one normalized utterance from the user's corpus.
// Immutable once created.
type TrainingSample struct {
	ID        string
	Content   string
	Context   string
	Timestamp time.Time
	Platform  Platform
	Traits    *TraitAnnotation
}

// =============================================================================
// PIPELINE RECORDS
// =============================================================================

// IncomingMessage is one message entering the pipeline. Transient, one per
// pipeline invocation.
type IncomingMessage struct {
	Sender   string
	Platform Platform
	Content  string
	Context  string
}

// ContextFlags are the side observations computed during intent
// classification.
type ContextFlags struct {
	IsQuestion  bool
	HasEmoji    bool
	AllCaps     bool
	Length      int
	Platform    Platform
	SenderKnown bool
}

// IntentResult is the outcome of intent classification.
type IntentResult struct {
	Type       string
	Confidence float64
	Scores     map[string]int
	Context    ContextFlags
}

// Tone is the label applied to a response before dispatch.
type Tone string

const (
	ToneNeutral      Tone = "neutral"
	ToneFormal       Tone = "formal"
	ToneFriendly     Tone = "friendly"
	ToneHelpful      Tone = "helpful"
	ToneProfessional Tone = "professional"
	ToneEmpathetic   Tone = "empathetic"
	ToneUrgent       Tone = "urgent"
	ToneCasual       Tone = "casual"
)

// ToneDecision carries the chosen tone plus the text after adjustment.
type ToneDecision struct {
	Tone Tone
	Text string
}

// SafetyVerdict is the combined result of all safety checks.
// Flags lists the names of every check that failed; Reason is the reason
// reported by the last failing check in gate order.
type SafetyVerdict struct {
	Safe   bool
	Reason string
	Flags  []string
}

// =============================================================================
// OUTCOMES
// =============================================================================

// Outcome is the terminal state of one pipeline invocation.
type Outcome string

const (
	OutcomeManualReview   Outcome = "manual_review"
	OutcomeManualApproval Outcome = "manual_approval"
	OutcomeSent           Outcome = "sent"
	OutcomeError          Outcome = "error"
)

// =============================================================================
// LOG ENTRIES
// =============================================================================

// HistoryEntry records one dispatched response.
type HistoryEntry struct {
	Timestamp time.Time
	Platform  Platform
	Sender    string
	Message   string
	Response  string
	Intent    string
	Mood      Mood
	AutoReply bool
}

// SafetyEvent records one safety gate invocation, safe or not.
// Response and Message are truncated previews, not full texts.
type SafetyEvent struct {
	ID        string
	Timestamp time.Time
	Response  string
	Message   string
	Sender    string
	Platform  Platform
	Safe      bool
	Reason    string
	Flags     []string
}

// ConsentAction records one grant or revoke in the consent audit trail.
type ConsentAction struct {
	ID        string
	Timestamp time.Time
	Sender    string
	Platform  Platform
	Action    string // "consent_granted" or "consent_revoked"
}
