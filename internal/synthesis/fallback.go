package synthesis

import (
	"math/rand"
	"sync"

	"mirrorme/internal/types"
)

// =============================================================================
// CANNED FALLBACKS
// =============================================================================

// fallbackResponses holds the per-mood canned phrases used when the
// generation backend fails.
var fallbackResponses = map[types.Mood][]string{
	types.MoodDefault:      {"Got it!", "Sure thing!", "Makes sense."},
	types.MoodEnergetic:    {"YES! 🔥", "Absolutely! 💯", "Let's go! 🚀"},
	types.MoodSavage:       {"Obviously.", "Duh.", "Sure, whatever."},
	types.MoodUnhinged:     {"😵‍💫", "🤯", "💥"},
	types.MoodProfessional: {"Understood.", "I'll take care of that.", "Noted."},
	types.MoodCasual:       {"Cool!", "Got it!", "Sounds good!"},
}

// Fallback selects a canned phrase uniformly at random for the given mood.
// The random source is injected so tests can fix the selection. Unknown
// moods draw from the default table.
type Fallback struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewFallback creates a fallback selector around the given random source.
func NewFallback(rng *rand.Rand) *Fallback {
	return &Fallback{rng: rng}
}

// Pick returns one canned phrase for the mood.
func (f *Fallback) Pick(mood types.Mood) string {
	table, ok := fallbackResponses[mood]
	if !ok {
		table = fallbackResponses[types.MoodDefault]
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	return table[f.rng.Intn(len(table))]
}
