// Package synthesis turns an incoming message into a personality-grounded
// response: deterministic prompt construction over the trained profile and
// retrieved exemplars, an external generation backend, canned per-mood
// fallbacks, and tone adjustment.
package synthesis

import (
	"context"
	"math/rand"

	"mirrorme/internal/index"
	"mirrorme/internal/logging"
	"mirrorme/internal/personality"
	"mirrorme/internal/types"
)

// StillLearning is returned while no training run has completed.
const StillLearning = "I'm still learning your personality. Please train me first!"

// =============================================================================
// SYNTHESIZER
// =============================================================================

// Synthesizer generates responses in the user's style.
type Synthesizer struct {
	profiles *personality.ProfileStore
	exemplar *index.ExemplarIndex
	gen      Generator
	fallback *Fallback
}

// New creates a synthesizer. The random source feeds fallback selection
// only; prompt construction is fully deterministic.
func New(profiles *personality.ProfileStore, exemplar *index.ExemplarIndex, gen Generator, rng *rand.Rand) *Synthesizer {
	return &Synthesizer{
		profiles: profiles,
		exemplar: exemplar,
		gen:      gen,
		fallback: NewFallback(rng),
	}
}

// Synthesize produces a response for the input text. Untrained profiles
// yield the fixed placeholder. A generation backend failure degrades to a
// canned per-mood phrase rather than an error; only exemplar retrieval
// faults propagate.
func (s *Synthesizer) Synthesize(ctx context.Context, input, msgContext string, mood types.Mood) (string, error) {
	profile, _, trained := s.profiles.Snapshot()
	if !trained {
		logging.Synthesis("synthesize requested before training; returning placeholder")
		return StillLearning, nil
	}

	matches, err := s.exemplar.Search(ctx, input)
	if err != nil {
		return "", err
	}

	exemplars := make([]string, len(matches))
	for i, m := range matches {
		exemplars[i] = m.Text
	}

	prompt := BuildPrompt(mood, profile, exemplars, msgContext, input)

	out, err := s.gen.Generate(ctx, systemPrompt, prompt)
	if err != nil {
		logging.Get(logging.CategorySynthesis).Warn("generation failed, using fallback: %v", err)
		return s.fallback.Pick(mood), nil
	}

	return out, nil
}
