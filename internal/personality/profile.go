package personality

import (
	"sort"
	"strings"
	"unicode"

	"mirrorme/internal/logging"
	"mirrorme/internal/types"
)

// =============================================================================
// PROFILE TYPES
// =============================================================================

// TraitSummary holds the aggregated result for one trait category: the
// winning label plus the full label distribution.
type TraitSummary struct {
	Primary      string         `json:"primary"`
	Distribution map[string]int `json:"distribution"`
}

// EmojiPreference summarizes emoji habits across the corpus.
type EmojiPreference struct {
	FrequentUser bool    `json:"frequent_user"`
	Frequency    float64 `json:"frequency"`
}

// Profile is the trained personality model. Built once per training run
// and read-only afterward until the next run replaces it.
type Profile struct {
	Humor           TraitSummary    `json:"humor"`
	Formality       TraitSummary    `json:"formality"`
	Energy          TraitSummary    `json:"energy"`
	Style           TraitSummary    `json:"communication_style"`
	EmojiPreference EmojiPreference `json:"emoji_preference"`
}

// StylePattern holds writing-style statistics with the same lifecycle as
// Profile.
type StylePattern struct {
	CommonWords            []string `json:"common_words"`
	VocabularySize         int      `json:"vocabulary_size"`
	WordDiversity          float64  `json:"word_diversity"`
	AvgSentenceLength      float64  `json:"avg_sentence_length"`
	SentenceLengthVariance float64  `json:"sentence_length_variance"`
	Exclamations           int      `json:"exclamations"`
	Questions              int      `json:"questions"`
	Ellipses               int      `json:"ellipses"`
}

func neutralSummary() TraitSummary {
	return TraitSummary{Primary: "neutral", Distribution: map[string]int{}}
}

// EmptyProfile returns the untrained default.
func EmptyProfile() Profile {
	return Profile{
		Humor:     neutralSummary(),
		Formality: neutralSummary(),
		Energy:    neutralSummary(),
		Style:     neutralSummary(),
	}
}

// =============================================================================
// TRAIT AGGREGATION
// =============================================================================

// BuildProfile aggregates per-sample annotations into a profile. For each
// category the most frequent label wins; ties break toward the label
// encountered first, so aggregation is stable across runs.
func BuildProfile(samples []types.TrainingSample) Profile {
	timer := logging.StartTimer(logging.CategoryPersonality, "BuildProfile")
	defer timer.Stop()

	profile := EmptyProfile()

	var annotated []*types.TraitAnnotation
	for _, s := range samples {
		if s.Traits != nil {
			annotated = append(annotated, s.Traits)
		}
	}
	if len(annotated) == 0 {
		logging.Personality("BuildProfile: no annotated samples, returning empty profile")
		return profile
	}

	profile.Humor = aggregate(annotated, func(a *types.TraitAnnotation) string { return a.Humor })
	profile.Formality = aggregate(annotated, func(a *types.TraitAnnotation) string { return a.Formality })
	profile.Energy = aggregate(annotated, func(a *types.TraitAnnotation) string { return a.Energy })
	profile.Style = aggregate(annotated, func(a *types.TraitAnnotation) string { return a.Style })

	frequent := 0
	for _, a := range annotated {
		if a.EmojiFrequent {
			frequent++
		}
	}
	freq := float64(frequent) / float64(len(annotated))
	profile.EmojiPreference = EmojiPreference{
		FrequentUser: freq > 0.3,
		Frequency:    freq,
	}

	logging.Personality("BuildProfile: %d annotated samples, humor=%s formality=%s energy=%s",
		len(annotated), profile.Humor.Primary, profile.Formality.Primary, profile.Energy.Primary)
	return profile
}

// aggregate counts labels and picks the most frequent, breaking ties
// toward the first-encountered label.
func aggregate(annotated []*types.TraitAnnotation, get func(*types.TraitAnnotation) string) TraitSummary {
	counts := make(map[string]int)
	var order []string
	for _, a := range annotated {
		label := get(a)
		if label == "" {
			label = "neutral"
		}
		if _, seen := counts[label]; !seen {
			order = append(order, label)
		}
		counts[label]++
	}

	primary := "neutral"
	best := 0
	for _, label := range order {
		if counts[label] > best {
			best = counts[label]
			primary = label
		}
	}

	return TraitSummary{Primary: primary, Distribution: counts}
}

// =============================================================================
// STYLE STATISTICS
// =============================================================================

// BuildStylePattern computes vocabulary, sentence, and punctuation
// statistics across all sample contents.
func BuildStylePattern(samples []types.TrainingSample) StylePattern {
	timer := logging.StartTimer(logging.CategoryPersonality, "BuildStylePattern")
	defer timer.Stop()

	var pattern StylePattern

	var texts []string
	for _, s := range samples {
		if s.Content != "" {
			texts = append(texts, s.Content)
		}
	}
	if len(texts) == 0 {
		return pattern
	}

	// Vocabulary
	wordCounts := make(map[string]int)
	var wordOrder []string
	totalWords := 0
	for _, text := range texts {
		for _, w := range strings.Fields(strings.ToLower(text)) {
			if !isAlphaWord(w) || len(w) <= 2 || stopwords[w] {
				continue
			}
			if _, seen := wordCounts[w]; !seen {
				wordOrder = append(wordOrder, w)
			}
			wordCounts[w]++
			totalWords++
		}
	}
	// Stable sort: frequency descending, first-encountered wins ties
	firstSeen := make(map[string]int, len(wordOrder))
	for i, w := range wordOrder {
		firstSeen[w] = i
	}
	sort.SliceStable(wordOrder, func(i, j int) bool {
		if wordCounts[wordOrder[i]] != wordCounts[wordOrder[j]] {
			return wordCounts[wordOrder[i]] > wordCounts[wordOrder[j]]
		}
		return firstSeen[wordOrder[i]] < firstSeen[wordOrder[j]]
	})
	top := wordOrder
	if len(top) > 20 {
		top = top[:20]
	}
	pattern.CommonWords = append([]string(nil), top...)
	pattern.VocabularySize = len(wordCounts)
	if totalWords > 0 {
		pattern.WordDiversity = float64(len(wordCounts)) / float64(totalWords)
	}

	// Sentence structure
	var lengths []int
	for _, text := range texts {
		for _, sentence := range strings.Split(text, ".") {
			if strings.TrimSpace(sentence) == "" {
				continue
			}
			lengths = append(lengths, len(strings.Fields(sentence)))
		}
	}
	pattern.AvgSentenceLength, pattern.SentenceLengthVariance = meanVariance(lengths)

	// Punctuation
	for _, text := range texts {
		pattern.Exclamations += strings.Count(text, "!")
		pattern.Questions += strings.Count(text, "?")
		pattern.Ellipses += strings.Count(text, "...")
	}

	return pattern
}

func isAlphaWord(w string) bool {
	if w == "" {
		return false
	}
	for _, r := range w {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return true
}

func meanVariance(values []int) (mean, variance float64) {
	if len(values) == 0 {
		return 0, 0
	}
	sum := 0
	for _, v := range values {
		sum += v
	}
	mean = float64(sum) / float64(len(values))
	for _, v := range values {
		d := float64(v) - mean
		variance += d * d
	}
	variance /= float64(len(values))
	return mean, variance
}
