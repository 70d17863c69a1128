package synthesis

import (
	"context"
	"errors"
	"math/rand"
	"strings"
	"testing"

	"mirrorme/internal/index"
	"mirrorme/internal/personality"
	"mirrorme/internal/types"
)

// fakeGenerator returns a fixed response or error and counts calls.
type fakeGenerator struct {
	response string
	err      error
	calls    int
}

func (f *fakeGenerator) Generate(_ context.Context, _, _ string) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return f.response, nil
}

func (f *fakeGenerator) Name() string { return "fake:gen" }

// fixedEngine embeds everything to the same vector so retrieval always
// matches.
type fixedEngine struct{}

func (fixedEngine) Embed(context.Context, string) ([]float32, error) {
	return []float32{1, 0, 0}, nil
}

func (e fixedEngine) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i], _ = e.Embed(ctx, texts[i])
	}
	return out, nil
}

func (fixedEngine) Dimensions() int { return 3 }
func (fixedEngine) Name() string    { return "fixed:test" }

func trainedStore() *personality.ProfileStore {
	store := personality.NewProfileStore()
	p := personality.EmptyProfile()
	p.Humor.Primary = "sarcastic"
	p.Formality.Primary = "casual"
	p.Energy.Primary = "high"
	store.Replace(p, personality.StylePattern{}, true)
	return store
}

func TestSynthesizeUntrainedReturnsPlaceholder(t *testing.T) {
	gen := &fakeGenerator{response: "hi"}
	s := New(personality.NewProfileStore(), index.New(fixedEngine{}), gen, rand.New(rand.NewSource(1)))

	out, err := s.Synthesize(context.Background(), "hello", "", types.MoodDefault)
	if err != nil {
		t.Fatalf("Synthesize failed: %v", err)
	}
	if out != StillLearning {
		t.Errorf("response = %q, want placeholder", out)
	}
	if gen.calls != 0 {
		t.Errorf("generator called %d times for untrained profile, want 0", gen.calls)
	}
}

func TestSynthesizeUsesGenerator(t *testing.T) {
	gen := &fakeGenerator{response: "sure, on it"}
	s := New(trainedStore(), index.New(fixedEngine{}), gen, rand.New(rand.NewSource(1)))

	out, err := s.Synthesize(context.Background(), "can you review my PR?", "work", types.MoodDefault)
	if err != nil {
		t.Fatalf("Synthesize failed: %v", err)
	}
	if out != "sure, on it" {
		t.Errorf("response = %q", out)
	}
	if gen.calls != 1 {
		t.Errorf("generator calls = %d, want 1", gen.calls)
	}
}

func TestSynthesizeFallsBackOnGenerationFailure(t *testing.T) {
	gen := &fakeGenerator{err: errors.New("backend down")}
	s := New(trainedStore(), index.New(fixedEngine{}), gen, rand.New(rand.NewSource(42)))

	out, err := s.Synthesize(context.Background(), "hello", "", types.MoodSavage)
	if err != nil {
		t.Fatalf("Synthesize returned error instead of fallback: %v", err)
	}

	found := false
	for _, canned := range fallbackResponses[types.MoodSavage] {
		if out == canned {
			found = true
			break
		}
	}
	if !found {
		t.Errorf("fallback %q not in savage table", out)
	}
}

func TestFallbackDeterministicWithFixedSeed(t *testing.T) {
	pick := func() string {
		f := NewFallback(rand.New(rand.NewSource(7)))
		return f.Pick(types.MoodEnergetic)
	}
	if pick() != pick() {
		t.Error("fixed seed should give a deterministic pick")
	}
}

func TestFallbackUnknownMoodUsesDefaultTable(t *testing.T) {
	f := NewFallback(rand.New(rand.NewSource(1)))
	out := f.Pick(types.Mood("bogus"))

	found := false
	for _, canned := range fallbackResponses[types.MoodDefault] {
		if out == canned {
			found = true
			break
		}
	}
	if !found {
		t.Errorf("unknown mood pick %q not from default table", out)
	}
}

func TestBuildPromptDeterministic(t *testing.T) {
	p := personality.EmptyProfile()
	p.Humor.Primary = "dark"
	exemplars := []string{"yeah nah", "sounds rough"}

	a := BuildPrompt(types.MoodCasual, p, exemplars, "ctx", "input text")
	b := BuildPrompt(types.MoodCasual, p, exemplars, "ctx", "input text")
	if a != b {
		t.Error("identical inputs produced different prompts")
	}
}

func TestBuildPromptCapsExemplars(t *testing.T) {
	p := personality.EmptyProfile()
	exemplars := []string{"one", "two", "three", "four", "five"}

	prompt := BuildPrompt(types.MoodDefault, p, exemplars, "", "x")
	if strings.Contains(prompt, "four") {
		t.Error("prompt should include at most 3 exemplars")
	}
	for _, want := range []string{"one", "two", "three"} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing exemplar %q", want)
		}
	}
}

func TestBuildPromptMoodModifier(t *testing.T) {
	p := personality.EmptyProfile()

	prompt := BuildPrompt(types.MoodSavage, p, nil, "", "x")
	if !strings.Contains(prompt, "sarcastic and witty") {
		t.Errorf("savage prompt missing modifier: %q", prompt)
	}

	def := BuildPrompt(types.MoodDefault, p, nil, "", "x")
	if strings.Contains(def, "sarcastic and witty") {
		t.Error("default prompt should carry no mood modifier")
	}
}

func TestBuildPromptTraits(t *testing.T) {
	p := personality.EmptyProfile()
	p.Humor.Primary = "absurdist"
	p.EmojiPreference.FrequentUser = true

	prompt := BuildPrompt(types.MoodDefault, p, nil, "", "x")
	if !strings.Contains(prompt, "Primary humor: absurdist") {
		t.Error("prompt missing humor trait")
	}
	if !strings.Contains(prompt, "Emoji usage: Frequent") {
		t.Error("prompt missing frequent emoji usage")
	}
}
