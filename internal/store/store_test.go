package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mirrorme/internal/personality"
	"mirrorme/internal/types"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "mirror.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestProfileRoundTrip(t *testing.T) {
	s := testStore(t)

	p, style, trained, err := s.LoadProfile()
	require.NoError(t, err)
	assert.False(t, trained, "fresh store should have no snapshot")
	assert.Equal(t, "neutral", p.Humor.Primary)
	_ = style

	want := personality.EmptyProfile()
	want.Humor.Primary = "sarcastic"
	want.Humor.Distribution["sarcastic"] = 3
	wantStyle := personality.StylePattern{CommonWords: []string{"coffee"}, Exclamations: 7}

	require.NoError(t, s.SaveProfile(want, wantStyle, true))

	got, gotStyle, trained, err := s.LoadProfile()
	require.NoError(t, err)
	assert.True(t, trained)
	assert.Equal(t, "sarcastic", got.Humor.Primary)
	assert.Equal(t, 3, got.Humor.Distribution["sarcastic"])
	assert.Equal(t, []string{"coffee"}, gotStyle.CommonWords)
	assert.Equal(t, 7, gotStyle.Exclamations)
}

func TestSaveProfileOverwrites(t *testing.T) {
	s := testStore(t)

	first := personality.EmptyProfile()
	first.Humor.Primary = "dark"
	require.NoError(t, s.SaveProfile(first, personality.StylePattern{}, true))

	second := personality.EmptyProfile()
	second.Humor.Primary = "wholesome"
	require.NoError(t, s.SaveProfile(second, personality.StylePattern{}, true))

	got, _, _, err := s.LoadProfile()
	require.NoError(t, err)
	assert.Equal(t, "wholesome", got.Humor.Primary)
}

func TestExemplarsReplaceAndLoad(t *testing.T) {
	s := testStore(t)

	samples := []types.TrainingSample{
		{ID: "a", Content: "first", Platform: types.PlatformChat},
		{ID: "b", Content: "second", Platform: types.PlatformEmail},
	}
	vectors := [][]float32{{0.5, 0.25}, nil}

	require.NoError(t, s.ReplaceExemplars(samples, vectors))

	gotSamples, gotVectors, err := s.LoadExemplars()
	require.NoError(t, err)
	require.Len(t, gotSamples, 2)
	assert.Equal(t, "first", gotSamples[0].Content)
	assert.Equal(t, types.PlatformEmail, gotSamples[1].Platform)
	assert.Equal(t, []float32{0.5, 0.25}, gotVectors[0])
	assert.Nil(t, gotVectors[1])

	// Second replace wipes the first set.
	require.NoError(t, s.ReplaceExemplars(samples[:1], vectors[:1]))
	gotSamples, _, err = s.LoadExemplars()
	require.NoError(t, err)
	assert.Len(t, gotSamples, 1)
}

func TestReplaceExemplarsCountMismatch(t *testing.T) {
	s := testStore(t)
	err := s.ReplaceExemplars([]types.TrainingSample{{ID: "a"}}, nil)
	assert.Error(t, err)
}

func TestSearchExemplarsRanksBySimilarity(t *testing.T) {
	s := testStore(t)

	samples := []types.TrainingSample{
		{ID: "a", Content: "coffee first, then code", Platform: types.PlatformChat},
		{ID: "b", Content: "see you at the gym", Platform: types.PlatformChat},
		{ID: "c", Content: "no embedding here", Platform: types.PlatformChat},
	}
	vectors := [][]float32{{1, 0}, {0, 1}, nil}
	require.NoError(t, s.ReplaceExemplars(samples, vectors))

	// Plain builds have no sqlite-vec extension, so this exercises the
	// brute-force path over the stored embeddings.
	got, err := s.SearchExemplars([]float32{1, 0.1}, 1)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "a", got[0].Sample.ID)
	assert.Greater(t, got[0].Similarity, 0.9)

	got, err = s.SearchExemplars([]float32{1, 0.1}, 10)
	require.NoError(t, err)
	assert.Len(t, got, 2, "vectorless exemplars are not searchable")
	assert.Equal(t, "b", got[1].Sample.ID)
}

func TestSafetyEventsRoundTrip(t *testing.T) {
	s := testStore(t)

	events := []types.SafetyEvent{
		{ID: "1", Timestamp: time.Now(), Sender: "sam", Platform: types.PlatformChat, Safe: true},
		{ID: "2", Timestamp: time.Now(), Sender: "sam", Safe: false, Reason: "Redline violation", Flags: []string{"redline", "content"}},
		{ID: "3", Timestamp: time.Now(), Sender: "kim", Safe: true},
	}
	for _, e := range events {
		require.NoError(t, s.AppendSafetyEvent(e))
	}

	got, err := s.RecentSafetyEvents(2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "2", got[0].ID)
	assert.False(t, got[0].Safe)
	assert.Equal(t, []string{"redline", "content"}, got[0].Flags)
	assert.Equal(t, "3", got[1].ID)
	assert.Nil(t, got[1].Flags)
}

func TestSafetyTermsReplaceAndLoad(t *testing.T) {
	s := testStore(t)

	terms, err := s.LoadSafetyTerms(TermKindRedline)
	require.NoError(t, err)
	assert.Empty(t, terms, "fresh store has no customized terms")

	require.NoError(t, s.ReplaceSafetyTerms(TermKindRedline, []string{"project mirage", "passwords"}))
	require.NoError(t, s.ReplaceSafetyTerms(TermKindSensitive, []string{"layoffs"}))

	terms, err = s.LoadSafetyTerms(TermKindRedline)
	require.NoError(t, err)
	assert.Equal(t, []string{"passwords", "project mirage"}, terms)

	// A replace wipes the previous set of that kind only.
	require.NoError(t, s.ReplaceSafetyTerms(TermKindRedline, []string{"passwords"}))
	terms, err = s.LoadSafetyTerms(TermKindRedline)
	require.NoError(t, err)
	assert.Equal(t, []string{"passwords"}, terms)

	topics, err := s.LoadSafetyTerms(TermKindSensitive)
	require.NoError(t, err)
	assert.Equal(t, []string{"layoffs"}, topics)
}

func TestConsentAuditRoundTrip(t *testing.T) {
	s := testStore(t)

	actions := []types.ConsentAction{
		{ID: "1", Timestamp: time.Now(), Sender: "sam", Platform: types.PlatformChat, Action: "consent_granted"},
		{ID: "2", Timestamp: time.Now(), Sender: "sam", Action: "consent_revoked"},
	}
	for _, a := range actions {
		require.NoError(t, s.AppendConsentAction(a))
	}

	got, err := s.LoadConsentAudit()
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "consent_granted", got[0].Action)
	assert.Equal(t, "consent_revoked", got[1].Action)
	assert.Equal(t, types.PlatformChat, got[0].Platform)
}

func TestResponseArchive(t *testing.T) {
	s := testStore(t)

	for i, resp := range []string{"one", "two", "three"} {
		require.NoError(t, s.ArchiveResponse(types.HistoryEntry{
			Timestamp: time.Now().Add(time.Duration(i) * time.Second),
			Platform:  types.PlatformChat,
			Sender:    "sam",
			Message:   "hi",
			Response:  resp,
			Intent:    "greeting",
			Mood:      types.MoodDefault,
			AutoReply: true,
		}))
	}

	got, err := s.RecentResponses(2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "two", got[0].Response)
	assert.Equal(t, "three", got[1].Response)
	assert.True(t, got[1].AutoReply)
	assert.Equal(t, types.MoodDefault, got[1].Mood)
}
