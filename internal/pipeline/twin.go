// Package pipeline wires classification, synthesis, tone adjustment, the
// safety gate, and dispatch into the digital twin's message loop. One
// Twin serves concurrent messages; training runs are exclusive and swap
// the trained model atomically.
package pipeline

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"mirrorme/internal/config"
	"mirrorme/internal/embedding"
	"mirrorme/internal/index"
	"mirrorme/internal/intent"
	"mirrorme/internal/logging"
	"mirrorme/internal/personality"
	"mirrorme/internal/safety"
	"mirrorme/internal/store"
	"mirrorme/internal/synthesis"
	"mirrorme/internal/types"
)

// minExemplarLength is the shortest trimmed sample worth indexing.
// Shorter fragments embed to near-noise and pollute retrieval.
const minExemplarLength = 10

// =============================================================================
// DISPATCHER
// =============================================================================

// Dispatcher delivers an approved response to its destination platform.
type Dispatcher interface {
	Dispatch(ctx context.Context, msg types.IncomingMessage, response string) error
	Name() string
}

// LogDispatcher writes dispatched responses to the dispatch log instead
// of sending them anywhere. The default until a real transport is wired.
type LogDispatcher struct{}

func (LogDispatcher) Dispatch(_ context.Context, msg types.IncomingMessage, response string) error {
	logging.Dispatch("[%s] to %s: %s", msg.Platform, msg.Sender, response)
	return nil
}

func (LogDispatcher) Name() string { return "log" }

// =============================================================================
// RESULT
// =============================================================================

// Result is the terminal record of one pipeline invocation.
type Result struct {
	Outcome  types.Outcome
	Response string
	Intent   types.IntentResult
	Tone     types.Tone
	Verdict  types.SafetyVerdict
	Reason   string
}

// TrainReport summarizes one training run.
type TrainReport struct {
	TotalSamples int
	Indexed      int
	Trained      bool
	Duration     time.Duration
}

// =============================================================================
// TWIN
// =============================================================================

// Twin is the digital twin service object. Safe for concurrent Process
// calls; Train is exclusive.
type Twin struct {
	cfg        *config.Config
	classifier *intent.Classifier
	profiles   *personality.ProfileStore
	exemplar   *index.ExemplarIndex
	embedder   embedding.Engine
	synth      *synthesis.Synthesizer
	gate       *safety.Gate
	dispatcher Dispatcher
	store      *store.Store

	mu               sync.RWMutex
	mood             types.Mood
	autoReply        bool
	overrideRequired bool
	history          *types.Ring[types.HistoryEntry]

	trainMu sync.Mutex
}

// New assembles a twin from its collaborators. st may be nil to disable
// persistence; rng seeds fallback phrase selection and may be nil.
func New(cfg *config.Config, embedder embedding.Engine, gen synthesis.Generator, dispatcher Dispatcher, st *store.Store, rng *rand.Rand) *Twin {
	if cfg == nil {
		cfg = config.Default()
	}
	if dispatcher == nil {
		dispatcher = LogDispatcher{}
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	historySize := cfg.Memory.HistorySize
	if historySize <= 0 {
		historySize = 1000
	}

	profiles := personality.NewProfileStore()
	exemplar := index.New(embedder)

	consent := safety.NewConsentManager(consentPlatforms(cfg))
	gate := safety.NewGate(consent, cfg.Safety.MaxEvents)
	if cfg.Safety.Mode != "" {
		gate.SetMode(cfg.Safety.Mode)
	}
	if st != nil {
		gate.SetEventSink(func(e types.SafetyEvent) {
			if err := st.AppendSafetyEvent(e); err != nil {
				logging.Get(logging.CategoryStore).Warn("failed to persist safety event: %v", err)
			}
		})
	}

	return &Twin{
		cfg:        cfg,
		classifier: intent.NewClassifier(),
		profiles:   profiles,
		exemplar:   exemplar,
		embedder:   embedder,
		synth:      synthesis.New(profiles, exemplar, gen, rng),
		gate:       gate,
		dispatcher: dispatcher,
		store:      st,
		mood:       types.MoodDefault,
		autoReply:  true,
		history:    types.NewRing[types.HistoryEntry](historySize),
	}
}

func consentPlatforms(cfg *config.Config) []types.Platform {
	if len(cfg.Safety.ConsentPlatforms) == 0 {
		return nil
	}
	out := make([]types.Platform, 0, len(cfg.Safety.ConsentPlatforms))
	for _, p := range cfg.Safety.ConsentPlatforms {
		out = append(out, types.ParsePlatform(p))
	}
	return out
}

// Gate exposes the safety gate for CLI and watcher wiring.
func (t *Twin) Gate() *safety.Gate { return t.gate }

// Profiles exposes the profile store.
func (t *Twin) Profiles() *personality.ProfileStore { return t.profiles }

// =============================================================================
// MESSAGE PROCESSING
// =============================================================================

// Process runs one incoming message through the full pipeline. Any fault
// is contained to this invocation: the twin keeps serving other messages.
func (t *Twin) Process(ctx context.Context, msg types.IncomingMessage) (result Result) {
	defer func() {
		if r := recover(); r != nil {
			logging.Get(logging.CategoryPipeline).Error("pipeline fault for sender=%s: %v", msg.Sender, r)
			result = Result{
				Outcome: types.OutcomeError,
				Reason:  fmt.Sprintf("internal fault: %v", r),
			}
		}
	}()

	timer := logging.StartTimer(logging.CategoryPipeline, "Process")
	defer timer.Stop()

	result.Intent = t.classifier.Classify(msg)
	logging.PipelineDebug("intent=%s confidence=%.2f sender=%s", result.Intent.Type, result.Intent.Confidence, msg.Sender)

	t.mu.RLock()
	mood := t.mood
	autoReply := t.autoReply
	override := t.overrideRequired
	t.mu.RUnlock()

	if !autoReply {
		result.Outcome = types.OutcomeManualReview
		result.Reason = "Auto-reply disabled"
		logging.Pipeline("auto-reply disabled, queuing for manual review")
		return result
	}

	raw, err := t.synth.Synthesize(ctx, msg.Content, msg.Context, mood)
	if err != nil {
		logging.Get(logging.CategoryPipeline).Error("synthesis failed: %v", err)
		result.Outcome = types.OutcomeError
		result.Reason = err.Error()
		return result
	}

	decision := synthesis.AdjustTone(raw, result.Intent, msg.Context, msg.Sender)
	result.Tone = decision.Tone
	result.Response = decision.Text

	result.Verdict = t.gate.Check(result.Response, msg)
	if !result.Verdict.Safe {
		result.Outcome = types.OutcomeManualReview
		result.Reason = "Safety concern: " + result.Verdict.Reason
		logging.Pipeline("response held for review: %s", result.Verdict.Reason)
		return result
	}

	if override {
		result.Outcome = types.OutcomeManualApproval
		result.Reason = "Override required"
		return result
	}

	if err := t.dispatcher.Dispatch(ctx, msg, result.Response); err != nil {
		logging.Get(logging.CategoryPipeline).Error("dispatch failed: %v", err)
		result.Outcome = types.OutcomeError
		result.Reason = err.Error()
		return result
	}

	entry := types.HistoryEntry{
		Timestamp: time.Now(),
		Platform:  msg.Platform,
		Sender:    msg.Sender,
		Message:   msg.Content,
		Response:  result.Response,
		Intent:    result.Intent.Type,
		Mood:      mood,
		AutoReply: true,
	}
	t.mu.Lock()
	t.history.Append(entry)
	t.mu.Unlock()

	if t.store != nil {
		if err := t.store.ArchiveResponse(entry); err != nil {
			logging.Get(logging.CategoryStore).Warn("failed to archive response: %v", err)
		}
	}

	result.Outcome = types.OutcomeSent
	return result
}

// Preview synthesizes and tone-adjusts a response without touching the
// safety gate, dispatcher, or history. For dry runs and CLI inspection.
func (t *Twin) Preview(ctx context.Context, msg types.IncomingMessage) (Result, error) {
	var result Result
	result.Intent = t.classifier.Classify(msg)

	t.mu.RLock()
	mood := t.mood
	t.mu.RUnlock()

	raw, err := t.synth.Synthesize(ctx, msg.Content, msg.Context, mood)
	if err != nil {
		return result, err
	}

	decision := synthesis.AdjustTone(raw, result.Intent, msg.Context, msg.Sender)
	result.Tone = decision.Tone
	result.Response = decision.Text
	return result, nil
}

// =============================================================================
// TRAINING
// =============================================================================

// Train rebuilds the personality model and exemplar index from a sample
// corpus. Only one run executes at a time; the new model replaces the old
// atomically on success. An empty corpus resets the twin to untrained.
func (t *Twin) Train(ctx context.Context, samples []types.TrainingSample) (TrainReport, error) {
	if !t.trainMu.TryLock() {
		return TrainReport{}, fmt.Errorf("training already in progress")
	}
	defer t.trainMu.Unlock()

	start := time.Now()
	report := TrainReport{TotalSamples: len(samples)}

	if len(samples) == 0 {
		// Index first on the way down so readers never see a populated
		// index paired with an untrained profile.
		if err := t.exemplar.Rebuild(nil, nil); err != nil {
			return report, err
		}
		t.profiles.Replace(personality.EmptyProfile(), personality.StylePattern{}, false)
		if t.store != nil {
			if err := t.store.SaveProfile(personality.EmptyProfile(), personality.StylePattern{}, false); err != nil {
				return report, err
			}
			if err := t.store.ReplaceExemplars(nil, nil); err != nil {
				return report, err
			}
		}
		logging.Pipeline("trained on empty corpus, twin reset to untrained")
		report.Duration = time.Since(start)
		return report, nil
	}

	profile := personality.BuildProfile(samples)
	style := personality.BuildStylePattern(samples)

	candidates := make([]types.TrainingSample, 0, len(samples))
	for _, s := range samples {
		if len(strings.TrimSpace(s.Content)) > minExemplarLength {
			candidates = append(candidates, s)
		}
	}

	vectors, err := t.embedSamples(ctx, candidates)
	if err != nil {
		return report, fmt.Errorf("embedding failed: %w", err)
	}

	// Profile first on the way up: a concurrent reader that observes the
	// new index must already see the matching trained profile.
	t.profiles.Replace(profile, style, true)
	if err := t.exemplar.Rebuild(candidates, vectors); err != nil {
		return report, err
	}

	if t.store != nil {
		if err := t.store.SaveProfile(profile, style, true); err != nil {
			return report, err
		}
		if err := t.store.ReplaceExemplars(candidates, vectors); err != nil {
			return report, err
		}
	}

	report.Indexed = t.exemplar.Size()
	report.Trained = true
	report.Duration = time.Since(start)
	logging.Pipeline("training complete: %d samples, %d indexed in %v",
		report.TotalSamples, report.Indexed, report.Duration)
	return report, nil
}

// embedSamples embeds candidate contents with bounded concurrency.
func (t *Twin) embedSamples(ctx context.Context, candidates []types.TrainingSample) ([][]float32, error) {
	vectors := make([][]float32, len(candidates))

	concurrency := t.cfg.Memory.EmbedConcurrency
	if concurrency <= 0 {
		concurrency = 4
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for i, s := range candidates {
		g.Go(func() error {
			vec, err := t.embedder.Embed(gctx, s.Content)
			if err != nil {
				return fmt.Errorf("sample %s: %w", s.ID, err)
			}
			vectors[i] = vec
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return vectors, nil
}

// Restore reloads persisted state from the store: the trained model and
// exemplars, the consent audit, the response history, the safety event
// log, and any customized safety term sets. Called once at startup; a
// missing or empty store leaves the twin untrained.
func (t *Twin) Restore() error {
	if t.store == nil {
		return nil
	}

	profile, style, trained, err := t.store.LoadProfile()
	if err != nil {
		return err
	}
	if trained {
		t.profiles.Replace(profile, style, true)
	}

	samples, vectors, err := t.store.LoadExemplars()
	if err != nil {
		return err
	}
	if len(samples) > 0 {
		if err := t.exemplar.Rebuild(samples, vectors); err != nil {
			return err
		}
	}

	audit, err := t.store.LoadConsentAudit()
	if err != nil {
		return err
	}
	t.gate.Consent().RestoreAudit(audit)

	recent, err := t.store.RecentResponses(t.history.Cap())
	if err != nil {
		return err
	}
	t.mu.Lock()
	for _, e := range recent {
		t.history.Append(e)
	}
	t.mu.Unlock()

	maxEvents := t.cfg.Safety.MaxEvents
	if maxEvents <= 0 {
		maxEvents = safety.EventLogSize
	}
	events, err := t.store.RecentSafetyEvents(maxEvents)
	if err != nil {
		return err
	}
	t.gate.RestoreEvents(events)

	if err := t.restoreSafetyTerms(); err != nil {
		return err
	}

	logging.Pipeline("restored state: trained=%v exemplars=%d consent_actions=%d responses=%d safety_events=%d",
		trained, t.exemplar.Size(), len(audit), len(recent), len(events))
	return nil
}

// restoreSafetyTerms applies persisted term customizations. An empty
// persisted set means the gate keeps its defaults.
func (t *Twin) restoreSafetyTerms() error {
	redlines, err := t.store.LoadSafetyTerms(store.TermKindRedline)
	if err != nil {
		return err
	}
	if len(redlines) > 0 {
		t.gate.ReplaceRedlines(redlines)
	}

	topics, err := t.store.LoadSafetyTerms(store.TermKindSensitive)
	if err != nil {
		return err
	}
	if len(topics) > 0 {
		t.gate.ReplaceSensitiveTopics(topics)
	}
	return nil
}

// =============================================================================
// CONSENT
// =============================================================================

// GrantConsent records a sender opt-in and persists the audit action.
func (t *Twin) GrantConsent(sender string, platform types.Platform) error {
	t.gate.Consent().Grant(sender, platform)
	return t.persistLastConsentAction()
}

// RevokeConsent withdraws a sender's consent and persists the audit action.
func (t *Twin) RevokeConsent(sender string) error {
	t.gate.Consent().Revoke(sender)
	return t.persistLastConsentAction()
}

func (t *Twin) persistLastConsentAction() error {
	if t.store == nil {
		return nil
	}
	trail := t.gate.Consent().AuditTrail(1)
	if len(trail) == 0 {
		return nil
	}
	return t.store.AppendConsentAction(trail[0])
}

// =============================================================================
// SAFETY TERMS
// =============================================================================

// AddRedline adds a redline term and persists the updated set.
func (t *Twin) AddRedline(term string) error {
	t.gate.AddRedline(term)
	return t.persistSafetyTerms(store.TermKindRedline, t.gate.Redlines())
}

// RemoveRedline removes a redline term and persists the updated set.
func (t *Twin) RemoveRedline(term string) error {
	t.gate.RemoveRedline(term)
	return t.persistSafetyTerms(store.TermKindRedline, t.gate.Redlines())
}

// AddSensitiveTopic registers a sensitive topic and persists the
// updated set.
func (t *Twin) AddSensitiveTopic(topic string) error {
	t.gate.AddSensitiveTopic(topic)
	return t.persistSafetyTerms(store.TermKindSensitive, t.gate.SensitiveTopics())
}

func (t *Twin) persistSafetyTerms(kind string, terms []string) error {
	if t.store == nil {
		return nil
	}
	return t.store.ReplaceSafetyTerms(kind, terms)
}

// =============================================================================
// RECALL
// =============================================================================

// Recall returns the trained exemplars most similar to the query text,
// best first. With a store attached the search runs database-side over
// the persisted vectors; otherwise the in-memory index serves it.
func (t *Twin) Recall(ctx context.Context, query string, topK int) ([]store.ExemplarMatch, error) {
	if t.store != nil {
		queryVec, err := t.embedder.Embed(ctx, query)
		if err != nil {
			return nil, fmt.Errorf("failed to embed query: %w", err)
		}
		return t.store.SearchExemplars(queryVec, topK)
	}

	matches, err := t.exemplar.Search(ctx, query)
	if err != nil {
		return nil, err
	}
	if topK > 0 && len(matches) > topK {
		matches = matches[:topK]
	}
	out := make([]store.ExemplarMatch, len(matches))
	for i, m := range matches {
		out[i] = store.ExemplarMatch{
			Sample:     types.TrainingSample{Content: m.Text},
			Similarity: m.Similarity,
		}
	}
	return out, nil
}

// =============================================================================
// SETTINGS
// =============================================================================

// SetMood switches the active mood. Unrecognized moods log a warning and
// reset to the default mood; the return reports whether the input was
// recognized.
func (t *Twin) SetMood(s string) (types.Mood, bool) {
	mood, ok := types.ParseMood(s)
	if !ok {
		logging.Get(logging.CategoryPipeline).Warn("unknown mood %q, resetting to %s", s, types.MoodDefault)
	}
	t.mu.Lock()
	t.mood = mood
	t.mu.Unlock()
	logging.Pipeline("mood set to %s", mood)
	return mood, ok
}

// Mood returns the active mood.
func (t *Twin) Mood() types.Mood {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.mood
}

// SetAutoReply toggles automatic response dispatch.
func (t *Twin) SetAutoReply(enabled bool) {
	t.mu.Lock()
	t.autoReply = enabled
	t.mu.Unlock()
	logging.Pipeline("auto-reply set to %v", enabled)
}

// AutoReply reports whether automatic dispatch is enabled.
func (t *Twin) AutoReply() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.autoReply
}

// SetOverrideRequired toggles manual approval before dispatch.
func (t *Twin) SetOverrideRequired(required bool) {
	t.mu.Lock()
	t.overrideRequired = required
	t.mu.Unlock()
	logging.Pipeline("override required set to %v", required)
}

// OverrideRequired reports whether dispatch needs manual approval.
func (t *Twin) OverrideRequired() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.overrideRequired
}

// =============================================================================
// HISTORY AND STATS
// =============================================================================

// Stats aggregates dispatched-response history.
type Stats struct {
	TotalResponses int
	Platforms      map[types.Platform]int
	Intents        map[string]int
	Moods          map[types.Mood]int
	AutoReplyRate  float64
	CurrentMood    types.Mood
	Trained        bool
	IndexedSamples int
}

// GetStats summarizes everything dispatched so far.
func (t *Twin) GetStats() Stats {
	t.mu.RLock()
	entries := t.history.Items()
	mood := t.mood
	t.mu.RUnlock()

	stats := Stats{
		TotalResponses: len(entries),
		Platforms:      make(map[types.Platform]int),
		Intents:        make(map[string]int),
		Moods:          make(map[types.Mood]int),
		CurrentMood:    mood,
		Trained:        t.profiles.IsTrained(),
		IndexedSamples: t.exemplar.Size(),
	}

	auto := 0
	for _, e := range entries {
		stats.Platforms[e.Platform]++
		stats.Intents[e.Intent]++
		stats.Moods[e.Mood]++
		if e.AutoReply {
			auto++
		}
	}
	if len(entries) > 0 {
		stats.AutoReplyRate = float64(auto) / float64(len(entries))
	}
	return stats
}

// RecentResponses returns the newest dispatched entries, oldest first.
func (t *Twin) RecentResponses(limit int) []types.HistoryEntry {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.history.Last(limit)
}

// ClearHistory drops the in-memory dispatch history.
func (t *Twin) ClearHistory() {
	t.mu.Lock()
	t.history.Clear()
	t.mu.Unlock()
	logging.Pipeline("dispatch history cleared")
}
