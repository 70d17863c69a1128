// Package safety gates outgoing responses. Four checks run on every
// response, unconditionally and in a fixed order: redlines, content
// filter, consent, relationship risk. Each failing check overwrites the
// verdict reason, so the reported reason belongs to the last check in
// gate order that failed. Every invocation, safe or not, lands in a
// bounded event log.
package safety

import (
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"mirrorme/internal/logging"
	"mirrorme/internal/types"
)

// EventLogSize bounds the safety event log.
const EventLogSize = 1000

// Mode controls how aggressively the gate is tuned.
type Mode string

const (
	ModeStrict   Mode = "strict"
	ModeModerate Mode = "moderate"
	ModeLenient  Mode = "lenient"
)

// ParseMode validates a safety mode string.
func ParseMode(s string) (Mode, bool) {
	switch Mode(s) {
	case ModeStrict, ModeModerate, ModeLenient:
		return Mode(s), true
	}
	return "", false
}

// =============================================================================
// PII AND RISK PATTERNS
// =============================================================================

// piiPatterns match personal-information-shaped tokens. Any match fails
// the redline check regardless of the configured term set.
var piiPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\b\d{3}-\d{2}-\d{4}\b`),                            // SSN
	regexp.MustCompile(`\b\d{4}[\s-]?\d{4}[\s-]?\d{4}[\s-]?\d{4}\b`),       // credit card
	regexp.MustCompile(`\b\d{3}[\s-]?\d{3}[\s-]?\d{4}\b`),                  // phone number
	regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`), // email
}

// riskPhrases are relationship-damaging phrases that block dispatch.
var riskPhrases = []string{
	"i hate you", "you're stupid", "you're wrong", "i don't care",
	"whatever", "i don't want to talk to you", "leave me alone",
	"you're annoying", "i'm done with you", "goodbye forever",
}

// capsRunPattern matches a shouting token of 3+ uppercase letters.
var capsRunPattern = regexp.MustCompile(`\b[A-Z]{3,}\b`)

// defaultRedlines are terms the twin must never utter.
func defaultRedlines() map[string]bool {
	return map[string]bool{
		"passwords": true, "credit cards": true, "social security": true,
		"bank account": true, "personal address": true, "phone number": true,
		"family secrets": true, "confidential information": true,
		"trade secrets": true, "private keys": true,
	}
}

// defaultSensitiveTopics require extra caution but do not fail the gate.
func defaultSensitiveTopics() map[string]bool {
	return map[string]bool{
		"politics": true, "religion": true, "money": true, "health": true,
		"relationships": true, "work conflicts": true, "legal issues": true,
		"family problems": true,
	}
}

// =============================================================================
// SAFETY GATE
// =============================================================================

// Gate composes all safety checks and owns the bounded event log.
type Gate struct {
	mu        sync.RWMutex
	mode      Mode
	redlines  map[string]bool
	sensitive map[string]bool
	sink      func(types.SafetyEvent)

	consent *ConsentManager
	events  *types.Ring[types.SafetyEvent]
}

// NewGate creates a gate in strict mode with the default term sets.
// maxEvents bounds the event log; values <= 0 use EventLogSize.
func NewGate(consent *ConsentManager, maxEvents int) *Gate {
	if consent == nil {
		consent = NewConsentManager(nil)
	}
	if maxEvents <= 0 {
		maxEvents = EventLogSize
	}
	return &Gate{
		mode:      ModeStrict,
		redlines:  defaultRedlines(),
		sensitive: defaultSensitiveTopics(),
		consent:   consent,
		events:    types.NewRing[types.SafetyEvent](maxEvents),
	}
}

// SetEventSink registers a callback invoked with every newly logged
// event, typically to persist it. Restored events do not hit the sink.
func (g *Gate) SetEventSink(fn func(types.SafetyEvent)) {
	g.mu.Lock()
	g.sink = fn
	g.mu.Unlock()
}

// Consent exposes the gate's consent manager.
func (g *Gate) Consent() *ConsentManager {
	return g.consent
}

// Check runs all four checks against a candidate response. All checks
// always execute; the verdict reason is the last failing check's reason
// and Flags names every failing check in gate order.
func (g *Gate) Check(response string, msg types.IncomingMessage) types.SafetyVerdict {
	verdict := types.SafetyVerdict{Safe: true}

	if r := g.checkRedlines(response); r != "" {
		verdict.Safe = false
		verdict.Reason = "Redline violation: " + r
		verdict.Flags = append(verdict.Flags, "redline")
	}

	if f := FilterContent(response); !f.Safe {
		verdict.Safe = false
		verdict.Reason = "Content filter: " + f.Reason
		verdict.Flags = append(verdict.Flags, "content")
	}

	if c := g.consent.Check(msg); !c.Consented {
		verdict.Safe = false
		verdict.Reason = "Consent issue: " + c.Reason
		verdict.Flags = append(verdict.Flags, "consent")
	}

	if r := checkRelationshipRisk(response); r != "" {
		verdict.Safe = false
		verdict.Reason = "Relationship risk: " + r
		verdict.Flags = append(verdict.Flags, "relationship")
	}

	g.logEvent(response, msg, verdict)

	if !verdict.Safe {
		logging.Safety("unsafe response blocked: %s", verdict.Reason)
	}
	return verdict
}

// checkRedlines returns a failure reason, or "" when clean.
func (g *Gate) checkRedlines(response string) string {
	lower := strings.ToLower(response)

	g.mu.RLock()
	for term := range g.redlines {
		if strings.Contains(lower, term) {
			g.mu.RUnlock()
			return "Contains redline term: " + term
		}
	}
	g.mu.RUnlock()

	for _, p := range piiPatterns {
		if p.MatchString(response) {
			return "Contains potential personal information"
		}
	}
	return ""
}

// checkRelationshipRisk returns a failure reason, or "" when clean.
func checkRelationshipRisk(response string) string {
	lower := strings.ToLower(response)
	for _, phrase := range riskPhrases {
		if strings.Contains(lower, phrase) {
			return "Contains relationship risk phrase: " + phrase
		}
	}

	if strings.Count(response, "!") > 3 || capsRunPattern.MatchString(response) {
		return "Aggressive tone detected"
	}
	return ""
}

// logEvent appends one entry to the bounded event log. Response and
// message previews are truncated.
func (g *Gate) logEvent(response string, msg types.IncomingMessage, verdict types.SafetyVerdict) {
	event := types.SafetyEvent{
		ID:        uuid.NewString(),
		Timestamp: time.Now(),
		Response:  truncate(response, 200),
		Message:   truncate(msg.Content, 100),
		Sender:    msg.Sender,
		Platform:  msg.Platform,
		Safe:      verdict.Safe,
		Reason:    verdict.Reason,
		Flags:     verdict.Flags,
	}
	g.events.Append(event)

	g.mu.RLock()
	sink := g.sink
	g.mu.RUnlock()
	if sink != nil {
		sink(event)
	}
}

// RestoreEvents reloads previously persisted events into the log,
// oldest first. Bypasses the sink so restored entries are not
// persisted again.
func (g *Gate) RestoreEvents(events []types.SafetyEvent) {
	for _, e := range events {
		g.events.Append(e)
	}
	if len(events) > 0 {
		logging.Safety("restored %d safety events", len(events))
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// =============================================================================
// TERM SET AND MODE MANAGEMENT
// =============================================================================

// AddRedline adds a redline term. Terms are matched lowercased.
func (g *Gate) AddRedline(term string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.redlines[strings.ToLower(term)] = true
	logging.Safety("added redline: %s", term)
}

// RemoveRedline removes a redline term.
func (g *Gate) RemoveRedline(term string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.redlines, strings.ToLower(term))
	logging.Safety("removed redline: %s", term)
}

// Redlines returns the current redline term set.
func (g *Gate) Redlines() []string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]string, 0, len(g.redlines))
	for term := range g.redlines {
		out = append(out, term)
	}
	return out
}

// ReplaceRedlines swaps the whole redline set, used by the file watcher.
func (g *Gate) ReplaceRedlines(terms []string) {
	set := make(map[string]bool, len(terms))
	for _, t := range terms {
		set[strings.ToLower(strings.TrimSpace(t))] = true
	}
	delete(set, "")

	g.mu.Lock()
	g.redlines = set
	g.mu.Unlock()
	logging.Safety("redline set replaced: %d terms", len(set))
}

// AddSensitiveTopic registers a topic that needs extra caution.
func (g *Gate) AddSensitiveTopic(topic string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.sensitive[strings.ToLower(topic)] = true
	logging.Safety("added sensitive topic: %s", topic)
}

// SensitiveTopics returns the current sensitive topic set.
func (g *Gate) SensitiveTopics() []string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]string, 0, len(g.sensitive))
	for topic := range g.sensitive {
		out = append(out, topic)
	}
	return out
}

// ReplaceSensitiveTopics swaps the whole sensitive topic set.
func (g *Gate) ReplaceSensitiveTopics(topics []string) {
	set := make(map[string]bool, len(topics))
	for _, topic := range topics {
		set[strings.ToLower(strings.TrimSpace(topic))] = true
	}
	delete(set, "")

	g.mu.Lock()
	g.sensitive = set
	g.mu.Unlock()
	logging.Safety("sensitive topic set replaced: %d topics", len(set))
}

// SetMode sets the safety mode. Invalid modes are rejected with a warning
// and the mode is left unchanged.
func (g *Gate) SetMode(mode string) bool {
	m, ok := ParseMode(mode)
	if !ok {
		logging.Get(logging.CategorySafety).Warn("invalid safety mode: %s", mode)
		return false
	}
	g.mu.Lock()
	g.mode = m
	g.mu.Unlock()
	logging.Safety("safety mode set to: %s", m)
	return true
}

// GetMode returns the current safety mode.
func (g *Gate) GetMode() Mode {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.mode
}

// =============================================================================
// STATS AND HISTORY
// =============================================================================

// Stats summarizes gate activity.
type Stats struct {
	TotalEvents         int
	UnsafeEvents        int
	SafetyRate          float64
	FlagBreakdown       map[string]int
	PlatformBreakdown   map[types.Platform]int
	CurrentMode         Mode
	RedlineCount        int
	SensitiveTopicCount int
}

// GetStats computes statistics over the retained event window.
func (g *Gate) GetStats() Stats {
	events := g.events.Items()

	g.mu.RLock()
	stats := Stats{
		CurrentMode:         g.mode,
		RedlineCount:        len(g.redlines),
		SensitiveTopicCount: len(g.sensitive),
		FlagBreakdown:       make(map[string]int),
		PlatformBreakdown:   make(map[types.Platform]int),
		SafetyRate:          1.0,
	}
	g.mu.RUnlock()

	stats.TotalEvents = len(events)
	for _, e := range events {
		if !e.Safe {
			stats.UnsafeEvents++
		}
		for _, f := range e.Flags {
			stats.FlagBreakdown[f]++
		}
		stats.PlatformBreakdown[e.Platform]++
	}
	if stats.TotalEvents > 0 {
		stats.SafetyRate = float64(stats.TotalEvents-stats.UnsafeEvents) / float64(stats.TotalEvents)
	}
	return stats
}

// RecentEvents returns up to limit of the most recent events, oldest first.
func (g *Gate) RecentEvents(limit int) []types.SafetyEvent {
	return g.events.Last(limit)
}

// ClearHistory drops the retained event log.
func (g *Gate) ClearHistory() {
	g.events.Clear()
	logging.Safety("safety history cleared")
}
