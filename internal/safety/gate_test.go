package safety

import (
	"strings"
	"testing"

	"mirrorme/internal/types"
)

func consentedMsg() types.IncomingMessage {
	return types.IncomingMessage{
		Sender:   "alex",
		Platform: types.PlatformChat,
		Content:  "how's the project going?",
	}
}

func TestCheckSafeResponse(t *testing.T) {
	g := NewGate(nil, 0)
	v := g.Check("pretty well, shipping tomorrow", consentedMsg())

	if !v.Safe {
		t.Errorf("verdict unsafe: %s", v.Reason)
	}
	if len(v.Flags) != 0 {
		t.Errorf("flags = %v, want none", v.Flags)
	}
}

func TestCheckSSNFailsRedline(t *testing.T) {
	g := NewGate(nil, 0)
	v := g.Check("my ssn is 123-45-6789", consentedMsg())

	if v.Safe {
		t.Fatal("SSN-shaped token should be unsafe")
	}
	found := false
	for _, f := range v.Flags {
		if f == "redline" {
			found = true
		}
	}
	if !found {
		t.Errorf("flags = %v, want redline", v.Flags)
	}
}

func TestCheckRedlineTerm(t *testing.T) {
	g := NewGate(nil, 0)
	v := g.Check("let me share the Bank Account details", consentedMsg())

	if v.Safe {
		t.Fatal("redline term should be unsafe")
	}
	if !strings.Contains(v.Reason, "bank account") {
		t.Errorf("reason = %q, want redline term named", v.Reason)
	}
}

func TestLastFailingCheckWinsReason(t *testing.T) {
	g := NewGate(nil, 0)
	// Fails redline ("passwords") and relationship risk ("whatever").
	// All checks run; the relationship check is last in order, so its
	// reason is the one reported.
	v := g.Check("whatever, the passwords are on the wiki", consentedMsg())

	if v.Safe {
		t.Fatal("expected unsafe verdict")
	}
	if !strings.HasPrefix(v.Reason, "Relationship risk:") {
		t.Errorf("reason = %q, want the relationship check's reason", v.Reason)
	}
	want := []string{"redline", "relationship"}
	if len(v.Flags) != 2 || v.Flags[0] != want[0] || v.Flags[1] != want[1] {
		t.Errorf("flags = %v, want %v", v.Flags, want)
	}
}

func TestFlagsAccumulateInGateOrder(t *testing.T) {
	g := NewGate(nil, 0)
	// passwords: redline. drugs: content filter. empty sender: consent.
	// i hate you: both content filter and relationship.
	msg := types.IncomingMessage{Platform: types.PlatformPost}
	v := g.Check("passwords and drugs, i hate you", msg)

	want := []string{"redline", "content", "consent", "relationship"}
	if len(v.Flags) != len(want) {
		t.Fatalf("flags = %v, want %v", v.Flags, want)
	}
	for i := range want {
		if v.Flags[i] != want[i] {
			t.Errorf("flags[%d] = %s, want %s", i, v.Flags[i], want[i])
		}
	}
	if !strings.HasPrefix(v.Reason, "Relationship risk:") {
		t.Errorf("reason = %q, want the last failing check's reason", v.Reason)
	}
}

func TestAggressiveToneHeuristic(t *testing.T) {
	g := NewGate(nil, 0)

	v := g.Check("no! stop! now! please! really!", consentedMsg())
	if v.Safe {
		t.Error("more than 3 exclamation marks should be unsafe")
	}

	v = g.Check("that is NOT ok", consentedMsg())
	if v.Safe {
		t.Error("3+ caps run should be unsafe")
	}

	v = g.Check("that is OK though", consentedMsg())
	if !v.Safe {
		t.Errorf("2-letter caps should be fine: %s", v.Reason)
	}
}

func TestContentFilterHarmfulBeatsInappropriate(t *testing.T) {
	r := FilterContent("racist drugs")
	if r.Safe {
		t.Fatal("expected unsafe")
	}
	if !strings.HasPrefix(r.Reason, "Harmful content detected") {
		t.Errorf("reason = %q, want harmful reported first", r.Reason)
	}
}

func TestEveryCheckAppendsEvent(t *testing.T) {
	g := NewGate(nil, 0)

	g.Check("all good", consentedMsg())
	g.Check("the passwords are here", consentedMsg())

	events := g.RecentEvents(0)
	if len(events) != 2 {
		t.Fatalf("events = %d, want 2 (safe invocations log too)", len(events))
	}
	if !events[0].Safe || events[1].Safe {
		t.Errorf("event safety flags wrong: %v %v", events[0].Safe, events[1].Safe)
	}
}

func TestEventPreviewTruncated(t *testing.T) {
	g := NewGate(nil, 0)
	long := strings.Repeat("a", 300)
	g.Check(long, consentedMsg())

	events := g.RecentEvents(1)
	if len(events[0].Response) != 203 { // 200 chars + "..."
		t.Errorf("response preview length = %d, want 203", len(events[0].Response))
	}
}

func TestAddRemoveRedline(t *testing.T) {
	g := NewGate(nil, 0)

	g.AddRedline("Project Thunderbolt")
	if v := g.Check("ask me about project thunderbolt", consentedMsg()); v.Safe {
		t.Error("added redline not enforced")
	}

	g.RemoveRedline("project thunderbolt")
	if v := g.Check("ask me about project thunderbolt", consentedMsg()); !v.Safe {
		t.Errorf("removed redline still enforced: %s", v.Reason)
	}
}

func TestReplaceRedlines(t *testing.T) {
	g := NewGate(nil, 0)
	g.ReplaceRedlines([]string{"Alpha", "  beta  ", ""})

	terms := g.Redlines()
	if len(terms) != 2 {
		t.Fatalf("terms = %v, want 2 normalized entries", terms)
	}
	if v := g.Check("alpha launch notes", consentedMsg()); v.Safe {
		t.Error("replaced redline not enforced")
	}
	// Default terms were replaced wholesale, so "passwords" is clean now.
	if v := g.Check("the passwords file", consentedMsg()); !v.Safe {
		t.Errorf("default redline should be gone after replace: %s", v.Reason)
	}
}

func TestSetModeValidation(t *testing.T) {
	g := NewGate(nil, 0)

	if !g.SetMode("lenient") {
		t.Error("valid mode rejected")
	}
	if g.GetMode() != ModeLenient {
		t.Errorf("mode = %s, want lenient", g.GetMode())
	}

	if g.SetMode("paranoid") {
		t.Error("invalid mode accepted")
	}
	if g.GetMode() != ModeLenient {
		t.Errorf("mode changed on invalid set: %s", g.GetMode())
	}
}

func TestEventLogHonorsConfiguredCap(t *testing.T) {
	g := NewGate(nil, 2)

	g.Check("one", consentedMsg())
	g.Check("two", consentedMsg())
	g.Check("three", consentedMsg())

	events := g.RecentEvents(0)
	if len(events) != 2 {
		t.Fatalf("events = %d, want the configured cap of 2", len(events))
	}
	if events[0].Response != "two" || events[1].Response != "three" {
		t.Errorf("oldest entry should be evicted: %q %q", events[0].Response, events[1].Response)
	}
}

func TestEventSinkSeesEveryCheck(t *testing.T) {
	g := NewGate(nil, 0)

	var got []types.SafetyEvent
	g.SetEventSink(func(e types.SafetyEvent) { got = append(got, e) })

	g.Check("fine", consentedMsg())
	g.Check("the passwords file", consentedMsg())

	if len(got) != 2 {
		t.Fatalf("sink saw %d events, want 2", len(got))
	}
	if !got[0].Safe || got[1].Safe {
		t.Errorf("sink event safety flags wrong: %v %v", got[0].Safe, got[1].Safe)
	}
}

func TestRestoreEventsBypassesSink(t *testing.T) {
	g := NewGate(nil, 0)

	sunk := 0
	g.SetEventSink(func(types.SafetyEvent) { sunk++ })

	g.RestoreEvents([]types.SafetyEvent{
		{ID: "a", Safe: true, Platform: types.PlatformChat},
		{ID: "b", Safe: false, Reason: "held"},
	})

	if sunk != 0 {
		t.Errorf("restored events reached the sink %d times", sunk)
	}
	events := g.RecentEvents(0)
	if len(events) != 2 {
		t.Fatalf("events = %d, want 2 restored", len(events))
	}
	if g.GetStats().UnsafeEvents != 1 {
		t.Errorf("restored events missing from stats: %+v", g.GetStats())
	}
}

func TestReplaceSensitiveTopics(t *testing.T) {
	g := NewGate(nil, 0)
	g.ReplaceSensitiveTopics([]string{"Layoffs", "  salary  ", ""})

	topics := g.SensitiveTopics()
	if len(topics) != 2 {
		t.Fatalf("topics = %v, want 2 normalized entries", topics)
	}
	if g.GetStats().SensitiveTopicCount != 2 {
		t.Errorf("SensitiveTopicCount = %d, want 2", g.GetStats().SensitiveTopicCount)
	}
}

func TestGetStats(t *testing.T) {
	g := NewGate(nil, 0)
	g.Check("fine", consentedMsg())
	g.Check("the passwords file", consentedMsg())

	stats := g.GetStats()
	if stats.TotalEvents != 2 || stats.UnsafeEvents != 1 {
		t.Errorf("stats = %+v", stats)
	}
	if stats.SafetyRate != 0.5 {
		t.Errorf("SafetyRate = %v, want 0.5", stats.SafetyRate)
	}
	if stats.FlagBreakdown["redline"] != 1 {
		t.Errorf("FlagBreakdown = %v", stats.FlagBreakdown)
	}
	if stats.PlatformBreakdown[types.PlatformChat] != 2 {
		t.Errorf("PlatformBreakdown = %v", stats.PlatformBreakdown)
	}
}
