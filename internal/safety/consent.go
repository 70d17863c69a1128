package safety

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"mirrorme/internal/logging"
	"mirrorme/internal/types"
)

// =============================================================================
// CONSENT MANAGER
// =============================================================================

// ConsentManager tracks which senders have explicitly opted in to receiving
// automated responses, plus an append-only audit trail of every grant and
// revoke.
type ConsentManager struct {
	mu        sync.RWMutex
	contacts  map[string]bool
	audit     []types.ConsentAction
	platforms map[types.Platform]bool
}

// DefaultConsentPlatforms are the platforms treated as consented without an
// explicit sender opt-in.
func DefaultConsentPlatforms() []types.Platform {
	return []types.Platform{types.PlatformChat, types.PlatformEmail, "enterprise-messaging"}
}

// NewConsentManager creates a consent manager with the given platform
// allow-list. A nil list falls back to the defaults.
func NewConsentManager(platforms []types.Platform) *ConsentManager {
	if platforms == nil {
		platforms = DefaultConsentPlatforms()
	}
	allowed := make(map[types.Platform]bool, len(platforms))
	for _, p := range platforms {
		allowed[p] = true
	}
	return &ConsentManager{
		contacts:  make(map[string]bool),
		platforms: allowed,
	}
}

// ConsentResult is the outcome of one consent check.
type ConsentResult struct {
	Consented bool
	Reason    string
}

// Check reports whether a response to this message is consented. An empty
// sender is never consented; otherwise an explicit opt-in wins, then the
// platform allow-list.
func (c *ConsentManager) Check(msg types.IncomingMessage) ConsentResult {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if msg.Sender != "" && c.contacts[msg.Sender] {
		return ConsentResult{Consented: true, Reason: "Sender has previously consented"}
	}

	if msg.Sender == "" {
		return ConsentResult{Consented: false, Reason: "Unknown sender"}
	}

	if c.platforms[msg.Platform] {
		return ConsentResult{Consented: true, Reason: "Platform-based consent"}
	}

	return ConsentResult{Consented: false, Reason: "No consent on file for this sender"}
}

// Grant records explicit consent for a sender.
func (c *ConsentManager) Grant(sender string, platform types.Platform) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.contacts[sender] = true
	c.audit = append(c.audit, types.ConsentAction{
		ID:        uuid.NewString(),
		Timestamp: time.Now(),
		Sender:    sender,
		Platform:  platform,
		Action:    "consent_granted",
	})
	logging.Consent("consent granted for %s", sender)
}

// Revoke removes consent for a sender. The audit entry is recorded even if
// the sender never consented.
func (c *ConsentManager) Revoke(sender string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.contacts, sender)
	c.audit = append(c.audit, types.ConsentAction{
		ID:        uuid.NewString(),
		Timestamp: time.Now(),
		Sender:    sender,
		Action:    "consent_revoked",
	})
	logging.Consent("consent revoked for %s", sender)
}

// Contacts returns the senders with explicit consent.
func (c *ConsentManager) Contacts() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]string, 0, len(c.contacts))
	for sender := range c.contacts {
		out = append(out, sender)
	}
	return out
}

// AuditTrail returns up to limit of the most recent audit entries, oldest
// first. limit <= 0 returns everything.
func (c *ConsentManager) AuditTrail(limit int) []types.ConsentAction {
	c.mu.RLock()
	defer c.mu.RUnlock()

	trail := c.audit
	if limit > 0 && len(trail) > limit {
		trail = trail[len(trail)-limit:]
	}
	out := make([]types.ConsentAction, len(trail))
	copy(out, trail)
	return out
}

// RestoreAudit seeds the audit trail and opted-in set from persisted
// actions, replaying them in order.
func (c *ConsentManager) RestoreAudit(actions []types.ConsentAction) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, a := range actions {
		switch a.Action {
		case "consent_granted":
			c.contacts[a.Sender] = true
		case "consent_revoked":
			delete(c.contacts, a.Sender)
		}
		c.audit = append(c.audit, a)
	}
}
