package safety

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"mirrorme/internal/types"
)

func TestConsentEmptySenderNeverConsented(t *testing.T) {
	c := NewConsentManager(nil)
	r := c.Check(types.IncomingMessage{Platform: types.PlatformChat})
	assert.False(t, r.Consented)
	assert.Equal(t, "Unknown sender", r.Reason)
}

func TestConsentPlatformDefault(t *testing.T) {
	c := NewConsentManager(nil)

	r := c.Check(types.IncomingMessage{Sender: "sam", Platform: types.PlatformEmail})
	assert.True(t, r.Consented)
	assert.Equal(t, "Platform-based consent", r.Reason)

	r = c.Check(types.IncomingMessage{Sender: "sam", Platform: types.PlatformPost})
	assert.False(t, r.Consented, "post is not a default-consent platform")
}

func TestConsentExplicitGrantAndRevoke(t *testing.T) {
	c := NewConsentManager(nil)

	c.Grant("sam", types.PlatformPost)
	r := c.Check(types.IncomingMessage{Sender: "sam", Platform: types.PlatformPost})
	assert.True(t, r.Consented)
	assert.Equal(t, "Sender has previously consented", r.Reason)

	c.Revoke("sam")
	r = c.Check(types.IncomingMessage{Sender: "sam", Platform: types.PlatformPost})
	assert.False(t, r.Consented)
}

func TestConsentAuditTrail(t *testing.T) {
	c := NewConsentManager(nil)
	c.Grant("sam", types.PlatformChat)
	c.Revoke("sam")
	c.Grant("kai", types.PlatformEmail)

	trail := c.AuditTrail(0)
	if assert.Len(t, trail, 3) {
		assert.Equal(t, "consent_granted", trail[0].Action)
		assert.Equal(t, "consent_revoked", trail[1].Action)
		assert.Equal(t, "kai", trail[2].Sender)
		assert.NotEmpty(t, trail[0].ID)
	}

	limited := c.AuditTrail(2)
	assert.Len(t, limited, 2)
	assert.Equal(t, "consent_revoked", limited[0].Action)
}

func TestConsentRestoreAuditReplaysState(t *testing.T) {
	c := NewConsentManager(nil)
	c.Grant("sam", types.PlatformChat)
	c.Grant("kai", types.PlatformChat)
	c.Revoke("sam")

	restored := NewConsentManager(nil)
	restored.RestoreAudit(c.AuditTrail(0))

	assert.ElementsMatch(t, []string{"kai"}, restored.Contacts())
	assert.Len(t, restored.AuditTrail(0), 3)
}

func TestConsentCustomPlatformList(t *testing.T) {
	c := NewConsentManager([]types.Platform{types.PlatformPost})

	r := c.Check(types.IncomingMessage{Sender: "sam", Platform: types.PlatformPost})
	assert.True(t, r.Consented)

	r = c.Check(types.IncomingMessage{Sender: "sam", Platform: types.PlatformChat})
	assert.False(t, r.Consented)
}
