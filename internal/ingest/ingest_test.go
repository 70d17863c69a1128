package ingest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mirrorme/internal/types"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

const chatExportJSON = `{
	"messages": [
		{"id": "1", "timestamp": "2024-03-01T10:00:00Z", "content": "lol that build is obviously broken", "author": {"id": "u1", "name": "me"}, "channel_id": "c1"},
		{"id": "2", "timestamp": "2024-03-01T10:01:00Z", "content": "works on my machine", "author": {"id": "u2", "name": "them"}, "channel_id": "c1"},
		{"id": "3", "timestamp": "2024-03-01T10:02:00Z", "content": "sure it does, duh", "author": {"id": "u1", "name": "me"}, "channel_id": "c1"},
		{"id": "4", "timestamp": "2024-03-01T10:03:00Z", "content": "", "author": {"id": "u1", "name": "me"}, "channel_id": "c1"},
		{"id": "5", "timestamp": "2024-03-01T10:04:00Z", "content": "**system notice**", "author": {"id": "u1", "name": "me"}, "channel_id": "c1"}
	]
}`

func TestParseChatExportKeepsOwnerMessages(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "messages_c1.json"), chatExportJSON)

	samples, err := ParseChatExport(dir)
	require.NoError(t, err)

	// u1 wrote 4 messages (most frequent author); empty and system
	// messages are dropped.
	require.Len(t, samples, 2)
	assert.Equal(t, "lol that build is obviously broken", samples[0].Content)
	assert.Equal(t, types.PlatformChat, samples[0].Platform)
	assert.Equal(t, "channel:c1", samples[0].Context)
	assert.False(t, samples[0].Timestamp.IsZero())
	require.NotNil(t, samples[0].Traits)
	assert.Equal(t, "sarcastic", samples[0].Traits.Humor)
}

func TestParseChatExportBareArray(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "messages.json"),
		`[{"id": "1", "content": "short but real message", "author": {"id": "u9"}}]`)

	samples, err := ParseChatExport(dir)
	require.NoError(t, err)
	require.Len(t, samples, 1)
	assert.Equal(t, "short but real message", samples[0].Content)
}

func TestParseChatExportIgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "account.json"), `{"name": "me"}`)
	writeFile(t, filepath.Join(dir, "notes.txt"), "not json")

	samples, err := ParseChatExport(dir)
	require.NoError(t, err)
	assert.Empty(t, samples)
}

func TestParseChatExportMissingDir(t *testing.T) {
	_, err := ParseChatExport(filepath.Join(t.TempDir(), "absent"))
	assert.Error(t, err)
}

func TestLoadMailbox(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sent.json")
	writeFile(t, path, `[
		{"id": "m1", "subject": "Quarterly report", "body": "Please find the draft attached. Regards.", "timestamp": "2024-02-10T08:00:00Z"},
		{"id": "m2", "subject": "empty one", "body": "  "}
	]`)

	samples, err := LoadMailbox(path)
	require.NoError(t, err)
	require.Len(t, samples, 1)
	assert.Equal(t, "Quarterly report", samples[0].Context)
	assert.Equal(t, types.PlatformEmail, samples[0].Platform)
	require.NotNil(t, samples[0].Traits)
	assert.Equal(t, "formal", samples[0].Traits.Formality)
}

func TestLoadPostDump(t *testing.T) {
	path := filepath.Join(t.TempDir(), "posts.json")
	writeFile(t, path, `[
		{"id": "p1", "title": "hot take", "body": "pineapple pizza is great actually", "community": "food", "timestamp": "2024-01-05T12:00:00Z"},
		{"id": "p2", "title": "title only post", "body": ""},
		{"id": "p3", "title": "", "body": ""}
	]`)

	samples, err := LoadPostDump(path)
	require.NoError(t, err)
	require.Len(t, samples, 2)
	assert.Equal(t, "hot take\npineapple pizza is great actually", samples[0].Content)
	assert.Equal(t, "food", samples[0].Context)
	assert.Equal(t, types.PlatformPost, samples[0].Platform)
	assert.Equal(t, "title only post", samples[1].Content)
}

func TestIngestAllCombinesSources(t *testing.T) {
	dir := t.TempDir()
	chatDir := filepath.Join(dir, "chat")
	writeFile(t, filepath.Join(chatDir, "messages.json"),
		`[{"id": "1", "content": "hello from chat land", "author": {"id": "u1"}}]`)

	mailPath := filepath.Join(dir, "sent.json")
	writeFile(t, mailPath, `[{"id": "m1", "subject": "s", "body": "hello from email land"}]`)

	samples, stats, err := IngestAll(Sources{
		ChatExportDir: chatDir,
		MailboxFile:   mailPath,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, stats.ChatMessages)
	assert.Equal(t, 1, stats.Emails)
	assert.Equal(t, 0, stats.Posts)
	assert.Equal(t, 2, stats.Total)
	assert.Len(t, samples, 2)
}

func TestIngestAllEmptySources(t *testing.T) {
	samples, stats, err := IngestAll(Sources{})
	require.NoError(t, err)
	assert.Empty(t, samples)
	assert.Zero(t, stats.Total)
}
