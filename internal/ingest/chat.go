package ingest

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"mirrorme/internal/logging"
	"mirrorme/internal/personality"
	"mirrorme/internal/types"
)

// =============================================================================
// CHAT EXPORT PARSER
// =============================================================================

// chatMessage is one message in a chat export file.
type chatMessage struct {
	ID        string `json:"id"`
	Timestamp string `json:"timestamp"`
	Content   string `json:"content"`
	Author    struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	} `json:"author"`
	ChannelID   string            `json:"channel_id"`
	Referenced  json.RawMessage   `json:"referenced_message,omitempty"`
	Attachments []json.RawMessage `json:"attachments"`
}

// chatExportFile covers the export shapes seen in the wild: a bare message
// array, {"messages": [...]}, or {"channel": {"messages": [...]}}.
type chatExportFile struct {
	Messages []chatMessage `json:"messages"`
	Channel  *struct {
		Messages []chatMessage `json:"messages"`
	} `json:"channel"`
}

// ParseChatExport walks an export directory, collects every *.json file
// whose name mentions "messages", identifies the corpus owner as the most
// frequent author, and returns that author's messages as annotated
// training samples.
func ParseChatExport(dir string) ([]types.TrainingSample, error) {
	if _, err := os.Stat(dir); err != nil {
		return nil, fmt.Errorf("chat export directory not found: %w", err)
	}

	var messages []chatMessage
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		name := strings.ToLower(d.Name())
		if !strings.HasSuffix(name, ".json") || !strings.Contains(name, "messages") {
			return nil
		}

		fileMessages, err := parseChatFile(path)
		if err != nil {
			logging.Get(logging.CategoryIngest).Warn("skipping %s: %v", path, err)
			return nil
		}
		messages = append(messages, fileMessages...)
		return nil
	})
	if err != nil {
		return nil, err
	}

	ownerID := identifyOwner(messages)
	if ownerID == "" {
		logging.Ingest("chat export yielded no attributable messages")
		return nil, nil
	}

	var samples []types.TrainingSample
	for _, m := range messages {
		if m.Author.ID != ownerID {
			continue
		}
		if s, ok := chatSample(m); ok {
			samples = append(samples, s)
		}
	}

	logging.Ingest("chat export parsed: %d messages from owner %s", len(samples), ownerID)
	return samples, nil
}

func parseChatFile(path string) ([]chatMessage, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	// Bare array first, then the wrapped shapes.
	var list []chatMessage
	if err := json.Unmarshal(data, &list); err == nil {
		return list, nil
	}

	var file chatExportFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("unrecognized export format: %w", err)
	}
	if len(file.Messages) > 0 {
		return file.Messages, nil
	}
	if file.Channel != nil {
		return file.Channel.Messages, nil
	}
	return nil, nil
}

// identifyOwner picks the most frequent author ID as the corpus owner.
func identifyOwner(messages []chatMessage) string {
	counts := make(map[string]int)
	for _, m := range messages {
		if m.Author.ID != "" {
			counts[m.Author.ID]++
		}
	}

	owner := ""
	best := 0
	for id, n := range counts {
		if n > best || (n == best && id < owner) {
			owner = id
			best = n
		}
	}
	return owner
}

// chatSample converts one message into a training sample. Empty and
// system messages are dropped.
func chatSample(m chatMessage) (types.TrainingSample, bool) {
	content := strings.TrimSpace(m.Content)
	if content == "" || strings.HasPrefix(content, "**") {
		return types.TrainingSample{}, false
	}

	id := m.ID
	if id == "" {
		id = uuid.NewString()
	}

	var ts time.Time
	if m.Timestamp != "" {
		if parsed, err := time.Parse(time.RFC3339, m.Timestamp); err == nil {
			ts = parsed
		}
	}

	var contextParts []string
	if m.ChannelID != "" {
		contextParts = append(contextParts, "channel:"+m.ChannelID)
	}
	if len(m.Referenced) > 0 {
		contextParts = append(contextParts, "reply")
	}

	return types.TrainingSample{
		ID:        id,
		Content:   content,
		Context:   strings.Join(contextParts, "|"),
		Timestamp: ts,
		Platform:  types.PlatformChat,
		Traits:    personality.Annotate(content),
	}, true
}
