package ingest

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"mirrorme/internal/logging"
	"mirrorme/internal/personality"
	"mirrorme/internal/types"
)

// =============================================================================
// MAILBOX LOADER
// =============================================================================

// mailboxEntry is one sent mail in an exported mailbox file.
type mailboxEntry struct {
	ID        string `json:"id"`
	Subject   string `json:"subject"`
	Body      string `json:"body"`
	Timestamp string `json:"timestamp"`
}

// LoadMailbox reads a JSON export of sent mail and converts each entry to
// an annotated training sample. The subject becomes the sample context.
func LoadMailbox(path string) ([]types.TrainingSample, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read mailbox file: %w", err)
	}

	var entries []mailboxEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("unrecognized mailbox format: %w", err)
	}

	var samples []types.TrainingSample
	for _, e := range entries {
		body := strings.TrimSpace(e.Body)
		if body == "" {
			continue
		}

		id := e.ID
		if id == "" {
			id = uuid.NewString()
		}

		var ts time.Time
		if e.Timestamp != "" {
			if parsed, err := time.Parse(time.RFC3339, e.Timestamp); err == nil {
				ts = parsed
			}
		}

		samples = append(samples, types.TrainingSample{
			ID:        id,
			Content:   body,
			Context:   e.Subject,
			Timestamp: ts,
			Platform:  types.PlatformEmail,
			Traits:    personality.Annotate(body),
		})
	}

	logging.Ingest("mailbox loaded: %d entries from %s", len(samples), path)
	return samples, nil
}
