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
// POST DUMP LOADER
// =============================================================================

// postEntry is one public post in an exported dump.
type postEntry struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Body      string `json:"body"`
	Community string `json:"community"`
	Timestamp string `json:"timestamp"`
}

// LoadPostDump reads a JSON dump of the user's public posts. Title-only
// posts use the title as content; otherwise title and body are joined.
func LoadPostDump(path string) ([]types.TrainingSample, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read post dump: %w", err)
	}

	var entries []postEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("unrecognized post dump format: %w", err)
	}

	var samples []types.TrainingSample
	for _, e := range entries {
		content := strings.TrimSpace(e.Body)
		title := strings.TrimSpace(e.Title)
		switch {
		case content == "" && title == "":
			continue
		case content == "":
			content = title
		case title != "":
			content = title + "\n" + content
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
			Content:   content,
			Context:   e.Community,
			Timestamp: ts,
			Platform:  types.PlatformPost,
			Traits:    personality.Annotate(content),
		})
	}

	logging.Ingest("post dump loaded: %d entries from %s", len(samples), path)
	return samples, nil
}
