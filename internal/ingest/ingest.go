// Package ingest converts exported corpora (chat exports, sent mail,
// public posts) into annotated training samples. Live scraping is out of
// scope; everything here works from files the user exported themselves.
package ingest

import (
	"mirrorme/internal/logging"
	"mirrorme/internal/types"
)

// Sources names the corpus files to ingest. Empty fields are skipped.
type Sources struct {
	ChatExportDir string
	MailboxFile   string
	PostDumpFile  string
}

// Stats summarizes one ingestion run.
type Stats struct {
	ChatMessages int
	Emails       int
	Posts        int
	Total        int
}

// IngestAll loads every configured source and returns the combined sample
// set. A failure in one source aborts the run; partial corpora produce
// skewed profiles.
func IngestAll(src Sources) ([]types.TrainingSample, Stats, error) {
	var samples []types.TrainingSample
	var stats Stats

	if src.ChatExportDir != "" {
		chat, err := ParseChatExport(src.ChatExportDir)
		if err != nil {
			return nil, stats, err
		}
		samples = append(samples, chat...)
		stats.ChatMessages = len(chat)
	}

	if src.MailboxFile != "" {
		mail, err := LoadMailbox(src.MailboxFile)
		if err != nil {
			return nil, stats, err
		}
		samples = append(samples, mail...)
		stats.Emails = len(mail)
	}

	if src.PostDumpFile != "" {
		posts, err := LoadPostDump(src.PostDumpFile)
		if err != nil {
			return nil, stats, err
		}
		samples = append(samples, posts...)
		stats.Posts = len(posts)
	}

	stats.Total = len(samples)
	logging.Ingest("ingestion complete: %d chat, %d email, %d post samples",
		stats.ChatMessages, stats.Emails, stats.Posts)
	return samples, stats, nil
}
