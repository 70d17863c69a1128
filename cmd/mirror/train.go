package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"mirrorme/internal/ingest"
)

var (
	chatExportDir string
	mailboxFile   string
	postDumpFile  string
)

// trainCmd ingests the configured corpora and rebuilds the personality
// model and exemplar index.
var trainCmd = &cobra.Command{
	Use:   "train",
	Short: "Train the personality model from your message corpus",
	Long: `Ingests exported corpora (chat exports, sent mail, post dumps),
annotates every sample with personality traits, aggregates them into a
profile, and embeds the usable samples into the exemplar index.

Training replaces the previous model atomically. Training on an empty
corpus resets the twin to untrained.

Example:
  mirror train --chat-export ./export/discord --mailbox ./export/sent.json`,
	RunE: runTrain,
}

// ingestCmd parses the corpora and reports what training would see,
// without touching the model.
var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Parse corpora and report sample counts without training",
	RunE:  runIngest,
}

func init() {
	for _, cmd := range []*cobra.Command{trainCmd, ingestCmd} {
		cmd.Flags().StringVar(&chatExportDir, "chat-export", "", "Directory of chat export JSON files")
		cmd.Flags().StringVar(&mailboxFile, "mailbox", "", "JSON file of sent mail")
		cmd.Flags().StringVar(&postDumpFile, "posts", "", "JSON dump of public posts")
	}
	rootCmd.AddCommand(trainCmd)
	rootCmd.AddCommand(ingestCmd)
}

func runTrain(cmd *cobra.Command, args []string) error {
	twin, _, cleanup, err := buildTwin()
	if err != nil {
		return err
	}
	defer cleanup()

	samples, stats, err := ingest.IngestAll(ingest.Sources{
		ChatExportDir: chatExportDir,
		MailboxFile:   mailboxFile,
		PostDumpFile:  postDumpFile,
	})
	if err != nil {
		return fmt.Errorf("ingestion failed: %w", err)
	}

	logger.Info("corpus ingested",
		zap.Int("chat", stats.ChatMessages),
		zap.Int("email", stats.Emails),
		zap.Int("posts", stats.Posts))

	report, err := twin.Train(cmd.Context(), samples)
	if err != nil {
		return fmt.Errorf("training failed: %w", err)
	}

	if !report.Trained {
		fmt.Println("Corpus was empty; twin reset to untrained.")
		return nil
	}

	fmt.Printf("Trained on %d samples (%d indexed for retrieval) in %v\n",
		report.TotalSamples, report.Indexed, report.Duration.Round(time.Millisecond))
	return nil
}

func runIngest(cmd *cobra.Command, args []string) error {
	samples, stats, err := ingest.IngestAll(ingest.Sources{
		ChatExportDir: chatExportDir,
		MailboxFile:   mailboxFile,
		PostDumpFile:  postDumpFile,
	})
	if err != nil {
		return fmt.Errorf("ingestion failed: %w", err)
	}

	fmt.Printf("Chat messages: %d\n", stats.ChatMessages)
	fmt.Printf("Emails:        %d\n", stats.Emails)
	fmt.Printf("Posts:         %d\n", stats.Posts)
	fmt.Printf("Total samples: %d\n", stats.Total)

	annotated := 0
	for _, s := range samples {
		if s.Traits != nil {
			annotated++
		}
	}
	fmt.Printf("With trait signal: %d\n", annotated)
	return nil
}
