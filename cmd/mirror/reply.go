package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"mirrorme/internal/safety"
	"mirrorme/internal/types"
)

var (
	replySender   string
	replyPlatform string
	replyContext  string
	replyMood     string
	replyDryRun   bool
	noAutoReply   bool
	needApproval  bool
)

// replyCmd runs one message through the pipeline.
var replyCmd = &cobra.Command{
	Use:   "reply [message]",
	Short: "Run an incoming message through the twin pipeline",
	Long: `Classifies the message, synthesizes a response in your trained style,
adjusts tone for the sender and context, and runs the safety gate.

With --dry-run the response is printed without touching the safety gate,
the dispatcher, or the history log.

Example:
  mirror reply --sender boss --platform email "Can you send the Q3 numbers?"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runReply,
}

func init() {
	replyCmd.Flags().StringVar(&replySender, "sender", "", "Sender identifier")
	replyCmd.Flags().StringVar(&replyPlatform, "platform", "chat", "Platform: chat, email, post")
	replyCmd.Flags().StringVar(&replyContext, "context", "", "Conversation context")
	replyCmd.Flags().StringVar(&replyMood, "mood", "", "Mood preset for this reply")
	replyCmd.Flags().BoolVar(&replyDryRun, "dry-run", false, "Synthesize only, skip safety and dispatch")
	replyCmd.Flags().BoolVar(&noAutoReply, "no-auto-reply", false, "Queue for manual review instead of dispatching")
	replyCmd.Flags().BoolVar(&needApproval, "require-approval", false, "Hold the response for manual approval")
	rootCmd.AddCommand(replyCmd)
}

func runReply(cmd *cobra.Command, args []string) error {
	twin, cfg, cleanup, err := buildTwin()
	if err != nil {
		return err
	}
	defer cleanup()

	if cfg.Safety.RedlineFile != "" {
		watcher, err := safety.NewRedlineWatcher(cfg.Safety.RedlineFile, twin.Gate())
		if err != nil {
			return err
		}
		if err := watcher.Start(cmd.Context()); err != nil {
			return err
		}
		defer watcher.Stop()
	}

	if replyMood != "" {
		if _, ok := twin.SetMood(replyMood); !ok {
			fmt.Printf("Unknown mood %q, using default\n", replyMood)
		}
	}
	twin.SetAutoReply(!noAutoReply)
	twin.SetOverrideRequired(needApproval)

	msg := types.IncomingMessage{
		Sender:   replySender,
		Platform: types.ParsePlatform(replyPlatform),
		Content:  strings.Join(args, " "),
		Context:  replyContext,
	}

	if replyDryRun {
		result, err := twin.Preview(cmd.Context(), msg)
		if err != nil {
			return err
		}
		fmt.Printf("Intent:   %s (%.2f)\n", result.Intent.Type, result.Intent.Confidence)
		fmt.Printf("Tone:     %s\n", result.Tone)
		fmt.Printf("Response: %s\n", result.Response)
		return nil
	}

	result := twin.Process(cmd.Context(), msg)

	fmt.Printf("Intent:  %s (%.2f)\n", result.Intent.Type, result.Intent.Confidence)
	fmt.Printf("Outcome: %s\n", result.Outcome)
	switch result.Outcome {
	case types.OutcomeSent:
		fmt.Printf("Sent:    %s\n", result.Response)
	case types.OutcomeManualReview, types.OutcomeManualApproval:
		fmt.Printf("Reason:  %s\n", result.Reason)
		if result.Response != "" {
			fmt.Printf("Held:    %s\n", result.Response)
		}
	case types.OutcomeError:
		return fmt.Errorf("pipeline error: %s", result.Reason)
	}
	return nil
}
