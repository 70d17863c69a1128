package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var recallTopK int

// recallCmd searches the trained exemplars for your own past voice.
var recallCmd = &cobra.Command{
	Use:   "recall [text]",
	Short: "Find the trained exemplars most similar to a text",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		twin, _, cleanup, err := buildTwin()
		if err != nil {
			return err
		}
		defer cleanup()

		query := strings.Join(args, " ")
		matches, err := twin.Recall(cmd.Context(), query, recallTopK)
		if err != nil {
			return err
		}
		if len(matches) == 0 {
			fmt.Println("No similar exemplars found. Train the twin first.")
			return nil
		}
		for _, m := range matches {
			fmt.Printf("%.3f  [%-5s] %s\n", m.Similarity, m.Sample.Platform, m.Sample.Content)
		}
		return nil
	},
}

func init() {
	recallCmd.Flags().IntVar(&recallTopK, "top", 5, "maximum number of exemplars to return")
	rootCmd.AddCommand(recallCmd)
}
