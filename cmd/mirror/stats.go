package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

// statsCmd reports twin activity.
var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show twin activity statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		twin, _, cleanup, err := buildTwin()
		if err != nil {
			return err
		}
		defer cleanup()

		stats := twin.GetStats()
		fmt.Printf("Trained:         %v\n", stats.Trained)
		fmt.Printf("Indexed samples: %d\n", stats.IndexedSamples)
		fmt.Printf("Current mood:    %s\n", stats.CurrentMood)
		fmt.Printf("Responses sent:  %d\n", stats.TotalResponses)
		if stats.TotalResponses > 0 {
			fmt.Printf("Auto-reply rate: %.1f%%\n", stats.AutoReplyRate*100)
		}
		printBreakdown("Platforms", stats.Platforms)
		printBreakdown("Intents", stats.Intents)
		printBreakdown("Moods", stats.Moods)
		return nil
	},
}

// historyCmd lists recently dispatched responses.
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recently dispatched responses",
	RunE: func(cmd *cobra.Command, args []string) error {
		twin, _, cleanup, err := buildTwin()
		if err != nil {
			return err
		}
		defer cleanup()

		entries := twin.RecentResponses(20)
		if len(entries) == 0 {
			fmt.Println("No responses dispatched yet.")
			return nil
		}
		for _, e := range entries {
			fmt.Printf("%s  [%s] %s -> %s\n",
				e.Timestamp.Format("2006-01-02 15:04:05"), e.Platform, e.Sender, e.Response)
		}
		return nil
	},
}

func printBreakdown[K ~string](title string, counts map[K]int) {
	if len(counts) == 0 {
		return
	}
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, string(k))
	}
	sort.Strings(keys)
	fmt.Printf("%s:\n", title)
	for _, k := range keys {
		fmt.Printf("  %-12s %d\n", k, counts[K(k)])
	}
}

func init() {
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(historyCmd)
}
