package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// safetyCmd inspects and tunes the safety gate.
var safetyCmd = &cobra.Command{
	Use:   "safety",
	Short: "Inspect and tune the safety gate",
}

var safetyModeCmd = &cobra.Command{
	Use:   "mode [strict|moderate|lenient]",
	Short: "Show or set the safety mode",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		twin, cfg, cleanup, err := buildTwin()
		if err != nil {
			return err
		}
		defer cleanup()

		if len(args) == 0 {
			fmt.Printf("Safety mode: %s\n", twin.Gate().GetMode())
			return nil
		}

		if !twin.Gate().SetMode(args[0]) {
			return fmt.Errorf("invalid safety mode %q (use strict, moderate, or lenient)", args[0])
		}
		cfg.Safety.Mode = args[0]
		if err := cfg.Save(workspace); err != nil {
			return fmt.Errorf("mode set but config save failed: %w", err)
		}
		fmt.Printf("Safety mode set to %s\n", args[0])
		return nil
	},
}

var safetyRedlineCmd = &cobra.Command{
	Use:   "redlines",
	Short: "List redline terms",
	RunE: func(cmd *cobra.Command, args []string) error {
		twin, _, cleanup, err := buildTwin()
		if err != nil {
			return err
		}
		defer cleanup()

		for _, term := range twin.Gate().Redlines() {
			fmt.Println(term)
		}
		return nil
	},
}

var safetyAddRedlineCmd = &cobra.Command{
	Use:   "add-redline [term]",
	Short: "Add a term the twin must never say",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		twin, _, cleanup, err := buildTwin()
		if err != nil {
			return err
		}
		defer cleanup()

		if err := twin.AddRedline(args[0]); err != nil {
			return fmt.Errorf("redline added but not persisted: %w", err)
		}
		fmt.Printf("Redline added: %s\n", args[0])
		return nil
	},
}

var safetyRemoveRedlineCmd = &cobra.Command{
	Use:   "remove-redline [term]",
	Short: "Remove a redline term",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		twin, _, cleanup, err := buildTwin()
		if err != nil {
			return err
		}
		defer cleanup()

		if err := twin.RemoveRedline(args[0]); err != nil {
			return fmt.Errorf("redline removed but not persisted: %w", err)
		}
		fmt.Printf("Redline removed: %s\n", args[0])
		return nil
	},
}

var safetyAddTopicCmd = &cobra.Command{
	Use:   "add-topic [topic]",
	Short: "Add a sensitive topic requiring extra caution",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		twin, _, cleanup, err := buildTwin()
		if err != nil {
			return err
		}
		defer cleanup()

		if err := twin.AddSensitiveTopic(args[0]); err != nil {
			return fmt.Errorf("topic added but not persisted: %w", err)
		}
		fmt.Printf("Sensitive topic added: %s\n", args[0])
		return nil
	},
}

var safetyEventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Show recent safety gate verdicts",
	RunE: func(cmd *cobra.Command, args []string) error {
		twin, _, cleanup, err := buildTwin()
		if err != nil {
			return err
		}
		defer cleanup()

		events := twin.Gate().RecentEvents(20)
		if len(events) == 0 {
			fmt.Println("No safety events recorded.")
			return nil
		}
		for _, e := range events {
			status := "SAFE"
			if !e.Safe {
				status = "HELD"
			}
			fmt.Printf("%s  %-4s %-8s %s\n",
				e.Timestamp.Format("2006-01-02 15:04:05"), status, e.Platform, e.Reason)
		}
		return nil
	},
}

var safetyStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show safety gate statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		twin, _, cleanup, err := buildTwin()
		if err != nil {
			return err
		}
		defer cleanup()

		stats := twin.Gate().GetStats()
		fmt.Printf("Mode:             %s\n", stats.CurrentMode)
		fmt.Printf("Total checks:     %d\n", stats.TotalEvents)
		fmt.Printf("Held responses:   %d\n", stats.UnsafeEvents)
		fmt.Printf("Safety rate:      %.1f%%\n", stats.SafetyRate*100)
		fmt.Printf("Redline terms:    %d\n", stats.RedlineCount)
		fmt.Printf("Sensitive topics: %d\n", stats.SensitiveTopicCount)
		if len(stats.FlagBreakdown) > 0 {
			fmt.Println("Flags:")
			for flag, n := range stats.FlagBreakdown {
				fmt.Printf("  %-14s %d\n", flag, n)
			}
		}
		return nil
	},
}

func init() {
	safetyCmd.AddCommand(safetyModeCmd, safetyRedlineCmd, safetyAddRedlineCmd,
		safetyRemoveRedlineCmd, safetyAddTopicCmd, safetyEventsCmd, safetyStatsCmd)
	rootCmd.AddCommand(safetyCmd)
}
