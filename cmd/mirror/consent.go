package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"mirrorme/internal/types"
)

var consentPlatform string

// consentCmd manages per-sender opt-in.
var consentCmd = &cobra.Command{
	Use:   "consent",
	Short: "Manage per-sender consent for automated replies",
}

var consentGrantCmd = &cobra.Command{
	Use:   "grant [sender]",
	Short: "Record that a sender opted in to automated replies",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		twin, _, cleanup, err := buildTwin()
		if err != nil {
			return err
		}
		defer cleanup()

		if err := twin.GrantConsent(args[0], types.ParsePlatform(consentPlatform)); err != nil {
			return err
		}
		fmt.Printf("Consent granted for %s\n", args[0])
		return nil
	},
}

var consentRevokeCmd = &cobra.Command{
	Use:   "revoke [sender]",
	Short: "Revoke a sender's consent",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		twin, _, cleanup, err := buildTwin()
		if err != nil {
			return err
		}
		defer cleanup()

		if err := twin.RevokeConsent(args[0]); err != nil {
			return err
		}
		fmt.Printf("Consent revoked for %s\n", args[0])
		return nil
	},
}

var consentListCmd = &cobra.Command{
	Use:   "list",
	Short: "List senders with consent on file",
	RunE: func(cmd *cobra.Command, args []string) error {
		twin, _, cleanup, err := buildTwin()
		if err != nil {
			return err
		}
		defer cleanup()

		contacts := twin.Gate().Consent().Contacts()
		if len(contacts) == 0 {
			fmt.Println("No senders have consented.")
			return nil
		}
		sort.Strings(contacts)
		for _, c := range contacts {
			fmt.Println(c)
		}
		return nil
	},
}

var consentAuditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Show the consent audit trail",
	RunE: func(cmd *cobra.Command, args []string) error {
		twin, _, cleanup, err := buildTwin()
		if err != nil {
			return err
		}
		defer cleanup()

		trail := twin.Gate().Consent().AuditTrail(50)
		if len(trail) == 0 {
			fmt.Println("Audit trail is empty.")
			return nil
		}
		for _, a := range trail {
			fmt.Printf("%s  %-16s %-10s %s\n",
				a.Timestamp.Format("2006-01-02 15:04:05"), a.Action, a.Platform, a.Sender)
		}
		return nil
	},
}

func init() {
	consentGrantCmd.Flags().StringVar(&consentPlatform, "platform", "chat", "Platform the consent applies to")
	consentCmd.AddCommand(consentGrantCmd, consentRevokeCmd, consentListCmd, consentAuditCmd)
	rootCmd.AddCommand(consentCmd)
}
