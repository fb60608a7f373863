package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/chukul/eventsctl/internal"
	"github.com/chukul/eventsctl/internal/ui"
	"github.com/spf13/cobra"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage cached session tokens",
	Long:  `Session tokens obtained with --auth session are cached encrypted under ~/.eventsctl when a secret is available.`,
}

var cacheListCmd = &cobra.Command{
	Use:   "list",
	Short: "List cached sessions with expiration and remaining time",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		sessions, err := internal.ListSessions()
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if len(sessions) == 0 {
			fmt.Fprintln(out, "No cached sessions found.")
			return nil
		}

		fmt.Fprintln(out, ui.TitleStyle.Render(fmt.Sprintf("%-20s %-12s %-22s %-12s %s", "KEY", "REGION", "EXPIRATION", "REMAINING", "MFA")))
		fmt.Fprintln(out, strings.Repeat("-", 80))

		now := time.Now()
		for _, s := range sessions {
			mfa := "-"
			if s.MFASerial != "" {
				mfa = s.MFASerial
			}
			region := s.Region
			if region == "" {
				region = "-"
			}
			remaining := internal.Remaining(s.Expiration, now)
			if s.Expiration.Before(now) {
				remaining = ui.ErrorStyle.Render(remaining)
			} else {
				remaining = ui.SuccessStyle.Render(remaining)
			}
			fmt.Fprintf(out, "%-20s %-12s %-22s %-12s %s\n", s.Key, region, internal.FormatExpiry(s.Expiration), remaining, mfa)
		}
		return nil
	},
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear [key]",
	Short: "Remove one cached session, or all of them",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 1 {
			if err := internal.RemoveSession(args[0]); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), ui.SuccessStyle.Render(fmt.Sprintf("Removed cached session %s", args[0])))
			return nil
		}
		if err := internal.ClearSessions(); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), ui.SuccessStyle.Render("Session cache cleared"))
		return nil
	},
}

func init() {
	cacheCmd.AddCommand(cacheListCmd)
	cacheCmd.AddCommand(cacheClearCmd)
	rootCmd.AddCommand(cacheCmd)
}
