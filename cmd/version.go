package cmd

import (
	"fmt"

	"github.com/chukul/eventsctl/internal"
	"github.com/chukul/eventsctl/internal/ui"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "eventsctl version %s (%s)\n", internal.CurrentVersion, internal.CommitHash())

		latest, url, err := internal.FetchLatestVersion(internal.GitHubAPI)
		if err != nil {
			fmt.Fprintf(out, "Unable to check for updates: %v\n", err)
			return
		}

		if internal.IsNewer(latest, internal.CurrentVersion) {
			fmt.Fprintln(out, ui.WarnStyle.Render(fmt.Sprintf("\nUpdate available: %s -> %s", internal.CurrentVersion, latest)))
			fmt.Fprintf(out, "   Download: %s\n", url)
		} else {
			fmt.Fprintln(out, ui.SuccessStyle.Render("You're running the latest version"))
		}
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
