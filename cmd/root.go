package cmd

import (
	"fmt"
	"os"

	"github.com/chukul/eventsctl/internal"
	"github.com/chukul/eventsctl/internal/ui"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var (
	logLevel string
	debug    bool

	logger = zerolog.Nop()
)

func printLogo() {
	ascii := []string{
		`  ███████╗██╗   ██╗███████╗███╗   ██╗████████╗███████╗ ██████╗████████╗██╗     `,
		`  ██╔════╝██║   ██║██╔════╝████╗  ██║╚══██╔══╝██╔════╝██╔════╝╚══██╔══╝██║     `,
		`  █████╗  ██║   ██║█████╗  ██╔██╗ ██║   ██║   ███████╗██║        ██║   ██║     `,
		`  ██╔══╝  ╚██╗ ██╔╝██╔══╝  ██║╚██╗██║   ██║   ╚════██║██║        ██║   ██║     `,
		`  ███████╗ ╚████╔╝ ███████╗██║ ╚████║   ██║   ███████║╚██████╗   ██║   ███████╗`,
		`  ╚══════╝  ╚═══╝  ╚══════╝╚═╝  ╚═══╝   ╚═╝   ╚══════╝ ╚═════╝   ╚═╝   ╚══════╝`,
	}

	fmt.Println()
	for _, line := range ascii {
		runes := []rune(line)
		for i, char := range runes {
			// Blue -> Purple -> Pink
			ratio := float64(i) / float64(len(runes))

			var r, g, b int
			if ratio < 0.5 {
				subRatio := ratio * 2
				r = int(170 * subRatio)
				g = int(176 * (1 - subRatio))
				b = 255
			} else {
				subRatio := (ratio - 0.5) * 2
				r = int(170*(1-subRatio) + 255*subRatio)
				g = 0
				b = int(255*(1-subRatio) + 128*subRatio)
			}

			fmt.Printf("\x1b[38;2;%d;%d;%dm%c\x1b[0m", r, g, b, char)
		}
		fmt.Println()
	}
	fmt.Println("\x1b[1m  Subscribe and publish to AWS AppSync Event API channels from your terminal\x1b[0m")
	fmt.Println()
}

var rootCmd = &cobra.Command{
	Use:           "eventsctl",
	Short:         "eventsctl is a CLI client for AWS AppSync Event APIs",
	Long:          `eventsctl signs requests with your AWS credentials (or an API key), subscribes to Event API channels over WebSocket and publishes events over HTTP.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level := logLevel
		if debug {
			level = "debug"
		}
		l, err := internal.NewLogger(level, os.Stderr)
		if err != nil {
			return err
		}
		logger = l

		// non-blocking
		internal.CheckForUpdates()
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "Diagnostic log level (trace, debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Shortcut for --log-level debug")
}

// Execute runs the CLI
func Execute() {
	if len(os.Args) <= 1 || os.Args[1] == "help" {
		printLogo()
	}
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, ui.ErrorStyle.Render("Error: "+err.Error()))
		os.Exit(1)
	}
}
