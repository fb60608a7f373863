package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/chukul/eventsctl/internal"
	"github.com/chukul/eventsctl/internal/ui"
	"github.com/spf13/cobra"
)

var errNotMacOS = errors.New("keychain integration is only available on macOS")

var secretCmd = &cobra.Command{
	Use:   "secret",
	Short: "Manage the session cache encryption secret",
	Long: `Manage the secret that encrypts cached session tokens. The secret is read from --secret,
then $` + internal.SecretEnv + `, then the macOS keychain.`,
}

var secretInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Generate a new secret and store it in the keychain",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !internal.IsMacOS() {
			return errNotMacOS
		}
		if _, err := internal.SetupKeychain(); err != nil {
			return err
		}
		// sessions sealed with the previous secret are unreadable now
		if err := internal.ClearSessions(); err != nil {
			logger.Warn().Err(err).Msg("clearing session cache")
		}
		fmt.Fprintln(cmd.OutOrStdout(), ui.SuccessStyle.Render("Secret generated and stored in Keychain"))
		return nil
	},
}

var secretShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current keychain secret",
	Long:  "Reveal the secret stored in your macOS Keychain. The system may ask you to authenticate.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !internal.IsMacOS() {
			return errNotMacOS
		}
		secret, err := internal.GetSecret("")
		if err != nil {
			return fmt.Errorf("no secret found in Keychain or it couldn't be accessed: %w", err)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, ui.TitleStyle.Render("eventsctl session cache secret:"))
		fmt.Fprintln(out, strings.Repeat("─", 64))
		fmt.Fprintln(out, secret)
		fmt.Fprintln(out, strings.Repeat("─", 64))
		fmt.Fprintln(out, ui.WarnStyle.Render("\nKeep this safe. To restore on another machine: eventsctl secret import <key>"))
		return nil
	},
}

var secretImportCmd = &cobra.Command{
	Use:   "import [key]",
	Short: "Import a secret into keychain",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if !internal.IsMacOS() {
			return errNotMacOS
		}

		var key string
		if len(args) > 0 {
			key = args[0]
		} else {
			var err error
			key, err = ui.GetInput("Enter Secret Key to Import", "", true)
			if err != nil {
				return err
			}
		}

		if err := internal.StoreKeychainSecret(key); err != nil {
			return fmt.Errorf("failed to store secret: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), ui.SuccessStyle.Render("Secret imported successfully to Keychain"))
		return nil
	},
}

func init() {
	secretCmd.AddCommand(secretInitCmd)
	secretCmd.AddCommand(secretShowCmd)
	secretCmd.AddCommand(secretImportCmd)
	rootCmd.AddCommand(secretCmd)
}
