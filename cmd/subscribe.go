package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/chukul/eventsctl/internal"
	"github.com/chukul/eventsctl/internal/realtime"
	"github.com/chukul/eventsctl/internal/ui"
	"github.com/spf13/cobra"
)

var subscribeOpts internal.SubscribeOptions

var subscribeCmd = &cobra.Command{
	Use:   "subscribe",
	Short: "Subscribe to Event API channels and stream events",
	Long: `Open a realtime connection, subscribe to one or more channels and print every event as it arrives.
Keep-alives are collapsed into a single status line. Press Ctrl+C to unsubscribe and exit.`,
	Example: `  eventsctl subscribe --api-id abcdefghijklmnopqrstuvwxyz
  eventsctl subscribe --domain events.example.com --region us-east-1 --channel /default/* --channel /chat/room1
  eventsctl subscribe --api-id abc --auth session --mfa arn:aws:iam::123456789012:mfa/me
  eventsctl subscribe --api-id abc --filter 'event.message.startsWith("hi")'`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := subscribeOpts.Validate(); err != nil {
			return err
		}
		filter, err := realtime.NewFilter(subscribeOpts.Filter)
		if err != nil {
			return fmt.Errorf("%w: %w", internal.ErrConfig, err)
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		ep, auth, err := resolveTarget(ctx, &subscribeOpts.Target)
		if err != nil {
			return err
		}

		printer := ui.NewPrinter(cmd.OutOrStdout())
		defer printer.Flush()

		session := realtime.NewSession(realtime.Config{
			Endpoint:   ep,
			Channels:   subscribeOpts.Channels,
			Authorizer: auth,
			Presenter:  printer,
			Logger:     logger,
			AckTimeout: subscribeOpts.AckTimeout,
			Filter:     filter,
		})
		return session.Run(ctx)
	},
}

func init() {
	addTargetFlags(subscribeCmd, &subscribeOpts.Target)
	subscribeCmd.Flags().StringArrayVarP(&subscribeOpts.Channels, "channel", "c", nil, "Channel to subscribe to, repeatable (default "+internal.DefaultSubscribeChannel+")")
	subscribeCmd.Flags().DurationVar(&subscribeOpts.AckTimeout, "ack-timeout", 0, "Report subscriptions not acknowledged within this duration (0 disables)")
	subscribeCmd.Flags().StringVar(&subscribeOpts.Filter, "filter", "", "CEL expression over event, channel and id; only matching events are printed")
	rootCmd.AddCommand(subscribeCmd)
}
