package cmd

import (
	"fmt"

	"github.com/chukul/eventsctl/internal"
	"github.com/chukul/eventsctl/internal/publish"
	"github.com/chukul/eventsctl/internal/ui"
	"github.com/spf13/cobra"
)

var publishOpts internal.PublishOptions

var publishCmd = &cobra.Command{
	Use:   "publish",
	Short: "Publish events to a channel",
	Long: `Publish up to five events to a channel over HTTP. Each --message that is not valid JSON
is sent as a JSON string.`,
	Example: `  eventsctl publish --api-id abc --channel /default/test --message '{"message":"hello"}'
  eventsctl publish --api-id abc --auth api-key -m one -m two`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := publishOpts.Validate(); err != nil {
			return err
		}
		ctx := cmd.Context()

		ep, auth, err := resolveTarget(ctx, &publishOpts.Target)
		if err != nil {
			return err
		}

		res, err := publish.New(ep, auth, logger).Publish(ctx, publishOpts.Channel, publishOpts.Messages)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		for _, s := range res.Successful {
			fmt.Fprintln(out, ui.SuccessStyle.Render(fmt.Sprintf("published #%d %s", s.Index, s.Identifier)))
		}
		for _, f := range res.Failed {
			fmt.Fprintln(out, ui.ErrorStyle.Render(fmt.Sprintf("rejected  #%d %s: %d %s", f.Index, f.Identifier, f.Code, f.Message)))
		}
		if len(res.Failed) > 0 {
			return fmt.Errorf("%w: %d of %d events rejected", publish.ErrPublish, len(res.Failed), len(publishOpts.Messages))
		}
		return nil
	},
}

func init() {
	addTargetFlags(publishCmd, &publishOpts.Target)
	publishCmd.Flags().StringVarP(&publishOpts.Channel, "channel", "c", internal.DefaultPublishChannel, "Channel to publish to")
	publishCmd.Flags().StringArrayVarP(&publishOpts.Messages, "message", "m", nil, fmt.Sprintf("Event payload, repeatable (1..%d)", internal.MaxPublishEvents))
	rootCmd.AddCommand(publishCmd)
}
