package cmd

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/appsync"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	"github.com/chukul/eventsctl/internal"
	"github.com/chukul/eventsctl/internal/signer"
	"github.com/chukul/eventsctl/internal/ui"
	"github.com/spf13/cobra"
)

func addTargetFlags(cmd *cobra.Command, o *internal.TargetOptions) {
	f := cmd.Flags()
	f.StringVar(&o.APIID, "api-id", "", "Event API id (hosts are looked up with appsync:GetApi)")
	f.StringVar(&o.Domain, "domain", "", "Custom domain serving both the HTTP and realtime endpoints")
	f.StringVar(&o.Region, "region", "", "AWS region (required with --domain)")
	f.StringVar(&o.Profile, "profile", "", "Shared AWS config profile")
	f.StringVar((*string)(&o.Auth), "auth", string(internal.AuthIAM), "Authorization: iam, session or api-key")
	f.StringVar(&o.MFASerial, "mfa", "", "MFA device ARN (session auth)")
	f.StringVar(&o.APIKey, "api-key", "", "API key (api-key auth, looked up when omitted)")
	f.StringVar(&o.Secret, "secret", "", "Session cache encryption secret (default $"+internal.SecretEnv+" or keychain)")
	f.Int32Var(&o.Duration, "duration", 0, "Session token lifetime in seconds (session auth)")
}

// resolveTarget looks up the API hosts and builds the authorizer for o.
func resolveTarget(ctx context.Context, o *internal.TargetOptions) (signer.Endpoint, signer.Authorizer, error) {
	cfg, err := internal.LoadAWSConfig(ctx, o.Profile, o.Region)
	if err != nil {
		return signer.Endpoint{}, nil, err
	}

	var client internal.AppSyncAPI
	if o.APIID != "" {
		client = appsync.NewFromConfig(cfg)
	}
	ep, err := ui.Spin("Resolving Event API "+o.APIID, func() (signer.Endpoint, error) {
		return internal.ResolveEndpoint(ctx, client, *o)
	})
	if err != nil {
		return signer.Endpoint{}, nil, err
	}
	if cfg.Region == "" {
		if region, err := signer.ResolveRegion(ep.Region, ep.HTTPHost); err == nil {
			cfg.Region = region
		}
	}

	auth, err := internal.NewAuthorizer(ctx, *o, cfg, ep, internal.AuthorizerDeps{
		AppSync:   client,
		STS:       sts.NewFromConfig(cfg),
		TokenCode: ui.MFACode,
		Logger:    logger,
		Now:       time.Now,
	})
	if err != nil {
		return signer.Endpoint{}, nil, err
	}

	logger.Debug().
		Str("http", ep.HTTPHost).
		Str("realtime", ep.RealtimeHost).
		Str("auth", string(o.Auth)).
		Msg("target resolved")
	return ep, auth, nil
}
