package internal

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/appsync"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	"github.com/chukul/eventsctl/internal/signer"
)

// AppSyncAPI is the subset of the AppSync control plane used to resolve an
// Event API.
type AppSyncAPI interface {
	GetApi(ctx context.Context, in *appsync.GetApiInput, optFns ...func(*appsync.Options)) (*appsync.GetApiOutput, error)
	ListApiKeys(ctx context.Context, in *appsync.ListApiKeysInput, optFns ...func(*appsync.Options)) (*appsync.ListApiKeysOutput, error)
}

// STSAPI is the subset of STS used for session-token exchange.
type STSAPI interface {
	GetSessionToken(ctx context.Context, in *sts.GetSessionTokenInput, optFns ...func(*sts.Options)) (*sts.GetSessionTokenOutput, error)
}

var (
	_ AppSyncAPI = (*appsync.Client)(nil)
	_ STSAPI     = (*sts.Client)(nil)
)

const (
	dnsHTTP     = "HTTP"
	dnsRealtime = "REALTIME"
)

// LoadAWSConfig loads the shared AWS configuration, optionally pinned to a
// profile and region.
func LoadAWSConfig(ctx context.Context, profile, region string) (aws.Config, error) {
	var opts []func(*config.LoadOptions) error
	if region != "" {
		opts = append(opts, config.WithRegion(region))
	}
	if profile != "" {
		opts = append(opts, config.WithSharedConfigProfile(profile))
	}
	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return aws.Config{}, fmt.Errorf("%w: loading aws config: %w", ErrConfig, err)
	}
	return cfg, nil
}

// ResolveEndpoint returns the hosts of the target API. A custom domain serves
// both endpoints and needs no lookup.
func ResolveEndpoint(ctx context.Context, client AppSyncAPI, opts TargetOptions) (signer.Endpoint, error) {
	if opts.Domain != "" {
		return signer.Endpoint{
			HTTPHost:     opts.Domain,
			RealtimeHost: opts.Domain,
			Region:       opts.Region,
		}, nil
	}

	out, err := client.GetApi(ctx, &appsync.GetApiInput{ApiId: aws.String(opts.APIID)})
	if err != nil {
		return signer.Endpoint{}, fmt.Errorf("%w: %v: %w", ErrResolution, opts.APIID, err)
	}
	if out.Api == nil {
		return signer.Endpoint{}, fmt.Errorf("%w: %v: empty response", ErrResolution, opts.APIID)
	}

	ep := signer.Endpoint{
		HTTPHost:     out.Api.Dns[dnsHTTP],
		RealtimeHost: out.Api.Dns[dnsRealtime],
		Region:       opts.Region,
	}
	if ep.HTTPHost == "" || ep.RealtimeHost == "" {
		return signer.Endpoint{}, fmt.Errorf("%w: %v has no %v/%v dns entries (not an Event API?)", ErrResolution, opts.APIID, dnsHTTP, dnsRealtime)
	}
	return ep, nil
}

// LookupAPIKey returns the first API key of apiID that has not expired.
func LookupAPIKey(ctx context.Context, client AppSyncAPI, apiID string, now time.Time) (string, error) {
	in := &appsync.ListApiKeysInput{ApiId: aws.String(apiID)}
	for {
		out, err := client.ListApiKeys(ctx, in)
		if err != nil {
			return "", fmt.Errorf("%w: listing api keys of %v: %w", ErrResolution, apiID, err)
		}
		for _, k := range out.ApiKeys {
			if k.Id == nil {
				continue
			}
			if k.Expires != 0 && time.Unix(k.Expires, 0).Before(now) {
				continue
			}
			return *k.Id, nil
		}
		if out.NextToken == nil || *out.NextToken == "" {
			break
		}
		in.NextToken = out.NextToken
	}
	return "", fmt.Errorf("%w: %v has no valid api key", ErrResolution, apiID)
}
