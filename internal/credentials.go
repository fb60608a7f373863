package internal

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	"github.com/chukul/eventsctl/internal/signer"
	"github.com/rs/zerolog"
)

// sessions are refreshed this long before they expire
const cacheMargin = 5 * time.Minute

const sessionSource = "EventsctlSessionToken"

// SessionTokenProvider exchanges the ambient credentials for an STS session
// token, optionally with MFA, and caches the result encrypted on disk when a
// secret is configured.
type SessionTokenProvider struct {
	Client       STSAPI
	Key          string
	Secret       string
	Profile      string
	Region       string
	SerialNumber string
	Duration     int32
	TokenCode    func(serial string) (string, error)
	Now          func() time.Time
	Logger       zerolog.Logger
}

var _ aws.CredentialsProvider = (*SessionTokenProvider)(nil)

func (p *SessionTokenProvider) Retrieve(ctx context.Context) (aws.Credentials, error) {
	now := time.Now
	if p.Now != nil {
		now = p.Now
	}

	if p.Secret != "" {
		s, err := LoadSession(p.Key, p.Secret)
		switch {
		case err == nil && s.Valid(now(), cacheMargin):
			p.Logger.Debug().Str("key", p.Key).Time("expires", s.Expiration).Msg("using cached session")
			return s.credentials(), nil
		case err == nil:
			p.Logger.Debug().Str("key", p.Key).Msg("cached session expired")
		case errors.Is(err, ErrSessionNotFound):
		default:
			p.Logger.Warn().Err(err).Str("key", p.Key).Msg("ignoring unreadable cached session")
		}
	}

	in := &sts.GetSessionTokenInput{}
	if p.Duration > 0 {
		in.DurationSeconds = aws.Int32(p.Duration)
	}
	if p.SerialNumber != "" {
		if p.TokenCode == nil {
			return aws.Credentials{}, fmt.Errorf("mfa device %v configured but no token code source", p.SerialNumber)
		}
		code, err := p.TokenCode(p.SerialNumber)
		if err != nil {
			return aws.Credentials{}, fmt.Errorf("reading mfa code: %w", err)
		}
		in.SerialNumber = aws.String(p.SerialNumber)
		in.TokenCode = aws.String(code)
	}

	out, err := p.Client.GetSessionToken(ctx, in)
	if err != nil {
		return aws.Credentials{}, fmt.Errorf("getting session token: %w", err)
	}
	if out.Credentials == nil {
		return aws.Credentials{}, errors.New("getting session token: empty credentials")
	}

	s := &AWSSession{
		AccessKey:    aws.ToString(out.Credentials.AccessKeyId),
		SecretKey:    aws.ToString(out.Credentials.SecretAccessKey),
		SessionToken: aws.ToString(out.Credentials.SessionToken),
		Expiration:   aws.ToTime(out.Credentials.Expiration),
		Profile:      p.Profile,
		Region:       p.Region,
		MFASerial:    p.SerialNumber,
		Duration:     p.Duration,
	}
	p.Logger.Info().Str("key", p.Key).Time("expires", s.Expiration).Msg("obtained session token")

	if p.Secret != "" {
		if err := SaveSession(p.Key, s, p.Secret); err != nil {
			p.Logger.Warn().Err(err).Msg("caching session")
		}
	}
	return s.credentials(), nil
}

func (s *AWSSession) credentials() aws.Credentials {
	return aws.Credentials{
		AccessKeyID:     s.AccessKey,
		SecretAccessKey: s.SecretKey,
		SessionToken:    s.SessionToken,
		Source:          sessionSource,
		CanExpire:       true,
		Expires:         s.Expiration,
	}
}

// AuthorizerDeps are the collaborators NewAuthorizer may need.
type AuthorizerDeps struct {
	AppSync   AppSyncAPI
	STS       STSAPI
	TokenCode func(serial string) (string, error)
	Logger    zerolog.Logger
	Now       func() time.Time
}

// NewAuthorizer builds the authorizer selected by opts.Auth for ep.
func NewAuthorizer(ctx context.Context, opts TargetOptions, cfg aws.Config, ep signer.Endpoint, deps AuthorizerDeps) (signer.Authorizer, error) {
	now := time.Now
	if deps.Now != nil {
		now = deps.Now
	}

	switch opts.Auth {
	case AuthIAM, "":
		return withClock(signer.New(ep, cfg.Credentials), deps.Now), nil

	case AuthSession:
		if deps.STS == nil {
			return nil, fmt.Errorf("%w: session auth needs an STS client", ErrConfig)
		}
		secret, err := GetSecret(opts.Secret)
		if err != nil {
			deps.Logger.Debug().Err(err).Msg("session cache disabled")
			secret = ""
		}
		provider := &SessionTokenProvider{
			Client:       deps.STS,
			Key:          opts.CacheKey(),
			Secret:       secret,
			Profile:      opts.Profile,
			Region:       cfg.Region,
			SerialNumber: opts.MFASerial,
			Duration:     opts.Duration,
			TokenCode:    deps.TokenCode,
			Now:          deps.Now,
			Logger:       deps.Logger,
		}
		cache := aws.NewCredentialsCache(provider, func(o *aws.CredentialsCacheOptions) {
			o.ExpiryWindow = cacheMargin
		})
		return withClock(signer.New(ep, cache), deps.Now), nil

	case AuthAPIKey:
		key := opts.APIKey
		if key == "" {
			if deps.AppSync == nil {
				return nil, fmt.Errorf("%w: no api key given and no appsync client to look one up", ErrConfig)
			}
			var err error
			if key, err = LookupAPIKey(ctx, deps.AppSync, opts.APIID, now()); err != nil {
				return nil, err
			}
		}
		return signer.APIKey{Host: ep.HTTPHost, Key: key}, nil

	default:
		return nil, fmt.Errorf("%w: unknown auth mode %q", ErrConfig, opts.Auth)
	}
}

func withClock(s *signer.Signer, now func() time.Time) *signer.Signer {
	if now != nil {
		s.Now = now
	}
	return s
}
