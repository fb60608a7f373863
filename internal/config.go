package internal

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"
)

var (
	ErrConfig     = errors.New("invalid configuration")
	ErrResolution = errors.New("cannot resolve event api")
)

// AuthMode selects how requests are authorized.
type AuthMode string

const (
	AuthIAM     AuthMode = "iam"
	AuthSession AuthMode = "session"
	AuthAPIKey  AuthMode = "api-key"
)

const (
	SecretEnv = "EVENTSCTL_SECRET"

	DefaultSubscribeChannel = "/default/*"
	DefaultPublishChannel   = "/default"

	// MaxPublishEvents is the per-request event limit of the publish API.
	MaxPublishEvents = 5

	minSessionDuration = 900
	maxSessionDuration = 129600
)

// TargetOptions identify an Event API and how to authorize against it.
type TargetOptions struct {
	APIID     string
	Domain    string
	Region    string
	Profile   string
	Auth      AuthMode
	MFASerial string
	APIKey    string
	Secret    string
	Duration  int32
}

func (o *TargetOptions) Validate() error {
	switch {
	case o.APIID == "" && o.Domain == "":
		return fmt.Errorf("%w: one of --api-id or --domain is required", ErrConfig)
	case o.APIID != "" && o.Domain != "":
		return fmt.Errorf("%w: --api-id and --domain are mutually exclusive", ErrConfig)
	case o.Domain != "" && o.Region == "":
		return fmt.Errorf("%w: --region is required with --domain", ErrConfig)
	case strings.Contains(o.Domain, "/"):
		return fmt.Errorf("%w: --domain must be a host name, got %q", ErrConfig, o.Domain)
	}

	if o.Auth == "" {
		o.Auth = AuthIAM
	}
	switch o.Auth {
	case AuthIAM, AuthSession, AuthAPIKey:
	default:
		return fmt.Errorf("%w: unknown auth mode %q (want iam, session or api-key)", ErrConfig, o.Auth)
	}
	if o.MFASerial != "" && o.Auth != AuthSession {
		return fmt.Errorf("%w: --mfa requires --auth session", ErrConfig)
	}
	if o.APIKey != "" && o.Auth != AuthAPIKey {
		return fmt.Errorf("%w: --api-key requires --auth api-key", ErrConfig)
	}
	if o.Auth == AuthAPIKey && o.APIKey == "" && o.APIID == "" {
		return fmt.Errorf("%w: --auth api-key with --domain needs an explicit --api-key", ErrConfig)
	}
	if o.Duration != 0 && (o.Duration < minSessionDuration || o.Duration > maxSessionDuration) {
		return fmt.Errorf("%w: --duration must be between %d and %d seconds", ErrConfig, minSessionDuration, maxSessionDuration)
	}

	if o.Secret == "" {
		o.Secret = os.Getenv(SecretEnv)
	}
	return nil
}

// CacheKey names the cached session for this target's credentials.
func (o *TargetOptions) CacheKey() string {
	key := o.Profile
	if key == "" {
		key = "default"
	}
	if o.MFASerial != "" {
		key += "+mfa"
	}
	return key
}

// SubscribeOptions configure the subscribe command.
type SubscribeOptions struct {
	Target     TargetOptions
	Channels   []string
	AckTimeout time.Duration
	Filter     string
}

func (o *SubscribeOptions) Validate() error {
	if err := o.Target.Validate(); err != nil {
		return err
	}
	if len(o.Channels) == 0 {
		o.Channels = []string{DefaultSubscribeChannel}
	}
	seen := map[string]bool{}
	for _, ch := range o.Channels {
		if err := validateChannel(ch); err != nil {
			return err
		}
		if seen[ch] {
			return fmt.Errorf("%w: channel %q given twice", ErrConfig, ch)
		}
		seen[ch] = true
	}
	if o.AckTimeout < 0 {
		return fmt.Errorf("%w: --ack-timeout must not be negative", ErrConfig)
	}
	return nil
}

// PublishOptions configure the publish command.
type PublishOptions struct {
	Target   TargetOptions
	Channel  string
	Messages []string
}

func (o *PublishOptions) Validate() error {
	if err := o.Target.Validate(); err != nil {
		return err
	}
	if o.Channel == "" {
		o.Channel = DefaultPublishChannel
	}
	if err := validateChannel(o.Channel); err != nil {
		return err
	}
	if strings.Contains(o.Channel, "*") {
		return fmt.Errorf("%w: cannot publish to wildcard channel %q", ErrConfig, o.Channel)
	}
	if n := len(o.Messages); n == 0 || n > MaxPublishEvents {
		return fmt.Errorf("%w: between 1 and %d --message values required, got %d", ErrConfig, MaxPublishEvents, n)
	}
	return nil
}

func validateChannel(ch string) error {
	if !strings.HasPrefix(ch, "/") {
		return fmt.Errorf("%w: channel %q must start with /", ErrConfig, ch)
	}
	if ch == "/" {
		return fmt.Errorf("%w: channel %q has no namespace", ErrConfig, ch)
	}
	return nil
}
