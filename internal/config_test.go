package internal

import (
	"errors"
	"testing"
	"time"

	"github.com/tj/assert"
)

func TestTargetOptionsValidate(t *testing.T) {
	tests := []struct {
		name string
		opts TargetOptions
		ok   bool
	}{
		{"api id", TargetOptions{APIID: "abc"}, true},
		{"domain with region", TargetOptions{Domain: "events.example.com", Region: "us-east-1"}, true},
		{"neither", TargetOptions{}, false},
		{"both", TargetOptions{APIID: "abc", Domain: "events.example.com", Region: "us-east-1"}, false},
		{"domain without region", TargetOptions{Domain: "events.example.com"}, false},
		{"domain with scheme", TargetOptions{Domain: "https://events.example.com", Region: "us-east-1"}, false},
		{"unknown auth", TargetOptions{APIID: "abc", Auth: "oauth"}, false},
		{"mfa with session", TargetOptions{APIID: "abc", Auth: AuthSession, MFASerial: "arn:aws:iam::1:mfa/me"}, true},
		{"mfa without session", TargetOptions{APIID: "abc", MFASerial: "arn:aws:iam::1:mfa/me"}, false},
		{"api key flag with iam", TargetOptions{APIID: "abc", APIKey: "da2-x"}, false},
		{"api key lookup", TargetOptions{APIID: "abc", Auth: AuthAPIKey}, true},
		{"api key on domain needs key", TargetOptions{Domain: "d.example.com", Region: "us-east-1", Auth: AuthAPIKey}, false},
		{"duration too short", TargetOptions{APIID: "abc", Auth: AuthSession, Duration: 60}, false},
		{"duration ok", TargetOptions{APIID: "abc", Auth: AuthSession, Duration: 3600}, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.opts.Validate()
			if tc.ok {
				assert.NoError(t, err)
			} else {
				assert.True(t, errors.Is(err, ErrConfig), "got %v", err)
			}
		})
	}
}

func TestTargetOptionsDefaults(t *testing.T) {
	t.Setenv(SecretEnv, "from-env")

	opts := TargetOptions{APIID: "abc"}
	assert.NoError(t, opts.Validate())
	assert.Equal(t, AuthIAM, opts.Auth)
	assert.Equal(t, "from-env", opts.Secret)
	assert.Equal(t, "default", opts.CacheKey())

	opts = TargetOptions{APIID: "abc", Profile: "dev", Auth: AuthSession, MFASerial: "serial", Secret: "flag"}
	assert.NoError(t, opts.Validate())
	assert.Equal(t, "flag", opts.Secret)
	assert.Equal(t, "dev+mfa", opts.CacheKey())
}

func TestSubscribeOptionsValidate(t *testing.T) {
	opts := SubscribeOptions{Target: TargetOptions{APIID: "abc"}}
	assert.NoError(t, opts.Validate())
	assert.Equal(t, []string{DefaultSubscribeChannel}, opts.Channels)

	for _, channels := range [][]string{{"default/*"}, {"/"}, {"/a", "/a"}} {
		opts := SubscribeOptions{Target: TargetOptions{APIID: "abc"}, Channels: channels}
		assert.True(t, errors.Is(opts.Validate(), ErrConfig), "%v", channels)
	}

	opts = SubscribeOptions{Target: TargetOptions{APIID: "abc"}, AckTimeout: -time.Second}
	assert.True(t, errors.Is(opts.Validate(), ErrConfig))
}

func TestPublishOptionsValidate(t *testing.T) {
	opts := PublishOptions{Target: TargetOptions{APIID: "abc"}, Messages: []string{"hi"}}
	assert.NoError(t, opts.Validate())
	assert.Equal(t, DefaultPublishChannel, opts.Channel)

	tests := []PublishOptions{
		{Target: TargetOptions{APIID: "abc"}},
		{Target: TargetOptions{APIID: "abc"}, Messages: []string{"1", "2", "3", "4", "5", "6"}},
		{Target: TargetOptions{APIID: "abc"}, Channel: "/default/*", Messages: []string{"x"}},
		{Target: TargetOptions{APIID: "abc"}, Channel: "default", Messages: []string{"x"}},
	}
	for _, opts := range tests {
		assert.True(t, errors.Is(opts.Validate(), ErrConfig), "%+v", opts)
	}
}
