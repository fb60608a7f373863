package internal

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/appsync/types"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	ststypes "github.com/aws/aws-sdk-go-v2/service/sts/types"
	"github.com/chukul/eventsctl/internal/signer"
	"github.com/rs/zerolog"
	"github.com/tj/assert"
)

type fakeSTS struct {
	calls   int
	last    *sts.GetSessionTokenInput
	expires time.Time
	err     error
}

func (f *fakeSTS) GetSessionToken(_ context.Context, in *sts.GetSessionTokenInput, _ ...func(*sts.Options)) (*sts.GetSessionTokenOutput, error) {
	f.calls++
	f.last = in
	if f.err != nil {
		return nil, f.err
	}
	return &sts.GetSessionTokenOutput{Credentials: &ststypes.Credentials{
		AccessKeyId:     aws.String("ASIA-SESSION"),
		SecretAccessKey: aws.String("session-secret"),
		SessionToken:    aws.String("session-token"),
		Expiration:      aws.Time(f.expires),
	}}, nil
}

var testNow = time.Date(2024, 11, 7, 2, 59, 19, 0, time.UTC)

func newProvider(client STSAPI, secret string) *SessionTokenProvider {
	return &SessionTokenProvider{
		Client: client,
		Key:    "dev",
		Secret: secret,
		Now:    func() time.Time { return testNow },
		Logger: zerolog.Nop(),
	}
}

func TestSessionTokenProviderCache(t *testing.T) {
	setupTestDir(t)
	client := &fakeSTS{expires: testNow.Add(time.Hour)}

	creds, err := newProvider(client, testSecret).Retrieve(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, "ASIA-SESSION", creds.AccessKeyID)
	assert.Equal(t, "session-token", creds.SessionToken)
	assert.True(t, creds.CanExpire)
	assert.Equal(t, 1, client.calls)

	// a fresh provider reuses the encrypted cache
	creds, err = newProvider(client, testSecret).Retrieve(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, "ASIA-SESSION", creds.AccessKeyID)
	assert.Equal(t, 1, client.calls)

	t.Run("expiring soon is refreshed", func(t *testing.T) {
		p := newProvider(client, testSecret)
		p.Now = func() time.Time { return testNow.Add(57 * time.Minute) }
		_, err := p.Retrieve(context.Background())
		assert.NoError(t, err)
		assert.Equal(t, 2, client.calls)
	})

	t.Run("wrong secret bypasses cache", func(t *testing.T) {
		_, err := newProvider(client, "other-secret").Retrieve(context.Background())
		assert.NoError(t, err)
		assert.Equal(t, 3, client.calls)
	})
}

func TestSessionTokenProviderWithoutSecret(t *testing.T) {
	setupTestDir(t)
	client := &fakeSTS{expires: testNow.Add(time.Hour)}

	_, err := newProvider(client, "").Retrieve(context.Background())
	assert.NoError(t, err)
	list, err := ListSessions()
	assert.NoError(t, err)
	assert.Equal(t, 0, len(list))
}

func TestSessionTokenProviderMFA(t *testing.T) {
	setupTestDir(t)
	client := &fakeSTS{expires: testNow.Add(time.Hour)}

	p := newProvider(client, "")
	p.SerialNumber = "arn:aws:iam::123456789012:mfa/me"
	p.Duration = 3600
	p.TokenCode = func(serial string) (string, error) {
		assert.Equal(t, "arn:aws:iam::123456789012:mfa/me", serial)
		return "123456", nil
	}

	_, err := p.Retrieve(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, "123456", aws.ToString(client.last.TokenCode))
	assert.Equal(t, p.SerialNumber, aws.ToString(client.last.SerialNumber))
	assert.Equal(t, int32(3600), aws.ToInt32(client.last.DurationSeconds))

	p.TokenCode = nil
	_, err = p.Retrieve(context.Background())
	assert.Error(t, err)

	p.TokenCode = func(string) (string, error) { return "", errors.New("cancelled") }
	_, err = p.Retrieve(context.Background())
	assert.Error(t, err)
}

func TestNewAuthorizer(t *testing.T) {
	setupTestDir(t)
	t.Setenv(SecretEnv, "")
	ctx := context.Background()
	ep := signer.Endpoint{HTTPHost: "abc.appsync-api.us-east-2.amazonaws.com", RealtimeHost: "abc.appsync-realtime-api.us-east-2.amazonaws.com"}
	deps := AuthorizerDeps{Logger: zerolog.Nop(), Now: func() time.Time { return testNow }}

	t.Run("iam", func(t *testing.T) {
		cfg := aws.Config{Credentials: credentials.NewStaticCredentialsProvider("AK", "SK", "")}
		auth, err := NewAuthorizer(ctx, TargetOptions{APIID: "abc", Auth: AuthIAM}, cfg, ep, deps)
		assert.NoError(t, err)

		h, err := auth.Authorize(ctx, signer.EmptyBody)
		assert.NoError(t, err)
		assert.Contains(t, h["authorization"], "Credential=AK/20241107/us-east-2/appsync/aws4_request")
	})

	t.Run("session", func(t *testing.T) {
		client := &fakeSTS{expires: testNow.Add(time.Hour)}
		d := deps
		d.STS = client
		auth, err := NewAuthorizer(ctx, TargetOptions{APIID: "abc", Auth: AuthSession, Secret: testSecret}, aws.Config{}, ep, d)
		assert.NoError(t, err)

		h, err := auth.Authorize(ctx, signer.EmptyBody)
		assert.NoError(t, err)
		assert.Equal(t, "session-token", h["x-amz-security-token"])
		assert.Contains(t, h["authorization"], "Credential=ASIA-SESSION/")

		_, err = auth.Authorize(ctx, `{"channel":"/default/*"}`)
		assert.NoError(t, err)
		assert.Equal(t, 1, client.calls)
	})

	t.Run("session without sts", func(t *testing.T) {
		_, err := NewAuthorizer(ctx, TargetOptions{APIID: "abc", Auth: AuthSession}, aws.Config{}, ep, deps)
		assert.True(t, errors.Is(err, ErrConfig))
	})

	t.Run("explicit api key", func(t *testing.T) {
		auth, err := NewAuthorizer(ctx, TargetOptions{APIID: "abc", Auth: AuthAPIKey, APIKey: "da2-explicit"}, aws.Config{}, ep, deps)
		assert.NoError(t, err)
		h, err := auth.Authorize(ctx, "")
		assert.NoError(t, err)
		assert.Equal(t, signer.HeaderSet{"host": ep.HTTPHost, "x-api-key": "da2-explicit"}, h)
	})

	t.Run("api key lookup", func(t *testing.T) {
		d := deps
		d.AppSync = &fakeAppSync{keyPages: [][]types.ApiKey{{{Id: aws.String("da2-found")}}}}
		auth, err := NewAuthorizer(ctx, TargetOptions{APIID: "abc", Auth: AuthAPIKey}, aws.Config{}, ep, d)
		assert.NoError(t, err)
		assert.Equal(t, signer.APIKey{Host: ep.HTTPHost, Key: "da2-found"}, auth)
	})
}
