package internal

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/appsync"
	"github.com/aws/aws-sdk-go-v2/service/appsync/types"
	"github.com/tj/assert"
)

type fakeAppSync struct {
	api      *types.Api
	err      error
	keyPages [][]types.ApiKey
	calls    int
}

func (f *fakeAppSync) GetApi(_ context.Context, in *appsync.GetApiInput, _ ...func(*appsync.Options)) (*appsync.GetApiOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &appsync.GetApiOutput{Api: f.api}, nil
}

func (f *fakeAppSync) ListApiKeys(_ context.Context, in *appsync.ListApiKeysInput, _ ...func(*appsync.Options)) (*appsync.ListApiKeysOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	page := f.calls
	f.calls++
	out := &appsync.ListApiKeysOutput{ApiKeys: f.keyPages[page]}
	if page+1 < len(f.keyPages) {
		out.NextToken = aws.String("next")
	}
	return out, nil
}

func TestResolveEndpoint(t *testing.T) {
	ctx := context.Background()

	t.Run("api id", func(t *testing.T) {
		client := &fakeAppSync{api: &types.Api{Dns: map[string]string{
			"HTTP":     "abc.appsync-api.us-east-2.amazonaws.com",
			"REALTIME": "abc.appsync-realtime-api.us-east-2.amazonaws.com",
		}}}
		ep, err := ResolveEndpoint(ctx, client, TargetOptions{APIID: "abc"})
		assert.NoError(t, err)
		assert.Equal(t, "abc.appsync-api.us-east-2.amazonaws.com", ep.HTTPHost)
		assert.Equal(t, "abc.appsync-realtime-api.us-east-2.amazonaws.com", ep.RealtimeHost)
	})

	t.Run("custom domain skips lookup", func(t *testing.T) {
		ep, err := ResolveEndpoint(ctx, nil, TargetOptions{Domain: "events.example.com", Region: "eu-west-1"})
		assert.NoError(t, err)
		assert.Equal(t, "events.example.com", ep.HTTPHost)
		assert.Equal(t, "events.example.com", ep.RealtimeHost)
		assert.Equal(t, "eu-west-1", ep.Region)
	})

	t.Run("not an event api", func(t *testing.T) {
		client := &fakeAppSync{api: &types.Api{Dns: map[string]string{"GRAPHQL": "x"}}}
		_, err := ResolveEndpoint(ctx, client, TargetOptions{APIID: "abc"})
		assert.True(t, errors.Is(err, ErrResolution))
	})

	t.Run("lookup failure", func(t *testing.T) {
		_, err := ResolveEndpoint(ctx, &fakeAppSync{err: errors.New("NotFoundException")}, TargetOptions{APIID: "abc"})
		assert.True(t, errors.Is(err, ErrResolution))
	})
}

func TestLookupAPIKey(t *testing.T) {
	now := time.Date(2024, 11, 7, 0, 0, 0, 0, time.UTC)
	client := &fakeAppSync{keyPages: [][]types.ApiKey{
		{{Id: aws.String("da2-expired"), Expires: now.Add(-time.Hour).Unix()}},
		{{Id: nil}, {Id: aws.String("da2-valid"), Expires: now.Add(time.Hour).Unix()}},
	}}

	key, err := LookupAPIKey(context.Background(), client, "abc", now)
	assert.NoError(t, err)
	assert.Equal(t, "da2-valid", key)
	assert.Equal(t, 2, client.calls)

	_, err = LookupAPIKey(context.Background(), &fakeAppSync{keyPages: [][]types.ApiKey{{}}}, "abc", now)
	assert.True(t, errors.Is(err, ErrResolution))
}
