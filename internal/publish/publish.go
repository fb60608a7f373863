// Package publish sends events to an Event API channel over HTTP.
package publish

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	"github.com/chukul/eventsctl/internal/signer"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
)

var ErrPublish = errors.New("publish failed")

const (
	eventPath = "/event"
	// MaxEvents is the per-request event limit.
	MaxEvents = 5
)

// HTTPClient sends publish requests.
type HTTPClient interface {
	Do(*http.Request) (*http.Response, error)
}

var _ HTTPClient = (*awshttp.BuildableClient)(nil)

// Result is the service's per-event outcome.
type Result struct {
	Successful []Success `json:"successful"`
	Failed     []Failure `json:"failed"`
}

type Success struct {
	Identifier string `json:"identifier"`
	Index      int    `json:"index"`
}

type Failure struct {
	Identifier string `json:"identifier"`
	Index      int    `json:"index"`
	Code       int    `json:"code"`
	Message    string `json:"message"`
}

// Publisher posts signed publish requests.
type Publisher struct {
	Endpoint   signer.Endpoint
	Authorizer signer.Authorizer
	Client     HTTPClient
	Logger     zerolog.Logger
}

func New(ep signer.Endpoint, auth signer.Authorizer, log zerolog.Logger) *Publisher {
	return &Publisher{
		Endpoint:   ep,
		Authorizer: auth,
		Client:     awshttp.NewBuildableClient().WithTimeout(10 * time.Second),
		Logger:     log.With().Str("component", "publisher").Logger(),
	}
}

// Body builds the request body for events published to channel. Inputs that
// are not JSON documents are published as JSON strings.
func Body(channel string, events []string) (string, error) {
	if n := len(events); n == 0 || n > MaxEvents {
		return "", fmt.Errorf("%w: %d events, want 1..%d", ErrPublish, n, MaxEvents)
	}
	encoded := make([]string, 0, len(events))
	for _, e := range events {
		if json.Valid([]byte(e)) {
			var buf bytes.Buffer
			if err := json.Compact(&buf, []byte(e)); err != nil {
				return "", err
			}
			encoded = append(encoded, buf.String())
			continue
		}
		s, err := signer.Compact(e)
		if err != nil {
			return "", err
		}
		encoded = append(encoded, s)
	}
	return signer.Compact(struct {
		Channel string   `json:"channel"`
		Events  []string `json:"events"`
	}{channel, encoded})
}

// Publish sends events to channel and returns the per-event result. A
// non-2xx response is an error wrapping ErrPublish.
func (p *Publisher) Publish(ctx context.Context, channel string, events []string) (Result, error) {
	body, err := Body(channel, events)
	if err != nil {
		return Result{}, err
	}
	auth, err := p.Authorizer.Authorize(ctx, body)
	if err != nil {
		return Result{}, fmt.Errorf("authorizing publish: %w", err)
	}

	url := "https://" + p.Endpoint.HTTPHost + eventPath
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader([]byte(body)))
	if err != nil {
		return Result{}, err
	}
	req.Header = signer.DefaultHeaders()
	for k, v := range auth {
		if k == "host" {
			continue
		}
		req.Header.Set(k, v)
	}

	p.Logger.Debug().Str("url", url).Str("channel", channel).Int("events", len(events)).Msg("publishing")
	resp, err := p.Client.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %w", ErrPublish, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return Result{}, fmt.Errorf("%w: reading response: %w", ErrPublish, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Result{}, fmt.Errorf("%w: status %d: %s", ErrPublish, resp.StatusCode, bytes.TrimSpace(raw))
	}

	var res Result
	if err := json.Unmarshal(raw, &res); err != nil {
		return Result{}, fmt.Errorf("%w: decoding response: %w", ErrPublish, err)
	}
	for _, f := range res.Failed {
		p.Logger.Warn().Int("index", f.Index).Int("code", f.Code).Str("message", f.Message).Msg("event rejected")
	}
	return res, nil
}
