package signer

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/goccy/go-json"
)

const (
	// Protocol is the WebSocket subprotocol spoken by the realtime endpoint.
	Protocol = "aws-appsync-event-ws"

	tokenPrefix = "header-"
)

// Authorizer produces the header set authorizing a request with the given body.
type Authorizer interface {
	Authorize(ctx context.Context, body string) (HeaderSet, error)
}

var (
	_ Authorizer = (*Signer)(nil)
	_ Authorizer = APIKey{}
)

// APIKey authorizes with a static API key instead of SigV4.
type APIKey struct {
	Host string
	Key  string
}

func (a APIKey) Authorize(_ context.Context, _ string) (HeaderSet, error) {
	if a.Key == "" {
		return nil, fmt.Errorf("%w: empty api key", ErrInvalidHeaderSet)
	}
	h := HeaderSet{"host": a.Host, "x-api-key": a.Key}
	if err := h.Validate(); err != nil {
		return nil, err
	}
	return h, nil
}

// Encode turns a header set into the "header-" subprotocol token.
func Encode(h HeaderSet) string {
	b, _ := json.Marshal(h)
	return tokenPrefix + base64.RawURLEncoding.EncodeToString(b)
}

// Decode reverses Encode and returns the raw JSON payload.
func Decode(token string) ([]byte, error) {
	if !strings.HasPrefix(token, tokenPrefix) {
		return nil, fmt.Errorf("token missing %q prefix", tokenPrefix)
	}
	b, err := base64.RawURLEncoding.DecodeString(strings.TrimPrefix(token, tokenPrefix))
	if err != nil {
		return nil, fmt.Errorf("decoding token: %w", err)
	}
	return b, nil
}

// Subprotocols returns the protocol list negotiated at connect time.
func Subprotocols(h HeaderSet) []string {
	return []string{Protocol, Encode(h)}
}

// ChannelBody is the compact JSON body signed for a subscribe request.
func ChannelBody(channel string) (string, error) {
	return Compact(struct {
		Channel string `json:"channel"`
	}{channel})
}

// Compact encodes v without insignificant whitespace or HTML escaping, the
// form the service expects when it recomputes a signed body.
func Compact(v interface{}) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return "", fmt.Errorf("encoding body: %w", err)
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}
