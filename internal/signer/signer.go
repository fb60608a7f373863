// Package signer builds the SigV4 authorization used by AppSync Event APIs.
//
// The realtime endpoint cannot receive custom headers during the WebSocket
// handshake, so every authorization is computed for a synthetic
// `POST https://<httpHost>/event` request and shipped as a plain header map.
package signer

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
)

const (
	// Service is the SigV4 signing name of AppSync.
	Service = "appsync"
	// EmptyBody is signed for the connection-time authorization.
	EmptyBody = "{}"

	eventPath = "/event"
)

var (
	ErrRegionNotFound     = errors.New("region not provided and not derivable from host")
	ErrMissingCredentials = errors.New("missing AWS credentials")
	ErrInvalidHeaderSet   = errors.New("invalid signed header set")
)

// defaultHeaders are part of every signed request. Values must not change.
var defaultHeaders = [][2]string{
	{"accept", "application/json, text/javascript"},
	{"content-encoding", "amz-1.0"},
	{"content-type", "application/json; charset=UTF-8"},
}

// regionPattern matches <id>.appsync-api.<region>.amazonaws.com
var regionPattern = regexp.MustCompile(`\w+\.appsync-api\.([\w-]+)\.amazonaws\.com`)

// Endpoint identifies an Event API.
type Endpoint struct {
	HTTPHost     string
	RealtimeHost string
	Region       string // optional when HTTPHost follows the AWS naming pattern
}

// HeaderSet is the lower-cased signed header mapping sent as authorization.
type HeaderSet map[string]string

// DefaultHeaders returns the fixed request headers as an http.Header.
func DefaultHeaders() http.Header {
	h := http.Header{}
	for _, kv := range defaultHeaders {
		h.Set(kv[0], kv[1])
	}
	return h
}

// ResolveRegion returns the explicit region when set, otherwise the region
// embedded in an AWS-managed AppSync hostname.
func ResolveRegion(explicit, host string) (string, error) {
	if explicit != "" {
		return explicit, nil
	}
	if m := regionPattern.FindStringSubmatch(host); m != nil {
		return m[1], nil
	}
	return "", fmt.Errorf("%w: %q", ErrRegionNotFound, host)
}

// Sign computes the SigV4 header set for a POST of body to the endpoint at
// the given time. It performs no I/O.
func Sign(ctx context.Context, ep Endpoint, creds aws.Credentials, body string, now time.Time) (HeaderSet, error) {
	if ep.HTTPHost == "" {
		return nil, fmt.Errorf("%w: empty http host", ErrInvalidHeaderSet)
	}
	region, err := ResolveRegion(ep.Region, ep.HTTPHost)
	if err != nil {
		return nil, err
	}
	if creds.AccessKeyID == "" || creds.SecretAccessKey == "" {
		return nil, ErrMissingCredentials
	}
	if body == "" {
		body = EmptyBody
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, "https://"+ep.HTTPHost+eventPath, nil)
	if err != nil {
		return nil, fmt.Errorf("building request for %v: %w", ep.HTTPHost, err)
	}
	for _, kv := range defaultHeaders {
		req.Header.Set(kv[0], kv[1])
	}

	sum := sha256.Sum256([]byte(body))
	if err := v4.NewSigner().SignHTTP(ctx, creds, req, hex.EncodeToString(sum[:]), Service, region, now); err != nil {
		return nil, fmt.Errorf("signing request: %w", err)
	}

	signed := HeaderSet{"host": req.URL.Host}
	for k := range req.Header {
		signed[strings.ToLower(k)] = req.Header.Get(k)
	}
	return signed, nil
}

// Signer signs with credentials pulled from a provider on every call.
type Signer struct {
	Endpoint    Endpoint
	Credentials aws.CredentialsProvider
	Now         func() time.Time
}

// New returns a Signer using the system clock.
func New(ep Endpoint, provider aws.CredentialsProvider) *Signer {
	return &Signer{
		Endpoint:    ep,
		Credentials: provider,
		Now:         time.Now,
	}
}

// Authorize signs body and validates the result.
func (s *Signer) Authorize(ctx context.Context, body string) (HeaderSet, error) {
	if s.Credentials == nil {
		return nil, ErrMissingCredentials
	}
	creds, err := s.Credentials.Retrieve(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMissingCredentials, err)
	}

	now := time.Now
	if s.Now != nil {
		now = s.Now
	}
	signed, err := Sign(ctx, s.Endpoint, creds, body, now())
	if err != nil {
		return nil, err
	}
	if err := signed.Validate(); err != nil {
		return nil, err
	}
	return signed, nil
}

// Validate reports whether the set carries the fields every authorization needs.
func (h HeaderSet) Validate() error {
	if len(h) == 0 {
		return fmt.Errorf("%w: empty", ErrInvalidHeaderSet)
	}
	if h["host"] == "" {
		return fmt.Errorf("%w: missing host", ErrInvalidHeaderSet)
	}
	return nil
}
