// Command publisher-lambda publishes a steady stream of demo events to an
// Event API channel for the duration of one Lambda invocation.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/chukul/eventsctl/internal"
	"github.com/chukul/eventsctl/internal/publish"
	"github.com/chukul/eventsctl/internal/signer"
	"github.com/rs/zerolog"
)

const (
	defaultChannel = "/default/test"
	interval       = 250 * time.Millisecond
	// stop this long before the invocation deadline
	deadlineMargin = 500 * time.Millisecond
	consoleRunTime = 10 * time.Second
)

var emojis = []string{"🚀", "🎉", "🔥", "✨", "🌈", "🍕", "🎸", "🐙", "🌵", "⚡"}

type eventPublisher interface {
	Publish(ctx context.Context, channel string, events []string) (publish.Result, error)
}

type Handler struct {
	logger    zerolog.Logger
	publisher eventPublisher
	channel   string
	interval  time.Duration
}

// RunOnce publishes one event per interval until ctx is done.
func (h *Handler) RunOnce(ctx context.Context, _ json.RawMessage) error {
	if deadline, ok := ctx.Deadline(); ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithDeadline(ctx, deadline.Add(-deadlineMargin))
		defer cancel()
	}

	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	var sent, failed int
	var lastErr error
	for i := 0; ctx.Err() == nil; i++ {
		event, err := signer.Compact(map[string]string{"message": emojis[i%len(emojis)]})
		if err != nil {
			return err
		}
		if _, err := h.publisher.Publish(ctx, h.channel, []string{event}); err == nil {
			sent++
		} else if ctx.Err() == nil {
			failed++
			lastErr = err
			h.logger.Warn().Err(err).Msg("publish failed")
		}

		select {
		case <-ctx.Done():
		case <-ticker.C:
		}
	}

	h.logger.Info().Int("sent", sent).Int("failed", failed).Str("channel", h.channel).Msg("done publishing")
	if sent == 0 && lastErr != nil {
		return lastErr
	}
	return nil
}

func run() error {
	logger, err := internal.NewLogger("info", os.Stdout)
	if err != nil {
		return err
	}

	domain := os.Getenv("HTTP_DOMAIN")
	if domain == "" {
		return errors.New("HTTP_DOMAIN is required")
	}
	channel := os.Getenv("CHANNEL")
	if channel == "" {
		channel = defaultChannel
	}

	ctx := context.Background()
	cfg, err := internal.LoadAWSConfig(ctx, "", "")
	if err != nil {
		return err
	}
	ep := signer.Endpoint{HTTPHost: domain, RealtimeHost: domain, Region: cfg.Region}

	h := &Handler{
		logger:    logger,
		publisher: publish.New(ep, signer.New(ep, cfg.Credentials), logger),
		channel:   channel,
		interval:  interval,
	}

	if os.Getenv("AWS_LAMBDA_RUNTIME_API") == "" {
		ctx, cancel := context.WithTimeout(ctx, consoleRunTime)
		defer cancel()
		return h.RunOnce(ctx, nil)
	}
	lambda.Start(h.RunOnce)
	return nil
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
