// Package nostr wraps go-nostr's SimplePool with the narrow interface the
// bot needs: a bounded historical query, a live subscription bridged onto a
// channel, and per-relay publishing.
package nostr

import (
	"context"
	"time"

	"github.com/nbd-wtf/go-nostr"

	"github.com/gamestr/scorestr/internal/config"
	"github.com/gamestr/scorestr/internal/ops"
)

// Client provides a high-level interface for interacting with Nostr relays
type Client struct {
	pool        *nostr.SimplePool
	relayConfig *config.Relays
	logger      *ops.Logger
}

// New creates a new Nostr client with the given configuration
func New(ctx context.Context, relayConfig *config.Relays, logger *ops.Logger) *Client {
	return &Client{
		pool:        nostr.NewSimplePool(ctx),
		relayConfig: relayConfig,
		logger:      logger.WithComponent("nostr"),
	}
}

// QueryEvents fetches stored events matching the filter from the given
// relays, waiting for EOSE from each. The wait is bounded by timeout: a relay
// that never signals completion cannot stall the caller, which proceeds with
// whatever was collected.
func (c *Client) QueryEvents(ctx context.Context, relays []string, filter nostr.Filter, timeout time.Duration) []*nostr.Event {
	queryCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	events := make([]*nostr.Event, 0)
	for relayEvent := range c.pool.SubManyEose(queryCtx, relays, nostr.Filters{filter}) {
		if relayEvent.Event != nil {
			events = append(events, relayEvent.Event)
		}
	}

	if queryCtx.Err() != nil {
		c.logger.Warn("query timed out, proceeding with partial results",
			"collected", len(events),
			"timeout", timeout.String())
	}

	return events
}

// SubscribeEvents subscribes to events matching the filter on the given
// relays. The returned channel closes when the context is cancelled.
func (c *Client) SubscribeEvents(ctx context.Context, relays []string, filters nostr.Filters) <-chan *nostr.Event {
	eventChan := make(chan *nostr.Event, 100)

	go func() {
		defer close(eventChan)

		c.logger.Debug("opening subscription", "relays", len(relays), "filters", len(filters))

		for relayEvent := range c.pool.SubMany(ctx, relays, filters) {
			if relayEvent.Event == nil {
				continue
			}
			select {
			case eventChan <- relayEvent.Event:
			case <-ctx.Done():
				return
			}
		}

		c.logger.Debug("subscription closed")
	}()

	return eventChan
}

// PublishResult reports one relay's outcome for a publish attempt.
type PublishResult struct {
	Relay string
	Err   error
}

// PublishEvent sends a signed event to every relay independently. A failed
// relay never blocks or fails the others; the caller decides what a fully
// failed publish means.
func (c *Client) PublishEvent(ctx context.Context, relays []string, event *nostr.Event) []PublishResult {
	results := make([]PublishResult, 0, len(relays))

	for _, url := range relays {
		relay, err := c.pool.EnsureRelay(url)
		if err != nil {
			results = append(results, PublishResult{Relay: url, Err: err})
			c.logger.LogPublishResult(url, err)
			continue
		}

		err = relay.Publish(ctx, *event)
		results = append(results, PublishResult{Relay: url, Err: err})
		c.logger.LogPublishResult(url, err)
	}

	return results
}

// DefaultTimeout returns the configured connect timeout duration
func (c *Client) DefaultTimeout() time.Duration {
	if c.relayConfig == nil || c.relayConfig.Policy.ConnectTimeoutMs == 0 {
		return 30 * time.Second
	}
	return time.Duration(c.relayConfig.Policy.ConnectTimeoutMs) * time.Millisecond
}

// PublishTimeout returns the configured per-publish timeout duration
func (c *Client) PublishTimeout() time.Duration {
	if c.relayConfig == nil || c.relayConfig.Policy.PublishTimeoutMs == 0 {
		return 15 * time.Second
	}
	return time.Duration(c.relayConfig.Policy.PublishTimeoutMs) * time.Millisecond
}

// Close closes all relay connections
func (c *Client) Close() {
	c.pool.Close("client shutting down")
}
