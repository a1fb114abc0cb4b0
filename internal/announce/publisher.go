package announce

import (
	"context"
	"errors"
	"fmt"

	gonostr "github.com/nbd-wtf/go-nostr"

	"github.com/gamestr/scorestr/internal/nostr"
	"github.com/gamestr/scorestr/internal/ops"
)

// ErrNoSigningKey is returned when an announcement cannot be signed because
// no private key is configured.
var ErrNoSigningKey = errors.New("no signing key configured")

// Publisher signs announcement notes and sends them to the configured
// publish relays.
type Publisher struct {
	client     *nostr.Client
	relays     []string
	privateKey string
	clientTag  string
	logger     *ops.Logger
}

// NewPublisher creates a publisher. privateKey is the hex signing key; an
// empty key makes every Publish fail with ErrNoSigningKey.
func NewPublisher(client *nostr.Client, relays []string, privateKey, clientTag string, logger *ops.Logger) *Publisher {
	return &Publisher{
		client:     client,
		relays:     relays,
		privateKey: privateKey,
		clientTag:  clientTag,
		logger:     logger.WithComponent("publisher"),
	}
}

// Publish builds, signs, and sends a kind-1 announcement note. It tags the
// player, the game developer, the original score event (as a citation, not a
// reply), and the dethroned previous holder when there is one. Individual
// relay failures are logged and tolerated; only signing problems are hard
// errors. Returns the published note id.
func (p *Publisher) Publish(ctx context.Context, content, player, developer, scoreEventID, previousHolder string) (string, error) {
	if p.privateKey == "" {
		return "", ErrNoSigningKey
	}

	tags := gonostr.Tags{
		{"p", player},
		{"p", developer},
		{"e", scoreEventID, "", "mention"},
		{"client", p.clientTag},
	}
	if previousHolder != "" {
		tags = append(tags, gonostr.Tag{"p", previousHolder})
	}

	event := gonostr.Event{
		Kind:      gonostr.KindTextNote,
		CreatedAt: gonostr.Now(),
		Content:   content,
		Tags:      tags,
	}

	if err := event.Sign(p.privateKey); err != nil {
		return "", fmt.Errorf("failed to sign announcement: %w", err)
	}

	publishCtx, cancel := context.WithTimeout(ctx, p.client.PublishTimeout())
	defer cancel()

	results := p.client.PublishEvent(publishCtx, p.relays, &event)

	accepted := 0
	for _, result := range results {
		if result.Err == nil {
			accepted++
		}
	}
	if accepted == 0 {
		p.logger.Warn("announcement rejected by all relays",
			"note", event.ID[:8]+"...",
			"relays", len(p.relays))
	}

	return event.ID, nil
}
