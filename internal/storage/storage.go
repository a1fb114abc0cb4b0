// Package storage keeps a local archive of processed score events. Backfill
// merges this archive with the relay query, so ranking state converges after
// a restart even when relays return partial history. The archive is best
// effort: the bot runs memory-only when it cannot be opened.
package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fiatjaf/eventstore"
	"github.com/fiatjaf/eventstore/sqlite3"
	"github.com/nbd-wtf/go-nostr"

	"github.com/gamestr/scorestr/internal/config"
)

// Archive stores score events in a local SQLite database.
type Archive struct {
	backend *sqlite3.SQLite3Backend
}

// New opens (or creates) the archive at the configured path.
func New(cfg *config.Storage) (*Archive, error) {
	if dir := filepath.Dir(cfg.SQLitePath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create storage directory: %w", err)
		}
	}

	backend := &sqlite3.SQLite3Backend{
		DatabaseURL: cfg.SQLitePath,
	}
	if err := backend.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize sqlite archive: %w", err)
	}

	return &Archive{backend: backend}, nil
}

// SaveEvent archives one score event. Storing the same event twice is a
// no-op, not an error.
func (a *Archive) SaveEvent(ctx context.Context, event *nostr.Event) error {
	err := a.backend.SaveEvent(ctx, event)
	if err != nil && !errors.Is(err, eventstore.ErrDupEvent) {
		return fmt.Errorf("failed to archive event: %w", err)
	}
	return nil
}

// QueryByAuthors returns archived events of the given kind authored by any of
// the given pubkeys.
func (a *Archive) QueryByAuthors(ctx context.Context, kind int, authors []string, limit int) ([]*nostr.Event, error) {
	filter := nostr.Filter{
		Kinds:   []int{kind},
		Authors: authors,
		Limit:   limit,
	}

	ch, err := a.backend.QueryEvents(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to query archive: %w", err)
	}

	events := make([]*nostr.Event, 0)
	for event := range ch {
		events = append(events, event)
	}
	return events, nil
}

// Count returns the number of archived events of the given kind.
func (a *Archive) Count(ctx context.Context, kind int) (int, error) {
	ch, err := a.backend.QueryEvents(ctx, nostr.Filter{Kinds: []int{kind}})
	if err != nil {
		return 0, fmt.Errorf("failed to query archive: %w", err)
	}

	count := 0
	for range ch {
		count++
	}
	return count, nil
}

// Close closes the underlying database.
func (a *Archive) Close() {
	a.backend.Close()
}
