// Package dedup tracks which submission ids have already been announced.
// The set is the idempotency barrier of the pipeline: an id passes MarkIfNew
// exactly once, no matter how many relay connections deliver the same event.
package dedup

import (
	"context"
	"fmt"

	"github.com/gamestr/scorestr/internal/config"
)

// Set is the announced-submission set.
type Set interface {
	// MarkIfNew atomically marks an id as announced. It returns true only
	// for the first caller; concurrent duplicate delivery gets false.
	MarkIfNew(ctx context.Context, id string) (bool, error)

	// Contains reports whether an id is already marked, without marking it.
	Contains(ctx context.Context, id string) (bool, error)

	// Mark marks an id unconditionally (used for backfilled history).
	Mark(ctx context.Context, id string) error

	// Len returns the current number of marked ids.
	Len(ctx context.Context) (int, error)

	Close() error
}

// New constructs the announced-set engine selected in config.
func New(cfg *config.Dedup, cap int) (Set, error) {
	switch cfg.Engine {
	case "memory":
		return NewMemorySet(cap), nil
	case "redis":
		return NewRedisSet(cfg.RedisURL, cfg.TTLSeconds)
	default:
		return nil, fmt.Errorf("unsupported dedup engine: %s", cfg.Engine)
	}
}
