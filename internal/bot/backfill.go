package bot

import (
	"time"

	gonostr "github.com/nbd-wtf/go-nostr"

	"github.com/gamestr/scorestr/internal/ranking"
)

// backfill seeds the ranking store from historical submissions before live
// processing begins. History comes from the subscribe relays (bounded wait)
// merged with the local archive, so a restart converges even when relays
// return partial results. Every historical submission is marked announced:
// backfill never publishes.
func (e *Engine) backfill() {
	developers := e.catalog.Developers()
	if len(developers) == 0 {
		return
	}

	start := time.Now()
	timeout := time.Duration(e.config.Bot.BackfillTimeout) * time.Second

	filter := gonostr.Filter{
		Kinds:   []int{e.config.Bot.ScoreKind},
		Authors: developers,
		Limit:   e.config.Bot.BackfillLimit,
	}
	events := e.client.QueryEvents(e.ctx, e.config.Relays.Subscribe, filter, timeout)

	// Merge with the local archive, deduplicating by event id. Relay
	// results win ties; the payloads are identical anyway.
	byID := make(map[string]*gonostr.Event, len(events))
	for _, event := range events {
		byID[event.ID] = event
	}
	if e.archive != nil {
		archived, err := e.archive.QueryByAuthors(e.ctx, e.config.Bot.ScoreKind, developers, e.config.Bot.BackfillLimit)
		if err != nil {
			e.logger.Warn("archive query failed during backfill", "error", err)
		} else {
			for _, event := range archived {
				if _, ok := byID[event.ID]; !ok {
					byID[event.ID] = event
				}
			}
		}
	}

	entries := make([]ranking.HistoryEntry, 0, len(byID))
	for _, event := range byID {
		sub, err := ParseScoreEvent(event)
		if err != nil {
			continue
		}
		if !e.catalog.IsMonitored(sub.Developer, sub.Game) {
			continue
		}

		entries = append(entries, ranking.HistoryEntry{
			Key:       sub.Key(),
			Score:     sub.Score,
			Player:    sub.Player,
			EventID:   sub.EventID,
			Timestamp: sub.CreatedAt,
		})

		if err := e.announced.Mark(e.ctx, event.ID); err != nil {
			e.logger.Warn("failed to mark historical submission", "event", event.ID, "error", err)
		}
	}

	if len(entries) > 0 {
		e.rankings.LoadHistory(entries)
	}

	stats := e.rankings.Stats()
	e.logger.LogBackfill(len(byID), len(entries), stats.GamesTracked, time.Since(start))
}
