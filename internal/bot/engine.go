// Package bot runs the score announcement service: it backfills historical
// submissions, subscribes to live score events from monitored developers,
// ranks each submission, and publishes at most one announcement per
// submission id.
package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	gonostr "github.com/nbd-wtf/go-nostr"
	"github.com/nbd-wtf/go-nostr/nip19"

	"github.com/gamestr/scorestr/internal/announce"
	"github.com/gamestr/scorestr/internal/config"
	"github.com/gamestr/scorestr/internal/dedup"
	"github.com/gamestr/scorestr/internal/games"
	"github.com/gamestr/scorestr/internal/nostr"
	"github.com/gamestr/scorestr/internal/ops"
	"github.com/gamestr/scorestr/internal/ranking"
	"github.com/gamestr/scorestr/internal/storage"
)

// resubscribeDelay is how long the subscribe loop waits before reopening a
// dropped subscription.
const resubscribeDelay = 5 * time.Second

// subscribeOverlap is subtracted from the since cursor on (re)subscribe so a
// dropped connection cannot lose events; the announced set absorbs the
// resulting duplicates.
const subscribeOverlap = 60 * time.Second

// Engine is the long-running announcement service.
type Engine struct {
	config    *config.Config
	catalog   *games.Catalog
	rankings  *ranking.Store
	announced dedup.Set
	archive   *storage.Archive // nil when the local archive is disabled
	client    *nostr.Client
	renderer  *announce.Renderer
	publisher *announce.Publisher
	logger    *ops.Logger

	ctx    context.Context
	cancel context.CancelFunc

	eventChan  chan *gonostr.Event
	producerWG sync.WaitGroup
	workerWG   sync.WaitGroup

	enabled bool
	running atomic.Bool
	pubkey  string
	npub    string

	announcedNotes atomic.Int64
}

// New creates the engine. The service is enabled only when a private key is
// configured; without one every Start is a logged no-op.
func New(cfg *config.Config, catalog *games.Catalog, announced dedup.Set, archive *storage.Archive, logger *ops.Logger) *Engine {
	ctx, cancel := context.WithCancel(context.Background())

	client := nostr.New(ctx, &cfg.Relays, logger)
	renderer := announce.NewRenderer(cfg.Templates, cfg.Site.BaseURL)
	publisher := announce.NewPublisher(client, cfg.Relays.Publish, cfg.Identity.PrivateKey, cfg.Bot.ClientTag, logger)

	return &Engine{
		config:    cfg,
		catalog:   catalog,
		rankings:  ranking.NewStore(),
		announced: announced,
		archive:   archive,
		client:    client,
		renderer:  renderer,
		publisher: publisher,
		logger:    logger.WithComponent("bot"),
		ctx:       ctx,
		cancel:    cancel,
		eventChan: make(chan *gonostr.Event, 1000),
		enabled:   cfg.Identity.PrivateKey != "",
	}
}

// Start derives the bot identity, backfills the ranking store, and begins
// live processing. A missing key leaves the service disabled; a malformed key
// disables it with an error log instead of failing the host process.
func (e *Engine) Start() error {
	if !e.enabled {
		e.logger.Info("bot disabled: no SCORESTR_KEY set")
		return nil
	}

	pubkey, err := gonostr.GetPublicKey(e.config.Identity.PrivateKey)
	if err != nil {
		e.enabled = false
		e.logger.Error("bot disabled: invalid private key", "error", err)
		return nil
	}
	e.pubkey = pubkey
	if npub, err := nip19.EncodePublicKey(pubkey); err == nil {
		e.npub = npub
	}

	if e.catalog.Len() == 0 {
		e.logger.Warn("no games to monitor, bot idle")
		return nil
	}

	e.rankings.Init(e.catalog.Keys())
	e.logger.LogStartup("", e.npub, e.catalog.Len())

	e.backfill()

	for i := 0; i < e.config.Bot.Workers; i++ {
		e.workerWG.Add(1)
		go e.eventWorker(i + 1)
	}

	e.producerWG.Add(1)
	go e.subscribeLoop()

	e.running.Store(true)
	return nil
}

// Stop closes the live subscription, drains the workers, and releases relay
// connections. In-flight publishes finish within their own timeout.
func (e *Engine) Stop() {
	if !e.running.Swap(false) {
		e.cancel()
		e.client.Close()
		return
	}

	e.cancel()
	e.producerWG.Wait()
	close(e.eventChan)
	e.workerWG.Wait()
	e.client.Close()
	e.logger.LogShutdown("stop requested")
}

// subscribeLoop keeps one live subscription open across relay flakiness,
// reopening it with a fresh since cursor whenever the stream closes.
func (e *Engine) subscribeLoop() {
	defer e.producerWG.Done()

	for {
		if e.ctx.Err() != nil {
			return
		}

		since := gonostr.Timestamp(time.Now().Add(-subscribeOverlap).Unix())
		filter := gonostr.Filter{
			Kinds:   []int{e.config.Bot.ScoreKind},
			Authors: e.catalog.Developers(),
			Since:   &since,
		}

		stream := e.client.SubscribeEvents(e.ctx, e.config.Relays.Subscribe, gonostr.Filters{filter})
		for event := range stream {
			select {
			case e.eventChan <- event:
			case <-e.ctx.Done():
				return
			}
		}

		select {
		case <-e.ctx.Done():
			return
		case <-time.After(resubscribeDelay):
			e.logger.Warn("subscription dropped, reconnecting")
		}
	}
}

// eventWorker processes events from the shared channel. Workers run
// concurrently; per-game serialization happens inside the ranking store and
// per-id atomicity inside the announced set.
func (e *Engine) eventWorker(id int) {
	defer e.workerWG.Done()

	for event := range e.eventChan {
		if err := e.processEvent(event); err != nil {
			e.logger.Warn("event processing failed",
				"worker", id,
				"event", event.ID,
				"error", err)
		}
	}
}

// processEvent runs the announcement pipeline for one score event:
// dedup check, parse, monitored filter, atomic mark, ranking update,
// classify, render, publish, archive.
func (e *Engine) processEvent(event *gonostr.Event) error {
	if seen, err := e.announced.Contains(e.ctx, event.ID); err == nil && seen {
		return nil
	}

	sub, err := ParseScoreEvent(event)
	if err != nil {
		e.logger.LogScoreDropped(event.ID, err.Error())
		return nil
	}

	if !e.catalog.IsMonitored(sub.Developer, sub.Game) {
		return nil
	}

	// The id is marked before publishing: a publish failure never triggers
	// reprocessing, and a concurrent duplicate delivery loses this race and
	// stops here.
	first, err := e.announced.MarkIfNew(e.ctx, event.ID)
	if err != nil {
		e.logger.Warn("announced-set check failed, proceeding", "event", event.ID, "error", err)
	} else if !first {
		return nil
	}

	key := sub.Key()
	result := e.rankings.Update(key, sub.Score, sub.Player, sub.EventID, sub.CreatedAt)
	tier := announce.Classify(result)

	content := e.renderer.Render(tier, e.buildVars(sub, result, key))

	previousHolder := ""
	if tier == announce.TierHighScore && result.PreviousHolder != nil {
		previousHolder = result.PreviousHolder.Player
	}

	noteID, err := e.publisher.Publish(e.ctx, content, sub.Player, sub.Developer, sub.EventID, previousHolder)
	if err != nil {
		if errors.Is(err, announce.ErrNoSigningKey) {
			return fmt.Errorf("announcement dropped: %w", err)
		}
		return fmt.Errorf("announcement dropped for %s: %w", event.ID, err)
	}

	e.announcedNotes.Add(1)
	e.logger.LogAnnouncement(string(tier), e.catalog.DisplayName(key), sub.Player, sub.Score, noteID)

	if e.archive != nil {
		if err := e.archive.SaveEvent(e.ctx, event); err != nil {
			e.logger.Warn("failed to archive score event", "event", event.ID, "error", err)
		}
	}

	return nil
}

// buildVars assembles the template variables for a submission. Every tier
// receives the full set; unused fields render empty.
func (e *Engine) buildVars(sub *Submission, result ranking.UpdateResult, key games.Key) announce.Vars {
	vars := announce.Vars{
		PlayerTag:  announce.PubkeyTag(sub.Player),
		GameTag:    announce.PubkeyTag(sub.Developer),
		GameName:   e.catalog.DisplayName(key),
		Score:      announce.FormatScore(sub.Score),
		ScoreRaw:   strconv.FormatInt(sub.Score, 10),
		ScoreLink:  e.renderer.ScoreLink(sub.Developer, sub.Game, sub.EventID),
		GameLink:   e.renderer.GameLink(sub.Developer, sub.Game),
		Level:      sub.Level,
		Difficulty: sub.Difficulty,
	}

	if result.Rank > 0 {
		vars.Rank = strconv.Itoa(result.Rank)
	}
	if result.PreviousHolder != nil {
		vars.PreviousHolderTag = announce.PubkeyTag(result.PreviousHolder.Player)
		vars.PreviousScore = announce.FormatScore(result.PreviousHolder.Score)
	}

	return vars
}

// Snapshot is the health/status view of the engine.
type Snapshot struct {
	Enabled         bool   `json:"enabled"`
	Running         bool   `json:"running"`
	Pubkey          string `json:"pubkey"`
	GamesTracked    int    `json:"games_tracked"`
	HighScores      int    `json:"high_scores"`
	AnnouncedEvents int    `json:"announced_events"`
	AnnouncedNotes  int64  `json:"announced_notes"`
}

// Status returns a point-in-time snapshot for the status surface.
func (e *Engine) Status() Snapshot {
	stats := e.rankings.Stats()

	announcedEvents := 0
	if n, err := e.announced.Len(e.ctx); err == nil {
		announcedEvents = n
	}

	return Snapshot{
		Enabled:         e.enabled,
		Running:         e.running.Load(),
		Pubkey:          e.npub,
		GamesTracked:    stats.GamesTracked,
		HighScores:      stats.HighScores,
		AnnouncedEvents: announcedEvents,
		AnnouncedNotes:  e.announcedNotes.Load(),
	}
}
