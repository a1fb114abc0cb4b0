// Package games holds the read-only catalog of monitored games. The catalog
// is built once at startup from configuration and answers every lookup the
// pipeline needs: is this game monitored, which developers do we subscribe
// to, and what is a game's display name.
package games

import (
	"sort"
	"strings"

	"github.com/gamestr/scorestr/internal/config"
)

// Key identifies one leaderboard: a developer pubkey plus the game
// identifier the developer assigned.
type Key struct {
	Developer string
	Game      string
}

// String renders the key in the "pubkey:identifier" wire form used in
// config files and d tags.
func (k Key) String() string {
	return k.Developer + ":" + k.Game
}

// ParseKey splits a "pubkey:identifier" string. Identifiers may themselves
// contain colons; only the first colon separates the developer pubkey.
func ParseKey(s string) (Key, bool) {
	idx := strings.Index(s, ":")
	if idx <= 0 || idx == len(s)-1 {
		return Key{}, false
	}
	return Key{Developer: s[:idx], Game: s[idx+1:]}, true
}

// Metadata describes a monitored game for display purposes.
type Metadata struct {
	Name        string
	Description string
}

// Catalog is the startup-built lookup table of monitored games.
// All lookups are read-only and safe for concurrent use.
type Catalog struct {
	games      map[Key]Metadata
	developers []string
}

// NewCatalog builds a catalog from configured games. Entries whose developer
// pubkey carries the "test-" prefix are sandbox fixtures and are excluded
// from monitoring.
func NewCatalog(cfg map[string]config.Game) *Catalog {
	c := &Catalog{
		games: make(map[Key]Metadata),
	}

	devSet := make(map[string]bool)
	for raw, game := range cfg {
		key, ok := ParseKey(raw)
		if !ok {
			continue
		}
		if strings.HasPrefix(key.Developer, "test-") {
			continue
		}

		c.games[key] = Metadata{
			Name:        game.Name,
			Description: game.Description,
		}
		devSet[key.Developer] = true
	}

	c.developers = make([]string, 0, len(devSet))
	for dev := range devSet {
		c.developers = append(c.developers, dev)
	}
	sort.Strings(c.developers)

	return c
}

// IsMonitored reports whether a (developer, game) pair is on the catalog.
func (c *Catalog) IsMonitored(developer, game string) bool {
	_, ok := c.games[Key{Developer: developer, Game: game}]
	return ok
}

// DisplayName returns the configured human-readable name for a game, falling
// back to the raw game identifier when no metadata is configured.
func (c *Catalog) DisplayName(key Key) string {
	if meta, ok := c.games[key]; ok && meta.Name != "" {
		return meta.Name
	}
	return key.Game
}

// Developers returns the deduplicated, sorted list of developer pubkeys to
// subscribe to.
func (c *Catalog) Developers() []string {
	return c.developers
}

// Len returns the number of monitored games.
func (c *Catalog) Len() int {
	return len(c.games)
}

// Keys returns all monitored game keys.
func (c *Catalog) Keys() []Key {
	keys := make([]Key, 0, len(c.games))
	for key := range c.games {
		keys = append(keys, key)
	}
	return keys
}
