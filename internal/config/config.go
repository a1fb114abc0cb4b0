package config

import (
	"embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed example.yaml
var exampleConfig embed.FS

// Config represents the complete scorestr configuration
type Config struct {
	Site      Site            `yaml:"site"`
	Identity  Identity        `yaml:"identity"`
	Relays    Relays          `yaml:"relays"`
	Games     map[string]Game `yaml:"games"`
	Templates Templates       `yaml:"templates"`
	Bot       Bot             `yaml:"bot"`
	Storage   Storage         `yaml:"storage"`
	Dedup     Dedup           `yaml:"dedup"`
	Status    Status          `yaml:"status"`
	Logging   Logging         `yaml:"logging"`
}

// Site contains site metadata used to build announcement links
type Site struct {
	Name    string `yaml:"name"`
	BaseURL string `yaml:"base_url"`
}

// Identity contains the bot's signing identity.
// The private key is never stored in YAML; it is loaded from the
// SCORESTR_KEY environment variable (hex or nsec). An empty key puts
// the whole service in disabled (no-op) mode.
type Identity struct {
	PrivateKey string `yaml:"-"`
}

// Relays contains relay configuration
type Relays struct {
	Subscribe []string    `yaml:"subscribe"`
	Publish   []string    `yaml:"publish"`
	Policy    RelayPolicy `yaml:"policy"`
}

// RelayPolicy contains relay connection policies
type RelayPolicy struct {
	ConnectTimeoutMs int `yaml:"connect_timeout_ms"`
	PublishTimeoutMs int `yaml:"publish_timeout_ms"`
}

// Game describes one monitored game. The map key in Config.Games is
// "<developer-pubkey>:<game-identifier>".
type Game struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Image       string `yaml:"image"`
}

// Templates contains the announcement note templates. Placeholders use
// {variable} syntax; see announce.TemplateVars for the available names.
type Templates struct {
	NewScore       string `yaml:"new_score"`
	TopScore       string `yaml:"top_score"`
	HighScore      string `yaml:"high_score"`
	FirstHighScore string `yaml:"first_high_score"`
}

// Bot contains bot tuning options
type Bot struct {
	ScoreKind       int    `yaml:"score_kind"`
	Workers         int    `yaml:"workers"`
	BackfillTimeout int    `yaml:"backfill_timeout_seconds"`
	BackfillLimit   int    `yaml:"backfill_limit"`
	AnnouncedCap    int    `yaml:"announced_cap"`
	ClientTag       string `yaml:"client_tag"`
}

// Storage contains the local score-event archive settings
type Storage struct {
	Enabled    bool   `yaml:"enabled"`
	SQLitePath string `yaml:"sqlite_path"`
}

// Dedup selects the announced-set engine
type Dedup struct {
	Engine     string `yaml:"engine"` // memory|redis
	RedisURL   string `yaml:"redis_url"`
	TTLSeconds int    `yaml:"ttl_seconds"` // redis only
}

// Status contains the HTTP status surface settings
type Status struct {
	Enabled bool   `yaml:"enabled"`
	Bind    string `yaml:"bind"`
	Port    int    `yaml:"port"`
}

// Logging contains logging configuration
type Logging struct {
	Level  string `yaml:"level"`  // debug|info|warn|error
	Format string `yaml:"format"` // text|json
}

// Load reads and parses a configuration file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	applyDefaults(&cfg)

	if err := applyEnvOverrides(&cfg); err != nil {
		return nil, fmt.Errorf("failed to apply environment overrides: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// applyDefaults fills in missing configuration fields with sensible defaults
func applyDefaults(cfg *Config) {
	defaults := Default()

	if cfg.Site.Name == "" {
		cfg.Site.Name = defaults.Site.Name
	}
	if cfg.Site.BaseURL == "" {
		cfg.Site.BaseURL = defaults.Site.BaseURL
	}

	if len(cfg.Relays.Subscribe) == 0 {
		cfg.Relays.Subscribe = defaults.Relays.Subscribe
	}
	if len(cfg.Relays.Publish) == 0 {
		cfg.Relays.Publish = defaults.Relays.Publish
	}
	if cfg.Relays.Policy.ConnectTimeoutMs == 0 {
		cfg.Relays.Policy.ConnectTimeoutMs = defaults.Relays.Policy.ConnectTimeoutMs
	}
	if cfg.Relays.Policy.PublishTimeoutMs == 0 {
		cfg.Relays.Policy.PublishTimeoutMs = defaults.Relays.Policy.PublishTimeoutMs
	}

	if cfg.Templates.NewScore == "" {
		cfg.Templates.NewScore = defaults.Templates.NewScore
	}
	if cfg.Templates.TopScore == "" {
		cfg.Templates.TopScore = defaults.Templates.TopScore
	}
	if cfg.Templates.HighScore == "" {
		cfg.Templates.HighScore = defaults.Templates.HighScore
	}
	if cfg.Templates.FirstHighScore == "" {
		cfg.Templates.FirstHighScore = defaults.Templates.FirstHighScore
	}

	if cfg.Bot.ScoreKind == 0 {
		cfg.Bot.ScoreKind = defaults.Bot.ScoreKind
	}
	if cfg.Bot.Workers == 0 {
		cfg.Bot.Workers = defaults.Bot.Workers
	}
	if cfg.Bot.BackfillTimeout == 0 {
		cfg.Bot.BackfillTimeout = defaults.Bot.BackfillTimeout
	}
	if cfg.Bot.BackfillLimit == 0 {
		cfg.Bot.BackfillLimit = defaults.Bot.BackfillLimit
	}
	if cfg.Bot.AnnouncedCap == 0 {
		cfg.Bot.AnnouncedCap = defaults.Bot.AnnouncedCap
	}
	if cfg.Bot.ClientTag == "" {
		cfg.Bot.ClientTag = defaults.Bot.ClientTag
	}

	if cfg.Storage.SQLitePath == "" {
		cfg.Storage.SQLitePath = defaults.Storage.SQLitePath
	}

	if cfg.Dedup.Engine == "" {
		cfg.Dedup.Engine = defaults.Dedup.Engine
	}
	if cfg.Dedup.TTLSeconds == 0 {
		cfg.Dedup.TTLSeconds = defaults.Dedup.TTLSeconds
	}

	if cfg.Status.Bind == "" {
		cfg.Status.Bind = defaults.Status.Bind
	}
	if cfg.Status.Port == 0 {
		cfg.Status.Port = defaults.Status.Port
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = defaults.Logging.Level
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = defaults.Logging.Format
	}
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(cfg *Config) error {
	if key := os.Getenv("SCORESTR_KEY"); key != "" {
		cfg.Identity.PrivateKey = key
	}

	if redisURL := os.Getenv("SCORESTR_REDIS_URL"); redisURL != "" {
		cfg.Dedup.RedisURL = redisURL
	}

	return nil
}

// GetExampleConfig returns the embedded example configuration
func GetExampleConfig() ([]byte, error) {
	return exampleConfig.ReadFile("example.yaml")
}

// Default returns a configuration with sensible defaults
func Default() *Config {
	return &Config{
		Site: Site{
			Name:    "Gamestr",
			BaseURL: "https://gamestr.io",
		},
		Relays: Relays{
			Subscribe: []string{
				"wss://relay.nostr.band",
			},
			Publish: []string{
				"wss://relay.nostr.band",
				"wss://relay.damus.io",
				"wss://nos.lol",
			},
			Policy: RelayPolicy{
				ConnectTimeoutMs: 5000,
				PublishTimeoutMs: 15000,
			},
		},
		Games: map[string]Game{},
		Templates: Templates{
			NewScore: "{playerTag} just scored {score} points in {gameName}! {gameTag}\n\nCheck it out: {scoreLink}",
			TopScore: "{playerTag} just cracked the top 3 in {gameName} with {score} points! (Rank #{rank}) {gameTag}\n\n{scoreLink}",
			HighScore: "NEW HIGH SCORE! {playerTag} just dethroned {previousHolderTag} in {gameName} with {score} points! {gameTag}\n\n" +
				"The previous record of {previousScore} has been crushed!\n\n{scoreLink}",
			FirstHighScore: "NEW HIGH SCORE! {playerTag} just set the first record in {gameName} with {score} points! {gameTag}\n\n" +
				"This is now the #1 score on the leaderboard!\n\n{scoreLink}",
		},
		Bot: Bot{
			ScoreKind:       30762,
			Workers:         4,
			BackfillTimeout: 10,
			BackfillLimit:   500,
			AnnouncedCap:    10000,
			ClientTag:       "gamestr-score-bot",
		},
		Storage: Storage{
			Enabled:    true,
			SQLitePath: "./data/scorestr.db",
		},
		Dedup: Dedup{
			Engine:     "memory",
			RedisURL:   "",
			TTLSeconds: 30 * 24 * 3600,
		},
		Status: Status{
			Enabled: true,
			Bind:    "127.0.0.1",
			Port:    5001,
		},
		Logging: Logging{
			Level:  "info",
			Format: "text",
		},
	}
}

// validLogLevels defines allowed log levels
var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// validDedupEngines defines allowed announced-set engines
var validDedupEngines = map[string]bool{
	"memory": true,
	"redis":  true,
}

// Validate checks if a configuration is valid
func Validate(cfg *Config) error {
	if len(cfg.Relays.Subscribe) == 0 {
		return fmt.Errorf("at least one subscribe relay is required")
	}
	if len(cfg.Relays.Publish) == 0 {
		return fmt.Errorf("at least one publish relay is required")
	}
	for _, relay := range append(append([]string{}, cfg.Relays.Subscribe...), cfg.Relays.Publish...) {
		if !strings.HasPrefix(relay, "wss://") && !strings.HasPrefix(relay, "ws://") {
			return fmt.Errorf("relay must start with ws:// or wss://: %s", relay)
		}
	}

	for key := range cfg.Games {
		if !strings.Contains(key, ":") {
			return fmt.Errorf("invalid game key (want \"pubkey:identifier\"): %s", key)
		}
	}

	if cfg.Bot.ScoreKind < 1 {
		return fmt.Errorf("bot.score_kind must be a positive event kind")
	}
	if cfg.Bot.Workers < 1 || cfg.Bot.Workers > 64 {
		return fmt.Errorf("bot.workers must be between 1 and 64")
	}
	if cfg.Bot.BackfillTimeout < 1 || cfg.Bot.BackfillTimeout > 300 {
		return fmt.Errorf("bot.backfill_timeout_seconds must be between 1 and 300")
	}
	if cfg.Bot.AnnouncedCap < 100 {
		return fmt.Errorf("bot.announced_cap must be at least 100")
	}

	if !validDedupEngines[cfg.Dedup.Engine] {
		return fmt.Errorf("invalid dedup engine: %s (must be one of: memory, redis)", cfg.Dedup.Engine)
	}
	if cfg.Dedup.Engine == "redis" && cfg.Dedup.RedisURL == "" {
		return fmt.Errorf("dedup.redis_url is required when dedup.engine is redis")
	}

	if cfg.Status.Enabled && (cfg.Status.Port < 1 || cfg.Status.Port > 65535) {
		return fmt.Errorf("status port must be between 1 and 65535")
	}

	if !validLogLevels[cfg.Logging.Level] {
		return fmt.Errorf("invalid log level: %s (must be one of: debug, info, warn, error)", cfg.Logging.Level)
	}

	return nil
}
