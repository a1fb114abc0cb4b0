package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gamestr/scorestr/internal/bot"
	"github.com/gamestr/scorestr/internal/config"
	"github.com/gamestr/scorestr/internal/dedup"
	"github.com/gamestr/scorestr/internal/games"
	"github.com/gamestr/scorestr/internal/ops"
	"github.com/gamestr/scorestr/internal/status"
	"github.com/gamestr/scorestr/internal/storage"
)

var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	if len(os.Args) > 1 && os.Args[1] == "init" {
		handleInit()
		return
	}

	var (
		showVersion = flag.Bool("version", false, "Show version information")
		configPath  = flag.String("config", "", "Path to configuration file")
	)
	flag.Parse()

	if *showVersion {
		fmt.Printf("scorestr %s\n", version)
		fmt.Printf("  commit: %s\n", commit)
		os.Exit(0)
	}

	if *configPath == "" {
		fmt.Println("scorestr - Nostr score announcement bot")
		fmt.Println()
		fmt.Println("No configuration file specified. Use --config <path> to specify config.")
		fmt.Println()
		fmt.Println("Commands:")
		fmt.Println("  scorestr init              Generate example configuration")
		fmt.Println("  scorestr --version         Show version information")
		fmt.Println("  scorestr --config <path>   Start with configuration file")
		os.Exit(1)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}

	if err := run(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	logger := ops.NewLogger(&cfg.Logging)
	ops.SetDefault(logger)

	catalog := games.NewCatalog(cfg.Games)
	logger.Info("game catalog loaded",
		"games", catalog.Len(),
		"developers", len(catalog.Developers()))

	// Local score-event archive is best effort: the bot runs memory-only
	// when it cannot be opened.
	var archive *storage.Archive
	if cfg.Storage.Enabled {
		a, err := storage.New(&cfg.Storage)
		if err != nil {
			logger.Warn("archive unavailable, running memory-only", "error", err)
		} else {
			archive = a
			defer archive.Close()
		}
	}

	announced, err := dedup.New(&cfg.Dedup, cfg.Bot.AnnouncedCap)
	if err != nil {
		return fmt.Errorf("failed to initialize announced set: %w", err)
	}
	defer announced.Close()

	engine := bot.New(cfg, catalog, announced, archive, logger)
	if err := engine.Start(); err != nil {
		return fmt.Errorf("failed to start bot: %w", err)
	}
	defer engine.Stop()

	var statusServer *status.Server
	if cfg.Status.Enabled {
		statusServer = status.New(&cfg.Status, engine, logger)
		if err := statusServer.Start(); err != nil {
			return fmt.Errorf("failed to start status server: %w", err)
		}
		defer statusServer.Stop()
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.LogShutdown("signal received")
	return nil
}

func handleInit() {
	exampleConfig, err := config.GetExampleConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading example config: %v\n", err)
		os.Exit(1)
	}

	fmt.Print(string(exampleConfig))
}
