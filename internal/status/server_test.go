package status

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/gamestr/scorestr/internal/bot"
	"github.com/gamestr/scorestr/internal/config"
	"github.com/gamestr/scorestr/internal/dedup"
	"github.com/gamestr/scorestr/internal/games"
	"github.com/gamestr/scorestr/internal/ops"
)

func testServer(t *testing.T) *Server {
	t.Helper()

	cfg := config.Default()
	cfg.Games = map[string]config.Game{"dev1:snake": {Name: "Snake"}}

	logger := ops.NewLogger(&cfg.Logging)
	catalog := games.NewCatalog(cfg.Games)
	announced := dedup.NewMemorySet(cfg.Bot.AnnouncedCap)
	engine := bot.New(cfg, catalog, announced, nil, logger)
	t.Cleanup(engine.Stop)

	srv := New(&config.Status{Enabled: true, Bind: "127.0.0.1", Port: 0}, engine, logger)
	if err := srv.Start(); err != nil {
		t.Fatalf("Failed to start status server: %v", err)
	}
	t.Cleanup(func() { srv.Stop() })
	return srv
}

func TestHealthz(t *testing.T) {
	srv := testServer(t)

	resp, err := http.Get("http://" + srv.Addr() + "/healthz")
	if err != nil {
		t.Fatalf("Failed to reach healthz: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected 200, got %d", resp.StatusCode)
	}
}

func TestStatusEndpoint(t *testing.T) {
	srv := testServer(t)

	resp, err := http.Get("http://" + srv.Addr() + "/status")
	if err != nil {
		t.Fatalf("Failed to reach status: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200, got %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
		t.Errorf("Expected JSON content type, got %q", ct)
	}

	var payload struct {
		Bot    bot.Snapshot    `json:"bot"`
		System ops.SystemStats `json:"system"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		t.Fatalf("Failed to decode status payload: %v", err)
	}

	if payload.Bot.Enabled {
		t.Error("Expected bot without key to report disabled")
	}
	if payload.System.GoVersion == "" {
		t.Error("Expected system stats to include the Go version")
	}
}

func TestUnknownRouteIs404(t *testing.T) {
	srv := testServer(t)

	resp, err := http.Get("http://" + srv.Addr() + "/nope")
	if err != nil {
		t.Fatalf("Failed to reach server: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("Expected 404, got %d", resp.StatusCode)
	}
}
