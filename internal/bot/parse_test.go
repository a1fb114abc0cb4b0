package bot

import (
	"reflect"
	"testing"

	gonostr "github.com/nbd-wtf/go-nostr"

	"github.com/gamestr/scorestr/internal/games"
)

func scoreEvent(tags gonostr.Tags) *gonostr.Event {
	return &gonostr.Event{
		ID:        "ev1",
		PubKey:    "dev1",
		CreatedAt: gonostr.Timestamp(1700000000),
		Kind:      30762,
		Tags:      tags,
	}
}

func TestParseScoreEvent(t *testing.T) {
	event := scoreEvent(gonostr.Tags{
		{"d", "snake:12345"},
		{"game", "snake"},
		{"score", "1500"},
		{"p", "player1"},
		{"level", "12"},
		{"difficulty", "hard"},
		{"mode", "endless"},
		{"duration", "340"},
		{"achievement", "no-deaths"},
		{"achievement", "speedrun"},
		{"genre", "arcade"},
	})

	sub, err := ParseScoreEvent(event)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if sub.Game != "snake" || sub.Score != 1500 || sub.Player != "player1" {
		t.Errorf("Unexpected core fields: %+v", sub)
	}
	if sub.Developer != "dev1" || sub.EventID != "ev1" || sub.CreatedAt != 1700000000 {
		t.Errorf("Unexpected event fields: %+v", sub)
	}
	if sub.Level != "12" || sub.Difficulty != "hard" || sub.Mode != "endless" || sub.Duration != "340" {
		t.Errorf("Unexpected metadata: %+v", sub)
	}
	if !reflect.DeepEqual(sub.Achievements, []string{"no-deaths", "speedrun"}) {
		t.Errorf("Unexpected achievements: %v", sub.Achievements)
	}
	if !reflect.DeepEqual(sub.Genres, []string{"arcade"}) {
		t.Errorf("Unexpected genres: %v", sub.Genres)
	}

	want := games.Key{Developer: "dev1", Game: "snake"}
	if sub.Key() != want {
		t.Errorf("Key() = %+v, want %+v", sub.Key(), want)
	}
}

func TestParseScoreEventMissingFields(t *testing.T) {
	tests := []struct {
		name string
		tags gonostr.Tags
		want error
	}{
		{
			name: "missing game",
			tags: gonostr.Tags{{"score", "100"}, {"p", "player1"}},
			want: errMissingGame,
		},
		{
			name: "missing score",
			tags: gonostr.Tags{{"game", "snake"}, {"p", "player1"}},
			want: errMissingScore,
		},
		{
			name: "missing player",
			tags: gonostr.Tags{{"game", "snake"}, {"score", "100"}},
			want: errMissingPlayer,
		},
		{
			name: "non-numeric score",
			tags: gonostr.Tags{{"game", "snake"}, {"score", "over9000"}, {"p", "player1"}},
			want: errBadScore,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScoreEvent(scoreEvent(tt.tags))
			if err != tt.want {
				t.Errorf("Expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestParseScoreEventFirstTagWins(t *testing.T) {
	sub, err := ParseScoreEvent(scoreEvent(gonostr.Tags{
		{"game", "snake"},
		{"game", "tetris"},
		{"score", "100"},
		{"score", "999"},
		{"p", "player1"},
		{"p", "player2"},
	}))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if sub.Game != "snake" || sub.Score != 100 || sub.Player != "player1" {
		t.Errorf("Expected first occurrence of each tag to win, got %+v", sub)
	}
}

func TestParseScoreEventIgnoresShortTags(t *testing.T) {
	sub, err := ParseScoreEvent(scoreEvent(gonostr.Tags{
		{"game"},
		{"game", "snake"},
		{"score", "100"},
		{"p", "player1"},
	}))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if sub.Game != "snake" {
		t.Errorf("Expected valueless tag to be skipped, got game %q", sub.Game)
	}
}

func TestParseScoreEventNegativeScore(t *testing.T) {
	sub, err := ParseScoreEvent(scoreEvent(gonostr.Tags{
		{"game", "golf"},
		{"score", "-4"},
		{"p", "player1"},
	}))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if sub.Score != -4 {
		t.Errorf("Expected negative scores to parse, got %d", sub.Score)
	}
}
