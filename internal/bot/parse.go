package bot

import (
	"errors"
	"strconv"

	gonostr "github.com/nbd-wtf/go-nostr"

	"github.com/gamestr/scorestr/internal/games"
)

// Submission is a parsed score event. Game, Score, and Player are mandatory;
// an event missing any of them is invalid and never reaches the ranking
// store.
type Submission struct {
	Game      string
	Score     int64
	Player    string
	Developer string
	EventID   string
	CreatedAt int64

	// Optional metadata, exposed to templates where configured.
	Level        string
	Difficulty   string
	Mode         string
	Duration     string
	Achievements []string
	Genres       []string
}

// Key returns the leaderboard this submission competes on.
func (s *Submission) Key() games.Key {
	return games.Key{Developer: s.Developer, Game: s.Game}
}

var (
	errMissingGame   = errors.New("missing game tag")
	errMissingScore  = errors.New("missing score tag")
	errMissingPlayer = errors.New("missing player tag")
	errBadScore      = errors.New("score is not a valid integer")
)

// ParseScoreEvent extracts a Submission from a score event. The submitting
// developer is the event author; the player is carried in the p tag.
func ParseScoreEvent(event *gonostr.Event) (*Submission, error) {
	sub := &Submission{
		Developer: event.PubKey,
		EventID:   event.ID,
		CreatedAt: int64(event.CreatedAt),
	}

	var scoreStr string
	for _, tag := range event.Tags {
		if len(tag) < 2 {
			continue
		}
		switch tag[0] {
		case "game":
			if sub.Game == "" {
				sub.Game = tag[1]
			}
		case "score":
			if scoreStr == "" {
				scoreStr = tag[1]
			}
		case "p":
			if sub.Player == "" {
				sub.Player = tag[1]
			}
		case "level":
			sub.Level = tag[1]
		case "difficulty":
			sub.Difficulty = tag[1]
		case "mode":
			sub.Mode = tag[1]
		case "duration":
			sub.Duration = tag[1]
		case "achievement":
			sub.Achievements = append(sub.Achievements, tag[1])
		case "genre":
			sub.Genres = append(sub.Genres, tag[1])
		}
	}

	if sub.Game == "" {
		return nil, errMissingGame
	}
	if scoreStr == "" {
		return nil, errMissingScore
	}
	if sub.Player == "" {
		return nil, errMissingPlayer
	}

	score, err := strconv.ParseInt(scoreStr, 10, 64)
	if err != nil {
		return nil, errBadScore
	}
	sub.Score = score

	return sub, nil
}
