// Package announce turns ranking verdicts into published notes: it selects
// the announcement tier, renders the configured template, and signs and
// publishes the result.
package announce

import "github.com/gamestr/scorestr/internal/ranking"

// Tier selects which announcement template to render.
type Tier string

const (
	// TierNewScore is a plain submission outside the top-3.
	TierNewScore Tier = "new_score"
	// TierTopScore is a submission that entered the top-3 without beating
	// the record.
	TierTopScore Tier = "top_score"
	// TierHighScore is a new record that displaced a different player.
	TierHighScore Tier = "high_score"
	// TierFirstHighScore is a new record with no prior holder, or a player
	// re-beating their own record.
	TierFirstHighScore Tier = "first_high_score"
)

// Classify maps a ranking verdict to exactly one tier. Record-breaking takes
// precedence over top-3 membership: a new record is by definition also rank 1
// of the top-3, so the order of these checks is significant.
func Classify(result ranking.UpdateResult) Tier {
	switch {
	case result.IsNewRecord && result.PreviousHolder != nil:
		return TierHighScore
	case result.IsNewRecord:
		return TierFirstHighScore
	case result.IsTopThree && result.Rank >= 1 && result.Rank <= 3:
		return TierTopScore
	default:
		return TierNewScore
	}
}
