package announce

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/nbd-wtf/go-nostr/nip19"

	"github.com/gamestr/scorestr/internal/config"
)

// Renderer renders announcement templates. Templates use {variable}
// placeholders; unknown placeholders render as empty strings so a template
// can omit any variable it does not need.
type Renderer struct {
	templates config.Templates
	baseURL   string
}

// NewRenderer creates a renderer from configured templates and the site base
// URL used for score and game links.
func NewRenderer(templates config.Templates, baseURL string) *Renderer {
	return &Renderer{
		templates: templates,
		baseURL:   strings.TrimRight(baseURL, "/"),
	}
}

// Vars holds every template variable. All tiers receive all of them; fields
// that do not apply to a tier are left empty.
type Vars struct {
	PlayerTag         string
	GameTag           string
	GameName          string
	Score             string
	ScoreRaw          string
	ScoreLink         string
	GameLink          string
	Level             string
	Difficulty        string
	Rank              string
	PreviousHolderTag string
	PreviousScore     string
}

// Render applies the variables to the template for the given tier.
func (r *Renderer) Render(tier Tier, vars Vars) string {
	var tmpl string
	switch tier {
	case TierHighScore:
		tmpl = r.templates.HighScore
	case TierFirstHighScore:
		tmpl = r.templates.FirstHighScore
	case TierTopScore:
		tmpl = r.templates.TopScore
	default:
		tmpl = r.templates.NewScore
	}

	replacer := strings.NewReplacer(
		"{playerTag}", vars.PlayerTag,
		"{gameTag}", vars.GameTag,
		"{gameName}", vars.GameName,
		"{score}", vars.Score,
		"{scoreRaw}", vars.ScoreRaw,
		"{scoreLink}", vars.ScoreLink,
		"{gameLink}", vars.GameLink,
		"{level}", vars.Level,
		"{difficulty}", vars.Difficulty,
		"{rank}", vars.Rank,
		"{previousHolderTag}", vars.PreviousHolderTag,
		"{previousScore}", vars.PreviousScore,
	)
	return replacer.Replace(tmpl)
}

// ScoreLink builds the detail-view URL for one submission.
func (r *Renderer) ScoreLink(developer, game, eventID string) string {
	return fmt.Sprintf("%s/score/%s/%s/%s", r.baseURL, developer, game, eventID)
}

// GameLink builds the leaderboard URL for one game.
func (r *Renderer) GameLink(developer, game string) string {
	return fmt.Sprintf("%s/game/%s/%s", r.baseURL, developer, game)
}

// FormatScore renders a score with grouped thousands: 1234567 -> "1,234,567".
func FormatScore(score int64) string {
	s := strconv.FormatInt(score, 10)

	neg := false
	if strings.HasPrefix(s, "-") {
		neg = true
		s = s[1:]
	}

	var b strings.Builder
	for i, digit := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(digit)
	}

	if neg {
		return "-" + b.String()
	}
	return b.String()
}

// PubkeyTag renders a hex pubkey as a "nostr:npub1..." mention for note
// content. A pubkey that fails to encode is used verbatim.
func PubkeyTag(pubkey string) string {
	npub, err := nip19.EncodePublicKey(pubkey)
	if err != nil {
		return pubkey
	}
	return "nostr:" + npub
}
