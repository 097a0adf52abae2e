package sim

import (
	"fmt"
	"math"
	"math/rand"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/courtside-analytics/courtside/models"
)

// Sentiment classes governing a post's polarity range and template pool
const (
	SentimentPositive = "positive"
	SentimentNegative = "negative"
	SentimentNeutral  = "neutral"
)

const (
	// nominal game window: tip-off at 19:00 local, three hours of play
	gameStartHour = 19
	gameDuration  = 3 * time.Hour
	maxJitter     = 15 * time.Minute

	// tweet IDs look like real snowflake IDs: 19 decimal digits
	tweetIDMin  = uint64(1_000_000_000_000_000_000)
	tweetIDSpan = uint64(9_000_000_000_000_000_000)

	fallbackPlayer = "their star player"

	minFollowers = 10
	maxFollowers = 1_000_000_000
)

// SimulatorConfig holds the static template and roster tables for a
// SocialSimulator. The tables are fixed for the simulator's lifetime;
// callers needing different templates construct a new simulator.
type SimulatorConfig struct {
	PositiveTemplates []string
	NegativeTemplates []string
	NeutralTemplates  []string
	StarPlayers       map[string][]string
	FanHashtags       map[string][]string
}

// DefaultSimulatorConfig returns the built-in template pools and rosters
func DefaultSimulatorConfig() SimulatorConfig {
	return SimulatorConfig{
		PositiveTemplates: []string{
			"{player} is ON FIRE tonight! {stat} points already #{team}",
			"What a game by {team}! {player} dropping {stat} like it's nothing",
			"{player} with {stat} points?? MVP chants in the building #{team}",
			"LOVE watching {team} play like this, {player} is unreal",
			"{team} looking unstoppable against {opponent} tonight",
		},
		NegativeTemplates: []string{
			"{team} defense is embarrassing tonight, {opponent} scoring at will",
			"Can't believe {player} only has {stat} points. Rough night",
			"{team} is getting run off the floor by {opponent}. Turn it off",
			"Refs are killing {team} tonight, awful officiating",
			"{player} has been invisible all game. {stat} points won't cut it",
		},
		NeutralTemplates: []string{
			"{team} vs {opponent} tonight, should be interesting",
			"{player} sitting at {stat} points heading into the fourth",
			"Watching {team} and {opponent}, close game so far",
			"{stat} point night for {player} so far",
			"Halftime in the {team} {opponent} game, trading buckets",
		},
		StarPlayers: map[string][]string{
			"LAL": {"LeBron James", "Anthony Davis", "Austin Reaves"},
			"GSW": {"Stephen Curry", "Klay Thompson", "Draymond Green"},
			"BOS": {"Jayson Tatum", "Jaylen Brown", "Kristaps Porzingis"},
			"MIL": {"Giannis Antetokounmpo", "Damian Lillard"},
			"PHX": {"Kevin Durant", "Devin Booker", "Bradley Beal"},
			"DEN": {"Nikola Jokic", "Jamal Murray"},
			"DAL": {"Luka Doncic", "Kyrie Irving"},
			"PHI": {"Joel Embiid", "Tyrese Maxey"},
			"MIA": {"Jimmy Butler", "Bam Adebayo"},
			"NYK": {"Jalen Brunson", "Julius Randle"},
			"MEM": {"Ja Morant", "Jaren Jackson Jr."},
			"BRK": {"Mikal Bridges", "Cam Thomas"},
			"CLE": {"Donovan Mitchell", "Darius Garland"},
			"ATL": {"Trae Young", "Dejounte Murray"},
			"MIN": {"Anthony Edwards", "Karl-Anthony Towns"},
			"OKC": {"Shai Gilgeous-Alexander", "Chet Holmgren"},
		},
		FanHashtags: map[string][]string{
			"LAL": {"#LakeShow", "#LakersNation"},
			"GSW": {"#DubNation"},
			"BOS": {"#BleedGreen", "#CelticsNation"},
			"MIA": {"#HeatCulture"},
			"NYK": {"#NewYorkForever"},
			"CHI": {"#SeeRed"},
			"DAL": {"#MFFL"},
			"PHI": {"#BrotherlyLove"},
		},
	}
}

// SocialSimulator synthesizes batches of realistic engagement records for a
// simulated game. Template and roster tables are loaded once at construction;
// no state is retained between GenerateGameTweets calls, so independent
// matchups can be generated in parallel as long as each simulator gets its
// own rand source.
type SocialSimulator struct {
	cfg SimulatorConfig
	rng *rand.Rand
	log *logrus.Logger
}

// NewSocialSimulator creates a simulator around the given tables and a
// seedable random source
func NewSocialSimulator(cfg SimulatorConfig, rng *rand.Rand, log *logrus.Logger) (*SocialSimulator, error) {
	if len(cfg.PositiveTemplates) == 0 || len(cfg.NegativeTemplates) == 0 || len(cfg.NeutralTemplates) == 0 {
		return nil, fmt.Errorf("simulator config requires a non-empty template pool per sentiment class")
	}
	return &SocialSimulator{
		cfg: cfg,
		rng: rng,
		log: log,
	}, nil
}

// GenerateGameTweets produces count independent posts for the matchup, in
// generation order. Unknown team codes degrade to a generic player name;
// the only error path is a negative count.
func (s *SocialSimulator) GenerateGameTweets(homeTeam, awayTeam string, gameDate time.Time, count int) ([]models.SocialPost, error) {
	if count < 0 {
		return nil, fmt.Errorf("tweet count must be non-negative, got %d", count)
	}

	hashtag := homeTeam + "vs" + awayTeam
	players := s.matchupPlayers(homeTeam, awayTeam)
	windowStart := time.Date(gameDate.Year(), gameDate.Month(), gameDate.Day(),
		gameStartHour, 0, 0, 0, gameDate.Location())

	posts := make([]models.SocialPost, 0, count)
	for i := 0; i < count; i++ {
		class := s.pickSentimentClass()
		polarity := s.samplePolarity(class)
		text := s.renderTemplate(class, homeTeam, awayTeam, players)

		followers := s.sampleFollowers()
		retweets := s.sampleRetweets(followers, polarity)
		favorites := s.sampleFavorites(followers, retweets)

		posts = append(posts, models.SocialPost{
			TweetID:               tweetIDMin + s.rng.Uint64()%tweetIDSpan,
			GameHashtag:           hashtag,
			Text:                  text,
			CreatedAt:             s.postTime(windowStart, i, count),
			UserFollowers:         followers,
			RetweetCount:          retweets,
			FavoriteCount:         favorites,
			SentimentPolarity:     round2(polarity),
			SentimentSubjectivity: round2(0.1 + s.rng.Float64()*0.8),
		})
	}

	s.log.WithFields(logrus.Fields{
		"home_team": homeTeam,
		"away_team": awayTeam,
		"game_date": gameDate.Format("2006-01-02"),
		"count":     len(posts),
	}).Debug("Generated game tweets")

	return posts, nil
}

// pickSentimentClass weights classes 60/25/15 neutral/positive/negative
func (s *SocialSimulator) pickSentimentClass() string {
	r := s.rng.Float64()
	switch {
	case r < 0.60:
		return SentimentNeutral
	case r < 0.85:
		return SentimentPositive
	default:
		return SentimentNegative
	}
}

func (s *SocialSimulator) samplePolarity(class string) float64 {
	switch class {
	case SentimentPositive:
		return 0.1 + s.rng.Float64()*0.7
	case SentimentNegative:
		return -0.8 + s.rng.Float64()*0.7
	default:
		return -0.1 + s.rng.Float64()*0.2
	}
}

func (s *SocialSimulator) templatePool(class string) []string {
	switch class {
	case SentimentPositive:
		return s.cfg.PositiveTemplates
	case SentimentNegative:
		return s.cfg.NegativeTemplates
	default:
		return s.cfg.NeutralTemplates
	}
}

// matchupPlayers combines both rosters; unknown teams contribute nothing,
// and a fully unknown matchup falls back to a generic name
func (s *SocialSimulator) matchupPlayers(homeTeam, awayTeam string) []string {
	players := make([]string, 0, 6)
	players = append(players, s.cfg.StarPlayers[homeTeam]...)
	players = append(players, s.cfg.StarPlayers[awayTeam]...)
	if len(players) == 0 {
		players = append(players, fallbackPlayer)
	}
	return players
}

func (s *SocialSimulator) renderTemplate(class, homeTeam, awayTeam string, players []string) string {
	pool := s.templatePool(class)
	template := pool[s.rng.Intn(len(pool))]
	player := players[s.rng.Intn(len(players))]
	stat := 15 + s.rng.Intn(31) // [15, 45]

	r := strings.NewReplacer(
		"{team}", homeTeam,
		"{opponent}", awayTeam,
		"{player}", player,
		"{stat}", strconv.Itoa(stat),
	)
	return r.Replace(template)
}

// sampleFollowers draws from a log-normal distribution (mu 7, sigma 2)
func (s *SocialSimulator) sampleFollowers() int {
	return followersFromDraw(s.rng.NormFloat64())
}

// followersFromDraw maps a standard normal draw through the log-normal
// follower model. Clamped to [10, 1e9]: the floor gives every account some
// audience, the ceiling keeps an extreme draw from overflowing the float
// to int conversion.
func followersFromDraw(draw float64) int {
	followers := math.Exp(7 + 2*draw)
	if followers > maxFollowers {
		return maxFollowers
	}
	if followers < minFollowers {
		return minFollowers
	}
	return int(followers)
}

// sampleRetweets draws from a gamma distribution with shape 2 and a scale
// tied to audience size and sentiment polarity, so bigger accounts and
// stronger takes travel further
func (s *SocialSimulator) sampleRetweets(followers int, polarity float64) int {
	scale := math.Min(float64(followers)/100, 50) + math.Max(0, polarity*2)
	if scale <= 0 {
		return 0
	}
	// gamma(k=2) as the sum of two exponentials
	draw := -scale * (math.Log(1-s.rng.Float64()) + math.Log(1-s.rng.Float64()))
	if draw < 0 {
		return 0
	}
	return int(draw)
}

// sampleFavorites scales retweets up and adds an audience baseline; the
// result never drops below the retweet count
func (s *SocialSimulator) sampleFavorites(followers, retweets int) int {
	favorites := int(float64(retweets)*(2+s.rng.Float64()*3) + math.Min(float64(followers)/50, 100))
	if favorites < retweets {
		favorites = retweets
	}
	return favorites
}

// postTime maps the post's index linearly into the three-hour game window
// and adds up to fifteen minutes of jitter either way. The original feed
// also tracked an "excitement" flag near quarter boundaries but never used
// it to shape the distribution; that behavior is kept, so position alone
// decides the nominal time.
func (s *SocialSimulator) postTime(windowStart time.Time, index, count int) time.Time {
	progress := 0.0
	if count > 0 {
		progress = float64(index) / float64(count)
	}
	nominal := windowStart.Add(time.Duration(progress * float64(gameDuration)))
	jitter := time.Duration((s.rng.Float64()*2 - 1) * float64(maxJitter))
	return nominal.Add(jitter)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
