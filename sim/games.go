package sim

import (
	"math/rand"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/courtside-analytics/courtside/models"
)

// simulatedTeams is the pool used when inventing a day's schedule
var simulatedTeams = []string{
	"LAL", "GSW", "BOS", "MIL", "PHX", "BRK", "MIA", "PHI", "DEN", "MEM",
	"DAL", "NYK", "ATL", "CHI", "CLE", "TOR", "UTA", "POR", "SAS", "WAS",
}

// popularityScores drive social media volume for a matchup; teams not
// listed count as 1.0
var popularityScores = map[string]float64{
	"LAL": 3.0, "GSW": 2.8, "BOS": 2.5, "NYK": 2.3, "CHI": 2.2,
	"MIA": 2.0, "PHI": 1.9, "BRK": 1.8, "MIL": 1.7, "PHX": 1.6,
}

// GameSimulator invents a plausible NBA slate for a given date
type GameSimulator struct {
	rng *rand.Rand
	log *logrus.Logger
}

// NewGameSimulator creates a schedule simulator around a seedable source
func NewGameSimulator(rng *rand.Rand, log *logrus.Logger) *GameSimulator {
	return &GameSimulator{rng: rng, log: log}
}

// GenerateGames produces 2-6 completed games for the date, never using a
// team twice in the same day. Scores land in the 95-135 range typical of
// modern NBA finals scores.
func (g *GameSimulator) GenerateGames(gameDate time.Time) []models.Game {
	numGames := 2 + g.rng.Intn(5)

	available := make([]string, len(simulatedTeams))
	copy(available, simulatedTeams)
	g.rng.Shuffle(len(available), func(i, j int) {
		available[i], available[j] = available[j], available[i]
	})

	games := make([]models.Game, 0, numGames)
	for i := 0; i < numGames && 2*i+1 < len(available); i++ {
		home := available[2*i]
		away := available[2*i+1]

		games = append(games, models.Game{
			GameID:    gameDate.Format("20060102") + home + away,
			GameDate:  gameDate,
			HomeTeam:  home,
			AwayTeam:  away,
			HomeScore: 95 + g.rng.Intn(41),
			AwayScore: 95 + g.rng.Intn(41),
			Status:    "Final",
		})
	}

	g.log.WithFields(logrus.Fields{
		"game_date": gameDate.Format("2006-01-02"),
		"games":     len(games),
	}).Debug("Generated simulated slate")

	return games
}

// PopularityMultiplier averages the two teams' popularity scores; it scales
// the simulated social volume for a matchup
func PopularityMultiplier(homeTeam, awayTeam string) float64 {
	home, ok := popularityScores[homeTeam]
	if !ok {
		home = 1.0
	}
	away, ok := popularityScores[awayTeam]
	if !ok {
		away = 1.0
	}
	return (home + away) / 2
}
