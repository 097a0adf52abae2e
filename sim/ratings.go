package sim

import (
	"math"
	"math/rand"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/courtside-analytics/courtside/models"
)

// Time slots a game can air in
const (
	slotEarly     = "early"
	slotPrime     = "prime"
	slotLate      = "late"
	slotAfternoon = "afternoon"
)

// teamPopularity reflects market size, recent success, and star power;
// unlisted teams count as 1.0
var teamPopularity = map[string]float64{
	"LAL": 3.5, "GSW": 3.2, "BOS": 2.8, "NYK": 2.6,
	"CHI": 2.4, "MIA": 2.3, "PHI": 2.2, "DAL": 2.1,
	"MIL": 2.0, "PHX": 1.9, "BRK": 1.8, "DEN": 1.7,
	"ATL": 1.6, "MEM": 1.5, "MIN": 1.4, "CLE": 1.4,
	"TOR": 1.4, "UTA": 1.3, "POR": 1.3, "SAS": 1.3,
	"WAS": 1.2, "NOP": 1.1, "SAC": 1.1, "ORL": 1.1,
	"IND": 1.1, "CHA": 1.0, "DET": 1.0, "OKC": 1.1,
	"HOU": 1.5, "LAC": 1.7,
}

// dayMultipliers capture weekly TV viewing patterns
var dayMultipliers = map[time.Weekday]float64{
	time.Monday:    0.85,
	time.Tuesday:   0.90,
	time.Wednesday: 0.95,
	time.Thursday:  1.05,
	time.Friday:    1.15,
	time.Saturday:  1.25,
	time.Sunday:    1.20,
}

var timeSlotEffects = map[string]float64{
	slotEarly:     0.8,
	slotPrime:     1.4,
	slotLate:      0.9,
	slotAfternoon: 0.7,
}

// seasonalMultipliers by month: interest builds from October through the
// Finals in June
var seasonalMultipliers = map[time.Month]float64{
	time.October:  1.0,
	time.November: 1.1,
	time.December: 1.2,
	time.January:  1.3,
	time.February: 1.4,
	time.March:    1.5,
	time.April:    1.8,
	time.May:      2.0,
	time.June:     2.2,
}

// rivalries that move the ratings needle; stored one direction, checked both
var rivalries = map[[2]string]bool{
	{"LAL", "BOS"}: true,
	{"LAL", "GSW"}: true,
	{"NYK", "BRK"}: true,
	{"MIA", "BOS"}: true,
	{"GSW", "CLE"}: true,
	{"CHI", "DET"}: true,
	{"SAS", "DAL"}: true,
	{"LAC", "LAL"}: true,
}

// RatingsSimulator produces plausible TV viewership numbers for games,
// driven by team popularity, calendar effects, and matchup chemistry
type RatingsSimulator struct {
	rng *rand.Rand
	log *logrus.Logger
}

// NewRatingsSimulator creates a ratings simulator around a seedable source
func NewRatingsSimulator(rng *rand.Rand, log *logrus.Logger) *RatingsSimulator {
	return &RatingsSimulator{rng: rng, log: log}
}

// GenerateGameRatings produces one rating record for the matchup
func (r *RatingsSimulator) GenerateGameRatings(game models.Game) models.TVRating {
	homePop := popularity(game.HomeTeam)
	awayPop := popularity(game.AwayTeam)

	// the bigger draw carries the broadcast
	base := math.Max(homePop, awayPop)*0.7 + math.Min(homePop, awayPop)*0.3

	weekday := game.GameDate.Weekday()
	isWeekend := weekday == time.Saturday || weekday == time.Sunday

	slot := r.pickTimeSlot(isWeekend)
	rivalry := r.rivalryBoost(game.HomeTeam, game.AwayTeam)
	competitiveness := 0.8 + r.rng.Float64()*0.5

	rating := base *
		dayMultipliers[weekday] *
		timeSlotEffects[slot] *
		seasonalMultiplier(game.GameDate.Month()) *
		rivalry *
		competitiveness

	rating += r.rng.NormFloat64() * 0.15
	rating = math.Max(0.3, math.Min(8.0, rating))

	viewers := rating * (1.1 + r.rng.Float64()*0.3)
	totalViewers := rating * 1.2 * 1_000_000

	return models.TVRating{
		GameID:           game.GameID,
		GameDate:         game.GameDate,
		HomeTeam:         game.HomeTeam,
		AwayTeam:         game.AwayTeam,
		TVRating:         round2(rating),
		EstimatedViewers: round2(viewers),
		IsWeekend:        isWeekend,
		IsPrimetime:      slot == slotPrime,
		TimeSlot:         slot,
		DayOfWeek:        weekday.String(),
		RivalryFactor:    round2(rivalry),
		Viewers18To34:    int64(totalViewers * (0.25 + r.rng.Float64()*0.10)),
		Viewers35To54:    int64(totalViewers * (0.35 + r.rng.Float64()*0.10)),
		Viewers55Plus:    int64(totalViewers * (0.20 + r.rng.Float64()*0.10)),
		MaleViewersPct:   round1(60 + r.rng.Float64()*15),
		FemaleViewersPct: round1(25 + r.rng.Float64()*15),
		StreamingPct:     round1(15 + r.rng.Float64()*20),
	}
}

// GenerateSeasonRatings produces ratings for invented slates across a date
// range, up to gamesPerDay matchups per day
func (r *RatingsSimulator) GenerateSeasonRatings(start, end time.Time, gamesPerDay int) []models.TVRating {
	teams := make([]string, 0, len(teamPopularity))
	for team := range teamPopularity {
		teams = append(teams, team)
	}

	var ratings []models.TVRating
	for day := start; !day.After(end); day = day.AddDate(0, 0, 1) {
		r.rng.Shuffle(len(teams), func(i, j int) {
			teams[i], teams[j] = teams[j], teams[i]
		})

		daily := gamesPerDay
		if max := len(teams) / 2; daily > max {
			daily = max
		}

		for i := 0; i < daily; i++ {
			home := teams[2*i]
			away := teams[2*i+1]
			ratings = append(ratings, r.GenerateGameRatings(models.Game{
				GameID:   day.Format("20060102") + home + away,
				GameDate: day,
				HomeTeam: home,
				AwayTeam: away,
			}))
		}
	}

	r.log.WithFields(logrus.Fields{
		"start":   start.Format("2006-01-02"),
		"end":     end.Format("2006-01-02"),
		"ratings": len(ratings),
	}).Debug("Generated season ratings")

	return ratings
}

func (r *RatingsSimulator) pickTimeSlot(isWeekend bool) string {
	roll := r.rng.Float64() * 100
	if isWeekend {
		switch {
		case roll < 40:
			return slotAfternoon
		case roll < 90:
			return slotPrime
		default:
			return slotLate
		}
	}
	switch {
	case roll < 20:
		return slotEarly
	case roll < 80:
		return slotPrime
	default:
		return slotLate
	}
}

func (r *RatingsSimulator) rivalryBoost(homeTeam, awayTeam string) float64 {
	if rivalries[[2]string{homeTeam, awayTeam}] || rivalries[[2]string{awayTeam, homeTeam}] {
		return 1.3 + r.rng.Float64()*0.3
	}
	return 0.95 + r.rng.Float64()*0.1
}

func popularity(team string) float64 {
	if p, ok := teamPopularity[team]; ok {
		return p
	}
	return 1.0
}

func seasonalMultiplier(month time.Month) float64 {
	if m, ok := seasonalMultipliers[month]; ok {
		return m
	}
	return 1.0
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
