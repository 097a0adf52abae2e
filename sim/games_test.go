package sim

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateGames(t *testing.T) {
	g := NewGameSimulator(rand.New(rand.NewSource(21)), testLogger())
	gameDate := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 50; i++ {
		games := g.GenerateGames(gameDate)

		require.GreaterOrEqual(t, len(games), 2)
		require.LessOrEqual(t, len(games), 6)

		seen := map[string]bool{}
		for _, game := range games {
			assert.Equal(t, "20240115"+game.HomeTeam+game.AwayTeam, game.GameID)
			assert.Equal(t, "Final", game.Status)
			assert.True(t, gameDate.Equal(game.GameDate))

			assert.GreaterOrEqual(t, game.HomeScore, 95)
			assert.LessOrEqual(t, game.HomeScore, 135)
			assert.GreaterOrEqual(t, game.AwayScore, 95)
			assert.LessOrEqual(t, game.AwayScore, 135)

			// no team plays twice on the same day
			assert.False(t, seen[game.HomeTeam], "team %s scheduled twice", game.HomeTeam)
			assert.False(t, seen[game.AwayTeam], "team %s scheduled twice", game.AwayTeam)
			seen[game.HomeTeam] = true
			seen[game.AwayTeam] = true
		}
	}
}

func TestGenerateGamesDeterministicUnderSeed(t *testing.T) {
	gameDate := time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC)

	a := NewGameSimulator(rand.New(rand.NewSource(5)), testLogger()).GenerateGames(gameDate)
	b := NewGameSimulator(rand.New(rand.NewSource(5)), testLogger()).GenerateGames(gameDate)

	assert.Equal(t, a, b)
}

func TestPopularityMultiplier(t *testing.T) {
	tests := []struct {
		name     string
		home     string
		away     string
		expected float64
	}{
		{name: "two marquee teams", home: "LAL", away: "GSW", expected: 2.9},
		{name: "marquee vs unlisted", home: "LAL", away: "OKC", expected: 2.0},
		{name: "two unlisted teams", home: "OKC", away: "SAC", expected: 1.0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.InDelta(t, tc.expected, PopularityMultiplier(tc.home, tc.away), 1e-9)
		})
	}
}
