package db

import (
	"database/sql"
	"io"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/courtside-analytics/courtside/models"
)

func newTestDatabase(t *testing.T) *Database {
	t.Helper()

	log := logrus.New()
	log.SetOutput(io.Discard)

	database, err := NewDatabase(filepath.Join(t.TempDir(), "test.db"), log)
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })

	return database
}

func testPost(tweetID uint64, hashtag string, retweets int, polarity float64) models.SocialPost {
	return models.SocialPost{
		TweetID:               tweetID,
		GameHashtag:           hashtag,
		Text:                  "Watching the game",
		CreatedAt:             time.Date(2024, 1, 15, 19, 30, 0, 0, time.UTC),
		UserFollowers:         1200,
		RetweetCount:          retweets,
		FavoriteCount:         retweets * 3,
		SentimentPolarity:     polarity,
		SentimentSubjectivity: 0.5,
	}
}

func TestSaveAndQueryGames(t *testing.T) {
	database := newTestDatabase(t)
	gameDate := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)

	games := []models.Game{
		{GameID: "20240115LALGSW", GameDate: gameDate, HomeTeam: "LAL", AwayTeam: "GSW", HomeScore: 112, AwayScore: 108, Status: "Final"},
		{GameID: "20240115BOSMIA", GameDate: gameDate, HomeTeam: "BOS", AwayTeam: "MIA", HomeScore: 99, AwayScore: 101, Status: "Final"},
	}
	require.NoError(t, database.SaveGames(games))

	stored, err := database.GetGamesByDate(gameDate)
	require.NoError(t, err)
	require.Len(t, stored, 2)
	assert.Equal(t, "20240115BOSMIA", stored[0].GameID)
	assert.Equal(t, "LAL", stored[1].HomeTeam)
	assert.Equal(t, 108, stored[1].AwayScore)
	assert.True(t, gameDate.Equal(stored[0].GameDate))

	total, err := database.GetTotalGames()
	require.NoError(t, err)
	assert.Equal(t, 2, total)

	// other dates stay empty
	other, err := database.GetGamesByDate(gameDate.AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestSaveSocialPostsIgnoresDuplicateIDs(t *testing.T) {
	database := newTestDatabase(t)

	posts := []models.SocialPost{
		testPost(1111111111111111111, "LALvsGSW", 5, 0.3),
		testPost(1111111111111111111, "LALvsGSW", 8, -0.2),
		testPost(2222222222222222222, "LALvsGSW", 2, 0.0),
	}

	inserted, err := database.SaveSocialPosts(posts)
	require.NoError(t, err)
	assert.Equal(t, 2, inserted)

	total, err := database.GetTotalPosts()
	require.NoError(t, err)
	assert.Equal(t, 2, total)
}

func TestSocialPostRoundTrip(t *testing.T) {
	database := newTestDatabase(t)

	post := testPost(9876543210987654321, "BOSvsMIA", 42, -0.45)
	_, err := database.SaveSocialPosts([]models.SocialPost{post})
	require.NoError(t, err)

	stored, err := database.GetTopPostsByRetweets(1)
	require.NoError(t, err)
	require.Len(t, stored, 1)

	assert.Equal(t, post.TweetID, stored[0].TweetID)
	assert.Equal(t, post.GameHashtag, stored[0].GameHashtag)
	assert.Equal(t, post.Text, stored[0].Text)
	assert.True(t, post.CreatedAt.Equal(stored[0].CreatedAt))
	assert.Equal(t, post.RetweetCount, stored[0].RetweetCount)
	assert.Equal(t, post.FavoriteCount, stored[0].FavoriteCount)
	assert.InDelta(t, post.SentimentPolarity, stored[0].SentimentPolarity, 1e-9)
}

func TestTopPostsAndHashtagAggregates(t *testing.T) {
	database := newTestDatabase(t)

	posts := []models.SocialPost{
		testPost(1000000000000000001, "LALvsGSW", 50, 0.5),
		testPost(1000000000000000002, "LALvsGSW", 10, -0.5),
		testPost(1000000000000000003, "BOSvsMIA", 30, 0.0),
	}
	_, err := database.SaveSocialPosts(posts)
	require.NoError(t, err)

	top, err := database.GetTopPostsByRetweets(2)
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Equal(t, 50, top[0].RetweetCount)
	assert.Equal(t, 30, top[1].RetweetCount)

	counts, err := database.GetPostCountsByHashtag()
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"LALvsGSW": 2, "BOSvsMIA": 1}, counts)

	topLAL, err := database.GetTopPostByHashtag("LALvsGSW")
	require.NoError(t, err)
	assert.Equal(t, uint64(1000000000000000001), topLAL.TweetID)

	breakdown, err := database.GetSentimentBreakdown()
	require.NoError(t, err)
	assert.Equal(t, models.SentimentBreakdown{Positive: 1, Negative: 1, Neutral: 1}, breakdown)
}

func TestRatingsAggregates(t *testing.T) {
	database := newTestDatabase(t)
	gameDate := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)

	ratings := []models.TVRating{
		{GameID: "20240115LALGSW", GameDate: gameDate, HomeTeam: "LAL", AwayTeam: "GSW", TVRating: 4.0, EstimatedViewers: 5.0, TimeSlot: "prime", DayOfWeek: "Monday", RivalryFactor: 1.4},
		{GameID: "20240115BOSMIA", GameDate: gameDate, HomeTeam: "BOS", AwayTeam: "MIA", TVRating: 2.0, EstimatedViewers: 2.4, TimeSlot: "late", DayOfWeek: "Monday", RivalryFactor: 1.0},
	}
	require.NoError(t, database.SaveRatings(ratings))

	total, err := database.GetTotalRatings()
	require.NoError(t, err)
	assert.Equal(t, 2, total)

	avg, err := database.GetAvgTVRating()
	require.NoError(t, err)
	assert.InDelta(t, 3.0, avg, 1e-9)

	min, max, err := database.GetRatingBounds(gameDate)
	require.NoError(t, err)
	assert.InDelta(t, 2.0, min, 1e-9)
	assert.InDelta(t, 4.0, max, 1e-9)
}

func TestDateScopedCounts(t *testing.T) {
	database := newTestDatabase(t)
	dayOne := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	dayTwo := dayOne.AddDate(0, 0, 1)

	dayOnePost := testPost(1000000000000000001, "LALvsGSW", 5, 0.3)
	dayOnePost.CreatedAt = dayOne.Add(19 * time.Hour)
	dayTwoPost := testPost(1000000000000000002, "BOSvsMIA", 3, 0.0)
	dayTwoPost.CreatedAt = dayTwo.Add(20 * time.Hour)

	_, err := database.SaveSocialPosts([]models.SocialPost{dayOnePost, dayTwoPost})
	require.NoError(t, err)

	count, err := database.GetPostCountForDate(dayOne)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	count, err = database.GetPostCountForDate(dayTwo)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	// a day with nothing stored counts zero even though other days have rows
	count, err = database.GetPostCountForDate(dayTwo.AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.Zero(t, count)

	require.NoError(t, database.SaveRatings([]models.TVRating{
		{GameID: "20240115LALGSW", GameDate: dayOne, HomeTeam: "LAL", AwayTeam: "GSW", TVRating: 4.0, EstimatedViewers: 5.0, TimeSlot: "prime", DayOfWeek: "Monday", RivalryFactor: 1.4},
	}))

	count, err = database.GetRatingCountForDate(dayOne)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	count, err = database.GetRatingCountForDate(dayTwo)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestGetRatingBoundsNoRowsForDate(t *testing.T) {
	database := newTestDatabase(t)
	dayOne := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)

	require.NoError(t, database.SaveRatings([]models.TVRating{
		{GameID: "20240115LALGSW", GameDate: dayOne, HomeTeam: "LAL", AwayTeam: "GSW", TVRating: 4.0, EstimatedViewers: 5.0, TimeSlot: "prime", DayOfWeek: "Monday", RivalryFactor: 1.4},
	}))

	// ratings exist, just not for this date; the bounds must say so rather
	// than reporting 0.00-0.00
	_, _, err := database.GetRatingBounds(dayOne.AddDate(0, 0, 1))
	assert.ErrorIs(t, err, sql.ErrNoRows)

	min, max, err := database.GetRatingBounds(dayOne)
	require.NoError(t, err)
	assert.InDelta(t, 4.0, min, 1e-9)
	assert.InDelta(t, 4.0, max, 1e-9)
}

func TestEmptyDatabaseAggregates(t *testing.T) {
	database := newTestDatabase(t)

	total, err := database.GetTotalPosts()
	require.NoError(t, err)
	assert.Zero(t, total)

	avg, err := database.GetAvgTVRating()
	require.NoError(t, err)
	assert.Zero(t, avg)

	breakdown, err := database.GetSentimentBreakdown()
	require.NoError(t, err)
	assert.Equal(t, models.SentimentBreakdown{}, breakdown)

	_, err = database.GetTopPostByHashtag("LALvsGSW")
	assert.Error(t, err)
}
