package pipeline

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/courtside-analytics/courtside/db"
	"github.com/courtside-analytics/courtside/models"
	"github.com/courtside-analytics/courtside/sim"
)

const (
	defaultTopPostsLimit = 10

	// an NBA day tops out around 15 games; more than that means the
	// generator misbehaved
	maxGamesPerDay = 15
)

// Runner drives the daily simulation: each tick processes one simulated
// game day, landing games, social posts, and TV ratings in the bronze
// layer, then refreshing the aggregate statistics served by the API.
type Runner struct {
	database      *db.Database
	socialSim     *sim.SocialSimulator
	gameSim       *sim.GameSimulator
	ratingsSim    *sim.RatingsSimulator
	rng           *rand.Rand
	interval      time.Duration
	baseVolume    int
	simulatedDate time.Time
	topPostsLimit int
	stats         models.Statistics
	log           *logrus.Logger
	mutex         sync.RWMutex
}

// NewRunner creates a pipeline runner. The rand source is only touched from
// the run loop goroutine, so a single seeded source shared with the
// simulators is safe.
func NewRunner(
	database *db.Database,
	socialSim *sim.SocialSimulator,
	gameSim *sim.GameSimulator,
	ratingsSim *sim.RatingsSimulator,
	rng *rand.Rand,
	interval time.Duration,
	baseVolume int,
	seasonStart time.Time,
	log *logrus.Logger,
) *Runner {
	return &Runner{
		database:      database,
		socialSim:     socialSim,
		gameSim:       gameSim,
		ratingsSim:    ratingsSim,
		rng:           rng,
		interval:      interval,
		baseVolume:    baseVolume,
		simulatedDate: seasonStart,
		topPostsLimit: defaultTopPostsLimit,
		stats: models.Statistics{
			TopPostsByRetweets: make([]models.SocialPost, 0, defaultTopPostsLimit),
			PostsByTeam:        make(map[string]int),
			MatchupStats:       make(map[string]models.MatchupStats),
			SimulatedDate:      seasonStart,
			StartTime:          time.Now(),
			LastUpdated:        time.Now(),
		},
		log: log,
	}
}

// Start runs the daily pipeline until the context is cancelled. The first
// game day is processed immediately; subsequent days follow the ticker.
func (r *Runner) Start(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	if err := r.runGameDay(ctx); err != nil {
		r.log.WithError(err).Error("Failed to process game day")
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := r.runGameDay(ctx); err != nil {
				r.log.WithError(err).Error("Failed to process game day")
			}
		}
	}
}

// runGameDay processes one simulated day end to end: extract games,
// generate social data, generate ratings, validate, refresh statistics
func (r *Runner) runGameDay(ctx context.Context) error {
	r.mutex.Lock()
	gameDate := r.simulatedDate
	r.simulatedDate = r.simulatedDate.AddDate(0, 0, 1)
	r.mutex.Unlock()

	runLog := r.log.WithFields(logrus.Fields{
		"run_id":    uuid.NewString(),
		"game_date": gameDate.Format("2006-01-02"),
	})
	runLog.Info("Processing game day")

	games, err := r.extractGames(gameDate)
	if err != nil {
		return err
	}
	runLog.WithField("games", len(games)).Info("Games extracted")

	if ctx.Err() != nil {
		return ctx.Err()
	}

	postsGenerated, err := r.generateSocialData(games, gameDate)
	if err != nil {
		runLog.WithError(err).Error("Failed to generate social data")
	} else {
		runLog.WithFields(logrus.Fields{
			"social_posts": postsGenerated,
			"games":        len(games),
		}).Info("Social data generated")
	}

	if err := r.generateRatings(games); err != nil {
		runLog.WithError(err).Error("Failed to generate TV ratings")
	}

	// an empty slate means every downstream step ran on nothing; that is
	// the one critical failure, everything else is tolerated
	issues := r.validateDataQuality(gameDate, len(games))
	switch {
	case len(games) == 0:
		runLog.WithField("issues", issues).Error("Data quality validation failed: no games persisted")
	case len(issues) > 0:
		runLog.WithField("issues", issues).Warn("Data quality issues found")
	default:
		runLog.Info("Data quality validation passed")
	}

	r.updateStatistics(gameDate)
	r.logStatistics()

	return nil
}

// extractGames invents the day's slate and persists it, then reads it back
// so downstream steps work from stored data
func (r *Runner) extractGames(gameDate time.Time) ([]models.Game, error) {
	games := r.gameSim.GenerateGames(gameDate)

	if err := r.database.SaveGames(games); err != nil {
		return nil, fmt.Errorf("failed to save games: %w", err)
	}

	stored, err := r.database.GetGamesByDate(gameDate)
	if err != nil {
		return nil, fmt.Errorf("failed to read back games: %w", err)
	}

	return stored, nil
}

// generateSocialData produces posts per game, with volume scaled by team
// popularity so marquee matchups trend harder
func (r *Runner) generateSocialData(games []models.Game, gameDate time.Time) (int, error) {
	total := 0
	for _, game := range games {
		multiplier := sim.PopularityMultiplier(game.HomeTeam, game.AwayTeam)
		volume := int(float64(r.baseVolume) * multiplier * (0.8 + r.rng.Float64()*0.4))

		posts, err := r.socialSim.GenerateGameTweets(game.HomeTeam, game.AwayTeam, gameDate, volume)
		if err != nil {
			return total, fmt.Errorf("failed to generate tweets for %s: %w", game.GameID, err)
		}

		inserted, err := r.database.SaveSocialPosts(posts)
		if err != nil {
			return total, fmt.Errorf("failed to save posts for %s: %w", game.GameID, err)
		}
		if inserted < len(posts) {
			r.log.WithFields(logrus.Fields{
				"game_id": game.GameID,
				"dropped": len(posts) - inserted,
			}).Warn("Dropped posts with colliding tweet IDs")
		}

		total += inserted
	}

	return total, nil
}

func (r *Runner) generateRatings(games []models.Game) error {
	ratings := make([]models.TVRating, 0, len(games))
	for _, game := range games {
		ratings = append(ratings, r.ratingsSim.GenerateGameRatings(game))
	}

	if err := r.database.SaveRatings(ratings); err != nil {
		return fmt.Errorf("failed to save ratings: %w", err)
	}

	return nil
}

// validateDataQuality runs the bronze-layer checks for one game day and
// returns any issues found. All counts are scoped to the day under
// validation so earlier days can't mask a dry run.
func (r *Runner) validateDataQuality(gameDate time.Time, gamesStored int) []string {
	var issues []string

	if gamesStored == 0 {
		issues = append(issues, "no games data found")
	} else if gamesStored > maxGamesPerDay {
		issues = append(issues, fmt.Sprintf("unusually high game count: %d", gamesStored))
	}

	posts, err := r.database.GetPostCountForDate(gameDate)
	if err != nil {
		issues = append(issues, fmt.Sprintf("post count check failed: %v", err))
	} else if posts == 0 && gamesStored > 0 {
		issues = append(issues, "no social media data found for games")
	}

	ratings, err := r.database.GetRatingCountForDate(gameDate)
	if err != nil {
		issues = append(issues, fmt.Sprintf("rating count check failed: %v", err))
	} else if ratings == 0 && gamesStored > 0 {
		issues = append(issues, "no TV ratings data found for games")
	}

	if ratings > 0 {
		min, max, err := r.database.GetRatingBounds(gameDate)
		if err != nil {
			issues = append(issues, fmt.Sprintf("rating bounds check failed: %v", err))
		} else if min < 0.1 || max > 10 {
			issues = append(issues, fmt.Sprintf("TV ratings out of expected range: %.2f-%.2f", min, max))
		}
	}

	return issues
}

// updateStatistics refreshes the aggregate view from the database
func (r *Runner) updateStatistics(gameDate time.Time) {
	totalGames, err := r.database.GetTotalGames()
	if err != nil {
		r.log.WithError(err).Error("Failed to get total games")
		return
	}

	totalPosts, err := r.database.GetTotalPosts()
	if err != nil {
		r.log.WithError(err).Error("Failed to get total posts")
		return
	}

	totalRatings, err := r.database.GetTotalRatings()
	if err != nil {
		r.log.WithError(err).Error("Failed to get total ratings")
		return
	}

	sentiment, err := r.database.GetSentimentBreakdown()
	if err != nil {
		r.log.WithError(err).Error("Failed to get sentiment breakdown")
		return
	}

	topPosts, err := r.database.GetTopPostsByRetweets(r.topPostsLimit)
	if err != nil {
		r.log.WithError(err).Error("Failed to get top posts")
		return
	}

	avgRating, err := r.database.GetAvgTVRating()
	if err != nil {
		r.log.WithError(err).Error("Failed to get average rating")
		return
	}

	hashtagCounts, err := r.database.GetPostCountsByHashtag()
	if err != nil {
		r.log.WithError(err).Error("Failed to get hashtag counts")
		return
	}

	postsByTeam := make(map[string]int)
	matchupStats := make(map[string]models.MatchupStats)
	for hashtag, count := range hashtagCounts {
		for _, team := range teamsFromHashtag(hashtag) {
			postsByTeam[team] += count
		}

		stats := models.MatchupStats{PostCount: count}
		if top, err := r.database.GetTopPostByHashtag(hashtag); err == nil {
			stats.TopRetweetedPost = top
		}
		matchupStats[hashtag] = stats
	}

	r.mutex.Lock()
	r.stats.TotalGames = totalGames
	r.stats.TotalPosts = totalPosts
	r.stats.TotalRatings = totalRatings
	r.stats.Sentiment = sentiment
	r.stats.TopPostsByRetweets = topPosts
	r.stats.PostsByTeam = postsByTeam
	r.stats.MatchupStats = matchupStats
	r.stats.AvgTVRating = avgRating
	r.stats.SimulatedDate = gameDate
	r.stats.LastUpdated = time.Now()
	r.mutex.Unlock()
}

// logStatistics logs the current statistics
func (r *Runner) logStatistics() {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	r.log.WithFields(logrus.Fields{
		"total_games":    r.stats.TotalGames,
		"total_posts":    r.stats.TotalPosts,
		"total_ratings":  r.stats.TotalRatings,
		"avg_tv_rating":  r.stats.AvgTVRating,
		"simulated_date": r.stats.SimulatedDate.Format("2006-01-02"),
		"running_since":  time.Since(r.stats.StartTime).String(),
	}).Info("Statistics updated")
}

// GetStatistics returns a copy of the current statistics
// note: a mutex guards the stats object so it can't be modified mid-read
func (r *Runner) GetStatistics() models.Statistics {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	return r.stats
}

// GetTeamStatistics returns the aggregate view for one team code; the
// second return reports whether any posts mention the team
func (r *Runner) GetTeamStatistics(team string) (models.TeamStats, bool) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	count, ok := r.stats.PostsByTeam[team]
	if !ok {
		return models.TeamStats{}, false
	}

	matchups := make(map[string]models.MatchupStats)
	for hashtag, stats := range r.stats.MatchupStats {
		for _, code := range teamsFromHashtag(hashtag) {
			if code == team {
				matchups[hashtag] = stats
			}
		}
	}

	return models.TeamStats{
		Team:      team,
		PostCount: count,
		Matchups:  matchups,
	}, true
}

// teamsFromHashtag recovers the two team codes from a "HOMEvsAWAY" hashtag
func teamsFromHashtag(hashtag string) []string {
	parts := strings.SplitN(hashtag, "vs", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return nil
	}
	return parts
}
