package db

import (
	"database/sql"
	"fmt"
	"strconv"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/sirupsen/logrus"

	"github.com/courtside-analytics/courtside/models"
)

const (
	dateLayout = "2006-01-02"
)

// Database provides the bronze-layer storage for simulated games, social
// posts, and TV ratings
type Database struct {
	db    *sql.DB
	mutex sync.RWMutex
	log   *logrus.Logger
}

// NewDatabase creates a new SQLite database connection
func NewDatabase(dbPath string, log *logrus.Logger) (*Database, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	database := &Database{
		db:  db,
		log: log,
	}

	if err := database.initTables(); err != nil {
		return nil, fmt.Errorf("failed to initialize tables: %w", err)
	}

	return database, nil
}

// Close closes the database connection
func (d *Database) Close() error {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	return d.db.Close()
}

// initTables creates the bronze tables if they don't exist
func (d *Database) initTables() error {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	// note: in an ideal world this would be a migration run once per environment
	query := `
	CREATE TABLE IF NOT EXISTS raw_games (
		game_id TEXT PRIMARY KEY,
		game_date TEXT NOT NULL,
		home_team TEXT NOT NULL,
		away_team TEXT NOT NULL,
		home_score INTEGER NOT NULL,
		away_score INTEGER NOT NULL,
		status TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_games_date ON raw_games(game_date);

	CREATE TABLE IF NOT EXISTS raw_social_data (
		tweet_id TEXT PRIMARY KEY,
		game_hashtag TEXT NOT NULL,
		text TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL,
		user_followers INTEGER NOT NULL,
		retweet_count INTEGER NOT NULL,
		favorite_count INTEGER NOT NULL,
		sentiment_polarity REAL NOT NULL,
		sentiment_subjectivity REAL NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_social_retweets ON raw_social_data(retweet_count DESC);
	CREATE INDEX IF NOT EXISTS idx_social_hashtag ON raw_social_data(game_hashtag);

	CREATE TABLE IF NOT EXISTS raw_tv_ratings (
		game_id TEXT PRIMARY KEY,
		game_date TEXT NOT NULL,
		home_team TEXT NOT NULL,
		away_team TEXT NOT NULL,
		tv_rating REAL NOT NULL,
		estimated_viewers REAL NOT NULL,
		is_weekend BOOLEAN NOT NULL,
		is_primetime BOOLEAN NOT NULL,
		time_slot TEXT NOT NULL,
		day_of_week TEXT NOT NULL,
		rivalry_factor REAL NOT NULL,
		viewers_18_34 INTEGER NOT NULL,
		viewers_35_54 INTEGER NOT NULL,
		viewers_55_plus INTEGER NOT NULL,
		male_viewers_pct REAL NOT NULL,
		female_viewers_pct REAL NOT NULL,
		streaming_viewers_pct REAL NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_ratings_date ON raw_tv_ratings(game_date);
	`

	_, err := d.db.Exec(query)
	return err
}

// SaveGames persists a slate of games in one transaction
func (d *Database) SaveGames(games []models.Game) error {
	if len(games) == 0 {
		return nil
	}

	d.mutex.Lock()
	defer d.mutex.Unlock()

	tx, err := d.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
	INSERT OR REPLACE INTO raw_games (
		game_id, game_date, home_team, away_team, home_score, away_score, status
	) VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare game insert: %w", err)
	}
	defer stmt.Close()

	for _, game := range games {
		_, err := stmt.Exec(
			game.GameID, game.GameDate.Format(dateLayout), game.HomeTeam,
			game.AwayTeam, game.HomeScore, game.AwayScore, game.Status,
		)
		if err != nil {
			return fmt.Errorf("failed to save game %s: %w", game.GameID, err)
		}
	}

	return tx.Commit()
}

// SaveSocialPosts persists a batch of posts in one transaction. Duplicate
// tweet IDs are dropped rather than rejected since the generator assigns
// them at random with no collision check. Returns the number actually
// inserted.
func (d *Database) SaveSocialPosts(posts []models.SocialPost) (int, error) {
	if len(posts) == 0 {
		return 0, nil
	}

	d.mutex.Lock()
	defer d.mutex.Unlock()

	tx, err := d.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
	INSERT OR IGNORE INTO raw_social_data (
		tweet_id, game_hashtag, text, created_at, user_followers,
		retweet_count, favorite_count, sentiment_polarity, sentiment_subjectivity
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare post insert: %w", err)
	}
	defer stmt.Close()

	inserted := 0
	for _, post := range posts {
		res, err := stmt.Exec(
			strconv.FormatUint(post.TweetID, 10), post.GameHashtag, post.Text,
			post.CreatedAt.Format(time.RFC3339), post.UserFollowers,
			post.RetweetCount, post.FavoriteCount,
			post.SentimentPolarity, post.SentimentSubjectivity,
		)
		if err != nil {
			return inserted, fmt.Errorf("failed to save post %d: %w", post.TweetID, err)
		}
		if n, err := res.RowsAffected(); err == nil {
			inserted += int(n)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return inserted, nil
}

// SaveRatings persists TV rating records in one transaction
func (d *Database) SaveRatings(ratings []models.TVRating) error {
	if len(ratings) == 0 {
		return nil
	}

	d.mutex.Lock()
	defer d.mutex.Unlock()

	tx, err := d.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
	INSERT OR REPLACE INTO raw_tv_ratings (
		game_id, game_date, home_team, away_team, tv_rating, estimated_viewers,
		is_weekend, is_primetime, time_slot, day_of_week, rivalry_factor,
		viewers_18_34, viewers_35_54, viewers_55_plus,
		male_viewers_pct, female_viewers_pct, streaming_viewers_pct
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare rating insert: %w", err)
	}
	defer stmt.Close()

	for _, rating := range ratings {
		_, err := stmt.Exec(
			rating.GameID, rating.GameDate.Format(dateLayout), rating.HomeTeam,
			rating.AwayTeam, rating.TVRating, rating.EstimatedViewers,
			rating.IsWeekend, rating.IsPrimetime, rating.TimeSlot,
			rating.DayOfWeek, rating.RivalryFactor,
			rating.Viewers18To34, rating.Viewers35To54, rating.Viewers55Plus,
			rating.MaleViewersPct, rating.FemaleViewersPct, rating.StreamingPct,
		)
		if err != nil {
			return fmt.Errorf("failed to save rating for game %s: %w", rating.GameID, err)
		}
	}

	return tx.Commit()
}

// GetGamesByDate returns all games stored for a date
func (d *Database) GetGamesByDate(gameDate time.Time) ([]models.Game, error) {
	d.mutex.RLock()
	defer d.mutex.RUnlock()

	query := `
	SELECT game_id, game_date, home_team, away_team, home_score, away_score, status
	FROM raw_games
	WHERE game_date = ?
	ORDER BY game_id`

	rows, err := d.db.Query(query, gameDate.Format(dateLayout))
	if err != nil {
		return nil, fmt.Errorf("failed to query games: %w", err)
	}
	defer rows.Close()

	games := make([]models.Game, 0)
	for rows.Next() {
		var game models.Game
		var date string

		err := rows.Scan(
			&game.GameID, &date, &game.HomeTeam, &game.AwayTeam,
			&game.HomeScore, &game.AwayScore, &game.Status,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan game: %w", err)
		}

		game.GameDate, _ = time.Parse(dateLayout, date)
		games = append(games, game)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return games, nil
}

// GetTopPostsByRetweets returns the top N posts by retweet count
func (d *Database) GetTopPostsByRetweets(limit int) ([]models.SocialPost, error) {
	d.mutex.RLock()
	defer d.mutex.RUnlock()

	query := `
	SELECT tweet_id, game_hashtag, text, created_at, user_followers,
		retweet_count, favorite_count, sentiment_polarity, sentiment_subjectivity
	FROM raw_social_data
	ORDER BY retweet_count DESC
	LIMIT ?`

	rows, err := d.db.Query(query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query top posts: %w", err)
	}
	defer rows.Close()

	return scanPosts(rows, limit)
}

// GetTopPostByHashtag returns the most retweeted post for one matchup
func (d *Database) GetTopPostByHashtag(hashtag string) (models.SocialPost, error) {
	d.mutex.RLock()
	defer d.mutex.RUnlock()

	query := `
	SELECT tweet_id, game_hashtag, text, created_at, user_followers,
		retweet_count, favorite_count, sentiment_polarity, sentiment_subjectivity
	FROM raw_social_data
	WHERE game_hashtag = ?
	ORDER BY retweet_count DESC
	LIMIT 1`

	rows, err := d.db.Query(query, hashtag)
	if err != nil {
		return models.SocialPost{}, fmt.Errorf("failed to query posts for hashtag %s: %w", hashtag, err)
	}
	defer rows.Close()

	posts, err := scanPosts(rows, 1)
	if err != nil {
		return models.SocialPost{}, err
	}
	if len(posts) == 0 {
		return models.SocialPost{}, sql.ErrNoRows
	}
	return posts[0], nil
}

// GetPostCountsByHashtag returns the number of stored posts per matchup
func (d *Database) GetPostCountsByHashtag() (map[string]int, error) {
	d.mutex.RLock()
	defer d.mutex.RUnlock()

	query := `
	SELECT game_hashtag, COUNT(*) as post_count
	FROM raw_social_data
	GROUP BY game_hashtag`

	rows, err := d.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query hashtag counts: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var hashtag string
		var count int

		if err := rows.Scan(&hashtag, &count); err != nil {
			return nil, fmt.Errorf("failed to scan hashtag count: %w", err)
		}

		counts[hashtag] = count
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return counts, nil
}

// GetSentimentBreakdown buckets stored posts by the polarity thresholds
// used at generation time
func (d *Database) GetSentimentBreakdown() (models.SentimentBreakdown, error) {
	d.mutex.RLock()
	defer d.mutex.RUnlock()

	query := `
	SELECT
		SUM(CASE WHEN sentiment_polarity > 0.1 THEN 1 ELSE 0 END),
		SUM(CASE WHEN sentiment_polarity < -0.1 THEN 1 ELSE 0 END),
		SUM(CASE WHEN sentiment_polarity BETWEEN -0.1 AND 0.1 THEN 1 ELSE 0 END)
	FROM raw_social_data`

	var breakdown models.SentimentBreakdown
	var positive, negative, neutral sql.NullInt64
	err := d.db.QueryRow(query).Scan(&positive, &negative, &neutral)
	if err != nil {
		return breakdown, fmt.Errorf("failed to get sentiment breakdown: %w", err)
	}

	breakdown.Positive = int(positive.Int64)
	breakdown.Negative = int(negative.Int64)
	breakdown.Neutral = int(neutral.Int64)
	return breakdown, nil
}

// GetTotalGames returns the number of stored games
func (d *Database) GetTotalGames() (int, error) {
	return d.count("SELECT COUNT(*) FROM raw_games")
}

// GetTotalPosts returns the number of stored social posts
func (d *Database) GetTotalPosts() (int, error) {
	return d.count("SELECT COUNT(*) FROM raw_social_data")
}

// GetTotalRatings returns the number of stored TV ratings
func (d *Database) GetTotalRatings() (int, error) {
	return d.count("SELECT COUNT(*) FROM raw_tv_ratings")
}

// GetPostCountForDate returns the number of posts created on one game day
func (d *Database) GetPostCountForDate(gameDate time.Time) (int, error) {
	return d.count(
		"SELECT COUNT(*) FROM raw_social_data WHERE DATE(created_at) = ?",
		gameDate.Format(dateLayout),
	)
}

// GetRatingCountForDate returns the number of ratings stored for one game day
func (d *Database) GetRatingCountForDate(gameDate time.Time) (int, error) {
	return d.count(
		"SELECT COUNT(*) FROM raw_tv_ratings WHERE game_date = ?",
		gameDate.Format(dateLayout),
	)
}

// GetAvgTVRating returns the mean rating across all stored games, or 0
// when none are stored
func (d *Database) GetAvgTVRating() (float64, error) {
	d.mutex.RLock()
	defer d.mutex.RUnlock()

	var avg sql.NullFloat64
	err := d.db.QueryRow("SELECT AVG(tv_rating) FROM raw_tv_ratings").Scan(&avg)
	if err != nil {
		return 0, fmt.Errorf("failed to get average rating: %w", err)
	}

	return avg.Float64, nil
}

// GetRatingBounds returns the min and max rating stored for one game day;
// used by the data quality checks. Returns sql.ErrNoRows when no ratings
// exist for the date.
func (d *Database) GetRatingBounds(gameDate time.Time) (float64, float64, error) {
	d.mutex.RLock()
	defer d.mutex.RUnlock()

	var min, max sql.NullFloat64
	err := d.db.QueryRow(
		"SELECT MIN(tv_rating), MAX(tv_rating) FROM raw_tv_ratings WHERE game_date = ?",
		gameDate.Format(dateLayout),
	).Scan(&min, &max)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to get rating bounds: %w", err)
	}
	if !min.Valid || !max.Valid {
		return 0, 0, sql.ErrNoRows
	}

	return min.Float64, max.Float64, nil
}

func (d *Database) count(query string, args ...interface{}) (int, error) {
	d.mutex.RLock()
	defer d.mutex.RUnlock()

	var count int
	if err := d.db.QueryRow(query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count rows: %w", err)
	}

	return count, nil
}

func scanPosts(rows *sql.Rows, sizeHint int) ([]models.SocialPost, error) {
	posts := make([]models.SocialPost, 0, sizeHint)
	for rows.Next() {
		var post models.SocialPost
		var tweetID string
		var createdAt string

		err := rows.Scan(
			&tweetID, &post.GameHashtag, &post.Text, &createdAt,
			&post.UserFollowers, &post.RetweetCount, &post.FavoriteCount,
			&post.SentimentPolarity, &post.SentimentSubjectivity,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan post: %w", err)
		}

		post.TweetID, _ = strconv.ParseUint(tweetID, 10, 64)
		post.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		posts = append(posts, post)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return posts, nil
}
