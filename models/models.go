package models

import (
	"time"
)

// Game represents one NBA game in the bronze layer
type Game struct {
	GameID    string    `json:"game_id"`
	GameDate  time.Time `json:"game_date"`
	HomeTeam  string    `json:"home_team"`
	AwayTeam  string    `json:"away_team"`
	HomeScore int       `json:"home_score"`
	AwayScore int       `json:"away_score"`
	Status    string    `json:"status"`
}

// SocialPost represents a single simulated social media post about a game;
// one row of the raw_social_data table.
type SocialPost struct {
	TweetID       uint64    `json:"tweet_id"`
	GameHashtag   string    `json:"game_hashtag"`
	Text          string    `json:"text"`
	CreatedAt     time.Time `json:"created_at"`
	UserFollowers int       `json:"user_followers"`
	RetweetCount  int       `json:"retweet_count"`
	FavoriteCount int       `json:"favorite_count"`
	// polarity is in [-1, 1], subjectivity in [0, 1]; both are rounded to
	// two fraction digits at generation, matching what gets persisted
	SentimentPolarity     float64 `json:"sentiment_polarity"`
	SentimentSubjectivity float64 `json:"sentiment_subjectivity"`
}

// TVRating represents simulated viewership data for one game
type TVRating struct {
	GameID           string    `json:"game_id"`
	GameDate         time.Time `json:"game_date"`
	HomeTeam         string    `json:"home_team"`
	AwayTeam         string    `json:"away_team"`
	TVRating         float64   `json:"tv_rating"`
	EstimatedViewers float64   `json:"estimated_viewers"`
	IsWeekend        bool      `json:"is_weekend"`
	IsPrimetime      bool      `json:"is_primetime"`
	TimeSlot         string    `json:"time_slot"`
	DayOfWeek        string    `json:"day_of_week"`
	RivalryFactor    float64   `json:"rivalry_factor"`
	Viewers18To34    int64     `json:"viewers_18_34"`
	Viewers35To54    int64     `json:"viewers_35_54"`
	Viewers55Plus    int64     `json:"viewers_55_plus"`
	MaleViewersPct   float64   `json:"male_viewers_pct"`
	FemaleViewersPct float64   `json:"female_viewers_pct"`
	StreamingPct     float64   `json:"streaming_viewers_pct"`
}

// SentimentBreakdown counts posts per sentiment class
type SentimentBreakdown struct {
	Positive int `json:"positive"`
	Negative int `json:"negative"`
	Neutral  int `json:"neutral"`
}

// TeamStats holds statistics for one team across its matchups
type TeamStats struct {
	Team      string                  `json:"team"`
	PostCount int                     `json:"post_count"`
	Matchups  map[string]MatchupStats `json:"matchups"`
}

// MatchupStats holds statistics for a single game hashtag
type MatchupStats struct {
	PostCount        int        `json:"post_count"`
	TopRetweetedPost SocialPost `json:"top_retweeted_post"`
}

// Statistics holds the aggregate view served by the API
type Statistics struct {
	TotalGames         int                     `json:"total_games"`
	TotalPosts         int                     `json:"total_posts"`
	TotalRatings       int                     `json:"total_ratings"`
	Sentiment          SentimentBreakdown      `json:"sentiment"`
	TopPostsByRetweets []SocialPost            `json:"top_posts_by_retweets"`
	PostsByTeam        map[string]int          `json:"posts_by_team"`
	MatchupStats       map[string]MatchupStats `json:"matchup_stats"`
	AvgTVRating        float64                 `json:"avg_tv_rating"`
	SimulatedDate      time.Time               `json:"simulated_date"`
	StartTime          time.Time               `json:"start_time"`
	LastUpdated        time.Time               `json:"last_updated"`
}
