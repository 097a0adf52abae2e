package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/courtside-analytics/courtside/db"
	"github.com/courtside-analytics/courtside/pipeline"
	"github.com/courtside-analytics/courtside/sim"
	"github.com/courtside-analytics/courtside/utils"
)

func main() {
	envPath := flag.String("env", ".env", "Path to .env file")
	logLevel := flag.String("log-level", "debug", "Logging level (debug, info, warn, error)")
	flag.Parse()

	log := setupLogger(*logLevel)
	log.Info("Starting Courtside analytics pipeline")

	config, err := utils.LoadConfig(*envPath, log)
	if err != nil {
		log.WithError(err).Fatal("Failed to load configuration")
	}

	log.WithFields(logrus.Fields{
		"season_start":      config.Pipeline.SeasonStart.Format("2006-01-02"),
		"pipeline_interval": config.Pipeline.IntervalSeconds,
		"base_tweet_volume": config.Pipeline.BaseTweetVolume,
		"server_port":       config.Server.Port,
	}).Info("Configuration loaded")

	database, err := db.NewDatabase(config.Database.Path, log)
	if err != nil {
		log.WithError(err).Fatal("Failed to connect to database")
	}
	defer database.Close()

	seed := config.Pipeline.RandomSeed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	log.WithField("seed", seed).Info("Random source seeded")

	// one source shared by the simulators and the runner; only the runner
	// goroutine ever draws from it
	rng := rand.New(rand.NewSource(seed))

	socialSim, err := sim.NewSocialSimulator(sim.DefaultSimulatorConfig(), rng, log)
	if err != nil {
		log.WithError(err).Fatal("Failed to build social simulator")
	}
	gameSim := sim.NewGameSimulator(rng, log)
	ratingsSim := sim.NewRatingsSimulator(rng, log)

	runner := pipeline.NewRunner(
		database,
		socialSim,
		gameSim,
		ratingsSim,
		rng,
		time.Duration(config.Pipeline.IntervalSeconds)*time.Second,
		config.Pipeline.BaseTweetVolume,
		config.Pipeline.SeasonStart,
		log,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go startEchoServer(ctx, config.Server.Port, runner, database, log, config.Pipeline.MaxRequestsPerMinute)

	go func() {
		if err := runner.Start(ctx); err != nil && err != context.Canceled {
			log.WithError(err).Error("Pipeline runner stopped unexpectedly")
		}
	}()

	waitForShutdown(cancel, log)
}

// setupLogger sets up the logger with the specified log level
func setupLogger(level string) *logrus.Logger {
	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: time.RFC3339,
	})

	switch level {
	case "debug":
		log.SetLevel(logrus.DebugLevel)
	case "info":
		log.SetLevel(logrus.InfoLevel)
	case "warn":
		log.SetLevel(logrus.WarnLevel)
	case "error":
		log.SetLevel(logrus.ErrorLevel)
	default:
		log.SetLevel(logrus.InfoLevel)
	}

	return log
}

// startEchoServer starts the Echo HTTP API server that fronts the
// aggregated statistics
func startEchoServer(ctx context.Context, port int, runner *pipeline.Runner, database *db.Database, log *logrus.Logger, maxRequestsPerMinute int) {
	e := echo.New()

	// middleware
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())

	requestsPerSecond := float64(maxRequestsPerMinute) / 60.0

	rateLimit := rate.Limit(requestsPerSecond * 0.95) // use 95% of the rate limit to be safe

	rateLimiterConfig := middleware.RateLimiterConfig{
		Skipper: middleware.DefaultSkipper,
		Store: middleware.NewRateLimiterMemoryStoreWithConfig(
			middleware.RateLimiterMemoryStoreConfig{
				Rate:      rateLimit,
				Burst:     1, // no burst capability
				ExpiresIn: 3 * time.Minute,
			},
		),
		IdentifierExtractor: func(ctx echo.Context) (string, error) {
			return ctx.RealIP(), nil
		},
		ErrorHandler: func(ctx echo.Context, err error) error {
			return ctx.JSON(http.StatusTooManyRequests, map[string]string{
				"error": "Rate limit exceeded, please try again later",
			})
		},
		DenyHandler: func(ctx echo.Context, identifier string, err error) error {
			return ctx.JSON(http.StatusTooManyRequests, map[string]string{
				"error": "Rate limit exceeded, please try again later",
			})
		},
	}
	e.Use(middleware.RateLimiterWithConfig(rateLimiterConfig))

	e.GET("/api/stats", func(c echo.Context) error {
		stats := runner.GetStatistics()
		return c.JSON(http.StatusOK, stats)
	})

	e.GET("/api/stats/:team", func(c echo.Context) error {
		team := c.Param("team")

		teamStats, exists := runner.GetTeamStatistics(team)
		if !exists {
			return c.JSON(http.StatusNotFound, map[string]string{
				"error": fmt.Sprintf("No statistics available for team %s", team),
			})
		}

		return c.JSON(http.StatusOK, teamStats)
	})

	e.GET("/api/games/:date", func(c echo.Context) error {
		gameDate, err := time.Parse("2006-01-02", c.Param("date"))
		if err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{
				"error": "date must be YYYY-MM-DD",
			})
		}

		games, err := database.GetGamesByDate(gameDate)
		if err != nil {
			log.WithError(err).Error("Failed to query games")
			return c.JSON(http.StatusInternalServerError, map[string]string{
				"error": "failed to query games",
			})
		}

		return c.JSON(http.StatusOK, games)
	})

	// health check endpoint; useful for k8s liveliness probes but not strictly required in this case
	e.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "OK")
	})

	// start the server!
	go func() {
		serverAddr := fmt.Sprintf(":%d", port)
		log.WithField("port", port).Info("Starting API server")
		if err := e.Start(serverAddr); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("API server failed")
		}
	}()

	// wait for context cancellation to shut down server
	<-ctx.Done()
	log.Info("Shutting down API server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("API server shutdown failed")
	}
}

// waitForShutdown waits for a shutdown signal
func waitForShutdown(cancel context.CancelFunc, log *logrus.Logger) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigChan
	log.WithField("signal", sig.String()).Info("Shutdown signal received")

	cancel()

	time.Sleep(1 * time.Second)
	log.Info("Courtside stopped")
}
