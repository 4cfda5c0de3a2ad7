package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	APIBaseURL       string
	Port             string
	TimelineLimit    int
	RequestTimeout   time.Duration
	UpstreamRPS      float64
	RoutesConfigPath string
}

func Load() (*Config, error) {
	// A local .env is a developer convenience; absence is not an error.
	if err := godotenv.Load(); err == nil {
		slog.Info("Loaded environment from .env file")
	}

	apiBaseURL := os.Getenv("API_BASE_URL")
	if apiBaseURL == "" {
		return nil, fmt.Errorf("API_BASE_URL environment variable is required but not set")
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
		slog.Info("Defaulting to port", "port", port)
	}

	timelineLimit := 20
	if v := os.Getenv("TIMELINE_PAGE_LIMIT"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 1 {
			return nil, fmt.Errorf("invalid TIMELINE_PAGE_LIMIT %q: %v", v, err)
		}
		timelineLimit = parsed
	}

	requestTimeoutStr := os.Getenv("REQUEST_TIMEOUT")
	if requestTimeoutStr == "" {
		requestTimeoutStr = "15s"
	}
	requestTimeout, err := time.ParseDuration(requestTimeoutStr)
	if err != nil {
		return nil, fmt.Errorf("invalid REQUEST_TIMEOUT %q: %w", requestTimeoutStr, err)
	}

	upstreamRPS := 10.0
	if v := os.Getenv("UPSTREAM_RPS"); v != "" {
		parsed, err := strconv.ParseFloat(v, 64)
		if err != nil || parsed <= 0 {
			return nil, fmt.Errorf("invalid UPSTREAM_RPS %q: %v", v, err)
		}
		upstreamRPS = parsed
	}

	return &Config{
		APIBaseURL:       apiBaseURL,
		Port:             port,
		TimelineLimit:    timelineLimit,
		RequestTimeout:   requestTimeout,
		UpstreamRPS:      upstreamRPS,
		RoutesConfigPath: os.Getenv("ROUTES_CONFIG_PATH"),
	}, nil
}
