package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds all configuration for the simulator service
type Config struct {
	// Input files
	RouteFile     string
	AccidentsFile string

	// Dataset
	AnalysisYear int
	IndexBackend string

	// Drive
	SpeedKmh        float64
	MinSpeedKmh     float64
	StepInterval    time.Duration
	AssessEveryTick int

	// Risk query
	LookAheadKm float64
	HourWindow  int
	DayWindow   int

	// Trip log
	DBDriver string
	DBDSN    string

	// HTTP
	ListenAddr     string
	AllowedOrigins []string
}

// Load reads configuration from environment variables with sensible defaults
func Load() *Config {
	cfg := &Config{
		RouteFile:     getEnv("ROUTE_FILE", "data/route.geojson"),
		AccidentsFile: getEnv("ACCIDENTS_FILE", "data/accidents.csv"),

		AnalysisYear: getEnvInt("ANALYSIS_YEAR", 2021),
		IndexBackend: getEnv("INDEX_BACKEND", "rtree"),

		SpeedKmh:        getEnvFloat("SPEED_KMH", 60),
		MinSpeedKmh:     getEnvFloat("MIN_SPEED_KMH", 10),
		StepInterval:    time.Duration(getEnvFloat("STEP_INTERVAL_SECONDS", 1) * float64(time.Second)),
		AssessEveryTick: getEnvInt("ASSESS_EVERY_TICKS", 5),

		LookAheadKm: getEnvFloat("LOOKAHEAD_KM", 2),
		HourWindow:  getEnvInt("HOUR_WINDOW", 1),
		DayWindow:   getEnvInt("DAY_WINDOW", 30),

		DBDriver: getEnv("DB_DRIVER", "sqlite"),
		DBDSN:    getEnv("DB_DSN", "data/triplog.db"),

		ListenAddr:     getEnv("LISTEN_ADDR", ":8080"),
		AllowedOrigins: []string{getEnv("ALLOWED_ORIGIN", "http://localhost:5173")},
	}
	return cfg
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}
