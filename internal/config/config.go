package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Environment
	Environment string

	// Database
	DatabaseURL    string
	MigrateOnStart bool

	// Redis
	RedisURL           string
	SnapshotTTLMinutes int

	// Server
	Port        string
	FrontendURL string

	// Table
	TableWidth          float64
	TableHeight         float64
	RailWidth           float64
	PocketRadius        float64
	FrictionCoefficient float64
	ScreenPadding       float64
	MaxShotVelocity     float64

	// Simulation
	ReplayMaxIterations int
	FrameRateHz         int

	// Security
	JWTSecret            string
	TableTokenTTLMinutes int
}

func Load() *Config {
	// Load .env file if it exists
	godotenv.Load()

	return &Config{
		// Environment
		Environment: getEnv("APP_ENV", "development"),

		// Database
		DatabaseURL:    getEnv("DATABASE_URL", "postgres://localhost:5432/tablesim?sslmode=disable"),
		MigrateOnStart: getEnvBool("MIGRATE_ON_START", true),

		// Redis
		RedisURL:           getEnv("REDIS_URL", "redis://localhost:6379/0"),
		SnapshotTTLMinutes: getEnvInt("SNAPSHOT_TTL_MINUTES", 60),

		// Server
		Port:        getEnv("APP_PORT", "8080"),
		FrontendURL: getEnv("FRONTEND_URL", "http://localhost:5173"),

		// Table
		TableWidth:          getEnvFloat("TABLE_WIDTH", 1000),
		TableHeight:         getEnvFloat("TABLE_HEIGHT", 500),
		RailWidth:           getEnvFloat("RAIL_WIDTH", 40),
		PocketRadius:        getEnvFloat("POCKET_RADIUS", 22.5),
		FrictionCoefficient: getEnvFloat("FRICTION_COEFFICIENT", 2.0),
		ScreenPadding:       getEnvFloat("SCREEN_PADDING", 40),
		MaxShotVelocity:     getEnvFloat("MAX_SHOT_VELOCITY", 500),

		// Simulation
		ReplayMaxIterations: getEnvInt("REPLAY_MAX_ITERATIONS", 10000),
		FrameRateHz:         getEnvInt("FRAME_RATE_HZ", 60),

		// Security
		JWTSecret:            getEnv("JWT_SECRET", "change-me-in-production"),
		TableTokenTTLMinutes: getEnvInt("TABLE_TOKEN_TTL_MINUTES", 120),
	}
}

// FrameInterval is the tick worker period.
func (c *Config) FrameInterval() time.Duration {
	hz := c.FrameRateHz
	if hz <= 0 {
		hz = 60
	}
	return time.Second / time.Duration(hz)
}

func (c *Config) SnapshotTTL() time.Duration {
	return time.Duration(c.SnapshotTTLMinutes) * time.Minute
}

func (c *Config) TableTokenTTL() time.Duration {
	return time.Duration(c.TableTokenTTLMinutes) * time.Minute
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}
