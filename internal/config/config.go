package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"todo_webapp/internal/logger"

	"github.com/joho/godotenv"
)

type Config struct {
	AppPort       string
	DatabaseURL   string
	JWTSecret     string
	SessionTTL    time.Duration
	AppBaseURL    string
	AllowedOrigin string
	DevMode       bool
	Location      *time.Location

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	LogLevel string
	LogJSON  bool

	// Rate limits (requests per window)
	APIRateLimit    int
	APIRateWindow   time.Duration
	AuthRateLimit   int
	AuthRateWindow  time.Duration
	WriteRateLimit  int
	WriteRateWindow time.Duration

	// Deployment checklist
	ChecklistStore         string
	ChecklistSQLitePath    string
	ChecklistCheckInterval time.Duration

	SearchDebounce time.Duration

	Validation ValidationResult
}

// Load reads configuration from .env and the process environment.
// Missing required keys do not abort; they are reported through Validation
// and the server switches to the configuration-error view.
func Load() *Config {
	_ = godotenv.Load()

	validation := Validate(os.LookupEnv)
	if !validation.Valid {
		logger.Error("configuration invalid", "missing", validation.Missing, "empty", validation.Empty)
	}

	port := strings.TrimSpace(os.Getenv("APP_PORT"))
	if port == "" {
		port = "8080"
	}

	loc := time.Local
	if tz := strings.TrimSpace(os.Getenv("APP_TIMEZONE")); tz != "" {
		if l, err := time.LoadLocation(tz); err == nil {
			loc = l
		} else {
			logger.Warn("unknown APP_TIMEZONE, using local time", "tz", tz, "error", err)
		}
	}

	baseURL := strings.TrimSpace(os.Getenv("APP_BASE_URL"))
	if baseURL == "" {
		baseURL = "http://localhost:" + port
	}

	redisAddr := strings.TrimSpace(os.Getenv("REDIS_ADDR"))

	checklistStore := strings.ToLower(strings.TrimSpace(os.Getenv("CHECKLIST_STORE")))
	if checklistStore == "" {
		checklistStore = "sqlite"
		if redisAddr != "" {
			checklistStore = "redis"
		}
	}

	sqlitePath := strings.TrimSpace(os.Getenv("CHECKLIST_SQLITE_PATH"))
	if sqlitePath == "" {
		sqlitePath = "data/checklist.db"
	}

	return &Config{
		AppPort:       port,
		DatabaseURL:   strings.TrimSpace(os.Getenv("DATABASE_URL")),
		JWTSecret:     strings.TrimSpace(os.Getenv("JWT_SECRET")),
		SessionTTL:    time.Duration(envInt("SESSION_TTL_HOURS", 24)) * time.Hour,
		AppBaseURL:    strings.TrimRight(baseURL, "/"),
		AllowedOrigin: strings.TrimSpace(os.Getenv("ALLOWED_ORIGIN")),
		DevMode:       os.Getenv("DEV_MODE") == "true",
		Location:      loc,

		RedisAddr:     redisAddr,
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       envInt("REDIS_DB", 0),

		LogLevel: os.Getenv("LOG_LEVEL"),
		LogJSON:  os.Getenv("LOG_FORMAT") == "json",

		APIRateLimit:    envInt("API_RATE_LIMIT", 120),
		APIRateWindow:   envSeconds("API_RATE_WINDOW_SECONDS", time.Minute),
		AuthRateLimit:   envInt("AUTH_RATE_LIMIT", 5),
		AuthRateWindow:  envSeconds("AUTH_RATE_WINDOW_SECONDS", time.Minute),
		WriteRateLimit:  envInt("WRITE_RATE_LIMIT", 60),
		WriteRateWindow: envSeconds("WRITE_RATE_WINDOW_SECONDS", time.Minute),

		ChecklistStore:         checklistStore,
		ChecklistSQLitePath:    sqlitePath,
		ChecklistCheckInterval: envDuration("CHECKLIST_CHECK_INTERVAL", 15*time.Minute),

		SearchDebounce: time.Duration(envInt("SEARCH_DEBOUNCE_MS", 300)) * time.Millisecond,

		Validation: validation,
	}
}

func envInt(key string, def int) int {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			return n
		}
	}
	return def
}

func envSeconds(key string, def time.Duration) time.Duration {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return time.Duration(n) * time.Second
		}
	}
	return def
}

// envDuration accepts Go durations ("15m") or "0" to disable.
func envDuration(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	if v == "0" {
		return 0
	}
	d, err := time.ParseDuration(v)
	if err != nil || d < 0 {
		return def
	}
	return d
}
