package config

import (
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds all environment-driven configuration.
type Config struct {
	PostgresHost     string
	PostgresPort     string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string

	RedisAddr       string
	RedisDB         int
	ReportStream    string
	StreamMaxLength int

	MemcacheAddr string

	Scan      ScanConfig
	RateLimit RateLimitConfig

	ScannerConfigPath string
	CSVOutputPath     string
	ScreenshotDir     string
	ChromeBin         string
	Headless          bool
}

// ScanConfig holds scan scheduling and navigation knobs.
type ScanConfig struct {
	PollIntervalMin   int
	MaxRetries        int
	RetryDelayMs      int
	RetryMultiplier   float64
	RetryMaxBackoffMs int
	NavTimeoutSec     int
	Concurrency       int
	EnrichDetails     bool
	UserAgents        []string
}

// RateLimitConfig holds per-worker request pacing limits.
type RateLimitConfig struct {
	RequestsPerMinute int
	PauseBetweenMs    int
	MaxDailyRequests  int
}

var defaultUserAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/122.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/122.0.0.0 Safari/537.36",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
}

// Load reads the .env file and returns a populated Config struct.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("[config] No .env file found, falling back to system env vars")
	}

	return &Config{
		PostgresHost:     getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:     getEnv("POSTGRES_PORT", "5432"),
		PostgresUser:     getEnv("POSTGRES_USER", "scanner"),
		PostgresPassword: getEnv("POSTGRES_PASSWORD", "scanner123"),
		PostgresDB:       getEnv("POSTGRES_DB", "market_db"),
		PostgresSSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),

		RedisAddr:       getEnv("REDIS_ADDR", "localhost:6379"),
		RedisDB:         getEnvInt("REDIS_DB", 0),
		ReportStream:    getEnv("REPORT_STREAM", "scanreports"),
		StreamMaxLength: getEnvInt("REPORT_STREAM_MAXLEN", 200),

		MemcacheAddr: getEnv("MEMCACHE_ADDR", ""),

		Scan: ScanConfig{
			PollIntervalMin:   getEnvInt("POLL_INTERVAL_MIN", 360),
			MaxRetries:        getEnvInt("MAX_RETRIES", 3),
			RetryDelayMs:      getEnvInt("RETRY_DELAY_MS", 1000),
			RetryMultiplier:   getEnvFloat("RETRY_MULTIPLIER", 1.5),
			RetryMaxBackoffMs: getEnvInt("RETRY_MAX_BACKOFF_MS", 60000),
			NavTimeoutSec:     getEnvInt("NAV_TIMEOUT_SEC", 30),
			Concurrency:       getEnvInt("MAX_CONCURRENCY", 2),
			EnrichDetails:     getEnvBool("ENRICH_DETAILS", true),
			UserAgents:        getEnvList("USER_AGENTS", defaultUserAgents),
		},
		RateLimit: RateLimitConfig{
			RequestsPerMinute: getEnvInt("REQUESTS_PER_MINUTE", 30),
			PauseBetweenMs:    getEnvInt("PAUSE_BETWEEN_REQUESTS_MS", 2000),
			MaxDailyRequests:  getEnvInt("MAX_DAILY_REQUESTS", 5000),
		},

		ScannerConfigPath: getEnv("SCANNER_CONFIG_PATH", "./configs/scanner.yaml"),
		CSVOutputPath:     getEnv("CSV_OUTPUT_PATH", ""),
		ScreenshotDir:     getEnv("SCREENSHOT_DIR", "./output/screenshots"),
		ChromeBin:         getEnv("CHROME_BIN", ""),
		Headless:          getEnvBool("HEADLESS", true),
	}
}

// DSN returns the PostgreSQL connection string.
func (c *Config) DSN() string {
	return "host=" + c.PostgresHost +
		" port=" + c.PostgresPort +
		" user=" + c.PostgresUser +
		" password=" + c.PostgresPassword +
		" dbname=" + c.PostgresDB +
		" sslmode=" + c.PostgresSSLMode
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		n, err := strconv.Atoi(val)
		if err == nil {
			return n
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if val := os.Getenv(key); val != "" {
		f, err := strconv.ParseFloat(val, 64)
		if err == nil {
			return f
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		b, err := strconv.ParseBool(val)
		if err == nil {
			return b
		}
	}
	return fallback
}

func getEnvList(key string, fallback []string) []string {
	if val := os.Getenv(key); val != "" {
		parts := strings.Split(val, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return fallback
}
