package logger

import (
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

var initOnce sync.Once

// Init configures the global zerolog settings. Safe to call more than once.
func Init() {
	initOnce.Do(func() {
		zerolog.TimeFieldFormat = time.RFC3339
		zerolog.SetGlobalLevel(level())
	})
}

func level() zerolog.Level {
	levelStr := os.Getenv("LOG_LEVEL")
	if levelStr == "" {
		if os.Getenv("SCANNER_ENVIRONMENT") == "production" {
			return zerolog.InfoLevel
		}
		return zerolog.DebugLevel
	}
	lvl, err := zerolog.ParseLevel(levelStr)
	if err != nil {
		return zerolog.InfoLevel
	}
	return lvl
}

// New returns a console logger tagged with the given component.
func New(component string) zerolog.Logger {
	Init()
	output := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	return zerolog.New(output).With().Timestamp().Str("component", component).Logger()
}

// ForPlatform returns a child logger tagged with a platform and area.
func ForPlatform(base zerolog.Logger, platform, area string) zerolog.Logger {
	return base.With().Str("platform", platform).Str("area", area).Logger()
}
