// Package logger provides the process-wide structured logger, a
// zerolog.Logger writing leveled JSON to stdout.
package logger

import (
	"os"
	"sync"

	"github.com/rs/zerolog"
)

var (
	defaultLogger zerolog.Logger
	once          sync.Once
)

// Init sets up the default logger. Safe to call multiple times; only
// the first call has effect.
func Init() {
	once.Do(func() {
		zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
		level := zerolog.InfoLevel
		if lvl, err := zerolog.ParseLevel(os.Getenv("LOG_LEVEL")); err == nil && os.Getenv("LOG_LEVEL") != "" {
			level = lvl
		}
		defaultLogger = zerolog.New(os.Stdout).Level(level).With().Timestamp().Logger()
	})
}

// Get returns the process-wide logger, initializing it on first use.
func Get() *zerolog.Logger {
	Init()
	return &defaultLogger
}
