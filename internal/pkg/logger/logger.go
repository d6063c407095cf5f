package logger

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"helpdesk/internal/platform/config"
)

// Init configures the global zerolog logger. Unknown levels fall back
// to info, unknown formats to json; a file destination that cannot be
// opened falls back to stdout.
func Init(cfg config.LoggingConfig) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	var out io.Writer = destination(cfg)
	if cfg.Format == "text" {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}
	log.Logger = zerolog.New(out).With().Timestamp().Logger()
}

func destination(cfg config.LoggingConfig) *os.File {
	if cfg.Output != "file" || cfg.FilePath == "" {
		return os.Stdout
	}

	if err := os.MkdirAll(filepath.Dir(cfg.FilePath), 0755); err != nil {
		log.Error().Err(err).Msg("failed to create log directory")
		return os.Stdout
	}
	file, err := os.OpenFile(cfg.FilePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0664)
	if err != nil {
		log.Error().Err(err).Msg("failed to open log file")
		return os.Stdout
	}
	return file
}
