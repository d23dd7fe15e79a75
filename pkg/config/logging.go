package config

import (
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
)

// NewLogger builds the application logger from the logging section. It
// writes to the configured file (default: log.txt in the config dir);
// if the file cannot be opened the logger is a no-op, since stderr
// belongs to the terminal UI.
func NewLogger(cfg LoggingConfig) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	path := cfg.File
	if path == "" {
		dir, err := GetConfigDir()
		if err != nil {
			return zerolog.Nop()
		}
		path = filepath.Join(dir, "log.txt")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return zerolog.Nop()
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return zerolog.Nop()
	}

	writer := zerolog.ConsoleWriter{Out: file, NoColor: true, TimeFormat: "2006-01-02 15:04:05"}
	return zerolog.New(writer).Level(level).With().Timestamp().Logger()
}
