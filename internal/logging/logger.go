// Package logging builds the process-wide slog.Logger, styled the way
// the rest of this codebase expects: text handler to stderr, level
// from CHAIND_LOG_LEVEL, shortened source paths.
package logging

import (
	"log/slog"
	"os"
	"strings"

	"github.com/google/wire"

	"github.com/chaind/chain-manager/internal/config"
)

var LoggingSet = wire.NewSet(
	NewLogger,
)

// NewLogger creates the process-wide logger from the resolved runtime
// config. cfg.LogLevel is already resolved by viper (a flag outranks
// CHAIND_LOG_LEVEL, which outranks a chaind.toml entry);
// CHAIND_LOG_LEVEL is read directly only when cfg.LogLevel is empty.
func NewLogger(cfg *config.Runtime) *slog.Logger {
	level := slog.LevelInfo

	raw := strings.ToLower(cfg.LogLevel)
	if raw == "" {
		raw = strings.ToLower(os.Getenv("CHAIND_LOG_LEVEL"))
	}
	switch raw {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn", "warning":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		// unknown value, keep default
	}

	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: level == slog.LevelDebug,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.SourceKey {
				source, ok := a.Value.Any().(*slog.Source)
				if ok {
					source.File = shortPath(source.File)
				}
			}
			return a
		},
	}

	handler := slog.NewTextHandler(os.Stderr, opts)
	return slog.New(handler)
}

// shortPath trims a source file path down to its chain-manager-module
// relative form, falling back to the bare filename.
func shortPath(file string) string {
	if idx := strings.Index(file, "chain-manager/"); idx != -1 {
		return file[idx+len("chain-manager/"):]
	}
	parts := strings.Split(file, string(os.PathSeparator))
	if len(parts) > 0 {
		return parts[len(parts)-1]
	}
	return file
}
