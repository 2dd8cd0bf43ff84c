package logger

import (
	"log/slog"
	"os"
)

// New returns the process logger. JSON handler so audit-tagged lines stay
// machine-parseable.
func New() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
}
