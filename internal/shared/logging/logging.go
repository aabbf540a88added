package logging

import (
	"log/slog"
	"os"
)

// Init configures the global slog logger. Production gets JSON output for
// log aggregation, everything else gets the human-readable text handler.
func Init(env string) {
	var handler slog.Handler
	if env == "production" {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	} else {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		})
	}

	slog.SetDefault(slog.New(handler))
}

// WithUser returns a logger with the user attached. User IDs are opaque
// UUIDs, never free text, so they are safe to log.
func WithUser(userID string) *slog.Logger {
	return slog.With("user_id", userID)
}

// WithAlert returns a logger scoped to a crisis alert.
func WithAlert(alertID, userID string, severity string) *slog.Logger {
	return slog.With(
		"alert_id", alertID,
		"user_id", userID,
		"severity", severity,
	)
}
