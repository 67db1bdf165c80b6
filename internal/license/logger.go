package license

import (
	"context"
	"log/slog"
)

// Logging helpers for the Manager. The validation core itself never logs;
// these fire only at the operation boundary, and only when a logger was
// attached. Secrets and MAC bytes never appear in attributes.

func (m *Manager) logInfo(ctx context.Context, action, msg string, attrs ...any) {
	m.log(ctx, slog.LevelInfo, action, msg, attrs...)
}

func (m *Manager) logWarn(ctx context.Context, action, msg string, attrs ...any) {
	m.log(ctx, slog.LevelWarn, action, msg, attrs...)
}

func (m *Manager) logDebug(ctx context.Context, action, msg string, attrs ...any) {
	m.log(ctx, slog.LevelDebug, action, msg, attrs...)
}

func (m *Manager) log(ctx context.Context, level slog.Level, action, msg string, attrs ...any) {
	if m.logger == nil {
		return
	}
	args := make([]any, 0, len(attrs)+1)
	args = append(args, slog.String("action", action))
	args = append(args, attrs...)
	m.logger.Log(ctx, level, msg, args...)
}
