package beacon

import (
	"context"
	"log/slog"
)

// beaconLogger wraps slog.Logger to prepend "[Beacon]" to all messages
type beaconLogger struct {
	logger *slog.Logger
}

func newBeaconLogger(logger *slog.Logger) *beaconLogger {
	return &beaconLogger{logger: logger}
}

func (bl *beaconLogger) Debug(msg string, args ...any) {
	bl.logger.Debug("[Beacon] "+msg, args...)
}

func (bl *beaconLogger) Error(msg string, args ...any) {
	bl.logger.Error("[Beacon] "+msg, args...)
}

func (bl *beaconLogger) Enabled(ctx context.Context, level slog.Level) bool {
	return bl.logger.Enabled(ctx, level)
}
