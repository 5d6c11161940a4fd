package common

import "log/slog"

// ResolveLogger guarantees a non-nil logger for service and worker code paths.
func ResolveLogger(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return slog.Default()
	}
	return logger
}
