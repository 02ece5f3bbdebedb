package ensgold

// logger.go provides the injected logging capability. The teacher package
// logs straight to the standard log package; here logging is an injected
// *slog.Logger so a host application can route it wherever its own
// observability stack expects (or discard it entirely with slog.Discard-
// style handlers).

import (
	"context"
	"log/slog"
)

// noopLogger discards everything, used whenever a caller doesn't supply
// its own logger.
var noopLogger = slog.New(slog.NewTextHandler(discardWriter{}, &slog.HandlerOptions{Level: slog.LevelError + 1}))

type discardWriter struct{}

func (discardWriter) Write(p []byte) (int, error) { return len(p), nil }

func logInfo(log *slog.Logger, msg string, args ...any) {
	if log == nil {
		log = noopLogger
	}
	log.InfoContext(context.Background(), msg, args...)
}

func logWarn(log *slog.Logger, msg string, args ...any) {
	if log == nil {
		log = noopLogger
	}
	log.WarnContext(context.Background(), msg, args...)
}

func logError(log *slog.Logger, msg string, args ...any) {
	if log == nil {
		log = noopLogger
	}
	log.ErrorContext(context.Background(), msg, args...)
}
