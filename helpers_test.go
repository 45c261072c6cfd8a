package arena

import (
	"bytes"
	"log/slog"
)

// logBuffer collects debug logs of an arena under test.
type logBuffer struct {
	bytes.Buffer
}

func (b *logBuffer) logger() *slog.Logger {
	return slog.New(slog.NewTextHandler(&b.Buffer, &slog.HandlerOptions{Level: slog.LevelDebug}))
}
