package cli

import (
	"fmt"
	"io"
	"log/slog"

	slogotel "github.com/remychantenay/slog-otel"
)

// newLogger builds the tool's own logger. It writes to w, which is the
// process's stderr, and stays at error level unless configured otherwise so
// program output is never interleaved with tool chatter.
func newLogger(level string, w io.Writer) (*slog.Logger, error) {
	logLevel := new(slog.Level)
	*logLevel = slog.LevelError
	if level != "" {
		if err := logLevel.UnmarshalText([]byte(level)); err != nil {
			return nil, fmt.Errorf("parsing log level: %w", err)
		}
	}

	handler := slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: logLevel,
	})
	return slog.New(slogotel.OtelHandler{
		Next: handler,
	}), nil
}
