package logging

import (
	"context"
	"log/slog"
	"time"
)

// Keys for the values relay log lines report most often.
const (
	FieldStatus  = "status"
	FieldElapsed = "elapsed"
	FieldBytes   = "bytes"
	FieldGifURL  = "gif_url"
	FieldRemoved = "removed"
)

func String(key, value string) slog.Attr { return slog.String(key, value) }

func Bool(key string, value bool) slog.Attr { return slog.Bool(key, value) }

func Duration(key string, value time.Duration) slog.Attr { return slog.Duration(key, value) }

// Error reports err under the "error" key. A nil error is logged as "<nil>".
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String("error", "<nil>")
	}
	return slog.Any("error", err)
}

// Status reports an HTTP status code.
func Status(code int) slog.Attr { return slog.Int(FieldStatus, code) }

// Elapsed reports the time since started, rounded to the millisecond.
func Elapsed(started time.Time) slog.Attr {
	return slog.Duration(FieldElapsed, time.Since(started).Round(time.Millisecond))
}

// Bytes reports a payload size.
func Bytes(n int) slog.Attr { return slog.Int(FieldBytes, n) }

// GifURL reports the URL handed back to the client.
func GifURL(url string) slog.Attr { return slog.String(FieldGifURL, url) }

// Removed reports how many artifacts a cleanup pass deleted.
func Removed(n int) slog.Attr { return slog.Int(FieldRemoved, n) }

func NewNop() *slog.Logger {
	return slog.New(NoopHandler{})
}

// NewComponentLogger tags logger with a component name. A nil logger discards output.
func NewComponentLogger(logger *slog.Logger, component string) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	return logger.With(String(FieldComponent, component))
}

// NoopHandler discards all log output.
type NoopHandler struct{}

func (NoopHandler) Enabled(context.Context, slog.Level) bool { return false }

func (NoopHandler) Handle(context.Context, slog.Record) error { return nil }

func (NoopHandler) WithAttrs([]slog.Attr) slog.Handler { return NoopHandler{} }

func (NoopHandler) WithGroup(string) slog.Handler { return NoopHandler{} }
