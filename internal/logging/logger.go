package logging

import (
	"io"
	"log/slog"
)

// Format selects the slog handler.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
)

// aliases folds keys used loosely across packages into one spelling so
// log queries can rely on "err" and "session_id".
var aliases = map[string]string{
	"error":     "err",
	"session":   "session_id",
	"sessionID": "session_id",
	"task":      "task_id",
	"node":      "node_id",
}

// New creates the application logger writing to w. Callers pass stderr so
// stdout stays free for dialogue output and JSON-RPC. An unknown format
// falls back to text.
func New(w io.Writer, level slog.Leveler, format Format) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if len(groups) == 0 {
				if key, ok := aliases[a.Key]; ok {
					a.Key = key
				}
			}
			return a
		},
	}
	if format == FormatJSON {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// NewNop returns a logger that discards everything.
func NewNop() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}
