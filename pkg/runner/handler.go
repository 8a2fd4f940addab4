package runner

import (
	"context"

	"github.com/aretw0/slotflow/internal/runtime"
)

// IOHandler defines the strategy for interacting with the user.
// This allows switching between Text (CLI/TUI) and JSON (Structured) modes.
type IOHandler interface {
	// Output presents the messages and gaps of a turn.
	Output(ctx context.Context, turn runtime.Turn) error

	// Input reads one line from the user, already sanitized.
	// io.EOF ends the run.
	Input(ctx context.Context) (string, error)

	// SystemOutput presents a meta-message (resume notices, final status).
	SystemOutput(ctx context.Context, msg string) error
}

// ContentRenderer transforms message text before it is printed,
// e.g. markdown to ANSI.
type ContentRenderer func(string) (string, error)
