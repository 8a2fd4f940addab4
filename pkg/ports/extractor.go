package ports

import (
	"context"

	"github.com/aretw0/slotflow/pkg/domain"
)

// Verdict is the contract every extractor returns.
type Verdict struct {
	Matched bool
	Value   *domain.Value
	// Error carries a diagnostic from the extractor; it does not change
	// how a non-match is handled.
	Error string
}

// Extractor judges free text against an expected kind. A verdict with
// Matched=false drives the NoMatch transition regardless of its origin.
// A returned error means the extractor itself failed.
type Extractor interface {
	Extract(ctx context.Context, kind domain.Kind, text string) (Verdict, error)
}
