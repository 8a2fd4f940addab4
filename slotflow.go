package slotflow

import (
	"fmt"

	"github.com/aretw0/slotflow/internal/runtime"
	"github.com/aretw0/slotflow/pkg/adapters/flowfile"
	"github.com/aretw0/slotflow/pkg/domain"
	"github.com/aretw0/slotflow/pkg/ports"
)

// Orchestrator drives one dialogue session over a flow graph.
type Orchestrator = runtime.Orchestrator

// Turn is the result of one synchronous reaction of the orchestrator.
type Turn = runtime.Turn

// Option configures an Orchestrator.
type Option = runtime.Option

// Re-exported orchestrator options.
var (
	WithSessionID      = runtime.WithSessionID
	WithLogger         = runtime.WithLogger
	WithLifecycleHooks = runtime.WithLifecycleHooks
	WithExtractor      = runtime.WithExtractor
	WithEdgeSelector   = runtime.WithEdgeSelector
	WithBackend        = runtime.WithBackend
	WithSubEscalation  = runtime.WithSubEscalation
	WithMaxSteps       = runtime.WithMaxSteps
)

// New creates an orchestrator over any graph provider and translation source.
func New(provider ports.GraphProvider, translations ports.Translations, opts ...Option) *Orchestrator {
	return runtime.New(provider, translations, opts...)
}

// Open creates an orchestrator from a flow file. Texts declared inline in the
// file serve as translations.
func Open(path string, opts ...Option) (*Orchestrator, error) {
	p, err := flowfile.NewProvider(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open flow %s: %w", path, err)
	}
	return runtime.New(p, p, opts...), nil
}

// Snapshot is a convenience alias for the persisted session state.
type Snapshot = domain.Session
