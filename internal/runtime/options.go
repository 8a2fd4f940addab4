package runtime

import (
	"log/slog"
	"time"

	"github.com/aretw0/slotflow/internal/logging"
	"github.com/aretw0/slotflow/internal/validator"
	"github.com/aretw0/slotflow/pkg/domain"
	"github.com/aretw0/slotflow/pkg/ports"
)

// DefaultMaxSteps bounds how many nodes one drain may enter before the
// flow is considered runaway.
const DefaultMaxSteps = 1000

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithSessionID sets the ID reported in snapshots and events.
func WithSessionID(id string) Option {
	return func(o *Orchestrator) {
		o.sessionID = id
	}
}

// WithLogger sets the logger used for API misuse warnings.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(o *Orchestrator) {
		o.hooks = hooks
	}
}

// WithExtractor replaces the built-in input validator.
func WithExtractor(e ports.Extractor) Option {
	return func(o *Orchestrator) {
		if e != nil {
			o.extractor = e
		}
	}
}

// WithEdgeSelector resolves nodes with more than one outgoing edge.
func WithEdgeSelector(s ports.EdgeSelector) Option {
	return func(o *Orchestrator) {
		o.selector = s
	}
}

// WithBackend executes BackendCall tasks.
func WithBackend(b ports.Backend) Option {
	return func(o *Orchestrator) {
		o.backend = b
	}
}

// WithSubEscalation resolves NoInput/NoMatch messages on the active sub
// item instead of its main item.
func WithSubEscalation(enabled bool) Option {
	return func(o *Orchestrator) {
		o.subEscalation = enabled
	}
}

// WithMaxSteps overrides DefaultMaxSteps.
func WithMaxSteps(n int) Option {
	return func(o *Orchestrator) {
		if n > 0 {
			o.maxSteps = n
		}
	}
}

// WithClock overrides the message timestamp source.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) {
		if now != nil {
			o.now = now
		}
	}
}

func defaults(o *Orchestrator) {
	o.logger = logging.NewNop()
	o.extractor = validator.Builtin{}
	o.maxSteps = DefaultMaxSteps
	o.now = time.Now
}
