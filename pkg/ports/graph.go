package ports

import (
	"context"

	"github.com/aretw0/slotflow/pkg/domain"
)

// GraphProvider supplies task definitions and edge topology.
// The engine never mutates the returned graph.
type GraphProvider interface {
	Graph(ctx context.Context) (*domain.Graph, error)
}

// Watchable is implemented by providers that can report edits. The channel
// carries the IDs of changed documents and closes with ctx.
type Watchable interface {
	Watch(ctx context.Context) (<-chan string, error)
}

// EdgeSelector resolves branching: given the outgoing edges of a node it
// returns the one to follow. Returning ok=false means no edge applies.
type EdgeSelector interface {
	Select(ctx context.Context, session *domain.Session, node *domain.FlowNode, edges []domain.Edge) (domain.Edge, bool, error)
}
