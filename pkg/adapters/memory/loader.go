package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/aretw0/slotflow/pkg/domain"
)

// Provider implements ports.GraphProvider over an in-memory graph.
// The graph can be replaced at runtime, e.g. by a live editor.
type Provider struct {
	mu    sync.RWMutex
	graph *domain.Graph
}

// NewProvider creates a provider serving g.
func NewProvider(g *domain.Graph) *Provider {
	return &Provider{graph: g.Clone()}
}

// NewFromNodes builds a linear graph that visits nodes in order.
// It is mostly a convenience for tests and examples.
func NewFromNodes(nodes ...domain.FlowNode) (*Provider, error) {
	g := &domain.Graph{}
	for i, n := range nodes {
		if n.ID == "" {
			return nil, fmt.Errorf("node %d missing ID", i)
		}
		g.Nodes = append(g.Nodes, n)
		if i > 0 {
			prev := nodes[i-1].ID
			g.Edges = append(g.Edges, domain.Edge{ID: prev + "->" + n.ID, From: prev, To: n.ID})
		}
	}
	return &Provider{graph: g}, nil
}

// Graph returns a copy of the current graph.
func (p *Provider) Graph(ctx context.Context) (*domain.Graph, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.graph == nil {
		return nil, fmt.Errorf("no graph loaded")
	}
	return p.graph.Clone(), nil
}

// Set replaces the served graph. Running orchestrators keep their frozen
// copy until they receive an explicit UpdateGraph.
func (p *Provider) Set(g *domain.Graph) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.graph = g.Clone()
}
