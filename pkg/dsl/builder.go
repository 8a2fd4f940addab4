package dsl

import (
	"fmt"

	"github.com/aretw0/slotflow/internal/validator"
	"github.com/aretw0/slotflow/pkg/adapters/memory"
	"github.com/aretw0/slotflow/pkg/domain"
	"github.com/aretw0/slotflow/pkg/ports"
)

// Builder manages the graph construction. Nodes keep the order they were
// added in, so the first node without incoming edges is the entry.
type Builder struct {
	order   []string
	nodes   map[string]*NodeBuilder
	catalog ports.Catalog
}

// New creates a new graph builder.
func New() *Builder {
	return &Builder{
		nodes:   make(map[string]*NodeBuilder),
		catalog: make(ports.Catalog),
	}
}

// Add creates a new node in the graph.
// If the node already exists, it returns the existing builder.
func (b *Builder) Add(id string) *NodeBuilder {
	if nb, ok := b.nodes[id]; ok {
		return nb
	}
	nb := &NodeBuilder{node: domain.FlowNode{ID: id}, builder: b}
	b.nodes[id] = nb
	b.order = append(b.order, id)
	return nb
}

// Text registers a translation.
func (b *Builder) Text(key, text string) *Builder {
	b.catalog[key] = text
	return b
}

// Graph assembles the graph without validating it.
func (b *Builder) Graph() *domain.Graph {
	g := &domain.Graph{}
	for _, id := range b.order {
		nb := b.nodes[id]
		g.Nodes = append(g.Nodes, nb.node)
		for i, e := range nb.edges {
			e.From = id
			if e.ID == "" {
				e.ID = fmt.Sprintf("%s-%d", id, i+1)
			}
			g.Edges = append(g.Edges, e)
		}
	}
	return g
}

// Catalog returns a copy of the registered translations.
func (b *Builder) Catalog() ports.Catalog {
	out := make(ports.Catalog, len(b.catalog))
	for k, v := range b.catalog {
		out[k] = v
	}
	return out
}

// Build validates the graph and returns a provider serving it together with
// the catalog of registered texts.
func (b *Builder) Build() (*memory.Provider, ports.Catalog, error) {
	g := b.Graph()
	if err := validator.ValidateGraph(g).Err(); err != nil {
		return nil, nil, fmt.Errorf("invalid graph: %w", err)
	}
	return memory.NewProvider(g), b.Catalog(), nil
}
