// Package loam reads flow graphs and translation catalogs from a directory of
// markdown, JSON or YAML documents managed by aretw0/loam.
package loam

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/aretw0/lifecycle"
	"github.com/aretw0/loam"
	"github.com/aretw0/slotflow/internal/dto"
	"github.com/aretw0/slotflow/pkg/domain"
)

// EntryNodeID is listed first so it becomes the entry node of the graph.
const EntryNodeID = "start"

// Loader implements ports.GraphProvider over a loam repository: one
// document per flow node.
type Loader struct {
	Repo *loam.TypedRepository[NodeMetadata]
}

// New creates a new Loam adapter.
func New(repo *loam.TypedRepository[NodeMetadata]) *Loader {
	return &Loader{
		Repo: repo,
	}
}

// Open initializes a read-only, strict loam repository at dir.
func Open(dir string) (*Loader, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("invalid path: %w", err)
	}
	repo, err := loam.Init(abs, loam.WithStrict(true), loam.WithReadOnly(true))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize loam: %w", err)
	}
	return New(loam.NewTypedRepository[NodeMetadata](repo)), nil
}

// Graph builds the flow graph from every document in the repository.
func (l *Loader) Graph(ctx context.Context) (*domain.Graph, error) {
	docs, err := l.Repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("loam list failed: %w", err)
	}

	seen := make(map[string]string)
	g := &domain.Graph{}
	for _, doc := range docs {
		rawID := doc.Data.ID
		if rawID == "" {
			rawID = doc.ID
		}
		id := trimExtension(rawID)
		if existing, ok := seen[id]; ok {
			return nil, fmt.Errorf("collision detected: ID '%s' is defined in both '%s' and '%s'", id, existing, doc.ID)
		}
		seen[id] = doc.ID

		meta := doc.Data
		meta.ID = id
		node, edges, err := dto.DecodeNode(dto.Node{
			ID:          meta.ID,
			Label:       meta.Label,
			Tasks:       meta.Tasks,
			Transitions: meta.Transitions,
		})
		if err != nil {
			return nil, err
		}
		if body := strings.TrimSpace(doc.Content); body != "" {
			intro := domain.FlowTask{ID: id + ".text", Kind: domain.TaskMessage, Text: body}
			node.Tasks = append([]domain.FlowTask{intro}, node.Tasks...)
		}
		g.Nodes = append(g.Nodes, node)
		g.Edges = append(g.Edges, edges...)
	}

	sort.SliceStable(g.Nodes, func(i, j int) bool {
		a, b := g.Nodes[i].ID, g.Nodes[j].ID
		if (a == EntryNodeID) != (b == EntryNodeID) {
			return a == EntryNodeID
		}
		return a < b
	})
	return g, nil
}

func trimExtension(id string) string {
	ext := filepath.Ext(id)
	if ext != "" {
		return filepath.ToSlash(strings.TrimSuffix(id, ext))
	}
	return filepath.ToSlash(id)
}

// Watch implements ports.Watchable: it streams the IDs of changed documents
// until ctx is done.
func (l *Loader) Watch(ctx context.Context) (<-chan string, error) {
	return watch(ctx, l.Repo)
}

func watch[T any](ctx context.Context, repo *loam.TypedRepository[T]) (<-chan string, error) {
	events, err := repo.Watch(ctx, "**/*.{md,json,yaml,yml}")
	if err != nil {
		return nil, fmt.Errorf("failed to start loam watcher: %w", err)
	}

	ch := make(chan string, 1)
	lifecycle.Go(ctx, func(ctx context.Context) error {
		defer close(ch)
		for {
			select {
			case <-ctx.Done():
				return nil
			case evt, ok := <-events:
				if !ok {
					return nil
				}
				select {
				case ch <- trimExtension(evt.ID):
				case <-ctx.Done():
					return nil
				}
			}
		}
	})
	return ch, nil
}
