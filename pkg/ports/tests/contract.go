package tests

import (
	"context"
	"testing"

	"github.com/aretw0/slotflow/pkg/domain"
	"github.com/aretw0/slotflow/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// GraphProviderContractTest verifies that an adapter complies with ports.GraphProvider.
// expected lists the node IDs the provider must expose, in order.
func GraphProviderContractTest(t *testing.T, provider ports.GraphProvider, expected []string) {
	t.Helper()
	ctx := context.Background()

	t.Run("Graph_Nodes", func(t *testing.T) {
		g, err := provider.Graph(ctx)
		require.NoError(t, err)
		require.NotNil(t, g)

		ids := make([]string, 0, len(g.Nodes))
		for _, n := range g.Nodes {
			ids = append(ids, n.ID)
		}
		assert.Equal(t, expected, ids)
	})

	t.Run("Graph_EdgesReferenceNodes", func(t *testing.T) {
		g, err := provider.Graph(ctx)
		require.NoError(t, err)
		for _, e := range g.Edges {
			assert.NotNil(t, g.Node(e.From), "edge source %q must exist", e.From)
			assert.NotNil(t, g.Node(e.To), "edge target %q must exist", e.To)
		}
	})

	t.Run("Graph_GetDataHasTemplate", func(t *testing.T) {
		g, err := provider.Graph(ctx)
		require.NoError(t, err)
		for _, n := range g.Nodes {
			for _, task := range n.Tasks {
				if task.Kind == domain.TaskGetData {
					assert.NotNil(t, task.Template, "task %s/%s must carry a template", n.ID, task.ID)
				}
			}
		}
	})
}
