package validator

import (
	"errors"
	"testing"

	"github.com/aretw0/slotflow/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateGraph(t *testing.T) {
	t.Run("Valid Graph", func(t *testing.T) {
		g := &domain.Graph{
			Nodes: []domain.FlowNode{
				{ID: "welcome", Tasks: []domain.FlowTask{{ID: "hello", Kind: domain.TaskMessage, Text: "Hi"}}},
				{ID: "collect", Tasks: []domain.FlowTask{{
					ID: "ask", Kind: domain.TaskGetData,
					Template: &domain.DataTemplate{Mains: []*domain.DataTemplateNode{{ID: "email", Label: "Email", Steps: steps("k")}}},
				}}},
			},
			Edges: []domain.Edge{{From: "welcome", To: "collect"}},
		}
		report := ValidateGraph(g)
		assert.NoError(t, report.Err())
		assert.Empty(t, report.Warnings)
	})

	t.Run("Empty Graph", func(t *testing.T) {
		err := ValidateGraph(&domain.Graph{}).Err()
		ce, ok := domain.AsConfigError(err)
		require.True(t, ok)
		assert.Equal(t, domain.CodeEmptyGraph, ce.Code)
	})

	t.Run("Dangling Edge And Invalid Template", func(t *testing.T) {
		g := &domain.Graph{
			Nodes: []domain.FlowNode{
				{ID: "a", Tasks: []domain.FlowTask{{ID: "ask", Kind: domain.TaskGetData}}},
			},
			Edges: []domain.Edge{{From: "a", To: "ghost"}},
		}
		report := ValidateGraph(g)
		require.Len(t, report.Errors, 2)

		var codes []domain.ErrorCode
		for _, err := range report.Errors {
			var ce *domain.ConfigError
			require.True(t, errors.As(err, &ce))
			codes = append(codes, ce.Code)
		}
		assert.ElementsMatch(t, []domain.ErrorCode{domain.CodeMissingTemplate, domain.CodeUnknownNode}, codes)
	})

	t.Run("Unreachable Cycle Warns", func(t *testing.T) {
		g := &domain.Graph{
			Nodes: []domain.FlowNode{{ID: "a"}, {ID: "b"}, {ID: "c"}},
			Edges: []domain.Edge{{From: "b", To: "c"}, {From: "c", To: "b"}},
		}
		report := ValidateGraph(g)
		assert.NoError(t, report.Err())
		assert.Len(t, report.Warnings, 2)
	})

	t.Run("Backend Task Without Call", func(t *testing.T) {
		g := &domain.Graph{Nodes: []domain.FlowNode{{ID: "a", Tasks: []domain.FlowTask{{ID: "call", Kind: domain.TaskBackendCall}}}}}
		ce, ok := domain.AsConfigError(ValidateGraph(g).Err())
		require.True(t, ok)
		assert.Equal(t, domain.CodeMissingBackend, ce.Code)
	})
}
