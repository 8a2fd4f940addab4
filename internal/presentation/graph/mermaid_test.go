package graph_test

import (
	"strings"
	"testing"

	"github.com/aretw0/slotflow/internal/presentation/graph"
	"github.com/aretw0/slotflow/pkg/domain"
	"github.com/stretchr/testify/assert"
)

func sampleGraph() *domain.Graph {
	ask := func(key string) domain.StepTable { return domain.StepTable{domain.StepStart: {1: key}} }
	return &domain.Graph{
		Nodes: []domain.FlowNode{
			{ID: "start", Tasks: []domain.FlowTask{{ID: "hi", Kind: domain.TaskMessage, Text: "Hi"}}},
			{ID: "collect-info", Tasks: []domain.FlowTask{{ID: "get", Kind: domain.TaskGetData, Template: &domain.DataTemplate{
				Mains: []*domain.DataTemplateNode{{ID: "dob", Label: "dob", Steps: ask("a"), Subs: []*domain.DataTemplateNode{
					{ID: "day", Label: "day", Steps: ask("b")},
					{ID: "note", Label: "note"},
				}}},
			}}}},
			{ID: "crm.lookup", Tasks: []domain.FlowTask{{ID: "call", Kind: domain.TaskBackendCall}}},
		},
		Edges: []domain.Edge{
			{From: "start", To: "collect-info"},
			{From: "collect-info", To: "crm.lookup", Condition: `answer == "yes"`},
		},
	}
}

func TestGenerateMermaid_Shapes(t *testing.T) {
	out := graph.GenerateMermaid(sampleGraph(), nil)

	for _, want := range []string{
		"graph TD\n",
		`start(("start"))`,
		`collect_info[/"collect-info <br/> 2 slots"/]`,
		`crm_lookup[["crm.lookup"]]`,
		"start --> collect_info",
		`collect_info -- "answer == 'yes'" --> crm_lookup`,
	} {
		assert.Contains(t, out, want)
	}
	assert.NotContains(t, out, "classDef")
}

func TestGenerateMermaid_Overlay(t *testing.T) {
	s := domain.NewSession("s")
	s.History = []string{"start", "collect-info", "start"}
	s.CurrentNodeID = "collect-info"
	s.Failure = &domain.ConfigError{Code: domain.CodeMissingLabel, NodeID: "crm.lookup"}

	out := graph.GenerateMermaid(sampleGraph(), graph.OverlayFromSession(s))

	assert.Equal(t, 1, strings.Count(out, "class start visited;"))
	assert.Contains(t, out, "class collect_info current;")
	assert.Contains(t, out, "class crm_lookup failed;")
}

func TestGenerateMermaid_NilGraph(t *testing.T) {
	assert.Equal(t, "graph TD\n", graph.GenerateMermaid(nil, nil))
	assert.Nil(t, graph.OverlayFromSession(nil))
}
