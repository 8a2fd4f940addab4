package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGraph_EntryNodes(t *testing.T) {
	t.Run("Nodes Without Incoming Edges", func(t *testing.T) {
		g := &Graph{
			Nodes: []FlowNode{{ID: "a"}, {ID: "b"}, {ID: "c"}},
			Edges: []Edge{{From: "a", To: "b"}},
		}
		assert.Equal(t, []string{"a", "c"}, g.EntryNodes())
	})

	t.Run("Cycle Falls Back To First Node", func(t *testing.T) {
		g := &Graph{
			Nodes: []FlowNode{{ID: "a"}, {ID: "b"}},
			Edges: []Edge{{From: "a", To: "b"}, {From: "b", To: "a"}},
		}
		assert.Equal(t, []string{"a"}, g.EntryNodes())
	})

	t.Run("Empty Graph", func(t *testing.T) {
		assert.Nil(t, (&Graph{}).EntryNodes())
	})
}

func TestGraph_CloneIsIndependent(t *testing.T) {
	g := &Graph{
		Nodes: []FlowNode{{ID: "a", Tasks: []FlowTask{{ID: "t1", Kind: TaskMessage, Text: "hi"}}}},
		Edges: []Edge{{From: "a", To: "b"}},
	}
	c := g.Clone()
	c.Nodes[0].Tasks[0].Text = "changed"
	c.Edges[0].To = "z"

	assert.Equal(t, "hi", g.Nodes[0].Tasks[0].Text)
	assert.Equal(t, "b", g.Edges[0].To)
}

func TestStepTable_Levels(t *testing.T) {
	table := StepTable{
		StepNoMatch: {3: "nm3", 1: "nm1", 2: ""},
	}
	assert.Equal(t, []int{1, 3}, table.Levels(StepNoMatch))
	assert.Equal(t, 3, table.MaxLevel(StepNoMatch))
	assert.Equal(t, 0, table.MaxLevel(StepStart))
	assert.True(t, table.HasAny())
	assert.False(t, StepTable{StepStart: {1: ""}}.HasAny())

	key, ok := table.Key(StepNoMatch, 2)
	assert.False(t, ok)
	assert.Empty(t, key)
}

func TestSession_CloneIsDeep(t *testing.T) {
	s := NewSession("s1")
	s.Slots["email"] = &SlotState{Phase: PhaseConfirming, Value: &Value{Raw: "a@b.com", Fields: map[string]string{"x": "1"}}}
	s.Values["t1"] = map[string]Value{"email": {Raw: "a@b.com"}}

	c := s.Clone()
	c.Slots["email"].Value.Fields["x"] = "2"
	c.Values["t1"]["email"] = Value{Raw: "other"}

	assert.Equal(t, "1", s.Slots["email"].Value.Fields["x"])
	assert.Equal(t, "a@b.com", s.Values["t1"]["email"].Raw)
}

func TestConfigError_Message(t *testing.T) {
	err := &ConfigError{Code: CodeMissingLabel, NodeID: "n1", TaskID: "t1", TemplateNodeID: "dob", Reason: "main item has no label"}
	assert.Equal(t, "configuration error [missing_label] at n1/t1#dob: main item has no label", err.Error())
	assert.True(t, IsConfigError(err))
	assert.False(t, IsConfigError(ErrNotWaiting))
}
