package dsl

import "github.com/aretw0/slotflow/pkg/domain"

// NodeBuilder provides a fluent API for configuring a node.
type NodeBuilder struct {
	node    domain.FlowNode
	edges   []domain.Edge
	builder *Builder
}

// Label sets the display label of the node.
func (n *NodeBuilder) Label(label string) *NodeBuilder {
	n.node.Label = label
	return n
}

// Say appends a message task with literal text.
func (n *NodeBuilder) Say(taskID, text string) *NodeBuilder {
	n.node.Tasks = append(n.node.Tasks, domain.FlowTask{ID: taskID, Kind: domain.TaskMessage, Text: text})
	return n
}

// SayKey appends a message task resolved through the catalog.
func (n *NodeBuilder) SayKey(taskID, key string) *NodeBuilder {
	n.node.Tasks = append(n.node.Tasks, domain.FlowTask{ID: taskID, Kind: domain.TaskMessage, TextKey: key})
	return n
}

// Ask appends a getData task collecting the given slots, in order.
func (n *NodeBuilder) Ask(taskID string, slots ...*SlotBuilder) *NodeBuilder {
	tmpl := &domain.DataTemplate{ID: taskID}
	for _, s := range slots {
		tmpl.Mains = append(tmpl.Mains, s.build(n.builder))
	}
	n.node.Tasks = append(n.node.Tasks, domain.FlowTask{ID: taskID, Kind: domain.TaskGetData, Template: tmpl})
	return n
}

// Call appends a backend call task. The result lands in the session
// variable saveTo when it is not empty.
func (n *NodeBuilder) Call(taskID, name string, args map[string]any, saveTo string) *NodeBuilder {
	n.node.Tasks = append(n.node.Tasks, domain.FlowTask{
		ID:   taskID,
		Kind: domain.TaskBackendCall,
		Call: &domain.BackendCall{Name: name, Args: args, SaveTo: saveTo},
	})
	return n
}

// Go adds an unconditional transition to the target node.
func (n *NodeBuilder) Go(target string) *NodeBuilder {
	n.edges = append(n.edges, domain.Edge{To: target})
	return n
}

// Branch adds a conditional transition. Conditions are interpreted by the
// configured EdgeSelector.
func (n *NodeBuilder) Branch(condition, target string) *NodeBuilder {
	n.edges = append(n.edges, domain.Edge{To: target, Condition: condition, Label: condition})
	return n
}

// Terminal removes every transition of the node.
func (n *NodeBuilder) Terminal() *NodeBuilder {
	n.edges = nil
	return n
}

// Build returns the underlying domain.FlowNode.
func (n *NodeBuilder) Build() domain.FlowNode {
	return n.node
}
