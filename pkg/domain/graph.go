package domain

// FlowNode is a node of the outer task graph.
type FlowNode struct {
	ID    string     `json:"id" yaml:"id"`
	Label string     `json:"label,omitempty" yaml:"label,omitempty"`
	Tasks []FlowTask `json:"tasks" yaml:"tasks"`
}

// Task returns the task with the given ID.
func (n *FlowNode) Task(id string) (FlowTask, int, bool) {
	for i, t := range n.Tasks {
		if t.ID == id {
			return t, i, true
		}
	}
	return FlowTask{}, -1, false
}

// Edge connects two flow nodes.
type Edge struct {
	ID   string `json:"id,omitempty" yaml:"id,omitempty"`
	From string `json:"from" yaml:"from"`
	To   string `json:"to" yaml:"to"`
	// Condition is opaque to the core; an EdgeSelector may interpret it.
	Condition string `json:"condition,omitempty" yaml:"condition,omitempty"`
	Label     string `json:"label,omitempty" yaml:"label,omitempty"`
}

// Graph is the directed flow graph. The engine never mutates it.
type Graph struct {
	Nodes []FlowNode `json:"nodes" yaml:"nodes"`
	Edges []Edge     `json:"edges" yaml:"edges"`
}

// Node returns the node with the given ID, or nil.
func (g *Graph) Node(id string) *FlowNode {
	if g == nil {
		return nil
	}
	for i := range g.Nodes {
		if g.Nodes[i].ID == id {
			return &g.Nodes[i]
		}
	}
	return nil
}

// EntryNodes returns the nodes without incoming edges in graph order.
// When every node has an incoming edge, the first node is the entry.
func (g *Graph) EntryNodes() []string {
	if g == nil || len(g.Nodes) == 0 {
		return nil
	}
	incoming := make(map[string]bool, len(g.Edges))
	for _, e := range g.Edges {
		incoming[e.To] = true
	}
	var entries []string
	for _, n := range g.Nodes {
		if !incoming[n.ID] {
			entries = append(entries, n.ID)
		}
	}
	if len(entries) == 0 {
		entries = append(entries, g.Nodes[0].ID)
	}
	return entries
}

// Outgoing returns the edges leaving nodeID in graph order.
func (g *Graph) Outgoing(nodeID string) []Edge {
	if g == nil {
		return nil
	}
	var out []Edge
	for _, e := range g.Edges {
		if e.From == nodeID {
			out = append(out, e)
		}
	}
	return out
}

// FindTask locates a task anywhere in the graph.
func (g *Graph) FindTask(taskID string) (*FlowNode, FlowTask, bool) {
	if g == nil {
		return nil, FlowTask{}, false
	}
	for i := range g.Nodes {
		if t, _, ok := g.Nodes[i].Task(taskID); ok {
			return &g.Nodes[i], t, true
		}
	}
	return nil, FlowTask{}, false
}

// Clone returns a copy whose node, task and edge slices are independent of g.
// Templates are shared since they are read-only.
func (g *Graph) Clone() *Graph {
	if g == nil {
		return nil
	}
	c := &Graph{
		Nodes: make([]FlowNode, len(g.Nodes)),
		Edges: append([]Edge(nil), g.Edges...),
	}
	for i, n := range g.Nodes {
		n.Tasks = append([]FlowTask(nil), n.Tasks...)
		c.Nodes[i] = n
	}
	return c
}
