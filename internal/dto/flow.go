// Package dto holds the on-disk shapes of flow definitions and converts them
// into the canonical domain types. Every legacy or alternative spelling is
// normalized here so the runtime only ever sees domain values.
package dto

import (
	"fmt"
	"strings"

	"github.com/aretw0/slotflow/pkg/domain"
	"github.com/mitchellh/mapstructure"
)

// FlowFile is the document root of a flow definition.
type FlowFile struct {
	Version      int               `mapstructure:"version"`
	Name         string            `mapstructure:"name"`
	Translations map[string]string `mapstructure:"translations"`
	Nodes        []Node            `mapstructure:"nodes"`
	Edges        []Edge            `mapstructure:"edges"`
}

// Node is a flow node. Tasks stay raw until DecodeTask normalizes them.
type Node struct {
	ID          string           `mapstructure:"id"`
	Label       string           `mapstructure:"label"`
	Tasks       []map[string]any `mapstructure:"tasks"`
	Transitions []Transition     `mapstructure:"transitions"`
}

// Edge connects two nodes.
type Edge struct {
	ID        string `mapstructure:"id"`
	From      string `mapstructure:"from"`
	To        string `mapstructure:"to"`
	Condition string `mapstructure:"condition"`
	Label     string `mapstructure:"label"`
}

// Transition is the per-node edge sugar: the source is the owning node.
type Transition struct {
	To        string `mapstructure:"to"`
	Condition string `mapstructure:"condition"`
	Label     string `mapstructure:"label"`
}

// Task is a flow task after key normalization.
type Task struct {
	ID       string         `mapstructure:"id"`
	Type     string         `mapstructure:"type"`
	Text     string         `mapstructure:"text"`
	TextKey  string         `mapstructure:"textkey"`
	Template map[string]any `mapstructure:"template"`
	Call     *Call          `mapstructure:"call"`
}

// Call describes a backend invocation.
type Call struct {
	Name   string         `mapstructure:"name"`
	Args   map[string]any `mapstructure:"args"`
	SaveTo string         `mapstructure:"saveto"`
}

// Decode fills out from a generic map, e.g. parsed YAML or front matter.
func Decode(in any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		WeaklyTypedInput: true,
		MatchName: func(mapKey, fieldName string) bool {
			return normalizeKey(mapKey) == normalizeKey(fieldName)
		},
	})
	if err != nil {
		return err
	}
	return dec.Decode(in)
}

// normalizeKey folds case and drops separators so save_to, saveTo and
// save-to all match the same field.
func normalizeKey(k string) string {
	k = strings.ToLower(k)
	return strings.NewReplacer("_", "", "-", "").Replace(k)
}

var taskKinds = map[string]domain.TaskKind{
	"message":     domain.TaskMessage,
	"saymessage":  domain.TaskMessage,
	"getdata":     domain.TaskGetData,
	"datarequest": domain.TaskGetData,
	"backendcall": domain.TaskBackendCall,
	"backend":     domain.TaskBackendCall,
}

// DecodeTask converts a raw task map into a domain task.
func DecodeTask(raw map[string]any) (domain.FlowTask, error) {
	var t Task
	if err := Decode(raw, &t); err != nil {
		return domain.FlowTask{}, fmt.Errorf("invalid task: %w", err)
	}
	if t.ID == "" {
		return domain.FlowTask{}, fmt.Errorf("task missing id")
	}

	kind, ok := taskKinds[normalizeKey(t.Type)]
	if !ok {
		// unknown kinds are kept so the runtime can warn and skip them
		kind = domain.TaskKind(t.Type)
	}
	task := domain.FlowTask{
		ID:      t.ID,
		Kind:    kind,
		Text:    t.Text,
		TextKey: t.TextKey,
	}
	if t.Template != nil {
		tpl, err := DecodeTemplate(t.Template)
		if err != nil {
			return domain.FlowTask{}, fmt.Errorf("task %s: %w", t.ID, err)
		}
		task.Template = tpl
	}
	if t.Call != nil {
		task.Call = &domain.BackendCall{Name: t.Call.Name, Args: t.Call.Args, SaveTo: t.Call.SaveTo}
	}
	return task, nil
}

// DecodeNode converts a node and its tasks. Transitions become edges.
func DecodeNode(n Node) (domain.FlowNode, []domain.Edge, error) {
	if n.ID == "" {
		return domain.FlowNode{}, nil, fmt.Errorf("node missing id")
	}
	node := domain.FlowNode{ID: n.ID, Label: n.Label}
	for i, raw := range n.Tasks {
		task, err := DecodeTask(raw)
		if err != nil {
			return domain.FlowNode{}, nil, fmt.Errorf("node %s task %d: %w", n.ID, i, err)
		}
		node.Tasks = append(node.Tasks, task)
	}
	var edges []domain.Edge
	for _, tr := range n.Transitions {
		edges = append(edges, toEdge(Edge{From: n.ID, To: tr.To, Condition: tr.Condition, Label: tr.Label}))
	}
	return node, edges, nil
}

// ToGraph converts a whole flow file.
func ToGraph(f FlowFile) (*domain.Graph, error) {
	g := &domain.Graph{}
	for _, n := range f.Nodes {
		node, edges, err := DecodeNode(n)
		if err != nil {
			return nil, err
		}
		g.Nodes = append(g.Nodes, node)
		g.Edges = append(g.Edges, edges...)
	}
	for _, e := range f.Edges {
		g.Edges = append(g.Edges, toEdge(e))
	}
	return g, nil
}

func toEdge(e Edge) domain.Edge {
	id := e.ID
	if id == "" {
		id = e.From + "->" + e.To
	}
	return domain.Edge{ID: id, From: e.From, To: e.To, Condition: e.Condition, Label: e.Label}
}
