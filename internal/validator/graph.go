package validator

import (
	"errors"
	"fmt"

	"github.com/aretw0/slotflow/pkg/domain"
)

// Report collects the outcome of a graph validation.
type Report struct {
	Errors   []error
	Warnings []string
}

// Err joins all errors, or returns nil when the graph is sound.
func (r *Report) Err() error {
	return errors.Join(r.Errors...)
}

// ValidateGraph crawls the graph from its entry nodes and reports dangling
// edges, duplicate IDs, unreachable nodes and invalid task definitions.
func ValidateGraph(g *domain.Graph) *Report {
	report := &Report{}
	if g == nil || len(g.Nodes) == 0 {
		report.Errors = append(report.Errors, &domain.ConfigError{Code: domain.CodeEmptyGraph, Reason: "graph has no nodes"})
		return report
	}

	nodes := make(map[string]bool, len(g.Nodes))
	tasks := make(map[string]string)
	for _, n := range g.Nodes {
		if nodes[n.ID] {
			report.Errors = append(report.Errors, &domain.ConfigError{Code: domain.CodeUnknownNode, NodeID: n.ID, Reason: "duplicate node id"})
		}
		nodes[n.ID] = true

		for _, task := range n.Tasks {
			if owner, dup := tasks[task.ID]; dup {
				report.Errors = append(report.Errors, &domain.ConfigError{
					Code: domain.CodeUnknownNode, NodeID: n.ID, TaskID: task.ID,
					Reason: fmt.Sprintf("task id already used in node %q", owner),
				})
			}
			tasks[task.ID] = n.ID
			checkTask(report, n.ID, task)
		}
	}

	for _, e := range g.Edges {
		if !nodes[e.From] {
			report.Errors = append(report.Errors, &domain.ConfigError{Code: domain.CodeUnknownNode, NodeID: e.From, Reason: fmt.Sprintf("edge source %q does not exist", e.From)})
		}
		if !nodes[e.To] {
			report.Errors = append(report.Errors, &domain.ConfigError{Code: domain.CodeUnknownNode, NodeID: e.From, Reason: fmt.Sprintf("edge target %q does not exist", e.To)})
		}
	}

	visited := make(map[string]bool)
	queue := g.EntryNodes()
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		if visited[current] {
			continue
		}
		visited[current] = true
		for _, e := range g.Outgoing(current) {
			if !visited[e.To] {
				queue = append(queue, e.To)
			}
		}
	}
	for _, n := range g.Nodes {
		if !visited[n.ID] {
			report.Warnings = append(report.Warnings, fmt.Sprintf("node %q is unreachable from the entry nodes", n.ID))
		}
	}

	return report
}

func checkTask(report *Report, nodeID string, task domain.FlowTask) {
	switch task.Kind {
	case domain.TaskGetData:
		if err := ValidateTemplate(task.Template); err != nil {
			var ce *domain.ConfigError
			if errors.As(err, &ce) {
				ce.NodeID, ce.TaskID = nodeID, task.ID
			}
			report.Errors = append(report.Errors, err)
		}
	case domain.TaskMessage:
		if task.Text == "" && task.TextKey == "" {
			report.Warnings = append(report.Warnings, fmt.Sprintf("message task %s/%s has no text", nodeID, task.ID))
		}
	case domain.TaskBackendCall:
		if task.Call == nil || task.Call.Name == "" {
			report.Errors = append(report.Errors, &domain.ConfigError{
				Code: domain.CodeMissingBackend, NodeID: nodeID, TaskID: task.ID,
				Reason: "backend_call task has no call definition",
			})
		}
	default:
		report.Warnings = append(report.Warnings, fmt.Sprintf("task %s/%s has unknown kind %q", nodeID, task.ID, task.Kind))
	}
}
