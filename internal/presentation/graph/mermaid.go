package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/slotflow/pkg/domain"
)

// GraphOverlay contains session state to visualize on the graph.
type GraphOverlay struct {
	VisitedNodes []string
	CurrentNode  string
	// FailedNode is highlighted when the run halted on a configuration error.
	FailedNode string
}

// OverlayFromSession builds an overlay from a session snapshot.
func OverlayFromSession(s *domain.Session) *GraphOverlay {
	if s == nil {
		return nil
	}
	o := &GraphOverlay{VisitedNodes: s.History, CurrentNode: s.CurrentNodeID}
	if s.Failure != nil {
		o.FailedNode = s.Failure.NodeID
	}
	return o
}

// GenerateMermaid produces a Mermaid flowchart for g.
// Node shapes follow what the node does:
//   - entry nodes: ((Circle))
//   - nodes collecting data: [/Parallelogram/]
//   - nodes calling a backend: [[Subroutine]]
//   - anything else: [Rectangle]
func GenerateMermaid(g *domain.Graph, overlay *GraphOverlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")
	if g == nil {
		return sb.String()
	}

	entries := make(map[string]bool)
	for _, id := range g.EntryNodes() {
		entries[id] = true
	}

	for _, node := range g.Nodes {
		safeID := sanitizeMermaidID(node.ID)
		opener, closer := "[", "]"
		switch {
		case entries[node.ID]:
			opener, closer = "((", "))"
		case hasKind(node, domain.TaskGetData):
			opener, closer = "[/", "/]"
		case hasKind(node, domain.TaskBackendCall):
			opener, closer = "[[", "]]"
		}

		label := node.ID
		if slots := slotCount(node); slots > 0 {
			label = fmt.Sprintf("%s <br/> %d slots", node.ID, slots)
		}
		fmt.Fprintf(&sb, "    %s%s\"%s\"%s\n", safeID, opener, escape(label), closer)
	}

	for _, e := range g.Edges {
		arrow := "-->"
		if e.Condition != "" {
			arrow = fmt.Sprintf("-- \"%s\" -->", escape(e.Condition))
		} else if e.Label != "" {
			arrow = fmt.Sprintf("-- \"%s\" -->", escape(e.Label))
		}
		fmt.Fprintf(&sb, "    %s %s %s\n", sanitizeMermaidID(e.From), arrow, sanitizeMermaidID(e.To))
	}

	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		// black text keeps contrast on light fills in both themes
		sb.WriteString("    classDef visited fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")
		sb.WriteString("    classDef failed fill:#ffcdd2,stroke:#b71c1c,stroke-width:4px,color:#000;\n")

		visited := make(map[string]bool)
		for _, id := range overlay.VisitedNodes {
			safeID := sanitizeMermaidID(id)
			if !visited[safeID] && safeID != "" {
				visited[safeID] = true
				fmt.Fprintf(&sb, "    class %s visited;\n", safeID)
			}
		}
		if overlay.CurrentNode != "" {
			fmt.Fprintf(&sb, "    class %s current;\n", sanitizeMermaidID(overlay.CurrentNode))
		}
		if overlay.FailedNode != "" {
			fmt.Fprintf(&sb, "    class %s failed;\n", sanitizeMermaidID(overlay.FailedNode))
		}
	}

	return sb.String()
}

func hasKind(n domain.FlowNode, kind domain.TaskKind) bool {
	for _, t := range n.Tasks {
		if t.Kind == kind {
			return true
		}
	}
	return false
}

func slotCount(n domain.FlowNode) int {
	count := 0
	for _, t := range n.Tasks {
		if t.Template == nil {
			continue
		}
		for _, m := range t.Template.Mains {
			if m.Collectible() {
				count++
			}
			for _, s := range m.Subs {
				if s.Collectible() {
					count++
				}
			}
		}
	}
	return count
}

func escape(s string) string {
	return strings.ReplaceAll(s, "\"", "'")
}

func sanitizeMermaidID(id string) string {
	return strings.NewReplacer(".", "_", "-", "_", "/", "_", "\\", "_", " ", "_").Replace(id)
}
