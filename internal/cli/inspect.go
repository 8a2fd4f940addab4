package cli

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/aretw0/slotflow/internal/presentation/graph"
	"github.com/aretw0/slotflow/internal/runtime"
	"github.com/aretw0/slotflow/internal/validator"
	"github.com/aretw0/slotflow/pkg/domain"
)

// Validate checks the flow graph and prints warnings. It returns the joined
// errors when the graph is unsound.
func Validate(ctx context.Context, app *App, w io.Writer) error {
	g, err := app.Graph(ctx)
	if err != nil {
		return err
	}
	report := validator.ValidateGraph(g)
	for _, warn := range report.Warnings {
		fmt.Fprintf(w, "warning: %s\n", warn)
	}
	for _, e := range report.Errors {
		fmt.Fprintf(w, "error: %s\n", e)
	}
	return report.Err()
}

// Plan prints the collection plan of every getData task, or only of taskID.
func Plan(ctx context.Context, app *App, w io.Writer, taskID string) error {
	g, err := app.Graph(ctx)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NODE\tTASK\tSTEP\tKEY\tLABEL\tKIND")
	found := false
	for _, n := range g.Nodes {
		for _, task := range n.Tasks {
			if task.Kind != domain.TaskGetData || (taskID != "" && task.ID != taskID) {
				continue
			}
			found = true
			if err := validator.ValidateTemplate(task.Template); err != nil {
				fmt.Fprintf(tw, "%s\t%s\t-\t-\t%v\t-\n", n.ID, task.ID, err)
				continue
			}
			for i, entry := range runtime.BuildPlan(task.Template) {
				fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\t%s\n", n.ID, task.ID, i+1, entry.Key(), entry.Label, entry.Kind)
			}
		}
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	if taskID != "" && !found {
		return fmt.Errorf("no getData task %q in the flow", taskID)
	}
	return nil
}

// Graph prints the flow as Mermaid, overlaid with the path of sessionID
// when given.
func Graph(ctx context.Context, app *App, w io.Writer, sessionID string) error {
	g, err := app.Graph(ctx)
	if err != nil {
		return err
	}
	var overlay *graph.GraphOverlay
	if sessionID != "" {
		snap, err := app.Manager.Load(ctx, sessionID)
		if err != nil {
			return err
		}
		overlay = graph.OverlayFromSession(snap)
	}
	_, err = io.WriteString(w, graph.GenerateMermaid(g, overlay))
	return err
}
