package cli

import (
	"context"
	"os"

	"github.com/aretw0/slotflow"
	"github.com/aretw0/slotflow/internal/presentation/tui"
	"github.com/aretw0/slotflow/pkg/runner"
)

// RunSession drives one dialogue of app over opts.In/opts.Out.
func RunSession(ctx context.Context, app *App, opts RunOptions) error {
	var handler runner.IOHandler
	if opts.JSON {
		handler = runner.NewJSONHandler(opts.In, opts.Out)
	} else {
		textOpts := []runner.TextHandlerOption{}
		if f, ok := opts.Out.(*os.File); ok && tui.IsInteractive(f) {
			textOpts = append(textOpts,
				runner.WithTextHandlerRenderer(tui.NewRenderer(tui.Width(f, 80))),
				runner.WithTextHandlerStyler(tui.DetectStyler()),
			)
			if !opts.NoBanner {
				tui.PrintBanner(f, slotflow.Version)
			}
		}
		handler = runner.NewTextHandler(opts.In, opts.Out, textOpts...)
	}

	r := runner.New(app.Manager,
		runner.WithLogger(app.Logger),
		runner.WithInputHandler(handler),
		runner.WithSessionID(opts.SessionID),
		runner.WithResume(opts.Resume),
	)
	snap, err := r.Run(ctx)
	if snap != nil {
		app.Logger.Info("session finished",
			"session_id", snap.ID,
			"status", snap.Status,
			"completed", snap.Completed,
		)
	}
	return err
}
