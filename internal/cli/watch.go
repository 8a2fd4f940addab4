package cli

import (
	"context"
	"fmt"

	"github.com/aretw0/lifecycle"
	"github.com/aretw0/slotflow/internal/validator"
	"github.com/aretw0/slotflow/pkg/adapters/memory"
	"github.com/aretw0/slotflow/pkg/ports"
)

// Watch follows edits of the catalog and of a directory flow until ctx is
// done. A changed flow is validated and only then served to new sessions.
// It is a no-op unless the app was built with Runtime.Watch.
func (a *App) Watch(ctx context.Context) error {
	if !a.Config.Runtime.Watch {
		return nil
	}
	if a.catalog != nil {
		err := a.catalog.Watch(ctx, func(err error) {
			a.Logger.Warn("catalog reload failed", "dir", a.Config.Catalog, "err", err)
		})
		if err != nil {
			return err
		}
		a.Logger.Info("watching catalog", "dir", a.Config.Catalog)
	}

	w, ok := a.source.(ports.Watchable)
	if !ok {
		a.Logger.Info("flow source is re-read on change, not watched", "flow", a.Config.Flow)
		return nil
	}
	changes, err := w.Watch(ctx)
	if err != nil {
		return err
	}
	a.Logger.Info("watching flow", "dir", a.Config.Flow)
	lifecycle.Go(ctx, func(ctx context.Context) error {
		for id := range changes {
			if err := a.ReloadFlow(ctx); err != nil {
				a.Logger.Warn("flow change rejected", "document", id, "err", err)
				continue
			}
			a.Logger.Info("flow reloaded", "document", id)
		}
		return nil
	})
	return nil
}

// ReloadFlow re-reads the watched flow source and, if it validates, serves
// it to new sessions. An invalid edit leaves the previous graph in place.
func (a *App) ReloadFlow(ctx context.Context) error {
	live, ok := a.Provider.(*memory.Provider)
	if !ok || a.source == nil {
		return fmt.Errorf("flow is not watched")
	}
	g, err := a.source.Graph(ctx)
	if err != nil {
		return err
	}
	if err := validator.ValidateGraph(g).Err(); err != nil {
		return err
	}
	live.Set(g)
	return nil
}
