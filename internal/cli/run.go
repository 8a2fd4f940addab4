package cli

import (
	"context"
	"io"
	"os"

	"github.com/aretw0/slotflow/internal/config"
)

// RunOptions contains all the configuration for the run command.
type RunOptions struct {
	ConfigPath string
	// Flow, Catalog and Store override the configuration when set.
	Flow      string
	Catalog   string
	Store     string
	SessionID string
	Resume    bool
	Fresh     bool
	JSON      bool
	Debug     bool
	NoBanner  bool

	In  io.Reader
	Out io.Writer
}

// LoadConfig reads the configuration and applies flag overrides.
func LoadConfig(path, flow, catalog, store string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if flow != "" {
		cfg.Flow = flow
	}
	if catalog != "" {
		cfg.Catalog = catalog
	}
	if store != "" {
		cfg.Store.Kind = store
	}
	return cfg, cfg.Validate()
}

// Execute handles the run command.
func Execute(opts RunOptions) error {
	if opts.In == nil {
		opts.In = os.Stdin
	}
	if opts.Out == nil {
		opts.Out = os.Stdout
	}

	cfg, err := LoadConfig(opts.ConfigPath, opts.Flow, opts.Catalog, opts.Store)
	if err != nil {
		return err
	}
	logger := NewLogger(cfg, opts.Debug)

	sigCtx := NewSignalContext(context.Background())
	defer sigCtx.Cancel()

	app, err := NewApp(sigCtx, cfg, logger)
	if err != nil {
		return err
	}
	defer app.Close()

	if opts.Fresh && opts.SessionID != "" {
		if err := app.Manager.Delete(sigCtx, opts.SessionID); err != nil {
			logger.Debug("fresh start: nothing to delete", "session_id", opts.SessionID, "err", err)
		}
	}

	err = RunSession(sigCtx, app, opts)
	if sig := sigCtx.Signal(); sig != nil && !opts.JSON {
		printSystemMessage(opts.Out, "Interrupted (%s).", sig)
	}
	return handleExecutionError(err)
}
