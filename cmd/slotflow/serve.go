package main

import (
	"context"

	"github.com/aretw0/slotflow/internal/cli"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve [flow]",
	Short: "Start the HTTP server",
	Long:  `Exposes sessions over a JSON API: start, input, task completion, stop, inspection, the flow graph and Prometheus metrics.`,
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		setFlowArg(cmd, args)
		sigCtx := cli.NewSignalContext(context.Background())
		defer sigCtx.Cancel()

		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("watch") {
			cfg.Runtime.Watch, _ = cmd.Flags().GetBool("watch")
		}
		debug, _ := cmd.Flags().GetBool("debug")
		app, err := cli.NewApp(sigCtx, cfg, cli.NewLogger(cfg, debug))
		if err != nil {
			return err
		}
		defer app.Close()

		addr, _ := cmd.Flags().GetString("addr")
		if addr == "" {
			addr = app.Config.HTTP.Addr
		}
		return cli.Serve(sigCtx, app, addr)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("addr", "a", "", "Address to listen on (default from config, :8080)")
	serveCmd.Flags().BoolP("watch", "w", false, "Reload a directory flow and the catalog on edits")
}
