package main

import (
	"github.com/aretw0/slotflow/internal/cli"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run [flow]",
	Short: "Run a dialogue interactively",
	Long: `Starts a dialogue on the terminal. Type /stop to halt it, /skip to accept
the waiting task as complete and /abort to abandon it. With --json, turns are
written as NDJSON and input is read one JSON value per line.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := cli.RunOptions{}
		opts.ConfigPath, _ = cmd.Flags().GetString("config")
		opts.Flow, _ = cmd.Flags().GetString("flow")
		if opts.Flow == "" && len(args) > 0 {
			opts.Flow = args[0]
		}
		opts.Catalog, _ = cmd.Flags().GetString("catalog")
		opts.Store, _ = cmd.Flags().GetString("store")
		opts.Debug, _ = cmd.Flags().GetBool("debug")
		opts.SessionID, _ = cmd.Flags().GetString("session")
		opts.Resume, _ = cmd.Flags().GetBool("resume")
		opts.Fresh, _ = cmd.Flags().GetBool("fresh")
		opts.JSON, _ = cmd.Flags().GetBool("json")
		opts.NoBanner, _ = cmd.Flags().GetBool("no-banner")
		return cli.Execute(opts)
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringP("session", "s", "", "Session ID (generated when empty)")
	runCmd.Flags().Bool("resume", false, "Continue the stored session if it is still waiting")
	runCmd.Flags().Bool("fresh", false, "Delete the stored session before starting")
	runCmd.Flags().Bool("json", false, "Run in JSON mode (NDJSON input/output)")
	runCmd.Flags().Bool("no-banner", false, "Do not print the banner")

	rootCmd.RunE = runCmd.RunE
	rootCmd.Flags().AddFlagSet(runCmd.Flags())
}
