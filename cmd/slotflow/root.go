package main

import (
	"context"
	"fmt"
	"os"

	"github.com/aretw0/slotflow/internal/cli"
	"github.com/aretw0/slotflow/internal/config"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "slotflow",
	Short: "slotflow runs slot-filling dialogue flows",
	Long: `slotflow walks a flow graph of nodes and tasks, asking the user for each
piece of data a template describes, escalating on missing or invalid answers
and confirming every captured value.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "Config file (default slotflow.yaml if present)")
	rootCmd.PersistentFlags().String("flow", "", "Flow file or directory of node documents")
	rootCmd.PersistentFlags().String("catalog", "", "Directory of translation documents")
	rootCmd.PersistentFlags().String("store", "", "Session store: memory, file, sqlite or redis")
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging on stderr")
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	flow, _ := cmd.Flags().GetString("flow")
	catalog, _ := cmd.Flags().GetString("catalog")
	store, _ := cmd.Flags().GetString("store")
	return cli.LoadConfig(path, flow, catalog, store)
}

// openApp builds the application from flags and config. The caller closes it.
func openApp(ctx context.Context, cmd *cobra.Command) (*cli.App, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	debug, _ := cmd.Flags().GetBool("debug")
	return cli.NewApp(ctx, cfg, cli.NewLogger(cfg, debug))
}
