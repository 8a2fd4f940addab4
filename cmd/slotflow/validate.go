package main

import (
	"fmt"

	"github.com/aretw0/slotflow/internal/cli"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate [flow]",
	Short: "Check the flow for consistency",
	Long:  `Crawls the graph from its entry nodes and reports dangling edges, unreachable nodes and invalid templates.`,
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		setFlowArg(cmd, args)
		app, err := openApp(cmd.Context(), cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		if err := cli.Validate(cmd.Context(), app, cmd.OutOrStdout()); err != nil {
			return fmt.Errorf("validation failed: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Flow is valid!")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

// setFlowArg lets the flow be passed positionally instead of with --flow.
func setFlowArg(cmd *cobra.Command, args []string) {
	if len(args) > 0 && !cmd.Flags().Changed("flow") {
		_ = cmd.Flags().Set("flow", args[0])
	}
}
