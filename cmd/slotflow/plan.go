package main

import (
	"github.com/aretw0/slotflow/internal/cli"
	"github.com/spf13/cobra"
)

var planCmd = &cobra.Command{
	Use:   "plan [flow]",
	Short: "Print the collection plan of each data task",
	Long:  `Flattens every getData template into the ordered list of items the dialogue will ask for.`,
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		setFlowArg(cmd, args)
		app, err := openApp(cmd.Context(), cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		task, _ := cmd.Flags().GetString("task")
		return cli.Plan(cmd.Context(), app, cmd.OutOrStdout(), task)
	},
}

func init() {
	rootCmd.AddCommand(planCmd)
	planCmd.Flags().String("task", "", "Only print the plan of this task")
}
